package jwt

import (
	"context"
	"fmt"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
)

// Verifier checks the signature and standard claims of a JWT and returns
// its payload.
type Verifier interface {
	Verify(ctx context.Context, rawToken string) (map[string]any, error)
}

// RemoteVerifier verifies JWTs signed by the authorization server against
// the keys published at its JWKS endpoint. Keys are cached and refreshed
// when an unknown key ID is seen.
type RemoteVerifier struct {
	verifier *oidc.IDTokenVerifier
}

var _ Verifier = (*RemoteVerifier)(nil)

func NewRemoteVerifier(issuer, jwksURI, clientID string, httpClient *http.Client) *RemoteVerifier {
	ctx := context.Background()
	if httpClient != nil {
		ctx = oidc.ClientContext(ctx, httpClient)
	}

	keySet := oidc.NewRemoteKeySet(ctx, jwksURI)
	verifier := oidc.NewVerifier(issuer, keySet, &oidc.Config{
		ClientID:             clientID,
		SupportedSigningAlgs: []string{oidc.RS256, oidc.PS256, oidc.ES256},
		Now:                  NowTimeFunc,
	})

	return &RemoteVerifier{verifier: verifier}
}

func (v *RemoteVerifier) Verify(ctx context.Context, rawToken string) (map[string]any, error) {
	token, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, err
	}

	var claims map[string]any
	if err := token.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to read token claims: %w", err)
	}
	return claims, nil
}
