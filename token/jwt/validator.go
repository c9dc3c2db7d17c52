package jwt

import (
	"errors"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// DefaultLeeway is the clock skew tolerated on exp, iat and nbf
const DefaultLeeway = 30 * time.Second

var ErrAuthorizedParty = errors.New("token azp claim does not match the client")

// IDTokenValidator checks the claims of an ID token obtained from the token
// endpoint. The signature is not re-verified since the token came over TLS
// straight from the authorization server.
type IDTokenValidator struct {
	issuer   string
	clientID string
	leeway   time.Duration
}

func NewIDTokenValidator(issuer, clientID string) *IDTokenValidator {
	return &IDTokenValidator{
		issuer:   issuer,
		clientID: clientID,
		leeway:   DefaultLeeway,
	}
}

// Validate requires the configured issuer, the client in aud, an unexpired
// exp and, when present or when there are several audiences, a matching azp.
func (v *IDTokenValidator) Validate(claims map[string]any) error {
	mapClaims := jwtlib.MapClaims(claims)

	validator := jwtlib.NewValidator(
		jwtlib.WithIssuer(v.issuer),
		jwtlib.WithAudience(v.clientID),
		jwtlib.WithLeeway(v.leeway),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithTimeFunc(func() time.Time { return NowTimeFunc() }),
	)
	if err := validator.Validate(mapClaims); err != nil {
		return fmt.Errorf("id token claims rejected: %w", err)
	}

	audiences, err := mapClaims.GetAudience()
	if err != nil {
		return fmt.Errorf("id token claims rejected: %w", err)
	}

	azp, hasAzp := claims["azp"].(string)
	if (hasAzp || len(audiences) > 1) && azp != v.clientID {
		return ErrAuthorizedParty
	}
	return nil
}

// ValidateToken decodes rawToken without verification and validates its claims
func (v *IDTokenValidator) ValidateToken(rawToken string) (map[string]any, error) {
	claims, err := DecodeUnverified(rawToken)
	if err != nil {
		return nil, err
	}
	if err := v.Validate(claims); err != nil {
		return nil, err
	}
	return claims, nil
}
