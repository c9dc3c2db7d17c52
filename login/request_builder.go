package login

import (
	"context"
	"net/url"
	"strings"

	"github.com/jrsteele09/go-oauth-agent/internal/config"
	"github.com/jrsteele09/go-oauth-agent/oauth2"
	"github.com/jrsteele09/go-oauth-agent/oauthmodel"
	xoauth2 "golang.org/x/oauth2"
)

// Login modes, used as a metric attribute
const (
	ModeDirect = "direct"
	ModePAR    = "par"
)

// RequestBuilder turns a new login's state into the URL the browser is
// sent to.
type RequestBuilder interface {
	Build(ctx context.Context, state oauthmodel.AuthorizationRequestState) (string, error)
	Mode() string
}

// PARClient pushes authorization request parameters to the authorization server
type PARClient interface {
	PushAuthorizationRequest(ctx context.Context, params url.Values) (*oauth2.PARResponse, error)
}

// DirectRequestBuilder puts every parameter in the authorization URL's query string
type DirectRequestBuilder struct {
	oauth *xoauth2.Config
}

var _ RequestBuilder = (*DirectRequestBuilder)(nil)

func NewDirectRequestBuilder(oauth *xoauth2.Config) *DirectRequestBuilder {
	return &DirectRequestBuilder{oauth: oauth}
}

func (b *DirectRequestBuilder) Mode() string {
	return ModeDirect
}

func (b *DirectRequestBuilder) Build(_ context.Context, state oauthmodel.AuthorizationRequestState) (string, error) {
	opts := []xoauth2.AuthCodeOption{xoauth2.S256ChallengeOption(state.CodeVerifier)}
	for _, p := range state.ExtraParams {
		opts = append(opts, xoauth2.SetAuthURLParam(p.Key, p.Value))
	}
	return b.oauth.AuthCodeURL(state.State, opts...), nil
}

// PARRequestBuilder pushes the parameters to the PAR endpoint and sends the
// browser to the authorization endpoint with only the returned request_uri.
type PARRequestBuilder struct {
	client       PARClient
	config       config.OAuthConfig
	responseMode oauth2.ResponseModeType
}

var _ RequestBuilder = (*PARRequestBuilder)(nil)

// NewPARRequestBuilder requests JWT secured responses when jarm is set
func NewPARRequestBuilder(client PARClient, cfg config.OAuthConfig, jarm bool) *PARRequestBuilder {
	b := &PARRequestBuilder{client: client, config: cfg}
	if jarm {
		b.responseMode = oauth2.JWTResponseMode
	}
	return b
}

func (b *PARRequestBuilder) Mode() string {
	return ModePAR
}

func (b *PARRequestBuilder) Build(ctx context.Context, state oauthmodel.AuthorizationRequestState) (string, error) {
	params := url.Values{}
	params.Set(oauth2.ParamClientID, b.config.GetClientID())
	params.Set(oauth2.ParamResponseType, string(oauth2.CodeResponseType))
	params.Set(oauth2.ParamRedirectURI, b.config.GetRedirectURI())
	params.Set(oauth2.ParamState, state.State)
	params.Set(oauth2.ParamCodeChallenge, xoauth2.S256ChallengeFromVerifier(state.CodeVerifier))
	params.Set(oauth2.ParamCodeChallengeMethod, string(oauth2.CodeMethodTypeS256))
	if b.config.GetScope() != "" {
		params.Set(oauth2.ParamScope, b.config.GetScope())
	}
	if b.responseMode != "" {
		params.Set(oauth2.ParamResponseMode, string(b.responseMode))
	}
	for _, p := range state.ExtraParams {
		params.Set(p.Key, p.Value)
	}

	par, err := b.client.PushAuthorizationRequest(ctx, params)
	if err != nil {
		return "", err
	}

	query := url.Values{}
	query.Set(oauth2.ParamClientID, b.config.GetClientID())
	query.Set(oauth2.ParamRequestURI, par.RequestURI)

	endpoint := b.config.GetAuthorizeExternalEndpoint()
	separator := "?"
	if strings.Contains(endpoint, "?") {
		separator = "&"
	}
	return endpoint + separator + query.Encode(), nil
}
