package login

import (
	"context"
	"net/url"

	agenterrors "github.com/jrsteele09/go-oauth-agent/internal/errors"
	"github.com/jrsteele09/go-oauth-agent/oauth2"
	"github.com/jrsteele09/go-oauth-agent/oauthmodel"
	"github.com/jrsteele09/go-oauth-agent/token/jwt"
)

// ResponseParser reads the authorization response from the query string of
// the page URL. An empty result means the page load was not a redirect back
// from the authorization server. Error responses are returned as results so
// that their state can be checked before the error is raised.
type ResponseParser interface {
	Parse(ctx context.Context, query url.Values) (oauthmodel.CallbackResult, error)
}

// QueryResponseParser reads code and state directly from the query string
type QueryResponseParser struct{}

var _ ResponseParser = QueryResponseParser{}

func (QueryResponseParser) Parse(_ context.Context, query url.Values) (oauthmodel.CallbackResult, error) {
	result := oauthmodel.CallbackResult{
		Code:  query.Get(oauth2.ParamCode),
		State: query.Get(oauth2.ParamState),
	}
	if result.IsOAuthResponse() {
		return result, nil
	}

	if query.Get(oauth2.ParamError) != "" && result.State != "" {
		return oauthmodel.CallbackResult{
			State:            result.State,
			Error:            query.Get(oauth2.ParamError),
			ErrorDescription: query.Get(oauth2.ParamErrorDescription),
		}, nil
	}
	return oauthmodel.CallbackResult{}, nil
}

// JARMResponseParser verifies the signed response parameter and reads code
// and state from its claims.
type JARMResponseParser struct {
	verifier jwt.Verifier
}

var _ ResponseParser = (*JARMResponseParser)(nil)

func NewJARMResponseParser(verifier jwt.Verifier) *JARMResponseParser {
	return &JARMResponseParser{verifier: verifier}
}

func (p *JARMResponseParser) Parse(ctx context.Context, query url.Values) (oauthmodel.CallbackResult, error) {
	response := query.Get(oauth2.ParamResponse)
	if response == "" {
		return oauthmodel.CallbackResult{}, nil
	}

	claims, err := p.verifier.Verify(ctx, response)
	if err != nil {
		return oauthmodel.CallbackResult{}, agenterrors.InvalidResponseJWT(err)
	}

	result := oauthmodel.CallbackResult{
		Code:  stringClaim(claims, oauth2.ParamCode),
		State: stringClaim(claims, oauth2.ParamState),
	}
	if result.IsOAuthResponse() {
		return result, nil
	}

	// A verified response without a code is always a failed login
	result.Error = stringClaim(claims, oauth2.ParamError)
	if result.Error == "" {
		result.Error = agenterrors.CodeAuthorizationResponse
	}
	result.ErrorDescription = stringClaim(claims, oauth2.ParamErrorDescription)
	return result, nil
}

func stringClaim(claims map[string]any, name string) string {
	value, _ := claims[name].(string)
	return value
}
