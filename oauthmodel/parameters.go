package oauthmodel

import (
	"fmt"
	"strings"

	"github.com/jrsteele09/go-oauth-agent/oauth2"
)

// reservedParams are set by the agent itself and cannot be supplied by the SPA
var reservedParams = map[string]struct{}{
	oauth2.ParamClientID:            {},
	oauth2.ParamResponseType:        {},
	oauth2.ParamResponseMode:        {},
	oauth2.ParamRedirectURI:         {},
	oauth2.ParamState:               {},
	oauth2.ParamCodeChallenge:       {},
	oauth2.ParamCodeChallengeMethod: {},
	oauth2.ParamRequestURI:          {},
	oauth2.ParamClientSecret:        {},
}

// ExtraParam is an additional authorization request parameter supplied by the SPA.
// Example: {"key": "prompt", "value": "login"} or {"key": "ui_locales", "value": "sv"}
type ExtraParam struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// StartLoginRequest is the optional JSON body of POST /login/start.
type StartLoginRequest struct {
	// ExtraParams are appended to the authorization request in order.
	// Required: No
	// Validated: Keys must be non empty and must not replace a parameter
	// the agent sets itself (client_id, state, code_challenge, ...)
	ExtraParams []ExtraParam `json:"extraParams,omitempty"`
}

func (r StartLoginRequest) Validate() error {
	for _, p := range r.ExtraParams {
		key := strings.TrimSpace(p.Key)
		if key == "" {
			return ErrEmptyParameterKey
		}
		if _, reserved := reservedParams[key]; reserved {
			return fmt.Errorf("%w: %s", ErrReservedParameter, key)
		}
	}
	return nil
}

// StartLoginResponse is returned by POST /login/start.
type StartLoginResponse struct {
	// AuthorizationRequestURL is where the SPA redirects the browser.
	// Example: "https://login.example.com/oauth/authorize?client_id=spa&response_type=code&..."
	AuthorizationRequestURL string `json:"authorizationRequestUrl"`
}

// AuthorizationRequestState is everything the agent must remember between
// /login/start and /login/end. It travels as JSON inside the encrypted
// temp login cookie and is never stored server side.
type AuthorizationRequestState struct {
	// CodeVerifier is the PKCE secret whose S256 hash was sent as code_challenge.
	// Length: 43 characters (32 random bytes, base64url)
	CodeVerifier string `json:"codeVerifier"`

	// State is compared with the state returned by the authorization server.
	// Security: A mismatch ends the login with invalid_request
	State string `json:"state"`

	// ExtraParams are the SPA supplied parameters sent with the request.
	ExtraParams []ExtraParam `json:"extraParams,omitempty"`
}

// EndLoginRequest is the JSON body of POST /login/end.
type EndLoginRequest struct {
	// PageURL is the full URL the SPA was loaded with, including the query
	// string holding the authorization response if there is one.
	// Example: "https://www.example.com/?code=C1&state=S1"
	PageURL string `json:"pageUrl"`
}

// EndLoginResponse is returned by POST /login/end.
type EndLoginResponse struct {
	// Handled is true when the page URL held an authorization response that
	// was processed by this call.
	Handled bool `json:"handled"`

	// IsLoggedIn is true when the browser now holds an access token cookie.
	IsLoggedIn bool `json:"isLoggedIn"`

	// CSRF is the plaintext token the SPA must echo in the CSRF header on
	// state changing calls. Null when the user is not logged in.
	CSRF *string `json:"csrf"`
}

// LogoutResponse is returned by POST /logout.
type LogoutResponse struct {
	// URL is the end session endpoint the SPA redirects to.
	// Example: "https://login.example.com/oauth/logout?client_id=spa&post_logout_redirect_uri=https%3A%2F%2Fwww.example.com%2F"
	URL string `json:"url"`
}

// CallbackResult is the outcome of parsing the page URL at /login/end.
// Error is set when the authorization server reported a failure.
type CallbackResult struct {
	Code             string
	State            string
	Error            string
	ErrorDescription string
}

// IsOAuthResponse reports whether a code and state pair was found
func (c CallbackResult) IsOAuthResponse() bool {
	return c.Code != "" && c.State != ""
}

// IsErrorResponse reports whether the authorization server returned an error
// instead of a code
func (c CallbackResult) IsErrorResponse() bool {
	return !c.IsOAuthResponse() && c.Error != ""
}
