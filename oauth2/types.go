// Package oauth2 holds the OAuth 2.0 and OpenID Connect wire values the agent
// sends to and receives from the authorization server.
package oauth2

// ResponseType represents the OAuth 2.0 response type.
// Determines what is returned from the authorization endpoint.
type ResponseType string

const (
	// CodeResponseType indicates the authorization code flow.
	// Used in: every login the agent starts
	// Returns an authorization code that the agent exchanges for tokens at the token endpoint.
	// Example: /oauth/authorize?response_type=code&client_id=...
	CodeResponseType ResponseType = "code"
)

// ResponseModeType denotes how the authorization response parameters are returned to the client.
// Determines the mechanism used to send the auth code/error back to the redirect_uri.
type ResponseModeType string

const (
	// JWTResponseMode returns a single signed "response" parameter (JARM).
	// Used in: Financial grade logins, together with Pushed Authorization Requests
	// Example: https://www.example.com/?response=eyJhbGciOiJSUzI1NiJ9...
	// Security: code and state are signed by the authorization server and
	// verified against its JWKS before use
	JWTResponseMode ResponseModeType = "jwt"
)

// CodeMethodType represents the PKCE (Proof Key for Code Exchange) challenge method.
// Used to prevent authorization code interception attacks.
type CodeMethodType string

const (
	// CodeMethodTypeS256 indicates SHA-256 hashing is used for the code challenge.
	// Used in: every login the agent starts, plain is never offered
	// Client sends: code_challenge = BASE64URL(SHA256(code_verifier))
	// Server validates: SHA256(provided code_verifier) == stored code_challenge
	CodeMethodTypeS256 CodeMethodType = "S256"
)

// Request and response parameter names used on the front and back channels
const (
	ParamClientID              = "client_id"
	ParamResponseType          = "response_type"
	ParamResponseMode          = "response_mode"
	ParamRedirectURI           = "redirect_uri"
	ParamScope                 = "scope"
	ParamState                 = "state"
	ParamCode                  = "code"
	ParamCodeChallenge         = "code_challenge"
	ParamCodeChallengeMethod   = "code_challenge_method"
	ParamRequestURI            = "request_uri"
	ParamResponse              = "response"
	ParamError                 = "error"
	ParamErrorDescription      = "error_description"
	ParamPostLogoutRedirectURI = "post_logout_redirect_uri"
	ParamClientSecret          = "client_secret"
)

// Error codes returned by the authorization server that the agent reacts to
const (
	// ErrorInvalidGrant means the refresh token or code is expired, revoked or already used.
	// Used in: refresh classification, mapped to session_expired
	ErrorInvalidGrant = "invalid_grant"

	// ErrorLoginRequired is returned for prompt=none logins when the user has no SSO session.
	// Used in: /login/end, mapped to a 401 so the SPA can start an interactive login
	ErrorLoginRequired = "login_required"

	// ErrorServerError and ErrorTemporarilyUnavailable mean the authorization
	// server itself failed. Used in: /login/end, mapped to a 502
	ErrorServerError            = "server_error"
	ErrorTemporarilyUnavailable = "temporarily_unavailable"
)
