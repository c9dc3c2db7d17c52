package oauthmodel

// TokenRequest holds the grant specific parameters sent to the token endpoint.
// Client credentials and redirect_uri come from configuration.
type TokenRequest struct {
	// Code is the authorization code received from the authorization endpoint.
	// Required: Yes (only for authorization_code grant)
	// Example: "SplxlOBeZQQYbYS6WxSbIA"
	// Usage: Exchanged once for tokens, then becomes invalid
	Code string

	// CodeVerifier is the PKCE code verifier that matches the code_challenge.
	// Required: Yes (only for authorization_code grant)
	// Example: "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	// Validation: Server compares SHA256(code_verifier) with stored code_challenge
	CodeVerifier string

	// RefreshToken is used to obtain new access tokens without re-authentication.
	// Required: Yes (only for refresh_token grant)
	// Example: "tGzv3JOkF0XG5Qx2TlKWIA"
	// Behavior: May be rotated, the agent keeps the old value when no new one is returned
	RefreshToken string
}
