package oauth2

// TokenResponse represents the response from an OAuth2 token request.
// This is the standard OAuth2 token endpoint response format as defined in RFC 6749.
// Received from the token endpoint for the authorization_code and refresh_token grants.
type TokenResponse struct {
	// AccessToken is the token the SPA's API calls carry, via the access token cookie.
	// Example: "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."
	// Usage: Stored encrypted in the <prefix>-at cookie, read by an API gateway
	// Lifespan: Short-lived (typically 15 minutes - 1 hour)
	AccessToken string `json:"access_token"`

	// IdToken is the OpenID Connect ID token containing user identity information.
	// Example: "eyJhbGciOiJSUzI1NiIsInR5cCI6IkpXVCJ9..."
	// Usage: Stored encrypted in the <prefix>-id cookie, decoded by /claims
	// Only present: When "openid" scope was requested
	IdToken *string `json:"id_token,omitempty"`

	// TokenType indicates how to use the access token.
	// Example: "bearer"
	TokenType string `json:"token_type,omitempty"`

	// ExpiresIn is the lifetime in seconds of the access token.
	// Example: 900 (for 15 minutes)
	// Note: The cookie is a session cookie, the SPA refreshes on a 401 instead
	ExpiresIn int `json:"expires_in,omitempty"`

	// RefreshToken is an opaque token used to obtain new access tokens.
	// Example: "tGzv3JOkF0XG5Qx2TlKWIA"
	// Usage: Stored encrypted in the <prefix>-auth cookie, only sent to /refresh
	// Behavior: When a refresh response omits it the previous value stays in use
	RefreshToken *string `json:"refresh_token,omitempty"`
}

// PARResponse is the body returned by a Pushed Authorization Request (RFC 9126).
type PARResponse struct {
	// RequestURI references the pushed parameters in the browser redirect.
	// Example: "urn:ietf:params:oauth:request_uri:6esc_11ACC5bwc014ltc14eY22c"
	RequestURI string `json:"request_uri"`

	// ExpiresIn is how long the request_uri stays valid, in seconds.
	// Example: 60
	ExpiresIn int `json:"expires_in"`
}

