// Package testutil provides a fake authorization server and configuration
// helpers shared by the package tests.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-oauth-agent/internal/config"
	"github.com/stretchr/testify/require"
)

// Paths served by the fake authorization server
const (
	AuthorizePath = "/oauth/v2/oauth-authorize"
	PARPath       = "/oauth/v2/oauth-authorize/par"
	TokenPath     = "/oauth/v2/oauth-token"
	UserInfoPath  = "/oauth/v2/oauth-userinfo"
	JWKSPath      = "/oauth/v2/oauth-anonymous/jwks"
	LogoutPath    = "/oauth/v2/oauth-session/logout"
	IssuerPath    = "/oauth/v2/oauth-anonymous"
)

// Test fixtures
const (
	ClientID      = "spa-client"
	ClientSecret  = "Password1"
	RedirectURI   = "https://www.example.com/"
	WebOrigin     = "https://www.example.com"
	CookiePrefix  = "example"
	EncryptionKey = "4e4636356d65563e4c73233847503e3b21436e6f7629724950526f4b5e2e4e50"
	Subject       = "demouser"
)

// Request is a request captured by the fake server
type Request struct {
	Path          string
	Form          url.Values
	Authorization string
}

// AuthServer is an httptest backed authorization server. Handlers can be
// replaced per test to script responses.
type AuthServer struct {
	t      *testing.T
	Server *httptest.Server
	Keys   *KeyPair

	mu              sync.Mutex
	requests        []Request
	TokenHandler    http.HandlerFunc
	PARHandler      http.HandlerFunc
	UserInfoHandler http.HandlerFunc
}

func NewAuthServer(t *testing.T) *AuthServer {
	t.Helper()

	keys, err := GenerateRSAKeyPair("test-key-1")
	require.NoError(t, err)

	as := &AuthServer{t: t, Keys: keys}
	as.TokenHandler = RespondJSON(http.StatusOK, map[string]any{"access_token": "AT1", "token_type": "bearer"})
	as.PARHandler = RespondJSON(http.StatusCreated, map[string]any{"request_uri": "urn:ietf:params:oauth:request_uri:abc", "expires_in": 60})
	as.UserInfoHandler = RespondJSON(http.StatusOK, map[string]any{"sub": Subject, "given_name": "Demo"})

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+TokenPath, as.capture(func(w http.ResponseWriter, r *http.Request) { as.TokenHandler(w, r) }))
	mux.HandleFunc("POST "+PARPath, as.capture(func(w http.ResponseWriter, r *http.Request) { as.PARHandler(w, r) }))
	mux.HandleFunc("POST "+UserInfoPath, as.capture(func(w http.ResponseWriter, r *http.Request) { as.UserInfoHandler(w, r) }))
	mux.HandleFunc("GET "+JWKSPath, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, JWKS{Keys: []JWK{keys.ToJWK()}})
	})

	as.Server = httptest.NewServer(mux)
	t.Cleanup(as.Server.Close)
	return as
}

func (as *AuthServer) capture(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			as.t.Errorf("fake authorization server could not parse form: %v", err)
		}
		as.mu.Lock()
		as.requests = append(as.requests, Request{
			Path:          r.URL.Path,
			Form:          r.PostForm,
			Authorization: r.Header.Get("Authorization"),
		})
		as.mu.Unlock()
		next(w, r)
	}
}

// Requests returns the captured requests to path
func (as *AuthServer) Requests(path string) []Request {
	as.mu.Lock()
	defer as.mu.Unlock()
	var matched []Request
	for _, r := range as.requests {
		if r.Path == path {
			matched = append(matched, r)
		}
	}
	return matched
}

func (as *AuthServer) URL(path string) string {
	return as.Server.URL + path
}

func (as *AuthServer) Issuer() string {
	return as.URL(IssuerPath)
}

// Sign signs claims with the server key
func (as *AuthServer) Sign(claims jwt.MapClaims) string {
	signed, err := as.Keys.Sign(claims)
	require.NoError(as.t, err)
	return signed
}

// IDToken returns a signed ID token for the test client. Overrides replace
// or add claims, a nil override value removes the claim.
func (as *AuthServer) IDToken(overrides jwt.MapClaims) string {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":       as.Issuer(),
		"aud":       ClientID,
		"azp":       ClientID,
		"sub":       Subject,
		"iat":       now.Unix(),
		"exp":       now.Add(15 * time.Minute).Unix(),
		"auth_time": now.Unix(),
	}
	for k, v := range overrides {
		if v == nil {
			delete(claims, k)
			continue
		}
		claims[k] = v
	}
	return as.Sign(claims)
}

// Values returns configuration values pointing at this server
func (as *AuthServer) Values() map[string]any {
	return map[string]any{
		"clientId":              ClientID,
		"clientSecret":          ClientSecret,
		"redirectUri":           RedirectURI,
		"postLogoutRedirectUri": RedirectURI,
		"issuer":                as.Issuer(),
		"jwksUri":               as.URL(JWKSPath),
		"authorizeEndpoint":     as.URL(AuthorizePath),
		"tokenEndpoint":         as.URL(TokenPath),
		"userInfoEndpoint":      as.URL(UserInfoPath),
		"logoutEndpoint":        as.URL(LogoutPath),
		"trustedWebOrigins":     []string{WebOrigin},
		"cookie": map[string]any{
			"namePrefix":    CookiePrefix,
			"encryptionKey": EncryptionKey,
		},
	}
}

// Config builds a validated configuration for this server with overrides
// applied on top of Values.
func (as *AuthServer) Config(overrides map[string]any) config.Config {
	values := as.Values()
	for k, v := range overrides {
		values[k] = v
	}
	c, err := config.FromValues(values)
	require.NoError(as.t, err)
	return c
}

// RespondJSON returns a handler writing body as JSON with status
func RespondJSON(status int, body any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, status, body)
	}
}

// RespondText returns a handler writing a plain text body with status
func RespondText(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
