package token

import (
	"encoding/json"
	"fmt"

	"github.com/jrsteele09/go-oauth-agent/cookies"
	"github.com/jrsteele09/go-oauth-agent/internal/config"
	agenterrors "github.com/jrsteele09/go-oauth-agent/internal/errors"
	"github.com/jrsteele09/go-oauth-agent/oauth2"
	"github.com/jrsteele09/go-oauth-agent/oauthmodel"
)

// SessionCookies builds the Set-Cookie headers that carry a session. Each
// cookie is scoped to the narrowest path that needs to read it.
type SessionCookies struct {
	codec       *cookies.Codec
	names       cookies.Names
	base        cookies.Attributes
	loginMaxAge int

	loginPath   string
	refreshPath string
	claimsPath  string
}

func NewSessionCookies(cfg config.Config, codec *cookies.Codec) *SessionCookies {
	endpoints := "/" + cfg.GetEndpointsPrefix()
	return &SessionCookies{
		codec: codec,
		names: cookies.NewNames(cfg.GetCookieNamePrefix()),
		base: cookies.Attributes{
			Domain:   cfg.GetCookieDomain(),
			Path:     cfg.GetCookiePath(),
			Secure:   cfg.GetCookieSecure(),
			SameSite: cfg.GetCookieSameSite(),
		},
		loginMaxAge: cfg.GetLoginCookieMaxAge(),
		loginPath:   endpoints + "/login",
		refreshPath: endpoints + "/refresh",
		claimsPath:  endpoints + "/claims",
	}
}

func (s *SessionCookies) Names() cookies.Names {
	return s.names
}

// TempLogin encrypts the authorization request state into the short lived
// login cookie read back by /login/end.
func (s *SessionCookies) TempLogin(state oauthmodel.AuthorizationRequestState) (string, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("failed to serialize login state: %w", err)
	}
	return s.codec.EncryptedCookie(s.names.TempLogin, string(data), s.base.WithPath(s.loginPath).WithExpiresIn(s.loginMaxAge))
}

// ReadTempLogin decrypts and parses the login cookie value
func (s *SessionCookies) ReadTempLogin(value string) (*oauthmodel.AuthorizationRequestState, error) {
	plaintext, err := s.codec.Decrypt(value)
	if err != nil {
		return nil, err
	}
	var state oauthmodel.AuthorizationRequestState
	if err := json.Unmarshal([]byte(plaintext), &state); err != nil {
		return nil, agenterrors.CookieDecryption(fmt.Errorf("failed to parse login state: %w", err))
	}
	return &state, nil
}

func (s *SessionCookies) UnsetTempLogin() string {
	return s.codec.UnsetCookie(s.names.TempLogin, s.base.WithPath(s.loginPath))
}

// CSRF encrypts the CSRF token into its cookie
func (s *SessionCookies) CSRF(token string) (string, error) {
	return s.codec.EncryptedCookie(s.names.CSRF, token, s.base)
}

// ForTokens returns the access, refresh and ID token cookies for a token
// response. Refresh and ID token cookies are only issued when present.
func (s *SessionCookies) ForTokens(tokens *oauth2.TokenResponse) ([]string, error) {
	headers := make([]string, 0, 3)

	at, err := s.codec.EncryptedCookie(s.names.AccessToken, tokens.AccessToken, s.base)
	if err != nil {
		return nil, err
	}
	headers = append(headers, at)

	if tokens.RefreshToken != nil {
		rt, err := s.codec.EncryptedCookie(s.names.Refresh, *tokens.RefreshToken, s.base.WithPath(s.refreshPath))
		if err != nil {
			return nil, err
		}
		headers = append(headers, rt)
	}

	if tokens.IdToken != nil {
		id, err := s.codec.EncryptedCookie(s.names.IDToken, *tokens.IdToken, s.base.WithPath(s.claimsPath))
		if err != nil {
			return nil, err
		}
		headers = append(headers, id)
	}

	return headers, nil
}

// Unset removes every session cookie, each with the path it was issued on
func (s *SessionCookies) Unset() []string {
	return []string{
		s.codec.UnsetCookie(s.names.Refresh, s.base.WithPath(s.refreshPath)),
		s.codec.UnsetCookie(s.names.AccessToken, s.base),
		s.codec.UnsetCookie(s.names.IDToken, s.base.WithPath(s.claimsPath)),
		s.codec.UnsetCookie(s.names.CSRF, s.base),
	}
}
