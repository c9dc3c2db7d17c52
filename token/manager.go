// Package token manages an established session: refreshing tokens, reading
// ID token claims, downloading user info and logging out.
package token

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/jrsteele09/go-oauth-agent/cookies"
	"github.com/jrsteele09/go-oauth-agent/instrumentation"
	"github.com/jrsteele09/go-oauth-agent/internal/config"
	agenterrors "github.com/jrsteele09/go-oauth-agent/internal/errors"
	"github.com/jrsteele09/go-oauth-agent/internal/utils"
	"github.com/jrsteele09/go-oauth-agent/oauth2"
	"github.com/jrsteele09/go-oauth-agent/oauthmodel"
	"github.com/jrsteele09/go-oauth-agent/token/jwt"
)

// AuthServerClient is the part of the authorization server client the
// manager needs
type AuthServerClient interface {
	Refresh(ctx context.Context, req oauthmodel.TokenRequest) (*oauth2.TokenResponse, error)
	UserInfo(ctx context.Context, accessToken string) (map[string]any, error)
}

type Manager struct {
	config    config.OAuthConfig
	client    AuthServerClient
	codec     *cookies.Codec
	cookies   *SessionCookies
	validator *jwt.IDTokenValidator
	metrics   *instrumentation.Metrics
}

func NewManager(cfg config.OAuthConfig, client AuthServerClient, codec *cookies.Codec, sessionCookies *SessionCookies, validator *jwt.IDTokenValidator, metrics *instrumentation.Metrics) *Manager {
	return &Manager{
		config:    cfg,
		client:    client,
		codec:     codec,
		cookies:   sessionCookies,
		validator: validator,
		metrics:   metrics,
	}
}

// Refresh runs the refresh token grant with the token held in the refresh
// cookie and returns the cookies to set. The CSRF cookie is left as is so
// other tabs stay valid.
func (m *Manager) Refresh(ctx context.Context, refreshCookie string) ([]string, error) {
	headers, err := m.refresh(ctx, refreshCookie)
	m.metrics.RecordTokenRefresh(ctx, err == nil)
	return headers, err
}

func (m *Manager) refresh(ctx context.Context, refreshCookie string) ([]string, error) {
	if refreshCookie == "" {
		return nil, agenterrors.Unauthorized("No auth cookie was supplied in a token refresh call")
	}

	refreshToken, err := m.codec.Decrypt(refreshCookie)
	if err != nil {
		return nil, err
	}

	tokens, err := m.client.Refresh(ctx, oauthmodel.TokenRequest{RefreshToken: refreshToken})
	if err != nil {
		return nil, err
	}

	if err := m.ValidateIDToken(tokens); err != nil {
		return nil, err
	}

	return m.cookies.ForTokens(tokens)
}

// ValidateIDToken checks the ID token of a token response, if there is one
func (m *Manager) ValidateIDToken(tokens *oauth2.TokenResponse) error {
	idToken := utils.Value(tokens.IdToken)
	if idToken == "" {
		return nil
	}
	if _, err := m.validator.ValidateToken(idToken); err != nil {
		return agenterrors.InvalidIDToken(err)
	}
	return nil
}

// Claims returns the payload of the ID token held in the ID token cookie
func (m *Manager) Claims(idTokenCookie string) (map[string]any, error) {
	if idTokenCookie == "" {
		return nil, agenterrors.Unauthorized("No ID cookie was supplied in a call to get claims")
	}

	idToken, err := m.codec.Decrypt(idTokenCookie)
	if err != nil {
		return nil, err
	}

	claims, err := m.validator.ValidateToken(idToken)
	if err != nil {
		return nil, agenterrors.InvalidIDToken(err)
	}
	return claims, nil
}

// UserInfo downloads the user's claims with the access token cookie
func (m *Manager) UserInfo(ctx context.Context, accessTokenCookie string) (map[string]any, error) {
	if accessTokenCookie == "" {
		return nil, agenterrors.Unauthorized("No access token cookie was supplied in a call to get user info")
	}

	accessToken, err := m.codec.Decrypt(accessTokenCookie)
	if err != nil {
		return nil, err
	}

	return m.client.UserInfo(ctx, accessToken)
}

// Logout returns the end session URL and the cookies that clear the session
func (m *Manager) Logout(ctx context.Context, accessTokenCookie string) (*oauthmodel.LogoutResponse, []string, error) {
	if accessTokenCookie == "" {
		return nil, nil, agenterrors.Unauthorized("No access token cookie was supplied in a logout call")
	}

	logoutURL, err := m.logoutURL()
	if err != nil {
		return nil, nil, err
	}

	m.metrics.RecordLogout(ctx)
	return &oauthmodel.LogoutResponse{URL: logoutURL}, m.cookies.Unset(), nil
}

func (m *Manager) logoutURL() (string, error) {
	endpoint := m.config.GetLogoutEndpoint()
	if endpoint == "" {
		return "", agenterrors.UnhandledServerError(errors.New("logoutEndpoint is not configured"))
	}

	query := url.Values{}
	query.Set(oauth2.ParamClientID, m.config.GetClientID())
	if m.config.GetPostLogoutRedirectURI() != "" {
		query.Set(oauth2.ParamPostLogoutRedirectURI, m.config.GetPostLogoutRedirectURI())
	}

	separator := "?"
	if strings.Contains(endpoint, "?") {
		separator = "&"
	}
	return endpoint + separator + query.Encode(), nil
}
