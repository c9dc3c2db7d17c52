// Package authserver is the outbound side of the agent: every call to the
// authorization server's PAR, token and userinfo endpoints goes through Client.
package authserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jrsteele09/go-oauth-agent/instrumentation"
	"github.com/jrsteele09/go-oauth-agent/internal/config"
	agenterrors "github.com/jrsteele09/go-oauth-agent/internal/errors"
	"github.com/jrsteele09/go-oauth-agent/internal/utils"
	"github.com/jrsteele09/go-oauth-agent/oauth2"
	"github.com/jrsteele09/go-oauth-agent/oauthmodel"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
	xoauth2 "golang.org/x/oauth2"
)

const maxResponseBytes = 1 << 20

// Client calls the authorization server on behalf of the SPA. It holds no
// per-request state and is safe for concurrent use.
type Client struct {
	config     config.OAuthConfig
	oauth      *xoauth2.Config
	httpClient *http.Client
	metrics    *instrumentation.Metrics
	tracer     trace.Tracer
	nowTime    func() time.Time
}

func NewClient(cfg config.OAuthConfig, httpClient *http.Client, inst *instrumentation.Instrumentation) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		config:     cfg,
		oauth:      newOAuth2Config(cfg),
		httpClient: httpClient,
		metrics:    inst.Metrics(),
		tracer:     inst.Tracer("authserver"),
		nowTime:    time.Now,
	}
}

// newOAuth2Config never leaves the auth style to autodetection, which would
// retry a rejected request with the other style.
func newOAuth2Config(cfg config.OAuthConfig) *xoauth2.Config {
	authStyle := xoauth2.AuthStyleInParams
	if cfg.GetTokenEndpointAuthMethod() == config.AuthMethodClientSecretBasic {
		authStyle = xoauth2.AuthStyleInHeader
	}

	secret := cfg.GetClientSecret()
	if cfg.GetTokenEndpointAuthMethod() == config.AuthMethodNone {
		secret = ""
	}

	var scopes []string
	if cfg.GetScope() != "" {
		scopes = strings.Fields(cfg.GetScope())
	}

	return &xoauth2.Config{
		ClientID:     cfg.GetClientID(),
		ClientSecret: secret,
		RedirectURL:  cfg.GetRedirectURI(),
		Scopes:       scopes,
		Endpoint: xoauth2.Endpoint{
			AuthURL:   cfg.GetAuthorizeExternalEndpoint(),
			TokenURL:  cfg.GetTokenEndpoint(),
			AuthStyle: authStyle,
		},
	}
}

// OAuth2Config is the x/oauth2 configuration used for front channel URLs
// and token endpoint calls.
func (c *Client) OAuth2Config() *xoauth2.Config {
	return c.oauth
}

func (c *Client) withHTTPClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, xoauth2.HTTPClient, c.httpClient)
}

// PushAuthorizationRequest posts the authorization request parameters to the
// PAR endpoint. Any error response is an authorization server failure.
func (c *Client) PushAuthorizationRequest(ctx context.Context, params url.Values) (*oauth2.PARResponse, error) {
	form := url.Values{}
	for k, v := range params {
		form[k] = append([]string(nil), v...)
	}

	status, body, err := c.post(ctx, GrantPAR, c.config.GetPAREndpoint(), form, "")
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		return nil, Classify(GrantPAR, status, string(body))
	}

	var par oauth2.PARResponse
	if err := json.Unmarshal(body, &par); err != nil {
		return nil, agenterrors.AuthorizationServerFailure("PAR response was not valid JSON", err)
	}
	if par.RequestURI == "" {
		return nil, agenterrors.AuthorizationServerFailure("PAR response did not contain a request_uri", nil)
	}
	return &par, nil
}

// RedeemCode exchanges an authorization code and PKCE verifier for tokens
func (c *Client) RedeemCode(ctx context.Context, req oauthmodel.TokenRequest) (*oauth2.TokenResponse, error) {
	ctx, span := c.tracer.Start(ctx, "authserver.RedeemCode")
	defer span.End()

	started := c.nowTime()
	token, err := c.oauth.Exchange(c.withHTTPClient(ctx), req.Code, xoauth2.VerifierOption(req.CodeVerifier))
	return c.tokenResult(ctx, span, GrantAuthorizationCode, started, token, err)
}

// Refresh runs the refresh token grant
func (c *Client) Refresh(ctx context.Context, req oauthmodel.TokenRequest) (*oauth2.TokenResponse, error) {
	ctx, span := c.tracer.Start(ctx, "authserver.Refresh")
	defer span.End()

	started := c.nowTime()
	source := c.oauth.TokenSource(c.withHTTPClient(ctx), &xoauth2.Token{RefreshToken: req.RefreshToken})
	token, err := source.Token()
	return c.tokenResult(ctx, span, GrantRefreshToken, started, token, err)
}

func (c *Client) tokenResult(ctx context.Context, span trace.Span, grant Grant, started time.Time, token *xoauth2.Token, err error) (*oauth2.TokenResponse, error) {
	status := http.StatusOK
	var classified error

	if err != nil {
		var retrieveErr *xoauth2.RetrieveError
		switch {
		case errors.As(err, &retrieveErr) && retrieveErr.Response != nil:
			status = retrieveErr.Response.StatusCode
			if status >= 200 && status <= 299 {
				classified = agenterrors.AuthorizationServerFailure(fmt.Sprintf("%s response could not be parsed", grant), err)
			} else {
				classified = Classify(grant, status, string(retrieveErr.Body))
			}
		case strings.Contains(err.Error(), "server response missing access_token"):
			classified = agenterrors.AuthorizationServerFailure(fmt.Sprintf("%s response did not contain an access token", grant), err)
		default:
			status = 0
			classified = connectionFailure(grant, err)
		}
	}

	c.record(ctx, span, grant, c.config.GetTokenEndpoint(), status, started, classified)
	if classified != nil {
		return nil, classified
	}

	response := &oauth2.TokenResponse{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
		ExpiresIn:   int(token.ExpiresIn),
	}
	if token.RefreshToken != "" {
		response.RefreshToken = utils.Ptr(token.RefreshToken)
	}
	if idToken, ok := token.Extra("id_token").(string); ok && idToken != "" {
		response.IdToken = utils.Ptr(idToken)
	}
	return response, nil
}

// UserInfo downloads the user's claims with the access token as a bearer credential
func (c *Client) UserInfo(ctx context.Context, accessToken string) (map[string]any, error) {
	status, body, err := c.post(ctx, GrantUserInfo, c.config.GetUserInfoEndpoint(), url.Values{}, accessToken)
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		return nil, Classify(GrantUserInfo, status, string(body))
	}

	var claims map[string]any
	if err := json.Unmarshal(body, &claims); err != nil {
		return nil, agenterrors.AuthorizationServerFailure("User info response was not a JSON object", err)
	}
	return claims, nil
}

// post sends a form to the authorization server. Client authentication is
// added unless a bearer token is given.
func (c *Client) post(ctx context.Context, grant Grant, endpoint string, form url.Values, bearer string) (int, []byte, error) {
	ctx, span := c.tracer.Start(ctx, "authserver."+strings.ReplaceAll(string(grant), " ", ""))
	defer span.End()

	started := c.nowTime()

	if bearer == "" {
		c.applyClientAuth(form)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return 0, nil, agenterrors.UnhandledServerError(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	} else if c.config.GetTokenEndpointAuthMethod() == config.AuthMethodClientSecretBasic {
		req.SetBasicAuth(url.QueryEscape(c.config.GetClientID()), url.QueryEscape(c.config.GetClientSecret()))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		classified := connectionFailure(grant, err)
		c.record(ctx, span, grant, endpoint, 0, started, classified)
		return 0, nil, classified
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		classified := connectionFailure(grant, err)
		c.record(ctx, span, grant, endpoint, resp.StatusCode, started, classified)
		return 0, nil, classified
	}

	var classified error
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		classified = fmt.Errorf("status %d", resp.StatusCode)
	}
	c.record(ctx, span, grant, endpoint, resp.StatusCode, started, classified)
	return resp.StatusCode, body, nil
}

func (c *Client) applyClientAuth(form url.Values) {
	switch c.config.GetTokenEndpointAuthMethod() {
	case config.AuthMethodClientSecretBasic:
	case config.AuthMethodNone:
		form.Set(oauth2.ParamClientID, c.config.GetClientID())
	default:
		form.Set(oauth2.ParamClientID, c.config.GetClientID())
		form.Set(oauth2.ParamClientSecret, c.config.GetClientSecret())
	}
}

func (c *Client) record(ctx context.Context, span trace.Span, grant Grant, endpoint string, status int, started time.Time, err error) {
	durationMs := float64(c.nowTime().Sub(started).Microseconds()) / 1000
	c.metrics.RecordAuthServerCall(ctx, string(grant), status, durationMs)
	instrumentation.AddAuthServerAttributes(span, string(grant), endpoint, status)

	logger := zerolog.Ctx(ctx)
	if err != nil {
		instrumentation.RecordError(span, err)
		logger.Debug().Str("grant", string(grant)).Int("status", status).Float64("durationMs", durationMs).Msg("authorization server call failed")
		return
	}
	instrumentation.SetSpanSuccess(span)
	logger.Debug().Str("grant", string(grant)).Int("status", status).Float64("durationMs", durationMs).Msg("authorization server call")
}
