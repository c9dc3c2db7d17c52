// Package login drives the authorization code flow: building the
// authorization request at /login/start and completing it at /login/end.
package login

import (
	"context"
	"crypto/subtle"
	"net/url"
	"strings"

	"github.com/jrsteele09/go-oauth-agent/cookies"
	"github.com/jrsteele09/go-oauth-agent/csrf"
	"github.com/jrsteele09/go-oauth-agent/instrumentation"
	agenterrors "github.com/jrsteele09/go-oauth-agent/internal/errors"
	"github.com/jrsteele09/go-oauth-agent/internal/utils"
	"github.com/jrsteele09/go-oauth-agent/oauth2"
	"github.com/jrsteele09/go-oauth-agent/oauthmodel"
	"github.com/jrsteele09/go-oauth-agent/token"
	"github.com/rs/zerolog"
	xoauth2 "golang.org/x/oauth2"
)

const stateBytes = 32

// CodeExchanger redeems an authorization code at the token endpoint
type CodeExchanger interface {
	RedeemCode(ctx context.Context, req oauthmodel.TokenRequest) (*oauth2.TokenResponse, error)
}

// IDTokenChecker validates the ID token of a token response
type IDTokenChecker interface {
	ValidateIDToken(tokens *oauth2.TokenResponse) error
}

// EndCookies are the cookie values /login/end reads
type EndCookies struct {
	TempLogin   string
	AccessToken string
	CSRF        string
}

// Engine runs logins. The request and response strategies are chosen once
// when it is built.
type Engine struct {
	builder   RequestBuilder
	parser    ResponseParser
	exchanger CodeExchanger
	idTokens  IDTokenChecker
	codec     *cookies.Codec
	cookies   *token.SessionCookies
	metrics   *instrumentation.Metrics
}

func NewEngine(builder RequestBuilder, parser ResponseParser, exchanger CodeExchanger, idTokens IDTokenChecker, codec *cookies.Codec, sessionCookies *token.SessionCookies, metrics *instrumentation.Metrics) *Engine {
	return &Engine{
		builder:   builder,
		parser:    parser,
		exchanger: exchanger,
		idTokens:  idTokens,
		codec:     codec,
		cookies:   sessionCookies,
		metrics:   metrics,
	}
}

// Start creates a fresh PKCE verifier and state, builds the authorization
// request URL and returns it with the temp login cookie holding the state.
func (e *Engine) Start(ctx context.Context, req oauthmodel.StartLoginRequest) (*oauthmodel.StartLoginResponse, string, error) {
	if err := req.Validate(); err != nil {
		return nil, "", agenterrors.InvalidRequest("The login request contained invalid parameters", err.Error())
	}

	state, err := utils.GenerateRandomString(stateBytes)
	if err != nil {
		return nil, "", agenterrors.UnhandledServerError(err)
	}

	requestState := oauthmodel.AuthorizationRequestState{
		CodeVerifier: xoauth2.GenerateVerifier(),
		State:        state,
		ExtraParams:  req.ExtraParams,
	}

	authorizationURL, err := e.builder.Build(ctx, requestState)
	if err != nil {
		return nil, "", err
	}

	cookie, err := e.cookies.TempLogin(requestState)
	if err != nil {
		return nil, "", agenterrors.UnhandledServerError(err)
	}

	e.metrics.RecordLoginStarted(ctx, e.builder.Mode())
	zerolog.Ctx(ctx).Debug().Str("mode", e.builder.Mode()).Msg("login started")

	return &oauthmodel.StartLoginResponse{AuthorizationRequestURL: authorizationURL}, cookie, nil
}

// End inspects the SPA's page URL. When it holds an authorization response
// the code is exchanged and the session cookies are returned. Otherwise the
// current login state is reported.
func (e *Engine) End(ctx context.Context, req oauthmodel.EndLoginRequest, in EndCookies) (*oauthmodel.EndLoginResponse, []string, error) {
	if strings.TrimSpace(req.PageURL) == "" {
		return nil, nil, agenterrors.InvalidRequest("The pageUrl field is required", "login end called without a pageUrl")
	}

	pageURL, err := url.Parse(req.PageURL)
	if err != nil {
		return nil, nil, agenterrors.InvalidRequest("The pageUrl field is not a valid URL", err.Error())
	}

	result, err := e.parser.Parse(ctx, pageURL.Query())
	if err != nil {
		e.metrics.RecordLoginCompleted(ctx, false)
		return nil, e.clearTempLogin(in), err
	}

	if !result.IsOAuthResponse() && !result.IsErrorResponse() {
		resp, err := e.pageLoad(in)
		return resp, nil, err
	}

	resp, headers, err := e.complete(ctx, result, in)
	e.metrics.RecordLoginCompleted(ctx, err == nil)
	if err != nil {
		return nil, e.clearTempLogin(in), err
	}
	return resp, headers, nil
}

// clearTempLogin expires the temp login cookie after a failed callback, since
// its state can never be used again.
func (e *Engine) clearTempLogin(in EndCookies) []string {
	if in.TempLogin == "" {
		return nil
	}
	return []string{e.cookies.UnsetTempLogin()}
}

func (e *Engine) complete(ctx context.Context, result oauthmodel.CallbackResult, in EndCookies) (*oauthmodel.EndLoginResponse, []string, error) {
	if in.TempLogin == "" {
		if result.IsErrorResponse() {
			return nil, nil, agenterrors.AuthorizationResponseError(result.Error, result.ErrorDescription)
		}
		return nil, nil, agenterrors.MissingLoginState()
	}

	stored, err := e.cookies.ReadTempLogin(in.TempLogin)
	if err != nil {
		return nil, nil, err
	}

	if subtle.ConstantTimeCompare([]byte(stored.State), []byte(result.State)) != 1 {
		return nil, nil, agenterrors.InvalidState()
	}

	if result.IsErrorResponse() {
		return nil, nil, agenterrors.AuthorizationResponseError(result.Error, result.ErrorDescription)
	}

	tokens, err := e.exchanger.RedeemCode(ctx, oauthmodel.TokenRequest{
		Code:         result.Code,
		CodeVerifier: stored.CodeVerifier,
	})
	if err != nil {
		return nil, nil, err
	}

	if err := e.idTokens.ValidateIDToken(tokens); err != nil {
		return nil, nil, err
	}

	csrfToken, err := e.csrfToken(ctx, in.CSRF)
	if err != nil {
		return nil, nil, err
	}

	csrfCookie, err := e.cookies.CSRF(csrfToken)
	if err != nil {
		return nil, nil, agenterrors.UnhandledServerError(err)
	}

	tokenCookies, err := e.cookies.ForTokens(tokens)
	if err != nil {
		return nil, nil, agenterrors.UnhandledServerError(err)
	}

	headers := append([]string{csrfCookie, e.cookies.UnsetTempLogin()}, tokenCookies...)
	return &oauthmodel.EndLoginResponse{
		Handled:    true,
		IsLoggedIn: true,
		CSRF:       &csrfToken,
	}, headers, nil
}

// csrfToken keeps an existing token so that a second tab completing a login
// does not invalidate the first. A cookie that no longer decrypts is replaced.
func (e *Engine) csrfToken(ctx context.Context, csrfCookie string) (string, error) {
	if csrfCookie != "" {
		existing, err := e.codec.Decrypt(csrfCookie)
		if err == nil {
			return existing, nil
		}
		zerolog.Ctx(ctx).Info().Msg("existing CSRF cookie could not be decrypted, issuing a new one")
	}

	token, err := csrf.NewToken()
	if err != nil {
		return "", agenterrors.UnhandledServerError(err)
	}
	return token, nil
}

func (e *Engine) pageLoad(in EndCookies) (*oauthmodel.EndLoginResponse, error) {
	resp := &oauthmodel.EndLoginResponse{IsLoggedIn: in.AccessToken != ""}
	if !resp.IsLoggedIn {
		return resp, nil
	}

	if in.CSRF == "" {
		return nil, agenterrors.Unauthorized("No CSRF cookie was supplied during a page load of an authenticated session")
	}

	csrfToken, err := e.codec.Decrypt(in.CSRF)
	if err != nil {
		return nil, err
	}
	resp.CSRF = &csrfToken
	return resp, nil
}
