package login_test

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-oauth-agent/authserver"
	"github.com/jrsteele09/go-oauth-agent/cookies"
	"github.com/jrsteele09/go-oauth-agent/instrumentation"
	agenterrors "github.com/jrsteele09/go-oauth-agent/internal/errors"
	"github.com/jrsteele09/go-oauth-agent/internal/testutil"
	"github.com/jrsteele09/go-oauth-agent/login"
	"github.com/jrsteele09/go-oauth-agent/oauthmodel"
	"github.com/jrsteele09/go-oauth-agent/token"
	"github.com/jrsteele09/go-oauth-agent/token/jwt"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	as      *testutil.AuthServer
	codec   *cookies.Codec
	cookies *token.SessionCookies
	engine  *login.Engine
}

func newFixture(t *testing.T, overrides map[string]any) *fixture {
	t.Helper()
	as := testutil.NewAuthServer(t)
	cfg := as.Config(overrides)

	key, err := hex.DecodeString(testutil.EncryptionKey)
	require.NoError(t, err)
	codec, err := cookies.NewCodec(key)
	require.NoError(t, err)

	inst, err := instrumentation.New(instrumentation.Config{})
	require.NoError(t, err)

	client := authserver.NewClient(cfg, as.Server.Client(), inst)
	sessionCookies := token.NewSessionCookies(cfg, codec)
	validator := jwt.NewIDTokenValidator(cfg.GetIssuer(), cfg.GetClientID())
	manager := token.NewManager(cfg, client, codec, sessionCookies, validator, inst.Metrics())
	verifier := jwt.NewRemoteVerifier(cfg.GetIssuer(), cfg.GetJWKSURI(), cfg.GetClientID(), as.Server.Client())

	builder, parser := login.NewStrategies(cfg, client.OAuth2Config(), client, verifier)
	return &fixture{
		as:      as,
		codec:   codec,
		cookies: sessionCookies,
		engine:  login.NewEngine(builder, parser, client, manager, codec, sessionCookies, inst.Metrics()),
	}
}

func (f *fixture) start(t *testing.T, req oauthmodel.StartLoginRequest) (*url.URL, *oauthmodel.AuthorizationRequestState, string) {
	t.Helper()
	resp, cookieHeader, err := f.engine.Start(context.Background(), req)
	require.NoError(t, err)

	authURL, err := url.Parse(resp.AuthorizationRequestURL)
	require.NoError(t, err)

	cookie, err := http.ParseSetCookie(cookieHeader)
	require.NoError(t, err)
	require.Equal(t, "example-login", cookie.Name)

	state, err := f.cookies.ReadTempLogin(cookie.Value)
	require.NoError(t, err)
	return authURL, state, cookie.Value
}

func (f *fixture) encrypt(t *testing.T, value string) string {
	t.Helper()
	encrypted, err := f.codec.Encrypt(value)
	require.NoError(t, err)
	return encrypted
}

func challenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func cookieNames(t *testing.T, headers []string) map[string]*http.Cookie {
	t.Helper()
	set := make(map[string]*http.Cookie)
	for _, h := range headers {
		c, err := http.ParseSetCookie(h)
		require.NoError(t, err)
		set[c.Name] = c
	}
	return set
}

func TestStart_Direct(t *testing.T) {
	f := newFixture(t, map[string]any{"clientId": "abc", "redirectUri": "https://app/cb"})

	authURL, state, _ := f.start(t, oauthmodel.StartLoginRequest{
		ExtraParams: []oauthmodel.ExtraParam{{Key: "prompt", Value: "login"}},
	})

	query := authURL.Query()
	require.Equal(t, testutil.AuthorizePath, authURL.Path)
	require.Equal(t, "abc", query.Get("client_id"))
	require.Equal(t, "code", query.Get("response_type"))
	require.Equal(t, "https://app/cb", query.Get("redirect_uri"))
	require.Equal(t, "S256", query.Get("code_challenge_method"))
	require.Equal(t, challenge(state.CodeVerifier), query.Get("code_challenge"))
	require.Equal(t, state.State, query.Get("state"))
	require.Equal(t, "openid profile", query.Get("scope"))
	require.Equal(t, "login", query.Get("prompt"))

	require.GreaterOrEqual(t, len(state.CodeVerifier), 43)
	require.LessOrEqual(t, len(state.CodeVerifier), 128)
	require.NotEqual(t, state.CodeVerifier, state.State)
	require.Empty(t, f.as.Requests(testutil.PARPath))
}

func TestStart_DirectUsesExternalAuthorizeEndpoint(t *testing.T) {
	f := newFixture(t, map[string]any{"authorizeExternalEndpoint": "https://login.public.example/authorize"})

	authURL, state, _ := f.start(t, oauthmodel.StartLoginRequest{})
	require.Equal(t, "https", authURL.Scheme)
	require.Equal(t, "login.public.example", authURL.Host)
	require.Equal(t, "/authorize", authURL.Path)
	require.Equal(t, state.State, authURL.Query().Get("state"))
}

func TestStart_FreshValuesEachTime(t *testing.T) {
	f := newFixture(t, nil)

	_, first, _ := f.start(t, oauthmodel.StartLoginRequest{})
	_, second, _ := f.start(t, oauthmodel.StartLoginRequest{})
	require.NotEqual(t, first.State, second.State)
	require.NotEqual(t, first.CodeVerifier, second.CodeVerifier)
}

func TestStart_RejectsReservedParameter(t *testing.T) {
	f := newFixture(t, nil)

	_, _, err := f.engine.Start(context.Background(), oauthmodel.StartLoginRequest{
		ExtraParams: []oauthmodel.ExtraParam{{Key: "state", Value: "attacker"}},
	})
	require.True(t, errors.Is(err, agenterrors.ErrInvalidRequest))
}

func TestStart_PAR(t *testing.T) {
	f := newFixture(t, map[string]any{"financialGrade": true})

	authURL, state, _ := f.start(t, oauthmodel.StartLoginRequest{})

	require.Equal(t, testutil.AuthorizePath, authURL.Path)
	require.Equal(t, testutil.ClientID, authURL.Query().Get("client_id"))
	require.Equal(t, "urn:ietf:params:oauth:request_uri:abc", authURL.Query().Get("request_uri"))
	require.Empty(t, authURL.Query().Get("code_challenge"))

	requests := f.as.Requests(testutil.PARPath)
	require.Len(t, requests, 1)
	form := requests[0].Form
	require.Equal(t, "code", form.Get("response_type"))
	require.Equal(t, "jwt", form.Get("response_mode"))
	require.Equal(t, state.State, form.Get("state"))
	require.Equal(t, challenge(state.CodeVerifier), form.Get("code_challenge"))
	require.Equal(t, "S256", form.Get("code_challenge_method"))
	require.Equal(t, testutil.RedirectURI, form.Get("redirect_uri"))
}

func TestStart_PARFailureIsGatewayError(t *testing.T) {
	f := newFixture(t, map[string]any{"financialGrade": true})
	f.as.PARHandler = testutil.RespondJSON(http.StatusBadRequest, map[string]any{"error": "invalid_request"})

	_, cookie, err := f.engine.Start(context.Background(), oauthmodel.StartLoginRequest{})
	require.Empty(t, cookie)
	require.True(t, errors.Is(err, agenterrors.ErrAuthorizationServerFailure))
	require.Equal(t, http.StatusBadGateway, agenterrors.FromError(err).Status)
}

func TestEnd_PlainCallback(t *testing.T) {
	f := newFixture(t, nil)
	_, state, tempLogin := f.start(t, oauthmodel.StartLoginRequest{})

	pageURL := "https://www.example.com/?code=C1&state=" + url.QueryEscape(state.State)
	resp, headers, err := f.engine.End(context.Background(), oauthmodel.EndLoginRequest{PageURL: pageURL}, login.EndCookies{TempLogin: tempLogin})
	require.NoError(t, err)
	require.True(t, resp.Handled)
	require.True(t, resp.IsLoggedIn)
	require.NotNil(t, resp.CSRF)

	requests := f.as.Requests(testutil.TokenPath)
	require.Len(t, requests, 1)
	require.Equal(t, "C1", requests[0].Form.Get("code"))
	require.Equal(t, state.CodeVerifier, requests[0].Form.Get("code_verifier"))

	set := cookieNames(t, headers)
	require.Contains(t, set, "example-at")
	require.Contains(t, set, "example-csrf")
	require.Contains(t, set, "example-login")
	require.NotContains(t, set, "example-auth")
	require.NotContains(t, set, "example-id")
	require.Empty(t, set["example-login"].Value)

	csrfValue, err := f.codec.Decrypt(set["example-csrf"].Value)
	require.NoError(t, err)
	require.Equal(t, *resp.CSRF, csrfValue)

	at, err := f.codec.Decrypt(set["example-at"].Value)
	require.NoError(t, err)
	require.Equal(t, "AT1", at)
}

func TestEnd_AllTokensAndExistingCSRF(t *testing.T) {
	f := newFixture(t, nil)
	f.as.TokenHandler = testutil.RespondJSON(http.StatusOK, map[string]any{
		"access_token":  "AT1",
		"refresh_token": "RT1",
		"id_token":      f.as.IDToken(nil),
	})
	_, state, tempLogin := f.start(t, oauthmodel.StartLoginRequest{})

	pageURL := "https://www.example.com/?code=C1&state=" + url.QueryEscape(state.State)
	resp, headers, err := f.engine.End(context.Background(), oauthmodel.EndLoginRequest{PageURL: pageURL}, login.EndCookies{
		TempLogin: tempLogin,
		CSRF:      f.encrypt(t, "existing-csrf"),
	})
	require.NoError(t, err)
	require.Equal(t, "existing-csrf", *resp.CSRF)

	set := cookieNames(t, headers)
	require.Contains(t, set, "example-auth")
	require.Contains(t, set, "example-id")
}

func TestEnd_UndecryptableCSRFIsReplaced(t *testing.T) {
	f := newFixture(t, nil)
	_, state, tempLogin := f.start(t, oauthmodel.StartLoginRequest{})

	pageURL := "https://www.example.com/?code=C1&state=" + url.QueryEscape(state.State)
	resp, _, err := f.engine.End(context.Background(), oauthmodel.EndLoginRequest{PageURL: pageURL}, login.EndCookies{
		TempLogin: tempLogin,
		CSRF:      "from-an-old-key",
	})
	require.NoError(t, err)
	require.NotEmpty(t, *resp.CSRF)
}

func TestEnd_Errors(t *testing.T) {
	f := newFixture(t, nil)
	_, state, tempLogin := f.start(t, oauthmodel.StartLoginRequest{})
	valid := "https://www.example.com/?code=C1&state=" + url.QueryEscape(state.State)

	tests := []struct {
		name       string
		pageURL    string
		cookies    login.EndCookies
		kind       *agenterrors.Error
		status     int
		clearsTemp bool
	}{
		{"missing page url", "", login.EndCookies{TempLogin: tempLogin}, agenterrors.ErrInvalidRequest, http.StatusBadRequest, false},
		{"missing temp login", valid, login.EndCookies{}, agenterrors.ErrMissingLoginState, http.StatusBadRequest, false},
		{"tampered temp login", valid, login.EndCookies{TempLogin: tempLogin + "x"}, agenterrors.ErrCookieDecryptionFailure, http.StatusUnauthorized, true},
		{"state mismatch", "https://www.example.com/?code=C1&state=other", login.EndCookies{TempLogin: tempLogin}, agenterrors.ErrInvalidState, http.StatusBadRequest, true},
		{"error response", "https://www.example.com/?error=login_required&state=" + url.QueryEscape(state.State), login.EndCookies{TempLogin: tempLogin}, agenterrors.ErrAuthorizationResponseError, http.StatusUnauthorized, true},
		{"access denied response", "https://www.example.com/?error=access_denied&state=" + url.QueryEscape(state.State), login.EndCookies{TempLogin: tempLogin}, agenterrors.ErrAuthorizationResponseError, http.StatusBadRequest, true},
		{"error response with foreign state", "https://www.example.com/?error=access_denied&state=forged", login.EndCookies{TempLogin: tempLogin}, agenterrors.ErrInvalidState, http.StatusBadRequest, true},
		{"error response without temp login", "https://www.example.com/?error=access_denied&state=forged", login.EndCookies{}, agenterrors.ErrAuthorizationResponseError, http.StatusBadRequest, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, headers, err := f.engine.End(context.Background(), oauthmodel.EndLoginRequest{PageURL: tt.pageURL}, tt.cookies)
			require.True(t, errors.Is(err, tt.kind), "got %v", err)
			require.Equal(t, tt.status, agenterrors.FromError(err).Status)

			if !tt.clearsTemp {
				require.Nil(t, headers)
				return
			}
			set := cookieNames(t, headers)
			require.Len(t, set, 1)
			require.Contains(t, set, "example-login")
			require.Empty(t, set["example-login"].Value)
		})
	}

	require.Empty(t, f.as.Requests(testutil.TokenPath))
}

func TestEnd_ConsumedCodeIsClassified(t *testing.T) {
	f := newFixture(t, nil)
	f.as.TokenHandler = testutil.RespondJSON(http.StatusBadRequest, map[string]any{"error": "invalid_grant"})
	_, state, tempLogin := f.start(t, oauthmodel.StartLoginRequest{})

	pageURL := "https://www.example.com/?code=C1&state=" + url.QueryEscape(state.State)
	_, headers, err := f.engine.End(context.Background(), oauthmodel.EndLoginRequest{PageURL: pageURL}, login.EndCookies{TempLogin: tempLogin})
	require.True(t, errors.Is(err, agenterrors.ErrAuthorizationError))

	set := cookieNames(t, headers)
	require.Contains(t, set, "example-login")
	require.Empty(t, set["example-login"].Value)
	require.NotContains(t, set, "example-at")
}

func TestEnd_InvalidIDTokenFromExchange(t *testing.T) {
	f := newFixture(t, nil)
	f.as.TokenHandler = testutil.RespondJSON(http.StatusOK, map[string]any{
		"access_token": "AT1",
		"id_token":     f.as.IDToken(jwtlib.MapClaims{"iss": "https://evil.example"}),
	})
	_, state, tempLogin := f.start(t, oauthmodel.StartLoginRequest{})

	pageURL := "https://www.example.com/?code=C1&state=" + url.QueryEscape(state.State)
	_, _, err := f.engine.End(context.Background(), oauthmodel.EndLoginRequest{PageURL: pageURL}, login.EndCookies{TempLogin: tempLogin})
	require.True(t, errors.Is(err, agenterrors.ErrInvalidIDToken))
}

func TestEnd_PageLoad(t *testing.T) {
	f := newFixture(t, nil)
	req := oauthmodel.EndLoginRequest{PageURL: "https://www.example.com/products?page=2"}

	t.Run("not logged in", func(t *testing.T) {
		resp, headers, err := f.engine.End(context.Background(), req, login.EndCookies{})
		require.NoError(t, err)
		require.Nil(t, headers)
		require.False(t, resp.Handled)
		require.False(t, resp.IsLoggedIn)
		require.Nil(t, resp.CSRF)
	})

	t.Run("logged in", func(t *testing.T) {
		resp, _, err := f.engine.End(context.Background(), req, login.EndCookies{
			AccessToken: f.encrypt(t, "AT1"),
			CSRF:        f.encrypt(t, "csrf-1"),
		})
		require.NoError(t, err)
		require.False(t, resp.Handled)
		require.True(t, resp.IsLoggedIn)
		require.Equal(t, "csrf-1", *resp.CSRF)
	})

	t.Run("logged in without csrf cookie", func(t *testing.T) {
		_, _, err := f.engine.End(context.Background(), req, login.EndCookies{AccessToken: f.encrypt(t, "AT1")})
		require.True(t, errors.Is(err, agenterrors.ErrUnauthorizedRequest))
	})
}

func TestEnd_JARM(t *testing.T) {
	f := newFixture(t, map[string]any{"financialGrade": true})
	_, state, tempLogin := f.start(t, oauthmodel.StartLoginRequest{})

	sign := func(claims jwtlib.MapClaims) string {
		claims["iss"] = f.as.Issuer()
		claims["aud"] = testutil.ClientID
		claims["exp"] = time.Now().Add(time.Minute).Unix()
		return f.as.Sign(claims)
	}
	end := func(response string) (*oauthmodel.EndLoginResponse, error) {
		pageURL := "https://www.example.com/?response=" + url.QueryEscape(response)
		resp, _, err := f.engine.End(context.Background(), oauthmodel.EndLoginRequest{PageURL: pageURL}, login.EndCookies{TempLogin: tempLogin})
		return resp, err
	}

	t.Run("code and state", func(t *testing.T) {
		resp, err := end(sign(jwtlib.MapClaims{"code": "C1", "state": state.State}))
		require.NoError(t, err)
		require.True(t, resp.Handled)
		require.Equal(t, "C1", f.as.Requests(testutil.TokenPath)[0].Form.Get("code"))
	})

	t.Run("error claim", func(t *testing.T) {
		_, err := end(sign(jwtlib.MapClaims{"error": "access_denied", "error_description": "User cancelled", "state": state.State}))
		require.True(t, errors.Is(err, agenterrors.ErrAuthorizationResponseError))
		agentErr := agenterrors.FromError(err)
		require.Equal(t, "access_denied", agentErr.Code)
		require.Equal(t, "User cancelled", agentErr.Message)
	})

	t.Run("error claim with foreign state", func(t *testing.T) {
		_, err := end(sign(jwtlib.MapClaims{"error": "access_denied", "state": "forged"}))
		require.True(t, errors.Is(err, agenterrors.ErrInvalidState))
	})

	t.Run("blank error claims use defaults", func(t *testing.T) {
		_, err := end(sign(jwtlib.MapClaims{"state": state.State}))
		agentErr := agenterrors.FromError(err)
		require.Equal(t, agenterrors.CodeAuthorizationResponse, agentErr.Code)
		require.NotEmpty(t, agentErr.Message)
	})

	t.Run("unverifiable response", func(t *testing.T) {
		other, err := testutil.GenerateRSAKeyPair("test-key-1")
		require.NoError(t, err)
		forged, err := other.Sign(jwtlib.MapClaims{
			"iss": f.as.Issuer(), "aud": testutil.ClientID, "exp": time.Now().Add(time.Minute).Unix(),
			"code": "C1", "state": state.State,
		})
		require.NoError(t, err)

		_, err = end(forged)
		require.True(t, errors.Is(err, agenterrors.ErrInvalidResponseJWT))
	})

	t.Run("plain query ignored", func(t *testing.T) {
		pageURL := "https://www.example.com/?code=C1&state=" + url.QueryEscape(state.State)
		resp, _, err := f.engine.End(context.Background(), oauthmodel.EndLoginRequest{PageURL: pageURL}, login.EndCookies{})
		require.NoError(t, err)
		require.False(t, resp.Handled)
	})
}
