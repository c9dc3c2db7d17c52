package server

import (
	"fmt"
	"net/http"

	"github.com/jrsteele09/go-oauth-agent/authserver"
	"github.com/jrsteele09/go-oauth-agent/cookies"
	"github.com/jrsteele09/go-oauth-agent/csrf"
	"github.com/jrsteele09/go-oauth-agent/instrumentation"
	"github.com/jrsteele09/go-oauth-agent/internal/config"
	"github.com/jrsteele09/go-oauth-agent/login"
	"github.com/jrsteele09/go-oauth-agent/token"
	"github.com/jrsteele09/go-oauth-agent/token/jwt"
)

// Bootstrap builds every component from the validated configuration and
// returns the server routing to them. A nil httpClient gets one with the
// configured timeout.
func Bootstrap(cfg config.Config, inst *instrumentation.Instrumentation, httpClient *http.Client) (*Server, error) {
	key, err := cookies.KeyFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("[server Bootstrap] failed to load the cookie key: %w", err)
	}

	codec, err := cookies.NewCodec(key)
	if err != nil {
		return nil, fmt.Errorf("[server Bootstrap] failed to create the cookie codec: %w", err)
	}

	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.GetHTTPTimeout()}
	}

	client := authserver.NewClient(cfg, httpClient, inst)
	sessionCookies := token.NewSessionCookies(cfg, codec)
	validator := jwt.NewIDTokenValidator(cfg.GetIssuer(), cfg.GetClientID())
	manager := token.NewManager(cfg, client, codec, sessionCookies, validator, inst.Metrics())

	var verifier jwt.Verifier
	if cfg.GetFinancialGrade() {
		verifier = jwt.NewRemoteVerifier(cfg.GetIssuer(), cfg.GetJWKSURI(), cfg.GetClientID(), httpClient)
	}
	builder, parser := login.NewStrategies(cfg, client.OAuth2Config(), client, verifier)
	engine := login.NewEngine(builder, parser, client, manager, codec, sessionCookies, inst.Metrics())

	return New(cfg, Dependencies{
		Engine:          engine,
		Manager:         manager,
		Guard:           csrf.NewGuard(codec, cfg.GetTrustedWebOrigins(), cfg.GetCookieNamePrefix()),
		Instrumentation: inst,
	}), nil
}
