// Package csrf implements the origin and double submit cookie checks applied
// to every state changing request the SPA sends to the agent.
package csrf

import (
	"crypto/subtle"
	"fmt"
	"net/http"

	"github.com/jrsteele09/go-oauth-agent/cookies"
	"github.com/jrsteele09/go-oauth-agent/internal/config"
	agenterrors "github.com/jrsteele09/go-oauth-agent/internal/errors"
	"github.com/jrsteele09/go-oauth-agent/internal/utils"
)

const tokenBytes = 48

// Request carries the parts of an incoming request the guard inspects
type Request struct {
	Origin     string
	HeaderCSRF string
	CookieCSRF string
}

// Options selects which checks apply to a given endpoint
type Options struct {
	RequireTrustedOrigin bool
	RequireCSRFHeader    bool
}

type Guard struct {
	codec      *cookies.Codec
	origins    config.AllowedOrigins
	cookieName string
	headerName string
}

func NewGuard(codec *cookies.Codec, origins config.AllowedOrigins, cookieNamePrefix string) *Guard {
	return &Guard{
		codec:      codec,
		origins:    origins,
		cookieName: cookies.NewNames(cookieNamePrefix).CSRF,
		headerName: config.CSRFHeaderName(cookieNamePrefix),
	}
}

// HeaderName is the request header the SPA echoes the token in
func (g *Guard) HeaderName() string {
	return g.headerName
}

// RequestFrom extracts the origin, CSRF header and CSRF cookie from r
func (g *Guard) RequestFrom(r *http.Request) Request {
	req := Request{
		Origin:     r.Header.Get("Origin"),
		HeaderCSRF: r.Header.Get(g.headerName),
	}
	if c, err := r.Cookie(g.cookieName); err == nil {
		req.CookieCSRF = c.Value
	}
	return req
}

// Validate runs the selected checks. Failures are UnauthorizedRequest or
// CookieDecryptionFailure errors.
func (g *Guard) Validate(req Request, opts Options) error {
	if opts.RequireTrustedOrigin && !g.origins.IsAllowedOrigin(req.Origin) {
		return agenterrors.Unauthorized(fmt.Sprintf("The call is from an untrusted web origin: %q", req.Origin))
	}

	if !opts.RequireCSRFHeader {
		return nil
	}

	if req.CookieCSRF == "" {
		return agenterrors.Unauthorized("No CSRF cookie was supplied in a POST request")
	}

	expected, err := g.codec.Decrypt(req.CookieCSRF)
	if err != nil {
		return err
	}

	if req.HeaderCSRF == "" {
		return agenterrors.Unauthorized("No CSRF header was received in a POST request")
	}

	if subtle.ConstantTimeCompare([]byte(req.HeaderCSRF), []byte(expected)) != 1 {
		return agenterrors.Unauthorized("The CSRF header did not match the CSRF cookie in a POST request")
	}
	return nil
}

// NewToken returns a fresh random CSRF token
func NewToken() (string, error) {
	return utils.GenerateRandomString(tokenBytes)
}
