package login

import (
	"github.com/jrsteele09/go-oauth-agent/internal/config"
	"github.com/jrsteele09/go-oauth-agent/token/jwt"
	xoauth2 "golang.org/x/oauth2"
)

// NewStrategies picks the request builder and response parser. Financial
// grade clients use PAR with JARM responses, everyone else a plain
// authorization URL and query string response.
func NewStrategies(cfg config.OAuthConfig, oauth *xoauth2.Config, par PARClient, verifier jwt.Verifier) (RequestBuilder, ResponseParser) {
	if cfg.GetFinancialGrade() {
		return NewPARRequestBuilder(par, cfg, true), NewJARMResponseParser(verifier)
	}
	return NewDirectRequestBuilder(oauth), QueryResponseParser{}
}
