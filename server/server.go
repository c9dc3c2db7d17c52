// Package server is the HTTP surface of the agent. It maps the SPA's requests
// onto the login engine and token manager and writes every failure as a
// JSON error body.
package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-oauth-agent/cookies"
	"github.com/jrsteele09/go-oauth-agent/csrf"
	"github.com/jrsteele09/go-oauth-agent/instrumentation"
	"github.com/jrsteele09/go-oauth-agent/internal/config"
	"github.com/jrsteele09/go-oauth-agent/login"
	"github.com/jrsteele09/go-oauth-agent/token"
	"github.com/rs/zerolog/log"
)

type Server struct {
	env     string
	mux     *http.ServeMux
	routes  []string
	config  config.Config
	names   cookies.Names
	engine  *login.Engine
	manager *token.Manager
	guard   *csrf.Guard
	inst    *instrumentation.Instrumentation
	metrics *instrumentation.Metrics
}

// Dependencies are the components a Server routes requests to
type Dependencies struct {
	Engine          *login.Engine
	Manager         *token.Manager
	Guard           *csrf.Guard
	Instrumentation *instrumentation.Instrumentation
}

func New(cfg config.Config, deps Dependencies) *Server {
	s := &Server{
		env:     cfg.GetEnv(),
		mux:     http.NewServeMux(),
		config:  cfg,
		names:   cookies.NewNames(cfg.GetCookieNamePrefix()),
		engine:  deps.Engine,
		manager: deps.Manager,
		guard:   deps.Guard,
		inst:    deps.Instrumentation,
		metrics: deps.Instrumentation.Metrics(),
	}

	s.initRoutes()
	s.logRoutes()

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// Routes lists the registered route patterns
func (s *Server) Routes() []string {
	return append([]string(nil), s.routes...)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	color, ok := methodColors[method]
	if !ok {
		color = Gray
	}
	log.Info().Msgf("[%-19s] %s", color+paddedMethod+ResetColor, path)
}
