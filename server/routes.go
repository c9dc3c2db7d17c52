package server

import (
	"net/http"
)

func (s *Server) initRoutes() {
	prefix := "/" + s.config.GetEndpointsPrefix()

	s.RegisterRouteHandler("POST "+prefix+RouteLoginStart, ChainMiddleware(s.LoginStartHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+prefix+RouteLoginEnd, ChainMiddleware(s.LoginEndHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+prefix+RouteRefresh, ChainMiddleware(s.RefreshHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+prefix+RouteClaims, ChainMiddleware(s.ClaimsHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+prefix+RouteUserInfo, ChainMiddleware(s.UserInfoHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+prefix+RouteLogout, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware()...))

	// Preflight for every agent endpoint
	s.RegisterRouteHandler("OPTIONS "+prefix+"/", ChainMiddleware(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}, s.APIMiddleware()...))

	s.RegisterRouteFunc("GET "+RouteHealth, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if handler := s.inst.MetricsHandler(); handler != nil {
		s.RegisterRouteHandler("GET "+RouteMetrics, handler)
	}
}
