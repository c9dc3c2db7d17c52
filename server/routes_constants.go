package server

// Route paths relative to the configured endpoints prefix
const (
	RouteLoginStart = "/login/start"
	RouteLoginEnd   = "/login/end"
	RouteRefresh    = "/refresh"
	RouteClaims     = "/claims"
	RouteUserInfo   = "/userInfo"
	RouteLogout     = "/logout"

	// Served from the root, outside the prefix
	RouteMetrics = "/metrics"
	RouteHealth  = "/health"
)
