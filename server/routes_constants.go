package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	RouteIndex   = "/"
	RouteHealth  = "/health"
	RouteMetrics = "/metrics"

	// Auth Routes
	RouteAuthLogin = "/auth/login"
	RouteCallback  = "/auth/callback"
	RouteLogout    = "/logout"

	// Dashboard
	RouteDashboard = "/dashboard"
	RouteRemove    = "/remove"

	// Static Asset Routes (patterns)
	RouteStaticCSS = "/css/{file}"
	RouteStaticJS  = "/js/{file}"
)
