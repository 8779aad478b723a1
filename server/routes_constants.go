package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Pass flow
	RouteCheckout   = "/api/checkout"
	RouteSuccess    = "/api/success"
	RouteVerifyPass = "/api/verify-pass"

	// Presence
	RoutePing  = "/api/ping"
	RouteStats = "/api/stats"

	// Paths the site's scripts called when these were Netlify functions
	RouteLegacyCheckout   = "/.netlify/functions/checkout"
	RouteLegacySuccess    = "/.netlify/functions/success"
	RouteLegacyVerifyPass = "/.netlify/functions/verify-pass"
	RouteLegacyPing       = "/.netlify/functions/ping"
	RouteLegacyStats      = "/.netlify/functions/stats"

	// Operations
	RouteHealth  = "/healthz"
	RouteMetrics = "/metrics"

	// Static Asset Routes (patterns)
	RouteStaticJS = "/js/{file}"
)
