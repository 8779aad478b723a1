package server

import (
	"net/http"

	"github.com/JoshuaLakeSexton/Reeflux/internal/metrics"
)

func (s *Server) initRoutes() {
	// PASS
	s.registerPair(RouteCheckout, RouteLegacyCheckout, "POST", s.CheckoutHandler(), s.APIMiddleware())
	s.registerPair(RouteSuccess, RouteLegacySuccess, "GET", s.SuccessHandler(), s.RedirectMiddleware())
	s.registerPair(RouteVerifyPass, RouteLegacyVerifyPass, "GET", s.VerifyPassHandler(), s.APIMiddleware(s.NoStoreMiddleware))

	// PRESENCE
	s.registerPair(RoutePing, RouteLegacyPing, "POST", s.PingHandler(), s.APIMiddleware(s.NoStoreMiddleware))
	s.registerPair(RoutePing, RouteLegacyPing, "OPTIONS", s.PingHandler(), s.APIMiddleware())
	s.registerPair(RouteStats, RouteLegacyStats, "GET", s.StatsHandler(), s.APIMiddleware(s.NoStoreMiddleware))

	// OPERATIONS
	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())
	s.RegisterRouteHandler("GET "+RouteMetrics, metrics.Handler())

	s.RegisterRouteHandler("GET "+RouteStaticJS, ChainMiddleware(s.scriptHandler(), s.StaticMiddleware()...))
}

// registerPair registers the same chain under the current route and its
// legacy Netlify function path.
func (s *Server) registerPair(route, legacyRoute, method string, handler http.HandlerFunc, mw []func(http.HandlerFunc) http.HandlerFunc) {
	chained := ChainMiddleware(handler, mw...)
	s.RegisterRouteHandler(method+" "+route, chained)
	s.RegisterRouteHandler(method+" "+legacyRoute, chained)
}
