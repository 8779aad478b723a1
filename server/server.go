package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/JoshuaLakeSexton/Reeflux/checkout"
	"github.com/JoshuaLakeSexton/Reeflux/internal/config"
	"github.com/JoshuaLakeSexton/Reeflux/internal/metrics"
	"github.com/JoshuaLakeSexton/Reeflux/pass"
	"github.com/JoshuaLakeSexton/Reeflux/presence"
)

// Services holds the domain services the HTTP layer fronts.
type Services struct {
	Checkout *checkout.Service
	Verifier *pass.Verifier
	Presence *presence.Service
}

type Server struct {
	env      string // Environment (e.g., "DEV", "PROD")
	mux      *http.ServeMux
	routes   []string
	config   config.Config
	checkout *checkout.Service
	verifier *pass.Verifier
	presence *presence.Service
}

func New(config config.Config, services Services) (*Server, error) {
	if services.Checkout == nil {
		return nil, errors.New("[Server New] checkout service is required")
	}
	if services.Verifier == nil {
		return nil, errors.New("[Server New] pass verifier is required")
	}
	if services.Presence == nil {
		services.Presence = presence.NewService(nil, 0, 0)
	}

	s := &Server{
		env:      config.GetEnv(),
		mux:      http.NewServeMux(),
		config:   config,
		checkout: services.Checkout,
		verifier: services.Verifier,
		presence: services.Presence,
	}

	metrics.Init()
	s.initRoutes()
	s.logRoutes()

	return s, nil
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

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)
		if len(parts) > 1 {
			log.Debug().Str("method", parts[0]).Str("path", parts[1]).Msg("Route registered")
		} else {
			log.Debug().Str("path", parts[0]).Msg("Route registered")
		}
	}
}
