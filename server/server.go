package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/jrsteele09/jobboard-auth/auth"
	"github.com/jrsteele09/jobboard-auth/internal/config"
	"github.com/jrsteele09/jobboard-auth/metrics"
	"github.com/jrsteele09/jobboard-auth/ratelimit"
)

type Server struct {
	env      string // Environment (e.g., "DEV", "PROD")
	mux      *http.ServeMux
	routes   []string
	policies PolicyTable
	config   config.Config
	auth     *auth.AuthService
	limiter  ratelimit.Limiter
	metrics  *metrics.Metrics

	// limiterDown throttles the fail-open log while the limiter backend is down
	limiterDown *rate.Sometimes
}

func New(config config.Config, authService *auth.AuthService, limiter ratelimit.Limiter, m *metrics.Metrics) *Server {
	s := &Server{
		env:      config.GetEnv(),
		mux:      http.NewServeMux(),
		policies: make(PolicyTable),
		config:   config,
		auth:     authService,
		limiter:  limiter,
		metrics:  m,

		limiterDown: &rate.Sometimes{First: 1, Interval: 30 * time.Second},
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

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1], s.policies[route])
		} else {
			logRoute("", parts[0], s.policies[route])
		}
	}
}

func logRoute(method, path string, policy Policy) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Debug().Str("access", policy.String()).Msgf("[%-19s] %s", displayMethod, path)
}
