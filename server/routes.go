package server

import (
	"net/http"
)

func (s *Server) initRoutes() {
	// AUTH
	s.route("POST "+RouteAuthLogin, PublicRoute(), s.LoginHandler())
	s.route("POST "+RouteAuthRegister, PublicRoute(), s.RegisterHandler())
	s.route("GET "+RouteAuthAccount, AuthenticatedRoute(), s.AccountHandler())
	s.route("GET "+RouteAuthRefresh, PublicRoute(), s.RefreshHandler())
	s.route("POST "+RouteAuthLogout, PublicRoute(), s.LogoutHandler())

	// Identity administration
	s.route("POST "+RouteUsers, PermissionRoute(http.MethodPost, RouteUsers), s.CreateUserHandler())

	// Operations
	s.route("GET "+RouteHealthz, PublicRoute(), s.HealthzHandler())
	s.route("GET "+RouteMetrics, PublicRoute(), s.metrics.Handler().ServeHTTP)

	// CORS preflight for every path
	s.route("OPTIONS /{path...}", PublicRoute(), func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

// route registers handler under pattern behind the API middleware and records its
// access policy.
func (s *Server) route(pattern string, policy Policy, handler http.HandlerFunc, mw ...func(http.HandlerFunc) http.HandlerFunc) {
	s.policies[pattern] = policy
	s.RegisterRouteFunc(pattern, ChainMiddleware(handler, s.APIMiddleware(mw...)...))
}
