package server

// Route path constants
const (
	// Auth Routes
	RouteAuthLogin    = "/auth/login"
	RouteAuthRegister = "/auth/register"
	RouteAuthAccount  = "/auth/account"
	RouteAuthRefresh  = "/auth/refresh"
	RouteAuthLogout   = "/auth/logout"

	// Identity administration
	RouteUsers = "/users"

	// Operations
	RouteHealthz = "/healthz"
	RouteMetrics = "/metrics"
)

// RefreshCookieName is the cookie that carries the refresh token.
const RefreshCookieName = "refresh_token"
