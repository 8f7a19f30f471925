package server

import (
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/jobboard-auth/auth"
	"github.com/jrsteele09/jobboard-auth/internal/errors"
	"github.com/jrsteele09/jobboard-auth/metrics"
	"github.com/jrsteele09/jobboard-auth/ratelimit"
)

// loginResponse is the payload of a successful login or refresh.
type loginResponse struct {
	AccessToken string          `json:"accessToken"`
	User        *auth.Principal `json:"user"`
}

type accountResponse struct {
	User *auth.Principal `json:"user"`
}

type createdResponse struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}

// LoginHandler checks the credentials and starts a session. The refresh token is
// only ever sent as a cookie.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var in auth.LoginInput
		if err := decodeJSON(w, r, &in); err != nil {
			writeError(w, r, err)
			return
		}

		if err := ratelimit.AllowAll(ctx, s.limiter, ratelimit.LoginKeys(clientIP(r), in.Username)...); err != nil {
			if ratelimit.IsRateLimited(err) {
				s.metrics.ObserveAuth("login", metrics.OutcomeRateLimited)
				log.Warn().Str("ip", clientIP(r)).Msg("login attempt throttled")
				writeError(w, r, err)
				return
			}
			// fail open while the limiter backend is down
			s.limiterDown.Do(func() {
				log.Error().Err(err).Msg("login rate limiter unavailable")
			})
		}

		principal, err := s.auth.CredentialValidator().Validate(ctx, in.Username, in.Password)
		if err != nil {
			s.metrics.ObserveAuth("login", metrics.OutcomeError)
			writeError(w, r, err)
			return
		}
		if principal == nil {
			log.Warn().Str("ip", clientIP(r)).Msg("login rejected")
		}

		result, err := s.auth.Login(ctx, principal)
		if err != nil {
			s.observe("login", err)
			writeError(w, r, err)
			return
		}

		s.metrics.ObserveAuth("login", metrics.OutcomeSuccess)
		s.setRefreshCookie(w, result.RefreshToken, result.RefreshTTL)
		writeJSON(w, http.StatusOK, "User Login", loginResponse{AccessToken: result.AccessToken, User: result.User})
	}
}

// RegisterHandler creates a self-service identity. It does not log the caller in.
func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in auth.RegisterInput
		if err := decodeJSON(w, r, &in); err != nil {
			writeError(w, r, err)
			return
		}

		user, err := s.auth.Register(r.Context(), in)
		if err != nil {
			s.observe("register", err)
			writeError(w, r, err)
			return
		}

		s.metrics.ObserveAuth("register", metrics.OutcomeSuccess)
		writeJSON(w, http.StatusCreated, "Register a user", createdResponse{ID: user.ID, CreatedAt: user.CreatedAt})
	}
}

// AccountHandler returns the caller with permissions resolved from the current
// role catalog.
func (s *Server) AccountHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := PrincipalFromContext(r.Context())
		if !ok {
			writeError(w, r, errors.ErrUnauthorized)
			return
		}

		account, err := s.auth.Account(r.Context(), principal)
		if err != nil {
			s.observe("account", err)
			writeError(w, r, err)
			return
		}

		s.metrics.ObserveAuth("account", metrics.OutcomeSuccess)
		writeJSON(w, http.StatusOK, "Get user information", accountResponse{User: account})
	}
}

// RefreshHandler rotates the session held in the refresh cookie. On failure the
// cookie is cleared so the client has to log in again.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := s.auth.Refresh(r.Context(), refreshTokenFromCookie(r))
		if err != nil {
			s.observe("refresh", err)
			if errors.Is(err, errors.ErrInvalidSession) {
				s.clearRefreshCookie(w)
			}
			writeError(w, r, err)
			return
		}

		s.metrics.ObserveAuth("refresh", metrics.OutcomeSuccess)
		s.setRefreshCookie(w, result.RefreshToken, result.RefreshTTL)
		writeJSON(w, http.StatusOK, "Get user refresh token", loginResponse{AccessToken: result.AccessToken, User: result.User})
	}
}

// LogoutHandler ends the session held in the refresh cookie, if any, and always
// clears the cookie.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.auth.Logout(r.Context(), refreshTokenFromCookie(r)); err != nil {
			s.observe("logout", err)
			writeError(w, r, err)
			return
		}

		s.metrics.ObserveAuth("logout", metrics.OutcomeSuccess)
		s.clearRefreshCookie(w)
		writeJSON(w, http.StatusOK, "User logout", "Logout successfully")
	}
}

// CreateUserHandler is the administrative identity creation endpoint.
func (s *Server) CreateUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := PrincipalFromContext(r.Context())

		var in auth.CreateInput
		if err := decodeJSON(w, r, &in); err != nil {
			writeError(w, r, err)
			return
		}

		user, err := s.auth.CreateIdentity(r.Context(), in, actor)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, "Create a new user", createdResponse{ID: user.ID, CreatedAt: user.CreatedAt})
	}
}

func (s *Server) HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, "ok", map[string]string{"status": "up", "app": s.config.GetAppName()})
	}
}

func (s *Server) observe(operation string, err error) {
	switch {
	case errors.Is(err, errors.ErrInvalidCredentials),
		errors.Is(err, errors.ErrInvalidSession),
		errors.Is(err, errors.ErrDuplicateIdentity),
		errors.Is(err, errors.ErrInvalidRequest),
		errors.Is(err, errors.ErrUnauthorized):
		s.metrics.ObserveAuth(operation, metrics.OutcomeRejected)
	default:
		s.metrics.ObserveAuth(operation, metrics.OutcomeError)
	}
}

// clientIP is the connection's source address. Forwarding headers are not trusted.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
