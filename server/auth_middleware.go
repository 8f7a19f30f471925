package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/jrsteele09/jobboard-auth/auth"
	"github.com/jrsteele09/jobboard-auth/internal/errors"
	"github.com/jrsteele09/jobboard-auth/roles"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// ContextKeyPrincipal stores the authenticated *auth.Principal
const ContextKeyPrincipal ContextKey = "principal"

// Policy is the access rule of one route. A route that is not public needs a valid
// bearer access token, and additionally Permission when it is set.
type Policy struct {
	Public     bool
	Permission *roles.Key
}

func (p Policy) String() string {
	switch {
	case p.Public:
		return "public"
	case p.Permission != nil:
		return "permission " + p.Permission.String()
	default:
		return "authenticated"
	}
}

// PublicRoute needs no credentials.
func PublicRoute() Policy {
	return Policy{Public: true}
}

// AuthenticatedRoute needs a valid access token.
func AuthenticatedRoute() Policy {
	return Policy{}
}

// PermissionRoute needs a valid access token whose role currently grants
// method on apiPath.
func PermissionRoute(method, apiPath string) Policy {
	return Policy{Permission: &roles.Key{Method: method, APIPath: apiPath}}
}

// PolicyTable maps mux patterns to their access policy.
type PolicyTable map[string]Policy

// Lookup returns the policy of pattern. Unknown patterns require authentication.
func (pt PolicyTable) Lookup(pattern string) Policy {
	if p, ok := pt[pattern]; ok {
		return p
	}
	return AuthenticatedRoute()
}

// PrincipalFromContext returns the principal stored by Authorize.
func PrincipalFromContext(ctx context.Context) (*auth.Principal, bool) {
	p, ok := ctx.Value(ContextKeyPrincipal).(*auth.Principal)
	return p, ok && p != nil
}

// Authorize enforces the policy table for the matched route. Permissions are
// resolved from the role catalog on every request, never read from the token.
func (s *Server) Authorize(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		policy := s.policies.Lookup(r.Pattern)
		if policy.Public {
			next(w, r)
			return
		}

		raw, ok := bearerToken(r)
		if !ok {
			writeError(w, r, errors.ErrUnauthorized)
			return
		}
		claims, err := s.auth.Codec().VerifyAccess(raw)
		if err != nil {
			writeError(w, r, errors.Wrapf(errors.ErrUnauthorized, "%v", err))
			return
		}

		principal := auth.PrincipalFromClaims(claims)
		if policy.Permission != nil {
			principal.Permissions = s.auth.Resolver().Resolve(r.Context(), principal.Role.ID)
			if !principal.Can(*policy.Permission) {
				writeError(w, r, errors.ErrForbidden)
				return
			}
		}

		ctx := context.WithValue(r.Context(), ContextKeyPrincipal, principal)
		next(w, r.WithContext(ctx))
	}
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
