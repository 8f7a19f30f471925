package auth

import (
	"github.com/jrsteele09/jobboard-auth/roles"
	"github.com/jrsteele09/jobboard-auth/token"
	"github.com/jrsteele09/jobboard-auth/users"
)

// Principal is the authenticated identity for the duration of one request. It is
// rebuilt on login, refresh and account fetch and never stored.
type Principal struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Email       string             `json:"email"`
	Role        roles.Ref          `json:"role"`
	Permissions []roles.Permission `json:"permissions"`
}

// Can reports whether the principal holds the permission identified by key.
func (p *Principal) Can(key roles.Key) bool {
	return roles.Contains(p.Permissions, key)
}

// Claims converts the principal to token claims. Permissions are left out.
func (p *Principal) Claims(subject string) token.Claims {
	c := token.Claims{
		UserID: p.ID,
		Name:   p.Name,
		Email:  p.Email,
		Role:   p.Role,
	}
	c.Subject = subject
	return c
}

// PrincipalFromClaims rebuilds a principal from verified access token claims.
// Permissions must be resolved separately.
func PrincipalFromClaims(c *token.Claims) *Principal {
	return &Principal{
		ID:          c.UserID,
		Name:        c.Name,
		Email:       c.Email,
		Role:        c.Role,
		Permissions: []roles.Permission{},
	}
}

func newPrincipal(u *users.User, role roles.Ref, perms []roles.Permission) *Principal {
	return &Principal{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        role,
		Permissions: perms,
	}
}
