package roles

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/jobboard-auth/internal/errors"
)

// Resolver turns a role ID into its current permission set. Every call reads the
// catalog so role edits take effect on the next request.
type Resolver struct {
	repo Repo
}

func NewResolver(repo Repo) *Resolver {
	return &Resolver{repo: repo}
}

// Resolve never fails: a missing role or a catalog error yields no permissions.
func (r *Resolver) Resolve(ctx context.Context, roleID string) []Permission {
	_, perms := r.Lookup(ctx, roleID)
	return perms
}

// Lookup is Resolve plus the role's name. The returned Ref keeps roleID even when
// the role cannot be found.
func (r *Resolver) Lookup(ctx context.Context, roleID string) (Ref, []Permission) {
	ref := Ref{ID: roleID}
	if roleID == "" {
		return ref, []Permission{}
	}

	role, err := r.repo.Get(ctx, roleID)
	if err != nil {
		if !errors.Is(err, errors.ErrNotFound) {
			log.Warn().Err(err).Str("role_id", roleID).Msg("role lookup failed, resolving no permissions")
		}
		return ref, []Permission{}
	}

	perms := make([]Permission, len(role.Permissions))
	copy(perms, role.Permissions)
	return role.Ref(), perms
}
