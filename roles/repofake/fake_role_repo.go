package fakerolerepo

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jrsteele09/jobboard-auth/internal/errors"
	"github.com/jrsteele09/jobboard-auth/internal/ids"
	"github.com/jrsteele09/jobboard-auth/roles"
)

var _ roles.Repo = (*FakeRoleRepo)(nil)

// FakeRoleRepo is an in-memory role catalog. Roles hold permission IDs and are
// expanded on read so permission changes show up in every role that links them.
type FakeRoleRepo struct {
	roles       map[string]storedRole
	names       map[string]string // name to role id
	permissions map[string]roles.Permission
	lock        sync.RWMutex
}

type storedRole struct {
	role          roles.Role
	permissionIDs []string
}

func NewFakeRoleRepo() *FakeRoleRepo {
	return &FakeRoleRepo{
		roles:       make(map[string]storedRole),
		names:       make(map[string]string),
		permissions: make(map[string]roles.Permission),
	}
}

func (rr *FakeRoleRepo) Get(_ context.Context, id string) (*roles.Role, error) {
	rr.lock.RLock()
	defer rr.lock.RUnlock()

	stored, ok := rr.roles[id]
	if !ok {
		return nil, fmt.Errorf("[FakeRoleRepo.Get] %s: %w", id, errors.ErrNotFound)
	}
	return rr.expand(stored), nil
}

func (rr *FakeRoleRepo) GetByName(ctx context.Context, name string) (*roles.Role, error) {
	rr.lock.RLock()
	id, ok := rr.names[name]
	rr.lock.RUnlock()
	if !ok {
		return nil, fmt.Errorf("[FakeRoleRepo.GetByName] %s: %w", name, errors.ErrNotFound)
	}
	return rr.Get(ctx, id)
}

func (rr *FakeRoleRepo) Create(_ context.Context, role *roles.Role) error {
	rr.lock.Lock()
	defer rr.lock.Unlock()

	if _, ok := rr.names[role.Name]; ok {
		return fmt.Errorf("[FakeRoleRepo.Create] %s: %w", role.Name, errors.ErrAlreadyExists)
	}
	if role.ID == "" {
		role.ID = ids.New()
	}

	permissionIDs := make([]string, 0, len(role.Permissions))
	for _, p := range role.Permissions {
		if _, ok := rr.permissions[p.ID]; !ok {
			return fmt.Errorf("[FakeRoleRepo.Create] permission %s: %w", p.ID, errors.ErrNotFound)
		}
		permissionIDs = append(permissionIDs, p.ID)
	}

	stored := *role
	stored.Permissions = nil
	rr.roles[role.ID] = storedRole{role: stored, permissionIDs: permissionIDs}
	rr.names[role.Name] = role.ID
	return nil
}

func (rr *FakeRoleRepo) CreatePermission(_ context.Context, permission *roles.Permission) error {
	rr.lock.Lock()
	defer rr.lock.Unlock()

	for _, p := range rr.permissions {
		if p.Key() == permission.Key() {
			return fmt.Errorf("[FakeRoleRepo.CreatePermission] %s: %w", p.Key(), errors.ErrAlreadyExists)
		}
	}
	if permission.ID == "" {
		permission.ID = ids.New()
	}
	rr.permissions[permission.ID] = *permission
	return nil
}

func (rr *FakeRoleRepo) ListPermissions(_ context.Context) ([]roles.Permission, error) {
	rr.lock.RLock()
	defer rr.lock.RUnlock()

	perms := make([]roles.Permission, 0, len(rr.permissions))
	for _, p := range rr.permissions {
		perms = append(perms, p)
	}
	sort.Slice(perms, func(i, j int) bool {
		return perms[i].ID < perms[j].ID
	})
	return perms, nil
}

// DeletePermission drops a permission from the catalog and from every role.
func (rr *FakeRoleRepo) DeletePermission(id string) {
	rr.lock.Lock()
	defer rr.lock.Unlock()
	delete(rr.permissions, id)
}

func (rr *FakeRoleRepo) expand(stored storedRole) *roles.Role {
	role := stored.role
	role.Permissions = make([]roles.Permission, 0, len(stored.permissionIDs))
	for _, id := range stored.permissionIDs {
		if p, ok := rr.permissions[id]; ok {
			role.Permissions = append(role.Permissions, p)
		}
	}
	return &role
}
