package roles

import "context"

// Permission grants access to one HTTP method on one API path. Two permissions are
// the same grant when their Key matches.
type Permission struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name"`
	APIPath string `json:"apiPath"`
	Method  string `json:"method"`
	Module  string `json:"module"`
}

// Key identifies a permission by what it grants.
type Key struct {
	Method  string
	APIPath string
}

func (p Permission) Key() Key {
	return Key{Method: p.Method, APIPath: p.APIPath}
}

func (k Key) String() string {
	return k.Method + " " + k.APIPath
}

// Ref is the role summary carried in tokens and principals.
type Ref struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Role struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Active      bool         `json:"active"`
	Permissions []Permission `json:"permissions"`
}

func (r *Role) Ref() Ref {
	return Ref{ID: r.ID, Name: r.Name}
}

// Repo is the role and permission catalog. Get and GetByName return an error
// wrapping errors.ErrNotFound when the role does not exist.
type Repo interface {
	Get(ctx context.Context, id string) (*Role, error)
	GetByName(ctx context.Context, name string) (*Role, error)
	// Create stores the role and links it to the IDs of its permissions.
	Create(ctx context.Context, role *Role) error
	CreatePermission(ctx context.Context, permission *Permission) error
	ListPermissions(ctx context.Context) ([]Permission, error)
}

// Contains reports whether perms grants key.
func Contains(perms []Permission, key Key) bool {
	for _, p := range perms {
		if p.Key() == key {
			return true
		}
	}
	return false
}
