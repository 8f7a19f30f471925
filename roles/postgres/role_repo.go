package postgres

import (
	"context"
	stderrors "errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/jrsteele09/jobboard-auth/internal/errors"
	"github.com/jrsteele09/jobboard-auth/internal/ids"
	"github.com/jrsteele09/jobboard-auth/internal/store"
	"github.com/jrsteele09/jobboard-auth/roles"
)

// RoleRepository implements roles.Repo using PostgreSQL.
type RoleRepository struct {
	pool store.Pool
}

var _ roles.Repo = (*RoleRepository)(nil)

func NewRoleRepository(pool store.Pool) *RoleRepository {
	return &RoleRepository{pool: pool}
}

func (r *RoleRepository) Get(ctx context.Context, id string) (*roles.Role, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, name, description, active FROM roles WHERE id = $1`, id)
	return r.load(ctx, row, "id", id)
}

func (r *RoleRepository) GetByName(ctx context.Context, name string) (*roles.Role, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, name, description, active FROM roles WHERE name = $1`, name)
	return r.load(ctx, row, "name", name)
}

// Create inserts the role and its permission links in one transaction.
func (r *RoleRepository) Create(ctx context.Context, role *roles.Role) (err error) {
	if role.ID == "" {
		role.ID = ids.New()
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return oops.Code("ROLE_CREATE_FAILED").With("operation", "begin").Wrap(err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	_, err = tx.Exec(ctx,
		`INSERT INTO roles (id, name, description, active) VALUES ($1, $2, $3, $4)`,
		role.ID, role.Name, role.Description, role.Active)
	if isUniqueViolation(err) {
		return oops.Code("ROLE_DUPLICATE").With("name", role.Name).Wrap(errors.ErrAlreadyExists)
	}
	if err != nil {
		return oops.Code("ROLE_CREATE_FAILED").With("operation", "insert role").With("name", role.Name).Wrap(err)
	}

	for _, p := range role.Permissions {
		if _, err = tx.Exec(ctx,
			`INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2)`,
			role.ID, p.ID); err != nil {
			return oops.Code("ROLE_CREATE_FAILED").
				With("operation", "link permission").
				With("permission_id", p.ID).
				Wrap(err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return oops.Code("ROLE_CREATE_FAILED").With("operation", "commit").Wrap(err)
	}
	return nil
}

func (r *RoleRepository) CreatePermission(ctx context.Context, p *roles.Permission) error {
	if p.ID == "" {
		p.ID = ids.New()
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO permissions (id, name, api_path, method, module) VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.Name, p.APIPath, p.Method, p.Module)
	if isUniqueViolation(err) {
		return oops.Code("PERMISSION_DUPLICATE").With("key", p.Key().String()).Wrap(errors.ErrAlreadyExists)
	}
	if err != nil {
		return oops.Code("PERMISSION_CREATE_FAILED").With("key", p.Key().String()).Wrap(err)
	}
	return nil
}

func (r *RoleRepository) ListPermissions(ctx context.Context) ([]roles.Permission, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, api_path, method, module FROM permissions ORDER BY id`)
	if err != nil {
		return nil, oops.Code("PERMISSION_LIST_FAILED").Wrap(err)
	}
	return collectPermissions(rows)
}

func (r *RoleRepository) load(ctx context.Context, row pgx.Row, by, value string) (*roles.Role, error) {
	var role roles.Role
	err := row.Scan(&role.ID, &role.Name, &role.Description, &role.Active)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ROLE_NOT_FOUND").With(by, value).Wrap(errors.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ROLE_GET_FAILED").With(by, value).Wrap(err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.name, p.api_path, p.method, p.module
		FROM permissions p
		JOIN role_permissions rp ON rp.permission_id = p.id
		WHERE rp.role_id = $1
		ORDER BY p.id
	`, role.ID)
	if err != nil {
		return nil, oops.Code("ROLE_PERMISSIONS_FAILED").With("role_id", role.ID).Wrap(err)
	}
	if role.Permissions, err = collectPermissions(rows); err != nil {
		return nil, oops.With("role_id", role.ID).Wrap(err)
	}
	return &role, nil
}

func collectPermissions(rows pgx.Rows) ([]roles.Permission, error) {
	defer rows.Close()

	perms := make([]roles.Permission, 0)
	for rows.Next() {
		var p roles.Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.APIPath, &p.Method, &p.Module); err != nil {
			return nil, oops.Code("PERMISSION_SCAN_FAILED").Wrap(err)
		}
		perms = append(perms, p)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("PERMISSION_SCAN_FAILED").Wrap(err)
	}
	return perms, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return stderrors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
