package postgres_test

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/jobboard-auth/internal/errors"
	"github.com/jrsteele09/jobboard-auth/roles"
	"github.com/jrsteele09/jobboard-auth/roles/postgres"
)

var (
	roleColumns       = []string{"id", "name", "description", "active"}
	permissionColumns = []string{"id", "name", "api_path", "method", "module"}
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err, "failed to create mock")
	t.Cleanup(mock.Close)
	return mock
}

func TestRoleRepository_Get(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantPerms int
		wantErr   error
	}{
		{
			name: "role with permissions",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT id, name, description, active FROM roles WHERE id = \$1`).
					WithArgs("r1").
					WillReturnRows(pgxmock.NewRows(roleColumns).AddRow("r1", "SUPER_ADMIN", "", true))
				mock.ExpectQuery(`FROM permissions p JOIN role_permissions`).
					WithArgs("r1").
					WillReturnRows(pgxmock.NewRows(permissionColumns).
						AddRow("p1", "Create user", "/users", "POST", "USERS").
						AddRow("p2", "Get account", "/auth/account", "GET", "AUTH"))
			},
			wantPerms: 2,
		},
		{
			name: "role without permissions",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT id, name, description, active FROM roles WHERE id = \$1`).
					WithArgs("r1").
					WillReturnRows(pgxmock.NewRows(roleColumns).AddRow("r1", "NORMAL_USER", "", true))
				mock.ExpectQuery(`FROM permissions p JOIN role_permissions`).
					WithArgs("r1").
					WillReturnRows(pgxmock.NewRows(permissionColumns))
			},
		},
		{
			name: "missing role",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT id, name, description, active FROM roles WHERE id = \$1`).
					WithArgs("r1").
					WillReturnRows(pgxmock.NewRows(roleColumns))
			},
			wantErr: errors.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			tt.setupMock(mock)

			role, err := postgres.NewRoleRepository(mock).Get(context.Background(), "r1")
			if tt.wantErr != nil {
				require.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "r1", role.ID)
			assert.Len(t, role.Permissions, tt.wantPerms)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRoleRepository_Create(t *testing.T) {
	role := func() *roles.Role {
		return &roles.Role{
			ID:          "r1",
			Name:        "SUPER_ADMIN",
			Active:      true,
			Permissions: []roles.Permission{{ID: "p1"}, {ID: "p2"}},
		}
	}

	t.Run("commits role and links", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO roles`).
			WithArgs("r1", "SUPER_ADMIN", "", true).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectExec(`INSERT INTO role_permissions`).
			WithArgs("r1", "p1").
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectExec(`INSERT INTO role_permissions`).
			WithArgs("r1", "p2").
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectCommit()

		require.NoError(t, postgres.NewRoleRepository(mock).Create(context.Background(), role()))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on link failure", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO roles`).
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectExec(`INSERT INTO role_permissions`).
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnError(stderrors.New("fk violation"))
		mock.ExpectRollback()

		err := postgres.NewRoleRepository(mock).Create(context.Background(), role())
		require.Error(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate name", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO roles`).
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})
		mock.ExpectRollback()

		err := postgres.NewRoleRepository(mock).Create(context.Background(), role())
		require.True(t, errors.Is(err, errors.ErrAlreadyExists))
	})
}

func TestRoleRepository_Permissions(t *testing.T) {
	t.Run("create", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec(`INSERT INTO permissions`).
			WithArgs(pgxmock.AnyArg(), "Create user", "/users", "POST", "USERS").
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		p := &roles.Permission{Name: "Create user", APIPath: "/users", Method: "POST", Module: "USERS"}
		require.NoError(t, postgres.NewRoleRepository(mock).CreatePermission(context.Background(), p))
		assert.NotEmpty(t, p.ID)
	})

	t.Run("list", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`SELECT id, name, api_path, method, module FROM permissions`).
			WillReturnRows(pgxmock.NewRows(permissionColumns).
				AddRow("p1", "Create user", "/users", "POST", "USERS"))

		perms, err := postgres.NewRoleRepository(mock).ListPermissions(context.Background())
		require.NoError(t, err)
		require.Len(t, perms, 1)
		assert.Equal(t, roles.Key{Method: "POST", APIPath: "/users"}, perms[0].Key())
	})
}
