package postgres

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/jrsteele09/jobboard-auth/internal/errors"
	"github.com/jrsteele09/jobboard-auth/internal/ids"
	"github.com/jrsteele09/jobboard-auth/internal/store"
	"github.com/jrsteele09/jobboard-auth/users"
)

const userColumns = `id, name, email, password_hash, age, gender, address, role_id, ` +
	`COALESCE(company_id, ''), COALESCE(company_name, ''), refresh_token, created_at, updated_at`

// UserRepository implements users.UserRepo using PostgreSQL.
type UserRepository struct {
	pool store.Pool
}

var _ users.UserRepo = (*UserRepository)(nil)

func NewUserRepository(pool store.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create inserts a new identity. The unique email constraint is the final arbiter
// for concurrent registrations.
func (r *UserRepository) Create(ctx context.Context, user *users.User) error {
	if user.ID == "" {
		user.ID = ids.New()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	var companyID, companyName *string
	if user.Company != nil {
		companyID, companyName = &user.Company.ID, &user.Company.Name
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (
			id, name, email, password_hash, age, gender, address, role_id,
			company_id, company_name, refresh_token, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Age,
		user.Gender,
		user.Address,
		user.RoleID,
		companyID,
		companyName,
		user.RefreshToken,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return oops.Code("USER_DUPLICATE").With("email", user.Email).Wrap(errors.ErrDuplicateIdentity)
	}
	if err != nil {
		return oops.Code("USER_CREATE_FAILED").
			With("operation", "insert user").
			With("email", user.Email).
			Wrap(err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*users.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return r.get(row, "id", id)
}

// GetByEmail matches the email exactly as stored.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return r.get(row, "email", email)
}

func (r *UserRepository) GetByRefreshToken(ctx context.Context, token string) (*users.User, error) {
	if token == "" {
		return nil, oops.Code("USER_NOT_FOUND").With("by", "refresh_token").Wrap(errors.ErrNotFound)
	}
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE refresh_token = $1`, token)
	return r.get(row, "refresh_token", "<redacted>")
}

func (r *UserRepository) SetRefreshToken(ctx context.Context, id, token string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET refresh_token = $2, updated_at = now() WHERE id = $1`, id, token)
	if err != nil {
		return oops.Code("USER_SET_REFRESH_FAILED").With("id", id).Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").With("id", id).Wrap(errors.ErrNotFound)
	}
	return nil
}

// SwapRefreshToken is a single conditional UPDATE so that concurrent rotations of
// the same token have exactly one winner.
func (r *UserRepository) SwapRefreshToken(ctx context.Context, id, current, next string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET refresh_token = $3, updated_at = now() WHERE id = $1 AND refresh_token = $2`,
		id, current, next)
	if err != nil {
		return false, oops.Code("USER_SWAP_REFRESH_FAILED").With("id", id).Wrap(err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *UserRepository) get(row pgx.Row, by, value string) (*users.User, error) {
	user, err := scanUser(row)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").With(by, value).Wrap(errors.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_FAILED").With("operation", "get user by "+by).Wrap(err)
	}
	return user, nil
}

func scanUser(row pgx.Row) (*users.User, error) {
	var (
		u           users.User
		companyID   string
		companyName string
	)
	if err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.Age,
		&u.Gender,
		&u.Address,
		&u.RoleID,
		&companyID,
		&companyName,
		&u.RefreshToken,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if companyID != "" {
		u.Company = &users.CompanyRef{ID: companyID, Name: companyName}
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return stderrors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
