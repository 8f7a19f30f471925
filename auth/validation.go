package auth

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/jrsteele09/jobboard-auth/internal/errors"
	"github.com/jrsteele09/jobboard-auth/roles"
	"github.com/jrsteele09/jobboard-auth/users"
)

// CredentialValidator checks a username and password pair against stored
// identities. Usernames are email addresses.
type CredentialValidator struct {
	users    users.UserRepo
	hasher   users.PasswordHasher
	resolver *roles.Resolver

	dummyOnce sync.Once
	dummyHash string
}

func NewCredentialValidator(repo users.UserRepo, hasher users.PasswordHasher, resolver *roles.Resolver) *CredentialValidator {
	return &CredentialValidator{
		users:    repo,
		hasher:   hasher,
		resolver: resolver,
	}
}

// Validate returns the principal for matching credentials and nil when the user is
// unknown or the password is wrong; the two cases are indistinguishable to the
// caller. An error is returned only when the identity store fails.
func (v *CredentialValidator) Validate(ctx context.Context, username, password string) (*Principal, error) {
	if username == "" {
		return nil, nil
	}

	user, err := v.users.GetByEmail(ctx, username)
	if errors.Is(err, errors.ErrNotFound) {
		// spend the same effort as a real comparison
		v.hasher.Verify(password, v.dummy())
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "[CredentialValidator.Validate]")
	}

	if !v.hasher.Verify(password, user.PasswordHash) {
		return nil, nil
	}

	role, perms := v.resolver.Lookup(ctx, user.RoleID)
	return newPrincipal(user, role, perms), nil
}

func (v *CredentialValidator) dummy() string {
	v.dummyOnce.Do(func() {
		v.dummyHash, _ = v.hasher.Hash(uuid.New().String())
	})
	return v.dummyHash
}
