package fakeuserrepo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jrsteele09/jobboard-auth/internal/errors"
	"github.com/jrsteele09/jobboard-auth/internal/ids"
	"github.com/jrsteele09/jobboard-auth/users"
)

var _ users.UserRepo = (*FakeUserRepo)(nil)

// FakeUserRepo is an in-memory UserRepo used for development and tests. Stored
// users are copied on the way in and out.
type FakeUserRepo struct {
	users    map[string]*users.User
	emailIds map[string]string // email to user id
	lock     sync.RWMutex
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{
		users:    make(map[string]*users.User),
		emailIds: make(map[string]string),
	}
}

func (ur *FakeUserRepo) Create(_ context.Context, user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if _, ok := ur.emailIds[user.Email]; ok {
		return fmt.Errorf("[FakeUserRepo.Create] %s: %w", user.Email, errors.ErrDuplicateIdentity)
	}
	if user.ID == "" {
		user.ID = ids.New()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	ur.users[user.ID] = user.Clone()
	ur.emailIds[user.Email] = user.ID
	return nil
}

func (ur *FakeUserRepo) GetByEmail(_ context.Context, email string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	id, ok := ur.emailIds[email]
	if !ok {
		return nil, fmt.Errorf("[FakeUserRepo.GetByEmail] %s: %w", email, errors.ErrNotFound)
	}
	return ur.users[id].Clone(), nil
}

func (ur *FakeUserRepo) GetByID(_ context.Context, id string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	u, ok := ur.users[id]
	if !ok {
		return nil, fmt.Errorf("[FakeUserRepo.GetByID] %s: %w", id, errors.ErrNotFound)
	}
	return u.Clone(), nil
}

func (ur *FakeUserRepo) GetByRefreshToken(_ context.Context, token string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	if token != "" {
		for _, u := range ur.users {
			if u.RefreshToken == token {
				return u.Clone(), nil
			}
		}
	}
	return nil, fmt.Errorf("[FakeUserRepo.GetByRefreshToken] %w", errors.ErrNotFound)
}

func (ur *FakeUserRepo) SetRefreshToken(_ context.Context, id, token string) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	u, ok := ur.users[id]
	if !ok {
		return fmt.Errorf("[FakeUserRepo.SetRefreshToken] %s: %w", id, errors.ErrNotFound)
	}
	u.RefreshToken = token
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (ur *FakeUserRepo) SwapRefreshToken(_ context.Context, id, current, next string) (bool, error) {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	u, ok := ur.users[id]
	if !ok || u.RefreshToken != current {
		return false, nil
	}
	u.RefreshToken = next
	u.UpdatedAt = time.Now().UTC()
	return true, nil
}
