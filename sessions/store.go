package sessions

import (
	"context"
	"fmt"

	"github.com/jrsteele09/jobboard-auth/internal/errors"
	"github.com/jrsteele09/jobboard-auth/users"
)

// Store keeps the single live refresh token of each identity on the identity
// record itself. Logging in again replaces the previous session.
type Store struct {
	users users.UserRepo
}

func NewStore(repo users.UserRepo) *Store {
	return &Store{users: repo}
}

// Persist records token as the identity's session, replacing any earlier one.
func (s *Store) Persist(ctx context.Context, identityID, token string) error {
	if err := s.users.SetRefreshToken(ctx, identityID, token); err != nil {
		return fmt.Errorf("[Store.Persist] %s: %w", identityID, err)
	}
	return nil
}

// Rotate replaces current with next only if current is still the stored token.
// A caller that lost the race, or presented a replaced token, gets
// errors.ErrInvalidSession.
func (s *Store) Rotate(ctx context.Context, identityID, current, next string) error {
	if current == "" {
		return fmt.Errorf("[Store.Rotate] empty token: %w", errors.ErrInvalidSession)
	}
	swapped, err := s.users.SwapRefreshToken(ctx, identityID, current, next)
	if err != nil {
		return fmt.Errorf("[Store.Rotate] %s: %w", identityID, err)
	}
	if !swapped {
		return fmt.Errorf("[Store.Rotate] %s: stored token changed: %w", identityID, errors.ErrInvalidSession)
	}
	return nil
}

// FindByToken returns the identity whose stored token equals token exactly. An
// empty token never matches.
func (s *Store) FindByToken(ctx context.Context, token string) (*users.User, error) {
	if token == "" {
		return nil, errors.ErrSessionNotFound
	}
	u, err := s.users.GetByRefreshToken(ctx, token)
	if errors.Is(err, errors.ErrNotFound) {
		return nil, errors.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("[Store.FindByToken] %w", err)
	}
	return u, nil
}

// Clear ends the identity's session.
func (s *Store) Clear(ctx context.Context, identityID string) error {
	if err := s.users.SetRefreshToken(ctx, identityID, ""); err != nil {
		return fmt.Errorf("[Store.Clear] %s: %w", identityID, err)
	}
	return nil
}
