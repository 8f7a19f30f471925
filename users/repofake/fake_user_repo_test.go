package fakeuserrepo_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jrsteele09/jobboard-auth/internal/errors"
	"github.com/jrsteele09/jobboard-auth/users"
	fakeuserrepo "github.com/jrsteele09/jobboard-auth/users/repofake"
	"github.com/stretchr/testify/require"
)

func TestFakeUserRepo_Create(t *testing.T) {
	ctx := context.Background()
	repo := fakeuserrepo.NewFakeUserRepo()

	u := &users.User{Name: "A", Email: "a@x.com"}
	require.NoError(t, repo.Create(ctx, u))
	require.NotEmpty(t, u.ID)
	require.False(t, u.CreatedAt.IsZero())

	t.Run("duplicate email", func(t *testing.T) {
		err := repo.Create(ctx, &users.User{Email: "a@x.com"})
		require.True(t, errors.Is(err, errors.ErrDuplicateIdentity))
	})

	t.Run("lookups", func(t *testing.T) {
		byEmail, err := repo.GetByEmail(ctx, "a@x.com")
		require.NoError(t, err)
		require.Equal(t, u.ID, byEmail.ID)

		byID, err := repo.GetByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, "a@x.com", byID.Email)

		_, err = repo.GetByEmail(ctx, "A@X.COM")
		require.True(t, errors.Is(err, errors.ErrNotFound))
	})

	t.Run("returned copies are detached", func(t *testing.T) {
		got, err := repo.GetByID(ctx, u.ID)
		require.NoError(t, err)
		got.RefreshToken = "tampered"

		again, err := repo.GetByID(ctx, u.ID)
		require.NoError(t, err)
		require.Empty(t, again.RefreshToken)
	})
}

func TestFakeUserRepo_RefreshToken(t *testing.T) {
	ctx := context.Background()
	repo := fakeuserrepo.NewFakeUserRepo()
	u := &users.User{Email: "a@x.com"}
	require.NoError(t, repo.Create(ctx, u))

	t.Run("empty token never matches", func(t *testing.T) {
		_, err := repo.GetByRefreshToken(ctx, "")
		require.True(t, errors.Is(err, errors.ErrNotFound))
	})

	require.NoError(t, repo.SetRefreshToken(ctx, u.ID, "t1"))
	found, err := repo.GetByRefreshToken(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, u.ID, found.ID)

	t.Run("swap with stale token fails", func(t *testing.T) {
		swapped, err := repo.SwapRefreshToken(ctx, u.ID, "stale", "t2")
		require.NoError(t, err)
		require.False(t, swapped)
	})

	t.Run("swap with current token", func(t *testing.T) {
		swapped, err := repo.SwapRefreshToken(ctx, u.ID, "t1", "t2")
		require.NoError(t, err)
		require.True(t, swapped)

		_, err = repo.GetByRefreshToken(ctx, "t1")
		require.True(t, errors.Is(err, errors.ErrNotFound))
	})

	t.Run("set on unknown identity", func(t *testing.T) {
		err := repo.SetRefreshToken(ctx, "missing", "x")
		require.True(t, errors.Is(err, errors.ErrNotFound))
	})
}

func TestFakeUserRepo_ConcurrentSwapHasOneWinner(t *testing.T) {
	ctx := context.Background()
	repo := fakeuserrepo.NewFakeUserRepo()
	u := &users.User{Email: "a@x.com"}
	require.NoError(t, repo.Create(ctx, u))
	require.NoError(t, repo.SetRefreshToken(ctx, u.ID, "t1"))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.SwapRefreshToken(ctx, u.ID, "t1", "next")
			if err != nil {
				t.Error(err)
			}
			if ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	require.Equal(t, int32(1), wins.Load())
}
