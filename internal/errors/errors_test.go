package errors_test

import (
	"fmt"
	"testing"

	"github.com/jrsteele09/jobboard-auth/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestWrapf(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		require.NoError(t, errors.Wrapf(nil, "context %d", 1))
	})

	t.Run("keeps the chain", func(t *testing.T) {
		err := errors.Wrapf(errors.ErrInvalidSession, "[Service.Refresh] user %s", "u1")
		require.True(t, errors.Is(err, errors.ErrInvalidSession))
		require.Equal(t, "[Service.Refresh] user u1: invalid session", err.Error())
	})

	t.Run("nested wrapping", func(t *testing.T) {
		inner := fmt.Errorf("repo: %w", errors.ErrNotFound)
		err := errors.Wrapf(inner, "lookup")
		require.True(t, errors.Is(err, errors.ErrNotFound))
		require.False(t, errors.Is(err, errors.ErrInvalidSession))
	})
}
