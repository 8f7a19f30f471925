package ratelimit

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/jrsteele09/jobboard-auth/internal/errors"
)

// ErrLimiterUnavailable wraps backend failures so callers can tell them apart from
// a rejected attempt.
var ErrLimiterUnavailable = stderrors.New("rate limiter unavailable")

// Limiter admits or rejects one attempt for key. A rejection is reported as
// errors.ErrRateLimited.
type Limiter interface {
	Allow(ctx context.Context, key string) error
}

// LoginKeys returns the admission keys for a login attempt: one per source
// address and, when known, one per username.
func LoginKeys(sourceIP, username string) []string {
	keys := []string{"login:ip:" + sourceIP}
	if username = strings.TrimSpace(username); username != "" {
		keys = append(keys, "login:user:"+username)
	}
	return keys
}

// AllowAll checks every key and stops at the first rejection or failure.
func AllowAll(ctx context.Context, l Limiter, keys ...string) error {
	for _, key := range keys {
		if err := l.Allow(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// IsRateLimited reports whether err is an admission rejection.
func IsRateLimited(err error) bool {
	return errors.Is(err, errors.ErrRateLimited)
}
