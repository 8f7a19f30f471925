package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jrsteele09/jobboard-auth/internal/errors"
)

// MemoryLimiter keeps a sliding log of attempts per key inside the process, with
// the same semantics as RedisLimiter: every attempt is recorded, rejected ones
// included, and an attempt is admitted while at most limit attempts fall inside
// the trailing window. Use it when the service runs as a single instance.
type MemoryLimiter struct {
	limit     int
	window    time.Duration
	now       func() time.Time
	mu        sync.Mutex
	logs      map[string][]time.Time
	lastSweep time.Time
}

var _ Limiter = (*MemoryLimiter)(nil)

func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		limit:  limit,
		window: window,
		now:    time.Now,
		logs:   make(map[string][]time.Time),
	}
}

// WithClock replaces the limiter's clock.
func (l *MemoryLimiter) WithClock(now func() time.Time) *MemoryLimiter {
	l.now = now
	return l
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) error {
	now := l.now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweep(now)
	attempts := append(trim(l.logs[key], cutoff), now)
	count := len(attempts)

	// only the newest limit entries can decide a later attempt
	if len(attempts) > l.limit {
		attempts = append(attempts[:0], attempts[len(attempts)-l.limit:]...)
	}
	l.logs[key] = attempts

	if count > l.limit {
		return fmt.Errorf("[MemoryLimiter.Allow] %s: %w", key, errors.ErrRateLimited)
	}
	return nil
}

// trim drops attempts at or before cutoff. Entries are in arrival order.
func trim(attempts []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(attempts) && !attempts[i].After(cutoff) {
		i++
	}
	return attempts[i:]
}

// sweep drops keys whose newest attempt has left the window.
func (l *MemoryLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.window {
		return
	}
	cutoff := now.Add(-l.window)
	for key, attempts := range l.logs {
		if len(attempts) == 0 || !attempts[len(attempts)-1].After(cutoff) {
			delete(l.logs, key)
		}
	}
	l.lastSweep = now
}

// Len is the number of tracked keys.
func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.logs)
}
