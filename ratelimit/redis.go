package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jrsteele09/jobboard-auth/internal/errors"
	"github.com/jrsteele09/jobboard-auth/internal/ids"
)

const redisKeyPrefix = "ratelimit:"

// RedisLimiter is a sliding-log limiter shared by every instance of the service.
// Each attempt is a sorted set member scored by its timestamp; members older than
// the window are trimmed before counting. Rejected attempts are recorded too, so
// a client that keeps hammering stays blocked.
type RedisLimiter struct {
	redis  redis.UniversalClient
	limit  int
	window time.Duration
	now    func() time.Time
}

var _ Limiter = (*RedisLimiter)(nil)

func NewRedisLimiter(client redis.UniversalClient, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		redis:  client,
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// WithClock replaces the limiter's clock.
func (l *RedisLimiter) WithClock(now func() time.Time) *RedisLimiter {
	l.now = now
	return l
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) error {
	now := l.now()
	k := redisKeyPrefix + key
	cutoff := strconv.FormatInt(now.Add(-l.window).UnixMicro(), 10)

	pipe := l.redis.TxPipeline()
	pipe.ZRemRangeByScore(ctx, k, "-inf", cutoff)
	pipe.ZAdd(ctx, k, redis.Z{Score: float64(now.UnixMicro()), Member: ids.New()})
	count := pipe.ZCard(ctx, k)
	pipe.PExpire(ctx, k, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrLimiterUnavailable, err)
	}

	if count.Val() > int64(l.limit) {
		return fmt.Errorf("[RedisLimiter.Allow] %s: %w", key, errors.ErrRateLimited)
	}
	return nil
}
