package main

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/samber/oops"

	"github.com/jrsteele09/jobboard-auth/auth"
	"github.com/jrsteele09/jobboard-auth/internal/config"
	"github.com/jrsteele09/jobboard-auth/internal/store"
	"github.com/jrsteele09/jobboard-auth/ratelimit"
	rolepostgres "github.com/jrsteele09/jobboard-auth/roles/postgres"
	fakerolerepo "github.com/jrsteele09/jobboard-auth/roles/repofake"
	userpostgres "github.com/jrsteele09/jobboard-auth/users/postgres"
	fakeuserrepo "github.com/jrsteele09/jobboard-auth/users/repofake"
)

// deps are the storage backends chosen from the configuration.
type deps struct {
	repos    auth.Repos
	limiter  ratelimit.Limiter
	inMemory bool

	pool  *pgxpool.Pool
	redis *redis.Client
}

// openRepos connects Postgres when a database URL is configured and falls back to
// in-memory repositories otherwise.
func openRepos(ctx context.Context, cfg config.StorageConfig) (*deps, error) {
	d := &deps{}
	if cfg.GetDatabaseURL() == "" {
		log.Warn().Msg("DATABASE_URL not set, using in-memory repositories")
		d.repos = auth.Repos{Users: fakeuserrepo.NewFakeUserRepo(), Roles: fakerolerepo.NewFakeRoleRepo()}
		d.inMemory = true
		return d, nil
	}

	pool, err := store.Open(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return nil, err
	}
	d.pool = pool
	d.repos = auth.Repos{Users: userpostgres.NewUserRepository(pool), Roles: rolepostgres.NewRoleRepository(pool)}
	return d, nil
}

// openDeps is openRepos plus the login rate limiter: Redis when an address is
// configured so every replica shares one window, in-memory otherwise.
func openDeps(ctx context.Context, cfg config.Config) (*deps, error) {
	d, err := openRepos(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.GetRedisAddr() == "" {
		log.Warn().Msg("REDIS_ADDR not set, login rate limiting is per process")
		d.limiter = ratelimit.NewMemoryLimiter(cfg.GetLoginAttempts(), cfg.GetLoginWindow())
		return d, nil
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.GetRedisAddr()})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		d.Close()
		return nil, oops.Code("REDIS_CONNECT_FAILED").With("addr", cfg.GetRedisAddr()).Wrap(err)
	}
	d.redis = client
	d.limiter = ratelimit.NewRedisLimiter(client, cfg.GetLoginAttempts(), cfg.GetLoginWindow())
	return d, nil
}

func (d *deps) Close() {
	if d.redis != nil {
		_ = d.redis.Close()
	}
	if d.pool != nil {
		d.pool.Close()
	}
}
