package main

import (
	"context"
	"fmt"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/accountkit/pkg/auth"
	"github.com/dmitrymomot/accountkit/pkg/auth/mongostore"
	"github.com/dmitrymomot/accountkit/pkg/auth/pgstore"
	"github.com/dmitrymomot/accountkit/pkg/auth/redisthrottle"
	"github.com/dmitrymomot/accountkit/pkg/config"
	"github.com/dmitrymomot/accountkit/pkg/httpserver"
	"github.com/dmitrymomot/accountkit/pkg/logger"
	"github.com/dmitrymomot/accountkit/pkg/mongo"
	"github.com/dmitrymomot/accountkit/pkg/pg"
	"github.com/dmitrymomot/accountkit/pkg/pg/migrations"
	"github.com/dmitrymomot/accountkit/pkg/ratelimiter"
	"github.com/dmitrymomot/accountkit/pkg/redis"
)

// backend is a constructed dependency plus what main needs to supervise it.
type backend[T any] struct {
	value T
	check *httpserver.Check
	close func(context.Context) error
}

func noClose(context.Context) error { return nil }

func openStore(ctx context.Context, kind string, log *slog.Logger) (backend[auth.Store], error) {
	switch kind {
	case storeMemory:
		return backend[auth.Store]{value: auth.NewMemoryStore(), close: noClose}, nil

	case storePostgres:
		var cfg pg.Config
		if err := config.Load(&cfg); err != nil {
			return backend[auth.Store]{}, err
		}
		pool, err := pg.Connect(ctx, cfg)
		if err != nil {
			return backend[auth.Store]{}, err
		}
		if err := pg.Migrate(ctx, pool, cfg, migrations.FS, log); err != nil {
			pool.Close()
			return backend[auth.Store]{}, err
		}
		return backend[auth.Store]{
			value: pgstore.New(pool),
			check: &httpserver.Check{Name: "postgres", Fn: pg.Healthcheck(pool)},
			close: func(context.Context) error { pool.Close(); return nil },
		}, nil

	case storeMongo:
		var cfg mongo.Config
		if err := config.Load(&cfg); err != nil {
			return backend[auth.Store]{}, err
		}
		db, err := mongo.NewWithDatabase(ctx, cfg)
		if err != nil {
			return backend[auth.Store]{}, err
		}
		store := mongostore.New(db)
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = mongo.Disconnect(ctx, db.Client())
			return backend[auth.Store]{}, err
		}
		return backend[auth.Store]{
			value: store,
			check: &httpserver.Check{Name: "mongo", Fn: mongo.Healthcheck(db.Client())},
			close: func(ctx context.Context) error { return mongo.Disconnect(ctx, db.Client()) },
		}, nil
	}
	return backend[auth.Store]{}, fmt.Errorf("unknown store backend %q", kind)
}

// redisConn is shared by the throttle and the rate limiter when either
// selects redis. value is nil when neither does.
type redisConn struct {
	client *goredis.Client
	prefix string
}

func openRedis(ctx context.Context, needed bool) (backend[redisConn], error) {
	if !needed {
		return backend[redisConn]{close: noClose}, nil
	}
	var cfg redis.Config
	if err := config.Load(&cfg); err != nil {
		return backend[redisConn]{}, err
	}
	client, err := redis.Connect(ctx, cfg)
	if err != nil {
		return backend[redisConn]{}, err
	}
	return backend[redisConn]{
		value: redisConn{client: client, prefix: cfg.KeyPrefix},
		check: &httpserver.Check{Name: "redis", Fn: redis.Healthcheck(client)},
		close: func(context.Context) error { return client.Close() },
	}, nil
}

func openThrottle(kind string, rdb redisConn) (auth.Throttle, error) {
	switch kind {
	case throttleNone:
		return nil, nil
	case throttleMemory:
		return auth.NewMemoryThrottle(), nil
	case throttleRedis:
		return redisthrottle.New(rdb.client, rdb.prefix+"throttle:"), nil
	}
	return nil, fmt.Errorf("unknown throttle backend %q", kind)
}

func openRateLimiter(kind string, cfg ratelimiter.Config, rdb redisConn) (backend[ratelimiter.RateLimiter], error) {
	var store ratelimiter.Store
	closeFn := noClose
	switch kind {
	case rateLimitNone:
		return backend[ratelimiter.RateLimiter]{close: noClose}, nil
	case rateLimitMemory:
		mem := ratelimiter.NewMemoryStore()
		store = mem
		closeFn = func(context.Context) error { mem.Close(); return nil }
	case rateLimitRedis:
		store = ratelimiter.NewRedisStore(rdb.client, rdb.prefix+"ratelimit:")
	default:
		return backend[ratelimiter.RateLimiter]{}, fmt.Errorf("unknown rate limit backend %q", kind)
	}

	limiter, err := ratelimiter.NewBucket(store, cfg)
	if err != nil {
		_ = closeFn(context.Background())
		return backend[ratelimiter.RateLimiter]{}, err
	}
	return backend[ratelimiter.RateLimiter]{value: limiter, close: closeFn}, nil
}

func closeAll(ctx context.Context, log *slog.Logger, closers ...func(context.Context) error) {
	for _, c := range closers {
		if c == nil {
			continue
		}
		if err := c(ctx); err != nil {
			log.ErrorContext(ctx, "failed to close backend", logger.Error(err))
		}
	}
}
