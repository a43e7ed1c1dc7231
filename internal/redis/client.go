package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hackgods/clinic-scheduling/internal/config"
)

const defaultDialTimeout = 5 * time.Second

// Connect opens the Redis connection used for provider locks and checks it
// with a PING bounded by cfg.DialTimeout.
func Connect(ctx context.Context, cfg config.Config) (*redis.Client, error) {
	opts := options(cfg)
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, opts.DialTimeout)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis %s db %d: %w", opts.Addr, opts.DB, err)
	}

	return rdb, nil
}

// options maps the clinic config onto client options. Read and write
// timeouts stay at or under half the lock TTL.
func options(cfg config.Config) *redis.Options {
	dial := cfg.DialTimeout
	if dial <= 0 {
		dial = defaultDialTimeout
	}
	io := 2 * time.Second
	if cfg.LockTTL > 0 && cfg.LockTTL/2 < io {
		io = cfg.LockTTL / 2
	}
	pool := cfg.RedisPoolSize
	if pool <= 0 {
		pool = 10
	}

	return &redis.Options{
		Addr:         cfg.RedisAddr,
		Username:     cfg.RedisUsername,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  dial,
		ReadTimeout:  io,
		WriteTimeout: io,
		PoolSize:     pool,
		MinIdleConns: 1,
	}
}
