package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-scheduling/internal/config"
)

const defaultDialTimeout = 5 * time.Second

// Open connects to the appointments database described by cfg and, when
// cfg.AutoMigrate is set, applies the schema before returning the pool.
func Open(ctx context.Context, cfg config.Config) (*pgxpool.Pool, error) {
	poolCfg, err := poolConfig(cfg)
	if err != nil {
		return nil, err
	}

	timeout := cfg.DialTimeout
	if timeout <= 0 {
		timeout = defaultDialTimeout
	}
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(dialCtx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(dialCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres %s/%s: %w", poolCfg.ConnConfig.Host, poolCfg.ConnConfig.Database, err)
	}

	if cfg.AutoMigrate {
		if err := Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		zerolog.Ctx(ctx).Info().Msg("appointments schema up to date")
	}

	return pool, nil
}

func poolConfig(cfg config.Config) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	p := cfg.PostgresPool
	if p.MaxConns > 0 {
		poolCfg.MaxConns = p.MaxConns
	}
	poolCfg.MinConns = p.MinConns
	if p.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = p.MaxConnLifetime
	}
	if p.MaxConnIdleTime > 0 {
		poolCfg.MaxConnIdleTime = p.MaxConnIdleTime
	}
	poolCfg.HealthCheckPeriod = poolCfg.MaxConnIdleTime / 2
	if cfg.DialTimeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = cfg.DialTimeout
	}
	poolCfg.ConnConfig.RuntimeParams["application_name"] = "clinic-scheduling"

	return poolCfg, nil
}
