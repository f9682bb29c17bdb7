// Package persist records save history in PostgreSQL. It is optional: the
// game runs without a database, and snapshot files stay the source of truth.
package persist

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/ironkeep/worldkeeper/internal/config"
)

// connectAttempts bounds how often Open pings a database that is still
// starting up.
const connectAttempts = 4

// DB is the save-history connection pool.
type DB struct {
	Pool *pgxpool.Pool
	log  *zap.Logger

	// Migrated lists the migration versions applied by Open.
	Migrated []int64
}

// Open connects to cfg.DSN, waits for the server to answer and applies
// pending migrations.
func Open(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (*DB, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	}
	poolCfg.MinConns = int32(cfg.MaxIdleConns)
	poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}

	backoff := retry.WithMaxRetries(connectAttempts-1, retry.NewExponential(250*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := pool.Ping(pingCtx); err != nil {
			log.Debug("database not ready", zap.Error(err))
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	applied, err := RunMigrations(ctx, pool, log)
	if err != nil {
		pool.Close()
		return nil, err
	}
	log.Info("save history enabled",
		zap.String("host", poolCfg.ConnConfig.Host),
		zap.String("database", poolCfg.ConnConfig.Database),
		zap.Int("migrations", len(applied)),
	)
	return &DB{Pool: pool, log: log, Migrated: applied}, nil
}

func (db *DB) Close() {
	db.Pool.Close()
}
