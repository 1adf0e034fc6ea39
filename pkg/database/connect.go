package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/ekaya-inc/pantry-engine/pkg/config"
	"github.com/ekaya-inc/pantry-engine/pkg/logging"
	"github.com/ekaya-inc/pantry-engine/pkg/retry"
)

// Open connects to PostgreSQL, retrying while the server is still starting.
// A malformed configuration fails at once.
func Open(ctx context.Context, cfg *config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	poolConfig, err := PoolConfig(cfg.ConnectionString(), cfg.MaxConnections)
	if err != nil {
		return nil, err
	}

	retryCfg := retry.StartupConfig()
	retryCfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		logger.Warn("Database not ready, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.String("error", logging.SanitizeError(err)))
	}

	db, err := retry.DoWithResult(ctx, retryCfg, func() (*DB, error) {
		return connect(ctx, poolConfig.Copy())
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %s", logging.SanitizeError(err))
	}
	return db, nil
}

// Migrate applies pending migrations through a database/sql handle borrowed
// from the pool.
func (db *DB) Migrate(migrationsPath string, logger *zap.Logger) error {
	sqlDB := stdlib.OpenDBFromPool(db.Pool)
	defer func(sqlDB *sql.DB) {
		if err := sqlDB.Close(); err != nil {
			logger.Warn("Failed to close migration handle", zap.Error(err))
		}
	}(sqlDB)

	return RunMigrations(sqlDB, migrationsPath, logger)
}
