package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ekaya-inc/pantry-engine/pkg/logging"
)

// DB wraps a pgxpool connection pool.
type DB struct {
	*pgxpool.Pool
}

const (
	applicationName          = "pantry-engine"
	defaultMaxConns          = 25
	defaultMaxConnLifetime   = time.Hour
	defaultMaxConnIdleTime   = 30 * time.Minute
	defaultHealthCheckPeriod = time.Minute
)

// PoolConfig parses connStr and applies the pool limits and session settings
// every pantry-engine connection runs with. Parse errors never carry the
// password.
func PoolConfig(connStr string, maxConns int32) (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL %s: %s",
			logging.SanitizeConnectionString(connStr), logging.SanitizeError(err))
	}

	poolConfig.MaxConns = maxConns
	if poolConfig.MaxConns <= 0 {
		poolConfig.MaxConns = defaultMaxConns
	}
	poolConfig.MaxConnLifetime = defaultMaxConnLifetime
	poolConfig.MaxConnIdleTime = defaultMaxConnIdleTime
	// The sweep worker holds one connection for its whole run; dead idle
	// connections are dropped before it borrows one.
	poolConfig.HealthCheckPeriod = defaultHealthCheckPeriod

	params := poolConfig.ConnConfig.RuntimeParams
	if params["application_name"] == "" {
		params["application_name"] = applicationName
	}
	// date_added and created_at default to now(); expiration dates are plain
	// DATE values computed in the household's zone, never by the server.
	params["timezone"] = "UTC"

	return poolConfig, nil
}

// NewConnection opens a pool for connStr and verifies it with a ping.
func NewConnection(ctx context.Context, connStr string, maxConns int32) (*DB, error) {
	poolConfig, err := PoolConfig(connStr, maxConns)
	if err != nil {
		return nil, err
	}
	return connect(ctx, poolConfig)
}

func connect(ctx context.Context, poolConfig *pgxpool.Config) (*DB, error) {
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close closes the connection pool.
func (db *DB) Close() {
	db.Pool.Close()
}
