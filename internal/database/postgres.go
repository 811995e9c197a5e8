// ===========================================
// Package database - PostgreSQL Connection
// ===========================================
// Manages the pgx connection pool. The pool is created once at
// startup and shared by all repositories; if the database is
// unreachable the process fails fast instead of serving broken
// requests.
// ===========================================

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/shortlink/internal/config"
)

// PostgresDB wraps the connection pool with helper methods.
type PostgresDB struct {
	Pool *pgxpool.Pool
}

// NewPostgresDB creates a new PostgreSQL connection pool and
// validates the connection before returning.
func NewPostgresDB(ctx context.Context, cfg config.DatabaseConfig) (*PostgresDB, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	poolConfig.HealthCheckPeriod = 1 * time.Minute
	poolConfig.ConnConfig.ConnectTimeout = 5 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresDB{Pool: pool}, nil
}

// Close gracefully shuts down the connection pool.
func (db *PostgresDB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

// Health checks if the database is responsive.
func (db *PostgresDB) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return db.Pool.Ping(ctx)
}

// Migrate creates the short_links table and its indexes if they
// do not exist yet. The click log is an embedded JSONB array so a
// click append is a single-row atomic update.
func (db *PostgresDB) Migrate(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS short_links (
			id           UUID PRIMARY KEY,
			alias        TEXT NOT NULL,
			original_url TEXT NOT NULL,
			topic        TEXT NOT NULL DEFAULT 'others',
			owner        TEXT NOT NULL,
			clicks       JSONB NOT NULL DEFAULT '[]'::jsonb,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE UNIQUE INDEX IF NOT EXISTS short_links_alias_key
			ON short_links (alias);
		CREATE INDEX IF NOT EXISTS short_links_owner_topic_idx
			ON short_links (owner, topic);
		CREATE INDEX IF NOT EXISTS short_links_owner_original_url_idx
			ON short_links (owner, original_url);
	`

	if _, err := db.Pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
