// Package database provides PostgreSQL connection management using pgx.
package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config holds PostgreSQL connection settings.
type Config struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"postgres"`
	Password string `envconfig:"DB_PASSWORD" default:"postgres"`
	DBName   string `envconfig:"DB_NAME" default:"livereserve"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	MaxConns int32 `envconfig:"DB_MAX_CONNS" default:"20"`
	MinConns int32 `envconfig:"DB_MIN_CONNS" default:"2"`
}

// DSN builds a libpq-compatible connection string.
func (c Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// NewPool creates and validates a pgxpool connection pool.
// It retries up to 5 times to accommodate containers starting up.
func NewPool(ctx context.Context, cfg Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	return newPool(ctx, cfg.DSN(), cfg.MaxConns, cfg.MinConns, logger)
}

// NewPoolFromURL is NewPool for a postgres:// URL, as used by tests.
func NewPoolFromURL(ctx context.Context, url string, logger *slog.Logger) (*pgxpool.Pool, error) {
	return newPool(ctx, url, 10, 1, logger)
}

func newPool(ctx context.Context, dsn string, maxConns, minConns int32, logger *slog.Logger) (*pgxpool.Pool, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}

	poolCfg.MaxConns = maxConns
	poolCfg.MinConns = minConns
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	var pool *pgxpool.Pool
	for attempt := 1; attempt <= 5; attempt++ {
		pool, err = pgxpool.NewWithConfig(ctx, poolCfg)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				break
			}
			pool.Close()
		}
		logger.Warn("db connect failed, retrying", "attempt", attempt, "max_attempts", 5, "error", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	return pool, nil
}

// Migrate creates the tables used by the service if they do not exist.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id                TEXT PRIMARY KEY,
	title             TEXT NOT NULL,
	date              TEXT NOT NULL DEFAULT '',
	venue             TEXT NOT NULL DEFAULT '',
	ticket_stock      INTEGER NOT NULL DEFAULT 0 CHECK (ticket_stock >= 0),
	total_reserved    INTEGER NOT NULL DEFAULT 0 CHECK (total_reserved >= 0),
	is_accept_reserve BOOLEAN NOT NULL DEFAULT FALSE,
	accept_start_date TEXT NOT NULL DEFAULT '',
	accept_end_date   TEXT NOT NULL DEFAULT '',
	max_companions    INTEGER NOT NULL DEFAULT 0 CHECK (max_companions >= 0),
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS reservations (
	key                 TEXT PRIMARY KEY,
	event_id            TEXT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
	user_id             TEXT NOT NULL,
	kind                TEXT NOT NULL CHECK (kind IN ('general', 'invited')),
	total_count         INTEGER NOT NULL CHECK (total_count >= 0),
	reservation_number  TEXT NOT NULL,
	representative_name TEXT,
	companions          JSONB,
	member_name         TEXT,
	guest_groups        JSONB,
	created_at          TIMESTAMPTZ NOT NULL,
	updated_at          TIMESTAMPTZ NOT NULL,
	UNIQUE (event_id, user_id),
	CHECK ((kind = 'general' AND guest_groups IS NULL) OR (kind = 'invited' AND companions IS NULL))
);
CREATE INDEX IF NOT EXISTS reservations_user_id_idx ON reservations (user_id, updated_at DESC);

CREATE TABLE IF NOT EXISTS user_profiles (
	id           TEXT PRIMARY KEY,
	display_name TEXT NOT NULL DEFAULT '',
	is_member    BOOLEAN NOT NULL DEFAULT FALSE,
	created_at   TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS user_archives (
	id           BIGSERIAL PRIMARY KEY,
	user_id      TEXT NOT NULL,
	display_name TEXT NOT NULL,
	is_member    BOOLEAN NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL,
	archived_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS survey_responses (
	id          TEXT PRIMARY KEY,
	event_id    TEXT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
	event_title TEXT NOT NULL DEFAULT '',
	user_id     TEXT,
	answers     JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS survey_responses_event_id_idx ON survey_responses (event_id);

CREATE TABLE IF NOT EXISTS audit_logs (
	id           UUID PRIMARY KEY,
	operation_id TEXT NOT NULL,
	action       TEXT NOT NULL,
	status       TEXT NOT NULL,
	error_detail TEXT,
	created_at   TIMESTAMPTZ NOT NULL
);
`
