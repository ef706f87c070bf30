// Package postgres is the Supabase/Postgres-backed store, interchangeable
// with the SQLite store behind domain.Repository.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"trainerbook/internal/config"
)

type Store struct {
	pool   *pgxpool.Pool
	logger *zerolog.Logger
}

func NewStore(ctx context.Context, cfg config.PostgresConfig, logger *zerolog.Logger) (*Store, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName, cfg.SSLMode)

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres config: %w", err)
	}
	if cfg.MaxConnections > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConnections)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	store := &Store{pool: pool, logger: logger}
	if err := store.createTables(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("host", cfg.Host).Str("db", cfg.DBName).Msg("postgres store initialized")
	return store, nil
}

func (s *Store) createTables(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS availability_rules (
            id BIGSERIAL PRIMARY KEY,
            trainer_id BIGINT NOT NULL,
            day_of_week SMALLINT NOT NULL DEFAULT 0,
            specific_date DATE,
            start_minute INT NOT NULL,
            end_minute INT NOT NULL,
            is_recurring BOOLEAN NOT NULL DEFAULT FALSE,
            is_blocked BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
            CHECK (start_minute < end_minute)
        )`,
		`CREATE TABLE IF NOT EXISTS bookings (
            id BIGSERIAL PRIMARY KEY,
            trainer_id BIGINT NOT NULL,
            client_id BIGINT NOT NULL,
            client_name TEXT NOT NULL DEFAULT '',
            date DATE NOT NULL,
            start_minute INT NOT NULL,
            end_minute INT NOT NULL,
            status TEXT NOT NULL DEFAULT 'pending',
            note TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
            version BIGINT NOT NULL DEFAULT 1,
            CHECK (start_minute < end_minute)
        )`,
		`CREATE TABLE IF NOT EXISTS sync_queue (
            id BIGSERIAL PRIMARY KEY,
            task_type TEXT NOT NULL,
            booking_id BIGINT NOT NULL,
            payload TEXT,
            status TEXT NOT NULL DEFAULT 'pending',
            retry_count INT NOT NULL DEFAULT 0,
            last_error TEXT,
            created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
            processed_at TIMESTAMPTZ,
            next_retry_at TIMESTAMPTZ
        )`,
		`CREATE INDEX IF NOT EXISTS idx_rules_trainer_id ON availability_rules(trainer_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_trainer_date ON bookings(trainer_id, date)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_client_id ON bookings(client_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sync_queue_status ON sync_queue(status)`,
	}

	for _, query := range queries {
		if _, err := s.pool.Exec(ctx, query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
