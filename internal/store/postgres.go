package store

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"user-enrichment/internal/common/errors"
	"user-enrichment/internal/common/logging"
	"user-enrichment/internal/enrichment"
)

// PostgresStore keeps enriched records in a single jsonb-valued table with
// upsert semantics on the employee id.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

const createTableSQL = `
CREATE TABLE IF NOT EXISTS enriched_users (
	id         TEXT PRIMARY KEY,
	data       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// NewPostgresStore connects to Postgres, verifies connectivity and ensures
// the table exists.
func NewPostgresStore(dsn string, logger logging.Logger) (*PostgresStore, error) {
	if dsn == "" {
		return nil, errors.ConfigError("postgres DSN is required")
	}
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, errors.ConfigError("invalid postgres DSN: " + err.Error())
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.ConnectionError("failed to connect to Postgres", err)
	}

	if _, err := pool.Exec(ctx, createTableSQL); err != nil {
		pool.Close()
		return nil, errors.ConnectionError("failed to create enriched_users table", err)
	}

	logger.Info("Connected to Postgres")

	return &PostgresStore{pool: pool, logger: logger}, nil
}

// Put upserts the record under id. The single statement keeps the write
// atomic; there is no partially-written state to observe.
func (s *PostgresStore) Put(ctx context.Context, id string, user *enrichment.EnrichedUser) error {
	if id == "" {
		return errors.ValidationError("store id is required")
	}
	if user == nil {
		return errors.ValidationError("store value is required")
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO enriched_users (id, data, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		id, user)
	if err != nil {
		return errors.ConnectionError("failed to store user in Postgres", err)
	}
	return nil
}

// Get returns the stored record for id.
func (s *PostgresStore) Get(ctx context.Context, id string) (*enrichment.EnrichedUser, error) {
	var user enrichment.EnrichedUser
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM enriched_users WHERE id = $1`, id).Scan(&user)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, errors.NotFoundError("user " + id)
	}
	if err != nil {
		return nil, errors.ConnectionError("failed to read user from Postgres", err)
	}
	return &user, nil
}

// Health pings the database.
func (s *PostgresStore) Health(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return errors.ConnectionError("postgres ping failed", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
