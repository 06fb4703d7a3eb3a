package storage

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"

	"kitchen-cost/core/pricing"
	"kitchen-cost/internal/errors"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS price_history (
	id             UUID PRIMARY KEY,
	variant_id     UUID NOT NULL,
	price_cents    BIGINT NOT NULL,
	effective_date TIMESTAMPTZ NOT NULL,
	source         TEXT NOT NULL,
	source_ref     TEXT NOT NULL DEFAULT '',
	seq            BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_price_history_variant
	ON price_history (variant_id, effective_date);
`

// PostgresStore keeps the observation log in a shared Postgres database
type PostgresStore struct {
	db      *sql.DB
	timeout time.Duration
}

// OpenPostgres connects with the given DSN and ensures the schema exists
func OpenPostgres(dsn string, timeout time.Duration) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Storage("opening postgres connection", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Storage("connecting to postgres", err)
	}
	if _, err := db.ExecContext(ctx, postgresSchema); err != nil {
		db.Close()
		return nil, errors.Storage("applying schema", err)
	}
	return &PostgresStore{db: db, timeout: timeout}, nil
}

// AppendObservation durably records one observation
func (s *PostgresStore) AppendObservation(ctx context.Context, obs pricing.Observation) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO price_history (id, variant_id, price_cents, effective_date, source, source_ref, seq)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		obs.ID, obs.VariantID, obs.PriceCents,
		obs.EffectiveDate, string(obs.Source), obs.SourceRef, obs.Seq)
	if err != nil {
		return errors.Storage("appending observation", err)
	}
	return nil
}

// LoadObservations returns the full log in insertion order
func (s *PostgresStore) LoadObservations(ctx context.Context) ([]pricing.Observation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, variant_id, price_cents,
		        to_char(effective_date AT TIME ZONE 'UTC', 'YYYY-MM-DD"T"HH24:MI:SS"Z"'),
		        source, source_ref, seq
		 FROM price_history ORDER BY seq`)
	if err != nil {
		return nil, errors.Storage("loading observations", err)
	}
	defer rows.Close()
	return scanObservations(rows)
}

// Close releases the connection pool
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
