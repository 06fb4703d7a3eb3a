package storage

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"kitchen-cost/core/pricing"
	"kitchen-cost/internal/errors"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS price_history (
	id             TEXT PRIMARY KEY,
	variant_id     TEXT NOT NULL,
	price_cents    INTEGER NOT NULL,
	effective_date TEXT NOT NULL,
	source         TEXT NOT NULL,
	source_ref     TEXT NOT NULL DEFAULT '',
	seq            INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_price_history_variant
	ON price_history (variant_id, effective_date);
`

// SQLiteStore keeps the observation log in a local SQLite file
type SQLiteStore struct {
	db      *sql.DB
	timeout time.Duration
}

// OpenSQLite creates or opens the database at path. WAL mode keeps reads
// concurrent with the single writer; the file's directory is created if
// missing.
func OpenSQLite(path string, timeout time.Duration) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Storage("creating database directory", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Storage("opening sqlite database", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Storage("connecting to sqlite database", err)
	}

	// SQLite allows one writer; a second connection only risks SQLITE_BUSY
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, errors.Storage("applying "+pragma, err)
		}
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, errors.Storage("applying schema", err)
	}
	return &SQLiteStore{db: db, timeout: timeout}, nil
}

// AppendObservation durably records one observation
func (s *SQLiteStore) AppendObservation(ctx context.Context, obs pricing.Observation) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO price_history (id, variant_id, price_cents, effective_date, source, source_ref, seq)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		obs.ID.String(), obs.VariantID.String(), obs.PriceCents,
		obs.EffectiveDate.Format(time.RFC3339), string(obs.Source), obs.SourceRef, obs.Seq)
	if err != nil {
		return errors.Storage("appending observation", err)
	}
	return nil
}

// LoadObservations returns the full log in insertion order
func (s *SQLiteStore) LoadObservations(ctx context.Context) ([]pricing.Observation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, variant_id, price_cents, effective_date, source, source_ref, seq
		 FROM price_history ORDER BY seq`)
	if err != nil {
		return nil, errors.Storage("loading observations", err)
	}
	defer rows.Close()
	return scanObservations(rows)
}

// Close releases the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func scanObservations(rows *sql.Rows) ([]pricing.Observation, error) {
	var out []pricing.Observation
	for rows.Next() {
		var obs pricing.Observation
		var id, variant, ts, source string
		if err := rows.Scan(&id, &variant, &obs.PriceCents, &ts, &source, &obs.SourceRef, &obs.Seq); err != nil {
			return nil, errors.Storage("scanning observation row", err)
		}

		var err error
		if obs.ID, err = uuid.Parse(id); err != nil {
			return nil, errors.Storage("bad observation id "+id, err)
		}
		if obs.VariantID, err = uuid.Parse(variant); err != nil {
			return nil, errors.Storage("bad variant id "+variant, err)
		}
		if obs.EffectiveDate, err = time.Parse(time.RFC3339, ts); err != nil {
			return nil, errors.Storage("bad effective date "+ts, err)
		}
		obs.Source = pricing.Source(source)
		out = append(out, obs)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Storage("iterating observation rows", err)
	}
	return out, nil
}
