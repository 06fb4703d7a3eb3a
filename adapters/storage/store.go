// Package storage persists the append-only price observation log.
// Two backends share one interface: SQLite for a local single-operator
// setup, Postgres for a shared one. The in-memory book in core/pricing
// stays the source the selector reads; these stores load it at startup
// and append alongside it.
package storage

import (
	"context"
	"time"

	"kitchen-cost/core/pricing"
	"kitchen-cost/internal/config"
	"kitchen-cost/internal/errors"
)

// Store is the persistent observation log
type Store interface {
	// AppendObservation durably records one observation
	AppendObservation(ctx context.Context, obs pricing.Observation) error

	// LoadObservations returns the full log in insertion order
	LoadObservations(ctx context.Context) ([]pricing.Observation, error)

	// Close releases the backend connection
	Close() error
}

// Open creates a store for the configured driver
func Open(cfg config.StorageConfig) (Store, error) {
	switch cfg.Driver {
	case "sqlite", "":
		return OpenSQLite(cfg.Path, queryTimeout(cfg))
	case "postgres":
		return OpenPostgres(cfg.DSN, queryTimeout(cfg))
	default:
		return nil, errors.Validation("unknown storage driver: " + cfg.Driver)
	}
}

func queryTimeout(cfg config.StorageConfig) time.Duration {
	if cfg.QueryTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(cfg.QueryTimeoutSeconds) * time.Second
}

// Replay loads the persisted log into an in-memory store
func Replay(ctx context.Context, s Store, book *pricing.Store) (int, error) {
	observations, err := s.LoadObservations(ctx)
	if err != nil {
		return 0, err
	}
	for _, obs := range observations {
		book.Append(obs)
	}
	return len(observations), nil
}
