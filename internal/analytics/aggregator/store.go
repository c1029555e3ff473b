// Package aggregator persists aggregated analytics snapshots in PostgreSQL
// and saves them periodically.
package aggregator

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/resilience"
)

// defaultSaveTimeout bounds a snapshot write when the config leaves it unset.
const defaultSaveTimeout = 5 * time.Second

const schema = `CREATE TABLE IF NOT EXISTS analytics_snapshots (
    id          BIGSERIAL PRIMARY KEY,
    data        JSONB NOT NULL,
    captured_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// pruneQuery deletes everything but the newest $1 snapshots.
const pruneQuery = `DELETE FROM analytics_snapshots WHERE id NOT IN (
    SELECT id FROM analytics_snapshots ORDER BY captured_at DESC, id DESC LIMIT $1
)`

// Store persists aggregated analytics snapshots in PostgreSQL and keeps
// only the newest retain of them; retain <= 0 keeps every snapshot.
type Store struct {
	db     *postgres.Client
	retain int
	logger *slog.Logger
}

func NewStore(db *postgres.Client, retain int) *Store {
	return &Store{
		db:     db,
		retain: retain,
		logger: slog.Default().With("component", "analytics-store"),
	}
}

// EnsureSchema creates the snapshot table when it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating analytics_snapshots: %w", err)
	}
	return nil
}

func (s *Store) SaveSnapshot(ctx context.Context, stats analytics.AggregatedStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshaling stats: %w", err)
	}
	err = s.db.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO analytics_snapshots (data, captured_at) VALUES ($1, $2)`,
			data, time.Now().UTC(),
		); err != nil {
			return err
		}
		if s.retain <= 0 {
			return nil
		}
		_, err := tx.ExecContext(ctx, pruneQuery, s.retain)
		return err
	})
	if err != nil {
		return fmt.Errorf("saving analytics snapshot: %w", err)
	}
	s.logger.Info("analytics snapshot saved",
		"total_searches", stats.TotalSearches,
		"total_matches", stats.TotalMatches,
	)
	return nil
}

// LatestSnapshot loads the most recent snapshot. It returns nil, nil when
// no snapshot exists yet.
func (s *Store) LatestSnapshot(ctx context.Context) (*analytics.AggregatedStats, error) {
	var data []byte
	err := s.db.DB.QueryRowContext(ctx,
		`SELECT data FROM analytics_snapshots ORDER BY captured_at DESC LIMIT 1`,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest snapshot: %w", err)
	}
	var stats analytics.AggregatedStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("unmarshaling snapshot: %w", err)
	}
	return &stats, nil
}

// ListSnapshots returns the last limit snapshots, newest first.
func (s *Store) ListSnapshots(ctx context.Context, limit int) ([]analytics.AggregatedStats, error) {
	rows, err := s.db.DB.QueryContext(ctx,
		`SELECT data FROM analytics_snapshots ORDER BY captured_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []analytics.AggregatedStats
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning snapshot row: %w", err)
		}
		var stats analytics.AggregatedStats
		if err := json.Unmarshal(data, &stats); err != nil {
			s.logger.Warn("skipping corrupt snapshot", "error", err)
			continue
		}
		snapshots = append(snapshots, stats)
	}
	return snapshots, rows.Err()
}

// Saver is the write side used by RunPeriodicSave. *Store implements it.
type Saver interface {
	SaveSnapshot(ctx context.Context, stats analytics.AggregatedStats) error
}

// RunPeriodicSave snapshots stats() every cfg.SnapshotInterval until ctx is
// cancelled, then writes a final snapshot. Transient failures are retried
// per cfg.SaveRetry with every attempt bounded by cfg.SaveTimeout; a
// snapshot that still fails is logged and the next tick takes a fresh one.
func RunPeriodicSave(ctx context.Context, saver Saver, stats func() analytics.AggregatedStats, cfg config.AnalyticsConfig) error {
	logger := slog.Default().With("component", "analytics-store")
	logger.Info("periodic snapshot started", "interval", cfg.SnapshotInterval, "max_attempts", cfg.SaveRetry.MaxAttempts)
	ticker := time.NewTicker(cfg.SnapshotInterval)
	defer ticker.Stop()

	timeout := cfg.SaveTimeout
	if timeout <= 0 {
		timeout = defaultSaveTimeout
	}
	backoff := resilience.BackoffFrom(cfg.SaveRetry)
	save := func(parent context.Context) error {
		snapshot := stats()
		return resilience.Retry(parent, "analytics-snapshot", backoff, func(ctx context.Context, _ int) error {
			attemptCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			err := saver.SaveSnapshot(attemptCtx, snapshot)
			if err != nil && !postgres.IsTransient(err) {
				return resilience.Permanent(err)
			}
			return err
		})
	}
	for {
		select {
		case <-ticker.C:
			if err := save(ctx); err != nil {
				logger.Error("periodic snapshot failed", "error", err)
			}
		case <-ctx.Done():
			if err := save(context.Background()); err != nil {
				logger.Error("final snapshot failed", "error", err)
			}
			return nil
		}
	}
}
