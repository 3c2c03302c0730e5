// Package history persists import runs in PostgreSQL.
package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/localesync/internal/core"
)

// DefaultLimit is used when RecentRuns is called with a non-positive limit.
const DefaultLimit = 20

// MaxLimit caps RecentRuns.
const MaxLimit = 500

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

const insertRun = `
INSERT INTO import_runs (
    run_id, source, status, error, locales, excluded,
    rows_read, rows_applied, started_at, finished_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (run_id) DO UPDATE SET
    status = EXCLUDED.status,
    error = EXCLUDED.error,
    locales = EXCLUDED.locales,
    rows_read = EXCLUDED.rows_read,
    rows_applied = EXCLUDED.rows_applied,
    finished_at = EXCLUDED.finished_at`

const selectRecentRuns = `
SELECT run_id, source, status, error, locales, excluded,
       rows_read, rows_applied, started_at, finished_at
FROM import_runs
ORDER BY started_at DESC
LIMIT $1`

// Store reads and writes run records. It implements core.HistoryStore.
type Store struct {
	db DBTX
}

// NewStore creates a store over db.
func NewStore(db DBTX) *Store {
	return &Store{db: db}
}

// RecordRun inserts rec, replacing an earlier record with the same run ID.
func (s *Store) RecordRun(ctx context.Context, rec core.RunRecord) error {
	if rec.RunID == "" {
		return errors.New("record run: empty run id")
	}

	errText := pgtype.Text{String: rec.Error, Valid: rec.Error != ""}
	_, err := s.db.Exec(ctx, insertRun,
		rec.RunID,
		rec.Source,
		string(rec.Status),
		errText,
		nonNil(rec.Locales),
		nonNil(rec.Excluded),
		rec.RowsRead,
		rec.RowsApplied,
		rec.StartedAt.UTC(),
		rec.FinishedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", rec.RunID, err)
	}
	return nil
}

// RecentRuns returns up to limit records, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]core.RunRecord, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	rows, err := s.db.Query(ctx, selectRecentRuns, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}

	runs, err := pgx.CollectRows(rows, scanRun)
	if err != nil {
		return nil, fmt.Errorf("scan runs: %w", err)
	}
	return runs, nil
}

func scanRun(row pgx.CollectableRow) (core.RunRecord, error) {
	var (
		rec        core.RunRecord
		status     string
		errText    pgtype.Text
		startedAt  time.Time
		finishedAt time.Time
	)
	err := row.Scan(
		&rec.RunID,
		&rec.Source,
		&status,
		&errText,
		&rec.Locales,
		&rec.Excluded,
		&rec.RowsRead,
		&rec.RowsApplied,
		&startedAt,
		&finishedAt,
	)
	if err != nil {
		return core.RunRecord{}, err
	}

	rec.Status = core.RunStatus(status)
	rec.Error = errText.String
	rec.StartedAt = startedAt
	rec.FinishedAt = finishedAt
	return rec, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
