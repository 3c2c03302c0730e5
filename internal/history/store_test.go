package history

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/localesync/internal/core"
)

// fakeDB records statements and serves canned rows.
type fakeDB struct {
	execSQL  string
	execArgs []any
	execErr  error

	queryArgs []any
	rows      [][]any
	queryErr  error
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	f.execSQL = sql
	f.execArgs = args
	return pgconn.NewCommandTag("INSERT 0 1"), f.execErr
}

func (f *fakeDB) Query(_ context.Context, _ string, args ...interface{}) (pgx.Rows, error) {
	f.queryArgs = args
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return &fakeRows{rows: f.rows, pos: -1}, nil
}

func (f *fakeDB) QueryRow(context.Context, string, ...interface{}) pgx.Row {
	return nil
}

type fakeRows struct {
	rows [][]any
	pos  int
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	r.pos++
	return r.pos < len(r.rows)
}

func (r *fakeRows) Values() ([]any, error) {
	return r.rows[r.pos], nil
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.rows[r.pos]
	if len(dest) != len(row) {
		return errors.New("column count mismatch")
	}
	for i, d := range dest {
		reflect.ValueOf(d).Elem().Set(reflect.ValueOf(row[i]))
	}
	return nil
}

func TestStore_RecordRun(t *testing.T) {
	db := &fakeDB{}
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))

	err := NewStore(db).RecordRun(context.Background(), core.RunRecord{
		RunID:       "run-1",
		Source:      "export.csv",
		Status:      core.RunFailed,
		Error:       "no translation key column defined",
		RowsRead:    4,
		RowsApplied: 3,
		StartedAt:   started,
		FinishedAt:  started.Add(time.Second),
	})
	require.NoError(t, err)

	assert.Contains(t, db.execSQL, "INSERT INTO import_runs")
	require.Len(t, db.execArgs, 10)
	assert.Equal(t, "run-1", db.execArgs[0])
	assert.Equal(t, "failed", db.execArgs[2])
	assert.Equal(t, pgtype.Text{String: "no translation key column defined", Valid: true}, db.execArgs[3])
	assert.Equal(t, []string{}, db.execArgs[4], "nil locales are stored as an empty array")
	assert.Equal(t, time.UTC, db.execArgs[8].(time.Time).Location())
}

func TestStore_RecordRunWithoutError(t *testing.T) {
	db := &fakeDB{}
	err := NewStore(db).RecordRun(context.Background(), core.RunRecord{RunID: "run-2", Status: core.RunSucceeded})
	require.NoError(t, err)
	assert.Equal(t, pgtype.Text{}, db.execArgs[3])
}

func TestStore_RecordRunFailures(t *testing.T) {
	err := NewStore(&fakeDB{}).RecordRun(context.Background(), core.RunRecord{})
	assert.Error(t, err)

	err = NewStore(&fakeDB{execErr: errors.New("connection refused")}).
		RecordRun(context.Background(), core.RunRecord{RunID: "run-3"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run-3")
}

func TestStore_RecentRuns(t *testing.T) {
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	db := &fakeDB{rows: [][]any{
		{"run-2", "b.csv", "succeeded", pgtype.Text{}, []string{"en", "fr"}, []string{"de"}, 10, 9, started.Add(time.Hour), started.Add(time.Hour + time.Second)},
		{"run-1", "a.csv", "failed", pgtype.Text{String: "boom", Valid: true}, []string{}, []string{}, 0, 0, started, started},
	}}

	runs, err := NewStore(db).RecentRuns(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, []any{5}, db.queryArgs)
	assert.Equal(t, "run-2", runs[0].RunID)
	assert.Equal(t, core.RunSucceeded, runs[0].Status)
	assert.Equal(t, []string{"en", "fr"}, runs[0].Locales)
	assert.Equal(t, 9, runs[0].RowsApplied)
	assert.Equal(t, "boom", runs[1].Error)
	assert.Equal(t, core.RunFailed, runs[1].Status)
}

func TestStore_RecentRunsLimits(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{0, DefaultLimit},
		{-3, DefaultLimit},
		{50, 50},
		{MaxLimit + 1, MaxLimit},
	}
	for _, tt := range tests {
		db := &fakeDB{}
		_, err := NewStore(db).RecentRuns(context.Background(), tt.in)
		require.NoError(t, err)
		assert.Equal(t, []any{tt.want}, db.queryArgs, "limit %d", tt.in)
	}
}

func TestStore_RecentRunsQueryError(t *testing.T) {
	_, err := NewStore(&fakeDB{queryErr: errors.New("relation does not exist")}).RecentRuns(context.Background(), 1)
	assert.Error(t, err)
}

func TestStore_ImplementsHistoryStore(t *testing.T) {
	var _ core.HistoryStore = NewStore(&fakeDB{})
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrations.ReadDir("migrations")
	require.NoError(t, err)

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Contains(t, names, "0001_create_import_runs.up.sql")
	assert.Contains(t, names, "0001_create_import_runs.down.sql")
}
