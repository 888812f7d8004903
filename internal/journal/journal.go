// Package journal persists a local history of ingest runs and search
// queries in a SQLite database under the empdex data directory. The
// remote collection keeps no record of who pushed what when, so the
// journal is the only place "what did the last run do" can be answered
// from.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)
)

// Run statuses stored in the runs table.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Run is one recorded ingest run.
type Run struct {
	// ID is a UUID assigned on insert when empty.
	ID string

	// Collection the run indexed into.
	Collection string

	// CSVPath is the source file the run read.
	CSVPath string

	// Excluded is the column dropped during load, empty if none.
	Excluded string

	// StartedAt is when the run began.
	StartedAt time.Time

	// DurationMS is the wall-clock run time in milliseconds.
	DurationMS int64

	// Loaded is the row count after deduplication.
	Loaded int

	// Indexed is the number of documents upserted.
	Indexed int

	// Deduped is the number of duplicate rows dropped.
	Deduped int

	// Skipped is the number of rows skipped for a missing identifier.
	Skipped int

	// Status is StatusOK or StatusFailed.
	Status string

	// Error holds the failure message when Status is StatusFailed.
	Error string
}

// Search is one recorded search query.
type Search struct {
	// ID is a UUID assigned on insert when empty.
	ID string

	// Collection the search ran against.
	Collection string

	// Field is the document field that was matched.
	Field string

	// Value is the term that was searched for.
	Value string

	// Hits is the total match count the engine reported.
	Hits int64

	// CreatedAt is when the search ran.
	CreatedAt time.Time
}

// SearchTotal is the per-field aggregate of recorded searches.
type SearchTotal struct {
	Field string
	Count int64
}

// Stats summarizes the journal for status output.
type Stats struct {
	Runs     int
	Searches int
	LastRun  *Run
}

// Journal records runs and searches in a single-writer SQLite database.
type Journal struct {
	db   *sql.DB
	path string
}

// Open opens the journal database at path, creating the file and its
// parent directory on first use. Pass ":memory:" for an ephemeral
// journal in tests.
func Open(path string) (*Journal, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create journal directory: %w", err)
		}
		dsn = path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open journal database: %w", err)
	}

	// SQLite allows one writer at a time. Serializing all access through
	// a single connection avoids SQLITE_BUSY between statements.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if path != ":memory:" {
		// DSN params may be ignored by modernc.org/sqlite, so apply the
		// important ones explicitly.
		pragmas := []string{
			"PRAGMA journal_mode = WAL",
			"PRAGMA busy_timeout = 5000",
			"PRAGMA synchronous = NORMAL",
		}
		for _, pragma := range pragmas {
			if _, err := db.Exec(pragma); err != nil {
				_ = db.Close()
				return nil, fmt.Errorf("set pragma %q: %w", pragma, err)
			}
		}
	}

	j := &Journal{db: db, path: path}
	if err := j.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize journal schema: %w", err)
	}
	return j, nil
}

// Path returns the database file path the journal was opened with.
func (j *Journal) Path() string {
	return j.path
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY
	);

	CREATE TABLE IF NOT EXISTS runs (
		id          TEXT PRIMARY KEY,
		collection  TEXT NOT NULL,
		csv_path    TEXT NOT NULL,
		excluded    TEXT NOT NULL DEFAULT '',
		started_at  TEXT NOT NULL,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		loaded      INTEGER NOT NULL DEFAULT 0,
		indexed     INTEGER NOT NULL DEFAULT 0,
		deduped     INTEGER NOT NULL DEFAULT 0,
		skipped     INTEGER NOT NULL DEFAULT 0,
		status      TEXT NOT NULL,
		error       TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at DESC);

	CREATE TABLE IF NOT EXISTS searches (
		id         TEXT PRIMARY KEY,
		collection TEXT NOT NULL,
		field      TEXT NOT NULL,
		value      TEXT NOT NULL,
		hits       INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_searches_field ON searches(field);

	INSERT OR IGNORE INTO schema_version (version) VALUES (1);
	`
	if _, err := j.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

// RecordRun inserts a run record. An empty ID gets a fresh UUID and a
// zero StartedAt defaults to now.
func (j *Journal) RecordRun(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO runs (id, collection, csv_path, excluded, started_at, duration_ms,
			loaded, indexed, deduped, skipped, status, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Collection, run.CSVPath, run.Excluded,
		run.StartedAt.UTC().Format(time.RFC3339Nano), run.DurationMS,
		run.Loaded, run.Indexed, run.Deduped, run.Skipped,
		run.Status, run.Error,
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// RecentRuns returns up to limit runs, newest first.
func (j *Journal) RecentRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := j.db.QueryContext(ctx, `
		SELECT id, collection, csv_path, excluded, started_at, duration_ms,
			loaded, indexed, deduped, skipped, status, error
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// RecordSearch inserts a search record. An empty ID gets a fresh UUID
// and a zero CreatedAt defaults to now.
func (j *Journal) RecordSearch(ctx context.Context, s *Search) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO searches (id, collection, field, value, hits, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		s.ID, s.Collection, s.Field, s.Value, s.Hits,
		s.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record search: %w", err)
	}
	return nil
}

// SearchTotals returns the number of recorded searches per field, most
// searched first.
func (j *Journal) SearchTotals(ctx context.Context) ([]SearchTotal, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT field, COUNT(*) AS total
		FROM searches
		GROUP BY field
		ORDER BY total DESC, field ASC`)
	if err != nil {
		return nil, fmt.Errorf("query search totals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var totals []SearchTotal
	for rows.Next() {
		var t SearchTotal
		if err := rows.Scan(&t.Field, &t.Count); err != nil {
			return nil, fmt.Errorf("scan search total: %w", err)
		}
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search totals: %w", err)
	}
	return totals, nil
}

// Stats returns record counts and the most recent run.
func (j *Journal) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	if err := j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&stats.Runs); err != nil {
		return nil, fmt.Errorf("count runs: %w", err)
	}
	if err := j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM searches`).Scan(&stats.Searches); err != nil {
		return nil, fmt.Errorf("count searches: %w", err)
	}

	runs, err := j.RecentRuns(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) > 0 {
		stats.LastRun = runs[0]
	}
	return stats, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var run Run
	var startedAt string
	if err := s.Scan(
		&run.ID, &run.Collection, &run.CSVPath, &run.Excluded,
		&startedAt, &run.DurationMS,
		&run.Loaded, &run.Indexed, &run.Deduped, &run.Skipped,
		&run.Status, &run.Error,
	); err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}

	ts, err := time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return nil, fmt.Errorf("parse run timestamp %q: %w", startedAt, err)
	}
	run.StartedAt = ts
	return &run, nil
}
