// Package history persists one record per completed build to a local sqlite
// database, for inspection across runs. Recording is best-effort and optional.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// BuildRecord is one completed build invocation.
type BuildRecord struct {
	ID        string
	StartedAt time.Time
	Duration  time.Duration
	Mode      string // "app" or "lib"
	Outcome   string // "success" or "failed"
	Outputs   int
	Error     string
}

// Store is a sqlite-backed build history.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (or creates) the history database at dbPath. Use ":memory:" for
// an in-memory database.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize history schema: %w", err)
	}
	return store, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		mode TEXT NOT NULL,
		outcome TEXT NOT NULL,
		outputs INTEGER NOT NULL,
		error TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_builds_started_at ON builds(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append stores one build record.
func (s *Store) Append(ctx context.Context, rec BuildRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO builds (id, started_at, duration_ms, mode, outcome, outputs, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.StartedAt.UnixMilli(), rec.Duration.Milliseconds(),
		rec.Mode, rec.Outcome, rec.Outputs, rec.Error)
	if err != nil {
		return fmt.Errorf("append build record: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]BuildRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, duration_ms, mode, outcome, outputs, COALESCE(error, '')
		 FROM builds ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query build records: %w", err)
	}
	defer rows.Close()

	var records []BuildRecord
	for rows.Next() {
		var rec BuildRecord
		var startedMs, durationMs int64
		if err := rows.Scan(&rec.ID, &startedMs, &durationMs, &rec.Mode, &rec.Outcome, &rec.Outputs, &rec.Error); err != nil {
			return nil, fmt.Errorf("scan build record: %w", err)
		}
		rec.StartedAt = time.UnixMilli(startedMs)
		rec.Duration = time.Duration(durationMs) * time.Millisecond
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}
