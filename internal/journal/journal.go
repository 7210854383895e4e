// Package journal records capture history in a local SQLite database.
package journal

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Capture outcomes.
const (
	OutcomeContent = "content"
	OutcomeEmpty   = "empty"
)

// Record is one journaled capture.
type Record struct {
	ID          int64
	CapturedAt  time.Time
	Host        string
	Outcome     string
	FullPath    string
	CroppedPath string
	MinX        int
	MinY        int
	MaxX        int
	MaxY        int
	Regions     int
	Duration    time.Duration
}

// Store persists capture records.
type Store struct {
	db *sql.DB
}

// Open opens the journal database, creating file and schema as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create journal dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	s := &Store{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS captures (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			captured_at INTEGER NOT NULL,
			host TEXT NOT NULL,
			outcome TEXT NOT NULL,
			full_path TEXT,
			cropped_path TEXT,
			min_x INTEGER NOT NULL DEFAULT 0,
			min_y INTEGER NOT NULL DEFAULT 0,
			max_x INTEGER NOT NULL DEFAULT 0,
			max_y INTEGER NOT NULL DEFAULT 0,
			regions INTEGER NOT NULL DEFAULT 0,
			duration_ms INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_captures_captured_at ON captures(captured_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("init journal schema: %w", err)
		}
	}
	return nil
}

// Add inserts one record.
func (s *Store) Add(r Record) error {
	_, err := s.db.Exec(
		`INSERT INTO captures
		(captured_at, host, outcome, full_path, cropped_path, min_x, min_y, max_x, max_y, regions, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.CapturedAt.UTC().Unix(), r.Host, r.Outcome, r.FullPath, r.CroppedPath,
		r.MinX, r.MinY, r.MaxX, r.MaxY, r.Regions, r.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("journal add: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (s *Store) Recent(limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT id, captured_at, host, outcome, full_path, cropped_path,
		min_x, min_y, max_x, max_y, regions, duration_ms
		FROM captures ORDER BY captured_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("journal query: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			r             Record
			ts, durMS     int64
			full, cropped sql.NullString
		)
		err := rows.Scan(&r.ID, &ts, &r.Host, &r.Outcome, &full, &cropped,
			&r.MinX, &r.MinY, &r.MaxX, &r.MaxY, &r.Regions, &durMS)
		if err != nil {
			return nil, fmt.Errorf("journal scan: %w", err)
		}
		r.CapturedAt = time.Unix(ts, 0).UTC()
		r.FullPath = full.String
		r.CroppedPath = cropped.String
		r.Duration = time.Duration(durMS) * time.Millisecond
		records = append(records, r)
	}
	return records, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
