// Package audit persists tool invocation lifecycle events to SQLite so an
// operator can inspect what the client asked for after the fact.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Lifecycle phases recorded per invocation.
const (
	PhaseStart   = "start"
	PhaseSuccess = "success"
	PhaseFailure = "failure"
)

// Entry is one recorded lifecycle event.
type Entry struct {
	ID        int64
	RequestID string
	Tool      string
	Phase     string
	Code      int
	Detail    string
	ElapsedMS int64
	CreatedAt time.Time
}

// Store writes invocation records to SQLite.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

func Open(dbPath string, logger *slog.Logger) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	// Single connection for SQLite.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &Store{db: db, logger: logger}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	return store, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS invocations (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		request_id  TEXT NOT NULL,
		tool        TEXT NOT NULL,
		phase       TEXT NOT NULL,
		code        INTEGER DEFAULT 0,
		detail      TEXT,
		elapsed_ms  INTEGER DEFAULT 0,
		created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_invocations_request ON invocations(request_id);
	CREATE INDEX IF NOT EXISTS idx_invocations_time ON invocations(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Record inserts one lifecycle event.
func (s *Store) Record(ctx context.Context, requestID, tool, phase string, code int, detail string, elapsed time.Duration) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO invocations (request_id, tool, phase, code, detail, elapsed_ms)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		requestID, tool, phase, code, detail, elapsed.Milliseconds(),
	)
	return err
}

// Recent returns the newest entries, most recent first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, request_id, tool, phase, code, detail, elapsed_ms, created_at
		 FROM invocations ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var detail sql.NullString
		if err := rows.Scan(&e.ID, &e.RequestID, &e.Tool, &e.Phase, &e.Code, &detail, &e.ElapsedMS, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Detail = detail.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ByRequest returns all events recorded for one request id, oldest first.
func (s *Store) ByRequest(ctx context.Context, requestID string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, request_id, tool, phase, code, detail, elapsed_ms, created_at
		 FROM invocations WHERE request_id = ? ORDER BY id ASC`, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var detail sql.NullString
		if err := rows.Scan(&e.ID, &e.RequestID, &e.Tool, &e.Phase, &e.Code, &detail, &e.ElapsedMS, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Detail = detail.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Prune deletes entries older than the retention window. The cutoff uses
// the same UTC text format CURRENT_TIMESTAMP writes, so the comparison
// stays correct regardless of driver time binding.
func (s *Store) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention).UTC().Format("2006-01-02 15:04:05")
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM invocations WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) Close() error {
	return s.db.Close()
}
