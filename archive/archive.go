// Package archive keeps a history of serializability analyses in a SQLite database.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Run is one recorded analysis
type Run struct {
	ID       string
	System   string
	Kind     string
	Verdict  string
	Message  string
	Started  time.Time
	Duration time.Duration
}

type Archive struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// Open creates or opens the archive stored at path
func Open(path string) (*Archive, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection serializes writers
	db.SetMaxOpenConns(1)

	a := &Archive{db: db, path: path}
	if err := a.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return a, nil
}

func (a *Archive) Close() error {
	return a.db.Close()
}

func (a *Archive) Path() string {
	return a.path
}

func (a *Archive) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		system TEXT NOT NULL,
		kind TEXT NOT NULL,
		verdict TEXT NOT NULL,
		message TEXT,
		started_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_system ON runs(system);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`
	_, err := a.db.Exec(schema)
	return err
}

// Record stores r. A run without an ID is given a fresh one, which is returned.
func (a *Archive) Record(ctx context.Context, r Run) (string, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	_, err := a.db.ExecContext(ctx,
		`INSERT INTO runs (id, system, kind, verdict, message, started_at, duration_ms) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.System, r.Kind, r.Verdict, r.Message, r.Started.UnixMilli(), r.Duration.Milliseconds())
	if err != nil {
		return "", fmt.Errorf("failed to record run: %w", err)
	}
	return r.ID, nil
}

// Recent returns at most limit runs, newest first. An empty system matches every system.
func (a *Archive) Recent(ctx context.Context, system string, limit int) ([]Run, error) {
	query := `SELECT id, system, kind, verdict, message, started_at, duration_ms FROM runs`
	var args []any
	if system != "" {
		query += ` WHERE system = ?`
		args = append(args, system)
	}
	query += ` ORDER BY started_at DESC, id LIMIT ?`
	args = append(args, limit)

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r         Run
			message   sql.NullString
			started   int64
			durations int64
		)
		if err := rows.Scan(&r.ID, &r.System, &r.Kind, &r.Verdict, &message, &started, &durations); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.Message = message.String
		r.Started = time.UnixMilli(started)
		r.Duration = time.Duration(durations) * time.Millisecond
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
