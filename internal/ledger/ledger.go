// Package ledger records research run history in SQLite
// (~/.local/share/deepscout/history.db by default). Runs are append-only;
// the ledger exists so `deepscout history` can show what was researched,
// when, and at what token cost.
package ledger

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// RunStatus represents the outcome of a research run.
type RunStatus string

const (
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// Run is one recorded research run.
type Run struct {
	ID           string
	Query        string
	Status       RunStatus
	SubtaskCount int
	SourceCount  int
	ReportPath   string
	InputTokens  int
	OutputTokens int
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Ledger wraps an SQLite database holding run history.
type Ledger struct {
	conn *sql.DB
	path string
	mu   sync.Mutex
}

// DefaultPath returns the path to the history database.
func DefaultPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, _ := os.UserHomeDir()
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "deepscout", "history.db")
}

// Open opens the ledger at the given path, creating parent directories and
// the schema as needed. WAL mode is enabled for concurrent reads.
func Open(path string) (*Ledger, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create ledger directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open ledger database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := conn.Exec(schemaRuns); err != nil {
		conn.Close()
		return nil, fmt.Errorf("create runs table: %w", err)
	}

	return &Ledger{conn: conn, path: path}, nil
}

const schemaRuns = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	query TEXT NOT NULL,
	status TEXT NOT NULL,
	subtask_count INTEGER NOT NULL DEFAULT 0,
	source_count INTEGER NOT NULL DEFAULT 0,
	report_path TEXT,
	input_tokens INTEGER NOT NULL DEFAULT 0,
	output_tokens INTEGER NOT NULL DEFAULT 0,
	started_at DATETIME NOT NULL,
	finished_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

// Close closes the database connection.
func (l *Ledger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.conn.Close()
}

// Path returns the path to the database file.
func (l *Ledger) Path() string {
	return l.path
}

// Record appends a run to the ledger.
func (l *Ledger) Record(run Run) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, err := l.conn.Exec(`
		INSERT INTO runs (id, query, status, subtask_count, source_count,
			report_path, input_tokens, output_tokens, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Query, string(run.Status), run.SubtaskCount, run.SourceCount,
		run.ReportPath, run.InputTokens, run.OutputTokens,
		formatTime(run.StartedAt), formatTime(run.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", run.ID, err)
	}
	return nil
}

// List returns the most recent runs, newest first. limit <= 0 means all.
func (l *Ledger) List(limit int) ([]Run, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	query := `
		SELECT id, query, status, subtask_count, source_count,
			report_path, input_tokens, output_tokens, started_at, finished_at
		FROM runs ORDER BY started_at DESC`
	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = l.conn.Query(query+" LIMIT ?", limit)
	} else {
		rows, err = l.conn.Query(query)
	}
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var status, startedAt, finishedAt string
		var reportPath sql.NullString
		if err := rows.Scan(&run.ID, &run.Query, &status, &run.SubtaskCount,
			&run.SourceCount, &reportPath, &run.InputTokens, &run.OutputTokens,
			&startedAt, &finishedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Status = RunStatus(status)
		run.ReportPath = reportPath.String
		run.StartedAt, _ = parseTime(startedAt)
		run.FinishedAt, _ = parseTime(finishedAt)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// formatTime formats a time.Time for SQLite storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// parseTime parses a time string from SQLite.
func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
