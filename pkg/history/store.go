// Package history persists finalized execution reports to a local SQLite
// database so past runs can be inspected from the CLI.
package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/opsforge/orchestra/pkg/orchestration"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id        TEXT PRIMARY KEY,
	operation_id  TEXT NOT NULL,
	mode          TEXT NOT NULL,
	success       INTEGER NOT NULL,
	executed      INTEGER NOT NULL,
	failed        INTEGER NOT NULL,
	skipped       INTEGER NOT NULL,
	duration_secs REAL NOT NULL,
	finished_at   TIMESTAMP NOT NULL,
	report        TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_operation ON runs(operation_id, finished_at);
`

// Entry is one row of the run history listing.
type Entry struct {
	RunID       string
	OperationID string
	Mode        orchestration.ExecutionMode
	Success     bool
	Executed    int
	Failed      int
	Skipped     int
	Duration    float64
	FinishedAt  time.Time
}

// Store wraps the SQLite database holding run history.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save persists one finalized report. Saving the same run id twice replaces
// the earlier row.
func (s *Store) Save(report *orchestration.ExecutionReport) error {
	raw, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT OR REPLACE INTO runs
			(run_id, operation_id, mode, success, executed, failed, skipped, duration_secs, finished_at, report)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.RunID,
		report.OperationID,
		string(report.Mode),
		report.Success,
		len(report.ModulesExecuted),
		len(report.ModulesFailed),
		len(report.ModulesSkipped),
		report.TotalDurationSeconds,
		report.Timestamp,
		string(raw),
	)
	if err != nil {
		return fmt.Errorf("saving run %s: %w", report.RunID, err)
	}
	return nil
}

// List returns the most recent runs, newest first. A limit of zero or less
// returns everything.
func (s *Store) List(limit int) ([]Entry, error) {
	query := `
		SELECT run_id, operation_id, mode, success, executed, failed, skipped, duration_secs, finished_at
		FROM runs ORDER BY finished_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var mode string
		if err := rows.Scan(&e.RunID, &e.OperationID, &mode, &e.Success,
			&e.Executed, &e.Failed, &e.Skipped, &e.Duration, &e.FinishedAt); err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		e.Mode = orchestration.ExecutionMode(mode)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Get loads the full report for one run id.
func (s *Store) Get(runID string) (*orchestration.ExecutionReport, error) {
	var raw string
	err := s.db.QueryRow(`SELECT report FROM runs WHERE run_id = ?`, runID).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("loading run %s: %w", runID, err)
	}

	var report orchestration.ExecutionReport
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		return nil, fmt.Errorf("decoding run %s: %w", runID, err)
	}
	return &report, nil
}
