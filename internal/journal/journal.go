package journal

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultPath is the default journal location
const DefaultPath = "/var/lib/nodeboot/journal.db"

// Journal is the persistent record of provisioning runs. Flashing
// wipes disks; the journal answers "what did this tool do to that
// device, and how far did it get" after the fact.
type Journal struct {
	conn *sql.DB
	path string
}

// Open opens or creates the journal database at the given path
func Open(path string) (*Journal, error) {
	if path == "" {
		path = DefaultPath
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	// Enable foreign keys and WAL mode for better concurrency
	if _, err := conn.Exec("PRAGMA foreign_keys = ON; PRAGMA journal_mode = WAL;"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to configure journal: %w", err)
	}

	j := &Journal{conn: conn, path: path}

	if err := j.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return j, nil
}

// Close closes the database connection
func (j *Journal) Close() error {
	return j.conn.Close()
}

// Path returns the journal file path
func (j *Journal) Path() string {
	return j.path
}

// migrate runs the database schema migrations
func (j *Journal) migrate() error {
	// Create schema version table
	_, err := j.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return err
	}

	// Get current version
	var version int
	err = j.conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	if err != nil {
		return err
	}

	// Run migrations
	migrations := []string{
		migrationV1,
	}

	for i, migration := range migrations {
		v := i + 1
		if v <= version {
			continue
		}

		tx, err := j.conn.Begin()
		if err != nil {
			return err
		}

		if _, err := tx.Exec(migration); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration v%d failed: %w", v, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", v); err != nil {
			tx.Rollback()
			return err
		}

		if err := tx.Commit(); err != nil {
			return err
		}
	}

	return nil
}

// migrationV1 creates the initial schema
const migrationV1 = `
-- Provisioning runs: one row per flash attempt
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    device TEXT NOT NULL,
    image TEXT,
    system_size_gb INTEGER,
    status TEXT NOT NULL DEFAULT 'running',
    error TEXT,
    started_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    finished_at TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_runs_device ON runs(device);
CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

-- Step-by-step trail of each run
CREATE TABLE IF NOT EXISTS run_steps (
    id INTEGER PRIMARY KEY,
    run_id TEXT NOT NULL REFERENCES runs(id),
    step TEXT NOT NULL,
    status TEXT NOT NULL,
    detail TEXT,
    timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_steps_run ON run_steps(run_id);
`

// Run represents one provisioning run
type Run struct {
	ID           string
	Device       string
	Image        string
	SystemSizeGB int64
	Status       string
	Error        string
	StartedAt    time.Time
	FinishedAt   *time.Time
}

// Step represents one recorded event within a run
type Step struct {
	ID        int64
	RunID     string
	Name      string
	Status    string
	Detail    string
	Timestamp time.Time
}

// Run statuses
const (
	StatusRunning = "running"
	StatusDone    = "done"
	StatusFailed  = "failed"
	StatusAborted = "aborted"
)

// Step statuses
const (
	StepOK      = "ok"
	StepFailed  = "failed"
	StepIgnored = "ignored"
)
