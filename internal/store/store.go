// Package store provides SQLite-backed persistence for Analysis
// records across five relations: analyses, findings, stage_logs,
// linguistic_details, and feedback. It is built on the pure-Go
// modernc.org/sqlite driver, which keeps the module buildable without
// cgo.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/intentguard/intentguard/internal/logging"
)

// Store is the persistence layer for Analysis records. The
// orchestrator already enforces single-writer-per-id discipline, but
// Store still guards its own multi-statement writes (an Analysis plus
// its findings, stage logs, and linguistic details) so a save is
// atomic from a reader's view.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open creates (if needed) and opens the SQLite database at path,
// ensuring the schema and running any pending migrations.
func Open(path string) (*Store, error) {
	timer := logging.StartTimer(logging.CategoryStore, "Open")
	defer timer.Stop()

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("store: create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	// modernc's driver serializes internally but a single connection
	// keeps write ordering simple.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, err
	}
	logging.Infof(logging.CategoryStore, "opened store at %s", path)
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS analyses (
	id TEXT PRIMARY KEY,
	prompt TEXT NOT NULL,
	code TEXT NOT NULL,
	language TEXT NOT NULL,
	overall_severity INTEGER NOT NULL DEFAULT 0,
	has_bugs INTEGER NOT NULL DEFAULT 0,
	summary TEXT NOT NULL DEFAULT '',
	confidence REAL NOT NULL DEFAULT 0,
	status TEXT NOT NULL DEFAULT 'processing',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS findings (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	analysis_id TEXT NOT NULL REFERENCES analyses(id) ON DELETE CASCADE,
	pattern TEXT NOT NULL,
	severity INTEGER NOT NULL,
	confidence REAL NOT NULL,
	description TEXT NOT NULL,
	location TEXT,
	fix_hint TEXT,
	detection_stage TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_findings_analysis ON findings(analysis_id);

CREATE TABLE IF NOT EXISTS stage_logs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	analysis_id TEXT NOT NULL REFERENCES analyses(id) ON DELETE CASCADE,
	stage_name TEXT NOT NULL,
	success INTEGER NOT NULL,
	error TEXT,
	elapsed_s REAL NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_stage_logs_analysis ON stage_logs(analysis_id);

CREATE TABLE IF NOT EXISTS linguistic_details (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	analysis_id TEXT NOT NULL UNIQUE REFERENCES analyses(id) ON DELETE CASCADE,
	intent_match_score REAL NOT NULL DEFAULT 0,
	unprompted_features TEXT NOT NULL DEFAULT '[]',
	missing_features TEXT NOT NULL DEFAULT '[]',
	hardcoded_values TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS feedback (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	analysis_id TEXT NOT NULL REFERENCES analyses(id) ON DELETE CASCADE,
	rating INTEGER NOT NULL,
	comment TEXT,
	helpful INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_feedback_analysis ON feedback(analysis_id);
`

func (s *Store) initSchema() error {
	if _, err := s.db.Exec(schemaDDL); err != nil {
		return fmt.Errorf("store: init schema: %w", err)
	}
	return nil
}
