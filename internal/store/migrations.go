package store

import (
	"database/sql"
	"fmt"

	"github.com/intentguard/intentguard/internal/logging"
)

// CurrentSchemaVersion tracks the shape of the five relations. Bump it
// and add a migration whenever a column is added to an existing
// table; new tables only need initSchema's CREATE TABLE IF NOT EXISTS.
const CurrentSchemaVersion = 1

// runMigrations records the schema version on a fresh database and is
// the hook future column-adding migrations attach to.
func (s *Store) runMigrations() error {
	timer := logging.StartTimer(logging.CategoryStore, "runMigrations")
	defer timer.Stop()

	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_versions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		version INTEGER NOT NULL,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("store: create schema_versions: %w", err)
	}

	current := s.schemaVersion()
	if current >= CurrentSchemaVersion {
		return nil
	}

	if _, err := s.db.Exec("INSERT INTO schema_versions (version) VALUES (?)", CurrentSchemaVersion); err != nil {
		return fmt.Errorf("store: record schema version: %w", err)
	}
	logging.Infof(logging.CategoryStore, "schema migrated %d -> %d", current, CurrentSchemaVersion)
	return nil
}

func (s *Store) schemaVersion() int {
	var version int
	row := s.db.QueryRow("SELECT version FROM schema_versions ORDER BY applied_at DESC LIMIT 1")
	if err := row.Scan(&version); err != nil {
		if err != sql.ErrNoRows {
			logging.Errorf(logging.CategoryStore, "schema version query failed: %v", err)
		}
		return 0
	}
	return version
}
