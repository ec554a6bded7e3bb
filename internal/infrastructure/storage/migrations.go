package storage

import (
	"database/sql"
	"fmt"
	"log"
)

// Migration represents a database schema migration
type Migration struct {
	Version int
	Name    string
	Up      func(*sql.Tx) error
}

// allMigrations defines all migrations in order
var allMigrations = []Migration{
	{
		Version: 1,
		Name:    "initial_schema",
		Up:      migration001InitialSchema,
	},
	{
		Version: 2,
		Name:    "add_category_tables",
		Up:      migration002AddCategoryTables,
	},
	{
		Version: 3,
		Name:    "add_system_row_index",
		Up:      migration003AddSystemRowIndex,
	},
}

// runMigrations executes all pending migrations
func (s *Storage) runMigrations() error {
	if err := s.ensureMigrationsTable(); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := s.getAppliedMigrations()
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	for _, migration := range allMigrations {
		if applied[migration.Version] {
			continue // Already applied
		}

		log.Printf("Running migration %d: %s", migration.Version, migration.Name)

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", migration.Version, err)
		}

		if err := migration.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", migration.Version, migration.Name, err)
		}

		_, err = tx.Exec(`
			INSERT INTO schema_migrations (version, name) VALUES (?, ?)
		`, migration.Version, migration.Name)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

// ensureMigrationsTable creates the schema_migrations table
func (s *Storage) ensureMigrationsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`

	_, err := s.db.Exec(query)
	return err
}

// getAppliedMigrations returns a set of applied migration versions
func (s *Storage) getAppliedMigrations() (map[int]bool, error) {
	applied := make(map[int]bool)

	rows, err := s.db.Query(`SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}

	return applied, rows.Err()
}

// migration001InitialSchema creates the run, line and result tables
func migration001InitialSchema(tx *sql.Tx) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL DEFAULT '',
			bank_name TEXT NOT NULL DEFAULT '',
			account_ref TEXT NOT NULL DEFAULT '',
			window_days INTEGER NOT NULL DEFAULT 0,
			cut_date TEXT,
			status TEXT NOT NULL DEFAULT 'OPEN',
			exclude_concepts TEXT NOT NULL DEFAULT '[]',
			created_by TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS extract_lines (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			date TEXT,
			concept TEXT NOT NULL DEFAULT '',
			amount TEXT NOT NULL,
			amount_key INTEGER NOT NULL,
			raw TEXT NOT NULL DEFAULT '{}',
			category_id TEXT NOT NULL DEFAULT '',
			excluded INTEGER NOT NULL DEFAULT 0,
			position INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS system_lines (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			issue_date TEXT,
			due_date TEXT,
			amount TEXT NOT NULL,
			amount_key INTEGER NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			raw TEXT NOT NULL DEFAULT '{}'
		)`,
		`CREATE TABLE IF NOT EXISTS matches (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			extract_line_id TEXT NOT NULL REFERENCES extract_lines(id) ON DELETE CASCADE,
			system_line_id TEXT NOT NULL REFERENCES system_lines(id) ON DELETE CASCADE,
			delta_days INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS unmatched_extract (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			extract_line_id TEXT NOT NULL REFERENCES extract_lines(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS unmatched_system (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			system_line_id TEXT NOT NULL UNIQUE REFERENCES system_lines(id) ON DELETE CASCADE,
			status TEXT NOT NULL DEFAULT 'DEFERRED'
		)`,
		`CREATE INDEX IF NOT EXISTS idx_extract_lines_run ON extract_lines(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_system_lines_run ON system_lines(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_matches_run ON matches(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_unmatched_extract_run ON unmatched_extract(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_unmatched_system_run ON unmatched_system(run_id)`,
	}

	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return err
		}
	}
	return nil
}

// migration002AddCategoryTables creates the category/rule store
func migration002AddCategoryTables(tx *sql.Tx) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS categories (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS rules (
			id TEXT PRIMARY KEY,
			category_id TEXT NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
			pattern TEXT NOT NULL,
			is_regex INTEGER NOT NULL DEFAULT 0,
			case_sensitive INTEGER NOT NULL DEFAULT 0,
			position INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_rules_category ON rules(category_id)`,
	}

	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return err
		}
	}
	return nil
}

// migration003AddSystemRowIndex adds the row-index column used to diff
// system data on re-upload
func migration003AddSystemRowIndex(tx *sql.Tx) error {
	_, err := tx.Exec(`ALTER TABLE system_lines ADD COLUMN row_index INTEGER NOT NULL DEFAULT 0`)
	return err
}
