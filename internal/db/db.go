// Package db is the SQLite suggestion index: a best-effort cache over the
// capture files that powers autocomplete and recency lookups. Losing it is
// harmless; it can be rebuilt from the vault at any time.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 1

// Open opens (and creates, if needed) the suggestion index at path.
func Open(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// Pragmas in the connection string apply to every pooled connection.
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := verifyWALMode(db); err != nil {
		db.Close()
		return nil, err
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// migrate applies schema migrations based on user_version.
func migrate(db *sql.DB) error {
	version, err := GetUserVersion(db)
	if err != nil {
		return err
	}

	// Migration 0 -> 1: Initial schema (v1)
	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS captures (
		  id               INTEGER PRIMARY KEY AUTOINCREMENT,
		  capture_id       TEXT NOT NULL UNIQUE,
		  timestamp        TEXT NOT NULL,
		  content          TEXT,
		  context          TEXT,
		  modalities       TEXT,
		  location         TEXT,
		  metadata         TEXT,
		  created_date     TEXT,
		  last_edited_date TEXT,
		  file_path        TEXT
		);

		CREATE TABLE IF NOT EXISTS tags (
		  id         INTEGER PRIMARY KEY AUTOINCREMENT,
		  value      TEXT NOT NULL,
		  capture_id TEXT NOT NULL,
		  timestamp  TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS sources (
		  id         INTEGER PRIMARY KEY AUTOINCREMENT,
		  value      TEXT NOT NULL,
		  capture_id TEXT NOT NULL,
		  timestamp  TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS contexts (
		  id         INTEGER PRIMARY KEY AUTOINCREMENT,
		  value      TEXT NOT NULL,
		  capture_id TEXT NOT NULL,
		  timestamp  TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS media_files (
		  id         INTEGER PRIMARY KEY AUTOINCREMENT,
		  capture_id TEXT NOT NULL,
		  path       TEXT NOT NULL,
		  type       TEXT NOT NULL,
		  name       TEXT,
		  timestamp  TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_captures_timestamp
		ON captures(timestamp DESC);

		CREATE INDEX IF NOT EXISTS idx_tags_value ON tags(value);
		CREATE INDEX IF NOT EXISTS idx_tags_capture ON tags(capture_id);

		CREATE INDEX IF NOT EXISTS idx_sources_value ON sources(value);
		CREATE INDEX IF NOT EXISTS idx_sources_capture ON sources(capture_id);

		CREATE INDEX IF NOT EXISTS idx_contexts_value ON contexts(value);
		CREATE INDEX IF NOT EXISTS idx_contexts_capture ON contexts(capture_id);

		CREATE INDEX IF NOT EXISTS idx_media_files_capture ON media_files(capture_id);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if err := SetUserVersion(db, 1); err != nil {
			return err
		}
	}

	// Future migrations go here:
	// if version < 2 { ... }

	return nil
}

// verifyWALMode checks that WAL mode is active (set via connection string).
func verifyWALMode(db *sql.DB) error {
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if journalMode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", journalMode)
	}
	return nil
}

// GetUserVersion returns the current schema version (user_version pragma).
func GetUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

// SetUserVersion sets the schema version (user_version pragma).
func SetUserVersion(db *sql.DB, version int) error {
	_, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version))
	if err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}
