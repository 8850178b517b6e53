// Package storage opens the SQLite database shared by the reminder store and
// the alert registrar.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// TimeLayout is the text form of instants stored in the database. Values are
// always written in UTC so they compare correctly as strings.
const TimeLayout = "2006-01-02T15:04:05Z07:00"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS reminders (
		id             TEXT    PRIMARY KEY,
		plant_id       TEXT    NOT NULL,
		plant_name     TEXT    NOT NULL DEFAULT '',
		type           TEXT    NOT NULL,
		frequency      TEXT    NOT NULL,
		start_date     TEXT    NOT NULL,
		preferred_day  TEXT    NOT NULL DEFAULT '',
		preferred_time TEXT    NOT NULL DEFAULT '',
		next_due       TEXT    NOT NULL,
		last_completed TEXT,
		enabled        INTEGER NOT NULL DEFAULT 1,
		alert_handle   TEXT    NOT NULL DEFAULT '',
		created_at     TEXT    NOT NULL,
		updated_at     TEXT    NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reminders_next_due ON reminders (next_due)`,
	`CREATE TABLE IF NOT EXISTS alerts (
		handle      TEXT PRIMARY KEY,
		reminder_id TEXT NOT NULL,
		trigger_json TEXT NOT NULL,
		title       TEXT NOT NULL,
		body        TEXT NOT NULL,
		payload     TEXT NOT NULL DEFAULT '{}',
		fire_at     TEXT NOT NULL,
		created_at  TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_alerts_fire_at ON alerts (fire_at)`,
}

// Open opens (or creates) the SQLite database at dbPath and ensures the
// schema exists.
func Open(dbPath string) (*sql.DB, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps read-modify-write sequences inside a process
	// serialized; other processes are handled by WAL and busy_timeout.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func migrate(db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}
