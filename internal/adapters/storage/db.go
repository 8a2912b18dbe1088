package storage

import (
	"database/sql"
	"fmt"
)

// InitDB initializes the database schema.
// PRE: db is a valid database connection
// POST: All tables are created, WAL mode enabled
func InitDB(db *sql.DB) error {
	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Sheet-shaped tables keep positional rows with JSON-encoded cells so
	// unknown columns round-trip untouched. Row 0 is the header row.
	schema := `
	CREATE TABLE IF NOT EXISTS account (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL,
		created_at TEXT NOT NULL,
		failed_logins INTEGER NOT NULL DEFAULT 0,
		locked_until TEXT,
		password_change_required INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS expiration_rows (
		row_idx INTEGER PRIMARY KEY,
		key TEXT NOT NULL DEFAULT '',
		cells TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS note_rows (
		row_idx INTEGER PRIMARY KEY,
		key TEXT NOT NULL DEFAULT '',
		cells TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_expiration_rows_key ON expiration_rows(key);
	CREATE INDEX IF NOT EXISTS idx_note_rows_key ON note_rows(key);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}
