// Package txstore persists transactions, recurring definitions, future
// schedules and attachment metadata in SQLite. The database is the single
// writer-side authority: uniqueness rules that close ingestion races live
// here as indexes, not in application checks.
package txstore

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"mlaurent/scanledger/internal/logging"
)

// Store wraps the SQLite database.
type Store struct {
	db  *sql.DB
	log logging.Logger
}

// Open creates or opens the database at path and migrates the schema.
// Use ":memory:" for tests. WAL keeps readers unblocked during batch
// ingestion writes.
func Open(path string, log logging.Logger) (*Store, error) {
	if log == nil {
		log = logging.GetLogger()
	}

	dsn := path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// modernc/sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY churn from concurrent batch workers.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, log: log}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS recurrences (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		type TEXT NOT NULL,
		category TEXT NOT NULL,
		subcategory TEXT NOT NULL DEFAULT '',
		amount TEXT NOT NULL,
		frequency TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT,
		status TEXT NOT NULL DEFAULT 'active',
		description TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL DEFAULT (datetime('now')),
		updated_at TEXT NOT NULL DEFAULT (datetime('now'))
	);

	CREATE TABLE IF NOT EXISTS transactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		type TEXT NOT NULL,
		date TEXT NOT NULL,
		category TEXT NOT NULL,
		subcategory TEXT NOT NULL DEFAULT '',
		amount TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL,
		recurrence_id INTEGER REFERENCES recurrences(id) ON DELETE SET NULL,
		external_id TEXT,
		account_iban TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL DEFAULT (datetime('now'))
	);

	-- Re-importing the same bank export must not duplicate rows.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_transactions_external_id
		ON transactions(external_id) WHERE external_id IS NOT NULL AND external_id != '';

	-- Two concurrent backfills of the same definition must not both insert
	-- the same occurrence.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_transactions_generated
		ON transactions(recurrence_id, date, category, subcategory)
		WHERE source = 'recurrence_generated';

	CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(date);
	CREATE INDEX IF NOT EXISTS idx_transactions_category ON transactions(category);

	CREATE TABLE IF NOT EXISTS schedules (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		recurrence_id INTEGER NOT NULL REFERENCES recurrences(id) ON DELETE CASCADE,
		date TEXT NOT NULL,
		amount TEXT NOT NULL,
		category TEXT NOT NULL,
		subcategory TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		UNIQUE(recurrence_id, date)
	);

	CREATE TABLE IF NOT EXISTS attachments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		transaction_id INTEGER NOT NULL REFERENCES transactions(id) ON DELETE CASCADE,
		file_name TEXT NOT NULL,
		stored_path TEXT NOT NULL,
		content_type TEXT NOT NULL DEFAULT '',
		size_bytes INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL DEFAULT (datetime('now'))
	);
	`
	_, err := s.db.Exec(schema)
	return err
}
