// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Creates the schema on open and applies numbered migrations via user_version

package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	_ "modernc.org/sqlite"
)

// schemaVersion is the user_version the migrations bring a database to.
const schemaVersion = 3

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	// foreign_keys is per connection, so it goes in the DSN for every pooled one.
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := NewSQLiteStoreFromDB(db)
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	s.logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// NewSQLiteStoreFromDB wraps an already open database without touching its
// schema.
func NewSQLiteStoreFromDB(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{
		db:     db,
		logger: slog.Default().With("component", "store"),
	}
}

// migrations[i] upgrades a database from user_version i to i+1.
var migrations = []string{
	// 0 -> 1: saved addresses
	`CREATE TABLE IF NOT EXISTS communal_addresses (
		id            TEXT PRIMARY KEY NOT NULL,
		address_line  TEXT NOT NULL,
		locality      TEXT NOT NULL,
		postal_code   TEXT NOT NULL,
		country       TEXT NOT NULL,
		last_modified INTEGER NOT NULL
	);`,

	// 1 -> 2: jobs/skills and hashtags
	`CREATE TABLE IF NOT EXISTS jobs_skills (
		id            TEXT PRIMARY KEY NOT NULL,
		title         TEXT NOT NULL,
		type          TEXT NOT NULL,
		description   TEXT NOT NULL,
		created_at    INTEGER NOT NULL,
		last_modified INTEGER NOT NULL,

		CHECK (type IN ('JOB', 'SKILL'))
	);

	CREATE INDEX IF NOT EXISTS idx_jobs_skills_type ON jobs_skills(type, title);

	CREATE TABLE IF NOT EXISTS hashtags (
		id          TEXT PRIMARY KEY NOT NULL,
		tag         TEXT NOT NULL,
		usage_count INTEGER NOT NULL DEFAULT 0,
		created_at  INTEGER NOT NULL,
		last_used   INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_hashtags_trending ON hashtags(usage_count DESC, last_used DESC);`,

	// 2 -> 3: conversation journal
	`CREATE TABLE IF NOT EXISTS conversations (
		id               TEXT PRIMARY KEY NOT NULL,
		name             TEXT NOT NULL,
		is_ai            INTEGER NOT NULL DEFAULT 0,
		last_message     TEXT NOT NULL DEFAULT '',
		last_activity    INTEGER NOT NULL,
		unread_count     INTEGER NOT NULL DEFAULT 0,
		currently_viewed INTEGER NOT NULL DEFAULT 0,
		created_at       INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS messages (
		id              TEXT PRIMARY KEY NOT NULL,
		conversation_id TEXT NOT NULL,
		seq             INTEGER NOT NULL,
		content         TEXT NOT NULL,
		outgoing        INTEGER NOT NULL,
		status          TEXT NOT NULL,
		created_at      INTEGER NOT NULL,
		FOREIGN KEY (conversation_id) REFERENCES conversations(id) ON DELETE CASCADE,

		CHECK (status IN ('sending', 'sent', 'delivered', 'read', 'failed'))
	);

	CREATE INDEX IF NOT EXISTS idx_messages_conversation_seq ON messages(conversation_id, seq);`,
}

// runMigrations applies every migration past the stored user_version, each
// in its own transaction.
func (s *SQLiteStore) runMigrations() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	if version > len(migrations) {
		return fmt.Errorf("database schema version %d is newer than supported %d", version, len(migrations))
	}

	for v := version; v < len(migrations); v++ {
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("starting migration %d: %w", v+1, err)
		}
		if _, err := tx.Exec(migrations[v]); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", v+1, err)
		}
		// PRAGMA does not accept bound parameters.
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", v+1)); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", v+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", v+1, err)
		}
		s.logger.Info("applied migration", "version", v+1)
	}
	return nil
}

// SchemaVersion reports the database's user_version.
func (s *SQLiteStore) SchemaVersion() (int, error) {
	var version int
	err := s.db.QueryRow("PRAGMA user_version").Scan(&version)
	return version, err
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.logger.Info("closing SQLite store")
	return s.db.Close()
}

// Timestamps are stored as Unix milliseconds.
func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
