package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const driverName = "sqlite"

func init() {
	sqlx.BindDriver(driverName, sqlx.QUESTION)
}

// DBPath returns the path to the single shared database
func DBPath() string {
	return filepath.Join("data", "weather-alert.db")
}

// Open opens (creating if needed) the database at dbPath and ensures the
// schema exists. The TUI and the checker daemon share this file, so writes
// are funnelled through one connection and SQLite waits on locks.
func Open(dbPath string) (*sqlx.DB, error) {
	if dbPath != ":memory:" {
		if dir := filepath.Dir(dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
	}

	db, err := sqlx.Open(driverName, dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting %q: %w", pragma, err)
		}
	}

	if err := EnsureSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// EnsureSchema creates the application tables if they do not exist.
// Timestamps are stored as epoch milliseconds, except the rate limit log
// which needs nanoseconds.
func EnsureSchema(db *sqlx.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS user_preferences (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			fires INTEGER NOT NULL DEFAULT 1,
			wind INTEGER NOT NULL DEFAULT 1,
			winter INTEGER NOT NULL DEFAULT 1,
			thunderstorms INTEGER NOT NULL DEFAULT 1,
			floods INTEGER NOT NULL DEFAULT 1,
			temperature INTEGER NOT NULL DEFAULT 1,
			tropical INTEGER NOT NULL DEFAULT 1,
			marine INTEGER NOT NULL DEFAULT 1,
			fog INTEGER NOT NULL DEFAULT 1,
			tornado INTEGER NOT NULL DEFAULT 1,
			notifications_enabled INTEGER NOT NULL DEFAULT 1,
			theme_mode TEXT NOT NULL DEFAULT 'SYSTEM'
		);

		CREATE TABLE IF NOT EXISTS saved_locations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			formatted_location TEXT NOT NULL,
			latitude REAL NOT NULL,
			longitude REAL NOT NULL,
			city_name TEXT NOT NULL DEFAULT '',
			country TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_saved_locations_formatted ON saved_locations(formatted_location);

		CREATE TABLE IF NOT EXISTS alert_history (
			key TEXT PRIMARY KEY,
			recorded_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS notification_history (
			key TEXT PRIMARY KEY,
			recorded_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS rate_limit_requests (
			requested_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_rate_limit_requests_at ON rate_limit_requests(requested_at);

		CREATE TABLE IF NOT EXISTS app_state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	return nil
}
