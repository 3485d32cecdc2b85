// Package history remembers which alerts have been seen and notified so
// periodic checks do not repeat themselves
package history

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"
)

const (
	// AlertRetention is how long a seen-alert key suppresses repeats
	AlertRetention = 6 * time.Hour

	// NotificationCooldown is the minimum gap between two notifications
	// for the same key
	NotificationCooldown = time.Hour
)

// Table names accepted by NewStore
const (
	AlertTable        = "alert_history"
	NotificationTable = "notification_history"
)

// Store maps keys to the time they were last recorded
type Store struct {
	db    *sqlx.DB
	table string
	clock clockwork.Clock
}

// NewStore creates a store over one of the history tables
func NewStore(db *sqlx.DB, table string, clock clockwork.Clock) (*Store, error) {
	if table != AlertTable && table != NotificationTable {
		return nil, fmt.Errorf("unknown history table %q", table)
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Store{db: db, table: table, clock: clock}, nil
}

// Contains reports whether key has been recorded
func (s *Store) Contains(key string) (bool, error) {
	_, ok, err := s.LastSeen(key)
	return ok, err
}

// LastSeen returns when key was last recorded
func (s *Store) LastSeen(key string) (time.Time, bool, error) {
	var millis int64
	err := s.db.Get(&millis, "SELECT recorded_at FROM "+s.table+" WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("querying %s: %w", s.table, err)
	}
	return time.UnixMilli(millis), true, nil
}

// Record stamps key with the current time
func (s *Store) Record(key string) error {
	_, err := s.db.Exec(`
		INSERT INTO `+s.table+` (key, recorded_at) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET recorded_at = excluded.recorded_at
	`, key, s.clock.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("recording %s: %w", s.table, err)
	}
	return nil
}

// RecordIfAbsent stamps key only if it was never recorded. It reports
// whether the key was new.
func (s *Store) RecordIfAbsent(key string) (bool, error) {
	res, err := s.db.Exec(`
		INSERT INTO `+s.table+` (key, recorded_at) VALUES (?, ?)
		ON CONFLICT(key) DO NOTHING
	`, key, s.clock.Now().UnixMilli())
	if err != nil {
		return false, fmt.Errorf("recording %s: %w", s.table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking %s insert: %w", s.table, err)
	}
	return n == 1, nil
}

// WithinCooldown reports whether key was recorded less than d ago
func (s *Store) WithinCooldown(key string, d time.Duration) (bool, error) {
	last, ok, err := s.LastSeen(key)
	if err != nil || !ok {
		return false, err
	}
	return s.clock.Since(last) < d, nil
}

// PurgeOlderThan deletes entries recorded more than age ago and returns
// how many were removed
func (s *Store) PurgeOlderThan(age time.Duration) (int64, error) {
	cutoff := s.clock.Now().Add(-age).UnixMilli()
	res, err := s.db.Exec("DELETE FROM "+s.table+" WHERE recorded_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("purging %s: %w", s.table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting purged %s rows: %w", s.table, err)
	}
	return n, nil
}

// Count returns the number of stored keys
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.Get(&n, "SELECT COUNT(*) FROM "+s.table); err != nil {
		return 0, fmt.Errorf("counting %s: %w", s.table, err)
	}
	return n, nil
}
