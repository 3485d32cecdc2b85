package ratelimit

import (
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store holds the request log. Reserve drops entries older than since,
// passes the remaining ones (oldest first) to allow and appends at when
// allow returns true. The exchange must be atomic with respect to every
// other limiter sharing the store.
type Store interface {
	Reserve(since, at time.Time, allow func(recent []time.Time) bool) (bool, error)
}

// MemoryStore keeps the log in process memory
type MemoryStore struct {
	mu       sync.Mutex
	requests []time.Time
}

// NewMemoryStore creates an empty in-memory log
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Reserve implements Store
func (s *MemoryStore) Reserve(since, at time.Time, allow func([]time.Time) bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := 0
	for i < len(s.requests) && s.requests[i].Before(since) {
		i++
	}
	s.requests = append(s.requests[:0], s.requests[i:]...)

	if !allow(s.requests) {
		return false, nil
	}
	s.requests = append(s.requests, at)
	return true, nil
}

// SQLStore keeps the log in the shared database so the TUI and the daemon
// draw on the same API quota
type SQLStore struct {
	db *sqlx.DB
}

// NewSQLStore creates a store over the rate_limit_requests table
func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Reserve implements Store
func (s *SQLStore) Reserve(since, at time.Time, allow func([]time.Time) bool) (bool, error) {
	tx, err := s.db.Beginx()
	if err != nil {
		return false, fmt.Errorf("starting rate limit transaction: %w", err)
	}
	defer tx.Rollback()

	// writing first takes SQLite's write lock, so no other limiter can read
	// the log until this transaction ends
	if _, err := tx.Exec(`DELETE FROM rate_limit_requests WHERE requested_at < ?`, since.UnixNano()); err != nil {
		return false, fmt.Errorf("pruning rate limit log: %w", err)
	}

	var raw []int64
	if err := tx.Select(&raw, `SELECT requested_at FROM rate_limit_requests ORDER BY requested_at`); err != nil {
		return false, fmt.Errorf("reading rate limit log: %w", err)
	}
	recent := make([]time.Time, len(raw))
	for i, n := range raw {
		recent[i] = time.Unix(0, n)
	}

	ok := allow(recent)
	if ok {
		if _, err := tx.Exec(`INSERT INTO rate_limit_requests (requested_at) VALUES (?)`, at.UnixNano()); err != nil {
			return false, fmt.Errorf("recording request: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing rate limit log: %w", err)
	}
	return ok, nil
}
