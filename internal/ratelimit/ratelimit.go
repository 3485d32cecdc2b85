// Package ratelimit enforces the weather API quota on the client side:
// 3 requests per second, 25 per hour and 500 per day.
package ratelimit

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

const (
	RequestsPerSecond = 3
	RequestsPerHour   = 25
	RequestsPerDay    = 500

	// MinInterval is the minimum spacing between two requests
	MinInterval = time.Second / RequestsPerSecond

	// RetryDelay is how long callers wait after a per-second rejection
	RetryDelay = time.Second

	// window is the longest period a limit looks back over
	window = 24 * time.Hour
)

// Status is the outcome of a rate limit check
type Status int

const (
	Allowed Status = iota
	ExceededPerSecond
	ExceededPerHour
	ExceededPerDay
)

func (s Status) String() string {
	switch s {
	case Allowed:
		return "allowed"
	case ExceededPerSecond:
		return "per_second"
	case ExceededPerHour:
		return "per_hour"
	case ExceededPerDay:
		return "per_day"
	default:
		return "unknown"
	}
}

// Message is the user-facing text for a rejection that is not retried
// automatically. Allowed and ExceededPerSecond have no message.
func (s Status) Message() string {
	switch s {
	case ExceededPerHour:
		return "Hourly API limit reached. Please try again later."
	case ExceededPerDay:
		return "Daily API limit reached. Please try again tomorrow."
	default:
		return ""
	}
}

// Limiter classifies requests against the quota recorded in its Store.
// Limiters sharing a Store share one quota. All methods are safe for
// concurrent use.
type Limiter struct {
	mu    sync.Mutex
	clock clockwork.Clock
	store Store
}

// New creates a limiter with a process-local store using the given clock,
// or the real clock if nil
func New(clock clockwork.Clock) *Limiter {
	return NewWithStore(NewMemoryStore(), clock)
}

// NewWithStore creates a limiter over store
func NewWithStore(store Store, clock clockwork.Clock) *Limiter {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Limiter{clock: clock, store: store}
}

// Check prunes stale timestamps and classifies the next request. Limits are
// evaluated per second, then per hour, then per day.
func (l *Limiter) Check() (Status, error) {
	return l.reserve(false)
}

// Record notes that a request was made now
func (l *Limiter) Record() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	_, err := l.store.Reserve(now.Add(-window), now, func([]time.Time) bool { return true })
	return err
}

// Acquire checks and, when allowed, records in one step so concurrent
// callers cannot both pass a check for the last slot
func (l *Limiter) Acquire() (Status, error) {
	return l.reserve(true)
}

// Wait acquires a slot, sleeping RetryDelay after each per-second rejection.
// It gives up after maxRetries retries and returns the last status. Hour and
// day rejections are returned immediately.
func (l *Limiter) Wait(ctx context.Context, maxRetries int) (Status, error) {
	for attempt := 0; ; attempt++ {
		status, err := l.Acquire()
		if err != nil {
			return status, err
		}
		if status != ExceededPerSecond || attempt >= maxRetries {
			return status, nil
		}
		select {
		case <-ctx.Done():
			return status, ctx.Err()
		case <-l.clock.After(RetryDelay):
		}
	}
}

// Usage reports the number of requests in the current hour and day windows
func (l *Limiter) Usage() (hour, day int, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	_, err = l.store.Reserve(now.Add(-window), now, func(recent []time.Time) bool {
		hour, day = countSince(recent, now.Add(-time.Hour)), len(recent)
		return false
	})
	return hour, day, err
}

func (l *Limiter) reserve(record bool) (Status, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	status := Allowed
	_, err := l.store.Reserve(now.Add(-window), now, func(recent []time.Time) bool {
		status = classify(now, recent)
		return record && status == Allowed
	})
	if err != nil {
		return Allowed, fmt.Errorf("reading rate limit log: %w", err)
	}
	return status, nil
}

// classify applies the limits to recent, the requests of the last day in
// ascending order
func classify(now time.Time, recent []time.Time) Status {
	switch {
	case len(recent) > 0 && now.Sub(recent[len(recent)-1]) < MinInterval:
		return ExceededPerSecond
	case countSince(recent, now.Add(-time.Hour)) >= RequestsPerHour:
		return ExceededPerHour
	case len(recent) >= RequestsPerDay:
		return ExceededPerDay
	default:
		return Allowed
	}
}

// countSince counts timestamps at or after cutoff. ts is sorted ascending.
func countSince(ts []time.Time, cutoff time.Time) int {
	i := sort.Search(len(ts), func(i int) bool { return !ts[i].Before(cutoff) })
	return len(ts) - i
}
