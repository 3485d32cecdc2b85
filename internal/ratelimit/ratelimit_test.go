package ratelimit

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ngmaloney/weather-alert/internal/database"
)

func newTestLimiter() (*Limiter, *clockwork.FakeClock) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	return New(clock), clock
}

func check(t *testing.T, l *Limiter) Status {
	t.Helper()
	status, err := l.Check()
	require.NoError(t, err)
	return status
}

func acquire(t *testing.T, l *Limiter) Status {
	t.Helper()
	status, err := l.Acquire()
	require.NoError(t, err)
	return status
}

func TestCheck_FirstRequestAllowed(t *testing.T) {
	l, _ := newTestLimiter()
	assert.Equal(t, Allowed, check(t, l))
}

func TestCheck_PerSecond(t *testing.T) {
	l, clock := newTestLimiter()
	require.NoError(t, l.Record())

	clock.Advance(100 * time.Millisecond)
	assert.Equal(t, ExceededPerSecond, check(t, l))

	clock.Advance(MinInterval)
	assert.Equal(t, Allowed, check(t, l))
}

func TestCheck_FourWithinOneSecond(t *testing.T) {
	t.Run("250ms apart", func(t *testing.T) {
		l, clock := newTestLimiter()
		var got []Status
		for i := 0; i < 4; i++ {
			got = append(got, acquire(t, l))
			clock.Advance(250 * time.Millisecond)
		}
		assert.Equal(t, []Status{Allowed, ExceededPerSecond, Allowed, ExceededPerSecond}, got)
	})

	t.Run("three at the limit then a fourth", func(t *testing.T) {
		l, clock := newTestLimiter()
		for i := 0; i < RequestsPerSecond; i++ {
			if i > 0 {
				clock.Advance(MinInterval)
			}
			require.Equal(t, Allowed, acquire(t, l), "request %d", i)
		}
		// the fourth lands inside the first second
		clock.Advance(100 * time.Millisecond)
		assert.Equal(t, ExceededPerSecond, acquire(t, l))
	})
}

func TestCheck_HourlyLimit(t *testing.T) {
	l, clock := newTestLimiter()
	for i := 0; i < RequestsPerHour; i++ {
		require.Equal(t, Allowed, acquire(t, l), "request %d", i)
		clock.Advance(time.Second)
	}

	assert.Equal(t, ExceededPerHour, check(t, l))

	// the first request leaves the window after an hour
	clock.Advance(time.Hour - time.Duration(RequestsPerHour)*time.Second + time.Nanosecond)
	assert.Equal(t, Allowed, check(t, l))
}

func TestCheck_DailyLimit(t *testing.T) {
	l, clock := newTestLimiter()
	// spread requests so the hourly window never fills but all land within a day
	for i := 0; i < RequestsPerDay; i++ {
		require.Equal(t, Allowed, acquire(t, l), "request %d", i)
		clock.Advance(170 * time.Second)
	}

	assert.Equal(t, ExceededPerDay, check(t, l))
	hour, day, err := l.Usage()
	require.NoError(t, err)
	assert.Less(t, hour, RequestsPerHour)
	assert.Equal(t, RequestsPerDay, day)
}

func TestCheck_PriorityOrder(t *testing.T) {
	l, clock := newTestLimiter()
	for i := 0; i < RequestsPerHour; i++ {
		acquire(t, l)
		clock.Advance(time.Second)
	}
	require.NoError(t, l.Record())

	// both per-second and hourly are exceeded; per-second wins
	assert.Equal(t, ExceededPerSecond, check(t, l))
}

func TestCheck_DoesNotRecord(t *testing.T) {
	l, _ := newTestLimiter()
	for i := 0; i < 3; i++ {
		assert.Equal(t, Allowed, check(t, l))
	}
	hour, day, err := l.Usage()
	require.NoError(t, err)
	assert.Zero(t, hour)
	assert.Zero(t, day)
}

func TestAcquire_Concurrent(t *testing.T) {
	l, _ := newTestLimiter()

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if status, err := l.Acquire(); err == nil && status == Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, allowed, "only one request may pass within the same instant")
}

func TestWait_RetriesPerSecond(t *testing.T) {
	l, clock := newTestLimiter()
	require.NoError(t, l.Record())

	done := make(chan Status, 1)
	go func() {
		status, err := l.Wait(context.Background(), 5)
		assert.NoError(t, err)
		done <- status
	}()

	require.NoError(t, clock.BlockUntilContext(context.Background(), 1))
	clock.Advance(RetryDelay)

	select {
	case status := <-done:
		assert.Equal(t, Allowed, status)
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not return after the retry delay")
	}
}

func TestWait_HourlyReturnsImmediately(t *testing.T) {
	l, clock := newTestLimiter()
	for i := 0; i < RequestsPerHour; i++ {
		acquire(t, l)
		clock.Advance(time.Second)
	}

	status, err := l.Wait(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, ExceededPerHour, status)
	assert.Equal(t, "Hourly API limit reached. Please try again later.", status.Message())
}

func TestWait_ContextCancelled(t *testing.T) {
	l, _ := newTestLimiter()
	require.NoError(t, l.Record())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	status, err := l.Wait(ctx, 5)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, ExceededPerSecond, status)
}

func TestStatus_Message(t *testing.T) {
	assert.Empty(t, Allowed.Message())
	assert.Empty(t, ExceededPerSecond.Message())
	assert.Equal(t, "Daily API limit reached. Please try again tomorrow.", ExceededPerDay.Message())
}

func TestSharedStore_HourlyQuotaAcrossLimiters(t *testing.T) {
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer db.Close()

	clock := clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	tui := NewWithStore(NewSQLStore(db), clock)
	daemon := NewWithStore(NewSQLStore(db), clock)

	for i := 0; i < RequestsPerHour; i++ {
		l := tui
		if i%2 == 1 {
			l = daemon
		}
		require.Equal(t, Allowed, acquire(t, l), "request %d", i)
		clock.Advance(time.Second)
	}

	assert.Equal(t, ExceededPerHour, acquire(t, tui))
	assert.Equal(t, ExceededPerHour, acquire(t, daemon))

	hour, day, err := daemon.Usage()
	require.NoError(t, err)
	assert.Equal(t, RequestsPerHour, hour)
	assert.Equal(t, RequestsPerHour, day)
}

func TestSharedStore_PerSecondAcrossLimiters(t *testing.T) {
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer db.Close()

	clock := clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	a := NewWithStore(NewSQLStore(db), clock)
	b := NewWithStore(NewSQLStore(db), clock)

	require.Equal(t, Allowed, acquire(t, a))
	clock.Advance(100 * time.Millisecond)
	assert.Equal(t, ExceededPerSecond, acquire(t, b))
}

func TestSQLStore_PrunesOldRequests(t *testing.T) {
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer db.Close()

	clock := clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	l := NewWithStore(NewSQLStore(db), clock)
	require.NoError(t, l.Record())

	clock.Advance(25 * time.Hour)
	require.Equal(t, Allowed, acquire(t, l))

	var count int
	require.NoError(t, db.Get(&count, `SELECT COUNT(*) FROM rate_limit_requests`))
	assert.Equal(t, 1, count)
}
