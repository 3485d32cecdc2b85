package checker

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ngmaloney/weather-alert/internal/database"
)

type scriptedRunner struct {
	mu       sync.Mutex
	results  []RunResult
	attempts []int
}

func (r *scriptedRunner) Run(ctx context.Context, attempt int) RunResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = append(r.attempts, attempt)
	if len(r.results) == 0 {
		return RunResult{Outcome: Success, NextDelay: IdleInterval}
	}
	res := r.results[0]
	r.results = r.results[1:]
	return res
}

func (r *scriptedRunner) seen() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.attempts...)
}

func newTestScheduler(t *testing.T, runner Runner) (*Scheduler, *clockwork.FakeClock) {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "scheduler.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	clock := clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	log, _ := test.NewNullLogger()
	return NewScheduler(runner, NewStateStore(database.NewKV(db)), clock, log), clock
}

func startScheduler(t *testing.T, s *Scheduler) (context.Context, func()) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()
	return ctx, func() {
		cancel()
		assert.ErrorIs(t, <-done, context.Canceled)
	}
}

func TestRetryBackoff(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 30 * time.Second},
		{1, 30 * time.Second},
		{2, time.Minute},
		{3, 2 * time.Minute},
		{4, 4 * time.Minute},
		{5, 5 * time.Minute},
		{10, 5 * time.Minute},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, RetryBackoff(tt.attempt), "attempt %d", tt.attempt)
	}
}

func TestScheduler_RetriesThenSucceeds(t *testing.T) {
	runner := &scriptedRunner{results: []RunResult{
		{Outcome: Retry, Err: errors.New("connection reset")},
		{Outcome: Retry, Err: errors.New("connection reset")},
		{Outcome: Success, NextDelay: ActiveInterval},
	}}
	s, clock := newTestScheduler(t, runner)
	ctx, stop := startScheduler(t, s)
	defer stop()

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	st, err := s.Status()
	require.NoError(t, err)
	assert.Equal(t, "retry", st.LastOutcome)
	assert.Equal(t, 1, st.ConsecutiveFailures)
	assert.Equal(t, "connection reset", st.LastError)
	assert.WithinDuration(t, clock.Now().Add(30*time.Second), st.NextRun, time.Millisecond)

	clock.Advance(30 * time.Second)
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(time.Minute)
	require.NoError(t, clock.BlockUntilContext(ctx, 1))

	assert.Equal(t, []int{0, 1, 2}, runner.seen())
	st, err = s.Status()
	require.NoError(t, err)
	assert.Equal(t, "success", st.LastOutcome)
	assert.Zero(t, st.ConsecutiveFailures)
	assert.Empty(t, st.LastError)
	assert.WithinDuration(t, clock.Now(), st.LastSuccess, time.Millisecond)
	assert.WithinDuration(t, clock.Now().Add(ActiveInterval), st.NextRun, time.Millisecond)

	clock.Advance(ActiveInterval)
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	assert.Equal(t, []int{0, 1, 2, 0}, runner.seen(), "attempts reset after success")
}

func TestScheduler_FailureWaitsIdleInterval(t *testing.T) {
	runner := &scriptedRunner{results: []RunResult{
		{Outcome: Failure, Err: errors.New("bad request")},
	}}
	s, clock := newTestScheduler(t, runner)
	ctx, stop := startScheduler(t, s)
	defer stop()

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	st, err := s.Status()
	require.NoError(t, err)
	assert.Equal(t, "failure", st.LastOutcome)
	assert.WithinDuration(t, clock.Now().Add(IdleInterval), st.NextRun, time.Millisecond)

	clock.Advance(IdleInterval - time.Second)
	assert.Len(t, runner.seen(), 1)
}

func TestScheduler_TriggerNow(t *testing.T) {
	runner := &scriptedRunner{}
	s, clock := newTestScheduler(t, runner)
	ctx, stop := startScheduler(t, s)
	defer stop()

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	s.TriggerNow()
	assert.Eventually(t, func() bool { return len(runner.seen()) == 2 }, time.Second, 10*time.Millisecond)
}

func TestStatus_Empty(t *testing.T) {
	s, _ := newTestScheduler(t, &scriptedRunner{})
	st, err := s.Status()
	require.NoError(t, err)
	assert.False(t, st.Running())
}
