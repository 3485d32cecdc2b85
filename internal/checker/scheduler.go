package checker

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

const (
	// InitialBackoff is the delay before the first retry
	InitialBackoff = 30 * time.Second

	// MaxBackoff caps the retry delay
	MaxBackoff = 5 * time.Minute
)

// Runner performs a single check
type Runner interface {
	Run(ctx context.Context, attempt int) RunResult
}

// Scheduler runs checks one at a time: immediately on start, then after
// the delay each result asks for
type Scheduler struct {
	runner  Runner
	state   *StateStore
	clock   clockwork.Clock
	log     logrus.FieldLogger
	trigger chan struct{}
}

// NewScheduler creates a scheduler
func NewScheduler(runner Runner, state *StateStore, clock clockwork.Clock, log logrus.FieldLogger) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Scheduler{
		runner:  runner,
		state:   state,
		clock:   clock,
		log:     log,
		trigger: make(chan struct{}, 1),
	}
}

// RetryBackoff returns the delay before retry number attempt (1-based):
// 30s doubling, capped at 5 minutes
func RetryBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := InitialBackoff
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= MaxBackoff {
			return MaxBackoff
		}
	}
	return d
}

// TriggerNow asks for an immediate run. A pending trigger absorbs repeats.
func (s *Scheduler) TriggerNow() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Status returns the persisted run state
func (s *Scheduler) Status() (RunState, error) {
	return s.state.Load()
}

// Start runs checks until ctx is cancelled
func (s *Scheduler) Start(ctx context.Context) error {
	s.log.Info("alert checker started")
	attempt := 0

	for {
		res := s.runner.Run(ctx, attempt)

		var delay time.Duration
		switch res.Outcome {
		case Success:
			attempt = 0
			delay = res.NextDelay
		case Retry:
			attempt++
			delay = RetryBackoff(attempt)
		default:
			attempt = 0
			delay = IdleInterval
		}
		if delay <= 0 {
			delay = IdleInterval
		}

		s.record(res, delay)

		select {
		case <-ctx.Done():
			s.log.Info("alert checker stopped")
			return ctx.Err()
		case <-s.trigger:
			s.log.Debug("manual check requested")
			attempt = 0
		case <-s.clock.After(delay):
		}
	}
}

func (s *Scheduler) record(res RunResult, delay time.Duration) {
	log := s.log.WithFields(logrus.Fields{
		"outcome":  res.Outcome.String(),
		"next_run": delay.String(),
	})
	if res.Err != nil {
		log = log.WithError(res.Err)
	}
	log.Info("alert check finished")

	st, err := s.state.Load()
	if err != nil {
		s.log.WithError(err).Warn("loading checker state failed")
	}
	if err := s.state.Save(st.apply(res, s.clock.Now(), delay)); err != nil {
		s.log.WithError(err).Warn("saving checker state failed")
	}
}
