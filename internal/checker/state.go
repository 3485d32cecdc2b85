package checker

import (
	"errors"
	"fmt"
	"time"

	"github.com/ngmaloney/weather-alert/internal/database"
)

const stateKey = "checker_state"

// RunState is the persisted summary of recent checker activity
type RunState struct {
	LastRun             time.Time `json:"last_run"`
	LastSuccess         time.Time `json:"last_success"`
	LastOutcome         string    `json:"last_outcome"`
	LastError           string    `json:"last_error,omitempty"`
	LastNewAlerts       int       `json:"last_new_alerts"`
	LastNotified        int       `json:"last_notified"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	NextRun             time.Time `json:"next_run"`
}

// Running reports whether the checker has ever run
func (s RunState) Running() bool {
	return !s.LastRun.IsZero()
}

// StateStore persists RunState in the app_state table
type StateStore struct {
	kv *database.KV
}

// NewStateStore creates a StateStore
func NewStateStore(kv *database.KV) *StateStore {
	return &StateStore{kv: kv}
}

// Load returns the stored state, or the zero state if none was saved
func (s *StateStore) Load() (RunState, error) {
	var st RunState
	err := s.kv.Get(stateKey, &st)
	if errors.Is(err, database.ErrNotFound) {
		return RunState{}, nil
	}
	if err != nil {
		return RunState{}, fmt.Errorf("loading checker state: %w", err)
	}
	return st, nil
}

// Status is Load under the name the status readers expect
func (s *StateStore) Status() (RunState, error) {
	return s.Load()
}

// Save stores st
func (s *StateStore) Save(st RunState) error {
	return s.kv.Set(stateKey, st)
}

// apply folds a run result into the state
func (s RunState) apply(res RunResult, now time.Time, next time.Duration) RunState {
	s.LastRun = now
	s.LastOutcome = res.Outcome.String()
	s.LastNewAlerts = len(res.NewAlerts)
	s.LastNotified = res.Notified
	s.NextRun = now.Add(next)
	if res.Outcome == Success {
		s.LastSuccess = now
		s.LastError = ""
		s.ConsecutiveFailures = 0
	} else {
		s.ConsecutiveFailures++
		if res.Err != nil {
			s.LastError = res.Err.Error()
		}
	}
	return s
}
