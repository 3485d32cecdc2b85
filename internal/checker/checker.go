// Package checker runs the background alert check: it fetches events for
// the last known location, keeps the ones the user cares about, and
// notifies about alerts it has not seen before.
package checker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/ngmaloney/weather-alert/internal/alerts"
	"github.com/ngmaloney/weather-alert/internal/history"
	"github.com/ngmaloney/weather-alert/internal/models"
	"github.com/ngmaloney/weather-alert/internal/notify"
	"github.com/ngmaloney/weather-alert/internal/observability"
	"github.com/ngmaloney/weather-alert/internal/ratelimit"
	"github.com/ngmaloney/weather-alert/internal/tomorrow"
)

const (
	// MaxRetryAttempts is the number of retries allowed before a run is
	// abandoned
	MaxRetryAttempts = 3

	// ActiveInterval is the delay before the next run when new alerts were found
	ActiveInterval = 15 * time.Minute

	// IdleInterval is the delay before the next run when nothing new was found
	IdleInterval = 30 * time.Minute

	// MaxNotifications caps the notifications sent by one run
	MaxNotifications = 20

	maxPerSecondRetries = 5
)

var (
	ErrTooManyAttempts = errors.New("too many retry attempts")
	ErrInvalidLocation = errors.New("no valid location to check")
)

// Outcome classifies a run for the scheduler
type Outcome int

const (
	Success Outcome = iota
	Retry
	Failure
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Retry:
		return "retry"
	case Failure:
		return "failure"
	default:
		return "unknown"
	}
}

// RunResult reports what a run did and when the next should happen
type RunResult struct {
	Outcome   Outcome
	Location  models.Location
	Events    int
	Matched   int
	NewAlerts []models.AlertItem
	Notified  int
	NextDelay time.Duration
	Err       error
}

// LocationSource provides the location the checker watches
type LocationSource interface {
	LastLocation() (models.Location, bool, error)
}

// PreferenceSource provides the user's alert preferences
type PreferenceSource interface {
	Get() (models.Preferences, error)
}

// Config holds the collaborators of a Checker
type Config struct {
	Locations     LocationSource
	Preferences   PreferenceSource
	AlertHistory  *history.Store
	Notifications *history.Store
	Events        alerts.EventFetcher
	Limiter       *ratelimit.Limiter
	Notifier      notify.Notifier
	Metrics       *observability.Metrics
	Logger        logrus.FieldLogger
	Clock         clockwork.Clock
	RadiusKm      float64
}

// Checker performs one alert check per Run call
type Checker struct {
	cfg Config
}

// New creates a Checker
func New(cfg Config) *Checker {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return &Checker{cfg: cfg}
}

// Run performs one check. attempt is the number of retries that preceded
// this run.
func (c *Checker) Run(ctx context.Context, attempt int) RunResult {
	res := c.run(ctx, attempt)
	c.cfg.Metrics.CheckerRuns.WithLabelValues(res.Outcome.String()).Inc()
	if res.Outcome == Success {
		c.cfg.Metrics.LastSuccessfulRunTime.Set(float64(c.cfg.Clock.Now().Unix()))
	}
	return res
}

func (c *Checker) run(ctx context.Context, attempt int) RunResult {
	log := c.cfg.Logger.WithField("attempt", attempt)

	if attempt > MaxRetryAttempts {
		log.Warn("too many retry attempts")
		return RunResult{Outcome: Failure, Err: ErrTooManyAttempts}
	}

	if n, err := c.cfg.AlertHistory.PurgeOlderThan(history.AlertRetention); err != nil {
		log.WithError(err).Warn("purging alert history failed")
	} else if n > 0 {
		log.WithField("purged", n).Debug("cleared expired alerts from history")
	}
	if _, err := c.cfg.Notifications.PurgeOlderThan(history.NotificationCooldown); err != nil {
		log.WithError(err).Warn("purging notification history failed")
	}

	loc, ok, err := c.cfg.Locations.LastLocation()
	if err != nil {
		return RunResult{Outcome: Failure, Err: fmt.Errorf("loading last location: %w", err)}
	}
	coord := loc.Coordinate()
	if !ok || !isLocationValid(coord) {
		log.WithField("location", coord.String()).Warn("invalid location data")
		return RunResult{Outcome: Retry, Err: ErrInvalidLocation}
	}
	log = log.WithField("location", coord.String())

	prefs, err := c.cfg.Preferences.Get()
	if err != nil {
		return RunResult{Outcome: Failure, Location: loc, Err: fmt.Errorf("loading preferences: %w", err)}
	}

	status, err := c.cfg.Limiter.Wait(ctx, maxPerSecondRetries)
	if err != nil {
		return RunResult{Outcome: Failure, Location: loc, Err: err}
	}
	switch status {
	case ratelimit.Allowed:
	case ratelimit.ExceededPerSecond:
		c.cfg.Metrics.RateLimitRejections.WithLabelValues(status.String()).Inc()
		return RunResult{Outcome: Retry, Location: loc, Err: fmt.Errorf("rate limited: %s", status)}
	default:
		c.cfg.Metrics.RateLimitRejections.WithLabelValues(status.String()).Inc()
		log.WithField("status", status.String()).Warn("request refused by rate limiter")
		return RunResult{Outcome: Failure, Location: loc, Err: fmt.Errorf("rate limited: %s", status)}
	}

	events, err := c.cfg.Events.Events(ctx, coord)
	if err != nil {
		if isRecoverable(err) {
			log.WithError(err).Warn("recoverable API error, scheduling retry")
			return RunResult{Outcome: Retry, Location: loc, Err: err}
		}
		log.WithError(err).Error("non-recoverable API error")
		return RunResult{Outcome: Failure, Location: loc, Err: err}
	}
	c.cfg.Metrics.EventsReceived.Add(float64(len(events)))

	wanted := make([]models.Event, 0, len(events))
	for _, e := range events {
		if prefs.ShouldProcess(e.Insight) {
			wanted = append(wanted, e)
		}
	}

	now := c.cfg.Clock.Now()
	matched := alerts.Filter(coord, wanted, c.cfg.RadiusKm, now)
	c.cfg.Metrics.AlertsMatched.Add(float64(len(matched)))

	var fresh []models.AlertItem
	for _, a := range matched {
		added, err := c.cfg.AlertHistory.RecordIfAbsent(a.HistoryKey())
		if err != nil {
			return RunResult{Outcome: Failure, Location: loc, Err: fmt.Errorf("recording alert history: %w", err)}
		}
		if added {
			log.WithField("alert", a.Event).Info("found new alert")
			fresh = append(fresh, a)
		}
	}
	c.cfg.Metrics.NewAlerts.Add(float64(len(fresh)))

	notified := c.notify(ctx, log, fresh)

	next := IdleInterval
	if len(fresh) > 0 {
		next = ActiveInterval
	}

	log.WithFields(logrus.Fields{
		"events":     len(events),
		"in_range":   len(matched),
		"new_alerts": len(fresh),
		"notified":   notified,
		"next_run":   next.String(),
	}).Info("alert check complete")

	return RunResult{
		Outcome:   Success,
		Location:  loc,
		Events:    len(events),
		Matched:   len(matched),
		NewAlerts: fresh,
		Notified:  notified,
		NextDelay: next,
	}
}

// notify sends at most MaxNotifications, skipping keys still in cooldown
func (c *Checker) notify(ctx context.Context, log logrus.FieldLogger, fresh []models.AlertItem) int {
	if len(fresh) > MaxNotifications {
		c.cfg.Metrics.NotificationsSkipped.WithLabelValues("cap").Add(float64(len(fresh) - MaxNotifications))
		fresh = fresh[:MaxNotifications]
	}

	sent := 0
	for _, a := range fresh {
		key := a.NotificationKey()
		recent, err := c.cfg.Notifications.WithinCooldown(key, history.NotificationCooldown)
		if err != nil {
			log.WithError(err).WithField("alert", a.Event).Error("reading notification history failed")
			c.cfg.Metrics.NotificationsSkipped.WithLabelValues("error").Inc()
			continue
		}
		if recent {
			log.WithField("alert", a.Event).Debug("skipping duplicate notification")
			c.cfg.Metrics.NotificationsSkipped.WithLabelValues("cooldown").Inc()
			continue
		}

		err = c.cfg.Notifier.Notify(ctx, notify.FromAlert(a, c.cfg.Clock.Now()))
		if !notify.Delivered(err) {
			log.WithError(err).WithField("alert", a.Event).Error("sending notification failed")
			c.cfg.Metrics.NotificationsSkipped.WithLabelValues("error").Inc()
			continue
		}
		if err != nil {
			log.WithError(err).WithField("alert", a.Event).Warn("notification only partly delivered")
		}
		if err := c.cfg.Notifications.Record(key); err != nil {
			log.WithError(err).WithField("alert", a.Event).Error("recording notification failed")
		}
		c.cfg.Metrics.NotificationsSent.Inc()
		sent++
	}
	return sent
}

// isLocationValid rejects out-of-range coordinates and either axis at zero,
// which marks a location that was never set
func isLocationValid(c models.Coordinate) bool {
	return c.Latitude != 0 && c.Longitude != 0 && c.Valid()
}

// isRecoverable reports whether a fetch error is worth retrying: network
// and timeout failures, and any HTTP error response
func isRecoverable(err error) bool {
	var netErr net.Error
	var urlErr *url.Error
	var apiErr *tomorrow.APIError
	switch {
	case errors.As(err, &apiErr):
		return true
	case errors.As(err, &netErr), errors.As(err, &urlErr):
		return true
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, os.ErrDeadlineExceeded),
		errors.Is(err, io.ErrUnexpectedEOF):
		return true
	default:
		return false
	}
}
