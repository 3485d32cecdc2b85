package alerts

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/ngmaloney/weather-alert/internal/models"
	"github.com/ngmaloney/weather-alert/internal/observability"
	"github.com/ngmaloney/weather-alert/internal/ratelimit"
	"github.com/ngmaloney/weather-alert/internal/tomorrow"
)

// maxPerSecondRetries bounds how often a fetch waits out the per-second limit
const maxPerSecondRetries = 5

// EventFetcher retrieves raw events around a coordinate
type EventFetcher interface {
	Events(ctx context.Context, c models.Coordinate) ([]models.Event, error)
}

// Request describes one alert lookup
type Request struct {
	Coordinate models.Coordinate
	RadiusKm   float64
	Force      bool // bypass the cache
}

// Result is the outcome of a lookup. Message carries the user-facing
// explanation when there is nothing to show.
type Result struct {
	Alerts    []models.AlertItem
	Message   string
	FromCache bool
	Err       error
}

// Service serves the foreground alert list
type Service struct {
	events  EventFetcher
	limiter *ratelimit.Limiter
	cache   Cache
	clock   clockwork.Clock
	metrics *observability.Metrics
	log     logrus.FieldLogger
}

// NewService creates an alert service
func NewService(events EventFetcher, limiter *ratelimit.Limiter, cache Cache, clock clockwork.Clock, metrics *observability.Metrics, log logrus.FieldLogger) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{
		events:  events,
		limiter: limiter,
		cache:   cache,
		clock:   clock,
		metrics: metrics,
		log:     log,
	}
}

// Fetch returns the deduplicated in-range alerts for req. It never returns
// an error; failures are reported through Result.Message and Result.Err.
// Cached events are always geofenced against req.Coordinate.
func (s *Service) Fetch(ctx context.Context, req Request) Result {
	key := CacheKey(req.Coordinate)
	log := s.log.WithFields(logrus.Fields{
		"location":  req.Coordinate.String(),
		"radius_km": req.RadiusKm,
	})

	if !req.Force {
		cached, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			log.WithError(err).Warn("alert cache read failed")
		}
		if ok {
			s.metrics.AlertCache.WithLabelValues("hit").Inc()
			alerts := Filter(req.Coordinate, cached, req.RadiusKm, s.clock.Now())
			s.metrics.AlertsMatched.Add(float64(len(alerts)))
			return s.result(alerts, req.RadiusKm, true)
		}
		s.metrics.AlertCache.WithLabelValues("miss").Inc()
	}

	status, err := s.limiter.Wait(ctx, maxPerSecondRetries)
	if err != nil {
		return Result{Message: FailureMessage(err), Err: err}
	}
	if status != ratelimit.Allowed {
		s.metrics.RateLimitRejections.WithLabelValues(status.String()).Inc()
		log.WithField("status", status.String()).Warn("request refused by rate limiter")
		msg := status.Message()
		if msg == "" {
			msg = FailureMessage(errTooManyRequests)
		}
		return Result{Message: msg}
	}

	events, err := s.events.Events(ctx, req.Coordinate)
	if err != nil {
		log.WithError(err).Error("fetching alerts failed")
		return Result{Message: FailureMessage(err), Err: err}
	}
	s.metrics.EventsReceived.Add(float64(len(events)))

	alerts := Filter(req.Coordinate, events, req.RadiusKm, s.clock.Now())
	s.metrics.AlertsMatched.Add(float64(len(alerts)))
	log.WithFields(logrus.Fields{
		"events": len(events),
		"alerts": len(alerts),
	}).Info("alerts fetched")

	if err := s.cache.Put(ctx, key, events); err != nil {
		log.WithError(err).Warn("alert cache write failed")
	}

	return s.result(alerts, req.RadiusKm, false)
}

func (s *Service) result(alerts []models.AlertItem, radiusKm float64, cached bool) Result {
	r := Result{Alerts: alerts, FromCache: cached}
	if len(alerts) == 0 {
		r.Message = EmptyMessage(radiusKm)
	}
	return r
}

// EmptyMessage is shown when no alert falls within the radius
func EmptyMessage(radiusKm float64) string {
	r := strconv.FormatFloat(radiusKm, 'f', -1, 64)
	if !strings.Contains(r, ".") {
		r += ".0"
	}
	return "No active alerts within " + r + "km of this location"
}

var errTooManyRequests = &tomorrow.APIError{StatusCode: http.StatusTooManyRequests}

// FailureMessage maps a fetch error to the text shown to the user
func FailureMessage(err error) string {
	switch tomorrow.StatusCode(err) {
	case http.StatusTooManyRequests:
		return "Rate limit exceeded. Please try again later."
	case http.StatusUnauthorized:
		return "Invalid API key. Please check your configuration."
	case http.StatusNotFound:
		return "No data available for this location"
	}
	return "Error fetching weather data: " + err.Error()
}
