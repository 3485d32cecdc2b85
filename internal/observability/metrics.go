package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "weather_alert"

// Metrics holds the Prometheus counters and gauges for alert checking.
type Metrics struct {
	CheckerRuns           *prometheus.CounterVec // labels: outcome={success,retry,failure}
	EventsReceived        prometheus.Counter
	AlertsMatched         prometheus.Counter
	NewAlerts             prometheus.Counter
	NotificationsSent     prometheus.Counter
	NotificationsSkipped  *prometheus.CounterVec // labels: reason={cooldown,cap,error}
	RateLimitRejections   *prometheus.CounterVec // labels: window={per_second,per_hour,per_day}
	AlertCache            *prometheus.CounterVec // labels: result={hit,miss}
	LastSuccessfulRunTime prometheus.Gauge
}

func newMetrics() *Metrics {
	return &Metrics{
		CheckerRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checker_runs_total",
			Help:      "Checker runs by outcome.",
		}, []string{"outcome"}),
		EventsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_received_total",
			Help:      "Events returned by the weather API.",
		}),
		AlertsMatched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_matched_total",
			Help:      "Events that passed the preference and geofence filters.",
		}),
		NewAlerts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "new_alerts_total",
			Help:      "Matched alerts not seen in a previous run.",
		}),
		NotificationsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_sent_total",
			Help:      "Notifications delivered.",
		}),
		NotificationsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_skipped_total",
			Help:      "Notifications not delivered, by reason.",
		}, []string{"reason"}),
		RateLimitRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_rejections_total",
			Help:      "Requests refused by the client-side rate limiter.",
		}, []string{"window"}),
		AlertCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alert_cache_total",
			Help:      "Alert cache lookups by result.",
		}, []string{"result"}),
		LastSuccessfulRunTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_successful_run_timestamp_seconds",
			Help:      "Unix time of the last successful checker run.",
		}),
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.CheckerRuns,
		m.EventsReceived,
		m.AlertsMatched,
		m.NewAlerts,
		m.NotificationsSent,
		m.NotificationsSkipped,
		m.RateLimitRejections,
		m.AlertCache,
		m.LastSuccessfulRunTime,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
