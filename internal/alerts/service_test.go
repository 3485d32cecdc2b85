package alerts

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mmcloughlin/geohash"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ngmaloney/weather-alert/internal/geo"
	"github.com/ngmaloney/weather-alert/internal/models"
	"github.com/ngmaloney/weather-alert/internal/observability"
	"github.com/ngmaloney/weather-alert/internal/ratelimit"
	"github.com/ngmaloney/weather-alert/internal/tomorrow"
)

type fakeFetcher struct {
	events []models.Event
	err    error
	calls  int
}

func (f *fakeFetcher) Events(ctx context.Context, c models.Coordinate) ([]models.Event, error) {
	f.calls++
	return f.events, f.err
}

type serviceFixture struct {
	svc     *Service
	fetcher *fakeFetcher
	limiter *ratelimit.Limiter
	clock   *clockwork.FakeClock
	metrics *observability.Metrics
}

func newFixture(f *fakeFetcher) *serviceFixture {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	limiter := ratelimit.New(clock)
	metrics := observability.NewMetricsForTesting()
	log, _ := test.NewNullLogger()
	return &serviceFixture{
		svc:     NewService(f, limiter, NewMemoryCache(clock), clock, metrics, log),
		fetcher: f,
		limiter: limiter,
		clock:   clock,
		metrics: metrics,
	}
}

func TestFetch_Success(t *testing.T) {
	fx := newFixture(&fakeFetcher{events: []models.Event{
		pointEvent("Flood Warning", "Severe", -74.0, 40.8),
		pointEvent("Flood Warning", "Severe", -74.0, 40.8),
		pointEvent("Far Away", "Severe", -71.0589, 42.3601),
	}})

	res := fx.svc.Fetch(context.Background(), Request{Coordinate: nyc, RadiusKm: 50})
	require.NoError(t, res.Err)
	require.Len(t, res.Alerts, 1)
	assert.Empty(t, res.Message)
	assert.False(t, res.FromCache)
	assert.Equal(t, 3.0, testutil.ToFloat64(fx.metrics.EventsReceived))
	assert.Equal(t, 1.0, testutil.ToFloat64(fx.metrics.AlertsMatched))
}

func TestFetch_Empty(t *testing.T) {
	fx := newFixture(&fakeFetcher{})

	res := fx.svc.Fetch(context.Background(), Request{Coordinate: nyc, RadiusKm: 50})
	assert.Empty(t, res.Alerts)
	assert.Equal(t, "No active alerts within 50.0km of this location", res.Message)
}

func TestFetch_ServesCache(t *testing.T) {
	fx := newFixture(&fakeFetcher{events: []models.Event{pointEvent("Flood Warning", "Severe", -74.0, 40.8)}})
	ctx := context.Background()
	req := Request{Coordinate: nyc, RadiusKm: 50}

	first := fx.svc.Fetch(ctx, req)
	require.Len(t, first.Alerts, 1)

	second := fx.svc.Fetch(ctx, req)
	assert.True(t, second.FromCache)
	assert.Equal(t, first.Alerts, second.Alerts)
	assert.Equal(t, 1, fx.fetcher.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(fx.metrics.AlertCache.WithLabelValues("hit")))

	fx.clock.Advance(time.Second)
	forced := fx.svc.Fetch(ctx, Request{Coordinate: nyc, RadiusKm: 50, Force: true})
	assert.False(t, forced.FromCache)
	assert.Equal(t, 2, fx.fetcher.calls)
}

func TestFetch_CacheHitIsGeofencedAgainstRequest(t *testing.T) {
	box := geohash.BoundingBox(CacheKey(nyc))
	_, lng := box.Center()
	south := models.Coordinate{Latitude: box.MinLat + 0.0001, Longitude: lng}
	north := models.Coordinate{Latitude: box.MaxLat - 0.0001, Longitude: lng}
	require.Equal(t, CacheKey(south), CacheKey(north))

	// an event due south sits just inside the radius for south and just
	// outside it for north
	event := models.Coordinate{Latitude: box.MinLat - 0.45, Longitude: lng}
	nearKm, farKm := geo.DistanceKm(south, event), geo.DistanceKm(north, event)
	require.Less(t, nearKm, farKm)
	radius := (nearKm + farKm) / 2

	fx := newFixture(&fakeFetcher{events: []models.Event{
		pointEvent("Flood Warning", "Severe", event.Longitude, event.Latitude),
	}})
	ctx := context.Background()

	first := fx.svc.Fetch(ctx, Request{Coordinate: south, RadiusKm: radius})
	require.Len(t, first.Alerts, 1)
	assert.False(t, first.FromCache)

	second := fx.svc.Fetch(ctx, Request{Coordinate: north, RadiusKm: radius})
	assert.True(t, second.FromCache)
	assert.Empty(t, second.Alerts)
	assert.Equal(t, EmptyMessage(radius), second.Message)

	wider := fx.svc.Fetch(ctx, Request{Coordinate: north, RadiusKm: farKm + 1})
	assert.True(t, wider.FromCache)
	assert.Len(t, wider.Alerts, 1, "radius is applied to cached events")
	assert.Equal(t, 1, fx.fetcher.calls)
}

func TestFetch_HourlyLimit(t *testing.T) {
	fx := newFixture(&fakeFetcher{})
	for i := 0; i < ratelimit.RequestsPerHour; i++ {
		fx.limiter.Acquire()
		fx.clock.Advance(time.Second)
	}

	res := fx.svc.Fetch(context.Background(), Request{Coordinate: nyc, RadiusKm: 50, Force: true})
	assert.Equal(t, "Hourly API limit reached. Please try again later.", res.Message)
	assert.Equal(t, 0, fx.fetcher.calls, "no API call once the hourly quota is used")
	assert.Equal(t, 1.0, testutil.ToFloat64(fx.metrics.RateLimitRejections.WithLabelValues("per_hour")))
}

func TestFetch_APIErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"429", &tomorrow.APIError{StatusCode: http.StatusTooManyRequests}, "Rate limit exceeded. Please try again later."},
		{"401", &tomorrow.APIError{StatusCode: http.StatusUnauthorized}, "Invalid API key. Please check your configuration."},
		{"404", &tomorrow.APIError{StatusCode: http.StatusNotFound}, "No data available for this location"},
		{"other", errors.New("connection refused"), "Error fetching weather data: connection refused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture(&fakeFetcher{err: tt.err})

			res := fx.svc.Fetch(context.Background(), Request{Coordinate: nyc, RadiusKm: 50})
			assert.Equal(t, tt.want, res.Message)
			assert.Error(t, res.Err)
			assert.Empty(t, res.Alerts)
		})
	}
}

func TestEmptyMessage(t *testing.T) {
	assert.Equal(t, "No active alerts within 50.0km of this location", EmptyMessage(50))
	assert.Equal(t, "No active alerts within 12.5km of this location", EmptyMessage(12.5))
}
