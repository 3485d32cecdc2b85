package alerts

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ngmaloney/weather-alert/internal/geo"
	"github.com/ngmaloney/weather-alert/internal/models"
)

func TestCacheKey(t *testing.T) {
	a := CacheKey(models.Coordinate{Latitude: 40.71280, Longitude: -74.00600})
	b := CacheKey(models.Coordinate{Latitude: 40.71281, Longitude: -74.00601})
	far := CacheKey(models.Coordinate{Latitude: 42.3601, Longitude: -71.0589})

	assert.Equal(t, a, b, "points a metre apart share a bucket")
	assert.NotEqual(t, a, far)
	assert.Regexp(t, `^[0-9b-hjkmnp-z]{7}$`, a)
}

func TestMemoryCache_TTL(t *testing.T) {
	clock := clockwork.NewFakeClock()
	cache := NewMemoryCache(clock)
	ctx := context.Background()

	_, ok, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	events := []models.Event{pointEvent("Flood Warning", "Severe", -74.0, 40.8)}
	require.NoError(t, cache.Put(ctx, "k", events))

	clock.Advance(29 * time.Minute)
	got, ok, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, events, got)

	clock.Advance(2 * time.Minute)
	_, ok, err = cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok, "entries expire after 30 minutes")
}

func TestMemoryCache_EmptyListIsCached(t *testing.T) {
	cache := NewMemoryCache(clockwork.NewFakeClock())
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "k", []models.Event{}))
	got, ok, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, got)
}

func TestRedisCache(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}

	cache, err := NewRedisCache(url)
	require.NoError(t, err)
	defer cache.Close()

	ctx := context.Background()
	key := "test:" + time.Now().Format(time.RFC3339Nano)

	_, ok, err := cache.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	events := []models.Event{pointEvent("Flood Warning", "Severe", -74.0, 40.8)}
	require.NoError(t, cache.Put(ctx, key, events))

	got, ok, err := cache.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, events[0].EventValues.Title, got[0].EventValues.Title)
	assert.True(t, geo.MatchGeometry(nyc, got[0].EventValues.Location, 50))
}

func TestNewRedisCache_BadURL(t *testing.T) {
	_, err := NewRedisCache("not a url")
	assert.Error(t, err)
}
