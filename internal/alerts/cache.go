package alerts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jonboulle/clockwork"
	"github.com/mmcloughlin/geohash"

	"github.com/ngmaloney/weather-alert/internal/models"
)

const (
	// CacheTTL is how long fetched events stay fresh
	CacheTTL = 30 * time.Minute

	// geohash precision 7 cells are roughly 150m across
	cachePrecision = 7
)

// Cache stores the raw events returned for a location. Entries are never
// geofenced; callers filter them against their own coordinate.
type Cache interface {
	Get(ctx context.Context, key string) ([]models.Event, bool, error)
	Put(ctx context.Context, key string, events []models.Event) error
}

// CacheKey buckets a coordinate into a cache key
func CacheKey(c models.Coordinate) string {
	return geohash.EncodeWithPrecision(c.Latitude, c.Longitude, cachePrecision)
}

type cacheEntry struct {
	events    []models.Event
	fetchedAt time.Time
}

// MemoryCache is a process-local Cache
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	clock   clockwork.Clock
	ttl     time.Duration
}

// NewMemoryCache creates an in-memory cache with CacheTTL
func NewMemoryCache(clock clockwork.Clock) *MemoryCache {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MemoryCache{
		entries: make(map[string]cacheEntry),
		clock:   clock,
		ttl:     CacheTTL,
	}
}

// Get returns the entry for key if it is younger than the TTL
func (c *MemoryCache) Get(_ context.Context, key string) ([]models.Event, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || c.clock.Since(entry.fetchedAt) > c.ttl {
		return nil, false, nil
	}
	return entry.events, true, nil
}

// Put stores events under key
func (c *MemoryCache) Put(_ context.Context, key string, events []models.Event) error {
	c.mu.Lock()
	c.entries[key] = cacheEntry{events: events, fetchedAt: c.clock.Now()}
	c.mu.Unlock()
	return nil
}

// RedisCache shares event lists between processes through Redis
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache connects to the Redis instance at rawURL
func NewRedisCache(rawURL string) (*RedisCache, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	return NewRedisCacheWithClient(redis.NewClient(opt)), nil
}

// NewRedisCacheWithClient wraps an existing client
func NewRedisCacheWithClient(client *redis.Client) *RedisCache {
	return &RedisCache{client: client, prefix: "weather-alert:events:", ttl: CacheTTL}
}

// Get reads the list stored under key. Expiry is handled by Redis.
func (c *RedisCache) Get(ctx context.Context, key string) ([]models.Event, bool, error) {
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading alert cache: %w", err)
	}

	var events []models.Event
	if err := json.Unmarshal(raw, &events); err != nil {
		return nil, false, fmt.Errorf("decoding alert cache: %w", err)
	}
	return events, true, nil
}

// Put stores events under key with CacheTTL
func (c *RedisCache) Put(ctx context.Context, key string, events []models.Event) error {
	raw, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("encoding alert cache: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("writing alert cache: %w", err)
	}
	return nil
}

// Close releases the Redis connection pool
func (c *RedisCache) Close() error {
	return c.client.Close()
}
