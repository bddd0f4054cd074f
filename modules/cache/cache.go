// Package cache provides a Redis-based caching layer used for membership
// snapshots (cache-aside pattern).
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache provides caching operations using Redis.
type Cache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	stats  *Stats
}

// Stats tracks cache statistics.
type Stats struct {
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
	Sets    uint64 `json:"sets"`
	Deletes uint64 `json:"deletes"`
	Errors  uint64 `json:"errors"`
}

// StatsSnapshot is a point-in-time view of the statistics.
type StatsSnapshot struct {
	Hits      uint64  `json:"hits"`
	Misses    uint64  `json:"misses"`
	Sets      uint64  `json:"sets"`
	Deletes   uint64  `json:"deletes"`
	Errors    uint64  `json:"errors"`
	HitRate   float64 `json:"hit_rate"`
	TotalGets uint64  `json:"total_gets"`
}

// Config holds cache configuration.
type Config struct {
	RedisAddr string
	Prefix    string
	TTL       time.Duration
}

// DefaultConfig returns the default cache configuration.
func DefaultConfig() Config {
	return Config{
		RedisAddr: "localhost:6379",
		Prefix:    "membership:",
		TTL:       30 * time.Second,
	}
}

// New creates a new cache instance.
func New(client *redis.Client, prefix string, ttl time.Duration) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		stats:  &Stats{},
	}
}

// Get retrieves a value from the cache. Returns whether the key was found.
func (c *Cache) Get(ctx context.Context, key string, dest any) (bool, error) {
	fullKey := c.prefix + key

	data, err := c.client.Get(ctx, fullKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			atomic.AddUint64(&c.stats.Misses, 1)
			return false, nil
		}
		atomic.AddUint64(&c.stats.Errors, 1)
		return false, fmt.Errorf("cache get error: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		atomic.AddUint64(&c.stats.Errors, 1)
		return false, fmt.Errorf("cache unmarshal error: %w", err)
	}

	atomic.AddUint64(&c.stats.Hits, 1)
	return true, nil
}

// Set stores a value in the cache with the default TTL.
func (c *Cache) Set(ctx context.Context, key string, value any) error {
	return c.SetWithTTL(ctx, key, value, c.ttl)
}

// SetWithTTL stores a value in the cache with a custom TTL.
func (c *Cache) SetWithTTL(ctx context.Context, key string, value any, ttl time.Duration) error {
	fullKey := c.prefix + key

	data, err := json.Marshal(value)
	if err != nil {
		atomic.AddUint64(&c.stats.Errors, 1)
		return fmt.Errorf("cache marshal error: %w", err)
	}

	if err := c.client.Set(ctx, fullKey, data, ttl).Err(); err != nil {
		atomic.AddUint64(&c.stats.Errors, 1)
		return fmt.Errorf("cache set error: %w", err)
	}

	atomic.AddUint64(&c.stats.Sets, 1)
	return nil
}

// Delete removes a value from the cache.
func (c *Cache) Delete(ctx context.Context, key string) error {
	fullKey := c.prefix + key

	if err := c.client.Del(ctx, fullKey).Err(); err != nil {
		atomic.AddUint64(&c.stats.Errors, 1)
		return fmt.Errorf("cache delete error: %w", err)
	}

	atomic.AddUint64(&c.stats.Deletes, 1)
	return nil
}

// Ping verifies the Redis connection.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// StatsSnapshot returns a snapshot of the current statistics.
func (c *Cache) StatsSnapshot() StatsSnapshot {
	hits := atomic.LoadUint64(&c.stats.Hits)
	misses := atomic.LoadUint64(&c.stats.Misses)
	totalGets := hits + misses

	hitRate := 0.0
	if totalGets > 0 {
		hitRate = float64(hits) / float64(totalGets)
	}

	return StatsSnapshot{
		Hits:      hits,
		Misses:    misses,
		Sets:      atomic.LoadUint64(&c.stats.Sets),
		Deletes:   atomic.LoadUint64(&c.stats.Deletes),
		Errors:    atomic.LoadUint64(&c.stats.Errors),
		HitRate:   hitRate,
		TotalGets: totalGets,
	}
}
