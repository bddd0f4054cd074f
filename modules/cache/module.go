package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-monolith/mono"
	"github.com/redis/go-redis/v9"
)

// Module provides the Redis cache as a mono module.
type Module struct {
	cache  *Cache
	client *redis.Client
	config Config
}

var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new cache module with the given configuration.
func NewModule(cfg Config) *Module {
	return &Module{config: cfg}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "cache"
}

// Init initializes the Redis client and creates the cache.
func (m *Module) Init(_ mono.ServiceContainer) error {
	m.client = redis.NewClient(&redis.Options{
		Addr:         m.config.RedisAddr,
		PoolSize:     50,
		MinIdleConns: 5,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := m.client.Ping(context.Background()).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	m.cache = New(m.client, m.config.Prefix, m.config.TTL)
	log.Printf("[cache] Connected to Redis at %s (prefix: %s, TTL: %s)",
		m.config.RedisAddr, m.config.Prefix, m.config.TTL)
	return nil
}

// Start starts the module.
func (m *Module) Start(_ context.Context) error {
	log.Println("[cache] Module started")
	return nil
}

// Stop closes the Redis connection.
func (m *Module) Stop(_ context.Context) error {
	if m.client != nil {
		if err := m.client.Close(); err != nil {
			return fmt.Errorf("failed to close Redis connection: %w", err)
		}
	}
	log.Println("[cache] Module stopped")
	return nil
}

// Health verifies the Redis connection is healthy.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if m.cache == nil {
		return mono.HealthStatus{Healthy: false, Message: "cache not initialized"}
	}
	if err := m.cache.Ping(ctx); err != nil {
		return mono.HealthStatus{Healthy: false, Message: fmt.Sprintf("redis ping failed: %v", err)}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{"addr": m.config.RedisAddr},
	}
}

// GetCache returns the cache instance.
func (m *Module) GetCache() *Cache {
	return m.cache
}
