package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// Tests require Redis running on localhost:6379 and skip otherwise.
const testRedisAddr = "localhost:6379"

func setupTestCache(t *testing.T, prefix string) *Cache {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: testRedisAddr})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available at %s: %v", testRedisAddr, err)
	}

	t.Cleanup(func() {
		var cursor uint64
		for {
			keys, nextCursor, err := client.Scan(ctx, cursor, prefix+"*", 100).Result()
			if err != nil {
				break
			}
			if len(keys) > 0 {
				client.Del(ctx, keys...)
			}
			cursor = nextCursor
			if cursor == 0 {
				break
			}
		}
		client.Close()
	})

	return New(client, prefix, time.Minute)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Prefix != "membership:" {
		t.Errorf("Prefix = %v, want membership:", cfg.Prefix)
	}
	if cfg.TTL != 30*time.Second {
		t.Errorf("TTL = %v, want 30s", cfg.TTL)
	}
}

func TestCache_SetAndGet(t *testing.T) {
	c := setupTestCache(t, "test-roles:")
	ctx := context.Background()

	type role struct {
		IsProjectLead bool `json:"is_project_lead"`
	}

	if err := c.Set(ctx, "role:user-bob:project-1:workspace-1", role{IsProjectLead: true}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	var got role
	found, err := c.Get(ctx, "role:user-bob:project-1:workspace-1", &got)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !found {
		t.Fatal("Get() found = false, want true")
	}
	if !got.IsProjectLead {
		t.Error("IsProjectLead = false after round trip, want true")
	}
}

func TestCache_GetMiss(t *testing.T) {
	c := setupTestCache(t, "test-miss:")

	var dest string
	found, err := c.Get(context.Background(), "absent", &dest)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("Get() found = true for absent key, want false")
	}
}

func TestCache_Delete(t *testing.T) {
	c := setupTestCache(t, "test-del:")
	ctx := context.Background()

	if err := c.Set(ctx, "key", "value"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	var dest string
	found, err := c.Get(ctx, "key", &dest)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("Get() found = true after Delete, want false")
	}
}

func TestCache_Stats(t *testing.T) {
	c := setupTestCache(t, "test-stats:")
	ctx := context.Background()

	var dest string
	if _, err := c.Get(ctx, "absent", &dest); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if err := c.Set(ctx, "key", "value"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if _, err := c.Get(ctx, "key", &dest); err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	stats := c.StatsSnapshot()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Sets != 1 {
		t.Errorf("stats = %+v, want 1 hit, 1 miss, 1 set", stats)
	}
	if stats.HitRate != 0.5 {
		t.Errorf("HitRate = %v, want 0.5", stats.HitRate)
	}
}
