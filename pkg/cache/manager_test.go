package cache

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// setupTestRedis creates a test Redis client on a scratch DB.
// Tests are skipped when no local Redis is available.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15, // Use a separate DB for tests
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for testing: %v", err)
	}

	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("Failed to flush test DB: %v", err)
	}

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})

	return client
}

func TestNewManager(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer client.Close()

	manager := NewManager(client, WithMemoryLayer(8, time.Minute), WithRetention(time.Minute))
	if manager.redis != client {
		t.Error("Manager redis client not set correctly")
	}
	if manager.memory == nil {
		t.Error("memory layer not enabled")
	}
	if manager.retention != time.Minute {
		t.Errorf("retention = %v, want 1m", manager.retention)
	}

	if NewManager(client, WithMemoryLayer(0, time.Minute)).memory != nil {
		t.Error("memory layer with size 0 should stay disabled")
	}
}

func TestNewManager_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("NewManager should panic with nil redis client")
		}
	}()
	NewManager(nil)
}

func testEntry(expires time.Time) *CacheEntry {
	return &CacheEntry{
		Data:       []byte(`[{"id":1}]`),
		ETag:       `W/"abc123"`,
		Expires:    expires,
		StatusCode: 200,
		Headers:    http.Header{"Content-Type": []string{"application/json"}},
		CachedAt:   time.Now(),
	}
}

func TestManager_SetAndGet(t *testing.T) {
	manager := NewManager(setupTestRedis(t))
	ctx := context.Background()
	key := CacheKey{Endpoint: "/notifications", Viewer: "v"}

	entry := testEntry(time.Now().Add(time.Minute))
	if err := manager.Set(ctx, key, entry); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := manager.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got.Data) != string(entry.Data) || got.ETag != entry.ETag || got.StatusCode != 200 {
		t.Errorf("Get() = %+v, want %+v", got, entry)
	}
}

func TestManager_Get_CacheMiss(t *testing.T) {
	manager := NewManager(setupTestRedis(t))

	_, err := manager.Get(context.Background(), CacheKey{Endpoint: "/nonexistent"})
	if !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss, got %v", err)
	}
}

func TestManager_StaleEntryIsRetained(t *testing.T) {
	manager := NewManager(setupTestRedis(t))
	ctx := context.Background()
	key := CacheKey{Endpoint: "/repos/golang/go/issues"}

	if err := manager.Set(ctx, key, testEntry(time.Now().Add(-time.Second))); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := manager.Get(ctx, key)
	if err != nil {
		t.Fatalf("stale entry should be kept for revalidation, got %v", err)
	}
	if !got.IsExpired() {
		t.Error("entry should report stale")
	}
}

func TestManager_ZeroRetentionSkipsStale(t *testing.T) {
	manager := NewManager(setupTestRedis(t), WithRetention(0))
	ctx := context.Background()
	key := CacheKey{Endpoint: "/events"}

	if err := manager.Set(ctx, key, testEntry(time.Now().Add(-time.Second))); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, err := manager.Get(ctx, key); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss, got %v", err)
	}
}

func TestManager_Delete(t *testing.T) {
	manager := NewManager(setupTestRedis(t), WithMemoryLayer(8, time.Minute))
	ctx := context.Background()
	key := CacheKey{Endpoint: "/events"}

	if err := manager.Set(ctx, key, testEntry(time.Now().Add(time.Minute))); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := manager.Delete(ctx, key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := manager.Get(ctx, key); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss after Delete, got %v", err)
	}
}

func TestManager_MemoryLayer(t *testing.T) {
	client := setupTestRedis(t)
	manager := NewManager(client, WithMemoryLayer(8, time.Minute))
	ctx := context.Background()
	key := CacheKey{Endpoint: "/notifications"}

	if err := manager.Set(ctx, key, testEntry(time.Now().Add(time.Minute))); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// Drop the Redis copy; the memory layer still answers.
	if err := client.Del(ctx, key.String()).Err(); err != nil {
		t.Fatalf("del failed: %v", err)
	}
	if _, err := manager.Get(ctx, key); err != nil {
		t.Errorf("memory layer miss: %v", err)
	}
}

func TestManager_UpdateTTL(t *testing.T) {
	manager := NewManager(setupTestRedis(t))
	ctx := context.Background()
	key := CacheKey{Endpoint: "/notifications"}

	if err := manager.Set(ctx, key, testEntry(time.Now().Add(-time.Second))); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	newExpires := time.Now().Add(10 * time.Minute)
	if err := manager.UpdateTTL(ctx, key, newExpires); err != nil {
		t.Fatalf("UpdateTTL failed: %v", err)
	}

	got, err := manager.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get after UpdateTTL failed: %v", err)
	}
	if diff := got.Expires.Sub(newExpires); diff < -time.Second || diff > time.Second {
		t.Errorf("Expires = %v, want %v", got.Expires, newExpires)
	}
	if got.IsExpired() {
		t.Error("entry should be fresh after UpdateTTL")
	}
}

func TestManager_NilEntry(t *testing.T) {
	manager := NewManager(setupTestRedis(t))
	ctx := context.Background()

	if err := manager.Set(ctx, CacheKey{Endpoint: "/x"}, nil); err == nil {
		t.Error("Set with nil entry should return error")
	}
	if err := manager.Revalidate(ctx, CacheKey{Endpoint: "/x"}, nil, time.Now()); err == nil {
		t.Error("Revalidate with nil entry should return error")
	}
}
