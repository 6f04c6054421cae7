//go:build integration

package ratelimit

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis starts a Redis container and returns a client
func setupRedis(t *testing.T) (*redis.Client, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	endpoint, err := redisContainer.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("Failed to get Redis endpoint: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("Failed to connect to Redis: %v", err)
	}

	cleanup := func() {
		client.Close()
		redisContainer.Terminate(ctx)
	}

	return client, cleanup
}

func rateHeaders(limit, remaining int, resetIn time.Duration, resource string) http.Header {
	h := http.Header{}
	h.Set("X-RateLimit-Limit", strconv.Itoa(limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(resetIn).Unix(), 10))
	if resource != "" {
		h.Set("X-RateLimit-Resource", resource)
	}
	return h
}

func TestTracker_Integration_GetState(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	tracker := NewTracker(redisClient, zerolog.New(os.Stderr).Level(zerolog.Disabled))
	ctx := context.Background()

	state, err := tracker.GetState(ctx, ResourceCore)
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if !state.IsHealthy {
		t.Error("Default state should be healthy")
	}

	if err := tracker.UpdateFromHeaders(ctx, rateHeaders(5000, 4000, 2*time.Minute, "core"), ResourceCore); err != nil {
		t.Fatalf("UpdateFromHeaders() error = %v", err)
	}

	state, err = tracker.GetState(ctx, ResourceCore)
	if err != nil {
		t.Fatalf("GetState() after update error = %v", err)
	}
	if state.Remaining != 4000 || state.Limit != 5000 {
		t.Errorf("Remaining/Limit = %d/%d, want 4000/5000", state.Remaining, state.Limit)
	}

	tolerance := 5 * time.Second
	if d := state.TimeUntilReset(); d < 2*time.Minute-tolerance || d > 2*time.Minute+tolerance {
		t.Errorf("TimeUntilReset = %v, want approximately 2m", d)
	}

	// Search is tracked separately.
	search, err := tracker.GetState(ctx, ResourceSearch)
	if err != nil {
		t.Fatalf("GetState(search) error = %v", err)
	}
	if search.Remaining == 4000 {
		t.Error("search state should not share the core window")
	}
}

func TestTracker_Integration_ShouldAllowRequest(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	tracker := NewTracker(redisClient, zerolog.New(os.Stderr).Level(zerolog.Disabled))
	tracker.SetThrottleDelay(200 * time.Millisecond)
	ctx := context.Background()

	tests := []struct {
		name        string
		remaining   int
		wantAllowed bool
		minDelay    time.Duration
	}{
		{name: "healthy", remaining: 4000, wantAllowed: true},
		{name: "throttled", remaining: 100, wantAllowed: true, minDelay: 150 * time.Millisecond},
		{name: "spent", remaining: 0, wantAllowed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tracker.UpdateFromHeaders(ctx, rateHeaders(5000, tt.remaining, time.Minute, "core"), ResourceCore); err != nil {
				t.Fatalf("UpdateFromHeaders() error = %v", err)
			}

			start := time.Now()
			allowed, err := tracker.ShouldAllowRequest(ctx, ResourceCore)
			if err != nil {
				t.Fatalf("ShouldAllowRequest() error = %v", err)
			}
			if allowed != tt.wantAllowed {
				t.Errorf("ShouldAllowRequest() = %v, want %v", allowed, tt.wantAllowed)
			}
			if d := time.Since(start); d < tt.minDelay {
				t.Errorf("ShouldAllowRequest() took %v, want >= %v", d, tt.minDelay)
			}
		})
	}
}

func TestTracker_Integration_ThrottleHonoursContext(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	tracker := NewTracker(redisClient, zerolog.New(os.Stderr).Level(zerolog.Disabled))
	tracker.SetThrottleDelay(time.Minute)

	if err := tracker.UpdateFromHeaders(context.Background(), rateHeaders(5000, 10, time.Minute, "core"), ResourceCore); err != nil {
		t.Fatalf("UpdateFromHeaders() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	allowed, err := tracker.ShouldAllowRequest(ctx, ResourceCore)
	if err == nil || allowed {
		t.Errorf("ShouldAllowRequest() = %v, %v; want context error", allowed, err)
	}
}
