package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Prometheus metrics for rate limit tracking.
var (
	githubRateLimitRemaining = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "github_rate_limit_remaining",
		Help: "Requests remaining in the current GitHub rate limit window",
	}, []string{"resource"})

	githubRateLimitBlocksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "github_rate_limit_blocks_total",
		Help: "Total number of requests blocked because the rate limit window is spent",
	}, []string{"resource"})

	githubRateLimitThrottlesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "github_rate_limit_throttles_total",
		Help: "Total number of requests throttled near the end of the rate limit window",
	}, []string{"resource"})
)

// DefaultThrottleDelay is the pause applied to throttled requests.
const DefaultThrottleDelay = time.Second

// Tracker monitors GitHub rate limits and gates requests.
type Tracker struct {
	redis         *redis.Client
	logger        zerolog.Logger
	throttleDelay time.Duration
}

// NewTracker creates a new rate limit tracker.
func NewTracker(redisClient *redis.Client, logger zerolog.Logger) *Tracker {
	return &Tracker{
		redis:         redisClient,
		logger:        logger,
		throttleDelay: DefaultThrottleDelay,
	}
}

// SetThrottleDelay overrides the pause applied to throttled requests.
func (t *Tracker) SetThrottleDelay(d time.Duration) {
	t.throttleDelay = d
}

// GetState retrieves the rate limit state of resource from Redis.
// Returns a default healthy state if no data exists in Redis.
func (t *Tracker) GetState(ctx context.Context, resource string) (*RateLimitState, error) {
	data, err := t.redis.Get(ctx, redisKey(resource)).Bytes()
	if errors.Is(err, redis.Nil) {
		t.logger.Debug().Str("resource", resource).Msg("No rate limit state in Redis, returning default healthy state")
		return &RateLimitState{
			Resource:   resource,
			Limit:      5000,
			Remaining:  5000, // Assume healthy until we get real data
			ResetAt:    time.Now().Add(time.Hour),
			LastUpdate: time.Now(),
			IsHealthy:  true,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get rate limit state: %w", err)
	}

	var state RateLimitState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parse rate limit state: %w", err)
	}
	state.UpdateHealth()

	return &state, nil
}

// ParseHeaders extracts rate limit state from GitHub response headers.
// Returns nil without error when the response carries no rate limit headers.
func ParseHeaders(headers http.Header, fallbackResource string) (*RateLimitState, error) {
	remainStr := headers.Get("X-RateLimit-Remaining")
	if remainStr == "" {
		return nil, nil
	}

	remain, err := strconv.Atoi(remainStr)
	if err != nil {
		return nil, fmt.Errorf("parse X-RateLimit-Remaining header: %w", err)
	}

	resetStr := headers.Get("X-RateLimit-Reset")
	if resetStr == "" {
		return nil, fmt.Errorf("X-RateLimit-Reset header missing")
	}
	resetEpoch, err := strconv.ParseInt(resetStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse X-RateLimit-Reset header: %w", err)
	}

	limit := 0
	if limitStr := headers.Get("X-RateLimit-Limit"); limitStr != "" {
		if limit, err = strconv.Atoi(limitStr); err != nil {
			return nil, fmt.Errorf("parse X-RateLimit-Limit header: %w", err)
		}
	}

	resource := headers.Get("X-RateLimit-Resource")
	if resource == "" {
		resource = fallbackResource
	}

	state := &RateLimitState{
		Resource:   resource,
		Limit:      limit,
		Remaining:  remain,
		ResetAt:    time.Unix(resetEpoch, 0),
		LastUpdate: time.Now(),
	}
	state.UpdateHealth()
	return state, nil
}

// UpdateFromHeaders parses GitHub rate limit headers and updates Redis state.
func (t *Tracker) UpdateFromHeaders(ctx context.Context, headers http.Header, fallbackResource string) error {
	state, err := ParseHeaders(headers, fallbackResource)
	if err != nil || state == nil {
		return err
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal rate limit state: %w", err)
	}

	// Keep the state a little past the reset so a spent window still blocks.
	ttl := state.TimeUntilReset() + time.Minute
	if err := t.redis.Set(ctx, redisKey(state.Resource), data, ttl).Err(); err != nil {
		return fmt.Errorf("store rate limit state in redis: %w", err)
	}

	githubRateLimitRemaining.WithLabelValues(state.Resource).Set(float64(state.Remaining))

	switch {
	case state.NeedsCriticalBlock():
		t.logger.Error().
			Str("resource", state.Resource).
			Time("reset_at", state.ResetAt).
			Msg("GitHub rate limit spent - requests will be blocked")
	case state.NeedsThrottling():
		t.logger.Warn().
			Str("resource", state.Resource).
			Int("remaining", state.Remaining).
			Int("limit", state.Limit).
			Msg("GitHub rate limit low - requests will be throttled")
	default:
		t.logger.Debug().
			Str("resource", state.Resource).
			Int("remaining", state.Remaining).
			Time("reset_at", state.ResetAt).
			Msg("GitHub rate limit state updated")
	}

	return nil
}

// ShouldAllowRequest checks if a request against resource should be sent.
// Returns false if the window is spent. Throttled requests are delayed
// before returning true.
func (t *Tracker) ShouldAllowRequest(ctx context.Context, resource string) (bool, error) {
	state, err := t.GetState(ctx, resource)
	if err != nil {
		return false, fmt.Errorf("get rate limit state: %w", err)
	}

	if state.NeedsCriticalBlock() {
		t.logger.Error().
			Str("resource", resource).
			Dur("wait_duration", state.TimeUntilReset()).
			Msg("GitHub rate limit spent - blocking request")

		githubRateLimitBlocksTotal.WithLabelValues(resource).Inc()
		return false, nil
	}

	if state.NeedsThrottling() {
		t.logger.Warn().
			Str("resource", resource).
			Int("remaining", state.Remaining).
			Msg("GitHub rate limit low - throttling request")

		githubRateLimitThrottlesTotal.WithLabelValues(resource).Inc()
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(t.throttleDelay):
		}
	}

	return true, nil
}
