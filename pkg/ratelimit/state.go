// Package ratelimit implements GitHub rate limit tracking and request gating.
// It monitors the X-RateLimit-Remaining and X-RateLimit-Reset headers per
// rate limit resource so callers stop before GitHub starts rejecting requests.
package ratelimit

import (
	"strings"
	"time"
)

// Redis keys for rate limit state storage. Each key is suffixed with the
// rate limit resource ("core", "search", ...).
const (
	RedisKeyPrefix = "github:rate_limit"
)

// Resources reported in X-RateLimit-Resource.
const (
	ResourceCore   = "core"
	ResourceSearch = "search"
)

// Thresholds for rate limit decisions, as a share of the window's limit.
const (
	// ThrottleRatio applies throttling when the remaining share falls below it.
	ThrottleRatio = 0.10

	// HealthyRatio indicates normal operation at or above this share.
	HealthyRatio = 0.50
)

// RateLimitState represents the current rate limit window of one resource.
// This state is shared across all client instances via Redis.
type RateLimitState struct {
	// Resource is the rate limit bucket (X-RateLimit-Resource).
	Resource string `json:"resource"`

	// Limit is the window size (X-RateLimit-Limit).
	Limit int `json:"limit"`

	// Remaining is the number of requests left in the window (X-RateLimit-Remaining).
	Remaining int `json:"remaining"`

	// ResetAt is when the window resets (X-RateLimit-Reset, epoch seconds).
	ResetAt time.Time `json:"reset_at"`

	// LastUpdate is when this state was last updated.
	LastUpdate time.Time `json:"last_update"`

	// IsHealthy is true when Remaining >= HealthyRatio of Limit.
	IsHealthy bool `json:"is_healthy"`
}

// IsStale returns true if the state data is older than the given duration.
func (s *RateLimitState) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}

// NeedsCriticalBlock returns true if the window is spent and has not reset yet.
func (s *RateLimitState) NeedsCriticalBlock() bool {
	return s.Remaining <= 0 && s.TimeUntilReset() > 0
}

// NeedsThrottling returns true if requests should be slowed down.
func (s *RateLimitState) NeedsThrottling() bool {
	if s.Limit <= 0 || s.NeedsCriticalBlock() {
		return false
	}
	return float64(s.Remaining) < float64(s.Limit)*ThrottleRatio
}

// TimeUntilReset returns the duration until the window resets.
// Returns 0 if the reset time has already passed.
func (s *RateLimitState) TimeUntilReset() time.Duration {
	duration := time.Until(s.ResetAt)
	if duration < 0 {
		return 0
	}
	return duration
}

// UpdateHealth updates the IsHealthy field based on Remaining and Limit.
func (s *RateLimitState) UpdateHealth() {
	if s.Limit <= 0 {
		s.IsHealthy = s.Remaining > 0
		return
	}
	s.IsHealthy = float64(s.Remaining) >= float64(s.Limit)*HealthyRatio
}

// ResourceForPath maps a GitHub API path to its rate limit resource.
func ResourceForPath(path string) string {
	if strings.HasPrefix(strings.TrimPrefix(path, "/api/v3"), "/search/") {
		return ResourceSearch
	}
	return ResourceCore
}

func redisKey(resource string) string {
	if resource == "" {
		resource = ResourceCore
	}
	return RedisKeyPrefix + ":" + resource
}
