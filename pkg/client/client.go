// Package client provides the GitHub HTTP transport with rate limiting,
// caching, retries and metrics, and builds go-github clients on top of it.
package client

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/ghlist/pkg/cache"
	"github.com/Sternrassler/ghlist/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// Prometheus metrics for GitHub requests.
var (
	githubRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "github_requests_total",
		Help: "Total GitHub requests by endpoint and status",
	}, []string{"endpoint", "status"})

	githubRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "github_request_duration_seconds",
		Help:    "GitHub request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	githubErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "github_errors_total",
		Help: "Total GitHub errors by class",
	}, []string{"class"})
)

// Config holds the transport configuration.
type Config struct {
	// Redis client for caching and rate limit state
	Redis *redis.Client

	// User-Agent header (GitHub rejects requests without one)
	UserAgent string

	// Viewer scopes cached responses to one token (see ViewerID)
	Viewer string

	// Rate Limiting
	RateLimit float64 // Client-side pacing in requests per second, 0 disables
	Burst     int

	// Caching
	MemoryCacheTTL  time.Duration // In-memory cache TTL, 0 disables the memory layer
	MemoryCacheSize int
	CacheRetention  time.Duration // How long stale entries are kept for revalidation

	// Retry
	MaxRetries     int
	InitialBackoff time.Duration

	// Timeout applies to the whole http.Client request
	Timeout time.Duration

	// Base is the underlying transport (http.DefaultTransport when nil)
	Base http.RoundTripper
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(redis *redis.Client, userAgent string) Config {
	return Config{
		Redis:           redis,
		UserAgent:       userAgent,
		RateLimit:       10,
		Burst:           5,
		MemoryCacheTTL:  60 * time.Second,
		MemoryCacheSize: cache.DefaultMemoryEntries,
		CacheRetention:  cache.DefaultRetention,
		MaxRetries:      2,
		InitialBackoff:  1 * time.Second,
		Timeout:         30 * time.Second,
	}
}

// retryPolicy applies MaxRetries and InitialBackoff over the per-class defaults.
func (c Config) retryPolicy() RetryPolicy {
	return func(class ErrorClass) RetryConfig {
		rc := RetryConfigForErrorClass(class)
		if c.MaxRetries > 0 {
			rc.MaxAttempts = c.MaxRetries + 1
		}
		if c.InitialBackoff > 0 && class != ErrorClassRateLimit {
			rc.InitialBackoff = c.InitialBackoff
		}
		return rc
	}
}

// Transport is an http.RoundTripper for the GitHub REST API.
type Transport struct {
	base        http.RoundTripper
	rateLimiter *ratelimit.Tracker
	cache       *cache.Manager
	pacer       *rate.Limiter
	retry       RetryPolicy
	config      Config
	logger      zerolog.Logger
}

// NewTransport creates a GitHub transport.
func NewTransport(cfg Config) (*Transport, error) {
	if cfg.Redis == nil {
		return nil, fmt.Errorf("redis client is required")
	}

	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.RateLimit < 0 {
		return nil, fmt.Errorf("rate_limit must be >= 0 (got %v)", cfg.RateLimit)
	}

	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("max_retries must be >= 0 (got %d)", cfg.MaxRetries)
	}

	logger := log.With().Str("component", "github-transport").Logger()

	base := cfg.Base
	if base == nil {
		base = http.DefaultTransport
	}

	var pacer *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		pacer = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &Transport{
		base:        base,
		rateLimiter: ratelimit.NewTracker(cfg.Redis, logger),
		cache: cache.NewManager(cfg.Redis,
			cache.WithMemoryLayer(cfg.MemoryCacheSize, cfg.MemoryCacheTTL),
			cache.WithRetention(cfg.CacheRetention),
		),
		pacer:  pacer,
		retry:  cfg.retryPolicy(),
		config: cfg,
		logger: logger,
	}, nil
}

// RoundTrip performs a request with rate limiting, caching, and retries.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	endpoint := endpointLabel(req.URL.Path)
	resource := ratelimit.ResourceForPath(req.URL.Path)

	startTime := time.Now()
	defer func() {
		githubRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	// Step 1: Check cache
	cacheable := req.Method == http.MethodGet
	cacheKey := cache.CacheKey{
		Endpoint:    req.URL.Path,
		QueryParams: req.URL.Query(),
		Viewer:      t.config.Viewer,
	}

	var cachedEntry *cache.CacheEntry
	if cacheable {
		entry, err := t.cache.Get(ctx, cacheKey)
		if err != nil && err != cache.ErrCacheMiss {
			t.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Cache get error")
		}
		if entry != nil && !entry.IsExpired() {
			githubRequestsTotal.WithLabelValues(endpoint, "cached").Inc()
			t.logger.Debug().Str("endpoint", endpoint).Msg("Serving fresh cache entry")
			return cache.EntryToResponse(entry, req), nil
		}
		cachedEntry = entry
	}

	// Step 2: Client-side pacing
	if t.pacer != nil {
		if err := t.pacer.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate pacing: %w", err)
		}
	}

	// Step 3: Check shared rate limit state
	allowed, err := t.rateLimiter.ShouldAllowRequest(ctx, resource)
	if err != nil {
		t.logger.Error().Err(err).Msg("Rate limit check failed")
		return nil, fmt.Errorf("rate limit check: %w", err)
	}
	if !allowed {
		t.logger.Warn().
			Str("endpoint", endpoint).
			Str("resource", resource).
			Msg("Request blocked by rate limiter")
		githubRequestsTotal.WithLabelValues(endpoint, "rate_limited").Inc()
		return nil, ErrRateLimited
	}

	// Step 4: Build the outgoing request; a RoundTripper must not modify req
	outReq := req.Clone(ctx)
	outReq.Header.Set("User-Agent", t.config.UserAgent)
	if outReq.Header.Get("Accept") == "" {
		outReq.Header.Set("Accept", "application/vnd.github.v3+json")
	}
	if cachedEntry != nil && cache.ShouldMakeConditionalRequest(cachedEntry) {
		cache.AddConditionalHeaders(outReq, cachedEntry)
		cache.ConditionalRequestsSent.Inc()
		t.logger.Debug().
			Str("endpoint", endpoint).
			Str("etag", cachedEntry.ETag).
			Msg("Making conditional request")
	}

	idempotent := req.Method == http.MethodGet || req.Method == http.MethodHead

	// Step 5: Execute with retry logic
	var resp *http.Response
	retryErr := retryWithBackoff(ctx, t.logger, t.retry, func(attempt int) (ErrorClass, error) {
		if resp != nil {
			drainAndClose(resp.Body)
			resp = nil
		}

		attemptReq := outReq
		if attempt > 1 && outReq.GetBody != nil {
			body, err := outReq.GetBody()
			if err != nil {
				return "", fmt.Errorf("rewind request body: %w", err)
			}
			attemptReq = outReq.Clone(ctx)
			attemptReq.Body = body
		}

		r, reqErr := t.base.RoundTrip(attemptReq)
		if reqErr != nil {
			t.logger.Error().Err(reqErr).Str("endpoint", endpoint).Msg("HTTP request failed")
			githubErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			githubRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
			if !idempotent {
				return "", reqErr
			}
			return ErrorClassNetwork, reqErr
		}
		resp = r

		if err := t.rateLimiter.UpdateFromHeaders(ctx, r.Header, resource); err != nil {
			t.logger.Warn().Err(err).Msg("Failed to update rate limit from headers")
		}

		if r.StatusCode >= 400 {
			errClass := classifyResponse(r)
			githubErrorsTotal.WithLabelValues(string(errClass)).Inc()
			githubRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(r.StatusCode)).Inc()

			t.logger.Warn().
				Str("endpoint", endpoint).
				Int("status", r.StatusCode).
				Str("error_class", string(errClass)).
				Msg("GitHub request error")

			if idempotent && shouldRetry(errClass) {
				return errClass, &GitHubError{
					StatusCode: r.StatusCode,
					ErrorClass: errClass,
					Message:    r.Status,
					RetryAfter: retryAfter(r.Header),
				}
			}
			// Client errors are returned as-is for go-github to decode
			return "", nil
		}

		githubRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(r.StatusCode)).Inc()
		return "", nil
	})

	if retryErr != nil {
		// Retries of HTTP errors are exhausted: hand back the last response
		// so the caller sees GitHub's status and message.
		if resp != nil && errors.Is(retryErr, ErrRetryExhausted) {
			return resp, nil
		}
		if resp != nil {
			drainAndClose(resp.Body)
		}
		return nil, retryErr
	}

	// Step 6: Handle 304 Not Modified
	if resp.StatusCode == http.StatusNotModified && cachedEntry != nil {
		t.logger.Debug().Str("endpoint", endpoint).Msg("304 Not Modified - using cache")
		cache.NotModifiedResponses.Inc()

		if err := t.cache.Revalidate(ctx, cacheKey, cachedEntry, cache.ExpiresFromHeaders(resp.Header)); err != nil {
			t.logger.Warn().Err(err).Msg("Failed to revalidate cache entry")
		}

		cached := cache.EntryToResponse(cachedEntry, req)
		for name, values := range resp.Header {
			if strings.HasPrefix(name, "X-Ratelimit-") {
				cached.Header[name] = values
			}
		}
		drainAndClose(resp.Body)
		return cached, nil
	}

	// Step 7: Update cache on success
	if cacheable && resp.StatusCode == http.StatusOK {
		entry, err := cache.ResponseToEntry(resp)
		if err != nil {
			t.logger.Warn().Err(err).Msg("Failed to create cache entry")
		} else if err := t.cache.Set(ctx, cacheKey, entry); err != nil {
			t.logger.Warn().Err(err).Msg("Failed to cache response")
		} else {
			t.logger.Debug().
				Str("endpoint", endpoint).
				Dur("ttl", entry.TTL()).
				Msg("Cached response")
		}
	}

	return resp, nil
}

// Cache returns the cache manager.
func (t *Transport) Cache() *cache.Manager {
	return t.cache
}

// RateLimiter returns the rate limit tracker.
func (t *Transport) RateLimiter() *ratelimit.Tracker {
	return t.rateLimiter
}

// NewHTTPClient builds an http.Client for GitHub. The token is attached by an
// oauth2 transport in front of the GitHub transport; an empty token makes
// anonymous requests.
func NewHTTPClient(cfg Config, token string) (*http.Client, error) {
	if token != "" && cfg.Viewer == "" {
		cfg.Viewer = ViewerID(token)
	}

	tr, err := NewTransport(cfg)
	if err != nil {
		return nil, err
	}

	var rt http.RoundTripper = tr
	if token != "" {
		rt = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
			Base:   tr,
		}
	}

	return &http.Client{
		Transport: rt,
		Timeout:   cfg.Timeout,
	}, nil
}

// ViewerID derives a stable, non-reversible cache scope from a token.
func ViewerID(token string) string {
	if token == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:8])
}

var numericSegment = regexp.MustCompile(`^[0-9]+$`)

// endpointLabel reduces a path to a low-cardinality metric label.
//
//	/repos/golang/go/issues/42/comments -> /repos/{owner}/{repo}/issues/{n}/comments
//	/users/octocat/received_events      -> /users/{user}/received_events
func endpointLabel(path string) string {
	segments := strings.Split(strings.Trim(strings.TrimPrefix(path, "/api/v3"), "/"), "/")
	if len(segments) == 0 || segments[0] == "" {
		return "/"
	}

	switch segments[0] {
	case "repos":
		if len(segments) > 1 {
			segments[1] = "{owner}"
		}
		if len(segments) > 2 {
			segments[2] = "{repo}"
		}
	case "users", "orgs":
		if len(segments) > 1 {
			segments[1] = "{" + strings.TrimSuffix(segments[0], "s") + "}"
		}
	}

	for i, s := range segments {
		if numericSegment.MatchString(s) {
			segments[i] = "{n}"
		}
	}

	return "/" + strings.Join(segments, "/")
}

func drainAndClose(body io.ReadCloser) {
	if body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 64<<10))
	body.Close()
}
