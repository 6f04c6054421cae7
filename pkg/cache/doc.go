// Package cache provides GitHub API response caching.
//
// The cache manager keeps responses in Redis, optionally fronted by an
// in-process LRU (hashicorp/golang-lru expirable), and supports:
//
//   - Freshness from Cache-Control max-age (GitHub sends max-age=60)
//   - ETag support for conditional requests (If-None-Match)
//   - Last-Modified support (If-Modified-Since)
//   - Retention of stale entries so they can be revalidated
//   - Prometheus metrics for observability
//   - Deterministic, viewer-scoped cache keys
//
// GitHub does not count 304 Not Modified answers against the rate limit, so
// revalidating a stale entry is preferred over refetching it.
//
// # Basic Usage
//
//	manager := cache.NewManager(redisClient, cache.WithMemoryLayer(512, time.Minute))
//
//	key := cache.CacheKey{
//		Endpoint:    "/repos/golang/go/issues",
//		QueryParams: url.Values{"state": []string{"open"}},
//		Viewer:      viewer,
//	}
//
//	entry, err := manager.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch from GitHub
//	}
//
// # Conditional Requests
//
//	if entry.IsExpired() && cache.ShouldMakeConditionalRequest(entry) {
//		cache.AddConditionalHeaders(req, entry)
//	}
//
// On 304, Revalidate extends freshness and EntryToResponse rebuilds the
// response, Link header included, for the caller.
//
// # Metrics
//
//   - github_cache_hits_total{layer} - Cache hits (memory, redis)
//   - github_cache_misses_total - Cache misses
//   - github_cache_size_bytes{layer} - Bytes written
//   - github_conditional_requests_total - Conditional requests sent
//   - github_304_responses_total - Conditional request successes
//   - github_cache_errors_total{operation} - Cache operation errors
package cache
