// Package metrics exposes the Prometheus registry shared by all ghlist packages.
// All metrics are defined in their respective packages (pagination, snapshot,
// client, cache, ratelimit) to maintain modularity and avoid circular dependencies.
//
// This package provides the catalogue of available metrics and the HTTP
// handler serving them.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the Prometheus registerer used by ghlist.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the Prometheus gatherer paired with Registry.
var Gatherer = prometheus.DefaultGatherer

// Handler returns the /metrics handler for Gatherer.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Paging Metrics (pkg/pagination):
//   - ghlist_page_loads_total{feed, outcome} (Counter): Completed page loads (loaded, transport, http, empty_body, discarded)
//   - ghlist_page_load_duration_seconds{feed} (Histogram): Page load duration
//   - ghlist_mapping_skipped_total{feed} (Counter): Raw items dropped by the transformer
//   - ghlist_first_page_arrivals_total{feed} (Counter): Sessions whose first non-empty page arrived
//   - ghlist_rejected_loads_total{feed, reason} (Counter): Loads refused (busy, exhausted, closed)
//
// Snapshot Metrics (pkg/snapshot):
//   - ghlist_snapshot_clears_total (Counter): Snapshots dropped by a first page arrival
//   - ghlist_snapshot_store_ops_total{operation, outcome} (Counter): Redis snapshot operations
//   - ghlist_snapshot_warm_jobs_total{outcome} (Counter): Warm jobs (stored, empty, failed)
//
// Rate Limit Metrics (pkg/ratelimit):
//   - github_rate_limit_remaining{resource} (Gauge): Requests remaining in the current window
//   - github_rate_limit_blocks_total{resource} (Counter): Requests blocked on a spent window
//   - github_rate_limit_throttles_total{resource} (Counter): Requests delayed on a low window
//
// Cache Metrics (pkg/cache):
//   - github_cache_hits_total{layer} (Counter): Cache hits by layer (memory, redis)
//   - github_cache_misses_total (Counter): Cache misses
//   - github_cache_size_bytes{layer} (Gauge): Bytes written by layer
//   - github_304_responses_total (Counter): 304 Not Modified responses
//   - github_conditional_requests_total (Counter): Conditional requests sent with If-None-Match
//   - github_cache_errors_total{operation} (Counter): Cache operation errors
//
// Request Metrics (pkg/client):
//   - github_requests_total{endpoint, status} (Counter): Requests by endpoint and HTTP status
//   - github_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - github_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network)
//
// Retry Metrics (pkg/client):
//   - github_retries_total{error_class} (Counter): Retry attempts by error class
//   - github_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - github_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(github_cache_hits_total[5m])) /
//   (sum(rate(github_cache_hits_total[5m])) + sum(rate(github_cache_misses_total[5m])))
//
//   # Core window nearly spent
//   github_rate_limit_remaining{resource="core"} < 500
//
//   # Failed page loads per feed
//   sum by (feed) (rate(ghlist_page_loads_total{outcome!="loaded"}[5m]))
//
//   # P95 Page Load Latency
//   histogram_quantile(0.95, rate(ghlist_page_load_duration_seconds_bucket[5m]))
//
//   # 304 Response Rate
//   rate(github_304_responses_total[5m]) / rate(github_requests_total[5m])
