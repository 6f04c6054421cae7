package pagination

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PageLoads tracks completed page loads by feed and outcome
	PageLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ghlist_page_loads_total",
			Help: "Total number of completed page loads",
		},
		[]string{"feed", "outcome"}, // "loaded", "transport", "http", "empty_body", "discarded"
	)

	// PageLoadDuration tracks fetch + transform latency by feed
	PageLoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ghlist_page_load_duration_seconds",
			Help:    "Page load duration in seconds by feed",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"feed"},
	)

	// MappingSkipped tracks raw items dropped by a transformer
	MappingSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ghlist_mapping_skipped_total",
			Help: "Total number of raw items dropped because they could not be mapped",
		},
		[]string{"feed"},
	)

	// FirstPageArrivals tracks first-page-arrival signals
	FirstPageArrivals = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ghlist_first_page_arrivals_total",
			Help: "Total number of sessions whose first non-empty page arrived",
		},
		[]string{"feed"},
	)

	// RejectedLoads tracks load requests refused without fetching
	RejectedLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ghlist_rejected_loads_total",
			Help: "Total number of load requests refused by the controller",
		},
		[]string{"feed", "reason"}, // "busy", "exhausted", "closed"
	)
)
