package snapshot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SnapshotsCleared tracks snapshots dropped after live data arrived
	SnapshotsCleared = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ghlist_snapshot_clears_total",
			Help: "Total number of cache snapshots cleared by a first page arrival",
		},
	)

	// StoreOps tracks snapshot store operations
	StoreOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ghlist_snapshot_store_ops_total",
			Help: "Total number of snapshot store operations by operation and outcome",
		},
		[]string{"operation", "outcome"}, // "save"/"load"/"delete", "ok"/"hit"/"miss"/"error"
	)

	// WarmJobs tracks warmer jobs by outcome
	WarmJobs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ghlist_snapshot_warm_jobs_total",
			Help: "Total number of snapshot warm jobs by outcome",
		},
		[]string{"outcome"}, // "stored", "empty", "failed"
	)
)
