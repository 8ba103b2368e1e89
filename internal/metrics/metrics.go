package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheOperations counts cache tier calls by operation and outcome
	// ("hit", "miss", "ok", "error").
	CacheOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "freshness_cache_operations_total",
			Help: "Cache tier operations by operation and result",
		},
		[]string{"op", "result"},
	)

	CacheInvalidatedKeys = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "freshness_cache_invalidated_keys_total",
			Help: "Keys removed by write-triggered invalidation",
		},
		[]string{"scope"}, // "point", "pattern"
	)

	// CacheBreakerState is 0 closed, 1 half-open, 2 open.
	CacheBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "freshness_cache_breaker_state",
			Help: "Circuit breaker state of the cache tier client",
		},
		[]string{"name"},
	)

	WarmPassDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "freshness_warm_pass_duration_seconds",
			Help:    "Duration of cache warm passes",
			Buckets: prometheus.DefBuckets,
		},
	)

	WarmTaskResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "freshness_warm_task_results_total",
			Help: "Warm sub-task outcomes",
		},
		[]string{"task", "result"},
	)

	WarmPassesSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "freshness_warm_passes_skipped_total",
			Help: "Warm passes skipped because another pass was in flight",
		},
	)

	RatingsSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "freshness_ratings_submitted_total",
			Help: "Ratings appended to the ledger",
		},
	)

	ScoreComputations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "freshness_score_computations_total",
			Help: "Score recomputations from the ledger by outcome",
		},
		[]string{"status"}, // "rated", "unrated", "error"
	)
)

// BreakerStateValue maps a breaker state name to the gauge value.
func BreakerStateValue(state string) float64 {
	switch state {
	case "closed":
		return 0
	case "half-open":
		return 1
	case "open":
		return 2
	default:
		return -1
	}
}
