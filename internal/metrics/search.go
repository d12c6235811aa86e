package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search and result cache Prometheus metrics.
var (
	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "refdex",
			Name:      "searches_total",
			Help:      "Total number of searches by ranking mode and outcome",
		},
		[]string{"mode", "outcome"}, // outcome: ok / invalid / no_match / error
	)

	ModelLockWaitSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "refdex",
			Name:      "model_lock_wait_seconds",
			Help:      "Time spent waiting for the embedding model lock",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	ScoringDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "refdex",
			Name:      "scoring_duration_seconds",
			Help:      "Time spent scoring a query embedding against the catalog",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)

	ResultCacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "refdex",
			Name:      "result_cache_lookups_total",
			Help:      "Result cache lookups by outcome",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	ResultCacheEvictionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "refdex",
			Name:      "result_cache_evictions_total",
			Help:      "Result sets evicted from the result cache",
		},
	)

	ResultCacheEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "refdex",
			Name:      "result_cache_entries",
			Help:      "Live entries in the result cache",
		},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers search and result cache metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchesTotal)
	prometheus.MustRegister(ModelLockWaitSeconds)
	prometheus.MustRegister(ScoringDuration)
	prometheus.MustRegister(ResultCacheLookupsTotal)
	prometheus.MustRegister(ResultCacheEvictionsTotal)
	prometheus.MustRegister(ResultCacheEntries)
	searchMetricsRegistered = true
}
