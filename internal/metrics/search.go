package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Search and profile Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "search_requests_total",
			Help:      "Total search requests by resolved strategy and outcome",
		},
		[]string{"strategy", "status"},
	)

	RetrievalDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "search_retrieval_duration_seconds",
			Help:      "Retrieval backend call duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"op"},
	)

	DegradedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "search_degraded_total",
			Help:      "Requests served without a signal, by reason",
		},
		[]string{"reason"},
	)

	ProfileSnapshotUsers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "profile_snapshot_users",
			Help:      "Number of user profiles in the published snapshot",
		},
	)

	ProfileRebuildTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "profile_rebuild_total",
			Help:      "Profile snapshot rebuilds by outcome",
		},
		[]string{"status"},
	)
)

// Degradation reasons.
const (
	ReasonEmbeddingDisabled = "embedding_disabled"
	ReasonEmbeddingError    = "embedding_error"
	ReasonRateLimited       = "rate_limited"
	ReasonDimMismatch       = "dimension_mismatch"
	ReasonSuggestFailed     = "suggest_failed"
	ReasonProfilesMissing   = "profiles_missing"
)

var searchMetricsOnce sync.Once

// RegisterSearchMetrics registers search and profile metrics with the default registry.
func RegisterSearchMetrics() {
	searchMetricsOnce.Do(func() {
		prometheus.MustRegister(SearchRequestsTotal)
		prometheus.MustRegister(RetrievalDuration)
		prometheus.MustRegister(DegradedTotal)
		prometheus.MustRegister(ProfileSnapshotUsers)
		prometheus.MustRegister(ProfileRebuildTotal)
	})
}
