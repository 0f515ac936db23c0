package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Engine Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docdex",
			Name:      "search_requests_total",
			Help:      "Total number of search requests",
		},
		[]string{"mode", "status"},
	)

	SearchRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docdex",
			Name:      "search_request_duration_seconds",
			Help:      "Search request duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"mode"},
	)

	StageDegradedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docdex",
			Name:      "stage_degraded_total",
			Help:      "Requests that completed with a degraded optional stage",
		},
		[]string{"stage"}, // "expand" / "rerank"
	)

	InferenceCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docdex",
			Name:      "inference_calls_total",
			Help:      "Total calls into the shared inference resource",
		},
		[]string{"op", "status"}, // op: "embed" / "rerank" / "expand"
	)

	InferenceCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docdex",
			Name:      "inference_call_duration_seconds",
			Help:      "Inference call duration in seconds, gate wait excluded",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"op"},
	)

	InferenceGateWait = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "docdex",
			Name:      "inference_gate_wait_seconds",
			Help:      "Time spent queued behind the single-access inference gate",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docdex",
			Name:      "embedding_cache_total",
			Help:      "Embedding cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var registerOnce sync.Once

// Register registers engine metrics with the default registry. Called from
// the composition root (no init()); safe under concurrent engine creation.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			SearchRequestsTotal,
			SearchRequestDuration,
			StageDegradedTotal,
			InferenceCallsTotal,
			InferenceCallDuration,
			InferenceGateWait,
			EmbeddingCacheTotal,
		)
	})
}
