package metrics

import "github.com/prometheus/client_golang/prometheus"

// Retrieval and answer pipeline metrics.
var (
	SearchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "askdex",
			Name:      "search_total",
			Help:      "Total number of retrieval executions",
		},
		[]string{"mode", "status"},
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "askdex",
			Name:      "search_duration_seconds",
			Help:      "Retrieval duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"mode"},
	)

	RerankDegradedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "askdex",
			Name:      "rerank_degraded_total",
			Help:      "Times the rerank stage failed and pre-rerank order was served",
		},
	)

	AskTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "askdex",
			Name:      "ask_total",
			Help:      "Total ask requests by terminal outcome",
		},
		[]string{"outcome"}, // "done" / "error" / "cancelled"
	)

	CompletionTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "askdex",
			Name:      "completion_tokens_total",
			Help:      "Tokens streamed from the completion provider",
		},
		[]string{"model"},
	)

	IndexSegmentEnabled = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "askdex",
			Name:      "index_segment_enabled",
			Help:      "Whether an index segment deserialized successfully (1/0)",
		},
		[]string{"segment"}, // "lexical" / "vector"
	)
)

var coreMetricsRegistered bool

// RegisterCoreMetrics registers pipeline metrics. Must be called once from main.
func RegisterCoreMetrics() {
	if coreMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchTotal)
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(RerankDegradedTotal)
	prometheus.MustRegister(AskTotal)
	prometheus.MustRegister(CompletionTokensTotal)
	prometheus.MustRegister(IndexSegmentEnabled)
	coreMetricsRegistered = true
}
