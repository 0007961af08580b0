package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// Latency of the recommendation serving handler
	RecommendLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "recommend_serve_latency_seconds",
		Help:    "Latency of recommendation serving requests",
		Buckets: prometheus.DefBuckets,
	})

	// Total number of recommendation lists served, by method and cache outcome
	RecommendRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "recommend_serve_requests_total",
		Help: "Total number of recommendation requests served",
	}, []string{"method", "cached"})

	// Total number of batch training runs triggered
	TrainingRuns = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "training_runs_total",
		Help: "Total number of batch training runs",
	})
)

func Init() {
	prometheus.MustRegister(
		RecommendLatency,
		RecommendRequests,
		TrainingRuns,
	)
}
