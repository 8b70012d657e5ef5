package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// Latency of the session Start HTTP handler
	SessionStartLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "session_start_latency_seconds",
		Help:    "Latency of session start handler",
		Buckets: prometheus.DefBuckets,
	})

	// Total number of evaluations submitted
	EvaluationsSubmitted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "evaluations_submitted_total",
		Help: "Total number of completed two-phase evaluations",
	})
)

func Init() {
	prometheus.MustRegister(
		SessionStartLatency,
		EvaluationsSubmitted,
	)
}
