package observability

import "github.com/prometheus/client_golang/prometheus"

var (
	questionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "askdb_questions_total",
			Help: "Total number of questions processed by the interactive loop.",
		},
	)

	modelRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askdb_model_requests_total",
			Help: "Total number of language model requests.",
		},
		[]string{"operation", "provider", "outcome"},
	)

	modelRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "askdb_model_request_duration_seconds",
			Help:    "Language model request latency by operation.",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
		},
		[]string{"operation", "provider"},
	)
)

func init() {
	prometheus.MustRegister(questionsTotal, modelRequestsTotal, modelRequestDurationSeconds)
}
