package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

var (
	queryExecutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askdb_query_executions_total",
			Help: "Total number of generated SQL statements executed.",
		},
		[]string{"outcome"},
	)
	queryDurationMs = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "askdb_query_duration_ms",
			Help:    "Generated SQL execution latency in milliseconds.",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000},
		},
	)
	queryRowsReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "askdb_query_rows_returned",
			Help:    "Rows returned per executed statement.",
			Buckets: []float64{0, 1, 5, 10, 50, 100, 500, 1000},
		},
	)
	sqlExtractionFallbackTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "askdb_sql_extraction_fallback_total",
			Help: "Total number of model responses with neither a fenced SQL block nor a SELECT statement.",
		},
	)
	emailsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askdb_emails_total",
			Help: "Total number of emails by stage and outcome.",
		},
		[]string{"stage", "outcome"},
	)
	exportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askdb_exports_total",
			Help: "Total number of result exports by target and outcome.",
		},
		[]string{"target", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		queryExecutionsTotal,
		queryDurationMs,
		queryRowsReturned,
		sqlExtractionFallbackTotal,
		emailsTotal,
		exportsTotal,
	)
}

func IncrementQuestions() {
	questionsTotal.Inc()
}

func ObserveModelRequest(operation, provider string, elapsed time.Duration, err error) {
	modelRequestsTotal.WithLabelValues(operation, provider, outcome(err)).Inc()
	modelRequestDurationSeconds.WithLabelValues(operation, provider).Observe(elapsed.Seconds())
}

func ObserveQuery(rows int, elapsed time.Duration, err error) {
	queryExecutionsTotal.WithLabelValues(outcome(err)).Inc()
	if err != nil {
		return
	}
	queryDurationMs.Observe(float64(elapsed.Milliseconds()))
	if rows < 0 {
		rows = 0
	}
	queryRowsReturned.Observe(float64(rows))
}

func IncrementExtractionFallback() {
	sqlExtractionFallbackTotal.Inc()
}

// ObserveEmail records a draft, refine or send attempt.
func ObserveEmail(stage string, err error) {
	emailsTotal.WithLabelValues(stage, outcome(err)).Inc()
}

func ObserveExport(target string, err error) {
	exportsTotal.WithLabelValues(target, outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}
