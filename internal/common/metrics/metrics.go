package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	RemoteRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "huntflow_requests_total",
			Help: "Recruiting platform requests by response status class",
		},
		[]string{"status_class"},
	)

	RemoteRateLimitWaits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "huntflow_rate_limit_waits_total",
			Help: "Number of 429 responses waited out",
		},
	)

	RemoteTokenRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "huntflow_token_refreshes_total",
			Help: "Token refresh attempts by result",
		},
		[]string{"result"},
	)

	SchemaLoadFaults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schema_load_faults_total",
			Help: "Entity loads that degraded to empty results",
		},
		[]string{"entity"},
	)

	ReportOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "report_outcomes_total",
			Help: "Report requests by terminal state",
		},
		[]string{"state"},
	)

	ReportOracleCalls = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "report_oracle_calls",
			Help:    "Oracle invocations per report request",
			Buckets: []float64{1, 2, 3, 4, 5, 8},
		},
	)

	MetricCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "derived_metric_cache_total",
			Help: "Derived metric result cache lookups by result",
		},
		[]string{"result"},
	)
)

// StatusClass buckets an HTTP status code as 2xx, 4xx and so on.
func StatusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	case code >= 200:
		return "2xx"
	default:
		return "error"
	}
}
