package jobs

import "github.com/prometheus/client_golang/prometheus"

var (
	jobRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jamkos",
			Name:      "job_runs_total",
			Help:      "Background job runs",
		},
		[]string{"job"},
	)

	jobErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jamkos",
			Name:      "job_errors_total",
			Help:      "Background job errors (including panics)",
		},
		[]string{"job"},
	)

	jobDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "jamkos",
			Name:      "job_duration_seconds",
			Help:      "Background job duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"job"},
	)
)

func init() {
	prometheus.MustRegister(jobRuns, jobErrors, jobDuration)
}
