package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// JobsInFlight is the current number of report jobs being processed.
	JobsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "aivisibility",
		Subsystem: "pipeline",
		Name:      "jobs_in_flight",
		Help:      "Current number of report jobs being processed by the worker pool.",
	})

	// JobsTotal counts finished jobs by outcome.
	JobsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aivisibility",
		Subsystem: "pipeline",
		Name:      "jobs_total",
		Help:      "Total number of report jobs processed, labeled by result.",
	}, []string{"result"})

	// JobDurationSeconds is end-to-end time per job, measured inside the worker.
	JobDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "aivisibility",
		Subsystem: "pipeline",
		Name:      "job_duration_seconds",
		Help:      "End-to-end time to process one report job (parse + search + deliver).",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
	}, []string{"result"})

	// RowsTotal counts processed spreadsheet rows by outcome.
	RowsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aivisibility",
		Subsystem: "pipeline",
		Name:      "rows_total",
		Help:      "Total number of query rows processed, labeled by result.",
	}, []string{"result"})

	// SearchDurationSeconds is the latency of one provider search call.
	SearchDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "aivisibility",
		Subsystem: "pipeline",
		Name:      "search_duration_seconds",
		Help:      "Latency of one web-search provider call.",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
	})

	// SubmissionsRejectedTotal counts uploads rejected before a job starts.
	SubmissionsRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aivisibility",
		Subsystem: "http",
		Name:      "submissions_rejected_total",
		Help:      "Total number of rejected upload submissions, labeled by reason.",
	}, []string{"reason"})
)

// Register registers pipeline metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			JobsInFlight,
			JobsTotal,
			JobDurationSeconds,
			RowsTotal,
			SearchDurationSeconds,
			SubmissionsRejectedTotal,
		)
	})
}
