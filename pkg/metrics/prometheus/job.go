package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/lecternhq/lectern/pkg/job"
	"github.com/lecternhq/lectern/pkg/metrics"
)

// jobMetrics is the Prometheus implementation of job.Metrics.
type jobMetrics struct {
	created     *prometheus.CounterVec
	completed   *prometheus.CounterVec
	failed      *prometheus.CounterVec
	jobDuration *prometheus.HistogramVec
}

// NewJobMetrics creates Prometheus-backed job metrics.
// Returns nil if metrics are not enabled.
func NewJobMetrics() job.Metrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &jobMetrics{
		created: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "lectern_jobs_created_total",
				Help: "Total number of jobs created by type",
			},
			[]string{"job_type"},
		),
		completed: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "lectern_jobs_completed_total",
				Help: "Total number of jobs completed successfully by type",
			},
			[]string{"job_type"},
		),
		failed: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "lectern_jobs_failed_total",
				Help: "Total number of jobs that ended in failure by type",
			},
			[]string{"job_type"},
		),
		jobDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "lectern_job_duration_seconds",
				Help: "End-to-end duration of a single job execution in seconds",
				Buckets: []float64{
					0.1, // trivial batches on the memory backend
					1,
					5,
					15,
					30,  // one extract batch
					60,  // one OCR batch on CPU
					120,
					300, // model load wait
					600, // remote dispatch deadline
				},
			},
			[]string{"job_type"},
		),
	}
}

// JobCreated implements job.Metrics.
func (m *jobMetrics) JobCreated(jobType string) {
	m.created.WithLabelValues(jobType).Inc()
}

// JobCompleted implements job.Metrics.
func (m *jobMetrics) JobCompleted(jobType string, d time.Duration) {
	m.completed.WithLabelValues(jobType).Inc()
	m.jobDuration.WithLabelValues(jobType).Observe(d.Seconds())
}

// JobFailed implements job.Metrics.
func (m *jobMetrics) JobFailed(jobType string, d time.Duration) {
	m.failed.WithLabelValues(jobType).Inc()
	m.jobDuration.WithLabelValues(jobType).Observe(d.Seconds())
}
