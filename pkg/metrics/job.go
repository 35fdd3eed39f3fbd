package metrics

import (
	"github.com/lecternhq/lectern/pkg/job"
)

// NewJobMetrics creates Prometheus-backed job metrics.
//
// Returns nil if metrics are not enabled. The job manager treats a nil
// Metrics as a no-op.
func NewJobMetrics() job.Metrics {
	if !IsEnabled() || newPrometheusJobMetrics == nil {
		return nil
	}
	return newPrometheusJobMetrics()
}

var newPrometheusJobMetrics func() job.Metrics

// RegisterJobMetricsConstructor registers the Prometheus job metrics
// constructor. Called by pkg/metrics/prometheus.
func RegisterJobMetricsConstructor(constructor func() job.Metrics) {
	newPrometheusJobMetrics = constructor
}
