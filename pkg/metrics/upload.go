package metrics

import (
	"github.com/lecternhq/lectern/pkg/upload"
)

// NewUploadMetrics creates Prometheus-backed upload metrics.
//
// Returns nil if metrics are not enabled. The assembler treats a nil
// Metrics as a no-op.
func NewUploadMetrics() upload.Metrics {
	if !IsEnabled() || newPrometheusUploadMetrics == nil {
		return nil
	}
	return newPrometheusUploadMetrics()
}

var newPrometheusUploadMetrics func() upload.Metrics

// RegisterUploadMetricsConstructor registers the Prometheus upload metrics
// constructor. Called by pkg/metrics/prometheus.
func RegisterUploadMetricsConstructor(constructor func() upload.Metrics) {
	newPrometheusUploadMetrics = constructor
}
