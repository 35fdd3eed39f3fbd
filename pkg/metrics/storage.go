package metrics

import (
	"github.com/lecternhq/lectern/pkg/storage"
)

// NewStorageMetrics creates Prometheus-backed storage metrics labeled with
// the backend name ("fs", "s3", "memory").
//
// Returns nil if metrics are not enabled (InitRegistry not called) or the
// Prometheus implementation was not linked in. Callers pass the nil value
// to storage.WithMetrics, which then leaves the store uninstrumented.
func NewStorageMetrics(backend string) storage.Metrics {
	if !IsEnabled() || newPrometheusStorageMetrics == nil {
		return nil
	}
	return newPrometheusStorageMetrics(backend)
}

// newPrometheusStorageMetrics is set by pkg/metrics/prometheus during its
// package initialization. The indirection avoids an import cycle while
// keeping the constructor in this package.
var newPrometheusStorageMetrics func(backend string) storage.Metrics

// RegisterStorageMetricsConstructor registers the Prometheus storage metrics
// constructor. Called by pkg/metrics/prometheus.
func RegisterStorageMetricsConstructor(constructor func(backend string) storage.Metrics) {
	newPrometheusStorageMetrics = constructor
}
