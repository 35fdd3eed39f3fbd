// Package prometheus contains the Prometheus implementations of the
// pipeline's metrics interfaces. Importing it (a blank import is enough)
// registers the constructors with pkg/metrics.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/lecternhq/lectern/pkg/metrics"
	"github.com/lecternhq/lectern/pkg/storage"
)

// storageMetrics is the Prometheus implementation of storage.Metrics.
type storageMetrics struct {
	backend           string
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
}

// NewStorageMetrics creates Prometheus-backed storage metrics for one
// backend. Returns nil if metrics are not enabled.
func NewStorageMetrics(backend string) storage.Metrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &storageMetrics{
		backend: backend,
		operationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "lectern_storage_operations_total",
				Help: "Total number of object store operations by backend, operation and status",
			},
			[]string{"backend", "operation", "status"},
		),
		operationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "lectern_storage_operation_duration_milliseconds",
				Help: "Duration of object store operations in milliseconds",
				Buckets: []float64{
					1,     // 1ms - memory backend, fs metadata
					10,    // 10ms - fs writes
					50,    // 50ms - small objects
					100,   // 100ms
					500,   // 500ms - page images over the network
					1000,  // 1s
					5000,  // 5s - large documents
					30000, // 30s - chunk write deadline
				},
			},
			[]string{"backend", "operation"},
		),
	}
}

// ObserveOperation implements storage.Metrics.
func (m *storageMetrics) ObserveOperation(operation string, d time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.operationsTotal.WithLabelValues(m.backend, operation, status).Inc()
	m.operationDuration.WithLabelValues(m.backend, operation).Observe(float64(d.Milliseconds()))
}
