package metrics

import (
	"github.com/lecternhq/lectern/pkg/ocr"
)

// NewOCRMetrics creates Prometheus-backed OCR metrics.
//
// Returns nil if metrics are not enabled. The OCR worker treats a nil
// Metrics as a no-op.
func NewOCRMetrics() ocr.Metrics {
	if !IsEnabled() || newPrometheusOCRMetrics == nil {
		return nil
	}
	return newPrometheusOCRMetrics()
}

var newPrometheusOCRMetrics func() ocr.Metrics

// RegisterOCRMetricsConstructor registers the Prometheus OCR metrics
// constructor. Called by pkg/metrics/prometheus.
func RegisterOCRMetricsConstructor(constructor func() ocr.Metrics) {
	newPrometheusOCRMetrics = constructor
}
