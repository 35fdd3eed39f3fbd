package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/lecternhq/lectern/pkg/metrics"
	"github.com/lecternhq/lectern/pkg/ocr"
)

// ocrMetrics is the Prometheus implementation of ocr.Metrics.
type ocrMetrics struct {
	pagesProcessed prometheus.Counter
	batchDuration  prometheus.Histogram
	modelLoad      prometheus.Gauge
}

// NewOCRMetrics creates Prometheus-backed OCR metrics.
// Returns nil if metrics are not enabled.
func NewOCRMetrics() ocr.Metrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &ocrMetrics{
		pagesProcessed: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "lectern_ocr_pages_processed_total",
				Help: "Total number of page images sent through inference",
			},
		),
		batchDuration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name: "lectern_ocr_batch_duration_seconds",
				Help: "Duration of one OCR inference batch in seconds",
				Buckets: []float64{
					1,
					5,
					15,
					30,
					60,
					120,
					300,
					600,
				},
			},
		),
		modelLoad: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "lectern_ocr_model_load_seconds",
				Help: "Seconds the model took to become ready (0 until loaded)",
			},
		),
	}
}

// PagesProcessed implements ocr.Metrics.
func (m *ocrMetrics) PagesProcessed(n int) {
	m.pagesProcessed.Add(float64(n))
}

// ObserveBatch implements ocr.Metrics.
func (m *ocrMetrics) ObserveBatch(d time.Duration) {
	m.batchDuration.Observe(d.Seconds())
}

// SetModelLoadSeconds implements ocr.Metrics.
func (m *ocrMetrics) SetModelLoadSeconds(seconds float64) {
	m.modelLoad.Set(seconds)
}
