package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/lecternhq/lectern/pkg/metrics"
	"github.com/lecternhq/lectern/pkg/upload"
)

// uploadMetrics is the Prometheus implementation of upload.Metrics.
type uploadMetrics struct {
	chunksReceived prometheus.Counter
	chunkBytes     prometheus.Counter
	activeUploads  prometheus.Gauge
}

// NewUploadMetrics creates Prometheus-backed upload metrics.
// Returns nil if metrics are not enabled.
func NewUploadMetrics() upload.Metrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &uploadMetrics{
		chunksReceived: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "lectern_upload_chunks_received_total",
				Help: "Total number of upload chunks accepted (duplicates excluded)",
			},
		),
		chunkBytes: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "lectern_upload_chunk_bytes_total",
				Help: "Total bytes received across all upload chunks",
			},
		),
		activeUploads: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "lectern_uploads_active",
				Help: "Upload sessions started and not yet assembled",
			},
		),
	}
}

// UploadStarted implements upload.Metrics.
func (m *uploadMetrics) UploadStarted() {
	m.activeUploads.Inc()
}

// ChunkReceived implements upload.Metrics.
func (m *uploadMetrics) ChunkReceived(bytes int64) {
	m.chunksReceived.Inc()
	m.chunkBytes.Add(float64(bytes))
}

// UploadAssembled implements upload.Metrics.
func (m *uploadMetrics) UploadAssembled() {
	m.activeUploads.Dec()
}
