package ocr

import "time"

// Metrics records OCR worker observations. Implementations live in
// pkg/metrics/prometheus; a nil Metrics disables recording.
type Metrics interface {
	// PagesProcessed records n page images completing inference.
	PagesProcessed(n int)

	// ObserveBatch records the wall time of one inference batch.
	ObserveBatch(d time.Duration)

	// SetModelLoadSeconds records how long the model took to become ready.
	SetModelLoadSeconds(seconds float64)
}
