package prometheus

import (
	"github.com/lecternhq/lectern/pkg/metrics"
)

// init registers the Prometheus constructors with pkg/metrics so the
// nil-returning wrappers there can reach the implementations without an
// import cycle. A blank import of this package is all a binary needs.
func init() {
	metrics.RegisterStorageMetricsConstructor(NewStorageMetrics)
	metrics.RegisterUploadMetricsConstructor(NewUploadMetrics)
	metrics.RegisterJobMetricsConstructor(NewJobMetrics)
	metrics.RegisterOCRMetricsConstructor(NewOCRMetrics)
}
