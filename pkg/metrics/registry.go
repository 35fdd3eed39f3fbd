// Package metrics provides Prometheus metrics for the OCR pipeline.
//
// Metrics are opt-in: nothing is collected until InitRegistry is called.
// Constructors in this package return nil when the registry has not been
// initialized, and every instrumented component treats a nil metrics value
// as a no-op. This keeps the disabled path free of any overhead.
//
// The Prometheus implementations live in pkg/metrics/prometheus and register
// themselves via an init hook; callers that want metrics must blank-import
// that package (the start command does).
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	registryMu sync.RWMutex
	registry   *prometheus.Registry
)

// InitRegistry creates the global metrics registry and registers the
// standard Go runtime and process collectors. Idempotent.
func InitRegistry() {
	registryMu.Lock()
	defer registryMu.Unlock()

	if registry != nil {
		return
	}

	registry = prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// GetRegistry returns the global registry, or nil when metrics are disabled.
func GetRegistry() *prometheus.Registry {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return registry
}

// IsEnabled reports whether InitRegistry has been called.
func IsEnabled() bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return registry != nil
}

// Reset discards the global registry so instruments can be re-created.
// Tests that initialize metrics must call this in cleanup; registering the
// same instrument twice on one registry panics.
func Reset() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = nil
}
