package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/lecternhq/lectern/pkg/ocr"
	"github.com/lecternhq/lectern/pkg/storage"
)

// HealthHandler handles health check endpoints.
//
// Health endpoints are unauthenticated and provide:
//   - Liveness probe: Is the server process running?
//   - Readiness probe: Is the server ready to accept requests?
type HealthHandler struct {
	gateway *storage.Gateway
	worker  *ocr.Worker
	version string
	started time.Time
}

// NewHealthHandler creates a new health handler.
//
// The worker may be nil on deployments that run no model; readiness then
// reports storage health alone.
func NewHealthHandler(gateway *storage.Gateway, worker *ocr.Worker, version string) *HealthHandler {
	return &HealthHandler{
		gateway: gateway,
		worker:  worker,
		version: version,
		started: time.Now().UTC(),
	}
}

// Liveness handles GET /health - simple liveness probe.
//
// Returns 200 OK if the server process is running. This endpoint is designed
// for Kubernetes liveness probes and should always succeed as long as the
// HTTP server is responsive. The uptime fields feed the status CLI.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(h.started)
	writeJSON(w, http.StatusOK, healthyResponse(map[string]interface{}{
		"service":    "lectern",
		"version":    h.version,
		"started_at": h.started.Format(time.RFC3339),
		"uptime":     uptime.Round(time.Second).String(),
		"uptime_sec": int64(uptime.Seconds()),
	}))
}

// Readiness handles GET /health/ready - readiness probe.
//
// Returns 200 OK if the storage backend answers. The model state is
// reported but does not gate readiness: in local mode the model loads
// lazily, and holding the whole API unready until the first OCR batch
// would block uploads that do not need it yet.
//
// Returns 503 Service Unavailable if the server is not ready.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.gateway == nil {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("storage not initialized"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.gateway.HealthCheck(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("storage: "+err.Error()))
		return
	}

	data := map[string]interface{}{
		"storage": "healthy",
	}
	if h.worker != nil {
		data["model"] = h.worker.Health()
	}
	writeJSON(w, http.StatusOK, healthyResponse(data))
}
