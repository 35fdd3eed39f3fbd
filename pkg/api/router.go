package api

import (
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/lecternhq/lectern/internal/logger"
	"github.com/lecternhq/lectern/internal/telemetry"
	"github.com/lecternhq/lectern/pkg/api/handlers"
	"github.com/lecternhq/lectern/pkg/api/middleware"
	"github.com/lecternhq/lectern/pkg/job"
	"github.com/lecternhq/lectern/pkg/ocr"
	"github.com/lecternhq/lectern/pkg/session"
	"github.com/lecternhq/lectern/pkg/storage"
	"github.com/lecternhq/lectern/pkg/upload"
)

// Request timeout backstops per route group. The data plane moves whole
// documents and the worker callback runs a full job inline, so neither can
// share the short bound that suits health probes.
const (
	healthTimeout = 30 * time.Second
	apiTimeout    = 5 * time.Minute
	workerTimeout = 10 * time.Minute
)

// Dependencies carries the pipeline components the API serves.
//
// Worker may be nil on deployments that run no model; Jobs still accepts
// creations there and dispatches them remotely.
type Dependencies struct {
	Gateway  *storage.Gateway
	Uploads  *upload.Assembler
	Sessions *session.Store
	Jobs     *job.Manager
	Worker   *ocr.Worker
	Version  string
}

// NewRouter creates and configures the chi router with all middleware and routes.
//
// The router is configured with:
//   - Request ID middleware for request tracking
//   - Real IP extraction for proper client identification
//   - Custom request logging using the internal logger
//   - Panic recovery to prevent server crashes
//   - Per-group request timeouts
//
// The /api subtree resolves the caller identity from the X-User-Email
// header; /storage addresses files by user hash and the worker callback
// carries its identity inside the payload, so neither needs it.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger)
	r.Use(chimw.Recoverer)

	uploadHandler := handlers.NewUploadHandler(deps.Uploads)
	jobHandler := handlers.NewJobHandler(deps.Jobs, deps.Sessions)
	sessionHandler := handlers.NewSessionHandler(deps.Sessions)
	fileHandler := handlers.NewFileHandler(deps.Gateway)
	workerHandler := handlers.NewWorkerHandler(deps.Jobs)
	healthHandler := handlers.NewHealthHandler(deps.Gateway, deps.Worker, deps.Version)

	// Health routes - unauthenticated
	r.Route("/health", func(r chi.Router) {
		r.Use(chimw.Timeout(healthTimeout))
		r.Get("/", healthHandler.Liveness)
		r.Get("/ready", healthHandler.Readiness)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(chimw.Timeout(apiTimeout))
		r.Use(middleware.Identity)

		r.Route("/upload", func(r chi.Router) {
			r.Post("/start", uploadHandler.Start)
			r.Post("/{upload_id}/chunk", uploadHandler.Chunk)
			r.Get("/{upload_id}/status", uploadHandler.Status)
			r.Post("/{upload_id}/assemble", uploadHandler.Assemble)
		})

		r.Route("/jobs", func(r chi.Router) {
			r.Post("/create", jobHandler.Create)
			r.Get("/{session_id}/status", jobHandler.Status)
			r.Post("/{session_id}/rebuild-status", jobHandler.Rebuild)
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/{session_id}", sessionHandler.Get)
			r.Delete("/{session_id}", sessionHandler.Delete)
		})
	})

	r.With(chimw.Timeout(apiTimeout)).
		Get("/storage/{user_hash}/{session_id}/*", fileHandler.Serve)

	r.With(chimw.Timeout(workerTimeout)).
		Post("/worker/process-job", workerHandler.ProcessJob)

	// Root redirect to health for convenience
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/health", http.StatusTemporaryRedirect)
	})

	return r
}

// requestLogger is a custom middleware that logs requests using the internal logger.
//
// It seeds the request LogContext (request ID, client IP, trace ID) so every
// log line written below it carries the correlation fields, and logs:
//   - Request start (DEBUG level): method, path
//   - Request completion (INFO level): method, path, status, bytes, duration
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lc := logger.NewLogContext(clientIP(r.RemoteAddr))
		lc.RequestID = chimw.GetReqID(r.Context())
		if traceID := telemetry.TraceID(r.Context()); traceID != "" {
			lc.TraceID = traceID
		}
		ctx := logger.WithContext(r.Context(), lc)

		logger.DebugCtx(ctx, "API request started",
			logger.Method(r.Method),
			logger.Path(r.URL.Path),
		)

		// Wrap response writer to capture status code
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r.WithContext(ctx))

		logger.InfoCtx(ctx, "API request completed",
			logger.Method(r.Method),
			logger.Path(r.URL.Path),
			logger.Status(ww.Status()),
			logger.Size(int64(ww.BytesWritten())),
			logger.DurationMs(lc.DurationMs()),
		)
	})
}

// clientIP strips the port chi's RealIP leaves on direct connections.
func clientIP(remoteAddr string) string {
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}
