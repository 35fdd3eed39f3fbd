package logger

import (
	"context"
	"time"
)

// contextKey is a private type for context keys to avoid collisions
type contextKey struct{}

// logContextKey is the key for LogContext in context.Context
var logContextKey = contextKey{}

// LogContext holds request-scoped logging context that follows a document
// through the pipeline: the HTTP request that carried it, the identity that
// owns it, and the upload/session/job it belongs to.
type LogContext struct {
	RequestID string    // Middleware-assigned request ID
	TraceID   string    // OpenTelemetry trace ID
	ClientIP  string    // Client IP address (without port)
	UserHash  string    // Storage namespace of the caller
	SessionID string    // Processing session
	UploadID  string    // Chunked upload
	JobID     string    // Job being processed
	JobType   string    // extract_pages, ocr, slice_image
	StartTime time.Time // For duration calculation
}

// WithContext returns a new context with the given LogContext
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext from context, or nil if not present
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext creates a new LogContext with the given client IP
func NewLogContext(clientIP string) *LogContext {
	return &LogContext{
		ClientIP:  clientIP,
		StartTime: time.Now(),
	}
}

// Clone creates a copy of the LogContext
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	clone := *lc
	return &clone
}

// WithUser returns a copy with the user hash set
func (lc *LogContext) WithUser(userHash string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.UserHash = userHash
	}
	return clone
}

// WithSession returns a copy with the session ID set
func (lc *LogContext) WithSession(sessionID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.SessionID = sessionID
	}
	return clone
}

// WithUpload returns a copy with the upload ID set
func (lc *LogContext) WithUpload(uploadID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.UploadID = uploadID
	}
	return clone
}

// WithJob returns a copy with job ID and type set
func (lc *LogContext) WithJob(jobID, jobType string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.JobID = jobID
		clone.JobType = jobType
	}
	return clone
}

// WithTrace returns a copy with trace info set
func (lc *LogContext) WithTrace(traceID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.TraceID = traceID
	}
	return clone
}

// DurationMs returns the duration since StartTime in milliseconds
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}
