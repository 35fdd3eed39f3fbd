package logger

import "log/slog"

// Standard field keys for structured logging.
// Use these keys consistently across all log statements so the pipeline can be
// queried end to end: request -> upload -> session -> job -> page.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// ========================================================================
	// HTTP Request
	// ========================================================================
	KeyRequestID = "request_id" // Per-request identifier from middleware
	KeyMethod    = "method"     // HTTP method
	KeyPath      = "path"       // Request path
	KeyStatus    = "status"     // HTTP status code
	KeyClientIP  = "client_ip"  // Client IP address

	// ========================================================================
	// Identity
	// ========================================================================
	KeyUserEmail = "user_email" // Caller identity (may be the anonymous sentinel)
	KeyUserHash  = "user_hash"  // Storage namespace derived from the email

	// ========================================================================
	// Upload
	// ========================================================================
	KeyUploadID    = "upload_id"    // Chunked upload identifier
	KeyFilename    = "filename"     // Original filename of the uploaded document
	KeyChunk       = "chunk"        // Chunk number within an upload
	KeyTotalChunks = "total_chunks" // Expected number of chunks
	KeyReceived    = "received"     // Chunks received so far
	KeySize        = "size"         // Byte size (chunk, blob or file)

	// ========================================================================
	// Session & Job
	// ========================================================================
	KeySessionID = "session_id" // Processing session identifier
	KeyJobID     = "job_id"     // Job identifier
	KeyJobType   = "job_type"   // extract_pages, ocr, slice_image
	KeyJobStatus = "job_status" // completed, failed
	KeyStage     = "stage"      // Pipeline stage name in status documents
	KeyPage      = "page"       // Page number
	KeyStartPage = "start_page" // First page of a batch
	KeyEndPage   = "end_page"   // Last page of a batch
	KeyTotal     = "total"      // Total pages in the document
	KeyBatch     = "batch"      // Batch size or index

	// ========================================================================
	// OCR Worker
	// ========================================================================
	KeyModel   = "model"   // Model identifier
	KeyDevice  = "device"  // Inference device (cuda, mps, cpu)
	KeyPercent = "percent" // Progress percentage

	// ========================================================================
	// Storage Backend
	// ========================================================================
	KeyBackend = "backend" // Store backend: fs, s3, memory
	KeyBucket  = "bucket"  // S3 bucket name
	KeyKey     = "key"     // Object key
	KeyRegion  = "region"  // Cloud region
	KeyObjects = "objects" // Number of objects in a listing or batch delete

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
	KeyAttempt    = "attempt"     // Retry attempt number
	KeyMaxRetries = "max_retries" // Maximum retry attempts
	KeyOperation  = "operation"   // Sub-operation type for complex operations
)

// ============================================================================
// Field constructors for type safety
// ============================================================================

// TraceID returns a slog.Attr for OpenTelemetry trace ID
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for OpenTelemetry span ID
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// RequestID returns a slog.Attr for the per-request identifier
func RequestID(id string) slog.Attr {
	return slog.String(KeyRequestID, id)
}

// Method returns a slog.Attr for HTTP method
func Method(m string) slog.Attr {
	return slog.String(KeyMethod, m)
}

// Path returns a slog.Attr for request path
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// Status returns a slog.Attr for HTTP status code
func Status(code int) slog.Attr {
	return slog.Int(KeyStatus, code)
}

// ClientIP returns a slog.Attr for client IP address
func ClientIP(addr string) slog.Attr {
	return slog.String(KeyClientIP, addr)
}

// UserEmail returns a slog.Attr for the caller identity
func UserEmail(email string) slog.Attr {
	return slog.String(KeyUserEmail, email)
}

// UserHash returns a slog.Attr for the storage namespace hash
func UserHash(h string) slog.Attr {
	return slog.String(KeyUserHash, h)
}

// UploadID returns a slog.Attr for a chunked upload identifier
func UploadID(id string) slog.Attr {
	return slog.String(KeyUploadID, id)
}

// Filename returns a slog.Attr for the uploaded document filename
func Filename(name string) slog.Attr {
	return slog.String(KeyFilename, name)
}

// Chunk returns a slog.Attr for a chunk number
func Chunk(n int) slog.Attr {
	return slog.Int(KeyChunk, n)
}

// TotalChunks returns a slog.Attr for the expected chunk count
func TotalChunks(n int) slog.Attr {
	return slog.Int(KeyTotalChunks, n)
}

// Received returns a slog.Attr for chunks received so far
func Received(n int) slog.Attr {
	return slog.Int(KeyReceived, n)
}

// Size returns a slog.Attr for a byte size
func Size(s int64) slog.Attr {
	return slog.Int64(KeySize, s)
}

// SessionID returns a slog.Attr for a processing session identifier
func SessionID(id string) slog.Attr {
	return slog.String(KeySessionID, id)
}

// JobID returns a slog.Attr for a job identifier
func JobID(id string) slog.Attr {
	return slog.String(KeyJobID, id)
}

// JobType returns a slog.Attr for a job type
func JobType(t string) slog.Attr {
	return slog.String(KeyJobType, t)
}

// JobStatus returns a slog.Attr for a job completion status
func JobStatus(s string) slog.Attr {
	return slog.String(KeyJobStatus, s)
}

// Stage returns a slog.Attr for a pipeline stage name
func Stage(s string) slog.Attr {
	return slog.String(KeyStage, s)
}

// Page returns a slog.Attr for a page number
func Page(n int) slog.Attr {
	return slog.Int(KeyPage, n)
}

// StartPage returns a slog.Attr for the first page of a batch
func StartPage(n int) slog.Attr {
	return slog.Int(KeyStartPage, n)
}

// EndPage returns a slog.Attr for the last page of a batch
func EndPage(n int) slog.Attr {
	return slog.Int(KeyEndPage, n)
}

// Total returns a slog.Attr for the total page count
func Total(n int) slog.Attr {
	return slog.Int(KeyTotal, n)
}

// Batch returns a slog.Attr for a batch size or index
func Batch(n int) slog.Attr {
	return slog.Int(KeyBatch, n)
}

// Model returns a slog.Attr for a model identifier
func Model(name string) slog.Attr {
	return slog.String(KeyModel, name)
}

// Device returns a slog.Attr for an inference device
func Device(d string) slog.Attr {
	return slog.String(KeyDevice, d)
}

// Percent returns a slog.Attr for a progress percentage
func Percent(p int) slog.Attr {
	return slog.Int(KeyPercent, p)
}

// Backend returns a slog.Attr for a store backend name
func Backend(b string) slog.Attr {
	return slog.String(KeyBackend, b)
}

// Bucket returns a slog.Attr for an S3 bucket name
func Bucket(name string) slog.Attr {
	return slog.String(KeyBucket, name)
}

// Key returns a slog.Attr for an object key
func Key(k string) slog.Attr {
	return slog.String(KeyKey, k)
}

// Region returns a slog.Attr for a cloud region
func Region(r string) slog.Attr {
	return slog.String(KeyRegion, r)
}

// Objects returns a slog.Attr for an object count
func Objects(n int) slog.Attr {
	return slog.Int(KeyObjects, n)
}

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Attempt returns a slog.Attr for retry attempt number
func Attempt(n int) slog.Attr {
	return slog.Int(KeyAttempt, n)
}

// MaxRetries returns a slog.Attr for maximum retry attempts
func MaxRetries(n int) slog.Attr {
	return slog.Int(KeyMaxRetries, n)
}

// Operation returns a slog.Attr for sub-operation type
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}
