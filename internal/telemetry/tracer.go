package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Common attribute keys for pipeline operations.
// These follow OpenTelemetry semantic conventions where applicable.
const (
	// ========================================================================
	// Client attributes
	// ========================================================================
	AttrClientIP   = "client.ip"
	AttrClientAddr = "client.address"

	// ========================================================================
	// Identity attributes
	// ========================================================================
	AttrUserHash = "user.hash"

	// ========================================================================
	// Upload attributes
	// ========================================================================
	AttrUploadID    = "upload.id"
	AttrFilename    = "upload.filename"
	AttrChunk       = "upload.chunk"
	AttrTotalChunks = "upload.total_chunks"
	AttrUploadSize  = "upload.size"

	// ========================================================================
	// Session & job attributes
	// ========================================================================
	AttrSessionID = "session.id"
	AttrJobID     = "job.id"
	AttrJobType   = "job.type"
	AttrStartPage = "job.start_page"
	AttrEndPage   = "job.end_page"
	AttrPageCount = "job.page_count"

	// ========================================================================
	// OCR attributes
	// ========================================================================
	AttrModel     = "ocr.model"
	AttrDevice    = "ocr.device"
	AttrBatchSize = "ocr.batch_size"
	AttrPage      = "ocr.page"

	// ========================================================================
	// Storage backend attributes
	// ========================================================================
	AttrBackend = "storage.backend"
	AttrBucket  = "storage.bucket"
	AttrKey     = "storage.key"
	AttrRegion  = "storage.region"
	AttrSize    = "storage.size"
)

// Span names for operations.
// Format: <component>.<operation>
const (
	// Upload pipeline spans
	SpanUploadStart    = "upload.start"
	SpanUploadChunk    = "upload.chunk"
	SpanUploadStatus   = "upload.status"
	SpanUploadAssemble = "upload.assemble"

	// Job processing spans
	SpanJobDispatch = "job.dispatch"
	SpanJobProcess  = "job.process"
	SpanJobExtract  = "job.extract_pages"
	SpanJobOCR      = "job.ocr"
	SpanJobSlice    = "job.slice_image"

	// OCR worker spans
	SpanOCRLoad     = "ocr.load_model"
	SpanOCRBatch    = "ocr.run_batch"
	SpanOCRGenerate = "ocr.generate"

	// Session spans
	SpanSessionCreate  = "session.create"
	SpanSessionDelete  = "session.delete"
	SpanStatusRebuild  = "session.rebuild_status"
	SpanStatusRead     = "session.read_status"
	SpanMetadataAppend = "session.append_job"

	// Storage spans
	SpanStorePut    = "storage.put"
	SpanStoreGet    = "storage.get"
	SpanStoreList   = "storage.list"
	SpanStoreDelete = "storage.delete"
)

// ClientIP returns an attribute for client IP address
func ClientIP(ip string) attribute.KeyValue {
	return attribute.String(AttrClientIP, ip)
}

// ClientAddr returns an attribute for full client address
func ClientAddr(addr string) attribute.KeyValue {
	return attribute.String(AttrClientAddr, addr)
}

// UserHash returns an attribute for the caller's storage namespace
func UserHash(h string) attribute.KeyValue {
	return attribute.String(AttrUserHash, h)
}

// UploadID returns an attribute for a chunked upload identifier
func UploadID(id string) attribute.KeyValue {
	return attribute.String(AttrUploadID, id)
}

// Filename returns an attribute for the uploaded document filename
func Filename(name string) attribute.KeyValue {
	return attribute.String(AttrFilename, name)
}

// Chunk returns an attribute for a chunk number
func Chunk(n int) attribute.KeyValue {
	return attribute.Int(AttrChunk, n)
}

// TotalChunks returns an attribute for the expected chunk count
func TotalChunks(n int) attribute.KeyValue {
	return attribute.Int(AttrTotalChunks, n)
}

// UploadSize returns an attribute for the total upload size
func UploadSize(size int64) attribute.KeyValue {
	return attribute.Int64(AttrUploadSize, size)
}

// SessionID returns an attribute for a processing session
func SessionID(id string) attribute.KeyValue {
	return attribute.String(AttrSessionID, id)
}

// JobID returns an attribute for a job identifier
func JobID(id string) attribute.KeyValue {
	return attribute.String(AttrJobID, id)
}

// JobType returns an attribute for a job type
func JobType(t string) attribute.KeyValue {
	return attribute.String(AttrJobType, t)
}

// StartPage returns an attribute for the first page of a batch
func StartPage(n int) attribute.KeyValue {
	return attribute.Int(AttrStartPage, n)
}

// EndPage returns an attribute for the last page of a batch
func EndPage(n int) attribute.KeyValue {
	return attribute.Int(AttrEndPage, n)
}

// PageCount returns an attribute for total pages
func PageCount(n int) attribute.KeyValue {
	return attribute.Int(AttrPageCount, n)
}

// Model returns an attribute for a model identifier
func Model(name string) attribute.KeyValue {
	return attribute.String(AttrModel, name)
}

// Device returns an attribute for the inference device
func Device(d string) attribute.KeyValue {
	return attribute.String(AttrDevice, d)
}

// BatchSize returns an attribute for an OCR batch size
func BatchSize(n int) attribute.KeyValue {
	return attribute.Int(AttrBatchSize, n)
}

// Page returns an attribute for a page number
func Page(n int) attribute.KeyValue {
	return attribute.Int(AttrPage, n)
}

// Backend returns an attribute for a storage backend name
func Backend(b string) attribute.KeyValue {
	return attribute.String(AttrBackend, b)
}

// Bucket returns an attribute for S3 bucket name
func Bucket(name string) attribute.KeyValue {
	return attribute.String(AttrBucket, name)
}

// StorageKey returns an attribute for an object key
func StorageKey(key string) attribute.KeyValue {
	return attribute.String(AttrKey, key)
}

// Region returns an attribute for cloud region
func Region(region string) attribute.KeyValue {
	return attribute.String(AttrRegion, region)
}

// StorageSize returns an attribute for an object size in bytes
func StorageSize(size int64) attribute.KeyValue {
	return attribute.Int64(AttrSize, size)
}

// StartUploadSpan starts a span for a chunked upload operation.
func StartUploadSpan(ctx context.Context, operation, uploadID string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{UploadID(uploadID)}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, "upload."+operation, trace.WithAttributes(allAttrs...))
}

// StartJobSpan starts a span for job processing.
func StartJobSpan(ctx context.Context, jobType, jobID, sessionID string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		JobType(jobType),
		JobID(jobID),
		SessionID(sessionID),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, "job."+jobType, trace.WithAttributes(allAttrs...))
}

// StartStoreSpan starts a span for a storage backend operation.
func StartStoreSpan(ctx context.Context, operation, key string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{StorageKey(key)}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, "storage."+operation, trace.WithAttributes(allAttrs...))
}

// StartOCRSpan starts a span for an OCR worker operation.
func StartOCRSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return StartSpan(ctx, "ocr."+operation, trace.WithAttributes(attrs...))
}
