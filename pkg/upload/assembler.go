// Package upload implements the three-call chunked upload protocol: start a
// tracked upload session, send chunks in any order, then assemble them into
// a processing session.
//
// Trackers and chunk blobs live under the staging prefix, outside any user
// namespace, so an upload survives process restarts and can be resumed from
// any replica. Assembly is driven by the chunks actually present in storage,
// not by the tracker counts, so a tracker that drifts from reality can never
// produce a corrupt file.
package upload

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lecternhq/lectern/internal/logger"
	"github.com/lecternhq/lectern/internal/telemetry"
	"github.com/lecternhq/lectern/pkg/job"
	"github.com/lecternhq/lectern/pkg/session"
	"github.com/lecternhq/lectern/pkg/storage"
)

// Defaults applied by NewAssembler when the config leaves a field unset.
const (
	DefaultMaxFileSize       int64 = 500 << 20
	DefaultChunkWriteTimeout       = 30 * time.Second
)

// DefaultAllowedExtensions lists the document types the pipeline accepts.
var DefaultAllowedExtensions = []string{"pdf", "png", "jpg", "jpeg", "webp", "tiff"}

// Chunk call outcomes.
const (
	ChunkStatusReceived  = "received"
	ChunkStatusDuplicate = "duplicate"
)

// Assemble call outcomes.
const (
	AssembleComplete   = "complete"
	AssembleIncomplete = "incomplete"
)

// Config bounds the upload protocol.
type Config struct {
	// MaxFileSize caps the total_size a client may declare, in bytes.
	MaxFileSize int64

	// AllowedExtensions lists acceptable file extensions, lowercase,
	// without the leading dot.
	AllowedExtensions []string

	// ChunkWriteTimeout bounds a single chunk blob write.
	ChunkWriteTimeout time.Duration
}

// SessionCreator creates processing sessions for assembled files.
// Satisfied by session.Store.
type SessionCreator interface {
	Create(ctx context.Context, userEmail string) (*session.Metadata, error)
}

// JobCreator submits pipeline jobs. Satisfied by job.Manager.
type JobCreator interface {
	Create(ctx context.Context, sessionID string, jobType job.Type, input job.InputData, userEmail string) (string, error)
}

// StartResult is returned by Start.
type StartResult struct {
	UploadID    string `json:"upload_id"`
	TotalChunks int    `json:"total_chunks"`
}

// ChunkResult is returned by Chunk. A duplicate is not an error: the chunk
// was already stored and the caller may move on.
type ChunkResult struct {
	Status         string `json:"status"`
	ChunksReceived int    `json:"chunks_received"`
	TotalChunks    int    `json:"total_chunks"`
}

// StatusResult reports upload progress so an interrupted client can resume
// by sending only the missing chunks.
type StatusResult struct {
	UploadID       string `json:"upload_id"`
	Filename       string `json:"filename"`
	Status         string `json:"status"`
	TotalChunks    int    `json:"total_chunks"`
	ChunksReceived int    `json:"chunks_received"`
	MissingChunks  []int  `json:"missing_chunks"`
}

// AssembleResult is returned by Assemble. Incomplete is not an error: the
// caller learns which chunks to resend and nothing is deleted.
type AssembleResult struct {
	Status        string `json:"status"`
	Filename      string `json:"filename,omitempty"`
	SessionID     string `json:"session_id,omitempty"`
	JobID         string `json:"job_id,omitempty"`
	MissingChunks []int  `json:"missing_chunks,omitempty"`
}

// Assembler implements the chunked upload protocol over an object store.
//
// Operations on the same upload ID are serialized; different uploads
// proceed in parallel.
type Assembler struct {
	store    storage.ObjectStore
	gateway  *storage.Gateway
	sessions SessionCreator
	jobs     JobCreator
	cfg      Config
	metrics  Metrics

	locks sync.Map // upload ID -> *sync.Mutex
}

// NewAssembler creates an Assembler. Zero config fields take the package
// defaults. A nil metrics disables recording.
func NewAssembler(gateway *storage.Gateway, sessions SessionCreator, jobs JobCreator, cfg Config, metrics Metrics) *Assembler {
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
	}
	if len(cfg.AllowedExtensions) == 0 {
		cfg.AllowedExtensions = DefaultAllowedExtensions
	}
	if cfg.ChunkWriteTimeout <= 0 {
		cfg.ChunkWriteTimeout = DefaultChunkWriteTimeout
	}
	return &Assembler{
		store:    gateway.Store(),
		gateway:  gateway,
		sessions: sessions,
		jobs:     jobs,
		cfg:      cfg,
		metrics:  metrics,
	}
}

func (a *Assembler) lock(uploadID string) *sync.Mutex {
	mu, _ := a.locks.LoadOrStore(uploadID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Start validates the declared upload and writes its initial tracker.
func (a *Assembler) Start(ctx context.Context, filename string, totalSize int64, totalChunks int, userEmail string) (_ *StartResult, err error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanUploadStart)
	defer func() {
		telemetry.RecordError(ctx, err)
		span.End()
	}()

	if filename == "" || filename != filepath.Base(filename) || filename == "." || filename == ".." {
		return nil, &ValidationError{Field: "filename", Reason: "must be a bare file name"}
	}
	if ext := fileExt(filename); !slices.Contains(a.cfg.AllowedExtensions, ext) {
		return nil, &ValidationError{
			Field:  "filename",
			Reason: fmt.Sprintf("extension %q not allowed (allowed: %s)", ext, strings.Join(a.cfg.AllowedExtensions, ", ")),
		}
	}
	if totalSize <= 0 {
		return nil, &ValidationError{Field: "total_size", Reason: "must be positive"}
	}
	if totalSize > a.cfg.MaxFileSize {
		return nil, &ValidationError{
			Field:  "total_size",
			Reason: fmt.Sprintf("%d bytes exceeds the %d byte limit", totalSize, a.cfg.MaxFileSize),
		}
	}
	if totalChunks < 1 {
		return nil, &ValidationError{Field: "total_chunks", Reason: "must be at least 1"}
	}

	now := time.Now().UTC()
	tracker := &Tracker{
		UploadID:       uuid.NewString(),
		Filename:       filename,
		TotalSize:      totalSize,
		TotalChunks:    totalChunks,
		ChunksReceived: 0,
		Chunks:         make(map[int]bool),
		CreatedAt:      now,
		UpdatedAt:      now,
		UserEmail:      userEmail,
		Status:         StatusActive,
	}
	if err := a.saveTracker(ctx, tracker); err != nil {
		return nil, err
	}
	telemetry.SetAttributes(ctx,
		telemetry.UploadID(tracker.UploadID),
		telemetry.Filename(filename),
		telemetry.UploadSize(totalSize),
		telemetry.TotalChunks(totalChunks))

	if a.metrics != nil {
		a.metrics.UploadStarted()
	}
	logger.Info("Upload session started",
		logger.UploadID(tracker.UploadID),
		logger.Filename(filename),
		logger.Size(totalSize),
		logger.TotalChunks(totalChunks),
		logger.UserEmail(userEmail))

	return &StartResult{UploadID: tracker.UploadID, TotalChunks: totalChunks}, nil
}

// Chunk stores one chunk blob and records it in the tracker. Resending a
// chunk that already arrived returns a duplicate result without touching
// the stored blob.
func (a *Assembler) Chunk(ctx context.Context, uploadID string, chunkNumber int, data []byte) (_ *ChunkResult, err error) {
	// The span starts before the lock so contention between chunks of the
	// same upload is visible in the trace.
	ctx, span := telemetry.StartUploadSpan(ctx, "chunk", uploadID, telemetry.Chunk(chunkNumber))
	defer func() {
		telemetry.RecordError(ctx, err)
		span.End()
	}()

	mu := a.lock(uploadID)
	mu.Lock()
	defer mu.Unlock()

	tracker, err := a.loadTracker(ctx, uploadID)
	if err != nil {
		return nil, err
	}
	if chunkNumber < 0 || chunkNumber >= tracker.TotalChunks {
		return nil, &ValidationError{
			Field:  "chunk_number",
			Reason: fmt.Sprintf("%d outside declared range [0, %d)", chunkNumber, tracker.TotalChunks),
		}
	}

	if tracker.Received(chunkNumber) {
		logger.Warn("Duplicate chunk ignored",
			logger.UploadID(uploadID),
			logger.Chunk(chunkNumber),
			logger.Received(tracker.ChunksReceived),
			logger.TotalChunks(tracker.TotalChunks))
		return &ChunkResult{
			Status:         ChunkStatusDuplicate,
			ChunksReceived: tracker.ChunksReceived,
			TotalChunks:    tracker.TotalChunks,
		}, nil
	}

	if err := a.writeChunk(ctx, uploadID, chunkNumber, data); err != nil {
		return nil, err
	}

	if tracker.Chunks == nil {
		tracker.Chunks = make(map[int]bool)
	}
	tracker.Chunks[chunkNumber] = true
	tracker.ChunksReceived++
	tracker.UpdatedAt = time.Now().UTC()
	if tracker.AllReceived() {
		tracker.Status = StatusComplete
	}
	if err := a.saveTracker(ctx, tracker); err != nil {
		return nil, err
	}

	// Read back to surface object-store consistency bugs here instead of
	// at assembly.
	verify, err := a.loadTracker(ctx, uploadID)
	if err != nil {
		return nil, fmt.Errorf("verifying tracker persist: %w", err)
	}
	if !verify.Received(chunkNumber) {
		return nil, fmt.Errorf("tracker persist verification failed for chunk %d of upload %s", chunkNumber, uploadID)
	}

	if a.metrics != nil {
		a.metrics.ChunkReceived(int64(len(data)))
	}
	logger.Info("Chunk received",
		logger.UploadID(uploadID),
		logger.Chunk(chunkNumber),
		logger.Size(int64(len(data))),
		logger.Received(tracker.ChunksReceived),
		logger.TotalChunks(tracker.TotalChunks))

	return &ChunkResult{
		Status:         ChunkStatusReceived,
		ChunksReceived: tracker.ChunksReceived,
		TotalChunks:    tracker.TotalChunks,
	}, nil
}

// Status reports the tracker state and the chunks still missing. It takes
// no lock; a client polling progress never blocks an in-flight chunk.
func (a *Assembler) Status(ctx context.Context, uploadID string) (*StatusResult, error) {
	tracker, err := a.loadTracker(ctx, uploadID)
	if err != nil {
		return nil, err
	}
	return &StatusResult{
		UploadID:       tracker.UploadID,
		Filename:       tracker.Filename,
		Status:         tracker.Status,
		TotalChunks:    tracker.TotalChunks,
		ChunksReceived: tracker.ChunksReceived,
		MissingChunks:  tracker.MissingChunks(),
	}, nil
}

// Assemble joins the stored chunks into the final document, creates the
// processing session and its first extraction job, and removes the staging
// data. Missing chunks make it return an incomplete result with nothing
// deleted, so the client can resend and retry.
func (a *Assembler) Assemble(ctx context.Context, uploadID string) (_ *AssembleResult, err error) {
	ctx, span := telemetry.StartUploadSpan(ctx, "assemble", uploadID)
	defer func() {
		telemetry.RecordError(ctx, err)
		span.End()
	}()

	mu := a.lock(uploadID)
	mu.Lock()
	defer mu.Unlock()

	tracker, err := a.loadTracker(ctx, uploadID)
	if err != nil {
		return nil, err
	}

	// The blobs actually in storage decide completeness, not the tracker.
	missing, err := a.missingChunks(ctx, tracker)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		logger.Warn("Upload incomplete at assemble",
			logger.UploadID(uploadID),
			logger.Received(tracker.TotalChunks-len(missing)),
			logger.TotalChunks(tracker.TotalChunks))
		return &AssembleResult{Status: AssembleIncomplete, MissingChunks: missing}, nil
	}

	meta, err := a.sessions.Create(ctx, tracker.UserEmail)
	if err != nil {
		return nil, fmt.Errorf("creating session for upload %s: %w", uploadID, err)
	}
	telemetry.SetAttributes(ctx, telemetry.SessionID(meta.SessionID))

	if err := a.streamFile(ctx, tracker, meta.SessionID); err != nil {
		return nil, err
	}

	jobID, err := a.jobs.Create(ctx, meta.SessionID, job.TypeExtractPages, job.InputData{
		Filename:  tracker.Filename,
		StartPage: 1,
	}, tracker.UserEmail)
	if err != nil {
		return nil, fmt.Errorf("creating extraction job for upload %s: %w", uploadID, err)
	}

	a.cleanupStaging(ctx, tracker)

	if a.metrics != nil {
		a.metrics.UploadAssembled()
	}
	logger.Info("Upload assembled",
		logger.UploadID(uploadID),
		logger.Filename(tracker.Filename),
		logger.SessionID(meta.SessionID),
		logger.JobID(jobID),
		logger.UserEmail(tracker.UserEmail))

	return &AssembleResult{
		Status:    AssembleComplete,
		Filename:  tracker.Filename,
		SessionID: meta.SessionID,
		JobID:     jobID,
	}, nil
}

// writeChunk stores one chunk blob under a bounded deadline.
func (a *Assembler) writeChunk(ctx context.Context, uploadID string, chunkNumber int, data []byte) error {
	writeCtx, cancel := context.WithTimeout(ctx, a.cfg.ChunkWriteTimeout)
	defer cancel()

	key := storage.UploadChunkKey(uploadID, chunkNumber)
	if err := a.store.Put(writeCtx, key, data, stagingPutOptions(key)); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			logger.Error("Chunk write timed out",
				logger.UploadID(uploadID),
				logger.Chunk(chunkNumber),
				logger.Size(int64(len(data))))
			return fmt.Errorf("writing chunk %d: %w", chunkNumber, storage.ErrTimeout)
		}
		return fmt.Errorf("writing chunk %d: %w", chunkNumber, err)
	}
	return nil
}

// missingChunks lists the chunk blobs present in storage and returns the
// declared numbers that have no blob, ascending.
func (a *Assembler) missingChunks(ctx context.Context, tracker *Tracker) ([]int, error) {
	infos, err := a.store.List(ctx, storage.UploadChunkPrefix(tracker.UploadID))
	if err != nil {
		return nil, fmt.Errorf("listing chunks for upload %s: %w", tracker.UploadID, err)
	}

	observed := make(map[int]bool, len(infos))
	for _, info := range infos {
		if n, ok := storage.ParseChunkName(info.Name); ok {
			observed[n] = true
		}
	}

	missing := make([]int, 0)
	for i := 0; i < tracker.TotalChunks; i++ {
		if !observed[i] {
			missing = append(missing, i)
		}
	}
	return missing, nil
}

// streamFile concatenates the chunk blobs in ascending order into the
// session's document object without buffering the whole file.
func (a *Assembler) streamFile(ctx context.Context, tracker *Tracker, sessionID string) error {
	pr, pw := io.Pipe()
	go func() {
		for i := 0; i < tracker.TotalChunks; i++ {
			if err := a.copyChunk(ctx, pw, tracker.UploadID, i); err != nil {
				pw.CloseWithError(err)
				return
			}
		}
		pw.Close()
	}()

	user := a.gateway.User(tracker.UserEmail)
	if _, err := user.SaveStream(ctx, sessionID, tracker.Filename, pr); err != nil {
		pr.CloseWithError(err)
		return fmt.Errorf("assembling %s: %w", tracker.Filename, err)
	}
	return nil
}

func (a *Assembler) copyChunk(ctx context.Context, w io.Writer, uploadID string, chunkNumber int) error {
	r, err := a.store.GetStream(ctx, storage.UploadChunkKey(uploadID, chunkNumber))
	if err != nil {
		return fmt.Errorf("reading chunk %d: %w", chunkNumber, err)
	}
	defer r.Close()

	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying chunk %d: %w", chunkNumber, err)
	}
	return nil
}

// cleanupStaging removes the chunk blobs and the tracker. The document is
// already in place, so failures are logged and otherwise ignored; leftover
// staging objects are reaped externally.
func (a *Assembler) cleanupStaging(ctx context.Context, tracker *Tracker) {
	if err := a.store.DeletePrefix(ctx, storage.UploadChunkPrefix(tracker.UploadID)); err != nil {
		logger.Warn("Staging chunk cleanup failed",
			logger.UploadID(tracker.UploadID),
			logger.Err(err))
	}
	if _, err := a.store.Delete(ctx, storage.UploadTrackerKey(tracker.UploadID)); err != nil {
		logger.Warn("Tracker cleanup failed",
			logger.UploadID(tracker.UploadID),
			logger.Err(err))
	}
	a.locks.Delete(tracker.UploadID)
}

func (a *Assembler) loadTracker(ctx context.Context, uploadID string) (*Tracker, error) {
	data, err := a.store.Get(ctx, storage.UploadTrackerKey(uploadID))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUploadNotFound, uploadID)
		}
		return nil, fmt.Errorf("loading upload tracker: %w", err)
	}

	var tracker Tracker
	if err := json.Unmarshal(data, &tracker); err != nil {
		return nil, fmt.Errorf("decoding upload tracker %s: %w", uploadID, err)
	}
	return &tracker, nil
}

func (a *Assembler) saveTracker(ctx context.Context, tracker *Tracker) error {
	data, err := json.MarshalIndent(tracker, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding upload tracker: %w", err)
	}

	key := storage.UploadTrackerKey(tracker.UploadID)
	if err := a.store.Put(ctx, key, data, stagingPutOptions(key)); err != nil {
		return fmt.Errorf("saving upload tracker: %w", err)
	}
	return nil
}

func stagingPutOptions(key string) *storage.PutOptions {
	return &storage.PutOptions{
		ContentType:  storage.ContentTypeFor(key),
		CacheControl: storage.CacheControlFor(key),
	}
}

// fileExt returns the lowercased extension without the dot.
func fileExt(filename string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
}
