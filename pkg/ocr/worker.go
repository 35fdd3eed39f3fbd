package ocr

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lecternhq/lectern/internal/logger"
	"github.com/lecternhq/lectern/internal/telemetry"
)

const (
	// StageLoading is the progress stage reported while a batch waits for
	// the model to become ready.
	StageLoading = "loading"

	// StageProcessing is the progress stage reported during inference.
	StageProcessing = "processing"

	// StageCompleted marks a finished unit of work in progress callbacks.
	StageCompleted = "completed"

	// DefaultLoadTimeout is how long RunBatch blocks waiting for the model.
	DefaultLoadTimeout = 300 * time.Second

	// loadProgressInterval is how often loading progress is emitted during
	// the blocking wait.
	loadProgressInterval = 5 * time.Second
)

// ProgressFunc receives stage and percent updates from long-running
// operations. Implementations must tolerate being called from the batch
// goroutine.
type ProgressFunc func(stage string, percent int)

// WorkerConfig configures the OCR worker.
type WorkerConfig struct {
	// Model runs the actual inference.
	Model Model

	// LoadTimeout bounds how long a batch waits for the model before
	// failing with ErrModelNotReady. Zero means DefaultLoadTimeout.
	LoadTimeout time.Duration

	// EagerLoad starts loading the model in the background at
	// construction. Used in local mode so the model warms up while the
	// first upload is still in flight. Remote workers load lazily to keep
	// startup light for request paths that never touch the model.
	EagerLoad bool

	// Metrics records batch observations. Nil disables recording.
	Metrics Metrics
}

// Worker owns the model and serializes inference batches.
//
// One process owns one model instance, so concurrent RunBatch calls queue
// on a mutex. A batch that arrives before the model is ready blocks up to
// LoadTimeout, reporting loading progress, then fails with
// ErrModelNotReady.
type Worker struct {
	model       Model
	loadTimeout time.Duration
	metrics     Metrics

	// pollInterval is how often waitReady re-checks the model and emits
	// progress. Shortened in tests.
	pollInterval time.Duration

	// batchMu serializes the inference section of RunBatch.
	batchMu sync.Mutex

	// loadMu guards loading, which tracks the in-flight background load.
	loadMu  sync.Mutex
	loading bool
}

// NewWorker creates a worker around the given model.
func NewWorker(cfg WorkerConfig) *Worker {
	loadTimeout := cfg.LoadTimeout
	if loadTimeout <= 0 {
		loadTimeout = DefaultLoadTimeout
	}

	w := &Worker{
		model:        cfg.Model,
		loadTimeout:  loadTimeout,
		metrics:      cfg.Metrics,
		pollInterval: loadProgressInterval,
	}

	if cfg.EagerLoad {
		w.startLoad()
	}

	return w
}

// Ready reports whether the model can serve a batch right now.
func (w *Worker) Ready() bool {
	return w.model.Loaded()
}

// Health reports the model state for readiness probes.
func (w *Worker) Health() Health {
	return Health{
		ModelLoaded: w.model.Loaded(),
		Device:      w.model.Device(),
		Model:       w.model.ID(),
	}
}

// RunBatch runs inference over a batch of page images and returns one
// result per input, in input order. If the model is still loading, the
// call blocks up to the load timeout, emitting loading progress every
// five seconds. A failure on any image fails the whole batch.
func (w *Worker) RunBatch(ctx context.Context, images [][]byte, progress ProgressFunc) (_ []string, err error) {
	if len(images) == 0 {
		return nil, nil
	}

	// The span starts before the lock so time queued behind another batch
	// is visible in the trace.
	ctx, span := telemetry.StartOCRSpan(ctx, "run_batch",
		telemetry.Model(w.model.ID()), telemetry.BatchSize(len(images)))
	defer func() {
		telemetry.RecordError(ctx, err)
		span.End()
	}()

	w.batchMu.Lock()
	defer w.batchMu.Unlock()

	if err := w.waitReady(ctx, progress); err != nil {
		return nil, err
	}

	start := time.Now()
	results := make([]string, len(images))
	for i, png := range images {
		if progress != nil && len(images) > 1 {
			progress(StageProcessing, i*100/len(images))
		}
		text, err := w.model.Generate(ctx, png)
		if err != nil {
			return nil, fmt.Errorf("inference failed on image %d of %d: %w", i+1, len(images), err)
		}
		results[i] = text
	}

	if w.metrics != nil {
		w.metrics.ObserveBatch(time.Since(start))
		w.metrics.PagesProcessed(len(results))
	}

	return results, nil
}

// waitReady blocks until the model is loaded, the load timeout passes or
// ctx is cancelled. Progress is emitted on entry and then every tick, with
// percent ramping over the first minute and capping at 90 until the model
// actually reports ready.
func (w *Worker) waitReady(ctx context.Context, progress ProgressFunc) error {
	if w.model.Loaded() {
		return nil
	}

	w.startLoad()

	start := time.Now()
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		if w.model.Loaded() {
			// The wait is over; let the caller know inference can start.
			telemetry.AddEvent(ctx, "model ready")
			if progress != nil {
				progress(StageProcessing, 100)
			}
			return nil
		}

		elapsed := time.Since(start)
		if elapsed >= w.loadTimeout {
			logger.Error("Model did not become ready before batch timeout",
				logger.Model(w.model.ID()),
				logger.DurationMs(float64(elapsed.Milliseconds())))
			return ErrModelNotReady
		}

		if progress != nil {
			progress(StageLoading, loadingPercent(elapsed))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// loadingPercent maps elapsed wait time onto a 0-90 percent ramp. The ramp
// covers the first minute; the final 10 percent is reserved for the model
// actually reporting ready.
func loadingPercent(elapsed time.Duration) int {
	percent := int(elapsed.Seconds() / 60 * 100)
	if percent > 90 {
		percent = 90
	}
	return percent
}

// startLoad kicks off a background model load unless one is already in
// flight or the model is loaded. A failed load clears the in-flight flag
// so the next batch retries.
func (w *Worker) startLoad() {
	w.loadMu.Lock()
	defer w.loadMu.Unlock()

	if w.loading || w.model.Loaded() {
		return
	}
	w.loading = true

	go func() {
		start := time.Now()
		ctx, cancel := context.WithTimeout(context.Background(), w.loadTimeout)
		defer cancel()

		err := w.model.Load(ctx)

		w.loadMu.Lock()
		w.loading = false
		w.loadMu.Unlock()

		if err != nil {
			logger.Error("Model load failed",
				logger.Model(w.model.ID()),
				logger.Err(err))
			return
		}

		elapsed := time.Since(start)
		logger.Info("Model loaded",
			logger.Model(w.model.ID()),
			logger.Device(w.model.Device()),
			logger.DurationMs(float64(elapsed.Milliseconds())))

		if w.metrics != nil {
			w.metrics.SetModelLoadSeconds(elapsed.Seconds())
		}
	}()
}
