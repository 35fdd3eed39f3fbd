package job

import (
	"context"
	"errors"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/lecternhq/lectern/internal/logger"
	"github.com/lecternhq/lectern/pkg/ocr"
	"github.com/lecternhq/lectern/pkg/render"
	"github.com/lecternhq/lectern/pkg/session"
	"github.com/lecternhq/lectern/pkg/storage"
)

// Batch sizes per pipeline stage. Extraction renders ten pages per job;
// OCR holds at most five page images in memory at once.
const (
	DefaultExtractBatch = 10
	DefaultOCRBatch     = 5
)

// Progress stage names logged while a batch runs. The OCR worker reports
// the same names through its callback, so extract and OCR progress read
// identically in the logs.
const (
	stageLoading    = "loading"
	stageProcessing = "processing"
	stageCompleted  = "completed"
)

// PageRenderer rasterizes a document into page images. Satisfied by
// *render.Renderer.
type PageRenderer interface {
	PageCount(ctx context.Context, doc []byte, filename string) (int, error)
	RenderRange(ctx context.Context, doc []byte, filename string, startPage, endPage int) ([]render.Page, error)
}

// BatchRunner runs inference over a batch of page images, returning one
// result per input in input order. Satisfied by *ocr.Worker.
type BatchRunner interface {
	RunBatch(ctx context.Context, images [][]byte, progress ocr.ProgressFunc) ([]string, error)
}

// ProcessorConfig tunes the processor's batch sizes. Zero values take the
// package defaults.
type ProcessorConfig struct {
	ExtractBatch int
	OCRBatch     int
}

// Processor turns one job payload into storage side effects and, when
// pages remain, a continuation job. Each job is bounded: it touches at
// most one batch of pages, rebuilds the session status from what storage
// now holds, and hands the rest of the document to the next job. Side
// effects are idempotent (same page numbers produce the same files), so a
// redelivered payload converges rather than corrupts.
type Processor struct {
	manager  *Manager
	gateway  *storage.Gateway
	sessions *session.Store
	renderer PageRenderer
	ocr      BatchRunner
	cfg      ProcessorConfig
}

// NewProcessor creates a Processor and binds it to the manager as its
// runner.
func NewProcessor(manager *Manager, gateway *storage.Gateway, sessions *session.Store, renderer PageRenderer, runner BatchRunner, cfg ProcessorConfig) *Processor {
	if cfg.ExtractBatch <= 0 {
		cfg.ExtractBatch = DefaultExtractBatch
	}
	if cfg.OCRBatch <= 0 {
		cfg.OCRBatch = DefaultOCRBatch
	}

	p := &Processor{
		manager:  manager,
		gateway:  gateway,
		sessions: sessions,
		renderer: renderer,
		ocr:      runner,
		cfg:      cfg,
	}
	manager.Bind(p)
	return p
}

// Process executes one payload. Implements Runner.
func (p *Processor) Process(ctx context.Context, payload *Payload) error {
	switch payload.JobType {
	case TypeExtractPages:
		return p.processExtract(ctx, payload)
	case TypeOCR:
		return p.processOCR(ctx, payload)
	case TypeSliceImage:
		return p.processSlice(ctx, payload)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownType, payload.JobType)
	}
}

// processExtract renders one batch of pages from the source document.
//
// The page count is queried fresh on every batch, so a continuation job
// needs nothing but the filename and its start page. The status total is
// pinned only on the final batch; mid-stage rebuilds report the observed
// page count as a working total.
func (p *Processor) processExtract(ctx context.Context, payload *Payload) error {
	sessionID := payload.SessionID
	filename := payload.InputData.Filename

	start := payload.InputData.StartPage
	if start < 1 {
		start = 1
	}

	p.progress(payload, stageLoading, 0)

	user := p.gateway.User(payload.UserEmail)
	doc, err := user.Get(ctx, sessionID, filename)
	if err != nil {
		return fmt.Errorf("loading document %s: %w", filename, err)
	}

	total, err := p.renderer.PageCount(ctx, doc, filename)
	if err != nil {
		return fmt.Errorf("counting pages of %s: %w", filename, err)
	}

	if start > total {
		// A stale continuation, nothing left to render. Pin the total so
		// the status document can settle.
		if _, err := p.sessions.Rebuild(ctx, payload.UserEmail, sessionID, total); err != nil {
			return fmt.Errorf("rebuilding status: %w", err)
		}
		return nil
	}

	end := start + p.cfg.ExtractBatch - 1
	if end > total {
		end = total
	}

	logger.Info("Extracting pages",
		logger.JobID(payload.JobID),
		logger.SessionID(sessionID),
		logger.Filename(filename),
		logger.StartPage(start),
		logger.EndPage(end),
		logger.Total(total))

	p.progress(payload, stageProcessing, 10)

	pages, err := p.renderer.RenderRange(ctx, doc, filename, start, end)
	if err != nil {
		return fmt.Errorf("rendering pages %d-%d: %w", start, end, err)
	}

	p.progress(payload, stageProcessing, 50)

	for i, page := range pages {
		if _, err := user.Save(ctx, sessionID, storage.PageName(page.Number), page.PNG); err != nil {
			return fmt.Errorf("saving page %d: %w", page.Number, err)
		}
		p.progress(payload, stageProcessing, savePercent(i+1, len(pages)))
	}

	p.progress(payload, stageCompleted, 100)

	pin := 0
	if end >= total {
		pin = total
	}
	if _, err := p.sessions.Rebuild(ctx, payload.UserEmail, sessionID, pin); err != nil {
		return fmt.Errorf("rebuilding status: %w", err)
	}

	if end < total {
		_, err := p.manager.Create(ctx, sessionID, TypeExtractPages, InputData{
			Filename:  filename,
			StartPage: end + 1,
		}, payload.UserEmail)
		if err != nil {
			return fmt.Errorf("creating continuation job: %w", err)
		}
		return nil
	}

	logger.Info("All pages extracted",
		logger.JobID(payload.JobID),
		logger.SessionID(sessionID),
		logger.Filename(filename),
		logger.Total(total))
	return nil
}

// processOCR runs inference over one batch of extracted page images.
//
// The total is carried in the payload rather than rediscovered, so every
// rebuild during OCR pins it. A page whose image is missing is skipped
// and logged; its result file never appears and the stage stays
// processing, which is how the gap surfaces to operators.
func (p *Processor) processOCR(ctx context.Context, payload *Payload) error {
	sessionID := payload.SessionID

	total := payload.InputData.TotalPages
	if total <= 0 {
		return ErrMissingTotalPages
	}

	start := payload.InputData.StartPage
	if start < 1 {
		start = 1
	}
	end := start + p.cfg.OCRBatch - 1
	if end > total {
		end = total
	}

	logger.Info("Running OCR batch",
		logger.JobID(payload.JobID),
		logger.SessionID(sessionID),
		logger.StartPage(start),
		logger.EndPage(end),
		logger.Total(total))

	user := p.gateway.User(payload.UserEmail)

	var pageNums []int
	for page := start; page <= end; page++ {
		pageNums = append(pageNums, page)
	}

	loaded := make([][]byte, len(pageNums))
	g, gctx := errgroup.WithContext(ctx)
	for i, page := range pageNums {
		g.Go(func() error {
			data, err := user.Get(gctx, sessionID, storage.PageName(page))
			if errors.Is(err, storage.ErrNotFound) {
				logger.Error("Page image missing, skipping page",
					logger.JobID(payload.JobID),
					logger.SessionID(sessionID),
					logger.Page(page))
				return nil
			}
			if err != nil {
				return fmt.Errorf("loading page %d: %w", page, err)
			}
			loaded[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	loadedPages := make([]int, 0, len(pageNums))
	images := make([][]byte, 0, len(pageNums))
	for i, data := range loaded {
		if data != nil {
			loadedPages = append(loadedPages, pageNums[i])
			images = append(images, data)
		}
	}

	results, err := p.ocr.RunBatch(ctx, images, func(stage string, percent int) {
		p.progress(payload, stage, percent)
		if stage == stageCompleted || percent >= 100 {
			if _, err := p.sessions.Rebuild(ctx, payload.UserEmail, sessionID, total); err != nil {
				logger.Warn("Status rebuild during OCR batch failed",
					logger.SessionID(sessionID),
					logger.Err(err))
			}
		}
	})
	if err != nil {
		return fmt.Errorf("ocr batch %d-%d: %w", start, end, err)
	}

	g, gctx = errgroup.WithContext(ctx)
	for i, page := range loadedPages {
		text := results[i]
		g.Go(func() error {
			if _, err := user.Save(gctx, sessionID, storage.ResultName(page), []byte(text)); err != nil {
				return fmt.Errorf("saving result for page %d: %w", page, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("Saved OCR results",
		logger.JobID(payload.JobID),
		logger.SessionID(sessionID),
		logger.StartPage(start),
		logger.EndPage(end),
		logger.Objects(len(loadedPages)))

	if _, err := p.sessions.Rebuild(ctx, payload.UserEmail, sessionID, total); err != nil {
		return fmt.Errorf("rebuilding status: %w", err)
	}

	if end < total {
		_, err := p.manager.Create(ctx, sessionID, TypeOCR, InputData{
			TotalPages: total,
			StartPage:  end + 1,
		}, payload.UserEmail)
		if err != nil {
			return fmt.Errorf("creating continuation job: %w", err)
		}
		return nil
	}

	logger.Info("All pages processed for OCR",
		logger.JobID(payload.JobID),
		logger.SessionID(sessionID),
		logger.Total(total))
	return nil
}

// processSlice turns an image document into its page slices and hands the
// session to OCR. Images skip the extraction chain entirely, so this is
// the one job type that creates the first OCR job itself. Tall images
// yield several overlapping slices; anything else yields exactly one page.
func (p *Processor) processSlice(ctx context.Context, payload *Payload) error {
	sessionID := payload.SessionID
	filename := payload.InputData.Filename

	p.progress(payload, stageLoading, 0)

	user := p.gateway.User(payload.UserEmail)
	doc, err := user.Get(ctx, sessionID, filename)
	if err != nil {
		return fmt.Errorf("loading document %s: %w", filename, err)
	}

	total, err := p.renderer.PageCount(ctx, doc, filename)
	if err != nil {
		return fmt.Errorf("counting slices of %s: %w", filename, err)
	}

	logger.Info("Slicing image",
		logger.JobID(payload.JobID),
		logger.SessionID(sessionID),
		logger.Filename(filename),
		logger.Total(total))

	p.progress(payload, stageProcessing, 10)

	pages, err := p.renderer.RenderRange(ctx, doc, filename, 1, total)
	if err != nil {
		return fmt.Errorf("slicing image: %w", err)
	}

	p.progress(payload, stageProcessing, 50)

	for i, page := range pages {
		if _, err := user.Save(ctx, sessionID, storage.PageName(page.Number), page.PNG); err != nil {
			return fmt.Errorf("saving slice %d: %w", page.Number, err)
		}
		p.progress(payload, stageProcessing, savePercent(i+1, len(pages)))
	}

	p.progress(payload, stageCompleted, 100)

	if _, err := p.sessions.Rebuild(ctx, payload.UserEmail, sessionID, total); err != nil {
		return fmt.Errorf("rebuilding status: %w", err)
	}

	_, err = p.manager.Create(ctx, sessionID, TypeOCR, InputData{
		TotalPages: total,
		StartPage:  1,
	}, payload.UserEmail)
	if err != nil {
		return fmt.Errorf("creating ocr job: %w", err)
	}
	return nil
}

// progress logs one stage transition for a running job.
func (p *Processor) progress(payload *Payload, stage string, percent int) {
	logger.Debug("Job progress",
		logger.JobID(payload.JobID),
		logger.JobType(payload.JobType.String()),
		logger.SessionID(payload.SessionID),
		logger.Stage(stage),
		logger.Percent(percent))
}

// savePercent maps save-loop position onto the 50-100 range.
func savePercent(done, batch int) int {
	return 50 + int(math.Round(50*float64(done)/float64(batch)))
}
