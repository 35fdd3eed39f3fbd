package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/lecternhq/lectern/internal/logger"
	"github.com/lecternhq/lectern/pkg/storage"
)

// Stage names in the status document.
const (
	StagePageExtraction = "page_extraction"
	StageOCR            = "ocr"
)

// Stage statuses.
const (
	StageProcessing = "processing"
	StageComplete   = "complete"
)

// Stage is the progress of one pipeline stage.
type Stage struct {
	Status          string `json:"status"`
	TotalPages      int    `json:"total_pages"`
	PagesProcessed  int    `json:"pages_processed"`
	ProgressPercent int    `json:"progress_percent"`
}

// StatusDocument is the derived progress document at status.json.
// A stage appears only when storage holds evidence of that stage's work.
type StatusDocument struct {
	SessionID string           `json:"session_id"`
	Stages    map[string]Stage `json:"stages"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// GetStatus reads the current status document. Returns ErrStatusNotFound
// when no status.json exists yet.
func (s *Store) GetStatus(ctx context.Context, userEmail, sessionID string) (*StatusDocument, error) {
	user := s.gateway.User(userEmail)

	data, err := user.Get(ctx, sessionID, storage.StatusName)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrStatusNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load status for session %s: %w", sessionID, err)
	}

	var doc StatusDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode status for session %s: %w", sessionID, err)
	}
	return &doc, nil
}

// Rebuild derives the status document from the page and result files
// actually present, persists it as status.json and returns it.
//
// knownTotalPages pins the document total when greater than zero;
// otherwise the count of extracted pages stands in as the working total.
// Callers pass the pin once a stage has announced the real total (the
// final extraction batch, or any OCR job, which always carries it).
func (s *Store) Rebuild(ctx context.Context, userEmail, sessionID string, knownTotalPages int) (*StatusDocument, error) {
	user := s.gateway.User(userEmail)

	pages, err := user.List(ctx, sessionID, storage.PagesDir+"/")
	if err != nil {
		return nil, fmt.Errorf("failed to list pages for session %s: %w", sessionID, err)
	}
	pagesExtracted := 0
	for _, obj := range pages {
		if _, ok := storage.ParsePageName(obj.Name); ok {
			pagesExtracted++
		}
	}

	results, err := user.List(ctx, sessionID, storage.ResultsDir+"/")
	if err != nil {
		return nil, fmt.Errorf("failed to list results for session %s: %w", sessionID, err)
	}
	ocrCompleted := 0
	for _, obj := range results {
		if _, ok := storage.ParseResultName(obj.Name); ok {
			ocrCompleted++
		}
	}

	doc := buildStatus(sessionID, pagesExtracted, ocrCompleted, knownTotalPages)

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode status: %w", err)
	}
	if _, err := user.Save(ctx, sessionID, storage.StatusName, data); err != nil {
		return nil, fmt.Errorf("failed to save status for session %s: %w", sessionID, err)
	}

	logger.Debug("Session status rebuilt",
		logger.SessionID(sessionID),
		"pages_extracted", pagesExtracted,
		"ocr_completed", ocrCompleted,
		logger.Total(knownTotalPages))

	return doc, nil
}

// buildStatus applies the derivation rules to the observed counts.
//
// A stage reports complete only against a pinned total. Without one the
// observed count stands in as the working total for progress math, but it
// cannot distinguish a finished stage from one still producing pages, so
// the stage stays processing.
func buildStatus(sessionID string, pagesExtracted, ocrCompleted, knownTotalPages int) *StatusDocument {
	doc := &StatusDocument{
		SessionID: sessionID,
		Stages:    map[string]Stage{},
		UpdatedAt: time.Now().UTC(),
	}

	pinned := knownTotalPages > 0
	total := pagesExtracted
	if pinned {
		total = knownTotalPages
	}

	if pagesExtracted > 0 || pinned {
		doc.Stages[StagePageExtraction] = makeStage(pagesExtracted, total, pinned)
	}

	// The OCR stage appears once results exist, or as soon as the total is
	// pinned while pages are present (extraction done, OCR pending).
	if ocrCompleted > 0 || (pagesExtracted > 0 && pinned) {
		doc.Stages[StageOCR] = makeStage(ocrCompleted, total, pinned)
	}

	return doc
}

func makeStage(processed, total int, pinned bool) Stage {
	stage := Stage{
		Status:         StageProcessing,
		TotalPages:     total,
		PagesProcessed: processed,
	}
	if total > 0 {
		stage.ProgressPercent = int(math.Round(float64(processed) / float64(total) * 100))
		if pinned && processed == total {
			stage.Status = StageComplete
		}
	}
	return stage
}
