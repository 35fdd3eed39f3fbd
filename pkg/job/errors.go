package job

import "errors"

var (
	// ErrUnknownType indicates a job type string outside the supported set.
	ErrUnknownType = errors.New("unknown job type")

	// ErrMissingTotalPages indicates an OCR job created without the pinned
	// page total it needs to bound its batches.
	ErrMissingTotalPages = errors.New("ocr job requires total_pages")
)
