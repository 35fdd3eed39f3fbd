// Package job creates, dispatches and executes the pipeline's work units.
//
// A job is ephemeral: the payload below is its only representation in
// flight, and the reference appended to the session metadata is its only
// durable trace. Processors chain continuation jobs until a document is
// fully processed, so any single job stays bounded.
package job

import (
	"fmt"
)

// Type identifies the kind of work a job performs.
type Type string

const (
	// TypeExtractPages renders a bounded batch of document pages to PNG.
	TypeExtractPages Type = "extract_pages"

	// TypeOCR runs the OCR model over a bounded batch of page images.
	TypeOCR Type = "ocr"

	// TypeSliceImage splits a single tall image into page-sized slices.
	TypeSliceImage Type = "slice_image"
)

// IsValid returns true if this is a known job type.
func (t Type) IsValid() bool {
	switch t {
	case TypeExtractPages, TypeOCR, TypeSliceImage:
		return true
	default:
		return false
	}
}

// String returns the wire representation of the job type.
func (t Type) String() string {
	return string(t)
}

// ParseType converts a wire string to a Type.
func ParseType(s string) (Type, error) {
	t := Type(s)
	if !t.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownType, s)
	}
	return t, nil
}

// InputData carries the type-specific job parameters. Extraction and image
// slicing need the source filename, OCR needs the pinned page total, and
// batched types carry a 1-based start page.
type InputData struct {
	Filename   string `json:"filename,omitempty"`
	StartPage  int    `json:"start_page,omitempty"`
	TotalPages int    `json:"total_pages,omitempty"`
}

// Payload is the complete description of one job, passed unchanged from
// creation through dispatch to the processor in both local and remote mode.
type Payload struct {
	JobID     string    `json:"job_id"`
	SessionID string    `json:"session_id"`
	JobType   Type      `json:"job_type"`
	InputData InputData `json:"input_data"`
	UserEmail string    `json:"user_email,omitempty"`
}
