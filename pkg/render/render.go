// Package render turns uploaded documents into page images.
//
// PDFs are rasterized with poppler's pdftoppm at a fixed DPI; the page count
// comes from pdfcpu with a pdfinfo fallback for files pdfcpu rejects. Plain
// images become pages directly: images taller than the slice window are cut
// into overlapping slices so the OCR model never sees more than one window
// of text at a time.
//
// Pages are numbered 1..N in reading order on every path.
package render

import (
	"context"
	"fmt"
	"path"
	"strings"
)

// Default rendering parameters.
const (
	// DefaultDPI is the rasterization density for PDF pages. 150 keeps a
	// letter page near 1275x1650, inside what the model accepts.
	DefaultDPI = 150

	// DefaultRenderThreads is how many pdftoppm invocations share one batch.
	DefaultRenderThreads = 2
)

// Page is a single rendered page image.
type Page struct {
	// Number is the 1-indexed page number within the document.
	Number int

	// PNG is the encoded page image.
	PNG []byte
}

// Config controls the renderer.
type Config struct {
	// DPI is the PDF rasterization density.
	DPI int

	// RenderThreads is the number of concurrent pdftoppm invocations per
	// batch.
	RenderThreads int
}

// Renderer rasterizes documents. Safe for concurrent use.
type Renderer struct {
	dpi     int
	threads int
}

// New creates a Renderer, applying defaults for zero values.
func New(cfg Config) *Renderer {
	if cfg.DPI <= 0 {
		cfg.DPI = DefaultDPI
	}
	if cfg.RenderThreads <= 0 {
		cfg.RenderThreads = DefaultRenderThreads
	}
	return &Renderer{dpi: cfg.DPI, threads: cfg.RenderThreads}
}

// PageCount returns the number of pages the document will produce.
// For PDFs this is the PDF page count; for images it is the slice count.
func (r *Renderer) PageCount(ctx context.Context, doc []byte, filename string) (int, error) {
	switch {
	case IsPDF(filename):
		return pdfPageCount(ctx, doc)
	case IsImage(filename):
		return imagePageCount(doc)
	default:
		return 0, fmt.Errorf("unsupported document type: %s", path.Ext(filename))
	}
}

// RenderRange renders pages startPage..endPage inclusive, 1-indexed.
// Pages are returned ordered by page number, one Page per number in the
// range. The range must lie within the document.
func (r *Renderer) RenderRange(ctx context.Context, doc []byte, filename string, startPage, endPage int) ([]Page, error) {
	if startPage < 1 || endPage < startPage {
		return nil, fmt.Errorf("invalid page range %d-%d", startPage, endPage)
	}

	switch {
	case IsPDF(filename):
		return r.renderPDFRange(ctx, doc, startPage, endPage)
	case IsImage(filename):
		return renderImageRange(doc, startPage, endPage)
	default:
		return nil, fmt.Errorf("unsupported document type: %s", path.Ext(filename))
	}
}

// IsPDF reports whether the filename names a PDF document.
func IsPDF(filename string) bool {
	return strings.EqualFold(path.Ext(filename), ".pdf")
}

// IsImage reports whether the filename names a supported image document.
// Wider than the default upload gate: gif and bmp render fine when an
// operator allows them in upload.allowed_extensions.
func IsImage(filename string) bool {
	switch strings.ToLower(path.Ext(filename)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp", ".bmp", ".tiff", ".tif":
		return true
	default:
		return false
	}
}
