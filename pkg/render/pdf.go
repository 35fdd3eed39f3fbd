package render

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"golang.org/x/sync/errgroup"

	"github.com/lecternhq/lectern/internal/logger"
)

// pdfinfoPages matches the page count line of pdfinfo output.
var pdfinfoPages = regexp.MustCompile(`(?m)^Pages:\s+(\d+)\s*$`)

// pdfPageCount returns the page count of a PDF. pdfcpu handles the common
// case in-process; files it rejects (uncommon encodings, lenient-parse
// documents) fall back to poppler's pdfinfo, which shares its parser with
// the renderer and therefore agrees with it.
func pdfPageCount(ctx context.Context, doc []byte) (int, error) {
	count, err := pdfapi.PageCount(bytes.NewReader(doc), nil)
	if err == nil {
		if count < 1 {
			return 0, fmt.Errorf("pdf has no pages")
		}
		return count, nil
	}

	logger.Debug("pdfcpu page count failed, falling back to pdfinfo", "error", err)

	count, infoErr := pdfinfoPageCount(ctx, doc)
	if infoErr != nil {
		return 0, fmt.Errorf("failed to determine pdf page count: %w (pdfcpu: %v)", infoErr, err)
	}
	return count, nil
}

// pdfinfoPageCount shells out to pdfinfo and parses the Pages line.
func pdfinfoPageCount(ctx context.Context, doc []byte) (int, error) {
	dir, err := os.MkdirTemp("", "lectern-pdfinfo-")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	pdfPath := filepath.Join(dir, "doc.pdf")
	if err := os.WriteFile(pdfPath, doc, 0o600); err != nil {
		return 0, fmt.Errorf("failed to write temp pdf: %w", err)
	}

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, "pdfinfo", pdfPath)
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("pdfinfo failed: %w: %s", err, strings.TrimSpace(out.String()))
	}

	return parsePdfinfoPages(out.Bytes())
}

// parsePdfinfoPages extracts the page count from pdfinfo output.
func parsePdfinfoPages(out []byte) (int, error) {
	m := pdfinfoPages.FindSubmatch(out)
	if m == nil {
		return 0, fmt.Errorf("pdfinfo output has no page count")
	}
	return strconv.Atoi(string(m[1]))
}

// renderPDFRange rasterizes pages startPage..endPage with pdftoppm, the
// range split across the configured number of concurrent invocations.
func (r *Renderer) renderPDFRange(ctx context.Context, doc []byte, startPage, endPage int) ([]Page, error) {
	dir, err := os.MkdirTemp("", "lectern-render-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	pdfPath := filepath.Join(dir, "doc.pdf")
	if err := os.WriteFile(pdfPath, doc, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write temp pdf: %w", err)
	}

	spans := splitRange(startPage, endPage, r.threads)

	g, gctx := errgroup.WithContext(ctx)
	for _, span := range spans {
		g.Go(func() error {
			return runPdftoppm(gctx, pdfPath, dir, span.first, span.last, r.dpi)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	pages, err := collectRenderedPages(dir)
	if err != nil {
		return nil, err
	}

	want := endPage - startPage + 1
	if len(pages) != want {
		return nil, fmt.Errorf("pdftoppm produced %d pages for range %d-%d", len(pages), startPage, endPage)
	}
	return pages, nil
}

// runPdftoppm renders one contiguous page span into dir as PNG files.
func runPdftoppm(ctx context.Context, pdfPath, dir string, first, last, dpi int) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "pdftoppm",
		"-png",
		"-r", strconv.Itoa(dpi),
		"-f", strconv.Itoa(first),
		"-l", strconv.Itoa(last),
		pdfPath,
		filepath.Join(dir, "page"),
	)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("pdftoppm failed for pages %d-%d: %w: %s",
			first, last, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// collectRenderedPages reads the page-N.png files pdftoppm wrote,
// ordered by page number.
func collectRenderedPages(dir string) ([]Page, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read render output dir: %w", err)
	}

	byNumber := make(map[int]string, len(entries))
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	nums, err := parseRenderedNames(names)
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		if num, ok := renderedPageNumber(name); ok {
			byNumber[num] = name
		}
	}

	pages := make([]Page, 0, len(nums))
	for _, num := range nums {
		data, err := os.ReadFile(filepath.Join(dir, byNumber[num]))
		if err != nil {
			return nil, fmt.Errorf("failed to read rendered page %d: %w", num, err)
		}
		pages = append(pages, Page{Number: num, PNG: data})
	}
	return pages, nil
}

// renderedPageNumber parses the page number out of a pdftoppm output name.
// pdftoppm zero-pads based on document size, so the number is parsed
// rather than formatted back.
func renderedPageNumber(name string) (int, bool) {
	if !strings.HasPrefix(name, "page-") || !strings.HasSuffix(name, ".png") {
		return 0, false
	}
	num, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, "page-"), ".png"))
	if err != nil {
		return 0, false
	}
	return num, true
}

// parseRenderedNames returns the sorted page numbers found among the
// given file names, ignoring anything pdftoppm did not write.
func parseRenderedNames(names []string) ([]int, error) {
	var nums []int
	for _, name := range names {
		if num, ok := renderedPageNumber(name); ok {
			nums = append(nums, num)
		}
	}
	sort.Ints(nums)
	return nums, nil
}

type pageSpan struct {
	first, last int
}

// splitRange divides an inclusive page range into up to n contiguous spans
// of near-equal length.
func splitRange(first, last, n int) []pageSpan {
	total := last - first + 1
	if n > total {
		n = total
	}
	if n < 1 {
		n = 1
	}

	spans := make([]pageSpan, 0, n)
	size := total / n
	extra := total % n
	cursor := first
	for i := 0; i < n; i++ {
		length := size
		if i < extra {
			length++
		}
		spans = append(spans, pageSpan{first: cursor, last: cursor + length - 1})
		cursor += length
	}
	return spans
}
