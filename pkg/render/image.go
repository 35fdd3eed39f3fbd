package render

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	// Image documents arrive in any of the allowed upload formats; the
	// decoders register themselves with image.Decode.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Slicing parameters for tall images. A window taller than maxSliceHeight
// would push the model past its usable context; the overlap keeps lines cut
// by a window boundary fully visible in the next slice.
const (
	maxSliceHeight = 1024
	sliceOverlap   = 100
)

// imagePageCount returns the number of slices an image document produces,
// from the decoded bounds alone.
func imagePageCount(doc []byte) (int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(doc))
	if err != nil {
		return 0, fmt.Errorf("failed to decode image: %w", err)
	}
	return sliceCount(cfg.Height), nil
}

// renderImageRange decodes an image document and returns slices
// startPage..endPage as PNG pages.
func renderImageRange(doc []byte, startPage, endPage int) ([]Page, error) {
	img, _, err := image.Decode(bytes.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	total := sliceCount(bounds.Dy())
	if endPage > total {
		return nil, fmt.Errorf("page range %d-%d exceeds %d slices", startPage, endPage, total)
	}

	pages := make([]Page, 0, endPage-startPage+1)
	for p := startPage; p <= endPage; p++ {
		top, bottom := sliceWindow(p-1, total, bounds.Dy())
		rect := image.Rect(bounds.Min.X, bounds.Min.Y+top, bounds.Max.X, bounds.Min.Y+bottom)

		data, err := encodePNG(cropImage(img, rect))
		if err != nil {
			return nil, fmt.Errorf("failed to encode slice %d: %w", p, err)
		}
		pages = append(pages, Page{Number: p, PNG: data})
	}
	return pages, nil
}

// sliceCount returns how many slices a given pixel height produces.
// An image at or under the window height is exactly one page.
func sliceCount(height int) int {
	if height <= maxSliceHeight {
		return 1
	}
	effective := maxSliceHeight - sliceOverlap
	return ((height - sliceOverlap) + effective - 1) / effective
}

// sliceWindow returns the [top, bottom) pixel rows of slice idx (0-based).
// The first slice starts at the top, the last slice ends at the bottom, and
// middle slices advance by the effective (window minus overlap) height.
func sliceWindow(idx, total, height int) (int, int) {
	if total == 1 {
		return 0, height
	}

	effective := maxSliceHeight - sliceOverlap
	switch {
	case idx == 0:
		return 0, maxSliceHeight
	case idx == total-1:
		return height - maxSliceHeight, height
	default:
		top := idx * effective
		return top, top + maxSliceHeight
	}
}

// subImager is implemented by the stdlib image types; SubImage shares
// pixels with the parent, so cropping allocates nothing.
type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

func cropImage(img image.Image, rect image.Rectangle) image.Image {
	if s, ok := img.(subImager); ok {
		return s.SubImage(rect)
	}

	// Decoders outside the stdlib may return types without SubImage.
	out := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	for y := 0; y < rect.Dy(); y++ {
		for x := 0; x < rect.Dx(); x++ {
			out.Set(x, y, img.At(rect.Min.X+x, rect.Min.Y+y))
		}
	}
	return out
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
