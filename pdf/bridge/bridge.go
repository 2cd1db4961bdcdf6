// Package bridge adapts third-party PDF primitives to the compositing
// engine: page geometry, merging and flattening through pdfcpu, page
// rasterization through poppler's pdftoppm, and page writing through fpdf.
package bridge

import (
	"context"
	"errors"
	"image"

	"github.com/georgepadayatti/docstacker/pdf/images"
	"github.com/georgepadayatti/docstacker/pdf/layout"
)

// Common errors
var (
	ErrUnreadable    = errors.New("unreadable PDF")
	ErrNoPages       = errors.New("PDF has no pages")
	ErrPageRange     = errors.New("page index out of range")
	ErrRenderFailed  = errors.New("page rendering failed")
	ErrWriteFailed   = errors.New("PDF writing failed")
	ErrBadImage      = errors.New("image cannot be embedded")
	ErrMissingBinary = errors.New("required binary not found")
)

// Engine inspects and rewrites whole documents.
type Engine interface {
	PageCount(pdf []byte) (int, error)
	PageSizes(pdf []byte) ([]layout.PageSize, error)
	Merge(parts [][]byte) ([]byte, error)
	Flatten(pdf []byte) ([]byte, error)
}

// Rasterizer renders a single page (0-indexed) to a bitmap at dpi.
type Rasterizer interface {
	Rasterize(ctx context.Context, pdf []byte, pageIndex int, dpi float64) (image.Image, error)
}

// Writer produces new PDF bytes from images and existing pages.
type Writer interface {
	ImagePages(pages []PageImage) ([]byte, error)
	Overlay(pdf []byte, sizes []layout.PageSize, draws map[int][]Draw) ([]byte, error)
}

// PageImage is a JPEG that fills a page of the given size.
type PageImage struct {
	JPEG []byte
	Size layout.PageSize
}

// Draw places an image on a page. Rect is in points, bottom-left origin.
type Draw struct {
	Image *images.Image
	Rect  layout.Rectangle
}
