// Package letterhead lays a letterhead underneath every page of a document
// by rasterizing both, keying out the page's paper white and embedding the
// composite back as a full-page image.
package letterhead

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/fogleman/gg"
	"golang.org/x/sync/errgroup"

	"github.com/georgepadayatti/docstacker/docerr"
	"github.com/georgepadayatti/docstacker/logger"
	"github.com/georgepadayatti/docstacker/pdf/bridge"
	"github.com/georgepadayatti/docstacker/pdf/images"
)

// Options configures the compositor.
type Options struct {
	// DPI is the raster resolution for the letterhead and every page.
	DPI float64
	// JPEGQuality is the quality of the embedded page images.
	JPEGQuality int
	// WhiteThreshold is the channel value at and above which page pixels
	// are treated as paper and made transparent.
	WhiteThreshold uint8
	// Workers bounds the number of pages rendered at once.
	Workers int
}

// DefaultOptions returns the default compositor options.
func DefaultOptions() *Options {
	return &Options{
		DPI:            150,
		JPEGQuality:    75,
		WhiteThreshold: images.DefaultWhiteThreshold,
		Workers:        4,
	}
}

// Compositor applies letterhead underlays.
type Compositor struct {
	engine     bridge.Engine
	rasterizer bridge.Rasterizer
	writer     bridge.Writer
	opts       Options
	log        *logger.Logger
}

// New creates a Compositor. A nil opts uses DefaultOptions and a nil log
// discards output.
func New(engine bridge.Engine, rasterizer bridge.Rasterizer, writer bridge.Writer, opts *Options, log *logger.Logger) *Compositor {
	if opts == nil {
		opts = DefaultOptions()
	}
	o := *opts
	if o.DPI <= 0 {
		o.DPI = 150
	}
	if o.Workers <= 0 {
		o.Workers = 1
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Compositor{
		engine:     engine,
		rasterizer: rasterizer,
		writer:     writer,
		opts:       o,
		log:        log.With("component", "letterhead"),
	}
}

// Apply returns a new document whose pages are document's pages composited
// over page 0 of letterhead. The output has the same page count, order and
// media box sizes as document. An empty letterhead returns document as is.
func (c *Compositor) Apply(ctx context.Context, document, letterhead []byte) ([]byte, error) {
	if len(letterhead) == 0 {
		return document, nil
	}
	start := time.Now()

	sizes, err := c.engine.PageSizes(document)
	if err != nil {
		return nil, docerr.Malformed("letterhead", fmt.Errorf("document: %w", err))
	}
	if _, err := c.engine.PageCount(letterhead); err != nil {
		return nil, docerr.Malformed("letterhead", fmt.Errorf("letterhead: %w", err))
	}

	under, err := c.rasterizer.Rasterize(ctx, letterhead, 0, c.opts.DPI)
	if err != nil {
		return nil, fmt.Errorf("render letterhead: %w", err)
	}

	pages := make([]bridge.PageImage, len(sizes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Workers)
	for i := range sizes {
		g.Go(func() error {
			page, err := c.rasterizer.Rasterize(gctx, document, i, c.opts.DPI)
			if err != nil {
				return fmt.Errorf("render page %d: %w", i, err)
			}
			jpg, err := images.EncodeJPEG(Composite(under, page, c.opts.WhiteThreshold), c.opts.JPEGQuality)
			if err != nil {
				return fmt.Errorf("page %d: %w", i, err)
			}
			pages[i] = bridge.PageImage{JPEG: jpg, Size: sizes[i]}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("letterhead: %w", err)
	}

	out, err := c.writer.ImagePages(pages)
	if err != nil {
		return nil, fmt.Errorf("letterhead: %w", err)
	}
	c.log.Info("letterhead applied",
		"pages", len(pages),
		"dpi", c.opts.DPI,
		"bytes", len(out),
		"elapsed", time.Since(start))
	return out, nil
}

// Composite draws under and then the white-keyed page on a white canvas
// large enough for both, each centred on it, and returns the opaque
// result.
func Composite(under, page image.Image, threshold uint8) image.Image {
	ub, pb := under.Bounds(), page.Bounds()
	w := max(ub.Dx(), pb.Dx())
	h := max(ub.Dy(), pb.Dy())

	dc := gg.NewContext(w, h)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.DrawImage(under, (w-ub.Dx())/2, (h-ub.Dy())/2)
	dc.DrawImage(images.WhiteKey(page, threshold), (w-pb.Dx())/2, (h-pb.Dy())/2)
	return images.FlattenOnWhite(dc.Image())
}
