// Package assembly runs the document lifecycle: stacking parts into a
// letterheaded document, saving signature fields, signing and finalizing.
// Every step stores its result under a new identifier and leaves earlier
// snapshots untouched.
package assembly

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/georgepadayatti/docstacker/docerr"
	"github.com/georgepadayatti/docstacker/document"
	"github.com/georgepadayatti/docstacker/letterhead"
	"github.com/georgepadayatti/docstacker/logger"
	"github.com/georgepadayatti/docstacker/pdf/bridge"
	"github.com/georgepadayatti/docstacker/pdf/images"
	"github.com/georgepadayatti/docstacker/pdf/layout"
	"github.com/georgepadayatti/docstacker/stamp"
	"github.com/georgepadayatti/docstacker/stitch"
	"github.com/georgepadayatti/docstacker/store"
)

// Options configures a Pipeline.
type Options struct {
	// Letterhead configures page compositing.
	Letterhead *letterhead.Options
	// Layout sizes stamps and signatures.
	Layout *stamp.Layout
	// PreviewDPI is the resolution of RenderPage images.
	PreviewDPI float64
}

// DefaultOptions returns the default pipeline options.
func DefaultOptions() *Options {
	return &Options{
		Letterhead: letterhead.DefaultOptions(),
		Layout:     stamp.DefaultLayout(),
		PreviewDPI: 150,
	}
}

// Parts are the inputs of a stack operation. Cover and Body are required;
// an empty slice marks any other part as absent.
type Parts struct {
	Letterhead []byte
	Cover      []byte
	Body       []byte
	Terms      []byte
	Stamp      []byte
}

// StackResult describes a stacked document.
type StackResult struct {
	DocumentID string
	PageCount  int
}

// Info describes a stored document.
type Info struct {
	DocumentID string
	PageCount  int
	PageWidth  float64
	PageHeight float64
}

// Pipeline ties the compositing engine to a document repository.
type Pipeline struct {
	repo       *store.Repository
	engine     bridge.Engine
	rasterizer bridge.Rasterizer
	writer     bridge.Writer
	stitcher   *stitch.Stitcher
	compositor *letterhead.Compositor
	layout     *stamp.Layout
	previewDPI float64
	log        *logger.Logger

	newID func() string
}

// New creates a Pipeline. A nil opts uses DefaultOptions and a nil log
// discards output.
func New(repo *store.Repository, engine bridge.Engine, rasterizer bridge.Rasterizer, writer bridge.Writer, opts *Options, log *logger.Logger) *Pipeline {
	if opts == nil {
		opts = DefaultOptions()
	}
	if log == nil {
		log = logger.Nop()
	}
	l := opts.Layout
	if l == nil {
		l = stamp.DefaultLayout()
	}
	dpi := opts.PreviewDPI
	if dpi <= 0 {
		dpi = 150
	}
	return &Pipeline{
		repo:       repo,
		engine:     engine,
		rasterizer: rasterizer,
		writer:     writer,
		stitcher:   stitch.New(engine, log),
		compositor: letterhead.New(engine, rasterizer, writer, opts.Letterhead, log),
		layout:     l,
		previewDPI: dpi,
		log:        log.With("component", "pipeline"),
		newID:      uuid.NewString,
	}
}

// Assemble stitches cover, body and terms in that order and lays the
// letterhead under every page. Nothing is stored.
func (p *Pipeline) Assemble(ctx context.Context, parts Parts) ([]byte, error) {
	if len(parts.Cover) == 0 || len(parts.Body) == 0 {
		return nil, docerr.Malformedf("stack", "cover and body are required")
	}
	stitched, err := p.stitcher.Stitch(ctx, parts.Cover, parts.Body, parts.Terms)
	if err != nil {
		return nil, err
	}
	return p.compositor.Apply(ctx, stitched, parts.Letterhead)
}

// Stack assembles parts and stores the result, together with the stamp
// when one is given, under a fresh identifier.
func (p *Pipeline) Stack(ctx context.Context, parts Parts) (*StackResult, error) {
	start := time.Now()

	var stampImg *images.Image
	if len(parts.Stamp) > 0 {
		img, err := parseImage("stamp", parts.Stamp)
		if err != nil {
			return nil, err
		}
		stampImg = img
	}

	out, err := p.Assemble(ctx, parts)
	if err != nil {
		return nil, err
	}
	count, err := p.engine.PageCount(out)
	if err != nil {
		return nil, fmt.Errorf("stack: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	id := p.newID()
	if err := p.repo.PutDocument(ctx, id, out); err != nil {
		return nil, fmt.Errorf("stack: store document: %w", err)
	}
	if stampImg != nil {
		if err := p.repo.PutStamp(ctx, id, stampImg.Data); err != nil {
			if derr := p.repo.DeleteDocument(context.WithoutCancel(ctx), id); derr != nil {
				p.log.Warn("cleanup after failed stamp write", "documentId", id, "error", derr)
			}
			return nil, fmt.Errorf("stack: store stamp: %w", err)
		}
	}

	p.log.Info("document stacked",
		"documentId", id,
		"pages", count,
		"letterhead", len(parts.Letterhead) > 0,
		"terms", len(parts.Terms) > 0,
		"stamp", stampImg != nil,
		"elapsed", time.Since(start))
	return &StackResult{DocumentID: id, PageCount: count}, nil
}

// Document returns the stored bytes of id.
func (p *Pipeline) Document(ctx context.Context, id string) ([]byte, error) {
	return p.repo.Document(ctx, id)
}

// Finalize strips interactive form structures from id and stores the
// result under the final identifier, which it returns.
func (p *Pipeline) Finalize(ctx context.Context, id string) (string, error) {
	pdf, err := p.repo.Document(ctx, id)
	if err != nil {
		return "", err
	}
	out, err := p.engine.Flatten(pdf)
	if err != nil {
		return "", fmt.Errorf("finalize: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	finalID := document.FinalID(id)
	if err := p.repo.PutDocument(ctx, finalID, out); err != nil {
		return "", fmt.Errorf("finalize: store document: %w", err)
	}
	p.log.Info("document finalized", "documentId", id, "finalId", finalID)
	return finalID, nil
}

// Info returns the page count and page 0 size of id.
func (p *Pipeline) Info(ctx context.Context, id string) (*Info, error) {
	pdf, err := p.repo.Document(ctx, id)
	if err != nil {
		return nil, err
	}
	sizes, err := p.engine.PageSizes(pdf)
	if err != nil {
		return nil, fmt.Errorf("info: %w", err)
	}
	info := &Info{DocumentID: id, PageCount: len(sizes)}
	if len(sizes) > 0 {
		info.PageWidth = sizes[0].Width
		info.PageHeight = sizes[0].Height
	}
	return info, nil
}

// RenderPage returns page (0-indexed) of id as a PNG.
func (p *Pipeline) RenderPage(ctx context.Context, id string, page int) ([]byte, error) {
	pdf, err := p.repo.Document(ctx, id)
	if err != nil {
		return nil, err
	}
	return p.RenderPDFPage(ctx, pdf, page)
}

// RenderPDFPage renders page of pdf as a PNG at the preview resolution.
func (p *Pipeline) RenderPDFPage(ctx context.Context, pdf []byte, page int) ([]byte, error) {
	count, err := p.engine.PageCount(pdf)
	if err != nil {
		return nil, docerr.Malformed("render", err)
	}
	if page < 0 || page >= count {
		return nil, docerr.InvalidPage("render", page, count)
	}
	img, err := p.rasterizer.Rasterize(ctx, pdf, page, p.previewDPI)
	if err != nil {
		return nil, fmt.Errorf("render page %d: %w", page, err)
	}
	return images.EncodePNG(img)
}

// PageSizes returns the media box sizes of pdf.
func (p *Pipeline) PageSizes(pdf []byte) ([]layout.PageSize, error) {
	sizes, err := p.engine.PageSizes(pdf)
	if err != nil {
		return nil, docerr.Malformed("inspect", err)
	}
	return sizes, nil
}

func parseImage(op string, data []byte) (*images.Image, error) {
	img, err := images.Parse(data)
	if err != nil {
		return nil, docerr.Malformed(op, err)
	}
	img, err = images.Normalize(img)
	if err != nil {
		return nil, docerr.Malformed(op, err)
	}
	return img, nil
}
