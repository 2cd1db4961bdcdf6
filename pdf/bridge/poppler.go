package bridge

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"
)

// PopplerOptions configures the pdftoppm rasterizer.
type PopplerOptions struct {
	// Binary is the pdftoppm executable name or path.
	Binary string
	// WorkDir holds per-render scratch directories. Empty uses os.TempDir.
	WorkDir string
	// Timeout bounds a single page render.
	Timeout time.Duration
}

// DefaultPopplerOptions returns the default rasterizer options.
func DefaultPopplerOptions() *PopplerOptions {
	return &PopplerOptions{
		Binary:  "pdftoppm",
		Timeout: 2 * time.Minute,
	}
}

// Poppler implements Rasterizer by running pdftoppm.
type Poppler struct {
	opts PopplerOptions
}

// NewPoppler creates a Poppler rasterizer. A nil opts uses the defaults.
func NewPoppler(opts *PopplerOptions) *Poppler {
	if opts == nil {
		opts = DefaultPopplerOptions()
	}
	o := *opts
	if o.Binary == "" {
		o.Binary = "pdftoppm"
	}
	if o.Timeout <= 0 {
		o.Timeout = 2 * time.Minute
	}
	return &Poppler{opts: o}
}

// AssertReady checks that the pdftoppm binary can be found.
func (p *Poppler) AssertReady() error {
	if _, err := exec.LookPath(p.opts.Binary); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrMissingBinary, p.opts.Binary, err)
	}
	return nil
}

// Rasterize renders page pageIndex (0-indexed) of pdf as an RGB bitmap at
// dpi. The source is written to a private scratch directory that is
// removed afterwards.
func (p *Poppler) Rasterize(ctx context.Context, pdf []byte, pageIndex int, dpi float64) (image.Image, error) {
	if pageIndex < 0 {
		return nil, fmt.Errorf("%w: %d", ErrPageRange, pageIndex)
	}
	if dpi <= 0 {
		dpi = 150
	}
	if err := p.AssertReady(); err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp(p.opts.WorkDir, "raster-")
	if err != nil {
		return nil, fmt.Errorf("mkdir scratch: %w", err)
	}
	defer os.RemoveAll(dir)

	src := filepath.Join(dir, "source.pdf")
	if err := os.WriteFile(src, pdf, 0o600); err != nil {
		return nil, fmt.Errorf("write scratch pdf: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	page := strconv.Itoa(pageIndex + 1)
	prefix := filepath.Join(dir, "page")
	args := []string{
		"-r", strconv.FormatFloat(dpi, 'f', -1, 64),
		"-png",
		"-f", page, "-l", page,
		"-singlefile",
		src, prefix,
	}
	cmd := exec.CommandContext(ctx, p.opts.Binary, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrRenderFailed, ctx.Err())
		}
		return nil, fmt.Errorf("%w: pdftoppm: %v; out=%s", ErrRenderFailed, err, string(out))
	}

	f, err := os.Open(prefix + ".png")
	if err != nil {
		// pdftoppm exits cleanly without output when the page does not exist.
		return nil, fmt.Errorf("%w: page %d: %v", ErrPageRange, pageIndex, err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: decode output: %v", ErrRenderFailed, err)
	}
	return img, nil
}
