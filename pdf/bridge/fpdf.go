package bridge

import (
	"bytes"
	"fmt"
	"io"

	"codeberg.org/go-pdf/fpdf"
	"codeberg.org/go-pdf/fpdf/contrib/gofpdi"

	"github.com/georgepadayatti/docstacker/pdf/images"
	"github.com/georgepadayatti/docstacker/pdf/layout"
)

// FPDF implements Writer with fpdf, importing existing pages through gofpdi.
type FPDF struct{}

// NewFPDF returns an fpdf backed Writer.
func NewFPDF() *FPDF {
	return &FPDF{}
}

func newDocument() *fpdf.Fpdf {
	pdf := fpdf.New("P", "pt", "", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCompression(true)
	return pdf
}

func output(pdf *fpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	return buf.Bytes(), nil
}

// ImagePages builds a document with one page per entry, each page sized to
// Size and covered edge to edge by its JPEG.
func (w *FPDF) ImagePages(pages []PageImage) ([]byte, error) {
	if len(pages) == 0 {
		return nil, ErrNoPages
	}
	pdf := newDocument()
	opts := fpdf.ImageOptions{ImageType: "JPG"}
	for i, p := range pages {
		pdf.AddPageFormat("P", fpdf.SizeType{Wd: p.Size.Width, Ht: p.Size.Height})
		name := fmt.Sprintf("page-%d", i)
		pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(p.JPEG))
		pdf.ImageOptions(name, 0, 0, p.Size.Width, p.Size.Height, false, opts, 0, "")
		if err := pdf.Error(); err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", ErrWriteFailed, i, err)
		}
	}
	return output(pdf)
}

// Overlay re-creates pdf page by page and draws the images listed for each
// page on top of its imported content, in slice order. sizes gives the
// media box of every page. An image shared between draws is embedded once.
func (w *FPDF) Overlay(src []byte, sizes []layout.PageSize, draws map[int][]Draw) (out []byte, err error) {
	if len(sizes) == 0 {
		return nil, ErrNoPages
	}
	for page := range draws {
		if page < 0 || page >= len(sizes) {
			return nil, fmt.Errorf("%w: %d", ErrPageRange, page)
		}
	}
	// gofpdi panics on sources it cannot parse and fpdf on some image
	// bodies; embedding tells the two apart.
	embedding := false
	defer func() {
		if r := recover(); r != nil {
			cause := ErrUnreadable
			if embedding {
				cause = ErrBadImage
			}
			out, err = nil, fmt.Errorf("%w: %v", cause, r)
		}
	}()

	pdf := newDocument()
	importer := gofpdi.NewImporter()
	rs := io.ReadSeeker(bytes.NewReader(src))
	registered := make(map[*images.Image]string)

	for i, size := range sizes {
		pdf.AddPageFormat("P", fpdf.SizeType{Wd: size.Width, Ht: size.Height})
		tpl := importer.ImportPageFromStream(pdf, &rs, i+1, "/MediaBox")
		importer.UseImportedTemplate(pdf, tpl, 0, 0, size.Width, size.Height)
		if err := pdf.Error(); err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", ErrWriteFailed, i, err)
		}

		for _, d := range draws[i] {
			opts := fpdf.ImageOptions{ImageType: d.Image.Format.FPDFType()}
			name, ok := registered[d.Image]
			if !ok {
				name = fmt.Sprintf("img-%d", len(registered))
				embedding = true
				pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(d.Image.Data))
				embedding = false
				if err := pdf.Error(); err != nil {
					return nil, fmt.Errorf("%w: page %d: %v", ErrBadImage, i, err)
				}
				registered[d.Image] = name
			}
			pdf.ImageOptions(name, d.Rect.X, d.Rect.TopDown(size.Height), d.Rect.Width, d.Rect.Height, false, opts, 0, "")
		}
		if err := pdf.Error(); err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", ErrWriteFailed, i, err)
		}
	}
	return output(pdf)
}
