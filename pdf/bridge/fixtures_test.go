package bridge

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"testing"

	"codeberg.org/go-pdf/fpdf"
	"github.com/stretchr/testify/require"

	"github.com/georgepadayatti/docstacker/pdf/layout"
)

var (
	letter = layout.PageSize{Width: 612, Height: 792}
	a4     = layout.PageSize{Width: 595, Height: 842}
	legal  = layout.PageSize{Width: 612, Height: 1008}
)

// makePDF builds a document with one page per size, each carrying a label
// and a filled box so rasterized pages are not blank.
func makePDF(t *testing.T, sizes ...layout.PageSize) []byte {
	t.Helper()
	pdf := fpdf.New("P", "pt", "", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetFont("Helvetica", "", 14)
	for i, s := range sizes {
		pdf.AddPageFormat("P", fpdf.SizeType{Wd: s.Width, Ht: s.Height})
		pdf.SetFillColor(20, 40, 160)
		pdf.Rect(36, 36, 120, 40, "F")
		pdf.Text(36, 120, fmt.Sprintf("page %d", i+1))
	}
	var buf bytes.Buffer
	require.NoError(t, pdf.Output(&buf))
	return buf.Bytes()
}

func makePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 200, G: 0, B: 0, A: uint8(55 + x%200)})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// rawPDF assembles a classic PDF whose object n is objects[n-1]. Object 1
// must be the catalog.
func rawPDF(objects ...string) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func rawStream(dict, data string) string {
	return fmt.Sprintf("<< %s /Length %d >>\nstream\n%s\nendstream", dict, len(data), data)
}

// filledFormPDF is a one page document with a filled text field whose
// appearance draws its value, a hidden widget and a text note.
func filledFormPDF() []byte {
	return rawPDF(
		"<< /Type /Catalog /Pages 2 0 R /AcroForm << /Fields [4 0 R 9 0 R] /DA (/Helv 0 Tf 0 g) /DR << /Font << /Helv 6 0 R >> >> >> >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << >> /Contents 7 0 R /Annots [4 0 R 8 0 R 9 0 R] >>",
		"<< /Type /Annot /Subtype /Widget /FT /Tx /T (name) /V (FILLED) /F 4 /P 3 0 R /Rect [100 600 300 630] /AP << /N 5 0 R >> >>",
		rawStream("/Type /XObject /Subtype /Form /BBox [0 0 200 30] /Resources << /Font << /Helv 6 0 R >> >>",
			"/Tx BMC BT /Helv 12 Tf 2 10 Td (FILLED) Tj ET EMC"),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
		rawStream("", "0 0 1 rg 36 36 100 40 re f"),
		"<< /Type /Annot /Subtype /Text /Rect [10 10 30 30] /Contents (note) >>",
		"<< /Type /Annot /Subtype /Widget /FT /Tx /T (secret) /V (HIDDEN) /F 2 /P 3 0 R /Rect [100 500 300 530] /AP << /N 10 0 R >> >>",
		rawStream("/Type /XObject /Subtype /Form /BBox [0 0 200 30]", "BT (HIDDEN) Tj ET"),
	)
}
