package stamp

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"codeberg.org/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/georgepadayatti/docstacker/pdf/bridge"
	"github.com/georgepadayatti/docstacker/pdf/images"
	"github.com/georgepadayatti/docstacker/pdf/layout"
)

// createTestPNG creates a simple PNG image for testing.
func createTestPNG(t *testing.T, width, height int) *images.Image {
	t.Helper()
	rgba := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			rgba.Set(x, y, color.RGBA{R: uint8(x % 256), G: 0, B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, rgba))
	img, err := images.Parse(buf.Bytes())
	require.NoError(t, err)
	return img
}

func makePDF(t *testing.T, pages int) []byte {
	t.Helper()
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetFont("Helvetica", "", 12)
	for i := 0; i < pages; i++ {
		pdf.AddPage()
		pdf.Text(50, 50, "agreement")
	}
	var buf bytes.Buffer
	require.NoError(t, pdf.Output(&buf))
	return buf.Bytes()
}

func TestPlanGroupsByPageInOrder(t *testing.T) {
	l := DefaultLayout()
	sizes := []layout.PageSize{letter, letter, a4}
	first, second, third := testImage(10, 5), testImage(10, 5), testImage(10, 5)
	stamp := testImage(40, 10)

	draws, err := l.Plan(sizes, []Placement{
		{Page: 2, Field: layout.NormalizedRect{X: 0.1, Y: 0.1, Width: 0.2, Height: 0.05}, Signature: first},
		{Page: 0, Field: layout.NormalizedRect{X: 0.5, Y: 0.5, Width: 0.2, Height: 0.05}, Signature: second},
		{Page: 2, Field: layout.NormalizedRect{X: 0.1, Y: 0.12, Width: 0.2, Height: 0.05}, Signature: third},
	}, stamp)
	require.NoError(t, err)

	require.Len(t, draws[0], 2)
	require.Len(t, draws[2], 4)
	assert.Empty(t, draws[1])
	assert.Same(t, stamp, draws[2][0].Image)
	assert.Same(t, first, draws[2][1].Image)
	assert.Same(t, stamp, draws[2][2].Image)
	assert.Same(t, third, draws[2][3].Image)

	// The A4 page is mapped with its own size.
	assert.InDelta(t, 0.1*595, draws[2][0].Rect.X, tolerance)
}

func TestPlanRejectsBadPage(t *testing.T) {
	l := DefaultLayout()
	_, err := l.Plan([]layout.PageSize{letter}, []Placement{{Page: 1, Signature: testImage(1, 1)}}, nil)
	assert.ErrorIs(t, err, bridge.ErrPageRange)
}

func TestApplyWritesDocument(t *testing.T) {
	l := DefaultLayout()
	engine := bridge.NewPDFCPU()
	doc := makePDF(t, 2)
	sizes, err := engine.PageSizes(doc)
	require.NoError(t, err)

	out, err := l.Apply(bridge.NewFPDF(), doc, sizes, []Placement{
		{Page: 1, Field: layout.NormalizedRect{X: 0.6, Y: 0.8, Width: 0.3, Height: 0.06}, Signature: createTestPNG(t, 120, 40)},
	}, createTestPNG(t, 200, 200))
	require.NoError(t, err)

	n, err := engine.PageCount(out)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
