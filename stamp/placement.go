// Package stamp places signature images, optionally backed by a company
// stamp, onto document pages.
package stamp

import (
	"github.com/georgepadayatti/docstacker/pdf/bridge"
	"github.com/georgepadayatti/docstacker/pdf/images"
	"github.com/georgepadayatti/docstacker/pdf/layout"
)

// Layout holds the sizing rules for a stamp drawn behind a signature.
type Layout struct {
	// Scale is the stamp width as a multiple of the field width.
	Scale float64
	// MaxHeightRatio caps the stamp height as a multiple of the field height.
	MaxHeightRatio float64
	// Margin is the distance in points the stamp keeps from every page edge.
	Margin float64
	// OffsetX positions the signature across the stamp's spare width,
	// 0 flush left, 1 flush right.
	OffsetX float64
	// OffsetY positions the signature across the stamp's spare height,
	// 0 flush with the bottom, 1 flush with the top.
	OffsetY float64
}

// DefaultLayout returns the default stamp layout.
func DefaultLayout() *Layout {
	return &Layout{
		Scale:          1.4,
		MaxHeightRatio: 2.5,
		Margin:         5,
		OffsetX:        0.7,
		OffsetY:        0.2,
	}
}

// StampSize returns the stamp width and height for a field, preserving the
// stamp's aspect ratio.
func (l *Layout) StampSize(field layout.Rectangle, aspect float64) (float64, float64) {
	w := field.Width * l.Scale
	h := w / aspect
	if limit := field.Height * l.MaxHeightRatio; h > limit {
		h = limit
		w = h * aspect
	}
	return w, h
}

// Place returns the draws for one field on a page of the given size, in
// drawing order. Without a stamp the signature fills the field. With a
// stamp, the stamp is drawn first at the field origin, kept inside the
// page margins, and the signature keeps the field size, offset towards the
// stamp's lower right.
func (l *Layout) Place(page layout.PageSize, field layout.Rectangle, signature, stamp *images.Image) []bridge.Draw {
	if stamp == nil || stamp.AspectRatio() == 0 {
		return []bridge.Draw{{Image: signature, Rect: field}}
	}

	sw, sh := l.StampSize(field, stamp.AspectRatio())
	box := layout.NewRectangle(field.X, field.Y, sw, sh).ClampInto(page, layout.UniformMargins(l.Margin))

	sig := layout.NewRectangle(
		box.X+(box.Width-field.Width)*l.OffsetX,
		box.Y+(box.Height-field.Height)*l.OffsetY,
		field.Width,
		field.Height,
	)
	return []bridge.Draw{
		{Image: stamp, Rect: box},
		{Image: signature, Rect: sig},
	}
}
