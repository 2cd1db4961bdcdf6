// Package layout provides page geometry in PDF point space and the mapping
// from normalized editor coordinates onto it.
package layout

// PageSize represents page dimensions in points.
type PageSize struct {
	Width  float64
	Height float64
}

// IsZero reports whether either side is not positive.
func (p PageSize) IsZero() bool {
	return p.Width <= 0 || p.Height <= 0
}

// Rect returns the full page as a rectangle anchored at the origin.
func (p PageSize) Rect() Rectangle {
	return Rectangle{Width: p.Width, Height: p.Height}
}

// Rectangle represents a rectangle with origin at bottom-left (PDF coordinates).
type Rectangle struct {
	X, Y          float64 // Bottom-left corner
	Width, Height float64
}

// NewRectangle creates a new rectangle.
func NewRectangle(x, y, width, height float64) Rectangle {
	return Rectangle{X: x, Y: y, Width: width, Height: height}
}

// Right returns the right edge X coordinate.
func (r Rectangle) Right() float64 {
	return r.X + r.Width
}

// Top returns the top edge Y coordinate.
func (r Rectangle) Top() float64 {
	return r.Y + r.Height
}

// Inset returns the rectangle shrunk by m on each side.
func (r Rectangle) Inset(m Margins) Rectangle {
	return Rectangle{
		X:      r.X + m.Left,
		Y:      r.Y + m.Bottom,
		Width:  r.Width - m.Left - m.Right,
		Height: r.Height - m.Top - m.Bottom,
	}
}

// TopDown returns the Y coordinate of the rectangle's top edge measured
// from the top of a page of the given height, for writers whose origin is
// the top-left corner.
func (r Rectangle) TopDown(pageHeight float64) float64 {
	return pageHeight - r.Y - r.Height
}

// Margins represents spacing kept free along each page edge.
type Margins struct {
	Top, Right, Bottom, Left float64
}

// UniformMargins creates margins with the same value on all sides.
func UniformMargins(value float64) Margins {
	return Margins{value, value, value, value}
}

// ClampInto moves r so that it does not cross the margins of page. The
// rectangle keeps its size. Low edges are pushed in first, then high
// edges, so a rectangle larger than the usable area ends up flush with the
// high margin.
func (r Rectangle) ClampInto(page PageSize, m Margins) Rectangle {
	area := page.Rect().Inset(m)
	out := r
	if out.X < area.X {
		out.X = area.X
	}
	if out.Y < area.Y {
		out.Y = area.Y
	}
	if out.Right() > area.Right() {
		out.X = area.Right() - out.Width
	}
	if out.Top() > area.Top() {
		out.Y = area.Top() - out.Height
	}
	return out
}
