package layout

// NormalizedRect is a placement relative to the page, origin at the
// top-left corner with Y increasing downward. Values are fractions of the
// page width and height and are not required to stay inside [0,1].
type NormalizedRect struct {
	X, Y          float64
	Width, Height float64
}

// ToPointRect maps n onto a page of the given size in points, origin at
// the bottom-left corner with Y increasing upward. No clamping is applied;
// a placement hanging below the page yields a negative Y.
func ToPointRect(n NormalizedRect, page PageSize) Rectangle {
	return Rectangle{
		X:      n.X * page.Width,
		Y:      (1 - n.Y - n.Height) * page.Height,
		Width:  n.Width * page.Width,
		Height: n.Height * page.Height,
	}
}

// FromPointRect is the inverse of ToPointRect. A zero-sized page maps to
// the zero rectangle.
func FromPointRect(r Rectangle, page PageSize) NormalizedRect {
	if page.IsZero() {
		return NormalizedRect{}
	}
	return NormalizedRect{
		X:      r.X / page.Width,
		Y:      1 - (r.Y+r.Height)/page.Height,
		Width:  r.Width / page.Width,
		Height: r.Height / page.Height,
	}
}
