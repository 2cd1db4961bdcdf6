package layout

import (
	"math"
	"testing"
)

const tolerance = 0.0001

func floatEqual(a, b float64) bool {
	return math.Abs(a-b) < tolerance
}

func rectEqual(a, b Rectangle) bool {
	return floatEqual(a.X, b.X) && floatEqual(a.Y, b.Y) &&
		floatEqual(a.Width, b.Width) && floatEqual(a.Height, b.Height)
}

var (
	letter = PageSize{Width: 612, Height: 792}
	a4     = PageSize{Width: 595, Height: 842}
)

func TestPageSize(t *testing.T) {
	if !(PageSize{0, 10}).IsZero() {
		t.Error("page with zero width should be zero")
	}
	if letter.IsZero() {
		t.Error("letter should not be zero")
	}
	r := letter.Rect()
	if r.X != 0 || r.Y != 0 || r.Width != 612 || r.Height != 792 {
		t.Errorf("letter.Rect() = %+v", r)
	}
}

func TestRectangle(t *testing.T) {
	r := NewRectangle(10, 20, 100, 50)

	if r.Right() != 110 {
		t.Errorf("Right() = %v, want 110", r.Right())
	}
	if r.Top() != 70 {
		t.Errorf("Top() = %v, want 70", r.Top())
	}
	if got := r.TopDown(792); got != 722 {
		t.Errorf("TopDown(792) = %v, want 722", got)
	}

	inner := letter.Rect().Inset(Margins{Top: 1, Right: 2, Bottom: 3, Left: 4})
	if !rectEqual(inner, NewRectangle(4, 3, 606, 788)) {
		t.Errorf("Inset() = %+v", inner)
	}
}

func TestClampInto(t *testing.T) {
	margins := UniformMargins(5)
	tests := []struct {
		name     string
		in       Rectangle
		expected Rectangle
	}{
		{"inside", NewRectangle(100, 100, 50, 20), NewRectangle(100, 100, 50, 20)},
		{"left", NewRectangle(-20, 100, 50, 20), NewRectangle(5, 100, 50, 20)},
		{"bottom", NewRectangle(100, -3, 50, 20), NewRectangle(100, 5, 50, 20)},
		{"right", NewRectangle(600, 100, 50, 20), NewRectangle(557, 100, 50, 20)},
		{"top", NewRectangle(100, 780, 50, 20), NewRectangle(100, 767, 50, 20)},
		{"wider than page", NewRectangle(0, 100, 700, 20), NewRectangle(-93, 100, 700, 20)},
	}

	for _, tt := range tests {
		got := tt.in.ClampInto(letter, margins)
		if !rectEqual(got, tt.expected) {
			t.Errorf("%s: ClampInto(%+v) = %+v, want %+v", tt.name, tt.in, got, tt.expected)
		}
	}
}

func TestClampIntoUnevenMargins(t *testing.T) {
	m := Margins{Top: 10, Right: 20, Bottom: 30, Left: 40}
	page := PageSize{Width: 200, Height: 100}

	got := NewRectangle(0, 0, 50, 20).ClampInto(page, m)
	if !rectEqual(got, NewRectangle(40, 30, 50, 20)) {
		t.Errorf("low edges: got %+v", got)
	}
	got = NewRectangle(190, 95, 50, 20).ClampInto(page, m)
	if !rectEqual(got, NewRectangle(130, 70, 50, 20)) {
		t.Errorf("high edges: got %+v", got)
	}
}
