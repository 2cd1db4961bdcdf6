package layout

import "testing"

func TestToPointRect(t *testing.T) {
	tests := []struct {
		name     string
		in       NormalizedRect
		page     PageSize
		expected Rectangle
	}{
		{
			name:     "full page",
			in:       NormalizedRect{0, 0, 1, 1},
			page:     letter,
			expected: NewRectangle(0, 0, 612, 792),
		},
		{
			name:     "signature box",
			in:       NormalizedRect{0.1, 0.1, 0.2, 0.05},
			page:     letter,
			expected: NewRectangle(61.2, 673.2, 122.4, 39.6),
		},
		{
			name:     "top left corner",
			in:       NormalizedRect{0, 0, 0.5, 0.5},
			page:     a4,
			expected: NewRectangle(0, 421, 297.5, 421),
		},
		{
			name:     "overhanging bottom is not clamped",
			in:       NormalizedRect{0.5, 0.95, 0.2, 0.1},
			page:     letter,
			expected: NewRectangle(306, -39.6, 122.4, 79.2),
		},
	}

	for _, tt := range tests {
		got := ToPointRect(tt.in, tt.page)
		if !rectEqual(got, tt.expected) {
			t.Errorf("%s: ToPointRect(%+v) = %+v, want %+v", tt.name, tt.in, got, tt.expected)
		}
	}
}

func TestPointRectRoundTrip(t *testing.T) {
	steps := []float64{0, 0.05, 0.25, 0.5, 0.73, 1}
	for _, x := range steps {
		for _, y := range steps {
			for _, w := range steps {
				for _, h := range steps {
					in := NormalizedRect{x, y, w, h}
					out := FromPointRect(ToPointRect(in, letter), letter)
					if !floatEqual(out.X, in.X) || !floatEqual(out.Y, in.Y) ||
						!floatEqual(out.Width, in.Width) || !floatEqual(out.Height, in.Height) {
						t.Fatalf("round trip of %+v = %+v", in, out)
					}
				}
			}
		}
	}
}

func TestFromPointRectZeroPage(t *testing.T) {
	got := FromPointRect(NewRectangle(1, 2, 3, 4), PageSize{})
	if got != (NormalizedRect{}) {
		t.Errorf("FromPointRect on zero page = %+v, want zero", got)
	}
}
