package stamp

import (
	"fmt"

	"github.com/georgepadayatti/docstacker/pdf/bridge"
	"github.com/georgepadayatti/docstacker/pdf/images"
	"github.com/georgepadayatti/docstacker/pdf/layout"
)

// Placement is a signature to put on one page.
type Placement struct {
	Page      int
	Field     layout.NormalizedRect
	Signature *images.Image
}

// Plan maps placements onto page draw lists. Placements on the same page
// keep their relative order, so a later placement covers an earlier one
// where they overlap. The stamp, when set, backs every signature.
func (l *Layout) Plan(sizes []layout.PageSize, placements []Placement, stamp *images.Image) (map[int][]bridge.Draw, error) {
	draws := make(map[int][]bridge.Draw)
	for _, p := range placements {
		if p.Page < 0 || p.Page >= len(sizes) {
			return nil, fmt.Errorf("%w: %d", bridge.ErrPageRange, p.Page)
		}
		page := sizes[p.Page]
		rect := layout.ToPointRect(p.Field, page)
		draws[p.Page] = append(draws[p.Page], l.Place(page, rect, p.Signature, stamp)...)
	}
	return draws, nil
}

// Apply draws every placement onto pdf with one write per document.
func (l *Layout) Apply(w bridge.Writer, pdf []byte, sizes []layout.PageSize, placements []Placement, stamp *images.Image) ([]byte, error) {
	draws, err := l.Plan(sizes, placements, stamp)
	if err != nil {
		return nil, err
	}
	return w.Overlay(pdf, sizes, draws)
}
