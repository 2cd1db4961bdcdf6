package bridge

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/georgepadayatti/docstacker/pdf/layout"
)

var disableConfigDir sync.Once

// PDFCPU implements Engine with pdfcpu.
type PDFCPU struct{}

// NewPDFCPU returns a pdfcpu backed Engine. pdfcpu's on-disk configuration
// directory is disabled so the process never writes to the user's home.
func NewPDFCPU() *PDFCPU {
	disableConfigDir.Do(api.DisableConfigDir)
	return &PDFCPU{}
}

// config returns a fresh configuration per call; pdfcpu records the running
// command on it, so a shared value would race.
func (p *PDFCPU) config() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	// Classic xref tables keep the output importable by gofpdi.
	conf.WriteObjectStream = false
	conf.WriteXRefStream = false
	return conf
}

// PageCount returns the number of pages in pdf.
func (p *PDFCPU) PageCount(pdf []byte) (int, error) {
	n, err := api.PageCount(bytes.NewReader(pdf), p.config())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	return n, nil
}

// PageSizes returns the media box size of every page, in page order. The
// box is reported as stored; /Rotate does not swap width and height.
func (p *PDFCPU) PageSizes(pdf []byte) ([]layout.PageSize, error) {
	ctx, err := api.ReadAndValidate(bytes.NewReader(pdf), p.config())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	boxes, err := ctx.PageBoundaries(nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	if len(boxes) == 0 {
		return nil, ErrNoPages
	}
	sizes := make([]layout.PageSize, len(boxes))
	for i, pb := range boxes {
		mb := pb.MediaBox()
		if mb == nil {
			return nil, fmt.Errorf("%w: page %d has no media box", ErrUnreadable, i)
		}
		sizes[i] = layout.PageSize{Width: mb.Width(), Height: mb.Height()}
	}
	return sizes, nil
}

// Merge concatenates the pages of parts in order.
func (p *PDFCPU) Merge(parts [][]byte) ([]byte, error) {
	readers := make([]io.ReadSeeker, len(parts))
	for i, data := range parts {
		readers[i] = bytes.NewReader(data)
	}
	var out bytes.Buffer
	if err := api.MergeRaw(readers, &out, false, p.config()); err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	return out.Bytes(), nil
}

// Flatten merges the interactive form into static page content. The
// normal appearance of every visible widget is drawn into its page as a
// form XObject fitted to the widget rectangle, then the widgets and the
// catalog's AcroForm are removed. Documents without either are returned
// unchanged.
func (p *PDFCPU) Flatten(pdf []byte) ([]byte, error) {
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(pdf), p.config())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	root, err := ctx.Catalog()
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	_, hasForm := root.Find("AcroForm")
	root.Delete("AcroForm")

	removed := 0
	for i := 1; i <= ctx.PageCount; i++ {
		page, _, inherited, err := ctx.PageDict(i, false)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		n, err := flattenWidgets(ctx, page, inherited)
		if err != nil {
			return nil, fmt.Errorf("page %d widgets: %w", i, err)
		}
		removed += n
	}
	if !hasForm && removed == 0 {
		return pdf, nil
	}

	var out bytes.Buffer
	if err := api.WriteContext(ctx, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	return out.Bytes(), nil
}

// Annotation flags that keep a widget off the printed page.
const (
	annotHidden = 1 << 1
	annotNoView = 1 << 5
)

// flattenWidgets paints the widgets of page into its content and drops
// them from /Annots. It returns the number of widgets removed.
func flattenWidgets(ctx *model.Context, page types.Dict, inherited *model.InheritedPageAttrs) (int, error) {
	obj, ok := page.Find("Annots")
	if !ok {
		return 0, nil
	}
	annots, err := ctx.DereferenceArray(obj)
	if err != nil {
		return 0, err
	}

	var (
		kept    = make(types.Array, 0, len(annots))
		content bytes.Buffer
		xobjs   types.Dict
	)
	for _, a := range annots {
		d, err := ctx.DereferenceDict(a)
		if err != nil {
			return 0, err
		}
		if d == nil {
			kept = append(kept, a)
			continue
		}
		if st := d.NameEntry("Subtype"); st == nil || *st != "Widget" {
			kept = append(kept, a)
			continue
		}

		ref, cm, err := widgetAppearance(ctx, d)
		if err != nil {
			return 0, err
		}
		if ref == nil {
			continue
		}
		if xobjs == nil {
			if xobjs, err = pageXObjects(ctx, page, inherited); err != nil {
				return 0, err
			}
		}
		name := freeXObjectName(xobjs)
		xobjs[name] = *ref
		fmt.Fprintf(&content, "q %s cm /%s Do Q\n", cm, name)
	}

	removed := len(annots) - len(kept)
	switch {
	case removed == 0:
		return 0, nil
	case len(kept) == 0:
		page.Delete("Annots")
	default:
		page["Annots"] = kept
	}
	if content.Len() > 0 {
		if err := ctx.AppendContent(page, content.Bytes()); err != nil {
			return 0, err
		}
	}
	return removed, nil
}

// widgetAppearance resolves the normal appearance stream of a visible
// widget and the matrix mapping its bounding box onto the widget
// rectangle. A nil reference means there is nothing to draw.
func widgetAppearance(ctx *model.Context, widget types.Dict) (*types.IndirectRef, string, error) {
	if f := widget.IntEntry("F"); f != nil && *f&(annotHidden|annotNoView) != 0 {
		return nil, "", nil
	}
	apObj, ok := widget.Find("AP")
	if !ok {
		return nil, "", nil
	}
	ap, err := ctx.DereferenceDict(apObj)
	if err != nil || ap == nil {
		return nil, "", err
	}
	normal, ok := ap.Find("N")
	if !ok {
		return nil, "", nil
	}

	// Checkboxes and radio buttons keep one appearance per state, keyed
	// by the name in /AS.
	resolved, err := ctx.Dereference(normal)
	if err != nil {
		return nil, "", err
	}
	if states, isDict := resolved.(types.Dict); isDict {
		as := widget.NameEntry("AS")
		if as == nil {
			return nil, "", nil
		}
		if normal, ok = states.Find(*as); !ok {
			return nil, "", nil
		}
	}

	sd, _, err := ctx.DereferenceStreamDict(normal)
	if err != nil || sd == nil {
		return nil, "", err
	}
	ref, ok := normal.(types.IndirectRef)
	if !ok {
		r, err := ctx.IndRefForNewObject(*sd)
		if err != nil {
			return nil, "", err
		}
		ref = *r
	}
	sd.Dict.InsertName("Type", "XObject")
	sd.Dict.InsertName("Subtype", "Form")

	rect, err := rectEntry(ctx, widget, "Rect")
	if err != nil || rect == nil {
		return nil, "", err
	}
	bbox, err := rectEntry(ctx, sd.Dict, "BBox")
	if err != nil {
		return nil, "", err
	}
	if bbox == nil {
		bbox = types.NewRectangle(0, 0, rect.Width(), rect.Height())
		sd.Dict.Insert("BBox", bbox.Array())
	}

	sx, sy := 1.0, 1.0
	if bbox.Width() != 0 {
		sx = rect.Width() / bbox.Width()
	}
	if bbox.Height() != 0 {
		sy = rect.Height() / bbox.Height()
	}
	tx := rect.LL.X - bbox.LL.X*sx
	ty := rect.LL.Y - bbox.LL.Y*sy
	return &ref, fmt.Sprintf("%.4f 0 0 %.4f %.4f %.4f", sx, sy, tx, ty), nil
}

// rectEntry reads a rectangle array from d, normalized so LL is the lower
// left corner. A missing or short entry yields nil.
func rectEntry(ctx *model.Context, d types.Dict, key string) (*types.Rectangle, error) {
	obj, ok := d.Find(key)
	if !ok {
		return nil, nil
	}
	arr, err := ctx.DereferenceArray(obj)
	if err != nil || len(arr) != 4 {
		return nil, err
	}
	r, err := ctx.RectForArray(arr)
	if err != nil {
		return nil, err
	}
	return types.NewRectangle(
		math.Min(r.LL.X, r.UR.X), math.Min(r.LL.Y, r.UR.Y),
		math.Max(r.LL.X, r.UR.X), math.Max(r.LL.Y, r.UR.Y),
	), nil
}

// pageXObjects returns the XObject resource dictionary of page, creating
// it, and a page level copy of inherited resources, when needed.
func pageXObjects(ctx *model.Context, page types.Dict, inherited *model.InheritedPageAttrs) (types.Dict, error) {
	var res types.Dict
	if obj, ok := page.Find("Resources"); ok {
		d, err := ctx.DereferenceDict(obj)
		if err != nil {
			return nil, err
		}
		res = d
	}
	if res == nil {
		res = types.NewDict()
		if inherited != nil && inherited.Resources != nil {
			res = inherited.Resources.Clone().(types.Dict)
		}
		page["Resources"] = res
	}

	if obj, ok := res.Find("XObject"); ok {
		d, err := ctx.DereferenceDict(obj)
		if err != nil {
			return nil, err
		}
		if d != nil {
			return d, nil
		}
	}
	d := types.NewDict()
	res["XObject"] = d
	return d, nil
}

func freeXObjectName(xobjs types.Dict) string {
	for n := 0; ; n++ {
		name := fmt.Sprintf("Flat%d", n)
		if _, taken := xobjs[name]; !taken {
			return name
		}
	}
}
