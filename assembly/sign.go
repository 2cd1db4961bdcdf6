package assembly

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/georgepadayatti/docstacker/docerr"
	"github.com/georgepadayatti/docstacker/document"
	"github.com/georgepadayatti/docstacker/pdf/bridge"
	"github.com/georgepadayatti/docstacker/pdf/images"
	"github.com/georgepadayatti/docstacker/stamp"
)

// SaveFields validates fields and replaces the field set of id. It returns
// the number of saved fields.
func (p *Pipeline) SaveFields(ctx context.Context, id string, fields []document.SignatureField) (int, error) {
	ok, err := p.repo.HasDocument(ctx, id)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, docerr.NotFound("fields", id)
	}

	canonical := append([]document.SignatureField(nil), fields...)
	if err := document.CanonicalizeAll(canonical); err != nil {
		if errors.Is(err, document.ErrNegativePage) {
			return 0, &docerr.Error{Kind: docerr.KindInvalidPageIndex, Op: "fields", Err: err}
		}
		return 0, docerr.Malformed("fields", err)
	}
	if err := p.repo.PutFields(ctx, id, canonical); err != nil {
		return 0, fmt.Errorf("fields: store: %w", err)
	}
	p.log.Info("fields saved", "documentId", id, "fields", len(canonical))
	return len(canonical), nil
}

// Fields returns the saved fields of id, empty when none were saved.
func (p *Pipeline) Fields(ctx context.Context, id string) ([]document.SignatureField, error) {
	return p.repo.Fields(ctx, id)
}

// Sign places the supplied signature images on the saved fields of id and
// stores the result under the signed identifier, which it returns.
// signatures maps field ids to base64 image payloads. Fields without a
// payload are left unsigned and payloads for unknown fields are ignored.
func (p *Pipeline) Sign(ctx context.Context, id string, signatures map[string]string) (string, error) {
	if len(signatures) == 0 {
		return "", docerr.Malformedf("sign", "no signatures supplied")
	}
	start := time.Now()

	pdf, err := p.repo.Document(ctx, id)
	if err != nil {
		return "", err
	}
	fields, err := p.repo.Fields(ctx, id)
	if err != nil {
		return "", err
	}

	var stampImg *images.Image
	raw, err := p.repo.Stamp(ctx, id)
	if err != nil {
		return "", err
	}
	if len(raw) > 0 {
		if stampImg, err = parseImage("sign", raw); err != nil {
			return "", err
		}
	}

	decoded := make(map[string]*images.Image, len(signatures))
	for _, f := range fields {
		payload, ok := signatures[f.ID]
		if !ok || payload == "" {
			continue
		}
		if _, done := decoded[f.ID]; done {
			continue
		}
		img, err := images.ParseBase64(payload)
		if err != nil {
			return "", docerr.Malformed("sign", fmt.Errorf("field %s: %w", f.ID, err))
		}
		if img, err = images.Normalize(img); err != nil {
			return "", docerr.Malformed("sign", fmt.Errorf("field %s: %w", f.ID, err))
		}
		decoded[f.ID] = img
	}

	out, err := p.SignDocument(ctx, pdf, fields, decoded, stampImg)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	signedID := document.SignedID(id)
	if err := p.repo.PutDocument(ctx, signedID, out); err != nil {
		return "", fmt.Errorf("sign: store document: %w", err)
	}
	p.log.Info("document signed",
		"documentId", id,
		"signedId", signedID,
		"signatures", len(decoded),
		"stamp", stampImg != nil,
		"elapsed", time.Since(start))
	return signedID, nil
}

// SignDocument draws signatures onto pdf at their fields, behind the
// stamp when one is given. Fields are applied in order. When no field has
// a signature, pdf is returned unchanged.
func (p *Pipeline) SignDocument(ctx context.Context, pdf []byte, fields []document.SignatureField, signatures map[string]*images.Image, stampImg *images.Image) ([]byte, error) {
	sizes, err := p.PageSizes(pdf)
	if err != nil {
		return nil, err
	}

	var placements []stamp.Placement
	for _, f := range fields {
		sig, ok := signatures[f.ID]
		if !ok || sig == nil {
			continue
		}
		for _, page := range f.Pages(len(sizes)) {
			if page < 0 || page >= len(sizes) {
				return nil, docerr.InvalidPage("sign", page, len(sizes))
			}
			placements = append(placements, stamp.Placement{
				Page:      page,
				Field:     f.Normalized(),
				Signature: sig,
			})
		}
	}
	if len(placements) == 0 {
		return pdf, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out, err := p.layout.Apply(p.writer, pdf, sizes, placements, stampImg)
	if errors.Is(err, bridge.ErrBadImage) {
		return nil, docerr.Malformed("sign", err)
	}
	if err != nil {
		return nil, fmt.Errorf("sign: %w", err)
	}
	return out, nil
}
