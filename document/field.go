// Package document holds the data model of a stacked document: signature
// fields, their anchoring rules and the identifiers of document snapshots.
package document

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/georgepadayatti/docstacker/pdf/layout"
)

// Common errors
var (
	ErrUnknownFieldType   = errors.New("unknown field type")
	ErrUnknownAnchorLogic = errors.New("unknown anchor logic")
	ErrMissingFieldID     = errors.New("field id is required")
	ErrDuplicateFieldID   = errors.New("duplicate field id")
	ErrNegativePage       = errors.New("page number must not be negative")
)

// FieldType is the kind of input a field collects.
type FieldType string

const (
	FieldSignature FieldType = "signature"
	FieldInitials  FieldType = "initials"
	FieldDate      FieldType = "date"
	FieldText      FieldType = "text"
)

// ParseFieldType parses s case-insensitively. Empty means signature.
func ParseFieldType(s string) (FieldType, error) {
	switch ft := FieldType(cases.Lower(language.Und).String(strings.TrimSpace(s))); ft {
	case "":
		return FieldSignature, nil
	case FieldSignature, FieldInitials, FieldDate, FieldText:
		return ft, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFieldType, s)
	}
}

// AnchorLogic selects the pages a field is placed on.
type AnchorLogic string

const (
	AnchorFirstPage AnchorLogic = "FIRST_PAGE"
	AnchorLastPage  AnchorLogic = "LAST_PAGE"
	AnchorAllPages  AnchorLogic = "ALL_PAGES"
	AnchorPageN     AnchorLogic = "PAGE_N"
)

// ParseAnchorLogic parses s case-insensitively, accepting '-' for '_'.
// Empty means PAGE_N.
func ParseAnchorLogic(s string) (AnchorLogic, error) {
	normalized := strings.ReplaceAll(cases.Upper(language.Und).String(strings.TrimSpace(s)), "-", "_")
	switch a := AnchorLogic(normalized); a {
	case "":
		return AnchorPageN, nil
	case AnchorFirstPage, AnchorLastPage, AnchorAllPages, AnchorPageN:
		return a, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAnchorLogic, s)
	}
}

// SignatureField is a placement on a document, in normalized coordinates
// with a top-left origin. Values outside [0,1] are kept; clamping happens
// when images are drawn.
type SignatureField struct {
	ID          string      `json:"id"`
	FieldType   FieldType   `json:"fieldType"`
	PageNumber  int         `json:"pageNumber"`
	XNorm       float64     `json:"xNorm"`
	YNorm       float64     `json:"yNorm"`
	WidthNorm   float64     `json:"widthNorm"`
	HeightNorm  float64     `json:"heightNorm"`
	SignerRole  string      `json:"signerRole"`
	Required    bool        `json:"required"`
	AnchorLogic AnchorLogic `json:"anchorLogic"`
}

// Normalized returns the field's placement rectangle.
func (f *SignatureField) Normalized() layout.NormalizedRect {
	return layout.NormalizedRect{X: f.XNorm, Y: f.YNorm, Width: f.WidthNorm, Height: f.HeightNorm}
}

// Pages resolves the 0-indexed pages the field lands on in a document of
// pageCount pages. The result is not range checked for PAGE_N.
func (f *SignatureField) Pages(pageCount int) []int {
	switch f.AnchorLogic {
	case AnchorFirstPage:
		return []int{0}
	case AnchorLastPage:
		return []int{pageCount - 1}
	case AnchorAllPages:
		pages := make([]int, pageCount)
		for i := range pages {
			pages[i] = i
		}
		return pages
	default:
		return []int{f.PageNumber}
	}
}

// Canonicalize validates f and rewrites it into canonical form: NFC
// identifiers and roles, lower-case field type, upper-case anchor logic.
func (f *SignatureField) Canonicalize() error {
	f.ID = norm.NFC.String(strings.TrimSpace(f.ID))
	if f.ID == "" {
		return ErrMissingFieldID
	}
	f.SignerRole = norm.NFC.String(strings.TrimSpace(f.SignerRole))

	ft, err := ParseFieldType(string(f.FieldType))
	if err != nil {
		return fmt.Errorf("field %s: %w", f.ID, err)
	}
	f.FieldType = ft

	anchor, err := ParseAnchorLogic(string(f.AnchorLogic))
	if err != nil {
		return fmt.Errorf("field %s: %w", f.ID, err)
	}
	f.AnchorLogic = anchor

	if f.PageNumber < 0 {
		return fmt.Errorf("field %s: %w: %d", f.ID, ErrNegativePage, f.PageNumber)
	}
	return nil
}

// CanonicalizeAll canonicalizes every field in place and rejects duplicate
// ids.
func CanonicalizeAll(fields []SignatureField) error {
	seen := make(map[string]struct{}, len(fields))
	for i := range fields {
		if err := fields[i].Canonicalize(); err != nil {
			return err
		}
		if _, dup := seen[fields[i].ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateFieldID, fields[i].ID)
		}
		seen[fields[i].ID] = struct{}{}
	}
	return nil
}
