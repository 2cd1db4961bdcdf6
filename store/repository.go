package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/georgepadayatti/docstacker/docerr"
	"github.com/georgepadayatti/docstacker/document"
)

const (
	documentPrefix = "doc:"
	fieldsPrefix   = "fields:"
	stampPrefix    = "stamp:"
)

// Repository maps documents, their signature fields and their stamps onto
// a Store.
type Repository struct {
	store Store
}

// NewRepository returns a repository backed by s.
func NewRepository(s Store) *Repository {
	return &Repository{store: s}
}

// Document returns the stored PDF for id.
func (r *Repository) Document(ctx context.Context, id string) ([]byte, error) {
	data, err := r.store.Get(ctx, documentPrefix+id)
	if errors.Is(err, ErrNotFound) {
		return nil, docerr.NotFound("document", id)
	}
	return data, err
}

// HasDocument reports whether id is stored.
func (r *Repository) HasDocument(ctx context.Context, id string) (bool, error) {
	_, err := r.store.Get(ctx, documentPrefix+id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// PutDocument stores pdf under id, replacing any previous value.
func (r *Repository) PutDocument(ctx context.Context, id string, pdf []byte) error {
	return r.store.Put(ctx, documentPrefix+id, pdf)
}

// DeleteDocument removes the document and everything attached to it.
func (r *Repository) DeleteDocument(ctx context.Context, id string) error {
	for _, k := range []string{documentPrefix, fieldsPrefix, stampPrefix} {
		if err := r.store.Delete(ctx, k+id); err != nil {
			return err
		}
	}
	return nil
}

// Fields returns the saved fields for id, an empty list when none were
// saved.
func (r *Repository) Fields(ctx context.Context, id string) ([]document.SignatureField, error) {
	data, err := r.store.Get(ctx, fieldsPrefix+id)
	if errors.Is(err, ErrNotFound) {
		return []document.SignatureField{}, nil
	}
	if err != nil {
		return nil, err
	}
	var fields []document.SignatureField
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("store: decode fields for %s: %w", id, err)
	}
	if fields == nil {
		fields = []document.SignatureField{}
	}
	return fields, nil
}

// PutFields replaces the field list for id.
func (r *Repository) PutFields(ctx context.Context, id string, fields []document.SignatureField) error {
	if fields == nil {
		fields = []document.SignatureField{}
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("store: encode fields for %s: %w", id, err)
	}
	return r.store.Put(ctx, fieldsPrefix+id, data)
}

// Stamp returns the stamp image stored with id, nil when the document has
// no stamp.
func (r *Repository) Stamp(ctx context.Context, id string) ([]byte, error) {
	data, err := r.store.Get(ctx, stampPrefix+id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return data, err
}

// PutStamp stores the stamp image for id.
func (r *Repository) PutStamp(ctx context.Context, id string, stamp []byte) error {
	return r.store.Put(ctx, stampPrefix+id, stamp)
}
