package store

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// File stores one file per key under a root directory. Keys are encoded
// into file names, so any key is accepted. Writes go through a temporary
// file and a rename so a reader never sees a partial value.
type File struct {
	root string
}

// NewFile creates root if needed and returns a store rooted there.
func NewFile(root string) (*File, error) {
	if root == "" {
		return nil, errors.New("store: file backend needs a directory")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("store: create %s: %w", root, err)
	}
	return &File{root: root}, nil
}

func (f *File) path(key string) string {
	return filepath.Join(f.root, base64.RawURLEncoding.EncodeToString([]byte(key)))
}

func (f *File) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: read %q: %w", key, err)
	}
	return data, nil
}

func (f *File) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(f.root, ".put-*")
	if err != nil {
		return fmt.Errorf("store: write %q: %w", key, err)
	}
	name := tmp.Name()
	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(name)
		return fmt.Errorf("store: write %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return fmt.Errorf("store: write %q: %w", key, err)
	}
	if err := os.Rename(name, f.path(key)); err != nil {
		os.Remove(name)
		return fmt.Errorf("store: write %q: %w", key, err)
	}
	return nil
}

func (f *File) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := os.Remove(f.path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("store: delete %q: %w", key, err)
	}
	return nil
}

func (f *File) Close() error { return nil }
