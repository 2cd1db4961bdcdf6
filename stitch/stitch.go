// Package stitch concatenates ordered PDF parts into one document.
package stitch

import (
	"context"
	"fmt"

	"github.com/georgepadayatti/docstacker/docerr"
	"github.com/georgepadayatti/docstacker/logger"
	"github.com/georgepadayatti/docstacker/pdf/bridge"
)

// Stitcher merges PDF parts through an Engine.
type Stitcher struct {
	engine bridge.Engine
	log    *logger.Logger
}

// New creates a Stitcher. A nil log discards output.
func New(engine bridge.Engine, log *logger.Logger) *Stitcher {
	if log == nil {
		log = logger.Nop()
	}
	return &Stitcher{engine: engine, log: log.With("component", "stitcher")}
}

// Stitch merges the non-empty parts in order: all pages of the first
// present part, then all pages of the next. A part that does not parse
// fails the whole call with a malformed input error naming its position.
// A single present part is returned as a copy; no present parts yields
// nil.
func (s *Stitcher) Stitch(ctx context.Context, parts ...[]byte) ([]byte, error) {
	present := make([][]byte, 0, len(parts))
	pages := 0
	for i, part := range parts {
		if len(part) == 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := s.engine.PageCount(part)
		if err != nil {
			return nil, docerr.Malformed("stitch", fmt.Errorf("part %d: %w", i, err))
		}
		pages += n
		present = append(present, part)
	}

	switch len(present) {
	case 0:
		return nil, nil
	case 1:
		out := make([]byte, len(present[0]))
		copy(out, present[0])
		return out, nil
	}

	out, err := s.engine.Merge(present)
	if err != nil {
		return nil, fmt.Errorf("stitch: %w", err)
	}
	s.log.Debug("stitched parts", "parts", len(present), "pages", pages, "bytes", len(out))
	return out, nil
}
