// Package docerr defines the error taxonomy shared by the compositing
// engine, the assembly pipeline and the HTTP layer.
package docerr

import (
	"errors"
	"fmt"
)

// Sentinel errors. Callers match with errors.Is.
var (
	ErrNotFound         = errors.New("document not found")
	ErrMalformedInput   = errors.New("malformed input")
	ErrInvalidPageIndex = errors.New("invalid page index")
)

// Kind classifies an error for clients.
type Kind int

const (
	// KindInternal is a library or environment failure.
	KindInternal Kind = iota
	// KindNotFound is an unknown document identifier.
	KindNotFound
	// KindMalformedInput is an unparseable PDF, image or payload.
	KindMalformedInput
	// KindInvalidPageIndex is a page number outside the document.
	KindInvalidPageIndex
)

// String returns the wire code for the kind.
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindMalformedInput:
		return "malformed_input"
	case KindInvalidPageIndex:
		return "invalid_page_index"
	default:
		return "internal"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindNotFound:
		return ErrNotFound
	case KindMalformedInput:
		return ErrMalformedInput
	case KindInvalidPageIndex:
		return ErrInvalidPageIndex
	default:
		return nil
	}
}

// Error carries the kind, the failing operation and the underlying cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// NotFound reports an unknown document id.
func NotFound(op, id string) error {
	return &Error{Kind: KindNotFound, Op: op, Err: fmt.Errorf("%w: %s", ErrNotFound, id)}
}

// Malformed wraps err as a malformed input failure.
func Malformed(op string, err error) error {
	return &Error{Kind: KindMalformedInput, Op: op, Err: err}
}

// Malformedf builds a malformed input failure from a format string.
func Malformedf(op, format string, args ...any) error {
	return &Error{Kind: KindMalformedInput, Op: op, Err: fmt.Errorf(format, args...)}
}

// InvalidPage reports a page index outside [0, count).
func InvalidPage(op string, page, count int) error {
	return &Error{
		Kind: KindInvalidPageIndex,
		Op:   op,
		Err:  fmt.Errorf("page %d outside document of %d pages", page, count),
	}
}

// KindOf returns the kind of err, KindInternal when err is not classified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrMalformedInput):
		return KindMalformedInput
	case errors.Is(err, ErrInvalidPageIndex):
		return KindInvalidPageIndex
	}
	return KindInternal
}
