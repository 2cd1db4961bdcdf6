package docerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"not found", NotFound("get", "abc"), KindNotFound},
		{"malformed", Malformedf("stitch", "part %d", 2), KindMalformedInput},
		{"page", InvalidPage("render", 7, 3), KindInvalidPageIndex},
		{"wrapped", fmt.Errorf("sign: %w", InvalidPage("sign", 9, 1)), KindInvalidPageIndex},
		{"bare sentinel", fmt.Errorf("x: %w", ErrNotFound), KindNotFound},
		{"plain", errors.New("boom"), KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestErrorMatchesSentinel(t *testing.T) {
	err := Malformed("decode", errors.New("bad base64"))
	assert.ErrorIs(t, err, ErrMalformedInput)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "decode: bad base64", err.Error())

	nf := NotFound("info", "doc-1")
	assert.ErrorIs(t, nf, ErrNotFound)
	assert.Contains(t, nf.Error(), "doc-1")
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "not_found", KindNotFound.String())
	assert.Equal(t, "malformed_input", KindMalformedInput.String())
	assert.Equal(t, "invalid_page_index", KindInvalidPageIndex.String())
	assert.Equal(t, "internal", KindInternal.String())
}
