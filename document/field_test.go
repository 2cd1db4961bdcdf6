package document

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFieldType(t *testing.T) {
	tests := []struct {
		input    string
		expected FieldType
		wantErr  bool
	}{
		{"signature", FieldSignature, false},
		{"Initials", FieldInitials, false},
		{" DATE ", FieldDate, false},
		{"text", FieldText, false},
		{"", FieldSignature, false},
		{"checkbox", "", true},
	}

	for _, tt := range tests {
		got, err := ParseFieldType(tt.input)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrUnknownFieldType, tt.input)
			continue
		}
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.expected, got, tt.input)
	}
}

func TestParseAnchorLogic(t *testing.T) {
	tests := []struct {
		input    string
		expected AnchorLogic
		wantErr  bool
	}{
		{"FIRST_PAGE", AnchorFirstPage, false},
		{"last_page", AnchorLastPage, false},
		{"all-pages", AnchorAllPages, false},
		{"PAGE_N", AnchorPageN, false},
		{"", AnchorPageN, false},
		{"MIDDLE", "", true},
	}

	for _, tt := range tests {
		got, err := ParseAnchorLogic(tt.input)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrUnknownAnchorLogic, tt.input)
			continue
		}
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.expected, got, tt.input)
	}
}

func TestPages(t *testing.T) {
	tests := []struct {
		anchor   AnchorLogic
		page     int
		count    int
		expected []int
	}{
		{AnchorFirstPage, 3, 5, []int{0}},
		{AnchorLastPage, 0, 5, []int{4}},
		{AnchorAllPages, 0, 3, []int{0, 1, 2}},
		{AnchorPageN, 2, 5, []int{2}},
		{AnchorPageN, 9, 5, []int{9}},
	}

	for _, tt := range tests {
		f := SignatureField{ID: "f", AnchorLogic: tt.anchor, PageNumber: tt.page}
		assert.Equal(t, tt.expected, f.Pages(tt.count), "%s page=%d", tt.anchor, tt.page)
	}
}

func TestCanonicalize(t *testing.T) {
	f := SignatureField{
		ID:          " café ",
		FieldType:   "INITIALS",
		SignerRole:  "Buyer",
		AnchorLogic: "last_page",
		XNorm:       0.9,
		WidthNorm:   0.4,
	}
	require.NoError(t, f.Canonicalize())
	assert.Equal(t, "café", f.ID)
	assert.Equal(t, FieldInitials, f.FieldType)
	assert.Equal(t, AnchorLastPage, f.AnchorLogic)
	// Out-of-range geometry is kept.
	assert.InDelta(t, 1.3, f.XNorm+f.WidthNorm, 1e-9)

	missing := SignatureField{}
	assert.ErrorIs(t, missing.Canonicalize(), ErrMissingFieldID)

	negative := SignatureField{ID: "x", PageNumber: -1}
	assert.ErrorIs(t, negative.Canonicalize(), ErrNegativePage)

	badType := SignatureField{ID: "x", FieldType: "radio"}
	assert.ErrorIs(t, badType.Canonicalize(), ErrUnknownFieldType)
}

func TestCanonicalizeAllRejectsDuplicates(t *testing.T) {
	fields := []SignatureField{{ID: "a"}, {ID: "b"}, {ID: " a"}}
	assert.ErrorIs(t, CanonicalizeAll(fields), ErrDuplicateFieldID)

	fields = []SignatureField{{ID: "a"}, {ID: "b"}}
	require.NoError(t, CanonicalizeAll(fields))
	assert.Equal(t, FieldSignature, fields[1].FieldType)
	assert.Equal(t, AnchorPageN, fields[1].AnchorLogic)
}

func TestSignatureFieldJSON(t *testing.T) {
	raw := `{"id":"sig-1","fieldType":"signature","pageNumber":1,"xNorm":0.1,"yNorm":0.2,` +
		`"widthNorm":0.3,"heightNorm":0.05,"signerRole":"client","required":true,"anchorLogic":"PAGE_N"}`

	var f SignatureField
	require.NoError(t, json.Unmarshal([]byte(raw), &f))
	assert.Equal(t, "sig-1", f.ID)
	assert.Equal(t, 1, f.PageNumber)
	assert.True(t, f.Required)
	assert.InDelta(t, 0.05, f.Normalized().Height, 1e-9)

	out, err := json.Marshal(f)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out))
}
