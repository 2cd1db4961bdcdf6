package document

import "strings"

const (
	signedSuffix = "-signed"
	finalSuffix  = "-final"
)

// SignedID returns the identifier of the signed snapshot of id.
func SignedID(id string) string {
	return id + signedSuffix
}

// FinalID returns the identifier of the finalized snapshot of id. Every
// "-signed" marker is removed first, so "doc" and "doc-signed" both map to
// "doc-final".
func FinalID(id string) string {
	return strings.ReplaceAll(id, signedSuffix, "") + finalSuffix
}
