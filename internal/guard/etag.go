package guard

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Fingerprint returns the ETag value for the exact stored content bytes:
// a hex-encoded SHA-256 digest. Identical content always yields the
// identical tag across calls and process restarts; any change to the
// content changes the tag.
//
// The returned value is the bare tag — handlers quote it when writing the
// ETag header, per RFC 9110 entity-tag syntax.
func Fingerprint(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// FingerprintMatches evaluates a client-supplied If-None-Match header value
// against the current tag. Surrounding quotes (and a weak-validator W/
// prefix) on the client value are ignored; an absent header never matches.
func FingerprintMatches(ifNoneMatch, tag string) bool {
	if ifNoneMatch == "" {
		return false
	}
	candidate := strings.TrimPrefix(strings.TrimSpace(ifNoneMatch), "W/")
	candidate = strings.Trim(candidate, `"`)
	return candidate == tag
}
