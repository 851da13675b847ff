// Package checksum computes the content digests used for change detection
// and If-Match comparisons.
package checksum

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Matches reports whether want is the digest of data. Surrounding quotes
// (an HTTP entity tag) and letter case are ignored.
func Matches(data []byte, want string) bool {
	want = strings.ToLower(strings.Trim(strings.TrimSpace(want), `"`))
	return subtle.ConstantTimeCompare([]byte(Sum(data)), []byte(want)) == 1
}
