// Package checksum computes the document checksums used for If-Match
// concurrency checks and index reconciliation.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// String is Sum for a document held as a string.
func String(doc string) string {
	return Sum([]byte(doc))
}
