package keyutil

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the full hex SHA-256 of b. Use it where the digest stands in
// for the input inside a cache key.
func Sum(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Digest returns a short fingerprint of b, the first 16 hex characters of
// its SHA-256. Good enough to correlate log lines; not for keys.
func Digest(b []byte) string {
	return Sum(b)[:16]
}
