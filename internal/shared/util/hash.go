package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashContent returns the deterministic content fingerprint of a payload.
// The digest is computed over the exact original bytes and is used as the
// deduplication key for stored documents.
func HashContent(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashUserKey returns a filesystem-safe identifier for an owner ID.
func HashUserKey(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
