package tlproxy

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashText computes the SHA-256 hash of text.
func HashText(text string) string {
	hash := sha256.Sum256([]byte(text))
	return hex.EncodeToString(hash[:])
}

// ShortHash returns the first 12 hex characters of HashText.
// Logs identify texts by this value instead of their content.
func ShortHash(text string) string {
	return HashText(text)[:12]
}
