package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Hash returns the full SHA-256 of data as a 64-character hex string.
// Pipeline stages chain on these hashes: the scene hash keys the layout,
// the layout payload hash keys routes and artifacts.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashKey builds a namespaced cache key from a prefix and the JSON encoding
// of its parts. Full-width hashes rule out cross-option collisions; option
// values themselves never appear in key strings.
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return prefix + ":" + Hash(data)
}
