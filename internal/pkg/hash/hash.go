// Package hash provides hashing utilities.
package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SHA256 computes the SHA256 hash of data and returns it as a hex string.
func SHA256(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// SHA256String computes the SHA256 hash of a string.
func SHA256String(s string) string {
	return SHA256([]byte(s))
}

// SHA256Short returns the first n characters of a SHA256 hash.
func SHA256Short(data []byte, n int) string {
	h := SHA256(data)
	if n > len(h) {
		return h
	}
	return h[:n]
}

// ChunkKey generates a deterministic identity key for a chunk from its
// normalized content and logical source. The same text from the same
// document hashes to the same key regardless of which provider returned it.
func ChunkKey(content, source string) string {
	norm := strings.Join(strings.Fields(strings.ToLower(content)), " ")
	return SHA256Short([]byte(source+"\x00"+norm), 16)
}

// CacheKey generates a namespaced cache key for a text.
func CacheKey(namespace, text string) string {
	return namespace + ":" + SHA256String(text)
}
