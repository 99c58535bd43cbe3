// Package fileid provides deterministic identifiers for input files and their contents.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
)

const prefix = "file:"

// PathID returns a stable ledger ID for the given absolute path.
// Same path always yields the same ID.
func PathID(absolutePath string) string {
	normalized := filepath.Clean(absolutePath)
	hash := sha256.Sum256([]byte(normalized))
	return prefix + hex.EncodeToString(hash[:])
}

// ContentHash returns the hex SHA-256 of content. Used to skip files whose
// bytes have not changed since the last clean.
func ContentHash(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}
