package store

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// ComputeSignatureHash computes a deterministic hash from a declaration's
// original identity: kind, dotted path and parameter types in order.
// Overloads of one method differ only here, so the hash tells them apart.
// Renamed names do NOT affect the hash, so it is stable across obfuscation
// runs that keep the same source.
func ComputeSignatureHash(kind, originalPath string, paramTypes []string) string {
	h := sha256.New()
	fmt.Fprintf(h, "kind:%s\n", kind)
	fmt.Fprintf(h, "path:%s\n", originalPath)
	fmt.Fprintf(h, "params:%s\n", strings.Join(paramTypes, ","))
	return fmt.Sprintf("%x", h.Sum(nil))
}

// ContentHash returns the hex SHA-256 of a document's bytes.
func ContentHash(data []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(data))
}
