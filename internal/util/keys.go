package util

import (
	"crypto/sha256"
	"fmt"
	"sort"
)

// ShortKey returns a short stable digest of a call key for logs and listings.
// Call keys embed full argument trees and can be arbitrarily long.
func ShortKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%x", sum)[:16] // first 16 hex chars
}

// SortedKeys returns the keys of m in ascending order.
func SortedKeys[V any](m map[string]V) []string {
	ks := make([]string, 0, len(m))
	for k := range m {
		ks = append(ks, k)
	}
	sort.Strings(ks)
	return ks
}
