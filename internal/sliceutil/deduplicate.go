// Package sliceutil provides generic slice manipulation utilities.
package sliceutil

import "strings"

// Deduplicate removes duplicate items from a slice while preserving order.
// The keyFunc extracts a unique key from each item for comparison.
// Only the first occurrence of each key is kept.
//
// Example:
//
//	roster := []string{"Biology", "biology ", "Calculus II"}
//	unique := sliceutil.Deduplicate(roster, sliceutil.FoldKey)
//	// Result: ["Biology", "Calculus II"]
func Deduplicate[T any, K comparable](items []T, keyFunc func(T) K) []T {
	if len(items) == 0 {
		return items
	}

	seen := make(map[K]struct{}, len(items))
	result := make([]T, 0, len(items))

	for _, item := range items {
		key := keyFunc(item)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, item)
	}

	return result
}

// FoldKey is a case- and space-insensitive key for string deduplication.
func FoldKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Compact drops blank strings and trims the rest.
func Compact(items []string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
