package utils

import "strings"

const MaxRequestedCount = 50

// UniqueNonBlank drops entries that are blank after trimming and removes
// exact (case-sensitive) duplicates, keeping the first occurrence. Entries
// themselves are returned untrimmed.
func UniqueNonBlank(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// ClampCount bounds a requested per-shape count to [0, MaxRequestedCount].
func ClampCount(n int) int {
	return max(0, min(MaxRequestedCount, n))
}

// FirstRune returns the first character of s, or "" for empty s.
func FirstRune(s string) string {
	for _, r := range s {
		return string(r)
	}
	return ""
}
