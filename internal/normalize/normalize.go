// Package normalize provides helpers for normalizing user-supplied input.
package normalize

import "strings"

// Email returns the canonical form of an email used for identity and
// membership comparisons: trimmed and lowercased.
func Email(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

// Emails normalizes a slice of emails, dropping empty entries and duplicates
// while preserving first-seen order.
func Emails(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, e := range in {
		n := Email(e)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
