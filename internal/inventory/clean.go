// Package inventory holds the read-side logic of the dashboard: statistics,
// fuzzy matching, grid views and flat reports, all derived from a
// normalized model.Snapshot.
package inventory

import "strings"

// Clean lower-cases s and drops every character outside [a-z0-9].
func Clean(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// CompositeID is the search token of a workstation: the cleaned table name
// followed by the raw workstation key.
func CompositeID(tableName, pcKey string) string {
	return Clean(tableName) + pcKey
}
