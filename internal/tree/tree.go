// Package tree is the hierarchical key/value store the inventory lives in.
package tree

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is returned by Get when nothing is stored at the path.
var ErrNotFound = errors.New("tree: not found")

// Tree is a JSON-like tree addressed by slash-separated paths. Values are
// map[string]any, []any, string, float64, bool or nil.
type Tree interface {
	// Subscribe calls fn with the current value of path and again after
	// every change beneath it. Deliveries for one subscription are ordered.
	Subscribe(path string, fn func(value any)) (unsubscribe func(), err error)
	Get(ctx context.Context, path string) (any, error)
	// Push stores value under a freshly generated child key of path.
	Push(ctx context.Context, path string, value any) (string, error)
	Set(ctx context.Context, path string, value any) error
	// Update merges fields into the node at path, leaving other children
	// untouched.
	Update(ctx context.Context, path string, fields map[string]any) error
	Remove(ctx context.Context, path string) error
}

// Split turns "zones/RA/x" into its segments, ignoring empty ones.
func Split(path string) []string {
	parts := strings.Split(path, "/")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Join is the inverse of Split.
func Join(segments ...string) string {
	return strings.Join(Split(strings.Join(segments, "/")), "/")
}

// overlaps reports whether a write at w can change the value seen at p.
func overlaps(p, w []string) bool {
	n := len(p)
	if len(w) < n {
		n = len(w)
	}
	for i := 0; i < n; i++ {
		if p[i] != w[i] {
			return false
		}
	}
	return true
}
