// Package packages holds the identity side of resolution: canonical
// package names, dependency declarations, the resolved package entity and
// environment markers.
package packages

import (
	"strings"
)

// Name is a canonicalized package name. Comparisons between two Names are
// always safe; build one with Canonicalize.
type Name string

// RootName is the sentinel identity for the top-level project.
const RootName Name = "-root-"

// Canonicalize normalizes a raw package name: lowercase, with runs of
// '.', '_' and '-' collapsed to a single '-'.
func Canonicalize(raw string) Name {
	var b strings.Builder
	b.Grow(len(raw))
	sep := false
	for _, r := range strings.ToLower(strings.TrimSpace(raw)) {
		if r == '.' || r == '_' || r == '-' {
			sep = true
			continue
		}
		if sep && b.Len() > 0 {
			b.WriteByte('-')
		}
		sep = false
		b.WriteRune(r)
	}
	return Name(b.String())
}

func (n Name) String() string {
	return string(n)
}
