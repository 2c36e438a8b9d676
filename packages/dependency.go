package packages

import (
	"sort"
	"strings"

	"github.com/xshapira/poetry/versions"
)

// Dependency is a declared requirement: a package identity plus the
// version range that satisfies it, optionally scoped by an environment
// marker and pinned to a source. Dependencies are immutable; derive
// variants with WithConstraint.
type Dependency struct {
	name       Name
	constraint *versions.Range
	extras     []string

	marker          string
	sourceType      string
	sourceReference string

	root bool
}

// NewDependency declares a requirement on name within constraint.
func NewDependency(name string, constraint *versions.Range) *Dependency {
	if constraint == nil {
		constraint = versions.Any()
	}
	return &Dependency{
		name:       Canonicalize(name),
		constraint: constraint,
	}
}

// RootDependency is the sentinel requirement representing the top-level
// project itself. It is compatible with every other package by definition.
// The sentinel name is reserved and bypasses canonicalization.
func RootDependency(constraint *versions.Range) *Dependency {
	if constraint == nil {
		constraint = versions.Any()
	}
	return &Dependency{
		name:       RootName,
		constraint: constraint,
		root:       true,
	}
}

func (d *Dependency) Name() Name                  { return d.name }
func (d *Dependency) Constraint() *versions.Range { return d.constraint }
func (d *Dependency) Marker() string              { return d.marker }
func (d *Dependency) SourceType() string          { return d.sourceType }
func (d *Dependency) SourceReference() string     { return d.sourceReference }
func (d *Dependency) Extras() []string            { return d.extras }
func (d *Dependency) IsRoot() bool                { return d.root }

// CompleteName identifies the package including any extras; two
// dependencies are about the same package iff their complete names match.
func (d *Dependency) CompleteName() string {
	if len(d.extras) == 0 {
		return string(d.name)
	}
	extras := make([]string, len(d.extras))
	copy(extras, d.extras)
	sort.Strings(extras)
	return string(d.name) + "[" + strings.Join(extras, ",") + "]"
}

// SamePackageAs reports whether both dependencies name the same package,
// extras included.
func (d *Dependency) SamePackageAs(other *Dependency) bool {
	return d.CompleteName() == other.CompleteName()
}

// WithConstraint returns a copy of the dependency carrying a different
// version range.
func (d *Dependency) WithConstraint(constraint *versions.Range) *Dependency {
	out := *d
	out.constraint = constraint
	return &out
}

// WithMarker returns a copy scoped by an environment marker.
func (d *Dependency) WithMarker(marker string) *Dependency {
	out := *d
	out.marker = marker
	return &out
}

// WithExtras returns a copy requesting the given extras.
func (d *Dependency) WithExtras(extras ...string) *Dependency {
	out := *d
	out.extras = append([]string(nil), extras...)
	return &out
}

// WithSource returns a copy pinned to a source identity.
func (d *Dependency) WithSource(sourceType, sourceReference string) *Dependency {
	out := *d
	out.sourceType = sourceType
	out.sourceReference = sourceReference
	return &out
}

func (d *Dependency) String() string {
	if d.constraint.IsAny() {
		return d.CompleteName() + " (*)"
	}
	return d.CompleteName() + " (" + d.constraint.String() + ")"
}
