package packages

import (
	"fmt"

	semver "github.com/Masterminds/semver/v3"

	"github.com/xshapira/poetry/versions"
)

// Package is a concrete, resolved package: a name at an exact version,
// optionally carrying source identity, applicability marker, extras and
// content hashes. Immutable once created.
type Package struct {
	Name    Name
	Version *semver.Version

	SourceType      string
	SourceReference string
	Marker          string
	Extras          []string
	Hashes          []string

	root bool
}

// NewPackage builds a package for name at version.
func NewPackage(name string, version *semver.Version) *Package {
	return &Package{
		Name:    Canonicalize(name),
		Version: version,
	}
}

// NewRootPackage builds the sentinel package standing for the top-level
// project. The sentinel name is reserved and bypasses canonicalization.
func NewRootPackage(version *semver.Version) *Package {
	return &Package{
		Name:    RootName,
		Version: version,
		root:    true,
	}
}

// IsRoot reports whether this is the top-level project sentinel.
func (p *Package) IsRoot() bool {
	return p.root
}

// CompleteName identifies the package including extras.
func (p *Package) CompleteName() string {
	if len(p.Extras) == 0 {
		return string(p.Name)
	}
	d := &Dependency{name: p.Name, extras: p.Extras}
	return d.CompleteName()
}

// SamePackageAs reports whether the other package shares this package's
// full identity: name and source. Versions are not compared.
func (p *Package) SamePackageAs(other *Package) bool {
	return p.CompleteName() == other.CompleteName() &&
		p.SourceType == other.SourceType &&
		p.SourceReference == other.SourceReference
}

// ToDependency returns the exact-version requirement this package
// satisfies.
func (p *Package) ToDependency() *Dependency {
	d := NewDependency(string(p.Name), versions.Exact(p.Version))
	// p.Name is already canonical; restating it keeps the root sentinel
	// intact.
	d.name = p.Name
	d.extras = append([]string(nil), p.Extras...)
	d.sourceType = p.SourceType
	d.sourceReference = p.SourceReference
	d.root = p.root
	return d
}

func (p *Package) String() string {
	return fmt.Sprintf("%s (%s)", p.CompleteName(), p.Version)
}
