package solver

import (
	semver "github.com/Masterminds/semver/v3"

	"github.com/xshapira/poetry/packages"
)

// Provider supplies package metadata to the solver. Implementations may
// fetch concurrently or cache internally, but within one solve the same
// inputs must always produce the same outputs; candidate ranking is the
// order of the VersionsFor result, best first.
//
// Errors returned from either method are treated as the package being
// unresolvable (they become part of the explanation if no alternative
// exists), never as a hard crash.
type Provider interface {
	// VersionsFor returns the available versions for a package, ranked
	// best first.
	VersionsFor(name packages.Name) ([]*semver.Version, error)

	// DependenciesFor returns the declared dependencies of one concrete
	// version of a package.
	DependenciesFor(name packages.Name, version *semver.Version) ([]*packages.Dependency, error)
}

// PackageProvider is an optional extension: providers that carry full
// package metadata (source identity, hashes, markers) implement it so
// that resolved packages keep that metadata. Otherwise the solver
// synthesizes a bare package from name and version.
type PackageProvider interface {
	PackageFor(name packages.Name, version *semver.Version) (*packages.Package, error)
}
