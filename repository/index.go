// Package repository provides an in-memory package index implementing
// the solver's Provider interface. It stands in for a real network index
// behind the same narrow surface, can be loaded from a YAML file, and
// owns the candidate ranking policy.
package repository

import (
	"os"
	"sort"

	semver "github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"

	"github.com/xshapira/poetry/packages"
	"github.com/xshapira/poetry/solver"
	"github.com/xshapira/poetry/versions"
)

type record struct {
	pkg  *packages.Package
	deps []*packages.Dependency
}

// Index is an in-memory package index. Not safe for concurrent mutation;
// populate it first, then share it read-only.
type Index struct {
	records map[packages.Name]map[string]*record

	// AllowPrereleases ranks prereleases by plain version precedence.
	// With the default (false), stable versions are always preferred and
	// a prerelease is only reachable when nothing stable satisfies the
	// accumulated constraint.
	AllowPrereleases bool
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{records: make(map[packages.Name]map[string]*record)}
}

// Add registers a package and its dependency list.
func (ix *Index) Add(pkg *packages.Package, deps ...*packages.Dependency) {
	byVersion, ok := ix.records[pkg.Name]
	if !ok {
		byVersion = make(map[string]*record)
		ix.records[pkg.Name] = byVersion
	}
	byVersion[pkg.Version.String()] = &record{pkg: pkg, deps: deps}
}

// VersionsFor implements solver.Provider, ranking candidates best first:
// stable versions descending, then prereleases descending.
func (ix *Index) VersionsFor(name packages.Name) ([]*semver.Version, error) {
	byVersion, ok := ix.records[name]
	if !ok {
		return nil, errors.Errorf("package %s not found in index", name)
	}

	out := make([]*semver.Version, 0, len(byVersion))
	for _, rec := range byVersion {
		out = append(out, rec.pkg.Version)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !ix.AllowPrereleases {
			aPre, bPre := a.Prerelease() != "", b.Prerelease() != ""
			if aPre != bPre {
				return bPre
			}
		}
		return a.GreaterThan(b)
	})
	return out, nil
}

// DependenciesFor implements solver.Provider.
func (ix *Index) DependenciesFor(name packages.Name, version *semver.Version) ([]*packages.Dependency, error) {
	rec, err := ix.lookup(name, version)
	if err != nil {
		return nil, err
	}
	return rec.deps, nil
}

// PackageFor implements solver.PackageProvider, so resolved packages keep
// their source identity and hashes.
func (ix *Index) PackageFor(name packages.Name, version *semver.Version) (*packages.Package, error) {
	rec, err := ix.lookup(name, version)
	if err != nil {
		return nil, err
	}
	return rec.pkg, nil
}

func (ix *Index) lookup(name packages.Name, version *semver.Version) (*record, error) {
	byVersion, ok := ix.records[name]
	if !ok {
		return nil, errors.Errorf("package %s not found in index", name)
	}
	rec, ok := byVersion[version.String()]
	if !ok {
		return nil, errors.Errorf("package %s has no version %s", name, version)
	}
	return rec, nil
}

var _ solver.Provider = (*Index)(nil)
var _ solver.PackageProvider = (*Index)(nil)

// indexFile is the YAML shape of an index document.
type indexFile struct {
	Packages []packageEntry `yaml:"packages"`
}

type packageEntry struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Source  struct {
		Type      string `yaml:"type"`
		Reference string `yaml:"reference"`
	} `yaml:"source"`
	Marker       string            `yaml:"marker"`
	Hashes       []string          `yaml:"hashes"`
	Dependencies []dependencyEntry `yaml:"dependencies"`
}

type dependencyEntry struct {
	Name       string `yaml:"name"`
	Constraint string `yaml:"constraint"`
	Marker     string `yaml:"marker"`
}

// LoadIndex reads an index document from a YAML file.
func LoadIndex(path string) (*Index, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading index %s", path)
	}

	var doc indexFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Wrapf(err, "parsing index %s", path)
	}

	ix := NewIndex()
	for _, entry := range doc.Packages {
		pkg, deps, err := entry.build()
		if err != nil {
			return nil, errors.Wrapf(err, "index %s", path)
		}
		ix.Add(pkg, deps...)
	}
	return ix, nil
}

func (e packageEntry) build() (*packages.Package, []*packages.Dependency, error) {
	version, err := versions.ParseVersion(e.Version)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "package %s", e.Name)
	}

	pkg := packages.NewPackage(e.Name, version)
	pkg.SourceType = e.Source.Type
	pkg.SourceReference = e.Source.Reference
	pkg.Marker = e.Marker
	pkg.Hashes = e.Hashes

	deps := make([]*packages.Dependency, 0, len(e.Dependencies))
	for _, d := range e.Dependencies {
		constraint, err := versions.ParseConstraint(d.Constraint)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "dependency %s of %s", d.Name, e.Name)
		}
		dep := packages.NewDependency(d.Name, constraint)
		if d.Marker != "" {
			dep = dep.WithMarker(d.Marker)
		}
		deps = append(deps, dep)
	}
	return pkg, deps, nil
}

// LoadInstalled reads the installed package set from a YAML file holding
// a list of package entries (dependencies ignored).
func LoadInstalled(path string) ([]*packages.Package, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading installed set %s", path)
	}

	var entries []packageEntry
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, errors.Wrapf(err, "parsing installed set %s", path)
	}

	out := make([]*packages.Package, 0, len(entries))
	for _, entry := range entries {
		pkg, _, err := entry.build()
		if err != nil {
			return nil, errors.Wrapf(err, "installed set %s", path)
		}
		out = append(out, pkg)
	}
	return out, nil
}
