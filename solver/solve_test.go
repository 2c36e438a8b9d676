package solver

import (
	"sort"
	"strings"
	"testing"

	semver "github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xshapira/poetry/packages"
	"github.com/xshapira/poetry/versions"
)

// universe maps package name to released versions, each with its
// dependency shorthands ("name constraint", optionally "; marker").
type universe map[string]map[string][]string

type fakeProvider struct {
	universe universe
}

func (p *fakeProvider) VersionsFor(name packages.Name) ([]*semver.Version, error) {
	releases, ok := p.universe[string(name)]
	if !ok {
		return nil, errors.Errorf("package %s not found", name)
	}
	out := make([]*semver.Version, 0, len(releases))
	for raw := range releases {
		out = append(out, versions.MustVersion(raw))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GreaterThan(out[j]) })
	return out, nil
}

func (p *fakeProvider) DependenciesFor(name packages.Name, version *semver.Version) ([]*packages.Dependency, error) {
	releases, ok := p.universe[string(name)]
	if !ok {
		return nil, errors.Errorf("package %s not found", name)
	}
	deps := make([]*packages.Dependency, 0, len(releases[version.String()]))
	for _, shorthand := range releases[version.String()] {
		deps = append(deps, mkdep(shorthand))
	}
	return deps, nil
}

func mkdep(s string) *packages.Dependency {
	spec, marker, _ := strings.Cut(s, " ; ")
	name, constraint, _ := strings.Cut(spec, " ")
	dep := packages.NewDependency(name, versions.MustConstraint(constraint))
	if marker != "" {
		dep = dep.WithMarker(marker)
	}
	return dep
}

func mkdeps(shorthands ...string) []*packages.Dependency {
	out := make([]*packages.Dependency, 0, len(shorthands))
	for _, s := range shorthands {
		out = append(out, mkdep(s))
	}
	return out
}

func resolvedVersions(result *Result) map[string]string {
	got := make(map[string]string)
	for _, pkg := range result.Packages {
		got[string(pkg.Name)] = pkg.Version.String()
	}
	return got
}

func TestSolveFixtures(t *testing.T) {
	fixtures := []struct {
		name     string
		universe universe
		roots    []string
		want     map[string]string
		attempts int
		errHas   []string
	}{
		{
			name: "selects newest satisfying version",
			universe: universe{
				"a": {"1.0.0": nil, "1.5.0": nil, "2.0.0": nil},
			},
			roots:    []string{"a ^1.0.0"},
			want:     map[string]string{"a": "1.5.0"},
			attempts: 1,
		},
		{
			name: "resolves transitive dependencies",
			universe: universe{
				"a": {"1.0.0": {"b ^2.0.0"}},
				"b": {"2.0.0": {"c *"}, "3.0.0": nil},
				"c": {"1.0.0": nil},
			},
			roots:    []string{"a *"},
			want:     map[string]string{"a": "1.0.0", "b": "2.0.0", "c": "1.0.0"},
			attempts: 1,
		},
		{
			name: "intersects constraints on a shared dependency",
			universe: universe{
				"a":      {"1.0.0": {"shared >=2.0.0,<4.0.0"}},
				"b":      {"1.0.0": {"shared >=3.0.0,<5.0.0"}},
				"shared": {"2.5.0": nil, "3.0.0": nil, "3.5.0": nil, "5.0.0": nil},
			},
			roots:    []string{"a *", "b *"},
			want:     map[string]string{"a": "1.0.0", "b": "1.0.0", "shared": "3.5.0"},
			attempts: 1,
		},
		{
			name: "backtracks when the newest choice conflicts downstream",
			universe: universe{
				"foo": {"1.0.0": nil, "1.1.0": {"bar *"}},
				"bar": {"1.0.0": {"foo <1.1.0"}},
			},
			roots:    []string{"foo *"},
			want:     map[string]string{"foo": "1.0.0"},
			attempts: 2,
		},
		{
			name: "recovers when only the newest release needs a broken package",
			universe: universe{
				"a": {"1.0.0": nil, "2.0.0": {"missing *"}},
			},
			roots:    []string{"a *"},
			want:     map[string]string{"a": "1.0.0"},
			attempts: 2,
		},
		{
			name: "reports disjoint requirements on a shared dependency",
			universe: universe{
				"a":      {"1.0.0": {"shared >=2.0.0"}},
				"b":      {"1.0.0": {"shared <2.0.0"}},
				"shared": {"1.0.0": nil, "2.0.0": nil},
			},
			roots: []string{"a ^1.0.0", "b ^1.0.0"},
			errHas: []string{
				"version solving failed",
				"depends on shared",
				"root requires",
			},
		},
		{
			name: "reports a missing root requirement",
			universe: universe{
				"a": {"1.0.0": nil},
			},
			roots: []string{"a *", "missing ^1.0.0"},
			errHas: []string{
				"missing doesn't exist",
				"version solving failed",
			},
		},
		{
			name: "reports when no release satisfies the root constraint",
			universe: universe{
				"a": {"1.0.0": nil, "2.0.0": nil},
			},
			roots: []string{"a ^3.0.0"},
			errHas: []string{
				"no versions of a match",
				"version solving failed",
			},
		},
	}

	for _, tt := range fixtures {
		t.Run(tt.name, func(t *testing.T) {
			s := New(&fakeProvider{universe: tt.universe})
			result, err := s.Solve(mkdeps(tt.roots...)...)

			if len(tt.errHas) > 0 {
				require.Error(t, err)
				var failure *SolveFailure
				require.ErrorAs(t, err, &failure)
				msg := failure.Error()
				for _, want := range tt.errHas {
					assert.Contains(t, msg, want)
				}
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, resolvedVersions(result))
			if tt.attempts > 0 {
				assert.Equal(t, tt.attempts, result.AttemptedSolutions)
			}
		})
	}
}

func TestSolveMarkerFiltering(t *testing.T) {
	u := universe{
		"a": {"1.0.0": {`b * ; sys_platform == "linux"`}},
		"b": {"1.0.0": nil},
	}

	linux := New(&fakeProvider{universe: u},
		WithEnvironment(packages.MarkerEnv{"sys_platform": "linux"}))
	result, err := linux.Solve(mkdeps("a *")...)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1.0.0", "b": "1.0.0"}, resolvedVersions(result))

	darwin := New(&fakeProvider{universe: u},
		WithEnvironment(packages.MarkerEnv{"sys_platform": "darwin"}))
	result, err = darwin.Solve(mkdeps("a *")...)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1.0.0"}, resolvedVersions(result))
}

func TestSolveResultDepths(t *testing.T) {
	u := universe{
		"a": {"1.0.0": {"c *"}},
		"b": {"1.0.0": {"a *"}},
		"c": {"1.0.0": nil},
	}

	s := New(&fakeProvider{universe: u})
	result, err := s.Solve(mkdeps("a *", "b *")...)
	require.NoError(t, err)

	byName := make(map[string]*packages.Package)
	for _, pkg := range result.Packages {
		byName[string(pkg.Name)] = pkg
	}

	require.NotNil(t, result.Root)
	assert.Equal(t, 0, result.Depth(result.Root))
	assert.Equal(t, 1, result.Depth(byName["b"]))
	// a is reachable directly and through b; the longer path wins
	assert.Equal(t, 2, result.Depth(byName["a"]))
	assert.Equal(t, 3, result.Depth(byName["c"]))
}

func TestSolveReusesSolverInstance(t *testing.T) {
	u := universe{"a": {"1.0.0": nil}}
	s := New(&fakeProvider{universe: u})

	for i := 0; i < 2; i++ {
		result, err := s.Solve(mkdeps("a *")...)
		require.NoError(t, err)
		assert.Equal(t, 1, result.AttemptedSolutions)
	}
}
