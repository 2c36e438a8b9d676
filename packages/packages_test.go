package packages

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xshapira/poetry/versions"
)

func TestCanonicalize(t *testing.T) {
	cases := map[string]Name{
		"Flask":             "flask",
		"typing_extensions": "typing-extensions",
		"zope.interface":    "zope-interface",
		"Foo__Bar":          "foo-bar",
		"  spaced  ":        "spaced",
		"a-.-b":             "a-b",
	}
	for raw, want := range cases {
		assert.Equal(t, want, Canonicalize(raw), "raw %q", raw)
	}
}

func TestDependencyCompleteName(t *testing.T) {
	plain := NewDependency("Requests", versions.Any())
	assert.Equal(t, "requests", plain.CompleteName())

	extras := plain.WithExtras("socks", "security")
	assert.Equal(t, "requests[security,socks]", extras.CompleteName())
	assert.False(t, plain.SamePackageAs(extras))
	assert.True(t, extras.SamePackageAs(plain.WithExtras("security", "socks")))
}

func TestDependencyWithConstraint(t *testing.T) {
	dep := NewDependency("foo", versions.MustConstraint("^1.0")).WithMarker("m")
	got := dep.WithConstraint(versions.MustConstraint("^2.0"))

	// original untouched, metadata carried over
	assert.Equal(t, ">=1.0.0,<2.0.0", dep.Constraint().String())
	assert.Equal(t, ">=2.0.0,<3.0.0", got.Constraint().String())
	assert.Equal(t, "m", got.Marker())
}

func TestRootDependency(t *testing.T) {
	root := RootDependency(versions.MustConstraint("1.0.0"))
	assert.True(t, root.IsRoot())
	assert.Equal(t, RootName, root.Name())
	assert.Equal(t, string(RootName), root.CompleteName())
}

func TestRootPackageKeepsSentinelName(t *testing.T) {
	root := NewRootPackage(versions.MustVersion("1.0.0"))
	require.True(t, root.IsRoot())
	assert.Equal(t, RootName, root.Name)
	assert.Equal(t, string(RootName), root.CompleteName())

	// round-tripping through a dependency must not re-canonicalize the
	// sentinel into a regular name
	dep := root.ToDependency()
	assert.True(t, dep.IsRoot())
	assert.Equal(t, RootName, dep.Name())
	assert.Equal(t, string(RootName), dep.CompleteName())
}

func TestPackageIdentity(t *testing.T) {
	v := versions.MustVersion("1.0.0")

	a := NewPackage("foo", v)
	b := NewPackage("foo", v)
	require.True(t, a.SamePackageAs(b))

	b.SourceType = "git"
	b.SourceReference = "https://example.com/foo.git"
	assert.False(t, a.SamePackageAs(b))

	dep := a.ToDependency()
	assert.Equal(t, "foo", string(dep.Name()))
	assert.True(t, dep.Constraint().Allows(v))
	assert.False(t, dep.Constraint().Allows(versions.MustVersion("1.0.1")))
}

func TestMarkerEnv(t *testing.T) {
	env := MarkerEnv{"sys_platform": "linux", "python_version": "3.11"}

	cases := []struct {
		marker string
		want   bool
	}{
		{``, true},
		{`sys_platform == "linux"`, true},
		{`sys_platform == "darwin"`, false},
		{`sys_platform != "darwin"`, true},
		{`sys_platform == "linux" and python_version == "3.11"`, true},
		{`sys_platform == "linux" and python_version == "2.7"`, false},
		{`sys_platform == "darwin" or python_version == "3.11"`, true},
		{`unknown_variable == ""`, true},
	}
	for _, tc := range cases {
		got, err := env.Matches(tc.marker)
		require.NoError(t, err, "marker %q", tc.marker)
		assert.Equal(t, tc.want, got, "marker %q", tc.marker)
	}

	_, err := env.Matches(`sys_platform is "linux"`)
	assert.Error(t, err)
}
