package solver

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xshapira/poetry/packages"
	"github.com/xshapira/poetry/versions"
)

// mkterm builds a term from "name constraint" shorthand; a leading "not "
// flips the sign.
func mkterm(info string) *Term {
	positive := !strings.HasPrefix(info, "not ")
	info = strings.TrimPrefix(info, "not ")
	name, constraint, _ := strings.Cut(info, " ")
	return NewTerm(packages.NewDependency(name, versions.MustConstraint(constraint)), positive)
}

func TestTermRelationCaseTable(t *testing.T) {
	cases := []struct {
		self, other string
		want        SetRelation
	}{
		// positive / positive
		{"foo ^1.5.0", "foo ^1.0.0", SetRelationSubset},
		{"foo ^2.0.0", "foo ^1.0.0", SetRelationDisjoint},
		{"foo >=1.0.0", "foo ^1.0.0", SetRelationOverlapping},
		// negative / positive
		{"not foo ^1.0.0", "foo ^1.5.0", SetRelationDisjoint},
		{"not foo ^1.5.0", "foo ^1.0.0", SetRelationOverlapping},
		// positive / negative
		{"foo ^2.0.0", "not foo ^1.0.0", SetRelationSubset},
		{"foo ^1.5.0", "not foo ^1.0.0", SetRelationDisjoint},
		{"foo >=1.0.0", "not foo ^1.0.0", SetRelationOverlapping},
		// negative / negative
		{"not foo ^1.0.0", "not foo ^1.5.0", SetRelationSubset},
		{"not foo ^1.5.0", "not foo ^1.0.0", SetRelationOverlapping},
	}

	for _, tc := range cases {
		got := mkterm(tc.self).Relation(mkterm(tc.other))
		assert.Equal(t, tc.want, got, "%s vs %s", tc.self, tc.other)
	}
}

func TestTermIntersect(t *testing.T) {
	// pos ∧ pos: set intersection
	got := mkterm("foo ^1.0.0").Intersect(mkterm("foo >=1.5.0,<3.0.0"))
	require.NotNil(t, got)
	assert.True(t, got.IsPositive())
	assert.Equal(t, ">=1.5.0,<2.0.0", got.Constraint().String())

	// pos ∧ neg: difference
	got = mkterm("foo ^1.0.0").Intersect(mkterm("not foo >=1.5.0"))
	require.NotNil(t, got)
	assert.True(t, got.IsPositive())
	assert.Equal(t, ">=1.0.0,<1.5.0", got.Constraint().String())

	// neg ∧ neg: union, negated (De Morgan)
	got = mkterm("not foo ^1.0.0").Intersect(mkterm("not foo >=1.5.0,<3.0.0"))
	require.NotNil(t, got)
	assert.False(t, got.IsPositive())
	assert.Equal(t, ">=1.0.0,<3.0.0", got.Constraint().String())

	// disjoint positives have no intersection
	assert.Nil(t, mkterm("foo ^1.0.0").Intersect(mkterm("foo ^2.0.0")))
}

func TestTermInverseProperties(t *testing.T) {
	terms := []string{
		"foo ^1.0.0", "not foo ^1.0.0", "foo *",
		"foo >=1.5.0,<3.0.0", "not foo 1.2.3",
	}

	for _, s := range terms {
		term := mkterm(s)

		// a term and its inverse can never both hold
		assert.Nil(t, term.Intersect(term.Inverse()), "term %s", s)

		// subset relation implies satisfies
		if term.Relation(term) == SetRelationSubset {
			assert.True(t, term.Satisfies(term), "term %s", s)
		}
	}
}

func TestTermSubsetAntisymmetry(t *testing.T) {
	narrow := mkterm("foo ^1.5.0")
	wide := mkterm("foo ^1.0.0")

	require.True(t, narrow.Satisfies(wide))
	assert.False(t, wide.Satisfies(narrow))
}

func TestTermRootIsUniversalWildcard(t *testing.T) {
	root := NewTerm(packages.RootDependency(versions.MustConstraint("1.0.0")), true)
	other := mkterm("foo ^1.0.0")

	assert.NotPanics(t, func() { root.Relation(other) })
	assert.NotPanics(t, func() { other.Intersect(root) })

	// the positive non-root side carries the information
	got := other.Intersect(root.Inverse())
	require.NotNil(t, got)
	assert.Equal(t, "foo", got.Dependency().CompleteName())
}

func TestTermIdentityMismatchPanics(t *testing.T) {
	assert.Panics(t, func() {
		mkterm("foo ^1.0.0").Relation(mkterm("bar ^1.0.0"))
	})
	assert.Panics(t, func() {
		mkterm("foo ^1.0.0").Intersect(mkterm("bar ^1.0.0"))
	})
}
