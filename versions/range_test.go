package versions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRangeAllows(t *testing.T) {
	r := MustConstraint(">=1.0.0,<2.0.0")

	assert.True(t, r.Allows(MustVersion("1.0.0")))
	assert.True(t, r.Allows(MustVersion("1.9.9")))
	assert.False(t, r.Allows(MustVersion("2.0.0")))
	assert.False(t, r.Allows(MustVersion("0.9.9")))

	// prereleases order below their release
	assert.True(t, r.Allows(MustVersion("1.5.0-alpha.1")))
	assert.True(t, r.Allows(MustVersion("2.0.0-rc.1")))
}

func TestRangeIntersect(t *testing.T) {
	caret := MustConstraint("^1.0.0")
	upper := MustConstraint(">=1.5.0,<3.0.0")

	got := caret.Intersect(upper)
	assert.Equal(t, ">=1.5.0,<2.0.0", got.String())

	disjoint := MustConstraint("^1.0.0").Intersect(MustConstraint("^2.0.0"))
	assert.True(t, disjoint.IsEmpty())

	assert.True(t, Any().Intersect(caret).Equal(caret))
	assert.True(t, Empty().Intersect(caret).IsEmpty())
}

func TestRangeUnion(t *testing.T) {
	a := MustConstraint(">=1.0.0,<1.5.0")
	b := MustConstraint(">=1.5.0,<3.0.0")

	// touching spans coalesce
	assert.Equal(t, ">=1.0.0,<3.0.0", a.Union(b).String())

	// gapped spans stay apart
	c := MustConstraint(">=4.0.0")
	union := a.Union(c)
	assert.Equal(t, ">=1.0.0,<1.5.0 || >=4.0.0", union.String())
	assert.False(t, union.Allows(MustVersion("3.0.0")))
	assert.True(t, union.Allows(MustVersion("5.0.0")))
}

func TestRangeDifferenceAndComplement(t *testing.T) {
	caret := MustConstraint("^1.0.0")

	diff := caret.Difference(MustConstraint(">=1.5.0"))
	assert.Equal(t, ">=1.0.0,<1.5.0", diff.String())

	comp := caret.Complement()
	assert.False(t, comp.Allows(MustVersion("1.5.0")))
	assert.True(t, comp.Allows(MustVersion("0.9.0")))
	assert.True(t, comp.Allows(MustVersion("2.0.0")))

	// complement round-trips
	assert.True(t, comp.Complement().Equal(caret))

	// a range and its complement partition the universe
	assert.True(t, caret.Union(comp).IsAny())
	assert.True(t, caret.Intersect(comp).IsEmpty())
}

func TestRangeAllowsAllAllowsAny(t *testing.T) {
	wide := MustConstraint("^1.0.0")
	narrow := MustConstraint("^1.5.0")

	assert.True(t, wide.AllowsAll(narrow))
	assert.False(t, narrow.AllowsAll(wide))
	assert.True(t, wide.AllowsAny(narrow))
	assert.False(t, wide.AllowsAny(MustConstraint("^2.0.0")))

	assert.True(t, Any().AllowsAll(wide))
	assert.True(t, wide.AllowsAll(Empty()))
	assert.False(t, wide.AllowsAny(Empty()))
}

func TestRangeNotEqual(t *testing.T) {
	r := MustConstraint("!=1.5.0")

	require.False(t, r.IsEmpty())
	assert.True(t, r.Allows(MustVersion("1.4.9")))
	assert.False(t, r.Allows(MustVersion("1.5.0")))
	assert.True(t, r.Allows(MustVersion("1.5.1")))

	// != intersected with the excluded point is empty
	assert.True(t, r.Intersect(Exact(MustVersion("1.5.0"))).IsEmpty())
}

func TestExactRange(t *testing.T) {
	e := Exact(MustVersion("1.2.3"))

	assert.True(t, e.Allows(MustVersion("1.2.3")))
	assert.False(t, e.Allows(MustVersion("1.2.4")))
	assert.Equal(t, "1.2.3", e.String())
}
