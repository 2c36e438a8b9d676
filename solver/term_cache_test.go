package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTermCacheMemoizesIntersections(t *testing.T) {
	cache := newTermCache()

	first := cache.intersect(mkterm("foo ^1.0.0"), mkterm("not foo >=1.5.0"))
	require.NotNil(t, first)
	assert.Equal(t, ">=1.0.0,<1.5.0", first.Constraint().String())

	// equal term pairs built separately share the memoized result
	second := cache.intersect(mkterm("foo ^1.0.0"), mkterm("not foo >=1.5.0"))
	assert.Same(t, first, second)

	// unsatisfiable pairs memoize their nil result as well
	assert.Nil(t, cache.intersect(mkterm("foo ^1.0.0"), mkterm("foo ^2.0.0")))
	assert.Nil(t, cache.intersect(mkterm("foo ^1.0.0"), mkterm("foo ^2.0.0")))
}

func TestTermCacheRelationAgreesWithDirect(t *testing.T) {
	cache := newTermCache()
	pairs := [][2]string{
		{"foo ^1.5.0", "foo ^1.0.0"},
		{"foo ^2.0.0", "foo ^1.0.0"},
		{"not foo ^1.5.0", "foo ^1.0.0"},
		{"foo >=1.0.0", "not foo ^1.0.0"},
	}

	for _, pair := range pairs {
		a, b := mkterm(pair[0]), mkterm(pair[1])
		want := a.Relation(b)
		assert.Equal(t, want, cache.relation(a, b), "%s vs %s", pair[0], pair[1])
		// second lookup comes from the cache
		assert.Equal(t, want, cache.relation(a, b), "%s vs %s", pair[0], pair[1])
	}
}
