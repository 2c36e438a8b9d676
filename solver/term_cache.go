package solver

// termCache memoizes pairwise term relations and intersections for one
// solve. The same term pairs recur heavily during unit propagation and
// conflict resolution; entries are keyed by the terms' canonical string
// forms, so equal terms reached through different code paths share one
// entry. Discarded with the solve that owns it.
type termCache struct {
	relations     map[termPair]SetRelation
	intersections map[termPair]*Term
}

type termPair struct {
	a, b string
}

func newTermCache() *termCache {
	return &termCache{
		relations:     make(map[termPair]SetRelation),
		intersections: make(map[termPair]*Term),
	}
}

func (c *termCache) relation(a, b *Term) SetRelation {
	key := termPair{a.String(), b.String()}
	if got, ok := c.relations[key]; ok {
		return got
	}
	got := a.Relation(b)
	c.relations[key] = got
	return got
}

func (c *termCache) intersect(a, b *Term) *Term {
	key := termPair{a.String(), b.String()}
	if got, ok := c.intersections[key]; ok {
		return got
	}
	got := a.Intersect(b)
	c.intersections[key] = got
	return got
}
