// Package versions provides version parsing and a range algebra closed
// under intersection, union, difference and complement.
//
// Versions themselves are Masterminds semver values; a Range is a sorted
// sequence of disjoint intervals over that total order. All operations
// return new Range values; a Range is immutable once built.
package versions

import (
	semver "github.com/Masterminds/semver/v3"
)

// interval is a single contiguous span of versions. A nil bound is
// unbounded on that side.
type interval struct {
	lower, upper *semver.Version
	includeLower bool
	includeUpper bool
}

// Range is a set of versions, kept as sorted, disjoint, non-touching
// intervals. The zero value is the empty set.
type Range struct {
	spans []interval
}

// Any returns the universal set.
func Any() *Range {
	return &Range{spans: []interval{{}}}
}

// Empty returns the empty set.
func Empty() *Range {
	return &Range{}
}

// Exact returns the set containing only v.
func Exact(v *semver.Version) *Range {
	return &Range{spans: []interval{{
		lower: v, upper: v,
		includeLower: true, includeUpper: true,
	}}}
}

// NewRange builds a range from explicit bounds. A nil bound is unbounded.
// Inverted or degenerate bounds yield the empty set.
func NewRange(lower, upper *semver.Version, includeLower, includeUpper bool) *Range {
	iv := interval{
		lower: lower, upper: upper,
		includeLower: includeLower, includeUpper: includeUpper,
	}
	if iv.empty() {
		return Empty()
	}
	return &Range{spans: []interval{iv}}
}

func (iv interval) empty() bool {
	if iv.lower == nil || iv.upper == nil {
		return false
	}
	c := iv.lower.Compare(iv.upper)
	if c > 0 {
		return true
	}
	if c == 0 {
		return !(iv.includeLower && iv.includeUpper)
	}
	return false
}

// compareLower orders interval lower bounds; an inclusive bound sorts
// before an exclusive bound at the same version.
func compareLower(a, b interval) int {
	switch {
	case a.lower == nil && b.lower == nil:
		return 0
	case a.lower == nil:
		return -1
	case b.lower == nil:
		return 1
	}
	if c := a.lower.Compare(b.lower); c != 0 {
		return c
	}
	switch {
	case a.includeLower == b.includeLower:
		return 0
	case a.includeLower:
		return -1
	default:
		return 1
	}
}

// compareUpper orders interval upper bounds; an inclusive bound sorts
// after an exclusive bound at the same version.
func compareUpper(a, b interval) int {
	switch {
	case a.upper == nil && b.upper == nil:
		return 0
	case a.upper == nil:
		return 1
	case b.upper == nil:
		return -1
	}
	if c := a.upper.Compare(b.upper); c != 0 {
		return c
	}
	switch {
	case a.includeUpper == b.includeUpper:
		return 0
	case a.includeUpper:
		return 1
	default:
		return -1
	}
}

func (iv interval) allows(v *semver.Version) bool {
	if iv.lower != nil {
		c := v.Compare(iv.lower)
		if c < 0 || (c == 0 && !iv.includeLower) {
			return false
		}
	}
	if iv.upper != nil {
		c := v.Compare(iv.upper)
		if c > 0 || (c == 0 && !iv.includeUpper) {
			return false
		}
	}
	return true
}

func (iv interval) intersect(other interval) (interval, bool) {
	out := iv
	if compareLower(other, out) > 0 {
		out.lower, out.includeLower = other.lower, other.includeLower
	}
	if compareUpper(other, out) < 0 {
		out.upper, out.includeUpper = other.upper, other.includeUpper
	}
	if out.empty() {
		return interval{}, false
	}
	return out, true
}

// contains reports whether other lies entirely within iv.
func (iv interval) contains(other interval) bool {
	return compareLower(iv, other) <= 0 && compareUpper(other, iv) <= 0
}

// touches reports whether the two intervals overlap or are adjacent with
// no version between them, i.e. whether their union is one interval.
func (iv interval) touches(other interval) bool {
	lo, hi := iv, other
	if compareLower(hi, lo) < 0 {
		lo, hi = hi, lo
	}
	if lo.upper == nil || hi.lower == nil {
		return true
	}
	c := lo.upper.Compare(hi.lower)
	if c != 0 {
		return c > 0
	}
	return lo.includeUpper || hi.includeLower
}

// IsEmpty reports whether the range allows no versions.
func (r *Range) IsEmpty() bool {
	return len(r.spans) == 0
}

// IsAny reports whether the range allows every version.
func (r *Range) IsAny() bool {
	return len(r.spans) == 1 && r.spans[0].lower == nil && r.spans[0].upper == nil
}

// Allows reports whether v is in the range.
func (r *Range) Allows(v *semver.Version) bool {
	for _, iv := range r.spans {
		if iv.allows(v) {
			return true
		}
	}
	return false
}

// AllowsAll reports whether every version in other is also in r.
func (r *Range) AllowsAll(other *Range) bool {
	for _, o := range other.spans {
		held := false
		for _, iv := range r.spans {
			if iv.contains(o) {
				held = true
				break
			}
		}
		if !held {
			return false
		}
	}
	return true
}

// AllowsAny reports whether r and other share at least one version.
func (r *Range) AllowsAny(other *Range) bool {
	for _, iv := range r.spans {
		for _, o := range other.spans {
			if _, ok := iv.intersect(o); ok {
				return true
			}
		}
	}
	return false
}

// Intersect returns the versions in both r and other.
func (r *Range) Intersect(other *Range) *Range {
	var out []interval
	for _, iv := range r.spans {
		for _, o := range other.spans {
			if got, ok := iv.intersect(o); ok {
				out = append(out, got)
			}
		}
	}
	return normalize(out)
}

// Union returns the versions in either r or other.
func (r *Range) Union(other *Range) *Range {
	out := make([]interval, 0, len(r.spans)+len(other.spans))
	out = append(out, r.spans...)
	out = append(out, other.spans...)
	return normalize(out)
}

// Complement returns every version not in r.
func (r *Range) Complement() *Range {
	if r.IsEmpty() {
		return Any()
	}
	var out []interval
	var cursor *interval
	for i := range r.spans {
		iv := r.spans[i]
		if iv.lower != nil {
			gap := interval{
				upper:        iv.lower,
				includeUpper: !iv.includeLower,
			}
			if cursor != nil {
				gap.lower, gap.includeLower = cursor.upper, !cursor.includeUpper
			}
			if !gap.empty() {
				out = append(out, gap)
			}
		}
		cursor = &r.spans[i]
	}
	if cursor.upper != nil {
		out = append(out, interval{
			lower:        cursor.upper,
			includeLower: !cursor.includeUpper,
		})
	}
	return &Range{spans: out}
}

// Difference returns the versions in r but not in other.
func (r *Range) Difference(other *Range) *Range {
	return r.Intersect(other.Complement())
}

// Equal reports whether two ranges allow exactly the same versions.
func (r *Range) Equal(other *Range) bool {
	if len(r.spans) != len(other.spans) {
		return false
	}
	for i, iv := range r.spans {
		o := other.spans[i]
		if compareLower(iv, o) != 0 || compareUpper(iv, o) != 0 {
			return false
		}
	}
	return true
}

// normalize sorts intervals and coalesces everything that overlaps or
// touches, restoring the Range invariant.
func normalize(spans []interval) *Range {
	if len(spans) == 0 {
		return Empty()
	}
	sorted := make([]interval, len(spans))
	copy(sorted, spans)
	// insertion sort; span counts are tiny in practice
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && compareLower(sorted[j], sorted[j-1]) < 0; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}

	out := sorted[:1]
	for _, iv := range sorted[1:] {
		last := &out[len(out)-1]
		if last.touches(iv) {
			if compareUpper(iv, *last) > 0 {
				last.upper, last.includeUpper = iv.upper, iv.includeUpper
			}
		} else {
			out = append(out, iv)
		}
	}
	return &Range{spans: out}
}

func (iv interval) String() string {
	if iv.lower == nil && iv.upper == nil {
		return "*"
	}
	if iv.lower != nil && iv.upper != nil &&
		iv.includeLower && iv.includeUpper && iv.lower.Compare(iv.upper) == 0 {
		return iv.lower.String()
	}
	var s string
	if iv.lower != nil {
		if iv.includeLower {
			s = ">=" + iv.lower.String()
		} else {
			s = ">" + iv.lower.String()
		}
	}
	if iv.upper != nil {
		if s != "" {
			s += ","
		}
		if iv.includeUpper {
			s += "<=" + iv.upper.String()
		} else {
			s += "<" + iv.upper.String()
		}
	}
	return s
}

func (r *Range) String() string {
	if r.IsEmpty() {
		return "<empty>"
	}
	s := r.spans[0].String()
	for _, iv := range r.spans[1:] {
		s += " || " + iv.String()
	}
	return s
}
