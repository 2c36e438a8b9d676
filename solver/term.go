// Package solver implements PubGrub-style version solving: unit
// propagation and conflict-driven clause learning over signed terms about
// package versions, with backtracking via trail truncation.
package solver

import (
	"fmt"

	"github.com/xshapira/poetry/packages"
	"github.com/xshapira/poetry/versions"
)

// SetRelation describes how the versions allowed by one term relate to
// those allowed by another term about the same package.
type SetRelation uint8

const (
	// SetRelationSubset: every selection satisfying this term satisfies
	// the other.
	SetRelationSubset SetRelation = iota
	// SetRelationDisjoint: no selection can satisfy both terms.
	SetRelationDisjoint
	// SetRelationOverlapping: neither subset nor disjoint.
	SetRelationOverlapping
)

func (r SetRelation) String() string {
	switch r {
	case SetRelationSubset:
		return "subset"
	case SetRelationDisjoint:
		return "disjoint"
	default:
		return "overlapping"
	}
}

// Term is a signed assertion about one package: "the selected version of
// this package is (positive) or is not (negative) in this range."
// Terms are immutable.
type Term struct {
	dependency *packages.Dependency
	positive   bool
}

// NewTerm builds a term over dependency with the given sign.
func NewTerm(dependency *packages.Dependency, positive bool) *Term {
	return &Term{dependency: dependency, positive: positive}
}

// Inverse returns the term with the opposite sign.
func (t *Term) Inverse() *Term {
	return NewTerm(t.dependency, !t.positive)
}

func (t *Term) Dependency() *packages.Dependency { return t.dependency }
func (t *Term) Constraint() *versions.Range      { return t.dependency.Constraint() }
func (t *Term) IsPositive() bool                 { return t.positive }

// Satisfies reports whether every selection that satisfies t also
// satisfies other.
func (t *Term) Satisfies(other *Term) bool {
	return t.dependency.CompleteName() == other.dependency.CompleteName() &&
		t.Relation(other) == SetRelationSubset
}

// Relation returns the set-relation between the selections allowed by t
// and those allowed by other. Both terms must be about the same package;
// anything else indicates broken incompatibility construction and panics.
func (t *Term) Relation(other *Term) SetRelation {
	t.mustShareCompleteName(other)

	otherConstraint := other.Constraint()
	if other.positive {
		if t.positive {
			if !t.compatibleDependency(other.dependency) {
				return SetRelationDisjoint
			}
			// foo ^1.5.0 is a subset of foo ^1.0.0
			if otherConstraint.AllowsAll(t.Constraint()) {
				return SetRelationSubset
			}
			// foo ^2.0.0 is disjoint with foo ^1.0.0
			if !t.Constraint().AllowsAny(otherConstraint) {
				return SetRelationDisjoint
			}
			return SetRelationOverlapping
		}

		if !t.compatibleDependency(other.dependency) {
			return SetRelationOverlapping
		}
		// not foo ^1.0.0 is disjoint with foo ^1.5.0
		if t.Constraint().AllowsAll(otherConstraint) {
			return SetRelationDisjoint
		}
		return SetRelationOverlapping
	}

	if t.positive {
		if !t.compatibleDependency(other.dependency) {
			return SetRelationSubset
		}
		// foo ^2.0.0 is a subset of not foo ^1.0.0
		if !otherConstraint.AllowsAny(t.Constraint()) {
			return SetRelationSubset
		}
		// foo ^1.5.0 is disjoint with not foo ^1.0.0
		if otherConstraint.AllowsAll(t.Constraint()) {
			return SetRelationDisjoint
		}
		return SetRelationOverlapping
	}

	if !t.compatibleDependency(other.dependency) {
		return SetRelationOverlapping
	}
	// not foo ^1.0.0 is a subset of not foo ^1.5.0
	if t.Constraint().AllowsAll(otherConstraint) {
		return SetRelationSubset
	}
	return SetRelationOverlapping
}

// Intersect returns the term standing for "both t and other hold", or nil
// when no selection can satisfy both. Both terms must be about the same
// package.
func (t *Term) Intersect(other *Term) *Term {
	t.mustShareCompleteName(other)

	if t.compatibleDependency(other.dependency) {
		switch {
		case t.positive != other.positive:
			// foo ^1.0.0 and not foo ^1.5.0 -> foo >=1.0.0 <1.5.0
			positive, negative := t, other
			if !t.positive {
				positive, negative = other, t
			}
			return t.nonEmptyTerm(positive.Constraint().Difference(negative.Constraint()), true)
		case t.positive:
			return t.nonEmptyTerm(t.Constraint().Intersect(other.Constraint()), true)
		default:
			// De Morgan: not A and not B -> not (A or B)
			return t.nonEmptyTerm(t.Constraint().Union(other.Constraint()), false)
		}
	}

	// One side is the root sentinel; the positive half carries the
	// information.
	if t.positive != other.positive {
		if t.positive {
			return t
		}
		return other
	}
	return nil
}

// Difference returns the term standing for "t holds but other does not",
// or nil when that is unsatisfiable.
func (t *Term) Difference(other *Term) *Term {
	return t.Intersect(other.Inverse())
}

// compatibleDependency treats the root sentinel as a universal wildcard.
func (t *Term) compatibleDependency(other *packages.Dependency) bool {
	return t.dependency.IsRoot() || other.IsRoot() ||
		t.dependency.SamePackageAs(other)
}

// mustShareCompleteName enforces the construction contract: relating
// terms about unrelated packages is a bug, not a recoverable state.
func (t *Term) mustShareCompleteName(other *Term) {
	if t.dependency.CompleteName() != other.dependency.CompleteName() &&
		!t.dependency.IsRoot() && !other.dependency.IsRoot() {
		panic(fmt.Sprintf(
			"canary - term %s related against %s; incompatibility construction is broken",
			t, other,
		))
	}
}

func (t *Term) nonEmptyTerm(constraint *versions.Range, positive bool) *Term {
	if constraint.IsEmpty() {
		return nil
	}
	return NewTerm(t.dependency.WithConstraint(constraint), positive)
}

func (t *Term) String() string {
	if t.positive {
		return t.dependency.String()
	}
	return "not " + t.dependency.String()
}
