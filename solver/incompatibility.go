package solver

import (
	"fmt"
	"strings"
)

// Cause records why an incompatibility exists.
type Cause interface {
	isCause()
}

// RootCause marks the seed incompatibility asserting the root project
// must be selected.
type RootCause struct{}

// NoVersionsCause marks "no available version of this package satisfies
// this range".
type NoVersionsCause struct{}

// PackageNotFoundCause marks a package whose metadata the provider could
// not resolve at all. The originating error is kept for diagnostics.
type PackageNotFoundCause struct {
	Err error
}

// DependencyCause marks a dependency edge: the first term is the positive
// depender, the second the negated dependee requirement.
type DependencyCause struct{}

// ConflictCause marks an incompatibility derived by resolution during
// conflict-driven clause learning.
type ConflictCause struct {
	Conflict *Incompatibility
	Other    *Incompatibility
}

func (RootCause) isCause()            {}
func (NoVersionsCause) isCause()      {}
func (PackageNotFoundCause) isCause() {}
func (DependencyCause) isCause()      {}
func (ConflictCause) isCause()        {}

// Incompatibility is a clause: a set of terms that cannot all hold at
// once. Term order is insertion order; it only matters for explanation
// output.
type Incompatibility struct {
	terms []*Term
	cause Cause
}

// NewIncompatibility builds an incompatibility, coalescing terms about
// the same package and dropping positive root terms from derived clauses
// (the root selection is an axiom, restating it adds noise).
func NewIncompatibility(terms []*Term, cause Cause) *Incompatibility {
	if _, derived := cause.(ConflictCause); derived && len(terms) != 1 {
		kept := terms[:0:0]
		for _, t := range terms {
			if t.IsPositive() && t.Dependency().IsRoot() {
				continue
			}
			kept = append(kept, t)
		}
		terms = kept
	}

	var merged []*Term
	index := make(map[string]int, len(terms))
	for _, t := range terms {
		name := t.Dependency().CompleteName()
		if at, seen := index[name]; seen {
			got := merged[at].Intersect(t)
			if got != nil {
				merged[at] = got
			}
			continue
		}
		index[name] = len(merged)
		merged = append(merged, t)
	}

	return &Incompatibility{terms: merged, cause: cause}
}

func (in *Incompatibility) Terms() []*Term { return in.terms }
func (in *Incompatibility) Cause() Cause   { return in.cause }

// IsFailure reports whether this incompatibility proves the whole solve
// unsatisfiable: it holds vacuously, or constrains only the root.
func (in *Incompatibility) IsFailure() bool {
	if len(in.terms) == 0 {
		return true
	}
	return len(in.terms) == 1 && in.terms[0].Dependency().IsRoot()
}

func (in *Incompatibility) String() string {
	switch cause := in.cause.(type) {
	case DependencyCause:
		depender, dependee := in.terms[0], in.terms[1]
		if depender.Dependency().IsRoot() {
			return fmt.Sprintf("root requires %s", dependee.Dependency())
		}
		return fmt.Sprintf("%s depends on %s", depender.Dependency(), dependee.Dependency())

	case NoVersionsCause:
		dep := in.terms[0].Dependency()
		return fmt.Sprintf("no versions of %s match %s", dep.CompleteName(), dep.Constraint())

	case PackageNotFoundCause:
		return fmt.Sprintf("%s doesn't exist", in.terms[0].Dependency().CompleteName())

	case RootCause:
		return "the root project must be selected"

	case ConflictCause:
		_ = cause
	}

	if in.IsFailure() {
		return "version solving failed"
	}

	var positive, negative []string
	for _, t := range in.terms {
		if t.IsPositive() {
			positive = append(positive, t.Dependency().String())
		} else {
			negative = append(negative, t.Dependency().String())
		}
	}

	switch {
	case len(positive) > 0 && len(negative) > 0:
		if len(positive) == 1 {
			return fmt.Sprintf("%s requires %s", positive[0], strings.Join(negative, " or "))
		}
		return fmt.Sprintf("if %s then %s",
			strings.Join(positive, " and "), strings.Join(negative, " or "))
	case len(positive) == 1:
		return fmt.Sprintf("%s is forbidden", positive[0])
	case len(positive) > 1:
		return fmt.Sprintf("one of %s must be false", strings.Join(positive, " or "))
	case len(negative) == 1:
		return fmt.Sprintf("%s is required", negative[0])
	default:
		return fmt.Sprintf("one of %s must be true", strings.Join(negative, " or "))
	}
}

// andToString joins two incompatibility descriptions for explanation
// output, attaching derivation line references where available.
func (in *Incompatibility) andToString(other *Incompatibility, thisLine, otherLine int) string {
	this := in.String()
	if thisLine > 0 {
		this = fmt.Sprintf("%s (%d)", this, thisLine)
	}
	that := other.String()
	if otherLine > 0 {
		that = fmt.Sprintf("%s (%d)", that, otherLine)
	}
	return this + " and " + that
}
