package solver

import (
	"fmt"
	"sort"

	"github.com/xshapira/poetry/packages"
)

// PartialSolution is the ordered trail of decisions and derivations made
// during one solve, together with per-package memoization of the
// intersection of all derived terms. The trail is append-only; Backtrack
// truncates it back to a watermark.
type PartialSolution struct {
	assignments []*Assignment

	// terms memoizes pairwise relation and intersection results for the
	// solve this trail belongs to.
	terms *termCache

	// decisions maps complete names of decided packages to the chosen
	// package.
	decisions map[string]*packages.Package

	// positive and negative hold, per package, the intersection of every
	// term derived for it so far. A package appears in at most one of the
	// two maps.
	positive map[string]*Term
	negative map[string]*Term

	// decisionOrder preserves insertion order of decisions so results are
	// reproducible.
	decisionOrder []string

	attemptedSolutions int
	backtracking       bool
}

func newPartialSolution(terms *termCache) *PartialSolution {
	return &PartialSolution{
		terms:              terms,
		decisions:          make(map[string]*packages.Package),
		positive:           make(map[string]*Term),
		negative:           make(map[string]*Term),
		attemptedSolutions: 1,
	}
}

// AttemptedSolutions counts how many distinct search subtrees the solver
// has entered; it increments on the first decision after a backtrack.
func (ps *PartialSolution) AttemptedSolutions() int {
	return ps.attemptedSolutions
}

// DecisionLevel is the number of decisions on the trail.
func (ps *PartialSolution) DecisionLevel() int {
	return len(ps.decisions)
}

// Decisions returns the decided packages in decision order.
func (ps *PartialSolution) Decisions() []*packages.Package {
	out := make([]*packages.Package, 0, len(ps.decisionOrder))
	for _, name := range ps.decisionOrder {
		out = append(out, ps.decisions[name])
	}
	return out
}

// Decision returns the decided package for a complete name, if any.
func (ps *PartialSolution) Decision(completeName string) (*packages.Package, bool) {
	pkg, ok := ps.decisions[completeName]
	return pkg, ok
}

// Decide appends a decision for pkg at the next decision level.
func (ps *PartialSolution) Decide(pkg *packages.Package) {
	if ps.backtracking {
		ps.attemptedSolutions++
		ps.backtracking = false
	}

	name := pkg.CompleteName()
	ps.decisions[name] = pkg
	ps.decisionOrder = append(ps.decisionOrder, name)

	ps.assign(decision(pkg, len(ps.decisions), len(ps.assignments)))
}

// Derive appends a derivation forced by cause at the current decision
// level.
func (ps *PartialSolution) Derive(dependency *packages.Dependency, positive bool, cause *Incompatibility) {
	ps.assign(derivation(dependency, positive, cause, len(ps.decisions), len(ps.assignments)))
}

func (ps *PartialSolution) assign(a *Assignment) {
	ps.assignments = append(ps.assignments, a)
	ps.register(a)
}

// register folds an assignment's term into the per-package memo.
func (ps *PartialSolution) register(a *Assignment) {
	name := a.Dependency().CompleteName()

	if old, ok := ps.positive[name]; ok {
		if got := ps.terms.intersect(old, a.Term); got != nil {
			ps.positive[name] = got
		}
		return
	}

	term := a.Term
	if old, ok := ps.negative[name]; ok {
		if got := ps.terms.intersect(term, old); got != nil {
			term = got
		}
	}

	if term.IsPositive() {
		delete(ps.negative, name)
		ps.positive[name] = term
	} else {
		ps.negative[name] = term
	}
}

// Backtrack truncates the trail so that everything above decisionLevel is
// forgotten, then rebuilds the memo for the packages that lost
// assignments.
func (ps *PartialSolution) Backtrack(decisionLevel int) {
	ps.backtracking = true

	touched := make(map[string]struct{})
	for len(ps.assignments) > 0 {
		last := ps.assignments[len(ps.assignments)-1]
		if last.DecisionLevel() <= decisionLevel {
			break
		}
		ps.assignments[len(ps.assignments)-1] = nil
		ps.assignments = ps.assignments[:len(ps.assignments)-1]

		name := last.Dependency().CompleteName()
		touched[name] = struct{}{}
		if last.IsDecision() {
			delete(ps.decisions, name)
			for i := len(ps.decisionOrder) - 1; i >= 0; i-- {
				if ps.decisionOrder[i] == name {
					ps.decisionOrder = append(ps.decisionOrder[:i], ps.decisionOrder[i+1:]...)
					break
				}
			}
		}
	}

	for name := range touched {
		delete(ps.positive, name)
		delete(ps.negative, name)
	}
	for _, a := range ps.assignments {
		if _, ok := touched[a.Dependency().CompleteName()]; ok {
			ps.register(a)
		}
	}
}

// Relation returns how the accumulated assignments for term's package
// relate to term.
func (ps *PartialSolution) Relation(term *Term) SetRelation {
	name := term.Dependency().CompleteName()
	if positive, ok := ps.positive[name]; ok {
		return ps.terms.relation(positive, term)
	}
	if negative, ok := ps.negative[name]; ok {
		return ps.terms.relation(negative, term)
	}
	return SetRelationOverlapping
}

// Satisfies reports whether the accumulated assignments imply term.
func (ps *PartialSolution) Satisfies(term *Term) bool {
	return ps.Relation(term) == SetRelationSubset
}

// Satisfier returns the earliest assignment at which the accumulated
// terms for term's package first imply term. The term must be satisfied;
// anything else is a solver bug.
func (ps *PartialSolution) Satisfier(term *Term) *Assignment {
	var assigned *Term
	for _, a := range ps.assignments {
		if a.Dependency().CompleteName() != term.Dependency().CompleteName() {
			continue
		}
		if assigned == nil {
			assigned = a.Term
		} else if got := ps.terms.intersect(assigned, a.Term); got != nil {
			assigned = got
		}
		if ps.terms.relation(assigned, term) == SetRelationSubset {
			return a
		}
	}
	panic(fmt.Sprintf("canary - %s is not satisfied by the partial solution", term))
}

// Unsatisfied returns, in sorted name order, the positive accumulated
// terms whose packages have no decision yet.
func (ps *PartialSolution) Unsatisfied() []*Term {
	names := make([]string, 0, len(ps.positive))
	for name := range ps.positive {
		if _, decided := ps.decisions[name]; !decided {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	out := make([]*Term, 0, len(names))
	for _, name := range names {
		out = append(out, ps.positive[name])
	}
	return out
}
