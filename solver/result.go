package solver

import (
	"sort"

	"github.com/xshapira/poetry/packages"
)

// Result is a complete, consistent assignment: exactly one version for
// every package the root requirements transitively reach.
type Result struct {
	// Root is the sentinel package for the top-level project.
	Root *packages.Package

	// Packages holds the resolved packages (root excluded), sorted by
	// name for reproducible output.
	Packages []*packages.Package

	// AttemptedSolutions counts the search subtrees explored; 1 means the
	// solve never had to backtrack.
	AttemptedSolutions int

	depths map[string]int
}

func newResult(solution *PartialSolution, dependenciesOf map[string][]*packages.Dependency) *Result {
	r := &Result{
		AttemptedSolutions: solution.AttemptedSolutions(),
		depths:             make(map[string]int),
	}

	for _, pkg := range solution.Decisions() {
		if pkg.IsRoot() {
			r.Root = pkg
			continue
		}
		r.Packages = append(r.Packages, pkg)
	}
	sort.Slice(r.Packages, func(i, j int) bool {
		return r.Packages[i].CompleteName() < r.Packages[j].CompleteName()
	})

	r.computeDepths(dependenciesOf)
	return r
}

// computeDepths assigns every resolved package its depth in the chosen
// dependency graph: the longest edge count from the root. Depth doubles
// as operation priority, so dependencies execute before their
// dependents. Relaxation is bounded by the package count, which keeps
// dependency cycles from looping forever.
func (r *Result) computeDepths(dependenciesOf map[string][]*packages.Dependency) {
	if r.Root == nil {
		return
	}
	r.depths[r.Root.CompleteName()] = 0

	for round := 0; round <= len(r.Packages); round++ {
		changed := false
		for name, deps := range dependenciesOf {
			depth, reached := r.depths[name]
			if !reached {
				continue
			}
			for _, dep := range deps {
				if got, ok := r.depths[dep.CompleteName()]; !ok || got < depth+1 {
					r.depths[dep.CompleteName()] = depth + 1
					changed = true
				}
			}
		}
		if !changed {
			break
		}
	}
}

// Depth returns the topological depth of a resolved package; the root is
// depth 0, its direct requirements 1, and so on.
func (r *Result) Depth(pkg *packages.Package) int {
	return r.depths[pkg.CompleteName()]
}
