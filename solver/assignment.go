package solver

import (
	semver "github.com/Masterminds/semver/v3"

	"github.com/xshapira/poetry/packages"
	"github.com/xshapira/poetry/versions"
)

// Assignment is one entry on the trail: either a decision (a concrete
// version chosen for a package) or a derivation (a term forced by an
// incompatibility during unit propagation).
type Assignment struct {
	*Term

	decisionLevel int
	index         int
	cause         *Incompatibility
	pkg           *packages.Package
}

func decision(pkg *packages.Package, decisionLevel, index int) *Assignment {
	dep := packages.NewDependency(string(pkg.Name), versions.Exact(pkg.Version)).
		WithExtras(pkg.Extras...)
	if pkg.IsRoot() {
		dep = packages.RootDependency(versions.Exact(pkg.Version))
	}
	return &Assignment{
		Term:          NewTerm(dep, true),
		decisionLevel: decisionLevel,
		index:         index,
		pkg:           pkg,
	}
}

func derivation(dependency *packages.Dependency, positive bool, cause *Incompatibility, decisionLevel, index int) *Assignment {
	return &Assignment{
		Term:          NewTerm(dependency, positive),
		decisionLevel: decisionLevel,
		index:         index,
		cause:         cause,
	}
}

// DecisionLevel is the number of decisions made when this assignment was
// appended.
func (a *Assignment) DecisionLevel() int { return a.decisionLevel }

// Index is the assignment's position on the trail.
func (a *Assignment) Index() int { return a.index }

// Cause is the incompatibility that forced a derivation; nil for
// decisions.
func (a *Assignment) Cause() *Incompatibility { return a.cause }

// IsDecision reports whether this assignment is a free choice rather
// than a forced derivation.
func (a *Assignment) IsDecision() bool { return a.cause == nil }

// Package returns the concrete package chosen by a decision; nil for
// derivations.
func (a *Assignment) Package() *packages.Package { return a.pkg }

// Version returns the decided version; nil for derivations.
func (a *Assignment) Version() *semver.Version {
	if a.pkg == nil {
		return nil
	}
	return a.pkg.Version
}
