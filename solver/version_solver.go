package solver

import (
	semver "github.com/Masterminds/semver/v3"
	"github.com/sirupsen/logrus"

	"github.com/xshapira/poetry/packages"
	"github.com/xshapira/poetry/versions"
)

var rootVersion = semver.New(1, 0, 0, "", "")

// VersionSolver drives PubGrub resolution: unit propagation over the
// incompatibility set, conflict-driven clause learning with backtracking,
// and fewest-candidates-first decision making. One solver instance runs
// one solve at a time; per-solve caches are reset on each Solve call.
type VersionSolver struct {
	provider Provider
	log      *logrus.Logger
	env      packages.Environment

	solution          *PartialSolution
	incompatibilities map[string][]*Incompatibility
	terms             *termCache

	// per-solve caches; provider answers are stable within a solve, so
	// these only save repeat lookups.
	versionCache    map[packages.Name][]*semver.Version
	versionErrCache map[packages.Name]error
	dependenciesOf  map[string][]*packages.Dependency
}

// Option configures a VersionSolver.
type Option func(*VersionSolver)

// WithLogger installs a logger for solver tracing; by default tracing is
// discarded below Warn level on a fresh logrus logger.
func WithLogger(log *logrus.Logger) Option {
	return func(s *VersionSolver) {
		if log != nil {
			s.log = log
		}
	}
}

// WithEnvironment installs an environment against which dependency
// markers are evaluated; marker-excluded edges are skipped entirely.
func WithEnvironment(env packages.Environment) Option {
	return func(s *VersionSolver) {
		s.env = env
	}
}

// New creates a solver over the given provider.
func New(provider Provider, opts ...Option) *VersionSolver {
	s := &VersionSolver{
		provider: provider,
		log:      logrus.New(),
	}
	s.log.Level = logrus.WarnLevel
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Solve computes a complete assignment satisfying the root requirements
// and everything they transitively imply. On unsatisfiability the
// returned error is a *SolveFailure carrying the derivation chain.
func (s *VersionSolver) Solve(roots ...*packages.Dependency) (*Result, error) {
	s.terms = newTermCache()
	s.solution = newPartialSolution(s.terms)
	s.incompatibilities = make(map[string][]*Incompatibility)
	s.versionCache = make(map[packages.Name][]*semver.Version)
	s.versionErrCache = make(map[packages.Name]error)
	s.dependenciesOf = make(map[string][]*packages.Dependency)

	rootDep := packages.RootDependency(versions.Exact(rootVersion))
	s.addIncompatibility(NewIncompatibility(
		[]*Term{NewTerm(rootDep, false)}, RootCause{},
	))

	next := rootDep.CompleteName()
	for next != "" {
		if err := s.propagate(next); err != nil {
			return nil, err
		}

		var err error
		next, err = s.choosePackageVersion(roots)
		if err != nil {
			return nil, err
		}
	}

	result := newResult(s.solution, s.dependenciesOf)
	if s.log.Level >= logrus.InfoLevel {
		s.log.WithFields(logrus.Fields{
			"packages": len(result.Packages),
			"attempts": result.AttemptedSolutions,
		}).Info("Version solving succeeded")
	}
	return result, nil
}

// propagate runs unit propagation until a fixed point, resolving any
// conflict it uncovers along the way.
func (s *VersionSolver) propagate(name string) error {
	queue := []string{name}
	queued := map[string]struct{}{name: {}}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		delete(queued, current)

		// Newest incompatibilities first: conflict causes learned late
		// tend to cut the search earlier.
		incompatibilities := s.incompatibilities[current]
		for i := len(incompatibilities) - 1; i >= 0; i-- {
			in := incompatibilities[i]

			derived, conflict := s.propagateIncompatibility(in)
			if conflict {
				rootCause, err := s.resolveConflict(in)
				if err != nil {
					return err
				}

				queue = queue[:0]
				queued = map[string]struct{}{}
				derived, _ = s.propagateIncompatibility(rootCause)
				if derived != "" {
					queue = append(queue, derived)
					queued[derived] = struct{}{}
				}
				break
			}

			if derived != "" {
				if _, ok := queued[derived]; !ok {
					queue = append(queue, derived)
					queued[derived] = struct{}{}
				}
			}
		}
	}
	return nil
}

// propagateIncompatibility checks one incompatibility against the trail.
// It reports a conflict when every term is satisfied; when exactly one
// term is left inconclusive, its negation is derived.
func (s *VersionSolver) propagateIncompatibility(in *Incompatibility) (string, bool) {
	var unsatisfied *Term

	for _, term := range in.Terms() {
		switch s.solution.Relation(term) {
		case SetRelationDisjoint:
			// At least one term is already violated, the clause cannot
			// fire.
			return "", false
		case SetRelationOverlapping:
			if unsatisfied != nil {
				return "", false
			}
			unsatisfied = term
		}
	}

	if unsatisfied == nil {
		return "", true
	}

	if s.log.Level >= logrus.DebugLevel {
		s.log.WithFields(logrus.Fields{
			"term":  unsatisfied.Inverse().String(),
			"cause": in.String(),
			"level": s.solution.DecisionLevel(),
		}).Debug("Derived term by unit propagation")
	}

	s.solution.Derive(unsatisfied.Dependency(), !unsatisfied.IsPositive(), in)
	return unsatisfied.Dependency().CompleteName(), false
}

// resolveConflict performs conflict-driven clause learning: it walks the
// trail backwards, resolving the conflicting incompatibility against the
// causes of the derivations that satisfied it, until the result is unit
// strictly below the most recent decision. The learned clause is added
// and the trail backtracked. When resolution bottoms out at the root, the
// solve has failed.
func (s *VersionSolver) resolveConflict(in *Incompatibility) (*Incompatibility, error) {
	if s.log.Level >= logrus.InfoLevel {
		s.log.WithField("incompatibility", in.String()).Info("Conflict found")
	}

	learnedNew := false
	for !in.IsFailure() {
		var mostRecentTerm *Term
		var mostRecentSatisfier *Assignment
		var difference *Term
		previousSatisfierLevel := 1

		for _, term := range in.Terms() {
			satisfier := s.solution.Satisfier(term)

			switch {
			case mostRecentSatisfier == nil:
				mostRecentTerm, mostRecentSatisfier = term, satisfier
			case mostRecentSatisfier.Index() < satisfier.Index():
				previousSatisfierLevel = maxInt(previousSatisfierLevel, mostRecentSatisfier.DecisionLevel())
				mostRecentTerm, mostRecentSatisfier = term, satisfier
				difference = nil
			default:
				previousSatisfierLevel = maxInt(previousSatisfierLevel, satisfier.DecisionLevel())
			}

			if mostRecentTerm == term {
				// If the satisfier only partially covers the term, the
				// remainder was satisfied earlier and pins how far back
				// we may jump.
				difference = s.terms.intersect(mostRecentSatisfier.Term, mostRecentTerm.Inverse())
				if difference != nil {
					previousSatisfierLevel = maxInt(
						previousSatisfierLevel,
						s.solution.Satisfier(difference.Inverse()).DecisionLevel(),
					)
				}
			}
		}

		if previousSatisfierLevel < mostRecentSatisfier.DecisionLevel() ||
			mostRecentSatisfier.Cause() == nil {
			if s.log.Level >= logrus.InfoLevel {
				s.log.WithFields(logrus.Fields{
					"from": s.solution.DecisionLevel(),
					"to":   previousSatisfierLevel,
				}).Info("Backtracking")
			}
			s.solution.Backtrack(previousSatisfierLevel)
			if learnedNew {
				s.addIncompatibility(in)
			}
			return in, nil
		}

		newTerms := make([]*Term, 0, len(in.Terms())+2)
		for _, term := range in.Terms() {
			if term != mostRecentTerm {
				newTerms = append(newTerms, term)
			}
		}
		for _, term := range mostRecentSatisfier.Cause().Terms() {
			if term.Dependency().CompleteName() != mostRecentSatisfier.Dependency().CompleteName() {
				newTerms = append(newTerms, term)
			}
		}
		if difference != nil {
			newTerms = append(newTerms, difference.Inverse())
		}

		in = NewIncompatibility(newTerms, ConflictCause{
			Conflict: in,
			Other:    mostRecentSatisfier.Cause(),
		})
		learnedNew = true

		if s.log.Level >= logrus.DebugLevel {
			s.log.WithField("incompatibility", in.String()).Debug("Derived incompatibility by resolution")
		}
	}

	return nil, NewSolveFailure(in)
}

// choosePackageVersion picks the undecided package with the fewest
// remaining candidates (ties broken by name), selects its best candidate,
// and loads that candidate's dependency edges. Returns the complete name
// of the package worked on, or "" when no package remains undecided.
func (s *VersionSolver) choosePackageVersion(roots []*packages.Dependency) (string, error) {
	unsatisfied := s.solution.Unsatisfied()
	if len(unsatisfied) == 0 {
		return "", nil
	}

	term := unsatisfied[0]
	if !term.Dependency().IsRoot() {
		fewest := -1
		for _, candidate := range unsatisfied {
			count := s.candidateCount(candidate)
			if fewest < 0 || count < fewest {
				fewest, term = count, candidate
			}
		}
	}

	name := term.Dependency().Name()
	completeName := term.Dependency().CompleteName()

	available, err := s.versionsFor(name)
	if err != nil {
		if s.log.Level >= logrus.InfoLevel {
			s.log.WithFields(logrus.Fields{
				"name": name,
				"err":  err,
			}).Info("Package metadata could not be resolved")
		}
		s.addIncompatibility(NewIncompatibility(
			[]*Term{NewTerm(term.Dependency().WithConstraint(versions.Any()), true)},
			PackageNotFoundCause{Err: err},
		))
		return completeName, nil
	}

	var version *semver.Version
	for _, v := range available {
		if term.Constraint().Allows(v) {
			version = v
			break
		}
	}
	if version == nil {
		if s.log.Level >= logrus.InfoLevel {
			s.log.WithFields(logrus.Fields{
				"name":       name,
				"constraint": term.Constraint().String(),
			}).Info("No versions satisfy constraint")
		}
		s.addIncompatibility(NewIncompatibility(
			[]*Term{NewTerm(term.Dependency(), true)}, NoVersionsCause{},
		))
		return completeName, nil
	}

	pkg := s.packageFor(term, version)
	deps, err := s.dependenciesFor(pkg, roots)
	if err != nil {
		s.addIncompatibility(NewIncompatibility(
			[]*Term{NewTerm(term.Dependency().WithConstraint(versions.Any()), true)},
			PackageNotFoundCause{Err: err},
		))
		return completeName, nil
	}

	conflict := false
	for _, dep := range deps {
		in := NewIncompatibility([]*Term{
			NewTerm(pkg.ToDependency(), true),
			NewTerm(dep, false),
		}, DependencyCause{})
		s.addIncompatibility(in)

		// The dependency incompatibility immediately conflicts when every
		// term other than the candidate's own is already satisfied.
		satisfied := true
		for _, t := range in.Terms() {
			if t.Dependency().CompleteName() == completeName {
				continue
			}
			if !s.solution.Satisfies(t) {
				satisfied = false
				break
			}
		}
		conflict = conflict || satisfied
	}

	if !conflict {
		s.solution.Decide(pkg)
		s.dependenciesOf[pkg.CompleteName()] = deps
		if s.log.Level >= logrus.InfoLevel {
			s.log.WithFields(logrus.Fields{
				"name":    pkg.CompleteName(),
				"version": pkg.Version.String(),
				"level":   s.solution.DecisionLevel(),
			}).Info("Selected package version")
		}
	}

	return completeName, nil
}

// candidateCount counts available versions consistent with the
// accumulated positive term; provider failures count as zero so broken
// packages surface immediately.
func (s *VersionSolver) candidateCount(term *Term) int {
	available, err := s.versionsFor(term.Dependency().Name())
	if err != nil {
		return 0
	}
	count := 0
	for _, v := range available {
		if term.Constraint().Allows(v) {
			count++
		}
	}
	return count
}

func (s *VersionSolver) versionsFor(name packages.Name) ([]*semver.Version, error) {
	if name == packages.RootName {
		return []*semver.Version{rootVersion}, nil
	}
	if err, ok := s.versionErrCache[name]; ok {
		return nil, err
	}
	if got, ok := s.versionCache[name]; ok {
		return got, nil
	}

	got, err := s.provider.VersionsFor(name)
	if err != nil {
		s.versionErrCache[name] = err
		return nil, err
	}
	s.versionCache[name] = got
	return got, nil
}

// packageFor materializes the candidate package, delegating to the
// provider when it carries richer metadata.
func (s *VersionSolver) packageFor(term *Term, version *semver.Version) *packages.Package {
	dep := term.Dependency()
	if dep.IsRoot() {
		return packages.NewRootPackage(rootVersion)
	}

	if pp, ok := s.provider.(PackageProvider); ok {
		if pkg, err := pp.PackageFor(dep.Name(), version); err == nil && pkg != nil {
			if len(pkg.Extras) == 0 {
				pkg.Extras = append([]string(nil), dep.Extras()...)
			}
			return pkg
		}
	}

	pkg := packages.NewPackage(string(dep.Name()), version)
	pkg.Extras = append([]string(nil), dep.Extras()...)
	return pkg
}

// dependenciesFor loads the dependency edges for a candidate, filtering
// out edges whose marker the configured environment rejects.
func (s *VersionSolver) dependenciesFor(pkg *packages.Package, roots []*packages.Dependency) ([]*packages.Dependency, error) {
	var deps []*packages.Dependency
	if pkg.IsRoot() {
		deps = roots
	} else {
		var err error
		deps, err = s.provider.DependenciesFor(pkg.Name, pkg.Version)
		if err != nil {
			return nil, err
		}
	}

	if s.env == nil {
		return deps, nil
	}

	kept := make([]*packages.Dependency, 0, len(deps))
	for _, dep := range deps {
		if dep.Marker() != "" {
			matches, err := s.env.Matches(dep.Marker())
			if err != nil {
				return nil, err
			}
			if !matches {
				if s.log.Level >= logrus.DebugLevel {
					s.log.WithFields(logrus.Fields{
						"dependency": dep.String(),
						"marker":     dep.Marker(),
					}).Debug("Skipping dependency excluded by environment marker")
				}
				continue
			}
		}
		kept = append(kept, dep)
	}
	return kept, nil
}

func (s *VersionSolver) addIncompatibility(in *Incompatibility) {
	for _, term := range in.Terms() {
		name := term.Dependency().CompleteName()
		s.incompatibilities[name] = append(s.incompatibilities[name], in)
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
