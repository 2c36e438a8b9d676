package transaction

import (
	"sort"

	"github.com/xshapira/poetry/packages"
)

// bootstrapPackages are the package manager's own installer dependencies;
// synchronize mode leaves them alone unless the project declares them, so
// externally managed environments keep working.
var bootstrapPackages = map[packages.Name]struct{}{
	"pip":        {},
	"setuptools": {},
	"wheel":      {},
}

// ResultPackage pairs a resolved package with its operation priority
// (topological depth from the solve result).
type ResultPackage struct {
	Package  *packages.Package
	Priority int
}

// Transaction derives operations from a solve result. It is built once
// after solving and not mutated afterward.
type Transaction struct {
	currentPackages   []*packages.Package
	resultPackages    []ResultPackage
	installedPackages []*packages.Package
	rootPackage       *packages.Package
}

// New builds a transaction.
//
// currentPackages is the previously resolved (declared) set, used to
// decide uninstalls; resultPackages the fresh solve result;
// installedPackages what is physically present; rootPackage the project
// sentinel, never uninstalled.
func New(
	currentPackages []*packages.Package,
	resultPackages []ResultPackage,
	installedPackages []*packages.Package,
	rootPackage *packages.Package,
) *Transaction {
	return &Transaction{
		currentPackages:   currentPackages,
		resultPackages:    resultPackages,
		installedPackages: installedPackages,
		rootPackage:       rootPackage,
	}
}

// CalculateOperations derives the ordered operation list.
//
// withUninstalls removes previously current packages that dropped out of
// the result. synchronize additionally removes anything installed that
// the current set does not declare, sparing the root package and
// undeclared bootstrap tooling.
func (t *Transaction) CalculateOperations(withUninstalls, synchronize bool) []Operation {
	var operations []Operation

	for _, result := range t.resultPackages {
		installed := false
		for _, present := range t.installedPackages {
			if result.Package.Name != present.Name {
				continue
			}
			installed = true

			switch {
			case result.Package.Version.Compare(present.Version) != 0:
				operations = append(operations, update(present, result.Package, result.Priority))
			case !result.Package.SamePackageAs(present):
				// Same version string but a different source identity is
				// still a real change.
				operations = append(operations, update(present, result.Package, result.Priority))
			default:
				operations = append(operations,
					skippedInstall(result.Package, result.Priority, "Already installed"))
			}
			break
		}

		if !installed {
			operations = append(operations, install(result.Package, result.Priority))
		}
	}

	if withUninstalls {
		operations = append(operations, t.uninstalls(synchronize)...)
	}

	sort.SliceStable(operations, func(i, j int) bool {
		a, b := operations[i], operations[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if a.Package.Name != b.Package.Name {
			return a.Package.Name < b.Package.Name
		}
		return a.Package.Version.LessThan(b.Package.Version)
	})
	return operations
}

func (t *Transaction) uninstalls(synchronize bool) []Operation {
	var operations []Operation

	inResult := make(map[packages.Name]struct{}, len(t.resultPackages))
	for _, result := range t.resultPackages {
		inResult[result.Package.Name] = struct{}{}
	}

	removed := make(map[packages.Name]struct{})
	for _, current := range t.currentPackages {
		if _, ok := inResult[current.Name]; ok {
			continue
		}
		for _, present := range t.installedPackages {
			if present.Name == current.Name {
				operations = append(operations, uninstall(present))
				removed[present.Name] = struct{}{}
			}
		}
	}

	if !synchronize {
		return operations
	}

	declared := make(map[packages.Name]struct{}, len(t.currentPackages))
	for _, current := range t.currentPackages {
		declared[current.Name] = struct{}{}
	}

	for _, present := range t.installedPackages {
		if t.rootPackage != nil && present.Name == t.rootPackage.Name {
			continue
		}
		if _, isBootstrap := bootstrapPackages[present.Name]; isBootstrap {
			if _, ok := declared[present.Name]; !ok {
				continue
			}
		}
		if _, ok := removed[present.Name]; ok {
			continue
		}
		if _, ok := declared[present.Name]; !ok {
			operations = append(operations, uninstall(present))
		}
	}

	return operations
}
