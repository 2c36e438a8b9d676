// Package transaction turns a solved assignment plus the currently
// installed set into an ordered list of install, update and uninstall
// operations.
package transaction

import (
	"fmt"

	"github.com/xshapira/poetry/packages"
)

// Kind discriminates operation variants.
type Kind uint8

const (
	Install Kind = iota
	Update
	Uninstall
)

func (k Kind) String() string {
	switch k {
	case Install:
		return "install"
	case Update:
		return "update"
	default:
		return "uninstall"
	}
}

// Status is the execution disposition of an operation, fixed at
// construction.
type Status uint8

const (
	// Pending operations are meant to be executed.
	Pending Status = iota
	// Skipped operations are listed for completeness but not executed;
	// SkipReason says why.
	Skipped
)

// Operation is one step of a transaction. Kind selects the variant; every
// variant shares Package and Priority. For updates, Previous is the
// installed package being replaced.
type Operation struct {
	Kind     Kind
	Package  *packages.Package
	Previous *packages.Package

	// Priority is the package's topological depth; operations run in
	// descending priority so dependencies precede their dependents.
	Priority int

	Status     Status
	SkipReason string
}

func install(pkg *packages.Package, priority int) Operation {
	return Operation{Kind: Install, Package: pkg, Priority: priority}
}

func skippedInstall(pkg *packages.Package, priority int, reason string) Operation {
	return Operation{
		Kind: Install, Package: pkg, Priority: priority,
		Status: Skipped, SkipReason: reason,
	}
}

func update(previous, pkg *packages.Package, priority int) Operation {
	return Operation{Kind: Update, Package: pkg, Previous: previous, Priority: priority}
}

func uninstall(pkg *packages.Package) Operation {
	return Operation{Kind: Uninstall, Package: pkg}
}

func (o Operation) String() string {
	switch o.Kind {
	case Update:
		return fmt.Sprintf("update %s %s -> %s",
			o.Package.CompleteName(), o.Previous.Version, o.Package.Version)
	default:
		return fmt.Sprintf("%s %s (%s)", o.Kind, o.Package.CompleteName(), o.Package.Version)
	}
}
