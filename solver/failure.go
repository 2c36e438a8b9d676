package solver

import (
	"fmt"
	"strings"
)

// SolveFailure is the terminal unsatisfiability error. It carries the
// root-cause incompatibility; Error renders the full derivation chain
// that proves no valid assignment exists.
type SolveFailure struct {
	incompatibility *Incompatibility
}

// NewSolveFailure wraps the root-cause incompatibility of a failed solve.
func NewSolveFailure(in *Incompatibility) *SolveFailure {
	return &SolveFailure{incompatibility: in}
}

// Incompatibility returns the root cause, whose ConflictCause tree is the
// minimal proof of unsatisfiability.
func (f *SolveFailure) Incompatibility() *Incompatibility {
	return f.incompatibility
}

func (f *SolveFailure) Error() string {
	return newFailureWriter(f.incompatibility).write()
}

// failureWriter renders a derivation tree as numbered prose, in the
// manner introduced by pub's version solver: shared derivations get line
// numbers so later steps can refer back to them instead of repeating the
// whole subtree.
type failureWriter struct {
	root *Incompatibility

	// derivations counts how often each incompatibility appears in the
	// tree; anything used more than once gets a line number.
	derivations map[*Incompatibility]int
	lines       []failureLine
	lineNumbers map[*Incompatibility]int
}

type failureLine struct {
	message string
	number  int // 0 means unnumbered
}

func newFailureWriter(root *Incompatibility) *failureWriter {
	w := &failureWriter{
		root:        root,
		derivations: make(map[*Incompatibility]int),
		lineNumbers: make(map[*Incompatibility]int),
	}
	w.countDerivations(root)
	return w
}

func (w *failureWriter) countDerivations(in *Incompatibility) {
	if _, seen := w.derivations[in]; seen {
		w.derivations[in]++
		return
	}
	w.derivations[in] = 1
	if cause, ok := in.Cause().(ConflictCause); ok {
		w.countDerivations(cause.Conflict)
		w.countDerivations(cause.Other)
	}
}

func (w *failureWriter) write() string {
	if _, derived := w.root.Cause().(ConflictCause); derived {
		w.visit(w.root, false)
	} else {
		w.writeLine(w.root, fmt.Sprintf("Because %s, version solving failed.", w.root), false)
	}

	padding := 0
	if len(w.lineNumbers) > 0 {
		maxNumber := 0
		for _, n := range w.lineNumbers {
			if n > maxNumber {
				maxNumber = n
			}
		}
		padding = len(fmt.Sprintf("(%d) ", maxNumber))
	}

	var b strings.Builder
	lastEmpty := false
	for _, line := range w.lines {
		if line.message == "" {
			if !lastEmpty {
				b.WriteString("\n")
			}
			lastEmpty = true
			continue
		}
		lastEmpty = false

		lead := strings.Repeat(" ", padding)
		if line.number > 0 {
			num := fmt.Sprintf("(%d) ", line.number)
			lead = num + strings.Repeat(" ", padding-len(num))
		}
		b.WriteString(lead + line.message + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (w *failureWriter) writeLine(in *Incompatibility, message string, numbered bool) {
	number := 0
	if numbered {
		number = len(w.lineNumbers) + 1
		w.lineNumbers[in] = number
	}
	w.lines = append(w.lines, failureLine{message: message, number: number})
}

// visit renders one derived incompatibility after rendering whatever of
// its cause tree has not been shown yet.
func (w *failureWriter) visit(in *Incompatibility, conclusion bool) {
	numbered := conclusion || w.derivations[in] > 1
	conjunction := "Because"
	if conclusion || in == w.root {
		conjunction = "So,"
	}

	cause, ok := in.Cause().(ConflictCause)
	if !ok {
		panic("canary - visiting an external incompatibility in the failure writer")
	}

	_, conflictDerived := cause.Conflict.Cause().(ConflictCause)
	_, otherDerived := cause.Other.Cause().(ConflictCause)

	switch {
	case conflictDerived && otherDerived:
		conflictLine := w.lineNumbers[cause.Conflict]
		otherLine := w.lineNumbers[cause.Other]

		switch {
		case conflictLine > 0 && otherLine > 0:
			w.writeLine(in, fmt.Sprintf("%s because %s, %s.",
				conjunction,
				cause.Conflict.andToString(cause.Other, conflictLine, otherLine),
				in), numbered)

		case conflictLine > 0 || otherLine > 0:
			withLine, withoutLine, line := cause.Conflict, cause.Other, conflictLine
			if otherLine > 0 {
				withLine, withoutLine, line = cause.Other, cause.Conflict, otherLine
			}
			w.visit(withoutLine, false)
			w.writeLine(in, fmt.Sprintf("%s because %s (%d), %s.",
				conjunction, withLine, line, in), numbered)

		default:
			singleConflict := w.isSingleLine(cause.Conflict)
			singleOther := w.isSingleLine(cause.Other)
			if singleConflict || singleOther {
				first, second := cause.Conflict, cause.Other
				if singleOther {
					first, second = cause.Other, cause.Conflict
				}
				w.visit(first, false)
				w.visit(second, false)
				w.writeLine(in, fmt.Sprintf("Thus, %s.", in), numbered)
			} else {
				w.visit(cause.Conflict, true)
				w.lines = append(w.lines, failureLine{})
				w.visit(cause.Other, false)
				w.writeLine(in, fmt.Sprintf("%s because %s (%d), %s.",
					conjunction, cause.Conflict, w.lineNumbers[cause.Conflict], in),
					numbered)
			}
		}

	case conflictDerived || otherDerived:
		derived, external := cause.Conflict, cause.Other
		if otherDerived {
			derived, external = cause.Other, cause.Conflict
		}

		if line := w.lineNumbers[derived]; line > 0 {
			w.writeLine(in, fmt.Sprintf("%s because %s and %s (%d), %s.",
				conjunction, external, derived, line, in), numbered)
		} else if w.isCollapsible(derived) {
			derivedCause := derived.Cause().(ConflictCause)
			collapsedDerived, collapsedExternal := derivedCause.Conflict, derivedCause.Other
			if _, ok := derivedCause.Other.Cause().(ConflictCause); ok {
				collapsedDerived, collapsedExternal = derivedCause.Other, derivedCause.Conflict
			}
			w.visit(collapsedDerived, false)
			w.writeLine(in, fmt.Sprintf("%s because %s and %s, %s.",
				conjunction, collapsedExternal, external, in), numbered)
		} else {
			w.visit(derived, false)
			w.writeLine(in, fmt.Sprintf("%s because %s, %s.",
				conjunction, external, in), numbered)
		}

	default:
		w.writeLine(in, fmt.Sprintf("%s because %s and %s, %s.",
			conjunction, cause.Conflict, cause.Other, in), numbered)
	}
}

// isCollapsible reports whether a derived incompatibility can be folded
// into its parent's sentence: it is referenced once, exactly one of its
// causes is itself derived, and that cause has no line of its own.
func (w *failureWriter) isCollapsible(in *Incompatibility) bool {
	if w.derivations[in] > 1 {
		return false
	}
	cause, ok := in.Cause().(ConflictCause)
	if !ok {
		return false
	}

	_, conflictDerived := cause.Conflict.Cause().(ConflictCause)
	_, otherDerived := cause.Other.Cause().(ConflictCause)
	if conflictDerived == otherDerived {
		return false
	}

	complex := cause.Conflict
	if otherDerived {
		complex = cause.Other
	}
	_, hasLine := w.lineNumbers[complex]
	return !hasLine
}

// isSingleLine reports whether a conflict renders as a single sentence,
// i.e. neither of its causes is itself derived.
func (w *failureWriter) isSingleLine(in *Incompatibility) bool {
	cause, ok := in.Cause().(ConflictCause)
	if !ok {
		return false
	}
	_, conflictDerived := cause.Conflict.Cause().(ConflictCause)
	_, otherDerived := cause.Other.Cause().(ConflictCause)
	return !conflictDerived && !otherDerived
}
