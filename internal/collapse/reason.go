package collapse

import "errors"

// Reason explains why Detect did or did not produce a model.
type Reason int

const (
	// ReasonNone means a model was produced.
	ReasonNone Reason = iota
	// ReasonBoundary means the run is empty, a single statement, longer than
	// MaxRunLength, or not part of a sequential statement list.
	ReasonBoundary
	// ReasonStructuralMismatch means no period decomposes the run.
	ReasonStructuralMismatch
	// ReasonTypeInference means a varying value was found but no variable
	// type could be inferred for it.
	ReasonTypeInference
	// ReasonControlFlow means a branch statement would change its target
	// once the run is wrapped in a loop.
	ReasonControlFlow
	// ReasonEscapingDecl means a name declared by the run is used after it.
	ReasonEscapingDecl
	// ReasonLoopCapture means a closure would capture a loop variable that
	// is shared between iterations.
	ReasonLoopCapture
	// ReasonTooFewPeriods means the run repeats fewer times than required.
	ReasonTooFewPeriods
	// ReasonScope means a varying value refers to a name that denotes
	// something else, or nothing, before the run.
	ReasonScope
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonBoundary:
		return "statement run out of bounds"
	case ReasonStructuralMismatch:
		return "statements do not repeat"
	case ReasonTypeInference:
		return "cannot infer the type of the varying value"
	case ReasonControlFlow:
		return "branch statement would change target"
	case ReasonEscapingDecl:
		return "declaration is used after the statements"
	case ReasonLoopCapture:
		return "closure would capture a shared loop variable"
	case ReasonTooFewPeriods:
		return "too few repetitions"
	case ReasonScope:
		return "value refers to a name declared by the statements"
	default:
		return "unknown"
	}
}

var (
	// ErrStaleSite is returned when a substitution site is not part of the
	// statements moved into the loop body.
	ErrStaleSite = errors.New("substitution site outside of the loop body")
	// ErrOverlap is returned when two edits overlap.
	ErrOverlap = errors.New("overlapping edits")
	// ErrNoLoop is returned when a loop header does not parse as a loop.
	ErrNoLoop = errors.New("header is not a loop")
)

// ErrNotApplicable is returned by Collapse when Detect finds no model.
var ErrNotApplicable = errors.New("statements cannot be collapsed into a loop")
