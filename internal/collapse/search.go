package collapse

import "fmt"

// Detect searches the smallest period that decomposes run into repetitions
// of one template. It returns the model of the first accepted period, or
// nil and the reason no period was accepted.
//
// Candidate periods are the divisors of the run length up to half of it,
// tried in ascending order. The search is deterministic.
func Detect(run Run, env *Env) (*Model, Reason) {
	n := run.Len()
	if n <= 1 || n > MaxRunLength || !sequentialList(run.Parent) {
		return nil, ReasonBoundary
	}
	if !branchesStayInside(run.Stmts) {
		return nil, ReasonControlFlow
	}
	if !declarationsStayInside(run, env) {
		return nil, ReasonEscapingDecl
	}

	reason := ReasonStructuralMismatch
	for count := 1; count <= n/2; count++ {
		if n%count != 0 {
			continue
		}
		if limit := env.Options.MaxPeriodLen; limit > 0 && count > limit {
			break
		}

		m, r := matchPeriod(run.Stmts, count, env)
		if m == nil {
			reason = prefer(reason, r)
			continue
		}
		if m.Repetitions() < env.Options.minPeriods() {
			reason = prefer(reason, ReasonTooFewPeriods)
			continue
		}
		if !env.Options.perIterationLoopVars() && sitesInClosures(m.Template(), m.Sites) {
			reason = prefer(reason, ReasonLoopCapture)
			continue
		}
		return m, ReasonNone
	}
	return nil, reason
}

// prefer keeps the more specific of two rejection reasons.
func prefer(current, next Reason) Reason {
	rank := func(r Reason) int {
		switch r {
		case ReasonLoopCapture:
			return 4
		case ReasonScope:
			return 3
		case ReasonTypeInference:
			return 2
		case ReasonTooFewPeriods:
			return 1
		default:
			return 0
		}
	}
	if rank(next) > rank(current) {
		return next
	}
	return current
}

// Available reports whether run can be collapsed into a loop.
func Available(run Run, env *Env) bool {
	m, _ := Detect(run, env)
	if m == nil {
		return false
	}
	_, err := Synthesize(m, env)
	return err == nil
}

// Collapse rebuilds run as a loop through ed. The model is derived from
// scratch, so run and env must describe the tree ed edits.
func Collapse(run Run, env *Env, ed Editor) error {
	m, reason := Detect(run, env)
	if m == nil {
		return fmt.Errorf("%w: %s", ErrNotApplicable, reason)
	}
	plan, err := Synthesize(m, env)
	if err != nil {
		return err
	}
	return Rewrite(ed, plan)
}
