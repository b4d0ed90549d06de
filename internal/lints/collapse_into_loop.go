package lints

import (
	"fmt"
	"go/ast"
	"go/token"

	"github.com/gnolang/reroll/internal/collapse"
	"github.com/gnolang/reroll/internal/loader"
	tt "github.com/gnolang/reroll/internal/types"
)

const CollapseIntoLoopRule = "collapse-into-loop"

// confidence of the suggested loop, by shape.
const (
	indexLoopConfidence    = 0.95
	countingLoopConfidence = 0.9
	elementLoopConfidence  = 0.8
)

// DetectCollapsibleRuns reports statement runs that repeat one block of
// statements and can be rewritten as a single loop:
//
//	list = append(list, 0)
//	list = append(list, 2)
//	list = append(list, 4)
//
// ->   for i := 0; i < 6; i += 2 {
//	    list = append(list, i)
//	}
//
// Every statement list of the file (blocks, case and select clauses) is
// scanned from its first statement. At each position the longest run
// accepted by collapse.Detect wins and the scan continues after it, so
// runs never overlap. Statement lists nested inside a reported run are not
// scanned again.
//
// Generated files are skipped. The language version of the file, when
// known, takes precedence over opts.GoVersion.
//
// The suggestion replaces the whole run and already carries the loop body
// with the varying value substituted. Its confidence depends on the loop
// shape:
//
//   - index loops repeat identical statements and are always equivalent
//   - counting loops substitute integer constants
//   - element loops evaluate every value before the first iteration, which
//     changes the order of side effects of the values
func DetectCollapsibleRuns(unit *loader.Unit, opts collapse.Options, severity tt.Severity) ([]tt.Issue, error) {
	if ast.IsGenerated(unit.File) {
		return nil, nil
	}
	if unit.GoVersion != "" {
		opts.GoVersion = unit.GoVersion
	}
	env := collapse.NewEnv(unit.Fset, unit.Src, unit.File, unit.Pkg, unit.Info, unit.Sizes, opts)

	var (
		issues   []tt.Issue
		reported []ast.Node
	)
	ast.Inspect(unit.File, func(n ast.Node) bool {
		if n == nil {
			return false
		}
		for _, r := range reported {
			if n.Pos() >= r.Pos() && n.End() <= r.End() {
				return false
			}
		}

		var list []ast.Stmt
		switch x := n.(type) {
		case *ast.BlockStmt:
			list = x.List
		case *ast.CaseClause:
			list = x.Body
		case *ast.CommClause:
			list = x.Body
		default:
			return true
		}

		for i := 0; i < len(list)-1; {
			issue, size, ok := longestRun(unit, env, n, list[i:], severity)
			if !ok {
				i++
				continue
			}
			issues = append(issues, issue)
			reported = append(reported, runNode{list[i], list[i+size-1]})
			i += size
		}
		return true
	})

	return issues, nil
}

// runNode spans a run of statements.
type runNode struct {
	first, last ast.Stmt
}

func (r runNode) Pos() token.Pos { return r.first.Pos() }
func (r runNode) End() token.Pos { return r.last.End() }

// longestRun tries the runs starting at stmts[0], longest first.
func longestRun(unit *loader.Unit, env *collapse.Env, parent ast.Node, stmts []ast.Stmt, severity tt.Severity) (tt.Issue, int, bool) {
	longest := len(stmts)
	if longest > collapse.MaxRunLength {
		longest = collapse.MaxRunLength
	}
	for size := longest; size >= 2; size-- {
		run := collapse.Run{Stmts: stmts[:size], Parent: parent}
		m, _ := collapse.Detect(run, env)
		if m == nil {
			continue
		}
		issue, err := buildIssue(unit, env, m, severity)
		if err != nil {
			continue
		}
		return issue, size, true
	}
	return tt.Issue{}, 0, false
}

func buildIssue(unit *loader.Unit, env *collapse.Env, m *collapse.Model, severity tt.Severity) (tt.Issue, error) {
	plan, err := collapse.Synthesize(m, env)
	if err != nil {
		return tt.Issue{}, err
	}
	ed := collapse.NewTextEditor(unit.Fset, unit.Src)
	if err := collapse.Rewrite(ed, plan); err != nil {
		return tt.Issue{}, err
	}
	edit, err := ed.Commit()
	if err != nil {
		return tt.Issue{}, err
	}

	issue := tt.Issue{
		Rule:            CollapseIntoLoopRule,
		Category:        "style",
		Filename:        unit.Filename,
		Start:           edit.Start,
		End:             edit.End,
		Severity:        severity,
		Suggestion:      edit.NewText,
		RequiredImports: edit.Imports,
	}

	switch s := plan.Strategy.(type) {
	case collapse.IndexLoop:
		issue.Message = fmt.Sprintf("%s repeated %d times can be collapsed into a loop", statements(m.Period), s.N)
		issue.Confidence = indexLoopConfidence
	case collapse.CountingLoop:
		issue.Message = fmt.Sprintf("%s repeated over %s..%s can be collapsed into a counting loop",
			statements(m.Period), s.Progression.Start.ExactString(), s.Progression.Last.ExactString())
		issue.Confidence = countingLoopConfidence
	case collapse.ElementLoop:
		issue.Message = fmt.Sprintf("%s repeated for %d values can be collapsed into a range loop", statements(m.Period), m.Repetitions())
		issue.Confidence = elementLoopConfidence
		issue.Note = "the loop evaluates all values before its first iteration"
	}
	return issue, nil
}

func statements(n int) string {
	if n == 1 {
		return "statement"
	}
	return fmt.Sprintf("block of %d statements", n)
}
