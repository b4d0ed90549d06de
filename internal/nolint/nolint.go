// Package nolint resolves //nolint directives to the source ranges they
// silence.
package nolint

import (
	"errors"
	"go/ast"
	"go/token"
	"strings"
)

const nolintPrefix = "//nolint"

var (
	errNotDirective = errors.New("not a nolint directive")
	errNoRules      = errors.New("nolint directive without rules after colon")
)

// Manager answers whether a range of a file is silenced for a rule.
type Manager struct {
	// scopes maps filename to the scopes declared in that file.
	scopes map[string][]scope
}

// scope is a line range silenced for a set of rules. An empty rule set
// silences every rule.
type scope struct {
	rules map[string]struct{}
	start token.Position
	end   token.Position
}

func (s scope) covers(rule string) bool {
	if len(s.rules) == 0 {
		return true
	}
	_, ok := s.rules[rule]
	return ok
}

// ParseComments collects the nolint directives of f.
//
// A directive placed before the package clause silences the whole file.
// A directive at the end of a line silences the statement starting on that
// line. A directive on a line of its own silences the statement or
// declaration on the next line; otherwise it only silences its own line.
//
// Text after a second "//" is an explanation and is ignored:
//
//	//nolint:collapse-into-loop // keeps the register order visible
func ParseComments(f *ast.File, fset *token.FileSet) *Manager {
	m := &Manager{scopes: make(map[string][]scope)}
	stmts := statementsByLine(f, fset)
	packageLine := fset.Position(f.Package).Line

	for _, cg := range f.Comments {
		for _, c := range cg.List {
			s, err := parseDirective(c, f, fset, stmts, packageLine)
			if err != nil {
				continue
			}
			m.scopes[s.start.Filename] = append(m.scopes[s.start.Filename], s)
		}
	}
	return m
}

func parseDirective(
	c *ast.Comment,
	f *ast.File,
	fset *token.FileSet,
	stmts map[int]ast.Stmt,
	packageLine int,
) (scope, error) {
	var s scope

	rest, ok := strings.CutPrefix(c.Text, nolintPrefix)
	if !ok {
		return s, errNotDirective
	}
	if i := strings.Index(rest, "//"); i >= 0 {
		rest = rest[:i]
	}
	rest = strings.TrimRight(rest, " \t")
	switch {
	case rest == "":
	case rest[0] == ':':
		rest = strings.TrimSpace(rest[1:])
		if rest == "" {
			return s, errNoRules
		}
	default:
		// "//nolintfoo" is some other comment
		return s, errNotDirective
	}
	s.rules = parseRuleNames(rest)

	pos := fset.Position(c.Slash)
	if pos.Line < packageLine {
		s.start = fset.Position(f.Pos())
		s.end = fset.Position(f.End())
		return s, nil
	}

	if stmt, ok := stmts[pos.Line]; ok && pos.Offset > fset.Position(stmt.Pos()).Offset {
		s.start = fset.Position(stmt.Pos())
		s.end = fset.Position(stmt.End())
		return s, nil
	}

	if stmt, ok := stmts[pos.Line+1]; ok {
		s.start = pos
		s.end = fset.Position(stmt.End())
		return s, nil
	}

	if decl := declAfterLine(fset, f, pos.Line); decl != nil && fset.Position(decl.Pos()).Line == pos.Line+1 {
		s.start = pos
		s.end = fset.Position(decl.End())
		return s, nil
	}

	s.start = pos
	s.end = pos
	return s, nil
}

func parseRuleNames(text string) map[string]struct{} {
	rules := make(map[string]struct{})
	for _, rule := range strings.Split(text, ",") {
		if rule = strings.TrimSpace(rule); rule != "" {
			rules[rule] = struct{}{}
		}
	}
	return rules
}

// statementsByLine maps each line to the first statement starting on it.
func statementsByLine(f *ast.File, fset *token.FileSet) map[int]ast.Stmt {
	stmts := make(map[int]ast.Stmt)
	ast.Inspect(f, func(n ast.Node) bool {
		stmt, ok := n.(ast.Stmt)
		if !ok {
			return n != nil
		}
		line := fset.Position(stmt.Pos()).Line
		if _, exists := stmts[line]; !exists {
			stmts[line] = stmt
		}
		return true
	})
	return stmts
}

func declAfterLine(fset *token.FileSet, f *ast.File, line int) ast.Decl {
	for _, decl := range f.Decls {
		if fset.Position(decl.Pos()).Line >= line {
			return decl
		}
	}
	return nil
}

// IsNolint reports whether the line of pos is silenced for rule.
func (m *Manager) IsNolint(pos token.Position, rule string) bool {
	return m.IsNolintRange(pos, pos, rule)
}

// IsNolintRange reports whether any line from start to end is silenced for
// rule. A rewrite of a whole statement run is suppressed by a directive on
// any of its statements.
func (m *Manager) IsNolintRange(start, end token.Position, rule string) bool {
	if end.Line < start.Line {
		end = start
	}
	for _, s := range m.scopes[start.Filename] {
		if end.Line < s.start.Line || start.Line > s.end.Line {
			continue
		}
		if s.covers(rule) {
			return true
		}
	}
	return false
}
