// Package selection maps a range of source text to the statement run it
// covers.
package selection

import (
	"fmt"
	"go/ast"
	"go/token"

	"github.com/gnolang/reroll/internal/collapse"
)

// StatementsInRange returns the statements of one statement list that the
// range [start, end) covers exactly. Leading and trailing blanks of the
// range are ignored, and the text between the statements may only hold
// blanks, semicolons and comments.
//
// The result is an empty run whenever the range cuts through a statement,
// spans several statement lists or covers anything but statements.
func StatementsInRange(file *ast.File, fset *token.FileSet, src []byte, start, end token.Pos) collapse.Run {
	tf := fset.File(file.Pos())
	if tf == nil || tf.Size() != len(src) || !start.IsValid() || !end.IsValid() || start > end {
		return collapse.Run{}
	}
	base := tf.Base()
	s, e := int(start)-base, int(end)-base
	if s < 0 || e > len(src) {
		return collapse.Run{}
	}
	for s < e && isBlank(src[s]) {
		s++
	}
	for e > s && isBlank(src[e-1]) {
		e--
	}
	if s == e {
		return collapse.Run{}
	}

	var (
		parent ast.Node
		list   []ast.Stmt
	)
	ast.Inspect(file, func(n ast.Node) bool {
		from, to, stmts, ok := statementList(n)
		if !ok {
			return true
		}
		if tf.Offset(from) <= s && e <= tf.Offset(to) {
			parent, list = n, stmts
		}
		return true
	})
	if parent == nil {
		return collapse.Run{}
	}

	var covered []ast.Stmt
	for _, stmt := range list {
		from, to := tf.Offset(stmt.Pos()), tf.Offset(stmt.End())
		switch {
		case from >= s && to <= e:
			covered = append(covered, stmt)
		case from < e && to > s:
			return collapse.Run{}
		}
	}
	if len(covered) == 0 {
		return collapse.Run{}
	}

	pos := s
	for _, stmt := range covered {
		from := tf.Offset(stmt.Pos())
		if !onlyTrivia(src[pos:from]) {
			return collapse.Run{}
		}
		pos = tf.Offset(stmt.End())
	}
	if !onlyTrivia(src[pos:e]) {
		return collapse.Run{}
	}
	return collapse.Run{Stmts: covered, Parent: parent}
}

// statementList returns the statement list owned by n and the positions
// enclosing it.
func statementList(n ast.Node) (from, to token.Pos, list []ast.Stmt, ok bool) {
	switch x := n.(type) {
	case *ast.BlockStmt:
		if !x.Lbrace.IsValid() || !x.Rbrace.IsValid() {
			return 0, 0, nil, false
		}
		return x.Lbrace + 1, x.Rbrace, x.List, true
	case *ast.CaseClause:
		return x.Colon + 1, x.End(), x.Body, true
	case *ast.CommClause:
		return x.Colon + 1, x.End(), x.Body, true
	default:
		return 0, 0, nil, false
	}
}

// LineRange returns the range covering the lines from through to of the
// file, both 1-based and inclusive.
func LineRange(tf *token.File, from, to int) (start, end token.Pos, err error) {
	if from < 1 || to < from || to > tf.LineCount() {
		return token.NoPos, token.NoPos, fmt.Errorf("lines %d:%d out of range 1:%d", from, to, tf.LineCount())
	}
	start = tf.LineStart(from)
	if to == tf.LineCount() {
		end = tf.Pos(tf.Size())
	} else {
		end = tf.LineStart(to + 1)
	}
	return start, end, nil
}

// OffsetRange returns the range of the byte offsets [from, to) of the file.
func OffsetRange(tf *token.File, from, to int) (start, end token.Pos, err error) {
	if from < 0 || to < from || to > tf.Size() {
		return token.NoPos, token.NoPos, fmt.Errorf("offsets %d:%d out of range 0:%d", from, to, tf.Size())
	}
	return tf.Pos(from), tf.Pos(to), nil
}

func isBlank(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// onlyTrivia reports whether b holds nothing but blanks, semicolons and
// comments.
func onlyTrivia(b []byte) bool {
	for i := 0; i < len(b); {
		switch {
		case isBlank(b[i]) || b[i] == ';':
			i++
		case i+1 < len(b) && b[i] == '/' && b[i+1] == '/':
			for i < len(b) && b[i] != '\n' {
				i++
			}
		case i+1 < len(b) && b[i] == '/' && b[i+1] == '*':
			j := i + 2
			for j+1 < len(b) && !(b[j] == '*' && b[j+1] == '/') {
				j++
			}
			if j+1 >= len(b) {
				return false
			}
			i = j + 2
		default:
			return false
		}
	}
	return true
}
