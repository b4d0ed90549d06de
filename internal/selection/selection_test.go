package selection

import (
	"go/ast"
	"go/parser"
	"go/token"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const source = `package p

func add(int) {}

func target(x int) {
	add(1)
	add(2) // two
	/* three */ add(3)

	switch x {
	case 1:
		add(4)
		add(5)
	}
	if x > 0 {
		add(6)
	}
}
`

func parse(t *testing.T) (*token.FileSet, *ast.File, *token.File) {
	t.Helper()
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "p.go", source, parser.ParseComments)
	require.NoError(t, err)
	return fset, file, fset.File(file.Pos())
}

// between returns the range from the first occurrence of from to the end of
// the first following occurrence of to.
func between(t *testing.T, tf *token.File, from, to string) (token.Pos, token.Pos) {
	t.Helper()
	s := strings.Index(source, from)
	require.GreaterOrEqual(t, s, 0, from)
	e := strings.Index(source[s:], to)
	require.GreaterOrEqual(t, e, 0, to)
	return tf.Pos(s), tf.Pos(s + e + len(to))
}

func TestStatementsInRange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		from   string
		to     string
		want   []string
		parent string
	}{
		{name: "whole statements", from: "add(1)", to: "add(2)", want: []string{"add(1)", "add(2)"}, parent: "block"},
		{name: "blanks around the range", from: "\n\tadd(1)", to: "add(2) // two\n", want: []string{"add(1)", "add(2)"}, parent: "block"},
		{name: "comments between statements", from: "add(2)", to: "add(3)", want: []string{"add(2)", "add(3)"}, parent: "block"},
		{name: "case clause body", from: "add(4)", to: "add(5)", want: []string{"add(4)", "add(5)"}, parent: "case"},
		{name: "nested block", from: "add(6)", to: "add(6)", want: []string{"add(6)"}, parent: "block"},
		{name: "partial statement", from: "add(1)", to: "add(", want: nil},
		{name: "inside an expression", from: "1)", to: "1", want: nil},
		{name: "across statement lists", from: "add(5)", to: "add(6)", want: nil},
		{name: "range cuts the switch", from: "add(3)", to: "case 1:", want: nil},
		{name: "only blanks", from: "\n\n\tswitch", to: "\n", want: nil},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fset, file, tf := parse(t)
			start, end := between(t, tf, tt.from, tt.to)

			run := StatementsInRange(file, fset, []byte(source), start, end)
			if tt.want == nil {
				assert.Empty(t, run.Stmts)
				assert.Nil(t, run.Parent)
				return
			}

			got := make([]string, len(run.Stmts))
			for i, stmt := range run.Stmts {
				got[i] = source[tf.Offset(stmt.Pos()):tf.Offset(stmt.End())]
			}
			assert.Equal(t, tt.want, got)
			switch tt.parent {
			case "block":
				assert.IsType(t, &ast.BlockStmt{}, run.Parent)
			case "case":
				assert.IsType(t, &ast.CaseClause{}, run.Parent)
			}
		})
	}
}

func TestStatementsInRangeRejectsForeignSource(t *testing.T) {
	t.Parallel()
	fset, file, tf := parse(t)

	run := StatementsInRange(file, fset, []byte("package p"), tf.Pos(0), tf.Pos(9))
	assert.Empty(t, run.Stmts)
}

func TestLineRange(t *testing.T) {
	t.Parallel()
	fset, file, tf := parse(t)

	start, end, err := LineRange(tf, 6, 7)
	require.NoError(t, err)
	run := StatementsInRange(file, fset, []byte(source), start, end)
	require.Len(t, run.Stmts, 2)

	_, _, err = LineRange(tf, 0, 1)
	assert.Error(t, err)
	_, _, err = LineRange(tf, 3, 2)
	assert.Error(t, err)
	_, _, err = LineRange(tf, 1, tf.LineCount()+1)
	assert.Error(t, err)

	_, end, err = LineRange(tf, 1, tf.LineCount())
	require.NoError(t, err)
	assert.Equal(t, tf.Pos(tf.Size()), end)
}

func TestOffsetRange(t *testing.T) {
	t.Parallel()
	_, _, tf := parse(t)

	start, end, err := OffsetRange(tf, 0, 7)
	require.NoError(t, err)
	assert.Equal(t, tf.Pos(0), start)
	assert.Equal(t, tf.Pos(7), end)

	_, _, err = OffsetRange(tf, 5, tf.Size()+1)
	assert.Error(t, err)
}

func TestOnlyTrivia(t *testing.T) {
	t.Parallel()

	assert.True(t, onlyTrivia([]byte(" ;\n\t// note\n/* block */ ")))
	assert.False(t, onlyTrivia([]byte("/* open")))
	assert.False(t, onlyTrivia([]byte("x")))
}
