package collapse

import (
	"errors"
	"go/ast"
	"go/format"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// apply splices edit into src and formats the result.
func apply(t *testing.T, src []byte, edit *Edit) string {
	t.Helper()
	out := append([]byte(nil), src[:edit.Start.Offset]...)
	out = append(out, edit.NewText...)
	out = append(out, src[edit.End.Offset:]...)
	formatted, err := format.Source(out)
	require.NoError(t, err, "%s", out)
	return string(formatted)
}

func TestCollapseWithTextEditor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		src     string
		newText string
		want    string
	}{
		{
			name: "counting loop",
			src: `package p

func add(int) {}

func target() {
	add(0)
	add(2)
	add(4)
}
`,
			newText: "for i := 0; i < 6; i += 2 {\n\t\tadd(i)\n\t}",
			want: `package p

func add(int) {}

func target() {
	for i := 0; i < 6; i += 2 {
		add(i)
	}
}
`,
		},
		{
			name: "index loop with two statement period",
			src: `package p

var x, y int

func target() {
	x = 1
	y = 1
	x = 1
	y = 1
}
`,
			newText: "for i := 0; i < 2; i++ {\n\t\tx = 1\n\t\ty = 1\n\t}",
			want: `package p

var x, y int

func target() {
	for i := 0; i < 2; i++ {
		x = 1
		y = 1
	}
}
`,
		},
		{
			name: "function values vary",
			src: `package p

func add(int) {}
func mul(int) {}

func target() {
	add(1)
	mul(1)
	add(1)
}
`,
			newText: "for _, fn := range []func(int){add, mul, add} {\n\t\tfn(1)\n\t}",
			want: `package p

func add(int) {}
func mul(int) {}

func target() {
	for _, fn := range []func(int){add, mul, add} {
		fn(1)
	}
}
`,
		},
		{
			name: "element loop keeps the source of each value",
			src: `package p

func say(string) {}

func target() {
	say("a" + "b")
	say("c")
}
`,
			newText: "for _, s := range [...]string{\"a\" + \"b\", \"c\"} {\n\t\tsay(s)\n\t}",
			want: `package p

func say(string) {}

func target() {
	for _, s := range [...]string{"a" + "b", "c"} {
		say(s)
	}
}
`,
		},
		{
			name: "trailing comment of the template stays in the body",
			src: `package p

func add(int) {}
func mul(int) {}

func target() {
	add(1)
	mul(1) // first
	add(2)
	mul(2) // second
}
`,
			newText: "for i := 1; i < 3; i++ {\n\t\tadd(i)\n\t\tmul(i) // first\n\t}",
			want: `package p

func add(int) {}
func mul(int) {}

func target() {
	for i := 1; i < 3; i++ {
		add(i)
		mul(i) // first
	} // second
}
`,
		},
		{
			name: "raw strings keep their lines",
			src: "package p\n\nfunc say(string, int) {}\n\nfunc target() {\n\tsay(`x\ny`, 1)\n\tsay(`x\ny`, 2)\n}\n",
			newText: "for i := 1; i < 3; i++ {\n\t\tsay(`x\ny`, i)\n\t}",
			want: "package p\n\nfunc say(string, int) {}\n\nfunc target() {\n\tfor i := 1; i < 3; i++ {\n\t\tsay(`x\ny`, i)\n\t}\n}\n",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := load(t, tt.src, Options{})
			ed := NewTextEditor(f.fset, f.src)

			require.NoError(t, Collapse(f.all(), f.env, ed))
			edit, err := ed.Commit()
			require.NoError(t, err)

			assert.Equal(t, tt.newText, edit.NewText)
			assert.Equal(t, tt.want, apply(t, f.src, edit))
		})
	}
}

func TestCollapseNotApplicable(t *testing.T) {
	t.Parallel()
	f := load(t, "package p\n\nfunc add(int) {}\nfunc mul(int) {}\n\nfunc target() {\n\tadd(1)\n\tmul(2)\n}\n", Options{})
	ed := NewTextEditor(f.fset, f.src)

	err := Collapse(f.all(), f.env, ed)
	require.ErrorIs(t, err, ErrNotApplicable)

	_, err = ed.Commit()
	assert.ErrorIs(t, err, ErrNoLoop)
}

type mockEditor struct {
	mock.Mock
	calls []string
}

func (m *mockEditor) record(name string) func(mock.Arguments) {
	return func(mock.Arguments) { m.calls = append(m.calls, name) }
}

func (m *mockEditor) BuildLoop(header string) (*Loop, error) {
	args := m.Called(header)
	return args.Get(0).(*Loop), args.Error(1)
}

func (m *mockEditor) ReplaceNode(target ast.Node, replacement string) error {
	return m.Called(target, replacement).Error(0)
}

func (m *mockEditor) MoveRange(nodes []ast.Stmt, into *Loop) error {
	return m.Called(nodes, into).Error(0)
}

func (m *mockEditor) InsertBefore(loop *Loop, anchor ast.Stmt) error {
	return m.Called(loop, anchor).Error(0)
}

func (m *mockEditor) DeleteRange(nodes []ast.Stmt) error {
	return m.Called(nodes).Error(0)
}

func (m *mockEditor) ShortenReferences(loop *Loop) error {
	return m.Called(loop).Error(0)
}

func TestRewriteOrder(t *testing.T) {
	t.Parallel()
	f := load(t, "package p\n\nfunc add(int) {}\n\nfunc target() {\n\tadd(1)\n\tadd(4)\n\tadd(9)\n}\n", Options{})

	m, _ := Detect(f.all(), f.env)
	require.NotNil(t, m)
	plan, err := Synthesize(m, f.env)
	require.NoError(t, err)

	loop := &Loop{}
	ed := new(mockEditor)
	ed.On("BuildLoop", plan.Header).Return(loop, nil).Run(ed.record("build"))
	ed.On("ReplaceNode", plan.Sites[0], "i").Return(nil).Run(ed.record("replace"))
	ed.On("MoveRange", plan.Template, loop).Return(nil).Run(ed.record("move"))
	ed.On("InsertBefore", loop, plan.Statements[0]).Return(nil).Run(ed.record("insert"))
	ed.On("DeleteRange", plan.Statements).Return(nil).Run(ed.record("delete"))
	ed.On("ShortenReferences", loop).Return(nil).Run(ed.record("shorten"))

	require.NoError(t, Rewrite(ed, plan))
	ed.AssertExpectations(t)
	assert.Equal(t, []string{"build", "replace", "move", "insert", "delete", "shorten"}, ed.calls)
}

func TestRewriteStopsAtFirstFailure(t *testing.T) {
	t.Parallel()
	f := load(t, "package p\n\nfunc add(int) {}\n\nfunc target() {\n\tadd(1)\n\tadd(4)\n}\n", Options{})

	m, _ := Detect(f.all(), f.env)
	require.NotNil(t, m)
	plan, err := Synthesize(m, f.env)
	require.NoError(t, err)

	failure := errors.New("boom")
	loop := &Loop{}
	ed := new(mockEditor)
	ed.On("BuildLoop", plan.Header).Return(loop, nil)
	ed.On("ReplaceNode", mock.Anything, mock.Anything).Return(failure)

	err = Rewrite(ed, plan)
	require.ErrorIs(t, err, failure)
	ed.AssertNotCalled(t, "MoveRange", mock.Anything, mock.Anything)
	ed.AssertNotCalled(t, "DeleteRange", mock.Anything)
}

func TestRewriteRejectsStaleSite(t *testing.T) {
	t.Parallel()
	f := load(t, "package p\n\nfunc add(int) {}\n\nfunc target() {\n\tadd(1)\n\tadd(4)\n}\n", Options{})

	m, _ := Detect(f.all(), f.env)
	require.NotNil(t, m)
	plan, err := Synthesize(m, f.env)
	require.NoError(t, err)

	// a site of the second period is not moved into the loop
	plan.Sites = []ast.Expr{m.Values[1]}
	ed := NewTextEditor(f.fset, f.src)
	require.ErrorIs(t, Rewrite(ed, plan), ErrStaleSite)

	_, err = ed.Commit()
	assert.Error(t, err)
}

func TestTextEditor(t *testing.T) {
	t.Parallel()
	f := load(t, "package p\n\nfunc add(int) {}\n\nfunc target() {\n\tadd(1)\n\tadd(4)\n}\n", Options{})

	t.Run("header must be a loop", func(t *testing.T) {
		t.Parallel()
		ed := NewTextEditor(f.fset, f.src)
		_, err := ed.BuildLoop("if x")
		assert.ErrorIs(t, err, ErrNoLoop)
		_, err = ed.BuildLoop("for {")
		assert.ErrorIs(t, err, ErrNoLoop)
	})

	t.Run("overlapping replacements", func(t *testing.T) {
		t.Parallel()
		ed := NewTextEditor(f.fset, f.src)
		call := f.body.List[0].(*ast.ExprStmt).X.(*ast.CallExpr)
		require.NoError(t, ed.ReplaceNode(call.Args[0], "i"))
		assert.ErrorIs(t, ed.ReplaceNode(call, "f()"), ErrOverlap)
	})

	t.Run("loop must take the place of the statements", func(t *testing.T) {
		t.Parallel()
		ed := NewTextEditor(f.fset, f.src)
		loop, err := ed.BuildLoop("for i := 0; i < 2; i++")
		require.NoError(t, err)
		require.NoError(t, ed.MoveRange(f.body.List[:1], loop))
		require.NoError(t, ed.InsertBefore(loop, f.body.List[1]))
		require.NoError(t, ed.DeleteRange(f.body.List))
		_, err = ed.Commit()
		assert.ErrorIs(t, err, ErrOverlap)
	})

	t.Run("source must match the file set", func(t *testing.T) {
		t.Parallel()
		ed := NewTextEditor(f.fset, []byte("package p"))
		assert.Error(t, ed.DeleteRange(f.body.List))
	})
}

func TestTrailingComment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		src  string
		want string
	}{
		{src: "f()\n\tg()", want: ""},
		{src: "f() // one\n\tg()", want: " // one"},
		{src: "f()\t/* one */ // two\n", want: "\t/* one */ // two"},
		{src: "f() /* one */\n", want: " /* one */"},
		{src: "f() /* one */ g()\n", want: ""},
		{src: "f() /* one\n */\n", want: ""},
		{src: "f(); g()\n", want: ""},
		{src: "f() // last", want: " // last"},
	}
	for _, tc := range tests {
		ed := NewTextEditor(nil, []byte(tc.src))
		end := ed.trailingComment(len("f()"))
		assert.Equal(t, tc.want, tc.src[len("f()"):end], "%q", tc.src)
	}
}
