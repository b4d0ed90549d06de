package collapse

import (
	"go/types"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeNameCandidates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want []string
	}{
		{name: "Point", want: []string{"point", "p", "v"}},
		{name: "point", want: []string{"point", "p", "v"}},
		{name: "HTTPClient", want: []string{"httpClient", "h", "v"}},
		{name: "URL", want: []string{"url", "u", "v"}},
		{name: "T", want: []string{"t", "v"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, typeNameCandidates(tt.name), tt.name)
	}
}

func TestNameCandidates(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"i", "j", "k"}, nameCandidates(NameIndex, types.Typ[types.String]))
	assert.Equal(t, []string{"s", "str"}, nameCandidates(NameElement, types.Typ[types.String]))
	assert.Equal(t, []string{"f", "x"}, nameCandidates(NameElement, types.Typ[types.Float64]))
	assert.Equal(t, []string{"b", "ok"}, nameCandidates(NameElement, types.Typ[types.Bool]))
	assert.Equal(t, []string{"r", "c"}, nameCandidates(NameElement, types.Universe.Lookup("rune").Type()))
	assert.Equal(t, []string{"v", "e"}, nameCandidates(NameElement, types.NewSlice(types.Typ[types.Int])))
}

func TestScopeNamesUnusedName(t *testing.T) {
	t.Parallel()
	src := `package p

var s string

func say(string) {}

func target() {
	str := "x"
	say(str)
	say("a")
	say("b")
}
`
	f := load(t, src, Options{})
	run := f.run(2, 4)
	at := Insertion{Pos: run.Stmts[0].Pos(), Body: run.Stmts}

	names := &ScopeNames{Pkg: f.env.Pkg}
	assert.Equal(t, "s1", names.UnusedName(NameElement, types.Typ[types.String], at))
	assert.Equal(t, "i", names.UnusedName(NameIndex, nil, at))

	// without type information every identifier of the file is taken
	untyped := &ScopeNames{File: f.file}
	assert.Equal(t, "s1", untyped.UnusedName(NameElement, types.Typ[types.String], at))
}
