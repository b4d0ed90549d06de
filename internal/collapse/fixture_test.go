package collapse

import (
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"testing"

	"github.com/stretchr/testify/require"
)

type fixture struct {
	fset *token.FileSet
	src  []byte
	file *ast.File
	body *ast.BlockStmt
	env  *Env
}

// load parses and type-checks src and returns the body of its target
// function.
func load(t *testing.T, src string, opts Options) *fixture {
	t.Helper()

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "fixture.go", src, parser.ParseComments)
	require.NoError(t, err)

	info := &types.Info{
		Types: make(map[ast.Expr]types.TypeAndValue),
		Defs:  make(map[*ast.Ident]types.Object),
		Uses:  make(map[*ast.Ident]types.Object),
	}
	conf := types.Config{
		Importer: importer.Default(),
		Error:    func(error) {},
	}
	pkg, _ := conf.Check("example.com/fixture", fset, []*ast.File{file}, info)

	var body *ast.BlockStmt
	for _, decl := range file.Decls {
		if fn, ok := decl.(*ast.FuncDecl); ok && fn.Name.Name == "target" {
			body = fn.Body
		}
	}
	require.NotNil(t, body, "fixture has no target function")

	return &fixture{
		fset: fset,
		src:  []byte(src),
		file: file,
		body: body,
		env:  NewEnv(fset, []byte(src), file, pkg, info, nil, opts),
	}
}

// run returns the statements [from, to) of the target body.
func (f *fixture) run(from, to int) Run {
	return Run{Stmts: f.body.List[from:to], Parent: f.body}
}

func (f *fixture) all() Run {
	return f.run(0, len(f.body.List))
}

func exprStrings(exprs []ast.Expr) []string {
	out := make([]string, len(exprs))
	for i, e := range exprs {
		out[i] = types.ExprString(e)
	}
	return out
}
