package types

import (
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	gotypes "go/types"
	"os"

	"golang.org/x/tools/go/analysis"
)

// RunAnalyzer type-checks code as a single file package, runs analyzer on
// it and returns its diagnostics as issues. The text of the first
// suggested fix of a diagnostic becomes the suggestion of the issue.
func RunAnalyzer(code string, analyzer *analysis.Analyzer) ([]Issue, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "test.go", code, parser.ParseComments)
	if err != nil {
		return nil, err
	}

	info := &gotypes.Info{
		Types:        make(map[ast.Expr]gotypes.TypeAndValue),
		Defs:         make(map[*ast.Ident]gotypes.Object),
		Uses:         make(map[*ast.Ident]gotypes.Object),
		Implicits:    make(map[ast.Node]gotypes.Object),
		Scopes:       make(map[ast.Node]*gotypes.Scope),
		Selections:   make(map[*ast.SelectorExpr]*gotypes.Selection),
		FileVersions: make(map[*ast.File]string),
	}
	sizes := gotypes.SizesFor("gc", "amd64")
	conf := gotypes.Config{
		Importer: importer.Default(),
		Sizes:    sizes,
		Error:    func(error) {},
	}
	pkg, _ := conf.Check(file.Name.Name, fset, []*ast.File{file}, info)

	var issues []Issue
	pass := &analysis.Pass{
		Analyzer:   analyzer,
		Fset:       fset,
		Files:      []*ast.File{file},
		Pkg:        pkg,
		TypesInfo:  info,
		TypesSizes: sizes,
		ResultOf:   make(map[*analysis.Analyzer]any),
		ReadFile: func(filename string) ([]byte, error) {
			if filename == "test.go" {
				return []byte(code), nil
			}
			return os.ReadFile(filename)
		},
		Report: func(d analysis.Diagnostic) {
			issue := Issue{
				Rule:     analyzer.Name,
				Category: d.Category,
				Filename: "test.go",
				Message:  d.Message,
				Start:    fset.Position(d.Pos),
				End:      fset.Position(d.End),
			}
			if len(d.SuggestedFixes) > 0 && len(d.SuggestedFixes[0].TextEdits) > 0 {
				issue.Suggestion = string(d.SuggestedFixes[0].TextEdits[0].NewText)
			}
			issues = append(issues, issue)
		},
	}

	_, err = analyzer.Run(pass)
	if err != nil {
		return nil, err
	}

	return issues, nil
}
