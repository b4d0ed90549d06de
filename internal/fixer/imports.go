package fixer

import (
	"bytes"
	"errors"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"path"
	"strconv"
	"strings"

	"golang.org/x/tools/go/ast/astutil"

	"github.com/gnolang/reroll/internal/collapse"
	tt "github.com/gnolang/reroll/internal/types"
)

// ErrImportConflict is returned when an import would take a name another
// import of the file already has.
var ErrImportConflict = errors.New("import name conflict")

// EnsureImports adds the imports src lacks. Each entry is an import path,
// preceded by a local name and a space for a named import, the way a
// collapse plan lists them.
func EnsureImports(src []byte, entries []string) ([]byte, error) {
	if len(entries) == 0 {
		return src, nil
	}

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "", src, parser.ParseComments)
	if err != nil {
		return src, err
	}

	modified := false
	for _, entry := range entries {
		name, importPath := collapse.SplitImport(entry)
		if hasImport(file, name, importPath) {
			continue
		}
		if other := importNamed(file, localName(name, importPath)); other != "" {
			return src, fmt.Errorf("%s %q and %q: %w", localName(name, importPath), importPath, other, ErrImportConflict)
		}
		astutil.AddNamedImport(fset, file, name, importPath)
		modified = true
	}

	if !modified {
		return src, nil
	}

	var buf bytes.Buffer
	if err := format.Node(&buf, fset, file); err != nil {
		return src, err
	}
	return buf.Bytes(), nil
}

// hasImport reports whether file imports importPath under name, or under
// its package name when name is empty.
func hasImport(file *ast.File, name, importPath string) bool {
	for _, imp := range file.Imports {
		p, err := strconv.Unquote(imp.Path.Value)
		if err != nil || p != importPath {
			continue
		}
		if (imp.Name == nil && name == "") || (imp.Name != nil && imp.Name.Name == name) {
			return true
		}
	}
	return false
}

// importNamed returns the path of the import of file that is referred to
// as name, or "".
func importNamed(file *ast.File, name string) string {
	for _, imp := range file.Imports {
		p, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			continue
		}
		local := ""
		if imp.Name != nil {
			local = imp.Name.Name
		}
		if local != "_" && local != "." && localName(local, p) == name {
			return p
		}
	}
	return ""
}

// localName guesses the name an import is referred to by. Without an
// explicit name it is the last path element that is not a major version.
func localName(name, importPath string) string {
	if name != "" {
		return name
	}
	base := path.Base(importPath)
	if isMajorVersion(base) {
		base = path.Base(path.Dir(importPath))
	}
	if i := strings.IndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	return base
}

func isMajorVersion(elem string) bool {
	if len(elem) < 2 || elem[0] != 'v' {
		return false
	}
	_, err := strconv.Atoi(elem[1:])
	return err == nil
}

// CollectRequiredImports gathers the unique import entries of issues in
// order of appearance.
func CollectRequiredImports(issues []tt.Issue) []string {
	seen := make(map[string]bool)
	var imports []string

	for _, issue := range issues {
		for _, imp := range issue.RequiredImports {
			if !seen[imp] {
				seen[imp] = true
				imports = append(imports, imp)
			}
		}
	}

	return imports
}
