package collapse

import (
	"errors"
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"path"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// ErrNameConflict is returned when a package cannot be referred to by a
// free name where the loop is inserted.
var ErrNameConflict = errors.New("package name is taken")

// importQualifier renders package qualifiers the way the file refers to
// them and remembers the packages the file does not import yet.
type importQualifier struct {
	pkg      *types.Package
	scope    *types.Scope // innermost scope at pos; nil without type information
	pos      token.Pos
	names    map[string]string         // import path -> local name
	imported map[string]*types.Package // import path -> package, for the file's imports
	missing  []string
	current  types.Type
	err      error
}

func newImportQualifier(pkg *types.Package, file *ast.File, pos token.Pos) *importQualifier {
	q := &importQualifier{
		pkg:      pkg,
		pos:      pos,
		names:    make(map[string]string),
		imported: make(map[string]*types.Package),
	}
	if pkg != nil {
		q.scope = pkg.Scope().Innermost(pos)
	}
	if file == nil {
		return q
	}

	deps := make(map[string]*types.Package)
	if pkg != nil {
		for _, dep := range pkg.Imports() {
			deps[dep.Path()] = dep
		}
	}
	for _, spec := range file.Imports {
		p, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			continue
		}
		switch {
		case spec.Name == nil:
			q.names[p] = ""
		case spec.Name.Name == "_":
			continue
		default:
			q.names[p] = spec.Name.Name
		}
		if dep, ok := deps[p]; ok {
			q.imported[p] = dep
		}
	}
	return q
}

func (q *importQualifier) qualify(p *types.Package) string {
	if q.pkg != nil && p.Path() == q.pkg.Path() {
		return ""
	}
	if _, ok := q.names[p.Path()]; !ok {
		if name, ok := q.reexport(p); ok {
			return name
		}
		q.addImport(p)
	}

	name := q.localName(p.Path(), p.Name())
	if name == "." {
		return ""
	}
	if !q.resolves(name, p.Path()) {
		q.fail(fmt.Errorf("%s of %q is shadowed: %w", name, p.Path(), ErrNameConflict))
	}
	return name
}

// localName returns the name the file refers to the package at importPath by.
func (q *importQualifier) localName(importPath, pkgName string) string {
	name := q.names[importPath]
	switch {
	case name != "":
		return name
	case pkgName != "":
		return pkgName
	default:
		return path.Base(importPath)
	}
}

// resolves reports whether name denotes the import of importPath at the
// insertion point. Imports added by q always resolve.
func (q *importQualifier) resolves(name, importPath string) bool {
	if q.scope == nil {
		return true
	}
	_, obj := q.scope.LookupParent(name, q.pos)
	if obj == nil {
		return q.isMissing(importPath)
	}
	pkgName, ok := obj.(*types.PkgName)
	return ok && pkgName.Imported().Path() == importPath
}

func (q *importQualifier) isMissing(importPath string) bool {
	for _, entry := range q.missing {
		if _, p := SplitImport(entry); p == importPath {
			return true
		}
	}
	return false
}

// reexport returns the local name of an imported package that declares an
// alias for every type of p the current type refers to, as os does for
// io/fs.
func (q *importQualifier) reexport(p *types.Package) (string, bool) {
	var named []*types.Named
	walkNamed(q.current, func(n *types.Named) {
		if obj := n.Obj(); obj.Pkg() != nil && obj.Pkg().Path() == p.Path() {
			named = append(named, n)
		}
	})
	if len(named) == 0 {
		return "", false
	}

	paths := make([]string, 0, len(q.imported))
	for importPath := range q.imported {
		paths = append(paths, importPath)
	}
	sort.Strings(paths)

	for _, importPath := range paths {
		dep := q.imported[importPath]
		all := true
		for _, n := range named {
			alias, ok := dep.Scope().Lookup(n.Obj().Name()).(*types.TypeName)
			if !ok || !alias.Exported() || !types.Identical(alias.Type(), n) {
				all = false
				break
			}
		}
		if !all {
			continue
		}
		name := q.localName(importPath, dep.Name())
		if name != "." && q.resolves(name, importPath) {
			return name, true
		}
	}
	return "", false
}

// addImport picks a free local name for p and records the import.
func (q *importQualifier) addImport(p *types.Package) {
	for _, name := range importNameCandidates(p) {
		if !q.free(name) {
			continue
		}
		q.names[p.Path()] = name
		if name == p.Name() {
			q.missing = append(q.missing, p.Path())
		} else {
			q.missing = append(q.missing, name+" "+p.Path())
		}
		return
	}
	q.names[p.Path()] = ""
	q.fail(fmt.Errorf("%q: %w", p.Path(), ErrNameConflict))
}

// free reports whether name can be declared by a new import.
func (q *importQualifier) free(name string) bool {
	if name == "" || name == "_" || token.IsKeyword(name) {
		return false
	}
	for importPath := range q.names {
		if q.localName(importPath, q.packageName(importPath)) == name {
			return false
		}
	}
	if q.scope != nil {
		_, obj := q.scope.LookupParent(name, q.pos)
		return obj == nil
	}
	return types.Universe.Lookup(name) == nil
}

func (q *importQualifier) packageName(importPath string) string {
	if dep, ok := q.imported[importPath]; ok {
		return dep.Name()
	}
	return ""
}

func (q *importQualifier) fail(err error) {
	if q.err == nil {
		q.err = err
	}
}

func (q *importQualifier) typeString(t types.Type) string {
	q.current = t
	return types.TypeString(t, q.qualify)
}

// importNameCandidates returns the package name of p, then a name built
// from the last two elements of its path, then numbered package names.
func importNameCandidates(p *types.Package) []string {
	candidates := []string{p.Name()}

	elems := strings.Split(p.Path(), "/")
	if len(elems) >= 2 {
		joined := strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				return unicode.ToLower(r)
			}
			return -1
		}, elems[len(elems)-2]+elems[len(elems)-1])
		if joined != "" && unicode.IsLetter(rune(joined[0])) {
			candidates = append(candidates, joined)
		}
	}
	for i := 2; i < 10; i++ {
		candidates = append(candidates, p.Name()+strconv.Itoa(i))
	}
	return candidates
}

// walkNamed calls visit for every named type t is built from.
func walkNamed(t types.Type, visit func(*types.Named)) {
	seen := make(map[types.Type]bool)
	var walk func(t types.Type)
	walk = func(t types.Type) {
		if t == nil || seen[t] {
			return
		}
		seen[t] = true
		switch t := t.(type) {
		case *types.Named:
			visit(t)
			for i := 0; i < t.TypeArgs().Len(); i++ {
				walk(t.TypeArgs().At(i))
			}
		case *types.Pointer:
			walk(t.Elem())
		case *types.Slice:
			walk(t.Elem())
		case *types.Array:
			walk(t.Elem())
		case *types.Chan:
			walk(t.Elem())
		case *types.Map:
			walk(t.Key())
			walk(t.Elem())
		case *types.Tuple:
			for i := 0; i < t.Len(); i++ {
				walk(t.At(i).Type())
			}
		case *types.Signature:
			walk(t.Params())
			walk(t.Results())
		case *types.Struct:
			for i := 0; i < t.NumFields(); i++ {
				walk(t.Field(i).Type())
			}
		case *types.Interface:
			for i := 0; i < t.NumMethods(); i++ {
				walk(t.Method(i).Type())
			}
		}
	}
	walk(t)
}

// SplitImport splits an entry of Plan.Imports, an import path optionally
// preceded by a local name and a space, into its name and path.
func SplitImport(entry string) (name, importPath string) {
	if i := strings.IndexByte(entry, ' '); i >= 0 {
		return entry[:i], entry[i+1:]
	}
	return "", entry
}
