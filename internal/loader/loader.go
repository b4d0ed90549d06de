// Package loader parses and type-checks the files the engine lints.
package loader

import (
	"context"
	"fmt"
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/tools/go/packages"
)

// Unit is one parsed file with the type information of its package.
// Pkg and Info are nil when the file could not be type-checked at all.
type Unit struct {
	Filename  string
	Fset      *token.FileSet
	File      *ast.File
	Src       []byte
	Pkg       *types.Package
	Info      *types.Info
	Sizes     types.Sizes
	GoVersion string
}

const loadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedCompiledGoFiles |
	packages.NeedSyntax |
	packages.NeedTypes |
	packages.NeedTypesInfo |
	packages.NeedTypesSizes |
	packages.NeedModule

// Loader loads files through go/packages and keeps the packages of every
// directory it has seen.
type Loader struct {
	arch string

	mu   sync.Mutex
	dirs map[string][]*packages.Package
}

// New returns a Loader. arch selects the type sizes of the fallback
// checker, e.g. "amd64".
func New(arch string) *Loader {
	if arch == "" {
		arch = "amd64"
	}
	return &Loader{arch: arch, dirs: make(map[string][]*packages.Package)}
}

// Load returns the unit of filename. Files go/packages cannot place in a
// package are checked on their own, ignoring type errors.
func (l *Loader) Load(ctx context.Context, filename string) (*Unit, error) {
	abs, err := filepath.Abs(filename)
	if err != nil {
		return nil, err
	}
	src, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}

	pkgs, err := l.packages(ctx, filepath.Dir(abs))
	if err == nil {
		if u := findUnit(pkgs, abs, src); u != nil {
			u.Filename = filename
			return u, nil
		}
	}
	return CheckSource(filename, src, l.arch)
}

// Invalidate drops the packages loaded for the directory of filename.
func (l *Loader) Invalidate(filename string) {
	abs, err := filepath.Abs(filename)
	if err != nil {
		return
	}
	l.mu.Lock()
	delete(l.dirs, filepath.Dir(abs))
	l.mu.Unlock()
}

func (l *Loader) packages(ctx context.Context, dir string) ([]*packages.Package, error) {
	l.mu.Lock()
	pkgs, ok := l.dirs[dir]
	l.mu.Unlock()
	if ok {
		return pkgs, nil
	}

	cfg := &packages.Config{
		Context: ctx,
		Mode:    loadMode,
		Dir:     dir,
		Tests:   true,
	}
	pkgs, err := packages.Load(cfg, ".")
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.dirs[dir] = pkgs
	l.mu.Unlock()
	return pkgs, nil
}

// findUnit looks for filename among the syntax trees of pkgs. A tree
// parsed from content other than src is ignored.
func findUnit(pkgs []*packages.Package, filename string, src []byte) *Unit {
	for _, pkg := range pkgs {
		if pkg.Types == nil || pkg.TypesInfo == nil {
			continue
		}
		for i, file := range pkg.Syntax {
			if i >= len(pkg.CompiledGoFiles) || pkg.CompiledGoFiles[i] != filename {
				continue
			}
			tf := pkg.Fset.File(file.Pos())
			if tf == nil || tf.Size() != len(src) {
				continue
			}
			return &Unit{
				Fset:      pkg.Fset,
				File:      file,
				Src:       src,
				Pkg:       pkg.Types,
				Info:      pkg.TypesInfo,
				Sizes:     pkg.TypesSizes,
				GoVersion: fileVersion(pkg, file),
			}
		}
	}
	return nil
}

func fileVersion(pkg *packages.Package, file *ast.File) string {
	if v := pkg.TypesInfo.FileVersions[file]; v != "" {
		return v
	}
	if pkg.Module != nil && pkg.Module.GoVersion != "" {
		return "go" + pkg.Module.GoVersion
	}
	return ""
}

// CheckSource parses src and type-checks it as a package of its own.
// Type errors are ignored so that partial information is still
// available; a parse error is returned.
func CheckSource(filename string, src []byte, arch string) (*Unit, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}

	sizes := types.SizesFor("gc", arch)
	info := &types.Info{
		Types:        make(map[ast.Expr]types.TypeAndValue),
		Defs:         make(map[*ast.Ident]types.Object),
		Uses:         make(map[*ast.Ident]types.Object),
		Scopes:       make(map[ast.Node]*types.Scope),
		FileVersions: make(map[*ast.File]string),
	}
	conf := types.Config{
		Importer: importer.Default(),
		Sizes:    sizes,
		Error:    func(error) {},
	}
	pkg, _ := conf.Check(file.Name.Name, fset, []*ast.File{file}, info)

	return &Unit{
		Filename:  filename,
		Fset:      fset,
		File:      file,
		Src:       src,
		Pkg:       pkg,
		Info:      info,
		Sizes:     sizes,
		GoVersion: info.FileVersions[file],
	}, nil
}
