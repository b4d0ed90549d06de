package collapse

import (
	"go/ast"
	"go/printer"
	"go/token"
	"go/types"
	"go/version"
	"strings"
)

// MaxRunLength is the longest statement run Detect considers.
const MaxRunLength = 1000

// TypeOracle answers static type queries about expressions.
type TypeOracle interface {
	// TypeOf returns the static type of e, or nil if unknown.
	TypeOf(e ast.Expr) types.Type
	// VariableType returns the type a variable initialized with e would
	// have, or false if e cannot initialize a variable.
	VariableType(e ast.Expr) (types.Type, bool)
}

// Options tunes detection and synthesis.
type Options struct {
	// MinPeriods is the minimum number of repetitions. Values below 2 mean 2.
	MinPeriods int
	// MaxPeriodLen bounds the number of statements of the template period.
	// Zero means no bound.
	MaxPeriodLen int
	// StrictOccurrences requires every period to vary at every
	// substitution site with one and the same value.
	StrictOccurrences bool
	// RangeOverInt emits `for range n` for index loops.
	RangeOverInt bool
	// GoVersion is the language version of the code, e.g. "go1.22".
	// Empty means the latest version.
	GoVersion string
}

func (o Options) minPeriods() int {
	if o.MinPeriods < 2 {
		return 2
	}
	return o.MinPeriods
}

// perIterationLoopVars reports whether each loop iteration has its own
// copy of the loop variable.
func (o Options) perIterationLoopVars() bool {
	if o.GoVersion == "" {
		return true
	}
	v := o.GoVersion
	if !strings.HasPrefix(v, "go") {
		v = "go" + v
	}
	return version.Compare(v, "go1.22") >= 0
}

// Env is everything Detect and Synthesize need besides the run itself.
type Env struct {
	Fset    *token.FileSet
	Src     []byte // source of the file holding the run; optional
	File    *ast.File
	Pkg     *types.Package
	Info    *types.Info
	Sizes   types.Sizes
	Types   TypeOracle
	Names   NameSupplier
	Options Options

	lastUse map[types.Object]token.Pos
}

// NewEnv builds an Env backed by the results of a go/types check.
// info and pkg may be nil, in which case only pure repetitions can be
// collapsed.
func NewEnv(fset *token.FileSet, src []byte, file *ast.File, pkg *types.Package, info *types.Info, sizes types.Sizes, opts Options) *Env {
	if sizes == nil {
		sizes = types.SizesFor("gc", "amd64")
	}
	env := &Env{
		Fset:    fset,
		Src:     src,
		File:    file,
		Pkg:     pkg,
		Info:    info,
		Sizes:   sizes,
		Types:   InfoOracle{Info: info},
		Options: opts,
	}
	env.Names = &ScopeNames{Pkg: pkg, File: file}
	if info != nil {
		env.lastUse = make(map[types.Object]token.Pos, len(info.Uses))
		for id, obj := range info.Uses {
			if id.Pos() > env.lastUse[obj] {
				env.lastUse[obj] = id.Pos()
			}
		}
	}
	return env
}

// text returns the source text of n, falling back to printing it.
func (env *Env) text(n ast.Node) string {
	if env.Src != nil && env.Fset != nil {
		tf := env.Fset.File(n.Pos())
		if tf != nil && tf.Size() == len(env.Src) {
			return string(env.Src[tf.Offset(n.Pos()):tf.Offset(n.End())])
		}
	}
	var sb strings.Builder
	fset := env.Fset
	if fset == nil {
		fset = token.NewFileSet()
	}
	_ = printer.Fprint(&sb, fset, n)
	return sb.String()
}

// InfoOracle is a TypeOracle over the results of a go/types check.
type InfoOracle struct {
	Info *types.Info
}

func (o InfoOracle) TypeOf(e ast.Expr) types.Type {
	if o.Info == nil {
		return nil
	}
	return o.Info.TypeOf(e)
}

func (o InfoOracle) VariableType(e ast.Expr) (types.Type, bool) {
	if o.Info == nil {
		return nil, false
	}
	tv, ok := o.Info.Types[e]
	if !ok || tv.Type == nil || !tv.IsValue() || tv.IsNil() {
		return nil, false
	}

	t := tv.Type
	switch u := t.(type) {
	case *types.Tuple:
		return nil, false
	case *types.Basic:
		if u.Kind() == types.Invalid || u.Kind() == types.UntypedNil {
			return nil, false
		}
		t = types.Default(t)
	}
	return t, true
}

func (env *Env) sizes() types.Sizes {
	if env.Sizes == nil {
		return types.SizesFor("gc", "amd64")
	}
	return env.Sizes
}
