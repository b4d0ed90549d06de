package collapse

import (
	"errors"
	"fmt"
	"go/ast"
	"go/types"
	"strconv"
	"strings"
)

// Strategy is the shape of a synthesized loop.
// It is one of IndexLoop, CountingLoop or ElementLoop.
type Strategy interface {
	isStrategy()
}

// IndexLoop repeats the body N times without a varying value.
type IndexLoop struct {
	N int
}

// CountingLoop counts through an arithmetic progression.
type CountingLoop struct {
	Progression Progression
}

// ElementLoop ranges over a composite literal holding every value.
type ElementLoop struct {
	Container string
}

func (IndexLoop) isStrategy()    {}
func (CountingLoop) isStrategy() {}
func (ElementLoop) isStrategy()  {}

// Plan is everything the Rewriter needs to replace a run with a loop.
type Plan struct {
	Strategy Strategy
	// Header is the loop statement without its body, e.g.
	// "for i := 0; i < 3; i++".
	Header string
	// VarName replaces every substitution site. Empty for index loops.
	VarName    string
	Sites      []ast.Expr
	Template   []ast.Stmt
	Statements []ast.Stmt
	// Imports lists the imports the header refers to and the file does
	// not have yet: an import path, preceded by a local name and a space
	// when the package name is taken.
	Imports []string
}

// Synthesize picks the loop shape for m: an index loop for pure
// repetitions, a counting loop for integer progressions and an element
// loop otherwise.
func Synthesize(m *Model, env *Env) (*Plan, error) {
	if m == nil {
		return nil, errors.New("nil model")
	}
	names := env.Names
	if names == nil {
		names = &ScopeNames{Pkg: env.Pkg, File: env.File}
	}
	at := Insertion{Pos: m.Statements[0].Pos(), Body: m.Statements}
	q := newImportQualifier(env.Pkg, env.File, at.Pos)

	plan := &Plan{
		Template:   m.Template(),
		Statements: m.Statements,
	}

	switch elem := m.Element.(type) {
	case NoElementType:
		n := m.Repetitions()
		plan.Strategy = IndexLoop{N: n}
		if env.Options.RangeOverInt && env.Options.perIterationLoopVars() {
			plan.Header = "for range " + strconv.Itoa(n)
			break
		}
		i := names.UnusedName(NameIndex, types.Typ[types.Int], at)
		plan.Header = fmt.Sprintf("for %s := 0; %s < %d; %s++", i, i, n, i)

	case IndexType:
		if len(m.Values) != m.Repetitions() {
			return nil, fmt.Errorf("%d values for %d repetitions", len(m.Values), m.Repetitions())
		}
		v := names.UnusedName(NameElement, elem.Type, at)
		plan.VarName = v
		plan.Sites = m.Sites

		if p, ok := detectProgression(m.Values, elem.Type, env.sizes()); ok {
			plan.Strategy = CountingLoop{Progression: p}
			start := p.Start.ExactString()
			if !types.Identical(elem.Type, types.Typ[types.Int]) {
				start = q.typeString(elem.Type) + "(" + start + ")"
			}
			op, bound := p.condition(intBits(elem.Type, env.sizes()))
			plan.Header = fmt.Sprintf("for %s := %s; %s %s %s; %s",
				v, start, v, op, bound.ExactString(), p.increment(v))
			break
		}

		container := elementContainer(m.Values, elem.Type, q, env)
		plan.Strategy = ElementLoop{Container: container}
		plan.Header = fmt.Sprintf("for _, %s := range %s", v, container)

	default:
		return nil, fmt.Errorf("unknown element type %T", m.Element)
	}

	if q.err != nil {
		return nil, q.err
	}
	plan.Imports = q.missing
	return plan, nil
}

// elementContainer renders a composite literal holding values: an array
// for basic element types and a slice otherwise.
func elementContainer(values []ast.Expr, t types.Type, q *importQualifier, env *Env) string {
	elems := make([]string, len(values))
	for i, v := range values {
		elems[i] = env.text(v)
	}

	kind := "[]"
	if _, ok := types.Unalias(t).(*types.Basic); ok {
		kind = "[...]"
	}
	return kind + q.typeString(t) + "{" + strings.Join(elems, ", ") + "}"
}
