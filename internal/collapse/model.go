package collapse

import (
	"go/ast"
	"go/types"
)

// Run is a contiguous sequence of sibling statements.
type Run struct {
	Stmts []ast.Stmt
	// Parent is the node owning the statement list: *ast.BlockStmt,
	// *ast.CaseClause or *ast.CommClause.
	Parent ast.Node
}

func (r Run) Len() int { return len(r.Stmts) }

// ElementType is the type of the varying value of a model.
// It is either NoElementType or IndexType.
type ElementType interface {
	isElementType()
}

// NoElementType marks a pure repetition without a varying value.
type NoElementType struct{}

// IndexType is the inferred type of the varying value.
type IndexType struct {
	Type types.Type
}

func (NoElementType) isElementType() {}
func (IndexType) isElementType()     {}

// Model is an accepted decomposition of a run into periods.
type Model struct {
	// Values holds one varying expression per period, the template's first.
	Values []ast.Expr
	// Sites are the expressions of the template period that take the loop
	// variable. They are structurally identical to each other.
	Sites []ast.Expr
	// Statements is the whole run.
	Statements []ast.Stmt
	// Period is the number of statements of one repetition.
	Period  int
	Element ElementType
}

// Template returns the statements of the first period.
func (m *Model) Template() []ast.Stmt {
	return m.Statements[:m.Period]
}

// Repetitions returns the number of periods.
func (m *Model) Repetitions() int {
	return len(m.Statements) / m.Period
}

// matchPeriod validates the decomposition of run into periods of count
// statements and collects the varying values.
//
// Within one period only the last difference found contributes the varying
// value, while the template side of every difference must be a known
// substitution site.
func matchPeriod(stmts []ast.Stmt, count int, env *Env) (*Model, Reason) {
	size := len(stmts)

	var (
		sites  []ast.Expr
		values []ast.Expr
		elem   ElementType = NoElementType{}
	)
	first := true
	for offset := count; offset < size; offset += count {
		var (
			templateExpr ast.Expr
			occurrence   ast.Expr
			hit          []ast.Expr
			occurrences  []ast.Expr
		)
		for i := 0; i < count; i++ {
			m := Compare(stmts[i], stmts[i+offset])
			switch m := m.(type) {
			case ExactMismatch:
				return nil, ReasonStructuralMismatch
			case ExactMatch:
				continue
			case SingleDiff:
				if templateExpr == nil {
					templateExpr = m.Template
				}
				occurrence = m.Occurrence
				if first {
					if len(sites) > 0 && !sameNode(sites[0], m.Template) {
						return nil, ReasonStructuralMismatch
					}
					sites = append(sites, m.Template)
				} else if !containsNode(sites, m.Template) {
					return nil, ReasonStructuralMismatch
				}
				hit = append(hit, m.Template)
				occurrences = append(occurrences, m.Occurrence)
			}
		}

		if env.Options.StrictOccurrences && len(hit) > 0 && !coversAll(sites, hit, occurrences) {
			return nil, ReasonStructuralMismatch
		}

		if first && templateExpr != nil {
			t, ok := inferElementType(templateExpr, env)
			if !ok {
				return nil, ReasonTypeInference
			}
			elem = IndexType{Type: t}
			values = append(values, templateExpr)
		}
		first = false

		if occurrence == nil && len(values) > 0 {
			// the period repeats the template value
			occurrence = values[0]
		}
		if occurrence != nil {
			values = append(values, occurrence)
		}
	}

	if it, ok := elem.(IndexType); ok {
		for _, v := range values[1:] {
			t, ok := inferElementType(v, env)
			if !ok || !types.Identical(t, it.Type) {
				return nil, ReasonTypeInference
			}
		}
		if !valuesResolveAt(values, stmts[0].Pos(), env) {
			return nil, ReasonScope
		}
	}

	return &Model{
		Values:     values,
		Sites:      sites,
		Statements: stmts,
		Period:     count,
		Element:    elem,
	}, ReasonNone
}

// coversAll reports whether a period differs at every site with
// structurally identical occurrences.
func coversAll(sites, hit, occurrences []ast.Expr) bool {
	if len(hit) != len(sites) {
		return false
	}
	for _, site := range sites {
		if !containsNode(hit, site) {
			return false
		}
	}
	for _, o := range occurrences[1:] {
		if !sameNode(occurrences[0], o) {
			return false
		}
	}
	return true
}

// inferElementType returns the type of a loop variable holding e.
func inferElementType(e ast.Expr, env *Env) (types.Type, bool) {
	return env.oracle().VariableType(e)
}

func (env *Env) oracle() TypeOracle {
	if env.Types == nil {
		return InfoOracle{Info: env.Info}
	}
	return env.Types
}
