package collapse

import (
	"go/ast"
	"go/token"
	"go/types"
)

// branchesStayInside reports whether every branch statement of stmts keeps
// its target when the statements are wrapped in a loop.
func branchesStayInside(stmts []ast.Stmt) bool {
	ok := true
	for _, stmt := range stmts {
		walkBranches(stmt, 0, 0, &ok)
		if !ok {
			return false
		}
	}
	return true
}

// walkBranches tracks how many enclosing loops and breakable statements
// inside the run surround n.
func walkBranches(n ast.Node, loops, breakables int, ok *bool) {
	ast.Inspect(n, func(node ast.Node) bool {
		if !*ok {
			return false
		}
		switch s := node.(type) {
		case *ast.FuncLit:
			return false
		case *ast.LabeledStmt:
			*ok = false
			return false
		case *ast.BranchStmt:
			switch s.Tok {
			case token.GOTO, token.FALLTHROUGH:
				*ok = false
			case token.BREAK:
				if s.Label == nil && breakables == 0 {
					*ok = false
				}
			case token.CONTINUE:
				if s.Label == nil && loops == 0 {
					*ok = false
				}
			}
			return false
		case *ast.ForStmt, *ast.RangeStmt:
			walkChildren(node, loops+1, breakables+1, ok)
			return false
		case *ast.SwitchStmt, *ast.TypeSwitchStmt, *ast.SelectStmt:
			walkChildren(node, loops, breakables+1, ok)
			return false
		}
		return true
	})
}

func walkChildren(n ast.Node, loops, breakables int, ok *bool) {
	ast.Inspect(n, func(c ast.Node) bool {
		if c == n {
			return true
		}
		if c != nil {
			walkBranches(c, loops, breakables, ok)
		}
		return false
	})
}

// declarationsStayInside reports whether no name declared at the top level
// of stmts is referenced after them.
func declarationsStayInside(run Run, env *Env) bool {
	end := run.Stmts[len(run.Stmts)-1].End()

	if env.Info != nil && env.lastUse != nil {
		for _, id := range declaredNames(run.Stmts) {
			obj := env.Info.Defs[id]
			if obj == nil {
				continue
			}
			if env.lastUse[obj] >= end {
				return false
			}
		}
		return true
	}

	// without type information fall back to names in the rest of the list
	names := make(map[string]bool)
	for _, id := range declaredNames(run.Stmts) {
		names[id.Name] = true
	}
	if len(names) == 0 {
		return true
	}
	used := false
	for _, stmt := range followingStmts(run) {
		ast.Inspect(stmt, func(n ast.Node) bool {
			if id, ok := n.(*ast.Ident); ok && names[id.Name] {
				used = true
			}
			return !used
		})
	}
	return !used
}

// declaredNames returns the identifiers declared directly by stmts.
func declaredNames(stmts []ast.Stmt) []*ast.Ident {
	var ids []*ast.Ident
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.AssignStmt:
			if s.Tok != token.DEFINE {
				continue
			}
			for _, lhs := range s.Lhs {
				if id, ok := lhs.(*ast.Ident); ok && id.Name != "_" {
					ids = append(ids, id)
				}
			}
		case *ast.DeclStmt:
			gen, ok := s.Decl.(*ast.GenDecl)
			if !ok {
				continue
			}
			for _, spec := range gen.Specs {
				switch sp := spec.(type) {
				case *ast.ValueSpec:
					for _, id := range sp.Names {
						if id.Name != "_" {
							ids = append(ids, id)
						}
					}
				case *ast.TypeSpec:
					ids = append(ids, sp.Name)
				}
			}
		}
	}
	return ids
}

func followingStmts(run Run) []ast.Stmt {
	var list []ast.Stmt
	switch p := run.Parent.(type) {
	case *ast.BlockStmt:
		list = p.List
	case *ast.CaseClause:
		list = p.Body
	case *ast.CommClause:
		list = p.Body
	}
	last := run.Stmts[len(run.Stmts)-1]
	for i, stmt := range list {
		if stmt == last {
			return list[i+1:]
		}
	}
	return nil
}

// sitesInClosures reports whether any site lies inside a function literal
// of the template statements.
func sitesInClosures(template []ast.Stmt, sites []ast.Expr) bool {
	if len(sites) == 0 {
		return false
	}
	found := false
	for _, stmt := range template {
		ast.Inspect(stmt, func(n ast.Node) bool {
			lit, ok := n.(*ast.FuncLit)
			if !ok {
				return !found
			}
			for _, site := range sites {
				if site.Pos() >= lit.Pos() && site.End() <= lit.End() {
					found = true
				}
			}
			return false
		})
	}
	return found
}

// valuesResolveAt reports whether every name referenced by values denotes
// the same object at pos, where the loop evaluates its container.
// Names declared inside a value, like the parameters of a function
// literal, and selected fields or methods are not looked up.
func valuesResolveAt(values []ast.Expr, pos token.Pos, env *Env) bool {
	if env.Pkg == nil || env.Info == nil {
		return true
	}
	scope := env.Pkg.Scope().Innermost(pos)
	if scope == nil {
		return false
	}

	ok := true
	for _, v := range values {
		var visit func(n ast.Node) bool
		visit = func(n ast.Node) bool {
			if !ok {
				return false
			}
			switch n := n.(type) {
			case *ast.SelectorExpr:
				ast.Inspect(n.X, visit)
				return false
			case *ast.Ident:
				obj := env.Info.Uses[n]
				if obj == nil {
					return false
				}
				if field, isVar := obj.(*types.Var); isVar && field.IsField() {
					return false
				}
				if obj.Pos().IsValid() && obj.Pos() >= v.Pos() && obj.Pos() < v.End() {
					return false
				}
				if _, found := scope.LookupParent(n.Name, pos); found != obj {
					ok = false
				}
			}
			return true
		}
		ast.Inspect(v, visit)
		if !ok {
			return false
		}
	}
	return true
}

// sequentialList reports whether parent owns a plain statement list.
func sequentialList(parent ast.Node) bool {
	switch parent.(type) {
	case *ast.BlockStmt, *ast.CaseClause, *ast.CommClause:
		return true
	default:
		return false
	}
}

// intBits returns the size in bits of a 32 or 64 bit signed integer type,
// or 0 for any other type.
func intBits(t types.Type, sizes types.Sizes) int {
	basic, ok := t.Underlying().(*types.Basic)
	if !ok {
		return 0
	}
	switch basic.Kind() {
	case types.Int32:
		return 32
	case types.Int64:
		return 64
	case types.Int:
		return int(sizes.Sizeof(basic)) * 8
	default:
		return 0
	}
}
