package collapse

import (
	"go/ast"
	"go/token"
)

// Compare reports how the statement b differs from the template statement a.
//
// An expression that differs in a non-expression position of its own (an
// operator, a field name, a type, the node kind) is reported as a single
// difference as a whole. Two differing positions anywhere in the trees, or a
// difference in a declared name, label, token or type of a statement, give
// an ExactMismatch.
//
// Compare holds no state between calls.
func Compare(a, b ast.Stmt) Match {
	return compareStmt(a, b)
}

// position classifies where an expression occurs.
type position int

const (
	// valuePos is an ordinary operand; any difference may become a diff.
	valuePos position = iota
	// addressPos is the addressable path of an assignment target.
	// The loop variable is a copy, so it must not replace such a node.
	addressPos
)

// diffs accumulates the child results of one composite node.
type diffs struct {
	diff     SingleDiff
	count    int
	own      bool // a non-expression position of the node itself differs
	mismatch bool
}

func (d *diffs) add(m Match) {
	switch m := m.(type) {
	case ExactMatch:
	case ExactMismatch:
		d.mismatch = true
	case SingleDiff:
		d.count++
		d.diff = m
	}
}

// strict records a position that must be identical.
func (d *diffs) strict(equal bool) {
	if !equal {
		d.own = true
	}
}

func (d *diffs) stmt() Match {
	switch {
	case d.mismatch || d.own || d.count > 1:
		return ExactMismatch{}
	case d.count == 1:
		return d.diff
	default:
		return ExactMatch{}
	}
}

func (d *diffs) expr(a, b ast.Expr, pos position) Match {
	switch {
	case d.mismatch:
		return ExactMismatch{}
	case d.own:
		return absorb(a, b, pos)
	case d.count > 1:
		return ExactMismatch{}
	case d.count == 1:
		return d.diff
	default:
		return ExactMatch{}
	}
}

// absorb turns the pair itself into the difference.
func absorb(a, b ast.Expr, pos position) Match {
	if pos == addressPos {
		return ExactMismatch{}
	}
	return SingleDiff{Template: a, Occurrence: b}
}

// whole rejects a difference that would replace x itself, for positions
// where an identifier is not a valid substitute.
func whole(m Match, x ast.Expr) Match {
	if d, ok := m.(SingleDiff); ok && d.Template == x {
		return ExactMismatch{}
	}
	return m
}

func compareStmt(a, b ast.Stmt) Match {
	if isNilNode(a) || isNilNode(b) {
		if isNilNode(a) && isNilNode(b) {
			return ExactMatch{}
		}
		return ExactMismatch{}
	}

	var d diffs
	switch x := a.(type) {
	case *ast.ExprStmt:
		y, ok := b.(*ast.ExprStmt)
		if !ok {
			return ExactMismatch{}
		}
		d.add(whole(compareExpr(x.X, y.X, valuePos), x.X))

	case *ast.AssignStmt:
		y, ok := b.(*ast.AssignStmt)
		if !ok || x.Tok != y.Tok || len(x.Lhs) != len(y.Lhs) || len(x.Rhs) != len(y.Rhs) {
			return ExactMismatch{}
		}
		for i := range x.Lhs {
			if x.Tok == token.DEFINE {
				d.strict(sameNode(x.Lhs[i], y.Lhs[i]))
				continue
			}
			d.add(compareExpr(x.Lhs[i], y.Lhs[i], addressPos))
		}
		for i := range x.Rhs {
			d.add(compareExpr(x.Rhs[i], y.Rhs[i], valuePos))
		}

	case *ast.IncDecStmt:
		y, ok := b.(*ast.IncDecStmt)
		if !ok || x.Tok != y.Tok {
			return ExactMismatch{}
		}
		d.add(compareExpr(x.X, y.X, addressPos))

	case *ast.DeclStmt:
		y, ok := b.(*ast.DeclStmt)
		if !ok {
			return ExactMismatch{}
		}
		d.add(compareDecl(x.Decl, y.Decl))

	case *ast.SendStmt:
		y, ok := b.(*ast.SendStmt)
		if !ok {
			return ExactMismatch{}
		}
		d.add(compareExpr(x.Chan, y.Chan, valuePos))
		d.add(compareExpr(x.Value, y.Value, valuePos))

	case *ast.GoStmt:
		y, ok := b.(*ast.GoStmt)
		if !ok {
			return ExactMismatch{}
		}
		d.add(whole(compareExpr(x.Call, y.Call, valuePos), x.Call))

	case *ast.DeferStmt:
		y, ok := b.(*ast.DeferStmt)
		if !ok {
			return ExactMismatch{}
		}
		d.add(whole(compareExpr(x.Call, y.Call, valuePos), x.Call))

	case *ast.ReturnStmt:
		y, ok := b.(*ast.ReturnStmt)
		if !ok || len(x.Results) != len(y.Results) {
			return ExactMismatch{}
		}
		for i := range x.Results {
			d.add(compareExpr(x.Results[i], y.Results[i], valuePos))
		}

	case *ast.BranchStmt:
		y, ok := b.(*ast.BranchStmt)
		if !ok || x.Tok != y.Tok {
			return ExactMismatch{}
		}
		d.strict(sameNode(x.Label, y.Label))

	case *ast.LabeledStmt:
		y, ok := b.(*ast.LabeledStmt)
		if !ok {
			return ExactMismatch{}
		}
		d.strict(sameNode(x.Label, y.Label))
		d.add(compareStmt(x.Stmt, y.Stmt))

	case *ast.BlockStmt:
		y, ok := b.(*ast.BlockStmt)
		if !ok {
			return ExactMismatch{}
		}
		d.add(compareList(x.List, y.List))

	case *ast.IfStmt:
		y, ok := b.(*ast.IfStmt)
		if !ok {
			return ExactMismatch{}
		}
		d.add(compareStmt(x.Init, y.Init))
		d.add(compareExpr(x.Cond, y.Cond, valuePos))
		d.add(compareStmt(x.Body, y.Body))
		d.add(compareStmt(x.Else, y.Else))

	case *ast.CaseClause:
		y, ok := b.(*ast.CaseClause)
		if !ok || len(x.List) != len(y.List) {
			return ExactMismatch{}
		}
		for i := range x.List {
			d.add(compareExpr(x.List[i], y.List[i], valuePos))
		}
		d.add(compareList(x.Body, y.Body))

	case *ast.SwitchStmt:
		y, ok := b.(*ast.SwitchStmt)
		if !ok {
			return ExactMismatch{}
		}
		d.add(compareStmt(x.Init, y.Init))
		d.add(compareExpr(x.Tag, y.Tag, valuePos))
		d.add(compareStmt(x.Body, y.Body))

	case *ast.TypeSwitchStmt:
		y, ok := b.(*ast.TypeSwitchStmt)
		if !ok {
			return ExactMismatch{}
		}
		d.add(compareStmt(x.Init, y.Init))
		d.add(compareStmt(x.Assign, y.Assign))
		d.add(compareTypeCases(x.Body, y.Body))

	case *ast.CommClause:
		y, ok := b.(*ast.CommClause)
		if !ok {
			return ExactMismatch{}
		}
		d.add(compareStmt(x.Comm, y.Comm))
		d.add(compareList(x.Body, y.Body))

	case *ast.SelectStmt:
		y, ok := b.(*ast.SelectStmt)
		if !ok {
			return ExactMismatch{}
		}
		d.add(compareStmt(x.Body, y.Body))

	case *ast.ForStmt:
		y, ok := b.(*ast.ForStmt)
		if !ok {
			return ExactMismatch{}
		}
		d.add(compareStmt(x.Init, y.Init))
		d.add(compareExpr(x.Cond, y.Cond, valuePos))
		d.add(compareStmt(x.Post, y.Post))
		d.add(compareStmt(x.Body, y.Body))

	case *ast.RangeStmt:
		y, ok := b.(*ast.RangeStmt)
		if !ok || x.Tok != y.Tok {
			return ExactMismatch{}
		}
		if x.Tok == token.DEFINE {
			d.strict(sameNode(x.Key, y.Key))
			d.strict(sameNode(x.Value, y.Value))
		} else {
			d.add(compareExpr(x.Key, y.Key, addressPos))
			d.add(compareExpr(x.Value, y.Value, addressPos))
		}
		d.add(compareExpr(x.X, y.X, valuePos))
		d.add(compareStmt(x.Body, y.Body))

	case *ast.EmptyStmt:
		if _, ok := b.(*ast.EmptyStmt); !ok {
			return ExactMismatch{}
		}

	default:
		// BadStmt and anything unknown.
		return ExactMismatch{}
	}
	return d.stmt()
}

func compareList(a, b []ast.Stmt) Match {
	if len(a) != len(b) {
		return ExactMismatch{}
	}
	var d diffs
	for i := range a {
		d.add(compareStmt(a[i], b[i]))
		if d.mismatch {
			return ExactMismatch{}
		}
	}
	return d.stmt()
}

// compareTypeCases compares type switch clauses, whose case lists are types.
func compareTypeCases(a, b *ast.BlockStmt) Match {
	if len(a.List) != len(b.List) {
		return ExactMismatch{}
	}
	var d diffs
	for i := range a.List {
		x, ok1 := a.List[i].(*ast.CaseClause)
		y, ok2 := b.List[i].(*ast.CaseClause)
		if !ok1 || !ok2 || len(x.List) != len(y.List) {
			return ExactMismatch{}
		}
		for j := range x.List {
			d.strict(sameNode(x.List[j], y.List[j]))
		}
		d.add(compareList(x.Body, y.Body))
	}
	return d.stmt()
}

func compareDecl(a, b ast.Decl) Match {
	x, ok1 := a.(*ast.GenDecl)
	y, ok2 := b.(*ast.GenDecl)
	if !ok1 || !ok2 || x.Tok != y.Tok || len(x.Specs) != len(y.Specs) {
		return ExactMismatch{}
	}

	var d diffs
	for i := range x.Specs {
		xs, ok1 := x.Specs[i].(*ast.ValueSpec)
		ys, ok2 := y.Specs[i].(*ast.ValueSpec)
		if !ok1 || !ok2 {
			// type declarations are compared as a whole.
			d.strict(sameNode(x.Specs[i], y.Specs[i]))
			continue
		}
		if len(xs.Names) != len(ys.Names) || len(xs.Values) != len(ys.Values) {
			return ExactMismatch{}
		}
		for j := range xs.Names {
			d.strict(xs.Names[j].Name == ys.Names[j].Name)
		}
		d.strict(sameNode(xs.Type, ys.Type))
		for j := range xs.Values {
			d.add(compareExpr(xs.Values[j], ys.Values[j], valuePos))
		}
	}
	return d.stmt()
}

func compareExpr(a, b ast.Expr, pos position) Match {
	if isNilNode(a) || isNilNode(b) {
		if isNilNode(a) && isNilNode(b) {
			return ExactMatch{}
		}
		return ExactMismatch{}
	}

	var d diffs
	switch x := a.(type) {
	case *ast.Ident:
		y, ok := b.(*ast.Ident)
		if ok && x.Name == y.Name {
			return ExactMatch{}
		}
		return absorb(a, b, pos)

	case *ast.BasicLit:
		y, ok := b.(*ast.BasicLit)
		if ok && x.Kind == y.Kind && x.Value == y.Value {
			return ExactMatch{}
		}
		return absorb(a, b, pos)

	case *ast.ParenExpr:
		y, ok := b.(*ast.ParenExpr)
		if !ok {
			return absorb(a, b, pos)
		}
		d.add(compareExpr(x.X, y.X, pos))

	case *ast.SelectorExpr:
		y, ok := b.(*ast.SelectorExpr)
		if !ok {
			return absorb(a, b, pos)
		}
		d.add(compareExpr(x.X, y.X, pos))
		d.strict(x.Sel.Name == y.Sel.Name)

	case *ast.IndexExpr:
		y, ok := b.(*ast.IndexExpr)
		if !ok {
			return absorb(a, b, pos)
		}
		d.add(compareExpr(x.X, y.X, pos))
		d.add(compareExpr(x.Index, y.Index, valuePos))

	case *ast.IndexListExpr:
		y, ok := b.(*ast.IndexListExpr)
		if !ok || len(x.Indices) != len(y.Indices) {
			return absorb(a, b, pos)
		}
		d.add(compareExpr(x.X, y.X, pos))
		for i := range x.Indices {
			d.strict(sameNode(x.Indices[i], y.Indices[i]))
		}

	case *ast.SliceExpr:
		y, ok := b.(*ast.SliceExpr)
		if !ok {
			return absorb(a, b, pos)
		}
		// slicing an array needs the array itself, not a copy.
		d.add(compareExpr(x.X, y.X, addressPos))
		d.add(compareExpr(x.Low, y.Low, valuePos))
		d.add(compareExpr(x.High, y.High, valuePos))
		d.add(compareExpr(x.Max, y.Max, valuePos))
		d.strict(x.Slice3 == y.Slice3)

	case *ast.TypeAssertExpr:
		y, ok := b.(*ast.TypeAssertExpr)
		if !ok {
			return absorb(a, b, pos)
		}
		d.add(compareExpr(x.X, y.X, valuePos))
		d.strict(sameNode(x.Type, y.Type))

	case *ast.CallExpr:
		y, ok := b.(*ast.CallExpr)
		if !ok {
			return absorb(a, b, pos)
		}
		d.add(compareCallee(x.Fun, y.Fun))
		d.strict(x.Ellipsis.IsValid() == y.Ellipsis.IsValid())
		if len(x.Args) != len(y.Args) {
			d.strict(false)
			break
		}
		for i := range x.Args {
			d.add(compareExpr(x.Args[i], y.Args[i], valuePos))
		}

	case *ast.StarExpr:
		y, ok := b.(*ast.StarExpr)
		if !ok {
			return absorb(a, b, pos)
		}
		// a copied pointer still points to the same variable.
		d.add(compareExpr(x.X, y.X, valuePos))

	case *ast.UnaryExpr:
		y, ok := b.(*ast.UnaryExpr)
		if !ok {
			return absorb(a, b, pos)
		}
		d.strict(x.Op == y.Op)
		operand := valuePos
		if x.Op == token.AND {
			operand = addressPos
		}
		d.add(compareExpr(x.X, y.X, operand))

	case *ast.BinaryExpr:
		y, ok := b.(*ast.BinaryExpr)
		if !ok {
			return absorb(a, b, pos)
		}
		d.strict(x.Op == y.Op)
		d.add(compareExpr(x.X, y.X, valuePos))
		d.add(compareExpr(x.Y, y.Y, valuePos))

	case *ast.KeyValueExpr:
		y, ok := b.(*ast.KeyValueExpr)
		if !ok {
			return ExactMismatch{}
		}
		if _, isIdent := x.Key.(*ast.Ident); isIdent {
			// possibly a struct field name
			d.strict(sameNode(x.Key, y.Key))
		} else {
			d.add(compareExpr(x.Key, y.Key, valuePos))
		}
		d.add(compareExpr(x.Value, y.Value, valuePos))
		return d.stmt()

	case *ast.CompositeLit:
		y, ok := b.(*ast.CompositeLit)
		if !ok {
			return absorb(a, b, pos)
		}
		d.strict(sameNode(x.Type, y.Type))
		if len(x.Elts) != len(y.Elts) {
			d.strict(false)
			break
		}
		for i := range x.Elts {
			d.add(compareExpr(x.Elts[i], y.Elts[i], valuePos))
		}

	case *ast.FuncLit:
		y, ok := b.(*ast.FuncLit)
		if !ok {
			return absorb(a, b, pos)
		}
		d.strict(sameNode(x.Type, y.Type))
		d.add(compareStmt(x.Body, y.Body))

	case *ast.ArrayType, *ast.MapType, *ast.ChanType, *ast.FuncType,
		*ast.StructType, *ast.InterfaceType, *ast.Ellipsis:
		if sameNode(a, b) {
			return ExactMatch{}
		}
		return absorb(a, b, pos)

	default:
		// BadExpr
		return ExactMismatch{}
	}
	return d.expr(a, b, pos)
}

// compareCallee compares the function operand of a call. A method receiver
// may be addressed implicitly, so it is treated as an assignment target.
func compareCallee(a, b ast.Expr) Match {
	if sel, ok := a.(*ast.SelectorExpr); ok {
		other, ok := b.(*ast.SelectorExpr)
		if !ok {
			return absorb(a, b, valuePos)
		}
		var d diffs
		d.add(compareExpr(sel.X, other.X, addressPos))
		d.strict(sel.Sel.Name == other.Sel.Name)
		return d.expr(a, b, valuePos)
	}
	return compareExpr(a, b, valuePos)
}
