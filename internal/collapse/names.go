package collapse

import (
	"go/ast"
	"go/token"
	"go/types"
	"strconv"
	"unicode"
)

// NameKind is the role of a generated identifier.
type NameKind int

const (
	// NameIndex is a loop counter.
	NameIndex NameKind = iota
	// NameElement is the element variable of a range loop.
	NameElement
)

// Insertion describes where a generated name will be declared.
type Insertion struct {
	Pos  token.Pos  // position of the loop statement
	Body []ast.Stmt // statements that will form the loop body
}

// NameSupplier generates identifiers that do not collide with anything
// visible at the insertion point.
type NameSupplier interface {
	UnusedName(kind NameKind, typ types.Type, at Insertion) string
}

// ScopeNames picks conventional short names and skips every name that is
// visible at the insertion point or used inside the loop body.
type ScopeNames struct {
	Pkg  *types.Package // optional
	File *ast.File      // used when Pkg is nil
}

func (s *ScopeNames) UnusedName(kind NameKind, typ types.Type, at Insertion) string {
	taken := make(map[string]bool)
	for _, stmt := range at.Body {
		ast.Inspect(stmt, func(n ast.Node) bool {
			if id, ok := n.(*ast.Ident); ok {
				taken[id.Name] = true
			}
			return true
		})
	}

	var scope *types.Scope
	if s.Pkg != nil {
		scope = s.Pkg.Scope().Innermost(at.Pos)
	} else if s.File != nil {
		ast.Inspect(s.File, func(n ast.Node) bool {
			if id, ok := n.(*ast.Ident); ok {
				taken[id.Name] = true
			}
			return true
		})
	}

	free := func(name string) bool {
		if taken[name] || token.IsKeyword(name) {
			return false
		}
		if scope != nil {
			if _, obj := scope.LookupParent(name, at.Pos); obj != nil {
				return false
			}
		} else if types.Universe.Lookup(name) != nil {
			return false
		}
		return true
	}

	candidates := nameCandidates(kind, typ)
	for _, name := range candidates {
		if free(name) {
			return name
		}
	}
	base := candidates[0]
	for i := 1; ; i++ {
		if name := base + strconv.Itoa(i); free(name) {
			return name
		}
	}
}

func nameCandidates(kind NameKind, typ types.Type) []string {
	if kind == NameIndex || typ == nil {
		return []string{"i", "j", "k"}
	}

	if named, ok := types.Unalias(typ).(*types.Named); ok {
		return typeNameCandidates(named.Obj().Name())
	}

	switch t := types.Unalias(typ).(type) {
	case *types.Basic:
		switch {
		// byte and rune share their kind with uint8 and int32
		case t.Name() == "byte":
			return []string{"b", "c"}
		case t.Name() == "rune":
			return []string{"r", "c"}
		case t.Info()&types.IsInteger != 0:
			return []string{"i", "j", "k", "n"}
		case t.Info()&types.IsFloat != 0:
			return []string{"f", "x"}
		case t.Info()&types.IsString != 0:
			return []string{"s", "str"}
		case t.Info()&types.IsBoolean != 0:
			return []string{"b", "ok"}
		}
	case *types.Pointer:
		if named, ok := types.Unalias(t.Elem()).(*types.Named); ok {
			return typeNameCandidates(named.Obj().Name())
		}
		return []string{"p", "v"}
	case *types.Signature:
		return []string{"fn", "f"}
	case *types.Chan:
		return []string{"ch", "c"}
	}
	return []string{"v", "e"}
}

// typeNameCandidates derives variable names from a type name: the type name
// in lower camel case, then its initial.
func typeNameCandidates(name string) []string {
	runes := []rune(name)
	if len(runes) == 0 {
		return []string{"v"}
	}
	// lower the leading run of capitals: "HTTPClient" -> "httpClient"
	i := 0
	for i < len(runes) && unicode.IsUpper(runes[i]) {
		i++
	}
	if i > 1 && i < len(runes) {
		i--
	}
	for j := 0; j < i; j++ {
		runes[j] = unicode.ToLower(runes[j])
	}
	if i == 0 {
		runes[0] = unicode.ToLower(runes[0])
	}
	camel := string(runes)
	initial := string(unicode.ToLower([]rune(name)[0]))
	if camel == initial {
		return []string{camel, "v"}
	}
	return []string{camel, initial, "v"}
}
