package collapse

import (
	"go/ast"
	"go/token"
	"reflect"
)

// Match is the outcome of comparing two statements.
// It is one of ExactMatch, ExactMismatch or SingleDiff.
type Match interface {
	isMatch()
}

// ExactMatch reports structurally identical trees.
type ExactMatch struct{}

// ExactMismatch reports trees that cannot be reduced to a single
// expression difference.
type ExactMismatch struct{}

// SingleDiff reports trees that are identical except for one pair of
// expressions.
type SingleDiff struct {
	Template   ast.Expr
	Occurrence ast.Expr
}

func (ExactMatch) isMatch()    {}
func (ExactMismatch) isMatch() {}
func (SingleDiff) isMatch()    {}

// sameNode reports whether a and b are the same tree, ignoring positions
// and resolver state.
func sameNode(a, b ast.Node) bool {
	if isNilNode(a) || isNilNode(b) {
		return isNilNode(a) && isNilNode(b)
	}
	return sameValue(reflect.ValueOf(a), reflect.ValueOf(b))
}

var (
	posType     = reflect.TypeOf(token.NoPos)
	objectType  = reflect.TypeOf((*ast.Object)(nil))
	scopeType   = reflect.TypeOf((*ast.Scope)(nil))
	commentType = reflect.TypeOf((*ast.CommentGroup)(nil))
)

func sameValue(a, b reflect.Value) bool {
	if a.Kind() != b.Kind() {
		return false
	}

	switch a.Kind() {
	case reflect.Interface:
		if a.IsNil() || b.IsNil() {
			return a.IsNil() == b.IsNil()
		}
		return sameValue(a.Elem(), b.Elem())
	case reflect.Pointer:
		if a.Type() != b.Type() {
			return false
		}
		if a.IsNil() || b.IsNil() {
			return a.IsNil() == b.IsNil()
		}
		return sameValue(a.Elem(), b.Elem())
	case reflect.Slice:
		if a.Len() != b.Len() {
			return false
		}
		for i := 0; i < a.Len(); i++ {
			if !sameValue(a.Index(i), b.Index(i)) {
				return false
			}
		}
		return true
	case reflect.Struct:
		if a.Type() != b.Type() {
			return false
		}
		for i := 0; i < a.NumField(); i++ {
			switch a.Type().Field(i).Type {
			case posType, objectType, scopeType, commentType:
				continue
			}
			if !sameValue(a.Field(i), b.Field(i)) {
				return false
			}
		}
		return true
	case reflect.String:
		return a.String() == b.String()
	case reflect.Bool:
		return a.Bool() == b.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return a.Int() == b.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return a.Uint() == b.Uint()
	default:
		return false
	}
}

func isNilNode(n ast.Node) bool {
	if n == nil {
		return true
	}
	v := reflect.ValueOf(n)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

// containsNode reports whether target is one of nodes, by identity.
func containsNode(nodes []ast.Expr, target ast.Expr) bool {
	for _, n := range nodes {
		if n == target {
			return true
		}
	}
	return false
}
