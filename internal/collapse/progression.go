package collapse

import (
	"go/ast"
	"go/constant"
	"go/token"
	"go/types"
)

// Progression is an arithmetic sequence of integer constants.
type Progression struct {
	Start constant.Value
	Step  constant.Value
	Last  constant.Value
}

// detectProgression reports whether values are integer literals of a 32 or
// 64 bit signed integer type forming an arithmetic progression with a
// non-zero step.
func detectProgression(values []ast.Expr, t types.Type, sizes types.Sizes) (Progression, bool) {
	if len(values) < 2 || intBits(t, sizes) == 0 {
		return Progression{}, false
	}

	consts := make([]constant.Value, len(values))
	for i, v := range values {
		c, ok := intLiteral(v)
		if !ok {
			return Progression{}, false
		}
		consts[i] = c
	}

	step := constant.BinaryOp(consts[1], token.SUB, consts[0])
	if constant.Sign(step) == 0 {
		return Progression{}, false
	}
	for i := 2; i < len(consts); i++ {
		d := constant.BinaryOp(consts[i], token.SUB, consts[i-1])
		if !constant.Compare(d, token.EQL, step) {
			return Progression{}, false
		}
	}

	return Progression{
		Start: consts[0],
		Step:  step,
		Last:  consts[len(consts)-1],
	}, true
}

// intLiteral evaluates an integer literal, possibly signed and
// parenthesized.
func intLiteral(e ast.Expr) (constant.Value, bool) {
	switch x := e.(type) {
	case *ast.ParenExpr:
		return intLiteral(x.X)
	case *ast.UnaryExpr:
		if x.Op != token.SUB && x.Op != token.ADD {
			return nil, false
		}
		v, ok := intLiteral(x.X)
		if !ok {
			return nil, false
		}
		return constant.UnaryOp(x.Op, v, 0), true
	case *ast.BasicLit:
		if x.Kind != token.INT {
			return nil, false
		}
		v := constant.MakeFromLiteral(x.Value, x.Kind, 0)
		if v.Kind() != constant.Int {
			return nil, false
		}
		return v, true
	default:
		return nil, false
	}
}

// condition returns the comparison operator and bound that stop a loop
// counting from p.Start by p.Step right after p.Last.
//
// The exclusive bound Last+Step is used when it fits a signed integer of
// the given size, the inclusive bound Last otherwise.
func (p Progression) condition(bits int) (token.Token, constant.Value) {
	next := constant.BinaryOp(p.Last, token.ADD, p.Step)
	lo, hi := intRange(bits)
	if constant.Sign(p.Step) > 0 {
		if constant.Compare(next, token.LEQ, hi) {
			return token.LSS, next
		}
		return token.LEQ, p.Last
	}
	if constant.Compare(next, token.GEQ, lo) {
		return token.GTR, next
	}
	return token.GEQ, p.Last
}

// increment returns the post statement of the loop for variable name.
func (p Progression) increment(name string) string {
	switch {
	case constant.Compare(p.Step, token.EQL, constant.MakeInt64(1)):
		return name + "++"
	case constant.Compare(p.Step, token.EQL, constant.MakeInt64(-1)):
		return name + "--"
	case constant.Sign(p.Step) > 0:
		return name + " += " + p.Step.ExactString()
	default:
		return name + " -= " + constant.UnaryOp(token.SUB, p.Step, 0).ExactString()
	}
}

func intRange(bits int) (lo, hi constant.Value) {
	one := constant.MakeInt64(1)
	limit := constant.Shift(one, token.SHL, uint(bits-1))
	return constant.UnaryOp(token.SUB, limit, 0), constant.BinaryOp(limit, token.SUB, one)
}
