package armc

import (
	"fmt"
	"math"
)

func b2i(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// fold evaluates e at compile time if all of its operands are literals.
// It returns the replacement literal, or nil if e cannot be folded.
func fold(e Expr) (*LiteralExpr, error) {
	switch e := e.(type) {
	case *UnaryExpr:
		x, ok := e.X.(*LiteralExpr)
		if !ok {
			return nil, nil
		}
		return foldUnary(e, x), nil
	case *BinaryExpr:
		if isAssignOp(e.Op) {
			return nil, nil
		}
		l, ok := e.Left.(*LiteralExpr)
		if !ok {
			return nil, nil
		}
		r, ok := e.Right.(*LiteralExpr)
		if !ok {
			return nil, nil
		}
		return foldBinary(e, l, r)
	case *CastExpr:
		x, ok := e.X.(*LiteralExpr)
		if !ok {
			return nil, nil
		}
		return foldCast(e, x), nil
	}
	return nil, nil
}

func foldUnary(e *UnaryExpr, x *LiteralExpr) *LiteralExpr {
	switch e.Op {
	case Sub:
		if x.Typ == Float {
			return floatLiteral(e.Line, -x.Float)
		}
		return intLiteral(e.Line, -x.Int)
	case Not:
		return intLiteral(e.Line, b2i(x.Int == 0))
	case Tilde:
		return intLiteral(e.Line, ^x.Int)
	}
	panic(fmt.Sprintf("fold: unexpected unary operator %s", e.Op))
}

func foldBinary(e *BinaryExpr, l, r *LiteralExpr) (*LiteralExpr, error) {
	line := e.Line
	if l.Typ == Float || r.Typ == Float {
		a, b := l.Float, r.Float
		switch e.Op {
		case Add:
			return floatLiteral(line, a+b), nil
		case Sub:
			return floatLiteral(line, a-b), nil
		case Mul:
			return floatLiteral(line, a*b), nil
		case Div:
			return floatLiteral(line, a/b), nil
		case Eq:
			return intLiteral(line, b2i(a == b)), nil
		case NotEq:
			return intLiteral(line, b2i(a != b)), nil
		case Less:
			return intLiteral(line, b2i(a < b)), nil
		case LessEq:
			return intLiteral(line, b2i(a <= b)), nil
		case Greater:
			return intLiteral(line, b2i(a > b)), nil
		case GreaterEq:
			return intLiteral(line, b2i(a >= b)), nil
		}
		panic(fmt.Sprintf("fold: operator %s on floats", e.Op))
	}

	a, b := l.Int, r.Int
	switch e.Op {
	case Add:
		return intLiteral(line, a+b), nil
	case Sub:
		return intLiteral(line, a-b), nil
	case Mul:
		return intLiteral(line, a*b), nil
	case Div, Mod:
		if b == 0 {
			return nil, &SemanticError{Rule: RuleDivideByZero, Line: line, Msg: "constant division by zero"}
		}
		if e.Op == Div {
			return intLiteral(line, a/b), nil
		}
		return intLiteral(line, a%b), nil
	case And:
		return intLiteral(line, a&b), nil
	case Or:
		return intLiteral(line, a|b), nil
	case Xor:
		return intLiteral(line, a^b), nil
	case Shl:
		return intLiteral(line, a<<uint32(b)), nil
	case Shr:
		return intLiteral(line, a>>uint32(b)), nil
	case AndAnd:
		return intLiteral(line, b2i(a != 0 && b != 0)), nil
	case OrOr:
		return intLiteral(line, b2i(a != 0 || b != 0)), nil
	case Eq:
		return intLiteral(line, b2i(a == b)), nil
	case NotEq:
		return intLiteral(line, b2i(a != b)), nil
	case Less:
		return intLiteral(line, b2i(a < b)), nil
	case LessEq:
		return intLiteral(line, b2i(a <= b)), nil
	case Greater:
		return intLiteral(line, b2i(a > b)), nil
	case GreaterEq:
		return intLiteral(line, b2i(a >= b)), nil
	}
	panic(fmt.Sprintf("fold: unexpected binary operator %s", e.Op))
}

// foldCast converts a literal. Float to int conversions outside the int32
// range are left for the run time.
func foldCast(e *CastExpr, x *LiteralExpr) *LiteralExpr {
	switch {
	case e.To == x.Typ:
		return &LiteralExpr{Line: e.Line, Typ: x.Typ, Int: x.Int, Float: x.Float}
	case e.To == Float:
		return floatLiteral(e.Line, float32(x.Int))
	}
	f := float64(x.Float)
	if math.IsNaN(f) || f >= math.MaxInt32+1 || f < math.MinInt32 {
		return nil
	}
	return intLiteral(e.Line, int32(f))
}
