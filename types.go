package armc

import (
	"strconv"
	"strings"
)

// Type is a static type of the language. Auto only exists between parsing
// a declaration without an annotation and inferring it from the initializer.
type Type int

const (
	Auto Type = iota
	Void
	Int
	Float
)

func (t Type) String() string {
	switch t {
	case Auto:
		return "auto"
	case Void:
		return "void"
	case Int:
		return "int"
	case Float:
		return "float"
	}
	return "type(" + strconv.Itoa(int(t)) + ")"
}

func formatFloat(f float32) string {
	s := strconv.FormatFloat(float64(f), 'g', -1, 32)
	if strings.ContainsAny(s, ".eNI") {
		return s
	}
	return s + ".0"
}

// syscall describes the fixed signature of a built-in robot primitive.
type syscall struct {
	params []Type
	result Type
}

func repeat(t Type, n int) []Type {
	ts := make([]Type, n)
	for i := range ts {
		ts[i] = t
	}
	return ts
}

var syscalls = map[Keyword]syscall{
	KwDelay:         {[]Type{Int}, Void},
	KwReset:         {nil, Void},
	KwWait:          {nil, Void},
	KwWaitJoint:     {[]Type{Int}, Void},
	KwMovJoint:      {[]Type{Int, Float}, Void},
	KwSetJoint:      {[]Type{Int, Float}, Void},
	KwReadJoint:     {[]Type{Int}, Float},
	KwMovOrthCoord:  {repeat(Float, 4), Void},
	KwSetOrthCoord:  {repeat(Float, 4), Void},
	KwMovJointCoord: {repeat(Float, 6), Void},
	KwSetJointCoord: {repeat(Float, 6), Void},
	KwGripperOpen:   {nil, Void},
	KwGripperClose:  {nil, Void},
	KwSetJointSpeed: {[]Type{Int, Float}, Void},
	KwOledShowInt:   {repeat(Int, 4), Void},
	KwPrint:         {[]Type{Int}, Void},
}

// Operator classes used by type inference, checking and lowering.

func isAssignOp(op Keyword) bool {
	switch op {
	case Assign, AddAssign, SubAssign, MulAssign, DivAssign, ModAssign,
		AndAssign, OrAssign, XorAssign, ShlAssign, ShrAssign:
		return true
	}
	return false
}

// compoundBase maps a compound assignment to the operator it applies.
func compoundBase(op Keyword) Keyword {
	switch op {
	case AddAssign:
		return Add
	case SubAssign:
		return Sub
	case MulAssign:
		return Mul
	case DivAssign:
		return Div
	case ModAssign:
		return Mod
	case AndAssign:
		return And
	case OrAssign:
		return Or
	case XorAssign:
		return Xor
	case ShlAssign:
		return Shl
	case ShrAssign:
		return Shr
	}
	return KwNone
}

func isArithmetic(op Keyword) bool {
	return op == Add || op == Sub || op == Mul || op == Div
}

// isIntegerOnly reports operators defined only on ints.
func isIntegerOnly(op Keyword) bool {
	switch op {
	case Mod, And, Or, Xor, Shl, Shr, AndAnd, OrOr:
		return true
	}
	return false
}

func isRelational(op Keyword) bool {
	return op == Less || op == LessEq || op == Greater || op == GreaterEq
}

func isEquality(op Keyword) bool {
	return op == Eq || op == NotEq
}

// binaryType is the static type of `left op right` for operand types that
// have already been reconciled. It never fails; mismatches are reported by
// the analyzer.
func binaryType(op Keyword, left, right Type) Type {
	switch {
	case isAssignOp(op):
		return left
	case op == KwAs:
		return right
	case isArithmetic(op):
		if left == Float || right == Float {
			return Float
		}
		return Int
	default:
		return Int
	}
}

func unaryType(op Keyword, operand Type) Type {
	if op == Sub {
		return operand
	}
	return Int
}
