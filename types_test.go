package armc

import (
	"math"
	"testing"

	"github.com/nalgeon/be"
)

func TestTypeString(t *testing.T) {
	be.Equal(t, Auto.String(), "auto")
	be.Equal(t, Void.String(), "void")
	be.Equal(t, Int.String(), "int")
	be.Equal(t, Float.String(), "float")
	be.Equal(t, Type(9).String(), "type(9)")
}

func TestTypeText(t *testing.T) {
	for _, typ := range []Type{Auto, Void, Int, Float} {
		text, err := typ.MarshalText()
		be.Err(t, err, nil)
		var back Type
		be.Err(t, back.UnmarshalText(text), nil)
		be.Equal(t, back, typ)
	}
	var typ Type
	be.Err(t, typ.UnmarshalText([]byte("double")), `unknown type "double"`)
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		value    float32
		expected string
	}{
		{2, "2.0"},
		{0, "0.0"},
		{-1, "-1.0"},
		{1.5, "1.5"},
		{0.1, "0.1"},
		{3e9, "3e+09"},
		{float32(math.Inf(1)), "+Inf"},
		{float32(math.NaN()), "NaN"},
	}
	for _, test := range tests {
		t.Run(test.expected, func(t *testing.T) {
			be.Equal(t, formatFloat(test.value), test.expected)
		})
	}
}

func TestBinaryType(t *testing.T) {
	tests := []struct {
		op          Keyword
		left, right Type
		expected    Type
	}{
		{Add, Int, Int, Int},
		{Add, Int, Float, Float},
		{Div, Float, Float, Float},
		{Mod, Int, Int, Int},
		{Less, Float, Float, Int},
		{Eq, Float, Float, Int},
		{AndAnd, Int, Int, Int},
		{Assign, Float, Int, Float},
		{ShlAssign, Int, Int, Int},
		{KwAs, Int, Float, Float},
	}
	for _, test := range tests {
		t.Run(test.op.String(), func(t *testing.T) {
			be.Equal(t, binaryType(test.op, test.left, test.right), test.expected)
		})
	}
}

func TestUnaryType(t *testing.T) {
	be.Equal(t, unaryType(Sub, Float), Float)
	be.Equal(t, unaryType(Sub, Int), Int)
	be.Equal(t, unaryType(Not, Int), Int)
	be.Equal(t, unaryType(Tilde, Int), Int)
}

func TestOperatorClasses(t *testing.T) {
	be.Equal(t, compoundBase(AddAssign), Add)
	be.Equal(t, compoundBase(ShrAssign), Shr)
	be.Equal(t, compoundBase(Assign), KwNone)
	be.Equal(t, compoundBase(Add), KwNone)

	be.True(t, isAssignOp(XorAssign))
	be.True(t, !isAssignOp(Eq))
	be.True(t, isIntegerOnly(Mod))
	be.True(t, !isIntegerOnly(Div))
	be.True(t, isRelational(GreaterEq))
	be.True(t, !isRelational(NotEq))
	be.True(t, isEquality(NotEq))
}

func TestSyscallSignatures(t *testing.T) {
	be.Equal(t, syscalls[KwMovJoint].params, []Type{Int, Float})
	be.Equal(t, syscalls[KwReadJoint].result, Float)
	be.Equal(t, len(syscalls[KwSetJointCoord].params), 6)
	be.Equal(t, syscalls[KwOledShowInt].params, []Type{Int, Int, Int, Int})
	be.True(t, syscalls[KwReset].params == nil)
	for kw := range syscalls {
		be.True(t, kw.IsSyscall())
		_, ok := syscallOps[kw]
		be.True(t, ok)
	}
}
