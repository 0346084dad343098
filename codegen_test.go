package armc

import (
	"bytes"
	"crypto/md5"
	"errors"
	"testing"

	"github.com/nalgeon/be"
	"github.com/strager/armc/isa"
)

func handUnit() *Unit {
	labels := NewLabelTable()
	labels.Add("main")
	labels.Add("end")
	return &Unit{
		Constants: []Constant{{Type: Int, Int: 7}},
		Globals:   2,
		Startup: []Instruction{
			{Op: isa.CALL, Args: []Operand{Ref("main"), U8(0)}},
			{Op: isa.HALT},
		},
		Code: []Instruction{
			{Op: isa.LABEL, Args: []Operand{Ref("main")}},
			{Op: isa.ENTER, Args: []Operand{U8(0)}},
			{Op: isa.JMP, Args: []Operand{Ref("end")}},
			{Op: isa.LABEL, Args: []Operand{Ref("end")}},
			{Op: isa.RET0},
			{Op: isa.JMP, Args: []Operand{Ref("main")}},
		},
		Labels: labels,
	}
}

func TestGenerateLayout(t *testing.T) {
	u := handUnit()
	img, err := Generate(u)
	be.Err(t, err, nil)
	be.Equal(t, len(img), 42)

	body := img[:26]
	be.Equal(t, body, []byte{
		0x2A, 0x00, 0x00, 0x00, // total size
		0x01, 0x00, // constant count
		0x07, 0x00, 0x00, 0x00,
		0x02, 0x00, // global count
		0x05, 0x05, 0x00, 0x00, // CALL main 0
		0x01,       // HALT
		0x06, 0x00, // ENTER 0
		0x02, 0x0A, 0x00, // JMP end, backpatched
		0x08,             // RET0
		0x02, 0x05, 0x00, // JMP main
	})
	sum := md5.Sum(body)
	be.Equal(t, img[26:], sum[:])

	be.Equal(t, u.Labels.Lookup("main").Offset, 5)
	be.Equal(t, u.Labels.Lookup("end").Offset, 10)
}

func TestGenerateFloatOperands(t *testing.T) {
	u := &Unit{
		Constants: []Constant{{Type: Float, Float: 1.5}},
		Startup: []Instruction{
			{Op: isa.IMMF, Args: []Operand{F32(-2)}},
			{Op: isa.IMMI, Args: []Operand{U32(-1)}},
			{Op: isa.LOADG, Args: []Operand{U16(0x1234)}},
		},
	}
	img, err := Generate(u)
	be.Err(t, err, nil)
	be.Equal(t, img[6:10], []byte{0x00, 0x00, 0xC0, 0x3F})
	be.Equal(t, img[12:25], []byte{
		0x15, 0x00, 0x00, 0x00, 0xC0,
		0x14, 0xFF, 0xFF, 0xFF, 0xFF,
		0x12, 0x34, 0x12,
	})
}

func TestGenerateDeterministic(t *testing.T) {
	src := "let g = 2; fn f(n: int) -> int { if n { return n * f(n - 1); } return 1; } fn main() { print(f(g)); }"
	first, err := Compile(src, Options{})
	be.Err(t, err, nil)
	second, err := Compile(src, Options{})
	be.Err(t, err, nil)
	be.True(t, bytes.Equal(first.Image, second.Image))
}

func TestGenerateFunctionOffsets(t *testing.T) {
	res, err := Compile("fn f() {} fn main() { f(); }", Options{})
	be.Err(t, err, nil)
	// Startup is CALL main 0 (4 bytes) and HALT; f is ENTER 0 and RET0.
	be.Equal(t, res.Debug.Functions["f"].Offset, 5)
	be.Equal(t, res.Debug.Functions["main"].Offset, 8)
}

func TestGenerateCapacity(t *testing.T) {
	t.Run("constant pool", func(t *testing.T) {
		u := &Unit{Constants: make([]Constant, 65537)}
		_, err := Generate(u)
		be.Err(t, err, "constant pool too large: 65537 exceeds limit 65536")
		var capErr *CapacityError
		be.True(t, errors.As(err, &capErr))
	})
	t.Run("full constant pool", func(t *testing.T) {
		u := &Unit{Constants: make([]Constant, 65536)}
		img, err := Generate(u)
		be.Err(t, err, nil)
		be.Equal(t, img[4:6], []byte{0, 0})
	})
	t.Run("globals", func(t *testing.T) {
		_, err := Generate(&Unit{Globals: 65537})
		be.Err(t, err, "globals too large: 65537 exceeds limit 65536")
	})
	t.Run("code", func(t *testing.T) {
		u := &Unit{Code: make([]Instruction, 65537)}
		for i := range u.Code {
			u.Code[i] = Instruction{Op: isa.NOP}
		}
		_, err := Generate(u)
		be.Err(t, err, "code too large: 65537 exceeds limit 65536")
	})
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name string
		code []Instruction
		err  string
	}{
		{
			name: "undefined label",
			code: []Instruction{{Op: isa.JMP, Args: []Operand{Ref("nowhere")}}},
			err:  `undefined label "nowhere"`,
		},
		{
			name: "duplicate label",
			code: []Instruction{
				{Op: isa.LABEL, Args: []Operand{Ref("x")}},
				{Op: isa.LABEL, Args: []Operand{Ref("x")}},
			},
			err: `label "x" defined twice`,
		},
		{
			name: "missing operand",
			code: []Instruction{{Op: isa.JMP}},
			err:  "malformed instruction JMP",
		},
		{
			name: "unknown opcode",
			code: []Instruction{{Op: isa.Op(0xEE)}},
			err:  "malformed instruction OP_EE",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Generate(&Unit{Code: test.code})
			be.Err(t, err, test.err)
		})
	}
}

func TestMeasureUsage(t *testing.T) {
	img, err := Generate(handUnit())
	be.Err(t, err, nil)
	usage, err := MeasureUsage(img)
	be.Err(t, err, nil)
	be.Equal(t, usage, Usage{Flash: 42, Program: 14, Constant: 4, Global: 8, Stack: StackReserve})
	be.Equal(t, usage.Memory(), 14+4+8+4096)
	be.True(t, usage.Fits(4122))
	be.True(t, !usage.Fits(4121))

	_, err = MeasureUsage([]byte{1, 2, 3})
	be.Err(t, err, "image too short: 3 bytes")
}
