// Package isa describes the instruction set of the arm controller's
// stack machine: opcode numbering, mnemonics and operand layout.
//
// The numbering is fixed by the controller firmware and must not change.
package isa

import "fmt"

// Op is a one-byte opcode.
type Op byte

// Control flow
const (
	NOP   Op = 0x00
	HALT  Op = 0x01
	JMP   Op = 0x02
	JZ    Op = 0x03
	JNZ   Op = 0x04
	CALL  Op = 0x05
	ENTER Op = 0x06
	RET   Op = 0x07
	RET0  Op = 0x08
)

// Memory and stack
const (
	LOADK Op = 0x11
	LOADG Op = 0x12
	LOADL Op = 0x13
	IMMI  Op = 0x14
	IMMF  Op = 0x15
	POP   Op = 0x16
	STORL Op = 0x17
	STORG Op = 0x18
)

// Arithmetic, logic and comparison
const (
	IADD Op = 0x21
	ISUB Op = 0x22
	IMUL Op = 0x23
	IDIV Op = 0x24
	IMOD Op = 0x25
	INEG Op = 0x26

	FADD Op = 0x31
	FSUB Op = 0x32
	FMUL Op = 0x33
	FDIV Op = 0x34
	FNEG Op = 0x35

	LNOT Op = 0x41
	LAND Op = 0x42
	LOR  Op = 0x43

	BAND Op = 0x51
	BOR  Op = 0x52
	BXOR Op = 0x53
	BNOT Op = 0x54
	SHL  Op = 0x55
	SHR  Op = 0x56

	IEQ Op = 0x61
	INE Op = 0x62
	IGT Op = 0x63
	ILT Op = 0x64
	IGE Op = 0x65
	ILE Op = 0x66

	FEQ Op = 0x71
	FNE Op = 0x72
	FGT Op = 0x73
	FLT Op = 0x74
	FGE Op = 0x75
	FLE Op = 0x76

	I2F Op = 0x81
	F2I Op = 0x82
)

// Robot system calls
const (
	DELAY         Op = 0x91
	RST           Op = 0x92
	WAIT          Op = 0x93
	WAITJ         Op = 0x94
	MOVJ          Op = 0x95
	SETJ          Op = 0x96
	READJ         Op = 0x97
	MOVOC         Op = 0x98
	SETOC         Op = 0x99
	MOVJC         Op = 0x9A
	SETJC         Op = 0x9B
	GRIPPER_OPEN  Op = 0x9C
	GRIPPER_CLOSE Op = 0x9D
	SETJSPD       Op = 0x9E
	OLEDI         Op = 0xA1

	// PRINT pops one int and reports it on the debug console.
	PRINT Op = 0xB1
)

// LABEL marks a jump target in symbolic code. It is consumed by the code
// generator and never reaches an image.
const LABEL Op = 0xFF

// Width is the encoding of a single operand.
type Width int

const (
	U8 Width = iota
	U16
	U32
	F32
)

// Size returns the number of bytes an operand of this width occupies.
func (w Width) Size() int {
	switch w {
	case U8:
		return 1
	case U16:
		return 2
	default:
		return 4
	}
}

type info struct {
	name     string
	operands []Width
}

var table = map[Op]info{
	NOP:   {"NOP", nil},
	HALT:  {"HALT", nil},
	JMP:   {"JMP", []Width{U16}},
	JZ:    {"JZ", []Width{U16}},
	JNZ:   {"JNZ", []Width{U16}},
	CALL:  {"CALL", []Width{U16, U8}},
	ENTER: {"ENTER", []Width{U8}},
	RET:   {"RET", nil},
	RET0:  {"RET0", nil},

	LOADK: {"LOADK", []Width{U16}},
	LOADG: {"LOADG", []Width{U16}},
	LOADL: {"LOADL", []Width{U8}},
	IMMI:  {"IMMI", []Width{U32}},
	IMMF:  {"IMMF", []Width{F32}},
	POP:   {"POP", nil},
	STORL: {"STORL", []Width{U8}},
	STORG: {"STORG", []Width{U16}},

	IADD: {"IADD", nil},
	ISUB: {"ISUB", nil},
	IMUL: {"IMUL", nil},
	IDIV: {"IDIV", nil},
	IMOD: {"IMOD", nil},
	INEG: {"INEG", nil},
	FADD: {"FADD", nil},
	FSUB: {"FSUB", nil},
	FMUL: {"FMUL", nil},
	FDIV: {"FDIV", nil},
	FNEG: {"FNEG", nil},
	LNOT: {"LNOT", nil},
	LAND: {"LAND", nil},
	LOR:  {"LOR", nil},
	BAND: {"BAND", nil},
	BOR:  {"BOR", nil},
	BXOR: {"BXOR", nil},
	BNOT: {"BNOT", nil},
	SHL:  {"SHL", nil},
	SHR:  {"SHR", nil},
	IEQ:  {"IEQ", nil},
	INE:  {"INE", nil},
	IGT:  {"IGT", nil},
	ILT:  {"ILT", nil},
	IGE:  {"IGE", nil},
	ILE:  {"ILE", nil},
	FEQ:  {"FEQ", nil},
	FNE:  {"FNE", nil},
	FGT:  {"FGT", nil},
	FLT:  {"FLT", nil},
	FGE:  {"FGE", nil},
	FLE:  {"FLE", nil},
	I2F:  {"I2F", nil},
	F2I:  {"F2I", nil},

	DELAY:         {"DELAY", nil},
	RST:           {"RST", nil},
	WAIT:          {"WAIT", nil},
	WAITJ:         {"WAITJ", nil},
	MOVJ:          {"MOVJ", nil},
	SETJ:          {"SETJ", nil},
	READJ:         {"READJ", nil},
	MOVOC:         {"MOVOC", nil},
	SETOC:         {"SETOC", nil},
	MOVJC:         {"MOVJC", nil},
	SETJC:         {"SETJC", nil},
	GRIPPER_OPEN:  {"GRIPPER_OPEN", nil},
	GRIPPER_CLOSE: {"GRIPPER_CLOSE", nil},
	SETJSPD:       {"SETJSPD", nil},
	OLEDI:         {"OLEDI", nil},
	PRINT:         {"PRINT", nil},

	LABEL: {"LABEL", nil},
}

// Valid reports whether op is part of the instruction set. LABEL is not.
func Valid(op Op) bool {
	_, ok := table[op]
	return ok && op != LABEL
}

// Operands returns the operand layout of op.
func Operands(op Op) []Width {
	return table[op].operands
}

// Size returns the encoded length of op including its operands.
func Size(op Op) int {
	n := 1
	for _, w := range table[op].operands {
		n += w.Size()
	}
	return n
}

// IsBranch reports whether the first operand of op is a code address.
func IsBranch(op Op) bool {
	switch op {
	case JMP, JZ, JNZ, CALL:
		return true
	}
	return false
}

func (op Op) String() string {
	if in, ok := table[op]; ok {
		return in.name
	}
	return fmt.Sprintf("OP_%02X", byte(op))
}
