package vm

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/strager/armc/isa"
)

// Line is one decoded instruction.
type Line struct {
	Offset   int
	Op       isa.Op
	Operands []uint32
}

func (l Line) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%04x  %s", l.Offset, l.Op)
	for i, w := range isa.Operands(l.Op) {
		b.WriteByte(' ')
		v := l.Operands[i]
		switch {
		case w == isa.F32:
			b.WriteString(strconv.FormatFloat(float64(math.Float32frombits(v)), 'g', -1, 32))
		case w == isa.U32:
			b.WriteString(strconv.Itoa(int(int32(v))))
		case i == 0 && isa.IsBranch(l.Op):
			fmt.Fprintf(&b, "%04x", v)
		default:
			b.WriteString(strconv.Itoa(int(v)))
		}
	}
	return b.String()
}

// decodeAt decodes the instruction at off.
func decodeAt(prog []byte, off int) (Line, error) {
	op := isa.Op(prog[off])
	if !isa.Valid(op) {
		return Line{}, fmt.Errorf("invalid opcode 0x%02x at %04x", byte(op), off)
	}
	if off+isa.Size(op) > len(prog) {
		return Line{}, fmt.Errorf("%s at %04x runs past the end of the program", op, off)
	}
	l := Line{Offset: off, Op: op}
	pos := off + 1
	for _, w := range isa.Operands(op) {
		var v uint32
		switch w {
		case isa.U8:
			v = uint32(prog[pos])
		case isa.U16:
			v = uint32(binary.LittleEndian.Uint16(prog[pos:]))
		default:
			v = binary.LittleEndian.Uint32(prog[pos:])
		}
		l.Operands = append(l.Operands, v)
		pos += w.Size()
	}
	return l, nil
}

// Disassemble decodes the whole program region.
func Disassemble(img *Image) ([]Line, error) {
	var lines []Line
	for off := 0; off < len(img.Program); {
		l, err := decodeAt(img.Program, off)
		if err != nil {
			return lines, err
		}
		lines = append(lines, l)
		off += isa.Size(l.Op)
	}
	return lines, nil
}

// Listing renders img as text: a header with the data regions followed by
// one instruction per line.
func Listing(img *Image) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "constants: %d\n", len(img.Constants))
	for i, c := range img.Constants {
		fmt.Fprintf(&b, "  %d: 0x%08x\n", i, c)
	}
	fmt.Fprintf(&b, "globals: %d\n", img.Globals)
	fmt.Fprintf(&b, "program: %d bytes\n", len(img.Program))
	lines, err := Disassemble(img)
	for _, l := range lines {
		b.WriteString(l.String())
		b.WriteByte('\n')
	}
	return b.String(), err
}
