package armc

import (
	"bytes"
	"crypto/md5"
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/strager/armc/isa"
)

const (
	// regionLimit bounds the constant count, the global count and the
	// code size: every address in the image is a u16.
	regionLimit = 1 << 16

	headerSize  = 4 + 2 + 2
	trailerSize = md5.Size

	// StackReserve is the stack the firmware sets aside for every program.
	StackReserve = 4096

	// unresolved is written in place of a forward label reference.
	unresolved = 0xFFFF
)

// Image encoding utilities

func writeU16(buf *bytes.Buffer, v uint16) {
	buf.Write(binary.LittleEndian.AppendUint16(nil, v))
}

func writeU32(buf *bytes.Buffer, v uint32) {
	buf.Write(binary.LittleEndian.AppendUint32(nil, v))
}

type generator struct {
	buf       bytes.Buffer
	codeBegin int
	resolved  map[string]int
	pending   map[string][]int // label name -> placeholder positions
}

// Generate serialises an assembly unit into a firmware image in a single
// pass, backpatching forward jumps as their labels are reached.
func Generate(u *Unit) ([]byte, error) {
	if n := len(u.Constants); n > regionLimit {
		return nil, &CapacityError{Region: "constant pool", Size: n, Limit: regionLimit}
	}
	if u.Globals > regionLimit {
		return nil, &CapacityError{Region: "globals", Size: u.Globals, Limit: regionLimit}
	}

	g := &generator{resolved: make(map[string]int), pending: make(map[string][]int)}
	g.buf.Write([]byte{0xFF, 0xFF, 0xFF, 0xFF}) // total size, filled last
	// A pool of exactly regionLimit entries wraps the count to 0.
	writeU16(&g.buf, uint16(len(u.Constants)))
	for _, c := range u.Constants {
		writeU32(&g.buf, c.Bits())
	}
	writeU16(&g.buf, uint16(u.Globals))
	g.codeBegin = g.buf.Len()

	for _, block := range [][]Instruction{u.Startup, u.Code} {
		for _, in := range block {
			if err := g.instruction(in); err != nil {
				return nil, err
			}
		}
	}

	if len(g.pending) > 0 {
		names := make([]string, 0, len(g.pending))
		for name := range g.pending {
			names = append(names, name)
		}
		sort.Strings(names)
		return nil, &UndefinedSymbolError{Name: names[0]}
	}
	if size := g.buf.Len() - g.codeBegin; size > regionLimit {
		return nil, &CapacityError{Region: "code", Size: size, Limit: regionLimit}
	}

	if u.Labels != nil {
		for _, l := range u.Labels.Labels() {
			if off, ok := g.resolved[l.Name]; ok {
				l.Offset = off
			}
		}
	}
	if u.Debug != nil {
		for name, fn := range u.Debug.Functions {
			if off, ok := g.resolved[name]; ok {
				fn.Offset = off
			}
		}
	}

	image := g.buf.Bytes()
	binary.LittleEndian.PutUint32(image[0:4], uint32(len(image)+trailerSize))
	sum := md5.Sum(image)
	return append(image, sum[:]...), nil
}

func (g *generator) offset() int {
	return g.buf.Len() - g.codeBegin
}

func (g *generator) instruction(in Instruction) error {
	if in.Op == isa.LABEL {
		return g.define(in.Args[0].Label)
	}
	widths := isa.Operands(in.Op)
	if !isa.Valid(in.Op) || len(widths) != len(in.Args) {
		return fmt.Errorf("malformed instruction %s", in)
	}
	g.buf.WriteByte(byte(in.Op))
	for i, w := range widths {
		arg := in.Args[i]
		if arg.Kind == OperandLabel {
			g.reference(arg.Label)
			continue
		}
		switch w {
		case isa.U8:
			g.buf.WriteByte(byte(arg.Value))
		case isa.U16:
			writeU16(&g.buf, uint16(arg.Value))
		case isa.U32:
			writeU32(&g.buf, arg.Value)
		case isa.F32:
			writeU32(&g.buf, math.Float32bits(arg.Float))
		}
	}
	return nil
}

// define resolves a label at the current offset and patches every
// placeholder already emitted for it.
func (g *generator) define(name string) error {
	if _, dup := g.resolved[name]; dup {
		return fmt.Errorf("label %q defined twice", name)
	}
	off := g.offset()
	if off > unresolved {
		return &CapacityError{Region: "code", Size: off, Limit: regionLimit}
	}
	g.resolved[name] = off
	image := g.buf.Bytes()
	for _, pos := range g.pending[name] {
		binary.LittleEndian.PutUint16(image[pos:], uint16(off))
	}
	delete(g.pending, name)
	return nil
}

func (g *generator) reference(name string) {
	if off, ok := g.resolved[name]; ok {
		writeU16(&g.buf, uint16(off))
		return
	}
	g.pending[name] = append(g.pending[name], g.buf.Len())
	writeU16(&g.buf, unresolved)
}

// Usage is the memory footprint of an image, in bytes.
type Usage struct {
	Flash    int // whole image
	Program  int // code
	Constant int
	Global   int
	Stack    int
}

// Memory is the RAM the firmware needs to run the image.
func (u Usage) Memory() int {
	return u.Program + u.Constant + u.Global + u.Stack
}

// Fits reports whether the image can run on a device with deviceBytes of
// memory.
func (u Usage) Fits(deviceBytes int) bool {
	return u.Memory() <= deviceBytes
}

// MeasureUsage reads the region sizes back from a generated image.
func MeasureUsage(image []byte) (Usage, error) {
	if len(image) < headerSize+trailerSize {
		return Usage{}, fmt.Errorf("image too short: %d bytes", len(image))
	}
	consts := int(binary.LittleEndian.Uint16(image[4:6]))
	constBytes := consts * 4
	if len(image) < headerSize+constBytes+trailerSize {
		return Usage{}, fmt.Errorf("image too short for %d constants", consts)
	}
	globals := int(binary.LittleEndian.Uint16(image[6+constBytes:]))
	return Usage{
		Flash:    len(image),
		Program:  len(image) - headerSize - constBytes - trailerSize,
		Constant: constBytes,
		Global:   globals * 4,
		Stack:    StackReserve,
	}, nil
}
