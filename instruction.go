package armc

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/strager/armc/isa"
)

type OperandKind int

const (
	OperandU8 OperandKind = iota
	OperandU16
	OperandU32
	OperandF32
	OperandLabel
)

// Operand is one argument of a symbolic instruction.
type Operand struct {
	Kind  OperandKind
	Value uint32  // OperandU8, OperandU16, OperandU32
	Float float32 // OperandF32
	Label string  // OperandLabel
}

func U8(v int) Operand      { return Operand{Kind: OperandU8, Value: uint32(v)} }
func U16(v int) Operand     { return Operand{Kind: OperandU16, Value: uint32(v)} }
func U32(v int32) Operand   { return Operand{Kind: OperandU32, Value: uint32(v)} }
func F32(v float32) Operand { return Operand{Kind: OperandF32, Float: v} }
func Ref(name string) Operand {
	return Operand{Kind: OperandLabel, Label: name}
}

func (o Operand) String() string {
	switch o.Kind {
	case OperandU32:
		return strconv.Itoa(int(int32(o.Value)))
	case OperandF32:
		return formatFloat(o.Float)
	case OperandLabel:
		return o.Label
	}
	return strconv.Itoa(int(o.Value))
}

// Instruction is an opcode with its operands, before label resolution.
type Instruction struct {
	Op   isa.Op
	Args []Operand
}

func (in Instruction) String() string {
	if len(in.Args) == 0 {
		return in.Op.String()
	}
	parts := make([]string, len(in.Args))
	for i, a := range in.Args {
		parts[i] = a.String()
	}
	return in.Op.String() + " " + strings.Join(parts, " ")
}

// Label is a named code position. Offset is relative to the start of the
// code region and -1 until the code generator reaches the label.
type Label struct {
	Name   string
	Offset int
}

// LabelTable owns every label of one assembly unit.
type LabelTable struct {
	labels  map[string]*Label
	order   []*Label
	counter int
}

func NewLabelTable() *LabelTable {
	return &LabelTable{labels: make(map[string]*Label)}
}

// Add registers a label with a fixed name, such as a function name.
func (lt *LabelTable) Add(name string) *Label {
	l := &Label{Name: name, Offset: -1}
	lt.labels[name] = l
	lt.order = append(lt.order, l)
	lt.counter++
	return l
}

// New registers a label named after the counter and suffix, "3_if_end".
func (lt *LabelTable) New(suffix string) string {
	name := fmt.Sprintf("%d_%s", lt.counter, suffix)
	lt.Add(name)
	return name
}

// Lookup returns the label called name, or nil.
func (lt *LabelTable) Lookup(name string) *Label {
	return lt.labels[name]
}

// Labels returns every label in creation order.
func (lt *LabelTable) Labels() []*Label {
	return lt.order
}

// Constant is one entry of the constant pool.
type Constant struct {
	Type  Type
	Int   int32
	Float float32
}

// Bits returns the 4-byte image representation of the constant.
func (c Constant) Bits() uint32 {
	if c.Type == Float {
		return math.Float32bits(c.Float)
	}
	return uint32(c.Int)
}

func (c Constant) value() string {
	if c.Type == Float {
		return formatFloat(c.Float)
	}
	return strconv.Itoa(int(c.Int))
}

func (c Constant) String() string {
	return c.Type.String() + " " + c.value()
}

// Unit is the assembler's output: everything the code generator needs to
// produce an image.
type Unit struct {
	Constants []Constant
	Globals   int
	Startup   []Instruction // global initialisers, CALL main 0, HALT
	Code      []Instruction // function bodies
	Labels    *LabelTable
	Debug     *DebugInfo
}

// String renders the unit as an assembly listing.
func (u *Unit) String() string {
	var b strings.Builder
	b.WriteString("CONSTANTS:\n")
	for _, c := range u.Constants {
		b.WriteString("\t" + c.String() + "\n")
	}
	fmt.Fprintf(&b, "GLOBAL_VAR_NUM: %d\n", u.Globals)
	b.WriteString("CODE:\n")
	for _, in := range u.Startup {
		b.WriteString("\t" + in.String() + "\n")
	}
	for _, in := range u.Code {
		b.WriteString("\t" + in.String() + "\n")
	}
	return b.String()
}
