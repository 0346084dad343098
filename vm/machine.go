package vm

import (
	"errors"
	"fmt"
	"math"

	"github.com/strager/armc/isa"
)

// ErrStepLimit is returned by Run when the program is still running after
// the allowed number of steps.
var ErrStepLimit = errors.New("vm: step limit reached")

// Fault is a run-time error raised by the program. The firmware reports
// the same conditions as status codes.
type Fault struct {
	PC  int
	Op  isa.Op
	Msg string
}

func (f *Fault) Error() string {
	return fmt.Sprintf("vm: %s at %04x (%s)", f.Msg, f.PC, f.Op)
}

// frame header slots, relative to the frame offset
const (
	frameReturn = iota
	frameOldOffset
	frameOldLocals
	frameHeader
)

// Machine executes one image. A frame on the stack is laid out as
// return address, caller frame offset, caller local count, then locals
// (arguments first) followed by the operand stack.
type Machine struct {
	img     *Image
	robot   Robot
	globals []uint32
	stack   []uint32
	sp      int

	pc        int
	frame     int // offset of the current frame header
	locals    int // local slots of the current frame
	depth     int // active calls
	halted    bool
	opStart   int
	currentOp isa.Op

	Steps int
}

func New(img *Image, robot Robot) *Machine {
	return &Machine{
		img:     img,
		robot:   robot,
		globals: make([]uint32, img.Globals),
		stack:   make([]uint32, StackBytes/slotSize),
	}
}

func (m *Machine) Halted() bool {
	return m.halted
}

// Global returns the raw bits of global slot i.
func (m *Machine) Global(i int) uint32 {
	return m.globals[i]
}

func (m *Machine) fault(format string, args ...any) {
	panic(&Fault{PC: m.opStart, Op: m.currentOp, Msg: fmt.Sprintf(format, args...)})
}

func (m *Machine) push(v uint32) {
	if m.sp >= len(m.stack) {
		m.fault("stack overflow")
	}
	m.stack[m.sp] = v
	m.sp++
}

// pop removes an operand. Inside a call it may not reach into the frame.
func (m *Machine) pop() uint32 {
	floor := 0
	if m.depth > 0 {
		floor = m.frame + frameHeader + m.locals
	}
	if m.sp <= floor {
		m.fault("operand stack underflow")
	}
	m.sp--
	return m.stack[m.sp]
}

func (m *Machine) popInt() int32     { return int32(m.pop()) }
func (m *Machine) popFloat() float32 { return math.Float32frombits(m.pop()) }
func (m *Machine) pushInt(v int32)   { m.push(uint32(v)) }
func (m *Machine) pushFloat(v float32) {
	m.push(math.Float32bits(v))
}

func (m *Machine) pushBool(b bool) {
	if b {
		m.push(1)
	} else {
		m.push(0)
	}
}

func (m *Machine) target(addr uint32) int {
	if int(addr) >= len(m.img.Program) {
		m.fault("jump to %04x outside the program", addr)
	}
	return int(addr)
}

func (m *Machine) call(ret int, argc int) {
	args := make([]uint32, argc)
	for i := argc - 1; i >= 0; i-- {
		args[i] = m.pop()
	}
	m.push(uint32(ret))
	m.push(uint32(m.frame))
	m.frame = m.sp - 2
	m.push(uint32(m.locals))
	m.locals = 0
	for _, a := range args {
		m.push(a)
	}
	m.depth++
}

func (m *Machine) ret() {
	if m.depth == 0 {
		m.fault("return outside of a call")
	}
	fo := m.frame
	m.locals = int(m.stack[fo+frameOldLocals])
	m.pc = int(m.stack[fo+frameReturn])
	m.frame = int(m.stack[fo+frameOldOffset])
	m.sp = fo
	m.depth--
}

func (m *Machine) local(idx uint32) int {
	if int(idx) >= m.locals {
		m.fault("local %d out of range", idx)
	}
	return m.frame + frameHeader + int(idx)
}

// Step executes one instruction.
func (m *Machine) Step() (err error) {
	if m.halted {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			f, ok := r.(*Fault)
			if !ok {
				panic(r)
			}
			m.halted = true
			err = f
		}
	}()

	if m.pc >= len(m.img.Program) {
		m.opStart = m.pc
		m.fault("program counter past the end")
	}
	line, derr := decodeAt(m.img.Program, m.pc)
	m.opStart, m.currentOp = m.pc, line.Op
	if derr != nil {
		m.fault("%v", derr)
	}
	m.pc += isa.Size(line.Op)
	m.Steps++
	m.exec(line.Op, line.Operands)
	return nil
}

func (m *Machine) exec(op isa.Op, args []uint32) {
	switch op {
	case isa.NOP:
	case isa.HALT:
		m.halted = true
	case isa.JMP:
		m.pc = m.target(args[0])
	case isa.JZ:
		addr := m.target(args[0])
		if m.pop() == 0 {
			m.pc = addr
		}
	case isa.JNZ:
		addr := m.target(args[0])
		if m.pop() != 0 {
			m.pc = addr
		}
	case isa.CALL:
		addr := m.target(args[0])
		m.call(m.pc, int(args[1]))
		m.pc = addr
	case isa.ENTER:
		n := int(args[0])
		top := m.frame + frameHeader + n
		if top > len(m.stack) {
			m.fault("stack overflow")
		}
		for i := m.sp; i < top; i++ {
			m.stack[i] = 0
		}
		m.locals = n
		m.sp = top
	case isa.RET:
		v := m.pop()
		m.ret()
		m.push(v)
	case isa.RET0:
		m.ret()

	case isa.LOADK:
		if int(args[0]) >= len(m.img.Constants) {
			m.fault("constant %d out of range", args[0])
		}
		m.push(m.img.Constants[args[0]])
	case isa.LOADG:
		if int(args[0]) >= len(m.globals) {
			m.fault("global %d out of range", args[0])
		}
		m.push(m.globals[args[0]])
	case isa.LOADL:
		m.push(m.stack[m.local(args[0])])
	case isa.IMMI, isa.IMMF:
		m.push(args[0])
	case isa.POP:
		m.pop()
	case isa.STORL:
		v := m.pop()
		m.stack[m.local(args[0])] = v
	case isa.STORG:
		v := m.pop()
		if int(args[0]) >= len(m.globals) {
			m.fault("global %d out of range", args[0])
		}
		m.globals[args[0]] = v

	case isa.INEG:
		m.pushInt(-m.popInt())
	case isa.FNEG:
		m.pushFloat(-m.popFloat())
	case isa.LNOT:
		m.pushBool(m.pop() == 0)
	case isa.BNOT:
		m.pushInt(^m.popInt())
	case isa.I2F:
		m.pushFloat(float32(m.popInt()))
	case isa.F2I:
		m.pushInt(truncate(m.popFloat()))

	case isa.IADD, isa.ISUB, isa.IMUL, isa.IDIV, isa.IMOD,
		isa.LAND, isa.LOR, isa.BAND, isa.BOR, isa.BXOR, isa.SHL, isa.SHR,
		isa.IEQ, isa.INE, isa.IGT, isa.ILT, isa.IGE, isa.ILE:
		b := m.popInt()
		a := m.popInt()
		m.intOp(op, a, b)
	case isa.FADD, isa.FSUB, isa.FMUL, isa.FDIV,
		isa.FEQ, isa.FNE, isa.FGT, isa.FLT, isa.FGE, isa.FLE:
		b := m.popFloat()
		a := m.popFloat()
		m.floatOp(op, a, b)

	default:
		m.syscall(op)
	}
}

func (m *Machine) intOp(op isa.Op, a, b int32) {
	switch op {
	case isa.IADD:
		m.pushInt(a + b)
	case isa.ISUB:
		m.pushInt(a - b)
	case isa.IMUL:
		m.pushInt(a * b)
	case isa.IDIV, isa.IMOD:
		if b == 0 {
			m.fault("division by zero")
		}
		if op == isa.IDIV {
			m.pushInt(a / b)
		} else {
			m.pushInt(a % b)
		}
	case isa.LAND:
		m.pushBool(a != 0 && b != 0)
	case isa.LOR:
		m.pushBool(a != 0 || b != 0)
	case isa.BAND:
		m.pushInt(a & b)
	case isa.BOR:
		m.pushInt(a | b)
	case isa.BXOR:
		m.pushInt(a ^ b)
	case isa.SHL:
		m.pushInt(a << uint32(b))
	case isa.SHR:
		m.pushInt(a >> uint32(b))
	case isa.IEQ:
		m.pushBool(a == b)
	case isa.INE:
		m.pushBool(a != b)
	case isa.IGT:
		m.pushBool(a > b)
	case isa.ILT:
		m.pushBool(a < b)
	case isa.IGE:
		m.pushBool(a >= b)
	case isa.ILE:
		m.pushBool(a <= b)
	}
}

func (m *Machine) floatOp(op isa.Op, a, b float32) {
	switch op {
	case isa.FADD:
		m.pushFloat(a + b)
	case isa.FSUB:
		m.pushFloat(a - b)
	case isa.FMUL:
		m.pushFloat(a * b)
	case isa.FDIV:
		m.pushFloat(a / b)
	case isa.FEQ:
		m.pushBool(a == b)
	case isa.FNE:
		m.pushBool(a != b)
	case isa.FGT:
		m.pushBool(a > b)
	case isa.FLT:
		m.pushBool(a < b)
	case isa.FGE:
		m.pushBool(a >= b)
	case isa.FLE:
		m.pushBool(a <= b)
	}
}

// truncate converts toward zero, saturating out-of-range values. NaN
// becomes 0.
func truncate(f float32) int32 {
	v := float64(f)
	switch {
	case math.IsNaN(v):
		return 0
	case v >= math.MaxInt32:
		return math.MaxInt32
	case v <= math.MinInt32:
		return math.MinInt32
	}
	return int32(v)
}

// syscall pops arguments in reverse order, as the firmware does.
func (m *Machine) syscall(op isa.Op) {
	r := m.robot
	switch op {
	case isa.DELAY:
		r.Delay(m.popInt())
	case isa.RST:
		r.Reset()
	case isa.WAIT:
		r.Wait()
	case isa.WAITJ:
		r.WaitJoint(m.popInt())
	case isa.MOVJ, isa.SETJ:
		angle := m.popFloat()
		id := m.popInt()
		if op == isa.MOVJ {
			r.MoveJoint(id, angle)
		} else {
			r.SetJoint(id, angle)
		}
	case isa.READJ:
		m.pushFloat(r.ReadJoint(m.popInt()))
	case isa.MOVOC, isa.SETOC:
		alpha := m.popFloat()
		z := m.popFloat()
		y := m.popFloat()
		x := m.popFloat()
		if op == isa.MOVOC {
			r.MoveOrth(x, y, z, alpha)
		} else {
			r.SetOrth(x, y, z, alpha)
		}
	case isa.MOVJC, isa.SETJC:
		var angles [6]float32
		for i := 5; i >= 0; i-- {
			angles[i] = m.popFloat()
		}
		if op == isa.MOVJC {
			r.MoveJoints(angles)
		} else {
			r.SetJoints(angles)
		}
	case isa.GRIPPER_OPEN:
		r.GripperOpen()
	case isa.GRIPPER_CLOSE:
		r.GripperClose()
	case isa.SETJSPD:
		speed := m.popFloat()
		id := m.popInt()
		r.SetJointSpeed(id, speed)
	case isa.OLEDI:
		length := m.popInt()
		num := m.popInt()
		col := m.popInt()
		row := m.popInt()
		r.ShowInt(row, col, num, length)
	case isa.PRINT:
		r.Print(m.popInt())
	default:
		m.fault("invalid operator")
	}
}

// Run steps until the program halts. A positive maxSteps bounds the
// number of instructions executed.
func (m *Machine) Run(maxSteps int) error {
	for !m.halted {
		if maxSteps > 0 && m.Steps >= maxSteps {
			return ErrStepLimit
		}
		if err := m.Step(); err != nil {
			return err
		}
	}
	return nil
}
