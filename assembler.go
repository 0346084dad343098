package armc

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/strager/armc/isa"
)

const (
	// maxLocals is the largest frame ENTER's one-byte operand can reserve.
	maxLocals = math.MaxUint8
	// maxArgs is the largest argument count CALL's one-byte operand holds.
	maxArgs = math.MaxUint8
)

type asmFailure struct {
	err error
}

type assembler struct {
	unit *Unit
	out  *[]Instruction

	info      *FuncInfo
	nextLocal int
	loopEnds  []string
}

// Assemble lowers an examined program to symbolic instructions. Storage
// offsets are assigned to every symbol on the way.
func Assemble(prog *Program) (unit *Unit, err error) {
	a := &assembler{unit: &Unit{Labels: NewLabelTable(), Debug: newDebugInfo()}}
	defer func() {
		if r := recover(); r != nil {
			f, ok := r.(asmFailure)
			if !ok {
				panic(r)
			}
			unit, err = nil, f.err
		}
	}()

	for _, d := range prog.Decls {
		switch d := d.(type) {
		case *VarDecl:
			a.out = &a.unit.Startup
			a.globalDecl(d)
		case *FuncDecl:
			a.out = &a.unit.Code
			a.funcDecl(d)
		default:
			panic(fmt.Sprintf("assemble: unexpected declaration %T", d))
		}
	}
	a.out = &a.unit.Startup
	a.emit(isa.CALL, Ref("main"), U8(0))
	a.emit(isa.HALT)
	return a.unit, nil
}

func (a *assembler) fail(err error) {
	panic(asmFailure{err})
}

func (a *assembler) emit(op isa.Op, args ...Operand) {
	*a.out = append(*a.out, Instruction{Op: op, Args: args})
}

func (a *assembler) label(name string) {
	a.emit(isa.LABEL, Ref(name))
}

func (a *assembler) constant(d *VarDecl) {
	lit, ok := d.Init.(*LiteralExpr)
	if !ok {
		panic(fmt.Sprintf("assemble: constant %s was not folded", d.Name))
	}
	c := Constant{Type: d.Type, Int: lit.Int, Float: lit.Float}
	d.Sym.Offset = len(a.unit.Constants)
	a.unit.Constants = append(a.unit.Constants, c)
	a.unit.Debug.Constants[d.Name] = ConstInfo{Type: c.Type, Value: jsonNumber(c), Offset: d.Sym.Offset}
}

func (a *assembler) globalDecl(d *VarDecl) {
	if d.Const {
		a.constant(d)
		return
	}
	d.Sym.Offset = a.unit.Globals
	a.unit.Globals++
	a.unit.Debug.Globals[d.Name] = VarInfo{Type: d.Type, Offset: d.Sym.Offset}
	if d.Init != nil {
		a.expr(d.Init, true)
		a.emit(isa.STORG, U16(d.Sym.Offset))
	}
}

func (a *assembler) funcDecl(fn *FuncDecl) {
	if fn.LocalCount > maxLocals {
		a.fail(&CapacityError{Region: "locals of " + fn.Name, Size: fn.LocalCount, Limit: maxLocals})
	}
	a.info = &FuncInfo{Return: fn.Return, Params: len(fn.Params), LocalCount: fn.LocalCount, Locals: []LocalInfo{}}
	a.unit.Debug.Functions[fn.Name] = a.info
	a.nextLocal = 0
	a.loopEnds = nil

	a.unit.Labels.Add(fn.Name)
	a.label(fn.Name)
	a.emit(isa.ENTER, U8(fn.LocalCount))
	for _, p := range fn.Params {
		a.local(p.Sym)
	}
	a.stmts(fn.Body)
	if fn.Return == Void {
		code := *a.out
		if code[len(code)-1].Op != isa.RET0 {
			a.emit(isa.RET0)
		}
	}
	a.info = nil
}

// local assigns the next frame slot to sym.
func (a *assembler) local(sym *Symbol) {
	sym.Offset = a.nextLocal
	a.nextLocal++
	a.info.Locals = append(a.info.Locals, LocalInfo{Name: sym.Name, Type: sym.Type, Offset: sym.Offset})
}

func (a *assembler) stmts(stmts []Stmt) {
	for _, s := range stmts {
		a.stmt(s)
	}
}

func (a *assembler) stmt(s Stmt) {
	switch s := s.(type) {
	case *VarDecl:
		if s.Const {
			a.constant(s)
			return
		}
		a.local(s.Sym)
		if s.Init != nil {
			a.expr(s.Init, true)
			a.emit(isa.STORL, U8(s.Sym.Offset))
		}
	case *IfStmt:
		elseLabel := a.unit.Labels.New("if_else")
		endLabel := a.unit.Labels.New("if_end")
		a.expr(s.Cond, true)
		a.emit(isa.JZ, Ref(elseLabel))
		a.stmts(s.Then)
		if s.Else != nil {
			a.emit(isa.JMP, Ref(endLabel))
		}
		a.label(elseLabel)
		a.stmts(s.Else)
		a.label(endLabel)
	case *WhileStmt:
		endLabel := a.unit.Labels.New("while_end")
		beginLabel := a.unit.Labels.New("while_begin")
		a.label(beginLabel)
		a.expr(s.Cond, true)
		a.emit(isa.JZ, Ref(endLabel))
		a.loopBody(s.Body, endLabel)
		a.emit(isa.JMP, Ref(beginLabel))
		a.label(endLabel)
	case *LoopStmt:
		beginLabel := a.unit.Labels.New("loop_begin")
		endLabel := a.unit.Labels.New("loop_end")
		a.label(beginLabel)
		a.loopBody(s.Body, endLabel)
		a.emit(isa.JMP, Ref(beginLabel))
		a.label(endLabel)
	case *ReturnStmt:
		if s.Value == nil {
			a.emit(isa.RET0)
			return
		}
		a.expr(s.Value, true)
		a.emit(isa.RET)
	case *BreakStmt:
		if len(a.loopEnds) == 0 {
			panic("assemble: break outside of a loop")
		}
		a.emit(isa.JMP, Ref(a.loopEnds[len(a.loopEnds)-1]))
	case *ExprStmt:
		a.expr(s.X, false)
	default:
		panic(fmt.Sprintf("assemble: unexpected statement %T", s))
	}
}

func (a *assembler) loopBody(body []Stmt, end string) {
	a.loopEnds = append(a.loopEnds, end)
	a.stmts(body)
	a.loopEnds = a.loopEnds[:len(a.loopEnds)-1]
}

func (a *assembler) load(sym *Symbol) {
	switch sym.Storage {
	case StorageConst:
		a.emit(isa.LOADK, U16(sym.Offset))
	case StorageGlobal:
		a.emit(isa.LOADG, U16(sym.Offset))
	case StorageLocal:
		a.emit(isa.LOADL, U8(sym.Offset))
	default:
		panic(fmt.Sprintf("assemble: %s has no storage", sym.Name))
	}
}

func (a *assembler) store(sym *Symbol) {
	switch sym.Storage {
	case StorageGlobal:
		a.emit(isa.STORG, U16(sym.Offset))
	case StorageLocal:
		a.emit(isa.STORL, U8(sym.Offset))
	default:
		panic(fmt.Sprintf("assemble: cannot store to %s", sym.Name))
	}
}

// expr emits code for e. Every value-producing expression pushes exactly
// one value; if keep is false that value is popped again.
func (a *assembler) expr(e Expr, keep bool) {
	switch e := e.(type) {
	case *BinaryExpr:
		if isAssignOp(e.Op) {
			a.assign(e, keep)
			return
		}
	case *CallExpr, *SysCallExpr:
		a.call(e)
		if !keep && e.Type() != Void {
			a.emit(isa.POP)
		}
		return
	}
	a.value(e)
	if !keep {
		a.emit(isa.POP)
	}
}

func (a *assembler) value(e Expr) {
	switch e := e.(type) {
	case *LiteralExpr:
		if e.Typ == Float {
			a.emit(isa.IMMF, F32(e.Float))
		} else {
			a.emit(isa.IMMI, U32(e.Int))
		}
	case *VarExpr:
		a.load(e.Sym)
	case *UnaryExpr:
		a.value(e.X)
		switch {
		case e.Op == Sub && e.Type() == Float:
			a.emit(isa.FNEG)
		case e.Op == Sub:
			a.emit(isa.INEG)
		case e.Op == Not:
			a.emit(isa.LNOT)
		case e.Op == Tilde:
			a.emit(isa.BNOT)
		default:
			panic(fmt.Sprintf("assemble: unexpected unary operator %s", e.Op))
		}
	case *BinaryExpr:
		if isAssignOp(e.Op) {
			a.assign(e, true)
			return
		}
		a.value(e.Left)
		a.value(e.Right)
		a.emit(binaryOp(e.Op, e.Left.Type()))
	case *CallExpr, *SysCallExpr:
		a.call(e)
	case *CastExpr:
		a.value(e.X)
		switch from := e.X.Type(); {
		case from == Int && e.To == Float:
			a.emit(isa.I2F)
		case from == Float && e.To == Int:
			a.emit(isa.F2I)
		}
	default:
		panic(fmt.Sprintf("assemble: unexpected expression %T", e))
	}
}

func (a *assembler) assign(e *BinaryExpr, keep bool) {
	sym := e.Left.(*VarExpr).Sym
	if base := compoundBase(e.Op); base != KwNone {
		a.load(sym)
		a.value(e.Right)
		a.emit(binaryOp(base, sym.Type))
	} else {
		a.value(e.Right)
	}
	a.store(sym)
	if keep {
		a.load(sym)
	}
}

func (a *assembler) call(e Expr) {
	switch e := e.(type) {
	case *CallExpr:
		if len(e.Args) > maxArgs {
			a.fail(&CapacityError{Region: "arguments of " + e.Func.Name, Size: len(e.Args), Limit: maxArgs})
		}
		for _, arg := range e.Args {
			a.value(arg)
		}
		a.emit(isa.CALL, Ref(e.Func.Name), U8(len(e.Args)))
	case *SysCallExpr:
		for _, arg := range e.Args {
			a.value(arg)
		}
		a.emit(syscallOps[e.Call])
	}
}

var syscallOps = map[Keyword]isa.Op{
	KwDelay:         isa.DELAY,
	KwReset:         isa.RST,
	KwWait:          isa.WAIT,
	KwWaitJoint:     isa.WAITJ,
	KwMovJoint:      isa.MOVJ,
	KwSetJoint:      isa.SETJ,
	KwReadJoint:     isa.READJ,
	KwMovOrthCoord:  isa.MOVOC,
	KwSetOrthCoord:  isa.SETOC,
	KwMovJointCoord: isa.MOVJC,
	KwSetJointCoord: isa.SETJC,
	KwGripperOpen:   isa.GRIPPER_OPEN,
	KwGripperClose:  isa.GRIPPER_CLOSE,
	KwSetJointSpeed: isa.SETJSPD,
	KwOledShowInt:   isa.OLEDI,
	KwPrint:         isa.PRINT,
}

// binaryOp selects the opcode for op applied to operands of type t.
func binaryOp(op Keyword, t Type) isa.Op {
	if t == Float {
		switch op {
		case Add:
			return isa.FADD
		case Sub:
			return isa.FSUB
		case Mul:
			return isa.FMUL
		case Div:
			return isa.FDIV
		case Eq:
			return isa.FEQ
		case NotEq:
			return isa.FNE
		case Greater:
			return isa.FGT
		case Less:
			return isa.FLT
		case GreaterEq:
			return isa.FGE
		case LessEq:
			return isa.FLE
		}
	}
	switch op {
	case Add:
		return isa.IADD
	case Sub:
		return isa.ISUB
	case Mul:
		return isa.IMUL
	case Div:
		return isa.IDIV
	case Mod:
		return isa.IMOD
	case And:
		return isa.BAND
	case Or:
		return isa.BOR
	case Xor:
		return isa.BXOR
	case Shl:
		return isa.SHL
	case Shr:
		return isa.SHR
	case AndAnd:
		return isa.LAND
	case OrOr:
		return isa.LOR
	case Eq:
		return isa.IEQ
	case NotEq:
		return isa.INE
	case Greater:
		return isa.IGT
	case Less:
		return isa.ILT
	case GreaterEq:
		return isa.IGE
	case LessEq:
		return isa.ILE
	}
	panic(fmt.Sprintf("assemble: no %s instruction for %s", t, op))
}

func jsonNumber(c Constant) json.Number {
	if c.Type == Float && (math.IsNaN(float64(c.Float)) || math.IsInf(float64(c.Float), 0)) {
		return "0"
	}
	return json.Number(c.value())
}
