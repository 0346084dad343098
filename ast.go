package armc

import (
	"fmt"
	"strconv"
)

// Node is implemented by every AST node.
type Node interface {
	Pos() int // source line
}

// Decl is a top-level declaration: *FuncDecl or *VarDecl.
type Decl interface {
	Node
	declNode()
}

// Stmt is a statement: *VarDecl, *IfStmt, *WhileStmt, *LoopStmt,
// *ReturnStmt, *BreakStmt or *ExprStmt.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is an expression: *LiteralExpr, *VarExpr, *UnaryExpr, *BinaryExpr,
// *CallExpr, *SysCallExpr, *CastExpr or *TypeExpr.
type Expr interface {
	Node
	exprNode()
	Type() Type
}

type Program struct {
	Decls []Decl
}

type Param struct {
	Line  int
	Name  string
	Type  Type
	Const bool
	Sym   *Symbol
}

type FuncDecl struct {
	Line   int
	Name   string
	Sym    *Symbol
	Params []*Param
	Return Type
	Body   []Stmt

	// LocalCount is the number of local slots: parameters plus every
	// non-constant declaration in the body.
	LocalCount int
}

// VarDecl declares one variable or constant. Type is the declared type
// after inference.
type VarDecl struct {
	Line   int
	Name   string
	Sym    *Symbol
	Type   Type
	Init   Expr
	Const  bool
	Global bool
}

type IfStmt struct {
	Line int
	Cond Expr
	Then []Stmt
	Else []Stmt // nil without an else branch
}

type WhileStmt struct {
	Line int
	Cond Expr
	Body []Stmt
}

type LoopStmt struct {
	Line int
	Body []Stmt
}

type ReturnStmt struct {
	Line  int
	Value Expr // nil for a bare return
}

type BreakStmt struct {
	Line int
}

type ExprStmt struct {
	Line int
	X    Expr
}

type LiteralExpr struct {
	Line  int
	Typ   Type
	Int   int32
	Float float32
}

type VarExpr struct {
	Line int
	Sym  *Symbol
}

type UnaryExpr struct {
	Line int
	Op   Keyword // Sub, Not or Tilde
	X    Expr
	typ  Type
}

type BinaryExpr struct {
	Line  int
	Op    Keyword
	Left  Expr
	Right Expr
	typ   Type
}

type CallExpr struct {
	Line int
	Func *Symbol
	Args []Expr
}

type SysCallExpr struct {
	Line int
	Call Keyword
	Args []Expr
}

// CastExpr converts X to To. Implicit marks casts inserted by the analyzer.
type CastExpr struct {
	Line     int
	To       Type
	X        Expr
	Implicit bool
}

// TypeExpr is the type name on the right of `as`. It is never evaluated.
type TypeExpr struct {
	Line int
	To   Type
}

func (*FuncDecl) declNode() {}
func (*VarDecl) declNode()  {}

func (*VarDecl) stmtNode()    {}
func (*IfStmt) stmtNode()     {}
func (*WhileStmt) stmtNode()  {}
func (*LoopStmt) stmtNode()   {}
func (*ReturnStmt) stmtNode() {}
func (*BreakStmt) stmtNode()  {}
func (*ExprStmt) stmtNode()   {}

func (*LiteralExpr) exprNode() {}
func (*VarExpr) exprNode()     {}
func (*UnaryExpr) exprNode()   {}
func (*BinaryExpr) exprNode()  {}
func (*CallExpr) exprNode()    {}
func (*SysCallExpr) exprNode() {}
func (*CastExpr) exprNode()    {}
func (*TypeExpr) exprNode()    {}

func (n *Program) Pos() int     { return 1 }
func (n *FuncDecl) Pos() int    { return n.Line }
func (n *VarDecl) Pos() int     { return n.Line }
func (n *IfStmt) Pos() int      { return n.Line }
func (n *WhileStmt) Pos() int   { return n.Line }
func (n *LoopStmt) Pos() int    { return n.Line }
func (n *ReturnStmt) Pos() int  { return n.Line }
func (n *BreakStmt) Pos() int   { return n.Line }
func (n *ExprStmt) Pos() int    { return n.Line }
func (n *LiteralExpr) Pos() int { return n.Line }
func (n *VarExpr) Pos() int     { return n.Line }
func (n *UnaryExpr) Pos() int   { return n.Line }
func (n *BinaryExpr) Pos() int  { return n.Line }
func (n *CallExpr) Pos() int    { return n.Line }
func (n *SysCallExpr) Pos() int { return n.Line }
func (n *CastExpr) Pos() int    { return n.Line }
func (n *TypeExpr) Pos() int    { return n.Line }

func (e *LiteralExpr) Type() Type { return e.Typ }
func (e *VarExpr) Type() Type     { return e.Sym.Type }
func (e *UnaryExpr) Type() Type   { return e.typ }
func (e *BinaryExpr) Type() Type  { return e.typ }
func (e *CallExpr) Type() Type    { return e.Func.Return }
func (e *SysCallExpr) Type() Type { return syscalls[e.Call].result }
func (e *CastExpr) Type() Type    { return e.To }
func (e *TypeExpr) Type() Type    { return e.To }

func newUnary(line int, op Keyword, x Expr) *UnaryExpr {
	return &UnaryExpr{Line: line, Op: op, X: x, typ: unaryType(op, x.Type())}
}

func newBinary(line int, op Keyword, left, right Expr) *BinaryExpr {
	return &BinaryExpr{Line: line, Op: op, Left: left, Right: right, typ: binaryType(op, left.Type(), right.Type())}
}

// retype recomputes the cached type after the operands were rewritten.
func (e *UnaryExpr) retype()  { e.typ = unaryType(e.Op, e.X.Type()) }
func (e *BinaryExpr) retype() { e.typ = binaryType(e.Op, e.Left.Type(), e.Right.Type()) }

func intLiteral(line int, v int32) *LiteralExpr {
	return &LiteralExpr{Line: line, Typ: Int, Int: v}
}

func floatLiteral(line int, v float32) *LiteralExpr {
	return &LiteralExpr{Line: line, Typ: Float, Float: v}
}

// ToSExpr renders an AST node as an s-expression.
func ToSExpr(node Node) string {
	switch n := node.(type) {
	case *Program:
		result := "(program"
		for _, d := range n.Decls {
			result += " " + ToSExpr(d)
		}
		return result + ")"
	case *FuncDecl:
		params := "("
		for i, p := range n.Params {
			if i > 0 {
				params += " "
			}
			kind := "param"
			if p.Const {
				kind = "const-param"
			}
			params += "(" + kind + " " + strconv.Quote(p.Name) + " " + p.Type.String() + ")"
		}
		params += ")"
		return "(func " + strconv.Quote(n.Name) + " " + params + " " + n.Return.String() + " " + blockSExpr(n.Body) + ")"
	case *VarDecl:
		kind := "var"
		if n.Const {
			kind = "const"
		}
		result := "(" + kind + " " + strconv.Quote(n.Name) + " " + n.Type.String()
		if n.Init != nil {
			result += " " + ToSExpr(n.Init)
		}
		return result + ")"
	case *IfStmt:
		result := "(if " + ToSExpr(n.Cond) + " " + blockSExpr(n.Then)
		if n.Else != nil {
			result += " " + blockSExpr(n.Else)
		}
		return result + ")"
	case *WhileStmt:
		return "(while " + ToSExpr(n.Cond) + " " + blockSExpr(n.Body) + ")"
	case *LoopStmt:
		return "(loop " + blockSExpr(n.Body) + ")"
	case *ReturnStmt:
		if n.Value == nil {
			return "(return)"
		}
		return "(return " + ToSExpr(n.Value) + ")"
	case *BreakStmt:
		return "(break)"
	case *ExprStmt:
		return ToSExpr(n.X)
	case *LiteralExpr:
		if n.Typ == Float {
			return "(float " + formatFloat(n.Float) + ")"
		}
		return "(integer " + strconv.Itoa(int(n.Int)) + ")"
	case *VarExpr:
		return "(ident " + strconv.Quote(n.Sym.Name) + ")"
	case *UnaryExpr:
		return "(unary " + strconv.Quote(n.Op.String()) + " " + ToSExpr(n.X) + ")"
	case *BinaryExpr:
		return "(binary " + strconv.Quote(n.Op.String()) + " " + ToSExpr(n.Left) + " " + ToSExpr(n.Right) + ")"
	case *CallExpr:
		result := "(call " + strconv.Quote(n.Func.Name)
		for _, a := range n.Args {
			result += " " + ToSExpr(a)
		}
		return result + ")"
	case *SysCallExpr:
		result := "(syscall " + strconv.Quote(n.Call.String())
		for _, a := range n.Args {
			result += " " + ToSExpr(a)
		}
		return result + ")"
	case *CastExpr:
		kind := "cast"
		if n.Implicit {
			kind = "implicit-cast"
		}
		return "(" + kind + " " + n.To.String() + " " + ToSExpr(n.X) + ")"
	case *TypeExpr:
		return "(type " + n.To.String() + ")"
	}
	panic(fmt.Sprintf("ToSExpr: unexpected node %T", node))
}

func blockSExpr(stmts []Stmt) string {
	result := "(block"
	for _, s := range stmts {
		result += " " + ToSExpr(s)
	}
	return result + ")"
}
