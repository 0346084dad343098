package armc

import (
	"fmt"
)

type checker struct {
	syms  *SymbolTable
	fn    *FuncDecl
	loops int
	diags []Diagnostic
}

// Examine checks a parsed program and rewrites it in place: implicit casts
// become explicit *CastExpr nodes and constant subtrees become literals.
// It returns the advisory diagnostics collected along the way.
func Examine(prog *Program, syms *SymbolTable) ([]Diagnostic, error) {
	c := &checker{syms: syms}
	if err := c.entry(); err != nil {
		return nil, err
	}
	for _, d := range prog.Decls {
		var err error
		switch d := d.(type) {
		case *FuncDecl:
			err = c.funcDecl(d)
		case *VarDecl:
			err = c.varDecl(d)
		default:
			panic(fmt.Sprintf("examine: unexpected declaration %T", d))
		}
		if err != nil {
			return nil, err
		}
	}
	return c.diags, nil
}

func (c *checker) entry() error {
	sym := c.syms.Global("main")
	if sym == nil {
		return &SemanticError{Rule: RuleNoEntry, Msg: "no entry function main"}
	}
	if sym.Kind != SymFunction {
		return &SemanticError{Rule: RuleBadEntry, Line: sym.Line, Msg: "main must be a function"}
	}
	if len(sym.Params) != 0 || sym.Return != Void {
		return &SemanticError{Rule: RuleBadEntry, Line: sym.Line, Msg: "main must take no parameters and return nothing"}
	}
	return nil
}

func (c *checker) hint(kind DiagnosticKind, line int, format string, args ...any) {
	c.diags = append(c.diags, Diagnostic{Kind: kind, Line: line, Msg: fmt.Sprintf(format, args...)})
}

func (c *checker) funcDecl(fn *FuncDecl) error {
	c.fn = fn
	c.loops = 0
	defer func() { c.fn = nil }()
	if err := c.stmts(fn.Body); err != nil {
		return err
	}
	if fn.Return != Void && !returns(fn.Body) {
		return &SemanticError{
			Rule: RuleMissingReturn,
			Line: fn.Line,
			Msg:  fmt.Sprintf("function %s does not return a value on every path", fn.Name),
		}
	}
	return nil
}

// returns reports whether every path through stmts reaches a return.
// Loops never count: their bodies may not run, and they need not end.
func returns(stmts []Stmt) bool {
	for _, s := range stmts {
		switch s := s.(type) {
		case *ReturnStmt:
			return true
		case *IfStmt:
			if s.Else != nil && returns(s.Then) && returns(s.Else) {
				return true
			}
		}
	}
	return false
}

func (c *checker) varDecl(d *VarDecl) error {
	if d.Init == nil {
		return nil
	}
	init, err := c.value(d.Init)
	if err != nil {
		return err
	}
	init, err = c.convert(init, d.Type, "initialiser of "+d.Name)
	if err != nil {
		return err
	}
	d.Init = init
	if _, ok := init.(*LiteralExpr); d.Const && !ok {
		return &SemanticError{Rule: RuleConstNotLiteral, Line: d.Line, Msg: fmt.Sprintf("constant %s is not a literal", d.Name)}
	}
	return nil
}

func (c *checker) stmts(stmts []Stmt) error {
	for _, s := range stmts {
		if err := c.stmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (c *checker) stmt(s Stmt) error {
	switch s := s.(type) {
	case *VarDecl:
		return c.varDecl(s)
	case *IfStmt:
		cond, err := c.condition(s.Cond)
		if err != nil {
			return err
		}
		s.Cond = cond
		if err := c.stmts(s.Then); err != nil {
			return err
		}
		return c.stmts(s.Else)
	case *WhileStmt:
		cond, err := c.condition(s.Cond)
		if err != nil {
			return err
		}
		s.Cond = cond
		c.loops++
		defer func() { c.loops-- }()
		return c.stmts(s.Body)
	case *LoopStmt:
		c.loops++
		defer func() { c.loops-- }()
		return c.stmts(s.Body)
	case *ReturnStmt:
		return c.returnStmt(s)
	case *BreakStmt:
		if c.loops == 0 {
			return &SemanticError{Rule: RuleBreakOutsideLoop, Line: s.Line, Msg: "break outside of a loop"}
		}
		return nil
	case *ExprStmt:
		x, err := c.expr(s.X)
		if err != nil {
			return err
		}
		s.X = x
		return nil
	}
	panic(fmt.Sprintf("examine: unexpected statement %T", s))
}

func (c *checker) returnStmt(s *ReturnStmt) error {
	want := c.fn.Return
	if s.Value == nil {
		if want != Void {
			return &SemanticError{Rule: RuleReturnWithoutValue, Line: s.Line, Msg: fmt.Sprintf("%s must return a %s", c.fn.Name, want)}
		}
		return nil
	}
	if want == Void {
		return &SemanticError{Rule: RuleReturnValueInVoid, Line: s.Line, Msg: fmt.Sprintf("%s returns nothing but a value is returned", c.fn.Name)}
	}
	v, err := c.value(s.Value)
	if err != nil {
		return err
	}
	s.Value, err = c.convert(v, want, "return value")
	return err
}

// condition checks an if or while condition, which must be an int.
func (c *checker) condition(e Expr) (Expr, error) {
	e, err := c.value(e)
	if err != nil {
		return nil, err
	}
	return c.convert(e, Int, "condition")
}

// value checks e in a context that consumes its result.
func (c *checker) value(e Expr) (Expr, error) {
	e, err := c.expr(e)
	if err != nil {
		return nil, err
	}
	if e.Type() == Void {
		return nil, &SemanticError{Rule: RuleVoidValue, Line: e.Pos(), Msg: "void value used as an operand"}
	}
	return e, nil
}

// convert casts e to the target type, recording a hint when a cast is
// inserted.
func (c *checker) convert(e Expr, to Type, context string) (Expr, error) {
	from := e.Type()
	if from == to {
		return e, nil
	}
	c.hint(HintCast, e.Pos(), "implicit cast %s -> %s in %s", from, to, context)
	return c.reduce(&CastExpr{Line: e.Pos(), To: to, X: e, Implicit: true})
}

// reduce folds e when its operands are literals.
func (c *checker) reduce(e Expr) (Expr, error) {
	lit, err := fold(e)
	if err != nil {
		return nil, err
	}
	if lit == nil {
		return e, nil
	}
	if _, ok := e.(*BinaryExpr); ok {
		c.hint(HintFold, e.Pos(), "folded %s to %s", ToSExpr(e), ToSExpr(lit))
	}
	return lit, nil
}

func (c *checker) expr(e Expr) (Expr, error) {
	switch e := e.(type) {
	case *LiteralExpr, *VarExpr:
		return e, nil
	case *UnaryExpr:
		return c.unary(e)
	case *BinaryExpr:
		return c.binary(e)
	case *CallExpr:
		args, err := c.args(e.Line, e.Func.Name, e.Args, e.Func.Params)
		if err != nil {
			return nil, err
		}
		e.Args = args
		return e, nil
	case *SysCallExpr:
		args, err := c.args(e.Line, e.Call.String(), e.Args, syscalls[e.Call].params)
		if err != nil {
			return nil, err
		}
		e.Args = args
		return e, nil
	case *CastExpr:
		x, err := c.value(e.X)
		if err != nil {
			return nil, err
		}
		e.X = x
		return c.reduce(e)
	case *TypeExpr:
		panic("examine: type expression outside of a cast")
	}
	panic(fmt.Sprintf("examine: unexpected expression %T", e))
}

func (c *checker) args(line int, name string, args []Expr, params []Type) ([]Expr, error) {
	if len(args) != len(params) {
		return nil, &SemanticError{
			Rule: RuleArgCount,
			Line: line,
			Msg:  fmt.Sprintf("%s takes %d arguments, got %d", name, len(params), len(args)),
		}
	}
	for i, a := range args {
		a, err := c.value(a)
		if err != nil {
			return nil, err
		}
		args[i], err = c.convert(a, params[i], fmt.Sprintf("argument %d of %s", i+1, name))
		if err != nil {
			return nil, err
		}
	}
	return args, nil
}

func (c *checker) unary(e *UnaryExpr) (Expr, error) {
	x, err := c.value(e.X)
	if err != nil {
		return nil, err
	}
	e.X = x
	if e.Op != Sub && x.Type() != Int {
		return nil, &TypeError{Line: e.Line, Op: e.Op, Left: x.Type()}
	}
	e.retype()
	return c.reduce(e)
}

func (c *checker) binary(e *BinaryExpr) (Expr, error) {
	if e.Op == KwAs {
		x, err := c.value(e.Left)
		if err != nil {
			return nil, err
		}
		return c.reduce(&CastExpr{Line: e.Line, To: e.Right.(*TypeExpr).To, X: x})
	}
	if isAssignOp(e.Op) {
		return c.assign(e)
	}

	left, err := c.value(e.Left)
	if err != nil {
		return nil, err
	}
	right, err := c.value(e.Right)
	if err != nil {
		return nil, err
	}
	lt, rt := left.Type(), right.Type()

	switch {
	case isArithmetic(e.Op) || isRelational(e.Op):
		if lt != rt {
			what := fmt.Sprintf("operand of %s", e.Op)
			if left, err = c.convert(left, Float, what); err != nil {
				return nil, err
			}
			if right, err = c.convert(right, Float, what); err != nil {
				return nil, err
			}
		}
	case isIntegerOnly(e.Op):
		if lt != Int || rt != Int {
			return nil, &TypeError{Line: e.Line, Op: e.Op, Left: lt, Right: rt}
		}
	case isEquality(e.Op):
		if lt != rt {
			return nil, &SemanticError{
				Rule: RuleEquality,
				Line: e.Line,
				Msg:  fmt.Sprintf("cannot compare %s with %s", lt, rt),
			}
		}
	default:
		panic(fmt.Sprintf("examine: unexpected binary operator %s", e.Op))
	}

	e.Left, e.Right = left, right
	e.retype()
	return c.reduce(e)
}

func (c *checker) assign(e *BinaryExpr) (Expr, error) {
	target, ok := e.Left.(*VarExpr)
	if !ok {
		return nil, &SemanticError{Rule: RuleAssignTarget, Line: e.Line, Msg: fmt.Sprintf("left side of %s is not a variable", e.Op)}
	}
	if target.Sym.Const || target.Sym.Kind == SymConstant {
		return nil, &SemanticError{Rule: RuleAssignConst, Line: e.Line, Msg: fmt.Sprintf("cannot assign to constant %s", target.Sym.Name)}
	}
	right, err := c.value(e.Right)
	if err != nil {
		return nil, err
	}
	lt := target.Type()
	if base := compoundBase(e.Op); base != KwNone && isIntegerOnly(base) {
		if lt != Int || right.Type() != Int {
			return nil, &TypeError{Line: e.Line, Op: e.Op, Left: lt, Right: right.Type()}
		}
	} else if right, err = c.convert(right, lt, "assignment to "+target.Sym.Name); err != nil {
		return nil, err
	}
	e.Right = right
	e.retype()
	return e, nil
}
