package armc

import "fmt"

// parseFailure carries an error out of the recursive descent.
type parseFailure struct {
	err error
}

type parser struct {
	toks []Token
	pos  int
	syms *SymbolTable
	fn   *FuncDecl // function being parsed, nil at top level
}

// Parse builds the AST of a whole program. Identifiers are resolved while
// parsing, so the returned tree already references its symbols.
func Parse(toks []Token) (prog *Program, syms *SymbolTable, err error) {
	p := &parser{toks: toks, syms: NewSymbolTable()}
	defer func() {
		if r := recover(); r != nil {
			f, ok := r.(parseFailure)
			if !ok {
				panic(r)
			}
			prog, syms, err = nil, nil, f.err
		}
	}()
	prog = p.program()
	return prog, p.syms, nil
}

// parseExpression parses a standalone expression against syms.
func parseExpression(toks []Token, syms *SymbolTable) (e Expr, err error) {
	p := &parser{toks: toks, syms: syms}
	defer func() {
		if r := recover(); r != nil {
			f, ok := r.(parseFailure)
			if !ok {
				panic(r)
			}
			e, err = nil, f.err
		}
	}()
	e = p.expr(0)
	if !p.atEnd() {
		p.fail(p.cur().Line, "unexpected %s after expression", p.cur())
	}
	return e, nil
}

func (p *parser) atEnd() bool {
	return p.pos >= len(p.toks)
}

// cur returns the current token, or an empty keyword token on the last
// line once the input is exhausted.
func (p *parser) cur() Token {
	if p.atEnd() {
		line := 1
		if len(p.toks) > 0 {
			line = p.toks[len(p.toks)-1].Line
		}
		return Token{Kind: TokenKeyword, Keyword: KwNone, Line: line}
	}
	return p.toks[p.pos]
}

func (p *parser) describe(t Token) string {
	if p.atEnd() {
		return "end of input"
	}
	return fmt.Sprintf("%q", t.String())
}

func (p *parser) fail(line int, format string, args ...any) {
	panic(parseFailure{&ParseError{Line: line, Msg: fmt.Sprintf(format, args...)}})
}

func (p *parser) check(err error) {
	if err != nil {
		panic(parseFailure{err})
	}
}

func (p *parser) accept(k Keyword) bool {
	if p.cur().Is(k) {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expect(k Keyword) Token {
	t := p.cur()
	if !t.Is(k) {
		p.fail(t.Line, "expected %q, found %s", k.String(), p.describe(t))
	}
	p.pos++
	return t
}

func (p *parser) expectIdent() Token {
	t := p.cur()
	if t.Kind != TokenIdent || p.atEnd() {
		p.fail(t.Line, "expected identifier, found %s", p.describe(t))
	}
	p.pos++
	return t
}

func (p *parser) typeName() Type {
	t := p.cur()
	switch {
	case t.Is(KwInt):
		p.pos++
		return Int
	case t.Is(KwFloat):
		p.pos++
		return Float
	}
	p.fail(t.Line, "expected type, found %s", p.describe(t))
	return Auto
}

func (p *parser) program() *Program {
	prog := &Program{}
	for !p.atEnd() {
		t := p.cur()
		switch {
		case t.Is(KwFn):
			prog.Decls = append(prog.Decls, p.funcDecl())
		case t.Is(KwLet), t.Is(KwConst):
			for _, d := range p.varDecls() {
				prog.Decls = append(prog.Decls, d)
			}
		default:
			p.fail(t.Line, "expected fn, let or const at top level, found %s", p.describe(t))
		}
	}
	return prog
}

func (p *parser) funcDecl() *FuncDecl {
	line := p.expect(KwFn).Line
	name := p.expectIdent()
	sym := &Symbol{Name: name.Name, Hash: name.Hash, Kind: SymFunction, Line: name.Line, Offset: -1, Return: Void}
	p.check(p.syms.Declare(sym))
	fn := &FuncDecl{Line: line, Name: name.Name, Sym: sym, Return: Void}

	p.expect(LParen)
	p.syms.Push()
	defer p.syms.Pop()
	if !p.accept(RParen) {
		for {
			param := p.param()
			fn.Params = append(fn.Params, param)
			sym.Params = append(sym.Params, param.Type)
			if p.accept(Comma) {
				continue
			}
			p.expect(RParen)
			break
		}
	}
	fn.LocalCount = len(fn.Params)
	if p.accept(Arrow) {
		fn.Return = p.typeName()
		sym.Return = fn.Return
	}

	outer := p.fn
	p.fn = fn
	fn.Body = p.block()
	p.fn = outer
	return fn
}

func (p *parser) param() *Param {
	name := p.expectIdent()
	p.expect(Colon)
	isConst := p.accept(KwConst)
	typ := p.typeName()
	sym := &Symbol{
		Name:    name.Name,
		Hash:    name.Hash,
		Kind:    SymVariable,
		Type:    typ,
		Const:   isConst,
		Storage: StorageLocal,
		Offset:  -1,
		Line:    name.Line,
	}
	p.check(p.syms.Declare(sym))
	return &Param{Line: name.Line, Name: name.Name, Type: typ, Const: isConst, Sym: sym}
}

// varDecls parses `let a[: T] [= e], b ...;` or `const [let] a[: T] = e;`.
func (p *parser) varDecls() []*VarDecl {
	isConst := p.accept(KwConst)
	if isConst {
		p.accept(KwLet)
	} else {
		p.expect(KwLet)
	}

	var decls []*VarDecl
	for {
		name := p.expectIdent()
		typ := Auto
		if p.accept(Colon) {
			typ = p.typeName()
		}
		var init Expr
		if p.accept(Assign) {
			init = p.expr(0)
		}
		if init == nil {
			if isConst {
				p.fail(name.Line, "constant %s needs an initializer", name.Name)
			}
			if typ == Auto {
				p.fail(name.Line, "declaration of %s needs a type or an initializer", name.Name)
			}
		}
		if typ == Auto {
			typ = init.Type()
		}

		sym := &Symbol{Name: name.Name, Hash: name.Hash, Type: typ, Const: isConst, Line: name.Line, Offset: -1}
		d := &VarDecl{Line: name.Line, Name: name.Name, Sym: sym, Type: typ, Init: init, Const: isConst}
		switch {
		case isConst:
			sym.Kind = SymConstant
			sym.Storage = StorageConst
			d.Global = true
			p.check(p.syms.DeclareGlobal(sym))
		case p.fn == nil:
			sym.Storage = StorageGlobal
			d.Global = true
			p.check(p.syms.Declare(sym))
		default:
			sym.Storage = StorageLocal
			p.fn.LocalCount++
			p.check(p.syms.Declare(sym))
		}
		decls = append(decls, d)

		if !p.accept(Comma) {
			break
		}
	}
	p.expect(Semicolon)
	return decls
}

// block parses `{ stmts }` in the current scope.
func (p *parser) block() []Stmt {
	p.expect(LBrace)
	stmts := []Stmt{}
	for !p.cur().Is(RBrace) {
		if p.atEnd() {
			p.fail(p.cur().Line, "expected \"}\", found end of input")
		}
		stmts = p.statement(stmts)
	}
	p.pos++
	return stmts
}

// scopedBlock parses a block inside a fresh scope.
func (p *parser) scopedBlock() []Stmt {
	p.syms.Push()
	defer p.syms.Pop()
	return p.block()
}

// statement appends the statements produced by the next construct to out.
// Nested blocks are flattened into the enclosing list.
func (p *parser) statement(out []Stmt) []Stmt {
	t := p.cur()
	switch {
	case t.Is(LBrace):
		return append(out, p.scopedBlock()...)
	case t.Is(KwLet), t.Is(KwConst):
		for _, d := range p.varDecls() {
			out = append(out, d)
		}
		return out
	case t.Is(KwIf):
		return append(out, p.ifStmt())
	case t.Is(KwWhile):
		p.pos++
		cond := p.expr(0)
		return append(out, &WhileStmt{Line: t.Line, Cond: cond, Body: p.scopedBlock()})
	case t.Is(KwLoop):
		p.pos++
		return append(out, &LoopStmt{Line: t.Line, Body: p.scopedBlock()})
	case t.Is(KwBreak):
		p.pos++
		p.expect(Semicolon)
		return append(out, &BreakStmt{Line: t.Line})
	case t.Is(KwReturn):
		p.pos++
		ret := &ReturnStmt{Line: t.Line}
		if !p.cur().Is(Semicolon) {
			ret.Value = p.expr(0)
		}
		p.expect(Semicolon)
		return append(out, ret)
	}
	x := p.expr(0)
	p.expect(Semicolon)
	return append(out, &ExprStmt{Line: t.Line, X: x})
}

func (p *parser) ifStmt() *IfStmt {
	line := p.expect(KwIf).Line
	s := &IfStmt{Line: line, Cond: p.expr(0)}
	s.Then = p.scopedBlock()
	if p.accept(KwElse) {
		if p.cur().Is(KwIf) {
			s.Else = []Stmt{p.ifStmt()}
		} else {
			s.Else = p.scopedBlock()
		}
	}
	return s
}

// bindingPower returns the left binding power of a binary operator, or 0
// if k does not continue an expression.
func bindingPower(k Keyword) int {
	switch k {
	case Assign, AddAssign, SubAssign, MulAssign, DivAssign, ModAssign,
		AndAssign, OrAssign, XorAssign, ShlAssign, ShrAssign:
		return 10
	case OrOr:
		return 20
	case AndAnd:
		return 30
	case Or:
		return 40
	case Xor:
		return 50
	case And:
		return 60
	case Eq, NotEq:
		return 70
	case Less, LessEq, Greater, GreaterEq:
		return 80
	case Shl, Shr:
		return 90
	case Add, Sub:
		return 100
	case Mul, Div, Mod:
		return 110
	case KwAs:
		return 120
	}
	return 0
}

const unaryPower = 120

// expr parses an expression whose operators all bind tighter than minBP.
func (p *parser) expr(minBP int) Expr {
	left := p.unary()
	for {
		t := p.cur()
		if t.Kind != TokenKeyword || p.atEnd() {
			return left
		}
		bp := bindingPower(t.Keyword)
		if bp == 0 || bp <= minBP {
			return left
		}
		p.pos++
		if t.Keyword == KwAs {
			to := p.typeName()
			left = newBinary(t.Line, KwAs, left, &TypeExpr{Line: t.Line, To: to})
			continue
		}
		rbp := bp
		if isAssignOp(t.Keyword) {
			rbp = bp - 1
		}
		right := p.expr(rbp)
		left = newBinary(t.Line, t.Keyword, left, right)
	}
}

func (p *parser) unary() Expr {
	t := p.cur()
	if t.Is(Sub) || t.Is(Not) || t.Is(Tilde) {
		p.pos++
		return newUnary(t.Line, t.Keyword, p.expr(unaryPower))
	}
	return p.primary()
}

func (p *parser) primary() Expr {
	t := p.cur()
	if p.atEnd() {
		p.fail(t.Line, "expected expression, found end of input")
	}
	switch {
	case t.Kind == TokenLiteral:
		p.pos++
		return &LiteralExpr{Line: t.Line, Typ: t.Type, Int: t.Int, Float: t.Float}
	case t.Kind == TokenIdent:
		p.pos++
		sym := p.syms.lookup(t.Name, t.Hash)
		if sym == nil {
			panic(parseFailure{&UndefinedSymbolError{Line: t.Line, Name: t.Name}})
		}
		if sym.Kind == SymFunction {
			if !p.cur().Is(LParen) {
				p.fail(t.Line, "function %s used without a call", t.Name)
			}
			return &CallExpr{Line: t.Line, Func: sym, Args: p.args()}
		}
		return &VarExpr{Line: t.Line, Sym: sym}
	case t.Is(LParen):
		p.pos++
		e := p.expr(0)
		p.expect(RParen)
		return e
	case t.Kind == TokenKeyword && t.Keyword.IsSyscall():
		p.pos++
		return &SysCallExpr{Line: t.Line, Call: t.Keyword, Args: p.args()}
	}
	p.fail(t.Line, "expected expression, found %s", p.describe(t))
	return nil
}

// args parses a parenthesised, comma-separated argument list.
func (p *parser) args() []Expr {
	p.expect(LParen)
	args := []Expr{}
	if p.accept(RParen) {
		return args
	}
	for {
		args = append(args, p.expr(0))
		if p.accept(Comma) {
			continue
		}
		p.expect(RParen)
		return args
	}
}
