package armc

import (
	"errors"
	"testing"

	"github.com/nalgeon/be"
)

// exprSyms declares the names the expression tests refer to.
func exprSyms() *SymbolTable {
	syms := NewSymbolTable()
	for _, sym := range []*Symbol{
		{Name: "x", Kind: SymVariable, Type: Int, Offset: -1},
		{Name: "y", Kind: SymVariable, Type: Int, Offset: -1},
		{Name: "a", Kind: SymVariable, Type: Int, Offset: -1},
		{Name: "b", Kind: SymVariable, Type: Int, Offset: -1},
		{Name: "c", Kind: SymVariable, Type: Int, Offset: -1},
		{Name: "f", Kind: SymVariable, Type: Float, Offset: -1},
		{Name: "add", Kind: SymFunction, Params: []Type{Int, Int}, Return: Int, Offset: -1},
	} {
		if err := syms.Declare(sym); err != nil {
			panic(err)
		}
	}
	return syms
}

func parseExpr(t *testing.T, input string) (Expr, error) {
	t.Helper()
	toks, err := Tokenize(input)
	be.Err(t, err, nil)
	return parseExpression(toks, exprSyms())
}

func TestParseExpressions(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"42", "(integer 42)"},
		{"1.5", "(float 1.5)"},
		{"2.0", "(float 2.0)"},
		{"x", `(ident "x")`},
		{"1 + 2", `(binary "+" (integer 1) (integer 2))`},
		{"1 + 2 * 3", `(binary "+" (integer 1) (binary "*" (integer 2) (integer 3)))`},
		{"(1 + 2) * 3", `(binary "*" (binary "+" (integer 1) (integer 2)) (integer 3))`},
		{"10 - 4 - 3", `(binary "-" (binary "-" (integer 10) (integer 4)) (integer 3))`},
		{"-x * y", `(binary "*" (unary "-" (ident "x")) (ident "y"))`},
		{"!~x", `(unary "!" (unary "~" (ident "x")))`},
		{"x = y = 3", `(binary "=" (ident "x") (binary "=" (ident "y") (integer 3)))`},
		{"x += 2", `(binary "+=" (ident "x") (integer 2))`},
		{"x <<= y + 1", `(binary "<<=" (ident "x") (binary "+" (ident "y") (integer 1)))`},
		{"a || b && c", `(binary "||" (ident "a") (binary "&&" (ident "b") (ident "c")))`},
		{"a | b ^ c & x", `(binary "|" (ident "a") (binary "^" (ident "b") (binary "&" (ident "c") (ident "x"))))`},
		{"x & 1 == 1", `(binary "&" (ident "x") (binary "==" (integer 1) (integer 1)))`},
		{"x < y == 1", `(binary "==" (binary "<" (ident "x") (ident "y")) (integer 1))`},
		{"1 << 2 + 3", `(binary "<<" (integer 1) (binary "+" (integer 2) (integer 3)))`},
		{"x % 2 * 3", `(binary "*" (binary "%" (ident "x") (integer 2)) (integer 3))`},
		{"x as float + f", `(binary "+" (binary "as" (ident "x") (type float)) (ident "f"))`},
		{"-f as int", `(binary "as" (unary "-" (ident "f")) (type int))`},
		{"add(1, x)", `(call "add" (integer 1) (ident "x"))`},
		{"add(add(1, 2), 3)", `(call "add" (call "add" (integer 1) (integer 2)) (integer 3))`},
		{"print(x)", `(syscall "print" (ident "x"))`},
		{"reset()", `(syscall "reset")`},
		{"read_joint(1) as int", `(binary "as" (syscall "read_joint" (integer 1)) (type int))`},
	}

	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			e, err := parseExpr(t, test.input)
			be.Err(t, err, nil)
			be.Equal(t, ToSExpr(e), test.expected)
		})
	}
}

func TestParseExpressionTypes(t *testing.T) {
	tests := []struct {
		input string
		typ   Type
	}{
		{"1 + 2", Int},
		{"x + f", Float},
		{"f * 2", Float},
		{"x < f", Int},
		{"x as float", Float},
		{"-f", Float},
		{"!f", Int},
		{"x = 2", Int},
		{"read_joint(1)", Float},
		{"print(1)", Void},
	}
	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			e, err := parseExpr(t, test.input)
			be.Err(t, err, nil)
			be.Equal(t, e.Type(), test.typ)
		})
	}
}

func TestParseExpressionErrors(t *testing.T) {
	tests := []struct {
		input string
		err   string
	}{
		{"(1 + 2", `line 1: expected ")", found end of input`},
		{"1 +", "line 1: expected expression, found end of input"},
		{"1 2", "line 1: unexpected 2 after expression"},
		{"add", "line 1: function add used without a call"},
		{"x as y", `line 1: expected type, found "y"`},
		{"add(1 2)", `line 1: expected ")", found "2"`},
		{"print 1", `line 1: expected "(", found "1"`},
		{")", `line 1: expected expression, found ")"`},
	}
	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			_, err := parseExpr(t, test.input)
			be.Err(t, err, test.err)
		})
	}
}

func TestParseUndefinedSymbol(t *testing.T) {
	_, err := parseExpr(t, "x + z")
	var undef *UndefinedSymbolError
	be.True(t, errors.As(err, &undef))
	be.Equal(t, undef.Name, "z")
	be.Equal(t, undef.Line, 1)
}

func parseSource(t *testing.T, src string) (*Program, *SymbolTable, error) {
	t.Helper()
	toks, err := Tokenize(src)
	be.Err(t, err, nil)
	return Parse(toks)
}

func TestParseProgram(t *testing.T) {
	src := `
let g: int = 1;
const K = 2.5;

fn add(a: int, b: const float) -> float {
    let s = a + b;
    return s;
}

fn main() {
    if g { print(1); } else if g == 2 { print(2); } else { print(3); }
    while g < 10 { g += 1; }
    loop { break; }
    { let inner = 1; }
    add(1, 2.0);
}
`
	prog, syms, err := parseSource(t, src)
	be.Err(t, err, nil)
	be.Equal(t, ToSExpr(prog), `(program`+
		` (var "g" int (integer 1))`+
		` (const "K" float (float 2.5))`+
		` (func "add" ((param "a" int) (const-param "b" float)) float (block`+
		` (var "s" float (binary "+" (ident "a") (ident "b")))`+
		` (return (ident "s"))))`+
		` (func "main" () void (block`+
		` (if (ident "g") (block (syscall "print" (integer 1)))`+
		` (block (if (binary "==" (ident "g") (integer 2)) (block (syscall "print" (integer 2))) (block (syscall "print" (integer 3))))))`+
		` (while (binary "<" (ident "g") (integer 10)) (block (binary "+=" (ident "g") (integer 1))))`+
		` (loop (block (break)))`+
		` (var "inner" int (integer 1))`+
		` (call "add" (integer 1) (float 2.0)))))`)

	add := prog.Decls[2].(*FuncDecl)
	be.Equal(t, add.LocalCount, 3)
	be.Equal(t, prog.Decls[3].(*FuncDecl).LocalCount, 1)

	be.Equal(t, syms.Depth(), 1)
	addSym := syms.Global("add")
	be.Equal(t, addSym.Kind, SymFunction)
	be.Equal(t, addSym.Params, []Type{Int, Float})
	be.Equal(t, addSym.Return, Float)
	be.Equal(t, syms.Global("K").Storage, StorageConst)
	be.Equal(t, syms.Global("g").Storage, StorageGlobal)
	be.True(t, syms.Global("s") == nil)
	be.True(t, syms.Global("inner") == nil)
}

func TestParseMultipleDeclarators(t *testing.T) {
	prog, _, err := parseSource(t, "let a = 1, b: float, c = a; const let k = 3;")
	be.Err(t, err, nil)
	be.Equal(t, ToSExpr(prog), `(program (var "a" int (integer 1)) (var "b" float) (var "c" int (ident "a")) (const "k" int (integer 3)))`)
}

func TestParseLocalConstIsGlobal(t *testing.T) {
	prog, syms, err := parseSource(t, "fn main() { const C = 3; let x = C; }")
	be.Err(t, err, nil)
	be.Equal(t, prog.Decls[0].(*FuncDecl).LocalCount, 1)
	c := syms.Global("C")
	be.True(t, c != nil)
	be.Equal(t, c.Kind, SymConstant)
}

func TestParseRecursion(t *testing.T) {
	_, _, err := parseSource(t, "fn f(n: int) -> int { return f(n - 1); }")
	be.Err(t, err, nil)
}

func TestParseScopes(t *testing.T) {
	tests := []struct {
		name string
		src  string
		err  string
	}{
		{"shadow in nested block", "fn main() { let a = 1; { let a = 2.0; } }", ""},
		{"shadow in loop body", "fn main() { let a = 1; while a { let a = 2; } }", ""},
		{"param shadows global", "let a = 1; fn f(a: float) {}", ""},
		{"sibling blocks", "fn main() { { let a = 1; } { let a = 2; } }", ""},
		{"global twice", "let a = 1;\nlet a = 2;", `line 2: redefinition of "a"`},
		{"function twice", "fn f() {} fn f() {}", `redefinition of "f"`},
		{"param and local", "fn f(a: int) { let a = 1; }", `redefinition of "a"`},
		{"two params", "fn f(a: int, a: int) {}", `redefinition of "a"`},
		{"local const twice", "fn f() { const k = 1; } fn g() { const k = 2; }", `redefinition of "k"`},
		{"block variable out of scope", "fn main() { { let a = 1; } a = 2; }", `undefined symbol "a"`},
		{"function used before declaration", "fn main() { g(); } fn g() {}", `line 1: undefined symbol "g"`},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, _, err := parseSource(t, test.src)
			if test.err == "" {
				be.Err(t, err, nil)
			} else {
				be.Err(t, err, test.err)
			}
		})
	}
}

func TestParseProgramErrors(t *testing.T) {
	tests := []struct {
		src string
		err string
	}{
		{"print(1);", `line 1: expected fn, let or const at top level, found "print"`},
		{"let x;", "line 1: declaration of x needs a type or an initializer"},
		{"const c: int;", "line 1: constant c needs an initializer"},
		{"fn main() { let x = 1 }", `line 1: expected ";", found "}"`},
		{"fn main() {", `line 1: expected "}", found end of input`},
		{"fn main() { break }", `line 1: expected ";", found "}"`},
		{"fn main( {}", `line 1: expected identifier, found "{"`},
		{"fn f(a int) {}", `line 1: expected ":", found "int"`},
		{"fn f() -> void {}", `line 1: expected type, found "void"`},
		{"fn main() {\n  if 1 { }\n  else print(1);\n}", `line 3: expected "{", found "print"`},
		{"let 5 = 1;", `line 1: expected identifier, found "5"`},
	}
	for _, test := range tests {
		t.Run(test.src, func(t *testing.T) {
			_, _, err := parseSource(t, test.src)
			be.Err(t, err, test.err)
			var parseErr *ParseError
			be.True(t, errors.As(err, &parseErr))
		})
	}
}
