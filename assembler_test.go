package armc

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

func assemble(t *testing.T, src string) *Unit {
	t.Helper()
	prog, _, err := examine(t, src)
	be.Err(t, err, nil)
	u, err := Assemble(prog)
	be.Err(t, err, nil)
	return u
}

// codeLines renders the function code of src, one instruction per line.
func codeLines(t *testing.T, src string) []string {
	t.Helper()
	u := assemble(t, src)
	lines := make([]string, len(u.Code))
	for i, in := range u.Code {
		lines[i] = in.String()
	}
	return lines
}

func TestUnitListing(t *testing.T) {
	u := assemble(t, `
let g = 5;
const K = 2.5;
fn main() {
    let x = g + 1;
    print(x);
}
`)
	be.Equal(t, u.String(), `CONSTANTS:
	float 2.5
GLOBAL_VAR_NUM: 1
CODE:
	IMMI 5
	STORG 0
	CALL main 0
	HALT
	LABEL main
	ENTER 1
	LOADG 0
	IMMI 1
	IADD
	STORL 0
	LOADL 0
	PRINT
	RET0
`)
}

func TestAssembleStatements(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		expected []string
	}{
		{
			name: "while with break",
			src:  "fn main() { while 1 { break; } }",
			expected: []string{
				"LABEL main", "ENTER 0",
				"LABEL 2_while_begin", "IMMI 1", "JZ 1_while_end",
				"JMP 1_while_end",
				"JMP 2_while_begin", "LABEL 1_while_end",
				"RET0",
			},
		},
		{
			name: "loop with break",
			src:  "fn main() { loop { break; } }",
			expected: []string{
				"LABEL main", "ENTER 0",
				"LABEL 1_loop_begin", "JMP 2_loop_end", "JMP 1_loop_begin", "LABEL 2_loop_end",
				"RET0",
			},
		},
		{
			name: "if else and plain if",
			src:  "fn main() { let x = 1; if x { print(1); } else { print(2); } if x { print(3); } }",
			expected: []string{
				"LABEL main", "ENTER 1", "IMMI 1", "STORL 0",
				"LOADL 0", "JZ 1_if_else", "IMMI 1", "PRINT", "JMP 2_if_end",
				"LABEL 1_if_else", "IMMI 2", "PRINT", "LABEL 2_if_end",
				"LOADL 0", "JZ 3_if_else", "IMMI 3", "PRINT",
				"LABEL 3_if_else", "LABEL 4_if_end",
				"RET0",
			},
		},
		{
			name: "break leaves the innermost loop",
			src:  "fn main() { loop { while 1 { break; } break; } }",
			expected: []string{
				"LABEL main", "ENTER 0",
				"LABEL 1_loop_begin",
				"LABEL 4_while_begin", "IMMI 1", "JZ 3_while_end", "JMP 3_while_end", "JMP 4_while_begin", "LABEL 3_while_end",
				"JMP 2_loop_end", "JMP 1_loop_begin", "LABEL 2_loop_end",
				"RET0",
			},
		},
		{
			name: "explicit return is not doubled",
			src:  "fn main() { return; }",
			expected: []string{
				"LABEL main", "ENTER 0", "RET0",
			},
		},
		{
			name: "assignments",
			src:  "fn main() { let x = 1; x += 2; print(x = 5); }",
			expected: []string{
				"LABEL main", "ENTER 1", "IMMI 1", "STORL 0",
				"LOADL 0", "IMMI 2", "IADD", "STORL 0",
				"IMMI 5", "STORL 0", "LOADL 0", "PRINT",
				"RET0",
			},
		},
		{
			name: "discarded value",
			src:  "fn main() { let x = 1; x + 1; !x; ~x; }",
			expected: []string{
				"LABEL main", "ENTER 1", "IMMI 1", "STORL 0",
				"LOADL 0", "IMMI 1", "IADD", "POP",
				"LOADL 0", "LNOT", "POP",
				"LOADL 0", "BNOT", "POP",
				"RET0",
			},
		},
		{
			name: "float arithmetic and casts",
			src:  "fn main() { let f = 1.5; let i = 2; f = f * i; print(f as int); print(-f < 0.0); }",
			expected: []string{
				"LABEL main", "ENTER 2",
				"IMMF 1.5", "STORL 0", "IMMI 2", "STORL 1",
				"LOADL 0", "LOADL 1", "I2F", "FMUL", "STORL 0",
				"LOADL 0", "F2I", "PRINT",
				"LOADL 0", "FNEG", "IMMF 0.0", "FLT", "PRINT",
				"RET0",
			},
		},
		{
			name: "integer operators",
			src:  "fn main() { let a = 6; print(-a % 4 << 1 | a & 3 ^ a >> 1); print(a && 0 || a != 2); }",
			expected: []string{
				"LABEL main", "ENTER 1", "IMMI 6", "STORL 0",
				"LOADL 0", "INEG", "IMMI 4", "IMOD", "IMMI 1", "SHL",
				"LOADL 0", "IMMI 3", "BAND", "LOADL 0", "IMMI 1", "SHR", "BXOR", "BOR", "PRINT",
				"LOADL 0", "IMMI 0", "LAND", "LOADL 0", "IMMI 2", "INE", "LOR", "PRINT",
				"RET0",
			},
		},
		{
			name: "calls",
			src:  "fn add(a: int, b: int) -> int { return a + b; } fn main() { print(add(1, 2)); add(3, 4); }",
			expected: []string{
				"LABEL add", "ENTER 2", "LOADL 0", "LOADL 1", "IADD", "RET",
				"LABEL main", "ENTER 0",
				"IMMI 1", "IMMI 2", "CALL add 2", "PRINT",
				"IMMI 3", "IMMI 4", "CALL add 2", "POP",
				"RET0",
			},
		},
		{
			name: "void call is not popped",
			src:  "fn v() {} fn main() { v(); }",
			expected: []string{
				"LABEL v", "ENTER 0", "RET0",
				"LABEL main", "ENTER 0", "CALL v 0", "RET0",
			},
		},
		{
			name: "syscalls",
			src:  "fn main() { mov_joint(1, 90.0); gripper_close(); read_joint(2); }",
			expected: []string{
				"LABEL main", "ENTER 0",
				"IMMI 1", "IMMF 90.0", "MOVJ",
				"GRIPPER_CLOSE",
				"IMMI 2", "READJ", "POP",
				"RET0",
			},
		},
		{
			name: "constants",
			src:  "const K = 3; fn main() { const L = 2.5; let f = L; print(K); }",
			expected: []string{
				"LABEL main", "ENTER 1",
				"LOADK 1", "STORL 0",
				"LOADK 0", "PRINT",
				"RET0",
			},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			be.Equal(t, codeLines(t, test.src), test.expected)
		})
	}
}

func TestAssembleStartup(t *testing.T) {
	u := assemble(t, "let a = 1; let b: float; let c = a * 2; fn main() {}")
	be.Equal(t, u.Globals, 3)
	var lines []string
	for _, in := range u.Startup {
		lines = append(lines, in.String())
	}
	be.Equal(t, lines, []string{
		"IMMI 1", "STORG 0",
		"LOADG 0", "IMMI 2", "IMUL", "STORG 2",
		"CALL main 0", "HALT",
	})
}

func TestAssembleLocalSlots(t *testing.T) {
	u := assemble(t, `
fn f(a: int, b: float) -> float {
    let s = b;
    { let t = a; s = s + t; }
    return s;
}
fn main() {}
`)
	info := u.Debug.Functions["f"]
	be.Equal(t, info.Params, 2)
	be.Equal(t, info.LocalCount, 4)
	be.Equal(t, info.Return, Float)
	be.Equal(t, info.Locals, []LocalInfo{
		{Name: "a", Type: Int, Offset: 0},
		{Name: "b", Type: Float, Offset: 1},
		{Name: "s", Type: Float, Offset: 2},
		{Name: "t", Type: Int, Offset: 3},
	})
	be.Equal(t, u.Code[1].String(), "ENTER 4")
}

func TestAssembleDebugInfo(t *testing.T) {
	u := assemble(t, "let g: float; const K = 7; fn main() {}")
	be.Equal(t, u.Debug.Globals["g"], VarInfo{Type: Float, Offset: 0})
	be.Equal(t, u.Debug.Constants["K"].Offset, 0)
	be.Equal(t, string(u.Debug.Constants["K"].Value), "7")
	be.Equal(t, u.Debug.Functions["main"].Locals, []LocalInfo{})

	data, err := u.Debug.JSON()
	be.Err(t, err, nil)
	js := string(data)
	be.True(t, strings.Contains(js, `"g": {`))
	be.True(t, strings.Contains(js, `"type": "float"`))
	be.True(t, strings.Contains(js, `"value": 7`))
	be.True(t, strings.Contains(js, `"local_count": 0`))
}

func TestAssembleLabels(t *testing.T) {
	u := assemble(t, "fn f() { loop { break; } } fn main() { if 1 { } }")
	var names []string
	for _, l := range u.Labels.Labels() {
		names = append(names, l.Name)
		be.Equal(t, l.Offset, -1)
	}
	be.Equal(t, names, []string{"f", "1_loop_begin", "2_loop_end", "main", "4_if_else", "5_if_end"})
	be.True(t, u.Labels.Lookup("main") != nil)
	be.True(t, u.Labels.Lookup("missing") == nil)
}

func TestAssembleTooManyLocals(t *testing.T) {
	var body strings.Builder
	for i := range 256 {
		fmt.Fprintf(&body, "let v%d = 0;\n", i)
	}
	prog, _, err := examine(t, "fn main() {\n"+body.String()+"}")
	be.Err(t, err, nil)
	_, err = Assemble(prog)
	be.Err(t, err, "locals of main too large: 256 exceeds limit 255")
	var capErr *CapacityError
	be.True(t, errors.As(err, &capErr))
}

func TestOperandStrings(t *testing.T) {
	be.Equal(t, U8(7).String(), "7")
	be.Equal(t, U16(65535).String(), "65535")
	be.Equal(t, U32(-3).String(), "-3")
	be.Equal(t, F32(2).String(), "2.0")
	be.Equal(t, Ref("1_if_end").String(), "1_if_end")
	be.Equal(t, Constant{Type: Int, Int: -4}.String(), "int -4")
	be.Equal(t, Constant{Type: Float, Float: 0.5}.Bits(), uint32(0x3F000000))
}
