package armc

import (
	"fmt"
	"hash/fnv"
)

type TokenKind int

const (
	TokenIdent TokenKind = iota
	TokenKeyword
	TokenLiteral
)

// Keyword tags reserved words, syscall names and punctuation alike.
type Keyword int

const (
	KwNone Keyword = iota

	KwFn
	KwReturn
	KwLet
	KwConst
	KwInt
	KwFloat
	KwAs
	KwIf
	KwElse
	KwWhile
	KwLoop
	KwBreak

	// Syscalls
	KwDelay
	KwReset
	KwWait
	KwWaitJoint
	KwMovJoint
	KwSetJoint
	KwReadJoint
	KwMovOrthCoord
	KwSetOrthCoord
	KwMovJointCoord
	KwSetJointCoord
	KwGripperOpen
	KwGripperClose
	KwSetJointSpeed
	KwOledShowInt
	KwPrint

	// Punctuation and operators
	Arrow
	Colon
	Assign
	Eq
	NotEq
	Not
	AndAnd
	AndAssign
	And
	OrOr
	OrAssign
	Or
	AddAssign
	Add
	SubAssign
	Sub
	MulAssign
	Mul
	DivAssign
	Div
	ModAssign
	Mod
	XorAssign
	Xor
	Tilde
	ShlAssign
	Shl
	LessEq
	Less
	ShrAssign
	Shr
	GreaterEq
	Greater
	LParen
	RParen
	LBrace
	RBrace
	Comma
	Semicolon
)

var keywordText = map[Keyword]string{
	KwFn:     "fn",
	KwReturn: "return",
	KwLet:    "let",
	KwConst:  "const",
	KwInt:    "int",
	KwFloat:  "float",
	KwAs:     "as",
	KwIf:     "if",
	KwElse:   "else",
	KwWhile:  "while",
	KwLoop:   "loop",
	KwBreak:  "break",

	KwDelay:         "delay",
	KwReset:         "reset",
	KwWait:          "wait",
	KwWaitJoint:     "wait_joint",
	KwMovJoint:      "mov_joint",
	KwSetJoint:      "set_joint",
	KwReadJoint:     "read_joint",
	KwMovOrthCoord:  "mov_orth_coord",
	KwSetOrthCoord:  "set_orth_coord",
	KwMovJointCoord: "mov_joint_coord",
	KwSetJointCoord: "set_joint_coord",
	KwGripperOpen:   "gripper_open",
	KwGripperClose:  "gripper_close",
	KwSetJointSpeed: "set_joint_speed",
	KwOledShowInt:   "oled_show_int",
	KwPrint:         "print",

	Arrow:     "->",
	Colon:     ":",
	Assign:    "=",
	Eq:        "==",
	NotEq:     "!=",
	Not:       "!",
	AndAnd:    "&&",
	AndAssign: "&=",
	And:       "&",
	OrOr:      "||",
	OrAssign:  "|=",
	Or:        "|",
	AddAssign: "+=",
	Add:       "+",
	SubAssign: "-=",
	Sub:       "-",
	MulAssign: "*=",
	Mul:       "*",
	DivAssign: "/=",
	Div:       "/",
	ModAssign: "%=",
	Mod:       "%",
	XorAssign: "^=",
	Xor:       "^",
	Tilde:     "~",
	ShlAssign: "<<=",
	Shl:       "<<",
	LessEq:    "<=",
	Less:      "<",
	ShrAssign: ">>=",
	Shr:       ">>",
	GreaterEq: ">=",
	Greater:   ">",
	LParen:    "(",
	RParen:    ")",
	LBrace:    "{",
	RBrace:    "}",
	Comma:     ",",
	Semicolon: ";",
}

// reserved maps identifier-shaped source words to their keyword.
var reserved = func() map[string]Keyword {
	m := make(map[string]Keyword)
	for kw := KwFn; kw <= KwPrint; kw++ {
		m[keywordText[kw]] = kw
	}
	return m
}()

func (k Keyword) String() string {
	if s, ok := keywordText[k]; ok {
		return s
	}
	return fmt.Sprintf("keyword(%d)", int(k))
}

// IsSyscall reports whether k names a built-in robot primitive.
func (k Keyword) IsSyscall() bool {
	return k >= KwDelay && k <= KwPrint
}

// Token is one lexeme. Which payload fields are set depends on Kind.
type Token struct {
	Kind TokenKind
	Line int

	// TokenIdent
	Name string
	Hash uint32

	// TokenKeyword
	Keyword Keyword

	// TokenLiteral
	Type  Type
	Int   int32
	Float float32
}

func (t Token) String() string {
	switch t.Kind {
	case TokenIdent:
		return t.Name
	case TokenKeyword:
		return t.Keyword.String()
	case TokenLiteral:
		if t.Type == Float {
			return formatFloat(t.Float)
		}
		return fmt.Sprintf("%d", t.Int)
	}
	return "?"
}

// Is reports whether t is the keyword or punctuation k.
func (t Token) Is(k Keyword) bool {
	return t.Kind == TokenKeyword && t.Keyword == k
}

func hashName(name string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(name))
	return h.Sum32()
}
