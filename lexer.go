package armc

import (
	"fmt"
	"strconv"
)

type lexer struct {
	src  string
	pos  int
	line int
	toks []Token
}

// Tokenize converts source text into its complete token list. Comments and
// whitespace are dropped; every token carries the line it started on.
func Tokenize(src string) ([]Token, error) {
	l := &lexer{src: src, line: 1}
	for {
		if err := l.skipSpace(); err != nil {
			return nil, err
		}
		if l.pos >= len(l.src) {
			return l.toks, nil
		}
		if err := l.next(); err != nil {
			return nil, err
		}
	}
}

func (l *lexer) peek(off int) byte {
	if l.pos+off < len(l.src) {
		return l.src[l.pos+off]
	}
	return 0
}

func (l *lexer) errorf(format string, args ...any) error {
	return &LexError{Line: l.line, Msg: fmt.Sprintf(format, args...)}
}

// skipSpace skips whitespace and comments.
func (l *lexer) skipSpace() error {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == '\n':
			l.line++
			l.pos++
		case c == ' ' || c == '\t' || c == '\r':
			l.pos++
		case c == '/' && l.peek(1) == '/':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		case c == '/' && l.peek(1) == '*':
			start := l.line
			l.pos += 2
			for {
				if l.pos >= len(l.src) {
					return &LexError{Line: start, Msg: "unterminated block comment"}
				}
				if l.src[l.pos] == '*' && l.peek(1) == '/' {
					l.pos += 2
					break
				}
				if l.src[l.pos] == '\n' {
					l.line++
				}
				l.pos++
			}
		default:
			return nil
		}
	}
	return nil
}

func isLetter(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func (l *lexer) next() error {
	c := l.src[l.pos]
	switch {
	case isLetter(c):
		l.word()
		return nil
	case isDigit(c):
		return l.number()
	}
	if kw, n := l.operator(); n > 0 {
		l.pos += n
		l.toks = append(l.toks, Token{Kind: TokenKeyword, Line: l.line, Keyword: kw})
		return nil
	}
	return l.errorf("unexpected character %q", c)
}

func (l *lexer) word() {
	start := l.pos
	for l.pos < len(l.src) && (isLetter(l.src[l.pos]) || isDigit(l.src[l.pos])) {
		l.pos++
	}
	name := l.src[start:l.pos]
	if kw, ok := reserved[name]; ok {
		l.toks = append(l.toks, Token{Kind: TokenKeyword, Line: l.line, Keyword: kw})
		return
	}
	l.toks = append(l.toks, Token{Kind: TokenIdent, Line: l.line, Name: name, Hash: hashName(name)})
}

func isDigitIn(c byte, base int) bool {
	switch base {
	case 2:
		return c == '0' || c == '1'
	case 8:
		return c >= '0' && c <= '7'
	case 16:
		return isDigit(c) || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
	}
	return isDigit(c)
}

func (l *lexer) number() error {
	if l.src[l.pos] == '0' {
		base := 0
		switch l.peek(1) {
		case 'x', 'X':
			base = 16
		case 'b', 'B':
			base = 2
		case 'o', 'O':
			base = 8
		}
		if base != 0 {
			return l.radix(base)
		}
	}

	start := l.pos
	dots := 0
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if c == '.' {
			if dots == 1 {
				break
			}
			dots++
		} else if !isDigit(c) {
			break
		}
		l.pos++
	}
	text := l.src[start:l.pos]

	if dots > 0 {
		v, err := strconv.ParseFloat(text, 32)
		if err != nil {
			return l.errorf("invalid float literal %q", text)
		}
		l.toks = append(l.toks, Token{Kind: TokenLiteral, Line: l.line, Type: Float, Float: float32(v)})
		return nil
	}
	v, err := strconv.ParseInt(text, 10, 32)
	if err != nil {
		return l.errorf("integer literal %s does not fit 32 bits", text)
	}
	l.toks = append(l.toks, Token{Kind: TokenLiteral, Line: l.line, Type: Int, Int: int32(v)})
	return nil
}

// radix lexes a 0x, 0b or 0o literal. The digits may use the whole
// unsigned 32-bit range and are reinterpreted as two's complement.
func (l *lexer) radix(base int) error {
	prefix := l.src[l.pos : l.pos+2]
	l.pos += 2
	start := l.pos
	for l.pos < len(l.src) && isDigitIn(l.src[l.pos], base) {
		l.pos++
	}
	digits := l.src[start:l.pos]
	if digits == "" {
		return l.errorf("missing digits after %s", prefix)
	}
	v, err := strconv.ParseUint(digits, base, 32)
	if err != nil {
		return l.errorf("integer literal %s%s does not fit 32 bits", prefix, digits)
	}
	l.toks = append(l.toks, Token{Kind: TokenLiteral, Line: l.line, Type: Int, Int: int32(uint32(v))})
	return nil
}

// operator matches the longest operator at the current position and
// returns its length, or 0.
func (l *lexer) operator() (Keyword, int) {
	c, c1, c2 := l.peek(0), l.peek(1), l.peek(2)
	switch c {
	case '(':
		return LParen, 1
	case ')':
		return RParen, 1
	case '{':
		return LBrace, 1
	case '}':
		return RBrace, 1
	case ',':
		return Comma, 1
	case ';':
		return Semicolon, 1
	case ':':
		return Colon, 1
	case '~':
		return Tilde, 1
	case '=':
		if c1 == '=' {
			return Eq, 2
		}
		return Assign, 1
	case '!':
		if c1 == '=' {
			return NotEq, 2
		}
		return Not, 1
	case '&':
		switch c1 {
		case '&':
			return AndAnd, 2
		case '=':
			return AndAssign, 2
		}
		return And, 1
	case '|':
		switch c1 {
		case '|':
			return OrOr, 2
		case '=':
			return OrAssign, 2
		}
		return Or, 1
	case '+':
		if c1 == '=' {
			return AddAssign, 2
		}
		return Add, 1
	case '-':
		switch c1 {
		case '>':
			return Arrow, 2
		case '=':
			return SubAssign, 2
		}
		return Sub, 1
	case '*':
		if c1 == '=' {
			return MulAssign, 2
		}
		return Mul, 1
	case '/':
		if c1 == '=' {
			return DivAssign, 2
		}
		return Div, 1
	case '%':
		if c1 == '=' {
			return ModAssign, 2
		}
		return Mod, 1
	case '^':
		if c1 == '=' {
			return XorAssign, 2
		}
		return Xor, 1
	case '<':
		switch {
		case c1 == '<' && c2 == '=':
			return ShlAssign, 3
		case c1 == '<':
			return Shl, 2
		case c1 == '=':
			return LessEq, 2
		}
		return Less, 1
	case '>':
		switch {
		case c1 == '>' && c2 == '=':
			return ShrAssign, 3
		case c1 == '>':
			return Shr, 2
		case c1 == '=':
			return GreaterEq, 2
		}
		return Greater, 1
	}
	return KwNone, 0
}
