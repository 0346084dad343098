package sexy

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// NodeType represents the type of a Node
type NodeType int

const (
	NodeSymbol NodeType = iota
	NodeString
	NodeNumber
	NodeEllipsis
	NodeList
)

// Node is one s-expression datum.
type Node struct {
	Type  NodeType
	Text  string  // NodeSymbol, NodeString, NodeNumber
	Items []*Node // NodeList
}

func (n *Node) String() string {
	switch n.Type {
	case NodeSymbol, NodeNumber:
		return n.Text
	case NodeString:
		escaped := strings.ReplaceAll(n.Text, "\\", "\\\\")
		escaped = strings.ReplaceAll(escaped, "\"", "\\\"")
		return "\"" + escaped + "\""
	case NodeEllipsis:
		return "..."
	case NodeList:
		parts := make([]string, len(n.Items))
		for i, item := range n.Items {
			parts[i] = item.String()
		}
		return "(" + strings.Join(parts, " ") + ")"
	}
	return fmt.Sprintf("UNKNOWN_NODE_TYPE_%d", n.Type)
}

func NewSymbol(name string) *Node {
	return &Node{Type: NodeSymbol, Text: name}
}

func NewString(value string) *Node {
	return &Node{Type: NodeString, Text: value}
}

func NewNumber(text string) *Node {
	return &Node{Type: NodeNumber, Text: text}
}

func NewEllipsis() *Node {
	return &Node{Type: NodeEllipsis}
}

func NewList(items ...*Node) *Node {
	return &Node{Type: NodeList, Items: items}
}

// IsAtom checks if the node is an atomic value
func (n *Node) IsAtom() bool {
	return n.Type != NodeList
}

type parser struct {
	lexer        *lexer
	currentToken token
}

// Parse parses input, which must hold exactly one datum.
func Parse(input string) (*Node, error) {
	p := &parser{lexer: newLexer(input)}
	p.nextToken()

	result, err := p.parseDatum()
	if len(p.lexer.errors) > 0 {
		// Lexer errors take priority because they might cause confusing parser errors.
		return nil, fmt.Errorf("%s", p.lexer.errors[0])
	}
	if err != nil {
		return nil, err
	}
	if p.currentToken.Type != tokenEOF {
		return nil, fmt.Errorf("expected EOF but got %s", p.currentToken.Type)
	}
	return result, nil
}

func (p *parser) nextToken() {
	p.currentToken = p.lexer.nextToken()
}

func (p *parser) parseDatum() (*Node, error) {
	tok := p.currentToken
	switch tok.Type {
	case tokenSymbol:
		p.nextToken()
		return NewSymbol(tok.Value), nil
	case tokenString:
		p.nextToken()
		return NewString(tok.Value), nil
	case tokenNumber:
		p.nextToken()
		return NewNumber(tok.Value), nil
	case tokenEllipsis:
		p.nextToken()
		return NewEllipsis(), nil
	case tokenLParen:
		return p.parseList()
	}
	return nil, fmt.Errorf("unexpected token: %s", tok.Type)
}

func (p *parser) parseList() (*Node, error) {
	items := []*Node{}
	p.nextToken() // consume '('
	for p.currentToken.Type != tokenRParen && p.currentToken.Type != tokenEOF {
		item, err := p.parseDatum()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if p.currentToken.Type != tokenRParen {
		return nil, fmt.Errorf("expected ')' but got %s", p.currentToken.Type)
	}
	p.nextToken() // consume ')'
	return NewList(items...), nil
}

type tokenType int

const (
	tokenEOF tokenType = iota
	tokenSymbol
	tokenString
	tokenNumber
	tokenEllipsis
	tokenLParen
	tokenRParen
)

func (t tokenType) String() string {
	switch t {
	case tokenEOF:
		return "EOF"
	case tokenSymbol:
		return "symbol"
	case tokenString:
		return "string"
	case tokenNumber:
		return "number"
	case tokenEllipsis:
		return "ellipsis"
	case tokenLParen:
		return "'('"
	case tokenRParen:
		return "')'"
	}
	return fmt.Sprintf("unknown token %d", int(t))
}

type token struct {
	Type  tokenType
	Value string
}

type lexer struct {
	input  string
	pos    int
	errors []string
}

func newLexer(input string) *lexer {
	return &lexer{input: input}
}

func (l *lexer) peek(off int) byte {
	if l.pos+off < len(l.input) {
		return l.input[l.pos+off]
	}
	return 0
}

func (l *lexer) fail(format string, args ...any) token {
	l.errors = append(l.errors, fmt.Sprintf(format, args...))
	l.pos = len(l.input)
	return token{Type: tokenEOF}
}

func (l *lexer) nextToken() token {
	for {
		for l.pos < len(l.input) && unicode.IsSpace(rune(l.input[l.pos])) {
			l.pos++
		}
		c := l.peek(0)
		switch {
		case l.pos >= len(l.input):
			return token{Type: tokenEOF}
		case c == ';':
			for l.pos < len(l.input) && l.input[l.pos] != '\n' {
				l.pos++
			}
			continue
		case c == '(':
			l.pos++
			return token{Type: tokenLParen, Value: "("}
		case c == ')':
			l.pos++
			return token{Type: tokenRParen, Value: ")"}
		case c == '"':
			return l.readString()
		case c == '.' && l.peek(1) == '.' && l.peek(2) == '.':
			l.pos += 3
			return token{Type: tokenEllipsis, Value: "..."}
		case isDigit(c), (c == '-' || c == '+') && isDigit(l.peek(1)):
			return token{Type: tokenNumber, Value: l.readNumber()}
		case isSymbolChar(c):
			start := l.pos
			for l.pos < len(l.input) && isSymbolChar(l.input[l.pos]) {
				l.pos++
			}
			return token{Type: tokenSymbol, Value: l.input[start:l.pos]}
		}
		return l.fail("unexpected character '%c'", c)
	}
}

func (l *lexer) readString() token {
	var b strings.Builder
	l.pos++ // opening quote
	for l.pos < len(l.input) && l.input[l.pos] != '"' {
		c := l.input[l.pos]
		if c == '\\' {
			l.pos++
			switch l.peek(0) {
			case '"', '\\':
				b.WriteByte(l.peek(0))
			default:
				return l.fail("invalid escape sequence: \\%c", l.peek(0))
			}
		} else {
			b.WriteByte(c)
		}
		l.pos++
	}
	if l.pos >= len(l.input) {
		return l.fail("unterminated string")
	}
	l.pos++ // closing quote
	return token{Type: tokenString, Value: b.String()}
}

// readNumber reads an integer or a float such as -1.5e+10.
func (l *lexer) readNumber() string {
	start := l.pos
	if c := l.peek(0); c == '-' || c == '+' {
		l.pos++
	}
	for isDigit(l.peek(0)) || l.peek(0) == '.' {
		l.pos++
	}
	if c := l.peek(0); c == 'e' || c == 'E' {
		l.pos++
		if c := l.peek(0); c == '-' || c == '+' {
			l.pos++
		}
		for isDigit(l.peek(0)) {
			l.pos++
		}
	}
	return l.input[start:l.pos]
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isSymbolChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || isDigit(c) ||
		c == '-' || c == '+' || c == '_' || c == '*' || c == '/' || c == '<' || c == '>' || c == '=' || c == '!'
}

// Wildcard is the pattern symbol that matches any single datum.
const Wildcard = "_"

// Match checks actual against pattern. In a pattern, `_` matches any
// datum and `...` inside a list matches any run of items, including an
// empty one. Numbers compare by value.
func Match(pattern, actual *Node) error {
	return match(pattern, actual, "root")
}

func match(pattern, actual *Node, path string) error {
	if pattern.Type == NodeSymbol && pattern.Text == Wildcard {
		return nil
	}
	if pattern.Type == NodeNumber && actual.Type == NodeNumber {
		if sameNumber(pattern.Text, actual.Text) {
			return nil
		}
		return mismatch(pattern, actual, path)
	}
	if pattern.Type != actual.Type {
		return mismatch(pattern, actual, path)
	}
	if pattern.Type != NodeList {
		if pattern.Text != actual.Text {
			return mismatch(pattern, actual, path)
		}
		return nil
	}
	if !matchItems(pattern.Items, actual.Items) {
		// Report the first item that differs when the shapes line up.
		if len(pattern.Items) == len(actual.Items) {
			for i := range pattern.Items {
				if err := match(pattern.Items[i], actual.Items[i], path+"."+strconv.Itoa(i)); err != nil {
					return err
				}
			}
		}
		return mismatch(pattern, actual, path)
	}
	return nil
}

func matchItems(patterns, actuals []*Node) bool {
	if len(patterns) == 0 {
		return len(actuals) == 0
	}
	if patterns[0].Type == NodeEllipsis {
		for skip := 0; skip <= len(actuals); skip++ {
			if matchItems(patterns[1:], actuals[skip:]) {
				return true
			}
		}
		return false
	}
	if len(actuals) == 0 || match(patterns[0], actuals[0], "") != nil {
		return false
	}
	return matchItems(patterns[1:], actuals[1:])
}

func sameNumber(a, b string) bool {
	x, errA := strconv.ParseFloat(a, 64)
	y, errB := strconv.ParseFloat(b, 64)
	if errA != nil || errB != nil {
		return a == b
	}
	return x == y
}

func mismatch(pattern, actual *Node, path string) error {
	return fmt.Errorf("at %s: expected %s, got %s", path, pattern, actual)
}
