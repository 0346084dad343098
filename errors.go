package armc

import "fmt"

// LexError reports an unrecognised character or malformed literal.
type LexError struct {
	Line int
	Msg  string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// ParseError reports a structural violation: a missing brace, parenthesis
// or semicolon, or a token of the wrong kind.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// RedefinitionError reports a name declared twice in one scope.
type RedefinitionError struct {
	Line int
	Name string
}

func (e *RedefinitionError) Error() string {
	return fmt.Sprintf("line %d: redefinition of %q", e.Line, e.Name)
}

// UndefinedSymbolError reports an identifier that does not resolve, or a
// label that was referenced but never defined (Line is 0 then).
type UndefinedSymbolError struct {
	Line int
	Name string
}

func (e *UndefinedSymbolError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("undefined label %q", e.Name)
	}
	return fmt.Sprintf("line %d: undefined symbol %q", e.Line, e.Name)
}

// Rule names the semantic rule a SemanticError violates.
type Rule string

const (
	RuleNoEntry            Rule = "no-entry"
	RuleBadEntry           Rule = "bad-entry"
	RuleMissingReturn      Rule = "missing-return"
	RuleReturnValueInVoid  Rule = "return-value-in-void"
	RuleReturnWithoutValue Rule = "return-without-value"
	RuleBreakOutsideLoop   Rule = "break-outside-loop"
	RuleArgCount           Rule = "arg-count"
	RuleAssignConst        Rule = "assign-const"
	RuleAssignTarget       Rule = "assign-target"
	RuleVoidValue          Rule = "void-value"
	RuleConstNotLiteral    Rule = "const-not-literal"
	RuleEquality           Rule = "equality"
	RuleDivideByZero       Rule = "divide-by-zero"
)

type SemanticError struct {
	Rule Rule
	Line int
	Msg  string
}

func (e *SemanticError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("%s [%s]", e.Msg, e.Rule)
	}
	return fmt.Sprintf("line %d: %s [%s]", e.Line, e.Msg, e.Rule)
}

// TypeError reports operands an operator cannot accept even after implicit
// casts. Right is Auto for unary operators.
type TypeError struct {
	Line  int
	Op    Keyword
	Left  Type
	Right Type
}

func (e *TypeError) Error() string {
	if e.Right == Auto {
		return fmt.Sprintf("line %d: operator %s cannot take %s", e.Line, e.Op, e.Left)
	}
	return fmt.Sprintf("line %d: operator %s cannot take %s and %s", e.Line, e.Op, e.Left, e.Right)
}

// CapacityError reports a region that does not fit its address space.
type CapacityError struct {
	Region string
	Size   int
	Limit  int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%s too large: %d exceeds limit %d", e.Region, e.Size, e.Limit)
}

// DiagnosticKind classifies advisory diagnostics.
type DiagnosticKind int

const (
	HintCast DiagnosticKind = iota
	HintFold
)

// Diagnostic is a non-fatal note produced by semantic analysis.
type Diagnostic struct {
	Kind DiagnosticKind
	Line int
	Msg  string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("[hint] line %d: %s", d.Line, d.Msg)
}
