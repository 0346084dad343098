package sexy

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// InputType is the language of a test's input fence.
type InputType string

const (
	InputTypeExpr    InputType = "armc-expr"
	InputTypeProgram InputType = "armc-program"
)

// AssertionType is the language of an assertion fence.
type AssertionType string

const (
	AssertionTypeAST          AssertionType = "ast"         // tree straight from the parser
	AssertionTypeASTChecked   AssertionType = "ast-checked" // tree after casts and folding
	AssertionTypeAsm          AssertionType = "asm"
	AssertionTypeExecute      AssertionType = "execute"
	AssertionTypeCompileError AssertionType = "compile-error"
	AssertionTypeHints        AssertionType = "hints"
)

// Assertion is one expectation of a test case.
type Assertion struct {
	Type       AssertionType
	Content    string // raw fence body without the trailing newline
	ParsedSexy *Node  // set for ast and ast-checked
	Line       int
}

// TestCase is one "Test: " section of a markdown suite.
type TestCase struct {
	Name       string
	Input      string
	InputType  InputType
	Line       int
	Assertions []Assertion
}

// ExtractTestCases parses a markdown document and collects its test
// cases. A test starts at any heading beginning with "Test: " and holds
// one input fence followed by its assertion fences.
func ExtractTestCases(markdownContent string) ([]TestCase, error) {
	source := []byte(markdownContent)
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	var testCases []TestCase
	var current *TestCase

	err := ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch n := node.(type) {
		case *ast.Heading:
			headingText := extractTextFromNode(n, source)
			if !strings.HasPrefix(headingText, "Test: ") {
				return ast.WalkContinue, nil
			}
			if current != nil {
				if err := validateTestCase(current); err != nil {
					return ast.WalkStop, err
				}
				testCases = append(testCases, *current)
			}
			current = &TestCase{
				Name:       strings.TrimPrefix(headingText, "Test: "),
				Line:       getLineNumber(n, source),
				Assertions: []Assertion{},
			}

		case *ast.FencedCodeBlock:
			language := string(n.Language(source))
			content := strings.TrimRight(extractCodeBlockContent(n, source), "\n")
			lineNum := getLineNumber(n, source)

			if current == nil {
				if language == "" {
					return ast.WalkContinue, nil
				}
				if isInputFence(language) || isAssertionFence(language) {
					return ast.WalkStop, fmt.Errorf("line %d: %s fence found outside of test case", lineNum, language)
				}
				return ast.WalkStop, fmt.Errorf("line %d: unknown fence language '%s' found outside of test case", lineNum, language)
			}

			switch {
			case language == "":
				// prose example
			case isInputFence(language):
				if current.Input != "" {
					return ast.WalkStop, fmt.Errorf("line %d: multiple input fences found in test '%s'", lineNum, current.Name)
				}
				current.Input = content
				current.InputType = InputType(language)
			case isAssertionFence(language):
				assertion := Assertion{Type: AssertionType(language), Content: content, Line: lineNum}
				if assertion.Type == AssertionTypeAST || assertion.Type == AssertionTypeASTChecked {
					parsed, err := Parse(content)
					if err != nil {
						return ast.WalkStop, fmt.Errorf("line %d: failed to parse Sexy assertion in test '%s': %w", lineNum, current.Name, err)
					}
					assertion.ParsedSexy = parsed
				}
				current.Assertions = append(current.Assertions, assertion)
			default:
				return ast.WalkStop, fmt.Errorf("line %d: unknown fence language '%s' in test '%s'", lineNum, language, current.Name)
			}
		}

		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking markdown AST: %w", err)
	}

	if current != nil {
		if err := validateTestCase(current); err != nil {
			return nil, err
		}
		testCases = append(testCases, *current)
	}
	return testCases, nil
}

func extractTextFromNode(node ast.Node, source []byte) string {
	var buf bytes.Buffer
	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			if t, ok := n.(*ast.Text); ok {
				buf.Write(t.Segment.Value(source))
			}
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

func extractCodeBlockContent(codeBlock *ast.FencedCodeBlock, source []byte) string {
	var buf bytes.Buffer
	for i := 0; i < codeBlock.Lines().Len(); i++ {
		line := codeBlock.Lines().At(i)
		buf.Write(line.Value(source))
	}
	return buf.String()
}

func isInputFence(language string) bool {
	switch InputType(language) {
	case InputTypeExpr, InputTypeProgram:
		return true
	}
	return false
}

func isAssertionFence(language string) bool {
	switch AssertionType(language) {
	case AssertionTypeAST, AssertionTypeASTChecked, AssertionTypeAsm,
		AssertionTypeExecute, AssertionTypeCompileError, AssertionTypeHints:
		return true
	}
	return false
}

// validateTestCase ensures a test case has an input and an assertion.
// Expression inputs can only be checked against trees.
func validateTestCase(tc *TestCase) error {
	if tc.Input == "" {
		return fmt.Errorf("test '%s' has no input fence", tc.Name)
	}
	if len(tc.Assertions) == 0 {
		return fmt.Errorf("test '%s' has no assertion fences", tc.Name)
	}
	if tc.InputType == InputTypeExpr {
		for _, a := range tc.Assertions {
			if a.Type != AssertionTypeAST && a.Type != AssertionTypeASTChecked && a.Type != AssertionTypeCompileError {
				return fmt.Errorf("test '%s': %s assertion needs an armc-program input", tc.Name, a.Type)
			}
		}
	}
	return nil
}

// getLineNumber returns the 1-based source line a node starts on.
func getLineNumber(node ast.Node, source []byte) int {
	if node.Lines().Len() == 0 {
		return 1
	}
	startPos := node.Lines().At(0).Start
	return bytes.Count(source[:min(startPos, len(source))], []byte("\n")) + 1
}
