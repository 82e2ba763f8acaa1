// ==============================================================================================
// FILE: lexer/lexer_unit_test.go
// ==============================================================================================
// PURPOSE: Validates that the Lexer correctly identifies all token types and literals.
// ==============================================================================================

package lexer

import (
	"testing"

	"github.com/asrayg/gopa/token"
)

type expectedToken struct {
	expectedType    token.TokenType
	expectedLiteral string
}

// TestNextToken checks that the lexer correctly produces tokens
// for all token categories in gopa's English-first grammar.
func TestNextToken(t *testing.T) {
	// --- SECTION 1: Identifiers, assignment, numbers, strings, booleans ---
	input1 := `x is 10`
	expected1 := []expectedToken{
		{token.IDENTIFIER, "x"},
		{token.IS, "is"},
		{token.NUMBER, "10"},
		{token.EOF, ""},
	}
	runLexerTest(t, input1, expected1)

	input2 := `name is "Amogh"`
	expected2 := []expectedToken{
		{token.IDENTIFIER, "name"},
		{token.IS, "is"},
		{token.STRING, "Amogh"},
		{token.EOF, ""},
	}
	runLexerTest(t, input2, expected2)

	input3 := `flag is true`
	expected3 := []expectedToken{
		{token.IDENTIFIER, "flag"},
		{token.IS, "is"},
		{token.TRUE, "true"},
		{token.EOF, ""},
	}
	runLexerTest(t, input3, expected3)

	input4 := `radius is pi`
	expected4 := []expectedToken{
		{token.IDENTIFIER, "radius"},
		{token.IS, "is"},
		{token.PI, "pi"},
		{token.EOF, ""},
	}
	runLexerTest(t, input4, expected4)

	// --- SECTION 2: Arithmetic phrases, including the multi-word lookaheads ---
	input5 := `x is 5 plus 3`
	expected5 := []expectedToken{
		{token.IDENTIFIER, "x"},
		{token.IS, "is"},
		{token.NUMBER, "5"},
		{token.PLUS, "plus"},
		{token.NUMBER, "3"},
		{token.EOF, ""},
	}
	runLexerTest(t, input5, expected5)

	input6 := `x is 10 divided by 2`
	expected6 := []expectedToken{
		{token.IDENTIFIER, "x"},
		{token.IS, "is"},
		{token.NUMBER, "10"},
		{token.DIVIDED, "divided"},
		{token.NUMBER, "2"},
		{token.EOF, ""},
	}
	runLexerTest(t, input6, expected6)

	input7 := `repeat 3 times`
	expected7 := []expectedToken{
		{token.REPEAT, "repeat"},
		{token.NUMBER, "3"},
		{token.TIMES, "times"},
		{token.EOF, ""},
	}
	runLexerTest(t, input7, expected7)

	// A number right before `times` makes it TIMES; the parser still reads
	// it as multiplication when a value follows.
	input8 := `x is 2 times y`
	expected8 := []expectedToken{
		{token.IDENTIFIER, "x"},
		{token.IS, "is"},
		{token.NUMBER, "2"},
		{token.TIMES, "times"},
		{token.IDENTIFIER, "y"},
		{token.EOF, ""},
	}
	runLexerTest(t, input8, expected8)

	// --- SECTION 3: Comparison phrases ---
	input9 := `x is greater than 10`
	expected9 := []expectedToken{
		{token.IDENTIFIER, "x"},
		{token.IS_GREATER_THAN, ""},
		{token.NUMBER, "10"},
		{token.EOF, ""},
	}
	runLexerTest(t, input9, expected9)

	input10 := `x does not equal 10`
	expected10 := []expectedToken{
		{token.IDENTIFIER, "x"},
		{token.DOES_NOT_EQUAL, ""},
		{token.NUMBER, "10"},
		{token.EOF, ""},
	}
	runLexerTest(t, input10, expected10)

	// --- SECTION 4: Logical operators ---
	input11 := `x and y or not flag`
	expected11 := []expectedToken{
		{token.IDENTIFIER, "x"},
		{token.AND, "and"},
		{token.IDENTIFIER, "y"},
		{token.OR, "or"},
		{token.NOT, "not"},
		{token.IDENTIFIER, "flag"},
		{token.EOF, ""},
	}
	runLexerTest(t, input11, expected11)

	// --- SECTION 5: Control flow and output keywords ---
	input12 := `if x equals 10 show x otherwise show y end`
	expected12 := []expectedToken{
		{token.IF, "if"},
		{token.IDENTIFIER, "x"},
		{token.EQUALS, "equals"},
		{token.NUMBER, "10"},
		{token.SHOW, "show"},
		{token.IDENTIFIER, "x"},
		{token.OTHERWISE, "otherwise"},
		{token.SHOW, "show"},
		{token.IDENTIFIER, "y"},
		{token.END, "end"},
		{token.EOF, ""},
	}
	runLexerTest(t, input12, expected12)
}

// TestNewlineIsASignificantToken verifies gopa's statement-terminating NEWLINE
// is emitted explicitly rather than swallowed as whitespace.
func TestNewlineIsASignificantToken(t *testing.T) {
	input := "x is 1\ny is 2"
	expected := []expectedToken{
		{token.IDENTIFIER, "x"},
		{token.IS, "is"},
		{token.NUMBER, "1"},
		{token.NEWLINE, "\n"},
		{token.IDENTIFIER, "y"},
		{token.IS, "is"},
		{token.NUMBER, "2"},
		{token.EOF, ""},
	}
	runLexerTest(t, input, expected)
}

// runLexerTest is a helper to iterate expected tokens and check against lexer output.
// The comparison lookahead tokens (IS_GREATER_THAN, DOES_NOT_EQUAL, ...) carry
// no Literal, so an empty expectedLiteral skips the literal check for those.
func runLexerTest(t *testing.T, input string, expectedTokens []expectedToken) {
	t.Helper()
	l := New(input)

	for i, expected := range expectedTokens {
		actual := l.NextToken()

		if actual.Type != expected.expectedType {
			t.Fatalf(
				"tests[%d] - token type mismatch. expected=%q, got=%q",
				i, expected.expectedType, actual.Type,
			)
		}

		if expected.expectedLiteral != "" && actual.Literal != expected.expectedLiteral {
			t.Fatalf(
				"tests[%d] - token literal mismatch. expected=%q, got=%q",
				i, expected.expectedLiteral, actual.Literal,
			)
		}
	}
}
