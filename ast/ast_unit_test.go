// ==============================================================================================
// FILE: ast/ast_unit_test.go
// ==============================================================================================
// PURPOSE: Unit tests for individual AST nodes.
//          Verifies that literals and statements stringify themselves correctly.
// ==============================================================================================

package ast

import (
	"testing"

	"github.com/asrayg/gopa/token"
)

// ----------------------------------------------------------------------------
// LITERALS
// ----------------------------------------------------------------------------

func TestNumberLiteral(t *testing.T) {
	node := &NumberLiteral{Token: token.Token{Type: token.NUMBER, Literal: "42"}, Value: 42}
	if node.String() != "42" {
		t.Fatalf("expected 42, got %s", node.String())
	}
}

func TestStringLiteral(t *testing.T) {
	node := &StringLiteral{Token: token.Token{Type: token.STRING, Literal: "hello"}, Value: "hello"}
	// String() must wrap the value in quotes to represent source code
	expected := `"hello"`
	if node.String() != expected {
		t.Fatalf("expected %s, got %s", expected, node.String())
	}
}

func TestBooleanLiteral(t *testing.T) {
	node := &BooleanLiteral{Token: token.Token{Type: token.TRUE, Literal: "true"}, Value: true}
	if node.String() != "true" {
		t.Fatalf("expected true, got %s", node.String())
	}
}

func TestNothingLiteral(t *testing.T) {
	node := &NothingLiteral{Token: token.Token{Type: token.NOTHING, Literal: "nothing"}}
	if node.String() != "nothing" {
		t.Fatalf("expected nothing, got %s", node.String())
	}
}

func TestPiLiteral(t *testing.T) {
	node := &PiLiteral{Token: token.Token{Type: token.PI, Literal: "pi"}}
	if node.String() != "pi" {
		t.Fatalf("expected pi, got %s", node.String())
	}
}

// ----------------------------------------------------------------------------
// EXPRESSIONS
// ----------------------------------------------------------------------------

func TestUnaryOp(t *testing.T) {
	// Testing: not true
	node := &UnaryOp{
		Token:   token.Token{Type: token.NOT, Literal: "not"},
		Op:      "not",
		Operand: &BooleanLiteral{Token: token.Token{Type: token.TRUE, Literal: "true"}, Value: true},
	}
	expected := "(not true)"
	if node.String() != expected {
		t.Fatalf("expected %s, got %s", expected, node.String())
	}
}

func TestBinaryOp(t *testing.T) {
	// Testing: 5 plus 3
	node := &BinaryOp{
		Token: token.Token{Type: token.PLUS, Literal: "plus"},
		Left:  &NumberLiteral{Token: token.Token{Type: token.NUMBER, Literal: "5"}, Value: 5},
		Op:    "plus",
		Right: &NumberLiteral{Token: token.Token{Type: token.NUMBER, Literal: "3"}, Value: 3},
	}
	expected := "(5 plus 3)"
	if node.String() != expected {
		t.Fatalf("expected %s, got %s", expected, node.String())
	}
}

func TestListLiteral(t *testing.T) {
	// Testing: [1, 2]
	node := &ListLiteral{
		Token: token.Token{Type: token.LBRACKET, Literal: "["},
		Elements: []Expression{
			&NumberLiteral{Token: token.Token{Type: token.NUMBER, Literal: "1"}, Value: 1},
			&NumberLiteral{Token: token.Token{Type: token.NUMBER, Literal: "2"}, Value: 2},
		},
	}
	expected := "[1, 2]"
	if node.String() != expected {
		t.Fatalf("expected %s, got %s", expected, node.String())
	}
}

func TestFunctionCallString(t *testing.T) {
	node := &FunctionCall{
		Token: token.Token{Type: token.IDENTIFIER, Literal: "add"},
		Name:  "add",
		Args: []Expression{
			&NumberLiteral{Token: token.Token{Type: token.NUMBER, Literal: "1"}, Value: 1},
			&NumberLiteral{Token: token.Token{Type: token.NUMBER, Literal: "2"}, Value: 2},
		},
	}
	expected := "add(1, 2)"
	if node.String() != expected {
		t.Fatalf("expected %s, got %s", expected, node.String())
	}
}

// ----------------------------------------------------------------------------
// STATEMENTS
// ----------------------------------------------------------------------------

func TestAssignment(t *testing.T) {
	// Testing: x is 5
	node := &Assignment{
		Token:  token.Token{Type: token.IS, Literal: "is"},
		Target: &Identifier{Token: token.Token{Type: token.IDENTIFIER, Literal: "x"}, Name: "x"},
		Value:  &NumberLiteral{Token: token.Token{Type: token.NUMBER, Literal: "5"}, Value: 5},
	}
	expected := "x is 5"
	if node.String() != expected {
		t.Fatalf("expected %s, got %s", expected, node.String())
	}
}

func TestFunctionDefString(t *testing.T) {
	node := &FunctionDef{
		Token:  token.Token{Type: token.DEFINE, Literal: "define"},
		Name:   "greet",
		Params: []string{"name", "greeting"},
	}
	expected := "define greet with name, greeting"
	if node.String() != expected {
		t.Fatalf("expected %s, got %s", expected, node.String())
	}
}

func TestPrintStatementString(t *testing.T) {
	node := &PrintStatement{
		Token: token.Token{Type: token.PRINT, Literal: "print"},
		Expr:  &StringLiteral{Token: token.Token{Type: token.STRING, Literal: "msg"}, Value: "msg"},
	}
	expected := `print "msg"`
	if node.String() != expected {
		t.Fatalf("expected %s, got %s", expected, node.String())
	}
}
