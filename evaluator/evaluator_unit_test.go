// ==============================================================================================
// FILE: evaluator/evaluator_unit_test.go
// ==============================================================================================
// PURPOSE: Unit tests for specific evaluation rules.
//          Validates simple logic, arithmetic, and basic statement execution.
//          Also contains helper functions used by integration tests.
// ==============================================================================================

package evaluator

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/asrayg/gopa/lexer"
	"github.com/asrayg/gopa/object"
	"github.com/asrayg/gopa/parser"
	"github.com/asrayg/gopa/permission"
)

// ----------------------------------------------------------------------------
// TEST HELPERS (Shared across package)
// ----------------------------------------------------------------------------

func newTestEvaluator() *Evaluator {
	return New(io.Discard, strings.NewReader(""), permission.Default())
}

// testEval parses input and runs every statement against a fresh environment,
// returning the value produced by the last statement - mirroring how the REPL
// reports the result of the most recent line.
func testEval(t testing.TB, input string) object.Object {
	t.Helper()
	l := lexer.New(input)
	p := parser.New(l)
	program := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		return &object.Error{Message: "parser error: " + errs[0]}
	}

	env := object.NewEnvironment()
	ev := newTestEvaluator()

	var result object.Object = object.NOTHING
	for _, stmt := range program.Statements {
		result = ev.execStatement(stmt, env)
		if isSignal(result) && result.Type() != object.RETURN_OBJ {
			break
		}
		if rs, ok := result.(*object.ReturnSignal); ok {
			result = rs.Value
		}
	}
	return result
}

func testNumberObject(t *testing.T, obj object.Object, expected float64) {
	t.Helper()
	if obj == nil {
		t.Fatalf("got nil object, expected number %v", expected)
	}
	if err, ok := obj.(*object.Error); ok {
		t.Fatalf("runtime error: %s", err.Message)
	}
	result, ok := obj.(*object.Number)
	if !ok {
		t.Fatalf("object is not Number. got=%T (%+v)", obj, obj)
	}
	if result.Value != expected {
		t.Errorf("object has wrong value. got=%v, want=%v", result.Value, expected)
	}
}

func testBooleanObject(t *testing.T, obj object.Object, expected bool) {
	t.Helper()
	result, ok := obj.(*object.Boolean)
	if !ok {
		t.Fatalf("object is not Boolean. got=%T (%+v)", obj, obj)
	}
	if result.Value != expected {
		t.Errorf("object has wrong value. got=%t, want=%t", result.Value, expected)
	}
}

// ----------------------------------------------------------------------------
// UNIT TESTS
// ----------------------------------------------------------------------------

func TestEvalNumberExpression(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
	}{
		{"5", 5},
		{"10", 10},
		{"-5", -5},
		{"-10", -10},
		{"5 plus 5 plus 5 plus 5 minus 10", 10},
		{"2 times 2 times 2 times 2 times 2", 32},
		{"-50 plus 100 plus -50", 0},
		{"5 times 2 plus 10", 20},
		{"5 plus 2 times 10", 25},
		{"10 divided by 2", 5},
	}
	for _, tt := range tests {
		evaluated := testEval(t, tt.input)
		testNumberObject(t, evaluated, tt.expected)
	}
}

func TestEvalBooleanExpression(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"true", true},
		{"false", false},
		{"1 is less than 2", true},
		{"1 is greater than 2", false},
		{"1 equals 1", true},
		{"1 does not equal 1", false},
		{"1 does not equal 2", true},
		{"true equals true", true},
		{"false equals false", true},
		{"true equals false", false},
		{"not true", false},
		{"not false", true},
	}
	for _, tt := range tests {
		evaluated := testEval(t, tt.input)
		testBooleanObject(t, evaluated, tt.expected)
	}
}

// TestIfOtherwiseStatements checks the branch actually taken by inspecting
// a variable mutated inside it afterward - execStatements itself only ever
// returns NOTHING or a propagating signal, never a bare fall-through value.
func TestIfOtherwiseStatements(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
	}{
		{"x is 0\nif true\n  x is 10\nend\nx", 10},
		{"x is 0\nif false\n  x is 10\nend\nx", 0},
		{"x is 0\nif 1 is less than 2\n  x is 10\nend\nx", 10},
		{"x is 0\nif 1 is greater than 2\n  x is 10\nend\nx", 0},
		{"x is 0\nif 1 is greater than 2\n  x is 10\notherwise\n  x is 20\nend\nx", 20},
		{"x is 0\nif 1 is less than 2\n  x is 10\notherwise\n  x is 20\nend\nx", 10},
	}

	for _, tt := range tests {
		evaluated := testEval(t, tt.input)
		testNumberObject(t, evaluated, tt.expected)
	}
}

func TestReturnStatements(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
	}{
		{"define f with x\n  return 10\nend\nf 1", 10},
		{"define f with x\n  return 2 times 5\n  return 9\nend\nf 1", 10},
		{
			`define f with n
  if n is greater than 1
    return 10
  end
  return 1
end
f 5`, 10,
		},
	}
	for _, tt := range tests {
		evaluated := testEval(t, tt.input)
		testNumberObject(t, evaluated, tt.expected)
	}
}

func TestErrorHandling(t *testing.T) {
	tests := []struct {
		input           string
		expectedMessage string
	}{
		{"5 plus true", "type error: cannot add NUMBER and BOOLEAN"},
		{"-true", "type error: cannot negate BOOLEAN"},
		{"true plus false", "type error: cannot add BOOLEAN and BOOLEAN"},
		{"foobar", "undefined: foobar"},
		{"5 divided by 0", "division by zero"},
	}

	for _, tt := range tests {
		evaluated := testEval(t, tt.input)
		errObj, ok := evaluated.(*object.Error)
		if !ok {
			t.Errorf("no error object returned. got=%T(%+v)", evaluated, evaluated)
			continue
		}
		if errObj.Message != tt.expectedMessage {
			t.Errorf("wrong error message. expected=%q, got=%q", tt.expectedMessage, errObj.Message)
		}
	}
}

func TestPrintStatementWritesToOut(t *testing.T) {
	var buf bytes.Buffer
	ev := New(&buf, strings.NewReader(""), permission.Default())
	env := object.NewEnvironment()

	l := lexer.New(`print "hello"`)
	p := parser.New(l)
	program := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		t.Fatalf("parser errors: %v", errs)
	}
	if err := ev.Run(program, env); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := buf.String(); got != "hello\n" {
		t.Errorf("expected output %q, got %q", "hello\n", got)
	}
}
