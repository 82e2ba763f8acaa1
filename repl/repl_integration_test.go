// ==============================================================================================
// FILE: repl/repl_integration_test.go
// ==============================================================================================
// PURPOSE: Integration tests for the REPL.
//          Validates multi-line sessions involving persisted state: objects, lists,
//          and functions defined and then called on later lines.
// ==============================================================================================

package repl

import (
	"strings"
	"testing"
)

// Each line the REPL reads is parsed and run as its own standalone program, so a
// single statement must fit on one line - but the environment persists across
// lines, which is what these tests exercise.

func TestIntegration_ObjectAndListSessionState(t *testing.T) {
	input := `u is object with name at "Amogh", age at 25
print u.age
arr is [10, 20, 30]
print arr[1]
.exit`

	output := runSession(input)

	if !strings.Contains(output, "25") {
		t.Errorf("object field access failed. Output:\n%s", output)
	}
	if !strings.Contains(output, "20") {
		t.Errorf("list indexing failed. Output:\n%s", output)
	}
}

func TestIntegration_DictionaryLookupPersistsAcrossLines(t *testing.T) {
	input := `scores is dictionary with "alice" at 90, "bob" at 80
print scores["alice"]
.exit`

	output := runSession(input)

	if !strings.Contains(output, "90") {
		t.Errorf("dictionary lookup failed. Output:\n%s", output)
	}
}

func TestIntegration_MutationPersistsAcrossLines(t *testing.T) {
	input := `total is 0
total increase by 5
total increase by 10
print total
.exit`

	output := runSession(input)

	if !strings.Contains(output, "15") {
		t.Errorf("mutation did not persist across lines. Output:\n%s", output)
	}
}
