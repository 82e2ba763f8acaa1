// ==============================================================================================
// FILE: object/environment_unit_test.go
// ==============================================================================================
// PURPOSE: Specific unit tests for the Environment struct.
//          Validates current-frame-only Set semantics and scope traversal for Get.
// ==============================================================================================

package object

import "testing"

func TestEnvironment_GetSet(t *testing.T) {
	env := NewEnvironment()

	// 1. Test Retrieval of non-existent variable
	if _, ok := env.Get("x"); ok {
		t.Errorf("expected 'x' to not exist")
	}

	// 2. Test Set and Get
	val := &Number{Value: 10}
	env.Set("x", val)

	result, ok := env.Get("x")
	if !ok {
		t.Fatalf("expected 'x' to exist")
	}
	if result != val {
		t.Errorf("expected got %v, want %v", result, val)
	}
}

func TestEnclosedEnvironments(t *testing.T) {
	outer := NewEnvironment()
	outer.Set("x", &Number{Value: 10})
	outer.Set("y", &Number{Value: 5})

	inner := NewEnclosedEnvironment(outer)

	// 1. Test reading from outer scope
	val, ok := inner.Get("x")
	if !ok || val.(*Number).Value != 10 {
		t.Errorf("failed to read from outer scope")
	}

	// 2. Set on the inner frame never rebinds the outer frame - gopa's
	// Environment.Set always writes to the current frame only.
	inner.Set("x", &Number{Value: 99})

	valInner, _ := inner.Get("x")
	if valInner.(*Number).Value != 99 {
		t.Errorf("inner scope did not shadow outer scope")
	}

	valOuter, _ := outer.Get("x")
	if valOuter.(*Number).Value != 10 {
		t.Errorf("outer scope was modified by inner Set (current-frame-only semantics violated)")
	}

	// 3. Test variable that only exists in outer
	yVal, ok := inner.Get("y")
	if !ok || yVal.(*Number).Value != 5 {
		t.Errorf("failed to traverse up to outer scope")
	}
}

func TestHasLocalDoesNotTraverseParent(t *testing.T) {
	outer := NewEnvironment()
	outer.Set("x", &Number{Value: 1})
	inner := NewEnclosedEnvironment(outer)

	if inner.HasLocal("x") {
		t.Errorf("HasLocal should not see a variable only present in the parent frame")
	}

	inner.Set("x", &Number{Value: 2})
	if !inner.HasLocal("x") {
		t.Errorf("HasLocal should see a variable set directly on this frame")
	}
}

func TestDelete(t *testing.T) {
	env := NewEnvironment()
	env.Set("x", &Number{Value: 1})
	env.Delete("x")

	if _, ok := env.Get("x"); ok {
		t.Errorf("expected 'x' to be removed after Delete")
	}
}
