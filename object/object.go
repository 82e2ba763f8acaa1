// ==============================================================================================
// FILE: object/object.go
// ==============================================================================================
// PACKAGE: object
// PURPOSE: Defines the type system for the gopa language. It provides the
//          structures for all runtime values (Numbers, Strings, Lists,
//          Dictionaries, Objects, Functions) and the control-flow sentinel
//          wrappers the evaluator uses instead of panics.
// ==============================================================================================

package object

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/asrayg/gopa/ast"
)

type ObjectType string

const (
	NUMBER_OBJ  = "NUMBER"
	STRING_OBJ  = "STRING"
	BOOLEAN_OBJ = "BOOLEAN"
	NOTHING_OBJ = "NOTHING"

	LIST_OBJ       = "LIST"
	DICTIONARY_OBJ = "DICTIONARY"
	GOPA_OBJECT_OBJ = "OBJECT"
	FUNCTION_OBJ   = "FUNCTION"
	BUILTIN_OBJ    = "BUILTIN"

	// Internal control-flow wrappers. None of these ever escape to user code;
	// the evaluator's execute/evaluate loops unwrap them at the statement that
	// can absorb them (loop bodies absorb Break/Continue, function bodies
	// absorb Return, the top level program absorbs Stop).
	RETURN_OBJ   = "RETURN_SIGNAL"
	BREAK_OBJ    = "BREAK_SIGNAL"
	CONTINUE_OBJ = "CONTINUE_SIGNAL"
	STOP_OBJ     = "STOP_SIGNAL"
	ERROR_OBJ    = "ERROR"
)

// Object is the base interface every gopa runtime value implements.
type Object interface {
	Type() ObjectType
	Inspect() string
}

// ==============================================================================================
// PRIMITIVES
// ==============================================================================================

// Number is gopa's single numeric type; the language does not distinguish
// integers from floats at the value level, only at display time.
type Number struct {
	Value float64
}

func (n *Number) Type() ObjectType { return NUMBER_OBJ }
func (n *Number) Inspect() string {
	if n.Value == float64(int64(n.Value)) {
		return strconv.FormatInt(int64(n.Value), 10)
	}
	return strconv.FormatFloat(n.Value, 'g', -1, 64)
}

type String struct {
	Value string
}

func (s *String) Type() ObjectType { return STRING_OBJ }
func (s *String) Inspect() string  { return s.Value }

type Boolean struct {
	Value bool
}

func (b *Boolean) Type() ObjectType { return BOOLEAN_OBJ }
func (b *Boolean) Inspect() string  { return fmt.Sprintf("%t", b.Value) }

type Nothing struct{}

func (n *Nothing) Type() ObjectType { return NOTHING_OBJ }
func (n *Nothing) Inspect() string  { return "nothing" }

// ==============================================================================================
// COMPOSITES
// ==============================================================================================

// List is reference-shared: assigning `b is a` aliases the same backing
// pointer, matching spec's "lists/dictionaries/objects are reference types".
type List struct {
	Elements []Object
}

func (l *List) Type() ObjectType { return LIST_OBJ }
func (l *List) Inspect() string {
	parts := make([]string, len(l.Elements))
	for i, e := range l.Elements {
		parts[i] = e.Inspect()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Dictionary preserves insertion order for predictable iteration/printing.
type Dictionary struct {
	Keys   []string
	Values map[string]Object
}

func NewDictionary() *Dictionary {
	return &Dictionary{Values: make(map[string]Object)}
}

func (d *Dictionary) Set(key string, val Object) {
	if _, exists := d.Values[key]; !exists {
		d.Keys = append(d.Keys, key)
	}
	d.Values[key] = val
}

func (d *Dictionary) Get(key string) (Object, bool) {
	v, ok := d.Values[key]
	return v, ok
}

func (d *Dictionary) Type() ObjectType { return DICTIONARY_OBJ }
func (d *Dictionary) Inspect() string {
	parts := make([]string, 0, len(d.Keys))
	for _, k := range d.Keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, d.Values[k].Inspect()))
	}
	var out bytes.Buffer
	out.WriteString("{")
	out.WriteString(strings.Join(parts, ", "))
	out.WriteString("}")
	return out.String()
}

// GopaObject is gopa's ad-hoc "object" literal - a plain field bag, distinct
// from Dictionary only in surface syntax (spec §3).
type GopaObject struct {
	Fields *Dictionary
}

func NewGopaObject() *GopaObject {
	return &GopaObject{Fields: NewDictionary()}
}

func (o *GopaObject) Type() ObjectType { return GOPA_OBJECT_OBJ }
func (o *GopaObject) Inspect() string  { return "object" + o.Fields.Inspect() }

// Function is a lexical closure: Env is captured at definition time and
// becomes the parent scope of every call frame (spec §3 invariant iii,
// §4.6), never the caller's live scope.
type Function struct {
	Name       string
	Parameters []string
	Body       []ast.Statement
	Env        *Environment
}

func (f *Function) Type() ObjectType { return FUNCTION_OBJ }
func (f *Function) Inspect() string {
	return "define " + f.Name + " with " + strings.Join(f.Parameters, ", ")
}

type BuiltinFunction func(args ...Object) Object

type Builtin struct {
	Name string
	Fn   BuiltinFunction
}

func (b *Builtin) Type() ObjectType { return BUILTIN_OBJ }
func (b *Builtin) Inspect() string  { return "builtin " + b.Name }

// ==============================================================================================
// CONTROL-FLOW SENTINELS
// ==============================================================================================

type ReturnSignal struct{ Value Object }

func (r *ReturnSignal) Type() ObjectType { return RETURN_OBJ }
func (r *ReturnSignal) Inspect() string  { return "return " + r.Value.Inspect() }

type BreakSignal struct{}

func (b *BreakSignal) Type() ObjectType { return BREAK_OBJ }
func (b *BreakSignal) Inspect() string  { return "break" }

type ContinueSignal struct{}

func (c *ContinueSignal) Type() ObjectType { return CONTINUE_OBJ }
func (c *ContinueSignal) Inspect() string  { return "continue" }

type StopSignal struct{}

func (s *StopSignal) Type() ObjectType { return STOP_OBJ }
func (s *StopSignal) Inspect() string  { return "stop" }

// Error is a gopa-level runtime error, returned as a value rather than
// panicking - permission violations, type errors, and missing names all
// surface this way so `show`/REPL output sees one uniform failure shape.
type Error struct {
	Message string
}

func (e *Error) Type() ObjectType { return ERROR_OBJ }
func (e *Error) Inspect() string  { return "error: " + e.Message }

// ==============================================================================================
// HELPERS
// ==============================================================================================

var (
	TRUE    = &Boolean{Value: true}
	FALSE   = &Boolean{Value: false}
	NOTHING = &Nothing{}
)

func NativeBool(b bool) *Boolean {
	if b {
		return TRUE
	}
	return FALSE
}

func IsTruthy(obj Object) bool {
	switch o := obj.(type) {
	case *Boolean:
		return o.Value
	case *Nothing:
		return false
	case *Number:
		return o.Value != 0
	case *String:
		return o.Value != ""
	case *List:
		return len(o.Elements) > 0
	case *Dictionary:
		return len(o.Keys) > 0
	case *GopaObject:
		return len(o.Fields.Keys) > 0
	default:
		return true
	}
}

// SortedKeys returns a Dictionary's keys in a stable, display-friendly order
// (insertion order already gives this; this helper returns an alphabetical
// copy for callers that want a deterministic sorted view).
func SortedKeys(d *Dictionary) []string {
	keys := make([]string, len(d.Keys))
	copy(keys, d.Keys)
	sort.Strings(keys)
	return keys
}
