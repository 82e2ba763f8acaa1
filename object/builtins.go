// ==============================================================================================
// FILE: object/builtins.go
// ==============================================================================================
// PACKAGE: object
// PURPOSE: gopa's builtin function table, grounded directly on
//          gopa_lang/builtin_stdlib.py's BUILTINS dict - the same names, the
//          same math-library delegation, the same loose number semantics.
//          GetBuiltin keeps the teacher's lookup-helper shape even though the
//          underlying table is now a map rather than a slice of name/fn pairs.
// ==============================================================================================

package object

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"
)

// Builtins maps every gopa stdlib function name to its implementation. The
// evaluator consults this table only after failing to find a user-defined
// name of the same spelling, so a script can shadow a builtin.
var Builtins = map[string]*Builtin{
	"random": {Name: "random", Fn: func(args ...Object) Object {
		return &Number{Value: rand.Float64()}
	}},
	"random_int": {Name: "random_int", Fn: func(args ...Object) Object {
		if len(args) != 2 {
			return newBuiltinError("random_int expects 2 arguments, got %d", len(args))
		}
		lo, ok1 := args[0].(*Number)
		hi, ok2 := args[1].(*Number)
		if !ok1 || !ok2 {
			return newBuiltinError("random_int expects numbers")
		}
		low, high := int(lo.Value), int(hi.Value)
		if high < low {
			low, high = high, low
		}
		return &Number{Value: float64(low + rand.Intn(high-low+1))}
	}},
	"floor": {Name: "floor", Fn: unaryMath(math.Floor)},
	"ceil":  {Name: "ceil", Fn: unaryMath(math.Ceil)},
	"round": {Name: "round", Fn: unaryMath(math.Round)},
	"abs":   {Name: "abs", Fn: unaryMath(math.Abs)},
	"sqrt":  {Name: "sqrt", Fn: unaryMath(math.Sqrt)},
	"sin":   {Name: "sin", Fn: unaryMath(math.Sin)},
	"cos":   {Name: "cos", Fn: unaryMath(math.Cos)},
	"tan":   {Name: "tan", Fn: unaryMath(math.Tan)},
	"log":   {Name: "log", Fn: unaryMath(math.Log)},
	"pow": {Name: "pow", Fn: func(args ...Object) Object {
		if len(args) != 2 {
			return newBuiltinError("pow expects 2 arguments, got %d", len(args))
		}
		base, ok1 := args[0].(*Number)
		exp, ok2 := args[1].(*Number)
		if !ok1 || !ok2 {
			return newBuiltinError("pow expects numbers")
		}
		return &Number{Value: math.Pow(base.Value, exp.Value)}
	}},
	"max": {Name: "max", Fn: func(args ...Object) Object {
		nums, err := numberVariadic(args)
		if err != nil {
			return newBuiltinError(err.Error())
		}
		if len(nums) == 0 {
			return newBuiltinError("max requires at least one value")
		}
		best := nums[0]
		for _, n := range nums[1:] {
			if n > best {
				best = n
			}
		}
		return &Number{Value: best}
	}},
	"min": {Name: "min", Fn: func(args ...Object) Object {
		nums, err := numberVariadic(args)
		if err != nil {
			return newBuiltinError(err.Error())
		}
		if len(nums) == 0 {
			return newBuiltinError("min requires at least one value")
		}
		best := nums[0]
		for _, n := range nums[1:] {
			if n < best {
				best = n
			}
		}
		return &Number{Value: best}
	}},
	"sum": {Name: "sum", Fn: func(args ...Object) Object {
		if len(args) == 1 {
			if list, ok := args[0].(*List); ok {
				total := 0.0
				for _, el := range list.Elements {
					n, ok := el.(*Number)
					if !ok {
						return newBuiltinError("sum requires a list of numbers")
					}
					total += n.Value
				}
				return &Number{Value: total}
			}
		}
		nums, err := numberVariadic(args)
		if err != nil {
			return newBuiltinError(err.Error())
		}
		total := 0.0
		for _, n := range nums {
			total += n
		}
		return &Number{Value: total}
	}},
	"len": {Name: "len", Fn: func(args ...Object) Object {
		if len(args) != 1 {
			return newBuiltinError("len expects 1 argument, got %d", len(args))
		}
		switch v := args[0].(type) {
		case *List:
			return &Number{Value: float64(len(v.Elements))}
		case *String:
			return &Number{Value: float64(len(v.Value))}
		case *Dictionary:
			return &Number{Value: float64(len(v.Keys))}
		default:
			return newBuiltinError("len not supported for %s", args[0].Type())
		}
	}},
	"range": {Name: "range", Fn: func(args ...Object) Object {
		var start, stop, step float64 = 0, 0, 1
		switch len(args) {
		case 1:
			n, ok := args[0].(*Number)
			if !ok {
				return newBuiltinError("range expects numbers")
			}
			stop = n.Value
		case 2, 3:
			a, ok1 := args[0].(*Number)
			b, ok2 := args[1].(*Number)
			if !ok1 || !ok2 {
				return newBuiltinError("range expects numbers")
			}
			start, stop = a.Value, b.Value
			if len(args) == 3 {
				s, ok := args[2].(*Number)
				if !ok {
					return newBuiltinError("range expects numbers")
				}
				step = s.Value
			}
		default:
			return newBuiltinError("range expects 1 to 3 arguments, got %d", len(args))
		}
		if step == 0 {
			return newBuiltinError("range step must not be zero")
		}
		var elements []Object
		if step > 0 {
			for v := start; v < stop; v += step {
				elements = append(elements, &Number{Value: v})
			}
		} else {
			for v := start; v > stop; v += step {
				elements = append(elements, &Number{Value: v})
			}
		}
		return &List{Elements: elements}
	}},
	"type_of": {Name: "type_of", Fn: func(args ...Object) Object {
		if len(args) != 1 {
			return newBuiltinError("type_of expects 1 argument, got %d", len(args))
		}
		return &String{Value: typeName(args[0])}
	}},
	"to_string": {Name: "to_string", Fn: func(args ...Object) Object {
		if len(args) != 1 {
			return newBuiltinError("to_string expects 1 argument, got %d", len(args))
		}
		return &String{Value: args[0].Inspect()}
	}},
	"to_number": {Name: "to_number", Fn: func(args ...Object) Object {
		if len(args) != 1 {
			return newBuiltinError("to_number expects 1 argument, got %d", len(args))
		}
		if n, ok := args[0].(*Number); ok {
			return n
		}
		s, ok := args[0].(*String)
		if !ok {
			return newBuiltinError("to_number expects a string")
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s.Value), 64)
		if err != nil {
			return newBuiltinError("could not convert %q to a number", s.Value)
		}
		return &Number{Value: v}
	}},
	// print_table renders its table as a string rather than printing it
	// directly; the evaluator writes the result to its configured output
	// stream (see Evaluator.callBuiltin), the same path say/show table use.
	"print_table": {Name: "print_table", Fn: func(args ...Object) Object {
		if len(args) != 2 {
			return newBuiltinError("print_table expects 2 arguments, got %d", len(args))
		}
		headers, ok := args[0].(*List)
		if !ok {
			return newBuiltinError("print_table expects a list of headers")
		}
		rows, ok := args[1].(*List)
		if !ok {
			return newBuiltinError("print_table expects a list of rows")
		}
		return &String{Value: renderTable(headers, rows)}
	}},
	"split": {Name: "split", Fn: func(args ...Object) Object {
		if len(args) != 2 {
			return newBuiltinError("split expects 2 arguments, got %d", len(args))
		}
		str, ok1 := args[0].(*String)
		sep, ok2 := args[1].(*String)
		if !ok1 || !ok2 {
			return newBuiltinError("split requires (string, separator)")
		}
		parts := strings.Split(str.Value, sep.Value)
		elements := make([]Object, len(parts))
		for i, p := range parts {
			elements[i] = &String{Value: p}
		}
		return &List{Elements: elements}
	}},
	"join": {Name: "join", Fn: func(args ...Object) Object {
		if len(args) != 2 {
			return newBuiltinError("join expects 2 arguments, got %d", len(args))
		}
		list, ok1 := args[0].(*List)
		sep, ok2 := args[1].(*String)
		if !ok1 || !ok2 {
			return newBuiltinError("join requires (list, separator)")
		}
		parts := make([]string, len(list.Elements))
		for i, el := range list.Elements {
			parts[i] = el.Inspect()
		}
		return &String{Value: strings.Join(parts, sep.Value)}
	}},
	"upper": {Name: "upper", Fn: func(args ...Object) Object {
		if len(args) != 1 {
			return newBuiltinError("upper expects 1 argument, got %d", len(args))
		}
		s, ok := args[0].(*String)
		if !ok {
			return newBuiltinError("upper expects a string")
		}
		return &String{Value: strings.ToUpper(s.Value)}
	}},
	"lower": {Name: "lower", Fn: func(args ...Object) Object {
		if len(args) != 1 {
			return newBuiltinError("lower expects 1 argument, got %d", len(args))
		}
		s, ok := args[0].(*String)
		if !ok {
			return newBuiltinError("lower expects a string")
		}
		return &String{Value: strings.ToLower(s.Value)}
	}},
}

func unaryMath(fn func(float64) float64) BuiltinFunction {
	return func(args ...Object) Object {
		if len(args) != 1 {
			return newBuiltinError("expected 1 argument, got %d", len(args))
		}
		n, ok := args[0].(*Number)
		if !ok {
			return newBuiltinError("expected a number, got %s", args[0].Type())
		}
		return &Number{Value: fn(n.Value)}
	}
}

func numberVariadic(args []Object) ([]float64, error) {
	out := make([]float64, 0, len(args))
	for _, a := range args {
		n, ok := a.(*Number)
		if !ok {
			return nil, fmt.Errorf("expected a number, got %s", a.Type())
		}
		out = append(out, n.Value)
	}
	return out, nil
}

func typeName(o Object) string {
	switch o.(type) {
	case *Number:
		return "number"
	case *String:
		return "string"
	case *Boolean:
		return "boolean"
	case *Nothing:
		return "nothing"
	case *List:
		return "list"
	case *Dictionary:
		return "dictionary"
	case *GopaObject:
		return "object"
	case *Function, *Builtin:
		return "function"
	default:
		return "unknown"
	}
}

// GetBuiltin is the lookup helper the evaluator calls after the environment
// chain turns up nothing, keeping the teacher's name/fallback shape.
func GetBuiltin(name string) (*Builtin, bool) {
	b, ok := Builtins[name]
	return b, ok
}

func newBuiltinError(format string, a ...interface{}) *Error {
	return &Error{Message: fmt.Sprintf(format, a...)}
}

func renderTable(headers, rows *List) string {
	var b strings.Builder
	headerCells := make([]string, len(headers.Elements))
	for i, h := range headers.Elements {
		headerCells[i] = h.Inspect()
	}
	b.WriteString(strings.Join(headerCells, " | "))
	b.WriteString("\n")
	for _, row := range rows.Elements {
		list, ok := row.(*List)
		if !ok {
			continue
		}
		cells := make([]string, len(list.Elements))
		for i, c := range list.Elements {
			cells[i] = c.Inspect()
		}
		b.WriteString(strings.Join(cells, " | "))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
