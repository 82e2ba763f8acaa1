// ==============================================================================================
// FILE: wasm/wasm_main.go
// BUILD: GOOS=js GOARCH=wasm go build -o main.wasm wasm/wasm_main.go
// ==============================================================================================
package main

import (
	"fmt"
	"strings"
	"syscall/js"

	"github.com/asrayg/gopa/evaluator"
	"github.com/asrayg/gopa/lexer"
	"github.com/asrayg/gopa/object"
	"github.com/asrayg/gopa/parser"
	"github.com/asrayg/gopa/permission"
)

func main() {
	c := make(chan struct{}, 0)

	js.Global().Set("runGopa", js.FuncOf(runCode))

	fmt.Println("gopa WASM engine loaded.")
	<-c
}

// runCode is the bridge between JS and Go: it lexes, parses, and evaluates a
// gopa snippet with a fresh scope and permission set for each call, and
// returns the captured say/print/show-table output plus any parser/runtime
// error back to the caller.
func runCode(this js.Value, p []js.Value) interface{} {
	code := p[0].String()

	permStr := ""
	if len(p) > 1 {
		permStr = p[1].String()
	}

	l := lexer.New(code)
	pObj := parser.New(l)
	program := pObj.ParseProgram()

	if errs := pObj.Errors(); len(errs) > 0 {
		var out []interface{}
		for _, msg := range errs {
			out = append(out, "PARSER ERROR: "+msg)
		}
		return map[string]interface{}{"error": out}
	}

	var captured strings.Builder
	perms := permission.Parse(permStr)
	e := evaluator.New(&captured, strings.NewReader(""), perms)
	env := object.NewEnvironment()

	if err := e.Run(program, env); err != nil {
		return map[string]interface{}{
			"error": []interface{}{err.Error()},
			"logs":  captured.String(),
		}
	}

	return map[string]interface{}{
		"logs":   captured.String(),
		"result": "",
	}
}
