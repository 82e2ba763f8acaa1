// ==============================================================================================
// FILE: repl/repl.go
// ==============================================================================================
// PACKAGE: repl
// PURPOSE: The Read-Eval-Print Loop interface.
//          It connects the user input stream to the compiler pipeline (Lexer->Parser->Evaluator)
//          and manages the persistent session state.
// ==============================================================================================

package repl

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/k0kubun/pp/v3"

	"github.com/asrayg/gopa/evaluator"
	"github.com/asrayg/gopa/lexer"
	"github.com/asrayg/gopa/object"
	"github.com/asrayg/gopa/parser"
	"github.com/asrayg/gopa/permission"
	"github.com/asrayg/gopa/token"
)

// ----------------------------------------------------------------------------
// UI CONSTANTS & CONFIGURATION
// ----------------------------------------------------------------------------

const (
	PROMPT = ">> "
	LOGO   = `
┏━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━┓
┃   ___                                              ┃
┃  / __|___ _ __  __ _                               ┃
┃ | (_ / _ \ '_ \/ _` + "`" + ` |                              ┃
┃  \___\___/ .__/\__,_|                              ┃
┃          |_|                                       ┃
┃                                                     ┃
┃ gopa - a storytelling programming language          ┃
┗━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━┛
`
)

// ANSI Color Codes for terminal output
const (
	Reset  = "\033[0m"
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Blue   = "\033[34m"
	Purple = "\033[35m"
	Cyan   = "\033[36m"
	Gray   = "\033[37m"
	Bold   = "\033[1m"
)

// ----------------------------------------------------------------------------
// REPL LOGIC
// ----------------------------------------------------------------------------

// Start launches the Read-Eval-Print Loop. It listens to 'in', evaluates
// code, and writes results to 'out'. 'env' and the underlying Evaluator
// persist across the whole session so a variable or function defined on one
// line is visible on the next, matching gopa.py's run_repl.
func Start(in io.Reader, out io.Writer, perms permission.Set, debug bool) {
	// A single shared bufio.Reader backs both line reading below and
	// e.In's `ask` reads, so an `ask` mid-statement consumes the next
	// physical line rather than racing a second buffer over the same stream.
	reader := bufio.NewReader(in)
	env := object.NewEnvironment()
	e := evaluator.New(out, reader, perms)
	e.Debug = debug
	debugMode := debug

	fmt.Fprint(out, LOGO)
	printHelp(out)

	for {
		fmt.Fprint(out, Cyan+PROMPT+Reset)
		rawLine, err := reader.ReadString('\n')
		if err != nil && rawLine == "" {
			return
		}

		line := strings.TrimSpace(rawLine)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ".") {
			switch line {
			case ".exit":
				fmt.Fprintln(out, Yellow+"Goodbye!"+Reset)
				return
			case ".clear":
				env = object.NewEnvironment()
				fmt.Fprintln(out, Green+"Environment cleared (memory reset)."+Reset)
				continue
			case ".debug":
				debugMode = !debugMode
				e.Debug = debugMode
				status := "DISABLED"
				if debugMode {
					status = "ENABLED"
				}
				fmt.Fprintf(out, Gray+"Debug mode %s\n"+Reset, status)
				continue
			case ".help":
				printHelp(out)
				continue
			default:
				fmt.Fprintf(out, Red+"Unknown command: %s. Type .help for info.\n"+Reset, line)
				continue
			}
		}

		if debugMode {
			printTokens(out, line)
		}

		l := lexer.New(line)
		p := parser.New(l)
		program := p.ParseProgram()

		if len(p.Errors()) != 0 {
			printParserErrors(out, p.Errors())
			continue
		}

		if debugMode {
			printAST(out, program)
		}

		if err := e.Run(program, env); err != nil {
			fmt.Fprintf(out, Red+Bold+"ERROR: "+Reset+Red+"%s\n"+Reset, err.Error())
		}
	}
}

// ----------------------------------------------------------------------------
// HELPER FUNCTIONS
// ----------------------------------------------------------------------------

func printHelp(out io.Writer) {
	fmt.Fprintln(out, Gray+"Commands:")
	fmt.Fprintln(out, "  .exit   Quit the REPL")
	fmt.Fprintln(out, "  .clear  Reset memory")
	fmt.Fprintln(out, "  .debug  Toggle verbose AST/Token output")
	fmt.Fprintln(out, "  .help   Show this message"+Reset)
	fmt.Fprintln(out)
}

func printTokens(out io.Writer, line string) {
	fmt.Fprintln(out, Gray+"┌── [ TOKENS ] ──────────────────────────────────────────┐"+Reset)
	l := lexer.New(line)
	for tok := l.NextToken(); tok.Type != token.EOF; tok = l.NextToken() {
		fmt.Fprintf(out, "│ %-15s : %s\n", tok.Type, tok.Literal)
	}
	fmt.Fprintln(out, Gray+"└────────────────────────────────────────────────────────┘"+Reset)
}

func printAST(out io.Writer, program fmt.Stringer) {
	fmt.Fprintln(out, Gray+"┌── [ AST TREE ] ────────────────────────────────────────┐"+Reset)
	pp.Fprintln(out, program)
	fmt.Fprintln(out, Gray+"└────────────────────────────────────────────────────────┘"+Reset)
}

func printParserErrors(out io.Writer, errors []string) {
	fmt.Fprintln(out, Red+Bold+"Whoops! Parser Errors:"+Reset)
	for _, msg := range errors {
		fmt.Fprintf(out, Red+"  ✖ %s\n"+Reset, msg)
	}
}
