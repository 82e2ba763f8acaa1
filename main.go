// ==============================================================================================
// FILE: main.go
// PURPOSE: gopa's CLI entry point - three subcommands (run/repl/test) parsed
//          with go-flags, mirroring Eloquence's main.go shape but replacing
//          its hand-rolled os.Args switch.
// ==============================================================================================

package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	flags "github.com/jessevdk/go-flags"
	"go.uber.org/zap"

	"github.com/asrayg/gopa/evaluator"
	"github.com/asrayg/gopa/lexer"
	"github.com/asrayg/gopa/object"
	"github.com/asrayg/gopa/parser"
	"github.com/asrayg/gopa/permission"
	"github.com/asrayg/gopa/repl"
	"github.com/asrayg/gopa/scheduler"
)

// sharedOpts is embedded in each subcommand so --perm/--debug are spelled
// identically across run/repl.
type sharedOpts struct {
	Perm  string `long:"perm" description:"comma-separated capabilities: network,files,graphics,sound,packages,python,server,timers,cron,state"`
	Debug bool   `long:"debug" description:"print token/AST traces and abort the run on the first error"`
}

type runCmd struct {
	sharedOpts
	Forever bool `long:"forever" description:"start the wall-clock scheduler and block until SIGINT"`
	Args    struct {
		File string `positional-arg-name:"file" required:"true"`
	} `positional-args:"yes"`
}

type replCmd struct {
	sharedOpts
}

type testCmd struct{}

var opts struct {
	Run  runCmd  `command:"run" description:"run a .gopa source file"`
	Repl replCmd `command:"repl" description:"start an interactive session"`
	Test testCmd `command:"test" description:"run the tests/cases conformance suite"`
}

func main() {
	parser := flags.NewParser(&opts, flags.Default)
	parser.CommandHandler = func(command flags.Commander, args []string) error {
		switch command.(type) {
		case *runCmd:
			return runRun(&opts.Run)
		case *replCmd:
			return runRepl(&opts.Repl)
		case *testCmd:
			return runTest()
		}
		return fmt.Errorf("unknown command")
	}

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(debug bool) *zap.Logger {
	if !debug {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func runRun(cmd *runCmd) error {
	data, err := os.ReadFile(cmd.Args.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error reading file: %s\n", err)
		os.Exit(1)
	}

	l := lexer.New(string(data))
	p := parser.New(l)
	program := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		fmt.Fprintln(os.Stderr, "parser errors:")
		for _, msg := range errs {
			fmt.Fprintf(os.Stderr, "\t%s\n", msg)
		}
		os.Exit(1)
	}

	perms := permission.Parse(cmd.Perm)
	e := evaluator.New(os.Stdout, os.Stdin, perms)
	e.Debug = cmd.Debug
	e.Logger = newLogger(cmd.Debug)

	if cmd.Forever {
		e.Sched = scheduler.New(false)
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		done := make(chan error, 1)
		go func() {
			env := object.NewEnvironment()
			done <- e.Run(program, env)
		}()
		e.Sched.Start()
		defer e.Sched.Stop()
		select {
		case <-sig:
			return nil
		case err := <-done:
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
		}
		return nil
	}

	env := object.NewEnvironment()
	if err := e.Run(program, env); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return nil
}

func runRepl(cmd *replCmd) error {
	perms := permission.Parse(cmd.Perm)
	repl.Start(os.Stdin, os.Stdout, perms, cmd.Debug)
	return nil
}

func runTest() error {
	const casesDir = "tests/cases"
	const expectedDir = "tests/expected"

	entries, err := os.ReadDir(casesDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "no test cases found: %s\n", err)
		os.Exit(1)
	}

	failures := 0
	total := 0
	for _, ent := range entries {
		if ent.IsDir() || !strings.HasSuffix(ent.Name(), ".gopa") {
			continue
		}
		total++
		name := strings.TrimSuffix(ent.Name(), ".gopa")
		pass, diff := runConformanceCase(casesDir, expectedDir, name)
		if pass {
			fmt.Printf("ok   %s\n", name)
		} else {
			failures++
			fmt.Printf("FAIL %s\n%s\n", name, diff)
		}
	}

	fmt.Printf("\n%d/%d tests passed\n", total-failures, total)
	if failures > 0 {
		os.Exit(1)
	}
	return nil
}

// runConformanceCase runs one tests/cases/<name>.gopa script with every
// permission granted, steps the virtual scheduler ten times at dt=0.1s to
// flush any after/every/cron output, then diffs the captured output against
// tests/expected/<name>.txt.
func runConformanceCase(casesDir, expectedDir, name string) (bool, string) {
	data, err := os.ReadFile(casesDir + "/" + name + ".gopa")
	if err != nil {
		return false, err.Error()
	}
	want, err := os.ReadFile(expectedDir + "/" + name + ".txt")
	if err != nil {
		return false, err.Error()
	}

	l := lexer.New(string(data))
	p := parser.New(l)
	program := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		return false, strings.Join(errs, "; ")
	}

	var out strings.Builder
	e := evaluator.New(&out, strings.NewReader(""), permission.All())
	env := object.NewEnvironment()
	if err := e.Run(program, env); err != nil {
		return false, err.Error()
	}
	for i := 0; i < 10; i++ {
		e.Sched.Step(0.1)
	}

	got := out.String()
	if got == string(want) {
		return true, ""
	}
	return false, fmt.Sprintf("--- expected ---\n%s--- got ---\n%s", want, got)
}
