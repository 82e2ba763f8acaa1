// ==============================================================================================
// FILE: evaluator/evaluator.go
// ==============================================================================================
// PACKAGE: evaluator
// PURPOSE: Walks a gopa ast.Program and runs it. Statements never panic:
//          every execute/evaluate call returns an object.Object, and the four
//          control-flow sentinels (Return/Break/Continue/Stop) plus *object.Error
//          travel as ordinary return values, the same way the interpreter's
//          Eval passes control-flow wrappers up through a switch rather than
//          through Go panic/recover.
// ==============================================================================================

package evaluator

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/asrayg/gopa/ast"
	"github.com/asrayg/gopa/collab"
	"github.com/asrayg/gopa/lexer"
	"github.com/asrayg/gopa/object"
	"github.com/asrayg/gopa/parser"
	"github.com/asrayg/gopa/permission"
	"github.com/asrayg/gopa/pkgmanager"
	"github.com/asrayg/gopa/scheduler"
)

// Evaluator holds the collaborators a running gopa program can reach. A
// script only ever touches these through the narrow interfaces in collab/,
// never the concrete types directly.
type Evaluator struct {
	Out      io.Writer
	In       *bufio.Reader
	Debug    bool
	Logger   *zap.Logger
	Perms    permission.Set
	Sched    *scheduler.Scheduler
	Graphics collab.Graphics
	Network  collab.Network
	Files    collab.Files
	Python   collab.Python
	Server   collab.Server
	Packages *pkgmanager.Manager

	canvas *collab.Canvas
}

// New builds an Evaluator wired with the default collaborator set: trace
// graphics, a real HTTP client, the local filesystem, an always-unavailable
// python bridge, and an echo-backed HTTP server. A virtual-time scheduler is
// used by default; callers wanting wall-clock `--forever` behavior swap
// e.Sched for scheduler.New(false) and call Start.
func New(out io.Writer, in io.Reader, perms permission.Set) *Evaluator {
	return &Evaluator{
		Out:      out,
		In:       bufio.NewReader(in),
		Perms:    perms,
		Logger:   zap.NewNop(),
		Sched:    scheduler.New(true),
		Graphics: collab.NewTraceGraphics(out),
		Network:  collab.NewHTTPNetwork(),
		Files:    collab.NewLocalFiles(),
		Python:   collab.NewUnavailablePython(),
		Server:   collab.NewEchoServer(),
		Packages: pkgmanager.New(perms, defaultPackageStoreDir()),
	}
}

func defaultPackageStoreDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".gopa_packages"
	}
	return filepath.Join(home, ".gopa_packages")
}

// Run executes every top-level statement in program against env. Outside
// debug mode, an error raised by one statement is printed to Out and
// swallowed so the next top-level statement still runs; in debug mode the
// first error aborts the run and is returned to the caller. A `stop`
// statement halts the program cleanly either way.
func (e *Evaluator) Run(program *ast.Program, env *object.Environment) error {
	e.Logger.Debug("running program", zap.Int("statements", len(program.Statements)))
	for _, stmt := range program.Statements {
		res := e.execStatement(stmt, env)
		switch res.Type() {
		case object.STOP_OBJ:
			return nil
		case object.ERROR_OBJ:
			errObj := res.(*object.Error)
			if e.Debug {
				return errors.New(errObj.Message)
			}
			fmt.Fprintln(e.Out, errObj.Message)
		}
	}
	return nil
}

// loadFile lexes, parses, and runs a .gopa source file into env - the
// mechanism behind gopa's `use` statement for pulling a package's entry
// point into the running interpreter.
func (e *Evaluator) loadFile(path string, env *object.Environment) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	l := lexer.New(string(data))
	p := parser.New(l)
	program := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		return fmt.Errorf("parse errors in %s: %s", path, strings.Join(errs, "; "))
	}
	return e.Run(program, env)
}

// isSignal reports whether res is one of the four control-flow sentinels or
// an error - the only object kinds that make execStatements stop early and
// bubble up instead of moving on to the next statement in a block.
func isSignal(res object.Object) bool {
	switch res.Type() {
	case object.RETURN_OBJ, object.BREAK_OBJ, object.CONTINUE_OBJ, object.STOP_OBJ, object.ERROR_OBJ:
		return true
	}
	return false
}

func newError(format string, a ...interface{}) *object.Error {
	return &object.Error{Message: fmt.Sprintf(format, a...)}
}

// execStatements runs stmts in order against env. No child scope is created
// here - function calls and mouse-click/server handler bodies run in a child
// frame built by their caller; if/loop bodies share
// their enclosing scope so that, e.g., a counter assigned before a loop is
// the same binding the loop body mutates (Environment.Set never rebinds an
// outer frame, so sharing the frame is what makes mutation visible).
func (e *Evaluator) execStatements(stmts []ast.Statement, env *object.Environment) object.Object {
	for _, s := range stmts {
		res := e.execStatement(s, env)
		if isSignal(res) {
			return res
		}
	}
	return object.NOTHING
}

// execLoopBody runs one iteration of a loop body and classifies the result:
// brk tells the loop to stop iterating; propagate is non-nil when a Return,
// Stop, or Error must keep bubbling past this loop entirely.
func (e *Evaluator) execLoopBody(body []ast.Statement, env *object.Environment) (brk bool, propagate object.Object) {
	res := e.execStatements(body, env)
	switch res.Type() {
	case object.BREAK_OBJ:
		return true, nil
	case object.CONTINUE_OBJ:
		return false, nil
	case object.RETURN_OBJ, object.ERROR_OBJ, object.STOP_OBJ:
		return true, res
	default:
		return false, nil
	}
}

// ==============================================================================================
// STATEMENTS
// ==============================================================================================

func (e *Evaluator) execStatement(stmt ast.Statement, env *object.Environment) object.Object {
	switch node := stmt.(type) {
	case *ast.ExpressionStatement:
		if node.Expr == nil {
			return object.NOTHING
		}
		return e.Eval(node.Expr, env)

	case *ast.Assignment:
		val := e.Eval(node.Value, env)
		if isSignal(val) {
			return val
		}
		return e.assign(node.Target, env, val)

	case *ast.Mutation:
		return e.execMutation(node, env)

	case *ast.SayStatement:
		return e.execSay(node, env)

	case *ast.PrintStatement:
		v := e.Eval(node.Expr, env)
		if isSignal(v) {
			return v
		}
		fmt.Fprintln(e.Out, v.Inspect())
		return object.NOTHING

	case *ast.ClearScreen:
		fmt.Fprint(e.Out, "\033[H\033[2J")
		return object.NOTHING

	case *ast.ShowTable:
		return e.execShowTable(node, env)

	case *ast.AskStatement:
		return e.execAsk(node, env)

	case *ast.IfStatement:
		cond := e.Eval(node.Condition, env)
		if isSignal(cond) {
			return cond
		}
		if object.IsTruthy(cond) {
			return e.execStatements(node.Then, env)
		}
		return e.execStatements(node.Else, env)

	case *ast.RepeatForever:
		for {
			brk, prop := e.execLoopBody(node.Body, env)
			if prop != nil {
				return prop
			}
			if brk {
				break
			}
		}
		return object.NOTHING

	case *ast.RepeatTimes:
		countObj := e.Eval(node.Count, env)
		if isSignal(countObj) {
			return countObj
		}
		n, ok := countObj.(*object.Number)
		if !ok {
			return newError("type error: repeat count must be a number, got %s", countObj.Type())
		}
		count := int(n.Value)
		for i := 0; i < count; i++ {
			brk, prop := e.execLoopBody(node.Body, env)
			if prop != nil {
				return prop
			}
			if brk {
				break
			}
		}
		return object.NOTHING

	case *ast.RepeatUntil:
		for {
			cond := e.Eval(node.Condition, env)
			if isSignal(cond) {
				return cond
			}
			if object.IsTruthy(cond) {
				break
			}
			brk, prop := e.execLoopBody(node.Body, env)
			if prop != nil {
				return prop
			}
			if brk {
				break
			}
		}
		return object.NOTHING

	case *ast.DoUntil:
		for {
			brk, prop := e.execLoopBody(node.Body, env)
			if prop != nil {
				return prop
			}
			if brk {
				break
			}
			cond := e.Eval(node.Condition, env)
			if isSignal(cond) {
				return cond
			}
			if object.IsTruthy(cond) {
				break
			}
		}
		return object.NOTHING

	case *ast.ForEachLoop:
		listObj := e.Eval(node.ListExpr, env)
		if isSignal(listObj) {
			return listObj
		}
		list, ok := listObj.(*object.List)
		if !ok {
			return newError("type error: for each requires a list, got %s", listObj.Type())
		}
		for _, el := range list.Elements {
			env.Set(node.VarName, el)
			brk, prop := e.execLoopBody(node.Body, env)
			if prop != nil {
				return prop
			}
			if brk {
				break
			}
		}
		return object.NOTHING

	case *ast.BreakStatement:
		return &object.BreakSignal{}

	case *ast.ContinueStatement:
		return &object.ContinueSignal{}

	case *ast.StopStatement:
		return &object.StopSignal{}

	case *ast.FunctionDef:
		fn := &object.Function{Name: node.Name, Parameters: node.Params, Body: node.Body, Env: env}
		env.Set(node.Name, fn)
		return object.NOTHING

	case *ast.ReturnStatement:
		val := object.Object(object.NOTHING)
		if node.Value != nil {
			val = e.Eval(node.Value, env)
			if isSignal(val) {
				return val
			}
		}
		return &object.ReturnSignal{Value: val}

	case *ast.MatchStatement:
		return e.execMatch(node, env)

	case *ast.ListAdd:
		return e.execListAdd(node, env)

	case *ast.ListRemove:
		return e.execListRemove(node, env)

	case *ast.ListSort:
		return e.execListSort(node, env)

	case *ast.ListReverse:
		listObj := e.Eval(node.ListExpr, env)
		if isSignal(listObj) {
			return listObj
		}
		list, ok := listObj.(*object.List)
		if !ok {
			return newError("type error: reverse requires a list, got %s", listObj.Type())
		}
		for i, j := 0, len(list.Elements)-1; i < j; i, j = i+1, j-1 {
			list.Elements[i], list.Elements[j] = list.Elements[j], list.Elements[i]
		}
		return object.NOTHING

	case *ast.ListShuffle:
		listObj := e.Eval(node.ListExpr, env)
		if isSignal(listObj) {
			return listObj
		}
		list, ok := listObj.(*object.List)
		if !ok {
			return newError("type error: shuffle requires a list, got %s", listObj.Type())
		}
		rand.Shuffle(len(list.Elements), func(i, j int) {
			list.Elements[i], list.Elements[j] = list.Elements[j], list.Elements[i]
		})
		return object.NOTHING

	case *ast.WriteFile:
		return e.execWriteFile(node, env)

	case *ast.DrawCircle:
		return e.execDrawCircle(node, env)

	case *ast.DrawRectangle:
		return e.execDrawRectangle(node, env)

	case *ast.DrawLine:
		return e.execDrawLine(node, env)

	case *ast.DrawText:
		return e.execDrawText(node, env)

	case *ast.WhenMouseClicks:
		return e.execWhenMouseClicks(node, env)

	case *ast.WaitStatement:
		secs := e.Eval(node.Seconds, env)
		if isSignal(secs) {
			return secs
		}
		n, ok := secs.(*object.Number)
		if !ok {
			return newError("type error: wait requires a number of seconds")
		}
		e.Sched.Wait(n.Value)
		return object.NOTHING

	case *ast.AfterStatement:
		if err := e.Perms.CheckTimers(); err != nil {
			return newError(err.Error())
		}
		secs := e.Eval(node.Seconds, env)
		if isSignal(secs) {
			return secs
		}
		n, ok := secs.(*object.Number)
		if !ok {
			return newError("type error: after requires a number of seconds")
		}
		e.Sched.After(n.Value, e.taskRunner(node.Body, env))
		return object.NOTHING

	case *ast.EveryStatement:
		if err := e.Perms.CheckTimers(); err != nil {
			return newError(err.Error())
		}
		secs := e.Eval(node.Seconds, env)
		if isSignal(secs) {
			return secs
		}
		n, ok := secs.(*object.Number)
		if !ok {
			return newError("type error: every requires a number of seconds")
		}
		e.Sched.Every(n.Value, e.taskRunner(node.Body, env))
		return object.NOTHING

	case *ast.JobStatement:
		if err := e.Perms.CheckTimers(); err != nil {
			return newError(err.Error())
		}
		secs := e.Eval(node.Seconds, env)
		if isSignal(secs) {
			return secs
		}
		n, ok := secs.(*object.Number)
		if !ok {
			return newError("type error: job requires a number of seconds")
		}
		e.Sched.Job(node.Name, n.Value, e.taskRunner(node.Body, env))
		return object.NOTHING

	case *ast.StopJob:
		if err := e.Perms.CheckTimers(); err != nil {
			return newError(err.Error())
		}
		e.Sched.StopJob(node.Name)
		return object.NOTHING

	case *ast.CronStatement:
		if err := e.Perms.CheckCron(); err != nil {
			return newError(err.Error())
		}
		if err := e.Sched.Cron(node.Schedule, e.taskRunner(node.Body, env)); err != nil {
			return newError(err.Error())
		}
		return object.NOTHING

	case *ast.UseStatement:
		if err := e.Packages.Use(node.PackageName, func(path string) error { return e.loadFile(path, env) }); err != nil {
			return newError(err.Error())
		}
		return object.NOTHING

	case *ast.InstallStatement:
		if err := e.Packages.Install(node.PackageName); err != nil {
			return newError(err.Error())
		}
		return object.NOTHING

	case *ast.UsePython:
		if err := e.Perms.CheckPython(); err != nil {
			return newError(err.Error())
		}
		if !collab.AllowedPythonModules[node.ModuleName] {
			return newError("python module %q is not in the allowlist", node.ModuleName)
		}
		e.Logger.Debug("use python", zap.String("module", node.ModuleName), zap.String("alias", node.Alias))
		return object.NOTHING

	case *ast.ServerBlock:
		return e.execServerBlock(node, env)

	default:
		return newError("runtime error: unhandled statement %T", stmt)
	}
}

func (e *Evaluator) taskRunner(body []ast.Statement, env *object.Environment) scheduler.Runner {
	return func() error {
		res := e.execStatements(body, env)
		if errObj, ok := res.(*object.Error); ok {
			return errors.New(errObj.Message)
		}
		return nil
	}
}

func (e *Evaluator) execMutation(node *ast.Mutation, env *object.Environment) object.Object {
	current := e.Eval(node.Target, env)
	if isSignal(current) {
		return current
	}
	curNum, ok := current.(*object.Number)
	if !ok {
		return newError("type error: %s requires a numeric target, got %s", node.Op, current.Type())
	}
	delta := 1.0
	if node.Value != nil {
		deltaObj := e.Eval(node.Value, env)
		if isSignal(deltaObj) {
			return deltaObj
		}
		deltaNum, ok := deltaObj.(*object.Number)
		if !ok {
			return newError("type error: %s requires a numeric amount, got %s", node.Op, deltaObj.Type())
		}
		delta = deltaNum.Value
	}
	var updated float64
	switch node.Op {
	case "decrease":
		updated = curNum.Value - delta
	default:
		updated = curNum.Value + delta
	}
	return e.assign(node.Target, env, &object.Number{Value: updated})
}

func (e *Evaluator) execSay(node *ast.SayStatement, env *object.Environment) object.Object {
	parts := make([]string, len(node.Parts))
	for i, p := range node.Parts {
		v := e.Eval(p, env)
		if isSignal(v) {
			return v
		}
		parts[i] = v.Inspect()
	}
	fmt.Fprintln(e.Out, strings.Join(parts, " "))
	return object.NOTHING
}

func (e *Evaluator) execShowTable(node *ast.ShowTable, env *object.Environment) object.Object {
	rowsObj := e.Eval(node.Rows, env)
	if isSignal(rowsObj) {
		return rowsObj
	}
	rows, ok := rowsObj.(*object.List)
	if !ok {
		return newError("type error: show table requires a list of rows, got %s", rowsObj.Type())
	}
	var b strings.Builder
	b.WriteString(strings.Join(node.Headers, " | "))
	b.WriteString("\n")
	for _, row := range rows.Elements {
		list, ok := row.(*object.List)
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
	fmt.Fprint(e.Out, b.String())
	return object.NOTHING
}

func (e *Evaluator) execAsk(node *ast.AskStatement, env *object.Environment) object.Object {
	if node.Prompt != "" {
		fmt.Fprint(e.Out, node.Prompt+" ")
	}
	line, err := e.In.ReadString('\n')
	if err != nil && line == "" {
		line = ""
	}
	line = strings.TrimRight(line, "\r\n")

	var val object.Object
	if node.AskType == "number" {
		n, perr := strconv.ParseFloat(strings.TrimSpace(line), 64)
		if perr != nil {
			return newError("could not read a number from %q", line)
		}
		val = &object.Number{Value: n}
	} else {
		val = &object.String{Value: line}
	}
	if node.VarName != "" {
		env.Set(node.VarName, val)
	}
	return object.NOTHING
}

func (e *Evaluator) execMatch(node *ast.MatchStatement, env *object.Environment) object.Object {
	scrutinee := e.Eval(node.Expr, env)
	if isSignal(scrutinee) {
		return scrutinee
	}
	for _, c := range node.Cases {
		if c.Value == nil {
			return e.execStatements(c.Body, env)
		}
		val := e.Eval(c.Value, env)
		if isSignal(val) {
			return val
		}
		if c.To != nil {
			toVal := e.Eval(c.To, env)
			if isSignal(toVal) {
				return toVal
			}
			if inRange(scrutinee, val, toVal) {
				return e.execStatements(c.Body, env)
			}
			continue
		}
		if valuesEqual(scrutinee, val) {
			return e.execStatements(c.Body, env)
		}
	}
	return object.NOTHING
}

func inRange(v, lo, hi object.Object) bool {
	vn, ok1 := v.(*object.Number)
	lon, ok2 := lo.(*object.Number)
	hin, ok3 := hi.(*object.Number)
	if !ok1 || !ok2 || !ok3 {
		return false
	}
	return vn.Value >= lon.Value && vn.Value <= hin.Value
}

func (e *Evaluator) execListAdd(node *ast.ListAdd, env *object.Environment) object.Object {
	listObj := e.Eval(node.ListExpr, env)
	if isSignal(listObj) {
		return listObj
	}
	list, ok := listObj.(*object.List)
	if !ok {
		return newError("type error: add requires a list, got %s", listObj.Type())
	}
	val := e.Eval(node.Value, env)
	if isSignal(val) {
		return val
	}
	list.Elements = append(list.Elements, val)
	return object.NOTHING
}

func (e *Evaluator) execListRemove(node *ast.ListRemove, env *object.Environment) object.Object {
	listObj := e.Eval(node.ListExpr, env)
	if isSignal(listObj) {
		return listObj
	}
	list, ok := listObj.(*object.List)
	if !ok {
		return newError("type error: remove requires a list, got %s", listObj.Type())
	}
	if node.Index != nil {
		idxObj := e.Eval(node.Index, env)
		if isSignal(idxObj) {
			return idxObj
		}
		n, ok := idxObj.(*object.Number)
		if !ok {
			return newError("type error: remove requires a numeric index")
		}
		i := int(n.Value)
		if i < 0 || i >= len(list.Elements) {
			return newError("index error: %d is out of range for a list of length %d", i, len(list.Elements))
		}
		list.Elements = append(list.Elements[:i], list.Elements[i+1:]...)
		return object.NOTHING
	}
	val := e.Eval(node.Value, env)
	if isSignal(val) {
		return val
	}
	for i, el := range list.Elements {
		if valuesEqual(el, val) {
			list.Elements = append(list.Elements[:i], list.Elements[i+1:]...)
			return object.NOTHING
		}
	}
	return object.NOTHING
}

func (e *Evaluator) execListSort(node *ast.ListSort, env *object.Environment) object.Object {
	listObj := e.Eval(node.ListExpr, env)
	if isSignal(listObj) {
		return listObj
	}
	list, ok := listObj.(*object.List)
	if !ok {
		return newError("type error: sort requires a list, got %s", listObj.Type())
	}
	var sortErr *object.Error
	sort.SliceStable(list.Elements, func(i, j int) bool {
		less, err := lessThan(list.Elements[i], list.Elements[j])
		if err != nil && sortErr == nil {
			sortErr = newError(err.Error())
		}
		return less
	})
	if sortErr != nil {
		return sortErr
	}
	return object.NOTHING
}

func lessThan(a, b object.Object) (bool, error) {
	an, aok := a.(*object.Number)
	bn, bok := b.(*object.Number)
	if aok && bok {
		return an.Value < bn.Value, nil
	}
	as, asok := a.(*object.String)
	bs, bsok := b.(*object.String)
	if asok && bsok {
		return as.Value < bs.Value, nil
	}
	return false, fmt.Errorf("type error: cannot order %s and %s", a.Type(), b.Type())
}

func (e *Evaluator) execWriteFile(node *ast.WriteFile, env *object.Environment) object.Object {
	if err := e.Perms.CheckFiles(); err != nil {
		return newError(err.Error())
	}
	contentObj := e.Eval(node.Content, env)
	if isSignal(contentObj) {
		return contentObj
	}
	nameObj := e.Eval(node.Filename, env)
	if isSignal(nameObj) {
		return nameObj
	}
	name, ok := nameObj.(*object.String)
	if !ok {
		return newError("type error: write to file requires a string filename")
	}
	if err := e.Files.Write(name.Value, contentObj.Inspect()); err != nil {
		return newError("file error: %v", err)
	}
	return object.NOTHING
}

func (e *Evaluator) ensureCanvas() (collab.Canvas, object.Object) {
	if e.canvas != nil {
		return *e.canvas, nil
	}
	c, err := e.Graphics.CreateCanvas(800, 600)
	if err != nil {
		return collab.Canvas{}, newError("graphics error: %v", err)
	}
	e.canvas = &c
	return c, nil
}

func evalInt(e *Evaluator, expr ast.Expression, env *object.Environment) (int, object.Object) {
	v := e.Eval(expr, env)
	if isSignal(v) {
		return 0, v
	}
	n, ok := v.(*object.Number)
	if !ok {
		return 0, newError("type error: expected a number, got %s", v.Type())
	}
	return int(n.Value), nil
}

func (e *Evaluator) execDrawCircle(node *ast.DrawCircle, env *object.Environment) object.Object {
	if err := e.Perms.CheckGraphics(); err != nil {
		return newError(err.Error())
	}
	if _, errObj := e.ensureCanvas(); errObj != nil {
		return errObj
	}
	x, errObj := evalInt(e, node.X, env)
	if errObj != nil {
		return errObj
	}
	y, errObj := evalInt(e, node.Y, env)
	if errObj != nil {
		return errObj
	}
	size, errObj := evalInt(e, node.Size, env)
	if errObj != nil {
		return errObj
	}
	if err := e.Graphics.DrawCircle(x, y, size, node.Color); err != nil {
		return newError("graphics error: %v", err)
	}
	return object.NOTHING
}

func (e *Evaluator) execDrawRectangle(node *ast.DrawRectangle, env *object.Environment) object.Object {
	if err := e.Perms.CheckGraphics(); err != nil {
		return newError(err.Error())
	}
	if _, errObj := e.ensureCanvas(); errObj != nil {
		return errObj
	}
	x1, errObj := evalInt(e, node.X1, env)
	if errObj != nil {
		return errObj
	}
	y1, errObj := evalInt(e, node.Y1, env)
	if errObj != nil {
		return errObj
	}
	x2, errObj := evalInt(e, node.X2, env)
	if errObj != nil {
		return errObj
	}
	y2, errObj := evalInt(e, node.Y2, env)
	if errObj != nil {
		return errObj
	}
	if err := e.Graphics.DrawRectangle(x1, y1, x2, y2, node.Color); err != nil {
		return newError("graphics error: %v", err)
	}
	return object.NOTHING
}

func (e *Evaluator) execDrawLine(node *ast.DrawLine, env *object.Environment) object.Object {
	if err := e.Perms.CheckGraphics(); err != nil {
		return newError(err.Error())
	}
	if _, errObj := e.ensureCanvas(); errObj != nil {
		return errObj
	}
	x1, errObj := evalInt(e, node.X1, env)
	if errObj != nil {
		return errObj
	}
	y1, errObj := evalInt(e, node.Y1, env)
	if errObj != nil {
		return errObj
	}
	x2, errObj := evalInt(e, node.X2, env)
	if errObj != nil {
		return errObj
	}
	y2, errObj := evalInt(e, node.Y2, env)
	if errObj != nil {
		return errObj
	}
	if err := e.Graphics.DrawLine(x1, y1, x2, y2, node.Color); err != nil {
		return newError("graphics error: %v", err)
	}
	return object.NOTHING
}

func (e *Evaluator) execDrawText(node *ast.DrawText, env *object.Environment) object.Object {
	if err := e.Perms.CheckGraphics(); err != nil {
		return newError(err.Error())
	}
	if _, errObj := e.ensureCanvas(); errObj != nil {
		return errObj
	}
	textObj := e.Eval(node.Text, env)
	if isSignal(textObj) {
		return textObj
	}
	x, errObj := evalInt(e, node.X, env)
	if errObj != nil {
		return errObj
	}
	y, errObj := evalInt(e, node.Y, env)
	if errObj != nil {
		return errObj
	}
	size, errObj := evalInt(e, node.Size, env)
	if errObj != nil {
		return errObj
	}
	if err := e.Graphics.DrawText(textObj.Inspect(), x, y, size, node.Color); err != nil {
		return newError("graphics error: %v", err)
	}
	return object.NOTHING
}

func (e *Evaluator) execWhenMouseClicks(node *ast.WhenMouseClicks, env *object.Environment) object.Object {
	if err := e.Perms.CheckGraphics(); err != nil {
		return newError(err.Error())
	}
	canvasObj := e.Eval(node.Canvas, env)
	if isSignal(canvasObj) {
		return canvasObj
	}
	canvas, errObj := canvasFromObject(canvasObj)
	if errObj != nil {
		return errObj
	}
	body := node.Body
	e.Graphics.OnMouseClick(canvas, func(x, y int) error {
		child := object.NewEnclosedEnvironment(env)
		child.Set("x", &object.Number{Value: float64(x)})
		child.Set("y", &object.Number{Value: float64(y)})
		res := e.execStatements(body, child)
		if errObj, ok := res.(*object.Error); ok {
			return errors.New(errObj.Message)
		}
		return nil
	})
	return object.NOTHING
}

func canvasFromObject(obj object.Object) (collab.Canvas, *object.Error) {
	gopaObj, ok := obj.(*object.GopaObject)
	if !ok {
		return collab.Canvas{}, newError("type error: expected a canvas, got %s", obj.Type())
	}
	id, _ := gopaObj.Fields.Get("id")
	width, _ := gopaObj.Fields.Get("width")
	height, _ := gopaObj.Fields.Get("height")
	c := collab.Canvas{}
	if s, ok := id.(*object.String); ok {
		c.ID = s.Value
	}
	if n, ok := width.(*object.Number); ok {
		c.Width = int(n.Value)
	}
	if n, ok := height.(*object.Number); ok {
		c.Height = int(n.Value)
	}
	return c, nil
}

func canvasToObject(c collab.Canvas) *object.GopaObject {
	obj := object.NewGopaObject()
	obj.Fields.Set("id", &object.String{Value: c.ID})
	obj.Fields.Set("width", &object.Number{Value: float64(c.Width)})
	obj.Fields.Set("height", &object.Number{Value: float64(c.Height)})
	return obj
}

func (e *Evaluator) execServerBlock(node *ast.ServerBlock, env *object.Environment) object.Object {
	if err := e.Perms.CheckServer(); err != nil {
		return newError(err.Error())
	}
	for _, h := range node.Handlers {
		body := h.Body
		e.Server.RegisterHandler(h.Method, h.Path, func(req collab.Request) (any, error) {
			child := object.NewEnclosedEnvironment(env)
			child.Set("request", requestToObject(req))
			res := e.execStatements(body, child)
			switch r := res.(type) {
			case *object.ReturnSignal:
				return objectToNative(r.Value), nil
			case *object.Error:
				return nil, errors.New(r.Message)
			default:
				return nil, nil
			}
		})
	}
	portObj := e.Eval(node.Port, env)
	if isSignal(portObj) {
		return portObj
	}
	port, ok := portObj.(*object.Number)
	if !ok {
		return newError("type error: server port must be a number")
	}
	if err := e.Server.Start(int(port.Value)); err != nil {
		return newError("server error: %v", err)
	}
	return object.NOTHING
}

func requestToObject(req collab.Request) *object.Dictionary {
	d := object.NewDictionary()
	d.Set("path", &object.String{Value: req.Path})
	query := object.NewDictionary()
	for k, v := range req.Query {
		query.Set(k, &object.String{Value: v})
	}
	d.Set("query", query)
	headers := object.NewDictionary()
	for k, v := range req.Headers {
		headers.Set(k, &object.String{Value: v})
	}
	d.Set("headers", headers)
	d.Set("body", nativeToObject(map[string]any(req.Body)))
	return d
}

// ==============================================================================================
// EXPRESSIONS
// ==============================================================================================

func (e *Evaluator) Eval(node ast.Node, env *object.Environment) object.Object {
	switch n := node.(type) {
	case *ast.NumberLiteral:
		return &object.Number{Value: n.Value}
	case *ast.StringLiteral:
		return &object.String{Value: n.Value}
	case *ast.BooleanLiteral:
		return object.NativeBool(n.Value)
	case *ast.NothingLiteral:
		return object.NOTHING
	case *ast.PiLiteral:
		return &object.Number{Value: math.Pi}
	case *ast.Identifier:
		return e.evalIdentifier(n, env)
	case *ast.BinaryOp:
		return e.evalBinaryOp(n, env)
	case *ast.UnaryOp:
		return e.evalUnaryOp(n, env)
	case *ast.PropertyAccess:
		return e.evalPropertyAccess(n, env)
	case *ast.IndexAccess:
		return e.evalIndexAccess(n, env)
	case *ast.ListLiteral:
		return e.evalListLiteral(n, env)
	case *ast.DictionaryLiteral:
		return e.evalDictionaryLiteral(n, env)
	case *ast.ObjectLiteral:
		return e.evalObjectLiteral(n, env)
	case *ast.FunctionCall:
		return e.evalFunctionCall(n, env)
	case *ast.FindExpression:
		return e.evalFindExpression(n, env)
	case *ast.FilterExpression:
		return e.evalFilterExpression(n, env)
	case *ast.MapExpression:
		return e.evalMapExpression(n, env)
	case *ast.StringSplit:
		return e.evalStringSplit(n, env)
	case *ast.StringJoin:
		return e.evalStringJoin(n, env)
	case *ast.StringReplace:
		return e.evalStringReplace(n, env)
	case *ast.StringFind:
		return e.evalStringFind(n, env)
	case *ast.GetRequest:
		return e.evalGetRequest(n, env)
	case *ast.PostRequest:
		return e.evalPostRequest(n, env)
	case *ast.ReadFile:
		return e.evalReadFile(n, env)
	case *ast.CreateCanvas:
		return e.evalCreateCanvas(n, env)
	case *ast.PythonCall:
		return e.evalPythonCall(n, env)
	default:
		return newError("runtime error: unhandled expression %T", node)
	}
}

func (e *Evaluator) evalIdentifier(node *ast.Identifier, env *object.Environment) object.Object {
	if v, ok := env.Get(node.Name); ok {
		return v
	}
	if b, ok := object.GetBuiltin(node.Name); ok {
		return b
	}
	return newError("undefined: %s", node.Name)
}

func (e *Evaluator) evalUnaryOp(node *ast.UnaryOp, env *object.Environment) object.Object {
	operand := e.Eval(node.Operand, env)
	if isSignal(operand) {
		return operand
	}
	switch node.Op {
	case "not":
		return object.NativeBool(!object.IsTruthy(operand))
	case "minus":
		n, ok := operand.(*object.Number)
		if !ok {
			return newError("type error: cannot negate %s", operand.Type())
		}
		return &object.Number{Value: -n.Value}
	default:
		return newError("runtime error: unknown unary operator %q", node.Op)
	}
}

func (e *Evaluator) evalBinaryOp(node *ast.BinaryOp, env *object.Environment) object.Object {
	switch node.Op {
	case "and":
		left := e.Eval(node.Left, env)
		if isSignal(left) {
			return left
		}
		if !object.IsTruthy(left) {
			return left
		}
		return e.Eval(node.Right, env)
	case "or":
		left := e.Eval(node.Left, env)
		if isSignal(left) {
			return left
		}
		if object.IsTruthy(left) {
			return left
		}
		return e.Eval(node.Right, env)
	}

	left := e.Eval(node.Left, env)
	if isSignal(left) {
		return left
	}
	right := e.Eval(node.Right, env)
	if isSignal(right) {
		return right
	}
	return applyBinaryOp(node.Op, left, right)
}

func applyBinaryOp(op string, left, right object.Object) object.Object {
	switch op {
	case "plus":
		return applyPlus(left, right)
	case "minus":
		ln, lok := left.(*object.Number)
		rn, rok := right.(*object.Number)
		if !lok || !rok {
			return newError("type error: 'minus' requires two numbers, got %s and %s", left.Type(), right.Type())
		}
		return &object.Number{Value: ln.Value - rn.Value}
	case "times":
		ln, lok := left.(*object.Number)
		rn, rok := right.(*object.Number)
		if !lok || !rok {
			return newError("type error: 'times' requires two numbers, got %s and %s", left.Type(), right.Type())
		}
		return &object.Number{Value: ln.Value * rn.Value}
	case "divided by":
		ln, lok := left.(*object.Number)
		rn, rok := right.(*object.Number)
		if !lok || !rok {
			return newError("type error: 'divided by' requires two numbers, got %s and %s", left.Type(), right.Type())
		}
		if rn.Value == 0 {
			return newError("division by zero")
		}
		return &object.Number{Value: ln.Value / rn.Value}
	case "equals":
		return object.NativeBool(valuesEqual(left, right))
	case "does not equal":
		return object.NativeBool(!valuesEqual(left, right))
	case "is greater than", "is less than", "is at least", "is at most":
		return applyComparison(op, left, right)
	default:
		return newError("runtime error: unknown operator %q", op)
	}
}

func applyPlus(left, right object.Object) object.Object {
	if ls, ok := left.(*object.String); ok {
		if rs, ok := right.(*object.String); ok {
			return &object.String{Value: ls.Value + rs.Value}
		}
		return &object.String{Value: ls.Value + right.Inspect()}
	}
	if rs, ok := right.(*object.String); ok {
		return &object.String{Value: left.Inspect() + rs.Value}
	}
	ln, lok := left.(*object.Number)
	rn, rok := right.(*object.Number)
	if lok && rok {
		return &object.Number{Value: ln.Value + rn.Value}
	}
	return newError("type error: cannot add %s and %s", left.Type(), right.Type())
}

func applyComparison(op string, left, right object.Object) object.Object {
	ln, lok := left.(*object.Number)
	rn, rok := right.(*object.Number)
	if lok && rok {
		switch op {
		case "is greater than":
			return object.NativeBool(ln.Value > rn.Value)
		case "is less than":
			return object.NativeBool(ln.Value < rn.Value)
		case "is at least":
			return object.NativeBool(ln.Value >= rn.Value)
		case "is at most":
			return object.NativeBool(ln.Value <= rn.Value)
		}
	}
	ls, lsok := left.(*object.String)
	rs, rsok := right.(*object.String)
	if lsok && rsok {
		switch op {
		case "is greater than":
			return object.NativeBool(ls.Value > rs.Value)
		case "is less than":
			return object.NativeBool(ls.Value < rs.Value)
		case "is at least":
			return object.NativeBool(ls.Value >= rs.Value)
		case "is at most":
			return object.NativeBool(ls.Value <= rs.Value)
		}
	}
	return newError("type error: cannot compare %s and %s", left.Type(), right.Type())
}

func valuesEqual(a, b object.Object) bool {
	switch av := a.(type) {
	case *object.Number:
		bv, ok := b.(*object.Number)
		return ok && av.Value == bv.Value
	case *object.String:
		bv, ok := b.(*object.String)
		return ok && av.Value == bv.Value
	case *object.Boolean:
		bv, ok := b.(*object.Boolean)
		return ok && av.Value == bv.Value
	case *object.Nothing:
		_, ok := b.(*object.Nothing)
		return ok
	case *object.List:
		bv, ok := b.(*object.List)
		if !ok || len(av.Elements) != len(bv.Elements) {
			return false
		}
		for i := range av.Elements {
			if !valuesEqual(av.Elements[i], bv.Elements[i]) {
				return false
			}
		}
		return true
	case *object.Dictionary:
		bv, ok := b.(*object.Dictionary)
		if !ok || len(av.Keys) != len(bv.Keys) {
			return false
		}
		for _, k := range av.Keys {
			v1 := av.Values[k]
			v2, ok := bv.Get(k)
			if !ok || !valuesEqual(v1, v2) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}

func (e *Evaluator) evalPropertyAccess(node *ast.PropertyAccess, env *object.Environment) object.Object {
	obj := e.Eval(node.Obj, env)
	if isSignal(obj) {
		return obj
	}
	switch o := obj.(type) {
	case *object.Dictionary:
		v, ok := o.Get(node.Prop)
		if !ok {
			return object.NOTHING
		}
		return v
	case *object.GopaObject:
		v, ok := o.Fields.Get(node.Prop)
		if !ok {
			return object.NOTHING
		}
		return v
	default:
		return newError("type error: cannot access property %q on %s", node.Prop, obj.Type())
	}
}

func (e *Evaluator) evalIndexAccess(node *ast.IndexAccess, env *object.Environment) object.Object {
	obj := e.Eval(node.Obj, env)
	if isSignal(obj) {
		return obj
	}
	idx := e.Eval(node.Index, env)
	if isSignal(idx) {
		return idx
	}
	switch o := obj.(type) {
	case *object.List:
		n, ok := idx.(*object.Number)
		if !ok {
			return newError("type error: list index must be a number, got %s", idx.Type())
		}
		i := int(n.Value)
		if i < 0 || i >= len(o.Elements) {
			return object.NOTHING
		}
		return o.Elements[i]
	case *object.Dictionary:
		key, ok := idx.(*object.String)
		if !ok {
			return newError("type error: dictionary key must be a string, got %s", idx.Type())
		}
		v, ok := o.Get(key.Value)
		if !ok {
			return object.NOTHING
		}
		return v
	case *object.String:
		n, ok := idx.(*object.Number)
		if !ok {
			return newError("type error: string index must be a number, got %s", idx.Type())
		}
		runes := []rune(o.Value)
		i := int(n.Value)
		if i < 0 || i >= len(runes) {
			return object.NOTHING
		}
		return &object.String{Value: string(runes[i])}
	default:
		return newError("type error: cannot index %s", obj.Type())
	}
}

// assign writes value into the slot named by target, whether that is a plain
// variable, a dictionary/object property, or a list/dictionary index.
// Assigning past the end of a list is the one write the language refuses -
// read access past the end yields Nothing instead (see evalIndexAccess).
func (e *Evaluator) assign(target ast.Expression, env *object.Environment, value object.Object) object.Object {
	switch t := target.(type) {
	case *ast.Identifier:
		env.Set(t.Name, value)
		return value

	case *ast.PropertyAccess:
		obj := e.Eval(t.Obj, env)
		if isSignal(obj) {
			return obj
		}
		switch o := obj.(type) {
		case *object.Dictionary:
			o.Set(t.Prop, value)
			return value
		case *object.GopaObject:
			o.Fields.Set(t.Prop, value)
			return value
		default:
			return newError("type error: cannot set property %q on %s", t.Prop, obj.Type())
		}

	case *ast.IndexAccess:
		obj := e.Eval(t.Obj, env)
		if isSignal(obj) {
			return obj
		}
		idx := e.Eval(t.Index, env)
		if isSignal(idx) {
			return idx
		}
		switch o := obj.(type) {
		case *object.List:
			n, ok := idx.(*object.Number)
			if !ok {
				return newError("type error: list index must be a number, got %s", idx.Type())
			}
			i := int(n.Value)
			if i < 0 || i >= len(o.Elements) {
				return newError("index error: %d is out of range for a list of length %d", i, len(o.Elements))
			}
			o.Elements[i] = value
			return value
		case *object.Dictionary:
			key, ok := idx.(*object.String)
			if !ok {
				return newError("type error: dictionary key must be a string, got %s", idx.Type())
			}
			o.Set(key.Value, value)
			return value
		default:
			return newError("type error: cannot index-assign %s", obj.Type())
		}

	default:
		return newError("runtime error: invalid assignment target %T", target)
	}
}

func (e *Evaluator) evalListLiteral(node *ast.ListLiteral, env *object.Environment) object.Object {
	elements := make([]object.Object, len(node.Elements))
	for i, el := range node.Elements {
		v := e.Eval(el, env)
		if isSignal(v) {
			return v
		}
		elements[i] = v
	}
	return &object.List{Elements: elements}
}

func (e *Evaluator) evalDictionaryLiteral(node *ast.DictionaryLiteral, env *object.Environment) object.Object {
	d := object.NewDictionary()
	for _, pair := range node.Pairs {
		keyObj := e.Eval(pair.Key, env)
		if isSignal(keyObj) {
			return keyObj
		}
		key, ok := keyObj.(*object.String)
		if !ok {
			return newError("type error: dictionary keys must be strings, got %s", keyObj.Type())
		}
		val := e.Eval(pair.Value, env)
		if isSignal(val) {
			return val
		}
		d.Set(key.Value, val)
	}
	return d
}

func (e *Evaluator) evalObjectLiteral(node *ast.ObjectLiteral, env *object.Environment) object.Object {
	obj := object.NewGopaObject()
	for _, prop := range node.Properties {
		val := e.Eval(prop.Value, env)
		if isSignal(val) {
			return val
		}
		obj.Fields.Set(prop.Name, val)
	}
	return obj
}

func (e *Evaluator) evalFunctionCall(node *ast.FunctionCall, env *object.Environment) object.Object {
	args := make([]object.Object, len(node.Args))
	for i, a := range node.Args {
		v := e.Eval(a, env)
		if isSignal(v) {
			return v
		}
		args[i] = v
	}

	if fnObj, ok := env.Get(node.Name); ok {
		switch fn := fnObj.(type) {
		case *object.Function:
			return e.callFunction(fn, args)
		case *object.Builtin:
			return e.callBuiltin(fn, args)
		default:
			return newError("type error: %s is not a function", node.Name)
		}
	}
	if b, ok := object.GetBuiltin(node.Name); ok {
		return e.callBuiltin(b, args)
	}
	return newError("undefined: %s", node.Name)
}

// callBuiltin invokes a builtin's Fn and, for the handful of builtins whose
// result is meant to be written out rather than handed back as a value
// (print_table), routes it through e.Out the same way say/show table do
// instead of letting it escape to os.Stdout.
func (e *Evaluator) callBuiltin(fn *object.Builtin, args []object.Object) object.Object {
	result := fn.Fn(args...)
	if fn.Name == "print_table" {
		if s, ok := result.(*object.String); ok {
			fmt.Fprintln(e.Out, s.Value)
			return object.NOTHING
		}
	}
	return result
}

// callFunction binds args to fn's parameters positionally (missing trailing
// arguments become Nothing, extra arguments are ignored) in a fresh frame
// whose parent is fn's captured definition-time environment, never the
// caller's live scope - this is what gives gopa lexical rather than dynamic
// closures.
func (e *Evaluator) callFunction(fn *object.Function, args []object.Object) object.Object {
	child := object.NewEnclosedEnvironment(fn.Env)
	for i, p := range fn.Parameters {
		if i < len(args) {
			child.Set(p, args[i])
		} else {
			child.Set(p, object.NOTHING)
		}
	}
	result := e.execStatements(fn.Body, child)
	switch r := result.(type) {
	case *object.ReturnSignal:
		return r.Value
	case *object.Error:
		return r
	default:
		return object.NOTHING
	}
}

func (e *Evaluator) evalFindExpression(node *ast.FindExpression, env *object.Environment) object.Object {
	val := e.Eval(node.Value, env)
	if isSignal(val) {
		return val
	}
	container := e.Eval(node.In, env)
	if isSignal(container) {
		return container
	}
	switch c := container.(type) {
	case *object.List:
		for _, el := range c.Elements {
			if valuesEqual(el, val) {
				return object.TRUE
			}
		}
		return object.FALSE
	case *object.Dictionary:
		for _, k := range c.Keys {
			if s, ok := val.(*object.String); ok && s.Value == k {
				return object.TRUE
			}
			if valuesEqual(c.Values[k], val) {
				return object.TRUE
			}
		}
		return object.FALSE
	case *object.String:
		s, ok := val.(*object.String)
		if !ok {
			return newError("type error: find in a string requires a string needle")
		}
		return object.NativeBool(strings.Contains(c.Value, s.Value))
	default:
		return newError("type error: find requires a list, dictionary, or string, got %s", container.Type())
	}
}

// restoreItem undoes evalFilterExpression/evalMapExpression's temporary
// `item` binding: if the comprehension's host scope already had an `item`
// binding before it ran, that value is restored; otherwise the binding is
// removed entirely rather than left dangling with the comprehension's last
// element.
func restoreItem(env *object.Environment, hadItem bool, oldItem object.Object) {
	if hadItem {
		env.Set("item", oldItem)
	} else {
		env.Delete("item")
	}
}

func (e *Evaluator) evalFilterExpression(node *ast.FilterExpression, env *object.Environment) object.Object {
	listObj := e.Eval(node.ListExpr, env)
	if isSignal(listObj) {
		return listObj
	}
	list, ok := listObj.(*object.List)
	if !ok {
		return newError("type error: filter requires a list, got %s", listObj.Type())
	}
	hadItem := env.HasLocal("item")
	oldItem, _ := env.Get("item")

	var result []object.Object
	for _, el := range list.Elements {
		env.Set("item", el)
		cond := e.Eval(node.Condition, env)
		if isSignal(cond) {
			restoreItem(env, hadItem, oldItem)
			return cond
		}
		if object.IsTruthy(cond) {
			result = append(result, el)
		}
	}
	restoreItem(env, hadItem, oldItem)
	return &object.List{Elements: result}
}

func (e *Evaluator) evalMapExpression(node *ast.MapExpression, env *object.Environment) object.Object {
	listObj := e.Eval(node.ListExpr, env)
	if isSignal(listObj) {
		return listObj
	}
	list, ok := listObj.(*object.List)
	if !ok {
		return newError("type error: map requires a list, got %s", listObj.Type())
	}
	hadItem := env.HasLocal("item")
	oldItem, _ := env.Get("item")

	result := make([]object.Object, len(list.Elements))
	for i, el := range list.Elements {
		env.Set("item", el)
		v := e.Eval(node.Transform, env)
		if isSignal(v) {
			restoreItem(env, hadItem, oldItem)
			return v
		}
		result[i] = v
	}
	restoreItem(env, hadItem, oldItem)
	return &object.List{Elements: result}
}

func (e *Evaluator) evalStringSplit(node *ast.StringSplit, env *object.Environment) object.Object {
	strObj := e.Eval(node.Str, env)
	if isSignal(strObj) {
		return strObj
	}
	s, ok := strObj.(*object.String)
	if !ok {
		return newError("type error: split requires a string, got %s", strObj.Type())
	}
	parts := strings.Split(s.Value, node.Delimiter)
	elements := make([]object.Object, len(parts))
	for i, p := range parts {
		elements[i] = &object.String{Value: p}
	}
	return &object.List{Elements: elements}
}

func (e *Evaluator) evalStringJoin(node *ast.StringJoin, env *object.Environment) object.Object {
	listObj := e.Eval(node.ListExpr, env)
	if isSignal(listObj) {
		return listObj
	}
	list, ok := listObj.(*object.List)
	if !ok {
		return newError("type error: join requires a list, got %s", listObj.Type())
	}
	parts := make([]string, len(list.Elements))
	for i, el := range list.Elements {
		parts[i] = el.Inspect()
	}
	return &object.String{Value: strings.Join(parts, node.Delimiter)}
}

func (e *Evaluator) evalStringReplace(node *ast.StringReplace, env *object.Environment) object.Object {
	strObj := e.Eval(node.Str, env)
	if isSignal(strObj) {
		return strObj
	}
	s, ok := strObj.(*object.String)
	if !ok {
		return newError("type error: replace requires a string, got %s", strObj.Type())
	}
	return &object.String{Value: strings.ReplaceAll(s.Value, node.Old, node.New)}
}

func (e *Evaluator) evalStringFind(node *ast.StringFind, env *object.Environment) object.Object {
	strObj := e.Eval(node.Str, env)
	if isSignal(strObj) {
		return strObj
	}
	s, ok := strObj.(*object.String)
	if !ok {
		return newError("type error: find requires a string, got %s", strObj.Type())
	}
	idx := strings.Index(s.Value, node.Pattern)
	return &object.Number{Value: float64(idx)}
}

func (e *Evaluator) evalGetRequest(node *ast.GetRequest, env *object.Environment) object.Object {
	if err := e.Perms.CheckNetwork(); err != nil {
		return newError(err.Error())
	}
	urlObj := e.Eval(node.URL, env)
	if isSignal(urlObj) {
		return urlObj
	}
	urlStr, ok := urlObj.(*object.String)
	if !ok {
		return newError("type error: get requires a string url, got %s", urlObj.Type())
	}
	params := map[string]string{}
	for k, exprVal := range node.Params {
		v := e.Eval(exprVal, env)
		if isSignal(v) {
			return v
		}
		params[k] = v.Inspect()
	}
	_, body, err := e.Network.Get(urlStr.Value, params)
	if err != nil {
		return newError("network error: %v", err)
	}
	return nativeToObject(body)
}

func (e *Evaluator) evalPostRequest(node *ast.PostRequest, env *object.Environment) object.Object {
	if err := e.Perms.CheckNetwork(); err != nil {
		return newError(err.Error())
	}
	urlObj := e.Eval(node.URL, env)
	if isSignal(urlObj) {
		return urlObj
	}
	urlStr, ok := urlObj.(*object.String)
	if !ok {
		return newError("type error: add/post requires a string url, got %s", urlObj.Type())
	}
	params := map[string]any{}
	for k, exprVal := range node.Params {
		v := e.Eval(exprVal, env)
		if isSignal(v) {
			return v
		}
		params[k] = objectToNative(v)
	}
	_, body, err := e.Network.Post(urlStr.Value, params)
	if err != nil {
		return newError("network error: %v", err)
	}
	return nativeToObject(body)
}

func (e *Evaluator) evalReadFile(node *ast.ReadFile, env *object.Environment) object.Object {
	if err := e.Perms.CheckFiles(); err != nil {
		return newError(err.Error())
	}
	nameObj := e.Eval(node.Filename, env)
	if isSignal(nameObj) {
		return nameObj
	}
	name, ok := nameObj.(*object.String)
	if !ok {
		return newError("type error: read file requires a string filename, got %s", nameObj.Type())
	}
	content, err := e.Files.Read(name.Value)
	if err != nil {
		return newError("file error: %v", err)
	}
	return &object.String{Value: content}
}

func (e *Evaluator) evalCreateCanvas(node *ast.CreateCanvas, env *object.Environment) object.Object {
	if err := e.Perms.CheckGraphics(); err != nil {
		return newError(err.Error())
	}
	width, errObj := evalInt(e, node.Width, env)
	if errObj != nil {
		return errObj
	}
	height, errObj := evalInt(e, node.Height, env)
	if errObj != nil {
		return errObj
	}
	c, err := e.Graphics.CreateCanvas(width, height)
	if err != nil {
		return newError("graphics error: %v", err)
	}
	e.canvas = &c
	return canvasToObject(c)
}

func (e *Evaluator) evalPythonCall(node *ast.PythonCall, env *object.Environment) object.Object {
	if err := e.Perms.CheckPython(); err != nil {
		return newError(err.Error())
	}
	module, attr, ok := strings.Cut(node.ModuleAttr, ".")
	if !ok {
		module, attr = node.ModuleAttr, ""
	}
	args := make([]any, len(node.Args))
	for i, a := range node.Args {
		v := e.Eval(a, env)
		if isSignal(v) {
			return v
		}
		args[i] = objectToNative(v)
	}
	result, err := e.Python.Call(module, attr, args)
	if err != nil {
		return newError("python error: %v", err)
	}
	return nativeToObject(result)
}

// ==============================================================================================
// NATIVE <-> OBJECT CONVERSION
// ==============================================================================================

// nativeToObject turns the any values decoded from JSON (network responses,
// server request bodies) into gopa values.
func nativeToObject(v any) object.Object {
	switch t := v.(type) {
	case nil:
		return object.NOTHING
	case bool:
		return object.NativeBool(t)
	case float64:
		return &object.Number{Value: t}
	case int:
		return &object.Number{Value: float64(t)}
	case string:
		return &object.String{Value: t}
	case []any:
		elements := make([]object.Object, len(t))
		for i, el := range t {
			elements[i] = nativeToObject(el)
		}
		return &object.List{Elements: elements}
	case map[string]any:
		d := object.NewDictionary()
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			d.Set(k, nativeToObject(t[k]))
		}
		return d
	default:
		return &object.String{Value: fmt.Sprintf("%v", t)}
	}
}

// objectToNative is nativeToObject's inverse, used to hand gopa values to
// collaborators that speak plain Go values (network POST bodies, server
// handler return values, python_ffi arguments).
func objectToNative(o object.Object) any {
	switch v := o.(type) {
	case *object.Number:
		return v.Value
	case *object.String:
		return v.Value
	case *object.Boolean:
		return v.Value
	case *object.Nothing:
		return nil
	case *object.List:
		out := make([]any, len(v.Elements))
		for i, el := range v.Elements {
			out[i] = objectToNative(el)
		}
		return out
	case *object.Dictionary:
		out := map[string]any{}
		for _, k := range v.Keys {
			val, _ := v.Get(k)
			out[k] = objectToNative(val)
		}
		return out
	case *object.GopaObject:
		return objectToNative(v.Fields)
	default:
		return o.Inspect()
	}
}
