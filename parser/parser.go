// ==============================================================================================
// FILE: parser/parser.go
// ==============================================================================================
// PACKAGE: parser
// PURPOSE: Recursive-descent parser turning a gopa token stream into an AST.
//          Statements are dispatched by leading keyword (gopa has no braces;
//          NEWLINE and `end` delimit blocks). Expressions are parsed through
//          a fixed precedence chain - or -> and -> not -> comparison ->
//          arithmetic -> term -> factor - mirroring gopa_lang/parser.py,
//          while keeping the teacher's Parser struct shape (errors slice,
//          cur/peek token pair, `New`/`nextToken` helpers).
// ==============================================================================================

package parser

import (
	"fmt"
	"strconv"

	"github.com/asrayg/gopa/ast"
	"github.com/asrayg/gopa/lexer"
	"github.com/asrayg/gopa/token"
)

type Parser struct {
	l         *lexer.Lexer
	curToken  token.Token
	peekToken token.Token
	errors    []string
}

func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l, errors: []string{}}
	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) Errors() []string { return p.errors }

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) curIs(t token.TokenType) bool  { return p.curToken.Type == t }
func (p *Parser) peekIs(t token.TokenType) bool { return p.peekToken.Type == t }

func (p *Parser) expect(t token.TokenType) bool {
	if p.curIs(t) {
		p.nextToken()
		return true
	}
	p.errorf("expected %s, got %s (%q) at line %d", t, p.curToken.Type, p.curToken.Literal, p.curToken.Line)
	return false
}

func (p *Parser) errorf(format string, args ...interface{}) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

// skipNewlines consumes zero or more NEWLINE tokens, used between statements
// and around block delimiters so blank lines are never significant.
func (p *Parser) skipNewlines() {
	for p.curIs(token.NEWLINE) {
		p.nextToken()
	}
}

// ParseProgram parses the whole token stream into a Program node.
func (p *Parser) ParseProgram() *ast.Program {
	program := &ast.Program{Statements: []ast.Statement{}}
	p.skipNewlines()
	for !p.curIs(token.EOF) {
		stmt := p.parseStatement()
		if stmt != nil {
			program.Statements = append(program.Statements, stmt)
		}
		p.skipNewlines()
	}
	return program
}

// parseBlock parses statements until one of the given terminator tokens is
// reached (without consuming the terminator), used for every `... end`,
// `... otherwise`, and `... until` bodied construct.
func (p *Parser) parseBlock(terminators ...token.TokenType) []ast.Statement {
	var stmts []ast.Statement
	p.skipNewlines()
	for !p.curIs(token.EOF) && !p.atAny(terminators) {
		stmt := p.parseStatement()
		if stmt != nil {
			stmts = append(stmts, stmt)
		}
		p.skipNewlines()
	}
	return stmts
}

func (p *Parser) atAny(types []token.TokenType) bool {
	for _, t := range types {
		if p.curIs(t) {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

func (p *Parser) parseStatement() ast.Statement {
	switch p.curToken.Type {
	case token.SAY:
		return p.parseSay()
	case token.PRINT:
		return p.parsePrint()
	case token.CLEAR:
		return p.parseClearScreen()
	case token.SHOW:
		return p.parseShow()
	case token.ASK:
		return p.parseAsk()
	case token.IF:
		return p.parseIf()
	case token.REPEAT:
		return p.parseRepeat()
	case token.DO:
		return p.parseDoUntil()
	case token.FOR:
		return p.parseForEach()
	case token.BREAK:
		s := &ast.BreakStatement{Token: p.curToken}
		p.nextToken()
		return s
	case token.CONTINUE:
		s := &ast.ContinueStatement{Token: p.curToken}
		p.nextToken()
		return s
	case token.STOP:
		return p.parseStopOrStopJob()
	case token.DEFINE:
		return p.parseFunctionDef()
	case token.RETURN:
		return p.parseReturn()
	case token.MATCH:
		return p.parseMatch()
	case token.ADD:
		return p.parseListAdd()
	case token.REMOVE:
		return p.parseListRemove()
	case token.SORT:
		return p.parseListOneArg(func(t token.Token, e ast.Expression) ast.Statement {
			return &ast.ListSort{Token: t, ListExpr: e}
		})
	case token.REVERSE:
		return p.parseListOneArg(func(t token.Token, e ast.Expression) ast.Statement {
			return &ast.ListReverse{Token: t, ListExpr: e}
		})
	case token.SHUFFLE:
		return p.parseListOneArg(func(t token.Token, e ast.Expression) ast.Statement {
			return &ast.ListShuffle{Token: t, ListExpr: e}
		})
	case token.WRITE:
		return p.parseWriteFile()
	case token.CREATE:
		return p.parseExpressionStatement()
	case token.DRAW:
		return p.parseDraw()
	case token.WHEN:
		return p.parseWhenMouseClicks()
	case token.WAIT:
		return p.parseWait()
	case token.AFTER:
		return p.parseAfter()
	case token.EVERY:
		return p.parseEvery()
	case token.JOB:
		return p.parseJob()
	case token.CRON:
		return p.parseCron()
	case token.USE:
		return p.parseUse()
	case token.INSTALL:
		return p.parseInstall()
	case token.SERVER:
		return p.parseServer()
	default:
		return p.parseAssignmentOrExpression()
	}
}

func (p *Parser) parseSay() ast.Statement {
	tok := p.curToken
	p.nextToken()
	parts := []ast.Expression{p.parseExpression()}
	for p.curIs(token.COMMA) {
		p.nextToken()
		parts = append(parts, p.parseExpression())
	}
	return &ast.SayStatement{Token: tok, Parts: parts}
}

func (p *Parser) parsePrint() ast.Statement {
	tok := p.curToken
	p.nextToken()
	return &ast.PrintStatement{Token: tok, Expr: p.parseExpression()}
}

func (p *Parser) parseClearScreen() ast.Statement {
	tok := p.curToken
	p.nextToken()
	if p.curIs(token.SCREEN) {
		p.nextToken()
	}
	return &ast.ClearScreen{Token: tok}
}

// parseShow handles both `show EXPR` (treated as print) and
// `show table with headers [...] and rows EXPR`.
func (p *Parser) parseShow() ast.Statement {
	tok := p.curToken
	p.nextToken()
	if p.curIs(token.TABLE) {
		p.nextToken()
		var headers []string
		if p.curIs(token.WITH) {
			p.nextToken()
			if p.curIs(token.HEADERS) {
				p.nextToken()
			}
			headers = p.parseStringList()
		}
		if p.curIs(token.AND) {
			p.nextToken()
		}
		if p.curIs(token.ROWS) || p.curIs(token.DATA) {
			p.nextToken()
		}
		rows := p.parseExpression()
		return &ast.ShowTable{Token: tok, Headers: headers, Rows: rows}
	}
	return &ast.PrintStatement{Token: tok, Expr: p.parseExpression()}
}

func (p *Parser) parseStringList() []string {
	var out []string
	if !p.curIs(token.LBRACKET) {
		return out
	}
	p.nextToken()
	for !p.curIs(token.RBRACKET) && !p.curIs(token.EOF) {
		if p.curIs(token.STRING) {
			out = append(out, p.curToken.Literal)
		}
		p.nextToken()
		if p.curIs(token.COMMA) {
			p.nextToken()
		}
	}
	if p.curIs(token.RBRACKET) {
		p.nextToken()
	}
	return out
}

func (p *Parser) parseAsk() ast.Statement {
	tok := p.curToken
	p.nextToken()
	prompt := ""
	if p.curIs(token.STRING) {
		prompt = p.curToken.Literal
		p.nextToken()
	}
	askType := "string"
	if p.curIs(token.FOR) {
		p.nextToken()
		if p.curIs(token.NUMBER_TYPE) {
			askType = "number"
			p.nextToken()
		}
	}
	name := ""
	if p.curIs(token.IDENTIFIER) {
		name = p.curToken.Literal
		p.nextToken()
	}
	return &ast.AskStatement{Token: tok, Prompt: prompt, VarName: name, AskType: askType}
}

func (p *Parser) parseIf() ast.Statement {
	tok := p.curToken
	p.nextToken()
	cond := p.parseExpression()
	if p.curIs(token.THEN) {
		p.nextToken()
	}
	thenBlock := p.parseBlock(token.OTHERWISE, token.END)
	var elseBlock []ast.Statement
	if p.curIs(token.OTHERWISE) {
		p.nextToken()
		if p.curIs(token.THEN) {
			p.nextToken()
		}
		elseBlock = p.parseBlock(token.END)
	}
	p.expect(token.END)
	return &ast.IfStatement{Token: tok, Condition: cond, Then: thenBlock, Else: elseBlock}
}

// parseRepeat covers `repeat N times`, `repeat forever`, and
// `repeat until COND do`, all terminated by `end`.
func (p *Parser) parseRepeat() ast.Statement {
	tok := p.curToken
	p.nextToken()

	if p.curIs(token.FOREVER) {
		p.nextToken()
		body := p.parseBlock(token.END)
		p.expect(token.END)
		return &ast.RepeatForever{Token: tok, Body: body}
	}

	if p.curIs(token.UNTIL) {
		p.nextToken()
		cond := p.parseExpression()
		if p.curIs(token.DO) {
			p.nextToken()
		}
		body := p.parseBlock(token.END)
		p.expect(token.END)
		return &ast.RepeatUntil{Token: tok, Condition: cond, Body: body}
	}

	count := p.parseExpression()
	if p.curIs(token.TIMES) {
		p.nextToken()
	}
	body := p.parseBlock(token.END)
	p.expect(token.END)
	return &ast.RepeatTimes{Token: tok, Count: count, Body: body}
}

func (p *Parser) parseDoUntil() ast.Statement {
	tok := p.curToken
	p.nextToken()
	body := p.parseBlock(token.UNTIL)
	p.expect(token.UNTIL)
	cond := p.parseExpression()
	return &ast.DoUntil{Token: tok, Body: body, Condition: cond}
}

// parseForEach handles `for NAME in LIST ... end`; with no NAME (or with
// `item`) the loop variable is `item`.
func (p *Parser) parseForEach() ast.Statement {
	tok := p.curToken
	p.nextToken()
	varName := "item"
	if p.curIs(token.ITEM) {
		p.nextToken()
	} else if p.curIs(token.IDENTIFIER) {
		varName = p.curToken.Literal
		p.nextToken()
	}
	p.expect(token.IN)
	listExpr := p.parseExpression()
	body := p.parseBlock(token.END)
	p.expect(token.END)
	return &ast.ForEachLoop{Token: tok, VarName: varName, ListExpr: listExpr, Body: body}
}

func (p *Parser) parseStopOrStopJob() ast.Statement {
	tok := p.curToken
	p.nextToken()
	if p.curIs(token.JOB) {
		p.nextToken()
		name := ""
		if p.curIs(token.STRING) {
			name = p.curToken.Literal
			p.nextToken()
		}
		return &ast.StopJob{Token: tok, Name: name}
	}
	return &ast.StopStatement{Token: tok}
}

// parseFunctionDef handles `define NAME with a, b ... end`.
func (p *Parser) parseFunctionDef() ast.Statement {
	tok := p.curToken
	p.nextToken()
	name := p.curToken.Literal
	p.expect(token.IDENTIFIER)

	var params []string
	if p.curIs(token.WITH) {
		p.nextToken()
		for p.curIs(token.IDENTIFIER) {
			params = append(params, p.curToken.Literal)
			p.nextToken()
			if p.curIs(token.COMMA) {
				p.nextToken()
			}
		}
	}

	body := p.parseBlock(token.END)
	p.expect(token.END)
	return &ast.FunctionDef{Token: tok, Name: name, Params: params, Body: body}
}

func (p *Parser) parseReturn() ast.Statement {
	tok := p.curToken
	p.nextToken()
	if p.curIs(token.NEWLINE) || p.curIs(token.EOF) || p.curIs(token.END) {
		return &ast.ReturnStatement{Token: tok}
	}
	return &ast.ReturnStatement{Token: tok, Value: p.parseExpression()}
}

// parseMatch handles `match EXPR \n when VALUE then ... \n otherwise ... end`.
func (p *Parser) parseMatch() ast.Statement {
	tok := p.curToken
	p.nextToken()
	expr := p.parseExpression()
	p.skipNewlines()

	var cases []ast.MatchCase
	for p.curIs(token.WHEN) {
		p.nextToken()
		val := p.parseExpression()
		var to ast.Expression
		if p.curIs(token.TO) {
			p.nextToken()
			to = p.parseExpression()
		}
		if p.curIs(token.THEN) {
			p.nextToken()
		}
		body := p.parseBlock(token.WHEN, token.OTHERWISE, token.END)
		cases = append(cases, ast.MatchCase{Value: val, To: to, Body: body})
	}
	if p.curIs(token.OTHERWISE) {
		p.nextToken()
		if p.curIs(token.THEN) {
			p.nextToken()
		}
		body := p.parseBlock(token.END)
		cases = append(cases, ast.MatchCase{Value: nil, Body: body})
	}
	p.expect(token.END)
	return &ast.MatchStatement{Token: tok, Expr: expr, Cases: cases}
}

// parseListAdd handles `add VALUE to LIST`.
func (p *Parser) parseListAdd() ast.Statement {
	tok := p.curToken
	p.nextToken()
	value := p.parseExpression()
	p.expect(token.TO)
	list := p.parseExpression()
	return &ast.ListAdd{Token: tok, ListExpr: list, Value: value}
}

// parseListRemove handles `remove VALUE from LIST` and
// `remove at INDEX from LIST`.
func (p *Parser) parseListRemove() ast.Statement {
	tok := p.curToken
	p.nextToken()
	if p.curIs(token.AT) {
		p.nextToken()
		idx := p.parseExpression()
		p.expect(token.FROM)
		list := p.parseExpression()
		return &ast.ListRemove{Token: tok, ListExpr: list, Index: idx}
	}
	val := p.parseExpression()
	p.expect(token.FROM)
	list := p.parseExpression()
	return &ast.ListRemove{Token: tok, ListExpr: list, Value: val}
}

func (p *Parser) parseListOneArg(build func(token.Token, ast.Expression) ast.Statement) ast.Statement {
	tok := p.curToken
	p.nextToken()
	return build(tok, p.parseExpression())
}

// parseWriteFile handles `write CONTENT to file "name"`, reusing the plain
// TO token rather than a dedicated TO_FILE token.
func (p *Parser) parseWriteFile() ast.Statement {
	tok := p.curToken
	p.nextToken()
	content := p.parseExpression()
	p.expect(token.TO)
	p.expect(token.FILE)
	filename := p.parseExpression()
	return &ast.WriteFile{Token: tok, Content: content, Filename: filename}
}

func (p *Parser) parseDraw() ast.Statement {
	tok := p.curToken
	p.nextToken()
	switch p.curToken.Type {
	case token.CIRCLE:
		p.nextToken()
		x := p.parseExpression()
		y := p.parseExpression()
		size := p.parseExpression()
		color := p.parseTrailingColor()
		return &ast.DrawCircle{Token: tok, X: x, Y: y, Size: size, Color: color}
	case token.RECTANGLE:
		p.nextToken()
		x1 := p.parseExpression()
		y1 := p.parseExpression()
		x2 := p.parseExpression()
		y2 := p.parseExpression()
		color := p.parseTrailingColor()
		return &ast.DrawRectangle{Token: tok, X1: x1, Y1: y1, X2: x2, Y2: y2, Color: color}
	case token.LINE:
		p.nextToken()
		x1 := p.parseExpression()
		y1 := p.parseExpression()
		x2 := p.parseExpression()
		y2 := p.parseExpression()
		color := p.parseTrailingColor()
		return &ast.DrawLine{Token: tok, X1: x1, Y1: y1, X2: x2, Y2: y2, Color: color}
	case token.TEXT:
		p.nextToken()
		text := p.parseExpression()
		x := p.parseExpression()
		y := p.parseExpression()
		size := p.parseExpression()
		color := p.parseTrailingColor()
		return &ast.DrawText{Token: tok, Text: text, X: x, Y: y, Size: size, Color: color}
	default:
		p.errorf("unexpected token after draw: %s", p.curToken.Type)
		return nil
	}
}

func (p *Parser) parseTrailingColor() string {
	if p.curIs(token.WITH) {
		p.nextToken()
	}
	if p.curIs(token.COLOR) {
		p.nextToken()
	}
	if p.curIs(token.STRING) {
		c := p.curToken.Literal
		p.nextToken()
		return c
	}
	return "black"
}

func (p *Parser) parseWhenMouseClicks() ast.Statement {
	tok := p.curToken
	p.nextToken()
	p.expect(token.MOUSE)
	p.expect(token.CLICKS)
	if p.curIs(token.ON) {
		p.nextToken()
	}
	canvas := p.parseExpression()
	body := p.parseBlock(token.END)
	p.expect(token.END)
	return &ast.WhenMouseClicks{Token: tok, Canvas: canvas, Body: body}
}

func (p *Parser) parseWait() ast.Statement {
	tok := p.curToken
	p.nextToken()
	seconds := p.parseExpression()
	if p.curIs(token.SECONDS) {
		p.nextToken()
	}
	return &ast.WaitStatement{Token: tok, Seconds: seconds}
}

func (p *Parser) parseAfter() ast.Statement {
	tok := p.curToken
	p.nextToken()
	seconds := p.parseExpression()
	if p.curIs(token.SECONDS) {
		p.nextToken()
	}
	body := p.parseBlock(token.END)
	p.expect(token.END)
	return &ast.AfterStatement{Token: tok, Seconds: seconds, Body: body}
}

func (p *Parser) parseEvery() ast.Statement {
	tok := p.curToken
	p.nextToken()
	seconds := p.parseExpression()
	if p.curIs(token.SECONDS) {
		p.nextToken()
	}
	body := p.parseBlock(token.END)
	p.expect(token.END)
	return &ast.EveryStatement{Token: tok, Seconds: seconds, Body: body}
}

// parseJob handles `job "name" every N seconds ... end`.
func (p *Parser) parseJob() ast.Statement {
	tok := p.curToken
	p.nextToken()
	name := ""
	if p.curIs(token.STRING) {
		name = p.curToken.Literal
		p.nextToken()
	}
	p.expect(token.EVERY)
	seconds := p.parseExpression()
	if p.curIs(token.SECONDS) {
		p.nextToken()
	}
	body := p.parseBlock(token.END)
	p.expect(token.END)
	return &ast.JobStatement{Token: tok, Name: name, Seconds: seconds, Body: body}
}

func (p *Parser) parseCron() ast.Statement {
	tok := p.curToken
	p.nextToken()
	schedule := ""
	if p.curIs(token.STRING) {
		schedule = p.curToken.Literal
		p.nextToken()
	}
	body := p.parseBlock(token.END)
	p.expect(token.END)
	return &ast.CronStatement{Token: tok, Schedule: schedule, Body: body}
}

func (p *Parser) parseUse() ast.Statement {
	tok := p.curToken
	p.nextToken()
	if p.curIs(token.PYTHON) {
		p.nextToken()
		module := p.curToken.Literal
		p.nextToken()
		alias := module
		if p.curIs(token.AT) {
			p.nextToken()
			alias = p.curToken.Literal
			p.nextToken()
		}
		return &ast.UsePython{Token: tok, ModuleName: module, Alias: alias}
	}
	name := ""
	if p.curIs(token.STRING) {
		name = p.curToken.Literal
	} else {
		name = p.curToken.Literal
	}
	p.nextToken()
	return &ast.UseStatement{Token: tok, PackageName: name}
}

func (p *Parser) parseInstall() ast.Statement {
	tok := p.curToken
	p.nextToken()
	name := p.curToken.Literal
	p.nextToken()
	return &ast.InstallStatement{Token: tok, PackageName: name}
}

// parseServer handles:
//
//	server on port 8080
//	  when get "/path" ... end
//	  when post "/path" ... end
//	end
func (p *Parser) parseServer() ast.Statement {
	tok := p.curToken
	p.nextToken()
	if p.curIs(token.ON) {
		p.nextToken()
	}
	p.expect(token.PORT)
	port := p.parseExpression()

	var handlers []ast.ServerHandler
	p.skipNewlines()
	for p.curIs(token.WHEN) {
		p.nextToken()
		method := "GET"
		if p.curIs(token.IDENTIFIER) {
			if p.curToken.Literal == "post" {
				method = "POST"
			}
			p.nextToken()
		}
		path := ""
		if p.curIs(token.STRING) {
			path = p.curToken.Literal
			p.nextToken()
		}
		body := p.parseBlock(token.WHEN, token.END)
		handlers = append(handlers, ast.ServerHandler{Method: method, Path: path, Body: body})
		p.skipNewlines()
	}
	p.expect(token.END)
	return &ast.ServerBlock{Token: tok, Port: port, Handlers: handlers}
}

// parseAssignmentOrExpression handles `TARGET is VALUE`, `TARGET becomes
// VALUE`, `TARGET increase by N` / `TARGET decrease by N`, and bare
// expression statements (function calls for side effects).
func (p *Parser) parseAssignmentOrExpression() ast.Statement {
	tok := p.curToken
	expr := p.parseExpression()

	if p.curIs(token.IS) || p.curIs(token.BECOMES) {
		p.nextToken()
		value := p.parseExpression()
		return &ast.Assignment{Token: tok, Target: expr, Value: value}
	}

	if p.curIs(token.INCREASE) || p.curIs(token.DECREASE) {
		op := "increase"
		if p.curIs(token.DECREASE) {
			op = "decrease"
		}
		p.nextToken()
		var value ast.Expression
		if p.curIs(token.BY) {
			p.nextToken()
			value = p.parseExpression()
		}
		return &ast.Mutation{Token: tok, Target: expr, Op: op, Value: value}
	}

	return &ast.ExpressionStatement{Token: tok, Expr: expr}
}

func (p *Parser) parseExpressionStatement() ast.Statement {
	tok := p.curToken
	return &ast.ExpressionStatement{Token: tok, Expr: p.parseExpression()}
}

// ---------------------------------------------------------------------------
// Expressions: or -> and -> not -> comparison -> arithmetic -> term -> factor
// ---------------------------------------------------------------------------

func (p *Parser) parseExpression() ast.Expression {
	return p.parseOr()
}

func (p *Parser) parseOr() ast.Expression {
	left := p.parseAnd()
	for p.curIs(token.OR) {
		tok := p.curToken
		p.nextToken()
		right := p.parseAnd()
		left = &ast.BinaryOp{Token: tok, Left: left, Op: "or", Right: right}
	}
	return left
}

func (p *Parser) parseAnd() ast.Expression {
	left := p.parseNot()
	for p.curIs(token.AND) {
		tok := p.curToken
		p.nextToken()
		right := p.parseNot()
		left = &ast.BinaryOp{Token: tok, Left: left, Op: "and", Right: right}
	}
	return left
}

func (p *Parser) parseNot() ast.Expression {
	if p.curIs(token.NOT) {
		tok := p.curToken
		p.nextToken()
		operand := p.parseNot()
		return &ast.UnaryOp{Token: tok, Op: "not", Operand: operand}
	}
	return p.parseComparison()
}

var comparisonOps = map[token.TokenType]string{
	token.EQUALS:          "equals",
	token.DOES_NOT_EQUAL:  "does not equal",
	token.IS_GREATER_THAN: "is greater than",
	token.IS_LESS_THAN:    "is less than",
	token.IS_AT_LEAST:     "is at least",
	token.IS_AT_MOST:      "is at most",
}

func (p *Parser) parseComparison() ast.Expression {
	left := p.parseArithmetic()
	if op, ok := comparisonOps[p.curToken.Type]; ok {
		tok := p.curToken
		p.nextToken()
		right := p.parseArithmetic()
		return &ast.BinaryOp{Token: tok, Left: left, Op: op, Right: right}
	}
	return left
}

func (p *Parser) parseArithmetic() ast.Expression {
	left := p.parseTerm()
	for p.curIs(token.PLUS) || p.curIs(token.MINUS) {
		tok := p.curToken
		op := "plus"
		if p.curIs(token.MINUS) {
			op = "minus"
		}
		p.nextToken()
		right := p.parseTerm()
		left = &ast.BinaryOp{Token: tok, Left: left, Op: op, Right: right}
	}
	return left
}

func (p *Parser) parseTerm() ast.Expression {
	left := p.parseFactor()
	// The lexer reads `times` right after a number as TIMES; it is still
	// multiplication when a value follows (`2 times 3`), and is left for
	// parseRepeat when it ends a `repeat N times` header.
	timesAsOp := func() bool {
		switch p.peekToken.Type {
		case token.NUMBER, token.IDENTIFIER, token.PI, token.LBRACKET, token.MINUS, token.ITEM:
			return p.curIs(token.TIMES)
		}
		return false
	}
	for p.curIs(token.TIMES_OP) || p.curIs(token.DIVIDED) || timesAsOp() {
		tok := p.curToken
		op := "times"
		if p.curIs(token.DIVIDED) {
			op = "divided by"
			p.nextToken()
			if p.curIs(token.BY) {
				p.nextToken()
			}
			right := p.parseFactor()
			left = &ast.BinaryOp{Token: tok, Left: left, Op: op, Right: right}
			continue
		}
		p.nextToken()
		right := p.parseFactor()
		left = &ast.BinaryOp{Token: tok, Left: left, Op: op, Right: right}
	}
	return left
}

// parseFactor parses a unary minus, then delegates to parsePrimary and
// applies any trailing postfix accessors ([index], .property).
func (p *Parser) parseFactor() ast.Expression {
	if p.curIs(token.MINUS) {
		tok := p.curToken
		p.nextToken()
		return &ast.UnaryOp{Token: tok, Op: "minus", Operand: p.parseFactor()}
	}
	return p.parsePostfix(p.parsePrimary())
}

func (p *Parser) parsePostfix(expr ast.Expression) ast.Expression {
	for {
		switch {
		case p.curIs(token.LBRACKET):
			tok := p.curToken
			p.nextToken()
			idx := p.parseExpression()
			p.expect(token.RBRACKET)
			expr = &ast.IndexAccess{Token: tok, Obj: expr, Index: idx}
		case p.curIs(token.DOT):
			tok := p.curToken
			p.nextToken()
			prop := p.curToken.Literal
			p.nextToken()
			expr = &ast.PropertyAccess{Token: tok, Obj: expr, Prop: prop}
		default:
			return expr
		}
	}
}

// canStartExpression decides whether the current token could begin a new
// primary expression - used by the bare-identifier call heuristic below.
func (p *Parser) canStartExpression() bool {
	switch p.curToken.Type {
	case token.NUMBER, token.STRING, token.IDENTIFIER, token.TRUE, token.FALSE,
		token.NOTHING, token.PI, token.LBRACKET, token.DICTIONARY,
		token.OBJECT, token.ITEM:
		return true
	default:
		return false
	}
}

func (p *Parser) parsePrimary() ast.Expression {
	switch p.curToken.Type {
	case token.NUMBER:
		return p.parseNumberLiteral()
	case token.STRING:
		lit := &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Literal}
		p.nextToken()
		return lit
	case token.TRUE:
		lit := &ast.BooleanLiteral{Token: p.curToken, Value: true}
		p.nextToken()
		return lit
	case token.FALSE:
		lit := &ast.BooleanLiteral{Token: p.curToken, Value: false}
		p.nextToken()
		return lit
	case token.NOTHING:
		lit := &ast.NothingLiteral{Token: p.curToken}
		p.nextToken()
		return lit
	case token.PI:
		lit := &ast.PiLiteral{Token: p.curToken}
		p.nextToken()
		return lit
	case token.LBRACKET:
		return p.parseListLiteral()
	case token.DICTIONARY:
		return p.parseDictionaryLiteral()
	case token.OBJECT:
		return p.parseObjectLiteral()
	case token.FIND:
		return p.parseFind()
	case token.FILTER:
		return p.parseFilter()
	case token.MAP:
		return p.parseMap()
	case token.SPLIT:
		return p.parseSplit()
	case token.JOIN:
		return p.parseJoin()
	case token.REPLACE:
		return p.parseReplace()
	case token.GET:
		return p.parseGetRequest()
	case token.READ:
		return p.parseReadFile()
	case token.CREATE:
		return p.parseCreateCanvas()
	case token.CALL:
		return p.parsePythonCall()
	case token.IDENTIFIER:
		return p.parseIdentifierOrCall()
	case token.ITEM:
		ident := &ast.Identifier{Token: p.curToken, Name: "item"}
		p.nextToken()
		return ident
	default:
		p.errorf("unexpected token in expression: %s (%q) at line %d", p.curToken.Type, p.curToken.Literal, p.curToken.Line)
		tok := p.curToken
		p.nextToken()
		return &ast.NothingLiteral{Token: tok}
	}
}

func (p *Parser) parseNumberLiteral() ast.Expression {
	tok := p.curToken
	val, err := strconv.ParseFloat(tok.Literal, 64)
	if err != nil {
		p.errorf("could not parse %q as a number", tok.Literal)
	}
	p.nextToken()
	return &ast.NumberLiteral{Token: tok, Value: val}
}

func (p *Parser) parseListLiteral() ast.Expression {
	tok := p.curToken
	p.nextToken()
	var elements []ast.Expression
	for !p.curIs(token.RBRACKET) && !p.curIs(token.EOF) {
		elements = append(elements, p.parseExpression())
		if p.curIs(token.COMMA) {
			p.nextToken()
		}
	}
	p.expect(token.RBRACKET)
	return &ast.ListLiteral{Token: tok, Elements: elements}
}

// parseDictionaryLiteral handles `dictionary with "k" at v, "k2" at v2`.
func (p *Parser) parseDictionaryLiteral() ast.Expression {
	tok := p.curToken
	p.nextToken()
	var pairs []ast.DictPair
	if p.curIs(token.WITH) {
		p.nextToken()
		for {
			key := p.parseExpression()
			if p.curIs(token.AT) {
				p.nextToken()
			}
			val := p.parseExpression()
			pairs = append(pairs, ast.DictPair{Key: key, Value: val})
			if p.curIs(token.COMMA) {
				p.nextToken()
				continue
			}
			break
		}
	}
	return &ast.DictionaryLiteral{Token: tok, Pairs: pairs}
}

func (p *Parser) parseObjectLiteral() ast.Expression {
	tok := p.curToken
	p.nextToken()
	var props []ast.ObjectProperty
	if p.curIs(token.WITH) {
		p.nextToken()
		for p.curIs(token.IDENTIFIER) {
			name := p.curToken.Literal
			p.nextToken()
			if p.curIs(token.AT) {
				p.nextToken()
			}
			val := p.parseExpression()
			props = append(props, ast.ObjectProperty{Name: name, Value: val})
			if p.curIs(token.COMMA) {
				p.nextToken()
			}
		}
	}
	return &ast.ObjectLiteral{Token: tok, Properties: props}
}

func (p *Parser) parseFind() ast.Expression {
	tok := p.curToken
	p.nextToken()
	val := p.parseExpression()
	p.expect(token.IN)
	in := p.parseExpression()
	return &ast.FindExpression{Token: tok, Value: val, In: in}
}

// parseFilter handles `filter LIST where CONDITION`.
func (p *Parser) parseFilter() ast.Expression {
	tok := p.curToken
	p.nextToken()
	list := p.parseExpression()
	p.expect(token.WHERE)
	cond := p.parseExpression()
	return &ast.FilterExpression{Token: tok, ListExpr: list, Condition: cond}
}

// parseMap handles `map LIST using TRANSFORM`.
func (p *Parser) parseMap() ast.Expression {
	tok := p.curToken
	p.nextToken()
	list := p.parseExpression()
	p.expect(token.USING)
	transform := p.parseExpression()
	return &ast.MapExpression{Token: tok, ListExpr: list, Transform: transform}
}

// parseSplit handles `split STR by "delim"`.
func (p *Parser) parseSplit() ast.Expression {
	tok := p.curToken
	p.nextToken()
	str := p.parseExpression()
	p.expect(token.BY)
	delim := p.curToken.Literal
	p.expect(token.STRING)
	return &ast.StringSplit{Token: tok, Str: str, Delimiter: delim}
}

// parseJoin handles `join LIST with "delim"`, reusing the plain WITH token.
func (p *Parser) parseJoin() ast.Expression {
	tok := p.curToken
	p.nextToken()
	list := p.parseExpression()
	p.expect(token.WITH)
	delim := p.curToken.Literal
	p.expect(token.STRING)
	return &ast.StringJoin{Token: tok, ListExpr: list, Delimiter: delim}
}

// parseReplace handles `replace "old" with "new" in STR`.
func (p *Parser) parseReplace() ast.Expression {
	tok := p.curToken
	p.nextToken()
	oldVal := p.curToken.Literal
	p.expect(token.STRING)
	p.expect(token.WITH)
	newVal := p.curToken.Literal
	p.expect(token.STRING)
	p.expect(token.IN)
	str := p.parseExpression()
	return &ast.StringReplace{Token: tok, Str: str, Old: oldVal, New: newVal}
}

// parseGetRequest handles `get "url"`.
func (p *Parser) parseGetRequest() ast.Expression {
	tok := p.curToken
	p.nextToken()
	url := p.parseExpression()
	return &ast.GetRequest{Token: tok, URL: url, Params: map[string]ast.Expression{}}
}

// parseReadFile handles `read file "name"`.
func (p *Parser) parseReadFile() ast.Expression {
	tok := p.curToken
	p.nextToken()
	p.expect(token.FILE)
	filename := p.parseExpression()
	return &ast.ReadFile{Token: tok, Filename: filename}
}

// parseCreateCanvas handles `create canvas W by H`.
func (p *Parser) parseCreateCanvas() ast.Expression {
	tok := p.curToken
	p.nextToken()
	p.expect(token.CANVAS)
	width := p.parseArithmetic()
	if p.curIs(token.BY) {
		p.nextToken()
	}
	height := p.parseArithmetic()
	return &ast.CreateCanvas{Token: tok, Width: width, Height: height}
}

// parsePythonCall handles `call python MODULE.ATTR with a, b`.
func (p *Parser) parsePythonCall() ast.Expression {
	tok := p.curToken
	p.nextToken()
	if p.curIs(token.PYTHON) {
		p.nextToken()
	}
	moduleAttr := p.curToken.Literal
	p.nextToken()
	for p.curIs(token.DOT) {
		p.nextToken()
		moduleAttr += "." + p.curToken.Literal
		p.nextToken()
	}
	var args []ast.Expression
	if p.curIs(token.WITH) {
		p.nextToken()
		args = append(args, p.parseExpression())
		for p.curIs(token.COMMA) {
			p.nextToken()
			args = append(args, p.parseExpression())
		}
	}
	return &ast.PythonCall{Token: tok, ModuleAttr: moduleAttr, Args: args}
}

// parseIdentifierOrCall resolves the "function-call-without-parens"
// ambiguity: an identifier immediately followed by another primary-starting
// token (and not a binary/assignment operator) is parsed as a call with
// comma-separated arguments, rather than a bare variable reference.
func (p *Parser) parseIdentifierOrCall() ast.Expression {
	tok := p.curToken
	name := p.curToken.Literal
	p.nextToken()

	if !p.canStartExpression() {
		return &ast.Identifier{Token: tok, Name: name}
	}

	args := []ast.Expression{p.parseArithmetic()}
	for p.curIs(token.COMMA) {
		p.nextToken()
		args = append(args, p.parseArithmetic())
	}
	return &ast.FunctionCall{Token: tok, Name: name, Args: args}
}
