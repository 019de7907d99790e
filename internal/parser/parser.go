// Package parser implements a Pratt-style recursive-descent parser
// for the Yorkie language, producing ast.Function nodes. The parser
// maintains no internal precedence state of its own: it reads and
// writes the shared PrecedenceTable on the AstContext it is parsing
// into, the same table codegen consults later (spec §3, §5).
package parser

import (
	"yorkie/internal/ast"
	"yorkie/internal/context"
	"yorkie/internal/diag"
	"yorkie/internal/lexer"
	"yorkie/internal/token"
)

// Parser consumes one look-ahead token from the lexer, grounded on
// the teacher's single-token look-ahead parser (parser/parser.go's
// curToken field in gosh2).
type Parser struct {
	lex *lexer.Lexer
	cur token.Token

	ctx   *context.AstContext
	diags diag.Bag
}

// New creates a Parser over src that will parse into ctx.
func New(src string, ctx *context.AstContext) *Parser {
	p := &Parser{lex: lexer.New(src), ctx: ctx}
	p.advance()
	return p
}

func (p *Parser) advance() {
	p.cur = p.lex.NextToken()
}

func (p *Parser) curIsChar(b byte) bool {
	return p.cur.Type == token.Char && p.cur.Ch == b
}

func (p *Parser) errorExpr(format string, args ...any) ast.Expr {
	p.diags.Add(diag.Expr(p.cur.Loc, format, args...))
	return nil
}

func (p *Parser) errorProto(format string, args ...any) *ast.Prototype {
	p.diags.Add(diag.Proto(p.cur.Loc, format, args...))
	return nil
}

// ParseTopLevel runs toplevel := (definition | extern | toplevelexpr |
// ';')* to completion, appending every function and extern it parses
// to the Parser's AstContext in source order. On a syntax error the
// offending construct is skipped (spec §4.2 "Error recovery"): the
// current token is discarded and parsing resumes at the next
// top-level construct. The returned Bag holds every diagnostic raised
// along the way; ParseTopLevel itself never stops early.
func (p *Parser) ParseTopLevel() *diag.Bag {
	for p.cur.Type != token.Eof {
		switch {
		case p.curIsChar(';'):
			p.advance()
		case p.cur.Type == token.Def:
			if fn := p.parseDefinition(); fn != nil {
				p.ctx.AddFunction(fn)
			} else {
				p.advance()
			}
		case p.cur.Type == token.Extern:
			if proto := p.parseExtern(); proto != nil {
				p.ctx.AddExtern(proto)
			} else {
				p.advance()
			}
		default:
			if fn := p.parseTopLevelExpr(); fn != nil {
				p.ctx.AddFunction(fn)
			} else {
				p.advance()
			}
		}
	}
	return &p.diags
}

// parseDefinition parses `'def' prototype expr (';' expr)* 'end'`.
func (p *Parser) parseDefinition() *ast.Function {
	p.advance() // eat 'def'.
	proto := p.parsePrototype()
	if proto == nil {
		return nil
	}
	if p.cur.Type == token.End {
		p.errorExpr("expected expression in function body")
		return nil
	}

	var body []ast.Expr
	for p.cur.Type != token.End {
		if p.cur.Type == token.Eof {
			p.errorExpr("expected 'end' after function definition")
			return nil
		}
		e := p.parseExpr()
		if e == nil {
			return nil
		}
		body = append(body, e)

		if p.curIsChar(';') {
			p.advance()
		} else if p.cur.Type != token.End {
			p.errorExpr("expected ';' or 'end' after function definition")
			return nil
		}
	}
	p.advance() // eat 'end'.

	return &ast.Function{Proto: proto, Body: body}
}

// parseExtern parses `'extern' prototype`.
func (p *Parser) parseExtern() *ast.Prototype {
	p.advance() // eat 'extern'.
	return p.parsePrototype()
}

// parseTopLevelExpr wraps a bare top-level expression in an anonymous
// nullary "main" function, per the GLOSSARY's "Top-level expression".
func (p *Parser) parseTopLevelExpr() *ast.Function {
	loc := p.cur.Loc
	e := p.parseExpr()
	if e == nil {
		return nil
	}
	proto := &ast.Prototype{Name: "main", Line: loc.Line}
	return &ast.Function{Proto: proto, Body: []ast.Expr{e}}
}

// parsePrototype parses:
//
//	prototype := ident '(' ident* ')'
//	           | 'unary'  OP      '(' ident ')'
//	           | 'binary' OP NUM? '(' ident ident ')'
func (p *Parser) parsePrototype() *ast.Prototype {
	loc := p.cur.Loc

	var name string
	var kind ast.ProtoKind
	var wantArgs int // 0 means "unconstrained" (Regular).
	precedence := 30 // Default binary precedence, per original Kaleidoscope.
	var op byte

	switch p.cur.Type {
	case token.Identifier:
		name = p.cur.Name
		p.advance()
	case token.Unary:
		p.advance()
		if p.cur.Type != token.Char {
			return p.errorProto("expected unary operator")
		}
		op = p.cur.Ch
		name = "unary" + string(op)
		kind = ast.UnaryOp
		wantArgs = 1
		p.advance()
	case token.Binary:
		p.advance()
		if p.cur.Type != token.Char {
			return p.errorProto("expected ascii binary operator")
		}
		op = p.cur.Ch
		name = "binary" + string(op)
		kind = ast.BinaryOp
		wantArgs = 2
		p.advance()
		if p.cur.Type == token.Number {
			if p.cur.Num < 1 || p.cur.Num > 100 {
				return p.errorProto("invalid precedence: must be 1..100")
			}
			precedence = int(p.cur.Num)
			p.advance()
		}
	default:
		return p.errorProto("expected function name in prototype")
	}

	if !p.curIsChar('(') {
		return p.errorProto("expected '(' in prototype")
	}
	p.advance()

	var args []string
	for p.cur.Type == token.Identifier {
		args = append(args, p.cur.Name)
		p.advance()
	}
	if !p.curIsChar(')') {
		return p.errorProto("expected ')' in prototype")
	}
	p.advance()

	if wantArgs != 0 && len(args) != wantArgs {
		return p.errorProto("invalid number of operands for operator")
	}

	proto := &ast.Prototype{Name: name, Args: args, Kind: kind, Line: loc.Line}
	if kind == ast.BinaryOp {
		proto.Precedence = precedence
		// Install at parse time so later expressions in the same
		// translation unit observe the new operator (spec §4.2, §9
		// open question #2).
		p.ctx.Precedence.Set(op, precedence)
	}
	return proto
}

// parseExpr parses `unary (binop unary)*` via the Pratt binop-rhs
// loop.
func (p *Parser) parseExpr() ast.Expr {
	lhs := p.parseUnary()
	if lhs == nil {
		return nil
	}
	return p.parseBinOpRHS(0, lhs)
}

// tokPrecedence returns the precedence of the current token if it is
// a registered binary operator, or -1 otherwise.
func (p *Parser) tokPrecedence() int {
	if p.cur.Type != token.Char {
		return -1
	}
	prec := p.ctx.Precedence.Get(p.cur.Ch)
	if prec <= 0 {
		return -1
	}
	return prec
}

// parseBinOpRHS implements the Pratt precedence-climbing loop
// described in spec §4.2.
func (p *Parser) parseBinOpRHS(minPrec int, lhs ast.Expr) ast.Expr {
	for {
		prec := p.tokPrecedence()
		if prec < minPrec {
			return lhs
		}

		op := p.cur.Ch
		loc := p.cur.Loc
		p.advance() // eat operator.

		rhs := p.parseUnary()
		if rhs == nil {
			return nil
		}

		if nextPrec := p.tokPrecedence(); prec < nextPrec {
			rhs = p.parseBinOpRHS(prec+1, rhs)
			if rhs == nil {
				return nil
			}
		}

		lhs = &ast.BinaryExpr{Loc: loc, Op: op, LHS: lhs, RHS: rhs}
	}
}

// parseUnary parses `primary | OP unary`, where OP is any ASCII
// operator byte other than '(' or ','.
func (p *Parser) parseUnary() ast.Expr {
	if p.cur.Type != token.Char || p.cur.Ch == '(' || p.cur.Ch == ',' {
		return p.parsePrimary()
	}

	op := p.cur.Ch
	loc := p.cur.Loc
	p.advance()

	operand := p.parseUnary()
	if operand == nil {
		return nil
	}
	return &ast.UnaryExpr{Loc: loc, Op: op, Operand: operand}
}

// parsePrimary dispatches over the primary production.
func (p *Parser) parsePrimary() ast.Expr {
	switch p.cur.Type {
	case token.Identifier:
		return p.parseIdentifierExpr()
	case token.Number:
		return p.parseNumberExpr()
	case token.If:
		return p.parseIfExpr()
	case token.For:
		return p.parseForExpr()
	case token.Var:
		return p.parseVarExpr()
	case token.Char:
		if p.cur.Ch == '(' {
			return p.parseParenExpr()
		}
	}
	return p.errorExpr("unknown token when expecting an expression")
}

func (p *Parser) parseNumberExpr() ast.Expr {
	e := &ast.NumberExpr{Loc: p.cur.Loc, Value: p.cur.Num}
	p.advance()
	return e
}

func (p *Parser) parseParenExpr() ast.Expr {
	p.advance() // eat '('.
	v := p.parseExpr()
	if v == nil {
		return nil
	}
	if !p.curIsChar(')') {
		return p.errorExpr("expected ')'")
	}
	p.advance()
	return v
}

// parseIdentifierExpr parses `ident` or `ident '(' (expr (',' expr)*)? ')'`.
func (p *Parser) parseIdentifierExpr() ast.Expr {
	loc := p.cur.Loc
	name := p.cur.Name
	p.advance()

	if !p.curIsChar('(') {
		return &ast.VariableExpr{Loc: loc, Name: name}
	}
	p.advance() // eat '('.

	var args []ast.Expr
	if !p.curIsChar(')') {
		for {
			arg := p.parseExpr()
			if arg == nil {
				return nil
			}
			args = append(args, arg)

			if p.curIsChar(')') {
				break
			}
			if !p.curIsChar(',') {
				return p.errorExpr("expected ')' or ',' in argument list")
			}
			p.advance()
		}
	}
	p.advance() // eat ')'.

	return &ast.CallExpr{Loc: loc, Callee: name, Args: args}
}

// parseIfExpr parses `'if' expr 'then' expr 'else' expr 'end'`.
func (p *Parser) parseIfExpr() ast.Expr {
	loc := p.cur.Loc
	p.advance() // eat 'if'.

	cond := p.parseExpr()
	if cond == nil {
		return nil
	}
	if p.cur.Type != token.Then {
		return p.errorExpr("expected 'then'")
	}
	p.advance()

	thenE := p.parseExpr()
	if thenE == nil {
		return nil
	}
	if p.cur.Type != token.Else {
		return p.errorExpr("expected 'else'")
	}
	p.advance()

	elseE := p.parseExpr()
	if elseE == nil {
		return nil
	}
	if p.cur.Type != token.End {
		return p.errorExpr("expected 'end' after if expression")
	}
	p.advance()

	return &ast.IfExpr{Loc: loc, Cond: cond, Then: thenE, Else: elseE}
}

// parseForExpr parses `'for' ident '=' expr ',' expr (',' expr)? 'in' expr 'end'`.
func (p *Parser) parseForExpr() ast.Expr {
	loc := p.cur.Loc
	p.advance() // eat 'for'.

	if p.cur.Type != token.Identifier {
		return p.errorExpr("expected identifier after 'for'")
	}
	varName := p.cur.Name
	p.advance()

	if !p.curIsChar('=') {
		return p.errorExpr("expected '=' after for")
	}
	p.advance()

	start := p.parseExpr()
	if start == nil {
		return nil
	}
	if !p.curIsChar(',') {
		return p.errorExpr("expected ',' after for start value")
	}
	p.advance()

	end := p.parseExpr()
	if end == nil {
		return nil
	}

	var step ast.Expr
	if p.curIsChar(',') {
		p.advance()
		step = p.parseExpr()
		if step == nil {
			return nil
		}
	}

	if p.cur.Type != token.In {
		return p.errorExpr("expected 'in' after for")
	}
	p.advance()

	body := p.parseExpr()
	if body == nil {
		return nil
	}
	if p.cur.Type != token.End {
		return p.errorExpr("expected 'end' after for")
	}
	p.advance()

	return &ast.ForExpr{Loc: loc, Var: varName, Start: start, End: end, Step: step, Body: body}
}

// parseVarExpr parses `'var' ident ('=' expr)? (',' ident ('=' expr)?)* 'in' expr 'end'`.
func (p *Parser) parseVarExpr() ast.Expr {
	loc := p.cur.Loc
	p.advance() // eat 'var'.

	if p.cur.Type != token.Identifier {
		return p.errorExpr("expected identifier after var")
	}

	var bindings []ast.VarBinding
	for {
		name := p.cur.Name
		p.advance()

		var init ast.Expr
		if p.curIsChar('=') {
			p.advance()
			init = p.parseExpr()
			if init == nil {
				return nil
			}
		}
		bindings = append(bindings, ast.VarBinding{Name: name, Init: init})

		if !p.curIsChar(',') {
			break
		}
		p.advance()
		if p.cur.Type != token.Identifier {
			return p.errorExpr("expected identifier list after var")
		}
	}

	if p.cur.Type != token.In {
		return p.errorExpr("expected 'in' keyword after 'var'")
	}
	p.advance()

	body := p.parseExpr()
	if body == nil {
		return nil
	}
	if p.cur.Type != token.End {
		return p.errorExpr("expected 'end' after 'var'")
	}
	p.advance()

	return &ast.VarExpr{Loc: loc, Bindings: bindings, Body: body}
}
