package compiler

import (
	"fmt"
	"strconv"
	"strings"
)

// maxCallArgs is the number of argument registers (r0-r3) the calling
// convention provides; calls with more arguments are rejected at parse time.
const maxCallArgs = 4

// Parser consumes the flat token slice produced by the Lexer and builds an AST.
//
// Grammar:
//
//	program    = function* EOF
//	function   = "fun" IDENTIFIER params? "(" ")" (":" "int")? "{" statement* "}"
//	params     = "<" IDENTIFIER ":" "int" ("," IDENTIFIER ":" "int")* ">"
//	statement  = "let" IDENTIFIER "<" "int" ">" "=" expression ";"
//	           | "return" expression ";"
//	           | IDENTIFIER "=" expression ";"
//	           | expression ";"
//	expression = primary ("+" primary)*
//	primary    = INTEGER | IDENTIFIER | IDENTIFIER "(" arguments? ")"
//	arguments  = expression ("," expression)*
type Parser struct {
	tokens      []Token
	pos         int
	sourceLines []string
}

func NewParser(tokens []Token, rawSource string) *Parser {
	return &Parser{tokens: tokens, sourceLines: strings.Split(rawSource, "\n")}
}

// fmtError wraps an error message with the source line where the token appears.
func (p *Parser) fmtError(tok Token, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	lineIdx := tok.Line - 1 // Lines are 1-based

	snippet := "<source unavailable>"
	if lineIdx >= 0 && lineIdx < len(p.sourceLines) {
		snippet = strings.TrimSpace(p.sourceLines[lineIdx])
	}

	return fmt.Errorf("line %d: %s\n  |> %s", tok.Line, msg, snippet)
}

// peek returns the current token without consuming it.
func (p *Parser) peek() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: EOF}
	}
	return p.tokens[p.pos]
}

// peekNext returns the token immediately after the current one.
func (p *Parser) peekNext() Token {
	if p.pos+1 >= len(p.tokens) {
		return Token{Type: EOF}
	}
	return p.tokens[p.pos+1]
}

// advance consumes and returns the current token.
func (p *Parser) advance() Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

// expect consumes the current token if it matches tt, otherwise returns an error.
func (p *Parser) expect(tt TokenType, what string) (Token, error) {
	tok := p.peek()
	if tok.Type != tt {
		return tok, p.fmtError(tok, "expected %s, found %q", what, tok.Lexeme)
	}
	return p.advance(), nil
}

// match consumes the current token if it matches tt and reports whether it did.
func (p *Parser) match(tt TokenType) bool {
	if p.peek().Type == tt {
		p.advance()
		return true
	}
	return false
}

// parseParams parses the <name: int, ...> parameter list after a function name.
func (p *Parser) parseParams(fn *FunctionDecl) error {
	if _, err := p.expect(LANGLE, "'<'"); err != nil {
		return err
	}
	for p.peek().Type != RANGLE && p.peek().Type != EOF {
		name, err := p.expect(IDENTIFIER, "parameter name")
		if err != nil {
			return err
		}
		if _, err := p.expect(COLON, "':' after parameter name"); err != nil {
			return err
		}
		if _, err := p.expect(INT, "parameter type 'int'"); err != nil {
			return err
		}
		fn.Params = append(fn.Params, &Param{Name: name.Lexeme, Line: name.Line})
		if !p.match(COMMA) {
			break
		}
	}
	if _, err := p.expect(RANGLE, "'>' closing parameter list"); err != nil {
		return err
	}
	return nil
}

// parsePrimary parses integer literals, variable references and calls.
func (p *Parser) parsePrimary() (Expr, error) {
	tok := p.peek()

	switch tok.Type {
	case INTEGER:
		p.advance()
		val, err := strconv.ParseInt(tok.Lexeme, 10, 64)
		if err != nil {
			return nil, p.fmtError(tok, "invalid integer literal %q", tok.Lexeme)
		}
		return &Literal{Value: val, Line: tok.Line}, nil

	case IDENTIFIER:
		p.advance()
		if p.peek().Type != LPAREN {
			return &VarRef{Name: tok.Lexeme, Line: tok.Line}, nil
		}
		p.advance() // consume '('
		call := &CallExpr{Name: tok.Lexeme, Line: tok.Line}
		if p.peek().Type != RPAREN {
			for {
				if len(call.Args) >= maxCallArgs {
					return nil, p.fmtError(tok, "call to %q has more than %d arguments", tok.Lexeme, maxCallArgs)
				}
				arg, err := p.parseExpression()
				if err != nil {
					return nil, err
				}
				call.Args = append(call.Args, arg)
				if !p.match(COMMA) {
					break
				}
			}
		}
		if _, err := p.expect(RPAREN, "')' after call arguments"); err != nil {
			return nil, err
		}
		return call, nil

	default:
		return nil, p.fmtError(tok, "expected an expression")
	}
}

// parseExpression parses left-associative addition chains.
func (p *Parser) parseExpression() (Expr, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == PLUS {
		plus := p.advance()
		right, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		left = &AddExpr{Left: left, Right: right, Line: plus.Line}
	}
	return left, nil
}

// parseVariableDecl parses "let name<int> = expression;".
func (p *Parser) parseVariableDecl() (Stmt, error) {
	let := p.advance() // consume 'let'
	name, err := p.expect(IDENTIFIER, "variable name after 'let'")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(LANGLE, "'<' after variable name"); err != nil {
		return nil, err
	}
	if _, err := p.expect(INT, "variable type 'int'"); err != nil {
		return nil, err
	}
	if _, err := p.expect(RANGLE, "'>' after type"); err != nil {
		return nil, err
	}
	if _, err := p.expect(ASSIGN, "'=' in declaration"); err != nil {
		return nil, err
	}
	init, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(SEMICOLON, "';' after declaration"); err != nil {
		return nil, err
	}
	return &VariableDecl{Name: name.Lexeme, Line: let.Line, Init: init}, nil
}

// parseStatement parses one statement of a function body.
func (p *Parser) parseStatement() (Stmt, error) {
	switch p.peek().Type {
	case LET:
		return p.parseVariableDecl()

	case RETURN:
		ret := p.advance()
		val, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(SEMICOLON, "';' after return statement"); err != nil {
			return nil, err
		}
		return &ReturnStmt{Value: val, Line: ret.Line}, nil
	}

	// assignment: identifier '=' expression ';'
	if p.peek().Type == IDENTIFIER && p.peekNext().Type == ASSIGN {
		name := p.advance()
		p.advance() // consume '='
		val, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(SEMICOLON, "';' after assignment"); err != nil {
			return nil, err
		}
		return &Assignment{Name: name.Lexeme, Line: name.Line, Value: val}, nil
	}

	// expression statement, e.g. a bare call
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(SEMICOLON, "';' after expression statement"); err != nil {
		return nil, err
	}
	return &ExprStmt{X: expr}, nil
}

// parseFunction parses one "fun" definition.
func (p *Parser) parseFunction() (*FunctionDecl, error) {
	fun := p.advance() // consume 'fun'
	name, err := p.expect(IDENTIFIER, "function name")
	if err != nil {
		return nil, err
	}
	fn := &FunctionDecl{Name: name.Lexeme, Line: fun.Line}

	if p.peek().Type == LANGLE {
		if err := p.parseParams(fn); err != nil {
			return nil, err
		}
	}

	if _, err := p.expect(LPAREN, "'(' after function name"); err != nil {
		return nil, err
	}
	if _, err := p.expect(RPAREN, "')' after '('"); err != nil {
		return nil, err
	}

	if p.match(COLON) {
		if _, err := p.expect(INT, "return type 'int'"); err != nil {
			return nil, err
		}
		fn.ReturnsInt = true
	}

	if _, err := p.expect(LBRACE, "'{' to start function body"); err != nil {
		return nil, err
	}
	for p.peek().Type != RBRACE && p.peek().Type != EOF {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		fn.Body = append(fn.Body, stmt)
	}
	if _, err := p.expect(RBRACE, "'}' closing function body"); err != nil {
		return nil, err
	}
	return fn, nil
}

// Parse builds a CompilationUnit from the token stream. rawSource is used
// only to quote the offending line in error messages.
func Parse(tokens []Token, rawSource string) (*CompilationUnit, error) {
	p := NewParser(tokens, rawSource)
	unit := &CompilationUnit{}

	for {
		switch p.peek().Type {
		case EOF:
			return unit, nil
		case FUN:
			fn, err := p.parseFunction()
			if err != nil {
				return nil, err
			}
			unit.Functions = append(unit.Functions, fn)
		default:
			return nil, p.fmtError(p.peek(), "top-level declaration must be a function")
		}
	}
}
