package compiler

import "fmt"

// TokenType identifies the category of a lexed token.
type TokenType int

const (
	EOF TokenType = iota // sentinel: end of input

	// Literals
	IDENTIFIER // variable / function name
	INTEGER    // decimal integer literal

	// Keywords
	FUN    // "fun"
	INT    // "int"
	RETURN // "return"
	LET    // "let"

	// Paired delimiters
	LANGLE // <
	RANGLE // >
	LPAREN // (
	RPAREN // )
	LBRACE // {
	RBRACE // }

	// Punctuation
	COLON     // :
	COMMA     // ,
	SEMICOLON // ;

	// Operators
	ASSIGN // =
	PLUS   // +
)

var tokenNames = [...]string{
	EOF:        "EOF",
	IDENTIFIER: "IDENTIFIER",
	INTEGER:    "INTEGER",
	FUN:        "FUN",
	INT:        "INT",
	RETURN:     "RETURN",
	LET:        "LET",
	LANGLE:     "LANGLE",
	RANGLE:     "RANGLE",
	LPAREN:     "LPAREN",
	RPAREN:     "RPAREN",
	LBRACE:     "LBRACE",
	RBRACE:     "RBRACE",
	COLON:      "COLON",
	COMMA:      "COMMA",
	SEMICOLON:  "SEMICOLON",
	ASSIGN:     "ASSIGN",
	PLUS:       "PLUS",
}

func (tt TokenType) String() string {
	if int(tt) >= 0 && int(tt) < len(tokenNames) {
		return tokenNames[tt]
	}
	return fmt.Sprintf("TokenType(%d)", int(tt))
}

// Token is a single lexical unit produced by the Lexer.
type Token struct {
	Type   TokenType
	Lexeme string // the exact source text that was matched
	Line   int    // 1-based source line
}

func (t Token) String() string {
	return fmt.Sprintf("%-10s %-14q  line %d", t.Type, t.Lexeme, t.Line)
}
