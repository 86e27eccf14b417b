package compiler

import (
	"testing"

	"github.com/nalgeon/be"
)

func tokenTypes(tokens []Token) []TokenType {
	types := make([]TokenType, len(tokens))
	for i, tok := range tokens {
		types[i] = tok.Type
	}
	return types
}

func TestLexDeclaration(t *testing.T) {
	tokens, err := Lex("let x<int> = 1;")
	be.Err(t, err, nil)
	be.Equal(t, tokenTypes(tokens), []TokenType{
		LET, IDENTIFIER, LANGLE, INT, RANGLE, ASSIGN, INTEGER, SEMICOLON, EOF,
	})
	be.Equal(t, tokens[1].Lexeme, "x")
	be.Equal(t, tokens[6].Lexeme, "1")
}

func TestLexFunctionHeader(t *testing.T) {
	tokens, err := Lex("fun add<a: int, b: int>(): int {}")
	be.Err(t, err, nil)
	be.Equal(t, tokenTypes(tokens), []TokenType{
		FUN, IDENTIFIER, LANGLE, IDENTIFIER, COLON, INT, COMMA,
		IDENTIFIER, COLON, INT, RANGLE, LPAREN, RPAREN, COLON, INT,
		LBRACE, RBRACE, EOF,
	})
}

func TestLexKeywordsVersusIdentifiers(t *testing.T) {
	tokens, err := Lex("return returns funky let_")
	be.Err(t, err, nil)
	be.Equal(t, tokenTypes(tokens), []TokenType{RETURN, IDENTIFIER, IDENTIFIER, IDENTIFIER, EOF})
	be.Equal(t, tokens[1].Lexeme, "returns")
	be.Equal(t, tokens[3].Lexeme, "let_")
}

func TestLexLineNumbers(t *testing.T) {
	tokens, err := Lex("fun main(): int {\n    return 1;\n}")
	be.Err(t, err, nil)

	be.Equal(t, tokens[0].Line, 1) // fun
	for _, tok := range tokens {
		if tok.Type == RETURN {
			be.Equal(t, tok.Line, 2)
		}
		if tok.Type == RBRACE {
			be.Equal(t, tok.Line, 3)
		}
	}
}

func TestLexMultiDigitInteger(t *testing.T) {
	tokens, err := Lex("let big<int> = 12045;")
	be.Err(t, err, nil)
	be.Equal(t, tokens[6].Type, INTEGER)
	be.Equal(t, tokens[6].Lexeme, "12045")
}

func TestLexUnexpectedCharacter(t *testing.T) {
	_, err := Lex("let x<int> = 1 @ 2;")
	be.Err(t, err, "unexpected character")
	be.Err(t, err, "line 1")
}

func TestLexEmptySource(t *testing.T) {
	tokens, err := Lex("")
	be.Err(t, err, nil)
	be.Equal(t, tokenTypes(tokens), []TokenType{EOF})
}
