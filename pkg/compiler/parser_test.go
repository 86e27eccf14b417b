package compiler

import (
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

// mustParse lexes and parses src, failing the test on any error.
func mustParse(t *testing.T, src string) *CompilationUnit {
	t.Helper()
	tokens, err := Lex(src)
	if err != nil {
		t.Fatalf("Lex failed: %v", err)
	}
	unit, err := Parse(tokens, src)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return unit
}

func TestParseMinimalFunction(t *testing.T) {
	unit := mustParse(t, "fun main(): int { return 0; }")
	be.Equal(t, len(unit.Functions), 1)

	fn := unit.Functions[0]
	be.Equal(t, fn.Name, "main")
	be.True(t, fn.ReturnsInt)
	be.Equal(t, len(fn.Params), 0)
	be.Equal(t, len(fn.Body), 1)

	ret, ok := fn.Body[0].(*ReturnStmt)
	be.True(t, ok)
	lit, ok := ret.Value.(*Literal)
	be.True(t, ok)
	be.Equal(t, lit.Value, int64(0))
}

func TestParseFunctionWithoutReturnType(t *testing.T) {
	unit := mustParse(t, "fun probe() { probe(); }")
	be.True(t, !unit.Functions[0].ReturnsInt)
}

func TestParseParameters(t *testing.T) {
	unit := mustParse(t, "fun add<a: int, b: int>(): int { return a; }")
	fn := unit.Functions[0]
	be.Equal(t, len(fn.Params), 2)
	be.Equal(t, fn.Params[0].Name, "a")
	be.Equal(t, fn.Params[1].Name, "b")
}

func TestParseAdditionIsLeftAssociative(t *testing.T) {
	unit := mustParse(t, "fun f(): int { return 1 + 2 + 3; }")
	ret := unit.Functions[0].Body[0].(*ReturnStmt)
	be.Equal(t, ret.Value.String(), "((1 + 2) + 3)")
}

func TestParseVariableDecl(t *testing.T) {
	unit := mustParse(t, "fun f(): int { let x<int> = 1 + y; return x; }")
	decl, ok := unit.Functions[0].Body[0].(*VariableDecl)
	be.True(t, ok)
	be.Equal(t, decl.Name, "x")
	be.Equal(t, decl.Init.String(), "(1 + y)")
}

func TestParseAssignment(t *testing.T) {
	unit := mustParse(t, "fun f(): int { let x<int> = 1; x = x + 2; return x; }")
	assign, ok := unit.Functions[0].Body[1].(*Assignment)
	be.True(t, ok)
	be.Equal(t, assign.Name, "x")
	be.Equal(t, assign.Value.String(), "(x + 2)")
}

func TestParseCall(t *testing.T) {
	unit := mustParse(t, "fun f(): int { return add(1, x, g()); }")
	ret := unit.Functions[0].Body[0].(*ReturnStmt)
	call, ok := ret.Value.(*CallExpr)
	be.True(t, ok)
	be.Equal(t, call.Name, "add")
	be.Equal(t, len(call.Args), 3)
	be.Equal(t, call.String(), "add(1, x, g())")
}

func TestParseCallArgumentLimit(t *testing.T) {
	tokens, _ := Lex("fun f(): int { return g(1, 2, 3, 4, 5); }")
	_, err := Parse(tokens, "")
	be.Err(t, err, "more than 4 arguments")
}

func TestParseBareCallStatement(t *testing.T) {
	unit := mustParse(t, "fun f() { probe(1); }")
	stmt, ok := unit.Functions[0].Body[0].(*ExprStmt)
	be.True(t, ok)
	_, ok = stmt.X.(*CallExpr)
	be.True(t, ok)
}

func TestParseMultipleFunctions(t *testing.T) {
	unit := mustParse(t, `
fun one(): int { return 1; }
fun two(): int { return 2; }
`)
	be.Equal(t, len(unit.Functions), 2)
	be.Equal(t, unit.Functions[0].Name, "one")
	be.Equal(t, unit.Functions[1].Name, "two")
}

func TestParseErrorIncludesSourceLine(t *testing.T) {
	src := "fun f(): int {\n    let x<int> 1;\n}"
	tokens, err := Lex(src)
	be.Err(t, err, nil)
	_, err = Parse(tokens, src)
	be.Err(t, err, "line 2")
	be.Err(t, err, "|>")
	be.Err(t, err, "let x<int> 1;")
}

func TestParseErrorTopLevel(t *testing.T) {
	tokens, _ := Lex("let x<int> = 1;")
	_, err := Parse(tokens, "let x<int> = 1;")
	be.Err(t, err, "top-level declaration must be a function")
}

func TestParseErrorMissingSemicolon(t *testing.T) {
	src := "fun f(): int { return 1 }"
	tokens, _ := Lex(src)
	_, err := Parse(tokens, src)
	be.Err(t, err, "';' after return statement")
}

func TestParseErrorUnclosedBody(t *testing.T) {
	src := "fun f(): int { return 1;"
	tokens, _ := Lex(src)
	_, err := Parse(tokens, src)
	be.Err(t, err, "'}'")
}

func TestDumpTree(t *testing.T) {
	unit := mustParse(t, "fun f<a: int>(): int { let x<int> = a + 1; return x; }")

	var sb strings.Builder
	Dump(&sb, unit)
	out := sb.String()

	for _, want := range []string{
		"CompilationUnit",
		"Function (f)",
		"Param (a)",
		"VarDecl (x)",
		"Add",
		"Identifier (a)",
		"IntLiteral (1)",
		"Return",
		"Identifier (x)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Dump output missing %q.\nOutput:\n%s", want, out)
		}
	}
}
