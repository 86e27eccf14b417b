package compiler

import (
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

func TestCompileFullProgram(t *testing.T) {
	asm, err := Compile(`
fun add<a: int, b: int>(): int {
    return a + b;
}

fun main(): int {
    let x<int> = 40;
    let y<int> = add(x, 2);
    return y;
}
`)
	be.Err(t, err, nil)

	assertContains(t, asm, ".global main")
	assertContains(t, asm, "\nadd:\n")
	assertContains(t, asm, "\nmain:\n")
	assertContains(t, asm, "    bl add")
	assertContains(t, asm, "    mov r1, #2")
}

func TestCompileIsDeterministic(t *testing.T) {
	src := declsSource(poolSize+2, "    return v1 + v9;\n")

	first, err := Compile(src)
	be.Err(t, err, nil)
	second, err := Compile(src)
	be.Err(t, err, nil)
	be.Equal(t, first, second)
}

func TestCompileLexError(t *testing.T) {
	asm, err := Compile("fun f(): int { return 1 $ 2; }")
	be.Err(t, err, "unexpected character")
	be.Equal(t, asm, "")
}

func TestCompileParseError(t *testing.T) {
	asm, err := Compile("fun f(): int { return 1 }")
	be.Err(t, err, "line 1")
	be.Equal(t, asm, "")
}

func TestCompileUndeclaredAssignment(t *testing.T) {
	asm, err := Compile("fun f(): int { x = 1; return x; }")
	be.Err(t, err, ErrUndeclaredAssignment)
	be.Equal(t, asm, "")
}

func TestCompileRedeclaration(t *testing.T) {
	asm, err := Compile("fun f(): int { let x<int> = 1; let x<int> = 2; return x; }")
	be.Err(t, err, ErrRedeclaration)
	be.Equal(t, asm, "")
}

func TestCompileEveryFunctionClosed(t *testing.T) {
	asm, err := Compile(`
fun a(): int { return 1; }
fun b(): int { return 2; }
fun c(): int { return 3; }
`)
	be.Err(t, err, nil)
	be.Equal(t, strings.Count(asm, "pop {pc}"), 3)
}
