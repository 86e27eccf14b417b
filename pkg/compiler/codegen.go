package compiler

import (
	"fmt"
	"strings"
)

// CodeGen walks an allocator-annotated AST and emits ARM assembly text. It
// makes no allocation decisions of its own: every register, load and store it
// emits comes from the node annotations.
type CodeGen struct {
	out strings.Builder
}

func newCodeGen() *CodeGen {
	return &CodeGen{}
}

func (cg *CodeGen) line(format string, args ...any) {
	fmt.Fprintf(&cg.out, format+"\n", args...)
}

// loadIfNeeded emits the reload of a spilled value before its use.
func (cg *CodeGen) loadIfNeeded(a *Annotation) {
	if a.RequiresLoad {
		cg.line("    ldr r%d, [sp, #%d]", a.Register, a.StackSlot*wordSize)
	}
}

// storeIfNeeded emits the spill store after a value has been computed.
func (cg *CodeGen) storeIfNeeded(a *Annotation) {
	if a.RequiresStore {
		cg.line("    str r%d, [sp, #%d]", a.Register, a.StackSlot*wordSize)
	}
}

// moveIfNeeded moves an expression result into dst unless it is already
// there. Literals without a register are not moved; their consumer folds
// them into an immediate.
func (cg *CodeGen) moveIfNeeded(e Expr, dst int) {
	src := e.Annot().Register
	if src >= 0 && src != dst {
		cg.line("    mov r%d, r%d", dst, src)
	}
}

func (cg *CodeGen) genExpr(e Expr) error {
	switch n := e.(type) {
	case *Literal:
		if n.Register >= 0 {
			cg.line("    mov r%d, #%d", n.Register, n.Value)
		}
		return nil

	case *VarRef:
		cg.loadIfNeeded(n.Annot())
		return nil

	case *AddExpr:
		if err := cg.genExpr(n.Left); err != nil {
			return err
		}
		if err := cg.genExpr(n.Right); err != nil {
			return err
		}
		left := n.Left.Annot().Register
		if left < 0 {
			return fmt.Errorf("add on line %d has no register for its left operand", n.Line)
		}
		if lit, ok := n.Right.(*Literal); ok && lit.Register < 0 {
			cg.line("    add r%d, r%d, #%d", n.Register, left, lit.Value)
			return nil
		}
		right := n.Right.Annot().Register
		if right < 0 {
			return fmt.Errorf("add on line %d has no register for its right operand", n.Line)
		}
		cg.line("    add r%d, r%d, r%d", n.Register, left, right)
		return nil

	case *CallExpr:
		for i, arg := range n.Args {
			if err := cg.genExpr(arg); err != nil {
				return err
			}
			if lit, ok := arg.(*Literal); ok && lit.Register < 0 {
				cg.line("    mov r%d, #%d", i, lit.Value)
				continue
			}
			// Move into the positional argument register, but never
			// emit a self-move.
			if reg := arg.Annot().Register; reg != i {
				cg.line("    mov r%d, r%d", i, reg)
			}
		}
		cg.line("    bl %s", n.Name)
		if n.Register > 0 {
			cg.line("    mov r%d, r0", n.Register)
		}
		return nil

	default:
		return fmt.Errorf("unexpected expression node %T during code generation", e)
	}
}

func (cg *CodeGen) genStmt(s Stmt) error {
	switch n := s.(type) {
	case *VariableDecl:
		if err := cg.genExpr(n.Init); err != nil {
			return err
		}
		cg.moveIfNeeded(n.Init, n.Register)
		cg.storeIfNeeded(n.Annot())
		return nil

	case *Assignment:
		if err := cg.genExpr(n.Value); err != nil {
			return err
		}
		cg.moveIfNeeded(n.Value, n.Register)
		cg.storeIfNeeded(n.Annot())
		return nil

	case *ReturnStmt:
		if err := cg.genExpr(n.Value); err != nil {
			return err
		}
		if lit, ok := n.Value.(*Literal); ok && lit.Register < 0 {
			// A literal returned directly never round-trips through a
			// pool register.
			cg.line("    mov r0, #%d", lit.Value)
			return nil
		}
		if reg := n.Value.Annot().Register; reg > 0 {
			cg.line("    mov r0, r%d", reg)
		}
		return nil

	case *ExprStmt:
		return cg.genExpr(n.X)

	default:
		return fmt.Errorf("unexpected statement node %T during code generation", s)
	}
}

func (cg *CodeGen) genFunction(fn *FunctionDecl) error {
	frame := fn.FrameSlots * wordSize

	cg.line("")
	cg.line("%s:", fn.Name)
	cg.line("    push {lr}")
	if frame > 0 {
		cg.line("    sub sp, sp, #%d", frame)
	}

	// Parameters arrive in r0-r3; store them to their slots so every use
	// can reload them by value.
	for i := range fn.Params {
		cg.line("    str r%d, [sp, #%d]", i, i*wordSize)
	}

	for _, s := range fn.Body {
		if err := cg.genStmt(s); err != nil {
			return err
		}
	}

	if frame > 0 {
		cg.line("    add sp, sp, #%d", frame)
	}
	cg.line("    pop {pc}")
	return nil
}

// Generate emits the assembly listing for an allocator-annotated unit.
// Allocate must have completed without error on the same AST first.
func Generate(unit *CompilationUnit) (string, error) {
	cg := newCodeGen()
	cg.line(".global main")
	for _, fn := range unit.Functions {
		if err := cg.genFunction(fn); err != nil {
			return "", err
		}
	}
	return cg.out.String(), nil
}
