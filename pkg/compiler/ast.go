package compiler

import (
	"fmt"
	"io"
	"strings"
)

// Annotation carries the register allocator's decisions for a single node.
// The parser leaves it zeroed; the allocator rewrites every field before the
// code generator reads any of them.
type Annotation struct {
	Register      int  // assigned register index, or -1 when none
	SourceReg     int  // register already holding the live value, or -1
	RequiresLoad  bool // load from StackSlot before the value is used
	RequiresStore bool // store to StackSlot after the value is computed
	StackSlot     int  // spill slot index, or -1 when not spilled
}

// reset puts the annotation back into its pre-allocation state.
func (a *Annotation) reset() {
	a.Register = -1
	a.SourceReg = -1
	a.RequiresLoad = false
	a.RequiresStore = false
	a.StackSlot = -1
}

//  Expression nodes

// Expr is implemented by every node that produces a value.
type Expr interface {
	exprNode()
	String() string
	Annot() *Annotation
}

// Literal is a compile-time integer constant.
//
//	let x<int> = 10;
//	             ^^  Literal{Value: 10}
type Literal struct {
	Value int64
	Line  int
	Annotation
}

func (*Literal) exprNode()            {}
func (l *Literal) String() string     { return fmt.Sprintf("%d", l.Value) }
func (l *Literal) Annot() *Annotation { return &l.Annotation }

// VarRef is a read of a named variable.
//
//	return x;
//	       ^  VarRef{Name: "x"}
type VarRef struct {
	Name string
	Line int
	Annotation
}

func (*VarRef) exprNode()            {}
func (v *VarRef) String() string     { return v.Name }
func (v *VarRef) Annot() *Annotation { return &v.Annotation }

// AddExpr represents Left + Right, the only binary operator in the language.
type AddExpr struct {
	Left  Expr
	Right Expr
	Line  int
	Annotation
}

func (*AddExpr) exprNode() {}
func (a *AddExpr) String() string {
	return fmt.Sprintf("(%s + %s)", a.Left, a.Right)
}
func (a *AddExpr) Annot() *Annotation { return &a.Annotation }

// CallExpr represents a function call with up to four arguments.
//
//	add(1, x)
//	^^^ ^^^^^
//	|   Args
//	Name
type CallExpr struct {
	Name string
	Args []Expr
	Line int
	Annotation
}

func (*CallExpr) exprNode() {}
func (c *CallExpr) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", c.Name, strings.Join(args, ", "))
}
func (c *CallExpr) Annot() *Annotation { return &c.Annotation }

//  Statement nodes

// Stmt is implemented by every node that appears in a function body.
type Stmt interface {
	stmtNode()
	String() string
}

// VariableDecl declares and initialises a new variable.
//
//	let x<int> = 1 + 2;
//	    ^        ^^^^^
//	    Name     Init
type VariableDecl struct {
	Name string
	Line int
	Init Expr
	Annotation
}

func (*VariableDecl) stmtNode() {}
func (d *VariableDecl) String() string {
	return fmt.Sprintf("let %s<int> = %s", d.Name, d.Init)
}
func (d *VariableDecl) Annot() *Annotation { return &d.Annotation }

// Assignment writes a new value to an already-declared variable.
type Assignment struct {
	Name  string
	Line  int
	Value Expr
	Annotation
}

func (*Assignment) stmtNode() {}
func (a *Assignment) String() string {
	return fmt.Sprintf("%s = %s", a.Name, a.Value)
}
func (a *Assignment) Annot() *Annotation { return &a.Annotation }

// ReturnStmt returns a value from the enclosing function.
type ReturnStmt struct {
	Value Expr
	Line  int
}

func (*ReturnStmt) stmtNode()        {}
func (r *ReturnStmt) String() string { return fmt.Sprintf("return %s", r.Value) }

// ExprStmt is an expression evaluated for its side effects, e.g. a bare call.
type ExprStmt struct {
	X Expr
}

func (*ExprStmt) stmtNode()        {}
func (e *ExprStmt) String() string { return e.X.String() }

//  Top-level nodes

// Param is a single named function parameter. All parameters have type int
// and are bound to argument registers r0-r3 by the calling convention.
type Param struct {
	Name string
	Line int
}

func (p *Param) String() string { return fmt.Sprintf("%s: int", p.Name) }

// FunctionDecl is one function definition.
//
// FrameSlots is written by the register allocator: the total number of stack
// slots (parameters plus spills) the function's frame must reserve.
type FunctionDecl struct {
	Name       string
	Line       int
	Params     []*Param
	ReturnsInt bool
	Body       []Stmt
	FrameSlots int
}

func (f *FunctionDecl) String() string {
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = p.String()
	}
	ret := ""
	if f.ReturnsInt {
		ret = ": int"
	}
	return fmt.Sprintf("fun %s<%s>()%s", f.Name, strings.Join(params, ", "), ret)
}

// CompilationUnit is the root of the AST: zero or more functions.
type CompilationUnit struct {
	Functions []*FunctionDecl
}

// Dump writes an indented tree representation of the AST to w.
func Dump(w io.Writer, unit *CompilationUnit) {
	fmt.Fprintln(w, "CompilationUnit")
	for _, fn := range unit.Functions {
		fmt.Fprintf(w, "  Function (%s)\n", fn.Name)
		for _, p := range fn.Params {
			fmt.Fprintf(w, "    Param (%s)\n", p.Name)
		}
		for _, s := range fn.Body {
			dumpStmt(w, s, 2)
		}
	}
}

func dumpStmt(w io.Writer, s Stmt, depth int) {
	pad := strings.Repeat("  ", depth)
	switch n := s.(type) {
	case *VariableDecl:
		fmt.Fprintf(w, "%sVarDecl (%s)\n", pad, n.Name)
		dumpExpr(w, n.Init, depth+1)
	case *Assignment:
		fmt.Fprintf(w, "%sAssignment (%s)\n", pad, n.Name)
		dumpExpr(w, n.Value, depth+1)
	case *ReturnStmt:
		fmt.Fprintf(w, "%sReturn\n", pad)
		dumpExpr(w, n.Value, depth+1)
	case *ExprStmt:
		fmt.Fprintf(w, "%sExpression\n", pad)
		dumpExpr(w, n.X, depth+1)
	}
}

func dumpExpr(w io.Writer, e Expr, depth int) {
	pad := strings.Repeat("  ", depth)
	switch n := e.(type) {
	case *Literal:
		fmt.Fprintf(w, "%sIntLiteral (%d)\n", pad, n.Value)
	case *VarRef:
		fmt.Fprintf(w, "%sIdentifier (%s)\n", pad, n.Name)
	case *AddExpr:
		fmt.Fprintf(w, "%sAdd\n", pad)
		dumpExpr(w, n.Left, depth+1)
		dumpExpr(w, n.Right, depth+1)
	case *CallExpr:
		fmt.Fprintf(w, "%sFunctionCall (%s)\n", pad, n.Name)
		for _, a := range n.Args {
			dumpExpr(w, a, depth+1)
		}
	}
}
