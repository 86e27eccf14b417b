package compiler

import (
	"errors"
	"fmt"
	"io"
)

const (
	numRegisters      = 12 // r0-r11
	firstPoolRegister = 4  // r0-r3 are reserved for arguments and results
	poolSize          = numRegisters - firstPoolRegister
	wordSize          = 4
)

// Fatal allocation errors. Both indicate the input program violates the
// language's static scoping rules; allocation of the offending function
// stops immediately and nothing is emitted for it.
var (
	ErrRedeclaration        = errors.New("redeclaration of variable")
	ErrUndeclaredAssignment = errors.New("assignment to undeclared variable")
)

// regState describes one pool register.
type regState struct {
	name    string // bound variable name, or "" when free
	temp    bool   // holds an expression temporary, freed at statement end
	lastUse int    // clock value of the most recent touch, for eviction
}

// funcContext is the allocator's per-function state: the register file, the
// stack-slot table and the live-range table. A fresh context is created for
// every function so no state leaks between sibling functions.
type funcContext struct {
	fnName      string
	regs        [numRegisters]regState
	slots       map[string]int
	slotCounter int
	ranges      *rangeTable
	clock       int

	// lastWrite points at the annotation of the statement that most
	// recently wrote each variable. When a variable is evicted its pending
	// value must be stored at that write site.
	lastWrite map[string]*Annotation
}

func newFuncContext(fnName string) *funcContext {
	return &funcContext{
		fnName:    fnName,
		slots:     make(map[string]int),
		lastWrite: make(map[string]*Annotation),
	}
}

// addSlot assigns the next stack slot to name. Slot indices grow
// monotonically and are never reused within a function.
func (ctx *funcContext) addSlot(name string) int {
	slot := ctx.slotCounter
	ctx.slotCounter++
	ctx.slots[name] = slot
	return slot
}

// boundRegister returns the pool register currently bound to name, or -1.
func (ctx *funcContext) boundRegister(name string) int {
	for i := firstPoolRegister; i < numRegisters; i++ {
		if ctx.regs[i].name == name && ctx.regs[i].name != "" {
			return i
		}
	}
	return -1
}

// touchRegister marks reg as just used, moving it to the back of the
// eviction order.
func (ctx *funcContext) touchRegister(reg int) {
	ctx.regs[reg].lastUse = ctx.clock
	ctx.clock++
}

// freeTemps releases every register holding an expression temporary.
// Called at each statement boundary: temporaries never outlive the
// statement that produced them.
func (ctx *funcContext) freeTemps() {
	for i := firstPoolRegister; i < numRegisters; i++ {
		if ctx.regs[i].temp {
			ctx.regs[i] = regState{}
		}
	}
}

// Allocator assigns a register or spill slot to every variable, function by
// function, and annotates the AST for the code generator. The zero value is
// ready to use; set Debug to receive a per-variable decision dump.
//
// The allocator owns an explicit context stack: entering a function pushes
// the enclosing context and starts a fresh one, so register state can never
// leak across function boundaries.
type Allocator struct {
	Debug io.Writer

	stack []*funcContext
	ctx   *funcContext
}

// Allocate runs register allocation over every function of the unit,
// mutating node annotations in place. On error the unit must not be passed
// to the code generator.
func Allocate(unit *CompilationUnit) error {
	return (&Allocator{}).Allocate(unit)
}

func (a *Allocator) Allocate(unit *CompilationUnit) error {
	for _, fn := range unit.Functions {
		if err := a.AllocateFunction(fn); err != nil {
			return err
		}
	}
	return nil
}

// AllocateFunction allocates a single function in a fresh context. It can be
// re-run on the same function and yields identical assignments.
func (a *Allocator) AllocateFunction(fn *FunctionDecl) error {
	_, err := a.allocFunction(fn)
	return err
}

// allocFunction does the work of AllocateFunction and additionally returns
// the function's final context for inspection in tests.
func (a *Allocator) allocFunction(fn *FunctionDecl) (*funcContext, error) {
	a.stack = append(a.stack, a.ctx)
	a.ctx = newFuncContext(fn.Name)
	defer func() {
		a.ctx = a.stack[len(a.stack)-1]
		a.stack = a.stack[:len(a.stack)-1]
	}()

	resetAnnotations(fn)

	ranges, err := analyzeLiveRanges(fn)
	if err != nil {
		return nil, err
	}
	ctx := a.ctx
	ctx.ranges = ranges

	// Parameters arrive in r0-r3 and are stored to the first slots by the
	// prologue. They are treated as spilled from birth: every use reloads
	// from the parameter's slot, so no parameter ever owns its argument
	// register past function entry.
	for _, p := range fn.Params {
		slot := ctx.addSlot(p.Name)
		r := ranges.byName[p.Name]
		r.Spilled = true
		r.StackSlot = slot
		a.debugf("Parameter '%s' assigned to stack slot %d\n", p.Name, slot)
	}

	for _, s := range fn.Body {
		if err := a.allocStmt(s); err != nil {
			return nil, err
		}
		ctx.freeTemps()
	}

	fn.FrameSlots = ctx.slotCounter
	return ctx, nil
}

func (a *Allocator) allocStmt(s Stmt) error {
	ctx := a.ctx
	switch n := s.(type) {
	case *VariableDecl:
		if err := a.allocExpr(n.Init); err != nil {
			return err
		}
		reg := a.allocRegister(n.Name, false)
		n.Register = reg
		r := ctx.ranges.byName[n.Name]
		r.AssignedReg = reg
		ctx.lastWrite[n.Name] = n.Annot()
		a.propagateResult(n.Init, reg)
		a.debugf("Variable '%s' assigned to register r%d\n", n.Name, reg)
		return nil

	case *Assignment:
		if err := a.allocExpr(n.Value); err != nil {
			return err
		}
		r := ctx.ranges.byName[n.Name]
		if r == nil || !r.Declared {
			return fmt.Errorf("line %d: %w %q", n.Line, ErrUndeclaredAssignment, n.Name)
		}
		reg := ctx.boundRegister(n.Name)
		if reg == -1 {
			reg = a.allocRegister(n.Name, false)
		}
		ctx.touchRegister(reg)
		n.Register = reg
		if r.Spilled {
			// Once spilled, always spilled: the slot stays the
			// variable's home and every write goes back to memory.
			n.RequiresStore = true
			n.StackSlot = r.StackSlot
		} else {
			r.AssignedReg = reg
			ctx.lastWrite[n.Name] = n.Annot()
		}
		a.propagateResult(n.Value, reg)
		return nil

	case *ReturnStmt:
		return a.allocExpr(n.Value)

	case *ExprStmt:
		return a.allocExpr(n.X)

	default:
		return fmt.Errorf("unexpected statement node %T during allocation", s)
	}
}

// propagateResult steers an initialiser or assigned expression to compute
// directly into the destination register where that saves a move: literals
// become an immediate move into dst, additions write their result straight
// into dst. Variable reads and calls keep their own registers; the code
// generator emits a register move for those instead.
func (a *Allocator) propagateResult(e Expr, dst int) {
	switch n := e.(type) {
	case *Literal:
		n.Register = dst
	case *AddExpr:
		n.Register = dst
	}
}

func (a *Allocator) allocExpr(e Expr) error {
	ctx := a.ctx
	switch n := e.(type) {
	case *Literal:
		// Literals stay register-free; the consumer either folds the
		// value into an immediate operand or propagates a register in.
		return nil

	case *VarRef:
		r := ctx.ranges.byName[n.Name]
		if r == nil {
			// Defensive: analysis touches every VarRef, so the range
			// must exist by the time allocation runs.
			r = ctx.ranges.touch(n.Name, 0)
		}
		reg := ctx.boundRegister(n.Name)
		if r.Spilled {
			if reg == -1 {
				reg = a.allocRegister(n.Name, false)
			}
			ctx.touchRegister(reg)
			n.Register = reg
			n.RequiresLoad = true
			n.StackSlot = r.StackSlot
			n.SourceReg = -1
			return nil
		}
		if reg == -1 {
			// First sighting of an undeclared name being read; bind
			// it so the use at least has a consistent register.
			reg = a.allocRegister(n.Name, false)
			r.AssignedReg = reg
		}
		ctx.touchRegister(reg)
		n.Register = reg
		n.SourceReg = reg
		return nil

	case *AddExpr:
		if err := a.allocExpr(n.Left); err != nil {
			return err
		}
		if err := a.allocExpr(n.Right); err != nil {
			return err
		}
		// The add instruction needs its left operand in a register; the
		// right operand may be folded into an immediate.
		if lit, ok := n.Left.(*Literal); ok && lit.Register == -1 {
			lit.Register = a.allocRegister("", true)
		}
		n.Register = a.allocRegister("", true)
		return nil

	case *CallExpr:
		for _, arg := range n.Args {
			if err := a.allocExpr(arg); err != nil {
				return err
			}
		}
		// The call result lands in the architecture's return register.
		n.Register = 0
		return nil

	default:
		return fmt.Errorf("unexpected expression node %T during allocation", e)
	}
}

// allocRegister binds a pool register to name (or to an anonymous temporary
// when temp is set). If the pool is full it evicts the least recently used
// non-temporary binding; ties are broken by the lowest register index, which
// the in-order scan yields naturally.
func (a *Allocator) allocRegister(name string, temp bool) int {
	ctx := a.ctx
	for i := firstPoolRegister; i < numRegisters; i++ {
		if ctx.regs[i].name == "" && !ctx.regs[i].temp {
			ctx.bind(i, name, temp)
			return i
		}
	}

	victim := -1
	for i := firstPoolRegister; i < numRegisters; i++ {
		if ctx.regs[i].temp {
			continue
		}
		if victim == -1 || ctx.regs[i].lastUse < ctx.regs[victim].lastUse {
			victim = i
		}
	}
	if victim == -1 {
		// Every pool register holds a live temporary; the expression is
		// too deep for the register file. Reuse the oldest temporary.
		victim = firstPoolRegister
		for i := firstPoolRegister; i < numRegisters; i++ {
			if ctx.regs[i].lastUse < ctx.regs[victim].lastUse {
				victim = i
			}
		}
	}

	a.spill(victim)
	ctx.bind(victim, name, temp)
	return victim
}

// spill evicts the binding in reg. If the bound variable has never been
// spilled it receives a fresh stack slot and its most recent write site is
// annotated to store the value, so every later reload sees the right memory.
func (a *Allocator) spill(reg int) {
	ctx := a.ctx
	name := ctx.regs[reg].name
	if name == "" {
		ctx.regs[reg] = regState{}
		return
	}
	r := ctx.ranges.byName[name]
	if r != nil && !r.Spilled {
		slot := ctx.addSlot(name)
		r.Spilled = true
		r.StackSlot = slot
		r.AssignedReg = -1
		if w := ctx.lastWrite[name]; w != nil {
			w.RequiresStore = true
			w.StackSlot = slot
		}
		a.debugf("Variable '%s' spilled to stack slot %d\n", name, slot)
	}
	ctx.regs[reg] = regState{}
}

func (ctx *funcContext) bind(reg int, name string, temp bool) {
	ctx.regs[reg] = regState{name: name, temp: temp, lastUse: ctx.clock}
	ctx.clock++
}

func (a *Allocator) debugf(format string, args ...any) {
	if a.Debug != nil {
		fmt.Fprintf(a.Debug, format, args...)
	}
}

// resetAnnotations clears all allocator output on the function, so a repeated
// allocation starts from the same state as the first.
func resetAnnotations(fn *FunctionDecl) {
	fn.FrameSlots = 0
	for _, s := range fn.Body {
		switch n := s.(type) {
		case *VariableDecl:
			n.Annot().reset()
			resetExpr(n.Init)
		case *Assignment:
			n.Annot().reset()
			resetExpr(n.Value)
		case *ReturnStmt:
			resetExpr(n.Value)
		case *ExprStmt:
			resetExpr(n.X)
		}
	}
}

func resetExpr(e Expr) {
	if e == nil {
		return
	}
	e.Annot().reset()
	switch n := e.(type) {
	case *AddExpr:
		resetExpr(n.Left)
		resetExpr(n.Right)
	case *CallExpr:
		for _, arg := range n.Args {
			resetExpr(arg)
		}
	}
}
