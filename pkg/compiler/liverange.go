package compiler

import "fmt"

// LiveRange records the span of pre-order positions, within one function,
// during which a variable's value may be needed. Positions are assigned by a
// counter local to the function, so ranges from different functions are never
// comparable.
type LiveRange struct {
	Name     string
	Start    int  // position of the first declaration or use
	End      int  // position of the last use seen so far
	Declared bool // opened by a declaration or parameter, not just a use
	DeclLine int

	// Allocator output.
	AssignedReg int
	StackSlot   int
	Spilled     bool
}

// rangeTable holds the live ranges of a single function.
type rangeTable struct {
	ranges []*LiveRange
	byName map[string]*LiveRange
}

func newRangeTable() *rangeTable {
	return &rangeTable{byName: make(map[string]*LiveRange)}
}

// declare opens a range for a declaration or parameter. Declaring a name that
// is already declared in this function is fatal.
func (t *rangeTable) declare(name string, pos, line int) (*LiveRange, error) {
	if r, ok := t.byName[name]; ok {
		if r.Declared {
			return nil, fmt.Errorf("line %d: %w %q", line, ErrRedeclaration, name)
		}
		// The name was used before its declaration; adopt the existing range.
		r.Declared = true
		r.DeclLine = line
		if pos > r.End {
			r.End = pos
		}
		return r, nil
	}
	r := &LiveRange{
		Name:        name,
		Start:       pos,
		End:         pos,
		Declared:    true,
		DeclLine:    line,
		AssignedReg: -1,
		StackSlot:   -1,
	}
	t.ranges = append(t.ranges, r)
	t.byName[name] = r
	return r, nil
}

// touch records a use of name at pos, opening an undeclared range if needed.
func (t *rangeTable) touch(name string, pos int) *LiveRange {
	if r, ok := t.byName[name]; ok {
		if pos > r.End {
			r.End = pos
		}
		return r
	}
	r := &LiveRange{
		Name:        name,
		Start:       pos,
		End:         pos,
		AssignedReg: -1,
		StackSlot:   -1,
	}
	t.ranges = append(t.ranges, r)
	t.byName[name] = r
	return r
}

// analyzeLiveRanges walks one function in pre-order, assigning each visited
// node an increasing position index, and builds the function's live-range
// table. It makes no allocation decisions.
func analyzeLiveRanges(fn *FunctionDecl) (*rangeTable, error) {
	t := newRangeTable()
	idx := 0

	idx++ // the function node itself
	for _, p := range fn.Params {
		if _, err := t.declare(p.Name, idx, p.Line); err != nil {
			return nil, err
		}
		idx++
	}
	for _, s := range fn.Body {
		if err := rangeStmt(s, &idx, t); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func rangeStmt(s Stmt, idx *int, t *rangeTable) error {
	switch n := s.(type) {
	case *VariableDecl:
		if _, err := t.declare(n.Name, *idx, n.Line); err != nil {
			return err
		}
		*idx++
		rangeExpr(n.Init, idx, t)
	case *Assignment:
		t.touch(n.Name, *idx)
		*idx++
		rangeExpr(n.Value, idx, t)
	case *ReturnStmt:
		*idx++
		rangeExpr(n.Value, idx, t)
	case *ExprStmt:
		*idx++
		rangeExpr(n.X, idx, t)
	default:
		return fmt.Errorf("unexpected statement node %T in live-range analysis", s)
	}
	return nil
}

func rangeExpr(e Expr, idx *int, t *rangeTable) {
	switch n := e.(type) {
	case *Literal:
		*idx++
	case *VarRef:
		t.touch(n.Name, *idx)
		*idx++
	case *AddExpr:
		*idx++
		rangeExpr(n.Left, idx, t)
		rangeExpr(n.Right, idx, t)
	case *CallExpr:
		*idx++
		for _, a := range n.Args {
			rangeExpr(a, idx, t)
		}
	}
}
