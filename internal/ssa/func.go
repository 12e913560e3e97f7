package ssa

import "github.com/you-not-fish/ssalift/internal/ir"

// Func is an SSA function: a control flow graph of Blocks holding Values,
// the arena those values live in, and their use-def table.
type Func struct {
	// Name is the function name.
	Name string

	// Source is the IR function this was built from.
	Source *ir.Func

	// Blocks is the list of basic blocks. Blocks[0] is always the entry block.
	Blocks []*Block

	// Entry is the entry block (same as Blocks[0]).
	Entry *Block

	// values is the arena; values[i].ID == i.
	values []*Value

	// users is the use-def table, indexed by Value.rel-1.
	users [][]*Value

	// consts deduplicates literals per function.
	consts map[constKey]*Value

	nextBlockID ID
}

type constKey struct {
	typ string
	val string
}

// NewFunc creates an empty SSA function.
func NewFunc(name string, src *ir.Func) *Func {
	return &Func{
		Name:   name,
		Source: src,
		consts: make(map[constKey]*Value),
	}
}

// NewBlock creates a new basic block and appends it to the function.
// The first block created becomes the entry block.
func (f *Func) NewBlock(label *ir.Instr) *Block {
	b := &Block{
		ID:    f.nextBlockID,
		Label: label,
		Func:  f,
	}
	f.nextBlockID++
	f.Blocks = append(f.Blocks, b)
	if f.Entry == nil {
		f.Entry = b
	}
	return b
}

// newValue allocates a value in the arena without placing it in a block.
func (f *Func) newValue(b *Block, op Op, typ *ir.Type, args ...*Value) *Value {
	v := &Value{
		ID:    ID(len(f.values)),
		Op:    op,
		Type:  typ,
		Block: b,
	}
	f.values = append(f.values, v)
	for _, arg := range args {
		v.AddArg(arg)
	}
	return v
}

// NewValue creates a new Value at the end of block b.
func (f *Func) NewValue(b *Block, op Op, typ *ir.Type, args ...*Value) *Value {
	v := f.newValue(b, op, typ, args...)
	b.Values = append(b.Values, v)
	return v
}

// NewValueAt creates a new Value at index i of block b.
func (f *Func) NewValueAt(b *Block, i int, op Op, typ *ir.Type, args ...*Value) *Value {
	v := f.newValue(b, op, typ, args...)
	b.Values = append(b.Values, nil)
	copy(b.Values[i+1:], b.Values[i:])
	b.Values[i] = v
	return v
}

// NewPhi creates an operandless phi for variable at the head of b.
func (f *Func) NewPhi(b *Block, variable *ir.Instr) *Value {
	typ := (*ir.Type)(nil)
	if variable != nil {
		typ = variable.Type.Deref()
	}
	phi := f.newValue(b, OpPhi, typ)
	phi.Var = variable
	b.insertPhi(phi)
	return phi
}

// newUndef places a fresh undefined value after the phis of b.
func (f *Func) newUndef(b *Block, typ *ir.Type) *Value {
	return f.NewValueAt(b, len(b.Phis()), OpUndef, typ)
}

// ConstValue returns the function's unique value for c, creating it in
// the entry block on first use.
func (f *Func) ConstValue(c *ir.Const) *Value {
	key := constKey{c.Type.String(), c.String()}
	if v, ok := f.consts[key]; ok && !v.Has(FlagRemoved) {
		return v
	}
	v := f.newEntryLeaf(OpConst, c.Type)
	v.Const = c
	f.consts[key] = v
	return v
}

// newEntryLeaf creates a leaf shared across the function at the end of
// the entry block, ahead of its control value.
func (f *Func) newEntryLeaf(op Op, typ *ir.Type) *Value {
	i := len(f.Entry.Values)
	if f.Entry.Control() != nil {
		i--
	}
	return f.NewValueAt(f.Entry, i, op, typ)
}

// Value returns the value with the given ID.
func (f *Func) Value(id ID) *Value {
	return f.values[id]
}

// NumBlocks returns the number of blocks in the function.
func (f *Func) NumBlocks() int { return len(f.Blocks) }

// NumValues returns the total number of values across all blocks.
func (f *Func) NumValues() int {
	n := 0
	for _, b := range f.Blocks {
		n += len(b.Values)
	}
	return n
}
