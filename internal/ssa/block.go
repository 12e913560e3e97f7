package ssa

import (
	"fmt"

	"github.com/you-not-fish/ssalift/internal/ir"
)

// Block represents a basic block in the control flow graph.
// Its values end with exactly one control-flow value once filled.
type Block struct {
	// ID is a unique identifier within the containing Func.
	ID ID

	// Label is the label instruction that starts the block, nil for an
	// entry block without one.
	Label *ir.Instr

	// Instrs are the source instructions of the block.
	Instrs []*ir.Instr

	// Values is the ordered list of values computed in this block.
	Values []*Value

	// Succs lists the successor blocks. For a conditional branch,
	// Succs[0] is taken when the condition is true.
	Succs []*Block

	// Preds lists the predecessor blocks. Phi argument i flows in from
	// Preds[i].
	Preds []*Block

	// Func is the function containing this block.
	Func *Func

	sealed bool // all predecessors are known
	filled bool // all instructions are converted
}

// String returns a short string representation (e.g., "b3").
func (b *Block) String() string {
	return fmt.Sprintf("b%d", b.ID)
}

// Name returns the block's label name, or its short string.
func (b *Block) Name() string {
	if b.Label != nil {
		return b.Label.Name
	}
	return b.String()
}

// Sealed reports whether all predecessors of b are known.
func (b *Block) Sealed() bool { return b.sealed }

// Filled reports whether every instruction of b was converted.
func (b *Block) Filled() bool { return b.filled }

// AddSucc adds a successor block, updating both Succs and the successor's Preds.
func (b *Block) AddSucc(succ *Block) {
	b.Succs = append(b.Succs, succ)
	succ.Preds = append(succ.Preds, b)
}

// Control returns the control-flow value ending b, or nil.
func (b *Block) Control() *Value {
	if n := len(b.Values); n > 0 && b.Values[n-1].IsControlFlow() {
		return b.Values[n-1]
	}
	return nil
}

// Phis returns the leading phi values of b.
func (b *Block) Phis() []*Value {
	n := 0
	for n < len(b.Values) && b.Values[n].Op == OpPhi {
		n++
	}
	return b.Values[:n]
}

// predIndex returns the index of the first edge from pred, or -1.
func (b *Block) predIndex(pred *Block) int {
	for i, p := range b.Preds {
		if p == pred {
			return i
		}
	}
	return -1
}

// removeValue drops v from b's value list.
func (b *Block) removeValue(v *Value) {
	for i, w := range b.Values {
		if w == v {
			b.Values = append(b.Values[:i], b.Values[i+1:]...)
			v.Flags |= FlagRemoved
			return
		}
	}
}

// insertPhi places phi after the existing phis of b.
func (b *Block) insertPhi(phi *Value) {
	n := len(b.Phis())
	b.Values = append(b.Values, nil)
	copy(b.Values[n+1:], b.Values[n:])
	b.Values[n] = phi
}

// RemoveEdge deletes one edge from b to succ. The phi arguments flowing in
// along the edge are dropped, and phis left with a single argument are
// replaced by it.
func (b *Block) RemoveEdge(succ *Block) {
	for i, s := range b.Succs {
		if s == succ {
			b.Succs = append(b.Succs[:i], b.Succs[i+1:]...)
			break
		}
	}
	i := succ.predIndex(b)
	if i < 0 {
		return
	}
	succ.removePred(i)
}

// removePred drops Preds[i] and the matching argument of every phi.
func (b *Block) removePred(i int) {
	f := b.Func
	b.Preds = append(b.Preds[:i], b.Preds[i+1:]...)

	var single []*Value
	for _, phi := range b.Phis() {
		f.RemoveUser(phi.Args[i], phi)
		phi.Args = append(phi.Args[:i], phi.Args[i+1:]...)
		if len(phi.Args) <= 1 {
			single = append(single, phi)
		}
	}
	for _, phi := range single {
		var repl *Value
		if len(phi.Args) == 1 && phi.Args[0] != phi {
			repl = phi.Args[0]
		} else {
			repl = f.newUndef(b, phi.Type)
		}
		phi.ReplaceWith(repl, 0)
		f.Delete(phi)
		b.removeValue(phi)
	}
}

// NumSuccs returns the number of successor blocks.
func (b *Block) NumSuccs() int { return len(b.Succs) }

// NumPreds returns the number of predecessor blocks.
func (b *Block) NumPreds() int { return len(b.Preds) }

// NumValues returns the number of values in this block.
func (b *Block) NumValues() int { return len(b.Values) }

// Remove deletes v from the use-def table and takes it out of b.
func (b *Block) Remove(v *Value) {
	b.Func.Delete(v)
	b.removeValue(v)
}

// SetControl replaces the control-flow value ending b with a new value of
// the given op and returns it.
func (b *Block) SetControl(op Op, args ...*Value) *Value {
	if c := b.Control(); c != nil {
		b.Remove(c)
	}
	return b.Func.NewValue(b, op, nil, args...)
}

// MergeSucc appends the values of b's sole successor s to b and takes s
// out of the function. s must have b as its only predecessor; its phis
// are replaced by their single argument. b's control value is dropped in
// favor of s's.
func (b *Block) MergeSucc() *Block {
	f := b.Func
	s := b.Succs[0]
	for _, phi := range s.Phis() {
		phi.ReplaceWith(phi.Args[0], 0)
		s.Remove(phi)
	}
	if c := b.Control(); c != nil {
		b.Remove(c)
	}
	for _, v := range s.Values {
		v.Block = b
	}
	b.Values = append(b.Values, s.Values...)
	s.Values = nil

	b.Succs = s.Succs
	s.Succs = nil
	for _, succ := range b.Succs {
		for i, p := range succ.Preds {
			if p == s {
				succ.Preds[i] = b
			}
		}
	}
	s.Preds = nil
	for i, x := range f.Blocks {
		if x == s {
			f.Blocks = append(f.Blocks[:i], f.Blocks[i+1:]...)
			break
		}
	}
	return s
}
