package ssa

import (
	"github.com/you-not-fish/ssalift/internal/ir"
)

// builder holds the state for lifting a single function from the
// instruction list to SSA.
type builder struct {
	f   *Func
	src *ir.Func

	blockOf map[*ir.Instr]*Block // label instruction -> block

	// defs holds the current binding of each variable at the end of
	// each block filled so far.
	defs map[varKey]*Value

	// incomplete lists the operandless phis of unsealed blocks.
	incomplete map[*Block][]incompletePhi

	// memo maps a converted value instruction to its SSA value.
	memo map[*ir.Instr]*Value

	// forward maps a removed trivial phi to its replacement, so bindings
	// and memo entries recorded before the removal stay valid.
	forward map[*Value]*Value

	// collecting marks phis whose operands are being gathered; they must
	// not be judged trivial on a partial operand list.
	collecting map[*Value]bool

	globals map[string]*Value
	funcs   map[string]*Value
}

type varKey struct {
	v *ir.Instr
	b *Block
}

type incompletePhi struct {
	variable *ir.Instr
	phi      *Value
}

// Build lifts src into SSA form. Unsupported constructs and malformed
// input abort the function with an *Error.
func Build(src *ir.Func) (*Func, error) {
	f := NewFunc(src.Name, src)
	b := &builder{
		f:          f,
		src:        src,
		blockOf:    make(map[*ir.Instr]*Block),
		defs:       make(map[varKey]*Value),
		incomplete: make(map[*Block][]incompletePhi),
		memo:       make(map[*ir.Instr]*Value),
		forward:    make(map[*Value]*Value),
		collecting: make(map[*Value]bool),
		globals:    make(map[string]*Value),
		funcs:      make(map[string]*Value),
	}
	err := Catch(src.Name, func() {
		b.partition()
		b.connect()
		b.prune()
		b.fill()
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}

// ----------------------------------------------------------------------------
// Control flow graph

// partition splits the instruction list into basic blocks. A block starts
// at the function entry, at every label and after every terminator. A block
// falling through into a label gets an explicit branch, and a function
// running off its end gets an explicit return.
func (b *builder) partition() {
	targeted := make(map[*ir.Instr]bool)
	for _, inst := range b.src.Instrs {
		for _, t := range inst.Targets {
			targeted[t] = true
		}
	}

	cur := b.f.NewBlock(nil)
	for i, inst := range b.src.Instrs {
		if inst.Kind == ir.KindLabel {
			if _, dup := b.blockOf[inst]; dup {
				panic(invariantf("label %s placed twice", inst.Name))
			}
			// An untargeted leading label names the entry block itself.
			if i == 0 && !targeted[inst] {
				cur.Label = inst
				b.blockOf[inst] = cur
				continue
			}
			next := b.f.NewBlock(inst)
			b.blockOf[inst] = next
			if !terminated(cur) {
				cur.Instrs = append(cur.Instrs, &ir.Instr{Kind: ir.KindBr, Targets: []*ir.Instr{inst}, Pos: inst.Pos})
			}
			cur = next
			continue
		}
		if terminated(cur) {
			cur = b.f.NewBlock(nil)
		}
		cur.Instrs = append(cur.Instrs, inst)
	}
	if !terminated(cur) {
		cur.Instrs = append(cur.Instrs, &ir.Instr{Kind: ir.KindRet, Pos: b.src.Pos})
	}
}

func terminated(blk *Block) bool {
	n := len(blk.Instrs)
	return n > 0 && blk.Instrs[n-1].Kind.IsTerminator()
}

// connect adds the edges named by each block's terminator.
func (b *builder) connect() {
	for _, blk := range b.f.Blocks {
		term := blk.Instrs[len(blk.Instrs)-1]
		for _, t := range term.Targets {
			succ, ok := b.blockOf[t]
			if !ok {
				panic(invariantf("branch to unplaced label %s", t.Name))
			}
			blk.AddSucc(succ)
		}
	}
}

// prune drops blocks unreachable from the entry before any value is
// built, then renumbers the survivors in layout order.
func (b *builder) prune() {
	RemoveUnreachable(b.f)
	for i, blk := range b.f.Blocks {
		blk.ID = ID(i)
	}
	b.f.nextBlockID = ID(len(b.f.Blocks))
}

// fill converts the blocks in reverse post-order, sealing each block as
// soon as all of its predecessors are filled.
func (b *builder) fill() {
	f := b.f
	entry := f.Entry
	b.seal(entry)

	for i, p := range b.src.Params {
		arg := f.NewValue(entry, OpParam, p.Type.Deref())
		arg.AuxInt = int64(i)
		arg.Var = p
		arg.Sym = p.Name
		b.writeVariable(p, entry, b.newLocal(entry, p, arg))
	}
	if r := b.src.Result; r != nil {
		b.declare(entry, r)
	}

	for _, blk := range ReversePostOrder(f) {
		for _, inst := range blk.Instrs {
			b.stmt(blk, inst)
		}
		blk.filled = true
		for _, s := range blk.Succs {
			b.trySeal(s)
		}
	}
	// Loop headers of irreducible regions may be left unsealed.
	for _, blk := range f.Blocks {
		b.seal(blk)
	}
}

func (b *builder) trySeal(blk *Block) {
	if blk.sealed {
		return
	}
	for _, p := range blk.Preds {
		if !p.filled {
			return
		}
	}
	b.seal(blk)
}

// seal completes the incomplete phis of blk now that its predecessor set
// is final.
func (b *builder) seal(blk *Block) {
	if blk.sealed {
		return
	}
	for _, ip := range b.incomplete[blk] {
		if ip.phi.Has(FlagRemoved) {
			continue
		}
		b.addPhiOperands(ip.variable, ip.phi)
	}
	delete(b.incomplete, blk)
	blk.sealed = true
}

// ----------------------------------------------------------------------------
// Variables

func (b *builder) writeVariable(variable *ir.Instr, blk *Block, v *Value) {
	b.defs[varKey{variable, blk}] = v
}

func (b *builder) readVariable(variable *ir.Instr, blk *Block) *Value {
	if v, ok := b.defs[varKey{variable, blk}]; ok {
		return b.resolve(v)
	}
	return b.readVariableRecursive(variable, blk)
}

func (b *builder) readVariableRecursive(variable *ir.Instr, blk *Block) *Value {
	var v *Value
	switch {
	case !blk.sealed:
		phi := b.f.NewPhi(blk, variable)
		b.incomplete[blk] = append(b.incomplete[blk], incompletePhi{variable, phi})
		v = phi
	case len(blk.Preds) == 1:
		v = b.readVariable(variable, blk.Preds[0])
	default:
		// Bind the phi first so cycles through this block terminate.
		phi := b.f.NewPhi(blk, variable)
		b.writeVariable(variable, blk, phi)
		v = b.addPhiOperands(variable, phi)
	}
	b.writeVariable(variable, blk, v)
	return v
}

func (b *builder) addPhiOperands(variable *ir.Instr, phi *Value) *Value {
	b.collecting[phi] = true
	for _, pred := range phi.Block.Preds {
		phi.AddArg(b.readVariable(variable, pred))
	}
	delete(b.collecting, phi)
	return b.tryRemoveTrivialPhi(phi)
}

// tryRemoveTrivialPhi replaces phi by its only distinct operand other than
// itself, or by an undefined value when it has none. Phis using a removed
// phi may become trivial in turn; they are retried until no phi changes.
// It returns the value standing for phi afterwards.
func (b *builder) tryRemoveTrivialPhi(phi *Value) *Value {
	work := []*Value{phi}
	for len(work) > 0 {
		p := work[0]
		work = work[1:]
		if p.Has(FlagRemoved) || b.collecting[p] {
			continue
		}
		same, trivial := trivialOperand(p)
		if !trivial {
			continue
		}
		if same == nil {
			same = b.f.newUndef(p.Block, p.Type)
		}
		users := b.f.UsersOf(p)
		p.ReplaceWith(same, 0)
		b.f.Delete(p)
		p.Block.removeValue(p)
		b.forward[p] = same
		for _, u := range users {
			if u != p && u.Op == OpPhi {
				work = append(work, u)
			}
		}
	}
	return b.resolve(phi)
}

// trivialOperand returns the unique operand of phi other than phi itself.
// trivial is false when phi merges two or more distinct values.
func trivialOperand(phi *Value) (same *Value, trivial bool) {
	for _, a := range phi.Args {
		if a == same || a == phi {
			continue
		}
		if same != nil {
			return nil, false
		}
		same = a
	}
	return same, true
}

// RemoveTrivialPhis removes each of phis that merges at most one value
// other than itself, retrying the phis that used a removed one. It
// reports whether any phi was removed.
func RemoveTrivialPhis(phis []*Value) bool {
	work := append([]*Value(nil), phis...)
	removed := false
	for len(work) > 0 {
		p := work[0]
		work = work[1:]
		if p.Op != OpPhi || p.Has(FlagRemoved) {
			continue
		}
		same, trivial := trivialOperand(p)
		if !trivial {
			continue
		}
		f := p.Func()
		if same == nil {
			same = f.newUndef(p.Block, p.Type)
		}
		users := f.UsersOf(p)
		p.ReplaceWith(same, 0)
		p.Block.removeValue(p)
		removed = true
		for _, u := range users {
			if u != p && u.Op == OpPhi {
				work = append(work, u)
			}
		}
	}
	return removed
}

// resolve follows the replacements of removed phis.
func (b *builder) resolve(v *Value) *Value {
	for {
		w, ok := b.forward[v]
		if !ok {
			return v
		}
		v = w
	}
}
