package ssa

import (
	"github.com/you-not-fish/ssalift/internal/ir"
)

// stmt converts one instruction of blk. Value instructions are converted
// where they appear and remembered; index and member instructions are
// converted lazily where they are used, since their meaning depends on
// whether the use reads or writes.
func (b *builder) stmt(blk *Block, inst *ir.Instr) {
	f := b.f
	switch inst.Kind {
	case ir.KindLabel, ir.KindIndex, ir.KindMember:
		// nothing to do here

	case ir.KindAlloc:
		b.declare(blk, inst)

	case ir.KindStore:
		b.store(blk, inst)

	case ir.KindLoad, ir.KindBinOp, ir.KindUnOp, ir.KindCast, ir.KindSelect, ir.KindCall:
		b.memo[inst] = b.value(blk, inst)

	case ir.KindBr:
		f.NewValue(blk, OpBranch, nil)

	case ir.KindCondBr:
		cond := b.operand(blk, inst.Args[0])
		f.NewValue(blk, OpCondBranch, nil, cond)

	case ir.KindRet:
		if len(inst.Args) == 0 {
			f.NewValue(blk, OpReturn, nil)
			return
		}
		v := b.operand(blk, inst.Args[0])
		f.NewValue(blk, OpReturn, nil, v)

	case ir.KindUnreachable:
		f.NewValue(blk, OpUnreachable, nil)

	default:
		panic(notImplementedf(inst, "instruction %s", inst.Kind))
	}
}

// declare binds a fresh allocation to an undefined value.
func (b *builder) declare(blk *Block, alloc *ir.Instr) {
	u := b.f.NewValue(blk, OpUndef, alloc.Type.Deref())
	b.writeVariable(alloc, blk, b.newLocal(blk, alloc, u))
}

// newLocal creates a binding of variable to v.
func (b *builder) newLocal(blk *Block, variable *ir.Instr, v *Value) *Value {
	l := b.f.NewValue(blk, OpLocal, variable.Type.Deref(), v)
	l.Var = variable
	l.Inst = variable
	return l
}

// operand returns the value read by an operand in blk.
func (b *builder) operand(blk *Block, op ir.Operand) *Value {
	f := b.f
	switch op := op.(type) {
	case *ir.Const:
		return f.ConstValue(op)
	case *ir.Undef:
		typ := op.Type
		if typ == nil {
			typ = ir.Void
		}
		return f.NewValue(blk, OpUndef, typ)
	case *ir.Global:
		if v, ok := b.globals[op.Name]; ok && !v.Has(FlagRemoved) {
			return v
		}
		v := f.newEntryLeaf(OpGlobal, op.OperandType())
		v.Sym = op.Name
		b.globals[op.Name] = v
		return v
	case *ir.FuncRef:
		if v, ok := b.funcs[op.Name]; ok && !v.Has(FlagRemoved) {
			return v
		}
		v := f.newEntryLeaf(OpFunc, ir.Void)
		v.Sym = op.Name
		b.funcs[op.Name] = v
		return v
	case *ir.Instr:
		switch op.Kind {
		case ir.KindAlloc:
			return b.readVariable(op, blk)
		case ir.KindIndex:
			return b.index(blk, op)
		case ir.KindMember:
			return b.member(blk, op)
		}
		if v, ok := b.memo[op]; ok {
			return b.resolve(v)
		}
		panic(invariantf("%s used before its definition", op))
	case nil:
		panic(invariantf("missing operand"))
	}
	panic(notImplementedf(nil, "operand %s", op))
}

// address returns the value of an operand used as an address. Variables
// and element or field locations are wrapped in an address node.
func (b *builder) address(blk *Block, op ir.Operand) *Value {
	v := b.operand(blk, op)
	if inst, ok := op.(*ir.Instr); ok {
		switch inst.Kind {
		case ir.KindAlloc, ir.KindIndex, ir.KindMember:
			return b.f.NewValue(blk, OpAddr, inst.Type, v)
		}
	}
	return v
}

// value converts a value instruction.
func (b *builder) value(blk *Block, inst *ir.Instr) *Value {
	switch inst.Kind {
	case ir.KindLoad:
		return b.load(blk, inst)
	case ir.KindBinOp:
		return b.binary(blk, inst)
	case ir.KindUnOp:
		return b.unary(blk, inst)
	case ir.KindCast:
		return b.cast(blk, inst)
	case ir.KindSelect:
		return b.sel(blk, inst)
	case ir.KindCall:
		return b.call(blk, inst)
	}
	panic(invariantf("%s is not a value instruction", inst.Kind))
}

func (b *builder) load(blk *Block, inst *ir.Instr) *Value {
	switch addr := inst.Args[0].(type) {
	case *ir.Instr:
		switch addr.Kind {
		case ir.KindAlloc:
			return b.readVariable(addr, blk)
		case ir.KindIndex:
			return b.index(blk, addr)
		case ir.KindMember:
			return b.member(blk, addr)
		}
		panic(notImplementedf(inst, "load through %s", addr.Kind))
	case *ir.Global:
		panic(notImplementedf(inst, "load from global @%s", addr.Name))
	}
	panic(notImplementedf(inst, "load from %s", inst.Args[0]))
}

func (b *builder) store(blk *Block, inst *ir.Instr) {
	val := b.address(blk, inst.Args[1])
	dst, ok := inst.Args[0].(*ir.Instr)
	if !ok {
		panic(notImplementedf(inst, "store to %s", inst.Args[0]))
	}
	switch dst.Kind {
	case ir.KindAlloc:
		b.writeVariable(dst, blk, b.newLocal(blk, dst, val))
	case ir.KindIndex:
		st := b.indexStore(blk, dst)
		st.SetArg(2, val)
	case ir.KindMember:
		panic(notImplementedf(inst, "store to member %s", dst.Field))
	default:
		panic(notImplementedf(inst, "store through %s", dst.Kind))
	}
}

// index converts an element read. Reads of the same element of the same
// binding within a block share one node.
func (b *builder) index(blk *Block, inst *ir.Instr) *Value {
	base := b.operand(blk, inst.Args[0])
	idx := b.operand(blk, inst.Args[1])
	base = b.resolve(base)
	for _, v := range blk.Values {
		if v.Op == OpIndex && v.Args[0] == base && v.Args[1] == idx {
			return v
		}
	}
	v := b.f.NewValue(blk, OpIndex, inst.Type.Deref(), base, idx)
	v.Inst = inst
	return v
}

// indexStore converts an element write. The written variable gets a new
// binding to the store node, which yields no value of its own.
func (b *builder) indexStore(blk *Block, inst *ir.Instr) *Value {
	base, ok := inst.Args[0].(*ir.Instr)
	if !ok || base.Kind != ir.KindAlloc {
		panic(notImplementedf(inst, "indexed write through %s", inst.Args[0]))
	}
	cur := b.readVariable(base, blk)
	idx := b.operand(blk, inst.Args[1])
	cur = b.resolve(cur)
	st := b.f.NewValue(blk, OpIndexStore, inst.Type.Deref(), cur, idx, nil)
	st.Flags |= FlagNoValue
	st.Inst = inst
	b.writeVariable(base, blk, b.newLocal(blk, base, st))
	return st
}

func (b *builder) member(blk *Block, inst *ir.Instr) *Value {
	base := b.operand(blk, inst.Args[0])
	v := b.f.NewValue(blk, OpMember, inst.Type.Deref(), base)
	v.Sym = inst.Field
	v.Inst = inst
	return v
}

// binary converts a binary operation, reusing an identical operation of
// the same block or folding constant operands.
func (b *builder) binary(blk *Block, inst *ir.Instr) *Value {
	x := b.operand(blk, inst.Args[0])
	y := b.operand(blk, inst.Args[1])
	x, y = b.resolve(x), b.resolve(y)
	for _, v := range blk.Values {
		if v.Op == OpBinary && v.Oper == inst.Op && v.Args[0] == x && v.Args[1] == y {
			return v
		}
	}
	if cx, cy := x.Unwrap(), y.Unwrap(); cx.IsConst() && cy.IsConst() {
		if c, ok := ir.EvalBinary(inst.Op, cx.Const, cy.Const); ok {
			return b.f.ConstValue(c)
		}
	}
	v := b.f.NewValue(blk, OpBinary, inst.Type, x, y)
	v.Oper = inst.Op
	v.Inst = inst
	return v
}

func (b *builder) unary(blk *Block, inst *ir.Instr) *Value {
	x := b.operand(blk, inst.Args[0])
	for _, v := range blk.Values {
		if v.Op == OpUnary && v.Oper == inst.Op && v.Args[0] == x {
			return v
		}
	}
	if cx := x.Unwrap(); cx.IsConst() {
		if c, ok := ir.EvalUnary(inst.Op, cx.Const); ok {
			return b.f.ConstValue(c)
		}
	}
	v := b.f.NewValue(blk, OpUnary, inst.Type, x)
	v.Oper = inst.Op
	v.Inst = inst
	return v
}

func (b *builder) cast(blk *Block, inst *ir.Instr) *Value {
	x := b.operand(blk, inst.Args[0])
	for _, v := range blk.Values {
		if v.Op == OpCast && v.Args[0] == x && ir.Identical(v.Type, inst.Type) {
			return v
		}
	}
	v := b.f.NewValue(blk, OpCast, inst.Type, x)
	v.Inst = inst
	return v
}

func (b *builder) sel(blk *Block, inst *ir.Instr) *Value {
	c := b.operand(blk, inst.Args[0])
	x := b.operand(blk, inst.Args[1])
	y := b.operand(blk, inst.Args[2])
	c, x, y = b.resolve(c), b.resolve(x), b.resolve(y)
	if cond, ok := c.BoolConst(); ok {
		if cond {
			return x
		}
		return y
	}
	for _, v := range blk.Values {
		if v.Op == OpSelect && v.Args[0] == c && v.Args[1] == x && v.Args[2] == y {
			return v
		}
	}
	v := b.f.NewValue(blk, OpSelect, inst.Type, c, x, y)
	v.Inst = inst
	return v
}

// call converts a call. Calls are never merged. Variables and locations
// passed as arguments are passed by address.
func (b *builder) call(blk *Block, inst *ir.Instr) *Value {
	args := make([]*Value, len(inst.Args))
	args[0] = b.operand(blk, inst.Args[0])
	for i, a := range inst.Args[1:] {
		args[i+1] = b.address(blk, a)
	}
	for i := range args {
		args[i] = b.resolve(args[i])
	}
	typ := inst.Type
	if typ == nil {
		typ = ir.Void
	}
	v := b.f.NewValue(blk, OpCall, typ, args...)
	v.Inst = inst
	return v
}
