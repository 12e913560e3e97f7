package ssa

import (
	"strconv"

	"github.com/you-not-fish/ssalift/internal/ir"
)

// Lower converts f back to an instruction list. Variables live in their
// allocations again: phis read the allocation where they stand, bindings
// store into it, and indexed reads and writes go through an element
// address. The result shares its parameter and result slots with
// f.Source.
func Lower(f *Func) (*ir.Func, error) {
	var out *ir.Func
	err := Catch(f.Name, func() {
		if f.Source == nil {
			panic(invariantf("function has no source"))
		}
		l := newLowerer(f)
		l.run()
		out = l.out
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

type lowerer struct {
	f   *Func
	out *ir.Func
	b   *ir.Builder

	labels map[*Block]*ir.Instr
	slots  map[*ir.Instr]*ir.Instr // variable -> its allocation in out
	params map[*Value]*ir.Instr
	// results holds the instruction defining each value's result. It is
	// created on first reference and emitted at the value's position.
	results map[*Value]*ir.Instr
}

func newLowerer(f *Func) *lowerer {
	src := f.Source
	out := &ir.Func{Name: src.Name, Params: src.Params, Result: src.Result, Pos: src.Pos}
	return &lowerer{
		f:       f,
		out:     out,
		b:       ir.NewBuilder(out),
		labels:  make(map[*Block]*ir.Instr),
		slots:   make(map[*ir.Instr]*ir.Instr),
		params:  make(map[*Value]*ir.Instr),
		results: make(map[*Value]*ir.Instr),
	}
}

func (l *lowerer) run() {
	used := make(map[string]bool)
	for _, b := range l.f.Blocks {
		name := b.Name()
		for n := 1; used[name]; n++ {
			name = b.Name() + "." + strconv.Itoa(n)
		}
		used[name] = true
		l.labels[b] = ir.NewLabel(name)
	}
	for _, p := range l.out.Params {
		l.slots[p] = p
	}
	if r := l.out.Result; r != nil {
		l.slots[r] = r
	}

	for _, b := range l.f.Blocks {
		l.b.Place(l.labels[b])
		if b == l.f.Entry {
			l.prologue()
		}
		for _, v := range b.Values {
			l.value(v)
		}
	}
}

// prologue allocates every variable once and reads each parameter once.
func (l *lowerer) prologue() {
	for _, b := range l.f.Blocks {
		for _, v := range b.Values {
			if v.Op != OpLocal && v.Op != OpPhi {
				continue
			}
			if _, ok := l.slots[v.Var]; ok {
				continue
			}
			l.slots[v.Var] = l.b.Alloc(v.Var.Name, v.Var.Type.Deref())
		}
	}
	for _, b := range l.f.Blocks {
		for _, v := range b.Values {
			if v.Op != OpParam {
				continue
			}
			l.params[v] = l.b.Load("p"+strconv.FormatInt(v.AuxInt, 10), l.slot(v.Var))
		}
	}
}

func (l *lowerer) slot(variable *ir.Instr) *ir.Instr {
	s, ok := l.slots[variable]
	if !ok {
		panic(invariantf("variable %s has no allocation", variable))
	}
	return s
}

// result returns the instruction defining v's result.
func (l *lowerer) result(v *Value) *ir.Instr {
	if inst, ok := l.results[v]; ok {
		return inst
	}
	inst := &ir.Instr{Name: v.String(), Type: v.Type}
	l.results[v] = inst
	return inst
}

// emit fills in the result instruction of v and appends it.
func (l *lowerer) emit(v *Value, kind ir.Kind, args ...ir.Operand) *ir.Instr {
	inst := l.result(v)
	inst.Kind = kind
	inst.Args = args
	if v.Inst != nil {
		inst.Pos = v.Inst.Pos
	}
	return l.b.Emit(inst)
}

// value emits the instructions reproducing v at its position.
func (l *lowerer) value(v *Value) {
	switch v.Op {
	case OpUndef, OpConst, OpFunc, OpGlobal, OpParam, OpAddr:
		// referenced inline

	case OpLocal:
		w := v.Args[0]
		switch {
		case w.Op == OpUndef, w.Op == OpIndexStore:
			return
		case w.Op == OpParam && w.Var == v.Var:
			// the parameter is already in its slot
			return
		}
		l.b.Store(l.slot(v.Var), l.operand(w))

	case OpPhi:
		l.emit(v, ir.KindLoad, l.slot(v.Var))

	case OpBinary:
		inst := l.emit(v, ir.KindBinOp, l.operand(v.Args[0]), l.operand(v.Args[1]))
		inst.Op = v.Oper

	case OpUnary:
		inst := l.emit(v, ir.KindUnOp, l.operand(v.Args[0]))
		inst.Op = v.Oper

	case OpCast:
		l.emit(v, ir.KindCast, l.operand(v.Args[0]))

	case OpSelect:
		l.emit(v, ir.KindSelect, l.operand(v.Args[0]), l.operand(v.Args[1]), l.operand(v.Args[2]))

	case OpCall:
		args := make([]ir.Operand, len(v.Args))
		for i, a := range v.Args {
			args[i] = l.operand(a)
		}
		inst := l.emit(v, ir.KindCall, args...)
		if v.Type.Kind == ir.TypeVoid {
			inst.Name = ""
		}

	case OpIndex:
		l.emit(v, ir.KindLoad, l.element(v))

	case OpMember:
		l.emit(v, ir.KindLoad, l.addressOf(v))

	case OpIndexStore:
		l.b.Store(l.element(v), l.operand(v.Args[2]))

	case OpBranch:
		l.b.Br(l.labels[v.Block.Succs[0]])

	case OpCondBranch:
		l.b.CondBr(l.operand(v.Args[0]), l.labels[v.Block.Succs[0]], l.labels[v.Block.Succs[1]])

	case OpReturn:
		if len(v.Args) == 0 {
			l.b.Ret(nil)
			return
		}
		l.b.Ret(l.operand(v.Args[0]))

	case OpUnreachable:
		l.b.Unreachable()

	default:
		panic(invariantf("cannot lower %s", v.LongString()))
	}
}

// operand returns the instruction operand reading v.
func (l *lowerer) operand(v *Value) ir.Operand {
	switch v.Op {
	case OpConst:
		return v.Const
	case OpUndef:
		return &ir.Undef{Type: v.Type}
	case OpGlobal:
		return &ir.Global{Name: v.Sym, Type: v.Type.Deref()}
	case OpFunc:
		return &ir.FuncRef{Name: v.Sym}
	case OpParam:
		p, ok := l.params[v]
		if !ok {
			panic(invariantf("parameter %s read outside the function body", v))
		}
		return p
	case OpLocal:
		if v.Args[0].Op == OpIndexStore || v.Type.Kind == ir.TypeArray {
			return l.b.Load(l.b.Temp("t"), l.slot(v.Var))
		}
		return l.operand(v.Args[0])
	case OpAddr:
		return l.addressOf(v.Args[0])
	case OpIndexStore:
		panic(invariantf("%s yields no value", v.LongString()))
	}
	return l.result(v)
}

// addressOf returns the address of the location v denotes. Element and
// field addresses are computed where they are needed.
func (l *lowerer) addressOf(v *Value) ir.Operand {
	switch v.Op {
	case OpLocal, OpPhi, OpParam:
		return l.slot(v.Var)
	case OpAddr, OpIndexStore:
		// An indexed store stands for its array after the write.
		return l.addressOf(v.Args[0])
	case OpIndex:
		return l.element(v)
	case OpMember:
		return l.b.Member(l.b.Temp("a"), l.addressOf(v.Args[0]), v.Sym, v.Type)
	}
	return l.operand(v)
}

// element computes the address of the element an index or indexed store
// accesses.
func (l *lowerer) element(v *Value) ir.Operand {
	base := l.addressOf(v.Args[0])
	return l.b.Index(l.b.Temp("a"), base, l.operand(v.Args[1]))
}
