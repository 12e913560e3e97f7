package ir

import "strconv"

// Builder appends instructions to a function body. Results without an
// explicit name get sequential temporaries.
type Builder struct {
	Func *Func
	Pos  Pos

	temps int
}

// NewBuilder returns a builder appending to f.
func NewBuilder(f *Func) *Builder {
	return &Builder{Func: f}
}

// Temp returns a fresh temporary name with the given prefix.
func (b *Builder) Temp(prefix string) string {
	b.temps++
	return prefix + strconv.Itoa(b.temps)
}

// Emit appends inst and returns it.
func (b *Builder) Emit(inst *Instr) *Instr {
	if !inst.Pos.IsValid() {
		inst.Pos = b.Pos
	}
	b.Func.Instrs = append(b.Func.Instrs, inst)
	return inst
}

func (b *Builder) name(name string) string {
	if name == "" {
		return b.Temp("t")
	}
	return name
}

// Param adds a parameter slot of type typ.
func (b *Builder) Param(name string, typ *Type) *Instr {
	p := &Instr{Kind: KindAlloc, Name: name, Type: NewPointer(typ), Pos: b.Pos}
	b.Func.Params = append(b.Func.Params, p)
	return p
}

// ResultSlot sets the result slot of type typ.
func (b *Builder) ResultSlot(name string, typ *Type) *Instr {
	r := &Instr{Kind: KindAlloc, Name: name, Type: NewPointer(typ), Pos: b.Pos}
	b.Func.Result = r
	return r
}

// NewLabel creates a label without placing it, for forward branches.
func NewLabel(name string) *Instr {
	return &Instr{Kind: KindLabel, Name: name}
}

// Place appends a label created by NewLabel.
func (b *Builder) Place(label *Instr) *Instr {
	return b.Emit(label)
}

func (b *Builder) Label(name string) *Instr {
	return b.Emit(NewLabel(name))
}

func (b *Builder) Alloc(name string, typ *Type) *Instr {
	return b.Emit(&Instr{Kind: KindAlloc, Name: b.name(name), Type: NewPointer(typ)})
}

func (b *Builder) Load(name string, addr Operand) *Instr {
	return b.Emit(&Instr{Kind: KindLoad, Name: b.name(name), Type: addr.OperandType().Deref(), Args: []Operand{addr}})
}

func (b *Builder) Store(dst, src Operand) *Instr {
	return b.Emit(&Instr{Kind: KindStore, Args: []Operand{dst, src}})
}

// Index computes the address of element idx of the array at base.
func (b *Builder) Index(name string, base, idx Operand) *Instr {
	elem := base.OperandType().Deref()
	if elem != nil && elem.Kind == TypeArray {
		elem = elem.Elem
	}
	return b.Emit(&Instr{Kind: KindIndex, Name: b.name(name), Type: NewPointer(elem), Args: []Operand{base, idx}})
}

// Member computes the address of field of the aggregate at base.
func (b *Builder) Member(name string, base Operand, field string, typ *Type) *Instr {
	return b.Emit(&Instr{Kind: KindMember, Name: b.name(name), Field: field, Type: NewPointer(typ), Args: []Operand{base}})
}

// Call emits a call. A void result type produces an unnamed instruction.
func (b *Builder) Call(name string, typ *Type, callee Operand, args ...Operand) *Instr {
	inst := &Instr{Kind: KindCall, Type: typ, Args: append([]Operand{callee}, args...)}
	if typ != nil && typ.Kind != TypeVoid {
		inst.Name = b.name(name)
	}
	return b.Emit(inst)
}

func (b *Builder) Br(target *Instr) *Instr {
	return b.Emit(&Instr{Kind: KindBr, Targets: []*Instr{target}})
}

func (b *Builder) CondBr(cond Operand, then, els *Instr) *Instr {
	return b.Emit(&Instr{Kind: KindCondBr, Args: []Operand{cond}, Targets: []*Instr{then, els}})
}

// Ret emits a return; v may be nil.
func (b *Builder) Ret(v Operand) *Instr {
	inst := &Instr{Kind: KindRet}
	if v != nil {
		inst.Args = []Operand{v}
	}
	return b.Emit(inst)
}

func (b *Builder) Unreachable() *Instr {
	return b.Emit(&Instr{Kind: KindUnreachable})
}
