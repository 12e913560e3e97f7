package ssa

import (
	"fmt"
	"go/constant"

	"github.com/you-not-fish/ssalift/internal/ir"
)

// ID is a unique identifier for Values and Blocks within a Func.
type ID int32

// Flags are status bits of a Value.
type Flags uint8

const (
	// FlagUsed marks a value that had users when it was last checked.
	FlagUsed Flags = 1 << iota
	// FlagLive marks a value reachable from a control-flow root.
	FlagLive
	// FlagNoValue marks a node that mutates its base in place and yields
	// nothing of its own.
	FlagNoValue
	// FlagOverwritten marks an indexed store superseded by a later store to
	// the same element in the same block.
	FlagOverwritten
	// FlagDetached marks a value removed from the use-def table.
	FlagDetached
	// FlagRemoved marks a value taken out of its block.
	FlagRemoved
)

// Value is a node of the SSA graph.
type Value struct {
	// ID is the index of the value in its Func's arena.
	ID ID

	Op    Op
	Flags Flags

	// Num is the print number, 0 until numbering assigns one.
	Num int32

	// Type is the result type; nil for control flow.
	Type *ir.Type

	// Args are the operand slots. Write them with SetArg/AddArg so the
	// use-def table stays in sync.
	Args []*Value

	// Block is the block whose value list holds this value.
	Block *Block

	// Const is the literal of an OpConst.
	Const *ir.Const

	// Oper is the operator of an OpBinary or OpUnary.
	Oper ir.Op

	// Var is the allocation an OpLocal, OpPhi or OpParam stands for.
	Var *ir.Instr

	// Sym names the symbol of OpFunc/OpGlobal or the field of OpMember.
	Sym string

	// AuxInt holds the parameter index of an OpParam.
	AuxInt int64

	// Inst is the instruction this value was built from, if any.
	Inst *ir.Instr

	// rel is the value's handle into the use-def table, 0 when it has none.
	rel int32
}

// String returns a short string representation of the value (e.g., "v5").
func (v *Value) String() string {
	if v.Num != 0 {
		return fmt.Sprintf("v%d", v.Num)
	}
	return fmt.Sprintf("v%d", v.ID)
}

// Has reports whether all bits of f are set on v.
func (v *Value) Has(f Flags) bool {
	return v.Flags&f == f
}

// Func returns the function owning v's block, or nil for a value in no
// block.
func (v *Value) Func() *Func {
	if v.Block == nil {
		return nil
	}
	return v.Block.Func
}

// IsControlFlow reports whether v terminates its block.
func (v *Value) IsControlFlow() bool { return v.Op.IsControlFlow() }

// ProducesValue reports whether v yields a value other nodes can use.
func (v *Value) ProducesValue() bool {
	return !v.IsControlFlow() && !v.Has(FlagNoValue)
}

// IsConst reports whether v is a literal.
func (v *Value) IsConst() bool { return v.Op == OpConst }

// Unwrap returns the value a local binding wraps, or v itself.
func (v *Value) Unwrap() *Value {
	if v.Op == OpLocal && v.Args[0] != nil {
		return v.Args[0]
	}
	return v
}

// BoolConst returns the literal of a bool constant, looking through a local
// binding.
func (v *Value) BoolConst() (val, ok bool) {
	c := v.Unwrap()
	if c.Op != OpConst || c.Const.Value.Kind() != constant.Bool {
		return false, false
	}
	return constant.BoolVal(c.Const.Value), true
}

// LongString returns a detailed string representation including op and args.
func (v *Value) LongString() string {
	return formatValue(v)
}
