package ir

import (
	"fmt"
	"go/constant"
	"strconv"
)

// Kind identifies an instruction kind.
type Kind int

const (
	KindInvalid Kind = iota
	KindLabel
	KindBr
	KindCondBr
	KindCall
	KindAlloc
	KindBinOp
	KindUnOp
	KindLoad
	KindStore
	KindRet
	KindMember
	KindIndex
	KindCast
	KindSelect
	KindUnreachable
	kindCount
)

var kindNames = [kindCount]string{
	KindInvalid:     "invalid",
	KindLabel:       "label",
	KindBr:          "br",
	KindCondBr:      "condbr",
	KindCall:        "call",
	KindAlloc:       "alloc",
	KindBinOp:       "binop",
	KindUnOp:        "unop",
	KindLoad:        "load",
	KindStore:       "store",
	KindRet:         "ret",
	KindMember:      "member",
	KindIndex:       "index",
	KindCast:        "cast",
	KindSelect:      "select",
	KindUnreachable: "unreachable",
}

func (k Kind) String() string {
	if k >= 0 && k < kindCount {
		return kindNames[k]
	}
	return "unknown"
}

// IsTerminator reports whether instructions of kind k end a basic block.
func (k Kind) IsTerminator() bool {
	switch k {
	case KindBr, KindCondBr, KindRet, KindUnreachable:
		return true
	}
	return false
}

// Op is a binary or unary operator.
type Op int

const (
	OpInvalid Op = iota

	// Binary
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpRem
	OpAnd
	OpOr
	OpXor
	OpShl
	OpShr
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe

	// Unary
	OpNeg
	OpNot

	opCount
)

var opNames = [opCount]string{
	OpInvalid: "invalid",
	OpAdd:     "add",
	OpSub:     "sub",
	OpMul:     "mul",
	OpDiv:     "div",
	OpRem:     "rem",
	OpAnd:     "and",
	OpOr:      "or",
	OpXor:     "xor",
	OpShl:     "shl",
	OpShr:     "shr",
	OpEq:      "eq",
	OpNe:      "ne",
	OpLt:      "lt",
	OpLe:      "le",
	OpGt:      "gt",
	OpGe:      "ge",
	OpNeg:     "neg",
	OpNot:     "not",
}

func (o Op) String() string {
	if o >= 0 && o < opCount {
		return opNames[o]
	}
	return "unknown"
}

// IsBinary reports whether o takes two operands.
func (o Op) IsBinary() bool { return o >= OpAdd && o <= OpGe }

// IsUnary reports whether o takes one operand.
func (o Op) IsUnary() bool { return o == OpNeg || o == OpNot }

// IsComparison reports whether o yields a bool.
func (o Op) IsComparison() bool { return o >= OpEq && o <= OpGe }

// LookupOp returns the operator spelled name, or OpInvalid.
func LookupOp(name string) Op {
	for o := OpAdd; o < opCount; o++ {
		if opNames[o] == name {
			return o
		}
	}
	return OpInvalid
}

// Operand is anything an instruction can reference: another instruction's
// result, a constant, a global, a function or undef.
type Operand interface {
	fmt.Stringer
	OperandType() *Type
	isOperand()
}

// Const is a typed literal.
type Const struct {
	Value constant.Value
	Type  *Type
}

// NewInt returns an int constant.
func NewInt(v int64) *Const {
	return &Const{Value: constant.MakeInt64(v), Type: Int}
}

// NewBool returns a bool constant.
func NewBool(v bool) *Const {
	return &Const{Value: constant.MakeBool(v), Type: Bool}
}

// NewFloat returns a float constant.
func NewFloat(v float64) *Const {
	return &Const{Value: constant.MakeFloat64(v), Type: Float}
}

func (c *Const) String() string {
	switch c.Value.Kind() {
	case constant.Bool:
		return strconv.FormatBool(constant.BoolVal(c.Value))
	case constant.Float:
		f, _ := constant.Float64Val(c.Value)
		s := strconv.FormatFloat(f, 'g', -1, 64)
		if _, err := strconv.ParseInt(s, 10, 64); err == nil {
			s += ".0"
		}
		return s
	}
	return c.Value.ExactString()
}

func (c *Const) OperandType() *Type { return c.Type }
func (*Const) isOperand()            {}

// Global is a named module-level variable. As an operand it denotes the
// variable's address.
type Global struct {
	Name string
	Type *Type // type of the variable, not of its address
}

func (g *Global) String() string { return "@" + g.Name }
func (g *Global) OperandType() *Type { return NewPointer(g.Type) }
func (*Global) isOperand()           {}

// FuncRef names a function in callee position.
type FuncRef struct {
	Name string
}

func (f *FuncRef) String() string { return "@" + f.Name }
func (*FuncRef) OperandType() *Type { return Void }
func (*FuncRef) isOperand()         {}

// Undef is an unspecified value of a type.
type Undef struct {
	Type *Type
}

func (*Undef) String() string { return "undef" }
func (u *Undef) OperandType() *Type { return u.Type }
func (*Undef) isOperand()             {}

// Instr is one IR instruction. Operand layout per kind:
//
//	br           Targets[0]
//	condbr       Args[0] = cond; Targets[0] = then, Targets[1] = else
//	call         Args[0] = callee, Args[1:] = arguments
//	alloc        Type = *T
//	binop        Args[0], Args[1]; Op
//	unop         Args[0]; Op
//	load         Args[0] = address
//	store        Args[0] = destination, Args[1] = source
//	ret          Args[0] = result, optional
//	member       Args[0] = base address; Field; Type = *field type
//	index        Args[0] = base address, Args[1] = index; Type = *elem
//	cast         Args[0]; Type = target type
//	select       Args[0] = cond, Args[1], Args[2]
type Instr struct {
	Kind    Kind
	Name    string // result name, or label name
	Type    *Type  // result type
	Op      Op
	Args    []Operand
	Targets []*Instr // label instructions
	Field   string
	Pos     Pos
}

func (i *Instr) String() string {
	if i.Kind == KindLabel {
		return i.Name
	}
	return "%" + i.Name
}

func (i *Instr) OperandType() *Type { return i.Type }
func (*Instr) isOperand()           {}

// HasResult reports whether i defines a value other instructions can use.
func (i *Instr) HasResult() bool {
	switch i.Kind {
	case KindAlloc, KindBinOp, KindUnOp, KindLoad, KindMember, KindIndex, KindCast, KindSelect:
		return true
	case KindCall:
		return i.Type != nil && i.Type.Kind != TypeVoid
	}
	return false
}

// IsAlloc reports whether op is the result of an alloc instruction.
func IsAlloc(op Operand) bool {
	i, ok := op.(*Instr)
	return ok && i.Kind == KindAlloc
}
