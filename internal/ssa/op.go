// Package ssa implements the SSA value graph the lifter builds from the
// instruction IR, together with its use-def table, printer, verifier and
// lowering back to instructions.
package ssa

// Op is the kind of an SSA value.
type Op int

const (
	OpInvalid Op = iota

	// Leaves
	OpUndef  // undefined placeholder
	OpConst  // literal; Const = value
	OpFunc   // function symbol; Sym = name
	OpGlobal // global variable address; Sym = name
	OpParam  // incoming argument; AuxInt = index, Var = parameter slot

	// Variables
	OpLocal // binding of Var to Args[0]
	OpAddr  // address of the location Args[0]

	// Memory and calls
	OpCall       // Args[0] = callee, Args[1:] = arguments
	OpMember     // Args[0] = base; Sym = field
	OpIndex      // Args[0] = base, Args[1] = index
	OpIndexStore // Args[0] = base, Args[1] = index, Args[2] = stored value

	// Computation
	OpBinary // Args[0] Oper Args[1]
	OpUnary  // Oper Args[0]
	OpCast   // Args[0] converted to Type
	OpSelect // Args[0] ? Args[1] : Args[2]
	OpPhi    // Args[i] flows in from Block.Preds[i]; Var = variable

	// Control flow
	OpBranch      // jump to Block.Succs[0]
	OpCondBranch  // Args[0] ? Block.Succs[0] : Block.Succs[1]
	OpReturn      // Args[0] = result, optional
	OpUnreachable // no successors

	opCount
)

// OpInfo describes static properties of an Op.
type OpInfo struct {
	Name        string
	NumArgs     int  // -1 for variadic
	ControlFlow bool // terminates a block
	Pure        bool // no side effects; removable when unused
}

var opInfoTable = [opCount]OpInfo{
	OpInvalid: {Name: "invalid"},

	OpUndef:  {Name: "undef", Pure: true},
	OpConst:  {Name: "const", Pure: true},
	OpFunc:   {Name: "func", Pure: true},
	OpGlobal: {Name: "global", Pure: true},
	OpParam:  {Name: "param", Pure: true},

	OpLocal: {Name: "local", NumArgs: 1, Pure: true},
	OpAddr:  {Name: "addr", NumArgs: 1, Pure: true},

	OpCall:       {Name: "call", NumArgs: -1},
	OpMember:     {Name: "member", NumArgs: 1, Pure: true},
	OpIndex:      {Name: "index", NumArgs: 2, Pure: true},
	OpIndexStore: {Name: "indexstore", NumArgs: 3},

	OpBinary: {Name: "binary", NumArgs: 2, Pure: true},
	OpUnary:  {Name: "unary", NumArgs: 1, Pure: true},
	OpCast:   {Name: "cast", NumArgs: 1, Pure: true},
	OpSelect: {Name: "select", NumArgs: 3, Pure: true},
	OpPhi:    {Name: "phi", NumArgs: -1, Pure: true},

	OpBranch:      {Name: "br", ControlFlow: true},
	OpCondBranch:  {Name: "condbr", NumArgs: 1, ControlFlow: true},
	OpReturn:      {Name: "ret", NumArgs: -1, ControlFlow: true},
	OpUnreachable: {Name: "unreachable", ControlFlow: true},
}

// String returns the human-readable name of the op.
func (o Op) String() string {
	if o >= 0 && o < opCount {
		return opInfoTable[o].Name
	}
	return "unknown"
}

// Info returns the OpInfo for this op.
func (o Op) Info() OpInfo {
	if o >= 0 && o < opCount {
		return opInfoTable[o]
	}
	return OpInfo{Name: "unknown"}
}

// IsControlFlow reports whether values of this op terminate a block.
func (o Op) IsControlFlow() bool {
	return o.Info().ControlFlow
}

// IsPure reports whether this op has no side effects.
func (o Op) IsPure() bool {
	return o.Info().Pure
}

// isLeaf reports whether values of this op have no operands and do not
// depend on their position.
func (o Op) isLeaf() bool {
	switch o {
	case OpUndef, OpConst, OpFunc, OpGlobal:
		return true
	}
	return false
}
