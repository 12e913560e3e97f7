package ssa

import "fmt"

// ReplaceFlags exclude categories of users from ReplaceWith.
type ReplaceFlags uint8

const (
	SkipPhi        ReplaceFlags = 1 << iota // keep phi operands
	SkipIndexRead                           // keep OpIndex operands
	SkipIndexStore                          // keep OpIndexStore operands
	SkipAddr                                // keep OpAddr operands
)

func (fl ReplaceFlags) String() string {
	if fl == 0 {
		return "none"
	}
	s := ""
	for _, x := range []struct {
		bit  ReplaceFlags
		name string
	}{
		{SkipPhi, "phi"},
		{SkipIndexRead, "index"},
		{SkipIndexStore, "indexstore"},
		{SkipAddr, "addr"},
	} {
		if fl&x.bit != 0 {
			if s != "" {
				s += "|"
			}
			s += x.name
		}
	}
	return s
}

// Skips reports whether user is excluded by fl.
func (fl ReplaceFlags) Skips(user *Value) bool {
	switch user.Op {
	case OpPhi:
		return fl&SkipPhi != 0
	case OpIndex:
		return fl&SkipIndexRead != 0
	case OpIndexStore:
		return fl&SkipIndexStore != 0
	case OpAddr:
		return fl&SkipAddr != 0
	}
	return false
}

// ReplaceWith rewrites every operand slot referencing v in users not
// excluded by flags to reference w instead. When no user other than v
// itself is left, v is deleted from the use-def table.
func (v *Value) ReplaceWith(w *Value, flags ReplaceFlags) {
	f := v.Func()
	onlySelf := true
	for _, user := range f.UsersOf(v) {
		switch {
		case user == v:
		case flags.Skips(user):
			onlySelf = false
		default:
			user.replaceArg(v, w)
		}
	}
	if onlySelf {
		f.Delete(v)
	}
}

// replaceArg rewrites every slot of v holding old to hold w.
func (v *Value) replaceArg(old, w *Value) {
	switch v.Op {
	case OpLocal, OpAddr, OpMember, OpUnary, OpCast, OpCondBranch,
		OpIndex, OpIndexStore, OpBinary, OpSelect,
		OpPhi, OpCall, OpReturn:
		for i, a := range v.Args {
			if a == old {
				v.SetArg(i, w)
			}
		}
	case OpUndef, OpConst, OpFunc, OpGlobal, OpParam, OpBranch, OpUnreachable:
		panic(invariantf("%s has no operands but is listed as a user of %s", v.LongString(), old))
	default:
		panic(fmt.Sprintf("ssa.replaceArg: unknown op %d", v.Op))
	}
}
