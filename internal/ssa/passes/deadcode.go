package passes

import (
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/you-not-fish/ssalift/internal/ssa"
)

// DeadCode removes every value that control flow, calls and surviving
// in-place stores do not reach.
func DeadCode(f *ssa.Func) bool {
	changed := collapseLocalPhis(f)

	for _, b := range f.Blocks {
		for _, v := range b.Values {
			v.Flags &^= ssa.FlagLive | ssa.FlagOverwritten
		}
	}
	markOverwritten(f)

	live := mapset.NewThreadUnsafeSet[*ssa.Value]()
	mark := func(v *ssa.Value) {
		if live.Add(v) {
			ssa.Visit(v, live, func(*ssa.Value) {})
		}
	}
	for _, b := range f.Blocks {
		for _, v := range b.Values {
			if !v.Op.IsPure() && v.Op != ssa.OpIndexStore {
				mark(v)
			}
		}
	}
	// An in-place store is live when what it writes to is. Marking one
	// may make the base of another live.
	for again := true; again; {
		again = false
		for _, b := range f.Blocks {
			for _, v := range b.Values {
				if v.Op != ssa.OpIndexStore || !v.Has(ssa.FlagNoValue) || v.Has(ssa.FlagOverwritten) {
					continue
				}
				if !live.Contains(v) && live.Contains(v.Args[0]) {
					live.Add(v)
					ssa.VisitOperands(v, mark)
					again = true
				}
			}
		}
	}

	for _, b := range f.Blocks {
		for _, v := range append([]*ssa.Value(nil), b.Values...) {
			if live.Contains(v) {
				v.Flags |= ssa.FlagLive
				continue
			}
			f.Delete(v)
			changed = true
		}
	}
	for _, b := range f.Blocks {
		for _, v := range append([]*ssa.Value(nil), b.Values...) {
			if !v.Has(ssa.FlagLive) {
				b.Remove(v)
			}
		}
	}
	return changed
}

// collapseLocalPhis replaces a phi whose operands are all defined in the
// phi's own block by its last operand.
func collapseLocalPhis(f *ssa.Func) bool {
	changed := false
	for _, b := range f.Blocks {
		for _, phi := range append([]*ssa.Value(nil), b.Phis()...) {
			n := len(phi.Args)
			if n == 0 || phi.Args[n-1] == phi {
				continue
			}
			local := true
			for _, a := range phi.Args {
				if a.Block != b {
					local = false
					break
				}
			}
			if !local {
				continue
			}
			phi.ReplaceWith(phi.Args[n-1], 0)
			if !f.IsUsed(phi) {
				b.Remove(phi)
			}
			changed = true
		}
	}
	return changed
}

// markOverwritten flags each in-place store followed, in the same block,
// by another store to the same element with no read of the array or call
// in between.
func markOverwritten(f *ssa.Func) {
	type element struct{ array, index *ssa.Value }
	for _, b := range f.Blocks {
		pending := make(map[element]*ssa.Value)
		for _, v := range b.Values {
			switch v.Op {
			case ssa.OpIndexStore:
				if !v.Has(ssa.FlagNoValue) {
					continue
				}
				k := element{arrayOf(v.Args[0]), v.Args[1]}
				if prev := pending[k]; prev != nil {
					prev.Flags |= ssa.FlagOverwritten
				}
				pending[k] = v
			case ssa.OpIndex:
				a := arrayOf(v.Args[0])
				for k := range pending {
					if k.array == a {
						delete(pending, k)
					}
				}
			case ssa.OpCall, ssa.OpAddr, ssa.OpPhi:
				clear(pending)
			}
		}
	}
}

// arrayOf follows bindings of in-place stores back to the array they
// write to.
func arrayOf(v *ssa.Value) *ssa.Value {
	for {
		switch {
		case v.Op == ssa.OpLocal && v.Args[0].Op == ssa.OpIndexStore:
			v = v.Args[0].Args[0]
		case v.Op == ssa.OpIndexStore:
			v = v.Args[0]
		default:
			return v
		}
	}
}
