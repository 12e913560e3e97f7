package passes

import (
	"go/constant"

	"github.com/you-not-fish/ssalift/internal/ssa"
)

// Indexing simplifies indexed access:
//
//   - a store through a binding of an earlier store writes to that store's
//     base directly;
//   - a binding of an in-place store is replaced by the store's base, and
//     phis left merging a single value are removed;
//   - (&b[0])[i] becomes b[i].
func Indexing(f *ssa.Func) bool {
	changed := false
	for _, b := range f.Blocks {
		for _, v := range b.Values {
			switch v.Op {
			case ssa.OpIndexStore:
				for {
					base := v.Args[0]
					if base.Op != ssa.OpLocal || base.Args[0].Op != ssa.OpIndexStore {
						break
					}
					v.SetArg(0, base.Args[0].Args[0])
					changed = true
				}
				if v.Args[0].Op == ssa.OpLocal {
					v.Flags |= ssa.FlagNoValue
				}

			case ssa.OpIndex:
				addr := v.Args[0]
				if addr.Op != ssa.OpAddr {
					continue
				}
				inner := addr.Args[0]
				if inner.Op == ssa.OpIndex && isZero(inner.Args[1]) {
					v.SetArg(0, inner.Args[0])
					changed = true
				}
			}
		}
	}

	// A loop-carried array may now be merged with itself.
	var phis []*ssa.Value
	for _, b := range f.Blocks {
		for _, v := range append([]*ssa.Value(nil), b.Values...) {
			if v.Op != ssa.OpLocal || v.Has(ssa.FlagDetached) {
				continue
			}
			st := v.Args[0]
			if st.Op != ssa.OpIndexStore || !st.Has(ssa.FlagNoValue) {
				continue
			}
			for _, u := range f.UsersOf(v) {
				changed = true
				if u.Op == ssa.OpPhi {
					phis = append(phis, u)
				}
			}
			v.ReplaceWith(st.Args[0], 0)
		}
	}
	if ssa.RemoveTrivialPhis(phis) {
		changed = true
	}
	return changed
}

func isZero(v *ssa.Value) bool {
	c := v.Unwrap()
	if !c.IsConst() || c.Const.Value.Kind() != constant.Int {
		return false
	}
	return constant.Sign(c.Const.Value) == 0
}
