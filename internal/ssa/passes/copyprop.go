package passes

import (
	"github.com/you-not-fish/ssalift/internal/ir"
	"github.com/you-not-fish/ssalift/internal/ssa"
)

// CopyProp replaces local bindings by the values they bind. Phi operands
// and address-of operands keep the binding, and so do indexed reads and
// writes of a binding to an undefined value. Bindings of arrays and of
// indexed stores are kept whole.
func CopyProp(f *ssa.Func) bool {
	changed := false
	for _, b := range f.Blocks {
		for _, v := range append([]*ssa.Value(nil), b.Values...) {
			if v.Op != ssa.OpLocal || v.Has(ssa.FlagDetached) {
				continue
			}
			w := v.Args[0]
			if !w.ProducesValue() || v.Type.Kind == ir.TypeArray {
				// Arrays stay in memory; Indexing rebinds the users of a
				// store's binding to the store's base.
				continue
			}
			flags := ssa.SkipPhi | ssa.SkipAddr
			if w.Op == ssa.OpUndef {
				flags |= ssa.SkipIndexRead | ssa.SkipIndexStore
			}
			for _, u := range f.UsersOf(v) {
				if u != v && !flags.Skips(u) {
					changed = true
					break
				}
			}
			v.ReplaceWith(w, flags)
		}
	}
	return changed
}
