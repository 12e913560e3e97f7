package passes

import "github.com/you-not-fish/ssalift/internal/ssa"

// Number assigns print numbers in block order, then value order. Control
// flow and in-place stores get none.
func Number(f *ssa.Func) bool {
	var n int32
	for _, b := range f.Blocks {
		for _, v := range b.Values {
			if !v.ProducesValue() {
				v.Num = 0
				continue
			}
			n++
			v.Num = n
		}
	}
	return false
}
