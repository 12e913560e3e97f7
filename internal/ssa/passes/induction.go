package passes

import (
	"github.com/you-not-fish/ssalift/internal/ir"
	"github.com/you-not-fish/ssalift/internal/ssa"
)

// An inductionVar is a two-operand phi stepping from init by a constant
// increment on its back edge:
//
//	x = phi(init, local(add(x, inc)))
type inductionVar struct {
	phi, init, inc *ssa.Value
}

// Induction unifies induction variables of the same loop header with the
// same initial value and the same increment. Candidates are compared only
// within one header block; matching counters of different loops are left
// apart.
func Induction(f *ssa.Func) bool {
	changed := false
	for _, b := range f.Blocks {
		var seen []inductionVar
		phis := append([]*ssa.Value(nil), b.Phis()...)
	next:
		for _, phi := range phis {
			iv, ok := matchInduction(phi)
			if !ok {
				continue
			}
			for _, s := range seen {
				if s.init == iv.init && s.inc == iv.inc {
					phi.ReplaceWith(s.phi, 0)
					if !f.IsUsed(phi) {
						b.Remove(phi)
					}
					changed = true
					continue next
				}
			}
			seen = append(seen, iv)
		}
	}
	return changed
}

func matchInduction(phi *ssa.Value) (inductionVar, bool) {
	if len(phi.Args) != 2 {
		return inductionVar{}, false
	}
	step := phi.Args[1]
	if step.Op != ssa.OpLocal {
		return inductionVar{}, false
	}
	add := step.Args[0]
	if add.Op != ssa.OpBinary || add.Oper != ir.OpAdd || add.Args[0] != phi {
		return inductionVar{}, false
	}
	inc := add.Args[1].Unwrap()
	if !inc.IsConst() {
		return inductionVar{}, false
	}
	return inductionVar{phi: phi, init: phi.Args[0].Unwrap(), inc: inc}, true
}
