package passes

import "github.com/you-not-fish/ssalift/internal/ssa"

// SimplifyCFG folds conditional branches whose outcome is known and fuses
// blocks into their sole predecessor. Blocks no longer reachable from the
// entry are dropped after each round.
func SimplifyCFG(f *ssa.Func) bool {
	changed := false
	for {
		again := false
		for _, b := range f.Blocks {
			if foldBranch(b) {
				again = true
			}
		}
		for i := 0; i < len(f.Blocks); i++ {
			b := f.Blocks[i]
			for canFuse(f, b) {
				b.MergeSucc()
				again = true
			}
		}
		if removed := ssa.RemoveUnreachable(f); len(removed) > 0 {
			again = true
		}
		if !again {
			break
		}
		changed = true
	}
	return changed
}

// foldBranch turns a conditional branch with identical targets or a
// literal condition into a jump.
func foldBranch(b *ssa.Block) bool {
	c := b.Control()
	if c == nil || c.Op != ssa.OpCondBranch {
		return false
	}
	if b.Succs[0] == b.Succs[1] {
		b.RemoveEdge(b.Succs[1])
		b.SetControl(ssa.OpBranch)
		return true
	}
	cond, ok := c.Args[0].BoolConst()
	if !ok {
		return false
	}
	dead := b.Succs[1]
	if !cond {
		dead = b.Succs[0]
	}
	b.RemoveEdge(dead)
	b.SetControl(ssa.OpBranch)
	return true
}

// canFuse reports whether b jumps to a block that has b as its only
// predecessor.
func canFuse(f *ssa.Func, b *ssa.Block) bool {
	c := b.Control()
	if c == nil || c.Op != ssa.OpBranch || len(b.Succs) != 1 {
		return false
	}
	s := b.Succs[0]
	return s != b && s != f.Entry && len(s.Preds) == 1
}
