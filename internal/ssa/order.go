package ssa

import mapset "github.com/deckarep/golang-set/v2"

// ReversePostOrder returns the blocks of f in reverse post-order,
// starting from f.Entry. Unreachable blocks are excluded.
func ReversePostOrder(f *Func) []*Block {
	if f.Entry == nil {
		return nil
	}
	visited := mapset.NewThreadUnsafeSet[*Block]()
	var order []*Block

	// Iterative DFS; each frame remembers the next successor to visit.
	type frame struct {
		b    *Block
		next int
	}
	stack := []frame{{b: f.Entry}}
	visited.Add(f.Entry)
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next < len(top.b.Succs) {
			s := top.b.Succs[top.next]
			top.next++
			if visited.Add(s) {
				stack = append(stack, frame{b: s})
			}
			continue
		}
		order = append(order, top.b)
		stack = stack[:len(stack)-1]
	}

	// Reverse the post-order to get RPO.
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order
}

// Reachable returns the set of blocks reachable from f.Entry.
func Reachable(f *Func) mapset.Set[*Block] {
	return mapset.NewThreadUnsafeSet(ReversePostOrder(f)...)
}

// RemoveUnreachable drops the blocks not reachable from the entry,
// disconnecting their edges into live blocks, and returns the removed
// blocks in their former order.
func RemoveUnreachable(f *Func) []*Block {
	live := Reachable(f)
	var kept, removed []*Block
	for _, b := range f.Blocks {
		if live.Contains(b) {
			kept = append(kept, b)
		} else {
			removed = append(removed, b)
		}
	}
	if len(removed) == 0 {
		return nil
	}
	for _, b := range removed {
		for len(b.Succs) > 0 {
			b.RemoveEdge(b.Succs[0])
		}
	}
	f.Blocks = kept

	// Deduplicated leaves may still be referenced from live blocks; they
	// move to the entry. Everything else goes.
	for _, b := range removed {
		for _, v := range b.Values {
			if !v.Op.isLeaf() {
				f.Delete(v)
				v.Flags |= FlagRemoved
			}
		}
	}
	for _, b := range removed {
		for _, v := range b.Values {
			if !v.Op.isLeaf() {
				continue
			}
			if f.IsUsed(v) {
				v.Block = f.Entry
				n := len(f.Entry.Phis())
				f.Entry.Values = append(f.Entry.Values, nil)
				copy(f.Entry.Values[n+1:], f.Entry.Values[n:])
				f.Entry.Values[n] = v
				continue
			}
			f.Delete(v)
			v.Flags |= FlagRemoved
		}
		b.Values = nil
	}
	return removed
}
