package ssa

import mapset "github.com/deckarep/golang-set/v2"

// Visit calls fn once for every value reachable from v through operand
// edges, v excluded, in depth-first preorder. visited is shared across
// calls so several roots can be walked without revisiting; pass nil for a
// fresh walk.
func Visit(v *Value, visited mapset.Set[*Value], fn func(*Value)) {
	if visited == nil {
		visited = mapset.NewThreadUnsafeSet[*Value]()
	}
	stack := make([]*Value, 0, len(v.Args))
	push := func(w *Value) {
		for i := len(w.Args) - 1; i >= 0; i-- {
			if a := w.Args[i]; a != nil {
				stack = append(stack, a)
			}
		}
	}
	push(v)
	for len(stack) > 0 {
		w := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !visited.Add(w) {
			continue
		}
		fn(w)
		push(w)
	}
}

// VisitOperands calls fn for each immediate operand of v.
func VisitOperands(v *Value, fn func(*Value)) {
	for _, a := range v.Args {
		if a != nil {
			fn(a)
		}
	}
}
