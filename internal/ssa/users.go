package ssa

// The use-def table maps each used value to the values referencing it.
// A value gets its entry lazily on first use; Value.rel holds the entry's
// index plus one. An entry holds one element per referencing operand slot,
// so a user appearing in two slots is listed twice.

// entry returns v's user list, allocating it when alloc is set.
func (f *Func) entry(v *Value, alloc bool) *[]*Value {
	if v.rel == 0 {
		if !alloc {
			return nil
		}
		f.users = append(f.users, nil)
		v.rel = int32(len(f.users))
	}
	return &f.users[v.rel-1]
}

// AddUser registers by as a user of used. A detached value that gains a
// user is reattached to its own operands.
func (f *Func) AddUser(used, by *Value) {
	if used == nil {
		return
	}
	e := f.entry(used, true)
	*e = append(*e, by)
	used.Flags |= FlagUsed
	if used.Has(FlagDetached) {
		f.reattach(used)
	}
}

// reattach restores the edges of a detached value and, transitively, of
// detached operands it reaches.
func (f *Func) reattach(v *Value) {
	stack := []*Value{v}
	for len(stack) > 0 {
		w := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !w.Has(FlagDetached) {
			continue
		}
		w.Flags &^= FlagDetached
		for _, arg := range w.Args {
			if arg == nil {
				continue
			}
			e := f.entry(arg, true)
			*e = append(*e, w)
			arg.Flags |= FlagUsed
			if arg.Has(FlagDetached) {
				stack = append(stack, arg)
			}
		}
	}
}

// ReplaceOrAddUser moves the edge from by to old over to used. It is the
// bookkeeping for rewriting one operand slot of by from old to used.
func (f *Func) ReplaceOrAddUser(used, old, by *Value) {
	if old != nil {
		f.RemoveUser(old, by)
	}
	f.AddUser(used, by)
}

// RemoveUser removes one edge from by to used. It is a no-op when there is
// no such edge.
func (f *Func) RemoveUser(used, by *Value) {
	if used == nil {
		return
	}
	e := f.entry(used, false)
	if e == nil {
		return
	}
	for i, u := range *e {
		if u == by {
			*e = append((*e)[:i], (*e)[i+1:]...)
			break
		}
	}
	if len(*e) == 0 {
		used.Flags &^= FlagUsed
	}
}

// IsUsed reports whether any operand slot references v.
func (f *Func) IsUsed(v *Value) bool {
	e := f.entry(v, false)
	return e != nil && len(*e) > 0
}

// NumUsers returns the number of operand slots referencing v.
func (f *Func) NumUsers(v *Value) int {
	e := f.entry(v, false)
	if e == nil {
		return 0
	}
	return len(*e)
}

// UsersOf returns the distinct users of v in first-use order. The result
// is a copy, so the caller may rewrite the graph while iterating it.
func (f *Func) UsersOf(v *Value) []*Value {
	e := f.entry(v, false)
	if e == nil || len(*e) == 0 {
		return nil
	}
	out := make([]*Value, 0, len(*e))
	for _, u := range *e {
		dup := false
		for _, w := range out {
			if w == u {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, u)
		}
	}
	return out
}

// Delete removes v as a user of every value it references and marks it
// detached. Deleting a detached value does nothing.
func (f *Func) Delete(v *Value) {
	if v.Has(FlagDetached) {
		return
	}
	for _, arg := range v.Args {
		f.RemoveUser(arg, v)
	}
	v.Flags |= FlagDetached
}

// ----------------------------------------------------------------------------
// Operand slots

// SetArg sets operand slot i of v to w.
func (v *Value) SetArg(i int, w *Value) {
	old := v.Args[i]
	v.Args[i] = w
	if v.Has(FlagDetached) {
		return
	}
	v.Func().ReplaceOrAddUser(w, old, v)
}

// AddArg appends w to v's operands.
func (v *Value) AddArg(w *Value) {
	v.Args = append(v.Args, w)
	if v.Has(FlagDetached) {
		return
	}
	v.Func().AddUser(w, v)
}
