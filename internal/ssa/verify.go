package ssa

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Verify checks the structural integrity of f: block and edge
// consistency, operand arity, phi placement and arity, and that the
// use-def table lists exactly the operand slots of the values in f.
// All violations are reported in one error.
func Verify(f *Func) error {
	vf := &verifier{
		f:      f,
		blocks: make(map[*Block]bool, len(f.Blocks)),
		values: make(map[*Value]bool),
	}
	if f.Entry == nil || len(f.Blocks) == 0 {
		vf.errorf("no entry block")
		return vf.err()
	}
	for _, b := range f.Blocks {
		vf.blocks[b] = true
		for _, v := range b.Values {
			vf.values[v] = true
		}
	}

	if f.Blocks[0] != f.Entry {
		vf.errorf("entry %s is not the first block", f.Entry)
	}
	if n := len(f.Entry.Preds); n != 0 {
		vf.errorf("entry %s has %d predecessors", f.Entry, n)
	}
	for _, b := range f.Blocks {
		vf.block(b)
		vf.edges(b)
	}
	vf.table()
	return vf.err()
}

type verifier struct {
	f      *Func
	blocks map[*Block]bool
	values map[*Value]bool
	msgs   []string
}

func (vf *verifier) errorf(format string, args ...interface{}) {
	vf.msgs = append(vf.msgs, fmt.Sprintf(format, args...))
}

func (vf *verifier) err() error {
	if len(vf.msgs) == 0 {
		return nil
	}
	sort.Strings(vf.msgs)
	return errors.Errorf("func %s: SSA verification failed:\n  %s",
		vf.f.Name, strings.Join(vf.msgs, "\n  "))
}

// block checks the values of b in order.
func (vf *verifier) block(b *Block) {
	if b.Func != vf.f {
		vf.errorf("%s: belongs to another function", b)
	}
	leading := true
	last := len(b.Values) - 1
	for i, v := range b.Values {
		if v.Block != b {
			vf.errorf("%s: %s claims block %s", b, v, v.Block)
		}
		// A detached value may linger until dead code removal, unused.
		if v.Has(FlagRemoved) {
			vf.errorf("%s: %s is marked removed", b, v)
		}
		if v.Has(FlagDetached) && vf.f.IsUsed(v) {
			vf.errorf("%s: detached %s has users", b, v)
		}
		if v.Type == nil && !v.IsControlFlow() {
			vf.errorf("%s: %s (%s) has no type", b, v, v.Op)
		}
		vf.operands(b, v)

		if v.Op == OpPhi {
			if !leading {
				vf.errorf("%s: phi %s follows a non-phi value", b, v)
			}
			if len(v.Args) != len(b.Preds) {
				vf.errorf("%s: %s: phi has %d args but block has %d preds",
					b, v, len(v.Args), len(b.Preds))
			}
		} else {
			leading = false
		}
		if v.IsControlFlow() && i != last {
			vf.errorf("%s: %s (%s) is not the last value", b, v, v.Op)
		}
	}

	c := b.Control()
	if c == nil {
		vf.errorf("%s: block has no control value", b)
		return
	}
	want := 0
	switch c.Op {
	case OpBranch:
		want = 1
	case OpCondBranch:
		want = 2
	}
	if len(b.Succs) != want {
		vf.errorf("%s: %s with %d successors, want %d", b, c.Op, len(b.Succs), want)
	}
}

func (vf *verifier) operands(b *Block, v *Value) {
	if n := v.Op.Info().NumArgs; n >= 0 && len(v.Args) != n {
		vf.errorf("%s: %s (%s) has %d args, want %d", b, v, v.Op, len(v.Args), n)
	}
	if v.Op == OpReturn && len(v.Args) > 1 {
		vf.errorf("%s: %s returns %d values", b, v, len(v.Args))
	}
	for i, a := range v.Args {
		switch {
		case a == nil:
			vf.errorf("%s: %s arg %d is nil", b, v, i)
		case !v.Has(FlagDetached) && !vf.values[a]:
			vf.errorf("%s: %s arg %d (%s) is in no block", b, v, i, a)
		}
	}
}

// edges checks that b's successor and predecessor lists mirror each
// other, counting duplicate edges.
func (vf *verifier) edges(b *Block) {
	for _, s := range b.Succs {
		if !vf.blocks[s] {
			vf.errorf("%s: successor %s is not in the function", b, s)
			continue
		}
		if countBlock(s.Preds, b) != countBlock(b.Succs, s) {
			vf.errorf("%s: edges to %s do not match its predecessors", b, s)
		}
	}
	for _, p := range b.Preds {
		if !vf.blocks[p] {
			vf.errorf("%s: predecessor %s is not in the function", b, p)
			continue
		}
		if countBlock(p.Succs, b) == 0 {
			vf.errorf("%s: predecessor %s has no edge to it", b, p)
		}
	}
}

type useEdge struct{ used, by *Value }

// table compares the use-def table with the operand slots of every
// attached value.
func (vf *verifier) table() {
	want := make(map[useEdge]int)
	for _, b := range vf.f.Blocks {
		for _, v := range b.Values {
			if v.Has(FlagDetached) {
				continue
			}
			for _, a := range v.Args {
				if a != nil {
					want[useEdge{a, v}]++
				}
			}
		}
	}

	got := make(map[useEdge]int)
	for _, v := range vf.f.values {
		if v.rel == 0 {
			continue
		}
		for _, u := range vf.f.users[v.rel-1] {
			if !vf.values[u] {
				vf.errorf("table lists %s as a user of %s, but it is in no block", u, v)
				continue
			}
			got[useEdge{v, u}]++
		}
	}

	for e, n := range want {
		if got[e] != n {
			vf.errorf("%s uses %s in %d slots but the table has %d edges", e.by, e.used, n, got[e])
		}
	}
	for e, n := range got {
		if _, ok := want[e]; !ok {
			vf.errorf("table lists %s as a user of %s %d times, but it has no such operand", e.by, e.used, n)
		}
	}
}

func countBlock(bs []*Block, b *Block) int {
	n := 0
	for _, x := range bs {
		if x == b {
			n++
		}
	}
	return n
}
