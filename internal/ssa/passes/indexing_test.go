package passes

import (
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/you-not-fish/ssalift/internal/ssa"
)

func TestIndexingChainedStores(t *testing.T) {
	f := build(t, `
func f() %ret int {
  %a = alloc [4]int
  %p = index %a, 1
  store %p, 7
  %q = index %a, 2
  store %q, 8
  %r = index %a, 1
  %v = load %r
  ret %v
}
`)
	st := valuesOf(f, ssa.OpIndexStore)
	assert.Assert(t, is.Len(st, 2))
	assert.Check(t, st[0].Args[0] != st[1].Args[0])

	assert.Assert(t, verified(t, f, Indexing))
	base := st[0].Args[0]
	assert.Equal(t, base.Op, ssa.OpLocal)
	assert.Equal(t, base.Args[0].Op, ssa.OpUndef)
	assert.Check(t, st[1].Args[0] == base)
	for _, s := range st {
		assert.Check(t, s.Has(ssa.FlagNoValue))
	}
	read := valuesOf(f, ssa.OpIndex)
	assert.Assert(t, is.Len(read, 1))
	assert.Check(t, read[0].Args[0] == base, ssa.Sprint(f))

	assert.Check(t, !verified(t, f, Indexing))
}

func TestIndexingAddressOfElementZero(t *testing.T) {
	f := build(t, `
func f(%i int) %ret int {
  %a = alloc [4]int
  %p = alloc *int
  %e = index %a, 0
  store %p, %e
  %pv = load %p
  %iv = load %i
  %q = index %pv, %iv
  %v = load %q
  ret %v
}
`)
	verified(t, f, CopyProp)
	assert.Assert(t, verified(t, f, Indexing))

	var q *ssa.Value
	for _, v := range valuesOf(f, ssa.OpIndex) {
		if v.Inst != nil && v.Inst.Name == "q" {
			q = v
		}
	}
	assert.Assert(t, q != nil, ssa.Sprint(f))
	assert.Equal(t, q.Args[0].Op, ssa.OpLocal)
	assert.Equal(t, q.Args[0].Var.Name, "a")
	assert.Equal(t, q.Args[1].Op, ssa.OpParam)
}

func TestIndexingLoopCarriedArray(t *testing.T) {
	f := build(t, `
func f() %ret int {
  %a = alloc [4]int
  %i = alloc int
  store %i, 0
  br head
head:
  %iv = load %i
  %c = lt %iv, 4
  condbr %c, body, exit
body:
  %p = index %a, %iv
  store %p, %iv
  %i1 = add %iv, 1
  store %i, %i1
  br head
exit:
  %q = index %a, 2
  %v = load %q
  ret %v
}
`)
	assert.Assert(t, is.Len(valuesOf(f, ssa.OpPhi), 2), ssa.Sprint(f))
	assert.Assert(t, verified(t, f, Indexing))

	// Only the counter still needs a phi; the array is stored in place.
	phis := valuesOf(f, ssa.OpPhi)
	assert.Assert(t, is.Len(phis, 1), ssa.Sprint(f))
	assert.Equal(t, phis[0].Var.Name, "i")

	st := valuesOf(f, ssa.OpIndexStore)
	assert.Assert(t, is.Len(st, 1))
	base := st[0].Args[0]
	assert.Equal(t, base.Op, ssa.OpLocal)
	assert.Check(t, base.Block == f.Entry)
	read := valuesOf(f, ssa.OpIndex)
	assert.Assert(t, is.Len(read, 1))
	assert.Check(t, read[0].Args[0] == base, ssa.Sprint(f))

	assert.Check(t, !verified(t, f, Indexing))
}
