package passes

import (
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/you-not-fish/ssalift/internal/ssa"
)

// loopSrc counts x up while a counts down.
const loopSrc = `
func loop(%n int) %ret int {
  %x = alloc int
  %a = alloc int
  store %x, 0
  %n0 = load %n
  store %a, %n0
  br head
head:
  %av = load %a
  %c = gt %av, 0
  condbr %c, body, exit
body:
  %xv = load %x
  %x1 = add %xv, 1
  store %x, %x1
  %av2 = load %a
  %a1 = sub %av2, 1
  store %a, %a1
  br head
exit:
  %r = load %x
  ret %r
}
`

const twoCountersSrc = `
func f(%n int) %ret int {
  %i = alloc int
  %j = alloc int
  %k = alloc int
  store %i, 0
  store %j, 0
  store %k, 1
  br head
head:
  %iv = load %i
  %nv = load %n
  %c = lt %iv, %nv
  condbr %c, body, exit
body:
  %i0 = load %i
  %i1 = add %i0, 1
  store %i, %i1
  %j0 = load %j
  %j1 = add %j0, 1
  store %j, %j1
  %k0 = load %k
  %k1 = add %k0, 1
  store %k, %k1
  br head
exit:
  %jr = load %j
  %kr = load %k
  %r = add %jr, %kr
  ret %r
}
`

func TestInductionUnifiesCounters(t *testing.T) {
	f := build(t, twoCountersSrc)
	head := blockNamed(f, "head")
	assert.Assert(t, is.Len(head.Phis(), 3), ssa.Sprint(f))

	assert.Assert(t, verified(t, f, Induction))
	phis := head.Phis()
	// j merges into i; k starts elsewhere and stays.
	assert.Assert(t, is.Len(phis, 2), ssa.Sprint(f))
	names := map[string]bool{}
	for _, phi := range phis {
		names[phi.Var.Name] = true
	}
	assert.DeepEqual(t, names, map[string]bool{"i": true, "k": true})

	var iPhi *ssa.Value
	for _, phi := range phis {
		if phi.Var.Name == "i" {
			iPhi = phi
		}
	}
	sum := valuesOf(f, ssa.OpBinary)
	r := sum[len(sum)-1]
	assert.Check(t, r.Args[0] == iPhi, ssa.Sprint(f))

	assert.Check(t, !verified(t, f, Induction))
}

func TestInductionKeepsDecrement(t *testing.T) {
	f := build(t, loopSrc)
	assert.Check(t, !verified(t, f, Induction))

	head := blockNamed(f, "head")
	phis := head.Phis()
	assert.Assert(t, is.Len(phis, 2))
	assert.Check(t, phis[0].Var != phis[1].Var)
}
