package passes

import (
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/you-not-fish/ssalift/internal/ssa"
)

func TestSimplifyCFGConstantCondition(t *testing.T) {
	f := build(t, `
func f() %ret int {
  condbr true, yes, no
yes:
  ret 1
no:
  ret 2
}
`)
	assert.Assert(t, verified(t, f, SimplifyCFG))
	assert.Assert(t, is.Len(f.Blocks, 1), ssa.Sprint(f))
	assert.Check(t, blockNamed(f, "no") == nil)

	ret := f.Entry.Control()
	assert.Equal(t, ret.Op, ssa.OpReturn)
	assert.Equal(t, ret.Args[0].Const.String(), "1")
	assert.Check(t, !verified(t, f, SimplifyCFG))
}

func TestSimplifyCFGFalseTargetStillReachable(t *testing.T) {
	f := build(t, `
func g(%p bool) {
  condbr true, a, b
a:
  %c = load %p
  condbr %c, b, done
b:
  call @h()
  br done
done:
  ret
}
`)
	assert.Assert(t, verified(t, f, SimplifyCFG))
	// a is fused into the entry; b is still reached through it.
	assert.Assert(t, is.Len(f.Blocks, 3), ssa.Sprint(f))
	b := blockNamed(f, "b")
	assert.Assert(t, b != nil)
	assert.Assert(t, is.Len(b.Preds, 1))
	assert.Check(t, b.Preds[0] == f.Entry)
	assert.Equal(t, f.Entry.Control().Op, ssa.OpCondBranch)
}

func TestSimplifyCFGIdenticalTargets(t *testing.T) {
	f := build(t, `
func f(%p bool) {
  %c = load %p
  condbr %c, x, x
x:
  ret
}
`)
	assert.Equal(t, blockNamed(f, "x").NumPreds(), 2)
	assert.Assert(t, verified(t, f, SimplifyCFG))
	assert.Assert(t, is.Len(f.Blocks, 1), ssa.Sprint(f))
	assert.Equal(t, f.Entry.Control().Op, ssa.OpReturn)
}

func TestSimplifyCFGDropsPhiOfDeadEdge(t *testing.T) {
	f := build(t, `
func f() %ret int {
  %x = alloc int
  condbr false, a, b
a:
  store %x, 1
  br j
b:
  store %x, 2
  br j
j:
  %v = load %x
  ret %v
}
`)
	assert.Assert(t, is.Len(valuesOf(f, ssa.OpPhi), 1))
	assert.Assert(t, verified(t, f, SimplifyCFG))
	assert.Assert(t, is.Len(f.Blocks, 1), ssa.Sprint(f))
	assert.Check(t, is.Len(valuesOf(f, ssa.OpPhi), 0))
	ret := f.Entry.Control()
	assert.Equal(t, ret.Args[0].Unwrap().Const.String(), "2")
}

func TestSimplifyCFGKeepsLoops(t *testing.T) {
	f := build(t, loopSrc)
	n := len(f.Blocks)
	assert.Check(t, !verified(t, f, SimplifyCFG))
	assert.Equal(t, len(f.Blocks), n)
}
