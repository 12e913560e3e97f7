package passes

import (
	"fmt"
	"sort"
	"strings"
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
	"pgregory.net/rapid"

	"github.com/you-not-fish/ssalift/internal/ssa"
)

func ids(f *ssa.Func) []int {
	var out []int
	for _, b := range f.Blocks {
		for _, v := range b.Values {
			out = append(out, int(v.ID))
		}
	}
	sort.Ints(out)
	return out
}

func TestDeadCodeRemovesUnused(t *testing.T) {
	f := build(t, `
func f(%a int) %ret int {
  %t = load %a
  %u = mul %t, 3
  %w = add %t, 1
  ret %w
}
`)
	assert.Assert(t, verified(t, f, DeadCode))
	bin := valuesOf(f, ssa.OpBinary)
	assert.Assert(t, is.Len(bin, 1), ssa.Sprint(f))
	assert.Equal(t, bin[0].Inst.Name, "w")
	for _, b := range f.Blocks {
		for _, v := range b.Values {
			assert.Check(t, v.Has(ssa.FlagLive), v.LongString())
		}
	}
	assert.Check(t, !verified(t, f, DeadCode))
}

func TestDeadCodeKeepsCalls(t *testing.T) {
	f := build(t, `
func f(%a int) {
  %t = load %a
  %r = call int @g(%t)
  ret
}
`)
	verified(t, f, DeadCode)
	assert.Check(t, is.Len(valuesOf(f, ssa.OpCall), 1))
}

const overwriteSrc = `
func f() %%ret int {
  %%a = alloc [2]int
  %%p = index %%a, 0
  store %%p, 1
%s
  store %%p, 2
  %%v = load %%p
  ret %%v
}
`

func TestDeadCodeOverwrittenStore(t *testing.T) {
	f := build(t, fmt.Sprintf(overwriteSrc, ""))
	verified(t, f, Indexing)
	assert.Assert(t, verified(t, f, DeadCode))
	st := valuesOf(f, ssa.OpIndexStore)
	assert.Assert(t, is.Len(st, 1), ssa.Sprint(f))
	assert.Equal(t, st[0].Args[2].Const.String(), "2")
}

func TestDeadCodeStoreReadInBetween(t *testing.T) {
	for _, between := range []string{
		"  %w = load %p",
		"  call @g(%a)",
	} {
		f := build(t, fmt.Sprintf(overwriteSrc, between))
		verified(t, f, Indexing)
		verified(t, f, DeadCode)
		assert.Check(t, is.Len(valuesOf(f, ssa.OpIndexStore), 2), between+"\n"+ssa.Sprint(f))
	}
}

func TestDeadCodeUnreadArray(t *testing.T) {
	f := build(t, `
func f() {
  %a = alloc [2]int
  %p = index %a, 0
  store %p, 1
  ret
}
`)
	verified(t, f, Indexing)
	assert.Assert(t, verified(t, f, DeadCode))
	assert.Check(t, is.Len(valuesOf(f, ssa.OpIndexStore), 0), ssa.Sprint(f))
}

func TestDeadCodeStoreKeepsStoredValue(t *testing.T) {
	f := build(t, `
func f(%n int) %ret int {
  %a = alloc [2]int
  %t = load %n
  %m = mul %t, 3
  %p = index %a, 1
  store %p, %m
  %q = index %a, 0
  %v = load %q
  ret %v
}
`)
	verified(t, f, Indexing)
	verified(t, f, DeadCode)

	st := valuesOf(f, ssa.OpIndexStore)
	assert.Assert(t, is.Len(st, 1), ssa.Sprint(f))
	bin := valuesOf(f, ssa.OpBinary)
	assert.Assert(t, is.Len(bin, 1), ssa.Sprint(f))
	assert.Equal(t, bin[0].Inst.Name, "m")
	assert.Check(t, st[0].Args[2] == bin[0])
	assert.Check(t, bin[0].Has(ssa.FlagLive))
}

// genProgram writes a straight-line function computing on its parameters,
// with some results left unused.
func genProgram(t *rapid.T) string {
	var sb strings.Builder
	sb.WriteString("func f(%a int, %b int) %ret int {\n  %x = alloc int\n  %t0 = load %a\n  %t1 = load %b\n")
	n := rapid.IntRange(1, 12).Draw(t, "n")
	names := []string{"%t0", "%t1", "3", "0"}
	for i := 2; i < n+2; i++ {
		op := rapid.SampledFrom([]string{"add", "sub", "mul", "lt"}).Draw(t, "op")
		x := rapid.SampledFrom(names).Draw(t, "x")
		y := rapid.SampledFrom(names).Draw(t, "y")
		name := fmt.Sprintf("%%t%d", i)
		if op == "lt" {
			fmt.Fprintf(&sb, "  %s = %s %s, %s\n  %s = select %s, %s, %s\n", name+"c", op, x, y, name, name+"c", x, y)
		} else {
			fmt.Fprintf(&sb, "  %s = %s %s, %s\n", name, op, x, y)
		}
		if rapid.Bool().Draw(t, "store") {
			fmt.Fprintf(&sb, "  store %%x, %s\n", name)
		}
		names = append(names, name)
	}
	sb.WriteString("  %r = load %x\n")
	fmt.Fprintf(&sb, "  %%s = add %%r, %s\n  ret %%s\n}\n", rapid.SampledFrom(names).Draw(t, "ret"))
	return sb.String()
}

func TestDeadCodeIdempotent(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		src := genProgram(rt)
		f := build(t, src)
		if rapid.Bool().Draw(rt, "copyprop") {
			CopyProp(f)
		}
		DeadCode(f)
		if err := ssa.Verify(f); err != nil {
			rt.Fatalf("%v\n%s\n%s", err, src, ssa.Sprint(f))
		}
		once := ids(f)
		if DeadCode(f) {
			rt.Fatalf("second run changed\n%s", ssa.Sprint(f))
		}
		again := ids(f)
		if fmt.Sprint(once) != fmt.Sprint(again) {
			rt.Fatalf("live set changed: %v vs %v", once, again)
		}
	})
}
