package passes

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/you-not-fish/ssalift/internal/ir"
	"github.com/you-not-fish/ssalift/internal/ssa"
	"github.com/you-not-fish/ssalift/internal/syntax"
)

// build parses src, which must hold a single function, and lifts it.
func build(t *testing.T, src string) *ssa.Func {
	t.Helper()
	file, err := syntax.Parse("test.ir", strings.NewReader(src), nil)
	assert.NilError(t, err)
	assert.Assert(t, is.Len(file.Funcs, 1))
	f, err := ssa.Build(file.Funcs[0])
	assert.NilError(t, err)
	assert.NilError(t, ssa.Verify(f))
	return f
}

// verified runs p on f and checks the result.
func verified(t *testing.T, f *ssa.Func, p func(*ssa.Func) bool) bool {
	t.Helper()
	changed := p(f)
	if err := ssa.Verify(f); err != nil {
		t.Fatalf("%v\n%s", err, ssa.Sprint(f))
	}
	return changed
}

func valuesOf(f *ssa.Func, op ssa.Op) []*ssa.Value {
	var out []*ssa.Value
	for _, b := range f.Blocks {
		for _, v := range b.Values {
			if v.Op == op {
				out = append(out, v)
			}
		}
	}
	return out
}

func blockNamed(f *ssa.Func, name string) *ssa.Block {
	for _, b := range f.Blocks {
		if b.Name() == name {
			return b
		}
	}
	return nil
}

func retFunc() *ssa.Func {
	f := ssa.NewFunc("f", nil)
	b := f.NewBlock(nil)
	f.NewValue(b, ssa.OpReturn, nil)
	return f
}

func TestRunEmpty(t *testing.T) {
	changed, err := Run(context.Background(), retFunc(), nil, Config{})
	assert.NilError(t, err)
	assert.Check(t, !changed)
}

func TestRunSinglePass(t *testing.T) {
	called := false
	passes := []Pass{
		{Name: "test", Fn: func(*ssa.Func) bool { called = true; return true }},
	}
	changed, err := Run(context.Background(), retFunc(), passes, Config{})
	assert.NilError(t, err)
	assert.Check(t, called)
	assert.Check(t, changed)
}

func TestRunMultiplePasses(t *testing.T) {
	var order []string
	passes := []Pass{
		{Name: "first", Fn: func(*ssa.Func) bool { order = append(order, "first"); return false }},
		{Name: "second", Fn: func(*ssa.Func) bool { order = append(order, "second"); return false }},
	}
	changed, err := Run(context.Background(), retFunc(), passes, Config{})
	assert.NilError(t, err)
	assert.Check(t, !changed)
	assert.DeepEqual(t, order, []string{"first", "second"})
}

func TestRunWithVerify(t *testing.T) {
	corrupt := Pass{Name: "corrupt", Fn: func(f *ssa.Func) bool {
		// A second control value in the middle of the block.
		b := f.Entry
		f.NewValueAt(b, 0, ssa.OpUnreachable, nil)
		return true
	}}
	_, err := Run(context.Background(), retFunc(), []Pass{{Name: "noop", Fn: func(*ssa.Func) bool { return false }}}, Config{Verify: true})
	assert.NilError(t, err)

	_, err = Run(context.Background(), retFunc(), []Pass{corrupt}, Config{Verify: true})
	assert.ErrorContains(t, err, "verify after corrupt")
}

func TestRunCatchesAssertion(t *testing.T) {
	boom := Pass{Name: "boom", Fn: func(*ssa.Func) bool {
		panic(&ssa.Error{Kind: ssa.InvariantViolation, Msg: "broken"})
	}}
	_, err := Run(context.Background(), retFunc(), []Pass{boom}, Config{})
	assert.ErrorContains(t, err, "pass boom")
	e, ok := ssa.AsError(err)
	assert.Assert(t, ok)
	assert.Equal(t, e.Func, "f")
	assert.Equal(t, e.Kind, ssa.InvariantViolation)
}

func TestRunDump(t *testing.T) {
	var buf bytes.Buffer
	noop := Pass{Name: "noop", Fn: func(*ssa.Func) bool { return false }}
	other := Pass{Name: "other", Fn: func(*ssa.Func) bool { return false }}
	cfg := Config{DumpBefore: "noop", DumpAfter: "*", Dump: &buf}
	_, err := Run(context.Background(), retFunc(), []Pass{noop, other}, cfg)
	assert.NilError(t, err)

	out := buf.String()
	assert.Check(t, is.Contains(out, "--- before noop (f) ---"))
	assert.Check(t, is.Contains(out, "--- after noop (f) ---"))
	assert.Check(t, is.Contains(out, "--- after other (f) ---"))
	assert.Check(t, !strings.Contains(out, "--- before other"))

	buf.Reset()
	cfg.DumpFunc = "g"
	_, err = Run(context.Background(), retFunc(), []Pass{noop}, cfg)
	assert.NilError(t, err)
	assert.Equal(t, buf.String(), "")
}

func TestNames(t *testing.T) {
	assert.DeepEqual(t, Names(), []string{"simplifycfg", "induction", "copyprop", "indexing", "deadcode", "number"})
}

func TestOptimizeLoop(t *testing.T) {
	f := build(t, loopSrc)
	var buf bytes.Buffer
	err := Optimize(context.Background(), f, Config{Verify: true, DumpAfter: "deadcode", Dump: &buf})
	assert.NilError(t, err)
	assert.Check(t, is.Contains(buf.String(), "--- after deadcode (loop) ---"))

	// Both loop variables keep their own phi.
	head := blockNamed(f, "head")
	assert.Assert(t, head != nil, ssa.Sprint(f))
	assert.Check(t, is.Len(head.Phis(), 2), ssa.Sprint(f))

	// Numbers are dense and follow block order.
	var want int32
	for _, b := range f.Blocks {
		for _, v := range b.Values {
			if !v.ProducesValue() {
				assert.Check(t, is.Equal(v.Num, int32(0)))
				continue
			}
			want++
			assert.Check(t, is.Equal(v.Num, want), v.LongString())
		}
	}

	out, err := ssa.Lower(f)
	assert.NilError(t, err)
	_, err = syntax.Parse("lowered.ir", strings.NewReader(ir.Sprint(out)), nil)
	assert.NilError(t, err, ir.Sprint(out))
}

func TestOptimizeSettles(t *testing.T) {
	f := build(t, `
func f(%p int) %ret int {
  %x = alloc int
  %c = gt 1, 0
  condbr %c, yes, no
yes:
  %v = load %p
  %w = add %v, 2
  store %x, %w
  br done
no:
  store %x, 3
  br done
done:
  %r = load %x
  ret %r
}
`)
	err := Optimize(context.Background(), f, Config{Verify: true})
	assert.NilError(t, err)
	assert.Check(t, is.Len(f.Blocks, 1), ssa.Sprint(f))
	assert.Check(t, is.Len(valuesOf(f, ssa.OpPhi), 0))
	assert.Check(t, is.Len(valuesOf(f, ssa.OpLocal), 0), ssa.Sprint(f))

	// A second run finds nothing to do.
	changed, err := Run(context.Background(), f, Optimizations, Config{Verify: true})
	assert.NilError(t, err)
	assert.Check(t, !changed, ssa.Sprint(f))
}
