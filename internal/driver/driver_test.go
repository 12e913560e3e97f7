package driver

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
	"gotest.tools/v3/poll"

	"github.com/you-not-fish/ssalift/internal/config"
	"github.com/you-not-fish/ssalift/internal/ssa"
	"github.com/you-not-fish/ssalift/internal/syntax"
)

const src = `
func first(%a int) %ret int {
  %t = load %a
  %u = add %t, 1
  ret %u
}

func second() %ret int {
  %x = alloc int
  store %x, 5
  %v = load %x
  %w = mul %v, 2
  ret %w
}

func third(%p bool) {
  %c = load %p
  condbr %c, yes, no
yes:
  call @g()
  br no
no:
  ret
}
`

func writeFile(t *testing.T, dir, name, text string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	assert.NilError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

func TestCompileKeepsOrder(t *testing.T) {
	file, err := syntax.Parse("src.ir", strings.NewReader(src), nil)
	assert.NilError(t, err)

	cfg := config.Default()
	cfg.Jobs = 2
	cfg.Verify = true
	u, err := New(cfg).Compile(context.Background(), file)
	assert.NilError(t, err)
	assert.Assert(t, is.Len(u.Results, 3))
	for i, name := range []string{"first", "second", "third"} {
		assert.Equal(t, u.Results[i].Func.Name, name)
		assert.Check(t, u.Results[i].Lowered == nil)
	}

	// second folds to a constant.
	ret := u.Results[1].Func.Entry.Control()
	assert.Equal(t, ret.Args[0].Const.String(), "10")
}

func TestEmitSSA(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.ir", src)
	var out, dump bytes.Buffer
	err := New(config.Default()).Run(context.Background(), []string{path}, &out, &dump)
	assert.NilError(t, err)
	text := out.String()
	assert.Check(t, is.Contains(text, "func first(a int) int:\n"))
	assert.Check(t, is.Contains(text, "\n\nfunc second() int:\n"))
	assert.Check(t, is.Contains(text, "func third(p bool):\n"))
	assert.Equal(t, dump.String(), "")
}

func TestEmitIR(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.ir", src)
	cfg := config.Default()
	cfg.Emit = config.EmitIR
	cfg.DumpFunc = "second"
	cfg.DumpAfter = "*"
	var out, dump bytes.Buffer
	assert.NilError(t, New(cfg).Run(context.Background(), []string{path}, &out, &dump))

	assert.Equal(t, out.String(), "func second() %ret int {\nb0:\n  ret 10\n}\n")
	assert.Check(t, is.Contains(dump.String(), "--- after deadcode (second) ---"))
	assert.Check(t, !strings.Contains(dump.String(), "(first)"))

	// The output is valid input.
	_, err := syntax.Parse("out.ir", strings.NewReader(out.String()), nil)
	assert.NilError(t, err)
}

func TestCompileErrors(t *testing.T) {
	dir := t.TempDir()
	d := New(config.Default())

	err := d.Run(context.Background(), []string{filepath.Join(dir, "missing.ir")}, &bytes.Buffer{}, nil)
	assert.Check(t, errors.Is(err, os.ErrNotExist), "%v", err)

	bad := writeFile(t, dir, "bad.ir", "func f() {\n  %x = frob 1\n}\n")
	err = d.Run(context.Background(), []string{bad}, &bytes.Buffer{}, nil)
	assert.ErrorContains(t, err, `bad.ir:2:`)

	unsupported := writeFile(t, dir, "global.ir", "global @g int\n\nfunc f() %ret int {\n  %v = load @g\n  ret %v\n}\n")
	err = d.Run(context.Background(), []string{unsupported}, &bytes.Buffer{}, nil)
	e, ok := ssa.AsError(err)
	assert.Assert(t, ok, "%v", err)
	assert.Equal(t, e.Kind, ssa.NotImplemented)
	assert.Equal(t, e.Func, "f")
}

func TestWatchRecompiles(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "w.ir", "func f() %ret int {\n  ret 1\n}\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := &syncBuffer{}
	done := make(chan error, 1)
	go func() {
		done <- New(config.Default()).Watch(ctx, []string{path}, out, &bytes.Buffer{})
	}()

	poll.WaitOn(t, func(poll.LogT) poll.Result {
		if strings.Contains(out.String(), "const <int> [1]") {
			return poll.Success()
		}
		return poll.Continue("waiting for first build")
	}, poll.WithTimeout(10*time.Second))

	writeFile(t, dir, "w.ir", "func f() %ret int {\n  ret 2\n}\n")
	poll.WaitOn(t, func(poll.LogT) poll.Result {
		if strings.Contains(out.String(), "const <int> [2]") {
			return poll.Success()
		}
		return poll.Continue("waiting for rebuild")
	}, poll.WithTimeout(10*time.Second))

	cancel()
	assert.NilError(t, <-done)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
