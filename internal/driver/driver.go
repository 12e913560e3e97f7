// Package driver runs the lifter over IR files: it parses them, builds and
// optimizes each function concurrently, and emits the results in source
// order.
package driver

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/containerd/log"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/you-not-fish/ssalift/internal/config"
	"github.com/you-not-fish/ssalift/internal/ir"
	"github.com/you-not-fish/ssalift/internal/ssa"
	"github.com/you-not-fish/ssalift/internal/ssa/passes"
	"github.com/you-not-fish/ssalift/internal/syntax"
)

// Result is the outcome for one function.
type Result struct {
	Func    *ssa.Func
	Lowered *ir.Func // set when emitting IR
	Dump    []byte   // pass dumps written while optimizing
}

// Unit is a compiled file.
type Unit struct {
	File    *ir.File
	Results []Result
}

// Driver compiles files with one configuration.
type Driver struct {
	cfg config.Config
}

// New returns a Driver for cfg.
func New(cfg config.Config) *Driver {
	return &Driver{cfg: cfg}
}

// ParseFile parses the named file, collecting every syntax error.
func ParseFile(path string) (*ir.File, error) {
	var msgs []string
	errh := func(pos ir.Pos, msg string) {
		msgs = append(msgs, pos.String()+": "+msg)
	}
	file, err := syntax.ParseFile(path, errh)
	if err != nil {
		if len(msgs) > 1 {
			return nil, errors.New(strings.Join(msgs, "\n"))
		}
		return nil, err
	}
	return file, nil
}

// CompileFile parses and compiles the named file.
func (d *Driver) CompileFile(ctx context.Context, path string) (*Unit, error) {
	ctx = log.WithLogger(ctx, log.G(ctx).WithField("file", path))
	file, err := ParseFile(path)
	if err != nil {
		return nil, err
	}
	return d.Compile(ctx, file)
}

// Compile builds, optimizes and, when emitting IR, lowers every function
// of file. At most cfg.Jobs functions are processed at a time. Results
// keep the order of file.Funcs; the first failure cancels the rest.
func (d *Driver) Compile(ctx context.Context, file *ir.File) (*Unit, error) {
	u := &Unit{File: file, Results: make([]Result, len(file.Funcs))}
	eg, ctx := errgroup.WithContext(ctx)
	if d.cfg.Jobs > 0 {
		eg.SetLimit(d.cfg.Jobs)
	}
	for i, fn := range file.Funcs {
		i, fn := i, fn
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := d.compileFunc(ctx, fn)
			if err != nil {
				return err
			}
			u.Results[i] = res
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	log.G(ctx).WithField("funcs", len(file.Funcs)).Debug("compiled")
	return u, nil
}

func (d *Driver) compileFunc(ctx context.Context, fn *ir.Func) (Result, error) {
	ctx = log.WithLogger(ctx, log.G(ctx).WithField("func", fn.Name))
	var res Result

	f, err := ssa.Build(fn)
	if err != nil {
		return res, err
	}
	if d.cfg.Verify {
		if err := ssa.Verify(f); err != nil {
			return res, errors.Wrapf(err, "func %s: after construction", fn.Name)
		}
	}
	log.G(ctx).WithField("blocks", f.NumBlocks()).Debug("built")

	var dump bytes.Buffer
	pcfg := passes.Config{
		DumpBefore:    d.cfg.DumpBefore,
		DumpAfter:     d.cfg.DumpAfter,
		DumpFunc:      d.cfg.DumpFunc,
		Verify:        d.cfg.Verify,
		MaxIterations: d.cfg.MaxIterations,
		Dump:          &dump,
	}
	if err := passes.Optimize(ctx, f, pcfg); err != nil {
		return res, err
	}
	res.Func = f
	res.Dump = dump.Bytes()

	if d.cfg.Emit == config.EmitIR {
		res.Lowered, err = ssa.Lower(f)
		if err != nil {
			return res, err
		}
	}
	return res, nil
}

// WriteDumps copies the pass dumps of u to w in function order.
func (u *Unit) WriteDumps(w io.Writer) error {
	for _, r := range u.Results {
		if _, err := w.Write(r.Dump); err != nil {
			return err
		}
	}
	return nil
}

// Emit writes u to w in the configured form. Only the function named by
// DumpFunc is written when it is set.
func (d *Driver) Emit(w io.Writer, u *Unit) error {
	var buf bytes.Buffer
	switch d.cfg.Emit {
	case config.EmitIR:
		out := &ir.File{Name: u.File.Name, Globals: u.File.Globals}
		for _, r := range u.Results {
			if d.selected(r.Func.Name) {
				out.Funcs = append(out.Funcs, r.Lowered)
			}
		}
		ir.FprintFile(&buf, out)
	default:
		n := 0
		for _, r := range u.Results {
			if !d.selected(r.Func.Name) {
				continue
			}
			if n > 0 {
				fmt.Fprintln(&buf)
			}
			ssa.Fprint(&buf, r.Func)
			n++
		}
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func (d *Driver) selected(name string) bool {
	return d.cfg.DumpFunc == "" || d.cfg.DumpFunc == name
}

// Run compiles each path and emits it to out, with dumps going to dump.
// Files are handled in order; the first failure stops the run.
func (d *Driver) Run(ctx context.Context, paths []string, out, dump io.Writer) error {
	if dump == nil {
		dump = os.Stderr
	}
	for _, path := range paths {
		u, err := d.CompileFile(ctx, path)
		if err != nil {
			return err
		}
		if err := u.WriteDumps(dump); err != nil {
			return err
		}
		if err := d.Emit(out, u); err != nil {
			return err
		}
	}
	return nil
}
