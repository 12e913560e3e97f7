// Package passes runs optimization passes over SSA functions.
package passes

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/containerd/log"
	"github.com/pkg/errors"

	"github.com/you-not-fish/ssalift/internal/ssa"
)

// Pass describes a single SSA optimization pass. Fn reports whether it
// changed the function.
type Pass struct {
	Name string
	Fn   func(f *ssa.Func) bool
}

// Config controls pass execution behavior.
type Config struct {
	DumpBefore string // dump SSA before this pass ("*" for all)
	DumpAfter  string // dump SSA after this pass ("*" for all)
	Verify     bool   // verify SSA before/after each pass
	DumpFunc   string // restrict dumps to this function name

	// MaxIterations bounds the rounds of the optimization sequence;
	// DefaultMaxIterations when 0.
	MaxIterations int

	// Dump receives dumps; os.Stderr when nil.
	Dump io.Writer
}

// Run executes the given passes on f in order and reports whether any of
// them changed it.
func Run(ctx context.Context, f *ssa.Func, passes []Pass, cfg Config) (bool, error) {
	w := cfg.Dump
	if w == nil {
		w = os.Stderr
	}
	changed := false
	for _, p := range passes {
		if shouldDump(cfg.DumpBefore, p.Name) && matchFunc(cfg.DumpFunc, f.Name) {
			dump(w, "before", p.Name, f)
		}

		if cfg.Verify {
			if err := ssa.Verify(f); err != nil {
				return changed, errors.Wrapf(err, "verify before %s", p.Name)
			}
		}

		var c bool
		err := ssa.Catch(f.Name, func() { c = p.Fn(f) })
		if err != nil {
			return changed, errors.Wrapf(err, "pass %s", p.Name)
		}
		changed = changed || c
		log.G(ctx).WithFields(log.Fields{
			"pass":    p.Name,
			"func":    f.Name,
			"changed": c,
		}).Debug("pass done")

		if cfg.Verify {
			if err := ssa.Verify(f); err != nil {
				return changed, errors.Wrapf(err, "verify after %s", p.Name)
			}
		}

		if shouldDump(cfg.DumpAfter, p.Name) && matchFunc(cfg.DumpFunc, f.Name) {
			dump(w, "after", p.Name, f)
		}
	}
	return changed, nil
}

func dump(w io.Writer, when, pass string, f *ssa.Func) {
	fmt.Fprintf(w, "--- %s %s (%s) ---\n", when, pass, f.Name)
	ssa.Fprint(w, f)
	fmt.Fprintln(w)
}

func shouldDump(pattern, name string) bool {
	return pattern == "*" || pattern == name
}

func matchFunc(filter, name string) bool {
	return filter == "" || filter == name
}
