package passes

import (
	"context"

	"github.com/containerd/log"
	"github.com/pkg/errors"

	"github.com/you-not-fish/ssalift/internal/ssa"
)

// DefaultMaxIterations bounds the optimization rounds when Config leaves
// MaxIterations unset.
const DefaultMaxIterations = 16

// Optimizations is the optimization sequence, in order.
var Optimizations = []Pass{
	{Name: "simplifycfg", Fn: SimplifyCFG},
	{Name: "induction", Fn: Induction},
	{Name: "copyprop", Fn: CopyProp},
	{Name: "indexing", Fn: Indexing},
	{Name: "deadcode", Fn: DeadCode},
}

// Numbering assigns print numbers once optimization is done.
var Numbering = Pass{Name: "number", Fn: Number}

// Names lists every pass name, for dump flags.
func Names() []string {
	names := make([]string, 0, len(Optimizations)+1)
	for _, p := range Optimizations {
		names = append(names, p.Name)
	}
	return append(names, Numbering.Name)
}

// Optimize repeats the optimization sequence on f until no pass changes it
// or the iteration bound is hit, then numbers the result.
func Optimize(ctx context.Context, f *ssa.Func, cfg Config) error {
	max := cfg.MaxIterations
	if max <= 0 {
		max = DefaultMaxIterations
	}
	i := 0
	for ; i < max; i++ {
		changed, err := Run(ctx, f, Optimizations, cfg)
		if err != nil {
			return errors.Wrapf(err, "optimize %s", f.Name)
		}
		if !changed {
			break
		}
	}
	if i == max {
		log.G(ctx).WithField("func", f.Name).Warnf("optimization did not settle after %d rounds", max)
	} else {
		log.G(ctx).WithFields(log.Fields{"func": f.Name, "rounds": i + 1}).Debug("optimized")
	}
	if _, err := Run(ctx, f, []Pass{Numbering}, cfg); err != nil {
		return errors.Wrapf(err, "optimize %s", f.Name)
	}
	return nil
}
