// Package main implements the ssalift command: it lifts functions of the
// textual instruction IR into SSA form, optimizes them and prints either
// the SSA graph or the lowered instructions.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"

	"github.com/containerd/log"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/you-not-fish/ssalift/internal/config"
	"github.com/you-not-fish/ssalift/internal/driver"
	"github.com/you-not-fish/ssalift/internal/ssa/passes"
)

// Version information
const Version = "0.1.0-dev"

type options struct {
	version    bool
	configFile string
	watch      bool
	cfg        config.Config
}

func newCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := options{cfg: config.Default()}

	cmd := &cobra.Command{
		Use:           "ssalift [OPTIONS] FILE...",
		Short:         "Lift IR functions into SSA form and optimize them.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.version {
				fmt.Fprintf(stdout, "ssalift version %s\n", Version)
				fmt.Fprintf(stdout, "go version %s\n", runtime.Version())
				return nil
			}
			if len(args) == 0 {
				return fmt.Errorf("no input file")
			}
			cfg, err := resolveConfig(opts, cmd.Flags())
			if err != nil {
				return err
			}
			if err := initLogging(stderr, cfg.LogLevel); err != nil {
				return err
			}
			d := driver.New(cfg)
			if opts.watch {
				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
				defer stop()
				return d.Watch(ctx, args, stdout, stderr)
			}
			return d.Run(cmd.Context(), args, stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	flags := cmd.Flags()
	flags.BoolVarP(&opts.version, "version", "v", false, "Print version information and quit")
	flags.StringVar(&opts.configFile, "config", "", "TOML configuration file")
	flags.BoolVarP(&opts.watch, "watch", "w", false, "Recompile inputs when they change")
	installConfigFlags(&opts.cfg, flags)
	return cmd
}

func installConfigFlags(cfg *config.Config, flags *pflag.FlagSet) {
	flags.StringVar(&cfg.Emit, "emit", cfg.Emit, `Output form ("ssa" or "ir")`)
	flags.StringVar(&cfg.DumpBefore, "dump-before", "", fmt.Sprintf(`Dump SSA before pass (one of %v or "*")`, passes.Names()))
	flags.StringVar(&cfg.DumpAfter, "dump-after", "", `Dump SSA after pass (name or "*")`)
	flags.StringVar(&cfg.DumpFunc, "dump-func", "", "Only dump and emit this function")
	flags.BoolVar(&cfg.Verify, "verify", false, "Verify SSA around each pass")
	flags.IntVarP(&cfg.Jobs, "jobs", "j", cfg.Jobs, "Functions compiled in parallel")
	flags.IntVar(&cfg.MaxIterations, "max-iterations", cfg.MaxIterations, "Bound on optimization rounds")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, `Log level ("debug", "info", "warn", "error")`)
}

// resolveConfig loads the configuration file, if any, and applies the
// flags set on the command line over it.
func resolveConfig(opts options, flags *pflag.FlagSet) (config.Config, error) {
	if opts.configFile == "" {
		return opts.cfg, opts.cfg.Validate()
	}
	cfg, err := config.LoadFile(opts.configFile)
	if err != nil {
		return cfg, err
	}
	flags.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "emit":
			cfg.Emit = opts.cfg.Emit
		case "dump-before":
			cfg.DumpBefore = opts.cfg.DumpBefore
		case "dump-after":
			cfg.DumpAfter = opts.cfg.DumpAfter
		case "dump-func":
			cfg.DumpFunc = opts.cfg.DumpFunc
		case "verify":
			cfg.Verify = opts.cfg.Verify
		case "jobs":
			cfg.Jobs = opts.cfg.Jobs
		case "max-iterations":
			cfg.MaxIterations = opts.cfg.MaxIterations
		case "log-level":
			cfg.LogLevel = opts.cfg.LogLevel
		}
	})
	return cfg, cfg.Validate()
}

func initLogging(stderr io.Writer, level string) error {
	log.L.Logger.SetOutput(stderr)
	log.L.Logger.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})
	return log.SetLevel(level)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newCommand(stdout, stderr)
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}
