// Package config loads the lifter's TOML configuration.
package config

import (
	"io"
	"os"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
)

// Emit selects what the driver prints for each function.
const (
	EmitSSA = "ssa" // the optimized SSA graph
	EmitIR  = "ir"  // the lowered instruction list
)

// Config holds the driver and pipeline settings. Zero fields take their
// defaults from Default.
type Config struct {
	LogLevel      string `toml:"log_level"`
	Jobs          int    `toml:"jobs"`
	Verify        bool   `toml:"verify"`
	DumpBefore    string `toml:"dump_before"`
	DumpAfter     string `toml:"dump_after"`
	DumpFunc      string `toml:"dump_func"`
	MaxIterations int    `toml:"max_iterations"`
	Emit          string `toml:"emit"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel:      "info",
		Jobs:          4,
		MaxIterations: 16,
		Emit:          EmitSSA,
	}
}

// Load decodes a configuration from r over the defaults.
func Load(r io.Reader) (Config, error) {
	c := Default()
	data, err := io.ReadAll(r)
	if err != nil {
		return c, errors.Wrap(err, "failed to read config")
	}
	if err := toml.Unmarshal(data, &c); err != nil {
		return c, errors.Wrap(err, "failed to parse config")
	}
	return c, c.Validate()
}

// LoadFile loads the configuration file at path. A missing file yields
// the defaults.
func LoadFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, errors.Wrapf(err, "failed to load config from %s", path)
	}
	defer f.Close()
	c, err := Load(f)
	if err != nil {
		return c, errors.Wrap(err, path)
	}
	return c, nil
}

// Validate rejects settings the driver cannot honor.
func (c Config) Validate() error {
	switch c.Emit {
	case EmitSSA, EmitIR:
	default:
		return errors.Errorf("unknown emit mode %q", c.Emit)
	}
	if c.Jobs < 1 {
		return errors.Errorf("jobs must be positive, got %d", c.Jobs)
	}
	if c.MaxIterations < 1 {
		return errors.Errorf("max_iterations must be positive, got %d", c.MaxIterations)
	}
	return nil
}
