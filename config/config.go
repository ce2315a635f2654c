// Package config loads gasm.toml, the optional project-level defaults
// shared by the expr and gvm command-line tools.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const fileName = "gasm.toml"

// Config holds the defaults a gasm.toml file may override. Every field
// has a usable zero value, so a missing or partially-specified file is
// never fatal — see Defaults.
type Config struct {
	VM       VMConfig       `toml:"vm"`
	Compiler CompilerConfig `toml:"compiler"`

	// Dir is the directory the config file was loaded from (set at load
	// time, never read from the file itself).
	Dir string `toml:"-"`
}

// VMConfig configures cmd/gvm's default run behavior.
type VMConfig struct {
	Limit uint64 `toml:"limit"`
	Trace bool   `toml:"trace"`
}

// CompilerConfig configures cmd/expr's default behavior.
type CompilerConfig struct {
	DefaultExpr      string `toml:"default_expr"`
	NewlineSeparated bool   `toml:"newline_separated"`
}

// Defaults returns the configuration used when no gasm.toml is found.
func Defaults() *Config {
	return &Config{
		VM: VMConfig{Limit: 50_000},
		Compiler: CompilerConfig{
			DefaultExpr: "88 + ~@99+4*2/(6-5)*2*3",
		},
	}
}

// Load parses a gasm.toml file from dir, filling in any field a partial
// file omits from Defaults.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, fileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	c := Defaults()
	if err := toml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	c.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	return c, nil
}

// FindAndLoad walks up from startDir looking for a gasm.toml file. It
// returns Defaults with no error if none is found anywhere up to the
// filesystem root.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, fileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return Defaults(), nil
		}
		dir = parent
	}
}
