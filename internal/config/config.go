package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up in the working directory.
const FileName = "strata.yaml"

type Config struct {
	// Verbosity is the commonlog verbosity; 0 logs errors only.
	Verbosity int `yaml:"verbosity"`
	// LogFile receives log output instead of stderr when set.
	LogFile string `yaml:"log_file"`
	Color   bool   `yaml:"color"`
	// Workers bounds how many functions are built concurrently.
	Workers int `yaml:"workers"`
	// Flatten simplifies each function's structure before resolution.
	Flatten bool `yaml:"flatten"`
	// Freeze seals functions that verify cleanly.
	Freeze      bool              `yaml:"freeze"`
	Print       PrintOptions      `yaml:"print"`
	Diagnostics DiagnosticOptions `yaml:"diagnostics"`
}

type PrintOptions struct {
	// Resolve materializes every join before printing, so each use shows
	// its definition instead of an unresolved marker.
	Resolve bool `yaml:"resolve"`
}

type DiagnosticOptions struct {
	// PossiblyUndefined is the level of S0002 diagnostics: error or warning.
	PossiblyUndefined string `yaml:"possibly_undefined"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Color:   true,
		Workers: runtime.GOMAXPROCS(0),
		Freeze:  true,
		Print:   PrintOptions{Resolve: true},
		Diagnostics: DiagnosticOptions{
			PossiblyUndefined: "warning",
		},
	}
}

// Load reads the configuration at path. An empty path looks for FileName
// in the working directory; a missing file there yields Default.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = FileName
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return cfg, nil
}

// Parse decodes a YAML document over the defaults. Unknown keys are errors.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("invalid config: workers must be at least 1, got %d", c.Workers)
	}
	if c.Verbosity < 0 {
		return fmt.Errorf("invalid config: verbosity must not be negative, got %d", c.Verbosity)
	}
	switch c.Diagnostics.PossiblyUndefined {
	case "error", "warning":
	default:
		return fmt.Errorf("invalid config: diagnostics.possibly_undefined must be error or warning, got %q",
			c.Diagnostics.PossiblyUndefined)
	}
	return nil
}
