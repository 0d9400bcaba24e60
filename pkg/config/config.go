// Package config implements Smoke configuration loading.
package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/thomasrohde/smoke/pkg/evaluator"
	"github.com/thomasrohde/smoke/pkg/parser"
)

const (
	// ProjectFile is looked up in the working directory.
	ProjectFile = ".smoke.yaml"
	// UserFile is looked up under the home directory.
	UserFile = ".smoke/config.yaml"
)

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Config holds settings shared by the CLI and the REPL.
type Config struct {
	MaxDepth      int    `yaml:"max_depth"`
	MaxParseDepth int    `yaml:"max_parse_depth"`
	Color         string `yaml:"color"`
	Prompt        string `yaml:"prompt"`
	HistoryFile   string `yaml:"history_file"`
	Trace         bool   `yaml:"trace"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		MaxDepth:      evaluator.DefaultMaxDepth,
		MaxParseDepth: parser.DefaultMaxDepth,
		Color:         ColorAuto,
		Prompt:        "smoke> ",
		HistoryFile:   "~/.smoke/history",
	}
}

// Validate checks that every field holds a usable value.
func (c *Config) Validate() error {
	if c.MaxDepth <= 0 {
		return errors.Errorf("max_depth must be positive, got %d", c.MaxDepth)
	}
	if c.MaxParseDepth <= 0 {
		return errors.Errorf("max_parse_depth must be positive, got %d", c.MaxParseDepth)
	}
	switch c.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return errors.Errorf("color must be one of auto, always, never; got %q", c.Color)
	}
	return nil
}

// Load resolves configuration.
// Precedence: explicit path → project (.smoke.yaml) → user (~/.smoke/config.yaml) → defaults.
// An explicit path must exist; the other files are optional. The returned
// path names the file that was used, or is empty for defaults.
func Load(explicit, projectDir string) (*Config, string, error) {
	if explicit != "" {
		cfg, err := LoadFile(explicit)
		if err != nil {
			return nil, "", err
		}
		return cfg, explicit, nil
	}

	candidates := []string{filepath.Join(projectDir, ProjectFile)}
	if homeDir, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(homeDir, UserFile))
	}

	for _, path := range candidates {
		cfg, err := LoadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, "", err
		}
		return cfg, path, nil
	}

	return Default(), "", nil
}

// LoadFile reads a single configuration file. Keys it omits keep their
// defaults; unknown keys are rejected.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %s", path)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "loading config %s", path)
	}
	return cfg, nil
}

// Parse decodes YAML configuration over the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "decoding yaml")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(homeDir, path[2:])
}
