// Copyright (c) 2025 Arc Engineering
// SPDX-License-Identifier: MIT

// Package config loads the optional bracefmt configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/yourorg/bracefmt/internal/fixup"
)

// EnvPath names the environment variable consulted when --config is unset.
const EnvPath = "BRACEFMT_CONFIG"

// DefaultFormatter is the formatter used when nothing else is configured.
const DefaultFormatter = "clang-format"

// Replacement is a literal from → to substitution.
type Replacement struct {
	From string `yaml:"from" toml:"from"`
	To   string `yaml:"to" toml:"to"`
}

// Config is the on-disk configuration. Zero fields fall back to defaults.
type Config struct {
	Formatter    string        `yaml:"formatter" toml:"formatter"`
	Args         []string      `yaml:"args" toml:"args"`
	Style        string        `yaml:"style" toml:"style"`
	Replacements []Replacement `yaml:"replacements" toml:"replacements"`
	Strict       bool          `yaml:"strict" toml:"strict"`
}

// Default returns the built-in configuration: clang-format -i followed by
// the ") {" → "){" rewrite.
func Default() Config {
	return Config{
		Formatter:    DefaultFormatter,
		Args:         []string{"-i"},
		Replacements: defaultReplacements(),
	}
}

func defaultReplacements() []Replacement {
	reps := make([]Replacement, 0, len(fixup.DefaultRules))
	for _, r := range fixup.DefaultRules {
		reps = append(reps, Replacement{From: r.From, To: r.To})
	}
	return reps
}

// Resolve picks the config path: the explicit flag value wins, then the
// environment. An empty result means no file should be read.
func Resolve(flagPath string) string {
	if flagPath != "" {
		return flagPath
	}
	return os.Getenv(EnvPath)
}

// Load reads path and layers it over Default. An empty path returns the
// defaults without touching the filesystem.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var file Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), &file); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".yaml", ".yml", "":
		if err := yaml.Unmarshal(data, &file); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return Config{}, fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}

	cfg.merge(file)
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) merge(o Config) {
	if o.Formatter != "" {
		c.Formatter = o.Formatter
	}
	if o.Args != nil {
		c.Args = o.Args
	}
	if o.Style != "" {
		c.Style = o.Style
	}
	if o.Replacements != nil {
		c.Replacements = o.Replacements
	}
	if o.Strict {
		c.Strict = true
	}
}

// Validate reports configuration that would make a run meaningless.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Formatter) == "" {
		return errors.New("formatter must not be empty")
	}
	for i, r := range c.Replacements {
		if r.From == "" {
			return fmt.Errorf("replacements[%d]: from must not be empty", i)
		}
	}
	return nil
}

// FormatterArgs returns the arguments passed to the formatter ahead of the
// file name.
func (c Config) FormatterArgs() []string {
	args := make([]string, 0, len(c.Args)+1)
	if c.Style != "" {
		args = append(args, "-style="+c.Style)
	}
	return append(args, c.Args...)
}
