// Package config holds the promptshuffle configuration surface: section
// delimiters, separator, priority settings, seeding, and generator knobs.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"promptshuffle/internal/shuffle"
)

// Config holds all promptshuffle configuration.
type Config struct {
	Shuffle   ShuffleConfig   `yaml:"shuffle"`
	Generator GeneratorConfig `yaml:"generator"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ShuffleConfig configures the section rewriter.
type ShuffleConfig struct {
	// StartMarker and EndMarker delimit a shuffle section.
	StartMarker string `yaml:"start_marker"`
	EndMarker   string `yaml:"end_marker"`

	// Separator is the single character tokens are split on.
	Separator string `yaml:"separator"`

	// Priority enables priority stratification with PriorityMarker.
	Priority       bool   `yaml:"priority"`
	PriorityMarker string `yaml:"priority_marker"`

	// SeedScope is "section" (re-seed per section, the default) or
	// "candidate" (one stream across all sections of a candidate).
	SeedScope string `yaml:"seed_scope"`

	// DefaultSeed applies to candidates without an explicit seed. Absent
	// means ambient entropy, i.e. non-reproducible output.
	DefaultSeed *int64 `yaml:"default_seed,omitempty"`
}

// GeneratorConfig configures candidate generation.
type GeneratorConfig struct {
	// Count is the default number of candidates per run.
	Count int `yaml:"count"`

	// MaxParallel bounds concurrent candidate rewrites; 0 means unbounded.
	MaxParallel int `yaml:"max_parallel"`
}

// LoggingConfig configures diagnostic output.
type LoggingConfig struct {
	Verbose bool `yaml:"verbose"`
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() *Config {
	return &Config{
		Shuffle: ShuffleConfig{
			StartMarker:    "$[",
			EndMarker:      "]$",
			Separator:      ",",
			PriorityMarker: "§",
			SeedScope:      string(shuffle.SeedScopeSection),
		},
		Generator: GeneratorConfig{
			Count:       1,
			MaxParallel: 4,
		},
	}
}

// Load reads configuration from a YAML file, applying defaults for anything
// unset. A missing file is not an error; defaults are returned.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("PROMPTSHUFFLE_SEED"); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Shuffle.DefaultSeed = &seed
		}
	}
	if v := os.Getenv("PROMPTSHUFFLE_VERBOSE"); v == "1" || v == "true" {
		c.Logging.Verbose = true
	}
}

// Validate checks the configuration for degenerate values. Delimiter problems
// are rejected here so per-candidate processing never has to care.
func (c *Config) Validate() error {
	if _, err := c.Shuffle.Options(); err != nil {
		return err
	}
	if c.Generator.Count < 0 {
		return fmt.Errorf("config: generator count must not be negative, got %d", c.Generator.Count)
	}
	return nil
}

// Options converts the YAML-level shuffle settings into rewriter options,
// validating them in the process. The protected-syntax collaborator is not
// set here; callers wire it in.
func (s ShuffleConfig) Options() (shuffle.Options, error) {
	opts := shuffle.DefaultOptions()

	if s.StartMarker != "" {
		opts.StartMarker = s.StartMarker
	}
	if s.EndMarker != "" {
		opts.EndMarker = s.EndMarker
	}

	sep, err := singleRune("separator", s.Separator)
	if err != nil {
		return shuffle.Options{}, err
	}
	if sep != 0 {
		opts.Separator = sep
	}

	marker, err := singleRune("priority_marker", s.PriorityMarker)
	if err != nil {
		return shuffle.Options{}, err
	}
	if marker != 0 {
		opts.PriorityMarker = marker
	}

	opts.Priority = s.Priority
	if s.SeedScope != "" {
		opts.SeedScope = shuffle.SeedScope(s.SeedScope)
	}
	opts.DefaultSeed = s.DefaultSeed

	// Run construction once so config validation and rewriter validation
	// cannot drift apart.
	if _, err := shuffle.NewRewriter(opts); err != nil {
		return shuffle.Options{}, fmt.Errorf("config: %w", err)
	}
	return opts, nil
}

// singleRune decodes a one-character option value. Empty means unset.
func singleRune(name, value string) (rune, error) {
	if value == "" {
		return 0, nil
	}
	r, size := utf8.DecodeRuneInString(value)
	if r == utf8.RuneError || size != len(value) {
		return 0, fmt.Errorf("config: %s must be a single character, got %q", name, value)
	}
	return r, nil
}
