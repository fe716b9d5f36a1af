package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration options for aiready.
type Config struct {
	// Pattern detection settings
	Patterns PatternConfig `koanf:"patterns" toml:"patterns"`

	// File exclusion patterns
	Exclude ExcludeConfig `koanf:"exclude" toml:"exclude"`

	// Output settings
	Output OutputConfig `koanf:"output" toml:"output"`
}

// PatternConfig controls the near-duplicate pattern detection engine.
type PatternConfig struct {
	MinSimilarity         float64  `koanf:"min_similarity" toml:"min_similarity"`
	MinLines              int      `koanf:"min_lines" toml:"min_lines"`
	BatchSize             int      `koanf:"batch_size" toml:"batch_size"`
	Approx                bool     `koanf:"approx" toml:"approx"`
	MinSharedTokens       int      `koanf:"min_shared_tokens" toml:"min_shared_tokens"`
	MaxCandidatesPerBlock int      `koanf:"max_candidates_per_block" toml:"max_candidates_per_block"`
	StreamResults         bool     `koanf:"stream_results" toml:"stream_results"`
	Include               []string `koanf:"include" toml:"include"`
	Exclude               []string `koanf:"exclude" toml:"exclude"`
}

// ExcludeConfig defines file exclusion patterns applied while scanning.
type ExcludeConfig struct {
	Patterns   []string `koanf:"patterns" toml:"patterns"`
	Extensions []string `koanf:"extensions" toml:"extensions"`
	Dirs       []string `koanf:"dirs" toml:"dirs"`
	Gitignore  bool     `koanf:"gitignore" toml:"gitignore"`
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format  string `koanf:"format" toml:"format"` // text, json, markdown, toon
	Color   bool   `koanf:"color" toml:"color"`
	Verbose bool   `koanf:"verbose" toml:"verbose"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Patterns: PatternConfig{
			MinSimilarity:         0.40,
			MinLines:              5,
			BatchSize:             100,
			Approx:                true,
			MinSharedTokens:       8,
			MaxCandidatesPerBlock: 100,
			StreamResults:         true,
		},
		Exclude: ExcludeConfig{
			Patterns: []string{
				"*_test.go",
				"*.test.ts",
				"*.test.tsx",
				"*_test.py",
				"*.min.js",
			},
			Extensions: []string{
				".lock",
				".sum",
			},
			Dirs: []string{
				"vendor",
				"node_modules",
				".git",
				".aiready",
				"dist",
				"build",
				"__pycache__",
			},
			Gitignore: true,
		},
		Output: OutputConfig{
			Format:  "text",
			Color:   true,
			Verbose: false,
		},
	}
}

// Load loads configuration from a file, picking the parser by extension.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// FindDefault returns the first config file present in the standard
// search locations, or "" when none exists.
func FindDefault() string {
	configNames := []string{
		"aiready.toml",
		"aiready.yaml",
		"aiready.yml",
		"aiready.json",
		".aiready.toml",
		".aiready.yaml",
		".aiready.yml",
		".aiready.json",
	}

	searchDirs := []string{".", ".aiready"}

	for _, dir := range searchDirs {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// LoadOrDefault tries standard config locations or returns defaults.
func LoadOrDefault() *Config {
	if path := FindDefault(); path != "" {
		if cfg, err := Load(path); err == nil {
			return cfg
		}
	}
	return DefaultConfig()
}

// Normalize clamps out-of-range pattern settings to the nearest valid
// bound, returning one warning per adjustment. Configuration mistakes
// degrade a CI run; they never crash it.
func (c *Config) Normalize() []string {
	var warnings []string
	p := &c.Patterns

	if p.MinSimilarity < 0 {
		warnings = append(warnings, fmt.Sprintf("patterns.min_similarity %.2f below 0, using 0", p.MinSimilarity))
		p.MinSimilarity = 0
	} else if p.MinSimilarity > 1 {
		warnings = append(warnings, fmt.Sprintf("patterns.min_similarity %.2f above 1, using 1", p.MinSimilarity))
		p.MinSimilarity = 1
	}
	if p.MinLines < 1 {
		warnings = append(warnings, fmt.Sprintf("patterns.min_lines %d below 1, using 1", p.MinLines))
		p.MinLines = 1
	}
	if p.BatchSize < 1 {
		warnings = append(warnings, fmt.Sprintf("patterns.batch_size %d below 1, using 1", p.BatchSize))
		p.BatchSize = 1
	}
	if p.MinSharedTokens < 0 {
		warnings = append(warnings, fmt.Sprintf("patterns.min_shared_tokens %d below 0, using 0", p.MinSharedTokens))
		p.MinSharedTokens = 0
	}
	if p.MaxCandidatesPerBlock < 1 {
		warnings = append(warnings, fmt.Sprintf("patterns.max_candidates_per_block %d below 1, using 1", p.MaxCandidatesPerBlock))
		p.MaxCandidatesPerBlock = 1
	}

	return warnings
}

// ShouldExclude checks if a path should be excluded from analysis.
func (c *Config) ShouldExclude(path string) bool {
	for _, dir := range c.Exclude.Dirs {
		if strings.Contains(path, string(filepath.Separator)+dir+string(filepath.Separator)) ||
			strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}

	ext := filepath.Ext(path)
	for _, excludeExt := range c.Exclude.Extensions {
		if ext == excludeExt {
			return true
		}
	}

	base := filepath.Base(path)
	for _, pattern := range c.Exclude.Patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}

	return false
}
