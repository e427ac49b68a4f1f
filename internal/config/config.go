// Package config provides configuration loading and discovery for prebake.
//
// Configuration is loaded from multiple sources with the following priority
// (highest to lowest):
//  1. CLI flags
//  2. Environment variables (PREBAKE_* prefix)
//  3. Config file (closest .prebake.toml or prebake.toml)
//  4. Built-in defaults
//
// Config file discovery follows a cascading pattern similar to Ruff:
// starting from the scanned root's directory, walk up the filesystem
// until a config file is found. The closest config wins (no merging).
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigFileNames defines the config file names to search for, in priority order.
var ConfigFileNames = []string{".prebake.toml", "prebake.toml"}

// EnvPrefix is the prefix for environment variables.
const EnvPrefix = "PREBAKE_"

// Output mode values, per the CLI's --output flag (config key output-mode).
const (
	OutputModeOmit     = 0
	OutputModeRegistry = 1
	OutputModeLocal    = 2
	OutputModeBoth     = 3
)

// Config represents the complete prebake configuration.
type Config struct {
	// OutputFile is the destination for the emitted plan. Defaults depend
	// on FileFormat ("docker.hcl" or "docker.json") and are applied after
	// load if left empty.
	OutputFile string `koanf:"output-file"`

	// Tag is applied to crossover stages only. Default "prebake".
	Tag string `koanf:"tag"`

	// FileFormat selects the emitter: "hcl" or "json".
	FileFormat string `koanf:"file-format"`

	// OutputMode controls per-target output directives for crossover
	// stages: 0 omit, 1 registry, 2 local, 3 both.
	OutputMode int `koanf:"output-mode"`

	// OptimizeBudget is the number of brute-force optimizer attempts.
	// 0 disables optimization.
	OptimizeBudget int `koanf:"optimize-budget"`

	// Cores bounds the optimizer's worker pool. 0 means auto (detected
	// processor count minus one); any nonzero request is still capped at
	// that ceiling.
	Cores int `koanf:"cores"`

	// Verbose enables progress logging during discovery, closure, and
	// optimization.
	Verbose bool `koanf:"verbose"`

	// Exclude lists glob patterns of build files to skip during discovery.
	Exclude []string `koanf:"exclude"`

	// ConfigFile is the path to the config file that was loaded (if any).
	// This is metadata, not loaded from config.
	ConfigFile string `koanf:"-"`
}

// DefaultOutputFile returns the emitter's default output path for format.
func DefaultOutputFile(format string) string {
	if format == "json" {
		return "./docker.json"
	}
	return "./docker.hcl"
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Tag:            "prebake",
		FileFormat:     "hcl",
		OutputMode:     OutputModeOmit,
		OptimizeBudget: 0,
		Cores:          0,
		Verbose:        false,
	}
}

// Load loads configuration for a scanned root directory.
// It discovers the closest config file, loads it, and applies
// environment variable overrides.
func Load(rootDir string) (*Config, error) {
	return loadWithConfigPath(Discover(rootDir))
}

// LoadFromFile loads configuration from a specific config file path.
// Unlike Load, it does not perform config discovery.
func LoadFromFile(configPath string) (*Config, error) {
	return loadWithConfigPath(configPath)
}

// loadWithConfigPath is an internal helper that loads config with an optional config file path.
func loadWithConfigPath(configPath string) (*Config, error) {
	k := koanf.New(".")

	// 1. Load defaults
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, err
	}

	// 2. Load config file if provided
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, err
		}
	}

	// 3. Load environment variables (PREBAKE_* prefix)
	// PREBAKE_OPTIMIZE_BUDGET -> optimize-budget
	if err := k.Load(env.Provider(EnvPrefix, ".", envKeyTransform), nil); err != nil {
		return nil, err
	}

	// 4. Unmarshal into config struct
	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	cfg.ConfigFile = configPath
	if cfg.OutputFile == "" {
		cfg.OutputFile = DefaultOutputFile(cfg.FileFormat)
	}
	return cfg, nil
}

// knownHyphenatedKeys maps dot-separated patterns to their hyphenated equivalents.
// Add new entries here when adding fields with hyphenated names.
var knownHyphenatedKeys = map[string]string{
	"output.file":     "output-file",
	"file.format":     "file-format",
	"output.mode":     "output-mode",
	"optimize.budget": "optimize-budget",
}

// envKeyTransform converts environment variable names to config keys.
// PREBAKE_TAG -> tag
// PREBAKE_OPTIMIZE_BUDGET -> optimize-budget
func envKeyTransform(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "_", ".")
	for pattern, replacement := range knownHyphenatedKeys {
		s = strings.ReplaceAll(s, pattern, replacement)
	}
	return s
}

// Discover finds the closest config file for a scanned root directory.
// It walks up the directory tree from rootDir, checking for config files
// at each level. Returns empty string if no config file is found.
func Discover(rootDir string) string {
	absPath, err := filepath.Abs(rootDir)
	if err != nil {
		return ""
	}

	dir := absPath
	if info, statErr := os.Stat(absPath); statErr == nil && !info.IsDir() {
		dir = filepath.Dir(absPath)
	}

	for {
		for _, name := range ConfigFileNames {
			configPath := filepath.Join(dir, name)
			if fileExists(configPath) {
				return configPath
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
