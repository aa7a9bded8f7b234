// Package config provides configuration loading for cortex-extract.
//
// Settings are read from .cortex/extract.yml (or .yaml) under the project
// root, with CORTEX_EXTRACT_* environment variables taking precedence.
// Command-line flags override both.
package config

import "time"

// Config represents the complete extraction configuration.
type Config struct {
	Paths     PathsConfig  `yaml:"paths" mapstructure:"paths"`
	Batch     BatchConfig  `yaml:"batch" mapstructure:"batch"`
	Output    OutputConfig `yaml:"output" mapstructure:"output"`
	Watch     WatchConfig  `yaml:"watch" mapstructure:"watch"`
	Cache     CacheConfig  `yaml:"cache" mapstructure:"cache"`
	Languages []string     `yaml:"languages" mapstructure:"languages"` // enabled language keys; empty enables all
}

// PathsConfig defines which files batch mode extracts and which it skips.
type PathsConfig struct {
	Include []string `yaml:"include" mapstructure:"include"` // glob patterns for source files
	Ignore  []string `yaml:"ignore" mapstructure:"ignore"`   // glob patterns to ignore
}

// BatchConfig controls concurrent extraction.
type BatchConfig struct {
	Workers     int           `yaml:"workers" mapstructure:"workers"`           // 0 means one per CPU
	FileTimeout time.Duration `yaml:"file_timeout" mapstructure:"file_timeout"` // 0 disables the per-file budget
	Progress    bool          `yaml:"progress" mapstructure:"progress"`
}

// OutputConfig controls JSON rendering.
type OutputConfig struct {
	Pretty bool `yaml:"pretty" mapstructure:"pretty"`
}

// WatchConfig controls watch mode.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce" mapstructure:"debounce"` // quiet period before re-extracting
}

// CacheConfig controls the result cache of the MCP server.
type CacheConfig struct {
	Capacity int `yaml:"capacity" mapstructure:"capacity"` // cached results; 0 disables caching
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			Include: []string{
				"**/*.py",
				"**/*.pyi",
				"**/*.ts",
				"**/*.tsx",
				"**/*.js",
				"**/*.jsx",
				"**/*.mjs",
				"**/*.cjs",
				"**/*.java",
				"**/*.rs",
				"**/*.rb",
				"**/*.php",
				"**/*.c",
				"**/*.h",
			},
			Ignore: []string{
				"node_modules/**",
				"**/node_modules/**",
				"vendor/**",
				".git/**",
				"dist/**",
				"build/**",
				"target/**",
				"**/__pycache__/**",
				".venv/**",
				"*.pyc",
			},
		},
		Batch: BatchConfig{
			Workers:     0,
			FileTimeout: 10 * time.Second,
			Progress:    true,
		},
		Output: OutputConfig{
			Pretty: false,
		},
		Watch: WatchConfig{
			Debounce: 500 * time.Millisecond,
		},
		Cache: CacheConfig{
			Capacity: 4096,
		},
		Languages: []string{},
	}
}
