package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables that override settings.
const EnvPrefix = "CORTEX_EXTRACT"

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	rootDir    string
	configFile string
}

// NewLoader creates a new configuration loader for the given root directory.
func NewLoader(rootDir string) Loader {
	return &loader{
		rootDir: rootDir,
	}
}

// NewFileLoader creates a loader that reads an explicit config file instead
// of searching the root's .cortex directory.
func NewFileLoader(configFile string) Loader {
	return &loader{
		configFile: configFile,
	}
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (CORTEX_EXTRACT_*)
// 2. Config file (.cortex/extract.yml or .cortex/extract.yaml)
// 3. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
	} else {
		v.SetConfigName("extract")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Join(l.rootDir, ".cortex"))
	}

	// Replace . with _ in env var names (e.g., CORTEX_EXTRACT_BATCH_WORKERS)
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.BindEnv("paths.include")
	v.BindEnv("paths.ignore")
	v.BindEnv("batch.workers")
	v.BindEnv("batch.file_timeout")
	v.BindEnv("batch.progress")
	v.BindEnv("output.pretty")
	v.BindEnv("watch.debounce")
	v.BindEnv("cache.capacity")
	v.BindEnv("languages")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Config file not found is acceptable - we'll use defaults + env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults configures viper with default values.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("paths.include", defaults.Paths.Include)
	v.SetDefault("paths.ignore", defaults.Paths.Ignore)

	v.SetDefault("batch.workers", defaults.Batch.Workers)
	v.SetDefault("batch.file_timeout", defaults.Batch.FileTimeout)
	v.SetDefault("batch.progress", defaults.Batch.Progress)

	v.SetDefault("output.pretty", defaults.Output.Pretty)
	v.SetDefault("watch.debounce", defaults.Watch.Debounce)
	v.SetDefault("cache.capacity", defaults.Cache.Capacity)
	v.SetDefault("languages", defaults.Languages)
}

// LoadConfig is a convenience function that creates a loader and loads config.
// It uses the current working directory as the root.
func LoadConfig() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return NewLoader(wd).Load()
}

// LoadConfigFromDir loads configuration from a specific directory.
func LoadConfigFromDir(rootDir string) (*Config, error) {
	return NewLoader(rootDir).Load()
}
