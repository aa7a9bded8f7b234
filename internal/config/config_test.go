package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Config System:
// - Default() returns valid configuration with all expected defaults
// - Load() uses defaults when no config file exists
// - Load() loads from .cortex/extract.yml and .cortex/extract.yaml
// - Load() merges config file with defaults
// - Environment variables override config file values
// - NewFileLoader() reads an explicit file
// - Load() returns error for malformed YAML and invalid values
// - Validate() rejects bad patterns, negative batch settings and unknown languages
// - Validate() reports multiple errors with every sentinel reachable

func writeConfig(t *testing.T, rootDir, name, content string) string {
	t.Helper()

	cortexDir := filepath.Join(rootDir, ".cortex")
	require.NoError(t, os.MkdirAll(cortexDir, 0755))
	configPath := filepath.Join(cortexDir, name)
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))
	return configPath
}

func TestDefault_ReturnsValidConfiguration(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NotNil(t, cfg)

	assert.Contains(t, cfg.Paths.Include, "**/*.py")
	assert.Contains(t, cfg.Paths.Ignore, "node_modules/**")
	assert.Equal(t, 0, cfg.Batch.Workers)
	assert.Equal(t, 10*time.Second, cfg.Batch.FileTimeout)
	assert.True(t, cfg.Batch.Progress)
	assert.False(t, cfg.Output.Pretty)
	assert.Equal(t, 500*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, 4096, cfg.Cache.Capacity)
	assert.Empty(t, cfg.Languages)

	assert.NoError(t, Validate(cfg))
}

func TestLoadConfig_UsesDefaultsWhenNoConfigFile(t *testing.T) {
	t.Parallel()

	cfg, err := NewLoader(t.TempDir()).Load()
	require.NoError(t, err)

	defaults := Default()
	assert.Equal(t, defaults.Paths.Include, cfg.Paths.Include)
	assert.Equal(t, defaults.Paths.Ignore, cfg.Paths.Ignore)
	assert.Equal(t, defaults.Batch, cfg.Batch)
	assert.Equal(t, defaults.Output, cfg.Output)
}

func TestLoadConfig_LoadsFromConfigFile(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"extract.yml", "extract.yaml"} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			tempDir := t.TempDir()
			writeConfig(t, tempDir, name, `
paths:
  include:
    - "src/**/*.py"
batch:
  workers: 3
  file_timeout: 2s
output:
  pretty: true
languages:
  - py
`)

			cfg, err := NewLoader(tempDir).Load()
			require.NoError(t, err)

			assert.Equal(t, []string{"src/**/*.py"}, cfg.Paths.Include)
			assert.Equal(t, 3, cfg.Batch.Workers)
			assert.Equal(t, 2*time.Second, cfg.Batch.FileTimeout)
			assert.True(t, cfg.Output.Pretty)
			assert.Equal(t, []string{"py"}, cfg.Languages)

			// Not in the file, so defaults apply
			assert.Equal(t, Default().Paths.Ignore, cfg.Paths.Ignore)
			assert.True(t, cfg.Batch.Progress)
		})
	}
}

func TestLoadConfig_EnvironmentVariablesOverrideConfigFile(t *testing.T) {
	// Note: Cannot use t.Parallel() with t.Setenv()
	tempDir := t.TempDir()
	writeConfig(t, tempDir, "extract.yml", `
batch:
  workers: 2
  file_timeout: 5s
`)

	t.Setenv("CORTEX_EXTRACT_BATCH_WORKERS", "8")
	t.Setenv("CORTEX_EXTRACT_OUTPUT_PRETTY", "true")

	cfg, err := NewLoader(tempDir).Load()
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Batch.Workers)
	assert.True(t, cfg.Output.Pretty)
	assert.Equal(t, 5*time.Second, cfg.Batch.FileTimeout)
}

func TestNewFileLoader_ReadsExplicitFile(t *testing.T) {
	t.Parallel()

	configPath := filepath.Join(t.TempDir(), "custom.yml")
	require.NoError(t, os.WriteFile(configPath, []byte("batch:\n  workers: 5\n"), 0644))

	cfg, err := NewFileLoader(configPath).Load()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Batch.Workers)
}

func TestLoadConfig_ReturnsErrorForMalformedYaml(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	writeConfig(t, tempDir, "extract.yml", `
batch:
  workers: "unclosed quote
`)

	cfg, err := NewLoader(tempDir).Load()
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoadConfig_ReturnsErrorForInvalidValues(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	writeConfig(t, tempDir, "extract.yml", `
batch:
  workers: -1
`)

	cfg, err := NewLoader(tempDir).Load()
	assert.ErrorIs(t, err, ErrInvalidWorkers)
	assert.Nil(t, cfg)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{name: "empty include", modify: func(c *Config) { c.Paths.Include = nil }, want: ErrEmptyInclude},
		{name: "bad include pattern", modify: func(c *Config) { c.Paths.Include = []string{"[abc"} }, want: ErrInvalidPattern},
		{name: "bad ignore pattern", modify: func(c *Config) { c.Paths.Ignore = []string{"build/[abc"} }, want: ErrInvalidPattern},
		{name: "negative workers", modify: func(c *Config) { c.Batch.Workers = -2 }, want: ErrInvalidWorkers},
		{name: "negative timeout", modify: func(c *Config) { c.Batch.FileTimeout = -time.Second }, want: ErrInvalidTimeout},
		{name: "negative debounce", modify: func(c *Config) { c.Watch.Debounce = -time.Millisecond }, want: ErrInvalidDebounce},
		{name: "negative cache capacity", modify: func(c *Config) { c.Cache.Capacity = -1 }, want: ErrInvalidCacheCapacity},
		{name: "unknown language", modify: func(c *Config) { c.Languages = []string{"py", "cobol"} }, want: ErrUnknownLanguage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := Default()
			tt.modify(cfg)
			assert.ErrorIs(t, Validate(cfg), tt.want)
		})
	}
}

func TestValidate_ReturnsMultipleErrorsForMultipleInvalidFields(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Batch.Workers = -1
	cfg.Batch.FileTimeout = -time.Second
	cfg.Languages = []string{"cobol"}

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
	assert.ErrorIs(t, err, ErrInvalidWorkers)
	assert.ErrorIs(t, err, ErrInvalidTimeout)
	assert.ErrorIs(t, err, ErrUnknownLanguage)
}

func TestConfig_ExtractorOptions(t *testing.T) {
	t.Parallel()

	cfg := Default()
	assert.Len(t, cfg.ExtractorOptions(""), 1)
	assert.Len(t, cfg.ExtractorOptions("py"), 2)
	assert.Len(t, cfg.ProcessorOptions(nil), 3)

	fd, err := cfg.NewFileDiscovery(t.TempDir())
	require.NoError(t, err)
	assert.NotNil(t, fd)
}
