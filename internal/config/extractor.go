package config

import (
	"github.com/mvp-joe/cortex-extract/internal/extractor"
)

// ExtractorOptions converts the language settings to extractor options.
// lang, when non-empty, forces a single language for every file.
func (c *Config) ExtractorOptions(lang string) []extractor.Option {
	opts := []extractor.Option{
		extractor.WithEnabledLanguages(c.Languages),
	}
	if lang != "" {
		opts = append(opts, extractor.WithLanguage(lang))
	}
	return opts
}

// ProcessorOptions converts the batch settings to processor options.
func (c *Config) ProcessorOptions(progress extractor.ProgressReporter) []extractor.ProcessorOption {
	return []extractor.ProcessorOption{
		extractor.WithWorkers(c.Batch.Workers),
		extractor.WithFileTimeout(c.Batch.FileTimeout),
		extractor.WithProgress(progress),
	}
}

// NewFileDiscovery creates a discovery instance for rootDir from the path settings.
func (c *Config) NewFileDiscovery(rootDir string) (*extractor.FileDiscovery, error) {
	return extractor.NewFileDiscovery(rootDir, c.Paths.Include, c.Paths.Ignore)
}
