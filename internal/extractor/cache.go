package extractor

import (
	"fmt"
	"os"
	"time"

	"github.com/maypok86/otter"

	"github.com/mvp-joe/cortex-extract/internal/extractor/extraction"
)

// ResultCache holds extraction results keyed by file and language. An entry
// is reused only while the file's size and modification time are unchanged.
type ResultCache struct {
	cache otter.Cache[string, cachedResult]
}

type cachedResult struct {
	modTime time.Time
	size    int64
	result  extraction.Result
}

// NewResultCache creates a cache holding at most capacity results.
func NewResultCache(capacity int) (*ResultCache, error) {
	c, err := otter.MustBuilder[string, cachedResult](capacity).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build result cache: %w", err)
	}
	return &ResultCache{cache: c}, nil
}

// Close releases the cache's background resources.
func (c *ResultCache) Close() {
	c.cache.Close()
}

func (c *ResultCache) get(lang, path string, info os.FileInfo) (*extraction.Result, bool) {
	entry, ok := c.cache.Get(cacheKey(lang, path))
	if !ok || entry.size != info.Size() || !entry.modTime.Equal(info.ModTime()) {
		return nil, false
	}
	result := entry.result
	return &result, true
}

func (c *ResultCache) put(lang, path string, info os.FileInfo, result *extraction.Result) {
	c.cache.Set(cacheKey(lang, path), cachedResult{
		modTime: info.ModTime(),
		size:    info.Size(),
		result:  *result,
	})
}

func cacheKey(lang, path string) string {
	return lang + ":" + path
}

// WithCache reuses results from c for files that have not changed.
func WithCache(c *ResultCache) Option {
	return func(e *multiLanguageExtractor) {
		e.cache = c
	}
}
