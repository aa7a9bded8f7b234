package extractor

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mvp-joe/cortex-extract/internal/extractor/extraction"
	"github.com/mvp-joe/cortex-extract/internal/extractor/parsers"
)

// Extractor produces the structural summary of a single file.
type Extractor interface {
	// Extract reads the file at path and returns its imports and exports.
	// Syntax errors degrade the result instead of failing; an error is only
	// returned when no extraction could run (missing path, unreadable file,
	// unsupported language).
	Extract(ctx context.Context, path string) (*extraction.Result, error)

	// Supports reports whether a file would be routed to a language extractor.
	Supports(path string) bool
}

// multiLanguageExtractor routes files to a tree-sitter extractor by extension.
type multiLanguageExtractor struct {
	parsers  map[string]parsers.Extractor
	enabled  map[string]bool
	override string
	cache    *ResultCache
}

// Option configures an Extractor.
type Option func(*multiLanguageExtractor)

// WithLanguage forces every file through the extractor for lang
// regardless of its extension.
func WithLanguage(lang string) Option {
	return func(e *multiLanguageExtractor) {
		e.override = strings.ToLower(lang)
	}
}

// WithEnabledLanguages restricts routing to the given language keys.
// An empty list enables every language.
func WithEnabledLanguages(langs []string) Option {
	return func(e *multiLanguageExtractor) {
		if len(langs) == 0 {
			return
		}
		e.enabled = make(map[string]bool, len(langs))
		for _, lang := range langs {
			e.enabled[strings.ToLower(lang)] = true
		}
	}
}

// New creates an Extractor that supports all languages.
func New(opts ...Option) Extractor {
	e := &multiLanguageExtractor{
		parsers: map[string]parsers.Extractor{
			"py":   parsers.NewPythonParser(),
			"ts":   parsers.NewTypeScriptParser(),
			"tsx":  parsers.NewTSXParser(),
			"js":   parsers.NewJavaScriptParser(),
			"java": parsers.NewJavaParser(),
			"rs":   parsers.NewRustParser(),
			"rb":   parsers.NewRubyParser(),
			"php":  parsers.NewPhpParser(),
			"c":    parsers.NewCParser(),
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Languages returns the language keys accepted by WithLanguage and WithEnabledLanguages.
func Languages() []string {
	return []string{"py", "ts", "tsx", "js", "java", "rs", "rb", "php", "c"}
}

// Supports reports whether path has a routable language.
func (e *multiLanguageExtractor) Supports(path string) bool {
	_, _, err := e.parserFor(path)
	return err == nil
}

// Extract reads, parses and assembles the result for one file.
func (e *multiLanguageExtractor) Extract(ctx context.Context, path string) (*extraction.Result, error) {
	if path == "" {
		return nil, extraction.ErrMissingPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path %s: %w", path, err)
	}

	lang, parser, err := e.parserFor(absPath)
	if err != nil {
		return nil, err
	}

	var info os.FileInfo
	if e.cache != nil {
		if info, err = os.Stat(absPath); err == nil {
			if cached, ok := e.cache.get(lang, absPath, info); ok {
				return cached, nil
			}
		}
	}

	startTime := time.Now()

	source, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", absPath, err)
	}

	result := &extraction.Result{
		File:    absPath,
		Lang:    parser.Lang(),
		Imports: []extraction.ImportRecord{},
		Exports: []extraction.ExportRecord{},
	}

	structure, err := parser.Extract(ctx, source)
	switch {
	case err == nil:
		result.Imports = structure.Imports
		result.Exports = structure.Exports
		for _, issue := range structure.Issues {
			log.Printf("Warning: %s: %v", absPath, issue)
		}
	case extraction.IsSyntaxError(err):
		log.Printf("Warning: %s: %v", absPath, err)
		result.Meta.SyntaxError = true
	default:
		return nil, fmt.Errorf("failed to extract %s: %w", absPath, err)
	}

	result.Meta.ParseMs = time.Since(startTime).Milliseconds()
	if info != nil {
		e.cache.put(lang, absPath, info, result)
	}
	return result, nil
}

// parserFor picks the routing key and extractor for path, honoring the
// override and the enabled set.
func (e *multiLanguageExtractor) parserFor(path string) (string, parsers.Extractor, error) {
	lang := e.override
	if lang == "" {
		lang = detectLanguage(path)
	}

	parser, ok := e.parsers[lang]
	if !ok || (e.enabled != nil && !e.enabled[lang]) {
		return "", nil, fmt.Errorf("%w: %s", extraction.ErrUnsupportedLanguage, filepath.Base(path))
	}
	return lang, parser, nil
}

// detectLanguage maps a file extension to a language key.
func detectLanguage(filePath string) string {
	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".py", ".pyi":
		return "py"
	case ".ts", ".mts", ".cts":
		return "ts"
	case ".tsx":
		return "tsx"
	case ".js", ".jsx", ".mjs", ".cjs":
		return "js"
	case ".java":
		return "java"
	case ".rs":
		return "rs"
	case ".rb":
		return "rb"
	case ".php":
		return "php"
	case ".c", ".h":
		return "c"
	default:
		return "unknown"
	}
}
