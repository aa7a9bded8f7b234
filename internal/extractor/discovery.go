package extractor

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// compiledPattern holds both the pattern string and compiled glob
type compiledPattern struct {
	pattern string
	glob    glob.Glob
}

// FileDiscovery finds source files under a root using include and ignore globs.
type FileDiscovery struct {
	rootDir         string
	includePatterns []compiledPattern
	ignorePatterns  []compiledPattern
}

// NewFileDiscovery creates a new file discovery instance.
func NewFileDiscovery(rootDir string, includePatterns, ignorePatterns []string) (*FileDiscovery, error) {
	fd := &FileDiscovery{
		rootDir: rootDir,
	}

	var err error
	if fd.includePatterns, err = compilePatterns(includePatterns); err != nil {
		return nil, err
	}
	if fd.ignorePatterns, err = compilePatterns(ignorePatterns); err != nil {
		return nil, err
	}
	return fd, nil
}

func compilePatterns(patterns []string) ([]compiledPattern, error) {
	compiled := make([]compiledPattern, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, compiledPattern{pattern: pattern, glob: g})
	}
	return compiled, nil
}

// DiscoverFiles walks the directory tree and returns matching files in lexical order.
// Ignored directories are pruned rather than walked.
func (fd *FileDiscovery) DiscoverFiles() ([]string, error) {
	files := []string{}

	err := filepath.WalkDir(fd.rootDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(fd.rootDir, path)
		if err != nil {
			return err
		}
		if relPath == "." {
			return nil
		}

		// Normalize path separators for glob matching
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if fd.shouldIgnore(relPath) {
				return filepath.SkipDir
			}
			return nil
		}

		if fd.shouldIgnore(relPath) {
			return nil
		}

		if fd.matchesAnyPattern(relPath, fd.includePatterns) {
			files = append(files, path)
		}
		return nil
	})

	return files, err
}

// shouldIgnore checks if a path matches any ignore pattern.
func (fd *FileDiscovery) shouldIgnore(relPath string) bool {
	// Always ignore .cortex directory
	if strings.HasPrefix(relPath, ".cortex/") || relPath == ".cortex" {
		return true
	}

	if fd.matchesAnyPattern(relPath, fd.ignorePatterns) {
		return true
	}

	// A directory such as "node_modules" should match the pattern "node_modules/**".
	return fd.matchesAnyPattern(relPath+"/**", fd.ignorePatterns)
}

// matchesAnyPattern checks if a path matches any of the given patterns.
func (fd *FileDiscovery) matchesAnyPattern(path string, patterns []compiledPattern) bool {
	for _, cp := range patterns {
		if cp.glob.Match(path) {
			return true
		}
	}

	// "**/*.py" should match "main.py" at the root as well as "pkg/main.py".
	if !strings.Contains(path, "/") {
		for _, cp := range patterns {
			if strings.HasPrefix(cp.pattern, "**/") {
				simplified := strings.TrimPrefix(cp.pattern, "**/")
				if simplifiedGlob, err := glob.Compile(simplified, '/'); err == nil {
					if simplifiedGlob.Match(path) {
						return true
					}
				}
			}
		}
	}

	return false
}

// Matches reports whether the file at path, absolute or relative to the
// root, would be returned by DiscoverFiles.
func (fd *FileDiscovery) Matches(path string) bool {
	relPath, ok := fd.relative(path)
	if !ok {
		return false
	}
	if fd.shouldIgnore(relPath) || fd.ignoredAncestor(relPath) {
		return false
	}
	return fd.matchesAnyPattern(relPath, fd.includePatterns)
}

// SkipsDir reports whether DiscoverFiles prunes the directory at path.
func (fd *FileDiscovery) SkipsDir(path string) bool {
	relPath, ok := fd.relative(path)
	if !ok {
		return true
	}
	if relPath == "." {
		return false
	}
	return fd.shouldIgnore(relPath) || fd.ignoredAncestor(relPath)
}

func (fd *FileDiscovery) relative(path string) (string, bool) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(fd.rootDir, path)
	}
	relPath, err := filepath.Rel(fd.rootDir, path)
	if err != nil || relPath == ".." || strings.HasPrefix(relPath, "../") {
		return "", false
	}
	return filepath.ToSlash(relPath), true
}

// ignoredAncestor checks the parent directories of relPath, which the walk
// would have pruned.
func (fd *FileDiscovery) ignoredAncestor(relPath string) bool {
	for dir := filepath.ToSlash(filepath.Dir(relPath)); dir != "." && dir != "/"; dir = filepath.ToSlash(filepath.Dir(dir)) {
		if fd.shouldIgnore(dir) {
			return true
		}
	}
	return false
}
