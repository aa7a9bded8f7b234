package cli

// Test Plan for the extraction commands:
// - no argument prints {"error":"missing file path"}
// - a file argument prints the result document with an absolute path
// - unreadable and unsupported files print an error document
// - --pretty indents and non-ASCII text is not escaped
// - --lang forces a language
// - malformed root flags print an error document and exit 0; subcommand errors exit 1
// - "--" lets a file named like a subcommand be extracted
// - batch streams one line per discovered file in path order
// - version prints build information

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/cortex-extract/internal/config"
	"github.com/mvp-joe/cortex-extract/internal/extractor"
	"github.com/mvp-joe/cortex-extract/internal/extractor/extraction"
)

// executeRoot runs the root command with args and returns stdout.
// Not parallel-safe: flags are package-level.
func executeRoot(t *testing.T, args ...string) string {
	t.Helper()

	t.Cleanup(func() {
		cfgFile = ""
		langFlag = ""
		prettyFlag = false
		verbose = false
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
	})

	// Point --config at a file that does not exist so the working directory's
	// settings never leak into the test; defaults apply with a warning.
	args = append([]string{"--config", filepath.Join(t.TempDir(), "none.yml")}, args...)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

// executeTree runs the full command tree through execute and returns the exit code and stdout.
func executeTree(t *testing.T, args ...string) (int, string) {
	t.Helper()

	t.Cleanup(func() {
		cfgFile = ""
		langFlag = ""
		prettyFlag = false
		verbose = false
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
	})

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	return execute(), out.String()
}

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRootCommand_MissingPath(t *testing.T) {
	out := executeRoot(t)
	assert.Equal(t, "{\"error\":\"missing file path\"}\n", out)
}

func TestRootCommand_ExtractsFile(t *testing.T) {
	path := writeSource(t, t.TempDir(), "mod.py", "import os\nfrom a.b import c as d, e\n")

	out := executeRoot(t, path)

	var result extraction.Result
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, path, result.File)
	assert.Equal(t, "py", result.Lang)
	assert.Equal(t, []extraction.ImportRecord{
		{Source: "os", Specifiers: []string{"*"}},
		{Source: "a.b", Specifiers: []string{"c", "e"}},
	}, result.Imports)
	assert.Contains(t, out, `"exports":[]`)
	assert.Equal(t, 1, strings.Count(out, "\n"), "exactly one document")
}

func TestRootCommand_FlagErrorsAreErrorDocuments(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{name: "invalid bool", args: []string{"--pretty=maybe", "x.py"}, expected: "--pretty"},
		{name: "missing flag value", args: []string{"x.py", "--config"}, expected: "--config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out := executeTree(t, tt.args...)
			assert.Equal(t, 0, code)
			assert.Equal(t, 1, strings.Count(out, "\n"), "exactly one document")

			var doc map[string]interface{}
			require.NoError(t, json.Unmarshal([]byte(out), &doc))
			assert.Len(t, doc, 1)
			assert.Contains(t, doc["error"], tt.expected)
		})
	}
}

func TestRootCommand_DoubleDashExtractsSubcommandName(t *testing.T) {
	code, out := executeTree(t, "--config", filepath.Join(t.TempDir(), "none.yml"), "--", "version")
	assert.Equal(t, 0, code)
	assert.NotContains(t, out, "cortex-extract ")

	var doc extraction.ErrorDocument
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Contains(t, doc.Error, "unsupported language")
}

func TestExecute_SubcommandErrorsExitNonZero(t *testing.T) {
	code, out := executeTree(t, "batch", "--timeout", "soon")
	assert.Equal(t, 1, code)
	assert.Empty(t, out)
}

func TestRootCommand_SyntaxError(t *testing.T) {
	path := writeSource(t, t.TempDir(), "bad.py", "def f(:\n")

	out := executeRoot(t, path)
	assert.Contains(t, out, `"imports":[]`)
	assert.Contains(t, out, `"exports":[]`)
	assert.Contains(t, out, `"syntaxError":true`)
}

func TestRootCommand_ErrorDocuments(t *testing.T) {
	dir := t.TempDir()

	out := executeRoot(t, filepath.Join(dir, "missing.py"))
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Len(t, doc, 1)
	assert.Contains(t, doc["error"], "missing.py")

	unsupported := writeSource(t, dir, "notes.txt", "text\n")
	out = executeRoot(t, unsupported)
	doc = map[string]interface{}{}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Contains(t, doc["error"], "unsupported language")
}

func TestRootCommand_PrettyAndUnescaped(t *testing.T) {
	path := writeSource(t, t.TempDir(), "mod.py", "café = '<b>'\n")

	out := executeRoot(t, "--pretty", path)
	assert.Contains(t, out, "\n  \"file\": ")
	assert.Contains(t, out, `"name": "café"`)
}

func TestRootCommand_LangOverride(t *testing.T) {
	path := writeSource(t, t.TempDir(), "script", "import sys\n")

	out := executeRoot(t, "--lang", "py", path)
	assert.Contains(t, out, `"lang":"py"`)
	assert.Contains(t, out, `"source":"sys"`)
}

func TestExtractDocument_UsesExtractor(t *testing.T) {
	path := writeSource(t, t.TempDir(), "a.rb", "require 'json'\n")

	doc := extractDocument(context.Background(), extractor.New(), path)
	result, ok := doc.(*extraction.Result)
	require.True(t, ok)
	assert.Equal(t, "rb", result.Lang)

	doc = extractDocument(context.Background(), extractor.New(), "")
	assert.Equal(t, extraction.ErrorDocument{Error: "missing file path"}, doc)
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, map[string]string{"k": "<ü>"}, false))
	assert.Equal(t, "{\"k\":\"<ü>\"}\n", buf.String())

	buf.Reset()
	require.NoError(t, writeJSON(&buf, map[string]int{"k": 1}, true))
	assert.Equal(t, "{\n  \"k\": 1\n}\n", buf.String())
}

func TestExtractBatch_StreamsOrderedLines(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "b.py", "import os\n")
	writeSource(t, dir, "a.py", "x = 1\n")
	writeSource(t, dir, "sub/c.ts", "export function f() {}\n")
	writeSource(t, dir, "node_modules/pkg/index.js", "module.exports = {};\n")
	writeSource(t, dir, "README.md", "# readme\n")

	var out bytes.Buffer
	stats, err := extractBatch(context.Background(), &out, dir, config.Default(), NewCLIProgressReporter(true))
	require.NoError(t, err)
	assert.Equal(t, 3, stats.FilesProcessed)

	var files []string
	scanner := bufio.NewScanner(&out)
	for scanner.Scan() {
		var result extraction.Result
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &result))
		files = append(files, result.File)
	}
	assert.Equal(t, []string{
		filepath.Join(dir, "a.py"),
		filepath.Join(dir, "b.py"),
		filepath.Join(dir, "sub/c.ts"),
	}, files)
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	t.Cleanup(func() { versionCmd.SetOut(nil) })

	versionCmd.Run(versionCmd, nil)
	assert.Contains(t, out.String(), "cortex-extract dev")
}
