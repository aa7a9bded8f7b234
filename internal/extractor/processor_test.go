package extractor

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/cortex-extract/internal/extractor/extraction"
)

// Test Plan for the batch processor:
// - outcomes are emitted once per file in input order
// - failures and syntax errors are counted without stopping the batch
// - slow files are discarded after the per-file timeout
// - an emit error stops the batch and is returned
// - progress callbacks fire for every file

// slowExtractor delays extraction of selected files.
type slowExtractor struct {
	Extractor
	delay map[string]time.Duration
}

func (s *slowExtractor) Extract(ctx context.Context, path string) (*extraction.Result, error) {
	if d, ok := s.delay[filepath.Base(path)]; ok {
		time.Sleep(d)
	}
	return s.Extractor.Extract(ctx, path)
}

// countingProgress records progress callbacks.
type countingProgress struct {
	mu        sync.Mutex
	total     int
	processed int
	completed bool
}

func (c *countingProgress) OnDiscoveryComplete(totalFiles int) { c.total = totalFiles }
func (c *countingProgress) OnFileProcessed(fileName string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.processed++
}
func (c *countingProgress) OnComplete(stats *Stats) { c.completed = true }

func TestProcessor_OrderedOutcomes(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	files := []string{
		writeFile(t, dir, "a.py", "import os\n"),
		writeFile(t, dir, "b.py", "def f(:\n"),
		filepath.Join(dir, "missing.py"),
		writeFile(t, dir, "c.rb", "require 'json'\n"),
	}

	ext := &slowExtractor{Extractor: New(), delay: map[string]time.Duration{"a.py": 50 * time.Millisecond}}
	progress := &countingProgress{}
	p := NewProcessor(ext, WithWorkers(4), WithProgress(progress))

	var got []Outcome
	stats, err := p.ProcessFiles(context.Background(), files, func(o Outcome) error {
		got = append(got, o)
		return nil
	})
	require.NoError(t, err)

	require.Len(t, got, 4)
	for i, o := range got {
		assert.Equal(t, files[i], o.Path)
	}
	assert.Equal(t, "py", got[0].Result.Lang)
	assert.True(t, got[1].Result.Meta.SyntaxError)
	assert.Error(t, got[2].Err)
	assert.Equal(t, "rb", got[3].Result.Lang)

	assert.Equal(t, 3, stats.FilesProcessed)
	assert.Equal(t, 1, stats.SyntaxErrors)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 0, stats.TimedOut)

	assert.Equal(t, 4, progress.total)
	assert.Equal(t, 4, progress.processed)
	assert.True(t, progress.completed)
}

func TestProcessor_FileTimeout(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	files := []string{
		writeFile(t, dir, "slow.py", "x = 1\n"),
		writeFile(t, dir, "fast.py", "y = 2\n"),
	}

	ext := &slowExtractor{Extractor: New(), delay: map[string]time.Duration{"slow.py": 500 * time.Millisecond}}
	p := NewProcessor(ext, WithWorkers(2), WithFileTimeout(50*time.Millisecond))

	var got []Outcome
	stats, err := p.ProcessFiles(context.Background(), files, func(o Outcome) error {
		got = append(got, o)
		return nil
	})
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.ErrorIs(t, got[0].Err, ErrFileTimeout)
	assert.Nil(t, got[0].Result)
	require.NoError(t, got[1].Err)
	assert.Equal(t, "y", got[1].Result.Exports[0].Name)
	assert.Equal(t, 1, stats.TimedOut)
	assert.Equal(t, 1, stats.FilesProcessed)
}

func TestProcessor_EmitErrorStops(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	files := []string{
		writeFile(t, dir, "a.py", ""),
		writeFile(t, dir, "b.py", ""),
		writeFile(t, dir, "c.py", ""),
	}

	errSink := errors.New("sink closed")
	calls := 0
	_, err := NewProcessor(New(), WithWorkers(1)).ProcessFiles(context.Background(), files, func(o Outcome) error {
		calls++
		return errSink
	})

	assert.ErrorIs(t, err, errSink)
	assert.Equal(t, 1, calls)
}

func TestProcessor_Empty(t *testing.T) {
	t.Parallel()

	stats, err := NewProcessor(New()).ProcessFiles(context.Background(), nil, func(o Outcome) error {
		t.Fatal("emit called for empty batch")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 0, stats.FilesProcessed)
}

// instantExtractor returns an empty result without touching the filesystem.
type instantExtractor struct{}

func (instantExtractor) Extract(ctx context.Context, path string) (*extraction.Result, error) {
	return &extraction.Result{File: path, Lang: "py", Imports: []extraction.ImportRecord{}, Exports: []extraction.ExportRecord{}}, nil
}

func (instantExtractor) Supports(path string) bool { return true }

func TestProcessor_SlowEmitReceivesEveryOutcome(t *testing.T) {
	t.Parallel()

	files := make([]string, 200)
	for i := range files {
		files[i] = fmt.Sprintf("/src/file%03d.py", i)
	}

	var got []string
	stats, err := NewProcessor(instantExtractor{}, WithWorkers(8)).ProcessFiles(context.Background(), files, func(o Outcome) error {
		time.Sleep(time.Millisecond)
		got = append(got, o.Path)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, files, got)
	assert.Equal(t, 200, stats.FilesProcessed)
}

func TestProcessor_CancelledContextStopsEmitting(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := NewProcessor(instantExtractor{}, WithWorkers(2)).ProcessFiles(ctx, []string{"/a.py", "/b.py"}, func(o Outcome) error {
		calls++
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, calls)
}
