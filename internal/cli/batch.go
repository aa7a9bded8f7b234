package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/cortex-extract/internal/config"
	"github.com/mvp-joe/cortex-extract/internal/extractor"
	"github.com/mvp-joe/cortex-extract/internal/extractor/extraction"
)

var (
	quietFlag    bool
	workersFlag  int
	timeoutFlag  time.Duration
	includeFlags []string
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch [root]",
	Short: "Extract every matching file under a directory",
	Long: `Batch discovers source files under root (default: the current directory)
using the include and ignore globs from .cortex/extract.yml, extracts them
concurrently and prints one JSON document per line in path order.

Files that cannot be read or exceed the per-file timeout produce
{"file": ..., "error": ...} lines. A progress bar and summary are written to
stderr.

Examples:
  # Extract the current project
  cortex-extract batch > structure.ndjson

  # Only Python files, 8 workers, 2s budget per file
  cortex-extract batch src --include '**/*.py' --workers 8 --timeout 2s
`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)
	batchCmd.Flags().BoolVarP(&quietFlag, "quiet", "q", false, "Disable progress bars and non-error output")
	batchCmd.Flags().IntVar(&workersFlag, "workers", 0, "Files extracted at once (default: batch.workers, or one per CPU)")
	batchCmd.Flags().DurationVar(&timeoutFlag, "timeout", 0, "Per-file extraction budget (default: batch.file_timeout)")
	batchCmd.Flags().StringSliceVar(&includeFlags, "include", nil, "Glob patterns overriding paths.include")
}

func runBatch(cmd *cobra.Command, args []string) error {
	// Set up context with cancellation for Ctrl+C
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(os.Stderr, "\nInterrupted! Cancelling extraction...")
			cancel()
		case <-ctx.Done():
		}
	}()

	rootDir := "."
	if len(args) > 0 {
		rootDir = args[0]
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cmd.Flags().Changed("workers") {
		cfg.Batch.Workers = workersFlag
	}
	if cmd.Flags().Changed("timeout") {
		cfg.Batch.FileTimeout = timeoutFlag
	}
	if len(includeFlags) > 0 {
		cfg.Paths.Include = includeFlags
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	progress := NewCLIProgressReporter(quietFlag || !cfg.Batch.Progress)
	_, err = extractBatch(ctx, cmd.OutOrStdout(), rootDir, cfg, progress)
	return err
}

// extractBatch discovers files under rootDir and streams one JSON line per file to w.
func extractBatch(ctx context.Context, w io.Writer, rootDir string, cfg *config.Config, progress extractor.ProgressReporter) (*extractor.Stats, error) {
	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root %s: %w", rootDir, err)
	}

	discovery, err := cfg.NewFileDiscovery(absRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to compile path patterns: %w", err)
	}
	files, err := discovery.DiscoverFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to discover files: %w", err)
	}

	processor := extractor.NewProcessor(
		extractor.New(cfg.ExtractorOptions(langFlag)...),
		cfg.ProcessorOptions(progress)...,
	)

	return processor.ProcessFiles(ctx, files, func(o extractor.Outcome) error {
		if o.Err != nil {
			return writeJSON(w, extraction.ErrorDocument{File: o.Path, Error: o.Err.Error()}, false)
		}
		return writeJSON(w, o.Result, false)
	})
}
