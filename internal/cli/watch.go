package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/cortex-extract/internal/config"
	"github.com/mvp-joe/cortex-extract/internal/extractor"
	"github.com/mvp-joe/cortex-extract/internal/extractor/extraction"
	"github.com/mvp-joe/cortex-extract/internal/watcher"
)

var (
	debounceFlag time.Duration
	initialFlag  bool
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch [root]",
	Short: "Re-extract source files as they change",
	Long: `Watch monitors root (default: the current directory) and prints one JSON
document per line for every matching file that is created or modified.
Changes are batched over a short quiet period; files inside ignored
directories are never reported. Deleted files are logged to stderr.

Examples:
  # Stream extractions while editing
  cortex-extract watch src

  # Emit the whole tree first, then changes
  cortex-extract watch --initial
`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().DurationVar(&debounceFlag, "debounce", 0, "Quiet period before re-extracting (default: watch.debounce)")
	watchCmd.Flags().BoolVar(&initialFlag, "initial", false, "Extract every matching file before watching")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rootDir := "."
	if len(args) > 0 {
		rootDir = args[0]
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cmd.Flags().Changed("debounce") {
		cfg.Watch.Debounce = debounceFlag
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if initialFlag {
		if _, err := extractBatch(ctx, cmd.OutOrStdout(), rootDir, cfg, NewCLIProgressReporter(true)); err != nil {
			return err
		}
	}

	fmt.Fprintf(os.Stderr, "Watching %s for changes (Ctrl+C to stop)\n", rootDir)
	err = watchTree(ctx, cmd.OutOrStdout(), rootDir, cfg)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// watchTree streams extractions of changed files under rootDir to w until ctx ends.
func watchTree(ctx context.Context, w io.Writer, rootDir string, cfg *config.Config) error {
	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return fmt.Errorf("failed to resolve root %s: %w", rootDir, err)
	}

	discovery, err := cfg.NewFileDiscovery(absRoot)
	if err != nil {
		return fmt.Errorf("failed to compile path patterns: %w", err)
	}

	ext := extractor.New(cfg.ExtractorOptions(langFlag)...)

	fw, err := watcher.New(absRoot,
		watcher.WithDebounce(cfg.Watch.Debounce),
		watcher.WithFileFilter(func(path string) bool {
			return discovery.Matches(path) && ext.Supports(path)
		}),
		watcher.WithDirFilter(discovery.SkipsDir),
	)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", absRoot, err)
	}
	defer fw.Stop()

	errCh := make(chan error, 1)
	err = fw.Start(ctx, func(files []string) {
		if err := emitChanges(ctx, w, ext, files); err != nil {
			select {
			case errCh <- err:
			default:
			}
		}
	})
	if err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// emitChanges writes one document per changed file that still exists.
func emitChanges(ctx context.Context, w io.Writer, ext extractor.Extractor, files []string) error {
	for _, file := range files {
		if _, err := os.Stat(file); errors.Is(err, os.ErrNotExist) {
			log.Printf("Removed: %s", file)
			continue
		}
		doc := extractDocument(ctx, ext, file)
		if errDoc, ok := doc.(extraction.ErrorDocument); ok {
			errDoc.File = file
			doc = errDoc
		}
		if err := writeJSON(w, doc, false); err != nil {
			return fmt.Errorf("failed to write result for %s: %w", file, err)
		}
	}
	return nil
}
