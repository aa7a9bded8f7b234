package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/cortex-extract/internal/config"
	"github.com/mvp-joe/cortex-extract/internal/extractor"
	"github.com/mvp-joe/cortex-extract/internal/extractor/extraction"
)

var (
	cfgFile    string
	verbose    bool
	langFlag   string
	prettyFlag bool
)

// rootCmd extracts a single file when called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "cortex-extract <file>",
	Short: "Extract imports and exports from a source file",
	Long: `cortex-extract parses one source file and prints its structural summary
as a single JSON document on stdout:

  {"file", "lang", "imports": [{"source", "specifiers"}],
   "exports": [{"name", "type", "loc": {"line", "column"}}],
   "meta": {"parseMs", "syntaxError"}}

The language is detected from the file extension (py, ts, tsx, js, java, rs,
rb, php, c) unless --lang is given. Files with syntax errors produce empty
imports and exports with meta.syntaxError set. Diagnostics go to stderr and
the command always exits 0.

A file whose name matches a subcommand (batch, watch, mcp, version, help)
must follow "--" or carry a path prefix such as "./".

Examples:
  cortex-extract app/models.py
  cortex-extract --pretty src/index.ts
  cortex-extract --lang py scripts/manage
  cortex-extract -- batch`,
	Args: cobra.ArbitraryArgs,
	FParseErrWhitelist: cobra.FParseErrWhitelist{
		UnknownFlags: true,
	},
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		path := ""
		if len(args) > 0 {
			path = args[0]
		}
		runExtract(cmd.Context(), cmd.OutOrStdout(), path)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if code := execute(); code != 0 {
		os.Exit(code)
	}
}

// execute runs the command tree and returns the exit code. Failures of the
// root command, such as a malformed flag, are usage errors: they are written
// as an error document and still exit 0. Subcommand failures exit 1.
func execute() int {
	cmd, err := rootCmd.ExecuteC()
	if err == nil {
		return 0
	}

	if cmd == rootCmd {
		if werr := writeJSON(rootCmd.OutOrStdout(), extraction.ErrorDocument{Error: err.Error()}, false); werr != nil {
			log.Printf("Warning: failed to write result: %v", werr)
		}
		return 0
	}

	fmt.Fprintln(os.Stderr, err)
	return 1
}

func init() {
	cobra.OnInitialize(initLogging)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .cortex/extract.yml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&langFlag, "lang", "", "force a language instead of detecting it from the extension")
	rootCmd.PersistentFlags().BoolVar(&prettyFlag, "pretty", false, "indent JSON output")
}

// initLogging sends diagnostics to stderr; stdout carries only JSON documents.
func initLogging() {
	log.SetOutput(os.Stderr)
}

// loadConfig loads the --config file when given, otherwise .cortex/extract.yml
// under the working directory.
func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.NewFileLoader(cfgFile).Load()
	}
	return config.LoadConfig()
}

// runExtract writes exactly one JSON document for path to w.
// Every failure becomes an error document, never an exit status.
func runExtract(ctx context.Context, w io.Writer, path string) {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Printf("Warning: %v; using defaults", err)
		cfg = config.Default()
	}
	pretty := prettyFlag || cfg.Output.Pretty

	doc := extractDocument(ctx, extractor.New(cfg.ExtractorOptions(langFlag)...), path)
	if err := writeJSON(w, doc, pretty); err != nil {
		log.Printf("Warning: failed to write result: %v", err)
	}
}

// extractDocument returns the Result for path or the error document describing why there is none.
func extractDocument(ctx context.Context, ext extractor.Extractor, path string) interface{} {
	result, err := ext.Extract(ctx, path)
	if err != nil {
		if !errors.Is(err, extraction.ErrMissingPath) {
			log.Printf("Warning: %v", err)
		}
		return extraction.ErrorDocument{Error: err.Error()}
	}

	if verbose {
		log.Printf("[TIMING] Extract %s: %dms (%d imports, %d exports)",
			result.File, result.Meta.ParseMs, len(result.Imports), len(result.Exports))
	}
	return result
}
