package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/cortex-extract/internal/config"
	"github.com/mvp-joe/cortex-extract/internal/extractor"
	"github.com/mvp-joe/cortex-extract/internal/extractor/extraction"
)

const (
	defaultDirectoryLimit = 200
	maxDirectoryLimit     = 1000
)

// AddExtractFileTool registers the extract_file tool with an MCP server.
func AddExtractFileTool(s *server.MCPServer, cfg *MCPServerConfig) {
	tool := mcp.NewTool(
		"extract_file",
		mcp.WithDescription("Extract the structural summary of one source file: its import dependencies and its top-level exported symbols (functions, classes, variables, methods) with source locations."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("File path, absolute or relative to the project root")),
		mcp.WithString("lang",
			mcp.Description("Force a language instead of detecting it from the extension (py, ts, tsx, js, java, rs, rb, php, c)")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createExtractFileHandler(cfg))
}

// createExtractFileHandler creates the handler function for the extract_file tool.
func createExtractFileHandler(cfg *MCPServerConfig) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args extractFileArgs
		if err := bindArguments(request, &args); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := args.validate(); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		ext := extractor.New(extractorOptions(cfg, args.Lang)...)
		result, err := ext.Extract(ctx, resolvePath(cfg.ProjectPath, args.Path))
		if err != nil {
			return errorResult(extraction.ErrorDocument{Error: err.Error()})
		}

		jsonData, err := json.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal result: %w", err)
		}
		return mcp.NewToolResultText(string(jsonData)), nil
	}
}

// AddExtractDirectoryTool registers the extract_directory tool with an MCP server.
func AddExtractDirectoryTool(s *server.MCPServer, cfg *MCPServerConfig) {
	tool := mcp.NewTool(
		"extract_directory",
		mcp.WithDescription("Extract imports and exports for every matching source file under a directory. Files are discovered with the configured include/ignore globs and returned in path order."),
		mcp.WithString("root",
			mcp.Required(),
			mcp.Description("Directory to walk, absolute or relative to the project root")),
		mcp.WithNumber("limit",
			mcp.Description(fmt.Sprintf("Maximum number of files to extract (1-%d, default: %d)", maxDirectoryLimit, defaultDirectoryLimit))),
		mcp.WithArray("include",
			mcp.Description("Glob patterns overriding the configured include patterns, e.g. ['**/*.py']")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createExtractDirectoryHandler(cfg))
}

// createExtractDirectoryHandler creates the handler function for the extract_directory tool.
func createExtractDirectoryHandler(cfg *MCPServerConfig) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args extractDirectoryArgs
		if err := bindArguments(request, &args); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := args.validate(); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		settings := *cfg.Extract
		if len(args.Include) > 0 {
			settings.Paths.Include = args.Include
			if err := config.Validate(&settings); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
		}

		rootDir := resolvePath(cfg.ProjectPath, args.Root)
		discovery, err := settings.NewFileDiscovery(rootDir)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		files, err := discovery.DiscoverFiles()
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to discover files: %v", err)), nil
		}

		response := &ExtractDirectoryResponse{
			Root:    rootDir,
			Results: []*extraction.Result{},
			Errors:  []extraction.ErrorDocument{},
		}
		if len(files) > args.Limit {
			files = files[:args.Limit]
			response.Truncated = true
		}

		processor := extractor.NewProcessor(
			extractor.New(extractorOptions(cfg, "")...),
			settings.ProcessorOptions(nil)...,
		)
		stats, err := processor.ProcessFiles(ctx, files, func(o extractor.Outcome) error {
			if o.Err != nil {
				response.Errors = append(response.Errors, extraction.ErrorDocument{File: o.Path, Error: o.Err.Error()})
				return nil
			}
			response.Results = append(response.Results, o.Result)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("extraction failed: %w", err)
		}

		response.Total = len(response.Results)
		response.Stats = ExtractDirectoryStats{
			FilesProcessed: stats.FilesProcessed,
			SyntaxErrors:   stats.SyntaxErrors,
			Failed:         stats.Failed,
			TimedOut:       stats.TimedOut,
			ElapsedMs:      stats.ProcessingTime.Milliseconds(),
		}

		jsonData, err := json.Marshal(response)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response: %w", err)
		}
		return mcp.NewToolResultText(string(jsonData)), nil
	}
}

// extractorOptions builds extractor options from the server settings.
func extractorOptions(cfg *MCPServerConfig, lang string) []extractor.Option {
	opts := cfg.Extract.ExtractorOptions(lang)
	if cfg.Cache != nil {
		opts = append(opts, extractor.WithCache(cfg.Cache))
	}
	return opts
}

// resolvePath joins relative paths onto the project root.
func resolvePath(projectPath, path string) string {
	if filepath.IsAbs(path) || projectPath == "" {
		return path
	}
	return filepath.Join(projectPath, path)
}

// errorResult returns the error document as a tool error so callers branch on one shape.
func errorResult(doc extraction.ErrorDocument) (*mcp.CallToolResult, error) {
	jsonData, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal error: %w", err)
	}
	return mcp.NewToolResultError(string(jsonData)), nil
}
