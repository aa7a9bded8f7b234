package mcp

import (
	"github.com/mvp-joe/cortex-extract/internal/config"
	"github.com/mvp-joe/cortex-extract/internal/extractor"
	"github.com/mvp-joe/cortex-extract/internal/extractor/extraction"
)

// MCPServerConfig contains configuration for the MCP server.
type MCPServerConfig struct {
	ProjectPath string                 // Root that relative tool paths resolve against
	Extract     *config.Config         // Discovery, batch and language settings
	Cache       *extractor.ResultCache // Shared by both tools; nil disables caching
}

// DefaultMCPServerConfig returns a config rooted at the current directory with default settings.
func DefaultMCPServerConfig() *MCPServerConfig {
	return &MCPServerConfig{
		ProjectPath: ".",
		Extract:     config.Default(),
	}
}

// ExtractDirectoryResponse is the JSON body returned by extract_directory.
type ExtractDirectoryResponse struct {
	Root      string                     `json:"root"`
	Results   []*extraction.Result       `json:"results"`
	Errors    []extraction.ErrorDocument `json:"errors"`
	Total     int                        `json:"total"`
	Truncated bool                       `json:"truncated,omitempty"`
	Stats     ExtractDirectoryStats      `json:"stats"`
}

// ExtractDirectoryStats summarizes a directory extraction.
type ExtractDirectoryStats struct {
	FilesProcessed int   `json:"filesProcessed"`
	SyntaxErrors   int   `json:"syntaxErrors"`
	Failed         int   `json:"failed"`
	TimedOut       int   `json:"timedOut"`
	ElapsedMs      int64 `json:"elapsedMs"`
}
