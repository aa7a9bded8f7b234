package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/cortex-extract/internal/config"
	"github.com/mvp-joe/cortex-extract/internal/mcp"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server exposing structural extraction",
	Long: `Start the Model Context Protocol (MCP) server that lets LLM-powered coding
assistants ask for the imports and exports of files in this project.

The MCP server:
- Provides extract_file for a single file
- Provides extract_directory for every matching file under a directory
- Communicates via stdio (standard MCP transport)

Example:
  cortex-extract mcp`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Get current working directory (project root)
	projectPath, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	fmt.Fprintf(os.Stderr, "cortex-extract MCP Server\n")
	fmt.Fprintf(os.Stderr, "Project: %s\n\n", projectPath)

	server, err := mcp.NewMCPServer(&mcp.MCPServerConfig{
		ProjectPath: projectPath,
		Extract:     cfg,
	})
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	// Serve (blocks until shutdown)
	if err := server.Serve(ctx); err != nil {
		return fmt.Errorf("MCP server error: %w", err)
	}

	return nil
}
