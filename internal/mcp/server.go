package mcp

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/cortex-extract/internal/extractor"
)

// ServerName and ServerVersion identify the server to MCP clients.
const (
	ServerName    = "cortex-extract"
	ServerVersion = "1.0.0"
)

// MCPServer manages the MCP server lifecycle.
type MCPServer struct {
	config *MCPServerConfig
	mcp    *server.MCPServer
}

// NewMCPServer creates an MCP server exposing the extraction tools.
func NewMCPServer(config *MCPServerConfig) (*MCPServer, error) {
	if config == nil {
		config = DefaultMCPServerConfig()
	}
	if config.Extract == nil {
		return nil, fmt.Errorf("extraction config is required")
	}
	if config.Cache == nil && config.Extract.Cache.Capacity > 0 {
		cache, err := extractor.NewResultCache(config.Extract.Cache.Capacity)
		if err != nil {
			return nil, err
		}
		config.Cache = cache
	}

	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
		server.WithToolCapabilities(true),
	)

	AddExtractFileTool(mcpServer, config)
	AddExtractDirectoryTool(mcpServer, config)

	return &MCPServer{
		config: config,
		mcp:    mcpServer,
	}, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown.
func (s *MCPServer) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if s.config.Cache != nil {
		defer s.config.Cache.Close()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting MCP server on stdio (project: %s)...", s.config.ProjectPath)
		if err := server.ServeStdio(s.mcp); err != nil {
			errCh <- fmt.Errorf("MCP server error: %w", err)
		}
	}()

	select {
	case <-sigCh:
		log.Printf("Received shutdown signal, stopping gracefully...")
		return nil
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
