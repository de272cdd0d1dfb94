package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/cuvren/internal/batch"
	"github.com/sha1n/cuvren/internal/catalog"
	"github.com/sha1n/cuvren/internal/document"
	"github.com/sha1n/cuvren/internal/naming"
	"github.com/sha1n/cuvren/internal/profiles"
)

// Backend is what the tools operate on.
type Backend interface {
	// Preview renders the templates of a profile (the active one when empty) against sample values.
	Preview(ctx context.Context, profile string) ([]naming.PreviewLine, error)

	// Process runs a batch. When opts.Rename is set the naming configuration
	// comes from the profile (the active one when empty).
	Process(ctx context.Context, profile string, opts batch.Options) (*batch.Result, error)

	// Search queries the artifact catalog.
	Search(req catalog.SearchRequest) (*catalog.SearchResult, error)

	// Profiles lists naming profiles whose name contains filter.
	Profiles(filter string) []profiles.Profile

	// Inspect loads a single result document.
	Inspect(path string) (*document.ResultDocument, error)
}

// ServerConfig contains configuration for creating an MCP server
type ServerConfig struct {
	Name    string
	Version string
	Backend Backend
}

// CreateServer creates and configures the MCP server
func CreateServer(cfg ServerConfig) *mcp.Server {
	s := mcp.NewServer(&mcp.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, nil)

	if cfg.Backend != nil {
		RegisterPreviewTool(s, cfg.Backend)
		RegisterProcessTool(s, cfg.Backend)
		RegisterSearchTool(s, cfg.Backend)
		RegisterProfilesTool(s, cfg.Backend)
		RegisterInspectTool(s, cfg.Backend)
	}

	return s
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
		IsError: true,
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}
