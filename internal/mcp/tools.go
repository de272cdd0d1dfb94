package mcp

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/cuvren/internal/batch"
	"github.com/sha1n/cuvren/internal/catalog"
	"github.com/sha1n/cuvren/internal/document"
	"github.com/sha1n/cuvren/internal/domain"
)

// PreviewArgument defines preview parameters.
type PreviewArgument struct {
	Profile string `json:"profile,omitempty" jsonschema_description:"Naming profile name (defaults to the active profile)"`
}

// PreviewHandler handles the preview_names MCP tool.
type PreviewHandler struct {
	backend Backend
}

// NewPreviewHandler creates a new preview handler.
func NewPreviewHandler(backend Backend) *PreviewHandler {
	return &PreviewHandler{backend: backend}
}

// Handle renders the profile's templates against sample values.
func (h *PreviewHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args PreviewArgument) (*mcp.CallToolResult, any, error) {
	lines, err := h.backend.Preview(ctx, args.Profile)
	if err != nil {
		return errorResult(fmt.Sprintf("Preview failed: %s", err)), nil, nil
	}

	var sb strings.Builder
	for _, l := range lines {
		fmt.Fprintf(&sb, "%s: %s\n", l.Kind, l.Name)
	}
	return textResult(sb.String()), nil, nil
}

// GetToolDefinition returns the MCP tool definition.
func (h *PreviewHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        "preview_names",
		Description: "Show the file names a naming profile produces for a sample invoice",
	}
}

// RegisterPreviewTool registers the preview tool with an MCP server.
func RegisterPreviewTool(server *mcp.Server, backend Backend) {
	handler := NewPreviewHandler(backend)
	mcp.AddTool(server, handler.GetToolDefinition(), handler.Handle)
}

// ProcessArgument defines batch parameters.
type ProcessArgument struct {
	Folders []string `json:"folders" jsonschema_description:"Folders to process recursively"`
	Profile string   `json:"profile,omitempty" jsonschema_description:"Naming profile name (defaults to the active profile)"`
	Rename  bool     `json:"rename,omitempty" jsonschema_description:"Rename result documents, invoices, XML and PDF files"`
	Mutate  string   `json:"mutate,omitempty" jsonschema_description:"Edit result documents: drop-rejected or clear-all"`
}

// ProcessHandler handles the process_folders MCP tool.
type ProcessHandler struct {
	backend Backend
}

// NewProcessHandler creates a new process handler.
func NewProcessHandler(backend Backend) *ProcessHandler {
	return &ProcessHandler{backend: backend}
}

// Handle runs a batch and returns its summary.
func (h *ProcessHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args ProcessArgument) (*mcp.CallToolResult, any, error) {
	mode, err := document.ParseMutationMode(args.Mutate)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}

	// Relative folders would resolve against the server's working directory.
	for _, folder := range args.Folders {
		if strings.TrimSpace(folder) != "" && !filepath.IsAbs(folder) {
			return errorResult(fmt.Sprintf("Invalid folder %q: relative paths are not allowed", folder)), nil, nil
		}
	}

	opts := batch.Options{
		Folders: args.Folders,
		Rename:  args.Rename,
		Mutate:  mode != document.ModeNone,
		Mode:    mode,
	}

	res, err := h.backend.Process(ctx, args.Profile, opts)
	if err != nil {
		return errorResult(fmt.Sprintf("Processing failed: %s", err)), nil, nil
	}

	text := batch.FormatReport(res)
	if res.ReportPath != "" {
		text += "\nReport: " + res.ReportPath + "\n"
	}
	return textResult(text), nil, nil
}

// GetToolDefinition returns the MCP tool definition.
func (h *ProcessHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        "process_folders",
		Description: "Rename validation results, invoices, XML and PDF files and optionally strip rejected validation entries",
	}
}

// RegisterProcessTool registers the process tool with an MCP server.
func RegisterProcessTool(server *mcp.Server, backend Backend) {
	handler := NewProcessHandler(backend)
	mcp.AddTool(server, handler.GetToolDefinition(), handler.Handle)
}

// SearchArgument defines search parameters.
type SearchArgument struct {
	Query string `json:"query" jsonschema_description:"Invoice number, validation code, process id or file name"`
	Kind  string `json:"kind,omitempty" jsonschema_description:"Filter by artifact kind: result, invoice, xml or pdf"`
	Limit int    `json:"limit,omitempty" jsonschema_description:"Maximum number of results (default 20)"`
}

// SearchHandler handles the search_catalog MCP tool.
type SearchHandler struct {
	backend Backend
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(backend Backend) *SearchHandler {
	return &SearchHandler{backend: backend}
}

// Handle executes the search and returns formatted results.
func (h *SearchHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args SearchArgument) (*mcp.CallToolResult, any, error) {
	kind, err := domain.ParseKind(args.Kind)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}

	results, err := h.backend.Search(catalog.SearchRequest{
		Query: strings.TrimSpace(args.Query),
		Kind:  kind,
		Limit: args.Limit,
	})
	if err != nil {
		return errorResult(fmt.Sprintf("Search failed: %s", err)), nil, nil
	}

	return formatResults(results, args.Query), nil, nil
}

// formatResults formats catalog hits for MCP response.
func formatResults(results *catalog.SearchResult, queryStr string) *mcp.CallToolResult {
	if results.Total == 0 {
		return textResult(fmt.Sprintf("No results found for query: %s", queryStr))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d results for '%s':\n\n", results.Total, queryStr)

	for i, hit := range results.Hits {
		r := hit.Record
		fmt.Fprintf(&sb, "### %d. %s\n", i+1, r.ID)
		fmt.Fprintf(&sb, "**Kind**: %s  **Invoice**: %s  **Action**: %s\n", r.Kind, r.InvoiceNumber, r.Action)
		if r.UniqueCode != "" {
			fmt.Fprintf(&sb, "**CUV**: %s\n", r.UniqueCode)
		}
		if r.PreviousPath != "" {
			fmt.Fprintf(&sb, "**Previously**: %s\n", r.PreviousPath)
		}
		fmt.Fprintf(&sb, "**Run**: %s at %s\n\n", r.RunID, r.Timestamp.Format("2006-01-02 15:04:05"))
	}

	if results.Total > uint64(len(results.Hits)) {
		fmt.Fprintf(&sb, "... and %d more results\n", results.Total-uint64(len(results.Hits)))
	}

	return textResult(sb.String())
}

// GetToolDefinition returns the MCP tool definition.
func (h *SearchHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        "search_catalog",
		Description: "Search files renamed or modified by past runs",
	}
}

// RegisterSearchTool registers the search tool with an MCP server.
func RegisterSearchTool(server *mcp.Server, backend Backend) {
	handler := NewSearchHandler(backend)
	mcp.AddTool(server, handler.GetToolDefinition(), handler.Handle)
}

// ProfilesArgument defines profile listing parameters.
type ProfilesArgument struct {
	Filter string `json:"filter,omitempty" jsonschema_description:"Only profiles whose name contains this text"`
}

// ProfilesHandler handles the list_profiles MCP tool.
type ProfilesHandler struct {
	backend Backend
}

// NewProfilesHandler creates a new profiles handler.
func NewProfilesHandler(backend Backend) *ProfilesHandler {
	return &ProfilesHandler{backend: backend}
}

// Handle lists the matching profiles with their templates.
func (h *ProfilesHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args ProfilesArgument) (*mcp.CallToolResult, any, error) {
	list := h.backend.Profiles(args.Filter)
	if len(list) == 0 {
		return textResult("No naming profiles found"), nil, nil
	}

	var sb strings.Builder
	for _, p := range list {
		fmt.Fprintf(&sb, "## %s\n", p.Name)
		for _, kind := range domain.Kinds {
			tmpl := p.Template(kind)
			if tmpl == "" {
				tmpl = "-"
			}
			fmt.Fprintf(&sb, "- %s: %s\n", kind, tmpl)
		}
		sb.WriteString("\n")
	}
	return textResult(sb.String()), nil, nil
}

// GetToolDefinition returns the MCP tool definition.
func (h *ProfilesHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        "list_profiles",
		Description: "List the naming profiles available to process_folders and preview_names",
	}
}

// RegisterProfilesTool registers the profiles tool with an MCP server.
func RegisterProfilesTool(server *mcp.Server, backend Backend) {
	handler := NewProfilesHandler(backend)
	mcp.AddTool(server, handler.GetToolDefinition(), handler.Handle)
}
