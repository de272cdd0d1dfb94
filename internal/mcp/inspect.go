package mcp

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/cuvren/internal/matcher"
)

// InspectArgument defines inspect parameters.
type InspectArgument struct {
	Path string `json:"path" jsonschema_description:"Absolute path of the result document, as returned by search_catalog"`
}

// InspectHandler handles the inspect_document MCP tool.
type InspectHandler struct {
	backend Backend
}

// NewInspectHandler creates a new inspect handler.
func NewInspectHandler(backend Backend) *InspectHandler {
	return &InspectHandler{backend: backend}
}

// Handle shows the fields of a result document that drive naming and mutation.
func (h *InspectHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args InspectArgument) (*mcp.CallToolResult, any, error) {
	if err := validatePath(args.Path); err != nil {
		return errorResult(fmt.Sprintf("Invalid path: %s", err)), nil, nil
	}

	doc, err := h.backend.Inspect(filepath.Clean(args.Path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return errorResult(fmt.Sprintf("File not found: %s", args.Path)), nil, nil
		}
		return errorResult(fmt.Sprintf("Error reading document: %s", err)), nil, nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "**File**: `%s`\n", args.Path)
	fmt.Fprintf(&sb, "**Invoice**: %s\n", orDash(doc.InvoiceNumber))
	fmt.Fprintf(&sb, "**Process**: %s\n", orDash(doc.ProcessID))
	fmt.Fprintf(&sb, "**Passed**: %t\n", doc.Passed)
	fmt.Fprintf(&sb, "**CUV**: %s\n", orDash(doc.UniqueCode))
	fmt.Fprintf(&sb, "\n**Validations** (%d)\n", len(doc.Validations))
	for _, v := range doc.Validations {
		fmt.Fprintf(&sb, "- %s %s: %s\n", v.Class, v.Code, v.Observation)
	}
	return textResult(sb.String()), nil, nil
}

// GetToolDefinition returns the MCP tool definition.
func (h *InspectHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        "inspect_document",
		Description: "Show the invoice number, process id, unique code and validation entries of a result document",
	}
}

// RegisterInspectTool registers the inspect tool with an MCP server.
func RegisterInspectTool(server *mcp.Server, backend Backend) {
	handler := NewInspectHandler(backend)
	mcp.AddTool(server, handler.GetToolDefinition(), handler.Handle)
}

// validatePath performs sanity checks on the requested path.
func validatePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("path is required")
	}
	if !filepath.IsAbs(path) {
		return fmt.Errorf("relative paths are not allowed")
	}
	if !strings.EqualFold(filepath.Ext(path), matcher.DocumentExt) {
		return fmt.Errorf("not a %s document", matcher.DocumentExt)
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
