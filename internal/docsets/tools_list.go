package docsets

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ListArgument defines list parameters. The tool takes no arguments.
type ListArgument struct{}

// ListHandler handles the list_docsets MCP tool.
type ListHandler struct {
	service *Service
}

// NewListHandler creates a new list handler.
func NewListHandler(service *Service) *ListHandler {
	return &ListHandler{service: service}
}

// Handle lists all loaded docsets with their freshness and page counts.
func (h *ListHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args ListArgument) (*mcp.CallToolResult, any, error) {
	docsetIDs := h.service.DocsetIDs()
	if len(docsetIDs) == 0 {
		return textResult("No docsets are loaded."), nil, nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d docset(s) loaded:\n\n", len(docsetIDs)))

	for _, docsetID := range docsetIDs {
		state := h.service.State(docsetID)
		sb.WriteString(fmt.Sprintf("### %s\n", h.service.DisplayName(docsetID)))
		sb.WriteString(fmt.Sprintf("- Pages: %d\n", state.PageCount))
		sb.WriteString(fmt.Sprintf("- Terms: %d\n", state.TermCount))
		if !state.FetchedAt.IsZero() {
			sb.WriteString(fmt.Sprintf("- Fetched: %s\n", state.FetchedAt.UTC().Format("2006-01-02 15:04:05 UTC")))
		}
		if state.Error != "" {
			sb.WriteString(fmt.Sprintf("- Last refresh error: %s\n", state.Error))
		}
		sb.WriteString("\n")
	}

	return textResult(sb.String()), nil, nil
}

// GetToolDefinition returns the MCP tool definition.
func (h *ListHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        "list_docsets",
		Description: "List the loaded documentation sets with page counts and freshness",
	}
}

// RegisterListTool registers the list tool with an MCP server.
func RegisterListTool(server *mcp.Server, service *Service) {
	handler := NewListHandler(service)
	mcp.AddTool(server, handler.GetToolDefinition(), handler.Handle)
}
