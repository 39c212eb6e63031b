package docsets

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ObjectArgument defines API object lookup parameters.
type ObjectArgument struct {
	Name   string `json:"name" jsonschema_description:"Dotted API object name, fully qualified or a trailing suffix (e.g., get_acoustic_data)"`
	Docset string `json:"docset,omitempty" jsonschema_description:"Restrict the lookup to one docset name"`
}

// ObjectHandler handles the lookup_object MCP tool.
type ObjectHandler struct {
	service *Service
}

// NewObjectHandler creates a new object lookup handler.
func NewObjectHandler(service *Service) *ObjectHandler {
	return &ObjectHandler{service: service}
}

// Handle resolves the name through each docset's object inventory.
func (h *ObjectHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args ObjectArgument) (*mcp.CallToolResult, any, error) {
	started := time.Now()
	m := h.service.Metrics()

	if !h.service.IsReady() {
		return errorResult("Object lookup is not available. The documentation indexes are still being loaded. Please try again later."), nil, nil
	}

	name := strings.TrimSpace(args.Name)
	if name == "" {
		return errorResult("Name cannot be empty"), nil, nil
	}

	docsetIDs := h.service.DocsetIDs()
	if args.Docset != "" {
		docsetID, ok := h.service.ResolveDisplay(args.Docset)
		if !ok {
			m.ObserveSearch("lookup_object", "error", time.Since(started))
			return errorResult(fmt.Sprintf("unknown docset: %s", args.Docset)), nil, nil
		}
		docsetIDs = []string{docsetID}
	}

	var sb strings.Builder
	total := 0

	for _, docsetID := range docsetIDs {
		record, ok := h.service.Record(docsetID)
		if !ok {
			continue
		}

		objects := record.LookupObject(name)
		if len(objects) == 0 {
			continue
		}

		sb.WriteString(fmt.Sprintf("## %s\n", h.service.DisplayName(docsetID)))
		for _, obj := range objects {
			sb.WriteString(fmt.Sprintf("- `%s` (%s): page %s, anchor #%s\n",
				obj.Name, obj.DisplayType, obj.Docname, obj.Anchor))
			total++
		}
		sb.WriteString("\n")
	}

	if total == 0 {
		m.ObserveSearch("lookup_object", "miss", time.Since(started))
		return textResult(fmt.Sprintf("No API object matches %q in any indexed docset", name)), nil, nil
	}

	m.ObserveSearch("lookup_object", "hit", time.Since(started))
	header := fmt.Sprintf("Found %d API object(s) matching %q:\n\n", total, name)
	return textResult(header + sb.String()), nil, nil
}

// GetToolDefinition returns the MCP tool definition.
func (h *ObjectHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        "lookup_object",
		Description: "Resolve an API object name to its documentation page and anchor",
	}
}

// RegisterObjectTool registers the object lookup tool with an MCP server.
func RegisterObjectTool(server *mcp.Server, service *Service) {
	handler := NewObjectHandler(service)
	mcp.AddTool(server, handler.GetToolDefinition(), handler.Handle)
}
