package docsets

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// LookupArgument defines exact term lookup parameters.
type LookupArgument struct {
	Term   string `json:"term" jsonschema_description:"A single word to resolve against the index posting tables"`
	Docset string `json:"docset,omitempty" jsonschema_description:"Restrict the lookup to one docset name"`
}

// LookupHandler handles the lookup_term MCP tool: the exact posting-table
// resolution a documentation search front-end performs, as opposed to the
// fuzzier full-text search_docs tool.
type LookupHandler struct {
	service *Service
}

// NewLookupHandler creates a new lookup handler.
func NewLookupHandler(service *Service) *LookupHandler {
	return &LookupHandler{service: service}
}

// Handle resolves the term through each docset's posting tables.
func (h *LookupHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args LookupArgument) (*mcp.CallToolResult, any, error) {
	started := time.Now()
	m := h.service.Metrics()

	if !h.service.IsReady() {
		return errorResult("Lookup is not available. The documentation indexes are still being loaded. Please try again later."), nil, nil
	}

	term := strings.TrimSpace(args.Term)
	if term == "" {
		return errorResult("Term cannot be empty"), nil, nil
	}
	if strings.ContainsAny(term, " \t\n") {
		return errorResult("Term must be a single word; use search_docs for free-text queries"), nil, nil
	}

	docsetIDs, err := h.resolveDocsets(args.Docset)
	if err != nil {
		m.ObserveSearch("lookup_term", "error", time.Since(started))
		return errorResult(err.Error()), nil, nil
	}

	var sb strings.Builder
	totalPages := 0

	for _, docsetID := range docsetIDs {
		record, ok := h.service.Record(docsetID)
		if !ok {
			continue
		}

		posting, found := record.LookupTerm(term)
		if !found || posting.Len() == 0 {
			continue
		}

		sb.WriteString(fmt.Sprintf("## %s\n", h.service.DisplayName(docsetID)))
		for _, docIndex := range posting.Indices() {
			// Records are validated on load, but an index past the page
			// table must degrade to a skipped row, never a panic.
			if docIndex >= len(record.Docnames) {
				continue
			}
			sb.WriteString(fmt.Sprintf("- %s: %s\n", record.Docnames[docIndex], record.Title(docIndex)))
			totalPages++
		}
		sb.WriteString("\n")
	}

	if totalPages == 0 {
		m.ObserveSearch("lookup_term", "miss", time.Since(started))
		return textResult(fmt.Sprintf("Term %q does not appear in any indexed docset", term)), nil, nil
	}

	m.ObserveSearch("lookup_term", "hit", time.Since(started))
	header := fmt.Sprintf("Term %q appears on %d page(s):\n\n", term, totalPages)
	return textResult(header + sb.String()), nil, nil
}

// resolveDocsets maps an optional docset display name onto loaded docset IDs.
func (h *LookupHandler) resolveDocsets(docset string) ([]string, error) {
	if docset == "" {
		return h.service.DocsetIDs(), nil
	}

	docsetID, ok := h.service.ResolveDisplay(docset)
	if !ok {
		return nil, fmt.Errorf("unknown docset: %s", docset)
	}
	return []string{docsetID}, nil
}

// GetToolDefinition returns the MCP tool definition.
func (h *LookupHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        "lookup_term",
		Description: "Resolve a single term to the exact documentation pages it posts to",
	}
}

// RegisterLookupTool registers the lookup tool with an MCP server.
func RegisterLookupTool(server *mcp.Server, service *Service) {
	handler := NewLookupHandler(service)
	mcp.AddTool(server, handler.GetToolDefinition(), handler.Handle)
}
