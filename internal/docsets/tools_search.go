package docsets

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/docdex/mcp-docdex-server/internal/domain"
)

// SearchArgument defines search parameters.
type SearchArgument struct {
	Query  string `json:"query" jsonschema_description:"Free-text search query over page titles, index terms, and API object names"`
	Docset string `json:"docset,omitempty" jsonschema_description:"Filter by docset name (e.g., ooipy.readthedocs.io/en/latest)"`
}

// SearchHandler handles the search_docs MCP tool.
type SearchHandler struct {
	service *Service
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(service *Service) *SearchHandler {
	return &SearchHandler{service: service}
}

// Handle executes the full-text search and returns formatted results.
func (h *SearchHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args SearchArgument) (*mcp.CallToolResult, any, error) {
	started := time.Now()
	m := h.service.Metrics()

	if !h.service.IsReady() {
		return errorResult("Search is not available. The documentation indexes are still being loaded. Please try again later."), nil, nil
	}

	if strings.TrimSpace(args.Query) == "" {
		return errorResult("Query cannot be empty"), nil, nil
	}

	alias, err := h.service.GetIndexAlias()
	if err != nil {
		m.ObserveSearch("search_docs", "error", time.Since(started))
		return errorResult(fmt.Sprintf("Failed to access indexes: %s", err)), nil, nil
	}

	// The docset field holds canonical display names; accept raw IDs too.
	if args.Docset != "" {
		if docsetID, ok := h.service.ResolveDisplay(args.Docset); ok {
			args.Docset = h.service.DisplayName(docsetID)
		}
	}

	searchReq := bleve.NewSearchRequest(h.buildQuery(args))
	searchReq.Size = h.service.GetSettings().MaxResults
	searchReq.Fields = []string{domain.PageFieldDocset, domain.PageFieldDocname, domain.PageFieldTitle, domain.PageFieldFilename}
	searchReq.Highlight = bleve.NewHighlight()
	searchReq.Highlight.AddField(domain.PageFieldTitle)

	results, err := alias.Search(searchReq)
	if err != nil {
		m.ObserveSearch("search_docs", "error", time.Since(started))
		return errorResult(fmt.Sprintf("Search failed: %s", err)), nil, nil
	}

	if results.Total == 0 {
		m.ObserveSearch("search_docs", "miss", time.Since(started))
	} else {
		m.ObserveSearch("search_docs", "hit", time.Since(started))
	}

	return h.formatResults(results, args.Query), nil, nil
}

// buildQuery constructs a Bleve query from search arguments.
func (h *SearchHandler) buildQuery(args SearchArgument) query.Query {
	// Title matches should dominate vocabulary matches, and object-name
	// matches should dominate both, mirroring how the record's own
	// scoring treats title terms and inventory entries.
	titleQuery := bleve.NewMatchQuery(args.Query)
	titleQuery.SetField(domain.PageFieldTitle)
	titleQuery.SetBoost(3.0)

	vocabQuery := bleve.NewMatchQuery(args.Query)
	vocabQuery.SetField(domain.PageFieldVocabulary)

	objectsQuery := bleve.NewMatchQuery(args.Query)
	objectsQuery.SetField(domain.PageFieldObjects)
	objectsQuery.SetBoost(5.0)

	searchQuery := bleve.NewDisjunctionQuery(titleQuery, vocabQuery, objectsQuery)

	if args.Docset == "" {
		return searchQuery
	}

	docsetQuery := bleve.NewTermQuery(args.Docset)
	docsetQuery.SetField(domain.PageFieldDocset)
	return bleve.NewConjunctionQuery(searchQuery, docsetQuery)
}

// formatResults formats Bleve search results for the MCP response.
func (h *SearchHandler) formatResults(results *bleve.SearchResult, queryStr string) *mcp.CallToolResult {
	if results.Total == 0 {
		return textResult(fmt.Sprintf("No results found for query: %s", queryStr))
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d results for '%s':\n\n", results.Total, queryStr))

	for i, hit := range results.Hits {
		docset := stringField(hit.Fields, domain.PageFieldDocset)
		docname := stringField(hit.Fields, domain.PageFieldDocname)
		title := stringField(hit.Fields, domain.PageFieldTitle)

		sb.WriteString(fmt.Sprintf("### %d. %s: %s\n", i+1, docname, title))
		sb.WriteString(fmt.Sprintf("**Docset**: %s\n", docset))
		if filename := stringField(hit.Fields, domain.PageFieldFilename); filename != "" {
			sb.WriteString(fmt.Sprintf("**Source**: %s\n", filename))
		}
		sb.WriteString(fmt.Sprintf("**Score**: %.4f\n", hit.Score))
		sb.WriteString("\n")
	}

	if results.Total > uint64(len(results.Hits)) {
		sb.WriteString(fmt.Sprintf("... and %d more results\n", results.Total-uint64(len(results.Hits))))
	}

	return textResult(sb.String())
}

// GetToolDefinition returns the MCP tool definition.
func (h *SearchHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        "search_docs",
		Description: "Search documentation pages across indexed docsets using full-text search",
	}
}

// RegisterSearchTool registers the search tool with an MCP server.
func RegisterSearchTool(server *mcp.Server, service *Service) {
	handler := NewSearchHandler(service)
	mcp.AddTool(server, handler.GetToolDefinition(), handler.Handle)
}

// textResult wraps plain text in a successful MCP result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// errorResult wraps plain text in a failed MCP result.
func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}

// stringField extracts a string field from a search hit.
func stringField(fields map[string]any, name string) string {
	if val, ok := fields[name].(string); ok {
		return val
	}
	return ""
}
