package mcp

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/docdex/mcp-docdex-server/internal/docsets"
)

// ServerConfig contains configuration for creating an MCP server
type ServerConfig struct {
	Name       string
	Version    string
	DocsetsSvc *docsets.Service
}

// CreateServer creates and configures the MCP server
func CreateServer(cfg ServerConfig) *mcp.Server {
	s := mcp.NewServer(&mcp.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, nil)

	if cfg.DocsetsSvc != nil {
		docsets.RegisterSearchTool(s, cfg.DocsetsSvc)
		docsets.RegisterLookupTool(s, cfg.DocsetsSvc)
		docsets.RegisterObjectTool(s, cfg.DocsetsSvc)
		docsets.RegisterListTool(s, cfg.DocsetsSvc)
	}

	return s
}
