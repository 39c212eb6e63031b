package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/pflag"

	"github.com/docdex/mcp-docdex-server/internal/config"
	"github.com/docdex/mcp-docdex-server/internal/docsets"
	mcputil "github.com/docdex/mcp-docdex-server/internal/mcp"
	"github.com/docdex/mcp-docdex-server/internal/metrics"
)

// RunParams contains dependencies for the run function
type RunParams struct {
	LoadSettings      func(*pflag.FlagSet) (*config.Settings, error)
	ValidSettings     func(*config.Settings) error
	StartSSEServer    func(*mcp.Server, *config.Settings, *metrics.Metrics) error
	CreateServer      func(*config.Settings, *metrics.Metrics) (*mcp.Server, func(), error)
	CustomIOTransport mcp.Transport // Optional: for testing with custom IO
}

// DefaultRunParams returns production dependencies
func DefaultRunParams() RunParams {
	return RunParams{
		LoadSettings:   config.LoadSettingsWithFlags,
		ValidSettings:  config.ValidateSettings,
		StartSSEServer: StartSSEServer,
		CreateServer:   CreateMCPServer,
	}
}

// RunWithDeps executes the server with the provided dependencies
func RunWithDeps(ctx context.Context, params RunParams, flags *pflag.FlagSet, version string) error {
	settings, err := params.LoadSettings(flags)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	if err := params.ValidSettings(settings); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Configure logging - always use stderr to avoid corrupting the stdio transport
	handler := slog.NewTextHandler(os.Stderr, nil)
	slog.SetDefault(slog.New(handler))

	slog.Info("Starting docdex MCP server", "version", version)
	config.Log(settings)

	m := metrics.New()

	mcpServer, cleanup, err := params.CreateServer(settings, m)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}

	if settings.Transport == "stdio" {
		// Use custom transport if provided (for testing), otherwise use stdio
		transport := params.CustomIOTransport
		if transport == nil {
			transport = &mcp.StdioTransport{}
		}
		return mcpServer.Run(ctx, transport)
	}

	slog.Info("Starting SSE server", "host", settings.Host, "port", settings.Port)
	return params.StartSSEServer(mcpServer, settings, m)
}

// CreateMCPServer creates the MCP server with registered tools
func CreateMCPServer(settings *config.Settings, m *metrics.Metrics) (*mcp.Server, func(), error) {
	var docsetsSvc *docsets.Service
	var cleanup func()

	// Initialize docsets service if enabled
	if settings.Docsets.Enabled {
		svc, err := docsets.NewService(&settings.Docsets, m)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create docsets service: %w", err)
		}
		docsetsSvc = svc

		// Initialize in background context (not tied to request context)
		if err := svc.Initialize(context.Background()); err != nil {
			slog.Error("Docsets initialization failed", "error", err)
			// Close service on initialization failure and continue without it
			if closeErr := svc.Close(); closeErr != nil {
				slog.Error("Failed to close docsets service", "error", closeErr)
			}
			docsetsSvc = nil
		} else {
			cleanup = func() {
				if err := svc.Close(); err != nil {
					slog.Error("Failed to close docsets service", "error", err)
				}
			}
		}
	}

	server := mcputil.CreateServer(mcputil.ServerConfig{
		Name:       "docdex-mcp",
		Version:    "1.0.0",
		DocsetsSvc: docsetsSvc,
	})

	return server, cleanup, nil
}
