package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/faucetdb/sqlcatalog/internal/model"
)

// MCPServer exposes one introspection result to MCP clients as read-only
// resources and lookup tools, so an agent can discover the routines, views
// and table types of a database without a live connection.
type MCPServer struct {
	db     *model.Database
	logger *slog.Logger
	server *server.MCPServer
}

// NewMCPServer creates an MCPServer over db. db must not be modified
// afterwards. The returned server is ready to serve over stdio or HTTP.
func NewMCPServer(db *model.Database, version string, logger *slog.Logger) *MCPServer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &MCPServer{
		db:     db,
		logger: logger,
	}

	mcpServer := server.NewMCPServer(
		"sqlcatalog",
		version,
		server.WithResourceCapabilities(false, false),
		server.WithToolCapabilities(false),
	)

	s.registerTools(mcpServer)
	s.registerResources(mcpServer)

	s.server = mcpServer
	return s
}

// Server returns the underlying mcp-go MCPServer instance.
func (s *MCPServer) Server() *server.MCPServer {
	return s.server
}

// ServeStdio serves MCP over stdin/stdout until the client disconnects.
// Logs must not go to stdout while this runs.
func (s *MCPServer) ServeStdio() error {
	s.logger.Info("starting MCP server in stdio mode")
	return server.ServeStdio(s.server)
}

// ServeHTTP starts the MCP server in Streamable HTTP mode, listening on
// the given address (e.g. ":3001").
func (s *MCPServer) ServeHTTP(addr string) error {
	httpServer := server.NewStreamableHTTPServer(s.server)
	s.logger.Info("MCP HTTP server starting", "addr", addr)
	return httpServer.Start(addr)
}

// readOnlyAnnotation marks a tool as side-effect free. Every tool here is.
func readOnlyAnnotation() mcp.ToolAnnotation {
	return mcp.ToolAnnotation{
		ReadOnlyHint:   boolPtr(true),
		IdempotentHint: boolPtr(true),
	}
}

func boolPtr(b bool) *bool {
	return &b
}
