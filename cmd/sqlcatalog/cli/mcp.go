package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	smcp "github.com/faucetdb/sqlcatalog/internal/mcp"
)

func newMCPCmd() *cobra.Command {
	var (
		transport string
		port      int
		modelPath string
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server for AI agents",
		Long: `Start a Model Context Protocol (MCP) server that exposes the model as
resources (sqlcatalog://model and sqlcatalog://{kind}/{schema}/{name}) and
read-only lookup tools. Supports stdio (default) and HTTP transports.

The database is introspected once at startup, or a saved model is loaded
with --model.`,
		Example: `  sqlcatalog mcp                              # stdio mode (for desktop MCP clients)
  sqlcatalog mcp --model model.json           # no database connection
  sqlcatalog mcp --transport http --port 3001`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMCP(cmd, transport, port, modelPath)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport mode: stdio or http")
	cmd.Flags().IntVar(&port, "port", 3001, "HTTP port (only used with --transport http)")
	cmd.Flags().StringVar(&modelPath, "model", "", "load a saved model file instead of connecting")
	cmd.Flags().String("dsn", "", "SQL Server connection string")

	return cmd
}

func runMCP(cmd *cobra.Command, transport string, port int, modelPath string) error {
	if transport != "stdio" && transport != "http" {
		return fmt.Errorf("unsupported transport %q; use 'stdio' or 'http'", transport)
	}

	cfg, err := loadConfig(cmd, map[string]string{"connection.dsn": "dsn"})
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := loadModel(ctx, modelPath, cfg, logger)
	if err != nil {
		return fmt.Errorf("load model: %w", err)
	}

	mcpSrv := smcp.NewMCPServer(db, versionString(), logger)
	if transport == "http" {
		return mcpSrv.ServeHTTP(fmt.Sprintf(":%d", port))
	}
	return mcpSrv.ServeStdio()
}
