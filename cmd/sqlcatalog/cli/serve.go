package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/faucetdb/sqlcatalog/internal/server"
)

func newServeCmd() *cobra.Command {
	var modelPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the model over a read-only HTTP API",
		Long: `Introspect the database once (or load a model written by
'sqlcatalog introspect' with --model) and serve it read-only:

  GET /api/v1/model
  GET /api/v1/procedures[/{schema}/{name}]
  GET /api/v1/functions[/{schema}/{name}]
  GET /api/v1/views[/{schema}/{name}]
  GET /api/v1/table-types[/{schema}/{name}]
  GET /api/v1/diagnostics

The model is not refreshed; restart to pick up catalog changes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, modelPath)
		},
	}

	cmd.Flags().IntP("port", "p", 0, "HTTP listen port")
	cmd.Flags().String("host", "", "HTTP listen host")
	cmd.Flags().String("dsn", "", "SQL Server connection string")
	cmd.Flags().StringVar(&modelPath, "model", "", "serve a saved model file instead of connecting")

	return cmd
}

func runServe(cmd *cobra.Command, modelPath string) error {
	cfg, err := loadConfig(cmd, map[string]string{
		"server.port":    "port",
		"server.host":    "host",
		"connection.dsn": "dsn",
	})
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

	srvCfg := server.Config{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		CORSOrigins:     cfg.Server.CORSOrigins,
		RateLimit:       cfg.Server.RateLimit,
	}
	srv := server.New(srvCfg, db, logger)

	fmt.Fprintf(cmd.ErrOrStderr(), "sqlcatalog %s serving %d procedures, %d functions, %d views, %d table types on http://%s\n",
		versionString(), len(db.StoredProcedures), len(db.Functions), len(db.Views), len(db.TableTypes),
		srvCfg.Addr())

	return srv.ListenAndServe(ctx)
}
