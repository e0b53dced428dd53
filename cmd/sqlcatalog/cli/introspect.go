package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/faucetdb/sqlcatalog/internal/connector"
)

func newIntrospectCmd() *cobra.Command {
	var (
		askPassword bool
		strict      bool
	)

	cmd := &cobra.Command{
		Use:   "introspect",
		Short: "Read the catalog and write the model as JSON or YAML",
		Long: `Connect to SQL Server, read every stored procedure, function, view and
table type, and write the resulting model to stdout or --output.

Entities that could only be read partially are kept and listed under
"diagnostics". Use --strict to exit non-zero when there are any.`,
		Example: `  sqlcatalog introspect --dsn 'sqlserver://sa@localhost:1433?database=app' --ask-password
  sqlcatalog introspect --format yaml -o model.yaml
  SQLCATALOG_CONNECTION_DSN=... sqlcatalog introspect --target csharp`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIntrospect(cmd, askPassword, strict)
		},
	}

	cmd.Flags().String("dsn", "", "SQL Server connection string (sqlserver:// URL or ADO style)")
	cmd.Flags().StringP("format", "f", "", "output format: json or yaml")
	cmd.Flags().StringP("output", "o", "", "output file (default stdout)")
	cmd.Flags().Int("concurrency", 0, "maximum in-flight detail queries per entity kind")
	cmd.Flags().Duration("timeout", 0, "timeout for each catalog query")
	cmd.Flags().String("target", "", "identifier target: go or csharp")
	cmd.Flags().BoolVar(&askPassword, "ask-password", false, "prompt for the database password")
	cmd.Flags().BoolVar(&strict, "strict", false, "exit with an error when any entity was degraded")

	return cmd
}

func runIntrospect(cmd *cobra.Command, askPassword, strict bool) error {
	cfg, err := loadConfig(cmd, map[string]string{
		"connection.dsn":              "dsn",
		"output.format":               "format",
		"output.path":                 "output",
		"introspection.concurrency":   "concurrency",
		"introspection.query_timeout": "timeout",
		"introspection.target":        "target",
	})
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	if askPassword {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		pw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		cfg.Connection.DSN = connector.WithPassword(cfg.Connection.DSN, string(pw))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := introspectDatabase(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("introspect: %w", err)
	}

	if cfg.Output.Path == "" {
		if err := writeModel(cmd.OutOrStdout(), db, cfg.Output.Format); err != nil {
			return fmt.Errorf("write model: %w", err)
		}
	} else {
		if err := writeModelFile(cfg.Output.Path, db, cfg.Output.Format); err != nil {
			return fmt.Errorf("write model: %w", err)
		}
		logger.Info("model written", "path", cfg.Output.Path, "format", cfg.Output.Format)
	}

	if strict && len(db.Diagnostics) > 0 {
		return fmt.Errorf("%d entities degraded (see diagnostics)", len(db.Diagnostics))
	}
	return nil
}
