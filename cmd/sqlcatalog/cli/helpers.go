package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/faucetdb/sqlcatalog/internal/config"
	"github.com/faucetdb/sqlcatalog/internal/connector"
	"github.com/faucetdb/sqlcatalog/internal/connector/mssql"
	"github.com/faucetdb/sqlcatalog/internal/ident"
	"github.com/faucetdb/sqlcatalog/internal/introspect"
	"github.com/faucetdb/sqlcatalog/internal/model"
)

// loadConfig binds the running command's flags (config key -> flag name)
// and returns the effective configuration from the global viper instance.
// Binding happens here rather than in the constructors because several
// commands expose the same key, and viper keeps only the last binding.
func loadConfig(cmd *cobra.Command, flags map[string]string) (*config.Config, error) {
	if cfgErr != nil {
		return nil, cfgErr
	}
	v := viper.GetViper()
	for key, name := range flags {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return nil, fmt.Errorf("bind --%s: %w", name, err)
		}
	}
	return config.FromViper(v)
}

// newLogger builds the process logger. Logs always go to w (stderr in
// practice) so stdout stays free for model output and MCP stdio.
func newLogger(cfg config.LoggingConfig, w io.Writer) (*slog.Logger, error) {
	level := slog.LevelInfo
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, fmt.Errorf("logging.level: %w", err)
		}
	}
	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(cfg.Format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("logging.format must be text or json, got %q", cfg.Format)
	}
}

// introspectDatabase connects with cfg, reads the whole catalog once and
// disconnects.
func introspectDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*model.Database, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	target, err := ident.Lookup(cfg.Introspection.Target)
	if err != nil {
		return nil, err
	}

	conn := mssql.New(logger)
	if err := conn.Connect(poolConfig(cfg.Connection)); err != nil {
		return nil, fmt.Errorf("%w: %w", introspect.ErrConnectivity, err)
	}
	defer conn.Disconnect()

	logger.Info("connected", "dsn", connector.RedactDSN(cfg.Connection.DSN))

	in := introspect.New(conn, introspect.Options{
		Concurrency:  cfg.Introspection.Concurrency,
		QueryTimeout: cfg.Introspection.QueryTimeout,
		Target:       target,
		Logger:       logger,
	})
	return in.Read(ctx)
}

func poolConfig(c config.ConnectionConfig) connector.ConnectionConfig {
	return connector.ConnectionConfig{
		DSN:             c.DSN,
		MaxOpenConns:    c.MaxOpenConns,
		MaxIdleConns:    c.MaxIdleConns,
		ConnMaxLifetime: c.ConnMaxLifetime,
		ConnMaxIdleTime: c.ConnMaxIdleTime,
	}
}

// loadModel returns the model for serve and mcp: read from a file written
// by `sqlcatalog introspect` when path is set, otherwise introspected live.
func loadModel(ctx context.Context, path string, cfg *config.Config, logger *slog.Logger) (*model.Database, error) {
	if path == "" {
		return introspectDatabase(ctx, cfg, logger)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	var db model.Database
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &db)
	default:
		err = json.Unmarshal(data, &db)
	}
	if err != nil {
		return nil, fmt.Errorf("parse model %s: %w", path, err)
	}
	logger.Info("model loaded", "path", path, "procedures", len(db.StoredProcedures))
	return &db, nil
}

// writeModel encodes db to w as json or yaml.
func writeModel(w io.Writer, db *model.Database, format string) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(db)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(db); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported format %q; use json or yaml", format)
	}
}

// writeModelFile writes the model next to path and renames it into place,
// so a failed encode or flush never leaves a truncated file at path.
func writeModelFile(path string, db *model.Database, format string) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err := writeModel(tmp, db, format); err != nil {
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// versionString returns a display version string.
func versionString() string {
	if appVersion == "" || appVersion == "dev" {
		return "dev"
	}
	if strings.HasPrefix(appVersion, "v") {
		return appVersion
	}
	return "v" + appVersion
}
