package mssql

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/microsoft/go-mssqldb"

	"github.com/faucetdb/sqlcatalog/internal/connector"
)

// MSSQLConnector implements connector.Catalog for SQL Server.
type MSSQLConnector struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// New creates a new MSSQLConnector. A nil logger discards query logs.
func New(logger *slog.Logger) *MSSQLConnector {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &MSSQLConnector{logger: logger}
}

// NewFromDB wraps an existing pool. Tests use it with sqlmock.
func NewFromDB(db *sqlx.DB, logger *slog.Logger) *MSSQLConnector {
	c := New(logger)
	c.db = db
	return c
}

// Connect opens the pool and verifies the server is reachable. Pool sizing
// bounds how many catalog queries can be in flight at once.
func (c *MSSQLConnector) Connect(cfg connector.ConnectionConfig) error {
	db, err := sqlx.Connect("sqlserver", connector.SanitizeDSN(cfg.DSN))
	if err != nil {
		return fmt.Errorf("mssql connect: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	c.db = db
	return nil
}

// Disconnect closes the database connection pool.
func (c *MSSQLConnector) Disconnect() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// DB returns the underlying sqlx.DB connection pool.
func (c *MSSQLConnector) DB() *sqlx.DB {
	return c.db
}

// PingContext verifies the database connection is alive.
func (c *MSSQLConnector) PingContext(ctx context.Context) error {
	if c.db == nil {
		return fmt.Errorf("mssql: not connected")
	}
	return c.db.PingContext(ctx)
}

// SelectContext runs a read-only catalog query and scans every row into
// dest, a pointer to a slice.
func (c *MSSQLConnector) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	if err := c.check(query); err != nil {
		return err
	}
	c.logger.Debug("catalog select", "query", firstLine(query), "args", args)
	return c.db.SelectContext(ctx, dest, query, args...)
}

// QueryxContext runs a read-only catalog query and returns its rows for
// streaming. The caller must close them.
func (c *MSSQLConnector) QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error) {
	if err := c.check(query); err != nil {
		return nil, err
	}
	c.logger.Debug("catalog query", "query", firstLine(query), "args", args)
	return c.db.QueryxContext(ctx, query, args...)
}

func (c *MSSQLConnector) check(query string) error {
	if c.db == nil {
		return fmt.Errorf("mssql: not connected")
	}
	return ensureReadOnly(query)
}

// ensureReadOnly rejects anything that is not a single SELECT. Catalog
// introspection never modifies the database.
func ensureReadOnly(query string) error {
	q := strings.TrimSpace(query)
	if !strings.HasPrefix(strings.ToUpper(q), "SELECT") {
		return fmt.Errorf("mssql: refusing non-SELECT catalog query %q", firstLine(q))
	}
	if i := strings.IndexByte(q, ';'); i >= 0 && strings.TrimSpace(q[i+1:]) != "" {
		return fmt.Errorf("mssql: refusing multi-statement catalog query %q", firstLine(q))
	}
	return nil
}

func firstLine(q string) string {
	q = strings.TrimSpace(q)
	if i := strings.IndexByte(q, '\n'); i >= 0 {
		return q[:i]
	}
	return q
}

var _ connector.Catalog = (*MSSQLConnector)(nil)
