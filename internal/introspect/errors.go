package introspect

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"

	mssql "github.com/microsoft/go-mssqldb"
)

var (
	// ErrConnectivity wraps failures to reach or keep the catalog
	// connection. A run that hits one returns no model.
	ErrConnectivity = errors.New("catalog connectivity")

	// ErrOutOfOrder is returned when a grouped row stream revisits a key
	// it has already closed, meaning the query lost its ORDER BY.
	ErrOutOfOrder = errors.New("catalog rows out of order")

	errNoColumns = errors.New("table type has no columns")
)

// IsFatal reports whether err means the catalog can no longer be trusted
// to answer: cancellation, an expired deadline, or a broken connection.
// Errors raised by the server for one statement are not fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, ErrConnectivity) || errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var sqlErr mssql.Error
	if errors.As(err, &sqlErr) {
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// settle decides the fate of a failed per-entity detail query. It returns
// nil when the entity should be recorded as degraded and the run should
// go on, or the error that ends the run. ctx is the run's context, not
// the per-query one, so a single query hitting its own timeout degrades
// rather than aborts.
func settle(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	if IsFatal(err) {
		if errors.Is(err, ErrConnectivity) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrConnectivity, err)
	}
	return nil
}
