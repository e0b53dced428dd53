package config

import "errors"

var (
	// ErrNoDSN is returned when no connection string was configured.
	ErrNoDSN = errors.New("no connection DSN configured (set connection.dsn, --dsn or SQLCATALOG_CONNECTION_DSN)")

	// ErrInvalid wraps any other rejected setting.
	ErrInvalid = errors.New("invalid configuration")
)
