package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/faucetdb/sqlcatalog/cmd/sqlcatalog/cli"
)

// Overridden with -ldflags "-X main.version=... -X main.commit=... -X main.date=...".
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Exit codes: 1 for any failure, 3 when `diff --fail-on` matched drift.
const (
	exitFailure = 1
	exitDrift   = 3
)

func main() {
	err := cli.Execute(version, commit, date)
	switch {
	case err == nil:
		return
	case errors.Is(err, cli.ErrDrift):
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitDrift)
	default:
		fmt.Fprintf(os.Stderr, "sqlcatalog: %v\n", err)
		os.Exit(exitFailure)
	}
}
