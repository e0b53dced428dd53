package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/faucetdb/sqlcatalog/internal/contract"
)

// ErrDrift is returned when --fail-on matches; the report has already
// been printed.
var ErrDrift = errors.New("drift detected")

func newDiffCmd() *cobra.Command {
	var (
		jsonOutput bool
		failOn     string
	)

	cmd := &cobra.Command{
		Use:   "diff BASELINE [CURRENT]",
		Short: "Compare two models and report breaking changes",
		Long: `Compare a saved model (BASELINE) with another saved model, or with the
live database when CURRENT is omitted, and list every change to procedure
parameters, result columns, function signatures, view columns and table
types. Each change is classified as additive or breaking for code generated
from the baseline.`,
		Example: `  sqlcatalog introspect -o baseline.json
  sqlcatalog diff baseline.json                    # against the live database
  sqlcatalog diff baseline.json new.yaml --fail-on any`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(cmd, args, jsonOutput, failOn)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the report as JSON")
	cmd.Flags().StringVar(&failOn, "fail-on", "breaking", "Exit non-zero on: breaking, any, or none")
	cmd.Flags().String("dsn", "", "SQL Server connection string (when CURRENT is omitted)")

	return cmd
}

func runDiff(cmd *cobra.Command, args []string, jsonOutput bool, failOn string) error {
	switch failOn {
	case "breaking", "any", "none":
	default:
		return fmt.Errorf("--fail-on must be breaking, any or none, got %q", failOn)
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

	baseline, err := loadModel(ctx, args[0], cfg, logger)
	if err != nil {
		return fmt.Errorf("baseline: %w", err)
	}
	currentPath := ""
	if len(args) == 2 {
		currentPath = args[1]
	}
	current, err := loadModel(ctx, currentPath, cfg, logger)
	if err != nil {
		return fmt.Errorf("current: %w", err)
	}

	report := contract.DiffDatabase(baseline, current)
	out := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else if err := printReport(out, report); err != nil {
		return err
	}

	if (failOn == "breaking" && report.HasBreaking) || (failOn == "any" && report.HasDrift) {
		return fmt.Errorf("%w: %d breaking, %d additive", ErrDrift, report.BreakingCount, report.AdditiveCount)
	}
	return nil
}

func printReport(w io.Writer, r contract.Report) error {
	if !r.HasDrift {
		_, err := fmt.Fprintln(w, "No changes.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, item := range r.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", item.Type, item.Kind, item.Description)
	}
	fmt.Fprintf(tw, "\n%d breaking, %d additive\n", r.BreakingCount, r.AdditiveCount)
	return tw.Flush()
}
