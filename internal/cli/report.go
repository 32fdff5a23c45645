//-------------------------------------------------------------------------
//
// pgEdge Movements Report
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-movements/internal/aggregate"
	"github.com/pgEdge/pgedge-movements/internal/db"
	"github.com/pgEdge/pgedge-movements/internal/extract"
	"github.com/pgEdge/pgedge-movements/internal/logging"
	"github.com/pgEdge/pgedge-movements/internal/movement"
	"github.com/pgEdge/pgedge-movements/internal/report"
	"github.com/pgEdge/pgedge-movements/internal/transform"
)

var (
	reportWindowDays   int
	reportPlotsDir     string
	reportProcessedDir string
	reportThreshold    float64
	reportStatusPolicy string
	reportSkipCharts   bool
	reportSkipExports  bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Run the movements report",
	Long: `Extract the logistics movements of the trailing window, clean and
aggregate them, then print the console report, render the charts and write
the CSV exports. Every output is produced independently; the command exits
with an error if any of them failed.

Example:
  pgedge-movements report --window-days 30
  pgedge-movements report --threshold 15 --status-policy other --skip-charts`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().IntVar(&reportWindowDays, "window-days", 0,
		"number of trailing days to extract (default: 90)")
	reportCmd.Flags().StringVar(&reportPlotsDir, "plots-dir", "",
		"directory for PNG charts (default: plots)")
	reportCmd.Flags().StringVar(&reportProcessedDir, "processed-dir", "",
		"directory for CSV exports (default: data/processed)")
	reportCmd.Flags().Float64Var(&reportThreshold, "threshold", 0,
		"delay rate percentage above which a route is critical (default: 20)")
	reportCmd.Flags().StringVar(&reportStatusPolicy, "status-policy", "",
		"handling of unknown statuses: reject or other")
	reportCmd.Flags().BoolVar(&reportSkipCharts, "skip-charts", false,
		"do not render charts")
	reportCmd.Flags().BoolVar(&reportSkipExports, "skip-exports", false,
		"do not write CSV exports")
}

func runReport(cmd *cobra.Command, args []string) error {
	// Override config with CLI flags
	if reportWindowDays > 0 {
		cfg.Report.WindowDays = reportWindowDays
	}
	if reportPlotsDir != "" {
		cfg.Report.PlotsDir = reportPlotsDir
	}
	if reportProcessedDir != "" {
		cfg.Report.ProcessedDir = reportProcessedDir
	}
	if cmd.Flags().Changed("threshold") {
		cfg.Report.DelayRateThreshold = reportThreshold
	}
	if reportStatusPolicy != "" {
		cfg.Report.StatusPolicy = reportStatusPolicy
	}
	if reportSkipCharts {
		cfg.Report.SkipCharts = true
	}
	if reportSkipExports {
		cfg.Report.SkipExports = true
	}

	// Validate configuration
	if err := cfg.ValidateReport(); err != nil {
		return err
	}
	policy, err := movement.ParsePolicy(cfg.Report.StatusPolicy)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().
		Str("host", cfg.Database.Host).
		Int("port", cfg.Database.Port).
		Str("database", cfg.Database.Name).
		Msg("Connecting to database")

	session, err := db.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer session.Close(context.Background())

	logging.Info().Msg("Connected")

	metadata, err := db.GetAllMetadata(ctx, session.Conn())
	if err != nil {
		logging.Debug().Err(err).Msg("Could not read seed metadata")
	} else if len(metadata) > 0 {
		logging.Info().
			Str("seeded_at", metadata["seeded_at"]).
			Str("seed_rows", metadata["seed_rows"]).
			Msg("Database was seeded by pgedge-movements")
	}

	window := extract.Window{Days: cfg.Report.WindowDays}
	raw, err := extract.New(session.Conn()).Extract(ctx, window)
	if err != nil {
		return err
	}
	// The session is not needed past extraction.
	if err := session.Close(ctx); err != nil {
		logging.Warn().Err(err).Msg("Error closing database connection")
	}

	result := transform.Transform(raw, transform.Options{StatusPolicy: policy})
	logTransform(result)

	summary := aggregate.Compute(result.Records, aggregate.Options{
		DelayRateThreshold: cfg.Report.DelayRateThreshold,
	})

	reporter := report.New(report.Config{
		PlotsDir:         cfg.Report.PlotsDir,
		ProcessedDir:     cfg.Report.ProcessedDir,
		TopRoutesByCost:  cfg.Report.TopRoutesByCost,
		TopRoutesByDelay: cfg.Report.TopRoutesByDelay,
		SkipCharts:       cfg.Report.SkipCharts,
		SkipExports:      cfg.Report.SkipExports,
	}, cmd.OutOrStdout())

	if err := report.Failed(reporter.Run(result.Records, summary)); err != nil {
		return fmt.Errorf("report finished with failed outputs: %w", err)
	}

	logging.Info().Msg("Report complete")
	return nil
}

func logTransform(result transform.Result) {
	event := logging.Info().
		Int("input", result.Input()).
		Int("records", len(result.Records)).
		Int("rejected", len(result.Rejections))
	counts := result.RejectionCounts()
	for _, reason := range result.Reasons() {
		event = event.Int(string(reason), counts[reason])
	}
	event.Msg("Cleaned movements")

	for _, r := range result.Rejections {
		logging.Debug().
			Int("index", r.Index).
			Str("id", r.ID).
			Str("field", r.Field).
			Str("reason", string(r.Reason)).
			Msg("Rejected row")
	}
}
