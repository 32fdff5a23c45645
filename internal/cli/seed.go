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
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-movements/internal/db"
	"github.com/pgEdge/pgedge-movements/internal/logging"
	"github.com/pgEdge/pgedge-movements/internal/seed"
)

var (
	seedRows            int
	seedDays            int
	seedInvalidFraction float64
	seedRandomSeed      uint64
	seedDropExisting    bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the movements table and fill it with synthetic data",
	Long: `Create the logistics_movements table and populate it with synthetic
movements between Brazilian state capitals. A fraction of rows can be
deliberately corrupted to exercise the cleaning step of the report.

Example:
  pgedge-movements seed --rows 5000 --days 180
  pgedge-movements seed --drop-existing --invalid-fraction 0.05 --seed 42`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().IntVar(&seedRows, "rows", 0,
		"number of movements to generate (default: 2000)")
	seedCmd.Flags().IntVar(&seedDays, "days", 0,
		"spread movements over this many trailing days (default: 120)")
	seedCmd.Flags().Float64Var(&seedInvalidFraction, "invalid-fraction", 0,
		"fraction of rows to corrupt, between 0 and 1")
	seedCmd.Flags().Uint64Var(&seedRandomSeed, "seed", 0,
		"random seed for reproducible data (0 = random)")
	seedCmd.Flags().BoolVar(&seedDropExisting, "drop-existing", false,
		"drop existing tables before seeding")
}

func runSeed(cmd *cobra.Command, args []string) error {
	// Override config with CLI flags
	if seedRows > 0 {
		cfg.Seed.Rows = seedRows
	}
	if seedDays > 0 {
		cfg.Seed.Days = seedDays
	}
	if cmd.Flags().Changed("invalid-fraction") {
		cfg.Seed.InvalidFraction = seedInvalidFraction
	}
	if seedRandomSeed != 0 {
		cfg.Seed.Seed = seedRandomSeed
	}
	if seedDropExisting {
		cfg.Seed.DropExisting = true
	}

	// Validate configuration
	if err := cfg.ValidateSeed(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	session, err := db.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer session.Close(context.Background())

	n, err := seed.Run(ctx, session.Conn(), seed.Options{
		Rows:            cfg.Seed.Rows,
		Days:            cfg.Seed.Days,
		InvalidFraction: cfg.Seed.InvalidFraction,
		Seed:            cfg.Seed.Seed,
	}, cfg.Seed.DropExisting)
	if err != nil {
		return err
	}

	logging.Info().
		Int64("rows", n).
		Str("database", cfg.Database.Name).
		Msg("Seeding complete")
	return nil
}
