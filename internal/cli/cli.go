//-------------------------------------------------------------------------
//
// pgEdge Movements Report
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package cli implements the command-line interface for pgedge-movements.
package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-movements/internal/config"
	"github.com/pgEdge/pgedge-movements/internal/logging"
	"github.com/pgEdge/pgedge-movements/internal/movement"
	"github.com/pgEdge/pgedge-movements/pkg/version"
)

var (
	// Global flags
	cfgFile  string
	envFile  string
	logLevel string
	dbHost   string
	dbPort   int
	dbName   string
	dbUser   string
	sslMode  string

	// Global config
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "pgedge-movements",
		Short: "Logistics movements report for PostgreSQL",
		Long: `pgedge-movements connects to a PostgreSQL database holding logistics
movements, extracts the records of a trailing date window, cleans and
aggregates them, and produces console insights, PNG charts and CSV exports.

Connection parameters are read from DB_HOST, DB_PORT, DB_NAME, DB_USER,
DB_PASSWORD and DB_SSLMODE (a .env file in the working directory is loaded
if present), from an optional config file, and from command-line flags.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: ./pgedge-movements.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env",
		"environment file to load before reading configuration")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&dbHost, "host", "",
		"database host (overrides DB_HOST)")
	rootCmd.PersistentFlags().IntVar(&dbPort, "port", 0,
		"database port (overrides DB_PORT)")
	rootCmd.PersistentFlags().StringVar(&dbName, "dbname", "",
		"database name (overrides DB_NAME)")
	rootCmd.PersistentFlags().StringVar(&dbUser, "user", "",
		"database user (overrides DB_USER)")
	rootCmd.PersistentFlags().StringVar(&sslMode, "sslmode", "",
		"SSL mode (overrides DB_SSLMODE)")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(statusesCmd)
}

func initConfig() error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("error loading %s: %w", envFile, err)
		}
	}

	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return err
	}

	// Override with CLI flags
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if dbHost != "" {
		cfg.Database.Host = dbHost
	}
	if dbPort > 0 {
		cfg.Database.Port = dbPort
	}
	if dbName != "" {
		cfg.Database.Name = dbName
	}
	if dbUser != "" {
		cfg.Database.User = dbUser
	}
	if sslMode != "" {
		cfg.Database.SSLMode = sslMode
	}

	// Reinitialize logger with config
	logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
	})

	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println(version.Info())
	},
}

var statusesCmd = &cobra.Command{
	Use:   "statuses",
	Short: "List recognised movement statuses",
	Long: `List the movement statuses the report recognises, with the source
label and every alias accepted during cleaning. Matching ignores case,
accents and repeated whitespace.`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println("Movement statuses:")
		cmd.Println()
		for _, s := range movement.Statuses() {
			cmd.Printf("  %-12s %-13s %v\n", s.Status, s.Label, s.Aliases)
		}
		cmd.Println()
		cmd.Println("Unknown statuses are rejected unless --status-policy=other is given.")
	},
}
