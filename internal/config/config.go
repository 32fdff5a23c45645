//-------------------------------------------------------------------------
//
// pgEdge Movements Report
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package config handles configuration management for pgedge-movements.
// Configuration is loaded from an optional config file and from environment
// variables; CLI flags are applied on top by the cli package.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/pgEdge/pgedge-movements/internal/movement"
)

// Config holds all configuration for pgedge-movements.
type Config struct {
	// LogLevel controls logging verbosity (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level"`

	// Database holds the connection parameters.
	Database DatabaseConfig `mapstructure:"database"`

	// Report holds configuration for the report subcommand.
	Report ReportConfig `mapstructure:"report"`

	// Seed holds configuration for the seed subcommand.
	Seed SeedConfig `mapstructure:"seed"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`

	// SSLMode is passed through to libpq-style sslmode.
	SSLMode string `mapstructure:"sslmode"`

	// ConnectTimeout is the connection timeout in seconds.
	ConnectTimeout int `mapstructure:"connect_timeout"`
}

// ConnString builds a PostgreSQL keyword/value connection string.
func (d DatabaseConfig) ConnString() string {
	parts := []string{
		"host=" + quoteConnValue(d.Host),
		fmt.Sprintf("port=%d", d.Port),
		"dbname=" + quoteConnValue(d.Name),
		"user=" + quoteConnValue(d.User),
	}
	if d.Password != "" {
		parts = append(parts, "password="+quoteConnValue(d.Password))
	}
	if d.SSLMode != "" {
		parts = append(parts, "sslmode="+quoteConnValue(d.SSLMode))
	}
	if d.ConnectTimeout > 0 {
		parts = append(parts, fmt.Sprintf("connect_timeout=%d", d.ConnectTimeout))
	}
	return strings.Join(parts, " ")
}

func quoteConnValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// ReportConfig holds configuration for the reporting pipeline.
type ReportConfig struct {
	// WindowDays is the trailing number of days to extract.
	WindowDays int `mapstructure:"window_days"`

	// PlotsDir is where chart images are written.
	PlotsDir string `mapstructure:"plots_dir"`

	// ProcessedDir is where CSV exports are written.
	ProcessedDir string `mapstructure:"processed_dir"`

	// DelayRateThreshold is the delay rate (percent) above which a route is
	// reported as critical.
	DelayRateThreshold float64 `mapstructure:"delay_rate_threshold"`

	// TopRoutesByCost is the number of routes in the total cost chart.
	TopRoutesByCost int `mapstructure:"top_routes_by_cost"`

	// TopRoutesByDelay is the number of routes in the delay rate chart.
	TopRoutesByDelay int `mapstructure:"top_routes_by_delay"`

	// StatusPolicy controls rows with an unknown status: reject or other.
	StatusPolicy string `mapstructure:"status_policy"`

	// SkipCharts disables chart rendering.
	SkipCharts bool `mapstructure:"skip_charts"`

	// SkipExports disables CSV exports.
	SkipExports bool `mapstructure:"skip_exports"`
}

// SeedConfig holds configuration for synthetic data generation.
type SeedConfig struct {
	// Rows is the number of movements to generate.
	Rows int `mapstructure:"rows"`

	// Days is how far back movement dates are spread.
	Days int `mapstructure:"days"`

	// InvalidFraction is the share of rows deliberately corrupted (0-1).
	InvalidFraction float64 `mapstructure:"invalid_fraction"`

	// Seed makes generation reproducible when non-zero.
	Seed uint64 `mapstructure:"seed"`

	// DropExisting drops the movements table before seeding.
	DropExisting bool `mapstructure:"drop_existing"`
}

// envBindings maps config keys to the environment variables that feed them.
var envBindings = map[string]string{
	"database.name":     "DB_NAME",
	"database.user":     "DB_USER",
	"database.password": "DB_PASSWORD",
	"database.host":     "DB_HOST",
	"database.port":     "DB_PORT",
	"database.sslmode":  "DB_SSLMODE",
	"log_level":         "MOVEMENTS_LOG_LEVEL",
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Database: DatabaseConfig{
			Host:           "localhost",
			Port:           5432,
			Name:           "logistics",
			User:           "postgres",
			SSLMode:        "disable",
			ConnectTimeout: 10,
		},
		Report: ReportConfig{
			WindowDays:         90,
			PlotsDir:           "plots",
			ProcessedDir:       filepath.Join("data", "processed"),
			DelayRateThreshold: 20,
			TopRoutesByCost:    10,
			TopRoutesByDelay:   8,
			StatusPolicy:       string(movement.PolicyReject),
		},
		Seed: SeedConfig{
			Rows: 2000,
			Days: 120,
		},
	}
}

// Load reads configuration from the environment and config files.
// Config file locations (in order of precedence):
// 1. Path specified by configFile parameter
// 2. ./pgedge-movements.yaml
// 3. ~/.config/pgedge-movements/config.yaml
//
// Environment variables override config file values.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("pgedge-movements")
	v.SetConfigType("yaml")

	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "pgedge-movements"))
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("error binding %s: %w", env, err)
		}
	}

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// Validate checks that the connection parameters are usable.
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("database port must be between 1 and 65535")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	return nil
}

// ValidateReport checks configuration required for the report command.
func (c *Config) ValidateReport() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Report.WindowDays < 1 {
		return fmt.Errorf("window_days must be at least 1")
	}
	if c.Report.DelayRateThreshold < 0 || c.Report.DelayRateThreshold > 100 {
		return fmt.Errorf("delay_rate_threshold must be between 0 and 100")
	}
	if c.Report.TopRoutesByCost < 1 || c.Report.TopRoutesByDelay < 1 {
		return fmt.Errorf("top route counts must be at least 1")
	}
	if !c.Report.SkipCharts && c.Report.PlotsDir == "" {
		return fmt.Errorf("plots_dir is required unless charts are skipped")
	}
	if !c.Report.SkipExports && c.Report.ProcessedDir == "" {
		return fmt.Errorf("processed_dir is required unless exports are skipped")
	}
	if _, err := movement.ParsePolicy(c.Report.StatusPolicy); err != nil {
		return err
	}
	return nil
}

// ValidateSeed checks configuration required for the seed command.
func (c *Config) ValidateSeed() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Seed.Rows < 1 {
		return fmt.Errorf("seed rows must be at least 1")
	}
	if c.Seed.Days < 1 {
		return fmt.Errorf("seed days must be at least 1")
	}
	if c.Seed.InvalidFraction < 0 || c.Seed.InvalidFraction > 1 {
		return fmt.Errorf("invalid_fraction must be between 0 and 1")
	}
	return nil
}
