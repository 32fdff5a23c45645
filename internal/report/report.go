//-------------------------------------------------------------------------
//
// pgEdge Movements Report
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package report renders aggregated movements to the console, to chart
// images and to CSV files. Every artifact is produced by its own action and
// yields its own Outcome; one failing artifact does not stop the others.
package report

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/pgEdge/pgedge-movements/internal/aggregate"
	"github.com/pgEdge/pgedge-movements/internal/logging"
	"github.com/pgEdge/pgedge-movements/internal/movement"
)

// Artifact file names.
const (
	StatusChartFile   = "status_distribution.png"
	CostChartFile     = "top_routes_cost.png"
	DelayChartFile    = "delay_rate_by_route.png"
	RouteSummaryFile  = "route_summary.csv"
	CleanedRecordFile = "movements_cleaned.csv"
)

// Kind classifies an output.
type Kind string

const (
	KindConsole Kind = "console"
	KindChart   Kind = "chart"
	KindExport  Kind = "export"
)

// Outcome is the result of one output action.
type Outcome struct {
	Name    string
	Kind    Kind
	Path    string
	Skipped bool
	Err     error
}

// Config controls where and what the reporter writes.
type Config struct {
	PlotsDir         string
	ProcessedDir     string
	TopRoutesByCost  int
	TopRoutesByDelay int
	SkipCharts       bool
	SkipExports      bool

	// Now stamps the completion line; defaults to time.Now.
	Now func() time.Time
}

// Reporter produces every report artifact for one run.
type Reporter struct {
	cfg Config
	out io.Writer
}

// New creates a reporter that prints console output to out.
func New(cfg Config, out io.Writer) *Reporter {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.TopRoutesByCost <= 0 {
		cfg.TopRoutesByCost = 10
	}
	if cfg.TopRoutesByDelay <= 0 {
		cfg.TopRoutesByDelay = 8
	}
	return &Reporter{cfg: cfg, out: out}
}

type action struct {
	name string
	kind Kind
	path string
	run  func() (skipped bool, err error)
}

// Run performs every output action and returns their outcomes in order:
// console, charts, exports.
func (r *Reporter) Run(records []movement.Record, summary *aggregate.Summary) []Outcome {
	actions := []action{
		{
			name: "console summary",
			kind: KindConsole,
			run: func() (bool, error) {
				return false, WriteConsole(r.out, summary, r.cfg.Now())
			},
		},
	}

	if !r.cfg.SkipCharts {
		actions = append(actions, r.chartActions(summary)...)
	}
	if !r.cfg.SkipExports {
		actions = append(actions, r.exportActions(records, summary)...)
	}

	outcomes := make([]Outcome, 0, len(actions))
	for _, a := range actions {
		skipped, err := runIsolated(a.run)
		o := Outcome{Name: a.name, Kind: a.kind, Path: a.path, Skipped: skipped, Err: err}
		logOutcome(o)
		outcomes = append(outcomes, o)
	}
	return outcomes
}

func (r *Reporter) chartActions(summary *aggregate.Summary) []action {
	statusPath := filepath.Join(r.cfg.PlotsDir, StatusChartFile)
	costPath := filepath.Join(r.cfg.PlotsDir, CostChartFile)
	delayPath := filepath.Join(r.cfg.PlotsDir, DelayChartFile)

	return []action{
		{
			name: "status distribution chart",
			kind: KindChart,
			path: statusPath,
			run:  func() (bool, error) { return StatusChart(summary.ByStatus, statusPath) },
		},
		{
			name: "top routes by cost chart",
			kind: KindChart,
			path: costPath,
			run: func() (bool, error) {
				return RouteCostChart(aggregate.Top(summary.ByRoute, r.cfg.TopRoutesByCost), costPath)
			},
		},
		{
			name: "delay rate by route chart",
			kind: KindChart,
			path: delayPath,
			run: func() (bool, error) {
				return DelayRateChart(aggregate.TopByDelayRate(summary.ByRoute, r.cfg.TopRoutesByDelay), delayPath)
			},
		},
	}
}

func (r *Reporter) exportActions(records []movement.Record, summary *aggregate.Summary) []action {
	routePath := filepath.Join(r.cfg.ProcessedDir, RouteSummaryFile)
	recordPath := filepath.Join(r.cfg.ProcessedDir, CleanedRecordFile)

	return []action{
		{
			name: "route summary export",
			kind: KindExport,
			path: routePath,
			run:  func() (bool, error) { return false, WriteFile(routePath, RouteSummaryCSV(summary.ByRoute)) },
		},
		{
			name: "cleaned movements export",
			kind: KindExport,
			path: recordPath,
			run:  func() (bool, error) { return false, WriteFile(recordPath, RecordsCSV(records)) },
		},
	}
}

// runIsolated converts a panic inside an output action into an error so
// that the remaining actions still run.
func runIsolated(fn func() (bool, error)) (skipped bool, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return fn()
}

func logOutcome(o Outcome) {
	switch {
	case o.Err != nil:
		logging.Error().
			Err(o.Err).
			Str("output", o.Name).
			Str("kind", string(o.Kind)).
			Str("path", o.Path).
			Msg("Output failed")
	case o.Skipped:
		logging.Warn().
			Str("output", o.Name).
			Msg("Output skipped: no data")
	case o.Path != "":
		logging.Info().
			Str("output", o.Name).
			Str("path", o.Path).
			Msg("Output written")
	}
}

// Failed joins the errors of all failed outcomes, or returns nil.
func Failed(outcomes []Outcome) error {
	var errs []error
	for _, o := range outcomes {
		if o.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", o.Name, o.Err))
		}
	}
	return errors.Join(errs...)
}
