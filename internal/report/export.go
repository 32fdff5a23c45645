//-------------------------------------------------------------------------
//
// pgEdge Movements Report
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pgEdge/pgedge-movements/internal/aggregate"
	"github.com/pgEdge/pgedge-movements/internal/movement"
)

// Table is a header plus rows, ready to be written as CSV.
type Table struct {
	Header []string
	Rows   [][]string
}

// RouteSummaryCSV lays out the by-route view in report order.
func RouteSummaryCSV(routes []aggregate.RouteSummary) Table {
	t := Table{Header: []string{
		"route",
		"total_movements",
		"mean_freight",
		"total_freight",
		"mean_quantity",
		"mean_delay_days",
		"delayed_movements",
		"delay_rate",
	}}
	for _, r := range routes {
		t.Rows = append(t.Rows, []string{
			r.Route,
			strconv.Itoa(r.Count),
			r.MeanCost.StringFixed(2),
			r.TotalCost.StringFixed(2),
			formatFloat(r.MeanQuantity),
			formatFloat(r.MeanDelay),
			strconv.Itoa(r.DelayedCount),
			formatFloat(r.DelayRate),
		})
	}
	return t
}

// RecordsCSV lays out cleaned records including derived calendar fields.
func RecordsCSV(records []movement.Record) Table {
	t := Table{Header: append(append([]string{}, movement.Columns...),
		"month", "iso_year", "iso_week", "weekday")}
	for _, r := range records {
		t.Rows = append(t.Rows, []string{
			strconv.FormatInt(r.ID, 10),
			r.Date.Format(time.DateOnly),
			r.Route,
			r.Origin,
			r.Destination,
			r.ProductID,
			strconv.FormatFloat(r.Quantity, 'f', -1, 64),
			r.FreightValue.StringFixed(2),
			r.Status.String(),
			strconv.Itoa(r.DelayDays),
			strconv.Itoa(int(r.Month)),
			strconv.Itoa(r.ISOYear),
			strconv.Itoa(r.Week),
			r.Weekday.String(),
		})
	}
	return t
}

// WriteFile writes t as CSV to path. The file is written under a temporary
// name and renamed into place, so a failed export never leaves a partial
// file behind.
func WriteFile(path string, t Table) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(f.Name())
		}
	}()

	if err := f.Chmod(0o644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(t.Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := w.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("failed to write rows: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", f.Name(), err)
	}
	if err := os.Rename(f.Name(), path); err != nil {
		return fmt.Errorf("failed to move export into place: %w", err)
	}
	return nil
}
