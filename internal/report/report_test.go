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
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pgEdge/pgedge-movements/internal/aggregate"
	"github.com/pgEdge/pgedge-movements/internal/movement"
)

var fixedNow = time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC)

func sampleRecords() []movement.Record {
	mk := func(id int64, route string, status movement.Status, freight string, delay int) movement.Record {
		d := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -int(id))
		year, week := d.ISOWeek()
		return movement.Record{
			ID:           id,
			Date:         d,
			Route:        route,
			Origin:       strings.Split(route, "-")[0],
			Destination:  strings.Split(route, "-")[1],
			ProductID:    "PRD-1",
			Quantity:     2.5,
			FreightValue: decimal.RequireFromString(freight),
			Status:       status,
			DelayDays:    delay,
			Month:        d.Month(),
			ISOYear:      year,
			Week:         week,
			Weekday:      d.Weekday(),
		}
	}
	return []movement.Record{
		mk(1, "SP-RJ", movement.StatusDelayed, "1200.00", 3),
		mk(2, "SP-RJ", movement.StatusDelivered, "800.00", 0),
		mk(3, "SP-MG", movement.StatusInTransit, "450.25", 0),
		mk(4, "RJ-BA", movement.StatusDelayed, "990.90", 6),
		mk(5, "RJ-BA", movement.StatusCancelled, "100.00", 0),
	}
}

func newTestReporter(t *testing.T, out *bytes.Buffer) (*Reporter, string) {
	t.Helper()
	dir := t.TempDir()
	r := New(Config{
		PlotsDir:     filepath.Join(dir, "plots"),
		ProcessedDir: filepath.Join(dir, "data", "processed"),
		Now:          func() time.Time { return fixedNow },
	}, out)
	return r, dir
}

func TestWriteConsole(t *testing.T) {
	records := sampleRecords()
	summary := aggregate.Compute(records, aggregate.DefaultOptions())

	var buf bytes.Buffer
	if err := WriteConsole(&buf, summary, fixedNow); err != nil {
		t.Fatalf("WriteConsole failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"DESCRIPTIVE STATISTICS",
		"Movements:        5",
		"MOVEMENTS BY STATUS",
		"Atrasado",
		"MOVEMENTS BY ROUTE",
		"SP-RJ",
		"ALERT: ROUTES WITH DELAY RATE ABOVE 20.00%",
		"ECONOMIC IMPACT",
		"Estimated avoidable cost from delays: 318.18",
		"Report completed at 2026-04-01 09:30:00",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("console output missing %q\n%s", want, out)
		}
	}
}

func TestWriteConsoleNoCriticalRoutes(t *testing.T) {
	records := sampleRecords()[1:3]
	summary := aggregate.Compute(records, aggregate.DefaultOptions())

	var buf bytes.Buffer
	if err := WriteConsole(&buf, summary, fixedNow); err != nil {
		t.Fatalf("WriteConsole failed: %v", err)
	}
	if strings.Contains(buf.String(), "ALERT") {
		t.Error("alert block should only appear when a route is critical")
	}
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("broken pipe")
}

func TestWriteConsoleWriteError(t *testing.T) {
	summary := aggregate.Compute(sampleRecords(), aggregate.DefaultOptions())
	if err := WriteConsole(failingWriter{}, summary, fixedNow); err == nil {
		t.Error("expected write error to be reported")
	}
}

func TestRunWritesAllArtifacts(t *testing.T) {
	records := sampleRecords()
	summary := aggregate.Compute(records, aggregate.DefaultOptions())

	var buf bytes.Buffer
	r, dir := newTestReporter(t, &buf)
	outcomes := r.Run(records, summary)

	if len(outcomes) != 6 {
		t.Fatalf("expected 6 outcomes, got %d", len(outcomes))
	}
	if err := Failed(outcomes); err != nil {
		t.Fatalf("unexpected failures: %v", err)
	}

	for _, name := range []string{StatusChartFile, CostChartFile, DelayChartFile} {
		data, err := os.ReadFile(filepath.Join(dir, "plots", name))
		if err != nil {
			t.Errorf("chart %s not written: %v", name, err)
			continue
		}
		if !bytes.HasPrefix(data, []byte("\x89PNG")) {
			t.Errorf("chart %s is not a PNG", name)
		}
	}

	routes, err := os.ReadFile(filepath.Join(dir, "data", "processed", RouteSummaryFile))
	if err != nil {
		t.Fatalf("route summary not written: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(routes)), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header + 3 routes, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[1], "SP-RJ,2,1000.00,2000.00,") {
		t.Errorf("unexpected first route line: %s", lines[1])
	}

	cleaned, err := os.ReadFile(filepath.Join(dir, "data", "processed", CleanedRecordFile))
	if err != nil {
		t.Fatalf("cleaned records not written: %v", err)
	}
	if got := strings.Count(string(cleaned), "\n"); got != len(records)+1 {
		t.Errorf("expected %d lines in cleaned export, got %d", len(records)+1, got)
	}
	if !strings.Contains(string(cleaned), "1,2026-03-30,SP-RJ,SP,RJ,PRD-1,2.5,1200.00,delayed,3,3,2026,14,Monday") {
		t.Errorf("cleaned export missing derived fields:\n%s", cleaned)
	}
}

func TestRunIsolatesFailures(t *testing.T) {
	records := sampleRecords()
	summary := aggregate.Compute(records, aggregate.DefaultOptions())

	dir := t.TempDir()
	blocker := filepath.Join(dir, "plots")
	if err := os.WriteFile(blocker, []byte("not a directory"), 0o644); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	r := New(Config{
		PlotsDir:     blocker,
		ProcessedDir: filepath.Join(dir, "processed"),
		Now:          func() time.Time { return fixedNow },
	}, &buf)

	outcomes := r.Run(records, summary)

	var chartFailures, exportSuccesses int
	for _, o := range outcomes {
		switch o.Kind {
		case KindChart:
			if o.Err != nil {
				chartFailures++
			}
		case KindExport:
			if o.Err == nil {
				exportSuccesses++
			}
		case KindConsole:
			if o.Err != nil {
				t.Errorf("console output should succeed, got %v", o.Err)
			}
		}
	}

	if chartFailures != 3 {
		t.Errorf("expected 3 chart failures, got %d", chartFailures)
	}
	if exportSuccesses != 2 {
		t.Errorf("exports should succeed despite chart failures, got %d", exportSuccesses)
	}

	err := Failed(outcomes)
	if err == nil {
		t.Fatal("Failed should report chart errors")
	}
	if !strings.Contains(err.Error(), "status distribution chart") {
		t.Errorf("each failure should be named, got %v", err)
	}
}

func TestRunEmptyRecordsSkipsCharts(t *testing.T) {
	summary := aggregate.Compute(nil, aggregate.DefaultOptions())

	var buf bytes.Buffer
	r, _ := newTestReporter(t, &buf)
	outcomes := r.Run(nil, summary)

	if err := Failed(outcomes); err != nil {
		t.Fatalf("empty run should not fail: %v", err)
	}
	for _, o := range outcomes {
		if o.Kind == KindChart && !o.Skipped {
			t.Errorf("chart %s should be skipped without data", o.Name)
		}
	}
}

func TestRunSkipFlags(t *testing.T) {
	var buf bytes.Buffer
	r := New(Config{SkipCharts: true, SkipExports: true, Now: func() time.Time { return fixedNow }}, &buf)

	outcomes := r.Run(sampleRecords(), aggregate.Compute(sampleRecords(), aggregate.DefaultOptions()))
	if len(outcomes) != 1 || outcomes[0].Kind != KindConsole {
		t.Errorf("expected only the console outcome, got %+v", outcomes)
	}
}

func TestRouteSummaryExportIsByteIdentical(t *testing.T) {
	records := sampleRecords()
	dir := t.TempDir()

	var outputs [][]byte
	for i := 0; i < 2; i++ {
		summary := aggregate.Compute(records, aggregate.DefaultOptions())
		path := filepath.Join(dir, "run"+string(rune('a'+i)), RouteSummaryFile)
		if err := WriteFile(path, RouteSummaryCSV(summary.ByRoute)); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		outputs = append(outputs, data)
	}

	if !bytes.Equal(outputs[0], outputs[1]) {
		t.Errorf("repeated aggregation produced different exports:\n%s\n---\n%s", outputs[0], outputs[1])
	}
}

func TestWriteFileLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")

	if err := WriteFile(path, Table{Header: []string{"a"}, Rows: [][]string{{"1"}}}); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "out.csv" {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("expected only out.csv, got %v", names)
	}
}
