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
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/pgEdge/pgedge-movements/internal/aggregate"
)

const rule = "============================================================"

// errWriter remembers the first write error so console output can be
// reported as a single outcome.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	if err != nil {
		e.err = err
	}
	return n, err
}

func (e *errWriter) printf(format string, args ...any) {
	fmt.Fprintf(e, format, args...)
}

func section(w *errWriter, title string) {
	w.printf("\n%s\n%s\n%s\n", rule, title, rule)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_CENTER)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.SetBorder(true)
	table.SetHeader(header)
	return table
}

// WriteConsole prints descriptive statistics, both aggregate tables, the
// critical route alert block, the avoidable cost estimate and a completion
// line.
func WriteConsole(out io.Writer, s *aggregate.Summary, now time.Time) error {
	w := &errWriter{w: out}

	section(w, "DESCRIPTIVE STATISTICS")
	w.printf("Movements:        %d\n", s.Stats.Count)
	if s.Stats.Count > 0 {
		w.printf("Period:           %s to %s\n",
			s.Stats.First.Format(time.DateOnly), s.Stats.Last.Format(time.DateOnly))
	}
	w.printf("Mean freight:     %s\n", s.Stats.MeanCost.StringFixed(2))
	w.printf("Total freight:    %s\n", s.Stats.TotalCost.StringFixed(2))
	w.printf("Mean quantity:    %s\n", formatFloat(s.Stats.MeanQuantity))
	w.printf("Mean delay (days): %s\n", formatFloat(s.Stats.MeanDelay))

	section(w, "MOVEMENTS BY STATUS")
	statusTable := newTable(w, []string{"Status", "Total", "Percent", "Freight"})
	for _, st := range s.ByStatus {
		statusTable.Append([]string{
			st.Status.Label(),
			strconv.Itoa(st.Count),
			formatFloat(st.Percentage),
			st.TotalCost.StringFixed(2),
		})
	}
	statusTable.Render()

	section(w, "MOVEMENTS BY ROUTE")
	routeTable := newTable(w, []string{
		"Route", "Total", "Mean Freight", "Total Freight",
		"Mean Qty", "Mean Delay", "Delay Rate %",
	})
	for _, r := range s.ByRoute {
		routeTable.Append([]string{
			r.Route,
			strconv.Itoa(r.Count),
			r.MeanCost.StringFixed(2),
			r.TotalCost.StringFixed(2),
			formatFloat(r.MeanQuantity),
			formatFloat(r.MeanDelay),
			formatFloat(r.DelayRate),
		})
	}
	routeTable.Render()

	if len(s.CriticalRoutes) > 0 {
		section(w, fmt.Sprintf("ALERT: ROUTES WITH DELAY RATE ABOVE %s%%", formatFloat(s.Threshold)))
		for _, r := range s.CriticalRoutes {
			w.printf("  %-20s %6s%% delayed (%d of %d movements)\n",
				r.Route, formatFloat(r.DelayRate), r.DelayedCount, r.Count)
		}
	}

	section(w, "ECONOMIC IMPACT")
	w.printf("Estimated avoidable cost from delays: %s\n", s.AvoidableCost.StringFixed(2))

	w.printf("\n%s\nReport completed at %s\n", strings.Repeat("-", len(rule)), now.Format(time.DateTime))

	return w.err
}
