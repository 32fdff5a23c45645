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
	"image/color"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/pgEdge/pgedge-movements/internal/aggregate"
)

var (
	statusColor = color.RGBA{R: 0x4c, G: 0x72, B: 0xb0, A: 0xff}
	costColor   = color.RGBA{R: 0x55, G: 0xa8, B: 0x68, A: 0xff}
	delayColor  = color.RGBA{R: 0xc4, G: 0x4e, B: 0x52, A: 0xff}
)

const (
	chartWidth  = 10 * vg.Inch
	chartHeight = 6 * vg.Inch
)

type barChart struct {
	title  string
	xLabel string
	yLabel string
	labels []string
	values plotter.Values
	color  color.Color
	// rotate tilts long category labels.
	rotate bool
}

// save renders the chart as an image whose format follows the file
// extension. An empty chart is skipped rather than rendered.
func (c barChart) save(path string) (bool, error) {
	if len(c.values) == 0 {
		return true, nil
	}

	p := plot.New()
	p.Title.Text = c.title
	p.X.Label.Text = c.xLabel
	p.Y.Label.Text = c.yLabel
	p.Y.Min = 0

	width := vg.Points(math.Max(12, math.Min(40, 400/float64(len(c.values)))))
	bars, err := plotter.NewBarChart(c.values, width)
	if err != nil {
		return false, fmt.Errorf("failed to build bar chart: %w", err)
	}
	bars.Color = c.color
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.Add(plotter.NewGrid())
	p.NominalX(c.labels...)

	if c.rotate {
		p.X.Tick.Label.Rotation = math.Pi / 5
		p.X.Tick.Label.XAlign = draw.XRight
		p.X.Tick.Label.YAlign = draw.YCenter
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create plots directory: %w", err)
	}
	if err := p.Save(chartWidth, chartHeight, path); err != nil {
		return false, fmt.Errorf("failed to save chart: %w", err)
	}
	return false, nil
}

// StatusChart renders the number of movements per status.
func StatusChart(statuses []aggregate.StatusSummary, path string) (bool, error) {
	c := barChart{
		title:  "Movement Status Distribution",
		xLabel: "Status",
		yLabel: "Movements",
		color:  statusColor,
	}
	for _, s := range statuses {
		c.labels = append(c.labels, s.Status.Label())
		c.values = append(c.values, float64(s.Count))
	}
	return c.save(path)
}

// RouteCostChart renders total freight cost for the given routes.
func RouteCostChart(routes []aggregate.RouteSummary, path string) (bool, error) {
	c := barChart{
		title:  fmt.Sprintf("Top %d Routes by Total Freight Cost", len(routes)),
		xLabel: "Route",
		yLabel: "Total freight",
		color:  costColor,
		rotate: true,
	}
	for _, r := range routes {
		c.labels = append(c.labels, r.Route)
		c.values = append(c.values, r.TotalCost.InexactFloat64())
	}
	return c.save(path)
}

// DelayRateChart renders the delay rate for the given routes.
func DelayRateChart(routes []aggregate.RouteSummary, path string) (bool, error) {
	c := barChart{
		title:  fmt.Sprintf("Top %d Routes by Delay Rate", len(routes)),
		xLabel: "Route",
		yLabel: "Delay rate (%)",
		color:  delayColor,
		rotate: true,
	}
	for _, r := range routes {
		c.labels = append(c.labels, r.Route)
		c.values = append(c.values, r.DelayRate)
	}
	return c.save(path)
}
