//-------------------------------------------------------------------------
//
// pgEdge Movements Report
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package aggregate computes summary views over cleaned movements.
//
// All views are deterministic for a given input sequence. Grouped views keep
// the order in which groups are first seen and only reorder with stable
// sorts, so groups that compare equal stay in discovery order.
package aggregate

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pgEdge/pgedge-movements/internal/movement"
)

// DefaultDelayRateThreshold is the delay rate (percent) above which a
// route is considered critical.
const DefaultDelayRateThreshold = 20.0

// avoidableCostDays prorates freight over a month of delay.
var avoidableCostDays = decimal.NewFromInt(30)

var hundred = decimal.NewFromInt(100)

// StatusSummary is one row of the by-status view.
type StatusSummary struct {
	Status     movement.Status
	Count      int
	Percentage float64
	TotalCost  decimal.Decimal
}

// RouteSummary is one row of the by-route view.
type RouteSummary struct {
	Route        string
	Count        int
	MeanCost     decimal.Decimal
	TotalCost    decimal.Decimal
	MeanQuantity float64
	MeanDelay    float64
	DelayedCount int
	DelayRate    float64
}

// Stats are descriptive statistics over the whole record set.
type Stats struct {
	Count        int
	MeanCost     decimal.Decimal
	TotalCost    decimal.Decimal
	MeanQuantity float64
	MeanDelay    float64
	First        time.Time
	Last         time.Time
}

// Summary bundles every view the reporter needs.
type Summary struct {
	Stats          Stats
	ByStatus       []StatusSummary
	ByRoute        []RouteSummary
	CriticalRoutes []RouteSummary
	AvoidableCost  decimal.Decimal
	Threshold      float64
}

// Options configures Compute.
type Options struct {
	// DelayRateThreshold is used as given; zero flags every route with a
	// delayed movement.
	DelayRateThreshold float64
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{DelayRateThreshold: DefaultDelayRateThreshold}
}

// Compute derives all views from the cleaned records.
func Compute(records []movement.Record, opts Options) *Summary {
	threshold := opts.DelayRateThreshold

	routes := ByRoute(records)
	return &Summary{
		Stats:          Describe(records),
		ByStatus:       ByStatus(records),
		ByRoute:        routes,
		CriticalRoutes: CriticalRoutes(routes, threshold),
		AvoidableCost:  AvoidableCost(records),
		Threshold:      threshold,
	}
}

// Round2 rounds half away from zero to two decimal places.
func Round2(f float64) float64 {
	v, _ := decimal.NewFromFloat(f).Round(2).Float64()
	return v
}

// percent returns part/total*100 rounded to two decimals.
func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	v, _ := decimal.NewFromInt(int64(part)).
		Mul(hundred).
		Div(decimal.NewFromInt(int64(total))).
		Round(2).
		Float64()
	return v
}

func mean(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func meanCost(total decimal.Decimal, n int) decimal.Decimal {
	if n == 0 {
		return decimal.Zero
	}
	return total.Div(decimal.NewFromInt(int64(n))).Round(2)
}

// ByStatus groups records by status. Rows are ordered by count descending;
// equal counts follow the enumeration's display order.
func ByStatus(records []movement.Record) []StatusSummary {
	index := make(map[movement.Status]int)
	var out []StatusSummary

	for _, r := range records {
		i, ok := index[r.Status]
		if !ok {
			i = len(out)
			index[r.Status] = i
			out = append(out, StatusSummary{Status: r.Status, TotalCost: decimal.Zero})
		}
		out[i].Count++
		out[i].TotalCost = out[i].TotalCost.Add(r.FreightValue)
	}

	for i := range out {
		out[i].Percentage = percent(out[i].Count, len(records))
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Status.Rank() < out[j].Status.Rank()
	})
	return out
}

type routeAcc struct {
	summary  RouteSummary
	quantity float64
	delay    int
}

// ByRoute groups records by route and sorts by total freight descending.
// Routes with equal totals keep the order in which they first appear in
// records.
func ByRoute(records []movement.Record) []RouteSummary {
	index := make(map[string]int)
	var accs []*routeAcc

	for _, r := range records {
		i, ok := index[r.Route]
		if !ok {
			i = len(accs)
			index[r.Route] = i
			accs = append(accs, &routeAcc{summary: RouteSummary{Route: r.Route, TotalCost: decimal.Zero}})
		}
		a := accs[i]
		a.summary.Count++
		a.summary.TotalCost = a.summary.TotalCost.Add(r.FreightValue)
		a.quantity += r.Quantity
		a.delay += r.DelayDays
		if r.Delayed() {
			a.summary.DelayedCount++
		}
	}

	out := make([]RouteSummary, len(accs))
	for i, a := range accs {
		s := a.summary
		s.MeanCost = meanCost(s.TotalCost, s.Count)
		s.MeanQuantity = Round2(mean(a.quantity, s.Count))
		s.MeanDelay = Round2(mean(float64(a.delay), s.Count))
		s.DelayRate = percent(s.DelayedCount, s.Count)
		out[i] = s
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalCost.GreaterThan(out[j].TotalCost)
	})
	return out
}

// CriticalRoutes returns routes whose delay rate exceeds threshold, highest
// delay rate first. The input order breaks ties.
func CriticalRoutes(routes []RouteSummary, threshold float64) []RouteSummary {
	var out []RouteSummary
	for _, r := range routes {
		if r.DelayRate > threshold {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DelayRate > out[j].DelayRate
	})
	return out
}

// TopByDelayRate returns at most n routes ordered by delay rate descending.
func TopByDelayRate(routes []RouteSummary, n int) []RouteSummary {
	out := make([]RouteSummary, len(routes))
	copy(out, routes)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DelayRate > out[j].DelayRate
	})
	return Top(out, n)
}

// Top returns the first n routes.
func Top(routes []RouteSummary, n int) []RouteSummary {
	if n < 0 || n > len(routes) {
		n = len(routes)
	}
	return routes[:n]
}

// AvoidableCost estimates the freight exposure of delayed movements:
// the sum of freight * delay_days / 30 over delayed rows.
func AvoidableCost(records []movement.Record) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		if !r.Delayed() {
			continue
		}
		total = total.Add(r.FreightValue.Mul(decimal.NewFromInt(int64(r.DelayDays))))
	}
	return total.Div(avoidableCostDays).Round(2)
}

// Describe computes descriptive statistics over records.
func Describe(records []movement.Record) Stats {
	s := Stats{Count: len(records), TotalCost: decimal.Zero}
	var quantity float64
	var delay int

	for i, r := range records {
		s.TotalCost = s.TotalCost.Add(r.FreightValue)
		quantity += r.Quantity
		delay += r.DelayDays
		if i == 0 || r.Date.Before(s.First) {
			s.First = r.Date
		}
		if i == 0 || r.Date.After(s.Last) {
			s.Last = r.Date
		}
	}

	s.MeanCost = meanCost(s.TotalCost, s.Count)
	s.MeanQuantity = Round2(mean(quantity, s.Count))
	s.MeanDelay = Round2(mean(float64(delay), s.Count))
	return s
}
