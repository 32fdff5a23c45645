//-------------------------------------------------------------------------
//
// pgEdge Movements Report
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package transform cleans raw movement rows into typed records.
//
// Rows are validated in a fixed order: movement date, numeric fields,
// status, derived calendar features and finally completeness of the
// remaining text columns. The first failing step decides the rejection
// reason. Rejected rows never reach the aggregates but are returned with
// their reason so that a run can account for every input row.
package transform

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pgEdge/pgedge-movements/internal/movement"
)

// Reason classifies why a row was rejected.
type Reason string

const (
	ReasonInvalidDate   Reason = "invalid_date"
	ReasonInvalidNumber Reason = "invalid_number"
	ReasonNegative      Reason = "negative_value"
	ReasonUnknownStatus Reason = "unknown_status"
	ReasonMissingField  Reason = "missing_field"
)

// Rejection describes one dropped row.
type Rejection struct {
	// Index is the position of the row in the input sequence.
	Index int

	// ID is the raw identifier, empty when the source had none.
	ID string

	Field  string
	Reason Reason
	Value  string
}

func (r Rejection) Error() string {
	if r.Value == "" {
		return fmt.Sprintf("row %d: %s: %s", r.Index, r.Field, r.Reason)
	}
	return fmt.Sprintf("row %d: %s: %s (%q)", r.Index, r.Field, r.Reason, r.Value)
}

// Options controls cleaning behaviour.
type Options struct {
	// StatusPolicy decides what happens to unknown statuses.
	StatusPolicy movement.StatusPolicy
}

// Result is the outcome of transforming a batch of rows.
type Result struct {
	// Records are the surviving rows in input order.
	Records []movement.Record

	// Rejections holds one entry per dropped row, in input order.
	Rejections []Rejection
}

// Input is the number of rows that were transformed.
func (r Result) Input() int {
	return len(r.Records) + len(r.Rejections)
}

// RejectionCounts tallies rejections per reason.
func (r Result) RejectionCounts() map[Reason]int {
	counts := make(map[Reason]int)
	for _, rej := range r.Rejections {
		counts[rej.Reason]++
	}
	return counts
}

// Reasons returns the rejection reasons present, sorted by name.
func (r Result) Reasons() []Reason {
	counts := r.RejectionCounts()
	out := make([]Reason, 0, len(counts))
	for reason := range counts {
		out = append(out, reason)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Transform cleans every row and partitions the input into records and
// rejections.
func Transform(rows []movement.RawRow, opts Options) Result {
	res := Result{Records: make([]movement.Record, 0, len(rows))}
	for i, row := range rows {
		rec, rej := TransformRow(i, row, opts)
		if rej != nil {
			res.Rejections = append(res.Rejections, *rej)
			continue
		}
		res.Records = append(res.Records, rec)
	}
	return res
}

var dateLayouts = []string{
	time.DateOnly,
	time.RFC3339,
	time.DateTime,
	"2006-01-02 15:04:05-07",
	"02/01/2006",
}

// ParseDate parses a movement date and truncates it to a UTC calendar day.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// TransformRow cleans a single row. Exactly one of the return values is
// meaningful: a populated record when the rejection is nil.
func TransformRow(index int, row movement.RawRow, opts Options) (movement.Record, *Rejection) {
	var rec movement.Record

	reject := func(field string, reason Reason, value *string) (movement.Record, *Rejection) {
		rej := &Rejection{Index: index, Field: field, Reason: reason}
		if row.ID != nil {
			rej.ID = strings.TrimSpace(*row.ID)
		}
		if value != nil {
			rej.Value = *value
		}
		return movement.Record{}, rej
	}

	// 1. Movement date
	if row.MovementDate == nil {
		return reject("movement_date", ReasonMissingField, nil)
	}
	date, ok := ParseDate(*row.MovementDate)
	if !ok {
		return reject("movement_date", ReasonInvalidDate, row.MovementDate)
	}
	rec.Date = date

	// 2. Numeric coercion
	if row.ID == nil {
		return reject("id", ReasonMissingField, nil)
	}
	id, err := strconv.ParseInt(strings.TrimSpace(*row.ID), 10, 64)
	if err != nil {
		return reject("id", ReasonInvalidNumber, row.ID)
	}
	rec.ID = id

	if row.FreightValue == nil {
		return reject("freight_value", ReasonMissingField, nil)
	}
	freight, err := decimal.NewFromString(strings.TrimSpace(*row.FreightValue))
	if err != nil {
		return reject("freight_value", ReasonInvalidNumber, row.FreightValue)
	}
	if freight.IsNegative() {
		return reject("freight_value", ReasonNegative, row.FreightValue)
	}
	rec.FreightValue = freight

	if row.Quantity == nil {
		return reject("quantity", ReasonMissingField, nil)
	}
	qty, err := strconv.ParseFloat(strings.TrimSpace(*row.Quantity), 64)
	if err != nil || math.IsNaN(qty) || math.IsInf(qty, 0) {
		return reject("quantity", ReasonInvalidNumber, row.Quantity)
	}
	if qty < 0 {
		return reject("quantity", ReasonNegative, row.Quantity)
	}
	rec.Quantity = qty

	if row.DelayDays == nil {
		return reject("delay_days", ReasonMissingField, nil)
	}
	delay, ok := parseWholeNumber(*row.DelayDays)
	if !ok {
		return reject("delay_days", ReasonInvalidNumber, row.DelayDays)
	}
	if delay < 0 {
		return reject("delay_days", ReasonNegative, row.DelayDays)
	}
	rec.DelayDays = delay

	// 3. Status
	if row.Status == nil {
		return reject("status", ReasonMissingField, nil)
	}
	status, ok := movement.LookupStatus(*row.Status)
	if !ok {
		if opts.StatusPolicy != movement.PolicyOther || strings.TrimSpace(*row.Status) == "" {
			return reject("status", ReasonUnknownStatus, row.Status)
		}
		status = movement.StatusOther
	}
	rec.Status = status

	// 4. Calendar features
	rec.Month = date.Month()
	rec.ISOYear, rec.Week = date.ISOWeek()
	rec.Weekday = date.Weekday()

	// 5. Remaining text columns must be present
	text := []struct {
		field string
		value *string
		dst   *string
	}{
		{"route", row.Route, &rec.Route},
		{"origin", row.Origin, &rec.Origin},
		{"destination", row.Destination, &rec.Destination},
		{"product_id", row.ProductID, &rec.ProductID},
	}
	for _, col := range text {
		if col.value == nil || strings.TrimSpace(*col.value) == "" {
			return reject(col.field, ReasonMissingField, nil)
		}
		*col.dst = strings.TrimSpace(*col.value)
	}

	return rec, nil
}

// parseWholeNumber accepts integers and integral floats such as "2.0"
// within the range of the source INTEGER column.
func parseWholeNumber(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 32); err == nil {
		return int(n), true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}
