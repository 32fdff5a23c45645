//-------------------------------------------------------------------------
//
// pgEdge Movements Report
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package movement defines the logistics movement data model.
package movement

import (
	"time"

	"github.com/shopspring/decimal"
)

// Table is the source table holding movement records.
const Table = "logistics_movements"

// Columns lists the source columns in the order the extractor selects them.
var Columns = []string{
	"id",
	"movement_date",
	"route",
	"origin",
	"destination",
	"product_id",
	"quantity",
	"freight_value",
	"status",
	"delay_days",
}

// RawRow is a movement as delivered by the data source. Every column is
// nullable text; typing happens in the transformer.
type RawRow struct {
	ID           *string
	MovementDate *string
	Route        *string
	Origin       *string
	Destination  *string
	ProductID    *string
	Quantity     *string
	FreightValue *string
	Status       *string
	DelayDays    *string
}

// Record is a cleaned movement with every field populated.
type Record struct {
	ID           int64
	Date         time.Time
	Route        string
	Origin       string
	Destination  string
	ProductID    string
	Quantity     float64
	FreightValue decimal.Decimal
	Status       Status
	DelayDays    int

	// Calendar features derived from Date.
	Month   time.Month
	ISOYear int
	Week    int
	Weekday time.Weekday
}

// Delayed reports whether the movement arrived late.
func (r Record) Delayed() bool {
	return r.DelayDays > 0
}

// Str is a convenience for building raw rows in code and tests.
func Str(s string) *string {
	return &s
}
