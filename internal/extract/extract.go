//-------------------------------------------------------------------------
//
// pgEdge Movements Report
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package extract reads movement records for a trailing date window.
package extract

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/pgEdge/pgedge-movements/internal/logging"
	"github.com/pgEdge/pgedge-movements/internal/movement"
)

// DefaultWindowDays is the trailing window used when none is configured.
const DefaultWindowDays = 90

// Querier is the subset of a connection the extractor needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// QueryError reports a failed or interrupted extraction.
type QueryError struct {
	Query string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("movement query failed: %v", e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// Window is the trailing extraction window.
type Window struct {
	Days int
}

// Since returns the first calendar day included in the window.
func (w Window) Since(now time.Time) time.Time {
	days := w.Days
	if days <= 0 {
		days = DefaultWindowDays
	}
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -days)
}

// query selects every column as text so that typing and validation happen
// in one place, the transformer.
var query = fmt.Sprintf(`
SELECT %s
FROM %s
WHERE movement_date >= $1::date
ORDER BY movement_date DESC`, textColumns(), movement.Table)

func textColumns() string {
	cols := make([]string, len(movement.Columns))
	for i, c := range movement.Columns {
		cols[i] = c + "::text"
	}
	return strings.Join(cols, ", ")
}

// Extractor issues the window query against the source.
type Extractor struct {
	db  Querier
	now func() time.Time
}

// New creates an extractor that reads through db.
func New(db Querier) *Extractor {
	return &Extractor{db: db, now: time.Now}
}

// WithClock overrides the reference time used to compute the window.
func (e *Extractor) WithClock(now func() time.Time) *Extractor {
	e.now = now
	return e
}

// Extract materializes all raw rows in the window, newest first.
func (e *Extractor) Extract(ctx context.Context, w Window) ([]movement.RawRow, error) {
	since := w.Since(e.now())

	logging.Debug().
		Time("since", since).
		Int("window_days", w.Days).
		Msg("Extracting movements")

	rows, err := e.db.Query(ctx, query, since)
	if err != nil {
		return nil, &QueryError{Query: query, Err: err}
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (movement.RawRow, error) {
		var r movement.RawRow
		err := row.Scan(
			&r.ID,
			&r.MovementDate,
			&r.Route,
			&r.Origin,
			&r.Destination,
			&r.ProductID,
			&r.Quantity,
			&r.FreightValue,
			&r.Status,
			&r.DelayDays,
		)
		return r, err
	})
	if err != nil {
		return nil, &QueryError{Query: query, Err: err}
	}

	logging.Info().
		Int("rows", len(out)).
		Str("since", since.Format(time.DateOnly)).
		Msg("Extracted movements")

	return out, nil
}
