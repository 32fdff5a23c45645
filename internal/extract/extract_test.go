//-------------------------------------------------------------------------
//
// pgEdge Movements Report
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pgEdge/pgedge-movements/internal/db"
	"github.com/pgEdge/pgedge-movements/internal/movement"
)

// A session connection and the test double both satisfy Querier.
var (
	_ Querier = db.Querier(nil)
	_ Querier = (*fakeDB)(nil)
)

// fakeRows serves canned text rows through the pgx.Rows interface.
type fakeRows struct {
	data   [][]*string
	pos    int
	err    error
	failAt int
	closed bool
}

func (r *fakeRows) Close()                                       { r.closed = true }
func (r *fakeRows) Err() error                                   { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Values() ([]any, error)                       { return nil, nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	if r.failAt > 0 && r.pos == r.failAt {
		r.err = errors.New("connection reset by peer")
		return false
	}
	if r.pos >= len(r.data) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.data[r.pos-1]
	if len(dest) != len(row) {
		return fmt.Errorf("expected %d destinations, got %d", len(row), len(dest))
	}
	for i, d := range dest {
		p, ok := d.(**string)
		if !ok {
			return fmt.Errorf("destination %d is %T", i, d)
		}
		*p = row[i]
	}
	return nil
}

type fakeDB struct {
	rows     *fakeRows
	queryErr error
	gotSQL   string
	gotArgs  []any
}

func (f *fakeDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.gotSQL = sql
	f.gotArgs = args
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.rows, nil
}

func textRow(vals ...string) []*string {
	out := make([]*string, len(vals))
	for i := range vals {
		if vals[i] == "<null>" {
			continue
		}
		out[i] = movement.Str(vals[i])
	}
	return out
}

func fixedClock() time.Time {
	return time.Date(2026, 3, 31, 15, 4, 5, 0, time.UTC)
}

func TestExtractPreservesOrder(t *testing.T) {
	db := &fakeDB{rows: &fakeRows{data: [][]*string{
		textRow("3", "2026-03-30", "SP-RJ", "SP", "RJ", "P-1", "10", "150.00", "Entregue", "0"),
		textRow("2", "2026-03-20", "SP-MG", "SP", "MG", "P-2", "4", "90.50", "Atrasado", "2"),
		textRow("1", "2026-01-05", "RJ-BA", "RJ", "BA", "<null>", "1", "abc", "Cancelado", "0"),
	}}}

	rows, err := New(db).WithClock(fixedClock).Extract(context.Background(), Window{Days: 90})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if *rows[0].ID != "3" || *rows[2].ID != "1" {
		t.Errorf("source order not preserved: first=%s last=%s", *rows[0].ID, *rows[2].ID)
	}
	if rows[2].ProductID != nil {
		t.Error("NULL column should stay nil")
	}
	if *rows[2].FreightValue != "abc" {
		t.Errorf("raw values must be passed through untouched, got %q", *rows[2].FreightValue)
	}
	if !db.rows.closed {
		t.Error("rows should be closed after collection")
	}
}

func TestExtractQueryShape(t *testing.T) {
	db := &fakeDB{rows: &fakeRows{}}

	_, err := New(db).WithClock(fixedClock).Extract(context.Background(), Window{Days: 90})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if !strings.Contains(db.gotSQL, "ORDER BY movement_date DESC") {
		t.Errorf("query should sort newest first:\n%s", db.gotSQL)
	}
	if !strings.Contains(db.gotSQL, "FROM "+movement.Table) {
		t.Errorf("query should read %s:\n%s", movement.Table, db.gotSQL)
	}
	if len(db.gotArgs) != 1 {
		t.Fatalf("expected 1 query argument, got %d", len(db.gotArgs))
	}
	since, ok := db.gotArgs[0].(time.Time)
	if !ok {
		t.Fatalf("window argument should be time.Time, got %T", db.gotArgs[0])
	}
	want := time.Date(2026, 1, 0, 0, 0, 0, 0, time.UTC) // 2025-12-31
	if !since.Equal(want) {
		t.Errorf("window start = %s, want %s", since, want)
	}
}

func TestWindowDefault(t *testing.T) {
	got := Window{}.Since(fixedClock())
	want := Window{Days: DefaultWindowDays}.Since(fixedClock())
	if !got.Equal(want) {
		t.Errorf("zero window should default to %d days: got %s want %s", DefaultWindowDays, got, want)
	}
}

func TestExtractQueryError(t *testing.T) {
	db := &fakeDB{queryErr: errors.New(`relation "logistics_movements" does not exist`)}

	_, err := New(db).Extract(context.Background(), Window{Days: 90})
	var qErr *QueryError
	if !errors.As(err, &qErr) {
		t.Fatalf("expected *QueryError, got %T: %v", err, err)
	}
	if !strings.Contains(qErr.Error(), "does not exist") {
		t.Errorf("QueryError should carry the cause, got %q", qErr.Error())
	}
}

func TestExtractMidFetchFailure(t *testing.T) {
	db := &fakeDB{rows: &fakeRows{
		data: [][]*string{
			textRow("1", "2026-03-30", "SP-RJ", "SP", "RJ", "P-1", "1", "1", "Entregue", "0"),
			textRow("2", "2026-03-29", "SP-RJ", "SP", "RJ", "P-1", "1", "1", "Entregue", "0"),
		},
		failAt: 1,
	}}

	_, err := New(db).WithClock(fixedClock).Extract(context.Background(), Window{Days: 90})
	var qErr *QueryError
	if !errors.As(err, &qErr) {
		t.Fatalf("expected *QueryError for dropped connection, got %T: %v", err, err)
	}
}
