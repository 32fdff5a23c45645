//-------------------------------------------------------------------------
//
// pgEdge Movements Report
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package seed

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/pgEdge/pgedge-movements/internal/movement"
	"github.com/pgEdge/pgedge-movements/internal/transform"
)

var fixedNow = func() time.Time {
	return time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
}

func TestGenerateRowCount(t *testing.T) {
	gen := NewGenerator(Options{Rows: 250, Days: 30, Seed: 7, Now: fixedNow})
	rows := gen.Generate()
	if len(rows) != 250 {
		t.Fatalf("Generate() returned %d rows, want 250", len(rows))
	}
}

func TestGenerateDeterministic(t *testing.T) {
	a := NewGenerator(Options{Rows: 50, Days: 30, Seed: 42, Now: fixedNow}).Generate()
	b := NewGenerator(Options{Rows: 50, Days: 30, Seed: 42, Now: fixedNow}).Generate()

	for i := range a {
		if *a[i].Route != *b[i].Route || *a[i].FreightValue != *b[i].FreightValue {
			t.Fatalf("Row %d differs between runs with the same seed", i)
		}
	}
}

func TestGenerateValidRows(t *testing.T) {
	gen := NewGenerator(Options{Rows: 500, Days: 60, Seed: 3, Now: fixedNow})
	earliest := fixedNow().AddDate(0, 0, -61)

	for i, r := range gen.Generate() {
		if r.Date == nil || r.Route == nil || r.Status == nil || r.DelayDays == nil || r.FreightValue == nil {
			t.Fatalf("Row %d has a NULL field without corruption enabled", i)
		}
		if r.Date.Before(earliest) || r.Date.After(fixedNow()) {
			t.Errorf("Row %d date %s outside window", i, r.Date)
		}

		parts := strings.Split(*r.Route, "-")
		if len(parts) != 2 || parts[0] == parts[1] {
			t.Errorf("Row %d route %q is not ORIGIN-DEST", i, *r.Route)
		}

		status, ok := movement.LookupStatus(*r.Status)
		if !ok {
			t.Fatalf("Row %d has unknown status %q", i, *r.Status)
		}
		if status == movement.StatusDelayed {
			if *r.DelayDays < 1 {
				t.Errorf("Row %d is delayed with %d delay days", i, *r.DelayDays)
			}
		} else if *r.DelayDays != 0 {
			t.Errorf("Row %d has status %s but %d delay days", i, status, *r.DelayDays)
		}
		if *r.FreightValue < 0 || *r.Quantity < 0 {
			t.Errorf("Row %d has a negative measure", i)
		}
	}
}

func TestGenerateCorruption(t *testing.T) {
	gen := NewGenerator(Options{Rows: 200, Days: 30, InvalidFraction: 1.01, Seed: 9, Now: fixedNow})
	raw := make([]movement.RawRow, 0, 200)
	for i, r := range gen.Generate() {
		raw = append(raw, toRaw(int64(i+1), r))
	}

	result := transform.Transform(raw, transform.Options{StatusPolicy: movement.PolicyReject})
	if len(result.Records) != 0 {
		t.Errorf("Expected every corrupted row to be rejected, %d survived", len(result.Records))
	}
	if len(result.Rejections) != 200 {
		t.Errorf("Rejections = %d, want 200", len(result.Rejections))
	}
}

func TestCopyColumnsExcludeID(t *testing.T) {
	for _, c := range copyColumns {
		if c == "id" {
			t.Fatal("copy columns should not include id")
		}
	}
	if got, want := len(copyColumns), len(Row{}.values()); got != want {
		t.Errorf("copy columns = %d, row values = %d", got, want)
	}
}

// toRaw renders a generated row the way the extract query casts columns to text.
func toRaw(id int64, r Row) movement.RawRow {
	raw := movement.RawRow{
		ID:          movement.Str(strconv.FormatInt(id, 10)),
		Route:       r.Route,
		Origin:      r.Origin,
		Destination: r.Destination,
		ProductID:   r.ProductID,
		Status:      r.Status,
	}
	if r.Date != nil {
		raw.MovementDate = movement.Str(r.Date.Format("2006-01-02"))
	}
	if r.Quantity != nil {
		raw.Quantity = movement.Str(strconv.FormatFloat(*r.Quantity, 'f', 2, 64))
	}
	if r.FreightValue != nil {
		raw.FreightValue = movement.Str(strconv.FormatFloat(*r.FreightValue, 'f', 2, 64))
	}
	if r.DelayDays != nil {
		raw.DelayDays = movement.Str(strconv.Itoa(*r.DelayDays))
	}
	return raw
}
