//-------------------------------------------------------------------------
//
// pgEdge Movements Report
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package seed creates and populates the logistics movements schema with
// synthetic data for demos and integration tests.
package seed

import (
	"context"
	"fmt"

	"github.com/pgEdge/pgedge-movements/internal/db"
)

// createSchemaSQL mirrors the operational table the report reads. Text and
// measure columns are nullable because the source system does not enforce
// completeness; the report's cleaning step does.
const createSchemaSQL = `
CREATE TABLE IF NOT EXISTS logistics_movements (
    id             BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
    movement_date  DATE,
    route          TEXT,
    origin         TEXT,
    destination    TEXT,
    product_id     TEXT,
    quantity       NUMERIC(12,2),
    freight_value  NUMERIC(14,2),
    status         TEXT,
    delay_days     INTEGER
);

CREATE INDEX IF NOT EXISTS idx_logistics_movements_date
    ON logistics_movements (movement_date DESC);
`

const dropSchemaSQL = `DROP TABLE IF EXISTS logistics_movements CASCADE`

// CreateSchema creates the movements table and its index.
func CreateSchema(ctx context.Context, q db.Querier) error {
	if _, err := q.Exec(ctx, createSchemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// DropSchema drops the movements table.
func DropSchema(ctx context.Context, q db.Querier) error {
	if _, err := q.Exec(ctx, dropSchemaSQL); err != nil {
		return fmt.Errorf("failed to drop schema: %w", err)
	}
	return nil
}
