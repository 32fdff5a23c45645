//-------------------------------------------------------------------------
//
// pgEdge Movements Report
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package db

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pgEdge/pgedge-movements/internal/logging"
	"github.com/pgEdge/pgedge-movements/pkg/version"
)

const metadataTable = "movements_metadata"

// createMetadataTableSQL creates the metadata table if it doesn't exist.
const createMetadataTableSQL = `
CREATE TABLE IF NOT EXISTS movements_metadata (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
)`

// undefinedTable is the SQLSTATE for a missing relation.
const undefinedTable = "42P01"

// SaveSeedMetadata records how the movements table was populated.
func SaveSeedMetadata(ctx context.Context, q Querier, rows int, seededAt time.Time) error {
	if _, err := q.Exec(ctx, createMetadataTableSQL); err != nil {
		return fmt.Errorf("failed to create metadata table: %w", err)
	}

	metadata := map[string]string{
		"version":   version.Short(),
		"seeded_at": seededAt.UTC().Format(time.RFC3339),
		"seed_rows": strconv.Itoa(rows),
	}

	for key, value := range metadata {
		_, err := q.Exec(ctx, `
            INSERT INTO movements_metadata (key, value) VALUES ($1, $2)
            ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
        `, key, value)
		if err != nil {
			return fmt.Errorf("failed to save metadata %s: %w", key, err)
		}
	}

	logging.Debug().
		Int("rows", rows).
		Msg("Saved seed metadata")

	return nil
}

// GetAllMetadata retrieves all metadata as a map. A database that was never
// seeded by this tool yields an empty map and no error.
func GetAllMetadata(ctx context.Context, q Querier) (map[string]string, error) {
	metadata := make(map[string]string)

	rows, err := q.Query(ctx, `SELECT key, value FROM movements_metadata ORDER BY key`)
	if err != nil {
		if isUndefinedTable(err) {
			return metadata, nil
		}
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		metadata[key] = value
	}

	if err := rows.Err(); err != nil {
		if isUndefinedTable(err) {
			return metadata, nil
		}
		return nil, err
	}
	return metadata, nil
}

// DropMetadata drops the metadata table.
func DropMetadata(ctx context.Context, q Querier) error {
	_, err := q.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", metadataTable))
	return err
}

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == undefinedTable
}
