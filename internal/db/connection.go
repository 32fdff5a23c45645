//-------------------------------------------------------------------------
//
// pgEdge Movements Report
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package db provides database connection management for pgedge-movements.
// A run holds exactly one connection for its whole duration.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pgEdge/pgedge-movements/internal/config"
	"github.com/pgEdge/pgedge-movements/internal/logging"
)

// Querier is the subset of *pgx.Conn used by the extractor and seeder.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// ConnectionError reports that a session could not be established.
type ConnectionError struct {
	Host     string
	Port     int
	Database string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to %s:%d/%s: %v", e.Host, e.Port, e.Database, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// Session owns the connection handle for one run.
type Session struct {
	conn   *pgx.Conn
	closed bool
}

// Connect opens a single connection described by cfg and verifies it.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*Session, error) {
	wrap := func(err error) error {
		return &ConnectionError{
			Host:     cfg.Host,
			Port:     cfg.Port,
			Database: cfg.Name,
			Err:      err,
		}
	}

	connConfig, err := pgx.ParseConfig(cfg.ConnString())
	if err != nil {
		return nil, wrap(fmt.Errorf("failed to parse connection parameters: %w", err))
	}
	connConfig.RuntimeParams["application_name"] = "pgedge-movements"

	logging.Debug().
		Str("host", connConfig.Host).
		Uint16("port", connConfig.Port).
		Str("database", connConfig.Database).
		Str("user", connConfig.User).
		Msg("Connecting to database")

	conn, err := pgx.ConnectConfig(ctx, connConfig)
	if err != nil {
		return nil, wrap(err)
	}

	// Verify connection
	if err := conn.Ping(ctx); err != nil {
		conn.Close(ctx)
		return nil, wrap(fmt.Errorf("failed to ping database: %w", err))
	}

	logging.Info().
		Str("host", connConfig.Host).
		Str("database", connConfig.Database).
		Msg("Connected to database")

	return &Session{conn: conn}, nil
}

// Conn returns the handle for issuing queries.
func (s *Session) Conn() Querier {
	return s.conn
}

// Close releases the connection. Calling it more than once is a no-op, so
// callers can defer it and still close explicitly on the happy path.
func (s *Session) Close(ctx context.Context) error {
	if s == nil || s.closed {
		return nil
	}
	s.closed = true
	if err := s.conn.Close(ctx); err != nil {
		return fmt.Errorf("failed to close connection: %w", err)
	}
	logging.Debug().Msg("Database connection closed")
	return nil
}
