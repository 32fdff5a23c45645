//-------------------------------------------------------------------------
//
// pgEdge Movements Report
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package db

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pgEdge/pgedge-movements/internal/config"
)

func TestConnectUnreachable(t *testing.T) {
	cfg := config.DefaultConfig().Database
	cfg.Host = "127.0.0.1"
	cfg.Port = 1 // nothing listens here
	cfg.ConnectTimeout = 2

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	session, err := Connect(ctx, cfg)
	if err == nil {
		session.Close(ctx)
		t.Fatal("expected connection error, got nil")
	}

	var connErr *ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected *ConnectionError, got %T: %v", err, err)
	}
	if connErr.Port != 1 || connErr.Host != "127.0.0.1" {
		t.Errorf("unexpected target in error: %s:%d", connErr.Host, connErr.Port)
	}
	if connErr.Unwrap() == nil {
		t.Error("ConnectionError should wrap the underlying cause")
	}
}

func TestConnectionErrorMessage(t *testing.T) {
	cause := errors.New("password authentication failed")
	err := &ConnectionError{Host: "db", Port: 5432, Database: "logistics", Err: cause}

	if !strings.Contains(err.Error(), "db:5432/logistics") {
		t.Errorf("error should name the target, got %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
}

func TestSessionCloseNil(t *testing.T) {
	var s *Session
	if err := s.Close(context.Background()); err != nil {
		t.Errorf("Close on nil session should be a no-op, got %v", err)
	}
}
