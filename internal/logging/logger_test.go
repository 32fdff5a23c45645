package logging

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestInitJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "warn", Output: &buf})
	t.Cleanup(func() { Init(DefaultConfig()) })

	Info().Msg("suppressed")
	Warn().Str("route", "SP-RJ").Msg("critical route")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 1 {
		t.Fatalf("expected 1 log line at warn level, got %d: %s", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal(lines[0], &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["level"] != "warn" {
		t.Errorf("expected level warn, got %v", entry["level"])
	}
	if entry["route"] != "SP-RJ" {
		t.Errorf("expected route field SP-RJ, got %v", entry["route"])
	}
	if entry["message"] != "critical route" {
		t.Errorf("unexpected message: %v", entry["message"])
	}
}

func TestInitInvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "verbose", Output: &buf})
	t.Cleanup(func() { Init(DefaultConfig()) })

	Debug().Msg("hidden")
	Info().Msg("shown")

	if bytes.Contains(buf.Bytes(), []byte("hidden")) {
		t.Error("debug message should be filtered at info level")
	}
	if !bytes.Contains(buf.Bytes(), []byte("shown")) {
		t.Error("info message should be logged")
	}
}
