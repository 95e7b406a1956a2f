package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "info", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Slog().Info("hello", "key", "value")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("Output is not JSON: %v (%q)", err, buf.String())
	}
	if record["msg"] != "hello" || record["key"] != "value" {
		t.Errorf("Unexpected record: %v", record)
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "warn", Format: "text", Writer: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Slog().Info("should be dropped")
	logger.Slog().Warn("should appear")

	out := buf.String()
	if strings.Contains(out, "should be dropped") {
		t.Error("Info record emitted at warn level")
	}
	if !strings.Contains(out, "should appear") {
		t.Error("Warn record missing")
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	if _, err := New(Config{Level: "loud"}); err == nil {
		t.Error("Expected error for invalid level")
	}
}

func TestNew_InvalidFormat(t *testing.T) {
	if _, err := New(Config{Format: "xml"}); err == nil {
		t.Error("Expected error for invalid format")
	}
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Component("ledger").Info("recorded")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("Output is not JSON: %v", err)
	}
	if record["component"] != "ledger" {
		t.Errorf("Expected component=ledger, got %v", record["component"])
	}
}

func TestNewNop(t *testing.T) {
	logger := NewNop()
	// Must not panic or write anywhere.
	logger.Slog().Error("dropped")
	logger.Component("x").Info("dropped")
}
