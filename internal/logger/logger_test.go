package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func bufferLogger(buf *bytes.Buffer) *Logger {
	return &Logger{zlog: zerolog.New(buf).With().Timestamp().Logger()}
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Expected valid JSON output, got error: %v", err)
	}
	return entry
}

func TestNewWithWriter_Production(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("production", &buf)

	log.Debug("resolved depths", nil)
	if buf.Len() != 0 {
		t.Error("Debug message should not appear in production logging")
	}

	log.Info("appraisal computed", map[string]interface{}{"properties": 12})
	entry := decodeLine(t, &buf)
	if entry["message"] != "appraisal computed" {
		t.Errorf("Expected message field, got %v", entry["message"])
	}
	if entry["properties"] != float64(12) {
		t.Errorf("Expected properties field 12, got %v", entry["properties"])
	}
}

func TestNewWithWriter_Development(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("development", &buf)

	log.Debug("resolved depths", map[string]interface{}{"skipped": 2})

	output := buf.String()
	if !strings.Contains(output, "resolved depths") {
		t.Error("Expected debug output in development mode")
	}
	if json.Valid(buf.Bytes()) {
		t.Error("Expected console output rather than JSON in development mode")
	}
}

func TestNew(t *testing.T) {
	if log := New("production"); log == nil || log.GetZerolog() == nil {
		t.Fatal("Expected logger to be created")
	}
}

func TestLevels(t *testing.T) {
	var buf bytes.Buffer
	log := bufferLogger(&buf)

	log.Warn("skipping property", map[string]interface{}{"reason": "ground_level_unresolved"})
	if !strings.Contains(buf.String(), "ground_level_unresolved") {
		t.Error("Expected warning to contain reason field")
	}

	buf.Reset()
	log.Error("failed to save snapshot", errors.New("connection refused"), map[string]interface{}{
		"snapshot": "baseline",
	})
	entry := decodeLine(t, &buf)
	if entry["error"] != "connection refused" {
		t.Errorf("Expected error field, got %v", entry["error"])
	}
	if entry["level"] != "error" {
		t.Errorf("Expected error level, got %v", entry["level"])
	}
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	child := bufferLogger(&buf).With(map[string]interface{}{"sop": 100})

	child.Info("benefits computed", nil)

	if entry := decodeLine(t, &buf); entry["sop"] != float64(100) {
		t.Errorf("Expected sop field from context, got %v", entry["sop"])
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	bufferLogger(&buf).WithComponent("engine").Info("run started", nil)

	if entry := decodeLine(t, &buf); entry["component"] != "engine" {
		t.Errorf("Expected component engine, got %v", entry["component"])
	}
}

func TestWithRequestID(t *testing.T) {
	var buf bytes.Buffer
	bufferLogger(&buf).WithRequestID("req-12345").Info("request received", nil)

	if entry := decodeLine(t, &buf); entry["request_id"] != "req-12345" {
		t.Errorf("Expected request_id req-12345, got %v", entry["request_id"])
	}
}

func TestWithLevel(t *testing.T) {
	var buf bytes.Buffer
	base := bufferLogger(&buf)

	same, err := base.WithLevel("")
	if err != nil || same != base {
		t.Errorf("Expected empty level to keep the logger, got %v", err)
	}

	warn, err := base.WithLevel("WARN")
	if err != nil {
		t.Fatalf("WithLevel failed: %v", err)
	}
	warn.Info("hidden", nil)
	if buf.Len() != 0 {
		t.Error("Info message should be filtered at warn level")
	}
	warn.Warn("shown", nil)
	if !strings.Contains(buf.String(), "shown") {
		t.Error("Warn message should pass at warn level")
	}

	if _, err := base.WithLevel("loud"); err == nil {
		t.Error("Expected error for unknown level")
	}
}

func TestNop(t *testing.T) {
	// Must not panic
	Nop().Info("discarded", map[string]interface{}{"key": "value"})
	Nop().WithComponent("engine").Debug("discarded", nil)
}
