package slogobs

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestHandler_Compact(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&HandlerOptions{Format: FormatCompact, Level: slog.LevelDebug, Output: &buf}))

	logger.Info("Batch submitted", "batch.id", "msgbatch_1", "count", 3)

	output := buf.String()
	if !strings.Contains(output, " INFO Batch submitted | ") {
		t.Errorf("unexpected compact layout: %q", output)
	}
	if !strings.Contains(output, `"batch.id":"msgbatch_1"`) || !strings.Contains(output, `"count":3`) {
		t.Errorf("expected JSON attributes, got %q", output)
	}
	if !strings.HasSuffix(output, "\n") {
		t.Error("expected trailing newline")
	}
}

func TestHandler_CompactWithoutAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&HandlerOptions{Output: &buf}))

	logger.Info("plain")

	if strings.Contains(buf.String(), "|") {
		t.Errorf("expected no attribute separator, got %q", buf.String())
	}
}

func TestHandler_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&HandlerOptions{Format: FormatJSON, Level: slog.LevelDebug, Output: &buf}))

	logger.Warn("Poll retry", "error", errors.New("503"), "delay", 2*time.Second)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if record["level"] != "WARN" || record["msg"] != "Poll retry" {
		t.Errorf("unexpected standard fields: %v", record)
	}
	if record["error"] != "503" {
		t.Errorf("expected error rendered as string, got %v", record["error"])
	}
	if record["delay"] != "2s" {
		t.Errorf("expected duration rendered as string, got %v", record["delay"])
	}
}

func TestHandler_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&HandlerOptions{Level: slog.LevelWarn, Output: &buf}))

	logger.Info("hidden")
	logger.Debug("hidden too")
	logger.Error("shown")

	output := buf.String()
	if strings.Contains(output, "hidden") {
		t.Errorf("expected lower levels to be filtered, got %q", output)
	}
	if !strings.Contains(output, "shown") {
		t.Errorf("expected error record, got %q", output)
	}
}

func TestHandler_WithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	base := NewHandler(&HandlerOptions{Format: FormatJSON, Output: &buf})
	logger := slog.New(base.WithAttrs([]slog.Attr{slog.String("component", "batch")}).WithGroup("poll"))

	logger.Info("tick", "attempt", 2)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if record["poll.attempt"] != float64(2) {
		t.Errorf("expected grouped key poll.attempt, got %v", record)
	}
	if record["poll.component"] != "batch" {
		t.Errorf("expected handler attribute, got %v", record)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"TRACE", LevelTrace},
		{"debug", slog.LevelDebug},
		{"Info", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"  DEBUG  ", slog.LevelDebug},
		{"", slog.LevelInfo},
		{"nonsense", slog.LevelInfo},
	}

	for _, tc := range tests {
		if got := ParseLogLevel(tc.input); got != tc.expected {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tc.input, got, tc.expected)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if ParseFormat("JSON") != FormatJSON {
		t.Error("expected json format")
	}
	if ParseFormat("pretty") != FormatCompact {
		t.Error("expected unknown format to fall back to compact")
	}
}

func TestFormatAndLevelFromEnv(t *testing.T) {
	t.Setenv("BATCHCALC_LOG_FORMAT", "json")
	t.Setenv("LOG_FORMAT", "compact")
	t.Setenv("BATCHCALC_LOG_LEVEL", "")
	t.Setenv("LOG_LEVEL", "error")

	if GetFormatFromEnv() != FormatJSON {
		t.Error("expected BATCHCALC_LOG_FORMAT to take precedence")
	}
	if GetLogLevelFromEnv() != slog.LevelError {
		t.Error("expected LOG_LEVEL fallback")
	}
}
