package logutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestNewLoggerFromConfigJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLoggerFromConfig(loggerConfig{Level: "debug", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("newLoggerFromConfig() error = %v", err)
	}
	logger.Debug("store_loaded", "images", 2)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("log line is not json: %q", buf.String())
	}
	if rec["msg"] != "store_loaded" || rec["images"] != float64(2) {
		t.Fatalf("unexpected record %#v", rec)
	}
}

func TestNewLoggerFromConfigFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLoggerFromConfig(loggerConfig{Level: "warn", Output: &buf})
	if err != nil {
		t.Fatalf("newLoggerFromConfig() error = %v", err)
	}
	logger.Info("dropped")
	logger.Warn("kept")
	if strings.Contains(buf.String(), "dropped") || !strings.Contains(buf.String(), "kept") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestNewLoggerFromConfigRejectsUnknown(t *testing.T) {
	if _, err := newLoggerFromConfig(loggerConfig{Format: "xml"}); err == nil {
		t.Fatalf("expected error for unknown format")
	}
	if _, err := parseSlogLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestLoggerScrubsErrorAttr(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLoggerFromConfig(loggerConfig{Output: &buf})
	if err != nil {
		t.Fatalf("newLoggerFromConfig() error = %v", err)
	}
	logger.Warn("telegram_send_error", "error", errors.New(`Post "https://api.telegram.org/bot42:SECRET/sendMessage": EOF`))
	out := buf.String()
	if strings.Contains(out, "SECRET") || strings.Contains(out, "api.telegram.org") {
		t.Fatalf("error attr not scrubbed: %q", out)
	}
}
