package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mailtriage/internal/config"
	"mailtriage/internal/logging"
	"mailtriage/internal/services"
)

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.File = filepath.Join(t.TempDir(), "logs", "mailtriage.log")
	cfg.Logging.Format = "json"

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("hello from config")

	content, err := os.ReadFile(cfg.Logging.File)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "hello from config") {
		t.Fatalf("expected message in log file, got %q", content)
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-info.log")

	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.NewComponentLogger(logger, "pipeline").Info("message processed",
		logging.String(logging.FieldMessageID, "m1"),
		logging.String(logging.FieldLabel, "SPAM"),
	)

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(content)
	if strings.Contains(line, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", line)
	}
	for _, fragment := range []string{"INFO [pipeline] m1 – message processed", "label=SPAM"} {
		if !strings.Contains(line, fragment) {
			t.Fatalf("expected %q in %q", fragment, line)
		}
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-debug.log")

	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "debug",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("message with caller")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), ".go:") {
		t.Fatalf("expected caller information in debug logs, got %q", content)
	}
}

func TestAutoFormatUsesJSONForFiles(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "auto.log")

	logger, err := logging.New(logging.Options{Format: "auto", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Warn("cleanup failed", logging.String("path", "/tmp/x.mp3"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(content), &record); err != nil {
		t.Fatalf("expected JSON log line, got %q: %v", content, err)
	}
	if record["level"] != "warn" {
		t.Fatalf("level = %v, want warn", record["level"])
	}
	if record["path"] != "/tmp/x.mp3" {
		t.Fatalf("path = %v", record["path"])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWithContextAddsFields(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-1")
	ctx = services.WithMessageID(ctx, "m2")
	ctx = services.WithLabel(ctx, "JOB")

	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))
	logging.WithContext(ctx, base).Info("contextual log")

	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &record); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	want := map[string]string{
		logging.FieldRunID:     "run-1",
		logging.FieldMessageID: "m2",
		logging.FieldLabel:     "JOB",
	}
	for key, value := range want {
		if record[key] != value {
			t.Fatalf("field %s = %v, want %s", key, record[key], value)
		}
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("expected nop logger to be disabled")
	}
	logging.NewComponentLogger(nil, "x").Info("ignored")
}

func TestTruncatedShortensLongValues(t *testing.T) {
	cases := []struct {
		name  string
		value string
		limit int
		want  string
	}{
		{name: "short", value: "SPAM", limit: 10, want: "SPAM"},
		{name: "exact", value: "abcde", limit: 5, want: "abcde"},
		{name: "long", value: "abcdefgh", limit: 3, want: "abc..."},
		{name: "runes", value: "héllo wörld", limit: 4, want: "héll..."},
		{name: "no limit", value: "anything", limit: 0, want: "anything"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			attr := logging.Truncated("raw", tc.value, tc.limit)
			if attr.Key != "raw" || attr.Value.String() != tc.want {
				t.Fatalf("got %s=%q, want raw=%q", attr.Key, attr.Value.String(), tc.want)
			}
		})
	}
}

func TestDomainAttrsUseStandardKeys(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	logger.Info("message processed", logging.MessageID("m-1"), logging.Outcome("spam_moved"))

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if payload[logging.FieldMessageID] != "m-1" || payload[logging.FieldOutcome] != "spam_moved" {
		t.Fatalf("unexpected payload %v", payload)
	}
}

func TestConsoleLoggerClipsLongValues(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-clip.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message processed", logging.String("subject", strings.Repeat("x", 500)))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(content)
	if strings.Contains(line, strings.Repeat("x", 121)) {
		t.Fatalf("expected long subject to be clipped, got %q", line)
	}
	if !strings.Contains(line, strings.Repeat("x", 120)+"...") {
		t.Fatalf("expected clipped subject with ellipsis, got %q", line)
	}
}
