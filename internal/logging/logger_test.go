package logging_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"subgrab/internal/logging"
	"subgrab/internal/services"
)

func newLogFile(t *testing.T) (string, func() string) {
	t.Helper()
	logPath := filepath.Join(t.TempDir(), "test.log")
	return logPath, func() string {
		content, err := os.ReadFile(logPath)
		if err != nil {
			t.Fatalf("read log file: %v", err)
		}
		return string(content)
	}
}

func TestConsoleLoggerFormatsComponentAndFields(t *testing.T) {
	logPath, read := newLogFile(t)
	logger, err := logging.New(logging.Options{
		Format:           "console",
		Level:            "info",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger = logging.NewComponentLogger(logger, "subtitles")
	logger.Info("fetch complete", logging.String("lang", "ru"), logging.String("path", "a b"), logging.Error(errors.New("boom")))
	logger.Debug("hidden")

	content := read()
	if !strings.Contains(content, "INFO subtitles: fetch complete") {
		t.Fatalf("expected component prefix, got %q", content)
	}
	if !strings.Contains(content, `lang=ru`) || !strings.Contains(content, `path="a b"`) || !strings.Contains(content, "error=boom") {
		t.Fatalf("expected formatted fields, got %q", content)
	}
	if strings.Contains(content, "hidden") {
		t.Fatalf("expected debug line to be filtered, got %q", content)
	}
	if strings.Contains(content, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	logPath, read := newLogFile(t)
	logger, err := logging.New(logging.Options{
		Format:           "console",
		Level:            "debug",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("with caller")
	if content := read(); !strings.Contains(content, "logger_test.go:") {
		t.Fatalf("expected caller information, got %q", content)
	}
}

func TestJSONLoggerIncludesContextFields(t *testing.T) {
	logPath, read := newLogFile(t)
	logger, err := logging.New(logging.Options{
		Format:           "json",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithRequestID(context.Background(), "req-42")
	ctx = services.WithStage(ctx, "invoke")
	logging.WithContext(ctx, logger).Info("running tool")

	var payload map[string]any
	line := strings.TrimSpace(read())
	if err := json.Unmarshal([]byte(line), &payload); err != nil {
		t.Fatalf("decode json log %q: %v", line, err)
	}
	if payload[logging.FieldCorrelationID] != "req-42" {
		t.Fatalf("expected correlation id, got %v", payload)
	}
	if payload[logging.FieldStage] != "invoke" {
		t.Fatalf("expected stage, got %v", payload)
	}
	if payload["level"] != "info" {
		t.Fatalf("expected lower-case level, got %v", payload["level"])
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", payload)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	logPath, read := newLogFile(t)
	logger, err := logging.New(logging.Options{Format: "json", OutputPaths: []string{logPath}, ErrorOutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "cleanup failed", "cleanup_failed")

	content := read()
	for _, key := range []string{logging.FieldEventType, logging.FieldErrorHint, logging.FieldImpact} {
		if !strings.Contains(content, `"`+key+`"`) {
			t.Fatalf("expected %s in %q", key, content)
		}
	}
}

func TestPruneOldFiles(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "subgrab-old.log")
	current := filepath.Join(dir, "subgrab-current.log")
	fresh := filepath.Join(dir, "subgrab-fresh.log")
	for _, path := range []string{old, current, fresh} {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	past := time.Now().AddDate(0, 0, -30)
	for _, path := range []string{old, current} {
		if err := os.Chtimes(path, past, past); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}

	removed := logging.PruneOldFiles(logging.NewNop(), dir, "subgrab-*.log", 7, current)
	if removed != 1 {
		t.Fatalf("expected 1 file removed, got %d", removed)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Fatalf("expected old log removed, stat err=%v", err)
	}
	for _, path := range []string{current, fresh} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected %s to remain: %v", path, err)
		}
	}
	if logging.PruneOldFiles(nil, dir, "*.log", 0, "") != 0 {
		t.Fatal("expected zero retention to disable pruning")
	}
}

func TestFilePathReceivesJSONCopy(t *testing.T) {
	consolePath, readConsole := newLogFile(t)
	filePath := filepath.Join(t.TempDir(), "nested", "subgrab-run.log")
	logger, err := logging.New(logging.Options{
		Format:           "console",
		Level:            "info",
		OutputPaths:      []string{consolePath},
		ErrorOutputPaths: []string{consolePath},
		FilePath:         filePath,
		FileLevel:        "debug",
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("tool output", logging.String("stderr", "warning"))
	logger.Info("request served")

	if content := readConsole(); strings.Contains(content, "tool output") || !strings.Contains(content, "request served") {
		t.Fatalf("unexpected console content %q", content)
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		t.Fatalf("read file log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected both records in file log, got %q", data)
	}
	var first map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("file log is not json: %v", err)
	}
	if first["msg"] != "tool output" || first["level"] != "debug" {
		t.Fatalf("unexpected first record %v", first)
	}
}
