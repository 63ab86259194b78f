package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestTeeCollapses(t *testing.T) {
	if _, ok := Tee(nil, nil).(NoopHandler); !ok {
		t.Fatal("expected NoopHandler when every handler is nil")
	}
	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)
	if Tee(nil, inner) != inner {
		t.Fatal("expected a single handler to be returned unwrapped")
	}
}

func TestTeeRespectsChildLevels(t *testing.T) {
	var console, file bytes.Buffer
	levelInfo := new(slog.LevelVar)
	levelDebug := new(slog.LevelVar)
	levelDebug.Set(slog.LevelDebug)

	logger := slog.New(Tee(
		newConsoleHandler(&console, levelInfo, false),
		newJSONHandler(&file, levelDebug, false),
	)).With(String(FieldComponent, "subtitles"))

	logger.Debug("yt-dlp finished", String("stderr", "noise"))
	logger.Info("subtitles fetched", Int("bytes", 11))

	if strings.Contains(console.String(), "yt-dlp finished") {
		t.Fatalf("debug record leaked into info console: %q", console.String())
	}
	if !strings.Contains(console.String(), "subtitles fetched") {
		t.Fatalf("console missing info record: %q", console.String())
	}

	lines := strings.Split(strings.TrimSpace(file.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 json records, got %d: %q", len(lines), file.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec[FieldComponent] != "subtitles" || rec["msg"] != "subtitles fetched" {
		t.Fatalf("unexpected json record %v", rec)
	}
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("expected tee to be enabled when any child accepts debug")
	}
}
