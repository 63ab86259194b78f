package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"subgrab/internal/testsupport"
)

const stubYtDlp = `#!/bin/sh
out=""
lang=""
while [ $# -gt 0 ]; do
  case "$1" in
    --version) echo 2025.01.15; exit 0 ;;
    --output) out="$2"; shift ;;
    --sub-langs) lang="$2"; shift ;;
  esac
  shift
done
case "$STUB_MODE" in
  missing) exit 0 ;;
  fail) echo "ERROR: [youtube] abc: Private video" >&2; exit 1 ;;
esac
printf 'WEBVTT\n\n1\n00:00:00.000 --> 00:00:02.000\n<c>Hello world</c>\n\n2\n00:00:02.000 --> 00:00:04.000\nHello world\n' > "$out.$lang.vtt"
`

type cliTestEnv struct {
	baseDir    string
	configPath string
	workDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))
	for _, key := range []string{"PORT", "YTDLP_BINARY", "YTDLP_COOKIES", "SUBGRAB_API_TOKEN", "STUB_MODE"} {
		t.Setenv(key, "")
	}

	stub := testsupport.WriteStub(t, filepath.Join(base, "bin"), "yt-dlp", stubYtDlp)
	workDir := filepath.Join(base, "work")
	configPath := filepath.Join(base, "subgrab.toml")
	content := fmt.Sprintf(`[paths]
work_dir = %q
log_dir = %q

[server]
bind = "127.0.0.1:1"

[ytdlp]
binary = %q
timeout_seconds = 10
`, workDir, filepath.Join(base, "logs"), stub)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return &cliTestEnv{baseDir: base, configPath: configPath, workDir: workDir}
}

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}
