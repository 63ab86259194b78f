package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"subgrab/internal/api"
)

func TestFetchCommandPlainText(t *testing.T) {
	env := setupCLITestEnv(t)
	stdout, _, err := runCLI(t, "--config", env.configPath, "fetch", "https://www.youtube.com/watch?v=abc", "--format", "txt")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if stdout != "Hello world\n" {
		t.Fatalf("unexpected stdout %q", stdout)
	}
	entries, err := os.ReadDir(env.workDir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected work dir to be empty, found %d entries", len(entries))
	}
}

func TestFetchCommandWritesOutputFile(t *testing.T) {
	env := setupCLITestEnv(t)
	target := filepath.Join(env.baseDir, "out.vtt")
	stdout, stderr, err := runCLI(t, "--config", env.configPath, "fetch", "https://www.youtube.com/watch?v=abc", "-l", "en", "-o", target)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if stdout != "" {
		t.Fatalf("expected nothing on stdout, got %q", stdout)
	}
	if !strings.Contains(stderr, "Wrote") {
		t.Fatalf("expected confirmation on stderr, got %q", stderr)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.HasPrefix(string(data), "WEBVTT") {
		t.Fatalf("expected raw vtt, got %q", data)
	}
}

func TestFetchCommandExitCodes(t *testing.T) {
	cases := []struct {
		name string
		mode string
		args []string
		code int
		msg  string
	}{
		{"not found", "missing", []string{"https://example.com/v"}, 3, "not found"},
		{"tool failure", "fail", []string{"https://example.com/v"}, 4, "Private video"},
		{"input error", "", []string{"ftp://example.com/v"}, 2, "scheme"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := setupCLITestEnv(t)
			t.Setenv("STUB_MODE", tc.mode)
			args := append([]string{"--config", env.configPath, "fetch"}, tc.args...)
			_, _, err := runCLI(t, args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := exitCode(err); got != tc.code {
				t.Fatalf("expected exit code %d, got %d (%v)", tc.code, got, err)
			}
			if !strings.Contains(err.Error(), tc.msg) {
				t.Fatalf("expected %q in error, got %q", tc.msg, err.Error())
			}
		})
	}
}

func TestFetchCommandRemote(t *testing.T) {
	env := setupCLITestEnv(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req api.SubtitleRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.URL == "https://example.com/missing" {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(api.ErrorResponse{Error: "Subtitles not found", Outcome: "not_found"})
			return
		}
		_ = json.NewEncoder(w).Encode(api.SubtitleResponse{Subtitles: "remote text", Format: "txt", Language: req.Language})
	}))
	defer srv.Close()

	stdout, _, err := runCLI(t, "--config", env.configPath, "--server", srv.URL, "fetch", "https://example.com/v", "--format", "txt")
	if err != nil {
		t.Fatalf("remote fetch: %v", err)
	}
	if stdout != "remote text\n" {
		t.Fatalf("unexpected stdout %q", stdout)
	}

	_, _, err = runCLI(t, "--config", env.configPath, "--server", srv.URL, "fetch", "https://example.com/missing")
	if exitCode(err) != 3 {
		t.Fatalf("expected not found exit code, got %d (%v)", exitCode(err), err)
	}
}

func TestFetchCommandRequiresURL(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, "--config", env.configPath, "fetch"); err == nil {
		t.Fatal("expected argument error")
	}
}
