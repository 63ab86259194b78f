package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"slices"
	"strings"
	"testing"

	"subgrab/internal/api"
	"subgrab/internal/config"
	"subgrab/internal/logging"
	"subgrab/internal/subtitles"
	"subgrab/internal/testsupport"
)

const testVTT = "WEBVTT\n\n1\n00:00:00.000 --> 00:00:02.000\n<c>Hello world</c>\n\n2\n00:00:02.000 --> 00:00:04.000\nHello world\n"

type toolBehavior struct {
	content string
	stderr  string
	fail    bool
}

func (b toolBehavior) run(_ context.Context, _ string, args []string) ([]byte, []byte, error) {
	value := func(flag string) string {
		if i := slices.Index(args, flag); i >= 0 && i+1 < len(args) {
			return args[i+1]
		}
		return ""
	}
	if b.content != "" {
		path := subtitles.ArtifactPath(value("--output"), value("--sub-langs"), subtitles.FormatVTT)
		if err := os.WriteFile(path, []byte(b.content), 0o600); err != nil {
			return nil, nil, err
		}
	}
	if b.fail {
		return nil, []byte(b.stderr), &os.PathError{Op: "wait", Path: "yt-dlp", Err: os.ErrClosed}
	}
	return nil, []byte(b.stderr), nil
}

func newTestDaemon(t *testing.T, cfg *config.Config, tool toolBehavior) *Daemon {
	t.Helper()
	svc, err := subtitles.NewService(cfg, logging.NewNop(), subtitles.WithCommandRunner(tool.run))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	d, err := New(cfg, svc, logging.NewNop(), "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d
}

func serve(t *testing.T, d *Daemon, method, path, body string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	d.api.handler.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) api.ErrorResponse {
	t.Helper()
	var resp api.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body %q: %v", w.Body.String(), err)
	}
	return resp
}

func TestHandleSubtitlesSuccess(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d := newTestDaemon(t, cfg, toolBehavior{content: testVTT})

	w := serve(t, d, http.MethodPost, "/get-subtitles", `{"url":"https://www.youtube.com/watch?v=abc","format":"txt"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected request id header")
	}
	var resp api.SubtitleResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Subtitles != "Hello world" || resp.Format != "txt" || resp.Language != "ru" {
		t.Fatalf("unexpected response %#v", resp)
	}

	w = serve(t, d, http.MethodPost, "/get-subtitles", `{"url":"https://www.youtube.com/watch?v=abc","lang":"en"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Subtitles != testVTT || resp.Format != "vtt" || resp.Language != "en" {
		t.Fatalf("expected raw vtt, got %#v", resp)
	}
}

func TestHandleSubtitlesErrors(t *testing.T) {
	cases := []struct {
		name    string
		tool    toolBehavior
		method  string
		body    string
		status  int
		outcome string
		message string
	}{
		{"missing url", toolBehavior{}, http.MethodPost, `{"lang":"ru"}`, http.StatusBadRequest, "input_error", "url is required"},
		{"bad format", toolBehavior{}, http.MethodPost, `{"url":"https://e.com/v","format":"ass"}`, http.StatusBadRequest, "input_error", "unsupported format"},
		{"bad json", toolBehavior{}, http.MethodPost, `{"url":`, http.StatusBadRequest, "input_error", "invalid JSON body"},
		{"not found", toolBehavior{}, http.MethodPost, `{"url":"https://e.com/v"}`, http.StatusNotFound, "not_found", "Subtitles not found"},
		{"tool failure", toolBehavior{fail: true, stderr: "ERROR: [youtube] v: Private video"}, http.MethodPost, `{"url":"https://e.com/v"}`, http.StatusInternalServerError, "tool_failure", "Failed to download subtitles"},
		{"wrong method", toolBehavior{}, http.MethodGet, "", http.StatusMethodNotAllowed, "", "method not allowed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testsupport.NewConfig(t)
			d := newTestDaemon(t, cfg, tc.tool)
			w := serve(t, d, tc.method, "/get-subtitles", tc.body, nil)
			if w.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, w.Code, w.Body.String())
			}
			resp := decodeError(t, w)
			if resp.Outcome != tc.outcome {
				t.Fatalf("expected outcome %q, got %q", tc.outcome, resp.Outcome)
			}
			if !strings.Contains(resp.Error, tc.message) {
				t.Fatalf("expected error containing %q, got %q", tc.message, resp.Error)
			}
			if tc.tool.fail && resp.Details != "ERROR: [youtube] v: Private video" {
				t.Fatalf("unexpected details %q", resp.Details)
			}
			if _, err := os.Stat(cfg.Paths.WorkDir); err == nil {
				entries, _ := os.ReadDir(cfg.Paths.WorkDir)
				if len(entries) != 0 {
					t.Fatalf("workspace left behind: %d entries", len(entries))
				}
			}
		})
	}
}

func TestHandleSubtitlesBodyLimit(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Server.MaxBodyBytes = 32
	d := newTestDaemon(t, cfg, toolBehavior{})
	body := `{"url":"https://example.com/` + strings.Repeat("a", 64) + `"}`
	w := serve(t, d, http.MethodPost, "/get-subtitles", body, nil)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", w.Code)
	}
}

func TestAuthMiddleware(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithAPIToken("s3cret"))
	d := newTestDaemon(t, cfg, toolBehavior{content: testVTT})

	w := serve(t, d, http.MethodPost, "/get-subtitles", `{"url":"https://e.com/v"}`, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}
	w = serve(t, d, http.MethodPost, "/get-subtitles", `{"url":"https://e.com/v"}`, http.Header{"Authorization": {"Bearer nope"}})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong token, got %d", w.Code)
	}
	w = serve(t, d, http.MethodPost, "/get-subtitles", `{"url":"https://e.com/v"}`, http.Header{"Authorization": {"Bearer s3cret"}})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", w.Code)
	}
}

func TestHandleStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d := newTestDaemon(t, cfg, toolBehavior{})
	serve(t, d, http.MethodPost, "/get-subtitles", `{"url":"https://e.com/v"}`, nil)
	serve(t, d, http.MethodPost, "/get-subtitles", `{}`, nil)

	w := serve(t, d, http.MethodGet, "/api/status", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var status api.DaemonStatus
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status.Running {
		t.Fatal("daemon was never started")
	}
	if status.Requests.Outcomes["not_found"] != 1 || status.Requests.Outcomes["input_error"] != 1 {
		t.Fatalf("unexpected outcome counts %#v", status.Requests.Outcomes)
	}
	if len(status.Dependencies) != 1 || status.Dependencies[0].Available {
		t.Fatalf("expected unavailable yt-dlp dependency, got %#v", status.Dependencies)
	}
}

func TestHandleSubtitlesMissingTool(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	svc, err := subtitles.NewService(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	d, err := New(cfg, svc, logging.NewNop(), "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	w := serve(t, d, http.MethodPost, "/get-subtitles", `{"url":"https://www.youtube.com/watch?v=abc"}`, nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d: %s", w.Code, w.Body.String())
	}
	resp := decodeError(t, w)
	if resp.Outcome != "internal_error" || resp.Error != "Server error" {
		t.Fatalf("unexpected body %#v", resp)
	}
	if resp.Details != "" {
		t.Fatalf("expected no details for a missing tool, got %q", resp.Details)
	}
	entries, err := os.ReadDir(cfg.Paths.WorkDir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("workspace left behind: %d entries", len(entries))
	}
}

func TestInputMessage(t *testing.T) {
	cases := []struct {
		body string
		want string
	}{
		{`{}`, "url is required"},
		{`{"url":"ftp://e.com/v"}`, `url scheme "ftp" is not supported`},
		{`{"url":"https://e.com/v","format":"ass"}`, `unsupported format "ass" (expected vtt, srt, or txt)`},
		{`{"url":"https://e.com/v","lang":"../x"}`, `invalid language code: "../x" is not a language tag`},
	}
	cfg := testsupport.NewConfig(t)
	d := newTestDaemon(t, cfg, toolBehavior{})
	for _, tc := range cases {
		w := serve(t, d, http.MethodPost, "/get-subtitles", tc.body, nil)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", tc.body, w.Code)
		}
		if got := decodeError(t, w).Error; got != tc.want {
			t.Fatalf("%s: expected error %q, got %q", tc.body, tc.want, got)
		}
	}

	if got := inputMessage(errors.New("validation error: something else")); got != "invalid request" {
		t.Fatalf("expected generic message for untyped error, got %q", got)
	}
}
