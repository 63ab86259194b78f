package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// maxResponseBytes caps how much of a daemon response the client reads.
const maxResponseBytes = 32 << 20

// StatusError is returned when the daemon answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       ErrorResponse
}

func (e *StatusError) Error() string {
	msg := strings.TrimSpace(e.Body.Error)
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Body.Details != "" {
		return fmt.Sprintf("daemon returned %d: %s (%s)", e.StatusCode, msg, e.Body.Details)
	}
	return fmt.Sprintf("daemon returned %d: %s", e.StatusCode, msg)
}

// Client talks to a subgrab daemon over HTTP.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient returns a client for the daemon at baseURL. A bare host:port is
// treated as http. timeout bounds each call and must exceed the daemon's
// tool timeout for fetches to complete.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base != "" && !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return &Client{
		baseURL: base,
		token:   strings.TrimSpace(token),
		http:    &http.Client{Timeout: timeout},
	}
}

// FetchSubtitles calls POST /get-subtitles.
func (c *Client) FetchSubtitles(ctx context.Context, req SubtitleRequest) (SubtitleResponse, error) {
	var resp SubtitleResponse
	err := c.do(ctx, http.MethodPost, "/get-subtitles", req, &resp)
	return resp, err
}

// Status calls GET /api/status.
func (c *Client) Status(ctx context.Context) (DaemonStatus, error) {
	var status DaemonStatus
	err := c.do(ctx, http.MethodGet, "/api/status", nil, &status)
	return status, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if c.baseURL == "" {
		return errors.New("daemon address not configured")
	}
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("contact daemon: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{StatusCode: resp.StatusCode}
		_ = json.Unmarshal(data, &statusErr.Body)
		return statusErr
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
