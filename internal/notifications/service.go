package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"subgrab/internal/config"
)

const userAgent = "subgrab/1.0"

// Event names a notification kind.
type Event string

const (
	EventDaemonStartFailed Event = "daemon_start_failed"
	EventToolMissing       Event = "tool_missing"
	EventToolFailures      Event = "tool_failures"
	EventToolRecovered     Event = "tool_recovered"
	EventTest              Event = "test"
)

// Payload carries event fields. Unknown keys are ignored.
type Payload map[string]any

// Service publishes events. Implementations must be safe for concurrent use.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when a topic is
// configured and a no-op otherwise.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	timeout := time.Duration(cfg.Notifications.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether svc delivers anything.
func Enabled(svc Service) bool {
	if svc == nil {
		return false
	}
	_, noop := svc.(noopService)
	return !noop
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	msg, ok := buildMessage(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func buildMessage(event Event, payload Payload) (message, bool) {
	switch event {
	case EventDaemonStartFailed:
		return message{
			title:    "Subgrab - Daemon Failed",
			body:     fmt.Sprintf("Daemon did not start: %s", payload.text("error", "unknown error")),
			tags:     []string{"subgrab", "daemon", "error"},
			priority: "high",
		}, true
	case EventToolMissing:
		return message{
			title:    "Subgrab - yt-dlp Missing",
			body:     fmt.Sprintf("yt-dlp is not available (%s); every request fails until it is installed", payload.text("binary", "yt-dlp")),
			tags:     []string{"subgrab", "yt-dlp", "missing"},
			priority: "high",
		}, true
	case EventToolFailures:
		body := fmt.Sprintf("yt-dlp failed %s requests in a row", payload.text("count", "several"))
		if detail := payload.text("detail", ""); detail != "" {
			body += "\nLast error: " + detail
		}
		return message{
			title: "Subgrab - yt-dlp Failing",
			body:  body,
			tags:  []string{"subgrab", "yt-dlp", "failing"},
		}, true
	case EventToolRecovered:
		return message{
			title: "Subgrab - yt-dlp Recovered",
			body:  fmt.Sprintf("yt-dlp succeeded again after %s failed requests", payload.text("count", "several")),
			tags:  []string{"subgrab", "yt-dlp", "recovered"},
		}, true
	case EventTest:
		return message{
			title:    "Subgrab - Test",
			body:     "Notification system test",
			tags:     []string{"subgrab", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func (p Payload) text(key, fallback string) string {
	value, ok := p[key]
	if !ok || value == nil {
		return fallback
	}
	if s := strings.TrimSpace(fmt.Sprint(value)); s != "" {
		return s
	}
	return fallback
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.title != "" {
		req.Header.Set("Title", msg.title)
	}
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" && msg.priority != "default" {
		req.Header.Set("Priority", msg.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
