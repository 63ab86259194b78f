package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"subgrab/internal/config"
	"subgrab/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = "  "
	svc := notifications.NewService(&cfg)
	if notifications.Enabled(svc) {
		t.Fatalf("expected noop notifier without topic")
	}
	if err := svc.Publish(context.Background(), notifications.EventToolMissing, notifications.Payload{"binary": "yt-dlp"}); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
	if notifications.Enabled(notifications.NewService(nil)) {
		t.Fatalf("expected noop notifier for nil config")
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		event          notifications.Event
		payload        notifications.Payload
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name:           "daemon start failed",
			event:          notifications.EventDaemonStartFailed,
			payload:        notifications.Payload{"error": "listen tcp 127.0.0.1:5000: bind: address already in use"},
			expectTitle:    "Subgrab - Daemon Failed",
			expectMessage:  "Daemon did not start: listen tcp 127.0.0.1:5000: bind: address already in use",
			expectTags:     "subgrab,daemon,error",
			expectPriority: "high",
		},
		{
			name:           "tool missing",
			event:          notifications.EventToolMissing,
			payload:        notifications.Payload{"binary": "/opt/yt-dlp"},
			expectTitle:    "Subgrab - yt-dlp Missing",
			expectMessage:  "yt-dlp is not available (/opt/yt-dlp); every request fails until it is installed",
			expectTags:     "subgrab,yt-dlp,missing",
			expectPriority: "high",
		},
		{
			name:          "tool failures",
			event:         notifications.EventToolFailures,
			payload:       notifications.Payload{"count": 5, "detail": "ERROR: HTTP Error 429"},
			expectTitle:   "Subgrab - yt-dlp Failing",
			expectMessage: "yt-dlp failed 5 requests in a row\nLast error: ERROR: HTTP Error 429",
			expectTags:    "subgrab,yt-dlp,failing",
		},
		{
			name:          "tool recovered",
			event:         notifications.EventToolRecovered,
			payload:       notifications.Payload{"count": 7},
			expectTitle:   "Subgrab - yt-dlp Recovered",
			expectMessage: "yt-dlp succeeded again after 7 failed requests",
			expectTags:    "subgrab,yt-dlp,recovered",
		},
		{
			name:           "test",
			event:          notifications.EventTest,
			expectTitle:    "Subgrab - Test",
			expectMessage:  "Notification system test",
			expectTags:     "subgrab,test",
			expectPriority: "low",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured struct {
				title    string
				tags     string
				priority string
				body     string
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("unexpected method: %s", r.Method)
				}
				captured.title = r.Header.Get("Title")
				captured.tags = r.Header.Get("Tags")
				captured.priority = r.Header.Get("Priority")
				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Errorf("read body: %v", err)
				}
				captured.body = string(body)
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.RequestTimeoutSeconds = 5

			svc := notifications.NewService(&cfg)
			if err := svc.Publish(context.Background(), tc.event, tc.payload); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}

			if captured.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, captured.title)
			}
			if captured.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, captured.body)
			}
			if captured.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, captured.tags)
			}
			if captured.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, captured.priority)
			}
		})
	}
}

func TestNtfyServiceIgnoresUnknownEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected call for unknown event: %s", r.URL.String())
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL

	svc := notifications.NewService(&cfg)
	if err := svc.Publish(context.Background(), notifications.Event("request_served"), nil); err != nil {
		t.Fatalf("expected no error for unknown event, got %v", err)
	}
}

func TestNtfyServiceReportsHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic is read-only", http.StatusForbidden)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL

	err := notifications.NewService(&cfg).Publish(context.Background(), notifications.EventTest, nil)
	if err == nil {
		t.Fatalf("expected error for 403 response")
	}
	if !strings.Contains(err.Error(), "403") || !strings.Contains(err.Error(), "topic is read-only") {
		t.Fatalf("expected status and body in error, got %v", err)
	}
}
