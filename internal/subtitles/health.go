package subtitles

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"subgrab/internal/logging"
	"subgrab/internal/notifications"
	"subgrab/internal/services"
)

// toolHealth tracks yt-dlp invocation outcomes across requests and raises
// operator alerts. A missing binary alerts once; other failures alert when
// the consecutive count reaches threshold. The first success after an
// alert publishes a recovery and resets the tracker.
type toolHealth struct {
	notifier  notifications.Service
	threshold int
	binary    string

	mu             sync.Mutex
	failures       int
	missingAlerted bool
	failureAlerted bool
}

func newToolHealth(notifier notifications.Service, threshold int, binary string) *toolHealth {
	if notifier == nil {
		notifier = notifications.NewService(nil)
	}
	if threshold <= 0 {
		threshold = 1
	}
	return &toolHealth{notifier: notifier, threshold: threshold, binary: binary}
}

func (h *toolHealth) record(ctx context.Context, logger *slog.Logger, err error) {
	event, payload, ok := h.transition(err)
	if !ok {
		return
	}
	// Delivery outlives the request; a client hanging up must not drop the alert.
	if pubErr := h.notifier.Publish(context.WithoutCancel(ctx), event, payload); pubErr != nil {
		logging.WarnWithContext(logger, "notification failed", "notification_failed",
			logging.String("notification_event", string(event)),
			logging.Error(pubErr),
			logging.String(logging.FieldImpact, "operator alert not delivered"),
		)
	}
}

func (h *toolHealth) transition(err error) (notifications.Event, notifications.Payload, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err == nil {
		alerted := h.missingAlerted || h.failureAlerted
		count := h.failures
		h.failures = 0
		h.missingAlerted = false
		h.failureAlerted = false
		if !alerted {
			return "", nil, false
		}
		return notifications.EventToolRecovered, notifications.Payload{"count": count}, true
	}

	h.failures++
	if errors.Is(err, services.ErrToolMissing) {
		if h.missingAlerted {
			return "", nil, false
		}
		h.missingAlerted = true
		return notifications.EventToolMissing, notifications.Payload{"binary": h.binary}, true
	}
	if h.failureAlerted || h.failures < h.threshold {
		return "", nil, false
	}
	h.failureAlerted = true
	return notifications.EventToolFailures, notifications.Payload{
		"count":  h.failures,
		"detail": failureDetail(err),
	}, true
}

func failureDetail(err error) string {
	var toolErr *ToolError
	if errors.As(err, &toolErr) {
		if detail := services.SanitizeDetail(toolErr.Stderr, 200); detail != "" {
			return detail
		}
	}
	return services.SanitizeDetail(err.Error(), 200)
}
