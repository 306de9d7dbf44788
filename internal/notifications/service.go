package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"margin/internal/config"
	"margin/internal/store"
)

const userAgent = "margin/1.0"

// Service defines the notification surface exposed to the daemon.
type Service interface {
	NotifyReminderDue(ctx context.Context, subject, reason string, priority store.Priority) error
	NotifyGoalCompleted(ctx context.Context, title string) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	dedup := time.Duration(cfg.Notifications.DedupWindowSeconds) * time.Second

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		dedup:    dedup,
		lastSent: make(map[string]time.Time),
		now:      time.Now,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
	// dedupKey suppresses repeats of the same notification inside the
	// configured window. Empty means always send.
	dedupKey string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	dedup    time.Duration
	now      func() time.Time

	mu       sync.Mutex
	lastSent map[string]time.Time
}

func (n *ntfyService) NotifyReminderDue(ctx context.Context, subject, reason string, priority store.Priority) error {
	subject = strings.TrimSpace(subject)
	message := fmt.Sprintf("Reminder due: %s", subject)
	if reason = strings.TrimSpace(reason); reason != "" {
		message = fmt.Sprintf("%s\n%s", message, reason)
	}
	data := payload{
		title:    "Margin - Reminder",
		message:  message,
		tags:     []string{"margin", "reminder", "due"},
		dedupKey: "reminder:" + subject,
	}
	if priority == store.PriorityHigh {
		data.priority = "high"
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyGoalCompleted(ctx context.Context, title string) error {
	title = strings.TrimSpace(title)
	data := payload{
		title:   "Margin - Goal Complete",
		message: fmt.Sprintf("Goal completed: %s", title),
		tags:    []string{"margin", "goal", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Margin - Error",
		message:  builder.String(),
		tags:     []string{"margin", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Margin - Test",
		message:  "Notification system test",
		tags:     []string{"margin", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}
	if data.dedupKey != "" && n.dedup > 0 {
		n.mu.Lock()
		last, seen := n.lastSent[data.dedupKey]
		now := n.now()
		if seen && now.Sub(last) < n.dedup {
			n.mu.Unlock()
			return nil
		}
		n.lastSent[data.dedupKey] = now
		n.mu.Unlock()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
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

func (noopService) NotifyReminderDue(context.Context, string, string, store.Priority) error {
	return nil
}
func (noopService) NotifyGoalCompleted(context.Context, string) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error  { return nil }
func (noopService) TestNotification(context.Context) error            { return nil }
