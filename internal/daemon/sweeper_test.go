package daemon

import (
	"context"
	"path/filepath"
	"testing"

	"margin/internal/config"
	"margin/internal/logging"
	"margin/internal/notifications"
	"margin/internal/store"
)

type recordingNotifier struct {
	notifications.Service
	due []string
}

func (r *recordingNotifier) NotifyReminderDue(_ context.Context, subject, _ string, _ store.Priority) error {
	r.due = append(r.due, subject)
	return nil
}

func TestSweepNotifiesPendingOnly(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "margin.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	ctx := context.Background()

	pending, err := st.InsertReminder(ctx, "email advisor", "draft feedback", store.PriorityHigh)
	if err != nil {
		t.Fatalf("insert reminder: %v", err)
	}
	done, err := st.InsertReminder(ctx, "book room", "", store.PriorityLow)
	if err != nil {
		t.Fatalf("insert reminder: %v", err)
	}
	if err := st.SetReminderDone(ctx, done.ID, true); err != nil {
		t.Fatalf("mark done: %v", err)
	}

	notifier := &recordingNotifier{}
	cfg := config.Default()
	sweeper := newReminderSweeper(st, notifier, &cfg, logging.NewNop())
	if err := sweeper.sweep(ctx); err != nil {
		t.Fatalf("sweep: %v", err)
	}

	if len(notifier.due) != 1 || notifier.due[0] != pending.Subject {
		t.Fatalf("notified = %v", notifier.due)
	}
}
