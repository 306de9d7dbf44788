package daemon

import (
	"context"
	"log/slog"
	"time"

	"margin/internal/config"
	"margin/internal/logging"
	"margin/internal/notifications"
	"margin/internal/store"
)

const defaultSweepInterval = 5 * time.Minute

// reminderSweeper periodically scans pending reminders and pushes a
// notification for each. The notification service deduplicates repeats, so
// re-scanning the same pending reminder stays quiet inside the configured
// window.
type reminderSweeper struct {
	store    *store.Store
	notifier notifications.Service
	interval time.Duration
	logger   *slog.Logger
}

func newReminderSweeper(st *store.Store, notifier notifications.Service, cfg *config.Config, logger *slog.Logger) *reminderSweeper {
	interval := time.Duration(cfg.Reminders.PollInterval) * time.Second
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &reminderSweeper{
		store:    st,
		notifier: notifier,
		interval: interval,
		logger:   logging.NewComponentLogger(logger, "reminders"),
	}
}

func (s *reminderSweeper) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.sweep(ctx); err != nil && ctx.Err() == nil {
				s.logger.Warn("reminder sweep failed", logging.Error(err))
			}
		}
	}
}

func (s *reminderSweeper) sweep(ctx context.Context) error {
	pending, err := s.store.ListReminders(ctx, true)
	if err != nil {
		return err
	}
	for _, reminder := range pending {
		if err := s.notifier.NotifyReminderDue(ctx, reminder.Subject, reminder.Reason, reminder.Priority); err != nil {
			s.logger.Warn("reminder push failed",
				logging.String("subject", reminder.Subject),
				logging.Error(err))
		}
	}
	return nil
}
