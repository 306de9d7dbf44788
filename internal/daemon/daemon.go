package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"margin/internal/api"
	"margin/internal/config"
	"margin/internal/logging"
	"margin/internal/notifications"
	"margin/internal/store"
)

// Daemon coordinates the background services and enforces single-instance
// execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *store.Store
	notifier notifications.Service
	papers   *api.PaperService

	lockPath string
	lock     *flock.Flock

	apiServer *apiServer
	sweeper   *reminderSweeper

	running   atomic.Bool
	startedAt time.Time
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	Uptime       time.Duration
	DatabasePath string
	LockFilePath string
	Counts       map[string]int
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, st *store.Store, logger *slog.Logger, notifier notifications.Service, papers *api.PaperService) (*Daemon, error) {
	if cfg == nil || st == nil || logger == nil || papers == nil {
		return nil, errors.New("daemon requires config, store, logger, and paper service")
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}

	lockPath := cfg.LockPath()
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    st,
		notifier: notifier,
		papers:   papers,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	d.sweeper = newReminderSweeper(st, notifier, cfg, logger)

	srv, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.apiServer = srv
	return d, nil
}

// Start acquires the daemon lock and launches the API server and sweeper.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another margin daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if d.apiServer != nil {
		if err := d.apiServer.start(d.ctx); err != nil {
			_ = d.lock.Unlock()
			d.cancel()
			d.ctx = nil
			d.cancel = nil
			return err
		}
	}
	if d.sweeper != nil {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.sweeper.run(d.ctx)
		}()
	}

	d.startedAt = time.Now()
	d.running.Store(true)
	d.logger.Info("margin daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.wg.Wait()
	if d.apiServer != nil {
		d.apiServer.stop()
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("margin daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Papers exposes the daemon's paper service.
func (d *Daemon) Papers() *api.PaperService {
	return d.papers
}

// Store exposes the daemon's record store.
func (d *Daemon) Store() *store.Store {
	return d.store
}

// APIAddr returns the bound API address, or "" before Start.
func (d *Daemon) APIAddr() string {
	if d.apiServer == nil {
		return ""
	}
	return d.apiServer.addr()
}

// TestNotification triggers a test notification using the current
// configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if d.cfg == nil {
		return false, "configuration unavailable", errors.New("configuration unavailable")
	}
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	if err := d.notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	counts, err := d.store.Counts(ctx)
	if err != nil {
		d.logger.Warn("status counts unavailable", logging.Error(err))
	}
	status := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		DatabasePath: d.cfg.DatabasePath(),
		LockFilePath: d.lockPath,
		Counts:       counts,
	}
	if status.Running {
		status.Uptime = time.Since(d.startedAt)
	}
	return status
}
