package daemon_test

import (
	"context"
	"path/filepath"
	"testing"

	"margin/internal/api"
	"margin/internal/config"
	"margin/internal/daemon"
	"margin/internal/logging"
	"margin/internal/store"
)

func newDaemon(t *testing.T, base string) *daemon.Daemon {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.CacheDir = filepath.Join(base, "cache")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Auth.Password = "sesame"
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	st, err := store.Open(filepath.Join(base, "data", t.Name()+".db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	d, err := daemon.New(&cfg, st, logging.NewNop(), nil, api.NewPaperService(st, nil))
	if err != nil {
		t.Fatalf("new daemon: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestDaemonSingleInstanceLock(t *testing.T) {
	base := t.TempDir()
	first := newDaemon(t, base)
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("start first: %v", err)
	}

	second := newDaemon(t, base)
	if err := second.Start(context.Background()); err == nil {
		t.Fatal("second daemon acquired the lock while the first was running")
	}

	first.Stop()
	if err := second.Start(context.Background()); err != nil {
		t.Fatalf("start after release: %v", err)
	}
}

func TestDaemonStatus(t *testing.T) {
	d := newDaemon(t, t.TempDir())
	ctx := context.Background()

	status := d.Status(ctx)
	if status.Running {
		t.Fatal("daemon reports running before start")
	}

	if err := d.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	status = d.Status(ctx)
	if !status.Running {
		t.Fatal("daemon reports stopped after start")
	}
	if status.PID == 0 || status.LockFilePath == "" {
		t.Fatalf("status = %+v", status)
	}
	if status.Counts["papers"] != 0 {
		t.Fatalf("counts = %v", status.Counts)
	}

	// Stop twice is safe.
	d.Stop()
	d.Stop()
}
