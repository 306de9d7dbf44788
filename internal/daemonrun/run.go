// Package daemonrun hosts the daemon process runtime: it wires the
// store, metadata resolver, notification service, daemon, and IPC server
// together, then blocks until a shutdown signal arrives.
package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"margin/internal/api"
	"margin/internal/config"
	"margin/internal/daemon"
	"margin/internal/ipc"
	"margin/internal/logging"
	"margin/internal/metadata"
	"margin/internal/notifications"
	"margin/internal/store"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel string
}

// Run starts the margin daemon runtime loop. It returns once the daemon
// has shut down following a signal or context cancellation.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("prepare directories: %w", err)
	}

	level := cfg.Logging.Level
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	logger, err := logging.NewFromConfig(level, cfg.Logging.Format, cfg.Paths.LogDir)
	if err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}
	slog.SetDefault(logger)

	pidPath := filepath.Join(cfg.Paths.DataDir, "margind.pid")
	if err := writePIDFile(pidPath); err != nil {
		logger.Warn("unable to write pid file", logging.String("path", pidPath), logging.Error(err))
	} else {
		defer os.Remove(pidPath)
	}

	st, err := store.Open(cfg.DatabasePath())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	notifier := notifications.NewService(cfg)
	resolver := metadata.New(metadata.Options{
		ArxivBaseURL:           cfg.Metadata.ArxivBaseURL,
		SemanticScholarBaseURL: cfg.Metadata.SemanticScholarBaseURL,
		UserAgent:              cfg.Metadata.UserAgent,
		Timeout:                cfg.MetadataTimeout(),
		RequestsPerSecond:      cfg.Metadata.RequestsPerSecond,
		Logger:                 logging.NewComponentLogger(logger, "metadata"),
	})
	papers := api.NewPaperService(st, resolver)

	d, err := daemon.New(cfg, st, logger, notifier, papers)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	ipcServer, err := ipc.NewServer(signalCtx, cfg.SocketPath(), d, logger)
	if err != nil {
		return fmt.Errorf("start ipc server: %w", err)
	}
	go ipcServer.Serve()
	defer ipcServer.Close()

	if err := d.Start(signalCtx); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}

	logger.Info("daemon ready",
		logging.String("socket", cfg.SocketPath()),
		logging.String("database", cfg.DatabasePath()),
		logging.Int("pid", os.Getpid()))

	<-signalCtx.Done()

	logger.Info("shutdown signal received")
	shutdownStart := time.Now()
	d.Stop()
	logger.Info("daemon stopped", logging.String("elapsed", time.Since(shutdownStart).Round(time.Millisecond).String()))
	return nil
}

func writePIDFile(path string) error {
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644)
}
