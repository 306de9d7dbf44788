package main

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"margin/internal/api"
	"margin/internal/config"
	"margin/internal/daemon"
	"margin/internal/ipc"
	"margin/internal/logging"
	"margin/internal/store"
)

type cliTestEnv struct {
	cfg        *config.Config
	store      *store.Store
	daemon     *daemon.Daemon
	server     *ipc.Server
	socketPath string
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.CacheDir = filepath.Join(base, "cache")
	cfgVal.Paths.APIBind = fmt.Sprintf("127.0.0.1:%d", freePort(t))
	cfgVal.Auth.Password = "sesame"
	cfgVal.Logging.Level = "error"

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, &cfgVal)

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("load test config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}

	st, err := store.Open(cfg.DatabasePath())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	papers := api.NewPaperService(st, nil)
	d, err := daemon.New(cfg, st, logging.NewNop(), nil, papers)
	if err != nil {
		t.Fatalf("new daemon: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("start daemon: %v", err)
	}

	socketPath := cfg.SocketPath()
	srv, err := ipc.NewServer(context.Background(), socketPath, d, logging.NewNop())
	if err != nil {
		d.Close()
		st.Close()
		t.Skipf("unix sockets unavailable: %v", err)
	}
	go srv.Serve()

	env := &cliTestEnv{
		cfg:        cfg,
		store:      st,
		daemon:     d,
		server:     srv,
		socketPath: socketPath,
		configPath: configPath,
	}

	t.Cleanup(func() {
		srv.Close()
		d.Close()
		st.Close()
	})

	return env
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func freePort(t *testing.T) int {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("reserve port: %v", err)
	}
	defer listener.Close()
	return listener.Addr().(*net.TCPAddr).Port
}

func runCLI(t *testing.T, args []string, socket, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--socket", socket}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("output missing %q:\n%s", needle, haystack)
	}
}

func TestCLIStatusCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "running")
	requireContains(t, out, "Records")
}

func TestCLIRequiresLogin(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"paper", "list"}, env.socketPath, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "not logged in") {
		t.Fatalf("expected login hint, got %v", err)
	}
}

func TestCLIPaperAndDashboardFlow(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"login", "--password", "sesame"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	requireContains(t, out, "Logged in")

	out, _, err = runCLI(t, []string{"paper", "add", "https://example.org/paper.pdf"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("paper add: %v", err)
	}
	requireContains(t, out, "Added paper")

	out, _, err = runCLI(t, []string{"paper", "list"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("paper list: %v", err)
	}
	requireContains(t, out, "To Read")

	out, _, err = runCLI(t, []string{"task", "add", "draft", "related", "work"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("task add: %v", err)
	}
	requireContains(t, out, "Added task")

	out, _, err = runCLI(t, []string{"task", "list"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("task list: %v", err)
	}
	requireContains(t, out, "draft related work")

	out, _, err = runCLI(t, []string{"goal", "add", "read 50 papers"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("goal add: %v", err)
	}
	requireContains(t, out, "Added goal")

	out, _, err = runCLI(t, []string{"goal", "list"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("goal list: %v", err)
	}
	requireContains(t, out, "Active")

	out, _, err = runCLI(t, []string{"logout"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("logout: %v", err)
	}
	requireContains(t, out, "Logged out")
}

func TestConfigInitCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	_, _, err = runCLI(t, []string{"config", "init", "--path", target}, env.socketPath, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected overwrite refusal, got %v", err)
	}
}
