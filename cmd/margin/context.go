package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"margin/internal/apiclient"
	"margin/internal/config"
	"margin/internal/ipc"
	"margin/internal/logging"
)

type commandContext struct {
	socketFlag *string
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	clientOnce sync.Once
	client     *apiclient.Client
}

func newCommandContext(socketFlag, configFlag *string) *commandContext {
	return &commandContext{
		socketFlag: socketFlag,
		configFlag: configFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

func (c *commandContext) socketPath() string {
	if c.socketFlag != nil && strings.TrimSpace(*c.socketFlag) != "" {
		return strings.TrimSpace(*c.socketFlag)
	}
	if cfg := c.configValue(); cfg != nil {
		return cfg.SocketPath()
	}
	return filepath.Join(os.TempDir(), "margin.sock")
}

// apiClient returns the shared daemon API client, loading any persisted
// auth token from the data directory.
func (c *commandContext) apiClient() (*apiclient.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	c.clientOnce.Do(func() {
		c.client = apiclient.New(apiclient.Options{
			BaseURL:   "http://" + cfg.Paths.APIBind,
			TokenPath: filepath.Join(cfg.Paths.DataDir, "token"),
			Logger:    logging.NewNop(),
		})
	})
	return c.client, nil
}

// authedClient is apiClient plus a login check with a friendly hint.
func (c *commandContext) authedClient() (*apiclient.Client, error) {
	client, err := c.apiClient()
	if err != nil {
		return nil, err
	}
	if !client.Authenticated() {
		return nil, errors.New("not logged in; run `margin login` first")
	}
	return client, nil
}

func (c *commandContext) withClient(fn func(*ipc.Client) error) error {
	socket := c.socketPath()
	client, err := ipc.Dial(socket)
	if err != nil {
		return wrapDialError(err, socket)
	}
	defer client.Close()
	return fn(client)
}

func wrapDialError(err error, socket string) error {
	if errors.Is(err, syscall.ENOENT) || os.IsNotExist(err) {
		return fmt.Errorf("no daemon socket at %s; start it with `margin daemon start`", socket)
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return fmt.Errorf("daemon socket %s refused the connection; the daemon may have crashed", socket)
	}
	return fmt.Errorf("connect to daemon: %w", err)
}

// shouldSkipConfig reports whether the command or any of its ancestors
// opted out of config loading. Commands like `config init` must run
// before a config file exists.
func shouldSkipConfig(cmd *cobra.Command) bool {
	for ; cmd != nil; cmd = cmd.Parent() {
		if cmd.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
