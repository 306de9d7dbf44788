package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	LogDir   string `toml:"log_dir"`
	CacheDir string `toml:"cache_dir"`
	APIBind  string `toml:"api_bind"`
}

// Auth contains the shared-secret gate for the dashboard and reader.
type Auth struct {
	Password string `toml:"password"`
}

// Metadata contains settings for the paper metadata resolver.
type Metadata struct {
	ArxivBaseURL           string  `toml:"arxiv_base_url"`
	SemanticScholarBaseURL string  `toml:"semantic_scholar_base_url"`
	UserAgent              string  `toml:"user_agent"`
	RequestTimeout         int     `toml:"request_timeout"`
	RequestsPerSecond      float64 `toml:"requests_per_second"`
}

// Reader contains reading-session settings.
type Reader struct {
	PageSaveDebounceMS int `toml:"page_save_debounce_ms"`
	ProxyTimeout       int `toml:"proxy_timeout"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic          string `toml:"ntfy_topic"`
	RequestTimeout     int    `toml:"request_timeout"`
	DedupWindowSeconds int    `toml:"dedup_window_seconds"`
}

// Reminders contains the daemon reminder sweeper settings.
type Reminders struct {
	PollInterval int `toml:"poll_interval"`
}

// Logging contains log output settings.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config is the root margin configuration.
type Config struct {
	Paths         Paths         `toml:"paths"`
	Auth          Auth          `toml:"auth"`
	Metadata      Metadata      `toml:"metadata"`
	Reader        Reader        `toml:"reader"`
	Notifications Notifications `toml:"notifications"`
	Reminders     Reminders     `toml:"reminders"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the expanded default config location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/margin/config.toml")
}

// Load reads the configuration at path (or the default location when
// path is empty), applies defaults, normalizes, and validates. The
// returned bool reports whether a config file was found.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return "", false, err
		}
		path = defaultPath
	}

	expanded, err := expandPath(path)
	if err != nil {
		return "", false, err
	}
	if _, err := os.Stat(expanded); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return expanded, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	return expanded, true, nil
}

// WriteSample writes the embedded sample configuration to path,
// refusing to overwrite an existing file.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config already exists at %s", expanded)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(expanded, []byte(sampleConfig), 0o600); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// EnsureDirectories creates the directories margin needs at runtime.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir, c.Paths.CacheDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the SQLite database location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "margin.db")
}

// PageCachePath returns the fast-tier reading position cache location.
func (c *Config) PageCachePath() string {
	return filepath.Join(c.Paths.CacheDir, "positions.json")
}

// SocketPath returns the daemon control socket location.
func (c *Config) SocketPath() string {
	return filepath.Join(c.Paths.DataDir, "margind.sock")
}

// LockPath returns the daemon single-instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "margind.lock")
}

// MetadataTimeout returns the per-strategy resolver timeout.
func (c *Config) MetadataTimeout() time.Duration {
	return time.Duration(c.Metadata.RequestTimeout) * time.Second
}

// PageSaveDebounce returns the durable page-save debounce window.
func (c *Config) PageSaveDebounce() time.Duration {
	return time.Duration(c.Reader.PageSaveDebounceMS) * time.Millisecond
}

// ProxyTimeout returns the PDF proxy upstream fetch timeout.
func (c *Config) ProxyTimeout() time.Duration {
	return time.Duration(c.Reader.ProxyTimeout) * time.Second
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if trimmed == "~" {
			return home, nil
		}
		return filepath.Join(home, trimmed[2:]), nil
	}
	return filepath.Abs(trimmed)
}
