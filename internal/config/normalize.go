package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAuth()
	c.normalizeMetadata()
	c.normalizeReader()
	c.normalizeNotifications()
	c.normalizeReminders()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.APIBind) == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	return nil
}

func (c *Config) normalizeAuth() {
	if c.Auth.Password == "" {
		c.Auth.Password = os.Getenv("MARGIN_PASSWORD")
	}
}

func (c *Config) normalizeMetadata() {
	if strings.TrimSpace(c.Metadata.ArxivBaseURL) == "" {
		c.Metadata.ArxivBaseURL = defaultArxivBaseURL
	}
	c.Metadata.ArxivBaseURL = strings.TrimRight(strings.TrimSpace(c.Metadata.ArxivBaseURL), "/")
	if strings.TrimSpace(c.Metadata.SemanticScholarBaseURL) == "" {
		c.Metadata.SemanticScholarBaseURL = defaultSemanticScholarBaseURL
	}
	c.Metadata.SemanticScholarBaseURL = strings.TrimRight(strings.TrimSpace(c.Metadata.SemanticScholarBaseURL), "/")
	if strings.TrimSpace(c.Metadata.UserAgent) == "" {
		c.Metadata.UserAgent = defaultUserAgent
	}
	if c.Metadata.RequestTimeout <= 0 {
		c.Metadata.RequestTimeout = defaultMetadataTimeout
	}
	if c.Metadata.RequestsPerSecond <= 0 {
		c.Metadata.RequestsPerSecond = defaultMetadataRate
	}
}

func (c *Config) normalizeReader() {
	if c.Reader.PageSaveDebounceMS <= 0 {
		c.Reader.PageSaveDebounceMS = defaultPageSaveDebounceMS
	}
	if c.Reader.ProxyTimeout <= 0 {
		c.Reader.ProxyTimeout = defaultProxyTimeout
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNtfyTimeout
	}
	if c.Notifications.DedupWindowSeconds <= 0 {
		c.Notifications.DedupWindowSeconds = defaultNtfyDedupWindow
	}
}

func (c *Config) normalizeReminders() {
	if c.Reminders.PollInterval <= 0 {
		c.Reminders.PollInterval = defaultReminderPollInterval
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
}
