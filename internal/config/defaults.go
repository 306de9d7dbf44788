package config

const (
	defaultDataDir  = "~/.local/share/margin"
	defaultLogDir   = "~/.local/share/margin/logs"
	defaultCacheDir = "~/.cache/margin"
	defaultAPIBind  = "127.0.0.1:7733"

	defaultArxivBaseURL           = "https://export.arxiv.org/api/query"
	defaultSemanticScholarBaseURL = "https://api.semanticscholar.org/graph/v1"
	defaultUserAgent              = "margin/0.1 (+https://github.com/margin)"
	defaultMetadataTimeout        = 10
	defaultMetadataRate           = 2.0

	defaultPageSaveDebounceMS = 1000
	defaultProxyTimeout       = 30

	defaultNtfyTimeout     = 10
	defaultNtfyDedupWindow = 600

	defaultReminderPollInterval = 300

	defaultLogLevel  = "info"
	defaultLogFormat = "console"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:  defaultDataDir,
			LogDir:   defaultLogDir,
			CacheDir: defaultCacheDir,
			APIBind:  defaultAPIBind,
		},
		Metadata: Metadata{
			ArxivBaseURL:           defaultArxivBaseURL,
			SemanticScholarBaseURL: defaultSemanticScholarBaseURL,
			UserAgent:              defaultUserAgent,
			RequestTimeout:         defaultMetadataTimeout,
			RequestsPerSecond:      defaultMetadataRate,
		},
		Reader: Reader{
			PageSaveDebounceMS: defaultPageSaveDebounceMS,
			ProxyTimeout:       defaultProxyTimeout,
		},
		Notifications: Notifications{
			RequestTimeout:     defaultNtfyTimeout,
			DedupWindowSeconds: defaultNtfyDedupWindow,
		},
		Reminders: Reminders{
			PollInterval: defaultReminderPollInterval,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
