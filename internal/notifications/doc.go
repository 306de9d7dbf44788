// Package notifications delivers daemon events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled. Reminder pushes carry a dedup key so the sweeper can re-scan
// without re-notifying inside the configured window.
//
// Extend this package if you need alternative transports; daemon code
// depends only on the simple Service interface.
package notifications
