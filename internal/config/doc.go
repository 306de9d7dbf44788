// Package config loads and validates margin configuration from TOML.
//
// Configuration resolves from an explicit --config path or the default
// ~/.config/margin/config.toml. Missing files fall back to defaults so
// the daemon can start with nothing but a password set. Values are
// normalized (tilde expansion, trimming) before validation.
package config
