// Package config loads and validates the TOML configuration for w2o.
//
// Configuration is resolved from an explicit --config path, then
// ~/.config/w2o/config.toml, then ./w2o.toml. Missing files fall back to
// defaults so read-only commands keep working before the user writes a
// config; commands that need credentials fail through Validate instead.
package config
