// Package config handles configuration loading and defaults.
//
// Configuration is loaded from multiple sources in priority order:
// 1. Built-in defaults
// 2. User config file (~/.buildcheck/buildcheck.toml or OS-specific config directory)
// 3. Project config file (buildcheck.toml or .buildcheck.toml in the working directory)
// 4. Environment variables (BUILDCHECK_*)
// 5. CLI flags
//
// Each level overrides the previous one, so CLI flags take precedence.
//
// User-level config locations:
// - ~/.buildcheck/buildcheck.toml (preferred)
// - Windows: %APPDATA%\buildcheck\buildcheck.toml
// - macOS: ~/Library/Application Support/buildcheck/buildcheck.toml
// - Linux/BSD: $XDG_CONFIG_HOME/buildcheck/buildcheck.toml or ~/.config/buildcheck/buildcheck.toml
//
// Relative file paths (topology, snapshot, log, archive) are resolved
// against data_dir once every layer has been applied.
package config
