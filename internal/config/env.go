package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// envBinding maps an environment variable onto a config field.
type envBinding struct {
	env   string
	field string
	apply func(cfg *Config, v string) error
}

func stringEnv(target func(*Config) *string) func(*Config, string) error {
	return func(cfg *Config, v string) error {
		*target(cfg) = v
		return nil
	}
}

func boolEnv(target func(*Config) *bool) func(*Config, string) error {
	return func(cfg *Config, v string) error {
		*target(cfg) = boolFromString(v)
		return nil
	}
}

func envBindings() []envBinding {
	return []envBinding{
		{"BUILDCHECK_DATA_DIR", "data_dir", stringEnv(func(c *Config) *string { return &c.DataDir })},
		{"BUILDCHECK_TOPOLOGY", "topology_file", stringEnv(func(c *Config) *string { return &c.TopologyFile })},
		{"BUILDCHECK_SCHEMA", "schema_file", stringEnv(func(c *Config) *string { return &c.SchemaFile })},
		{"BUILDCHECK_SNAPSHOT", "snapshot_file", stringEnv(func(c *Config) *string { return &c.SnapshotFile })},
		{"BUILDCHECK_SESSION_PREFIX", "session_prefix", stringEnv(func(c *Config) *string { return &c.SessionPrefix })},
		{"BUILDCHECK_ARCHIVE", "archive_file", stringEnv(func(c *Config) *string { return &c.ArchiveFile })},
		{"BUILDCHECK_LOCK", "lock", boolEnv(func(c *Config) *bool { return &c.Lock })},
		{"BUILDCHECK_HOOK", "hook_command", stringEnv(func(c *Config) *string { return &c.HookCommand })},
		{"BUILDCHECK_HOOK_TIMEOUT", "hook_timeout_seconds", func(cfg *Config, v string) error {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("BUILDCHECK_HOOK_TIMEOUT: %w", err)
			}
			cfg.HookTimeoutSeconds = n
			return nil
		}},
		{"BUILDCHECK_LOG_FILE", "log_file", stringEnv(func(c *Config) *string { return &c.LogFile })},
		{"BUILDCHECK_LOG_LEVEL", "log_level", stringEnv(func(c *Config) *string { return &c.LogLevel })},
		{"BUILDCHECK_LOG_FORMAT", "log_format", stringEnv(func(c *Config) *string { return &c.LogFormat })},
		{"BUILDCHECK_LOG_TIMESTAMPS", "log_timestamps", boolEnv(func(c *Config) *bool { return &c.LogTimestamps })},
		{"BUILDCHECK_LOG_CALLER", "log_caller", boolEnv(func(c *Config) *bool { return &c.LogCaller })},
		{"BUILDCHECK_LOG_CONSOLE", "log_console", boolEnv(func(c *Config) *bool { return &c.LogConsole })},
	}
}

// loadFromEnv overrides config from environment variables.
// If sources is non-nil, it tracks the source of each value.
func loadFromEnv(cfg *Config, sources map[string]ConfigSource) error {
	for _, b := range envBindings() {
		v := os.Getenv(b.env)
		if v == "" {
			continue
		}
		if err := b.apply(cfg, v); err != nil {
			return err
		}
		if sources != nil {
			sources[b.field] = SourceEnv
		}
	}
	return nil
}

// boolFromString parses a boolean from a string.
func boolFromString(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "1" || s == "true" || s == "yes" || s == "on"
}
