package config

import (
	"flag"
)

// flagToSource maps flag names to config field names.
var flagToSource = map[string]string{
	"data-dir":       "data_dir",
	"topology":       "topology_file",
	"schema":         "schema_file",
	"snapshot":       "snapshot_file",
	"session-prefix": "session_prefix",
	"archive":        "archive_file",
	"lock":           "lock",
	"hook":           "hook_command",
	"hook-timeout":   "hook_timeout_seconds",
	"log-file":       "log_file",
	"log-level":      "log_level",
	"log-format":     "log_format",
	"log-timestamps": "log_timestamps",
	"log-caller":     "log_caller",
	"log-console":    "log_console",
}

// parseFlags defines and parses CLI flags. Each flag defaults to the value
// accumulated from the lower layers, so only flags given on the command line
// change the config. If sources is non-nil, it tracks the source of each value.
func parseFlags(cfg *Config, fs *flag.FlagSet, args []string, sources map[string]ConfigSource) error {
	if fs == nil {
		fs = flag.NewFlagSet("buildcheck", flag.ContinueOnError)
	}

	// Paths
	fs.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "Directory holding topology, snapshot, sessions and logs")
	fs.StringVar(&cfg.TopologyFile, "topology", cfg.TopologyFile, "Topology file (.json, .yaml, .toml)")
	fs.StringVar(&cfg.SchemaFile, "schema", cfg.SchemaFile, "JSON Schema overriding the bundled topology schema")
	fs.StringVar(&cfg.SnapshotFile, "snapshot", cfg.SnapshotFile, "Current-state snapshot file")
	fs.StringVar(&cfg.SessionPrefix, "session-prefix", cfg.SessionPrefix, "File name prefix of dated session files")
	fs.StringVar(&cfg.ArchiveFile, "archive", cfg.ArchiveFile, "SQLite archive database")
	fs.BoolVar(&cfg.Lock, "lock", cfg.Lock, "Lock the data directory while a session is open")

	// Hooks
	fs.StringVar(&cfg.HookCommand, "hook", cfg.HookCommand, "Command to run after each save")
	fs.IntVar(&cfg.HookTimeoutSeconds, "hook-timeout", cfg.HookTimeoutSeconds, "Hook timeout in seconds (0 disables)")

	// Logging
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "Log file")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format (text, json, logfmt)")
	fs.BoolVar(&cfg.LogTimestamps, "log-timestamps", cfg.LogTimestamps, "Show timestamps in logs")
	fs.BoolVar(&cfg.LogCaller, "log-caller", cfg.LogCaller, "Show caller location in logs")
	fs.BoolVar(&cfg.LogConsole, "log-console", cfg.LogConsole, "Also write logs to stderr")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if sources != nil {
		fs.Visit(func(f *flag.Flag) {
			if fieldName, ok := flagToSource[f.Name]; ok {
				sources[fieldName] = SourceFlag
			}
		})
	}
	return nil
}
