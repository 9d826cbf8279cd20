package config

import "github.com/ieslh/buildcheck/internal/checkdir"

// ConfigSource represents where a configuration value came from.
type ConfigSource string

const (
	SourceDefault  ConfigSource = "default"
	SourceUserFile ConfigSource = "user file"
	SourceProjFile ConfigSource = "project file"
	SourceEnv      ConfigSource = "environment"
	SourceFlag     ConfigSource = "flag"
)

// ConfigWithSources holds configuration along with source information for each field.
type ConfigWithSources struct {
	Config  *Config
	Sources map[string]ConfigSource
	// Files lists the config files that were read, lowest priority first.
	Files []string
	// Undecoded lists keys present in config files that buildcheck does not know.
	Undecoded []string
}

// Default values.
const (
	DefaultDataDir       = "."
	DefaultTopologyFile  = checkdir.DefaultTopologyFile
	DefaultSnapshotFile  = checkdir.DefaultSnapshotFile
	DefaultSessionPrefix = checkdir.DefaultSessionPrefix
	DefaultLogFile       = checkdir.DefaultLogFile
	DefaultArchiveFile   = checkdir.DefaultArchiveFile
	DefaultHookTimeout   = 30
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "text"
)

// Config holds the full configuration for buildcheck.
type Config struct {
	// Paths
	DataDir       string `toml:"data_dir"`
	TopologyFile  string `toml:"topology_file"`
	SchemaFile    string `toml:"schema_file"` // empty uses the bundled schema
	SnapshotFile  string `toml:"snapshot_file"`
	SessionPrefix string `toml:"session_prefix"`
	ArchiveFile   string `toml:"archive_file"`

	// Lock the data directory while a session is open.
	Lock bool `toml:"lock"`

	// Hooks
	HookCommand        string `toml:"hook_command"`
	HookTimeoutSeconds int    `toml:"hook_timeout_seconds"`

	// Logging configuration
	LogFile       string `toml:"log_file"`
	LogLevel      string `toml:"log_level"`
	LogFormat     string `toml:"log_format"`
	LogTimestamps bool   `toml:"log_timestamps"`
	LogCaller     bool   `toml:"log_caller"`
	LogConsole    bool   `toml:"log_console"`
}
