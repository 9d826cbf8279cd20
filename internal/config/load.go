package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// LoadWithSources loads configuration from multiple sources in priority order:
// 1. Defaults
// 2. User config file (~/.buildcheck/buildcheck.toml or OS-specific config dir)
// 3. Project config file (buildcheck.toml or .buildcheck.toml in current directory)
// 4. Environment variables
// 5. CLI flags
//
// Flags are registered on fs and parsed from args; positional arguments
// remain available through fs.Args(). The returned ConfigWithSources records
// which layer set each field.
func LoadWithSources(fs *flag.FlagSet, args []string) (*ConfigWithSources, error) {
	cws := &ConfigWithSources{
		Config:  &Config{},
		Sources: make(map[string]ConfigSource),
	}
	cfg := cws.Config

	// 1. Set defaults (all fields start with default source)
	setDefaults(cfg)
	for _, field := range configFields() {
		cws.Sources[field] = SourceDefault
	}

	// 2. Try to load from user config file
	if userConfigFile := findUserConfigFile(); userConfigFile != "" {
		if err := cws.loadFile(userConfigFile, SourceUserFile); err != nil {
			return nil, fmt.Errorf("loading user config file %s: %w", userConfigFile, err)
		}
	}

	// 3. Try to load from project config file (overrides user config)
	if projectConfigFile := findProjectConfigFile(); projectConfigFile != "" {
		if err := cws.loadFile(projectConfigFile, SourceProjFile); err != nil {
			return nil, fmt.Errorf("loading project config file %s: %w", projectConfigFile, err)
		}
	}

	// 4. Override from environment
	if err := loadFromEnv(cfg, cws.Sources); err != nil {
		return nil, err
	}

	// 5. Parse CLI flags (they override everything)
	if err := parseFlags(cfg, fs, args, cws.Sources); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}

	// 6. Compute derived values
	if err := finalizeConfig(cfg); err != nil {
		return nil, fmt.Errorf("finalizing config: %w", err)
	}

	return cws, nil
}

// configFields returns the list of configurable field names for source tracking.
func configFields() []string {
	return []string{
		"data_dir",
		"topology_file",
		"schema_file",
		"snapshot_file",
		"session_prefix",
		"archive_file",
		"lock",
		"hook_command",
		"hook_timeout_seconds",
		"log_file",
		"log_level",
		"log_format",
		"log_timestamps",
		"log_caller",
		"log_console",
	}
}

// loadFile decodes a TOML config file over the current values. Only keys
// present in the file change, and those are attributed to source.
func (cws *ConfigWithSources) loadFile(path string, source ConfigSource) error {
	md, err := toml.DecodeFile(path, cws.Config)
	if err != nil {
		return err
	}
	for _, field := range configFields() {
		if md.IsDefined(field) {
			cws.Sources[field] = source
		}
	}
	for _, key := range md.Undecoded() {
		cws.Undecoded = append(cws.Undecoded, key.String())
	}
	cws.Files = append(cws.Files, path)
	return nil
}

// setDefaults applies default values to the config.
func setDefaults(cfg *Config) {
	cfg.DataDir = DefaultDataDir
	cfg.TopologyFile = DefaultTopologyFile
	cfg.SchemaFile = ""
	cfg.SnapshotFile = DefaultSnapshotFile
	cfg.SessionPrefix = DefaultSessionPrefix
	cfg.ArchiveFile = DefaultArchiveFile
	cfg.Lock = true
	cfg.HookTimeoutSeconds = DefaultHookTimeout

	cfg.LogFile = DefaultLogFile
	cfg.LogLevel = DefaultLogLevel
	cfg.LogFormat = DefaultLogFormat
	cfg.LogTimestamps = true
}

// finalizeConfig computes derived values and validates settings.
func finalizeConfig(cfg *Config) error {
	dataDir := expandPath(cfg.DataDir)
	if dataDir == "" {
		dataDir = DefaultDataDir
	}
	abs, err := filepath.Abs(dataDir)
	if err != nil {
		return fmt.Errorf("resolving data dir: %w", err)
	}
	cfg.DataDir = abs

	cfg.TopologyFile = cfg.resolve(cfg.TopologyFile)
	cfg.SnapshotFile = cfg.resolve(cfg.SnapshotFile)
	cfg.ArchiveFile = cfg.resolve(cfg.ArchiveFile)
	cfg.LogFile = cfg.resolve(cfg.LogFile)
	if cfg.SchemaFile != "" {
		cfg.SchemaFile = cfg.resolve(cfg.SchemaFile)
	}

	cfg.SessionPrefix = strings.TrimSpace(cfg.SessionPrefix)
	if cfg.SessionPrefix == "" {
		return fmt.Errorf("session_prefix must not be empty")
	}
	if strings.ContainsAny(cfg.SessionPrefix, `/\`) {
		return fmt.Errorf("session_prefix %q must not contain path separators", cfg.SessionPrefix)
	}
	if cfg.HookTimeoutSeconds < 0 {
		return fmt.Errorf("hook_timeout_seconds must be >= 0, got %d", cfg.HookTimeoutSeconds)
	}
	return nil
}

// resolve expands p and makes it absolute relative to DataDir.
func (c *Config) resolve(p string) string {
	p = expandPath(p)
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.DataDir, p)
}

// EnsureDataDir creates the data directory if it does not exist.
func (c *Config) EnsureDataDir() error {
	if err := os.MkdirAll(c.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	return nil
}
