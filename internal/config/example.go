package config

import (
	"strings"

	"github.com/BurntSushi/toml"
)

// ExampleConfig returns an example configuration showing all available
// options, with data_dir set to dataDir ("." when empty).
func ExampleConfig(dataDir string) string {
	if dataDir == "" || dataDir == "." {
		return exampleConfig
	}
	var line strings.Builder
	if err := toml.NewEncoder(&line).Encode(struct {
		DataDir string `toml:"data_dir"`
	}{dataDir}); err != nil {
		return exampleConfig
	}
	return strings.Replace(exampleConfig, "data_dir = \".\"\n", line.String(), 1)
}

const exampleConfig = `# buildcheck configuration file
# Values can be overridden by BUILDCHECK_* environment variables or CLI flags.

# Directory holding the topology, snapshot, session files and log.
# Relative paths below are resolved against it. Supports ~ and $VAR.
data_dir = "."

# Building layout: floor -> room -> item type -> count (.json, .yaml or .toml)
topology_file = "floors.json"

# Optional JSON Schema overriding the bundled topology schema
# schema_file = "floors.schema.json"

# Snapshot rewritten after every change
snapshot_file = "current_state.csv"

# Dated session files are named <prefix><YYYY-MM-DD>.csv
session_prefix = "check_results_"

# SQLite archive used by "buildcheck archive", "history" and "issues"
archive_file = "archive.sqlite"

# Refuse to open the data directory from a second process
lock = true

# Command run after each save with: room item index status snapshot_path
# hook_command = "/path/to/hook.sh"
hook_timeout_seconds = 30

# Logging
log_file = "app.log"
log_level = "info"      # debug, info, warn, error
log_format = "text"     # text, json, logfmt
log_timestamps = true
log_caller = false
log_console = false
`
