// Package checkdir provides constants and utilities for the inspection data directory.
package checkdir

import (
	"fmt"
	"path/filepath"
	"time"
)

const (
	// DefaultTopologyFile is the default building layout file name.
	DefaultTopologyFile = "floors.json"

	// DefaultSnapshotFile is the current-state file rewritten after every change.
	DefaultSnapshotFile = "current_state.csv"

	// DefaultSessionPrefix prefixes dated session file names.
	DefaultSessionPrefix = "check_results_"

	// SessionExt is the extension of session and snapshot files.
	SessionExt = ".csv"

	// DateLayout is the date embedded in session file names.
	DateLayout = "2006-01-02"

	// DefaultConfigFile is the project config file name.
	DefaultConfigFile = "buildcheck.toml"

	// DefaultLogFile is the append-only diagnostic log.
	DefaultLogFile = "app.log"

	// DefaultArchiveFile is the SQLite history database.
	DefaultArchiveFile = "archive.sqlite"

	// LockFile guards the directory against a second process.
	LockFile = ".buildcheck.lock"
)

// SessionName returns the session file name for day.
func SessionName(prefix string, day time.Time) string {
	return fmt.Sprintf("%s%s%s", prefix, day.Format(DateLayout), SessionExt)
}

// SessionPath returns the full path of the session file for day within dir.
func SessionPath(dir, prefix string, day time.Time) string {
	return filepath.Join(dir, SessionName(prefix, day))
}

// LockPath returns the full path to the lock file within dir.
func LockPath(dir string) string {
	return filepath.Join(dir, LockFile)
}

// ConfigPath returns the full path to the project config file within dir.
func ConfigPath(dir string) string {
	return filepath.Join(dir, DefaultConfigFile)
}
