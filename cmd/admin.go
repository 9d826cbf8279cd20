package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/ieslh/buildcheck/internal/checkdir"
	"github.com/ieslh/buildcheck/internal/config"
	"github.com/ieslh/buildcheck/internal/logging"
	"github.com/ieslh/buildcheck/internal/session"
	"github.com/ieslh/buildcheck/internal/topology"
)

// exampleTopology is written by init when no topology file exists.
const exampleTopology = `{
  "1": {
    "Room 101": {"Door": 1, "Window": 2, "Radiator": 1},
    "Room 102": {"Door": 1, "Window": 1},
    "Corridor 1": {"Fire Door": 2, "Extinguisher": 1}
  },
  "2": {
    "Room 201": {"Door": 1, "Window": 3},
    "Room 202": {"Door": 1, "Window": 2, "Sink": 1}
  }
}
`

// initCommand writes an example config into the working directory and an
// example topology into the data directory.
func initCommand(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("buildcheck init", flag.ContinueOnError)
	fs.SetOutput(stderr)
	force := fs.Bool("force", false, "Overwrite existing files")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := noArgs(fs); err != nil {
		return err
	}
	if err := cfg.EnsureDataDir(); err != nil {
		return err
	}

	// Project config is only read from the working directory, so it goes
	// there and points back at the data directory.
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}
	dataDir := "."
	if cfg.DataDir != cwd {
		dataDir = cfg.DataDir
	}

	files := []struct {
		path    string
		content string
	}{
		{checkdir.ConfigPath(cwd), config.ExampleConfig(dataDir)},
		{cfg.TopologyFile, exampleTopology},
	}
	for _, f := range files {
		if _, err := os.Stat(f.path); err == nil && !*force {
			fmt.Fprintf(stdout, "Exists, skipping: %s\n", f.path)
			continue
		}
		if err := os.WriteFile(f.path, []byte(f.content), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", f.path, err)
		}
		fmt.Fprintf(stdout, "Wrote %s\n", f.path)
	}
	return nil
}

// doctorCommand reports config sources, topology validity and data files.
func doctorCommand(cws *config.ConfigWithSources, args []string) error {
	fs := flag.NewFlagSet("buildcheck doctor", flag.ContinueOnError)
	fs.SetOutput(stderr)
	verbose := fs.Bool("v", false, "Verbose output")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := noArgs(fs); err != nil {
		return err
	}
	cfg := cws.Config

	fmt.Fprintln(stdout, "buildcheck doctor")
	fmt.Fprintln(stdout, "=================")
	fmt.Fprintln(stdout)

	allOK := true

	fmt.Fprintln(stdout, "Config:")
	if len(cws.Files) == 0 {
		fmt.Fprintln(stdout, "  ⚠️  No config file (defaults, environment and flags only)")
	}
	for _, f := range cws.Files {
		fmt.Fprintf(stdout, "  ✅ Read %s\n", f)
	}
	if len(cws.Files) > 1 {
		fmt.Fprintf(stdout, "  Highest priority: %s\n", cws.GetConfigFile())
	}
	for _, key := range cws.Undecoded {
		fmt.Fprintf(stdout, "  ⚠️  Unknown key: %s\n", key)
	}
	if *verbose {
		for _, field := range cws.Fields() {
			fmt.Fprintf(stdout, "    %-22s %s\n", field, cws.Sources[field])
		}
	}
	fmt.Fprintln(stdout)

	fmt.Fprintf(stdout, "Data directory: %s\n", cfg.DataDir)
	if info, err := os.Stat(cfg.DataDir); err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintln(stdout, "  ⚠️  Not found (will be created on first use)")
		} else {
			fmt.Fprintf(stdout, "  ❌ Error: %v\n", err)
			allOK = false
		}
	} else if !info.IsDir() {
		fmt.Fprintln(stdout, "  ❌ Error: path is not a directory")
		allOK = false
	} else {
		fmt.Fprintln(stdout, "  ✅ OK")
	}
	fmt.Fprintln(stdout)

	fmt.Fprintf(stdout, "Topology file: %s\n", cfg.TopologyFile)
	topo, err := topology.Load(cfg.TopologyFile, topology.Options{SchemaPath: cfg.SchemaFile, Logger: logging.Discard()})
	switch {
	case errors.Is(err, topology.ErrMissing):
		fmt.Fprintln(stdout, "  ❌ Not found (run 'buildcheck init' for an example)")
		allOK = false
	case err != nil:
		fmt.Fprintf(stdout, "  ❌ %v\n", err)
		allOK = false
	default:
		floors, rooms, slots := topo.Stats()
		fmt.Fprintf(stdout, "  ✅ Valid: %d floors, %d rooms, %d items\n", floors, rooms, slots)
		for _, floor := range topo.Floors() {
			fmt.Fprintf(stdout, "    Floor %s: %d rooms\n", floor, len(topo.Rooms(floor)))
		}
		for _, room := range topo.Duplicates() {
			owner, _ := topo.FloorOf(room)
			fmt.Fprintf(stdout, "  ⚠️  %s is listed on more than one floor; using floor %s\n", room, owner)
		}
	}
	if cfg.SchemaFile != "" {
		result := topology.Validate(map[string]any{}, cfg.SchemaFile)
		for _, w := range result.Warnings {
			fmt.Fprintf(stdout, "  ⚠️  %s\n", w)
		}
	}
	fmt.Fprintln(stdout)

	fmt.Fprintln(stdout, "Session files:")
	sessions, err := session.FindSessions(cfg.DataDir, cfg.SessionPrefix)
	if err != nil {
		fmt.Fprintf(stdout, "  ❌ Error: %v\n", err)
		allOK = false
	} else if latest, ok := session.MostRecent(sessions); ok {
		fmt.Fprintf(stdout, "  ✅ %d found, most recent %s\n", len(sessions), latest.Name)
	} else {
		fmt.Fprintln(stdout, "  ⚠️  None yet (run 'buildcheck new')")
	}
	fmt.Fprintln(stdout)

	fmt.Fprintf(stdout, "Snapshot: %s\n", cfg.SnapshotFile)
	if _, err := os.Stat(cfg.SnapshotFile); err == nil {
		fmt.Fprintln(stdout, "  ✅ Present")
	} else {
		fmt.Fprintln(stdout, "  ⚠️  Not present")
	}
	fmt.Fprintln(stdout)

	if cfg.HookCommand != "" {
		fmt.Fprintf(stdout, "Post-save hook: %s (timeout %ds)\n\n", cfg.HookCommand, cfg.HookTimeoutSeconds)
	}

	if allOK {
		fmt.Fprintln(stdout, "✅ All checks passed!")
		return nil
	}
	fmt.Fprintln(stdout, "⚠️  Some checks failed.")
	return fmt.Errorf("doctor checks failed")
}

// sessionsCommand lists session files, newest first.
func sessionsCommand(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("buildcheck sessions", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := noArgs(fs); err != nil {
		return err
	}

	sessions, err := session.FindSessions(cfg.DataDir, cfg.SessionPrefix)
	if err != nil {
		return fmt.Errorf("listing sessions: %w", err)
	}
	if len(sessions) == 0 {
		fmt.Fprintln(stdout, "No previous check found")
		return nil
	}
	for _, s := range sessions {
		fmt.Fprintf(stdout, "%s  modified %s\n", s.Name, s.ModTime.Format("2006-01-02 15:04:05"))
	}
	return nil
}

// logCommand prints the log file, optionally following it.
func logCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("buildcheck log", flag.ContinueOnError)
	fs.SetOutput(stderr)
	follow := fs.Bool("f", false, "Follow the log (like tail -f)")
	fs.BoolVar(follow, "follow", false, "Follow the log (like tail -f)")
	n := fs.Int("n", 0, "Number of lines to show (0 = all)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := noArgs(fs); err != nil {
		return err
	}

	path := cfg.LogFile
	if _, err := os.Stat(path); err != nil {
		latest, ferr := logging.FindLatestLog(cfg.DataDir)
		if ferr != nil {
			return fmt.Errorf("finding log file: %w", ferr)
		}
		if latest == "" {
			fmt.Fprintln(stdout, "No log file found.")
			return nil
		}
		path = latest
	}

	if *follow {
		fmt.Fprintf(stderr, "Following %s (Ctrl+C to stop)\n", path)
	}
	return logging.TailLog(ctx, stdout, path, *n, *follow)
}
