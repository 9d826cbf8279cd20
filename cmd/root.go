// Package cmd implements the CLI command structure for buildcheck.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ieslh/buildcheck/internal/config"
	"github.com/ieslh/buildcheck/internal/logging"
	"github.com/ieslh/buildcheck/internal/session"
	"github.com/ieslh/buildcheck/internal/topology"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Output streams, swapped by tests.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// Run executes the buildcheck CLI.
func Run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("buildcheck", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		printUsage(fs, stderr)
	}
	help := fs.Bool("help", false, "Show help")
	fs.BoolVar(help, "h", false, "Show help")
	showVersion := fs.Bool("version", false, "Show version")
	fs.BoolVar(showVersion, "v", false, "Show version")

	cws, err := config.LoadWithSources(fs, args)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg := cws.Config
	if *help {
		printUsage(fs, stdout)
		return nil
	}
	if *showVersion {
		return versionCommand()
	}

	// With no subcommand the interactive UI starts.
	subcommand := "tui"
	remainingArgs := fs.Args()
	if len(remainingArgs) > 0 {
		subcommand = remainingArgs[0]
		remainingArgs = remainingArgs[1:]
	}

	switch subcommand {
	case "init":
		return initCommand(cfg, remainingArgs)
	case "doctor":
		return doctorCommand(cws, remainingArgs)
	case "new":
		return newCommand(ctx, cfg, remainingArgs)
	case "resume":
		return resumeCommand(ctx, cfg, remainingArgs)
	case "floors":
		return floorsCommand(ctx, cfg, remainingArgs)
	case "room":
		return roomCommand(ctx, cfg, remainingArgs)
	case "set":
		return setCommand(ctx, cfg, remainingArgs)
	case "note":
		return noteCommand(ctx, cfg, remainingArgs)
	case "summary":
		return summaryCommand(ctx, cfg, remainingArgs)
	case "sessions":
		return sessionsCommand(cfg, remainingArgs)
	case "archive":
		return archiveCommand(ctx, cfg, remainingArgs)
	case "history":
		return historyCommand(ctx, cfg, remainingArgs)
	case "issues":
		return issuesCommand(ctx, cfg, remainingArgs)
	case "tui":
		return tuiCommand(ctx, cfg, remainingArgs)
	case "log":
		return logCommand(ctx, cfg, remainingArgs)
	case "version":
		return versionCommand()
	case "help":
		printUsage(fs, stdout)
		return nil
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", subcommand)
		printUsage(fs, stderr)
		return fmt.Errorf("unknown command: %s", subcommand)
	}
}

// env is what a command needs to work on a check: the log stream and the
// building layout.
type env struct {
	cfg     *config.Config
	log     *logging.Logger
	topo    topology.Topology
	topoErr error
}

func openEnv(cfg *config.Config) (*env, error) {
	if err := cfg.EnsureDataDir(); err != nil {
		return nil, err
	}
	logger, err := logging.New(logging.Options{
		Path:       cfg.LogFile,
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
		Timestamps: cfg.LogTimestamps,
		Caller:     cfg.LogCaller,
		Console:    cfg.LogConsole,
		Stderr:     stderr,
	})
	if err != nil {
		return nil, err
	}
	e := &env{cfg: cfg, log: logger}
	e.topo, e.topoErr = topology.Load(cfg.TopologyFile, topology.Options{
		SchemaPath: cfg.SchemaFile,
		Logger:     logger.Logger,
	})
	return e, nil
}

func (e *env) Close() {
	_ = e.log.Close()
}

// manager opens the session manager, taking the directory lock when
// configured.
func (e *env) manager() (*session.Manager, error) {
	if e.topoErr != nil {
		fmt.Fprintf(stderr, "warning: %v\n", e.topoErr)
	}
	mgr, err := session.New(e.topo, session.Options{
		Dir:           e.cfg.DataDir,
		SnapshotPath:  e.cfg.SnapshotFile,
		SessionPrefix: e.cfg.SessionPrefix,
		Lock:          e.cfg.Lock,
		HookCommand:   e.cfg.HookCommand,
		HookTimeout:   time.Duration(e.cfg.HookTimeoutSeconds) * time.Second,
		Logger:        e.log.Logger,
	})
	if errors.Is(err, session.ErrLocked) {
		return nil, fmt.Errorf("%w: another buildcheck process is using %s", err, e.cfg.DataDir)
	}
	return mgr, err
}

// resumed opens the manager and resumes the latest check, the starting
// point of every one-shot command that reads or changes slots.
func (e *env) resumed(ctx context.Context) (*session.Manager, error) {
	mgr, err := e.manager()
	if err != nil {
		return nil, err
	}
	if _, err := mgr.Resume(ctx); err != nil {
		_ = mgr.Close()
		if errors.Is(err, session.ErrNoPreviousCheck) {
			return nil, fmt.Errorf("%w; run 'buildcheck new' to start one", err)
		}
		return nil, err
	}
	return mgr, nil
}

// versionCommand prints version information.
func versionCommand() error {
	fmt.Fprintf(stdout, "buildcheck version %s\n", Version)
	return nil
}

func noArgs(fs *flag.FlagSet) error {
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return nil
}

// printUsage prints the usage message.
func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "buildcheck - checklist-driven building inspection")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  buildcheck [options] [command] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  tui                        Interactive check (default command)")
	fmt.Fprintln(w, "  init [-force]              Write ./buildcheck.toml and an example topology")
	fmt.Fprintln(w, "  doctor                     Check config, topology and data files")
	fmt.Fprintln(w, "  new                        Start a new check")
	fmt.Fprintln(w, "  resume                     Resume the most recent check")
	fmt.Fprintln(w, "  floors [floor]             List floors and room completion")
	fmt.Fprintln(w, "  room <room>                Show a room's items")
	fmt.Fprintln(w, "  set <room> <item> <n> <ok|issue|clear>")
	fmt.Fprintln(w, "                             Record the status of item n (from 1)")
	fmt.Fprintln(w, "  note <room> <item> <n> <text...>")
	fmt.Fprintln(w, "                             Record notes for item n (from 1)")
	fmt.Fprintln(w, "  summary                    Totals and per-room completion")
	fmt.Fprintln(w, "  sessions                   List session files, newest first")
	fmt.Fprintln(w, "  archive [file]             Import a session file into the archive")
	fmt.Fprintln(w, "  history                    List archived sessions")
	fmt.Fprintln(w, "  issues [session]           List archived issues")
	fmt.Fprintln(w, "  log [-n N] [-f]            Show the log file")
	fmt.Fprintln(w, "  version                    Show version information")
	fmt.Fprintln(w, "  help                       Show this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global Options:")
	fs.SetOutput(w)
	fs.PrintDefaults()
	fs.SetOutput(stderr)
}

func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}
