package cmd

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ieslh/buildcheck/internal/archive"
	"github.com/ieslh/buildcheck/internal/checkdir"
	"github.com/ieslh/buildcheck/internal/config"
	"github.com/ieslh/buildcheck/internal/records"
	"github.com/ieslh/buildcheck/internal/session"
)

// archiveCommand imports a session file, the most recent by default, into
// the SQLite archive.
func archiveCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("buildcheck archive", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 1 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args()[1:])
	}

	e, err := openEnv(cfg)
	if err != nil {
		return err
	}
	defer e.Close()

	var path string
	if fs.NArg() == 1 {
		path = fs.Arg(0)
		if !filepath.IsAbs(path) {
			path = filepath.Join(cfg.DataDir, path)
		}
	} else {
		sessions, err := session.FindSessions(cfg.DataDir, cfg.SessionPrefix)
		if err != nil {
			return fmt.Errorf("listing sessions: %w", err)
		}
		latest, ok := session.MostRecent(sessions)
		if !ok {
			fmt.Fprintln(stdout, "No previous check found")
			return nil
		}
		path = latest.Path
	}

	recs, res := records.NewStore(e.log.Logger).Scan(path)
	if res.Err != nil {
		return fmt.Errorf("reading %s: %w", path, res.Err)
	}

	db, err := archive.Open(cfg.ArchiveFile)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer db.Close()

	imp, err := db.ImportSession(ctx, sourceFor(path, cfg.SessionPrefix), recs)
	if err != nil {
		return fmt.Errorf("archiving %s: %w", path, err)
	}
	e.log.Info("archived session", "path", path, "id", imp.ID, "rows", imp.Rows)
	fmt.Fprintf(stdout, "Archived %s as %s\n", imp.Name, imp.ID)
	fmt.Fprintf(stdout, "  rows: %d  OK: %d  Issue: %d  skipped: %d\n", imp.Rows, imp.OK, imp.Issue, res.Skipped)
	return nil
}

// historyCommand lists archived sessions.
func historyCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("buildcheck history", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := noArgs(fs); err != nil {
		return err
	}

	db, err := archive.Open(cfg.ArchiveFile)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer db.Close()

	imports, err := db.Sessions(ctx)
	if err != nil {
		return err
	}
	if len(imports) == 0 {
		fmt.Fprintln(stdout, "No archived sessions.")
		return nil
	}
	for _, imp := range imports {
		date := imp.Date
		if date == "" {
			date = "-"
		}
		fmt.Fprintf(stdout, "%s  %s  date %s  OK %d  Issue %d  (imported %s)\n",
			imp.ID, imp.Name, date, imp.OK, imp.Issue, imp.ImportedAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

// issuesCommand lists archived ISSUE slots, for one session or all.
func issuesCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("buildcheck issues", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 1 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args()[1:])
	}

	db, err := archive.Open(cfg.ArchiveFile)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer db.Close()

	name := ""
	if fs.NArg() == 1 {
		name = filepath.Base(fs.Arg(0))
	}
	issues, err := db.Issues(ctx, name)
	if err != nil {
		return err
	}
	if len(issues) == 0 {
		fmt.Fprintln(stdout, "No archived issues.")
		return nil
	}
	current := ""
	for _, is := range issues {
		if is.Session != current {
			current = is.Session
			fmt.Fprintf(stdout, "%s\n", current)
		}
		line := fmt.Sprintf("  %s %s %d", is.Room, is.Item, is.Index+1)
		if is.Notes != "" {
			line += " - " + is.Notes
		}
		fmt.Fprintln(stdout, line)
	}
	return nil
}

func sourceFor(path, prefix string) archive.Source {
	name := filepath.Base(path)
	src := archive.Source{Name: name, Path: path}
	stem := strings.TrimSuffix(name, checkdir.SessionExt)
	if date, ok := strings.CutPrefix(stem, prefix); ok {
		if _, err := time.Parse(checkdir.DateLayout, date); err == nil {
			src.Date = date
		}
	}
	return src
}
