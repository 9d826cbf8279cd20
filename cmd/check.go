package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/ieslh/buildcheck/internal/config"
	"github.com/ieslh/buildcheck/internal/inspection"
	"github.com/ieslh/buildcheck/internal/session"
	"github.com/ieslh/buildcheck/internal/ui"
)

// newCommand starts a new check, discarding the snapshot.
func newCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("buildcheck new", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := noArgs(fs); err != nil {
		return err
	}

	e, err := openEnv(cfg)
	if err != nil {
		return err
	}
	defer e.Close()
	mgr, err := e.manager()
	if err != nil {
		return err
	}
	defer mgr.Close()

	started, err := mgr.NewCheck(ctx)
	if err != nil {
		return fmt.Errorf("starting new check: %w", err)
	}
	fmt.Fprintf(stdout, "Started new check: %s\n", started.SessionPath)
	fmt.Fprintf(stdout, "  %d items to check\n", started.Counts.Total())
	return nil
}

// resumeCommand loads the most recent check and reports where it stands.
func resumeCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("buildcheck resume", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := noArgs(fs); err != nil {
		return err
	}

	e, err := openEnv(cfg)
	if err != nil {
		return err
	}
	defer e.Close()
	mgr, err := e.manager()
	if err != nil {
		return err
	}
	defer mgr.Close()

	started, err := mgr.Resume(ctx)
	if errors.Is(err, session.ErrNoPreviousCheck) {
		fmt.Fprintln(stdout, "No previous check found")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Resumed check: %s\n", started.SessionPath)
	fmt.Fprintf(stdout, "  rows loaded: %d, skipped: %d\n", started.Applied, started.Skipped)
	printCounts(started.Counts)
	return nil
}

// floorsCommand lists every floor, or one, with room completion.
func floorsCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("buildcheck floors", flag.ContinueOnError)
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
	mgr, err := e.resumed(ctx)
	if err != nil {
		return err
	}
	defer mgr.Close()

	var views []session.FloorView
	if fs.NArg() == 1 {
		view, err := mgr.Floor(fs.Arg(0))
		if err != nil {
			return err
		}
		views = append(views, view)
	} else {
		views, err = mgr.Overview()
		if err != nil {
			return err
		}
	}
	if len(views) == 0 {
		fmt.Fprintln(stdout, "No floors in the building layout.")
		return nil
	}
	for _, view := range views {
		fmt.Fprintf(stdout, "Floor %s\n", view.ID)
		for _, room := range view.Rooms {
			fmt.Fprintf(stdout, "  %s %s: %s (%d/%d)\n", completionIcon(room.Completion), room.Name,
				room.Completion.Label(), room.Counts.Checked(), room.Counts.Total())
		}
	}
	return nil
}

// roomCommand prints one line per item of a room.
func roomCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("buildcheck room", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("usage: buildcheck room <room>")
	}
	name := joinArgs(fs.Args())

	e, err := openEnv(cfg)
	if err != nil {
		return err
	}
	defer e.Close()
	mgr, err := e.resumed(ctx)
	if err != nil {
		return err
	}
	defer mgr.Close()

	view, err := mgr.Room(name)
	if err != nil {
		return err
	}
	printRoom(view)
	return nil
}

// setCommand records a status. Item numbers on the command line start at 1.
func setCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("buildcheck set", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 4 {
		return fmt.Errorf("usage: buildcheck set <room> <item> <n> <ok|issue|clear>")
	}
	room, item := fs.Arg(0), fs.Arg(1)
	index, err := parseItemNumber(fs.Arg(2))
	if err != nil {
		return err
	}
	status, err := parseStatusArg(fs.Arg(3))
	if err != nil {
		return err
	}

	e, err := openEnv(cfg)
	if err != nil {
		return err
	}
	defer e.Close()
	mgr, err := e.resumed(ctx)
	if err != nil {
		return err
	}
	defer mgr.Close()

	if err := checkSlot(mgr, room, item, index); err != nil {
		return err
	}
	res, err := mgr.SetStatus(ctx, room, item, index, status)
	if err != nil {
		return err
	}
	return reportMutation(room, item, index, res)
}

// noteCommand records notes; the remaining arguments form the text.
func noteCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("buildcheck note", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 3 {
		return fmt.Errorf("usage: buildcheck note <room> <item> <n> <text...>")
	}
	room, item := fs.Arg(0), fs.Arg(1)
	index, err := parseItemNumber(fs.Arg(2))
	if err != nil {
		return err
	}
	notes := joinArgs(fs.Args()[3:])

	e, err := openEnv(cfg)
	if err != nil {
		return err
	}
	defer e.Close()
	mgr, err := e.resumed(ctx)
	if err != nil {
		return err
	}
	defer mgr.Close()

	if err := checkSlot(mgr, room, item, index); err != nil {
		return err
	}
	// Only slots with a status are written, so notes alone would be lost.
	if slot, _ := mgr.State().Slot(room, item, index); slot.Status == inspection.StatusNone {
		return fmt.Errorf("%s %s %d is not checked; set a status before adding notes", room, item, index+1)
	}
	res, err := mgr.SetNotes(ctx, room, item, index, notes)
	if err != nil {
		return err
	}
	return reportMutation(room, item, index, res)
}

// summaryCommand prints building totals and per-room completion.
func summaryCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("buildcheck summary", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := noArgs(fs); err != nil {
		return err
	}

	e, err := openEnv(cfg)
	if err != nil {
		return err
	}
	defer e.Close()
	mgr, err := e.resumed(ctx)
	if err != nil {
		return err
	}
	defer mgr.Close()

	fmt.Fprintf(stdout, "Session: %s\n", mgr.SessionPath())
	counts, err := mgr.Counts()
	if err != nil {
		return err
	}
	printCounts(counts)

	views, err := mgr.Overview()
	if err != nil {
		return err
	}
	byCompletion := map[inspection.Completion]int{}
	for _, view := range views {
		for _, room := range view.Rooms {
			byCompletion[room.Completion]++
		}
	}
	fmt.Fprintf(stdout, "Rooms: %d fully checked, %d partially checked, %d not checked\n",
		byCompletion[inspection.Full], byCompletion[inspection.Partial], byCompletion[inspection.NotChecked])
	return nil
}

// tuiCommand launches the interactive UI.
func tuiCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("buildcheck tui", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := noArgs(fs); err != nil {
		return err
	}

	e, err := openEnv(cfg)
	if err != nil {
		return err
	}
	defer e.Close()
	mgr, err := e.manager()
	if err != nil {
		return err
	}
	defer mgr.Close()
	return ui.RunTUI(ctx, mgr)
}

func parseItemNumber(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("item number must be a positive integer, got %q", s)
	}
	return n - 1, nil
}

func parseStatusArg(s string) (inspection.Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "clear", "none":
		return inspection.StatusNone, nil
	}
	status, ok := inspection.ParseStatus(s)
	if !ok || status == inspection.StatusNone {
		return "", fmt.Errorf("status must be ok, issue or clear, got %q", s)
	}
	return status, nil
}

// checkSlot turns a slot the state would silently ignore into an argument
// error for the command line.
func checkSlot(mgr *session.Manager, room, item string, index int) error {
	view, err := mgr.Room(room)
	if err != nil {
		return err
	}
	for _, it := range view.Items {
		if !strings.EqualFold(it.Name, item) {
			continue
		}
		if index >= len(it.Slots) {
			return fmt.Errorf("room %s has %d %s, no item %d", room, len(it.Slots), it.Name, index+1)
		}
		return nil
	}
	names := make([]string, 0, len(view.Items))
	for _, it := range view.Items {
		names = append(names, it.Name)
	}
	return fmt.Errorf("room %s has no item type %q (have: %s)", room, item, strings.Join(names, ", "))
}

func reportMutation(room, item string, index int, res session.Result) error {
	if res.SaveErr != nil {
		return fmt.Errorf("change not saved: %w", res.SaveErr)
	}
	line := fmt.Sprintf("%s %s %d: %s", room, item, index+1, res.Slot.Status.Label())
	if res.Slot.Notes != "" {
		line += " - " + res.Slot.Notes
	}
	if !res.Changed {
		line += " (unchanged)"
	}
	fmt.Fprintln(stdout, line)
	fmt.Fprintf(stdout, "%s: %s\n", room, res.Completion.Label())
	if res.Hook != nil && res.Hook.ExitCode != 0 {
		fmt.Fprintf(stderr, "warning: post-save hook exited %d\n", res.Hook.ExitCode)
	}
	return nil
}

func printRoom(view session.RoomView) {
	fmt.Fprintf(stdout, "%s (Floor %s): %s\n", view.Name, view.Floor, view.Completion.Label())
	for _, item := range view.Items {
		for i, slot := range item.Slots {
			line := fmt.Sprintf("  %s %d: %s", item.Name, i+1, slot.Status.Label())
			if slot.Notes != "" {
				line += " - " + slot.Notes
			}
			fmt.Fprintln(stdout, line)
		}
	}
}

func printCounts(c inspection.Counts) {
	fmt.Fprintf(stdout, "  OK: %d  Issue: %d  Not checked: %d  (%d/%d checked)\n",
		c.OK, c.Issue, c.Unchecked, c.Checked(), c.Total())
}

func completionIcon(c inspection.Completion) string {
	switch c {
	case inspection.Full:
		return "✅"
	case inspection.Partial:
		return "🔄"
	default:
		return "⬜"
	}
}
