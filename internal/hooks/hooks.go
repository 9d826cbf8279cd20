// Package hooks invokes the external post-save hook.
package hooks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"time"
)

// Event describes the change that was just saved.
type Event struct {
	Room         string
	Item         string
	Index        int
	Status       string
	SnapshotPath string
}

// Options configures a hook invocation.
type Options struct {
	Command string
	Event   Event
	WorkDir string
	// Timeout bounds the hook run; zero means no limit beyond ctx.
	Timeout time.Duration
}

// Result captures the outcome of a hook invocation.
type Result struct {
	Ran      bool
	Command  []string
	ExitCode int
	Output   string
}

// maxOutput caps how much hook output is kept in Result.
const maxOutput = 4096

// Invoke runs the hook command with the arguments
// room item index status snapshot_path. Hook output is captured rather than
// written to the terminal so it cannot corrupt an interactive screen.
func Invoke(ctx context.Context, opts Options) (Result, error) {
	if opts.Command == "" {
		return Result{}, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	ev := opts.Event
	args := []string{ev.Room, ev.Item, strconv.Itoa(ev.Index), ev.Status, ev.SnapshotPath}

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, opts.Command, args...)
	if opts.WorkDir != "" {
		cmd.Dir = opts.WorkDir
	}
	cmd.Env = append(os.Environ(),
		"BUILDCHECK_ROOM="+ev.Room,
		"BUILDCHECK_ITEM="+ev.Item,
		"BUILDCHECK_INDEX="+strconv.Itoa(ev.Index),
		"BUILDCHECK_STATUS="+ev.Status,
		"BUILDCHECK_SNAPSHOT="+ev.SnapshotPath,
	)
	cmd.Stdout = &out
	cmd.Stderr = &out
	cmd.WaitDelay = time.Second

	err := cmd.Run()
	result := Result{
		Ran:      true,
		Command:  cmd.Args,
		ExitCode: exitCodeFromError(err),
		Output:   truncate(out.String(), maxOutput),
	}
	if err != nil {
		if ctxErr := ctx.Err(); errors.Is(ctxErr, context.DeadlineExceeded) {
			return result, fmt.Errorf("hook command timed out after %s: %w", opts.Timeout, err)
		}
		return result, fmt.Errorf("hook command failed: %w", err)
	}
	return result, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func exitCodeFromError(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
