package session

import (
	"fmt"
	"os"

	"github.com/gofrs/flock"

	"github.com/ieslh/buildcheck/internal/checkdir"
)

// dirLock is an advisory lock on a check directory.
type dirLock struct {
	lock *flock.Flock
	path string
}

func newDirLock(dir string) *dirLock {
	path := checkdir.LockPath(dir)
	return &dirLock{lock: flock.New(path), path: path}
}

// acquire takes the lock without waiting. A lock held by another process
// yields ErrLocked.
func (l *dirLock) acquire() error {
	locked, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock on %s: %w", l.path, err)
	}
	if !locked {
		return fmt.Errorf("%w: %s", ErrLocked, l.path)
	}
	return nil
}

func (l *dirLock) release() error {
	if err := l.lock.Unlock(); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to release lock on %s: %w", l.path, err)
	}
	return nil
}
