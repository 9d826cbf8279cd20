// Package session discovers dated session files and drives an inspection
// check: starting or resuming it, answering floor and room queries, and
// saving after every change.
package session

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ieslh/buildcheck/internal/checkdir"
)

// Session is one session file on disk.
type Session struct {
	Path    string
	Name    string
	Date    time.Time // parsed from the name when HasDate is set
	HasDate bool
	ModTime time.Time
}

// FindSessions lists the files in dir named <prefix>...csv, newest first.
// A missing directory has no sessions.
func FindSessions(dir, prefix string) ([]Session, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var sessions []Session
	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() {
			continue
		}
		if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, checkdir.SessionExt) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		s := Session{
			Path:    filepath.Join(dir, name),
			Name:    name,
			ModTime: info.ModTime(),
		}
		stem := strings.TrimSuffix(strings.TrimPrefix(name, prefix), checkdir.SessionExt)
		if day, err := time.ParseInLocation(checkdir.DateLayout, stem, time.Local); err == nil {
			s.Date = day
			s.HasDate = true
		}
		sessions = append(sessions, s)
	}

	sort.Slice(sessions, func(i, j int) bool {
		return newer(sessions[i], sessions[j])
	})
	return sessions, nil
}

// MostRecent returns the most recently modified session. ok is false when
// sessions is empty.
func MostRecent(sessions []Session) (Session, bool) {
	if len(sessions) == 0 {
		return Session{}, false
	}
	best := sessions[0]
	for _, s := range sessions[1:] {
		if newer(s, best) {
			best = s
		}
	}
	return best, true
}

// newer orders by modification time, then by name.
func newer(a, b Session) bool {
	if !a.ModTime.Equal(b.ModTime) {
		return a.ModTime.After(b.ModTime)
	}
	return a.Name > b.Name
}
