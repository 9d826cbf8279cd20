package records

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/charmbracelet/log"

	"github.com/ieslh/buildcheck/internal/inspection"
	"github.com/ieslh/buildcheck/internal/topology"
)

// ReadResult summarises one read of a record file.
type ReadResult struct {
	Path    string
	Applied int
	Skipped int
	// Err is the file-level failure, if any. Row problems are counted in
	// Skipped and logged, not reported here.
	Err error
}

// Store reads and writes record files, logging every problem it meets.
type Store struct {
	logger *log.Logger
}

// NewStore returns a Store. A nil logger discards diagnostics.
func NewStore(logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Store{logger: logger}
}

// WriteSnapshot atomically replaces the snapshot at path with state.
func (s *Store) WriteSnapshot(state *inspection.State, path string) error {
	return s.write(state, path, "snapshot")
}

// WriteSession atomically replaces the session file at path with state.
func (s *Store) WriteSession(state *inspection.State, path string) error {
	return s.write(state, path, "session")
}

func (s *Store) write(state *inspection.State, path, kind string) error {
	recs := Rows(state)
	data, err := Marshal(recs)
	if err != nil {
		s.logger.Error("encode records", "kind", kind, "path", path, "err", err)
		return fmt.Errorf("encode %s: %w", kind, err)
	}
	if err := writeFileAtomic(path, data, 0o644); err != nil {
		s.logger.Error("write records", "kind", kind, "path", path, "err", err)
		return fmt.Errorf("write %s %s: %w", kind, path, err)
	}
	s.logger.Debug("saved records", "kind", kind, "path", path, "rows", len(recs))
	return nil
}

// Read returns a fresh state shaped by topo with the rows of path applied.
// The returned state is always valid; on a file-level failure it is empty.
func (s *Store) Read(path string, topo topology.Topology) (*inspection.State, ReadResult) {
	state := inspection.FromTopology(topo, s.logger)
	return state, s.Merge(state, path)
}

// Merge applies the rows of path onto state. Rows naming slots that state
// does not have are skipped and logged.
func (s *Store) Merge(state *inspection.State, path string) ReadResult {
	result := ReadResult{Path: path}
	err := s.decodeFile(path, func(rec Record) bool {
		if _, ok := state.Slot(rec.Room, rec.Item, rec.Index); !ok {
			s.logger.Warn("row skipped: slot not in topology",
				"path", path, "room", rec.Room, "item", rec.Item, "index", rec.Index)
			return false
		}
		state.SetStatus(rec.Room, rec.Item, rec.Index, rec.Status)
		state.SetNotes(rec.Room, rec.Item, rec.Index, rec.Notes)
		return true
	}, &result)
	result.Err = err
	if err == nil {
		s.logger.Info("loaded records", "path", path, "applied", result.Applied, "skipped", result.Skipped)
	}
	return result
}

// Scan decodes every well-formed row of path without a topology.
func (s *Store) Scan(path string) ([]Record, ReadResult) {
	var recs []Record
	result := ReadResult{Path: path}
	result.Err = s.decodeFile(path, func(rec Record) bool {
		recs = append(recs, rec)
		return true
	}, &result)
	return recs, result
}

// decodeFile streams path through apply, counting applied and skipped rows.
// Rows are applied as they are read, so a header failure leaves the target
// untouched.
func (s *Store) decodeFile(path string, apply func(Record) bool, result *ReadResult) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Warn("record file not found", "path", path)
		} else {
			s.logger.Error("open record file", "path", path, "err", err)
		}
		return err
	}
	defer f.Close()

	dec := NewDecoder(f)
	for {
		rec, err := dec.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if errors.Is(err, ErrMissingHeader) {
			s.logger.Error("record file has no valid header, nothing loaded", "path", path, "err", err)
			return err
		}
		var rowErr *RowError
		if errors.As(err, &rowErr) {
			result.Skipped++
			s.logger.Warn("row skipped", "path", path, "line", rowErr.Line, "reason", rowErr.Reason, "row", rowErr.Fields)
			continue
		}
		if err != nil {
			s.logger.Error("read record file", "path", path, "err", err)
			return err
		}
		if apply(rec) {
			result.Applied++
		} else {
			result.Skipped++
		}
	}
}

// writeFileAtomic writes content to a temp file beside path, syncs it and
// renames it over path so readers never see a partial file.
func writeFileAtomic(path string, content []byte, mode os.FileMode) error {
	parent := filepath.Dir(path)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}
	tempFile, err := os.CreateTemp(parent, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tempPath := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempPath)
		}
	}()

	if _, err := tempFile.Write(content); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tempFile.Chmod(mode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		if runtime.GOOS != "windows" {
			return fmt.Errorf("rename temp file: %w", err)
		}
		if removeErr := os.Remove(path); removeErr != nil && !os.IsNotExist(removeErr) {
			return fmt.Errorf("remove destination before rename: %w", removeErr)
		}
		if err := os.Rename(tempPath, path); err != nil {
			return fmt.Errorf("rename temp file after remove: %w", err)
		}
	}
	cleanup = false

	if dir, err := os.Open(parent); err == nil {
		_ = dir.Sync()
		_ = dir.Close()
	}
	return nil
}
