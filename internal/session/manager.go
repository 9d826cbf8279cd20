package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ieslh/buildcheck/internal/checkdir"
	"github.com/ieslh/buildcheck/internal/hooks"
	"github.com/ieslh/buildcheck/internal/inspection"
	"github.com/ieslh/buildcheck/internal/records"
	"github.com/ieslh/buildcheck/internal/topology"
)

var (
	// ErrNoPreviousCheck is returned by Resume when no session file exists.
	ErrNoPreviousCheck = errors.New("no previous check found")
	// ErrNoActiveSession is returned by queries and mutations before
	// NewCheck or Resume.
	ErrNoActiveSession = errors.New("no active check; start a new one or resume")
	// ErrLocked means another process holds the check directory.
	ErrLocked = errors.New("check directory in use")
	// ErrUnknownFloor is returned by Floor for a floor not in the topology.
	ErrUnknownFloor = errors.New("unknown floor")
	// ErrUnknownRoom is returned by Room for a room not in the topology.
	ErrUnknownRoom = errors.New("unknown room")
)

// Options configures a Manager.
type Options struct {
	// Dir holds session files and the lock file.
	Dir           string
	SnapshotPath  string
	SessionPrefix string
	// Lock takes an advisory lock on Dir for the Manager's lifetime.
	Lock bool

	HookCommand string
	HookTimeout time.Duration

	Logger *log.Logger
	// Now defaults to time.Now. It dates new session files.
	Now func() time.Time
}

// Started describes the session made active by NewCheck or Resume.
type Started struct {
	SessionPath string
	Resumed     bool
	// Applied and Skipped count rows read from the session file and the
	// snapshot overlay.
	Applied int
	Skipped int
	Counts  inspection.Counts
}

// RoomSummary is one line of a floor listing.
type RoomSummary struct {
	Name       string
	Completion inspection.Completion
	Counts     inspection.Counts
}

// FloorView lists the rooms of a floor with their completion.
type FloorView struct {
	ID    string
	Rooms []RoomSummary
}

// RoomView is everything needed to render one room.
type RoomView struct {
	Name       string
	Floor      string
	Completion inspection.Completion
	Items      []inspection.ItemView
}

// Result reports the outcome of a mutation.
type Result struct {
	// Changed is false when the call was ignored or did not alter the slot.
	Changed bool
	// Saved is true once both the snapshot and the session file were written.
	Saved bool
	// SaveErr holds the write failure when Changed is true and Saved is not.
	SaveErr    error
	Slot       inspection.Slot
	Completion inspection.Completion
	Hook       *hooks.Result
}

// Manager is the command surface of one inspection check. It is not safe
// for concurrent use.
type Manager struct {
	topo   topology.Topology
	opts   Options
	logger *log.Logger
	store  *records.Store
	lock   *dirLock

	state       *inspection.State
	sessionPath string
	active      bool
}

// New returns a Manager over topo with no active session. With opts.Lock
// set it fails with ErrLocked if another process holds the directory.
func New(topo topology.Topology, opts Options) (*Manager, error) {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.SessionPrefix == "" {
		opts.SessionPrefix = checkdir.DefaultSessionPrefix
	}
	if opts.Dir == "" {
		opts.Dir = "."
	}
	if opts.SnapshotPath == "" {
		opts.SnapshotPath = checkdir.DefaultSnapshotFile
	}

	m := &Manager{
		topo:   topo,
		opts:   opts,
		logger: opts.Logger,
		store:  records.NewStore(opts.Logger),
		state:  inspection.FromTopology(topo, opts.Logger),
	}

	if opts.Lock {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("create check directory: %w", err)
		}
		lock := newDirLock(opts.Dir)
		if err := lock.acquire(); err != nil {
			return nil, err
		}
		m.lock = lock
	}
	return m, nil
}

// Close releases the directory lock. The snapshot stays on disk so the
// check can be resumed later.
func (m *Manager) Close() error {
	if m.lock == nil {
		return nil
	}
	err := m.lock.release()
	m.lock = nil
	return err
}

// Topology returns the building layout the Manager was built with.
func (m *Manager) Topology() topology.Topology {
	return m.topo
}

// Active reports whether a check has been started or resumed.
func (m *Manager) Active() bool {
	return m.active
}

// SessionPath is the session file of the active check.
func (m *Manager) SessionPath() string {
	return m.sessionPath
}

// SnapshotPath is the current-state file path.
func (m *Manager) SnapshotPath() string {
	return m.opts.SnapshotPath
}

// State exposes the status grid for read-only use.
func (m *Manager) State() *inspection.State {
	return m.state
}

// NewCheck discards the snapshot, resets every slot and creates an empty
// session file dated today. An existing file for today is overwritten.
func (m *Manager) NewCheck(ctx context.Context) (Started, error) {
	if err := ctx.Err(); err != nil {
		return Started{}, err
	}

	if err := os.Remove(m.opts.SnapshotPath); err != nil && !os.IsNotExist(err) {
		m.logger.Error("remove snapshot", "path", m.opts.SnapshotPath, "err", err)
	}

	path := checkdir.SessionPath(m.opts.Dir, m.opts.SessionPrefix, m.opts.Now())
	if _, err := os.Stat(path); err == nil {
		m.logger.Warn("overwriting session file for today", "path", path)
	}

	state := inspection.FromTopology(m.topo, m.logger)
	if err := m.store.WriteSession(state, path); err != nil {
		return Started{}, err
	}

	m.state = state
	m.sessionPath = path
	m.active = true
	m.logger.Info("started new check", "session", path)
	return Started{SessionPath: path, Counts: state.Counts()}, nil
}

// Resume loads the most recently modified session file and overlays the
// snapshot on it. It returns ErrNoPreviousCheck when there is nothing to
// resume.
func (m *Manager) Resume(ctx context.Context) (Started, error) {
	if err := ctx.Err(); err != nil {
		return Started{}, err
	}

	sessions, err := FindSessions(m.opts.Dir, m.opts.SessionPrefix)
	if err != nil {
		m.logger.Error("list session files", "dir", m.opts.Dir, "err", err)
		return Started{}, fmt.Errorf("list session files: %w", err)
	}
	latest, ok := MostRecent(sessions)
	if !ok {
		m.logger.Info("no previous check found", "dir", m.opts.Dir)
		return Started{}, ErrNoPreviousCheck
	}

	state, res := m.store.Read(latest.Path, m.topo)
	started := Started{
		SessionPath: latest.Path,
		Resumed:     true,
		Applied:     res.Applied,
		Skipped:     res.Skipped,
	}

	if _, err := os.Stat(m.opts.SnapshotPath); err == nil {
		overlay := m.store.Merge(state, m.opts.SnapshotPath)
		started.Applied += overlay.Applied
		started.Skipped += overlay.Skipped
	}

	m.state = state
	m.sessionPath = latest.Path
	m.active = true
	started.Counts = state.Counts()
	m.logger.Info("resumed check", "session", latest.Path, "applied", started.Applied, "skipped", started.Skipped)
	return started, nil
}

// Floors returns every floor id in display order.
func (m *Manager) Floors() []string {
	return m.topo.Floors()
}

// Floor lists the rooms of floor id with their completion.
func (m *Manager) Floor(id string) (FloorView, error) {
	if !m.active {
		return FloorView{}, ErrNoActiveSession
	}
	if !m.topo.HasFloor(id) {
		return FloorView{}, fmt.Errorf("%w: %q", ErrUnknownFloor, id)
	}
	view := FloorView{ID: id}
	for _, name := range m.topo.Rooms(id) {
		view.Rooms = append(view.Rooms, RoomSummary{
			Name:       name,
			Completion: m.state.Completion(name),
			Counts:     m.state.RoomCounts(name),
		})
	}
	return view, nil
}

// Overview returns every floor view in order.
func (m *Manager) Overview() ([]FloorView, error) {
	if !m.active {
		return nil, ErrNoActiveSession
	}
	var out []FloorView
	for _, id := range m.topo.Floors() {
		view, err := m.Floor(id)
		if err != nil {
			return nil, err
		}
		out = append(out, view)
	}
	return out, nil
}

// Room returns the items and slots of room id.
func (m *Manager) Room(id string) (RoomView, error) {
	if !m.active {
		return RoomView{}, ErrNoActiveSession
	}
	if !m.state.HasRoom(id) {
		return RoomView{}, fmt.Errorf("%w: %q", ErrUnknownRoom, id)
	}
	floor, _ := m.topo.FloorOf(id)
	return RoomView{
		Name:       id,
		Floor:      floor,
		Completion: m.state.Completion(id),
		Items:      m.state.Items(id),
	}, nil
}

// Counts totals the building's slots by status.
func (m *Manager) Counts() (inspection.Counts, error) {
	if !m.active {
		return inspection.Counts{}, ErrNoActiveSession
	}
	return m.state.Counts(), nil
}

// SetStatus records status for one slot and saves. Calls naming a slot
// that does not exist are logged by the state and reported as unchanged.
func (m *Manager) SetStatus(ctx context.Context, room, item string, index int, status inspection.Status) (Result, error) {
	if !m.active {
		return Result{}, ErrNoActiveSession
	}
	changed := m.state.SetStatus(room, item, index, status)
	return m.afterMutation(ctx, room, item, index, changed), nil
}

// SetNotes records notes for one slot and saves.
func (m *Manager) SetNotes(ctx context.Context, room, item string, index int, notes string) (Result, error) {
	if !m.active {
		return Result{}, ErrNoActiveSession
	}
	changed := m.state.SetNotes(room, item, index, notes)
	return m.afterMutation(ctx, room, item, index, changed), nil
}

func (m *Manager) afterMutation(ctx context.Context, room, item string, index int, changed bool) Result {
	res := Result{Changed: changed, Completion: m.state.Completion(room)}
	res.Slot, _ = m.state.Slot(room, item, index)
	if !changed {
		return res
	}

	if err := m.save(); err != nil {
		res.SaveErr = err
		return res
	}
	res.Saved = true

	if m.opts.HookCommand != "" {
		hr := m.runHook(ctx, room, item, index, res.Slot.Status)
		res.Hook = &hr
	}
	return res
}

// save writes the snapshot and then the session file.
func (m *Manager) save() error {
	if err := m.store.WriteSnapshot(m.state, m.opts.SnapshotPath); err != nil {
		return err
	}
	return m.store.WriteSession(m.state, m.sessionPath)
}

func (m *Manager) runHook(ctx context.Context, room, item string, index int, status inspection.Status) hooks.Result {
	hr, err := hooks.Invoke(ctx, hooks.Options{
		Command: m.opts.HookCommand,
		WorkDir: m.opts.Dir,
		Timeout: m.opts.HookTimeout,
		Event: hooks.Event{
			Room:         room,
			Item:         item,
			Index:        index,
			Status:       string(status),
			SnapshotPath: m.opts.SnapshotPath,
		},
	})
	if err != nil {
		m.logger.Warn("post-save hook failed", "command", m.opts.HookCommand, "exit", hr.ExitCode, "err", err, "output", hr.Output)
		return hr
	}
	m.logger.Debug("post-save hook ran", "command", m.opts.HookCommand)
	return hr
}
