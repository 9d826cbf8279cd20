// Package inspection holds the in-memory status grid of a building check.
//
// The grid is keyed by room, then lowercased item type, then slot index.
// Its shape is fixed by the topology passed to Reset: every item type has
// exactly as many slots as the topology counts for it. Mutations outside
// that shape are logged and ignored, never applied.
package inspection

import (
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/ieslh/buildcheck/internal/topology"
)

// Slot is the recorded state of one physical item.
type Slot struct {
	Status Status
	Notes  string
}

// ItemView is one item type of a room, in display order.
type ItemView struct {
	Name  string // as written in the topology
	Key   string // lowercased lookup key
	Slots []Slot
}

// Counts totals slots by status.
type Counts struct {
	OK        int
	Issue     int
	Unchecked int
}

// Total is the number of slots counted.
func (c Counts) Total() int {
	return c.OK + c.Issue + c.Unchecked
}

// Checked is the number of slots with a status.
func (c Counts) Checked() int {
	return c.OK + c.Issue
}

type room struct {
	items map[string][]Slot
	names map[string]string
	order []string
}

// State is the inspection status grid. It is not safe for concurrent use.
type State struct {
	rooms  map[string]*room
	logger *log.Logger
}

// New returns an empty State. A nil logger discards diagnostics.
func New(logger *log.Logger) *State {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &State{rooms: map[string]*room{}, logger: logger}
}

// FromTopology returns a State reset to t.
func FromTopology(t topology.Topology, logger *log.Logger) *State {
	s := New(logger)
	s.Reset(t)
	return s
}

// Reset discards all recorded results and rebuilds empty slots matching t.
func (s *State) Reset(t topology.Topology) {
	s.rooms = make(map[string]*room)
	for _, name := range t.AllRooms() {
		r := &room{items: map[string][]Slot{}, names: map[string]string{}}
		for _, item := range t.Items(name) {
			key := itemKey(item.Name)
			if _, dup := r.items[key]; dup {
				s.logger.Warn("item type listed twice with different case, keeping first",
					"room", name, "item", item.Name, "kept", r.names[key])
				continue
			}
			r.items[key] = make([]Slot, item.Count)
			r.names[key] = item.Name
			r.order = append(r.order, key)
		}
		s.rooms[name] = r
	}
}

func itemKey(item string) string {
	return strings.ToLower(strings.TrimSpace(item))
}

func (s *State) slots(roomName, item string) ([]Slot, bool) {
	r, ok := s.rooms[roomName]
	if !ok {
		return nil, false
	}
	slots, ok := r.items[itemKey(item)]
	return slots, ok
}

// Slot returns the slot at (room, item, index) and whether it exists.
// The item type is matched case-insensitively.
func (s *State) Slot(roomName, item string, index int) (Slot, bool) {
	slots, ok := s.slots(roomName, item)
	if !ok || index < 0 || index >= len(slots) {
		return Slot{}, false
	}
	return slots[index], true
}

// SetStatus records status for a slot and reports whether anything changed.
// Unknown rooms, item types, indexes or statuses are logged and ignored.
func (s *State) SetStatus(roomName, item string, index int, status Status) bool {
	if !status.Valid() {
		s.logger.Warn("unknown status ignored", "room", roomName, "item", item, "index", index, "status", string(status))
		return false
	}
	slot := s.lookup(roomName, item, index)
	if slot == nil {
		return false
	}
	if slot.Status == status {
		return false
	}
	slot.Status = status
	return true
}

// SetNotes records notes for a slot and reports whether anything changed.
// CRLF line breaks are stored as LF, the form a CSV reader hands back.
func (s *State) SetNotes(roomName, item string, index int, notes string) bool {
	slot := s.lookup(roomName, item, index)
	if slot == nil {
		return false
	}
	notes = strings.ReplaceAll(notes, "\r\n", "\n")
	if slot.Notes == notes {
		return false
	}
	slot.Notes = notes
	return true
}

func (s *State) lookup(roomName, item string, index int) *Slot {
	r, ok := s.rooms[roomName]
	if !ok {
		s.logger.Warn("unknown room ignored", "room", roomName, "item", item, "index", index)
		return nil
	}
	slots, ok := r.items[itemKey(item)]
	if !ok {
		s.logger.Warn("unknown item type ignored", "room", roomName, "item", item, "index", index)
		return nil
	}
	if index < 0 || index >= len(slots) {
		s.logger.Warn("item index out of range ignored", "room", roomName, "item", item, "index", index, "count", len(slots))
		return nil
	}
	return &slots[index]
}

// HasRoom reports whether room is part of the grid.
func (s *State) HasRoom(roomName string) bool {
	_, ok := s.rooms[roomName]
	return ok
}

// Rooms returns every room in natural order.
func (s *State) Rooms() []string {
	out := make([]string, 0, len(s.rooms))
	for name := range s.rooms {
		out = append(out, name)
	}
	sort.Slice(out, func(i, j int) bool { return topology.CompareNames(out[i], out[j]) })
	return out
}

// Items returns the item types of room with a copy of their slots.
func (s *State) Items(roomName string) []ItemView {
	r, ok := s.rooms[roomName]
	if !ok {
		return nil
	}
	out := make([]ItemView, 0, len(r.order))
	for _, key := range r.order {
		slots := make([]Slot, len(r.items[key]))
		copy(slots, r.items[key])
		out = append(out, ItemView{Name: r.names[key], Key: key, Slots: slots})
	}
	return out
}

// RoomCounts totals the slots of one room.
func (s *State) RoomCounts(roomName string) Counts {
	var c Counts
	r, ok := s.rooms[roomName]
	if !ok {
		return c
	}
	for _, slots := range r.items {
		for _, slot := range slots {
			switch slot.Status {
			case StatusOK:
				c.OK++
			case StatusIssue:
				c.Issue++
			default:
				c.Unchecked++
			}
		}
	}
	return c
}

// Counts totals slots across the whole building.
func (s *State) Counts() Counts {
	var total Counts
	for name := range s.rooms {
		c := s.RoomCounts(name)
		total.OK += c.OK
		total.Issue += c.Issue
		total.Unchecked += c.Unchecked
	}
	return total
}

// Completion reports how much of room has been checked. A room with no
// slots, or one that does not exist, is NotChecked.
func (s *State) Completion(roomName string) Completion {
	c := s.RoomCounts(roomName)
	switch {
	case c.Checked() == 0:
		return NotChecked
	case c.Unchecked == 0:
		return Full
	default:
		return Partial
	}
}

// Walk calls fn for every slot in room, item-key, index order.
func (s *State) Walk(fn func(room, item string, index int, slot Slot)) {
	for _, name := range s.Rooms() {
		r := s.rooms[name]
		for _, key := range r.order {
			for i, slot := range r.items[key] {
				fn(name, key, i, slot)
			}
		}
	}
}
