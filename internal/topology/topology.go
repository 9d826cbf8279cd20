// Package topology loads the static floor, room and item layout of a building.
package topology

import (
	"sort"
	"strconv"
	"strings"
)

// Item is an inspectable item type within a room and how many of it the room holds.
type Item struct {
	Name  string
	Count int
}

// Topology maps floor -> room -> item type -> count. The zero value is an
// empty topology with no floors. A Topology is never mutated after New.
type Topology struct {
	floors     map[string]map[string]map[string]int
	roomFloor  map[string]string
	duplicates []string
}

// New builds a Topology from a decoded floor map. Counts below one are
// dropped. Room names are global: when the same room appears on more than
// one floor, the floor that sorts last owns it and the room is reported by
// Duplicates.
func New(floors map[string]map[string]map[string]int) Topology {
	t := Topology{
		floors:    make(map[string]map[string]map[string]int, len(floors)),
		roomFloor: make(map[string]string),
	}

	floorNames := make([]string, 0, len(floors))
	for floor := range floors {
		floorNames = append(floorNames, floor)
	}
	sortNames(floorNames)

	seen := make(map[string]bool)
	for _, floor := range floorNames {
		rooms := make(map[string]map[string]int, len(floors[floor]))
		for room, items := range floors[floor] {
			copied := make(map[string]int, len(items))
			for name, count := range items {
				if count < 1 {
					continue
				}
				copied[name] = count
			}
			rooms[room] = copied
			if prev, ok := t.roomFloor[room]; ok && prev != floor && !seen[room] {
				t.duplicates = append(t.duplicates, room)
				seen[room] = true
			}
			t.roomFloor[room] = floor
		}
		t.floors[floor] = rooms
	}
	sortNames(t.duplicates)
	return t
}

// Empty reports whether the topology has no floors.
func (t Topology) Empty() bool {
	return len(t.floors) == 0
}

// Floors returns floor identifiers in natural order ("2" before "10").
func (t Topology) Floors() []string {
	out := make([]string, 0, len(t.floors))
	for floor := range t.floors {
		out = append(out, floor)
	}
	sortNames(out)
	return out
}

// HasFloor reports whether floor exists.
func (t Topology) HasFloor(floor string) bool {
	_, ok := t.floors[floor]
	return ok
}

// Rooms returns the rooms owned by floor in natural order.
func (t Topology) Rooms(floor string) []string {
	var out []string
	for room := range t.floors[floor] {
		if t.roomFloor[room] == floor {
			out = append(out, room)
		}
	}
	sortNames(out)
	return out
}

// AllRooms returns every room in the building in natural order.
func (t Topology) AllRooms() []string {
	out := make([]string, 0, len(t.roomFloor))
	for room := range t.roomFloor {
		out = append(out, room)
	}
	sortNames(out)
	return out
}

// FloorOf returns the floor that owns room.
func (t Topology) FloorOf(room string) (string, bool) {
	floor, ok := t.roomFloor[room]
	return floor, ok
}

// Items returns the item types of room ordered by lowercased name.
func (t Topology) Items(room string) []Item {
	floor, ok := t.roomFloor[room]
	if !ok {
		return nil
	}
	items := t.floors[floor][room]
	out := make([]Item, 0, len(items))
	for name, count := range items {
		out = append(out, Item{Name: name, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if a == b {
			return out[i].Name < out[j].Name
		}
		return CompareNames(a, b)
	})
	return out
}

// Duplicates returns room names that appeared on more than one floor.
func (t Topology) Duplicates() []string {
	return append([]string(nil), t.duplicates...)
}

// Stats returns the number of floors, rooms and inspectable slots.
func (t Topology) Stats() (floors, rooms, slots int) {
	for room := range t.roomFloor {
		rooms++
		for _, item := range t.Items(room) {
			slots += item.Count
		}
	}
	return len(t.floors), rooms, slots
}

// numericKey extracts the number following a non-digit prefix.
// For names like "Room 2", "F10" or "3" it returns 2, 10 and 3.
// It returns -1 when the name has no trailing number.
func numericKey(name string) int {
	i := 0
	for i < len(name) && (name[i] < '0' || name[i] > '9') {
		i++
	}
	if i == len(name) {
		return -1
	}
	num, err := strconv.Atoi(name[i:])
	if err != nil {
		return -1
	}
	return num
}

// CompareNames reports whether a sorts before b. Names are ordered by their
// non-digit prefix, then by trailing number, so "Room 2" sorts before
// "Room 10"; names without a trailing number sort ahead of numbered ones
// sharing the prefix, and full string comparison breaks remaining ties.
func CompareNames(a, b string) bool {
	pa, pb := prefix(a), prefix(b)
	if pa != pb {
		return pa < pb
	}
	ka, kb := numericKey(a), numericKey(b)
	if ka != kb {
		return ka < kb
	}
	return a < b
}

func prefix(name string) string {
	i := 0
	for i < len(name) && (name[i] < '0' || name[i] > '9') {
		i++
	}
	return name[:i]
}

func sortNames(names []string) {
	sort.Slice(names, func(i, j int) bool {
		return CompareNames(names[i], names[j])
	})
}
