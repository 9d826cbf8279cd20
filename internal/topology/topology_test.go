package topology

import (
	"sort"
	"strings"
	"testing"
)

func TestNewOrdersNaturally(t *testing.T) {
	topo := New(map[string]map[string]map[string]int{
		"10": {"Room 10": {"Door": 1}},
		"2":  {"Room 2": {"Door": 1}, "Room 1": {"Window": 2}},
		"1":  {"Lobby": {"door": 1, "Bench": 2, "light": 3}},
	})

	if got := strings.Join(topo.Floors(), ","); got != "1,2,10" {
		t.Errorf("Floors = %s, want 1,2,10", got)
	}
	if got := strings.Join(topo.Rooms("2"), ","); got != "Room 1,Room 2" {
		t.Errorf("Rooms(2) = %s", got)
	}
	items := topo.Items("Lobby")
	var names []string
	for _, item := range items {
		names = append(names, item.Name)
	}
	if got := strings.Join(names, ","); got != "Bench,door,light" {
		t.Errorf("Items(Lobby) = %s, want Bench,door,light", got)
	}
}

func TestNewDropsNonPositiveCounts(t *testing.T) {
	topo := New(map[string]map[string]map[string]int{
		"1": {"Hall": {"Door": 0, "Window": -2, "Light": 1}},
	})
	items := topo.Items("Hall")
	if len(items) != 1 || items[0].Name != "Light" {
		t.Errorf("Items(Hall) = %+v, want only Light", items)
	}
}

func TestDuplicateRoomLastFloorWins(t *testing.T) {
	topo := New(map[string]map[string]map[string]int{
		"1": {"Shared": {"Door": 1}, "Only1": {"Door": 1}},
		"2": {"Shared": {"Window": 4}},
	})

	floor, ok := topo.FloorOf("Shared")
	if !ok || floor != "2" {
		t.Errorf("FloorOf(Shared) = %q, %v; want 2", floor, ok)
	}
	if got := topo.Duplicates(); len(got) != 1 || got[0] != "Shared" {
		t.Errorf("Duplicates = %v", got)
	}
	if got := strings.Join(topo.Rooms("1"), ","); got != "Only1" {
		t.Errorf("Rooms(1) = %s, floor 1 should lose Shared", got)
	}
	items := topo.Items("Shared")
	if len(items) != 1 || items[0].Name != "Window" || items[0].Count != 4 {
		t.Errorf("Items(Shared) = %+v, want floor 2 items", items)
	}
	_, rooms, slots := topo.Stats()
	if rooms != 2 || slots != 5 {
		t.Errorf("Stats rooms=%d slots=%d, want 2 and 5", rooms, slots)
	}
}

func TestZeroValueIsEmpty(t *testing.T) {
	var topo Topology
	if !topo.Empty() {
		t.Error("zero Topology should be empty")
	}
	if len(topo.Floors()) != 0 || len(topo.AllRooms()) != 0 {
		t.Error("zero Topology should have no floors or rooms")
	}
	if topo.Items("anything") != nil {
		t.Error("Items on zero Topology should be nil")
	}
	if topo.HasFloor("1") {
		t.Error("HasFloor on zero Topology should be false")
	}
}

func TestNewCopiesInput(t *testing.T) {
	in := map[string]map[string]map[string]int{"1": {"A": {"Door": 1}}}
	topo := New(in)
	in["1"]["A"]["Door"] = 9
	in["1"]["B"] = map[string]int{"Door": 1}
	if topo.Items("A")[0].Count != 1 {
		t.Error("Topology shares item map with input")
	}
	if _, ok := topo.FloorOf("B"); ok {
		t.Error("Topology shares room map with input")
	}
}

func TestCompareNamesIsTotalOrder(t *testing.T) {
	names := []string{"A2", "A10", "A1x", "B", "A", "10", "2", "Room 3", "Room 20", "Room"}
	sorted := append([]string(nil), names...)
	sort.Slice(sorted, func(i, j int) bool { return CompareNames(sorted[i], sorted[j]) })

	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			if CompareNames(sorted[j], sorted[i]) {
				t.Errorf("order not consistent: %q sorts before %q", sorted[j], sorted[i])
			}
		}
	}
	want := "2,10,A,A1x,A2,A10,B,Room,Room 3,Room 20"
	if got := strings.Join(sorted, ","); got != want {
		t.Errorf("sorted = %s, want %s", got, want)
	}
}

func TestNumericKey(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"3", 3},
		{"F10", 10},
		{"Room 2", 2},
		{"Lobby", -1},
		{"A1x", -1},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := numericKey(tt.in); got != tt.want {
				t.Errorf("numericKey(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}
