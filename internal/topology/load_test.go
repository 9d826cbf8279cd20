package topology

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFormats(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"json", "floors.json", `{"1": {"Room 101": {"Window": 2, "Door": 1}}, "2": {"Room 201": {"Door": 1}}}`},
		{"yaml", "floors.yaml", "\"1\":\n  Room 101:\n    Window: 2\n    Door: 1\n\"2\":\n  Room 201:\n    Door: 1\n"},
		{"yml", "floors.yml", "\"1\":\n  Room 101: {Window: 2, Door: 1}\n\"2\":\n  Room 201: {Door: 1}\n"},
		{"toml", "floors.toml", "[1.\"Room 101\"]\nWindow = 2\nDoor = 1\n\n[2.\"Room 201\"]\nDoor = 1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), tt.file, tt.content)
			topo, err := Load(path, Options{})
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if got := strings.Join(topo.Floors(), ","); got != "1,2" {
				t.Errorf("Floors = %s", got)
			}
			floors, rooms, slots := topo.Stats()
			if floors != 2 || rooms != 2 || slots != 4 {
				t.Errorf("Stats = %d/%d/%d, want 2/2/4", floors, rooms, slots)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	var buf bytes.Buffer
	topo, err := Load(filepath.Join(t.TempDir(), "floors.json"), Options{Logger: log.New(&buf)})
	if !errors.Is(err, ErrMissing) {
		t.Fatalf("err = %v, want ErrMissing", err)
	}
	if !topo.Empty() {
		t.Error("missing file should yield an empty topology")
	}
	if !strings.Contains(buf.String(), "topology file not found") {
		t.Errorf("log = %q", buf.String())
	}
}

func TestLoadMalformed(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    string
	}{
		{"bad json", "floors.json", `{"1": {"A": `, "parse json"},
		{"bad yaml", "floors.yaml", "1: [unclosed", "parse yaml"},
		{"bad toml", "floors.toml", "[1\nx=", "parse toml"},
		{"zero count", "floors.json", `{"1": {"A": {"Door": 0}}}`, "1.A.Door"},
		{"string count", "floors.json", `{"1": {"A": {"Door": "two"}}}`, "1.A.Door"},
		{"huge count", "floors.json", `{"1": {"A": {"Window": 10000000000}}}`, "1.A.Window"},
		{"fractional count", "floors.json", `{"1": {"A": {"Door": 1.5}}}`, "1.A.Door"},
		{"rooms not object", "floors.json", `{"1": ["A", "B"]}`, ""},
		{"top level array", "floors.json", `[1, 2]`, ""},
		{"empty room name", "floors.json", `{"1": {"": {"Door": 1}}}`, ""},
		{"empty document", "floors.json", ``, "parse json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			path := writeFile(t, t.TempDir(), tt.file, tt.content)
			topo, err := Load(path, Options{Logger: log.New(&buf)})
			if !errors.Is(err, ErrMalformed) {
				t.Fatalf("err = %v, want ErrMalformed", err)
			}
			if !topo.Empty() {
				t.Error("malformed file should yield an empty topology")
			}
			if tt.want != "" && !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %q, want mention of %q", err, tt.want)
			}
			if !strings.Contains(buf.String(), "invalid topology") {
				t.Errorf("log = %q", buf.String())
			}
		})
	}
}

func TestLoadLogsDuplicates(t *testing.T) {
	var buf bytes.Buffer
	path := writeFile(t, t.TempDir(), "floors.json", `{"1": {"Hall": {"Door": 1}}, "2": {"Hall": {"Door": 2}}}`)
	topo, err := Load(path, Options{Logger: log.New(&buf)})
	if err != nil {
		t.Fatal(err)
	}
	if floor, _ := topo.FloorOf("Hall"); floor != "2" {
		t.Errorf("FloorOf(Hall) = %q, want 2", floor)
	}
	if !strings.Contains(buf.String(), "room listed on more than one floor") {
		t.Errorf("log = %q", buf.String())
	}
}

func TestLoadSchemaOverride(t *testing.T) {
	dir := t.TempDir()
	// Only allows a single floor named "G".
	schema := writeFile(t, dir, "strict.schema.json", `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "propertyNames": {"const": "G"}
}`)
	good := writeFile(t, dir, "good.json", `{"G": {"Lobby": {"Door": 1}}}`)
	bad := writeFile(t, dir, "bad.json", `{"1": {"Lobby": {"Door": 1}}}`)

	if _, err := Load(good, Options{SchemaPath: schema}); err != nil {
		t.Errorf("good topology rejected: %v", err)
	}
	if _, err := Load(bad, Options{SchemaPath: schema}); !errors.Is(err, ErrMalformed) {
		t.Errorf("bad topology err = %v, want ErrMalformed", err)
	}
}

func TestLoadCapsCountsUnderCustomSchema(t *testing.T) {
	dir := t.TempDir()
	schema := writeFile(t, dir, "open.schema.json", `{"type": "object"}`)
	path := writeFile(t, dir, "floors.json", `{"1": {"A": {"Window": 5000}}}`)

	topo, err := Load(path, Options{SchemaPath: schema})
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("err = %v, want ErrMalformed", err)
	}
	if !strings.Contains(err.Error(), "exceeds 1000") {
		t.Errorf("err = %q", err)
	}
	if !topo.Empty() {
		t.Error("oversized count should yield an empty topology")
	}
}

func TestLoadSchemaFallback(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "floors.json", `{"1": {"Lobby": {"Door": 1}}}`)
	broken := writeFile(t, dir, "broken.schema.json", `{"type": 12}`)

	tests := []struct {
		name   string
		schema string
		warn   string
	}{
		{"missing schema", filepath.Join(dir, "absent.json"), "schema file not found"},
		{"invalid schema", broken, "invalid schema file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			topo, err := Load(path, Options{SchemaPath: tt.schema, Logger: log.New(&buf)})
			if err != nil {
				t.Fatalf("Load should fall back to bundled schema: %v", err)
			}
			if topo.Empty() {
				t.Error("topology should load")
			}
			if !strings.Contains(buf.String(), tt.warn) {
				t.Errorf("log = %q, want %q", buf.String(), tt.warn)
			}
		})
	}
}

func TestFormatFor(t *testing.T) {
	tests := map[string]Format{
		"floors.json": FormatJSON,
		"floors.YAML": FormatYAML,
		"site.yml":    FormatYAML,
		"site.toml":   FormatTOML,
		"floors":      FormatJSON,
	}
	for path, want := range tests {
		if got := FormatFor(path); got != want {
			t.Errorf("FormatFor(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestPointerToPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"/1/Room 101/Window", "1.Room 101.Window"},
		{"/a~1b/c~0d", "a/b.c~d"},
		{"/1/101/Door", "1.101.Door"},
	}
	for _, tt := range tests {
		if got := pointerToPath(tt.in); got != tt.want {
			t.Errorf("pointerToPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBundledSchemaCompiles(t *testing.T) {
	result := Validate(map[string]any{}, "")
	if !result.Valid {
		t.Fatalf("empty object should validate: %v", result.Errors)
	}
	if result.Schema != "bundled" {
		t.Errorf("Schema = %q, want bundled", result.Schema)
	}
}
