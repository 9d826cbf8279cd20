package topology

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/goccy/go-yaml"
)

var (
	// ErrMissing reports that the topology file does not exist.
	ErrMissing = errors.New("topology file not found")
	// ErrMalformed reports that the topology file could not be decoded or
	// failed schema validation.
	ErrMalformed = errors.New("topology file malformed")
)

// Format is a topology file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// Options controls how a topology file is loaded.
type Options struct {
	// SchemaPath overrides the bundled JSON Schema. When empty, or when the
	// file cannot be compiled, the bundled schema is used.
	SchemaPath string
	// Logger receives load diagnostics. Nil discards them.
	Logger *log.Logger
}

// FormatFor picks the decoder for path by extension. Unknown extensions are
// treated as JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	default:
		return FormatJSON
	}
}

// Load reads the topology file at path. It never fails hard: on a missing
// or malformed file it logs the condition and returns an empty Topology
// together with an error wrapping ErrMissing or ErrMalformed, so callers
// may keep running with no floors.
func Load(path string, opts Options) (Topology, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Error("topology file not found", "path", path)
			return Topology{}, fmt.Errorf("%w: %s", ErrMissing, path)
		}
		logger.Error("read topology file", "path", path, "err", err)
		return Topology{}, fmt.Errorf("%w: read %s: %v", ErrMalformed, path, err)
	}

	floors, errs := Decode(data, FormatFor(path), opts.SchemaPath, logger)
	if len(errs) > 0 {
		for _, e := range errs {
			logger.Error("invalid topology", "path", path, "err", e)
		}
		return Topology{}, fmt.Errorf("%w: %s: %v", ErrMalformed, path, errors.Join(errs...))
	}

	t := New(floors)
	for _, room := range t.Duplicates() {
		floor, _ := t.FloorOf(room)
		logger.Warn("room listed on more than one floor", "room", room, "kept_floor", floor)
	}
	nFloors, nRooms, nSlots := t.Stats()
	logger.Info("loaded topology", "path", path, "floors", nFloors, "rooms", nRooms, "slots", nSlots)
	return t, nil
}

// Decode parses a topology document and validates it against the schema.
// It returns the decoded floor map or the list of problems found.
func Decode(data []byte, format Format, schemaPath string, logger *log.Logger) (map[string]map[string]map[string]int, []error) {
	var floors map[string]map[string]map[string]int

	var doc any
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &floors); err != nil {
			return nil, []error{fmt.Errorf("parse yaml: %w", err)}
		}
	case FormatTOML:
		if _, err := toml.Decode(string(data), &floors); err != nil {
			return nil, []error{fmt.Errorf("parse toml: %w", err)}
		}
	default:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, []error{fmt.Errorf("parse json: %w", err)}
		}
	}

	// The schema works on JSON values; re-encode typed YAML/TOML input so
	// every format goes through the same checks.
	if doc == nil {
		raw, err := json.Marshal(floors)
		if err != nil {
			return nil, []error{fmt.Errorf("encode for validation: %w", err)}
		}
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, []error{fmt.Errorf("decode for validation: %w", err)}
		}
	}

	result := Validate(doc, schemaPath)
	if logger != nil {
		for _, w := range result.Warnings {
			logger.Warn(w)
		}
	}
	if !result.Valid {
		return nil, result.Errors
	}

	if format == FormatJSON {
		if err := json.Unmarshal(data, &floors); err != nil {
			return nil, []error{fmt.Errorf("parse json: %w", err)}
		}
	}
	if floors == nil {
		floors = map[string]map[string]map[string]int{}
	}

	// A custom schema may not bound counts.
	var errs []error
	for floor, rooms := range floors {
		for room, items := range rooms {
			for name, count := range items {
				if count > MaxItemCount {
					errs = append(errs, fmt.Errorf("%s.%s.%s: count %d exceeds %d", floor, room, name, count, MaxItemCount))
				}
			}
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return floors, nil
}
