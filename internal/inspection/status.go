package inspection

import "strings"

// Status is the inspection result recorded for one slot.
type Status string

const (
	// StatusNone means the slot has not been checked.
	StatusNone  Status = ""
	StatusOK    Status = "OK"
	StatusIssue Status = "ISSUE"
)

// ParseStatus parses a status case-insensitively. The empty string is valid
// and means "not checked".
func ParseStatus(s string) (Status, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "":
		return StatusNone, true
	case "OK":
		return StatusOK, true
	case "ISSUE":
		return StatusIssue, true
	default:
		return StatusNone, false
	}
}

// Valid reports whether s is one of the defined statuses.
func (s Status) Valid() bool {
	return s == StatusNone || s == StatusOK || s == StatusIssue
}

// Label is the human-readable form of s.
func (s Status) Label() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusIssue:
		return "Issue"
	case StatusNone:
		return "Not checked"
	default:
		return string(s)
	}
}

// Completion summarises how much of a room has been checked.
type Completion int

const (
	NotChecked Completion = iota
	Partial
	Full
)

func (c Completion) String() string {
	switch c {
	case Partial:
		return "PARTIAL"
	case Full:
		return "FULL"
	default:
		return "NOT_CHECKED"
	}
}

// Label is the human-readable form of c.
func (c Completion) Label() string {
	switch c {
	case Partial:
		return "Partially Checked"
	case Full:
		return "Fully Checked"
	default:
		return "Not Checked"
	}
}
