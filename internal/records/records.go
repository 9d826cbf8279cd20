// Package records persists inspection state as CSV.
//
// Every file starts with the header Room,Item,Index,Status,Notes followed by
// one row per slot that has a status. Rows are written in room, item type,
// index order so an unchanged state always produces identical bytes.
package records

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ieslh/buildcheck/internal/inspection"
)

// Header is the column layout of every record file.
var Header = []string{"Room", "Item", "Index", "Status", "Notes"}

var (
	// ErrMissingHeader reports a file whose first row is not Header.
	ErrMissingHeader = errors.New("missing or invalid header row")
)

// Record is one persisted slot.
type Record struct {
	Room   string
	Item   string
	Index  int
	Status inspection.Status
	Notes  string
}

func (r Record) fields() []string {
	return []string{r.Room, r.Item, strconv.Itoa(r.Index), string(r.Status), r.Notes}
}

// Rows returns the records for every slot of state with a status.
func Rows(state *inspection.State) []Record {
	var out []Record
	state.Walk(func(room, item string, index int, slot inspection.Slot) {
		if slot.Status == inspection.StatusNone {
			return
		}
		out = append(out, Record{Room: room, Item: item, Index: index, Status: slot.Status, Notes: slot.Notes})
	})
	return out
}

// Encode writes the header and recs as CSV.
func Encode(w io.Writer, recs []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, rec := range recs {
		if err := cw.Write(rec.fields()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Marshal encodes recs into a byte slice.
func Marshal(recs []Record) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, recs); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RowError describes a data row that could not be applied.
type RowError struct {
	Line   int
	Fields []string
	Reason string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %s: %q", e.Line, e.Reason, strings.Join(e.Fields, ","))
}

// Decoder reads records one row at a time.
type Decoder struct {
	cr     *csv.Reader
	header bool
}

// NewDecoder returns a Decoder reading CSV from r.
func NewDecoder(r io.Reader) *Decoder {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	return &Decoder{cr: cr}
}

// Next returns the next record. A row that cannot be turned into a Record
// yields a *RowError and the caller may keep reading. io.EOF ends the
// stream. The first call validates the header and returns ErrMissingHeader
// when it does not match.
func (d *Decoder) Next() (Record, error) {
	if !d.header {
		row, err := d.cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return Record{}, fmt.Errorf("%w: file is empty", ErrMissingHeader)
			}
			return Record{}, fmt.Errorf("%w: %v", ErrMissingHeader, err)
		}
		if !isHeader(row) {
			return Record{}, fmt.Errorf("%w: got %q", ErrMissingHeader, strings.Join(row, ","))
		}
		d.header = true
	}

	row, err := d.cr.Read()
	if err != nil {
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			return Record{}, &RowError{Line: perr.StartLine, Reason: perr.Err.Error()}
		}
		return Record{}, err
	}
	line, _ := d.cr.FieldPos(0)
	return parseRow(row, line)
}

func isHeader(row []string) bool {
	if len(row) < len(Header) {
		return false
	}
	for i, name := range Header {
		field := strings.TrimSpace(row[i])
		if i == 0 {
			field = strings.TrimPrefix(field, "\ufeff")
		}
		if !strings.EqualFold(field, name) {
			return false
		}
	}
	return true
}

func parseRow(row []string, line int) (Record, error) {
	if len(row) != len(Header) {
		return Record{}, &RowError{Line: line, Fields: row, Reason: fmt.Sprintf("expected %d fields, got %d", len(Header), len(row))}
	}
	index, err := strconv.Atoi(strings.TrimSpace(row[2]))
	if err != nil {
		return Record{}, &RowError{Line: line, Fields: row, Reason: "index is not an integer"}
	}
	status, ok := inspection.ParseStatus(row[3])
	if !ok {
		return Record{}, &RowError{Line: line, Fields: row, Reason: "unknown status"}
	}
	return Record{Room: row[0], Item: row[1], Index: index, Status: status, Notes: row[4]}, nil
}
