// Package ui provides the interactive terminal interface.
package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ieslh/buildcheck/internal/inspection"
	"github.com/ieslh/buildcheck/internal/session"
)

// RunTUI starts the TUI over mgr and blocks until the user quits.
func RunTUI(ctx context.Context, mgr *session.Manager) error {
	if !IsTTY(os.Stdout) {
		return fmt.Errorf("tui requires a TTY")
	}
	model := newTUIModel(ctx, mgr)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}

type screen int

const (
	screenHome screen = iota
	screenFloors
	screenRooms
	screenRoom
)

var homeChoices = []string{"Start new check", "Resume previous check"}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	cursorStyle  = lipgloss.NewStyle().Bold(true)
	noticeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	notCheckedFg = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	partialFg    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	fullFg       = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
)

// slotRef points at one row of the room screen.
type slotRef struct {
	item  string
	name  string
	index int
}

type tuiModel struct {
	ctx    context.Context
	mgr    *session.Manager
	screen screen
	cursor int

	floor string
	room  string
	slots []slotRef

	editing bool
	draft   []rune

	notice   string
	showHelp bool
}

func newTUIModel(ctx context.Context, mgr *session.Manager) *tuiModel {
	if ctx == nil {
		ctx = context.Background()
	}
	return &tuiModel{ctx: ctx, mgr: mgr}
}

func (m *tuiModel) Init() tea.Cmd {
	return nil
}

func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	if m.editing {
		m.updateNotes(key)
		return m, nil
	}

	switch key.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "?":
		m.showHelp = !m.showHelp
		return m, nil
	case "up", "k":
		m.move(-1)
		return m, nil
	case "down", "j":
		m.move(1)
		return m, nil
	case "H":
		m.goHome()
		return m, nil
	case "esc", "b":
		m.back()
		return m, nil
	}

	switch m.screen {
	case screenHome:
		m.updateHome(key)
	case screenFloors:
		if key.String() == "enter" {
			m.openFloor()
		}
	case screenRooms:
		if key.String() == "enter" {
			m.openRoom()
		}
	case screenRoom:
		m.updateRoom(key)
	}
	return m, nil
}

func (m *tuiModel) updateHome(key tea.KeyMsg) {
	choice := -1
	switch key.String() {
	case "enter":
		choice = m.cursor
	case "n":
		choice = 0
	case "r":
		choice = 1
	}
	switch choice {
	case 0:
		if _, err := m.mgr.NewCheck(m.ctx); err != nil {
			m.notice = "Could not start a new check: " + err.Error()
			return
		}
		m.notice = ""
		m.show(screenFloors)
	case 1:
		_, err := m.mgr.Resume(m.ctx)
		if errors.Is(err, session.ErrNoPreviousCheck) {
			m.notice = "No previous check found"
			return
		}
		if err != nil {
			m.notice = "Could not resume: " + err.Error()
			return
		}
		m.notice = ""
		m.show(screenFloors)
	}
}

func (m *tuiModel) updateRoom(key tea.KeyMsg) {
	if len(m.slots) == 0 {
		return
	}
	ref := m.slots[m.cursor]
	switch key.String() {
	case "o":
		m.setStatus(ref, inspection.StatusOK)
	case "i":
		m.setStatus(ref, inspection.StatusIssue)
	case "c":
		m.setStatus(ref, inspection.StatusNone)
	case "n", "enter":
		slot, _ := m.mgr.State().Slot(m.room, ref.item, ref.index)
		m.draft = []rune(slot.Notes)
		m.editing = true
	}
}

func (m *tuiModel) updateNotes(key tea.KeyMsg) {
	switch key.Type {
	case tea.KeyEnter:
		ref := m.slots[m.cursor]
		res, err := m.mgr.SetNotes(m.ctx, m.room, ref.item, ref.index, string(m.draft))
		m.report(res, err)
		m.editing = false
	case tea.KeyEsc:
		m.editing = false
	case tea.KeyCtrlC:
		m.editing = false
	case tea.KeyBackspace:
		if len(m.draft) > 0 {
			m.draft = m.draft[:len(m.draft)-1]
		}
	case tea.KeySpace:
		m.draft = append(m.draft, ' ')
	case tea.KeyRunes:
		m.draft = append(m.draft, key.Runes...)
	}
}

func (m *tuiModel) setStatus(ref slotRef, status inspection.Status) {
	res, err := m.mgr.SetStatus(m.ctx, m.room, ref.item, ref.index, status)
	m.report(res, err)
}

func (m *tuiModel) report(res session.Result, err error) {
	switch {
	case err != nil:
		m.notice = err.Error()
	case res.SaveErr != nil:
		m.notice = "Save failed: " + res.SaveErr.Error()
	case res.Hook != nil && res.Hook.ExitCode != 0:
		m.notice = fmt.Sprintf("Saved; post-save hook exited %d", res.Hook.ExitCode)
	case res.Saved:
		m.notice = ""
	}
}

func (m *tuiModel) move(delta int) {
	n := m.rows()
	if n == 0 {
		return
	}
	m.cursor = (m.cursor + delta + n) % n
}

func (m *tuiModel) rows() int {
	switch m.screen {
	case screenHome:
		return len(homeChoices)
	case screenFloors:
		return len(m.mgr.Floors())
	case screenRooms:
		return len(m.mgr.Topology().Rooms(m.floor))
	case screenRoom:
		return len(m.slots)
	}
	return 0
}

func (m *tuiModel) show(s screen) {
	m.screen = s
	m.cursor = 0
}

func (m *tuiModel) goHome() {
	m.notice = ""
	m.show(screenHome)
}

func (m *tuiModel) back() {
	m.notice = ""
	switch m.screen {
	case screenRoom:
		m.show(screenRooms)
		m.cursor = indexOf(m.mgr.Topology().Rooms(m.floor), m.room)
	case screenRooms:
		m.show(screenFloors)
		m.cursor = indexOf(m.mgr.Floors(), m.floor)
	case screenFloors:
		m.show(screenHome)
	}
}

func (m *tuiModel) openFloor() {
	floors := m.mgr.Floors()
	if len(floors) == 0 {
		return
	}
	m.floor = floors[m.cursor]
	m.show(screenRooms)
}

func (m *tuiModel) openRoom() {
	rooms := m.mgr.Topology().Rooms(m.floor)
	if len(rooms) == 0 {
		return
	}
	m.room = rooms[m.cursor]
	view, err := m.mgr.Room(m.room)
	if err != nil {
		m.notice = err.Error()
		return
	}
	m.slots = m.slots[:0]
	for _, item := range view.Items {
		for i := range item.Slots {
			m.slots = append(m.slots, slotRef{item: item.Key, name: item.Name, index: i})
		}
	}
	m.show(screenRoom)
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return 0
}

func (m *tuiModel) View() string {
	var b strings.Builder
	writeTitle(&b)

	if m.showHelp {
		writeHelp(&b)
		writeFooter(&b, m.screen)
		return b.String()
	}

	switch m.screen {
	case screenHome:
		m.writeHome(&b)
	case screenFloors:
		m.writeFloors(&b)
	case screenRooms:
		m.writeRooms(&b)
	case screenRoom:
		m.writeRoom(&b)
	}

	if m.notice != "" {
		b.WriteString(noticeStyle.Render(m.notice) + "\n\n")
	}
	writeFooter(&b, m.screen)
	return b.String()
}

func writeTitle(b *strings.Builder) {
	title := "Building Check"
	b.WriteString(titleStyle.Render(title) + "\n")
	b.WriteString(strings.Repeat("=", len(title)) + "\n\n")
}

func (m *tuiModel) writeHome(b *strings.Builder) {
	for i, choice := range homeChoices {
		b.WriteString(m.line(i, choice))
	}
	b.WriteString("\n")
}

func (m *tuiModel) writeFloors(b *strings.Builder) {
	b.WriteString("Select a floor\n\n")
	floors := m.mgr.Floors()
	if len(floors) == 0 {
		b.WriteString("  No floors in the building layout.\n\n")
		return
	}
	for i, id := range floors {
		label := "Floor " + id
		if view, err := m.mgr.Floor(id); err == nil {
			label += fmt.Sprintf("  (%d rooms)", len(view.Rooms))
		}
		b.WriteString(m.line(i, label))
	}
	if counts, err := m.mgr.Counts(); err == nil {
		b.WriteString(fmt.Sprintf("\n  OK: %d  Issue: %d  Not checked: %d\n", counts.OK, counts.Issue, counts.Unchecked))
	}
	b.WriteString("\n")
}

func (m *tuiModel) writeRooms(b *strings.Builder) {
	b.WriteString("Floor " + m.floor + "\n\n")
	view, err := m.mgr.Floor(m.floor)
	if err != nil {
		b.WriteString("  " + err.Error() + "\n\n")
		return
	}
	for i, room := range view.Rooms {
		label := fmt.Sprintf("%s: %s", room.Name, completionStyle(room.Completion).Render(room.Completion.Label()))
		b.WriteString(m.line(i, label))
	}
	b.WriteString("\n")
}

func (m *tuiModel) writeRoom(b *strings.Builder) {
	view, err := m.mgr.Room(m.room)
	if err != nil {
		b.WriteString("  " + err.Error() + "\n\n")
		return
	}
	b.WriteString(fmt.Sprintf("%s (Floor %s): %s\n\n", view.Name, view.Floor,
		completionStyle(view.Completion).Render(view.Completion.Label())))

	for i, ref := range m.slots {
		slot, _ := m.mgr.State().Slot(m.room, ref.item, ref.index)
		label := fmt.Sprintf("%s %d: %s", ref.name, ref.index+1, slot.Status.Label())
		if slot.Notes != "" {
			label += "  - " + slot.Notes
		}
		b.WriteString(m.line(i, label))
	}
	b.WriteString("\n")

	if m.editing {
		b.WriteString("Notes: " + string(m.draft) + "_\n")
		b.WriteString("enter save | esc cancel\n\n")
	}
}

func (m *tuiModel) line(i int, label string) string {
	if i == m.cursor {
		return cursorStyle.Render("> "+label) + "\n"
	}
	return "  " + label + "\n"
}

func completionStyle(c inspection.Completion) lipgloss.Style {
	switch c {
	case inspection.Full:
		return fullFg
	case inspection.Partial:
		return partialFg
	default:
		return notCheckedFg
	}
}

func writeHelp(b *strings.Builder) {
	b.WriteString("Keyboard Shortcuts\n\n")
	b.WriteString("  up/k, down/j  Move\n")
	b.WriteString("  enter         Select\n")
	b.WriteString("  n, r          New check / resume (home)\n")
	b.WriteString("  o, i, c       Mark OK / Issue / clear (room)\n")
	b.WriteString("  n             Edit notes (room)\n")
	b.WriteString("  esc, b        Back\n")
	b.WriteString("  H             Home\n")
	b.WriteString("  ?             Toggle this help screen\n")
	b.WriteString("  q, ctrl+c     Quit\n\n")
}

func writeFooter(b *strings.Builder, s screen) {
	switch s {
	case screenRoom:
		b.WriteString("o ok | i issue | c clear | n notes | b back | H home | q quit\n")
	case screenHome:
		b.WriteString("enter select | ? help | q quit\n")
	default:
		b.WriteString("enter open | b back | H home | ? help | q quit\n")
	}
}

// IsTTY returns true if w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
