package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/npratt/statediagram/internal/diagram"
	"github.com/npratt/statediagram/internal/placement"
	"github.com/npratt/statediagram/internal/prefs"
)

// modalWidth is the fixed width of the detail window, border included.
const modalWidth = 48

// DetailModal shows a job's record in a movable window. Its position is
// shared by every job of a diagram and saved through the diagram's
// preference store.
type DetailModal struct {
	ctx       context.Context
	keys      modalKeyMap
	diagram   *diagram.Diagram
	jobID     string
	pos       prefs.Position
	placed    bool // pos holds a saved or user-chosen position
	moved     bool
	errorMsg  string
	open      bool
	requestID int // For staleness detection
}

// modalPrefsMsg carries the result of a preference load.
type modalPrefsMsg struct {
	pos       prefs.Position
	ok        bool
	err       error
	requestID int
}

// NewDetailModal creates a closed DetailModal.
func NewDetailModal(ctx context.Context) *DetailModal {
	return &DetailModal{
		ctx:  ctx,
		keys: defaultModalKeyMap(),
	}
}

// Open shows jobID of d and starts loading the saved window position.
func (m *DetailModal) Open(d *diagram.Diagram, jobID string) tea.Cmd {
	m.open = true
	m.diagram = d
	m.jobID = jobID
	m.errorMsg = ""
	m.moved = false
	m.pos, m.placed = d.Prefs().Position()
	m.requestID++

	reqID := m.requestID
	store := d.Prefs()
	ctx := m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		pos, ok, err := store.Load(ctx)
		return modalPrefsMsg{pos: pos, ok: ok, err: err, requestID: reqID}
	}
}

// Close closes the modal.
func (m *DetailModal) Close() {
	m.open = false
	m.diagram = nil
	m.jobID = ""
	m.errorMsg = ""
}

// IsOpen returns true if the modal is open.
func (m *DetailModal) IsOpen() bool {
	return m.open
}

// Position returns the window's top-left corner and whether it has been
// placed explicitly.
func (m *DetailModal) Position() (prefs.Position, bool) {
	return m.pos, m.placed
}

// Update handles messages for the modal.
func (m *DetailModal) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case modalPrefsMsg:
		// Drop stale results
		if msg.requestID != m.requestID {
			return nil
		}
		if msg.err != nil {
			m.errorMsg = msg.err.Error()
			return nil
		}
		// A move made while loading wins over the saved position.
		if msg.ok && !m.moved {
			m.pos = msg.pos
			m.placed = true
		}
		return nil
	}

	return nil
}

// handleKey processes keyboard input for the modal.
func (m *DetailModal) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Close):
		m.Close()
	case key.Matches(msg, m.keys.MoveUp):
		m.move(0, -1)
	case key.Matches(msg, m.keys.MoveDown):
		m.move(0, 1)
	case key.Matches(msg, m.keys.MoveLeft):
		m.move(-2, 0)
	case key.Matches(msg, m.keys.MoveRight):
		m.move(2, 0)
	}
	return nil
}

// move shifts the window and saves the new position.
func (m *DetailModal) move(dx, dy int) {
	if m.diagram == nil {
		return
	}
	m.pos.X = max(m.pos.X+dx, 0)
	m.pos.Y = max(m.pos.Y+dy, 0)
	m.placed = true
	m.moved = true
	m.diagram.Prefs().SetPosition(m.ctx, m.pos)
}

// View renders the window inside an area of the given size. Without a saved
// position the window is centred.
func (m *DetailModal) View(width, height int) string {
	if !m.open || m.diagram == nil {
		return ""
	}

	box := styles.Modal.Width(modalWidth - 2).Render(m.renderContent(modalWidth - 4))
	w, h := lipgloss.Width(box), lipgloss.Height(box)

	x, y := (width-w)/2, (height-h)/2
	if m.placed {
		x, y = m.pos.X, m.pos.Y
	}
	x = clamp(x, 0, width-w)
	y = clamp(y, 0, height-h)

	return lipgloss.NewStyle().
		MarginLeft(x).
		MarginTop(y).
		Render(box)
}

// renderContent renders the record fields of the open job.
func (m *DetailModal) renderContent(width int) string {
	rec, expanded, ok := m.diagram.Job(m.jobID)

	var sb strings.Builder
	title := "Job State"
	if ok && rec.IsBox() {
		title = "Box State"
	}
	sb.WriteString(styles.ModalTitle.Render(title))
	sb.WriteString("\n\n")

	if !ok {
		sb.WriteString(styles.Muted.Render("Job " + m.jobID + " is no longer in the diagram"))
		sb.WriteString("\n")
		return sb.String()
	}

	styledField := func(name, value string) {
		sb.WriteString(styles.ModalKey.Render(fmt.Sprintf("%-11s", name)) + value)
		sb.WriteString("\n")
	}
	field := func(name, value string) {
		styledField(name, truncateString(value, width-11))
	}

	field("Name", rec.Name)
	field("ID", rec.ID)
	field("Type", string(rec.Type))
	state := placement.StateIcon(rec.StateName) + " " + rec.StateName
	if color, ok := stateColors[rec.StateName]; ok {
		state = lipgloss.NewStyle().Foreground(color).Render(state)
	}
	styledField("State", state)
	if len(rec.DependsOn) > 0 {
		field("Depends on", strings.Join(rec.DependsOn, ", "))
	} else {
		field("Depends on", "none")
	}
	if rec.ParentID != "" {
		field("Box", rec.ParentID)
	}
	if rec.IsBox() {
		field("Path depth", fmt.Sprint(rec.PathDepth))
		if expanded {
			field("Open", "yes")
		} else {
			field("Open", "no")
		}
	}
	if rec.DetailURI != "" {
		field("Detail", rec.DetailURI)
	}

	if m.errorMsg != "" {
		sb.WriteString("\n")
		sb.WriteString(styles.Error.Render(truncateString("Preferences: "+m.errorMsg, width)))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(styles.Muted.Italic(true).Render("[Esc] close | [H/J/K/L] move"))
	return sb.String()
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	return min(max(v, lo), hi)
}
