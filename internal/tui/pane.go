package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/npratt/statediagram/internal/diagram"
	"github.com/npratt/statediagram/internal/placement"
)

// opTimeout bounds a single refresh or toggle.
const opTimeout = 30 * time.Second

// paneOp is a background operation on a pane's diagram.
type paneOp int

const (
	opRefresh paneOp = iota
	opToggle
)

// paneStartMsg signals the start of a pane operation.
type paneStartMsg struct {
	key       string
	requestID int
	op        paneOp
	jobID     string
}

// paneResultMsg carries the result of a pane operation.
type paneResultMsg struct {
	key       string
	requestID int
	op        paneOp
	jobID     string
	expanded  bool
	err       error
}

// DiagramPane shows one diagram in a scrollable viewport and tracks the
// selected job.
type DiagramPane struct {
	ctx       context.Context
	diagram   *diagram.Diagram
	palette   map[string]lipgloss.Style
	viewport  viewport.Model
	selected  string
	busy      bool
	op        paneOp
	startedAt time.Time
	errorMsg  string
	width     int
	height    int
	requestID int // For staleness detection
}

// NewDiagramPane creates a pane for d.
func NewDiagramPane(ctx context.Context, d *diagram.Diagram, palette map[string]lipgloss.Style) DiagramPane {
	return DiagramPane{
		ctx:      ctx,
		diagram:  d,
		palette:  palette,
		viewport: viewport.New(0, 0),
	}
}

// Key returns the bound container key of the pane's diagram.
func (p DiagramPane) Key() string {
	return p.diagram.Name()
}

// Update handles pane operation messages.
func (p DiagramPane) Update(msg tea.Msg) (DiagramPane, tea.Cmd) {
	switch msg := msg.(type) {
	case paneStartMsg:
		p.requestID = msg.requestID
		p.busy = true
		p.op = msg.op
		p.startedAt = time.Now()
		return p, p.runCmd(msg)

	case paneResultMsg:
		// Drop stale results
		if msg.requestID != p.requestID {
			return p, nil
		}
		p.busy = false
		if msg.err != nil {
			p.errorMsg = msg.err.Error()
		} else {
			p.errorMsg = ""
		}
		p.Render()
		return p, nil
	}
	return p, nil
}

// startCmd returns a command beginning op. The request id is recorded when
// the start message is handled, before the work is launched, so a fast
// result is never dropped as stale.
func (p DiagramPane) startCmd(op paneOp, jobID string) tea.Cmd {
	if p.busy {
		return nil
	}
	msg := paneStartMsg{key: p.Key(), requestID: p.requestID + 1, op: op, jobID: jobID}
	return func() tea.Msg { return msg }
}

// RefreshCmd rebuilds the diagram from its first page.
func (p DiagramPane) RefreshCmd() tea.Cmd {
	return p.startCmd(opRefresh, "")
}

// ToggleCmd opens or closes the selected box. It does nothing when the
// selection is a simple job.
func (p DiagramPane) ToggleCmd() tea.Cmd {
	if p.selected == "" {
		return nil
	}
	rec, _, ok := p.diagram.Job(p.selected)
	if !ok || !rec.IsBox() {
		return nil
	}
	return p.startCmd(opToggle, p.selected)
}

func (p DiagramPane) runCmd(start paneStartMsg) tea.Cmd {
	d := p.diagram
	ctx := p.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, opTimeout)
		defer cancel()

		res := paneResultMsg{key: start.key, requestID: start.requestID, op: start.op, jobID: start.jobID}
		switch start.op {
		case opRefresh:
			res.err = d.Refresh(ctx)
		case opToggle:
			res.expanded, res.err = d.Toggle(ctx, start.jobID)
		}
		return res
	}
}

// Render redraws the diagram into the viewport.
func (p *DiagramPane) Render() {
	p.syncSelection()
	g := p.diagram.Frame(p.selected)
	if g == nil {
		p.viewport.SetContent("")
		return
	}
	g.SetPalette(p.palette)
	p.viewport.SetContent(g.String())
}

// syncSelection keeps the selection on a visible job, falling back to the
// first job in reading order.
func (p *DiagramPane) syncSelection() {
	order := p.diagram.Order()
	if len(order) == 0 {
		p.selected = ""
		return
	}
	for _, id := range order {
		if id == p.selected {
			return
		}
	}
	p.selected = order[0]
}

// SelectNext moves the selection forward in reading order.
func (p *DiagramPane) SelectNext() { p.step(1) }

// SelectPrev moves the selection backward in reading order.
func (p *DiagramPane) SelectPrev() { p.step(-1) }

func (p *DiagramPane) step(delta int) {
	order := p.diagram.Order()
	if len(order) == 0 {
		return
	}
	i := indexOf(order, p.selected) + delta
	if i < 0 {
		i = 0
	}
	if i >= len(order) {
		i = len(order) - 1
	}
	p.selected = order[i]
	p.Render()
	p.ensureVisible()
}

// SelectUp moves to the nearest tile on the closest row above.
func (p *DiagramPane) SelectUp() { p.vertical(-1) }

// SelectDown moves to the nearest tile on the closest row below.
func (p *DiagramPane) SelectDown() { p.vertical(1) }

func (p *DiagramPane) vertical(dir int) {
	cur, ok := p.diagram.Tile(p.selected)
	if !ok {
		p.step(0)
		return
	}

	best := ""
	bestRow, bestDist := 0, 0
	for _, id := range p.diagram.Order() {
		t, ok := p.diagram.Tile(id)
		if !ok || id == p.selected {
			continue
		}
		rowDist := (t.Rect.Top - cur.Rect.Top) * dir
		if rowDist <= 0 {
			continue
		}
		dist := abs(t.Rect.CenterX() - cur.Rect.CenterX())
		if best == "" || rowDist < bestRow || (rowDist == bestRow && dist < bestDist) {
			best, bestRow, bestDist = id, rowDist, dist
		}
	}
	if best == "" {
		return
	}
	p.selected = best
	p.Render()
	p.ensureVisible()
}

// ensureVisible scrolls the viewport so the selected tile is on screen.
func (p *DiagramPane) ensureVisible() {
	t, ok := p.diagram.Tile(p.selected)
	if !ok || p.viewport.Height <= 0 {
		return
	}
	if t.Rect.Top < p.viewport.YOffset {
		p.viewport.SetYOffset(t.Rect.Top)
	} else if t.Rect.Bottom > p.viewport.YOffset+p.viewport.Height {
		p.viewport.SetYOffset(t.Rect.Bottom - p.viewport.Height)
	}
}

// Selected returns the selected job id.
func (p DiagramPane) Selected() string {
	return p.selected
}

// IsBusy returns true if a refresh or toggle is in flight.
func (p DiagramPane) IsBusy() bool {
	return p.busy
}

// SetSize updates the pane dimensions and widens the diagram to fill them.
func (p *DiagramPane) SetSize(width, height int) {
	p.width = width
	p.height = height
	p.viewport.Width = safeWidth(width)
	p.viewport.Height = safeHeight(height - 1)
	p.diagram.Resize(width)
	p.Render()
}

// View renders the status bar and the diagram. spin is the current spinner
// frame.
func (p DiagramPane) View(spin string) string {
	if p.width == 0 || p.height == 0 {
		return ""
	}
	status := p.renderStatusBar(p.width, spin)

	switch p.diagram.State() {
	case diagram.StateIdle, diagram.StateLoading:
		body := lipgloss.NewStyle().
			Width(p.width).
			Height(safeHeight(p.height - 1)).
			Render(spin + " Loading jobs...")
		return status + "\n" + body
	}
	return status + "\n" + p.viewport.View()
}

// renderStatusBar renders state, counts and any in-flight operation.
func (p DiagramPane) renderStatusBar(width int, spin string) string {
	if p.busy {
		elapsed := time.Since(p.startedAt).Round(100 * time.Millisecond)
		action := "Refreshing"
		if p.op == opToggle {
			action = "Toggling " + p.selected
		}
		return styles.Spinner.Width(width).Render(spin + " " + action + "... (" + elapsed.String() + " elapsed)")
	}

	if p.errorMsg != "" {
		return styles.Error.Width(width).Render("Error: " + truncateString(p.errorMsg, width-7))
	}

	jobs, fetches := p.diagram.Stats()
	parts := []string{
		p.diagram.State().String(),
		pluralize(jobs, "job", "jobs"),
		pluralize(fetches, "fetch", "fetches"),
	}
	if rec, expanded, ok := p.diagram.Job(p.selected); ok {
		sel := placement.StateIcon(rec.StateName) + " " + rec.Name
		if rec.IsBox() {
			if expanded {
				sel = placement.GlyphExpanded + " " + sel
			} else {
				sel = placement.GlyphCollapsed + " " + sel
			}
		}
		parts = append(parts, sel)
	}
	return styles.Footer.Width(width).Render(truncateString(strings.Join(parts, " | "), width))
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func pluralize(n int, singular, plural string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, singular)
	}
	return fmt.Sprintf("%d %s", n, plural)
}

// safeHeight ensures height is at least 1.
func safeHeight(h int) int {
	if h < 1 {
		return 1
	}
	return h
}
