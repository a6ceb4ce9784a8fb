package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/npratt/statediagram/internal/config"
	"github.com/npratt/statediagram/internal/diagram"
)

// Layout size constants.
const (
	// minWidth is the minimum terminal width for the full view.
	minWidth = 40
	// minHeight is the minimum terminal height for the full view.
	minHeight = 10
	// headerLines is the number of lines used by the tab bar and divider.
	headerLines = 2
)

// model is the bubbletea model for the TUI.
type model struct {
	ctx        context.Context
	manager    *diagram.Manager
	containers []config.ContainerConfig
	refresh    time.Duration
	onQuit     func()

	// Panes, one per bound diagram, in binding order
	panes  []DiagramPane
	active int

	keys     keyMap
	help     help.Model
	spinner  spinner.Model
	spinning bool
	scanning bool
	modal    *DetailModal
	palette  map[string]lipgloss.Style

	width  int
	height int
}

func newModel(
	ctx context.Context,
	manager *diagram.Manager,
	containers []config.ContainerConfig,
	refresh time.Duration,
	onQuit func(),
) model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	width, height := terminalSize()

	return model{
		ctx:        ctx,
		manager:    manager,
		containers: containers,
		refresh:    refresh,
		onQuit:     onQuit,
		keys:       defaultKeyMap(),
		help:       help.New(),
		spinner:    sp,
		spinning:   true,
		scanning:   true,
		modal:      NewDetailModal(ctx),
		palette:    gridPalette(),
		width:      width,
		height:     height,
	}
}

// Init implements tea.Model. It scans the containers, starts the spinner and
// schedules the first periodic refresh.
func (m model) Init() tea.Cmd {
	return tea.Batch(
		scanCmd(m.ctx, m.manager, m.containers),
		m.spinner.Tick,
		refreshTick(m.refresh),
	)
}

// syncPanes adds a pane for every diagram bound since the last call.
func (m *model) syncPanes() {
	diagrams := m.manager.Diagrams()
	for _, d := range diagrams[len(m.panes):] {
		p := NewDiagramPane(m.ctx, d, m.palette)
		w, h := m.paneSize()
		p.SetSize(w, h)
		m.panes = append(m.panes, p)
	}
}

// updatePaneSizes resizes every pane to the space left by header and help.
func (m *model) updatePaneSizes() {
	m.help.Width = m.width
	w, h := m.paneSize()
	for i := range m.panes {
		m.panes[i].SetSize(w, h)
	}
}

func (m model) paneSize() (int, int) {
	footer := lipgloss.Height(m.help.View(m.keys))
	return m.width, m.height - headerLines - footer
}

// paneIndex returns the index of the pane showing the given diagram key.
func (m model) paneIndex(key string) int {
	for i := range m.panes {
		if m.panes[i].Key() == key {
			return i
		}
	}
	return -1
}

// activePane returns the focused pane, or nil when there is none.
func (m *model) activePane() *DiagramPane {
	if m.active < 0 || m.active >= len(m.panes) {
		return nil
	}
	return &m.panes[m.active]
}

// busy reports whether anything is loading and the spinner should run.
func (m model) busy() bool {
	if m.scanning || m.manager.Constructing() {
		return true
	}
	for i := range m.panes {
		if m.panes[i].IsBusy() {
			return true
		}
	}
	return false
}

// startSpinner restarts the spinner tick chain if it stopped.
func (m *model) startSpinner() tea.Cmd {
	if m.spinning {
		return nil
	}
	m.spinning = true
	return m.spinner.Tick
}
