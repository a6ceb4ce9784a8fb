package tui

import (
	"context"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/npratt/statediagram/internal/config"
	"github.com/npratt/statediagram/internal/diagram"
)

// scanDoneMsg signals that the container scan has finished.
type scanDoneMsg struct {
	created int
}

// refreshTickMsg signals a periodic refresh of every live diagram.
type refreshTickMsg time.Time

// scanCmd binds and builds the containers in the background.
func scanCmd(ctx context.Context, manager *diagram.Manager, containers []config.ContainerConfig) tea.Cmd {
	return func() tea.Msg {
		created := manager.Scan(ctx, containers)
		return scanDoneMsg{created: len(created)}
	}
}

// refreshTick schedules the next periodic refresh. A zero interval
// disables it.
func refreshTick(interval time.Duration) tea.Cmd {
	if interval <= 0 {
		return nil
	}
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return refreshTickMsg(t)
	})
}

// Update implements tea.Model. It handles all message types and updates the model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updatePaneSizes()
		return m, nil

	case scanDoneMsg:
		m.scanning = false
		m.syncPanes()
		m.renderPanes()
		slog.Debug("scan finished", "created", msg.created, "diagrams", len(m.panes))
		return m, nil

	case spinner.TickMsg:
		m.syncPanes()
		m.renderPanes()
		if !m.busy() {
			m.spinning = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case refreshTickMsg:
		cmds := []tea.Cmd{refreshTick(m.refresh)}
		for i := range m.panes {
			if m.panes[i].diagram.State() != diagram.StateLive {
				continue
			}
			if cmd := m.panes[i].RefreshCmd(); cmd != nil {
				cmds = append(cmds, cmd)
			}
		}
		return m, tea.Batch(cmds...)

	case paneStartMsg:
		i := m.paneIndex(msg.key)
		if i < 0 {
			return m, nil
		}
		var cmd tea.Cmd
		m.panes[i], cmd = m.panes[i].Update(msg)
		return m, tea.Batch(cmd, m.startSpinner())

	case paneResultMsg:
		i := m.paneIndex(msg.key)
		if i < 0 {
			return m, nil
		}
		if msg.err != nil {
			slog.Warn("diagram operation failed", "diagram", msg.key, "job", msg.jobID, "error", msg.err)
		}
		var cmd tea.Cmd
		m.panes[i], cmd = m.panes[i].Update(msg)
		return m, cmd

	case modalPrefsMsg:
		return m, m.modal.Update(msg)
	}

	return m, nil
}

// handleKey processes keyboard input and returns the updated model and command.
func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// ctrl+c always quits, even with the detail window open
	if msg.String() == "ctrl+c" {
		return m.quit()
	}

	if m.modal.IsOpen() {
		return m, m.modal.Update(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.updatePaneSizes()
		return m, nil

	case key.Matches(msg, m.keys.NextTab):
		if len(m.panes) > 0 {
			m.active = (m.active + 1) % len(m.panes)
		}
		return m, nil

	case key.Matches(msg, m.keys.PrevTab):
		if len(m.panes) > 0 {
			m.active = (m.active - 1 + len(m.panes)) % len(m.panes)
		}
		return m, nil
	}

	p := m.activePane()
	if p == nil {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		p.SelectUp()
	case key.Matches(msg, m.keys.Down):
		p.SelectDown()
	case key.Matches(msg, m.keys.Left):
		p.SelectPrev()
	case key.Matches(msg, m.keys.Right):
		p.SelectNext()
	case key.Matches(msg, m.keys.Toggle):
		return m, p.ToggleCmd()
	case key.Matches(msg, m.keys.Refresh):
		return m, p.RefreshCmd()
	case key.Matches(msg, m.keys.Detail):
		if p.Selected() != "" {
			return m, m.modal.Open(p.diagram, p.Selected())
		}
	}
	return m, nil
}

func (m model) quit() (tea.Model, tea.Cmd) {
	if m.onQuit != nil {
		m.onQuit()
	}
	return m, tea.Quit
}

// renderPanes redraws every pane whose diagram may have changed.
func (m *model) renderPanes() {
	for i := range m.panes {
		m.panes[i].Render()
	}
}
