package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/npratt/statediagram/internal/diagram"
)

// View implements tea.Model. It renders the tab bar, the focused diagram or
// the detail window, and the help line.
func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}
	if m.width < minWidth || m.height < minHeight {
		return m.renderTooSmall()
	}

	_, bodyHeight := m.paneSize()

	var body string
	switch p := m.activePane(); {
	case m.modal.IsOpen():
		body = m.modal.View(m.width, bodyHeight)
	case p != nil:
		body = p.View(m.spinner.View())
	case m.scanning:
		body = m.spinner.View() + " Binding diagrams..."
	default:
		body = styles.Muted.Render("No diagrams configured. Set a data-uri or a containers list.")
	}
	body = lipgloss.NewStyle().Height(bodyHeight).MaxHeight(bodyHeight).Render(body)

	return strings.Join([]string{
		m.renderHeader(),
		m.renderDivider(),
		body,
		m.help.View(m.keys),
	}, "\n")
}

// renderHeader renders one tab per diagram and the construction indicator.
func (m model) renderHeader() string {
	tabs := []string{styles.Title.Render("statediagram")}
	for i := range m.panes {
		d := m.panes[i].diagram
		label := d.Name()
		if d.State() == diagram.StateEmpty {
			label += " (empty)"
		}
		if i == m.active {
			tabs = append(tabs, styles.ActiveTab.Render(label))
		} else {
			tabs = append(tabs, styles.InactiveTab.Render(label))
		}
	}
	header := strings.Join(tabs, "  ")

	if m.manager.Constructing() {
		header += "  " + m.spinner.View() + styles.Stats.Render(" constructing")
	}
	return lipgloss.NewStyle().MaxWidth(m.width).Render(header)
}

func (m model) renderDivider() string {
	return styles.Divider.Render(strings.Repeat("─", safeWidth(m.width)))
}

func (m model) renderTooSmall() string {
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
		styles.Error.Render("Terminal too small"))
}

// safeWidth ensures width is at least 1.
func safeWidth(w int) int {
	if w < 1 {
		return 1
	}
	return w
}

// truncateString shortens s to at most width cells, ending in an ellipsis
// when cut.
func truncateString(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}
