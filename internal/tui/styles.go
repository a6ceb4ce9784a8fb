package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/npratt/statediagram/internal/edges"
	"github.com/npratt/statediagram/internal/placement"
)

// styles contains all lipgloss styles used by the TUI chrome.
var styles = struct {
	// Layout styles
	Container lipgloss.Style
	Divider   lipgloss.Style

	// Header styles
	Title       lipgloss.Style
	ActiveTab   lipgloss.Style
	InactiveTab lipgloss.Style
	Stats       lipgloss.Style

	// Footer style
	Footer lipgloss.Style

	Error   lipgloss.Style
	Spinner lipgloss.Style
	Muted   lipgloss.Style

	// Detail window
	Modal      lipgloss.Style
	ModalTitle lipgloss.Style
	ModalKey   lipgloss.Style
}{
	Container: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")),

	Divider: lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")),

	Title: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("212")),

	ActiveTab: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("39")).
		Underline(true),

	InactiveTab: lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")),

	Stats: lipgloss.NewStyle().
		Foreground(lipgloss.Color("220")),

	Footer: lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")),

	Error: lipgloss.NewStyle().
		Foreground(lipgloss.Color("196")),

	Spinner: lipgloss.NewStyle().
		Foreground(lipgloss.Color("205")),

	Muted: lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")),

	Modal: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("205")).
		Padding(0, 1),

	ModalTitle: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("205")),

	ModalKey: lipgloss.NewStyle().
		Bold(true),
}

// stateColors maps job states to the colours of their tile labels.
var stateColors = map[string]lipgloss.Color{
	"active":     lipgloss.Color("#ffffff"),
	"hold":       lipgloss.Color("#0000ff"),
	"failed":     lipgloss.Color("#b21818"),
	"finished":   lipgloss.Color("#9999ff"),
	"inactive":   lipgloss.Color("#cccc99"),
	"running":    lipgloss.Color("#00ff00"),
	"starting":   lipgloss.Color("#fbd12a"),
	"terminated": lipgloss.Color("#ff0000"),
}

// gridPalette returns the styles applied to diagram grid classes.
func gridPalette() map[string]lipgloss.Style {
	palette := map[string]lipgloss.Style{
		edges.EdgeClass:         lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		placement.ClassTile:     lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		placement.ClassBox:      lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		placement.ClassSelected: lipgloss.NewStyle().Bold(true).Reverse(true),
		"empty":                 styles.Muted.Italic(true),
	}
	for state, color := range stateColors {
		palette[placement.StateClass(state)] = lipgloss.NewStyle().Foreground(color)
	}
	return palette
}
