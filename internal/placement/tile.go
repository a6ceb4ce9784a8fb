package placement

import (
	"fmt"

	"github.com/mattn/go-runewidth"

	"github.com/npratt/statediagram/internal/jobtree"
)

// Density is the level of detail shown on a tile.
type Density int

const (
	// DensityCompact shows the job name only.
	DensityCompact Density = iota
	// DensityStandard shows a state icon and the job name.
	DensityStandard
	// DensityDetailed adds the state name.
	DensityDetailed
)

// String returns a string representation of the Density.
func (d Density) String() string {
	switch d {
	case DensityCompact:
		return "compact"
	case DensityStandard:
		return "standard"
	case DensityDetailed:
		return "detailed"
	default:
		return "unknown"
	}
}

// ParseDensity converts a string to Density.
func ParseDensity(s string) Density {
	switch s {
	case "compact":
		return DensityCompact
	case "detailed":
		return DensityDetailed
	default:
		return DensityStandard
	}
}

// Toggle glyphs shown on box tiles.
const (
	GlyphExpanded  = "▾"
	GlyphCollapsed = "▸"
	EmptySuffix    = "(empty)"
)

// StateIcon returns a single-cell icon for a job state.
func StateIcon(state string) string {
	switch state {
	case "running":
		return "●"
	case "starting":
		return "◐"
	case "finished":
		return "✓"
	case "failed", "terminated":
		return "✗"
	case "hold":
		return "‖"
	case "inactive":
		return "◌"
	case "active":
		return "○"
	default:
		return "?"
	}
}

// StateClass returns the style class for a job state.
func StateClass(state string) string {
	if state == "" {
		return "state-unknown"
	}
	return "state-" + state
}

// Label formats the text shown inside a node's tile.
func Label(n *jobtree.Node, density Density, maxWidth int) string {
	name := truncate(n.Name, maxWidth)

	var text string
	switch density {
	case DensityCompact:
		text = name
	case DensityDetailed:
		text = fmt.Sprintf("%s %s [%s]", StateIcon(n.StateName), name, n.StateName)
	default:
		text = fmt.Sprintf("%s %s", StateIcon(n.StateName), name)
	}

	if !n.IsBox() {
		return text
	}
	glyph := GlyphCollapsed
	if n.Expanded {
		glyph = GlyphExpanded
	}
	text = glyph + " " + text
	if n.Empty() {
		text += " " + EmptySuffix
	}
	return text
}

// truncate shortens s to at most width cells.
func truncate(s string, width int) string {
	if width <= 0 {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}
