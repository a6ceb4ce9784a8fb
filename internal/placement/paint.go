package placement

import (
	"strings"

	"github.com/npratt/statediagram/internal/edges"
)

// Style classes written to the grid by Paint.
const (
	ClassTile     = "tile"
	ClassBox      = "box"
	ClassSelected = "selected"
)

type border struct {
	tl, tr, bl, br, h, v rune
}

var (
	leafBorder = border{'╭', '╮', '╰', '╯', '─', '│'}
	boxBorder  = border{'╔', '╗', '╚', '╝', '═', '║'}
)

// Paint draws every tile onto g. Tiles are painted over whatever is already
// on the grid, so dependency lines should be drawn first. Open boxes only
// paint their frame and header, leaving their interior untouched.
func (p *Placement) Paint(g *edges.Grid, selected string) {
	for _, t := range p.tiles {
		frameClass := ClassTile
		b := leafBorder
		if t.Node.IsBox() {
			frameClass = ClassBox
			b = boxBorder
		}
		labelClass := StateClass(t.Node.StateName)
		if t.Node.ID == selected {
			frameClass = ClassSelected
			labelClass = ClassSelected
		}

		r := t.Rect
		inner := r.Width() - 2
		if inner < 0 {
			continue
		}

		g.WriteString(r.Left, r.Top, string(b.tl)+strings.Repeat(string(b.h), inner)+string(b.tr), frameClass)
		g.WriteString(r.Left, r.Bottom-1, string(b.bl)+strings.Repeat(string(b.h), inner)+string(b.br), frameClass)
		for y := r.Top + 1; y < r.Bottom-1; y++ {
			g.WriteRune(r.Left, y, b.v, frameClass)
			g.WriteRune(r.Right-1, y, b.v, frameClass)
		}

		// Header or single label line.
		g.WriteString(r.Left+1, r.Top+1, strings.Repeat(" ", inner), labelClass)
		g.WriteString(r.Left+2, r.Top+1, t.Label, labelClass)
	}
}

// Render paints the placement onto a fresh grid and returns it as plain
// text.
func (p *Placement) Render(selected string) string {
	w, h := p.Size()
	g := edges.NewGrid(w, h)
	p.Paint(g, selected)
	return g.Plain()
}
