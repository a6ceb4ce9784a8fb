package edges

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Grid is a 2D character grid. Each cell carries a style class that is
// resolved against the grid's palette when the grid is rendered.
type Grid struct {
	width   int
	height  int
	cells   [][]rune
	classes [][]string
	palette map[string]lipgloss.Style
}

// continuation marks the second cell of a double-width rune.
const continuation rune = 0

// NewGrid creates a grid of the given size filled with spaces.
func NewGrid(width, height int) *Grid {
	g := &Grid{}
	g.resize(width, height)
	return g
}

// SetPalette sets the styles used for cell classes by String.
func (g *Grid) SetPalette(palette map[string]lipgloss.Style) {
	g.palette = palette
}

// Width returns the grid width in cells.
func (g *Grid) Width() int { return g.width }

// Height returns the grid height in cells.
func (g *Grid) Height() int { return g.height }

func (g *Grid) resize(width, height int) {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	g.width = width
	g.height = height
	g.cells = make([][]rune, height)
	g.classes = make([][]string, height)
	for y := 0; y < height; y++ {
		g.cells[y] = make([]rune, width)
		g.classes[y] = make([]string, width)
		for x := 0; x < width; x++ {
			g.cells[y][x] = ' '
		}
	}
}

// Clear blanks every cell.
func (g *Grid) Clear() {
	for y := range g.cells {
		for x := range g.cells[y] {
			g.cells[y][x] = ' '
			g.classes[y][x] = ""
		}
	}
}

// Clone returns a deep copy of the grid sharing its palette.
func (g *Grid) Clone() *Grid {
	c := &Grid{
		width:   g.width,
		height:  g.height,
		cells:   make([][]rune, g.height),
		classes: make([][]string, g.height),
		palette: g.palette,
	}
	for y := 0; y < g.height; y++ {
		c.cells[y] = append([]rune(nil), g.cells[y]...)
		c.classes[y] = append([]string(nil), g.classes[y]...)
	}
	return c
}

// At returns the rune at the given position, or a space outside the grid.
func (g *Grid) At(x, y int) rune {
	if x >= 0 && x < g.width && y >= 0 && y < g.height {
		return g.cells[y][x]
	}
	return ' '
}

// WriteRune writes a single rune at the given position.
func (g *Grid) WriteRune(x, y int, r rune, class string) {
	if x >= 0 && x < g.width && y >= 0 && y < g.height {
		g.cells[y][x] = r
		g.classes[y][x] = class
	}
}

// WriteString writes s starting at the given position and returns the
// number of cells used. Double-width runes take two cells.
func (g *Grid) WriteString(x, y int, s, class string) int {
	col := x
	for _, r := range s {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		g.WriteRune(col, y, r, class)
		if w == 2 {
			g.WriteRune(col+1, y, continuation, class)
		}
		col += w
	}
	return col - x
}

// Plain returns the grid as text without styles.
func (g *Grid) Plain() string {
	lines := make([]string, len(g.cells))
	for y, row := range g.cells {
		var b strings.Builder
		for _, r := range row {
			if r != continuation {
				b.WriteRune(r)
			}
		}
		lines[y] = b.String()
	}
	return strings.Join(lines, "\n")
}

// String renders the grid with each run of same-class cells styled from the
// palette. Classes without a palette entry render unstyled.
func (g *Grid) String() string {
	lines := make([]string, len(g.cells))
	for y, row := range g.cells {
		var b strings.Builder
		start := 0
		for x := 1; x <= len(row); x++ {
			if x < len(row) && g.classes[y][x] == g.classes[y][start] {
				continue
			}
			b.WriteString(g.styleRun(g.classes[y][start], row[start:x]))
			start = x
		}
		lines[y] = b.String()
	}
	return strings.Join(lines, "\n")
}

func (g *Grid) styleRun(class string, run []rune) string {
	var b strings.Builder
	for _, r := range run {
		if r != continuation {
			b.WriteRune(r)
		}
	}
	style, ok := g.palette[class]
	if class == "" || !ok {
		return b.String()
	}
	return style.Render(b.String())
}

// Connection directions of a box-drawing cell.
const (
	up = 1 << iota
	down
	left
	right
)

var runeDirs = map[rune]int{
	'╵': up, '╷': down, '╴': left, '╶': right,
	'│': up | down, '─': left | right,
	'└': up | right, '┘': up | left, '┌': down | right, '┐': down | left,
	'├': up | down | right, '┤': up | down | left,
	'┬': down | left | right, '┴': up | left | right,
	'┼': up | down | left | right,
}

var dirRunes = func() map[int]rune {
	m := make(map[int]rune, len(runeDirs))
	for r, d := range runeDirs {
		m[d] = r
	}
	return m
}()

// connect adds directions to the cell at (x, y), merging with any line
// already drawn there.
func (g *Grid) connect(x, y, dirs int, class string) {
	if x < 0 || x >= g.width || y < 0 || y >= g.height {
		return
	}
	if existing, ok := runeDirs[g.cells[y][x]]; ok {
		dirs |= existing
	}
	g.WriteRune(x, y, dirRunes[dirs], class)
}

// DrawConnector draws an L-shaped connector from (x1, y1) down to the row
// above y2, across to x2, and down into (x2, y2).
func (g *Grid) DrawConnector(x1, y1, x2, y2 int, class string) {
	turn := y2 - 1
	if turn < y1 {
		turn = y1
	}

	for y := y1; y < turn; y++ {
		g.connect(x1, y, up|down, class)
	}

	if x1 == x2 {
		g.connect(x1, turn, up|down, class)
		return
	}

	step, out, in := 1, right, left
	if x2 < x1 {
		step, out, in = -1, left, right
	}
	g.connect(x1, turn, up|out, class)
	for x := x1 + step; x != x2; x += step {
		g.connect(x, turn, left|right, class)
	}
	g.connect(x2, turn, in|down, class)
}
