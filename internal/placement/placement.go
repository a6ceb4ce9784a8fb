// Package placement positions job tiles on a character grid. Each sibling
// scope is row-assigned by the layout package; rows are stacked top to
// bottom and centred, and expanded boxes nest their children's rows inside
// their own tile.
package placement

import (
	"sort"

	"github.com/charmbracelet/lipgloss"

	"github.com/npratt/statediagram/internal/edges"
	"github.com/npratt/statediagram/internal/jobtree"
	"github.com/npratt/statediagram/internal/layout"
)

// Options controls tile spacing and labels.
type Options struct {
	HGap     int // Columns between tiles in a row
	RowGap   int // Lines between rows; edges turn in the last of them
	Margin   int // Blank border around the diagram
	MaxLabel int // Job names longer than this are truncated
	MinWidth int // Minimum container width, usually the terminal width
	Density  Density
}

// DefaultOptions returns the spacing used by the terminal views.
func DefaultOptions() Options {
	return Options{
		HGap:     3,
		RowGap:   2,
		Margin:   1,
		MaxLabel: 24,
		Density:  DensityStandard,
	}
}

// Tile is one placed job.
type Tile struct {
	Node  *jobtree.Node
	Rect  edges.Rect
	Label string
	Open  bool // Expanded box drawn as a frame around its children
}

// Placement is the result of placing a diagram's visible tiles.
type Placement struct {
	opts      Options
	container edges.Rect
	tiles     []*Tile
	byID      map[string]*Tile
}

// Expanded box tiles reserve a border, a header line and a spacer above
// their children, and padding plus a border below.
const (
	boxTopInset    = 3
	boxBottomInset = 2
	boxSideInset   = 2
	leafHeight     = 3
)

type size struct {
	w, h int
}

// scope is the measured layout of one sibling set.
type scope struct {
	rows       layout.Rows
	rowWidths  []int
	rowHeights []int
	width      int
	height     int
}

type placer struct {
	opts   Options
	sizes  map[*jobtree.Node]size
	labels map[*jobtree.Node]string
	scopes map[*jobtree.Node]*scope
}

// Place row-assigns and positions every visible node reachable from roots.
func Place(roots []*jobtree.Node, opts Options) *Placement {
	pl := &placer{
		opts:   opts,
		sizes:  make(map[*jobtree.Node]size),
		labels: make(map[*jobtree.Node]string),
		scopes: make(map[*jobtree.Node]*scope),
	}
	top := pl.measureScope(roots)

	width := top.width + 2*opts.Margin
	if width < opts.MinWidth {
		width = opts.MinWidth
	}
	height := top.height + 2*opts.Margin

	p := &Placement{
		opts:      opts,
		container: edges.Rect{Right: width, Bottom: height},
		byID:      make(map[string]*Tile),
	}
	pl.positionScope(p, top, opts.Margin, opts.Margin, width-2*opts.Margin)
	return p
}

func (pl *placer) measureScope(nodes []*jobtree.Node) *scope {
	s := &scope{rows: layout.Assign(nodes)}
	for i, row := range s.rows {
		rw, rh := 0, 0
		for j, n := range row {
			sz := pl.measureTile(n)
			if j > 0 {
				rw += pl.opts.HGap
			}
			rw += sz.w
			if sz.h > rh {
				rh = sz.h
			}
		}
		s.rowWidths = append(s.rowWidths, rw)
		s.rowHeights = append(s.rowHeights, rh)
		if rw > s.width {
			s.width = rw
		}
		if i > 0 {
			s.height += pl.opts.RowGap
		}
		s.height += rh
	}
	return s
}

func (pl *placer) measureTile(n *jobtree.Node) size {
	label := Label(n, pl.opts.Density, pl.opts.MaxLabel)
	pl.labels[n] = label
	lw := lipgloss.Width(label)

	sz := size{w: lw + 4, h: leafHeight}
	if n.IsBox() && n.Expanded && len(n.Children) > 0 {
		inner := pl.measureScope(n.Children)
		pl.scopes[n] = inner
		w := inner.width
		if lw > w {
			w = lw
		}
		sz = size{
			w: w + 2*boxSideInset,
			h: inner.height + boxTopInset + boxBottomInset,
		}
	}
	pl.sizes[n] = sz
	return sz
}

func (pl *placer) positionScope(p *Placement, s *scope, x, y, width int) {
	for i, row := range s.rows {
		cx := x + (width-s.rowWidths[i])/2
		for _, n := range row {
			sz := pl.sizes[n]
			t := &Tile{
				Node:  n,
				Rect:  edges.Rect{Top: y, Left: cx, Right: cx + sz.w, Bottom: y + sz.h},
				Label: pl.labels[n],
			}
			p.tiles = append(p.tiles, t)
			p.byID[n.ID] = t

			if inner, ok := pl.scopes[n]; ok {
				t.Open = true
				pl.positionScope(p, inner, cx+boxSideInset, y+boxTopInset, sz.w-2*boxSideInset)
			}
			cx += sz.w + pl.opts.HGap
		}
		y += s.rowHeights[i] + pl.opts.RowGap
	}
}

// Container returns the diagram's bounding box.
func (p *Placement) Container() edges.Rect {
	return p.container
}

// Bounds returns the tile bounds of the given job, if it is visible.
func (p *Placement) Bounds(id string) (edges.Rect, bool) {
	t, ok := p.byID[id]
	if !ok {
		return edges.Rect{}, false
	}
	return t.Rect, true
}

// Size returns the container width and height.
func (p *Placement) Size() (int, int) {
	return p.container.Width(), p.container.Height()
}

// Tile returns the placed tile for a job.
func (p *Placement) Tile(id string) *Tile {
	return p.byID[id]
}

// Tiles returns placed tiles, enclosing boxes before their children.
func (p *Placement) Tiles() []*Tile {
	return p.tiles
}

// Order returns the visible job IDs in reading order: top to bottom, then
// left to right.
func (p *Placement) Order() []string {
	sorted := make([]*Tile, len(p.tiles))
	copy(sorted, p.tiles)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Rect.Top != sorted[j].Rect.Top {
			return sorted[i].Rect.Top < sorted[j].Rect.Top
		}
		return sorted[i].Rect.Left < sorted[j].Rect.Left
	})
	ids := make([]string, len(sorted))
	for i, t := range sorted {
		ids[i] = t.Node.ID
	}
	return ids
}
