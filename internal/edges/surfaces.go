package edges

import (
	"fmt"
	"io"
	"strings"
)

// EdgeClass is the grid style class of dependency lines.
const EdgeClass = "edge"

// GridSurface strokes paths onto a character grid as box-drawing
// connectors.
type GridSurface struct {
	grid *Grid
	path path
}

// NewGridSurface creates a surface with an empty grid.
func NewGridSurface() *GridSurface {
	return &GridSurface{grid: NewGrid(0, 0)}
}

// Grid returns the grid the surface draws on.
func (s *GridSurface) Grid() *Grid {
	return s.grid
}

func (s *GridSurface) Reset() {
	s.path.reset()
	s.grid.Clear()
}

func (s *GridSurface) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("resize grid to %dx%d: %w", width, height, ErrUnsupported)
	}
	if width != s.grid.width || height != s.grid.height {
		s.grid.resize(width, height)
	}
	return nil
}

func (s *GridSurface) MoveTo(x, y int) { s.path.moveTo(x, y) }

func (s *GridSurface) LineTo(x, y int) { s.path.lineTo(x, y) }

func (s *GridSurface) Stroke() error {
	for _, seg := range s.path.segments {
		s.grid.DrawConnector(seg.from.X, seg.from.Y, seg.to.X, seg.to.Y, EdgeClass)
	}
	s.path.reset()
	return nil
}

// SVGSurface renders strokes as a single SVG path of straight segments.
type SVGSurface struct {
	width  int
	height int
	path   path
	doc    string
}

// NewSVGSurface creates an empty SVG surface.
func NewSVGSurface() *SVGSurface {
	return &SVGSurface{}
}

func (s *SVGSurface) Reset() {
	s.path.reset()
	s.doc = ""
}

func (s *SVGSurface) Resize(width, height int) error {
	s.width = width
	s.height = height
	return nil
}

func (s *SVGSurface) MoveTo(x, y int) { s.path.moveTo(x, y) }

func (s *SVGSurface) LineTo(x, y int) { s.path.lineTo(x, y) }

// Stroke renders the current path into the SVG document.
func (s *SVGSurface) Stroke() error {
	var d strings.Builder
	for _, seg := range s.path.segments {
		fmt.Fprintf(&d, "M%d %d L%d %d ", seg.from.X, seg.from.Y, seg.to.X, seg.to.Y)
	}

	var attrs []string
	if s.height != 0 {
		attrs = append(attrs, fmt.Sprintf(`height="%d"`, s.height))
	}
	if s.width != 0 {
		attrs = append(attrs, fmt.Sprintf(`width="%d"`, s.width))
	}

	s.doc = fmt.Sprintf(
		`<svg xmlns="http://www.w3.org/2000/svg" %s><g stroke="currentColor" stroke-width="1"><path d="%s"/></g></svg>`,
		strings.Join(attrs, " "), d.String(),
	)
	return nil
}

// String returns the last stroked document.
func (s *SVGSurface) String() string {
	return s.doc
}

// WriteTo writes the last stroked document to w.
func (s *SVGSurface) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, s.doc)
	return int64(n), err
}
