package edges

import (
	"errors"
	"log/slog"

	"github.com/npratt/statediagram/internal/jobtree"
)

// Renderer draws one line per (job, dependency) pair from geometry captured
// after tiles were placed.
type Renderer struct {
	surface Surface
	logger  *slog.Logger

	width  int
	height int
	index  map[string]*jobtree.Node
}

// NewRenderer creates a renderer drawing on surface. A nil surface makes
// Draw a no-op.
func NewRenderer(surface Surface, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{
		surface: surface,
		logger:  logger,
		index:   make(map[string]*jobtree.Node),
	}
}

// Surface returns the renderer's drawing surface.
func (r *Renderer) Surface() Surface {
	return r.surface
}

// Capture records every node's tile bounds relative to the container. Nodes
// without a rendered tile are marked uncaptured. Geometry from earlier
// captures is always discarded.
func (r *Renderer) Capture(nodes []*jobtree.Node, geo Geometer) {
	container := geo.Container()
	r.width = container.Width()
	r.height = container.Height()
	r.index = make(map[string]*jobtree.Node, len(nodes))

	for _, n := range nodes {
		r.index[n.ID] = n
		b, ok := geo.Bounds(n.ID)
		if !ok {
			n.Geometry = jobtree.Geometry{}
			n.Captured = false
			continue
		}
		n.Geometry = jobtree.Geometry{
			Top:    b.Top - container.Top,
			Left:   b.Left - container.Left,
			Right:  b.Right - container.Left,
			Bottom: b.Bottom - container.Top,
		}
		n.Captured = true
	}
}

// Draw clears and resizes the surface to the captured container, then
// strokes a line from each dependency's bottom-center to its dependent's
// top-center. Jobs whose enclosing box is collapsed are skipped, as are
// dependencies without captured geometry. It returns the lines drawn.
func (r *Renderer) Draw(nodes []*jobtree.Node) []Line {
	if r.surface == nil {
		return nil
	}
	r.surface.Reset()
	if err := r.surface.Resize(r.width, r.height); err != nil {
		if !errors.Is(err, ErrUnsupported) {
			r.logger.Warn("resize drawing surface", "error", err)
		}
		return nil
	}

	var lines []Line
	for _, n := range nodes {
		if len(n.DependsOn) == 0 || !n.Captured {
			continue
		}
		if parent := r.parentOf(n); parent != nil && !parent.Expanded {
			continue
		}
		to := Point{X: n.Geometry.CenterX(), Y: n.Geometry.Top}
		for _, id := range n.DependsOn {
			dep, ok := r.index[id]
			if !ok || !dep.Captured {
				continue
			}
			from := Point{X: dep.Geometry.CenterX(), Y: dep.Geometry.Bottom}
			r.surface.MoveTo(from.X, from.Y)
			r.surface.LineTo(to.X, to.Y)
			lines = append(lines, Line{From: from, To: to, Dep: dep.ID, Job: n.ID})
		}
	}

	if err := r.surface.Stroke(); err != nil {
		r.logger.Warn("stroke dependency lines", "error", err)
		return nil
	}
	return lines
}

// parentOf finds the enclosing box by ParentID, falling back to the tree
// link for records that did not carry one.
func (r *Renderer) parentOf(n *jobtree.Node) *jobtree.Node {
	if n.ParentID != "" {
		if p, ok := r.index[n.ParentID]; ok {
			return p
		}
	}
	return n.Parent()
}
