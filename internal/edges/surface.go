// Package edges draws dependency lines between captured job tiles.
package edges

import (
	"errors"

	"github.com/npratt/statediagram/internal/jobtree"
)

// ErrUnsupported is returned by a Surface that cannot draw in the current
// host. The renderer treats it as "draw nothing".
var ErrUnsupported = errors.New("drawing surface unsupported")

// Rect is a bounding box. Right and Bottom are exclusive.
type Rect = jobtree.Geometry

// Point is a position in container coordinates.
type Point struct {
	X, Y int
}

// Line is one drawn dependency edge, from the dependency's bottom-center to
// the dependent's top-center.
type Line struct {
	From Point
	To   Point
	Dep  string // ID of the job depended on
	Job  string // ID of the dependent job
}

// Surface is a drawing target. A path is built with MoveTo and LineTo and
// committed with Stroke.
type Surface interface {
	Reset()
	Resize(width, height int) error
	MoveTo(x, y int)
	LineTo(x, y int)
	Stroke() error
}

// Geometer reports where tiles were placed. Bounds returns false for jobs
// without a rendered tile.
type Geometer interface {
	Container() Rect
	Bounds(id string) (Rect, bool)
}

// segment is one straight move recorded between MoveTo and LineTo.
type segment struct {
	from, to Point
}

// path accumulates segments the way a canvas path does.
type path struct {
	cursor   Point
	segments []segment
}

func (p *path) moveTo(x, y int) {
	p.cursor = Point{X: x, Y: y}
}

func (p *path) lineTo(x, y int) {
	to := Point{X: x, Y: y}
	p.segments = append(p.segments, segment{from: p.cursor, to: to})
	p.cursor = to
}

func (p *path) reset() {
	p.cursor = Point{}
	p.segments = nil
}
