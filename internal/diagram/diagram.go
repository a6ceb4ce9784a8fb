// Package diagram drives one job state diagram from its first page fetch to
// a live, toggleable view, and binds diagrams to configured containers.
package diagram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/npratt/statediagram/internal/config"
	"github.com/npratt/statediagram/internal/edges"
	"github.com/npratt/statediagram/internal/jobtree"
	"github.com/npratt/statediagram/internal/placement"
	"github.com/npratt/statediagram/internal/prefs"
	"github.com/npratt/statediagram/internal/source"
)

// State is the lifecycle state of a diagram.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateEmpty
	StateLaidOut
	StateLive
)

// String returns a string representation of the State.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateEmpty:
		return "empty"
	case StateLaidOut:
		return "laid-out"
	case StateLive:
		return "live"
	default:
		return "unknown"
	}
}

var (
	// ErrNotLive is returned when a toggle arrives before the diagram is live
	// or after it turned out empty.
	ErrNotLive = errors.New("diagram is not live")
	// ErrUnknownJob is returned when toggling an id the diagram does not hold.
	ErrUnknownJob = errors.New("unknown job")
)

// NoDataFunc is called when a diagram's root page holds no jobs.
type NoDataFunc func(d *Diagram)

// Option configures a Diagram.
type Option func(*Diagram)

// WithLogger sets the diagram's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Diagram) {
		d.logger = logger
	}
}

// WithSurface sets the edge drawing surface. The default is a character
// grid; nil disables edge drawing.
func WithSurface(s edges.Surface) Option {
	return func(d *Diagram) {
		d.surface = s
	}
}

// WithPlacement sets tile spacing and label options.
func WithPlacement(opts placement.Options) Option {
	return func(d *Diagram) {
		d.placeOpts = opts
	}
}

// WithNoData sets the callback for an empty root page.
func WithNoData(fn NoDataFunc) Option {
	return func(d *Diagram) {
		d.noData = fn
	}
}

// Diagram is one job state diagram. It owns its tree, its placement and its
// edge renderer; nothing is shared with other diagrams.
type Diagram struct {
	cfg       config.ContainerConfig
	transport source.Transport
	logger    *slog.Logger
	surface   edges.Surface
	placeOpts placement.Options
	noData    NoDataFunc
	prefs     *prefs.Store

	mu       sync.Mutex
	state    State
	tree     *jobtree.Tree
	place    *placement.Placement
	renderer *edges.Renderer
	lines    []edges.Line
	err      error
	width    int

	building atomic.Int32
}

// New creates an idle diagram for the given container.
func New(cfg config.ContainerConfig, transport source.Transport, opts ...Option) *Diagram {
	d := &Diagram{
		cfg:       cfg,
		transport: transport,
		logger:    slog.Default(),
		surface:   edges.NewGridSurface(),
		placeOpts: placement.DefaultOptions(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With("diagram", cfg.Key())
	d.prefs = prefs.New(transport, cfg.PrefsURI, cfg.VerifyToken, d.logger)
	d.renderer = edges.NewRenderer(d.surface, d.logger)
	return d
}

// Name returns the container key.
func (d *Diagram) Name() string {
	return d.cfg.Key()
}

// Config returns the container configuration.
func (d *Diagram) Config() config.ContainerConfig {
	return d.cfg
}

// Prefs returns the diagram's preference store.
func (d *Diagram) Prefs() *prefs.Store {
	return d.prefs
}

// State returns the current lifecycle state.
func (d *Diagram) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Err returns the source error from the last build, if any.
func (d *Diagram) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

// Constructing reports whether the diagram is loading pages or waiting to
// draw its edges. It is advisory.
func (d *Diagram) Constructing() bool {
	return d.building.Load() > 0
}

// Build loads the root page, places the top-level tiles and, after the
// container's DOM wait, captures geometry and draws edges. It returns once
// the diagram is live or empty. A source failure ends the sequence early:
// the jobs read so far are shown and the error is returned.
func (d *Diagram) Build(ctx context.Context) error {
	d.building.Add(1)
	defer d.building.Add(-1)

	root := source.New(d.transport, d.cfg.DataURI,
		source.WithLogger(d.logger),
		source.WithMaxJobs(d.cfg.MaxJobs),
	)
	tree := jobtree.New(
		func(id string, depth int) jobtree.Cursor { return root.Scoped(id, depth) },
		jobtree.WithLogger(d.logger),
		jobtree.WithLocker(&d.mu),
	)

	d.mu.Lock()
	d.state = StateLoading
	d.tree = tree
	d.place = nil
	d.lines = nil
	d.err = nil
	d.mu.Unlock()

	d.logger.Debug("loading diagram", "url", root.URL())
	nodes, loadErr := tree.Load(ctx, root)
	if loadErr != nil {
		d.logger.Warn("diagram source failed", "url", root.URL(), "error", loadErr)
	}

	d.mu.Lock()
	if d.tree != tree {
		d.mu.Unlock()
		return loadErr
	}
	d.err = loadErr
	if len(nodes) == 0 {
		d.state = StateEmpty
		d.mu.Unlock()
		d.logger.Info("diagram has no jobs")
		if d.noData != nil {
			d.noData(d)
		}
		return loadErr
	}
	d.place = placement.Place(tree.Roots(), d.placementOptions())
	d.state = StateLaidOut
	d.mu.Unlock()

	timer := time.NewTimer(d.cfg.EffectiveDOMWait())
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		return ctx.Err()
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.tree != tree {
		return loadErr
	}
	d.redrawLocked()
	d.state = StateLive
	d.logger.Info("diagram live", "jobs", tree.Len(), "edges", len(d.lines))
	return loadErr
}

// Refresh discards the whole tree and builds the diagram again.
func (d *Diagram) Refresh(ctx context.Context) error {
	return d.Build(ctx)
}

// Toggle opens or closes the box with the given id and redraws. Opening a
// box whose children were never fetched fetches them first. It returns the
// box's new expanded state.
func (d *Diagram) Toggle(ctx context.Context, id string) (bool, error) {
	d.mu.Lock()
	if d.state != StateLive {
		d.mu.Unlock()
		return false, ErrNotLive
	}
	tree := d.tree
	n := tree.Lookup(id)
	d.mu.Unlock()

	if n == nil {
		return false, fmt.Errorf("toggle %s: %w", id, ErrUnknownJob)
	}
	if !n.IsBox() {
		return false, fmt.Errorf("toggle %s: %w", id, jobtree.ErrNotBox)
	}

	d.building.Add(1)
	defer d.building.Add(-1)

	expanded, err := tree.Toggle(ctx, n)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.tree == tree {
		d.redrawLocked()
	}
	return expanded, err
}

// Resize sets the minimum diagram width, usually the terminal width, and
// redraws a live diagram.
func (d *Diagram) Resize(width int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.width == width {
		return
	}
	d.width = width
	switch d.state {
	case StateLive:
		d.redrawLocked()
	case StateLaidOut:
		d.place = placement.Place(d.tree.Roots(), d.placementOptions())
	}
}

// redrawLocked places visible tiles, captures their geometry and redraws
// every edge. Must be called with mu held.
func (d *Diagram) redrawLocked() {
	d.place = placement.Place(d.tree.Roots(), d.placementOptions())
	all := d.tree.All()
	d.renderer.Capture(all, d.place)
	d.lines = d.renderer.Draw(all)
}

func (d *Diagram) placementOptions() placement.Options {
	opts := d.placeOpts
	if d.width > opts.MinWidth {
		opts.MinWidth = d.width
	}
	return opts
}

// Lines returns the edges drawn by the last redraw.
func (d *Diagram) Lines() []edges.Line {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]edges.Line, len(d.lines))
	copy(out, d.lines)
	return out
}

// Order returns the visible job ids in reading order.
func (d *Diagram) Order() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.place == nil {
		return nil
	}
	return d.place.Order()
}

// Tile returns the placed tile of a visible job.
func (d *Diagram) Tile(id string) (placement.Tile, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.place == nil {
		return placement.Tile{}, false
	}
	t := d.place.Tile(id)
	if t == nil {
		return placement.Tile{}, false
	}
	return *t, true
}

// Job returns a copy of the record behind a job id, and whether the job is
// currently expanded.
func (d *Diagram) Job(id string) (source.JobRecord, bool, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.tree == nil {
		return source.JobRecord{}, false, false
	}
	n := d.tree.Lookup(id)
	if n == nil {
		return source.JobRecord{}, false, false
	}
	return n.JobRecord, n.Expanded, true
}

// Stats returns the number of known jobs and lazy fetches issued.
func (d *Diagram) Stats() (jobs, fetches int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.tree == nil {
		return 0, 0
	}
	return d.tree.Len(), d.tree.Fetches()
}

// NoDataMessage is shown for an empty diagram.
const NoDataMessage = "No jobs to display"

// Frame renders the diagram's tiles over its edges onto a fresh grid. The
// selected job is painted with the selection class. Frame returns nil while
// the diagram is loading.
func (d *Diagram) Frame(selected string) *edges.Grid {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch d.state {
	case StateEmpty:
		return noDataGrid(d.width)
	case StateLaidOut, StateLive:
	default:
		return nil
	}

	w, h := d.place.Size()
	var g *edges.Grid
	if gs, ok := d.surface.(*edges.GridSurface); ok && d.state == StateLive && gs.Grid().Width() == w && gs.Grid().Height() == h {
		g = gs.Grid().Clone()
	} else {
		g = edges.NewGrid(w, h)
	}
	d.place.Paint(g, selected)
	return g
}

func noDataGrid(width int) *edges.Grid {
	msg := NoDataMessage
	if width < len(msg)+2 {
		width = len(msg) + 2
	}
	g := edges.NewGrid(width, 3)
	g.WriteString((width-len(msg))/2, 1, msg, "empty")
	return g
}

// SVG returns the last drawn edges as an SVG document when the diagram draws
// on an SVG surface.
func (d *Diagram) SVG() (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.surface.(*edges.SVGSurface)
	if !ok {
		return "", false
	}
	return s.String(), true
}

// Text renders the diagram as plain text, one line per grid row.
func (d *Diagram) Text() string {
	g := d.Frame("")
	if g == nil {
		return ""
	}
	lines := strings.Split(g.Plain(), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " ")
	}
	return strings.Join(lines, "\n")
}
