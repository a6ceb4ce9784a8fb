package jobtree

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/npratt/statediagram/internal/source"
)

// ErrNotBox is returned when a box operation is applied to a leaf job.
var ErrNotBox = errors.New("job is not a box")

// Cursor yields job records one at a time until source.ErrEndOfSequence.
type Cursor interface {
	Next(ctx context.Context) (source.JobRecord, error)
}

// ScopeFunc opens a cursor over the direct children of a box.
type ScopeFunc func(id string, pathDepth int) Cursor

// Tree owns every node of one diagram. Nodes are only ever added; the whole
// tree is discarded on teardown.
//
// Mutations take the tree's Locker. Read methods do not lock: callers that
// expand boxes from several goroutines must hold the same Locker while they
// read, which is why WithLocker exists.
type Tree struct {
	scope  ScopeFunc
	logger *slog.Logger
	mu     sync.Locker

	roots   []*Node
	byID    map[string]*Node
	counter int

	group   singleflight.Group
	fetches atomic.Int64
}

// Option configures a Tree.
type Option func(*Tree)

// WithLogger sets the tree's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tree) {
		t.logger = logger
	}
}

// WithLocker makes the tree guard its mutations with l.
func WithLocker(l sync.Locker) Option {
	return func(t *Tree) {
		t.mu = l
	}
}

// New creates an empty tree. scope opens the cursor used to lazily fetch a
// box's children.
func New(scope ScopeFunc, opts ...Option) *Tree {
	t := &Tree{
		scope:  scope,
		logger: slog.Default(),
		mu:     &sync.Mutex{},
		byID:   make(map[string]*Node),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Load reads every record from cur and appends the resulting nodes to the
// tree's top level.
func (t *Tree) Load(ctx context.Context, cur Cursor) ([]*Node, error) {
	nodes, err := t.LoadAll(ctx, cur)
	t.mu.Lock()
	t.roots = append(t.roots, nodes...)
	t.mu.Unlock()
	return nodes, err
}

// LoadAll reads cur until the end of the sequence and wraps each record as a
// node, continuing the tree's traversal counter. Records that arrive with
// nested children are wrapped recursively, parents before descendants.
// On a source failure it returns the nodes read so far with the error.
func (t *Tree) LoadAll(ctx context.Context, cur Cursor) ([]*Node, error) {
	records, err := drain(ctx, cur)

	t.mu.Lock()
	defer t.mu.Unlock()

	nodes := make([]*Node, 0, len(records))
	for _, rec := range records {
		nodes = append(nodes, t.adopt(rec, nil))
	}
	return nodes, err
}

// drain pulls records until the end of the sequence or an error.
func drain(ctx context.Context, cur Cursor) ([]source.JobRecord, error) {
	var records []source.JobRecord
	for {
		rec, err := cur.Next(ctx)
		if errors.Is(err, source.ErrEndOfSequence) {
			return records, nil
		}
		if err != nil {
			return records, err
		}
		records = append(records, rec)
	}
}

// adopt wraps rec as a node under parent. Must be called with mu held.
func (t *Tree) adopt(rec source.JobRecord, parent *Node) *Node {
	children := rec.Children
	rec.Children = nil

	n := &Node{
		JobRecord: rec,
		Index:     t.counter,
		Row:       -1,
		parent:    parent,
	}
	t.counter++

	if prev, ok := t.byID[n.ID]; ok {
		t.logger.Warn("duplicate job id in diagram",
			"id", n.ID,
			"index", n.Index,
			"previous_index", prev.Index,
		)
	}
	t.byID[n.ID] = n

	if n.IsBox() && len(children) > 0 {
		n.Children = make([]*Node, 0, len(children))
		for _, c := range children {
			n.Children = append(n.Children, t.adopt(c, n))
		}
		n.Loaded = true
		n.Expanded = true
	}
	return n
}

// Expand shows a box's children, fetching them on the first expansion.
// A box whose children are already populated is expanded without a fetch.
// Concurrent calls for the same box share one fetch. If the box is collapsed
// while the fetch is in flight the children are still stored but the box
// stays collapsed. A box with zero children, including one whose fetch
// failed before any arrived, is marked loaded but not expanded.
func (t *Tree) Expand(ctx context.Context, box *Node) error {
	if !box.IsBox() {
		return ErrNotBox
	}

	t.mu.Lock()
	if box.Expanded {
		t.mu.Unlock()
		return nil
	}
	box.opening = true
	t.mu.Unlock()
	return t.open(ctx, box)
}

// open finishes an expansion started by setting box.opening. A collapse
// that clears opening before the children arrive keeps the box closed.
func (t *Tree) open(ctx context.Context, box *Node) error {
	t.mu.Lock()
	if box.Loaded {
		if box.opening {
			box.Expanded = len(box.Children) > 0
		}
		box.opening = false
		t.mu.Unlock()
		return nil
	}
	t.mu.Unlock()

	_, err, shared := t.group.Do(box.ID, func() (any, error) {
		return nil, t.loadChildren(ctx, box)
	})

	t.mu.Lock()
	if box.opening {
		box.Expanded = len(box.Children) > 0
	}
	box.opening = false
	t.mu.Unlock()

	if err != nil {
		t.logger.Warn("box expansion failed", "id", box.ID, "error", err)
		return err
	}
	if shared {
		t.logger.Debug("coalesced box expansion", "id", box.ID)
	}
	return nil
}

// loadChildren fetches and adopts a box's children unless an earlier call
// already did. A source failure ends the sequence: the records read before
// it become the children, the box counts as loaded and the error is
// returned.
func (t *Tree) loadChildren(ctx context.Context, box *Node) error {
	t.mu.Lock()
	loaded := box.Loaded
	t.mu.Unlock()
	if loaded {
		return nil
	}

	t.fetches.Add(1)
	records, err := drain(ctx, t.scope(box.ID, box.PathDepth))

	t.mu.Lock()
	defer t.mu.Unlock()
	box.Children = make([]*Node, 0, len(records))
	for _, rec := range records {
		box.Children = append(box.Children, t.adopt(rec, box))
	}
	box.Loaded = true
	if err != nil {
		return fmt.Errorf("load children of box %s: %w", box.ID, err)
	}
	t.logger.Debug("loaded box children", "id", box.ID, "children", len(records))
	return nil
}

// Collapse hides a box's children. The children are kept.
func (t *Tree) Collapse(box *Node) {
	if !box.IsBox() {
		return
	}
	t.mu.Lock()
	box.Expanded = false
	box.opening = false
	t.mu.Unlock()
}

// Toggle collapses an expanded box or expands a collapsed one, returning
// the new expanded state. A box whose expansion is still in flight counts
// as open, so a second toggle collapses it. On a source failure the box
// keeps whatever children arrived and the error is returned with the state.
func (t *Tree) Toggle(ctx context.Context, box *Node) (bool, error) {
	if !box.IsBox() {
		return false, ErrNotBox
	}
	t.mu.Lock()
	if box.Expanded || box.opening {
		box.Expanded = false
		box.opening = false
		t.mu.Unlock()
		return false, nil
	}
	box.opening = true
	t.mu.Unlock()

	err := t.open(ctx, box)
	t.mu.Lock()
	defer t.mu.Unlock()
	return box.Expanded, err
}

// Roots returns the top-level nodes in arrival order.
func (t *Tree) Roots() []*Node {
	return t.roots
}

// Lookup returns the node with the given id.
func (t *Tree) Lookup(id string) *Node {
	return t.byID[id]
}

// All returns every node in pre-order, including those hidden inside
// collapsed boxes.
func (t *Tree) All() []*Node {
	var result []*Node
	walk(t.roots, func(n *Node) bool {
		result = append(result, n)
		return true
	})
	return result
}

// Visible returns the nodes whose enclosing boxes are all expanded, in
// pre-order.
func (t *Tree) Visible() []*Node {
	var result []*Node
	walk(t.roots, func(n *Node) bool {
		result = append(result, n)
		return n.Expanded
	})
	return result
}

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int {
	return t.counter
}

// Fetches returns how many lazy child fetches have been issued.
func (t *Tree) Fetches() int {
	return int(t.fetches.Load())
}

// walk visits nodes in pre-order. A node's children are visited only when
// visit returns true.
func walk(nodes []*Node, visit func(*Node) bool) {
	for _, n := range nodes {
		if visit(n) && len(n.Children) > 0 {
			walk(n.Children, visit)
		}
	}
}
