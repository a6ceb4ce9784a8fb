// Package jobtree builds the in-memory tree of jobs behind a state diagram.
package jobtree

import "github.com/npratt/statediagram/internal/source"

// Geometry is a tile's bounding box relative to the diagram container.
// Right and Bottom are exclusive.
type Geometry struct {
	Top    int
	Left   int
	Right  int
	Bottom int
}

// CenterX returns the horizontal center of the box.
func (g Geometry) CenterX() int {
	return g.Left + roundHalf(g.Right-g.Left)
}

// Width returns Right-Left.
func (g Geometry) Width() int {
	return g.Right - g.Left
}

// Height returns Bottom-Top.
func (g Geometry) Height() int {
	return g.Bottom - g.Top
}

// roundHalf returns n/2 with halves rounded up.
func roundHalf(n int) int {
	m := n + 1
	if m >= 0 {
		return m / 2
	}
	return -((-m + 1) / 2)
}

// Node is one job in the diagram. Fields are refined in passes:
// construction sets the record, Index, Expanded and Children; the row layout
// sets Row; the edge renderer's capture sets Geometry and Captured.
type Node struct {
	source.JobRecord

	Index    int     // Pre-order creation sequence, unique per tree
	Row      int     // Row within the sibling scope, -1 until laid out
	Expanded bool    // Box only: children are currently shown
	Loaded   bool    // Box only: Children has been populated
	Children []*Node // Box only

	Geometry Geometry // Valid only while Captured is true
	Captured bool

	parent  *Node
	opening bool // An expand is in flight and has not been cancelled by a collapse
}

// Parent returns the enclosing box node, or nil for top-level nodes.
func (n *Node) Parent() *Node {
	return n.parent
}

// Empty reports whether the node is a loaded box without children.
func (n *Node) Empty() bool {
	return n.IsBox() && n.Loaded && len(n.Children) == 0
}
