// Package layout assigns jobs to horizontal rows by dependency depth.
package layout

import "github.com/npratt/statediagram/internal/jobtree"

// Rows groups one scope's nodes into rows, top to bottom. Nodes within a row
// keep their arrival order.
type Rows [][]*jobtree.Node

// Assign places each node one row below its deepest dependency among the
// nodes already assigned in this call, or in row 0 when none resolves.
// Dependencies outside the given sibling set are ignored. Assign sets Row on
// every node.
//
// Nodes are expected in dependency order: a dependency listed after its
// dependent does not resolve.
func Assign(nodes []*jobtree.Node) Rows {
	rowOf := make(map[string]int, len(nodes))
	var rows Rows

	for _, n := range nodes {
		row := 0
		for _, dep := range n.DependsOn {
			if r, ok := rowOf[dep]; ok && r+1 > row {
				row = r + 1
			}
		}

		rowOf[n.ID] = row
		n.Row = row
		for len(rows) <= row {
			rows = append(rows, nil)
		}
		rows[row] = append(rows[row], n)
	}
	return rows
}

// Len returns the number of nodes across all rows.
func (r Rows) Len() int {
	total := 0
	for _, row := range r {
		total += len(row)
	}
	return total
}
