package layout

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/topoviz/topoviz/pkg/geom"
	"github.com/topoviz/topoviz/pkg/topo"
)

// BuildLevels partitions all nodes of the tree (groups and leaves, across
// all branches) by exact depth and returns the levels ordered deepest-first
// down to depth 0. Every node appears in exactly one level. Nodes within a
// level are ordered by ID for deterministic layout.
func BuildLevels(tree *topo.Tree) [][]*topo.Node {
	byDepth := make(map[int][]*topo.Node)
	maxDepth := 0
	for _, n := range tree.Nodes() {
		byDepth[n.Depth] = append(byDepth[n.Depth], n)
		if n.Depth > maxDepth {
			maxDepth = n.Depth
		}
	}

	levels := make([][]*topo.Node, 0, maxDepth+1)
	for d := maxDepth; d >= 0; d-- {
		level := byDepth[d]
		slices.SortFunc(level, func(a, b *topo.Node) int {
			if a.Vertex.ID < b.Vertex.ID {
				return -1
			}
			if a.Vertex.ID > b.Vertex.ID {
				return 1
			}
			return 0
		})
		levels = append(levels, level)
	}
	return levels
}

// PositionElementsAtLevel computes a position for every element of one level
// such that, for every pair, the center distance is at least the sum of
// their radii plus gap. Elements are laid out left to right on the row at
// height y. The input is not mutated; the returned slice is parallel to
// elems.
func PositionElementsAtLevel(elems []*topo.Node, y, gap float64) []r2.Vec {
	positions := make([]r2.Vec, len(elems))
	x := 0.0
	for i, n := range elems {
		positions[i] = r2.Vec{X: x + n.R, Y: y}
		x += 2*n.R + gap
	}
	return positions
}

// CascadePositionToDescendants shifts every strict descendant of id by
// offset, preserving the subtree's relative layout. Applying the same offset
// negated restores the original positions exactly.
func CascadePositionToDescendants(tree *topo.Tree, id string, offset r2.Vec) {
	for _, d := range tree.Descendants(id) {
		d.SetPos(r2.Add(d.Pos(), offset))
	}
}

// runBottomUp lays out the tree level by level, deepest level first.
//
// At each level, group radii are derived from their already-positioned
// children (deeper levels are processed first, so children are final
// relative to each other); then the whole level is packed into a row.
// Whenever a node's final position differs from its provisional one, the
// delta cascades to its descendants, keeping each subtree rigid. The root
// is finally centered on the canvas.
func runBottomUp(tree *topo.Tree, opts Options, canvas Canvas) {
	levels := BuildLevels(tree)

	y := 0.0
	prevMaxR := 0.0
	for i, level := range levels {
		maxR := 0.0
		for _, n := range level {
			assignRadius(tree, n, opts)
			if n.R > maxR {
				maxR = n.R
			}
		}

		if i > 0 {
			// Stack rows upward toward the root, keeping the biggest
			// circles of adjacent rows clear of each other.
			y -= prevMaxR + maxR + opts.Padding
		}

		positions := PositionElementsAtLevel(level, y, opts.Padding)
		for j, n := range level {
			delta := r2.Sub(positions[j], n.Pos())
			n.SetPos(positions[j])
			if delta.X != 0 || delta.Y != 0 {
				CascadePositionToDescendants(tree, n.Vertex.ID, delta)
			}
		}
		prevMaxR = maxR
	}

	// Center the fully assembled hierarchy on the canvas.
	root := tree.Root()
	cx, cy := canvas.Center()
	delta := r2.Sub(r2.Vec{X: cx, Y: cy}, root.Pos())
	root.SetPos(r2.Vec{X: cx, Y: cy})
	CascadePositionToDescendants(tree, root.Vertex.ID, delta)
}

// assignRadius sets n.R: the fixed leaf radius for leaves, or the enclosing
// radius of the node's already-positioned children plus padding for groups.
// The group's provisional position is the center of that enclosing circle.
func assignRadius(tree *topo.Tree, n *topo.Node, opts Options) {
	children := tree.Children(n.Vertex.ID)
	if len(children) == 0 {
		n.R = math.Max(opts.LeafRadius, MinRadius)
		if n.IsGroup() {
			n.R += opts.Padding
		}
		return
	}

	circles := make([]geom.Circle, len(children))
	for i, c := range children {
		circles[i] = geom.Circle{Center: c.Pos(), R: c.R}
	}
	enc := geom.EnclosingCircle(circles)
	n.R = math.Max(enc.R+opts.Padding, MinRadius)
	n.SetPos(enc.Center)
}
