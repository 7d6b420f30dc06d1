package topo

import (
	"fmt"
	"maps"
	"slices"

	"gonum.org/v1/gonum/spatial/r2"
)

// Node is a vertex placed in the containment hierarchy. Only the geometry
// fields (X, Y, R) are mutated after [Build]; everything else is fixed for
// the lifetime of the tree.
//
// Nodes are owned by their Tree's id-indexed arena. Relationships are stored
// as IDs and resolved through the tree, so there is exactly one copy of the
// mutable position state per node and no aliasing between ad hoc lookup maps.
type Node struct {
	Vertex  Vertex
	Depth   int  // 0 at the root, parent+1 below
	Virtual bool // Synthetic root, excluded from weight/statistics/rendering

	// Mutable geometry, assigned by layout and drag.
	X, Y float64
	R    float64

	parentID string
	children []string
}

// IsGroup reports whether the node is rendered as an enclosing circle.
// A vertex flagged as a group counts, and so does any vertex that ended up
// owning children.
func (n *Node) IsGroup() bool {
	return n.Virtual || n.Vertex.Group || len(n.children) > 0
}

// Pos returns the node's current absolute position.
func (n *Node) Pos() r2.Vec { return r2.Vec{X: n.X, Y: n.Y} }

// SetPos sets the node's absolute position.
func (n *Node) SetPos(p r2.Vec) { n.X, n.Y = p.X, p.Y }

// ChildIDs returns the node's child IDs in deterministic order.
// The returned slice should not be modified.
func (n *Node) ChildIDs() []string { return n.children }

// ParentID returns the ID of the containing node, or "" for the root.
func (n *Node) ParentID() string { return n.parentID }

// Tree is a rooted containment hierarchy over an id-indexed node arena.
// Exactly one root is exposed to algorithms; when the vertex set yields zero
// or multiple parentless vertices, the root is a synthetic virtual group.
type Tree struct {
	root  string
	nodes map[string]*Node
}

// Build constructs the containment tree from a flat vertex map.
//
// For each vertex the parent is resolved through ParentID; a ParentID that
// points at a non-existent vertex is treated as "no parent" and the vertex
// becomes a root candidate. A single candidate becomes the tree root; zero
// or multiple candidates are adopted by a synthetic virtual root.
//
// Returns ErrEmptyVertexID for vertices without an ID and ErrParentCycle if
// the parent relation contains a cycle. Cycles are the only fatal
// structural error.
func Build(vertices map[string]Vertex) (*Tree, error) {
	nodes := make(map[string]*Node, len(vertices)+1)
	children := make(map[string][]string, len(vertices))
	var candidates []string

	for _, v := range sortedByKey(vertices) {
		if v.ID == "" {
			return nil, ErrEmptyVertexID
		}
		if v.Attrs == nil {
			v.Attrs = map[string]any{}
		}
		n := &Node{Vertex: v}
		if _, ok := vertices[v.ParentID]; ok {
			n.parentID = v.ParentID
			children[v.ParentID] = append(children[v.ParentID], v.ID)
		} else {
			// Dangling or empty parent reference: root candidate.
			candidates = append(candidates, v.ID)
		}
		nodes[v.ID] = n
	}

	t := &Tree{nodes: nodes}

	switch len(candidates) {
	case 1:
		t.root = candidates[0]
	default:
		// Zero or multiple parentless vertices: synthesize a virtual root
		// that owns all candidates. It participates in depth but is excluded
		// from weight, statistics, and rendering.
		root := &Node{
			Vertex:   Vertex{ID: VirtualRootID, Group: true, Attrs: map[string]any{}},
			Virtual:  true,
			children: candidates,
		}
		nodes[VirtualRootID] = root
		t.root = VirtualRootID
		for _, id := range candidates {
			nodes[id].parentID = VirtualRootID
		}
	}

	for id, kids := range children {
		slices.Sort(kids)
		nodes[id].children = kids
	}

	// Assign depth breadth-first from the root. Any node left unvisited is
	// unreachable from the root, which with single-parent edges means the
	// parent relation loops.
	visited := 0
	queue := []string{t.root}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		n := nodes[id]
		visited++
		for _, child := range n.children {
			nodes[child].Depth = n.Depth + 1
			queue = append(queue, child)
		}
	}
	if visited != len(nodes) {
		return nil, fmt.Errorf("%w: %d of %d vertices unreachable from root",
			ErrParentCycle, len(nodes)-visited, len(nodes))
	}

	return t, nil
}

// sortedByKey returns the map values ordered by key, for deterministic
// iteration during Build.
func sortedByKey(vertices map[string]Vertex) []Vertex {
	keys := slices.Sorted(maps.Keys(vertices))
	out := make([]Vertex, len(keys))
	for i, k := range keys {
		out[i] = vertices[k]
	}
	return out
}

// Root returns the tree root. It may be a virtual node; check Node.Virtual
// before including it in statistics or rendering.
func (t *Tree) Root() *Node { return t.nodes[t.root] }

// Node returns the node with the given ID and true, or nil and false.
// The returned pointer refers to the node in the arena, so geometry
// mutations are visible everywhere the tree is shared.
func (t *Tree) Node(id string) (*Node, bool) {
	n, ok := t.nodes[id]
	return n, ok
}

// Len returns the number of nodes in the tree, including a virtual root.
func (t *Tree) Len() int { return len(t.nodes) }

// Nodes returns all nodes sorted by ID for deterministic iteration.
func (t *Tree) Nodes() []*Node {
	ids := slices.Sorted(maps.Keys(t.nodes))
	out := make([]*Node, len(ids))
	for i, id := range ids {
		out[i] = t.nodes[id]
	}
	return out
}

// Children returns the child nodes of id in deterministic order.
// Returns nil for unknown IDs or leaves.
func (t *Tree) Children(id string) []*Node {
	n, ok := t.nodes[id]
	if !ok {
		return nil
	}
	out := make([]*Node, len(n.children))
	for i, c := range n.children {
		out[i] = t.nodes[c]
	}
	return out
}

// Parent returns the containing node of id, or nil for the root and for
// unknown IDs.
func (t *Tree) Parent(id string) *Node {
	n, ok := t.nodes[id]
	if !ok || n.parentID == "" {
		return nil
	}
	return t.nodes[n.parentID]
}

// Descendants returns every strict descendant of id, depth-first in
// deterministic order. Returns nil for leaves and unknown IDs.
func (t *Tree) Descendants(id string) []*Node {
	n, ok := t.nodes[id]
	if !ok {
		return nil
	}
	var out []*Node
	var walk func(*Node)
	walk = func(n *Node) {
		for _, c := range n.children {
			child := t.nodes[c]
			out = append(out, child)
			walk(child)
		}
	}
	walk(n)
	return out
}

// IsAncestor reports whether ancestorID is id itself or a strict ancestor
// of id in the containment hierarchy.
func (t *Tree) IsAncestor(ancestorID, id string) bool {
	for cur := id; cur != ""; {
		if cur == ancestorID {
			return true
		}
		n, ok := t.nodes[cur]
		if !ok {
			return false
		}
		cur = n.parentID
	}
	return false
}

// Stats summarizes the hierarchy for the canvas size estimator.
type Stats struct {
	Leaves   int // Non-group, non-virtual nodes
	Groups   int // Group nodes, virtual root excluded
	MaxDepth int // Deepest level, virtual root counted for depth
}

// Stats computes hierarchy statistics. The virtual root is excluded from the
// leaf and group counts but still contributes to depth, since it shifts
// every real node one level down.
func (t *Tree) Stats() Stats {
	var s Stats
	for _, n := range t.nodes {
		if n.Depth > s.MaxDepth {
			s.MaxDepth = n.Depth
		}
		if n.Virtual {
			continue
		}
		if n.IsGroup() {
			s.Groups++
		} else {
			s.Leaves++
		}
	}
	return s
}
