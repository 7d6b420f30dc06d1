// Package scene defines the wire formats for topology input and layout
// output.
//
// A [Scene] is the upstream input: a vertex list and an edge list, read from
// JSON or YAML. A [Layout] is the downstream output: resolved circles per
// node, routed edge polylines, and the viewport transform, written as JSON
// or YAML. Both formats round-trip opaque attributes untouched.
package scene

import (
	"sort"

	"github.com/topoviz/topoviz/pkg/errors"
	"github.com/topoviz/topoviz/pkg/route"
	"github.com/topoviz/topoviz/pkg/topo"
	"github.com/topoviz/topoviz/pkg/viewport"
)

// Vertex is the wire form of a topology vertex.
type Vertex struct {
	ID     string         `json:"id" yaml:"id"`
	Type   string         `json:"type,omitempty" yaml:"type,omitempty"`
	Parent string         `json:"parent,omitempty" yaml:"parent,omitempty"`
	Group  bool           `json:"group,omitempty" yaml:"group,omitempty"`
	Attrs  map[string]any `json:"attrs,omitempty" yaml:"attrs,omitempty"`
}

// Edge is the wire form of a topology edge.
type Edge struct {
	From string         `json:"from" yaml:"from"`
	To   string         `json:"to" yaml:"to"`
	Type string         `json:"type,omitempty" yaml:"type,omitempty"`
	Meta map[string]any `json:"meta,omitempty" yaml:"meta,omitempty"`
}

// Scene is a complete topology input document.
type Scene struct {
	Vertices []Vertex `json:"vertices" yaml:"vertices"`
	Edges    []Edge   `json:"edges,omitempty" yaml:"edges,omitempty"`
}

// Topology converts the scene into the core vertex map and edge list.
// Duplicate vertex IDs and invalid IDs are rejected.
func (s *Scene) Topology() (map[string]topo.Vertex, []topo.Edge, error) {
	vertices := make(map[string]topo.Vertex, len(s.Vertices))
	for _, v := range s.Vertices {
		if err := errors.ValidateVertexID(v.ID); err != nil {
			return nil, nil, err
		}
		if _, dup := vertices[v.ID]; dup {
			return nil, nil, errors.New(errors.ErrCodeInvalidInput, "duplicate vertex id %q", v.ID)
		}
		vertices[v.ID] = topo.Vertex{
			ID:       v.ID,
			Type:     v.Type,
			ParentID: v.Parent,
			Group:    v.Group,
			Attrs:    v.Attrs,
		}
	}

	edges := make([]topo.Edge, len(s.Edges))
	for i, e := range s.Edges {
		edges[i] = topo.Edge{From: e.From, To: e.To, Type: e.Type, Meta: e.Meta}
	}
	return vertices, edges, nil
}

// PlacedNode is one resolved circle in the layout output. Leaves carry a
// radius too; the distinction is the Group flag.
type PlacedNode struct {
	ID    string  `json:"id" yaml:"id"`
	Type  string  `json:"type,omitempty" yaml:"type,omitempty"`
	Group bool    `json:"group,omitempty" yaml:"group,omitempty"`
	X     float64 `json:"x" yaml:"x"`
	Y     float64 `json:"y" yaml:"y"`
	R     float64 `json:"r" yaml:"r"`
}

// RoutedEdge is one edge with its ordered sub-segments.
type RoutedEdge struct {
	From     string          `json:"from" yaml:"from"`
	To       string          `json:"to" yaml:"to"`
	Type     string          `json:"type,omitempty" yaml:"type,omitempty"`
	Segments []route.Segment `json:"segments" yaml:"segments"`
}

// SkippedEdge reports an edge dropped during routing.
type SkippedEdge struct {
	From   string `json:"from" yaml:"from"`
	To     string `json:"to" yaml:"to"`
	Reason string `json:"reason" yaml:"reason"`
}

// Layout is a complete layout output document.
type Layout struct {
	Width     float64            `json:"width" yaml:"width"`
	Height    float64            `json:"height" yaml:"height"`
	Nodes     []PlacedNode       `json:"nodes" yaml:"nodes"`
	Edges     []RoutedEdge       `json:"edges,omitempty" yaml:"edges,omitempty"`
	Skipped   []SkippedEdge      `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Transform viewport.Transform `json:"transform" yaml:"transform"`
}

// FromTree assembles a Layout document from a positioned tree, a routing
// result, and a viewport transform. The virtual root is excluded; nodes are
// ordered by ID for stable output.
func FromTree(tree *topo.Tree, width, height float64, res route.Result, tr viewport.Transform) *Layout {
	out := &Layout{Width: width, Height: height, Transform: tr}

	for _, n := range tree.Nodes() {
		if n.Virtual {
			continue
		}
		out.Nodes = append(out.Nodes, PlacedNode{
			ID:    n.Vertex.ID,
			Type:  n.Vertex.Type,
			Group: n.IsGroup(),
			X:     n.X,
			Y:     n.Y,
			R:     n.R,
		})
	}
	sort.Slice(out.Nodes, func(i, j int) bool { return out.Nodes[i].ID < out.Nodes[j].ID })

	for _, re := range res.Edges {
		out.Edges = append(out.Edges, RoutedEdge{
			From:     re.Edge.From,
			To:       re.Edge.To,
			Type:     re.Edge.Type,
			Segments: re.Segments,
		})
	}
	for _, se := range res.Skipped {
		out.Skipped = append(out.Skipped, SkippedEdge{
			From:   se.Edge.From,
			To:     se.Edge.To,
			Reason: se.Reason,
		})
	}
	return out
}
