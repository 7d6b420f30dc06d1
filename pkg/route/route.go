// Package route clips topology edges against containment boundaries.
//
// Each edge is a straight segment between its endpoint circles' centers. The
// router intersects that segment with every group circle, splits it at the
// crossing points into an ordered polyline, and classifies every sub-segment
// as "home" (inside a boundary shared with one of the edge's endpoints) or
// "foreign" (passing through a boundary owned by neither endpoint).
//
// Boundaries are grouped by semantic tier (the group vertex's type tag:
// network, cluster, application, ...) and every tier is classified
// independently; a sub-segment that is foreign in any tier is foreign in the
// output.
//
// The router reads node geometry live from the tree's arena on every call,
// so it stays correct across drag mutations without rebuilding.
package route

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/topoviz/topoviz/pkg/geom"
	"github.com/topoviz/topoviz/pkg/topo"
)

// Segment is one piece of a routed edge polyline.
type Segment struct {
	X1 float64 `json:"x1" yaml:"x1"`
	Y1 float64 `json:"y1" yaml:"y1"`
	X2 float64 `json:"x2" yaml:"x2"`
	Y2 float64 `json:"y2" yaml:"y2"`
	// Home is true when the segment runs inside boundaries shared with one
	// of the edge's endpoints (or through neutral space), false when it
	// crosses a boundary owned by neither endpoint.
	Home bool `json:"home" yaml:"home"`
}

// RoutedEdge pairs an edge with its ordered sub-segments.
type RoutedEdge struct {
	Edge     topo.Edge
	Segments []Segment
}

// SkippedEdge records an edge that was dropped from routing, with the
// reason. Unknown endpoints are a recoverable data inconsistency: the edge
// is reported, not fatal.
type SkippedEdge struct {
	Edge   topo.Edge
	Reason string
}

// Result is the output of routing a full edge set.
type Result struct {
	Edges   []RoutedEdge
	Skipped []SkippedEdge
}

// Router clips edges against the containment circles of one tree.
type Router struct {
	tree *topo.Tree
	// tiers maps a tier tag to the IDs of the group nodes forming that
	// tier's boundaries. Only IDs are stored; geometry is resolved through
	// the arena at routing time.
	tiers map[string][]string
}

// New creates a router for the tree. Boundary circles are the non-virtual
// group nodes, grouped into tiers by their vertex type.
func New(tree *topo.Tree) *Router {
	tiers := make(map[string][]string)
	for _, n := range tree.Nodes() {
		if n.Virtual || !n.IsGroup() {
			continue
		}
		tiers[n.Vertex.Type] = append(tiers[n.Vertex.Type], n.Vertex.ID)
	}
	return &Router{tree: tree, tiers: tiers}
}

// Route clips every edge. Edges referencing unknown vertices are dropped
// from the output and reported in Result.Skipped.
func (r *Router) Route(edges []topo.Edge) Result {
	var res Result
	for _, e := range edges {
		segs, err := r.RouteEdge(e)
		if err != nil {
			res.Skipped = append(res.Skipped, SkippedEdge{Edge: e, Reason: err.Error()})
			continue
		}
		res.Edges = append(res.Edges, RoutedEdge{Edge: e, Segments: segs})
	}
	return res
}

// RouteEdge clips a single edge into ordered sub-segments. Returns an error
// wrapping topo.ErrUnknownNode when an endpoint is missing from the tree.
//
// A zero-length edge (coincident endpoints) fails closed: it yields one
// zero-length home segment instead of erroring.
func (r *Router) RouteEdge(e topo.Edge) ([]Segment, error) {
	src, ok := r.tree.Node(e.From)
	if !ok {
		return nil, fmt.Errorf("%w: edge source %q", topo.ErrUnknownNode, e.From)
	}
	dst, ok := r.tree.Node(e.To)
	if !ok {
		return nil, fmt.Errorf("%w: edge target %q", topo.ErrUnknownNode, e.To)
	}

	a, b := src.Pos(), dst.Pos()
	if geom.Dist(a, b) < geom.Epsilon {
		return []Segment{{X1: a.X, Y1: a.Y, X2: a.X, Y2: a.Y, Home: true}}, nil
	}

	ts := r.crossings(a, b)
	segs := make([]Segment, 0, len(ts)-1)
	for i := 0; i < len(ts)-1; i++ {
		p := pointAt(a, b, ts[i])
		q := pointAt(a, b, ts[i+1])
		segs = append(segs, Segment{
			X1: p.X, Y1: p.Y,
			X2: q.X, Y2: q.Y,
			Home: r.isHome(geom.Midpoint(p, q), e),
		})
	}
	return segs, nil
}

// crossings returns the sorted, deduplicated parameter values where the
// segment a→b crosses any boundary circle, always including the endpoints
// t=0 and t=1.
func (r *Router) crossings(a, b r2.Vec) []float64 {
	ts := []float64{0, 1}
	for _, ids := range r.tiers {
		for _, id := range ids {
			n, _ := r.tree.Node(id)
			c := geom.Circle{Center: n.Pos(), R: n.R}
			for _, x := range geom.LineCircleIntersections(a, b, c) {
				ts = append(ts, x.T)
			}
		}
	}
	slices.Sort(ts)

	// Deduplicate near-equal parameters (tangent points, circles meeting
	// exactly at a boundary).
	out := ts[:1]
	for _, t := range ts[1:] {
		if t-out[len(out)-1] >= geom.Epsilon {
			out = append(out, t)
		}
	}
	// The endpoint t=1 must survive dedup even when an intersection sits
	// within epsilon of it.
	if out[len(out)-1] != 1 {
		out[len(out)-1] = 1
	}
	return out
}

// isHome classifies a sub-segment midpoint. Every tier votes independently:
// a midpoint inside a tier circle owned by one of the edge's endpoints is
// home for that tier; inside some other circle of the tier it is foreign;
// inside no circle of the tier it is neutral. The segment is home unless
// some tier classifies it foreign.
func (r *Router) isHome(mid r2.Vec, e topo.Edge) bool {
	for _, ids := range r.tiers {
		ownedHit := false
		foreignHit := false
		for _, id := range ids {
			n, _ := r.tree.Node(id)
			if !(geom.Circle{Center: n.Pos(), R: n.R}).Contains(mid) {
				continue
			}
			if r.tree.IsAncestor(id, e.From) || r.tree.IsAncestor(id, e.To) {
				ownedHit = true
			} else {
				foreignHit = true
			}
		}
		if foreignHit && !ownedHit {
			return false
		}
	}
	return true
}

func pointAt(a, b r2.Vec, t float64) r2.Vec {
	return r2.Add(a, r2.Scale(t, r2.Sub(b, a)))
}
