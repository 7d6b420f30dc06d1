// Package drag implements interactive repositioning of a single node or an
// entire sub-hierarchy, with incremental edge re-routing.
//
// A [Session] owns the drag state for one tree instance. The lifecycle is
// Idle → Dragging → Idle: [Session.Start] captures the anchor, repeated
// [Session.Move] calls reposition the grabbed element (and, for groups,
// every descendant) and re-route only the edges touching moved nodes, and
// [Session.End] finalizes the positions. The work per Move is proportional
// to the affected subtree and its incident edges, never the whole graph.
//
// Starting a new drag while another is active finalizes the previous drag
// first (auto-cancel), so a stray End for the old element is harmless.
//
// A session must be discarded together with its tree on a full data
// refresh; drag state never survives tree replacement.
package drag

import (
	"fmt"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/topoviz/topoviz/pkg/route"
	"github.com/topoviz/topoviz/pkg/topo"
)

// State is the drag lifecycle state.
type State int

const (
	// StateIdle means no element is being dragged.
	StateIdle State = iota
	// StateDragging means a drag is in progress.
	StateDragging
)

// Update is the incremental result of a Move or End: the new absolute
// positions of every moved node and the re-routed edges incident to them.
type Update struct {
	// Positions maps moved node IDs to their new absolute positions.
	Positions map[string]r2.Vec
	// Edges holds the re-routed edges touching the moved subtree. Edges not
	// incident to any moved node are untouched and absent.
	Edges []route.RoutedEdge
}

// Session drives drags against one tree. Only one drag is active per
// session at a time; sessions are not safe for concurrent use.
type Session struct {
	// ID identifies the session, e.g. toward the HTTP API.
	ID string

	tree   *topo.Tree
	router *route.Router
	edges  []topo.Edge
	// incident maps a node ID to the indices of edges touching it.
	incident map[string][]int

	state   State
	active  string
	anchors map[string]r2.Vec // subtree positions captured at Start
	pointer r2.Vec            // anchor position of the grabbed element
}

// NewSession creates a drag session for the tree and its edge set. The
// incident-edge index is built once so that per-Move work stays bounded by
// the affected subtree.
func NewSession(tree *topo.Tree, edges []topo.Edge) *Session {
	incident := make(map[string][]int)
	for i, e := range edges {
		incident[e.From] = append(incident[e.From], i)
		if e.To != e.From {
			incident[e.To] = append(incident[e.To], i)
		}
	}
	return &Session{
		ID:       uuid.NewString(),
		tree:     tree,
		router:   route.New(tree),
		edges:    edges,
		incident: incident,
		anchors:  map[string]r2.Vec{},
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State { return s.state }

// Edges returns the session's edge set.
func (s *Session) Edges() []topo.Edge { return s.edges }

// Active returns the ID of the element being dragged, or "" when idle.
func (s *Session) Active() string {
	if s.state != StateDragging {
		return ""
	}
	return s.active
}

// Start begins dragging an element, capturing the current absolute
// positions of the element and its descendants as the anchor. No positions
// are mutated. If another drag is active it is finalized first.
func (s *Session) Start(elementID string) error {
	n, ok := s.tree.Node(elementID)
	if !ok {
		return fmt.Errorf("%w: %q", topo.ErrUnknownNode, elementID)
	}
	if s.state == StateDragging {
		// Auto-cancel: the previous drag's positions are already in the
		// tree, so finalizing is just clearing state.
		s.reset()
	}

	s.state = StateDragging
	s.active = elementID
	s.pointer = n.Pos()
	s.anchors[elementID] = n.Pos()
	for _, d := range s.tree.Descendants(elementID) {
		s.anchors[d.Vertex.ID] = d.Pos()
	}
	return nil
}

// Move repositions the dragged element to follow the pointer. The delta is
// pointer − anchor; a leaf moves alone, a group moves with its whole
// subtree. Only edges incident to moved nodes are re-routed.
func (s *Session) Move(elementID string, pointer r2.Vec) (*Update, error) {
	if s.state != StateDragging || s.active != elementID {
		return nil, fmt.Errorf("no active drag for %q", elementID)
	}

	delta := r2.Sub(pointer, s.pointer)
	update := &Update{Positions: make(map[string]r2.Vec, len(s.anchors))}

	// Positions derive from the Start snapshot, so repeated Moves do not
	// accumulate error.
	for id, anchor := range s.anchors {
		n, _ := s.tree.Node(id)
		n.SetPos(r2.Add(anchor, delta))
		update.Positions[id] = n.Pos()
	}

	update.Edges = s.rerouteTouched()
	return update, nil
}

// End finalizes the drag. The last Move already persisted absolute
// positions into the tree; End re-routes the touched edges once more and
// returns to idle so subsequent drags compute correct deltas.
func (s *Session) End(elementID string) (*Update, error) {
	if s.state != StateDragging || s.active != elementID {
		return nil, fmt.Errorf("no active drag for %q", elementID)
	}

	update := &Update{Positions: make(map[string]r2.Vec, len(s.anchors))}
	for id := range s.anchors {
		n, _ := s.tree.Node(id)
		update.Positions[id] = n.Pos()
	}
	update.Edges = s.rerouteTouched()

	s.reset()
	return update, nil
}

// rerouteTouched re-routes exactly the edges incident to the anchored
// subtree, deduplicated across nodes.
func (s *Session) rerouteTouched() []route.RoutedEdge {
	seen := map[int]bool{}
	var out []route.RoutedEdge
	for id := range s.anchors {
		for _, i := range s.incident[id] {
			if seen[i] {
				continue
			}
			seen[i] = true
			segs, err := s.router.RouteEdge(s.edges[i])
			if err != nil {
				// Unknown endpoints were already reported at initial
				// routing; nothing new to say here.
				continue
			}
			out = append(out, route.RoutedEdge{Edge: s.edges[i], Segments: segs})
		}
	}
	return out
}

func (s *Session) reset() {
	s.state = StateIdle
	s.active = ""
	s.anchors = map[string]r2.Vec{}
	s.pointer = r2.Vec{}
}
