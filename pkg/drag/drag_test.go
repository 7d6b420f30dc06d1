package drag

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/topoviz/topoviz/pkg/layout"
	"github.com/topoviz/topoviz/pkg/topo"
)

// buildDragTree builds the drag fixture: two nested groups, three leaves.
//
//	net → {cluster → {dev-1, dev-2}, dev-3}
func buildDragTree(t *testing.T) (*topo.Tree, []topo.Edge) {
	t.Helper()
	tree, err := topo.Build(map[string]topo.Vertex{
		"net":     {ID: "net", Type: topo.TypeNetwork, Group: true},
		"cluster": {ID: "cluster", Type: topo.TypeCluster, ParentID: "net", Group: true},
		"dev-1":   {ID: "dev-1", Type: topo.TypeDevice, ParentID: "cluster"},
		"dev-2":   {ID: "dev-2", Type: topo.TypeDevice, ParentID: "cluster"},
		"dev-3":   {ID: "dev-3", Type: topo.TypeDevice, ParentID: "net"},
	})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if _, err := layout.Execute(tree, layout.Options{}); err != nil {
		t.Fatalf("layout error: %v", err)
	}
	edges := []topo.Edge{
		{From: "dev-1", To: "dev-2"},
		{From: "dev-2", To: "dev-3"},
	}
	return tree, edges
}

func TestDrag_GroupShiftsEveryDescendantExactly(t *testing.T) {
	tree, edges := buildDragTree(t)
	s := NewSession(tree, edges)

	before := map[string]r2.Vec{}
	for _, n := range tree.Nodes() {
		before[n.Vertex.ID] = n.Pos()
	}

	delta := r2.Vec{X: 37, Y: -12}
	cluster, _ := tree.Node("cluster")
	pointer := r2.Add(cluster.Pos(), delta)

	if err := s.Start("cluster"); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if _, err := s.Move("cluster", pointer); err != nil {
		t.Fatalf("Move() error: %v", err)
	}
	if _, err := s.End("cluster"); err != nil {
		t.Fatalf("End() error: %v", err)
	}

	for _, id := range []string{"cluster", "dev-1", "dev-2"} {
		n, _ := tree.Node(id)
		want := r2.Add(before[id], delta)
		if n.Pos() != want {
			t.Errorf("%s at %v, want %v", id, n.Pos(), want)
		}
	}
	// Nodes outside the dragged subtree must not move.
	for _, id := range []string{"net", "dev-3"} {
		n, _ := tree.Node(id)
		if n.Pos() != before[id] {
			t.Errorf("%s moved to %v, want untouched %v", id, n.Pos(), before[id])
		}
	}
}

func TestDrag_LeafMovesAlone(t *testing.T) {
	tree, edges := buildDragTree(t)
	s := NewSession(tree, edges)

	dev1, _ := tree.Node("dev-1")
	before := dev1.Pos()
	dev2, _ := tree.Node("dev-2")
	dev2Before := dev2.Pos()

	if err := s.Start("dev-1"); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	update, err := s.Move("dev-1", r2.Add(before, r2.Vec{X: 5, Y: 5}))
	if err != nil {
		t.Fatalf("Move() error: %v", err)
	}

	if len(update.Positions) != 1 {
		t.Errorf("leaf move reported %d positions, want 1", len(update.Positions))
	}
	if dev2.Pos() != dev2Before {
		t.Error("sibling leaf moved during a single-leaf drag")
	}
}

func TestDrag_MoveReroutesOnlyIncidentEdges(t *testing.T) {
	tree, edges := buildDragTree(t)
	s := NewSession(tree, edges)

	dev3, _ := tree.Node("dev-3")

	if err := s.Start("dev-3"); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	update, err := s.Move("dev-3", r2.Add(dev3.Pos(), r2.Vec{X: 20}))
	if err != nil {
		t.Fatalf("Move() error: %v", err)
	}

	// dev-3 touches only the dev-2 → dev-3 edge.
	if len(update.Edges) != 1 {
		t.Fatalf("re-routed %d edges, want 1", len(update.Edges))
	}
	e := update.Edges[0].Edge
	if e.From != "dev-2" || e.To != "dev-3" {
		t.Errorf("re-routed wrong edge: %s → %s", e.From, e.To)
	}
}

func TestDrag_GroupMoveReroutesSubtreeEdges(t *testing.T) {
	tree, edges := buildDragTree(t)
	s := NewSession(tree, edges)

	cluster, _ := tree.Node("cluster")

	if err := s.Start("cluster"); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	update, err := s.Move("cluster", r2.Add(cluster.Pos(), r2.Vec{Y: 30}))
	if err != nil {
		t.Fatalf("Move() error: %v", err)
	}

	// Both edges touch the moved subtree (dev-1→dev-2 inside, dev-2→dev-3
	// crossing out), each re-routed exactly once.
	if len(update.Edges) != 2 {
		t.Fatalf("re-routed %d edges, want 2", len(update.Edges))
	}
}

func TestDrag_RepeatedMovesDoNotAccumulate(t *testing.T) {
	tree, edges := buildDragTree(t)
	s := NewSession(tree, edges)

	dev1, _ := tree.Node("dev-1")
	anchor := dev1.Pos()

	if err := s.Start("dev-1"); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	// Many moves to the same pointer position must land on the same spot.
	target := r2.Add(anchor, r2.Vec{X: 10, Y: 10})
	for i := 0; i < 5; i++ {
		if _, err := s.Move("dev-1", target); err != nil {
			t.Fatalf("Move() error: %v", err)
		}
	}
	if dev1.Pos() != target {
		t.Errorf("dev-1 at %v after repeated moves, want %v", dev1.Pos(), target)
	}
}

func TestDrag_EndPersistsForNextDrag(t *testing.T) {
	tree, edges := buildDragTree(t)
	s := NewSession(tree, edges)

	dev1, _ := tree.Node("dev-1")
	start := dev1.Pos()

	s.Start("dev-1")
	s.Move("dev-1", r2.Add(start, r2.Vec{X: 10}))
	s.End("dev-1")

	// Second drag computes its delta from the persisted position.
	s.Start("dev-1")
	s.Move("dev-1", r2.Add(dev1.Pos(), r2.Vec{X: 10}))
	s.End("dev-1")

	want := r2.Add(start, r2.Vec{X: 20})
	if dev1.Pos() != want {
		t.Errorf("dev-1 at %v after two drags, want %v", dev1.Pos(), want)
	}
}

func TestDrag_StateMachine(t *testing.T) {
	tree, edges := buildDragTree(t)
	s := NewSession(tree, edges)

	if s.State() != StateIdle {
		t.Fatal("new session should be idle")
	}
	if _, err := s.Move("dev-1", r2.Vec{}); err == nil {
		t.Error("Move without Start should error")
	}
	if _, err := s.End("dev-1"); err == nil {
		t.Error("End without Start should error")
	}

	s.Start("dev-1")
	if s.State() != StateDragging || s.Active() != "dev-1" {
		t.Errorf("state = %v active = %q, want dragging dev-1", s.State(), s.Active())
	}
	if _, err := s.Move("dev-2", r2.Vec{}); err == nil {
		t.Error("Move for a different element should error")
	}

	s.End("dev-1")
	if s.State() != StateIdle {
		t.Error("session should return to idle after End")
	}
}

func TestDrag_StartWhileActiveAutoCancels(t *testing.T) {
	tree, edges := buildDragTree(t)
	s := NewSession(tree, edges)

	dev1, _ := tree.Node("dev-1")
	s.Start("dev-1")
	s.Move("dev-1", r2.Add(dev1.Pos(), r2.Vec{X: 15}))
	moved := dev1.Pos()

	// New drag on another element: previous drag finalizes, its positions
	// stay.
	if err := s.Start("dev-3"); err != nil {
		t.Fatalf("Start() while active error: %v", err)
	}
	if s.Active() != "dev-3" {
		t.Errorf("active = %q, want dev-3", s.Active())
	}
	if dev1.Pos() != moved {
		t.Error("auto-cancel reverted the previous drag's positions")
	}
	if _, err := s.Move("dev-1", r2.Vec{}); err == nil {
		t.Error("old element should no longer accept moves")
	}
}

func TestDrag_UnknownElement(t *testing.T) {
	tree, edges := buildDragTree(t)
	s := NewSession(tree, edges)

	if err := s.Start("ghost"); err == nil {
		t.Fatal("Start on unknown element should error")
	}
}
