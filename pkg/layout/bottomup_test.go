package layout

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/topoviz/topoviz/pkg/topo"
)

// buildFixtureTree constructs the four-tier chain plus a sibling branch:
//
//	net → {cluster-a → {app → {dev-1, dev-2}}, cluster-b → {dev-3}}
func buildFixtureTree(t *testing.T) *topo.Tree {
	t.Helper()
	tree, err := topo.Build(map[string]topo.Vertex{
		"net":       {ID: "net", Type: topo.TypeNetwork, Group: true},
		"cluster-a": {ID: "cluster-a", Type: topo.TypeCluster, ParentID: "net", Group: true},
		"cluster-b": {ID: "cluster-b", Type: topo.TypeCluster, ParentID: "net", Group: true},
		"app":       {ID: "app", Type: topo.TypeApplication, ParentID: "cluster-a", Group: true},
		"dev-1":     {ID: "dev-1", Type: topo.TypeDevice, ParentID: "app"},
		"dev-2":     {ID: "dev-2", Type: topo.TypeDevice, ParentID: "app"},
		"dev-3":     {ID: "dev-3", Type: topo.TypeDevice, ParentID: "cluster-b"},
	})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	return tree
}

// randomTree builds a tree with randomized branching and depth from a seed.
func randomTree(seed int64, breadth, depth int) *topo.Tree {
	rng := rand.New(rand.NewSource(seed))
	vertices := map[string]topo.Vertex{
		"root": {ID: "root", Type: topo.TypeNetwork, Group: true},
	}

	var grow func(parent string, level int)
	grow = func(parent string, level int) {
		if level >= depth {
			return
		}
		n := 1 + rng.Intn(breadth)
		for i := 0; i < n; i++ {
			id := fmt.Sprintf("%s.%d", parent, i)
			group := level < depth-1 && rng.Intn(2) == 0
			vertices[id] = topo.Vertex{
				ID:       id,
				Type:     topo.TypeDevice,
				ParentID: parent,
				Group:    group,
			}
			if group {
				grow(id, level+1)
			}
		}
	}
	grow("root", 0)

	tree, err := topo.Build(vertices)
	if err != nil {
		panic(err) // random trees are cycle-free by construction
	}
	return tree
}

func TestBuildLevels_PartitionsByDepth(t *testing.T) {
	tree := buildFixtureTree(t)
	levels := BuildLevels(tree)

	if len(levels) != 4 {
		t.Fatalf("got %d levels, want 4", len(levels))
	}

	seen := map[string]int{}
	total := 0
	for i, level := range levels {
		wantDepth := len(levels) - 1 - i
		for _, n := range level {
			if n.Depth != wantDepth {
				t.Errorf("level %d contains %s with depth %d, want %d",
					i, n.Vertex.ID, n.Depth, wantDepth)
			}
			seen[n.Vertex.ID]++
			total++
		}
	}
	if total != tree.Len() {
		t.Errorf("levels contain %d nodes, tree has %d", total, tree.Len())
	}
	for id, count := range seen {
		if count != 1 {
			t.Errorf("node %s appears in %d levels, want 1", id, count)
		}
	}
}

func TestPositionElementsAtLevel_NoOverlap(t *testing.T) {
	tree := buildFixtureTree(t)
	if _, err := Execute(tree, Options{Algorithm: AlgorithmBottomUp}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	for _, level := range BuildLevels(tree) {
		assertLevelSeparated(t, level)
	}
}

func assertLevelSeparated(t *testing.T, level []*topo.Node) {
	t.Helper()
	for i := 0; i < len(level); i++ {
		for j := i + 1; j < len(level); j++ {
			a, b := level[i], level[j]
			dist := math.Hypot(a.X-b.X, a.Y-b.Y)
			if dist < a.R+b.R-1e-6 {
				t.Errorf("level overlap: %s (r=%.1f) and %s (r=%.1f) at distance %.2f",
					a.Vertex.ID, a.R, b.Vertex.ID, b.R, dist)
			}
		}
	}
}

// Property: for any randomized branching/depth, every pair of same-level
// elements keeps center distance ≥ sum of radii after the bottom-up layout.
func TestBottomUp_LevelSeparationProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	properties.Property("same-level circles never overlap", prop.ForAll(
		func(seed int64, breadth, depth int) bool {
			tree := randomTree(seed, breadth, depth)
			if _, err := Execute(tree, Options{Algorithm: AlgorithmBottomUp}); err != nil {
				return false
			}
			for _, level := range BuildLevels(tree) {
				for i := 0; i < len(level); i++ {
					for j := i + 1; j < len(level); j++ {
						a, b := level[i], level[j]
						if math.Hypot(a.X-b.X, a.Y-b.Y) < a.R+b.R-1e-6 {
							return false
						}
					}
				}
			}
			return true
		},
		gen.Int64(),
		gen.IntRange(1, 4),
		gen.IntRange(1, 4),
	))

	properties.TestingRun(t)
}

// Property: cascading an offset and then its negation restores every
// descendant position.
func TestCascade_InverseIsIdentity(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	properties.Property("cascade(+d) then cascade(-d) is identity", prop.ForAll(
		func(dx, dy float64) bool {
			tree := randomTree(42, 3, 3)
			if _, err := Execute(tree, Options{Algorithm: AlgorithmBottomUp}); err != nil {
				return false
			}

			before := map[string]r2.Vec{}
			for _, n := range tree.Nodes() {
				before[n.Vertex.ID] = n.Pos()
			}

			offset := r2.Vec{X: dx, Y: dy}
			CascadePositionToDescendants(tree, "root", offset)
			CascadePositionToDescendants(tree, "root", r2.Scale(-1, offset))

			for _, n := range tree.Nodes() {
				orig := before[n.Vertex.ID]
				if math.Abs(n.X-orig.X) > 1e-9 || math.Abs(n.Y-orig.Y) > 1e-9 {
					return false
				}
			}
			return true
		},
		gen.Float64Range(-1000, 1000),
		gen.Float64Range(-1000, 1000),
	))

	properties.TestingRun(t)
}

func TestCascade_ShiftsOnlyDescendants(t *testing.T) {
	tree := buildFixtureTree(t)
	if _, err := Execute(tree, Options{Algorithm: AlgorithmBottomUp}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	clusterA, _ := tree.Node("cluster-a")
	clusterB, _ := tree.Node("cluster-b")
	dev1, _ := tree.Node("dev-1")
	beforeA := clusterA.Pos()
	beforeB := clusterB.Pos()
	beforeDev := dev1.Pos()

	CascadePositionToDescendants(tree, "cluster-a", r2.Vec{X: 10, Y: -5})

	if clusterA.Pos() != beforeA {
		t.Error("cascade moved the node itself; only strict descendants should shift")
	}
	if clusterB.Pos() != beforeB {
		t.Error("cascade leaked into a sibling branch")
	}
	want := r2.Add(beforeDev, r2.Vec{X: 10, Y: -5})
	if dev1.Pos() != want {
		t.Errorf("dev-1 at %v, want %v", dev1.Pos(), want)
	}
}

func TestBottomUp_ChildrenStayInsideGroups(t *testing.T) {
	tree := buildFixtureTree(t)
	if _, err := Execute(tree, Options{Algorithm: AlgorithmBottomUp}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	assertContainment(t, tree)
}

// assertContainment verifies that every child circle lies fully inside its
// parent circle.
func assertContainment(t *testing.T, tree *topo.Tree) {
	t.Helper()
	for _, n := range tree.Nodes() {
		parent := tree.Parent(n.Vertex.ID)
		if parent == nil {
			continue
		}
		dist := math.Hypot(n.X-parent.X, n.Y-parent.Y)
		if dist+n.R > parent.R+1e-6 {
			t.Errorf("%s (r=%.2f) protrudes from %s (r=%.2f): dist %.2f",
				n.Vertex.ID, n.R, parent.Vertex.ID, parent.R, dist)
		}
	}
}
