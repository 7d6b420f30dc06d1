package layout

import (
	"math"
	"testing"
)

func TestPack_SiblingsNeverOverlap(t *testing.T) {
	tree := buildFixtureTree(t)
	if _, err := Execute(tree, Options{Algorithm: AlgorithmPack}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	for _, n := range tree.Nodes() {
		siblings := tree.Children(n.Vertex.ID)
		for i := 0; i < len(siblings); i++ {
			for j := i + 1; j < len(siblings); j++ {
				a, b := siblings[i], siblings[j]
				dist := math.Hypot(a.X-b.X, a.Y-b.Y)
				if dist < a.R+b.R-1e-6 {
					t.Errorf("siblings %s and %s overlap: dist %.2f < %.2f",
						a.Vertex.ID, b.Vertex.ID, dist, a.R+b.R)
				}
			}
		}
	}
}

func TestPack_ChildrenInsideParentMinusPadding(t *testing.T) {
	tree := buildFixtureTree(t)
	opts := Options{Algorithm: AlgorithmPack}
	if _, err := Execute(tree, opts); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	for _, n := range tree.Nodes() {
		parent := tree.Parent(n.Vertex.ID)
		if parent == nil {
			continue
		}
		dist := math.Hypot(n.X-parent.X, n.Y-parent.Y)
		if dist+n.R+DefaultPadding > parent.R+1e-6 {
			t.Errorf("%s breaches padding ring of %s: dist+r+pad = %.2f > R = %.2f",
				n.Vertex.ID, parent.Vertex.ID, dist+n.R+DefaultPadding, parent.R)
		}
	}
}

func TestPack_GroupRadiusEnclosesChildren(t *testing.T) {
	tree := randomTree(7, 4, 3)
	if _, err := Execute(tree, Options{Algorithm: AlgorithmPack}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	assertContainment(t, tree)
}

func TestPack_RootCenteredOnCanvas(t *testing.T) {
	tree := buildFixtureTree(t)
	canvas, err := Execute(tree, Options{Algorithm: AlgorithmPack})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	root := tree.Root()
	cx, cy := canvas.Center()
	if root.X != cx || root.Y != cy {
		t.Errorf("root at (%.1f, %.1f), want canvas center (%.1f, %.1f)",
			root.X, root.Y, cx, cy)
	}
}

func TestPack_RadiusFloor(t *testing.T) {
	tree := buildFixtureTree(t)
	// Degenerate configuration: radii recover to the floor instead of
	// collapsing to zero.
	opts := Options{Algorithm: AlgorithmPack, LeafRadius: -1, Padding: -1}
	if _, err := Execute(tree, opts); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	for _, n := range tree.Nodes() {
		if n.R < MinRadius {
			t.Errorf("%s radius %.3f below floor %v", n.Vertex.ID, n.R, MinRadius)
		}
	}
}

func TestExecute_RejectsUnknownAlgorithm(t *testing.T) {
	tree := buildFixtureTree(t)
	if _, err := Execute(tree, Options{Algorithm: "spiral"}); err == nil {
		t.Fatal("Execute() accepted an unknown algorithm")
	}
}
