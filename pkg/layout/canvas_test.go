package layout

import (
	"testing"

	"github.com/topoviz/topoviz/pkg/topo"
)

func TestEstimateCanvas_NeverBelowBase(t *testing.T) {
	c := EstimateCanvas(topo.Stats{}, 600, 0)
	if c.Width < 600 || c.Height < 600 {
		t.Errorf("canvas %vx%v shrank below base", c.Width, c.Height)
	}
}

func TestEstimateCanvas_GrowsWithHierarchy(t *testing.T) {
	small := EstimateCanvas(topo.Stats{Leaves: 5, Groups: 2, MaxDepth: 2}, 600, 8)
	large := EstimateCanvas(topo.Stats{Leaves: 500, Groups: 40, MaxDepth: 5}, 600, 8)
	if large.Width <= small.Width {
		t.Errorf("larger hierarchy got smaller canvas: %v <= %v", large.Width, small.Width)
	}
}

func TestEstimateCanvas_LogarithmicDamping(t *testing.T) {
	// A 100x increase in leaves should grow the canvas far less than 100x.
	base := EstimateCanvas(topo.Stats{Leaves: 10}, 600, 8)
	huge := EstimateCanvas(topo.Stats{Leaves: 1000}, 600, 8)
	if huge.Width > base.Width*2 {
		t.Errorf("canvas grew from %v to %v; log damping should bound this", base.Width, huge.Width)
	}
}
