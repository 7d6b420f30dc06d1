package geom

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

func TestLineCircleIntersections_Secant(t *testing.T) {
	// Horizontal segment through the center of a unit circle at the origin.
	c := Circle{Center: r2.Vec{}, R: 1}
	pts := LineCircleIntersections(r2.Vec{X: -2}, r2.Vec{X: 2}, c)

	if len(pts) != 2 {
		t.Fatalf("got %d intersections, want 2", len(pts))
	}
	if math.Abs(pts[0].P.X+1) > Epsilon || math.Abs(pts[1].P.X-1) > Epsilon {
		t.Errorf("intersections at x=%v, x=%v, want -1 and +1", pts[0].P.X, pts[1].P.X)
	}
	if pts[0].T >= pts[1].T {
		t.Errorf("intersections not sorted by t: %v, %v", pts[0].T, pts[1].T)
	}
}

func TestLineCircleIntersections_Miss(t *testing.T) {
	c := Circle{Center: r2.Vec{}, R: 1}
	pts := LineCircleIntersections(r2.Vec{X: -2, Y: 5}, r2.Vec{X: 2, Y: 5}, c)
	if len(pts) != 0 {
		t.Fatalf("got %d intersections, want 0", len(pts))
	}
}

func TestLineCircleIntersections_Tangent(t *testing.T) {
	// Segment grazing the top of the unit circle: the double root collapses.
	c := Circle{Center: r2.Vec{}, R: 1}
	pts := LineCircleIntersections(r2.Vec{X: -2, Y: 1}, r2.Vec{X: 2, Y: 1}, c)
	if len(pts) != 1 {
		t.Fatalf("got %d intersections, want 1 (tangent collapsed)", len(pts))
	}
}

func TestLineCircleIntersections_EndpointInside(t *testing.T) {
	// Segment starting inside the circle crosses the boundary exactly once.
	c := Circle{Center: r2.Vec{}, R: 1}
	pts := LineCircleIntersections(r2.Vec{}, r2.Vec{X: 3}, c)
	if len(pts) != 1 {
		t.Fatalf("got %d intersections, want 1", len(pts))
	}
	if math.Abs(pts[0].P.X-1) > Epsilon {
		t.Errorf("intersection at x=%v, want 1", pts[0].P.X)
	}
}

func TestLineCircleIntersections_ZeroLength(t *testing.T) {
	c := Circle{Center: r2.Vec{}, R: 1}
	p := r2.Vec{X: 0.5}
	if pts := LineCircleIntersections(p, p, c); pts != nil {
		t.Errorf("zero-length segment returned %d intersections, want none", len(pts))
	}
}

func TestLineCircleIntersections_PointsLieOnCircle(t *testing.T) {
	cases := []struct {
		name string
		a, b r2.Vec
		c    Circle
	}{
		{"diagonal", r2.Vec{X: -3, Y: -3}, r2.Vec{X: 3, Y: 3}, Circle{Center: r2.Vec{X: 0.5, Y: -0.2}, R: 1.7}},
		{"offset", r2.Vec{X: 10, Y: 2}, r2.Vec{X: -4, Y: 7}, Circle{Center: r2.Vec{X: 3, Y: 4}, R: 4}},
		{"small", r2.Vec{X: 0, Y: -1}, r2.Vec{X: 0, Y: 1}, Circle{Center: r2.Vec{}, R: 0.25}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pts := LineCircleIntersections(tc.a, tc.b, tc.c)
			if len(pts) > 2 {
				t.Fatalf("got %d intersections, want at most 2", len(pts))
			}
			for _, p := range pts {
				if p.T < 0 || p.T > 1 {
					t.Errorf("t=%v out of [0,1]", p.T)
				}
				if d := math.Abs(Dist(p.P, tc.c.Center) - tc.c.R); d > Epsilon {
					t.Errorf("point %v misses the circle boundary by %v", p.P, d)
				}
			}
		})
	}
}

func TestCircleContains(t *testing.T) {
	c := Circle{Center: r2.Vec{X: 1, Y: 1}, R: 2}

	if !c.Contains(r2.Vec{X: 1, Y: 1}) {
		t.Error("center should be inside")
	}
	if !c.Contains(r2.Vec{X: 3, Y: 1}) {
		t.Error("boundary point should count as inside")
	}
	if c.Contains(r2.Vec{X: 4, Y: 4}) {
		t.Error("distant point should be outside")
	}
}

func TestContainsCircle(t *testing.T) {
	outer := Circle{Center: r2.Vec{}, R: 10}

	if !outer.ContainsCircle(Circle{Center: r2.Vec{X: 3}, R: 2}, 1) {
		t.Error("inner circle with clearance should be contained")
	}
	if outer.ContainsCircle(Circle{Center: r2.Vec{X: 8}, R: 3}, 0) {
		t.Error("protruding circle should not be contained")
	}
}

func TestOverlaps(t *testing.T) {
	a := Circle{Center: r2.Vec{}, R: 2}

	if !a.Overlaps(Circle{Center: r2.Vec{X: 3}, R: 2}) {
		t.Error("intersecting circles should overlap")
	}
	if a.Overlaps(Circle{Center: r2.Vec{X: 4}, R: 2}) {
		t.Error("tangent circles should not count as overlapping")
	}
	if a.Overlaps(Circle{Center: r2.Vec{X: 10}, R: 2}) {
		t.Error("disjoint circles should not overlap")
	}
}

func TestEnclosingRadius(t *testing.T) {
	circles := []Circle{
		{Center: r2.Vec{X: 3}, R: 1},
		{Center: r2.Vec{X: -1, Y: 1}, R: 0.5},
	}
	if r := EnclosingRadius(circles); math.Abs(r-4) > Epsilon {
		t.Errorf("EnclosingRadius = %v, want 4", r)
	}
	if r := EnclosingRadius(nil); r != 0 {
		t.Errorf("EnclosingRadius(nil) = %v, want 0", r)
	}
}

func TestEnclosingCircle(t *testing.T) {
	circles := []Circle{
		{Center: r2.Vec{X: -2}, R: 1},
		{Center: r2.Vec{X: 2}, R: 1},
	}
	enc := EnclosingCircle(circles)
	if math.Abs(enc.Center.X) > Epsilon || math.Abs(enc.Center.Y) > Epsilon {
		t.Errorf("center = %v, want origin", enc.Center)
	}
	if math.Abs(enc.R-3) > Epsilon {
		t.Errorf("radius = %v, want 3", enc.R)
	}
	for _, c := range circles {
		if !enc.ContainsCircle(c, 0) {
			t.Errorf("enclosing circle does not contain %v", c)
		}
	}
}
