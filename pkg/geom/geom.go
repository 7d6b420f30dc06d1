// Package geom provides the computational geometry primitives used by the
// layout and routing engines: circles, line–circle intersection, containment
// tests, and enclosing-radius computation.
//
// All coordinates are in user units (typically pixels in SVG). Points are
// represented as [r2.Vec] so vector arithmetic composes with the rest of the
// gonum spatial types.
package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Epsilon is the tolerance used when deduplicating intersection parameters
// and testing points against circle boundaries.
const Epsilon = 1e-3

// Circle is a circle with an absolute center and radius.
type Circle struct {
	Center r2.Vec
	R      float64
}

// Contains reports whether p lies inside the circle (boundary inclusive,
// within Epsilon).
func (c Circle) Contains(p r2.Vec) bool {
	return r2.Norm(r2.Sub(p, c.Center)) <= c.R+Epsilon
}

// ContainsCircle reports whether the inner circle lies fully inside c,
// with at least pad units of clearance to the boundary.
func (c Circle) ContainsCircle(inner Circle, pad float64) bool {
	return r2.Norm(r2.Sub(inner.Center, c.Center))+inner.R+pad <= c.R+Epsilon
}

// Overlaps reports whether two circles overlap (tangency does not count).
func (c Circle) Overlaps(o Circle) bool {
	return r2.Norm(r2.Sub(o.Center, c.Center)) < c.R+o.R-Epsilon
}

// Intersection is a point where a segment crosses a circle boundary,
// parameterized by t in [0,1] along the segment.
type Intersection struct {
	T float64
	P r2.Vec
}

// LineCircleIntersections returns the points where the segment a→b crosses
// the boundary of c. The segment is parameterized as a + t·(b−a); only roots
// with t in [0,1] are kept, and near-equal roots (|t1−t2| < Epsilon, the
// tangent case) are collapsed into one. The result has 0, 1, or 2 entries,
// sorted by t.
func LineCircleIntersections(a, b r2.Vec, c Circle) []Intersection {
	d := r2.Sub(b, a)
	f := r2.Sub(a, c.Center)

	// Quadratic At² + Bt + C = 0 for |a + t·d − center|² = r².
	A := r2.Dot(d, d)
	B := 2 * r2.Dot(f, d)
	C := r2.Dot(f, f) - c.R*c.R

	if A == 0 {
		// Degenerate zero-length segment: no boundary crossing.
		return nil
	}

	disc := B*B - 4*A*C
	if disc < 0 {
		return nil
	}

	sqrtDisc := math.Sqrt(disc)
	t1 := (-B - sqrtDisc) / (2 * A)
	t2 := (-B + sqrtDisc) / (2 * A)

	var out []Intersection
	for _, t := range []float64{t1, t2} {
		if t < 0 || t > 1 {
			continue
		}
		if len(out) > 0 && math.Abs(out[len(out)-1].T-t) < Epsilon {
			continue
		}
		out = append(out, Intersection{T: t, P: r2.Add(a, r2.Scale(t, d))})
	}
	return out
}

// Midpoint returns the point halfway between a and b.
func Midpoint(a, b r2.Vec) r2.Vec {
	return r2.Scale(0.5, r2.Add(a, b))
}

// Dist returns the Euclidean distance between a and b.
func Dist(a, b r2.Vec) float64 {
	return r2.Norm(r2.Sub(b, a))
}

// EnclosingRadius returns the smallest radius of a circle centered at the
// origin that contains every given circle, where circle centers are given
// relative to that origin. Returns 0 for an empty input.
func EnclosingRadius(circles []Circle) float64 {
	var max float64
	for _, c := range circles {
		if r := r2.Norm(c.Center) + c.R; r > max {
			max = r
		}
	}
	return max
}

// EnclosingCircle returns the circle centered on the centroid of the given
// circle centers whose radius covers every circle. It is not the minimal
// enclosing circle in the strict sense, but it is stable, deterministic, and
// tight enough for containment layout. Returns a zero Circle for empty input.
func EnclosingCircle(circles []Circle) Circle {
	if len(circles) == 0 {
		return Circle{}
	}
	var centroid r2.Vec
	for _, c := range circles {
		centroid = r2.Add(centroid, c.Center)
	}
	centroid = r2.Scale(1/float64(len(circles)), centroid)

	var max float64
	for _, c := range circles {
		if r := r2.Norm(r2.Sub(c.Center, centroid)) + c.R; r > max {
			max = r
		}
	}
	return Circle{Center: centroid, R: max}
}
