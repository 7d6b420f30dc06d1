// Package viewport fits a positioned tree into a bounded viewport.
//
// Fit computes the bounding box over every non-virtual circle plus a fixed
// margin, then a uniform scale capped at 1:1 (content is never upscaled)
// and a translation that centers the content. The result is a single
// [Transform], meant to be applied without animation on first layout.
package viewport

import "github.com/topoviz/topoviz/pkg/topo"

// DefaultMargin is the padding added around the content bounding box, in
// content units.
const DefaultMargin = 20.0

// Transform maps content coordinates into viewport coordinates:
// viewport = content·Scale + Translate.
type Transform struct {
	Scale      float64 `json:"scale" yaml:"scale"`
	TranslateX float64 `json:"translateX" yaml:"translateX"`
	TranslateY float64 `json:"translateY" yaml:"translateY"`
}

// Size is a viewport extent in device units.
type Size struct {
	Width  float64
	Height float64
}

// Fit computes the transform that fits the tree's content into the
// viewport. The scale is min(vw/cw, vh/ch, 1); an empty tree (or one with
// only the virtual root) yields the identity transform centered on the
// viewport origin offset.
func Fit(tree *topo.Tree, vp Size, margin float64) Transform {
	minX, minY, maxX, maxY, ok := bounds(tree)
	if !ok {
		return Transform{Scale: 1}
	}

	minX -= margin
	minY -= margin
	maxX += margin
	maxY += margin

	cw := maxX - minX
	ch := maxY - minY

	scale := 1.0
	if cw > 0 && vp.Width/cw < scale {
		scale = vp.Width / cw
	}
	if ch > 0 && vp.Height/ch < scale {
		scale = vp.Height / ch
	}

	// Center the scaled content in the viewport.
	cx := (minX + maxX) / 2
	cy := (minY + maxY) / 2
	return Transform{
		Scale:      scale,
		TranslateX: vp.Width/2 - cx*scale,
		TranslateY: vp.Height/2 - cy*scale,
	}
}

// bounds returns the bounding box over every non-virtual circle
// (center ± radius). ok is false when no such node exists.
func bounds(tree *topo.Tree) (minX, minY, maxX, maxY float64, ok bool) {
	for _, n := range tree.Nodes() {
		if n.Virtual {
			continue
		}
		if !ok {
			minX, minY = n.X-n.R, n.Y-n.R
			maxX, maxY = n.X+n.R, n.Y+n.R
			ok = true
			continue
		}
		minX = min(minX, n.X-n.R)
		minY = min(minY, n.Y-n.R)
		maxX = max(maxX, n.X+n.R)
		maxY = max(maxY, n.Y+n.R)
	}
	return minX, minY, maxX, maxY, ok
}
