package layout

import (
	"math"

	"github.com/topoviz/topoviz/pkg/topo"
)

// Canvas is the target drawing area for a layout run.
type Canvas struct {
	Width  float64
	Height float64
}

// Center returns the canvas midpoint coordinates.
func (c Canvas) Center() (x, y float64) {
	return c.Width / 2, c.Height / 2
}

// Growth constants for the canvas estimator. The logarithmic leaf and group
// terms keep the canvas from growing linearly with very large graphs while
// still giving breathing room; the depth term is linear because every extra
// containment level needs real radial space.
const (
	canvasLogFactor   = 0.3
	canvasDepthFactor = 0.1
)

// EstimateCanvas derives a target canvas size from hierarchy statistics.
//
// The scale factor is
//
//	max(1, 1 + k·log10(L+1) + k·log10(G+1) + c·D + P/200)
//
// with L leaves, G groups, D max depth, and P the padding constant. Width
// and height are the base edge length multiplied by that factor.
func EstimateCanvas(s topo.Stats, base, padding float64) Canvas {
	scale := 1 +
		canvasLogFactor*math.Log10(float64(s.Leaves)+1) +
		canvasLogFactor*math.Log10(float64(s.Groups)+1) +
		canvasDepthFactor*float64(s.MaxDepth) +
		padding/200
	scale = math.Max(1, scale)
	return Canvas{Width: base * scale, Height: base * scale}
}
