// Package render provides output generation for positioned topologies.
//
// # Overview
//
// This package contains the rendering pipeline that transforms layout
// results into visual outputs. It provides:
//
//   - Generic format conversion (SVG to PDF/PNG)
//   - Native circle rendering (in [svg] subpackage)
//   - Graphviz cluster diagrams (in [dot] subpackage)
//
// # Format Conversion
//
// The [ToPDF] and [ToPNG] functions convert any SVG to other formats using
// the external rsvg-convert tool (from librsvg). These are used by both
// renderers.
//
//	out := svg.Render(layout)
//	pdf, err := render.ToPDF(out)
//	png, err := render.ToPNG(out, 2.0)  // 2x scale
//
// # Native SVG
//
// The [svg] subpackage draws the containment circles and routed edge
// polylines directly: groups as outlined circles, leaves as filled dots,
// foreign edge stretches dashed. This is the primary output format and
// preserves the exact computed geometry.
//
// # Graphviz Diagrams
//
// The [dot] subpackage emits the topology as a Graphviz digraph with nested
// clusters for containment, for quick structural inspection where exact
// geometry does not matter.
//
//	d := dot.ToDOT(tree, edges, dot.Options{})
//	out, err := dot.RenderSVG(d)
//
// [svg]: github.com/topoviz/topoviz/pkg/render/svg
// [dot]: github.com/topoviz/topoviz/pkg/render/dot
package render
