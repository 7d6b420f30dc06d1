// Package dot renders a topology as a Graphviz digraph with nested clusters
// for containment.
package dot

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/topoviz/topoviz/pkg/render"
	"github.com/topoviz/topoviz/pkg/topo"
)

// Options configures DOT generation.
type Options struct {
	// Detailed includes the type tag and display attributes in node labels.
	// When false, only the node ID is shown.
	Detailed bool
}

// ToDOT converts a tree and its edges to Graphviz DOT format. Groups become
// nested subgraph clusters; leaves become circle nodes. The resulting DOT
// string can be rendered with [RenderSVG] or [RenderPNG].
func ToDOT(tree *topo.Tree, edges []topo.Edge, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph topology {\n")
	buf.WriteString("  compound=true;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=circle, style=filled, fillcolor=white, fontsize=12];\n")
	buf.WriteString("\n")

	root := tree.Root()
	if root.Virtual {
		for _, c := range tree.Children(root.Vertex.ID) {
			writeNode(&buf, tree, c, 1, opts)
		}
	} else {
		writeNode(&buf, tree, root, 1, opts)
	}

	buf.WriteString("\n")
	for _, e := range edges {
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func writeNode(buf *bytes.Buffer, tree *topo.Tree, n *topo.Node, depth int, opts Options) {
	indent := strings.Repeat("  ", depth)
	if !n.IsGroup() {
		fmt.Fprintf(buf, "%s%q [label=%q];\n", indent, n.Vertex.ID, fmtLabel(n, opts.Detailed))
		return
	}

	fmt.Fprintf(buf, "%ssubgraph \"cluster_%s\" {\n", indent, n.Vertex.ID)
	fmt.Fprintf(buf, "%s  label=%q;\n", indent, fmtLabel(n, opts.Detailed))
	fmt.Fprintf(buf, "%s  style=rounded;\n", indent)
	for _, c := range tree.Children(n.Vertex.ID) {
		writeNode(buf, tree, c, depth+1, opts)
	}
	fmt.Fprintf(buf, "%s}\n", indent)
}

func fmtLabel(n *topo.Node, detailed bool) string {
	if !detailed {
		return n.Vertex.ID
	}

	parts := []string{n.Vertex.Type}
	for _, k := range slices.Sorted(maps.Keys(n.Vertex.Attrs)) {
		parts = append(parts, fmt.Sprintf("%s: %v", k, n.Vertex.Attrs[k]))
	}
	return n.Vertex.ID + "\n" + strings.Join(parts, "\n")
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with
// [render.ToPDF] or [render.ToPNG].
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

// RenderPNG renders a DOT graph as PNG via SVG conversion.
// This is a convenience wrapper around [RenderSVG] and [render.ToPNG].
//
// A scale of 2.0 produces a 2x resolution image suitable for high-DPI displays.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(svg, scale)
}
