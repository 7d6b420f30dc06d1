// Package svg renders a layout document as native SVG: containment circles,
// leaf dots, and routed edge polylines with foreign stretches dashed.
package svg

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/topoviz/topoviz/pkg/scene"
	"github.com/topoviz/topoviz/pkg/topo"
)

// tierColors maps vertex type tags to stroke colors. Unknown types fall
// back to neutral grey.
var tierColors = map[string]string{
	topo.TypeNetwork:     "#2563eb",
	topo.TypeCluster:     "#059669",
	topo.TypeApplication: "#d97706",
	topo.TypeDevice:      "#475569",
	topo.TypeService:     "#7c3aed",
}

const defaultColor = "#64748b"

// Option configures the SVG renderer.
type Option func(*renderer)

type renderer struct {
	labels    bool
	transform bool
}

// WithLabels draws each node's ID next to its circle.
func WithLabels() Option { return func(r *renderer) { r.labels = true } }

// WithTransform applies the layout's viewport transform to the content
// group instead of emitting raw content coordinates.
func WithTransform() Option { return func(r *renderer) { r.transform = true } }

// Render draws the layout as an SVG document. Groups are drawn before
// leaves, outermost first, so nesting paints correctly; edges go on top.
func Render(l *scene.Layout, opts ...Option) []byte {
	var r renderer
	for _, opt := range opts {
		opt(&r)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		l.Width, l.Height, l.Width, l.Height)
	buf.WriteString(`<rect width="100%" height="100%" fill="#f8fafc"/>` + "\n")

	if r.transform {
		fmt.Fprintf(&buf, `<g transform="translate(%.2f %.2f) scale(%.4f)">`+"\n",
			l.Transform.TranslateX, l.Transform.TranslateY, l.Transform.Scale)
	} else {
		buf.WriteString("<g>\n")
	}

	// Larger circles first so inner groups and leaves stay visible.
	nodes := make([]scene.PlacedNode, len(l.Nodes))
	copy(nodes, l.Nodes)
	sort.SliceStable(nodes, func(i, j int) bool { return nodes[i].R > nodes[j].R })

	for _, n := range nodes {
		color := tierColors[n.Type]
		if color == "" {
			color = defaultColor
		}
		if n.Group {
			fmt.Fprintf(&buf,
				`<circle id=%q cx="%.2f" cy="%.2f" r="%.2f" fill=%q fill-opacity="0.06" stroke=%q stroke-width="1.5"/>`+"\n",
				"group-"+n.ID, n.X, n.Y, n.R, color, color)
		} else {
			fmt.Fprintf(&buf,
				`<circle id=%q cx="%.2f" cy="%.2f" r="%.2f" fill=%q/>`+"\n",
				"node-"+n.ID, n.X, n.Y, n.R, color)
		}
	}

	for _, e := range l.Edges {
		for _, s := range e.Segments {
			if s.Home {
				fmt.Fprintf(&buf,
					`<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="#334155" stroke-width="1"/>`+"\n",
					s.X1, s.Y1, s.X2, s.Y2)
			} else {
				fmt.Fprintf(&buf,
					`<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="#dc2626" stroke-width="1" stroke-dasharray="4 3"/>`+"\n",
					s.X1, s.Y1, s.X2, s.Y2)
			}
		}
	}

	if r.labels {
		for _, n := range nodes {
			y := n.Y - n.R - 3
			if !n.Group {
				y = n.Y + n.R + 11
			}
			fmt.Fprintf(&buf,
				`<text x="%.2f" y="%.2f" text-anchor="middle" font-family="sans-serif" font-size="10" fill="#0f172a">%s</text>`+"\n",
				n.X, y, escape(n.ID))
		}
	}

	buf.WriteString("</g>\n</svg>\n")
	return buf.Bytes()
}

func escape(s string) string {
	var buf bytes.Buffer
	for _, r := range s {
		switch r {
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '&':
			buf.WriteString("&amp;")
		default:
			buf.WriteRune(r)
		}
	}
	return buf.String()
}
