package layout

import (
	"cmp"
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/topoviz/topoviz/pkg/geom"
	"github.com/topoviz/topoviz/pkg/topo"
)

// goldenAngle spaces candidate positions on the placement spiral so that
// consecutive probes never align.
const goldenAngle = 2.399963229728653 // π·(3−√5)

// runPack lays out the tree by recursive circle packing, leaves-to-root.
// Every node ends up with an absolute position and radius; the root circle
// is centered on the canvas.
func runPack(tree *topo.Tree, opts Options, canvas Canvas) {
	p := &packer{tree: tree, opts: opts}
	root := tree.Root()
	p.pack(root)

	cx, cy := canvas.Center()
	root.X, root.Y = cx, cy
	p.absolutize(root)
}

type packer struct {
	tree *topo.Tree
	opts Options
}

// pack assigns n.R and positions n's children relative to n's center.
// Returns the subtree weight: 1 for a leaf, the sum of child weights for a
// group. Heavier subtrees are placed first so they end up near the center.
func (p *packer) pack(n *topo.Node) float64 {
	children := p.tree.Children(n.Vertex.ID)
	if len(children) == 0 {
		n.R = math.Max(p.opts.LeafRadius, MinRadius)
		if n.IsGroup() {
			// Empty group: reserve room for the padding ring.
			n.R += p.opts.Padding
		}
		return 1
	}

	weights := make(map[string]float64, len(children))
	var total float64
	for _, c := range children {
		w := p.pack(c)
		weights[c.Vertex.ID] = w
		total += w
	}

	order := slices.Clone(children)
	slices.SortStableFunc(order, func(a, b *topo.Node) int {
		if c := cmp.Compare(weights[b.Vertex.ID], weights[a.Vertex.ID]); c != 0 {
			return c
		}
		return cmp.Compare(a.Vertex.ID, b.Vertex.ID)
	})

	placed := make([]geom.Circle, 0, len(order))
	for _, c := range order {
		pos := p.place(placed, c.R)
		c.SetPos(pos)
		placed = append(placed, geom.Circle{Center: pos, R: c.R})
	}

	// Recenter the packed cluster so the parent's own center is the local
	// origin, then size the parent to enclose it plus padding.
	enc := geom.EnclosingCircle(placed)
	for _, c := range children {
		c.SetPos(r2.Sub(c.Pos(), enc.Center))
	}
	n.R = math.Max(enc.R+p.opts.Padding, MinRadius)
	return total
}

// place finds a position for a circle of radius r that keeps the configured
// padding to every already-placed sibling. The first circle sits at the
// origin; later circles probe outward along a golden-angle spiral and take
// the first free spot. The spiral is unbounded, so the search always
// terminates.
func (p *packer) place(placed []geom.Circle, r float64) r2.Vec {
	if len(placed) == 0 {
		return r2.Vec{}
	}
	step := math.Max(p.opts.LeafRadius, r) / 4
	for k := 1; ; k++ {
		radius := step * math.Sqrt(float64(k))
		angle := goldenAngle * float64(k)
		pos := r2.Vec{X: radius * math.Cos(angle), Y: radius * math.Sin(angle)}
		if p.fits(placed, pos, r) {
			return pos
		}
	}
}

func (p *packer) fits(placed []geom.Circle, pos r2.Vec, r float64) bool {
	for _, c := range placed {
		if geom.Dist(pos, c.Center) < c.R+r+p.opts.Padding-geom.Epsilon {
			return false
		}
	}
	return true
}

// absolutize converts the relative child offsets produced by pack into
// absolute coordinates, top-down from the root.
func (p *packer) absolutize(n *topo.Node) {
	for _, c := range p.tree.Children(n.Vertex.ID) {
		c.SetPos(r2.Add(n.Pos(), c.Pos()))
		p.absolutize(c)
	}
}
