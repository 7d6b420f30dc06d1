// Package layout computes non-overlapping circle positions for a containment
// tree. Two interchangeable algorithms are provided:
//
//   - [AlgorithmPack]: recursive circle packing, leaves-to-root. Children are
//     packed inside their parent circle and the parent radius is derived from
//     the packed extent.
//   - [AlgorithmBottomUp]: level-by-level packing. All nodes are partitioned
//     by depth, levels are positioned deepest-first, and position deltas
//     cascade to already-positioned descendants.
//
// Both algorithms guarantee the same invariants: sibling circles never
// overlap, every child circle lies fully inside its parent circle minus the
// configured padding, and every assigned radius respects [MinRadius].
//
// The tree is mutated in place; callers that need the previous positions
// must rebuild the tree from the source vertices.
package layout

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/topoviz/topoviz/pkg/topo"
)

// Layout algorithms.
const (
	AlgorithmPack     = "pack"
	AlgorithmBottomUp = "bottomup"
)

// DefaultAlgorithm is used when Options.Algorithm is empty.
const DefaultAlgorithm = AlgorithmPack

// ValidAlgorithms is the set of supported layout algorithms.
var ValidAlgorithms = map[string]bool{
	AlgorithmPack:     true,
	AlgorithmBottomUp: true,
}

// Default layout constants. These can be overridden per run via Options or
// the CLI config file.
const (
	DefaultPadding    = 8.0
	DefaultLeafRadius = 14.0
	DefaultCanvasBase = 600.0
)

// MinRadius is the floor applied to every computed radius. A zero radius
// would make containment tests and edge clipping degenerate, so radii
// recover to this floor instead of failing.
const MinRadius = 1.0

// ValidateAlgorithm checks that an algorithm name is supported.
func ValidateAlgorithm(algorithm string) error {
	if !ValidAlgorithms[algorithm] {
		return fmt.Errorf("invalid algorithm: %q (must be one of: pack, bottomup)", algorithm)
	}
	return nil
}

// Options configures a layout run.
type Options struct {
	// Algorithm selects the layout strategy: "pack" (default) or "bottomup".
	Algorithm string

	// Padding is the clearance between sibling circles and between a child
	// circle and its parent's boundary.
	Padding float64

	// LeafRadius is the fixed radius assigned to leaf nodes.
	LeafRadius float64

	// CanvasBase is the base canvas edge length before the size estimator
	// scales it up for large or deep hierarchies.
	CanvasBase float64

	// Logger receives debug output. Defaults to a discard logger.
	Logger *log.Logger
}

// SetDefaults fills zero-valued fields with the package defaults.
func (o *Options) SetDefaults() {
	if o.Algorithm == "" {
		o.Algorithm = DefaultAlgorithm
	}
	if o.Padding <= 0 {
		o.Padding = DefaultPadding
	}
	if o.LeafRadius <= 0 {
		o.LeafRadius = DefaultLeafRadius
	}
	if o.CanvasBase <= 0 {
		o.CanvasBase = DefaultCanvasBase
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Execute runs the selected layout algorithm over the tree, assigning every
// node an absolute position and every group a radius. Returns the canvas the
// layout was computed for.
//
// Layout runs to completion synchronously; concurrent calls on the same tree
// are unsupported.
func Execute(tree *topo.Tree, opts Options) (Canvas, error) {
	opts.SetDefaults()
	if err := ValidateAlgorithm(opts.Algorithm); err != nil {
		return Canvas{}, err
	}

	canvas := EstimateCanvas(tree.Stats(), opts.CanvasBase, opts.Padding)
	opts.Logger.Debug("estimated canvas",
		"width", canvas.Width, "height", canvas.Height, "algorithm", opts.Algorithm)

	switch opts.Algorithm {
	case AlgorithmBottomUp:
		runBottomUp(tree, opts, canvas)
	default:
		runPack(tree, opts, canvas)
	}
	return canvas, nil
}
