// Package pipeline provides the core layout pipeline for Topoviz.
//
// This package implements the complete build → layout → route → fit →
// render pipeline that can be used by CLI and server components. By
// centralizing this logic, we ensure consistent behavior across all entry
// points and avoid code duplication.
//
// # Architecture
//
// The pipeline consists of five stages:
//
//  1. Build: Turn the flat vertex map into a containment tree
//  2. Layout: Assign every node a circle (pack or bottomup algorithm)
//  3. Route: Clip edges against containment boundaries
//  4. Fit: Compute the viewport transform
//  5. Render: Generate output in various formats (SVG, PNG, DOT, JSON)
//
// Layout, routing, and rendering are cached independently, keyed by
// content hashes of their inputs.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Algorithm: "pack",
//	    Formats:   []string{"svg"},
//	}
//	result, err := runner.Execute(ctx, sc, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/topoviz/topoviz/pkg/cache"
	"github.com/topoviz/topoviz/pkg/layout"
	"github.com/topoviz/topoviz/pkg/scene"
	"github.com/topoviz/topoviz/pkg/topo"
	"github.com/topoviz/topoviz/pkg/viewport"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultViewportWidth is the default viewport width in pixels.
	DefaultViewportWidth = 800.0

	// DefaultViewportHeight is the default viewport height in pixels.
	DefaultViewportHeight = 600.0
)

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatDOT  = "dot"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatDOT:  true,
	FormatJSON: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the layout pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Layout options
	Algorithm  string  `json:"algorithm,omitempty"`
	Padding    float64 `json:"padding,omitempty"`
	LeafRadius float64 `json:"leaf_radius,omitempty"`
	CanvasBase float64 `json:"canvas_base,omitempty"`

	// Viewport options
	ViewportWidth  float64 `json:"viewport_width,omitempty"`
	ViewportHeight float64 `json:"viewport_height,omitempty"`
	Margin         float64 `json:"margin,omitempty"`

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Labels   bool     `json:"labels,omitempty"`
	Detailed bool     `json:"detailed,omitempty"`
	PNGScale float64  `json:"png_scale,omitempty"`

	// LayoutOnly skips artifact rendering entirely; the layout document is
	// still assembled.
	LayoutOnly bool `json:"layout_only,omitempty"`

	// Refresh bypasses the cache for every stage.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Tree is the built and positioned containment tree.
	Tree *topo.Tree

	// SceneHash is the content hash of the input scene.
	SceneHash string

	// Layout is the assembled output document (circles, segments, transform).
	Layout *scene.Layout

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount    int
	EdgeCount    int
	SkippedEdges int
	BuildTime    time.Duration
	LayoutTime   time.Duration
	RouteTime    time.Duration
	RenderTime   time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool // Whether positions came from cache
	RouteHit  bool // Whether routed edges came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: svg, png, dot, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	o.SetLayoutDefaults()
	o.SetRenderDefaults()
	if err := layout.ValidateAlgorithm(o.Algorithm); err != nil {
		return err
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// SetLayoutDefaults sets default values for layout and viewport computation.
func (o *Options) SetLayoutDefaults() {
	if o.Algorithm == "" {
		o.Algorithm = layout.DefaultAlgorithm
	}
	if o.Padding == 0 {
		o.Padding = layout.DefaultPadding
	}
	if o.LeafRadius == 0 {
		o.LeafRadius = layout.DefaultLeafRadius
	}
	if o.CanvasBase == 0 {
		o.CanvasBase = layout.DefaultCanvasBase
	}
	if o.ViewportWidth == 0 {
		o.ViewportWidth = DefaultViewportWidth
	}
	if o.ViewportHeight == 0 {
		o.ViewportHeight = DefaultViewportHeight
	}
	if o.Margin == 0 {
		o.Margin = viewport.DefaultMargin
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 && !o.LayoutOnly {
		o.Formats = []string{FormatSVG}
	}
	if o.PNGScale == 0 {
		o.PNGScale = 2.0
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// LayoutOptions converts the pipeline options into layout engine options.
func (o *Options) LayoutOptions() layout.Options {
	return layout.Options{
		Algorithm:  o.Algorithm,
		Padding:    o.Padding,
		LeafRadius: o.LeafRadius,
		CanvasBase: o.CanvasBase,
		Logger:     o.Logger,
	}
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Algorithm:  o.Algorithm,
		Padding:    o.Padding,
		LeafRadius: o.LeafRadius,
		CanvasBase: o.CanvasBase,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format: format,
		Width:  int(o.ViewportWidth),
		Height: int(o.ViewportHeight),
	}
}
