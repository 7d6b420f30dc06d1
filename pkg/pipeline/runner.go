package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/topoviz/topoviz/pkg/cache"
	apperrors "github.com/topoviz/topoviz/pkg/errors"
	"github.com/topoviz/topoviz/pkg/layout"
	"github.com/topoviz/topoviz/pkg/observability"
	"github.com/topoviz/topoviz/pkg/render"
	"github.com/topoviz/topoviz/pkg/render/dot"
	svgrender "github.com/topoviz/topoviz/pkg/render/svg"
	"github.com/topoviz/topoviz/pkg/route"
	"github.com/topoviz/topoviz/pkg/scene"
	"github.com/topoviz/topoviz/pkg/topo"
	"github.com/topoviz/topoviz/pkg/viewport"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and server can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options, but each call needs its own tree.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// layoutPayload is the cached form of a layout stage result: the canvas
// plus every node's circle, including the virtual root.
type layoutPayload struct {
	Width  float64            `json:"width"`
	Height float64            `json:"height"`
	Nodes  []scene.PlacedNode `json:"nodes"`
}

// Execute runs the complete build → layout → route → fit → render pipeline
// with caching.
func (r *Runner) Execute(ctx context.Context, sc *scene.Scene, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)
	hooks := observability.Pipeline()

	result := &Result{
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Build
	vertices, edges, err := sc.Topology()
	if err != nil {
		return nil, fmt.Errorf("scene: %w", err)
	}
	buildStart := time.Now()
	hooks.OnBuildStart(ctx, len(vertices))
	tree, err := topo.Build(vertices)
	result.Stats.BuildTime = time.Since(buildStart)
	hooks.OnBuildComplete(ctx, treeLen(tree), result.Stats.BuildTime, err)
	if err != nil {
		// Cycles and bad vertex IDs are structural: callers map this code to
		// a client error, not a server failure.
		return nil, apperrors.Wrap(apperrors.ErrCodeStructural, err, "build")
	}
	result.Tree = tree
	result.Stats.NodeCount = tree.Len()
	result.Stats.EdgeCount = len(edges)

	if sceneData, err := json.Marshal(sc); err == nil {
		result.SceneHash = cache.Hash(sceneData)
	}

	r.Logger.Info("built hierarchy",
		"vertices", len(vertices),
		"nodes", tree.Len(),
		"duration", result.Stats.BuildTime)

	// Stage 2: Layout
	layoutStart := time.Now()
	hooks.OnLayoutStart(ctx, opts.Algorithm, tree.Len())
	canvas, layoutHash, layoutHit, err := r.LayoutWithCacheInfo(ctx, tree, result.SceneHash, opts)
	result.Stats.LayoutTime = time.Since(layoutStart)
	hooks.OnLayoutComplete(ctx, opts.Algorithm, result.Stats.LayoutTime, err)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.CacheInfo.LayoutHit = layoutHit

	r.Logger.Info("computed layout",
		"algorithm", opts.Algorithm,
		"canvas", fmt.Sprintf("%.0fx%.0f", canvas.Width, canvas.Height),
		"cached", layoutHit,
		"duration", result.Stats.LayoutTime)

	// Stage 3: Route
	routeStart := time.Now()
	hooks.OnRouteStart(ctx, len(edges))
	routed, routeHit, err := r.RouteWithCacheInfo(ctx, tree, edges, layoutHash, opts)
	result.Stats.RouteTime = time.Since(routeStart)
	hooks.OnRouteComplete(ctx, len(routed.Edges), len(routed.Skipped), result.Stats.RouteTime, err)
	if err != nil {
		return nil, fmt.Errorf("route: %w", err)
	}
	result.CacheInfo.RouteHit = routeHit
	result.Stats.SkippedEdges = len(routed.Skipped)

	r.Logger.Info("routed edges",
		"routed", len(routed.Edges),
		"skipped", len(routed.Skipped),
		"cached", routeHit,
		"duration", result.Stats.RouteTime)

	// Stage 4: Fit
	tr := viewport.Fit(tree, viewport.Size{Width: opts.ViewportWidth, Height: opts.ViewportHeight}, opts.Margin)
	result.Layout = scene.FromTree(tree, canvas.Width, canvas.Height, routed, tr)

	// Stage 5: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, result.Layout, tree, edges, layoutHash, opts)
	result.Stats.RenderTime = time.Since(renderStart)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// LayoutWithCacheInfo runs the layout stage with caching. On a cache hit
// the stored positions are applied to the tree without recomputation. The
// returned hash identifies the positioned geometry and keys the downstream
// stages.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, tree *topo.Tree, sceneHash string, opts Options) (layout.Canvas, string, bool, error) {
	opts.SetLayoutDefaults()
	cacheHooks := observability.Cache()
	cacheKey := r.Keyer.LayoutKey(sceneHash, opts.LayoutKeyOpts())

	if !opts.Refresh && sceneHash != "" {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var payload layoutPayload
			if err := json.Unmarshal(data, &payload); err == nil && applyPositions(tree, payload.Nodes) {
				cacheHooks.OnCacheHit(ctx, "layout")
				return layout.Canvas{Width: payload.Width, Height: payload.Height}, cache.Hash(data), true, nil
			}
			// Stale or mismatched entry - recompute below.
		}
		cacheHooks.OnCacheMiss(ctx, "layout")
	}

	canvas, err := layout.Execute(tree, opts.LayoutOptions())
	if err != nil {
		return layout.Canvas{}, "", false, err
	}

	data, err := json.Marshal(snapshotPositions(tree, canvas))
	if err != nil {
		return layout.Canvas{}, "", false, fmt.Errorf("serialize layout: %w", err)
	}
	if !opts.Refresh && sceneHash != "" {
		if err := r.Cache.Set(ctx, cacheKey, data, cache.LayoutTTL); err == nil {
			cacheHooks.OnCacheSet(ctx, "layout", len(data))
		}
	}

	return canvas, cache.Hash(data), false, nil
}

// RouteWithCacheInfo runs the routing stage with caching, keyed by the
// layout geometry hash.
func (r *Runner) RouteWithCacheInfo(ctx context.Context, tree *topo.Tree, edges []topo.Edge, layoutHash string, opts Options) (route.Result, bool, error) {
	cacheHooks := observability.Cache()
	cacheKey := r.Keyer.RouteKey(layoutHash)

	if !opts.Refresh && layoutHash != "" {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var cached route.Result
			if err := json.Unmarshal(data, &cached); err == nil {
				cacheHooks.OnCacheHit(ctx, "route")
				return cached, true, nil
			}
		}
		cacheHooks.OnCacheMiss(ctx, "route")
	}

	router := route.New(tree)
	res := router.Route(edges)

	if !opts.Refresh && layoutHash != "" {
		if data, err := json.Marshal(res); err == nil {
			if err := r.Cache.Set(ctx, cacheKey, data, cache.RouteTTL); err == nil {
				cacheHooks.OnCacheSet(ctx, "route", len(data))
			}
		}
	}

	return res, false, nil
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, doc *scene.Layout, tree *topo.Tree, edges []topo.Edge, layoutHash string, opts Options) (map[string][]byte, bool, error) {
	opts.SetRenderDefaults()
	if err := ValidateFormats(opts.Formats); err != nil {
		return nil, false, err
	}
	cacheHooks := observability.Cache()

	// Try to get all formats from cache
	allCached := true
	artifacts := make(map[string][]byte)

	if !opts.Refresh && layoutHash != "" {
		for _, format := range opts.Formats {
			cacheKey := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
			if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
				artifacts[format] = data
			} else {
				allCached = false
				break
			}
		}
		if allCached && len(artifacts) == len(opts.Formats) {
			cacheHooks.OnCacheHit(ctx, "artifact")
			return artifacts, true, nil
		}
		cacheHooks.OnCacheMiss(ctx, "artifact")
	}

	rendered := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		data, err := r.renderFormat(doc, tree, edges, format, opts)
		if err != nil {
			return nil, false, fmt.Errorf("render %s: %w", format, err)
		}
		rendered[format] = data
	}

	if !opts.Refresh && layoutHash != "" {
		for format, data := range rendered {
			cacheKey := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
			if err := r.Cache.Set(ctx, cacheKey, data, cache.ArtifactTTL); err == nil {
				cacheHooks.OnCacheSet(ctx, "artifact", len(data))
			}
		}
	}

	return rendered, false, nil
}

func (r *Runner) renderFormat(doc *scene.Layout, tree *topo.Tree, edges []topo.Edge, format string, opts Options) ([]byte, error) {
	switch format {
	case FormatJSON:
		return json.MarshalIndent(doc, "", "  ")
	case FormatSVG:
		return svgrender.Render(doc, r.svgOptions(opts)...), nil
	case FormatPNG:
		svg := svgrender.Render(doc, r.svgOptions(opts)...)
		return render.ToPNG(svg, opts.PNGScale)
	case FormatDOT:
		return []byte(dot.ToDOT(tree, edges, dot.Options{Detailed: opts.Detailed})), nil
	default:
		return nil, fmt.Errorf("invalid format: %q", format)
	}
}

func (r *Runner) svgOptions(opts Options) []svgrender.Option {
	var svgOpts []svgrender.Option
	if opts.Labels {
		svgOpts = append(svgOpts, svgrender.WithLabels())
	}
	return svgOpts
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// snapshotPositions captures every node circle, virtual root included, so a
// cache hit can restore the exact geometry.
func snapshotPositions(tree *topo.Tree, canvas layout.Canvas) layoutPayload {
	payload := layoutPayload{Width: canvas.Width, Height: canvas.Height}
	for _, n := range tree.Nodes() {
		payload.Nodes = append(payload.Nodes, scene.PlacedNode{
			ID:    n.Vertex.ID,
			Type:  n.Vertex.Type,
			Group: n.IsGroup(),
			X:     n.X,
			Y:     n.Y,
			R:     n.R,
		})
	}
	return payload
}

// applyPositions writes cached circles back onto the tree. Returns false
// when the cached node set does not exactly match the tree, in which case
// the layout is recomputed.
func applyPositions(tree *topo.Tree, nodes []scene.PlacedNode) bool {
	if len(nodes) != tree.Len() {
		return false
	}
	for _, pn := range nodes {
		if _, ok := tree.Node(pn.ID); !ok {
			return false
		}
	}
	for _, pn := range nodes {
		n, _ := tree.Node(pn.ID)
		n.X, n.Y, n.R = pn.X, pn.Y, pn.R
	}
	return true
}

func treeLen(tree *topo.Tree) int {
	if tree == nil {
		return 0
	}
	return tree.Len()
}
