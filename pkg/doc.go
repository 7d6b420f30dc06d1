// Package pkg provides the core libraries for Topoviz topology visualization.
//
// # Overview
//
// Topoviz lays out hierarchical infrastructure topologies (networks containing
// clusters containing applications and devices) as nested circles, routes the
// relationships between them, and renders the result. The pkg directory is
// organized into four main areas:
//
//  1. [topo], [layout], [route] - Domain logic (hierarchy, packing, routing)
//  2. [drag], [viewport] - Interaction (repositioning, fitting)
//  3. [cache], [store], [observability] - Infrastructure
//  4. [pipeline], [scene], [render] - Orchestration and I/O
//
// # Architecture
//
// The typical data flow through Topoviz:
//
//	Scene file (JSON/YAML)
//	         ↓
//	    [topo] package (containment hierarchy)
//	         ↓
//	    [layout] package (circle packing)
//	         ↓
//	    [route] package (edge clipping)
//	         ↓
//	    [viewport] package (fit transform)
//	         ↓
//	    SVG/PNG/DOT/JSON output
//
// # Quick Start
//
//	import (
//	    "github.com/topoviz/topoviz/pkg/cache"
//	    "github.com/topoviz/topoviz/pkg/pipeline"
//	    "github.com/topoviz/topoviz/pkg/scene"
//	)
//
//	func main() {
//	    sc, _ := scene.LoadScene("topology.json")
//	    runner := pipeline.NewRunner(cache.NewNullCache(), nil, nil)
//	    defer runner.Close()
//
//	    opts := pipeline.Options{}
//	    opts.SetLayoutDefaults()
//	    opts.SetRenderDefaults()
//
//	    result, _ := runner.Execute(context.Background(), sc, opts)
//	    os.WriteFile("topology.svg", result.Artifacts["svg"], 0o644)
//	}
//
// # Package Index
//
// Domain:
//   - [topo]: Vertex model and containment tree construction
//   - [layout]: Circle-pack and bottom-up layout algorithms
//   - [route]: Straight-line edge routing with boundary clipping
//   - [geom]: Circle and segment primitives shared by layout and routing
//
// Interaction:
//   - [drag]: Drag sessions with incremental re-routing
//   - [viewport]: Fit-to-viewport transform computation
//
// Infrastructure:
//   - [cache]: Content-addressed result caching (file, Redis, null)
//   - [store]: Snapshot persistence (memory, MongoDB)
//   - [observability]: Hook interfaces for metrics backends
//   - [errors]: Structured errors with stable codes
//
// Orchestration:
//   - [pipeline]: Build → layout → route → fit → render runner
//   - [scene]: Wire formats for scenes and layout documents
//   - [render]: SVG, DOT, and raster artifact generation
//
// [topo]: https://pkg.go.dev/github.com/topoviz/topoviz/pkg/topo
// [layout]: https://pkg.go.dev/github.com/topoviz/topoviz/pkg/layout
// [route]: https://pkg.go.dev/github.com/topoviz/topoviz/pkg/route
// [geom]: https://pkg.go.dev/github.com/topoviz/topoviz/pkg/geom
// [drag]: https://pkg.go.dev/github.com/topoviz/topoviz/pkg/drag
// [viewport]: https://pkg.go.dev/github.com/topoviz/topoviz/pkg/viewport
// [cache]: https://pkg.go.dev/github.com/topoviz/topoviz/pkg/cache
// [store]: https://pkg.go.dev/github.com/topoviz/topoviz/pkg/store
// [observability]: https://pkg.go.dev/github.com/topoviz/topoviz/pkg/observability
// [errors]: https://pkg.go.dev/github.com/topoviz/topoviz/pkg/errors
// [pipeline]: https://pkg.go.dev/github.com/topoviz/topoviz/pkg/pipeline
// [scene]: https://pkg.go.dev/github.com/topoviz/topoviz/pkg/scene
// [render]: https://pkg.go.dev/github.com/topoviz/topoviz/pkg/render
package pkg
