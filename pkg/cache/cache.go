// Package cache provides content-addressed caching for the layout pipeline.
//
// Pipeline stages are cached independently: the built scene, the computed
// layout, the routed edges, and rendered artifacts each get their own key
// derived from the stage inputs. Keys are SHA-256 based, so equal inputs hit
// the same entry regardless of where they came from.
//
// Backends: [FileCache] for CLI usage, [RedisCache] for the server, and
// [NullCache] to disable caching.
package cache

import (
	"context"
	"time"
)

// Default TTLs per entry class. Scene and layout entries are cheap to
// recompute and keyed by content, so they can live long; artifacts are
// larger and expire sooner.
const (
	SceneTTL    = 7 * 24 * time.Hour
	LayoutTTL   = 7 * 24 * time.Hour
	RouteTTL    = 7 * 24 * time.Hour
	ArtifactTTL = 24 * time.Hour
)

// Cache is a byte-oriented key/value store with per-entry TTL.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key was
	// present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A zero ttl means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// LayoutKeyOpts are the layout parameters that affect the computed
// positions. Any change produces a different key.
type LayoutKeyOpts struct {
	Algorithm  string
	Padding    float64
	LeafRadius float64
	CanvasBase float64
}

// ArtifactKeyOpts identify a rendered artifact derived from a layout.
type ArtifactKeyOpts struct {
	Format string // "svg", "png", "dot"
	Width  int
	Height int
}

// Keyer derives cache keys for the pipeline stages.
type Keyer interface {
	// SceneKey keys a built hierarchy by the input scene content hash.
	SceneKey(sceneHash string) string

	// LayoutKey keys computed positions by scene hash and layout options.
	LayoutKey(sceneHash string, opts LayoutKeyOpts) string

	// RouteKey keys routed edges by the layout hash.
	RouteKey(layoutHash string) string

	// ArtifactKey keys a rendered artifact by layout hash and render options.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer generates versioned, hash-based keys. The embedded version
// constants invalidate old entries when a stage's semantics change.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// Key-space versions. Bump when the corresponding stage's output format or
// semantics change incompatibly.
const (
	sceneKeyVersion    = "v1"
	layoutKeyVersion   = "v1"
	routeKeyVersion    = "v1"
	artifactKeyVersion = "v1"
)

// SceneKey generates a key for a built hierarchy.
func (k *DefaultKeyer) SceneKey(sceneHash string) string {
	return hashKey("scene", sceneKeyVersion, sceneHash)
}

// LayoutKey generates a key for computed positions.
func (k *DefaultKeyer) LayoutKey(sceneHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", layoutKeyVersion, sceneHash, opts)
}

// RouteKey generates a key for routed edges.
func (k *DefaultKeyer) RouteKey(layoutHash string) string {
	return hashKey("route", routeKeyVersion, layoutHash)
}

// ArtifactKey generates a key for a rendered artifact.
func (k *DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", artifactKeyVersion, layoutHash, opts)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)
