// Package topo defines the vertex/edge data model for infrastructure
// topologies and builds the containment hierarchy that the layout and
// routing engines operate on.
//
// A topology is a flat collection of vertices connected by two orthogonal
// relations: a strict containment hierarchy (network → cluster → application
// → device), expressed through ParentID, and directed edges that may cross
// containment boundaries. [Build] turns the flat vertex map into a rooted
// [Tree]; the layout algorithms then assign every node a circle, and the
// router clips edges against the group circles.
//
// The tree is built once per full data refresh, mutated in place by layout
// and drag, and discarded wholesale on the next refresh. It is not safe for
// concurrent use without external synchronization.
package topo

import "errors"

var (
	// ErrEmptyVertexID is returned by [Build] when a vertex has an empty ID.
	// All vertices must have non-empty identifiers.
	ErrEmptyVertexID = errors.New("vertex ID must not be empty")

	// ErrParentCycle is returned by [Build] when the parent relation contains
	// a cycle. This is the only fatal structural error: a containment cycle
	// cannot be laid out and aborts the whole build.
	ErrParentCycle = errors.New("containment cycle in parent relation")

	// ErrUnknownNode is returned by tree operations that reference a node ID
	// not present in the tree.
	ErrUnknownNode = errors.New("unknown node")
)

// Vertex type tags. The group tags double as containment tiers for edge
// routing: each tier is classified independently when clipping edges.
const (
	TypeNetwork     = "network"
	TypeCluster     = "cluster"
	TypeApplication = "application"
	TypeDevice      = "device"
	TypeService     = "service"
)

// VirtualRootID is the node ID used for the synthetic root that is created
// when the vertex set has zero or multiple parentless vertices.
const VirtualRootID = "__root__"

// Vertex is a single topology entity as delivered by the upstream data
// source. Attrs carries opaque display attributes that the core never
// interprets; they round-trip through serialization untouched.
type Vertex struct {
	ID       string         // Unique identifier
	Type     string         // Type tag (network, cluster, application, device, ...)
	ParentID string         // Containing group, or empty for a root candidate
	Group    bool           // Whether this vertex owns children (rendered as a circle)
	Attrs    map[string]any // Opaque display attributes (never nil after Build)
}

// Edge is a directed relationship between two vertices. Edges may cross
// containment boundaries; the router clips them against every group circle
// on the way.
type Edge struct {
	From string         // Source vertex ID
	To   string         // Target vertex ID
	Type string         // Relationship tag
	Meta map[string]any // Optional metadata
}
