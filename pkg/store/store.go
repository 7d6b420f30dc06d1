// Package store persists named topology snapshots: the input scene together
// with its computed layout, so a layout can be reloaded without recomputing.
//
// Two backends are provided: [MemoryStore] for tests and single-process
// use, and [MongoStore] for the server.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/topoviz/topoviz/pkg/errors"
	"github.com/topoviz/topoviz/pkg/scene"
)

// Snapshot is a saved scene plus its computed layout.
type Snapshot struct {
	ID        string        `json:"id" bson:"_id"`
	Name      string        `json:"name" bson:"name"`
	CreatedAt time.Time     `json:"created_at" bson:"created_at"`
	Scene     *scene.Scene  `json:"scene" bson:"scene"`
	Layout    *scene.Layout `json:"layout,omitempty" bson:"layout,omitempty"`
}

// NewSnapshot creates a snapshot with a fresh ID and timestamp.
func NewSnapshot(name string, sc *scene.Scene, l *scene.Layout) *Snapshot {
	return &Snapshot{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
		Scene:     sc,
		Layout:    l,
	}
}

// Store persists snapshots.
type Store interface {
	// Save inserts or replaces a snapshot by ID.
	Save(ctx context.Context, s *Snapshot) error

	// Get loads a snapshot by ID. Returns a SNAPSHOT_NOT_FOUND error when
	// the ID is unknown.
	Get(ctx context.Context, id string) (*Snapshot, error)

	// List returns all snapshots, newest first, without their scene and
	// layout payloads.
	List(ctx context.Context) ([]*Snapshot, error)

	// Delete removes a snapshot by ID. Deleting an unknown ID returns a
	// SNAPSHOT_NOT_FOUND error.
	Delete(ctx context.Context, id string) error

	// Close releases backend resources.
	Close(ctx context.Context) error
}

// NotFound builds the canonical missing-snapshot error.
func NotFound(id string) error {
	return errors.New(errors.ErrCodeSnapshotNotFound, "snapshot %q not found", id)
}
