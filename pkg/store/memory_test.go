package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/topoviz/topoviz/pkg/errors"
	"github.com/topoviz/topoviz/pkg/scene"
)

func TestMemoryStore_SaveGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close(ctx)

	snap := NewSnapshot("prod-eu", &scene.Scene{
		Vertices: []scene.Vertex{{ID: "net", Group: true}},
	}, nil)
	require.NotEmpty(t, snap.ID)
	require.NoError(t, s.Save(ctx, snap))

	got, err := s.Get(ctx, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, "prod-eu", got.Name)
	require.NotNil(t, got.Scene)
	assert.Len(t, got.Scene.Vertices, 1)
}

func TestMemoryStore_GetUnknown(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Get(context.Background(), "nope")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeSnapshotNotFound, errors.GetCode(err))
}

func TestMemoryStore_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	old := NewSnapshot("old", nil, nil)
	old.CreatedAt = time.Now().Add(-time.Hour)
	recent := NewSnapshot("recent", &scene.Scene{}, nil)

	require.NoError(t, s.Save(ctx, old))
	require.NoError(t, s.Save(ctx, recent))

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "recent", list[0].Name)
	assert.Equal(t, "old", list[1].Name)

	// Payloads stripped from listings
	assert.Nil(t, list[0].Scene)
}

func TestMemoryStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	snap := NewSnapshot("gone", nil, nil)
	require.NoError(t, s.Save(ctx, snap))
	require.NoError(t, s.Delete(ctx, snap.ID))

	_, err := s.Get(ctx, snap.ID)
	require.Error(t, err)

	err = s.Delete(ctx, snap.ID)
	assert.Equal(t, errors.ErrCodeSnapshotNotFound, errors.GetCode(err))
}
