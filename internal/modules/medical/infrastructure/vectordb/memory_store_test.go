package vectordb

import (
	"context"
	"testing"

	"MediVision/internal/modules/medical/domain/entity"
	"MediVision/internal/modules/medical/domain/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *MemoryStore {
	t.Helper()
	s := NewMemoryStore()
	require.NoError(t, s.EnsureCollection(context.Background(), "texts", 3))
	return s
}

func TestEnsureCollectionIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Upsert(ctx, "texts", []repository.Point{
		{Vector: []float32{1, 0, 0}, Content: "a"},
	})
	require.NoError(t, err)

	// A second ensure must not wipe existing points.
	require.NoError(t, s.EnsureCollection(ctx, "texts", 3))
	info, err := s.Describe(ctx, "texts")
	require.NoError(t, err)
	assert.Equal(t, int64(1), info.PointCount)
	assert.Equal(t, 3, info.Dimension)
}

func TestUpsertGeneratesAndPreservesIDs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ids, err := s.Upsert(ctx, "texts", []repository.Point{
		{Vector: []float32{1, 0, 0}},
		{ID: "fixed", Vector: []float32{0, 1, 0}},
	})
	require.NoError(t, err)
	require.Len(t, ids, 2)
	assert.NotEmpty(t, ids[0])
	assert.Equal(t, "fixed", ids[1])

	// Upserting the same id replaces, not duplicates.
	_, err = s.Upsert(ctx, "texts", []repository.Point{
		{ID: "fixed", Vector: []float32{0, 0, 1}, Content: "updated"},
	})
	require.NoError(t, err)

	info, err := s.Describe(ctx, "texts")
	require.NoError(t, err)
	assert.Equal(t, int64(2), info.PointCount)

	p, err := s.GetByID(ctx, "texts", "fixed")
	require.NoError(t, err)
	assert.Equal(t, "updated", p.Content)
	assert.Equal(t, []float32{0, 0, 1}, p.Vector)
}

func TestUpsertDimensionMismatch(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Upsert(context.Background(), "texts", []repository.Point{
		{Vector: []float32{1, 0}},
	})
	assert.ErrorIs(t, err, entity.ErrDimensionMismatch)
}

func TestSearchRankingAndFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Upsert(ctx, "texts", []repository.Point{
		{ID: "close", Vector: []float32{1, 0.1, 0}, Metadata: map[string]any{"category": "treatment"}},
		{ID: "far", Vector: []float32{0, 1, 0}, Metadata: map[string]any{"category": "treatment"}},
		{ID: "other", Vector: []float32{1, 0, 0}, Metadata: map[string]any{"category": "diagnosis"}},
	})
	require.NoError(t, err)

	hits, err := s.Search(ctx, "texts", []float32{1, 0, 0}, 10, 0, map[string]any{"category": "treatment"})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "close", hits[0].ID)
	assert.Equal(t, "far", hits[1].ID)
	assert.Greater(t, hits[0].Score, hits[1].Score)

	// Threshold cuts the orthogonal vector.
	hits, err = s.Search(ctx, "texts", []float32{1, 0, 0}, 10, 0.5, map[string]any{"category": "treatment"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "close", hits[0].ID)
}

func TestSearchDimensionMismatch(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Search(context.Background(), "texts", []float32{1}, 5, 0, nil)
	assert.ErrorIs(t, err, entity.ErrDimensionMismatch)
}

func TestScanFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Upsert(ctx, "texts", []repository.Point{
		{ID: "a", Vector: []float32{1, 0, 0}, Metadata: map[string]any{"patient_id": "P001"}},
		{ID: "b", Vector: []float32{0, 1, 0}, Metadata: map[string]any{"patient_id": "P001"}},
		{ID: "c", Vector: []float32{0, 0, 1}, Metadata: map[string]any{"patient_id": "P002"}},
	})
	require.NoError(t, err)

	hits, err := s.Scan(ctx, "texts", map[string]any{"patient_id": "P001"}, 100)
	require.NoError(t, err)
	assert.Len(t, hits, 2)

	hits, err = s.Scan(ctx, "texts", map[string]any{"patient_id": "P404"}, 100)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestGetByIDNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetByID(context.Background(), "texts", "missing")
	assert.ErrorIs(t, err, entity.ErrNotFound)

	_, err = s.GetByID(context.Background(), "nope", "missing")
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestDropAndList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.EnsureCollection(ctx, "images", 4))

	names, err := s.ListCollections(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"images", "texts"}, names)

	require.NoError(t, s.Drop(ctx, "images"))
	names, err = s.ListCollections(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"texts"}, names)

	assert.ErrorIs(t, s.Drop(ctx, "images"), entity.ErrNotFound)
}
