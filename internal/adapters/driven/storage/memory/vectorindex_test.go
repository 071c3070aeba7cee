package memory

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/travelrag/internal/core/domain"
	"github.com/custodia-labs/travelrag/internal/core/ports/driven"
)

func entry(id string, vec []float32, meta map[string]any) domain.IndexedEntry {
	return domain.IndexedEntry{
		ID:       id,
		Vector:   vec,
		Document: domain.Document{ID: id, Content: "content " + id, Metadata: meta},
	}
}

func newIndex(t *testing.T) *VectorIndex {
	t.Helper()
	idx, err := NewVectorIndex(2, domain.MetricCosine)
	require.NoError(t, err)
	return idx
}

func TestVectorIndex_UpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	idx := newIndex(t)

	e := entry("a", []float32{1, 0}, map[string]any{"city": "Seattle"})
	require.NoError(t, idx.Upsert(ctx, []domain.IndexedEntry{e}))
	require.NoError(t, idx.Upsert(ctx, []domain.IndexedEntry{e}))

	n, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	e.Document.Content = "replaced"
	e.Vector = []float32{0, 1}
	require.NoError(t, idx.Upsert(ctx, []domain.IndexedEntry{e}))

	got, err := idx.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "replaced", got.Document.Content)
	assert.Equal(t, []float32{0, 1}, got.Vector)
}

func TestVectorIndex_DimensionMismatchRejectsOnlyThatEntry(t *testing.T) {
	ctx := context.Background()
	idx := newIndex(t)

	err := idx.Upsert(ctx, []domain.IndexedEntry{
		entry("good", []float32{1, 0}, nil),
		entry("bad", []float32{1, 0, 0}, nil),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

	ue, ok := domain.AsUpsertError(err)
	require.True(t, ok)
	assert.Equal(t, []string{"bad"}, ue.FailedIDs())

	_, err = idx.Get(ctx, "bad")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = idx.Get(ctx, "good")
	assert.NoError(t, err)
}

func TestVectorIndex_QueryTopKOrderAndFilter(t *testing.T) {
	ctx := context.Background()
	idx := newIndex(t)

	var entries []domain.IndexedEntry
	for i := 0; i < 10; i++ {
		city := "Seattle"
		if i%2 == 1 {
			city = "Portland"
		}
		entries = append(entries, entry(fmt.Sprintf("e%02d", i), []float32{1, float32(i)}, map[string]any{"city": city}))
	}
	require.NoError(t, idx.Upsert(ctx, entries))

	res, err := idx.Query(ctx, []float32{1, 0}, 3, domain.Filter{})
	require.NoError(t, err)
	require.Equal(t, 3, res.Len())
	assert.Equal(t, []string{"e00", "e01", "e02"}, res.IDs())
	for i := 1; i < res.Len(); i++ {
		assert.GreaterOrEqual(t, res.Hits[i-1].Score, res.Hits[i].Score)
	}

	res, err = idx.Query(ctx, []float32{1, 0}, 100, domain.CityFilter("Portland"))
	require.NoError(t, err)
	assert.Equal(t, 5, res.Len())
	for _, h := range res.Hits {
		assert.Equal(t, "Portland", h.Document.Metadata["city"])
	}

	res, err = idx.Query(ctx, []float32{1, 0}, 3, domain.CityFilter("Tacoma"))
	require.NoError(t, err)
	assert.True(t, res.IsEmpty())
}

func TestVectorIndex_QueryValidation(t *testing.T) {
	idx := newIndex(t)

	_, err := idx.Query(context.Background(), []float32{1, 0, 0}, 3, domain.Filter{})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

	res, err := idx.Query(context.Background(), []float32{1, 0}, 0, domain.Filter{})
	require.NoError(t, err)
	assert.True(t, res.IsEmpty())
}

func TestVectorIndex_L2(t *testing.T) {
	ctx := context.Background()
	idx, err := NewVectorIndex(2, domain.MetricL2)
	require.NoError(t, err)

	require.NoError(t, idx.Upsert(ctx, []domain.IndexedEntry{
		entry("near", []float32{1, 1}, nil),
		entry("far", []float32{10, 10}, nil),
	}))

	res, err := idx.Query(ctx, []float32{0, 0}, 2, domain.Filter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"near", "far"}, res.IDs())
	assert.Less(t, res.Hits[0].Distance, res.Hits[1].Distance)
}

func TestVectorIndex_GenerationAndDelete(t *testing.T) {
	ctx := context.Background()
	idx := newIndex(t)
	g0 := idx.Generation()

	require.NoError(t, idx.Upsert(ctx, []domain.IndexedEntry{entry("a", []float32{1, 0}, nil)}))
	g1 := idx.Generation()
	assert.Greater(t, g1, g0)

	require.NoError(t, idx.Delete(ctx, []string{"missing"}))
	assert.Equal(t, g1, idx.Generation())

	require.NoError(t, idx.Delete(ctx, []string{"a"}))
	assert.Greater(t, idx.Generation(), g1)

	require.NoError(t, idx.Reset(ctx))
	n, _ := idx.Count(ctx)
	assert.Zero(t, n)
}

func TestCollections_OpenModes(t *testing.T) {
	c := NewCollections()

	_, err := c.Open(driven.VectorIndexConfig{Collection: "x", Dimensions: 4, Mode: driven.OpenModeRead})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	idx, err := c.Open(driven.VectorIndexConfig{Collection: "x", Dimensions: 4})
	require.NoError(t, err)
	assert.Equal(t, 4, idx.Dimensions())
	assert.Equal(t, domain.MetricCosine, idx.Metric())

	again, err := c.Open(driven.VectorIndexConfig{Collection: "x", Dimensions: 4, Mode: driven.OpenModeRead})
	require.NoError(t, err)
	assert.Same(t, idx, again)

	_, err = c.Open(driven.VectorIndexConfig{Collection: "x", Dimensions: 8})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

	recreated, err := c.Open(driven.VectorIndexConfig{Collection: "x", Dimensions: 8, Recreate: true})
	require.NoError(t, err)
	assert.Equal(t, 8, recreated.Dimensions())
	assert.NotSame(t, idx, recreated)
}
