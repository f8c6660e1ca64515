// Package storagetest holds a behavioral test suite shared by every
// storage.VectorStore backend.
package storagetest

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceanbase/decaymem-go/pkg/storage"
)

// Spaces is the layout used by the suite.
var Spaces = map[string]storage.SpaceConfig{
	"semantic": {Dimension: 3, Distance: storage.DistanceCosine},
	"role":     {Dimension: 1, Distance: storage.DistanceCosine},
}

// Point builds a suite point whose semantic vector is v.
func Point(id string, v []float64, payload map[string]interface{}) *storage.Point {
	return &storage.Point{
		ID: id,
		Vectors: map[string][]float64{
			"semantic": v,
			"role":     {1},
		},
		Payload: payload,
	}
}

// Factory returns a fresh, empty store and a cleanup func.
type Factory func(t *testing.T) (storage.VectorStore, func())

// Run executes every suite case against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	cases := []struct {
		name string
		fn   func(t *testing.T, store storage.VectorStore)
	}{
		{"UpsertAndSearch", testUpsertAndSearch},
		{"UpsertReplaces", testUpsertReplaces},
		{"SearchFilter", testSearchFilter},
		{"SearchUnknownSpace", testSearchUnknownSpace},
		{"SetPayload", testSetPayload},
		{"ScrollAndCount", testScrollAndCount},
		{"Delete", testDelete},
		{"EnsureCollectionIdempotent", testEnsureCollectionIdempotent},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store, cleanup := newStore(t)
			defer cleanup()
			require.NoError(t, store.EnsureCollection(context.Background(), Spaces))
			tc.fn(t, store)
		})
	}
}

func testUpsertAndSearch(t *testing.T, store storage.VectorStore) {
	ctx := context.Background()

	err := store.Upsert(ctx, []*storage.Point{
		Point("a", []float64{1, 0, 0}, map[string]interface{}{"content": "alpha"}),
		Point("b", []float64{0, 1, 0}, map[string]interface{}{"content": "beta"}),
		Point("c", []float64{0.9, 0.1, 0}, map[string]interface{}{"content": "gamma"}),
	})
	require.NoError(t, err)

	hits, err := store.Search(ctx, []float64{1, 0, 0}, &storage.SearchOptions{Space: "semantic", Limit: 2})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "a", hits[0].ID)
	assert.Equal(t, "c", hits[1].ID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-4)
	assert.Equal(t, "alpha", hits[0].Payload["content"])
	assert.GreaterOrEqual(t, hits[0].Score, hits[1].Score)
}

func testUpsertReplaces(t *testing.T, store storage.VectorStore) {
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, []*storage.Point{
		Point("a", []float64{1, 0, 0}, map[string]interface{}{"content": "old"}),
	}))
	require.NoError(t, store.Upsert(ctx, []*storage.Point{
		Point("a", []float64{0, 1, 0}, map[string]interface{}{"content": "new"}),
	}))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	hits, err := store.Search(ctx, []float64{0, 1, 0}, &storage.SearchOptions{Space: "semantic", Limit: 1})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "new", hits[0].Payload["content"])
	assert.InDelta(t, 1.0, hits[0].Score, 1e-4)
}

func testSearchFilter(t *testing.T, store storage.VectorStore) {
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, []*storage.Point{
		Point("a", []float64{1, 0, 0}, map[string]interface{}{"conversation_id": "conv-1"}),
		Point("b", []float64{0.9, 0.1, 0}, map[string]interface{}{"conversation_id": "conv-2"}),
		Point("c", []float64{0.8, 0.2, 0}, map[string]interface{}{}),
	}))

	hits, err := store.Search(ctx, []float64{1, 0, 0}, &storage.SearchOptions{
		Space:  "semantic",
		Limit:  10,
		Filter: storage.ExcludeField("conversation_id", "conv-1"),
	})
	require.NoError(t, err)
	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
	}
	assert.Equal(t, []string{"b", "c"}, ids)

	hits, err = store.Search(ctx, []float64{1, 0, 0}, &storage.SearchOptions{
		Space:  "semantic",
		Limit:  10,
		Filter: storage.MatchField("conversation_id", "conv-2"),
	})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "b", hits[0].ID)
}

func testSearchUnknownSpace(t *testing.T, store storage.VectorStore) {
	_, err := store.Search(context.Background(), []float64{1, 0, 0}, &storage.SearchOptions{Space: "missing", Limit: 1})
	assert.ErrorIs(t, err, storage.ErrUnknownSpace)
}

func testSetPayload(t *testing.T, store storage.VectorStore) {
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, []*storage.Point{
		Point("a", []float64{1, 0, 0}, map[string]interface{}{"retrieval_count": 0}),
	}))
	require.NoError(t, store.SetPayload(ctx, "a", map[string]interface{}{"retrieval_count": 1}))
	require.NoError(t, store.SetPayload(ctx, "missing", map[string]interface{}{"retrieval_count": 9}))

	hits, err := store.Search(ctx, []float64{1, 0, 0}, &storage.SearchOptions{Space: "semantic", Limit: 5})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.EqualValues(t, 1, hits[0].Payload["retrieval_count"])
	assert.InDelta(t, 1.0, hits[0].Score, 1e-4)
}

func testScrollAndCount(t *testing.T, store storage.VectorStore) {
	ctx := context.Background()

	points := make([]*storage.Point, 5)
	for i := range points {
		points[i] = Point(fmt.Sprintf("p%d", i), []float64{1, float64(i), 0}, map[string]interface{}{"n": i})
	}
	require.NoError(t, store.Upsert(ctx, points))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	records, err := store.Scroll(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, records, 3)

	records, err = store.Scroll(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, records, 5)
}

func testDelete(t *testing.T, store storage.VectorStore) {
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, []*storage.Point{
		Point("a", []float64{1, 0, 0}, nil),
		Point("b", []float64{0, 1, 0}, nil),
	}))

	assert.ErrorIs(t, store.Delete(ctx, nil), storage.ErrEmptyIDs)
	require.NoError(t, store.Delete(ctx, []string{"a", "unknown"}))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	hits, err := store.Search(ctx, []float64{1, 0, 0}, &storage.SearchOptions{Space: "semantic", Limit: 5})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "b", hits[0].ID)
}

func testEnsureCollectionIdempotent(t *testing.T, store storage.VectorStore) {
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, []*storage.Point{Point("a", []float64{1, 0, 0}, nil)}))
	require.NoError(t, store.EnsureCollection(ctx, Spaces))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
