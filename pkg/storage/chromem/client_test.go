package chromem_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceanbase/decaymem-go/pkg/storage"
	"github.com/oceanbase/decaymem-go/pkg/storage/chromem"
	"github.com/oceanbase/decaymem-go/pkg/storage/storagetest"
)

func setupChromemTest(t *testing.T) (storage.VectorStore, func()) {
	store, err := chromem.NewClient(&chromem.Config{})
	require.NoError(t, err)
	return store, func() { _ = store.Close() }
}

func TestChromemClient(t *testing.T) {
	storagetest.Run(t, setupChromemTest)
}

func TestChromemClient_ZeroVector(t *testing.T) {
	store, cleanup := setupChromemTest(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.EnsureCollection(ctx, storagetest.Spaces))
	require.NoError(t, store.Upsert(ctx, []*storage.Point{
		storagetest.Point("zero", []float64{0, 0, 0}, map[string]interface{}{"content": "blank"}),
		storagetest.Point("one", []float64{1, 0, 0}, map[string]interface{}{"content": "x"}),
	}))

	hits, err := store.Search(ctx, []float64{1, 0, 0}, &storage.SearchOptions{Space: "semantic", Limit: 5})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "one", hits[0].ID)
	assert.Equal(t, "zero", hits[1].ID)
	assert.Equal(t, 0.0, hits[1].Score)
}

func TestChromemClient_Persistent(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := chromem.NewClient(&chromem.Config{Path: dir})
	require.NoError(t, err)
	require.NoError(t, store.EnsureCollection(ctx, storagetest.Spaces))
	require.NoError(t, store.Upsert(ctx, []*storage.Point{
		storagetest.Point("a", []float64{1, 0, 0}, map[string]interface{}{"content": "kept"}),
	}))
	require.NoError(t, store.Close())

	reopened, err := chromem.NewClient(&chromem.Config{Path: dir})
	require.NoError(t, err)
	require.NoError(t, reopened.EnsureCollection(ctx, storagetest.Spaces))

	count, err := reopened.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
