package core_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oceanbase/decaymem-go/pkg/core"
	"github.com/oceanbase/decaymem-go/pkg/embedder/hash"
	"github.com/oceanbase/decaymem-go/pkg/sentiment"
	"github.com/oceanbase/decaymem-go/pkg/storage"
	"github.com/oceanbase/decaymem-go/pkg/storage/memory"
	"github.com/oceanbase/decaymem-go/pkg/vectors"
)

const semanticDims = 32

var testDims = vectors.Dimensions{
	Semantic:   semanticDims,
	Temporal:   20,
	Contextual: 16,
	Role:       1,
}

// fakeClock is a settable clock shared by the client and the test.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// chargeByText returns an analyzer scoring each known text with a fixed polarity.
func chargeByText(scores map[string]float64) sentiment.Analyzer {
	return sentiment.AnalyzerFunc(func(ctx context.Context, text string) (float64, error) {
		return scores[text], nil
	})
}

func testConfig(mutate func(*core.Config)) *core.Config {
	cfg := core.DefaultConfig()
	cfg.Vectors.Dimensions = testDims
	cfg.Memory.AutoCleanup = false
	cfg.Access.Workers = 2
	cfg.Access.QueueSize = 64
	cfg.OperationTimeoutSeconds = 5
	if mutate != nil {
		mutate(cfg)
	}
	return cfg
}

type testEnv struct {
	client *core.Client
	index  storage.VectorStore
	clock  *fakeClock
}

// newTestClient builds a client over an in-memory index and the hash embedder.
func newTestClient(t *testing.T, cfg *core.Config, analyzer sentiment.Analyzer, index storage.VectorStore) *testEnv {
	t.Helper()
	if index == nil {
		index = memory.NewClient()
	}
	clock := newFakeClock()
	client, err := core.NewClient(cfg, core.Dependencies{
		Index:     index,
		Embedder:  hash.NewClient(cfg.Vectors.Dimensions.Semantic),
		Sentiment: analyzer,
	}, core.WithClock(clock.Now))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return &testEnv{client: client, index: index, clock: clock}
}

func semanticQuery(v []float64) map[string][]float64 {
	return map[string][]float64{string(vectors.SpaceSemantic): v}
}

func embed(t *testing.T, text string) []float64 {
	t.Helper()
	v, err := hash.NewClient(semanticDims).Embed(context.Background(), text)
	require.NoError(t, err)
	return v
}

// truncatingEmbedder wraps the hash embedder, drops the last value of every
// vector and does not report its dimension, so NewClient cannot catch it.
type truncatingEmbedder struct {
	*hash.Client
}

func (e truncatingEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	v, err := e.Client.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	return v[:len(v)-1], nil
}

func (e truncatingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, text := range texts {
		v, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (e truncatingEmbedder) Dimensions() int {
	return 0
}

// flakyStore wraps a store and fails selected operations.
type flakyStore struct {
	storage.VectorStore
	searchErr error
	upsertErr error
	deleteErr error
	block     bool
}

func (s *flakyStore) Search(ctx context.Context, vector []float64, opts *storage.SearchOptions) ([]*storage.ScoredPoint, error) {
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	return s.VectorStore.Search(ctx, vector, opts)
}

func (s *flakyStore) Upsert(ctx context.Context, points []*storage.Point) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	return s.VectorStore.Upsert(ctx, points)
}

func (s *flakyStore) Delete(ctx context.Context, ids []string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	return s.VectorStore.Delete(ctx, ids)
}
