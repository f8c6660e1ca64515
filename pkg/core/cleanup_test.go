package core_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceanbase/decaymem-go/pkg/core"
	"github.com/oceanbase/decaymem-go/pkg/intelligence"
	"github.com/oceanbase/decaymem-go/pkg/storage"
	"github.com/oceanbase/decaymem-go/pkg/storage/memory"
)

// emotionOnly makes strength equal to the emotional charge.
func emotionOnly(c *core.Config) {
	c.Strength.RecencyWeight = 0
	c.Strength.FrequencyWeight = 0
	c.Strength.EmotionalWeight = 1
}

func storeAll(t *testing.T, client *core.Client, texts ...string) map[string]string {
	t.Helper()
	ids := make(map[string]string, len(texts))
	for _, text := range texts {
		id, err := client.Store(context.Background(), text)
		require.NoError(t, err)
		ids[text] = id
	}
	return ids
}

func TestCleanupCapacity(t *testing.T) {
	cfg := testConfig(func(c *core.Config) {
		emotionOnly(c)
		c.Memory.MaxMemories = 2
	})
	analyzer := chargeByText(map[string]float64{"strong": 0.9, "medium": 0.5, "weak": 0.2})
	env := newTestClient(t, cfg, analyzer, nil)
	ctx := context.Background()

	ids := storeAll(t, env.client, "strong", "medium", "weak")

	res, err := env.client.Cleanup(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Scanned)
	assert.Equal(t, 1, res.Deleted)
	assert.Equal(t, []string{ids["weak"]}, res.DeletedIDs)

	records, err := env.index.Scroll(ctx, 0)
	require.NoError(t, err)
	remaining := make([]string, 0, len(records))
	for _, r := range records {
		remaining = append(remaining, r.ID)
	}
	assert.ElementsMatch(t, []string{ids["strong"], ids["medium"]}, remaining)
}

func TestCleanupThreshold(t *testing.T) {
	cfg := testConfig(func(c *core.Config) {
		emotionOnly(c)
		c.Memory.MaxMemories = 100
		c.Memory.MinStrength = 0.1
	})
	analyzer := chargeByText(map[string]float64{"faint": -0.05, "vivid": 0.7})
	env := newTestClient(t, cfg, analyzer, nil)
	ctx := context.Background()

	ids := storeAll(t, env.client, "faint", "vivid")

	res, err := env.client.Cleanup(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{ids["faint"]}, res.DeletedIDs)

	count, err := env.index.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCleanupDecay(t *testing.T) {
	cfg := testConfig(func(c *core.Config) {
		c.Strength.FrequencyWeight = 0
		c.Strength.EmotionalWeight = 0
		c.Memory.MinStrength = 0.1
	})
	env := newTestClient(t, cfg, nil, nil)
	ctx := context.Background()

	storeAll(t, env.client, "old news")
	env.clock.Advance(10 * 24 * time.Hour)
	ids := storeAll(t, env.client, "fresh news")

	// exp(-10/7) = 0.24 keeps the old memory above the threshold.
	res, err := env.client.Cleanup(ctx)
	require.NoError(t, err)
	assert.Zero(t, res.Deleted)

	// exp(-20/7) = 0.057 does not.
	env.clock.Advance(10 * 24 * time.Hour)
	res, err = env.client.Cleanup(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Deleted)

	records, err := env.index.Scroll(ctx, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, ids["fresh news"], records[0].ID)
}

func TestCleanupBeyondScanWindow(t *testing.T) {
	cfg := testConfig(func(c *core.Config) {
		emotionOnly(c)
		c.Memory.MaxMemories = 2
		c.Memory.CleanupMargin = 6
		c.Memory.MinStrength = 0.1
	})
	texts := make([]string, 10)
	scores := make(map[string]float64, len(texts))
	for i := range texts {
		texts[i] = fmt.Sprintf("faded %d", i)
		scores[texts[i]] = 0.01
	}
	env := newTestClient(t, cfg, chargeByText(scores), nil)
	ctx := context.Background()
	storeAll(t, env.client, texts...)

	res, err := env.client.Cleanup(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, res.Deleted)
	assert.Equal(t, 10, res.Scanned)

	count, err := env.index.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count, "memories outside the first scan are checked too")
}

func TestCleanupInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	scores := make(map[string]float64)
	texts := make([]string, 60)
	for i := range texts {
		texts[i] = fmt.Sprintf("memory %d", i)
		scores[texts[i]] = rng.Float64()*2 - 1
	}

	cfg := testConfig(func(c *core.Config) {
		emotionOnly(c)
		c.Memory.MaxMemories = 25
		c.Memory.CleanupMargin = 5
		c.Memory.MinStrength = 0.15
		c.Memory.DeleteBatchSize = 4
		c.Memory.AutoCleanup = true
	})
	env := newTestClient(t, cfg, chargeByText(scores), nil)
	ctx := context.Background()
	storeAll(t, env.client, texts...)

	_, err := env.client.Cleanup(ctx)
	require.NoError(t, err)

	records, err := env.index.Scroll(ctx, 0)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(records), 25)
	for _, r := range records {
		charge, _ := r.Payload[core.PayloadEmotionalCharge].(float64)
		assert.GreaterOrEqual(t, charge, 0.15, r.ID)
	}

	expectedSurvivors := 0
	for _, s := range scores {
		if math.Abs(s) >= 0.15 {
			expectedSurvivors++
		}
	}
	if expectedSurvivors > 25 {
		expectedSurvivors = 25
	}
	assert.Len(t, records, expectedSurvivors)
}

func TestAutoCleanup(t *testing.T) {
	cfg := testConfig(func(c *core.Config) {
		emotionOnly(c)
		c.Memory.MaxMemories = 2
		c.Memory.AutoCleanup = true
	})
	analyzer := chargeByText(map[string]float64{"a": 0.9, "b": 0.8, "c": 0.7, "d": 0.3})
	env := newTestClient(t, cfg, analyzer, nil)
	ctx := context.Background()

	ids := storeAll(t, env.client, "a", "b", "c", "d")

	records, err := env.index.Scroll(ctx, 0)
	require.NoError(t, err)
	remaining := make([]string, 0, len(records))
	for _, r := range records {
		remaining = append(remaining, r.ID)
	}
	assert.ElementsMatch(t, []string{ids["a"], ids["b"]}, remaining)
}

func TestAutoCleanupOncePerBatch(t *testing.T) {
	cfg := testConfig(func(c *core.Config) {
		emotionOnly(c)
		c.Memory.InsertMode = "buffered"
		c.Memory.MaxMemories = 3
		c.Memory.AutoCleanup = true
	})
	analyzer := chargeByText(map[string]float64{"a": 0.9, "b": 0.8, "c": 0.7, "d": 0.6, "e": 0.5})
	index := &countingStore{flakyStore: flakyStore{VectorStore: memory.NewClient()}}
	env := newTestClient(t, cfg, analyzer, index)
	ctx := context.Background()

	entries := []core.Entry{{Content: "a"}, {Content: "b"}, {Content: "c"}, {Content: "d"}, {Content: "e"}}
	_, err := env.client.StoreBulk(ctx, entries)
	require.NoError(t, err)

	count, err := env.index.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Equal(t, 1, index.scrolls())
}

func TestCleanupDeleteFailure(t *testing.T) {
	cfg := testConfig(func(c *core.Config) {
		emotionOnly(c)
		c.Memory.MaxMemories = 1
	})
	index := &flakyStore{VectorStore: memory.NewClient()}
	env := newTestClient(t, cfg, chargeByText(map[string]float64{"x": 0.5, "y": 0.6}), index)
	ctx := context.Background()
	storeAll(t, env.client, "x", "y")

	index.deleteErr = errors.New("locked")
	res, err := env.client.Cleanup(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.Zero(t, res.Deleted)

	index.deleteErr = nil
	res, err = env.client.Cleanup(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Deleted)
}

func TestCleanupConcurrent(t *testing.T) {
	cfg := testConfig(func(c *core.Config) {
		emotionOnly(c)
		c.Memory.MaxMemories = 10
	})
	scores := make(map[string]float64)
	texts := make([]string, 30)
	for i := range texts {
		texts[i] = fmt.Sprintf("m%d", i)
		scores[texts[i]] = 0.2 + float64(i)/100
	}
	env := newTestClient(t, cfg, chargeByText(scores), nil)
	ctx := context.Background()
	storeAll(t, env.client, texts...)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.client.Cleanup(ctx)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	count, err := env.index.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, count)
}

func TestCleanupCallerCancel(t *testing.T) {
	env := newTestClient(t, testConfig(nil), nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := env.client.Cleanup(ctx)
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestStats(t *testing.T) {
	cfg := testConfig(func(c *core.Config) {
		emotionOnly(c)
		c.Memory.MinStrength = 0.1
	})
	analyzer := chargeByText(map[string]float64{"w": 0.05, "s": 0.4, "l": 0.9})
	env := newTestClient(t, cfg, analyzer, nil)
	ctx := context.Background()

	empty, err := env.client.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, empty.TotalMemories)
	assert.Equal(t, 0, empty.Tiers[intelligence.TierWorking])

	storeAll(t, env.client, "w", "s", "l")
	env.clock.Advance(48 * time.Hour)

	stats, err := env.client.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalMemories)
	assert.InDelta(t, (0.05+0.4+0.9)/3, stats.AvgStrength, 1e-9)
	assert.InDelta(t, 0.05, stats.MinStrength, 1e-9)
	assert.InDelta(t, 0.9, stats.MaxStrength, 1e-9)
	assert.InDelta(t, 2.0, stats.AvgAgeDays, 1e-6)
	assert.Equal(t, 1, stats.WeakMemories)
	assert.Equal(t, map[intelligence.Tier]int{
		intelligence.TierWorking:   1,
		intelligence.TierShortTerm: 1,
		intelligence.TierLongTerm:  1,
	}, stats.Tiers)
}

// countingStore counts scans, one per cleanup pass.
type countingStore struct {
	flakyStore
	mu sync.Mutex
	n  int
}

func (s *countingStore) Scroll(ctx context.Context, limit int) ([]*storage.Record, error) {
	s.mu.Lock()
	s.n++
	s.mu.Unlock()
	return s.flakyStore.Scroll(ctx, limit)
}

func (s *countingStore) scrolls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.n
}
