// Package cache wraps an embedder.Provider with an in-process LRU-style cache.
//
// Embedding calls are usually the slowest step of storing a memory, and the
// same texts (tags, repeated search queries, imported transcripts) are
// embedded again and again. The cache is backed by ristretto.
package cache

import (
	"context"
	"fmt"

	"github.com/dgraph-io/ristretto"

	"github.com/oceanbase/decaymem-go/pkg/embedder"
)

// Config configures the cache.
type Config struct {
	// MaxEntries is the number of vectors kept (default: 10000).
	MaxEntries int64
}

// Client is a caching embedder.Provider.
type Client struct {
	inner embedder.Provider
	cache *ristretto.Cache
}

// NewClient wraps inner with a cache.
func NewClient(inner embedder.Provider, cfg *Config) (*Client, error) {
	maxEntries := int64(10000)
	if cfg != nil && cfg.MaxEntries > 0 {
		maxEntries = cfg.MaxEntries
	}

	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("NewCacheClient: %w", err)
	}

	return &Client{
		inner: inner,
		cache: c,
	}, nil
}

// Embed returns the cached vector for text, embedding it on a miss.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	if vec, ok := c.get(text); ok {
		return vec, nil
	}

	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.put(text, vec)
	return clone(vec), nil
}

// EmbedBatch serves hits from the cache and sends only misses to the inner provider.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	var misses []string
	var positions []int
	for i, text := range texts {
		if vec, ok := c.get(text); ok {
			out[i] = vec
			continue
		}
		misses = append(misses, text)
		positions = append(positions, i)
	}
	if len(misses) == 0 {
		return out, nil
	}

	vecs, err := c.inner.EmbedBatch(ctx, misses)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(misses) {
		return nil, fmt.Errorf("EmbedBatch: got %d vectors for %d texts", len(vecs), len(misses))
	}
	for j, vec := range vecs {
		c.put(misses[j], vec)
		out[positions[j]] = clone(vec)
	}
	return out, nil
}

// Dimensions returns the inner provider's dimensions.
func (c *Client) Dimensions() int {
	return c.inner.Dimensions()
}

// Close releases the cache and closes the inner provider.
func (c *Client) Close() error {
	c.cache.Close()
	return c.inner.Close()
}

func (c *Client) get(text string) ([]float64, bool) {
	v, ok := c.cache.Get(text)
	if !ok {
		return nil, false
	}
	vec, ok := v.([]float64)
	if !ok {
		return nil, false
	}
	return clone(vec), true
}

func (c *Client) put(text string, vec []float64) {
	c.cache.Set(text, clone(vec), 1)
	c.cache.Wait()
}

func clone(vec []float64) []float64 {
	out := make([]float64, len(vec))
	copy(out, vec)
	return out
}
