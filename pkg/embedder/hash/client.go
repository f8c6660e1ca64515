// Package hash provides a deterministic, offline embedding provider.
//
// Vectors are derived from an FNV-1a hash of the text expanded by a linear
// congruential generator and normalized to unit length. Equal texts give
// equal vectors; different texts give unrelated vectors. It has no notion
// of meaning and is intended for tests, demos and air-gapped deployments.
package hash

import (
	"context"
	"hash/fnv"
	"math"
)

// DefaultDimensions matches all-MiniLM-L6-v2.
const DefaultDimensions = 384

// Client implements embedder.Provider.
type Client struct {
	dimensions int
}

// NewClient creates a hash embedder. A non-positive dimension selects DefaultDimensions.
func NewClient(dimensions int) *Client {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &Client{dimensions: dimensions}
}

// Embed returns the vector for text.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.vector(text), nil
}

// EmbedBatch returns one vector per text.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = c.vector(text)
	}
	return out, nil
}

// Dimensions returns the vector length.
func (c *Client) Dimensions() int {
	return c.dimensions
}

// Close is a no-op.
func (c *Client) Close() error {
	return nil
}

func (c *Client) vector(text string) []float64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum64()

	vec := make([]float64, c.dimensions)
	var norm float64
	for i := range vec {
		seed = seed*6364136223846793005 + 1442695040888963407
		v := float64(int64(seed)) / float64(math.MaxInt64)
		vec[i] = v
		norm += v * v
	}

	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}
