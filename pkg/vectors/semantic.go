package vectors

import (
	"context"
	"fmt"
	"strings"

	"github.com/oceanbase/decaymem-go/pkg/embedder"
)

// SemanticGenerator turns text into an embedding via an embedder.Provider.
type SemanticGenerator struct {
	provider  embedder.Provider
	dimension int
}

// NewSemanticGenerator wraps provider. Vectors of any other length than
// dimension are rejected.
func NewSemanticGenerator(provider embedder.Provider, dimension int) *SemanticGenerator {
	return &SemanticGenerator{
		provider:  provider,
		dimension: dimension,
	}
}

// Dimension returns the output length.
func (g *SemanticGenerator) Dimension() int {
	return g.dimension
}

// Generate embeds text. Blank text yields the zero vector without calling the model.
func (g *SemanticGenerator) Generate(ctx context.Context, text string) ([]float64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return make([]float64, g.dimension), nil
	}

	vec, err := g.provider.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	if len(vec) != g.dimension {
		return nil, fmt.Errorf("%w: embedder returned %d values, expected %d", ErrDimensionMismatch, len(vec), g.dimension)
	}
	return vec, nil
}

// GenerateBatch embeds all texts with one EmbedBatch call. Blank entries
// are not sent to the model.
func (g *SemanticGenerator) GenerateBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	var pending []string
	var positions []int
	for i, text := range texts {
		text = strings.TrimSpace(text)
		if text == "" {
			out[i] = make([]float64, g.dimension)
			continue
		}
		pending = append(pending, text)
		positions = append(positions, i)
	}
	if len(pending) == 0 {
		return out, nil
	}

	vecs, err := g.provider.EmbedBatch(ctx, pending)
	if err != nil {
		return nil, fmt.Errorf("embed batch: %w", err)
	}
	if len(vecs) != len(pending) {
		return nil, fmt.Errorf("embed batch: got %d vectors for %d texts", len(vecs), len(pending))
	}
	for j, vec := range vecs {
		if len(vec) != g.dimension {
			return nil, fmt.Errorf("%w: embedder returned %d values, expected %d", ErrDimensionMismatch, len(vec), g.dimension)
		}
		out[positions[j]] = vec
	}
	return out, nil
}
