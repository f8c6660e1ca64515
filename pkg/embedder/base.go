// Package embedder provides interfaces for text embedding providers.
//
// It defines the Provider interface that every embedding backend satisfies.
// The semantic vector space of a memory is produced by one Provider.
package embedder

import "context"

// Provider defines the interface for embedding providers.
//
// Implementations: openai, qwen, hash (deterministic, offline), onnx
// (local model, build tag "onnx"), and cache (a decorator over any of them).
type Provider interface {
	// Embed converts a text string into a vector embedding.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - text: The input text to embed
	//
	// Returns the embedding vector and any error.
	Embed(ctx context.Context, text string) ([]float64, error)

	// EmbedBatch converts multiple text strings into vector embeddings.
	//
	// The returned slice has one vector per input, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)

	// Dimensions returns the dimension of embedding vectors produced by this provider.
	Dimensions() int

	// Close closes the provider and releases resources.
	Close() error
}
