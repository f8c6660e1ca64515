// Package storage provides interfaces and types for multi-space vector stores.
//
// Every point is indexed under several named vector spaces at once and
// carries a free-form JSON payload. Backends: memory (in-process), sqlite,
// postgres (pgvector), oceanbase and chromem.
package storage

import (
	"context"
	"errors"
)

// ErrEmptyIDs is returned by Delete when called with no ids.
var ErrEmptyIDs = errors.New("empty id list")

// ErrUnknownSpace is returned when a query names a space the collection does not have.
var ErrUnknownSpace = errors.New("unknown vector space")

// Distance is the similarity metric of a vector space.
type Distance string

const (
	// DistanceCosine ranks by cosine similarity.
	DistanceCosine Distance = "cosine"
)

// SpaceConfig describes one named vector space.
type SpaceConfig struct {
	// Dimension is the vector length.
	Dimension int

	// Distance is the similarity metric. Only cosine is supported.
	Distance Distance
}

// Point is a record to write: named vectors plus payload.
type Point struct {
	// ID is the unique identifier of the point.
	ID string

	// Vectors maps a space name to its vector.
	Vectors map[string][]float64

	// Payload is the JSON-compatible record body.
	Payload map[string]interface{}
}

// Record is a stored point without its vectors.
type Record struct {
	ID      string
	Payload map[string]interface{}
}

// ScoredPoint is a search hit.
type ScoredPoint struct {
	ID string

	// Score is the cosine similarity to the query vector.
	Score float64

	Payload map[string]interface{}
}

// SearchOptions contains options for a similarity search.
type SearchOptions struct {
	// Space is the vector space to search.
	Space string

	// Limit is the maximum number of results.
	Limit int

	// Filter restricts the candidates (optional).
	Filter *Filter
}

// VectorStore defines the interface for vector storage backends.
//
// All implementations must be safe for concurrent use.
type VectorStore interface {
	// EnsureCollection creates the collection with the given spaces if it
	// does not exist. Calling it again with the same spaces is a no-op.
	EnsureCollection(ctx context.Context, spaces map[string]SpaceConfig) error

	// Upsert inserts or replaces points in a single call. Atomicity is
	// whatever the backend offers; SQL backends use one transaction.
	Upsert(ctx context.Context, points []*Point) error

	// SetPayload replaces the payload of an existing point, keeping its
	// vectors. A missing id is not an error.
	SetPayload(ctx context.Context, id string, payload map[string]interface{}) error

	// Search returns up to opts.Limit points ranked by descending similarity.
	Search(ctx context.Context, vector []float64, opts *SearchOptions) ([]*ScoredPoint, error)

	// Scroll returns up to limit points in no particular order.
	Scroll(ctx context.Context, limit int) ([]*Record, error)

	// Delete removes points by id. Unknown ids are ignored; an empty list
	// is ErrEmptyIDs.
	Delete(ctx context.Context, ids []string) error

	// Count returns the number of stored points.
	Count(ctx context.Context) (int, error)

	// Close closes the store and releases resources.
	Close() error
}
