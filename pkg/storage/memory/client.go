// Package memory provides an in-process implementation of storage.VectorStore.
//
// Points live in a map guarded by a RWMutex and search is brute-force
// cosine similarity. Suitable for tests and short-lived processes.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/oceanbase/decaymem-go/pkg/storage"
)

type entry struct {
	vectors map[string][]float64
	payload map[string]interface{}
}

// Client implements VectorStore in memory.
type Client struct {
	mu     sync.RWMutex
	spaces map[string]storage.SpaceConfig
	points map[string]*entry
}

// NewClient creates an empty in-memory store.
func NewClient() *Client {
	return &Client{points: make(map[string]*entry)}
}

// EnsureCollection records the vector spaces.
func (c *Client) EnsureCollection(ctx context.Context, spaces map[string]storage.SpaceConfig) error {
	if err := storage.ValidateSpaces(spaces); err != nil {
		return fmt.Errorf("EnsureCollection: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.spaces != nil {
		for name, sc := range spaces {
			if existing, ok := c.spaces[name]; ok && existing.Dimension != sc.Dimension {
				return fmt.Errorf("EnsureCollection: space %q exists with dimension %d", name, existing.Dimension)
			}
		}
	}
	c.spaces = make(map[string]storage.SpaceConfig, len(spaces))
	for name, sc := range spaces {
		c.spaces[name] = sc
	}
	return nil
}

// Upsert inserts or replaces points. Either all points are written or none.
func (c *Client) Upsert(ctx context.Context, points []*storage.Point) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("Upsert: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, p := range points {
		if err := storage.CheckPoint(p, c.spaces); err != nil {
			return fmt.Errorf("Upsert: %w", err)
		}
	}
	for _, p := range points {
		vectors := make(map[string][]float64, len(p.Vectors))
		for name, v := range p.Vectors {
			vectors[name] = append([]float64(nil), v...)
		}
		c.points[p.ID] = &entry{vectors: vectors, payload: storage.ClonePayload(p.Payload)}
	}
	return nil
}

// SetPayload replaces the payload of an existing point.
func (c *Client) SetPayload(ctx context.Context, id string, payload map[string]interface{}) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("SetPayload: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.points[id]; ok {
		e.payload = storage.ClonePayload(payload)
	}
	return nil
}

// Search ranks every point in the requested space by cosine similarity.
func (c *Client) Search(ctx context.Context, vector []float64, opts *storage.SearchOptions) ([]*storage.ScoredPoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("Search: %w", err)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	sc, ok := c.spaces[opts.Space]
	if !ok {
		return nil, fmt.Errorf("Search: %w: %s", storage.ErrUnknownSpace, opts.Space)
	}
	if len(vector) != sc.Dimension {
		return nil, fmt.Errorf("Search: query has %d values, expected %d", len(vector), sc.Dimension)
	}

	hits := make([]*storage.ScoredPoint, 0, len(c.points))
	for id, e := range c.points {
		if !opts.Filter.Matches(e.payload) {
			continue
		}
		hits = append(hits, &storage.ScoredPoint{
			ID:      id,
			Score:   storage.CosineSimilarity(vector, e.vectors[opts.Space]),
			Payload: storage.ClonePayload(e.payload),
		})
	}
	return storage.SortByScore(hits, opts.Limit), nil
}

// Scroll returns up to limit points.
func (c *Client) Scroll(ctx context.Context, limit int) ([]*storage.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("Scroll: %w", err)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	records := make([]*storage.Record, 0, len(c.points))
	for id, e := range c.points {
		if limit > 0 && len(records) >= limit {
			break
		}
		records = append(records, &storage.Record{ID: id, Payload: storage.ClonePayload(e.payload)})
	}
	return records, nil
}

// Delete removes points by id.
func (c *Client) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return storage.ErrEmptyIDs
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("Delete: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, id := range ids {
		delete(c.points, id)
	}
	return nil
}

// Count returns the number of points.
func (c *Client) Count(ctx context.Context) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.points), nil
}

// Close is a no-op.
func (c *Client) Close() error {
	return nil
}
