// Package chromem provides a storage.VectorStore backed by chromem-go, a
// pure Go embedded vector database.
//
// Every vector space is its own chromem collection. Payloads live in a
// separate records collection keyed by point id, so payload updates never
// touch the vector collections. With a Path the database is persisted to disk.
package chromem

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/oceanbase/decaymem-go/pkg/storage"
)

// Config contains configuration for the chromem store.
type Config struct {
	// Path persists the database under this directory. Empty keeps it in memory.
	Path string

	// Compress enables gzip compression of persisted files.
	Compress bool

	// CollectionName prefixes every chromem collection. Default: "memories"
	CollectionName string
}

// Client implements VectorStore on chromem-go.
type Client struct {
	db             *chromem.DB
	collectionName string

	mu      sync.RWMutex
	spaces  map[string]storage.SpaceConfig
	vectors map[string]*chromem.Collection
	records *chromem.Collection
}

// recordEmbedding is the fixed embedding of documents in the records collection.
var recordEmbedding = []float32{1}

// NewClient creates a chromem store.
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	name := cfg.CollectionName
	if name == "" {
		name = "memories"
	}
	if !storage.ValidKey(name) {
		return nil, fmt.Errorf("NewChromemClient: invalid collection name %q", name)
	}

	var db *chromem.DB
	if cfg.Path == "" {
		db = chromem.NewDB()
	} else {
		var err error
		db, err = chromem.NewPersistentDB(cfg.Path, cfg.Compress)
		if err != nil {
			return nil, fmt.Errorf("NewChromemClient: %w", err)
		}
	}

	return &Client{
		db:             db,
		collectionName: name,
		vectors:        make(map[string]*chromem.Collection),
	}, nil
}

// EnsureCollection opens or creates one collection per space plus the records collection.
func (c *Client) EnsureCollection(ctx context.Context, spaces map[string]storage.SpaceConfig) error {
	if err := storage.ValidateSpaces(spaces); err != nil {
		return fmt.Errorf("EnsureCollection: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	records, err := c.db.GetOrCreateCollection(c.collectionName+"_records", nil, nil)
	if err != nil {
		return fmt.Errorf("EnsureCollection: %w", err)
	}

	vectors := make(map[string]*chromem.Collection, len(spaces))
	for name := range spaces {
		col, err := c.db.GetOrCreateCollection(c.collectionName+"_"+name, nil, nil)
		if err != nil {
			return fmt.Errorf("EnsureCollection: %w", err)
		}
		vectors[name] = col
	}

	c.records = records
	c.vectors = vectors
	c.spaces = make(map[string]storage.SpaceConfig, len(spaces))
	for name, sc := range spaces {
		c.spaces[name] = sc
	}
	return nil
}

// Upsert writes the payload and every space vector of each point.
//
// chromem normalizes embeddings on insert, so zero vectors are kept out of
// the space collections. Such points still appear in searches with score 0.
func (c *Client) Upsert(ctx context.Context, points []*storage.Point) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.records == nil {
		return fmt.Errorf("Upsert: collection not initialized")
	}
	for _, p := range points {
		if err := storage.CheckPoint(p, c.spaces); err != nil {
			return fmt.Errorf("Upsert: %w", err)
		}
	}

	for _, p := range points {
		if err := c.putRecord(ctx, p.ID, p.Payload); err != nil {
			return fmt.Errorf("Upsert: %w", err)
		}
		for name, col := range c.vectors {
			embedding := toFloat32(p.Vectors[name])
			if isZero(embedding) {
				if err := deleteIfPresent(ctx, col, p.ID); err != nil {
					return fmt.Errorf("Upsert: %w", err)
				}
				continue
			}
			doc := chromem.Document{ID: p.ID, Content: p.ID, Embedding: embedding}
			if err := col.AddDocument(ctx, doc); err != nil {
				return fmt.Errorf("Upsert: %w", err)
			}
		}
	}
	return nil
}

func (c *Client) putRecord(ctx context.Context, id string, payload map[string]interface{}) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	doc := chromem.Document{
		ID:        id,
		Content:   string(payloadJSON),
		Embedding: append([]float32(nil), recordEmbedding...),
	}
	return c.records.AddDocument(ctx, doc)
}

// SetPayload replaces the payload of an existing point.
func (c *Client) SetPayload(ctx context.Context, id string, payload map[string]interface{}) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.records == nil {
		return fmt.Errorf("SetPayload: collection not initialized")
	}
	if _, err := c.records.GetByID(ctx, id); err != nil {
		// Missing point.
		return nil
	}
	if err := c.putRecord(ctx, id, payload); err != nil {
		return fmt.Errorf("SetPayload: %w", err)
	}
	return nil
}

// Search queries the space collection and resolves payloads from the records collection.
func (c *Client) Search(ctx context.Context, vector []float64, opts *storage.SearchOptions) ([]*storage.ScoredPoint, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	sc, ok := c.spaces[opts.Space]
	if !ok {
		return nil, fmt.Errorf("Search: %w: %s", storage.ErrUnknownSpace, opts.Space)
	}
	if len(vector) != sc.Dimension {
		return nil, fmt.Errorf("Search: query has %d values, expected %d", len(vector), sc.Dimension)
	}

	col := c.vectors[opts.Space]
	query := toFloat32(vector)

	hits := []*storage.ScoredPoint{}
	seen := map[string]bool{}

	// chromem-go requires 0 < nResults <= collection size. Filtering happens
	// after the query, so a filtered search ranks every document.
	n := col.Count()
	if opts.Filter.IsEmpty() && opts.Limit > 0 && opts.Limit < n {
		n = opts.Limit
	}
	if n > 0 && !isZero(query) {
		results, err := col.QueryEmbedding(ctx, query, n, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("Search: %w", err)
		}
		for _, r := range results {
			payload, ok, err := c.payload(ctx, r.ID)
			if err != nil {
				return nil, fmt.Errorf("Search: %w", err)
			}
			if !ok || !opts.Filter.Matches(payload) {
				continue
			}
			seen[r.ID] = true
			hits = append(hits, &storage.ScoredPoint{ID: r.ID, Score: float64(r.Similarity), Payload: payload})
		}
	}

	// Points without a vector in this space (or a zero query) score 0.
	if opts.Limit <= 0 || len(hits) < opts.Limit {
		records, err := c.scroll(ctx, 0)
		if err != nil {
			return nil, fmt.Errorf("Search: %w", err)
		}
		for _, r := range records {
			if seen[r.ID] || !opts.Filter.Matches(r.Payload) {
				continue
			}
			hits = append(hits, &storage.ScoredPoint{ID: r.ID, Score: 0, Payload: r.Payload})
		}
	}

	return storage.SortByScore(hits, opts.Limit), nil
}

func (c *Client) payload(ctx context.Context, id string) (map[string]interface{}, bool, error) {
	doc, err := c.records.GetByID(ctx, id)
	if err != nil {
		return nil, false, nil
	}
	payload, err := decodePayload(doc.Content)
	if err != nil {
		return nil, false, err
	}
	return payload, true, nil
}

// Scroll returns up to limit points.
func (c *Client) Scroll(ctx context.Context, limit int) ([]*storage.Record, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.records == nil {
		return nil, fmt.Errorf("Scroll: collection not initialized")
	}
	records, err := c.scroll(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("Scroll: %w", err)
	}
	return records, nil
}

func (c *Client) scroll(ctx context.Context, limit int) ([]*storage.Record, error) {
	n := c.records.Count()
	if limit > 0 && limit < n {
		n = limit
	}
	if n == 0 {
		return []*storage.Record{}, nil
	}

	// Every record shares the same embedding, so this returns n arbitrary records.
	results, err := c.records.QueryEmbedding(ctx, recordEmbedding, n, nil, nil)
	if err != nil {
		return nil, err
	}

	records := make([]*storage.Record, 0, len(results))
	for _, r := range results {
		payload, err := decodePayload(r.Content)
		if err != nil {
			return nil, err
		}
		records = append(records, &storage.Record{ID: r.ID, Payload: payload})
	}
	return records, nil
}

// Delete removes points from the records collection and every space collection.
func (c *Client) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return storage.ErrEmptyIDs
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.records == nil {
		return fmt.Errorf("Delete: collection not initialized")
	}
	cols := []*chromem.Collection{c.records}
	for _, col := range c.vectors {
		cols = append(cols, col)
	}
	for _, col := range cols {
		for _, id := range ids {
			if err := deleteIfPresent(ctx, col, id); err != nil {
				return fmt.Errorf("Delete: %w", err)
			}
		}
	}
	return nil
}

// Count returns the number of points.
func (c *Client) Count(ctx context.Context) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.records == nil {
		return 0, nil
	}
	return c.records.Count(), nil
}

// Close releases resources. chromem-go writes persisted documents on insert,
// so there is nothing to flush.
func (c *Client) Close() error {
	return nil
}

func deleteIfPresent(ctx context.Context, col *chromem.Collection, id string) error {
	if _, err := col.GetByID(ctx, id); err != nil {
		return nil
	}
	return col.Delete(ctx, nil, nil, id)
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}

func isZero(v []float32) bool {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	return norm == 0 || math.IsNaN(norm)
}

func decodePayload(s string) (map[string]interface{}, error) {
	payload := map[string]interface{}{}
	if s == "" || s == "null" {
		return payload, nil
	}
	if err := json.Unmarshal([]byte(s), &payload); err != nil {
		return nil, err
	}
	return payload, nil
}
