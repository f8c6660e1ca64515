package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/oceanbase/decaymem-go/pkg/embedder"
	"github.com/oceanbase/decaymem-go/pkg/intelligence"
	"github.com/oceanbase/decaymem-go/pkg/observe"
	"github.com/oceanbase/decaymem-go/pkg/sentiment"
	"github.com/oceanbase/decaymem-go/pkg/storage"
	"github.com/oceanbase/decaymem-go/pkg/vectors"
)

// Dependencies are the external collaborators of a Client.
type Dependencies struct {
	// Index stores the memories and answers similarity queries (required).
	Index storage.VectorStore

	// Embedder produces the semantic vector (required).
	Embedder embedder.Provider

	// Sentiment scores emotional charge. Default: sentiment.NewLexicon(nil)
	Sentiment sentiment.Analyzer
}

// Client is the decaying-strength memory store.
//
// It provides:
//   - Writes in one of two insert modes fixed at construction
//   - Similarity retrieval annotated with the current memory strength
//   - Background access-statistics updates after every retrieval
//   - Eviction of weak memories and of the weakest beyond capacity
//
// The client is thread-safe and can be used concurrently from multiple
// goroutines. No operation holds a client-wide lock.
//
// Example usage:
//
//	config, _ := core.LoadConfigFromEnv()
//	client, _ := core.NewClientFromConfig(config)
//	defer client.Close()
//
//	id, _ := client.Store(ctx, "I finally fixed the deploy script!",
//	    core.WithTags("conversation"),
//	    core.WithConversationID("conv-42"),
//	)
type Client struct {
	cfg      *Config
	mode     InsertMode
	priority []vectors.Space
	timeout  time.Duration
	loc      *time.Location

	index     storage.VectorStore
	embedder  embedder.Provider
	sentiment sentiment.Analyzer
	generator *vectors.Generator
	scorer    *intelligence.Scorer
	ids       IDGenerator
	tracker   *accessTracker

	obs *observe.Observer
	now func() time.Time

	cleanups  singleflight.Group
	available atomic.Bool
	closeOnce sync.Once
	closeErr  error

	// owned are closed with the client, in order.
	owned []io.Closer
}

// NewClient creates a memory client over the given collaborators.
//
// The configuration is validated and the vector spaces are created in the
// index before the client is returned.
//
// Example:
//
//	client, err := core.NewClient(core.DefaultConfig(), core.Dependencies{
//	    Index:    memory.NewClient(),
//	    Embedder: hash.NewClient(384),
//	})
func NewClient(cfg *Config, deps Dependencies, opts ...ClientOption) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Index == nil || deps.Embedder == nil {
		return nil, NewMemoryError("NewClient", fmt.Errorf("%w: vector index and embedder are required", ErrInvalidConfig))
	}
	dims := cfg.Vectors.Dimensions
	if d := deps.Embedder.Dimensions(); d > 0 && d != dims.Semantic {
		return nil, NewMemoryError("NewClient", fmt.Errorf("%w: embedder produces %d dimensions, semantic space has %d",
			ErrInvalidConfig, d, dims.Semantic))
	}

	// Validate already checked these.
	mode, _ := ParseInsertMode(cfg.Memory.InsertMode)
	priority, _ := cfg.queryPriority()
	loc, _ := cfg.location()
	strategy, _ := vectors.ParseSlotStrategy(cfg.Vectors.SlotStrategy)

	generator, err := vectors.NewGenerator(deps.Embedder, vectors.Config{
		Dimensions:   dims,
		SlotStrategy: strategy,
		Location:     loc,
	})
	if err != nil {
		return nil, NewMemoryError("NewClient", err)
	}

	ids, err := NewIDGenerator(cfg.IDScheme, cfg.NodeID)
	if err != nil {
		return nil, NewMemoryError("NewClient", err)
	}

	analyzer := deps.Sentiment
	if analyzer == nil {
		analyzer = sentiment.NewLexicon(nil)
	}

	c := &Client{
		cfg:       cfg,
		mode:      mode,
		priority:  priority,
		timeout:   cfg.timeout(),
		loc:       loc,
		index:     deps.Index,
		embedder:  deps.Embedder,
		sentiment: analyzer,
		generator: generator,
		scorer:    intelligence.NewScorer(cfg.strengthConfig()),
		ids:       ids,
		obs:       observe.Nop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	if err := c.index.EnsureCollection(ctx, spaceConfigs(dims)); err != nil {
		return nil, NewMemoryError("NewClient", dependencyError("vector index", err))
	}

	c.tracker = newAccessTracker(c.index, c.obs, cfg.Access.Workers, cfg.Access.QueueSize, c.timeout)
	c.available.Store(true)

	c.obs.Log().Info().
		Str("mode", mode.String()).
		Str("index", cfg.VectorStore.Provider).
		Int("max_memories", cfg.Memory.MaxMemories).
		Msg("memory client ready")
	return c, nil
}

func spaceConfigs(dims vectors.Dimensions) map[string]storage.SpaceConfig {
	spaces := make(map[string]storage.SpaceConfig, len(vectors.AllSpaces))
	for _, s := range vectors.AllSpaces {
		spaces[string(s)] = storage.SpaceConfig{Dimension: dims.Of(s), Distance: storage.DistanceCosine}
	}
	return spaces
}

// Mode returns the insert mode the client was built with.
func (c *Client) Mode() InsertMode {
	return c.mode
}

// Scorer returns the strength scorer used by the client.
func (c *Client) Scorer() *intelligence.Scorer {
	return c.scorer
}

// IsAvailable reports whether the client is initialized and not closed.
func (c *Client) IsAvailable() bool {
	return c.available.Load()
}

// Store writes one memory and then runs cleanup.
//
// Only valid in ModeImmediate; in ModeBuffered it fails with ErrMode.
//
// The method:
//  1. Scores the sentiment of content for its emotional charge
//  2. Generates the four vectors
//  3. Writes the memory with created_at = last_accessed = now and retrieval_count = 0
//  4. Runs cleanup, logging rather than returning its failures
//
// Returns the new memory id. Errors match ErrValidation for a vector of the
// wrong length, ErrDependency for a failed sentiment or embedding call and
// ErrStorage for a failed write.
func (c *Client) Store(ctx context.Context, content string, opts ...StoreOption) (string, error) {
	const op = "Store"
	if !c.IsAvailable() {
		return "", NewMemoryError(op, ErrNotAvailable)
	}
	if c.mode != ModeImmediate {
		return "", NewMemoryError(op, fmt.Errorf("%w: Store requires immediate mode, client is %s", ErrMode, c.mode))
	}

	ctx, span := c.obs.StartSpan(ctx, "decaymem.Store")
	defer span.End()

	o := applyStoreOptions(opts)
	entry := Entry{
		Content:         content,
		Tags:            o.Tags,
		Role:            o.Role,
		ConversationID:  o.ConversationID,
		Metadata:        o.Metadata,
		Timestamp:       o.Timestamp,
		Distinctiveness: o.Distinctiveness,
	}

	charge, err := c.charge(ctx, content)
	if err != nil {
		return "", NewMemoryError(op, err)
	}

	genCtx, cancel := c.withTimeout(ctx)
	bundle, err := c.generator.Generate(genCtx, c.vectorInput(entry, charge))
	cancel()
	if err != nil {
		return "", NewMemoryError(op, generationError(err))
	}

	point, err := c.newPoint(entry, bundle, charge, c.now())
	if err != nil {
		return "", NewMemoryError(op, err)
	}

	if err := c.upsert(ctx, []*storage.Point{point}); err != nil {
		return "", NewMemoryError(op, err)
	}

	c.obs.Log().Debug().Str("id", point.ID).Int("tags", len(vectors.UniqueTags(entry.Tags))).Msg("stored memory")
	c.autoCleanup(ctx)
	return point.ID, nil
}

// StoreBulk writes entries with a single index call and then runs cleanup once.
//
// Only valid in ModeBuffered; in ModeImmediate it fails with ErrMode. The
// batch is as atomic as the vector index makes a multi-point upsert: the
// SQL backends use one transaction, the others are best effort.
//
// Returns one id per entry, in entry order. An empty batch returns an empty
// slice without touching the index.
func (c *Client) StoreBulk(ctx context.Context, entries []Entry) ([]string, error) {
	const op = "StoreBulk"
	if !c.IsAvailable() {
		return nil, NewMemoryError(op, ErrNotAvailable)
	}
	if c.mode != ModeBuffered {
		return nil, NewMemoryError(op, fmt.Errorf("%w: StoreBulk requires buffered mode, client is %s", ErrMode, c.mode))
	}
	if len(entries) == 0 {
		return []string{}, nil
	}

	ctx, span := c.obs.StartSpan(ctx, "decaymem.StoreBulk")
	defer span.End()

	charges := make([]float64, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Memory.BulkConcurrency)
	for i := range entries {
		g.Go(func() error {
			charge, err := c.charge(gctx, entries[i].Content)
			if err != nil {
				return fmt.Errorf("entry %d: %w", i, err)
			}
			charges[i] = charge
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, NewMemoryError(op, err)
	}

	inputs := make([]vectors.Input, len(entries))
	for i, e := range entries {
		if e.Distinctiveness == 0 {
			e.Distinctiveness = DefaultDistinctiveness
		}
		inputs[i] = c.vectorInput(e, charges[i])
	}

	genCtx, cancel := c.withTimeout(ctx)
	bundles, err := c.generator.GenerateBatch(genCtx, inputs)
	cancel()
	if err != nil {
		return nil, NewMemoryError(op, generationError(err))
	}

	now := c.now()
	points := make([]*storage.Point, len(entries))
	ids := make([]string, len(entries))
	for i, e := range entries {
		p, err := c.newPoint(e, bundles[i], charges[i], now)
		if err != nil {
			return nil, NewMemoryError(op, fmt.Errorf("entry %d: %w", i, err))
		}
		points[i] = p
		ids[i] = p.ID
	}

	if err := c.upsert(ctx, points); err != nil {
		return nil, NewMemoryError(op, err)
	}

	c.obs.Log().Info().Int("count", len(points)).Msg("stored memory batch")
	c.autoCleanup(ctx)
	return ids, nil
}

// Add stores content in whichever insert mode the client was built with. In
// ModeBuffered it is a batch of one.
func (c *Client) Add(ctx context.Context, content string, opts ...StoreOption) (string, error) {
	if c.mode == ModeImmediate {
		return c.Store(ctx, content, opts...)
	}
	o := applyStoreOptions(opts)
	ids, err := c.StoreBulk(ctx, []Entry{{
		Content:         content,
		Tags:            o.Tags,
		Role:            o.Role,
		ConversationID:  o.ConversationID,
		Metadata:        o.Metadata,
		Timestamp:       o.Timestamp,
		Distinctiveness: o.Distinctiveness,
	}})
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

// GenerateVectors produces the vector bundle of a query text, the way a
// memory with that content would be encoded. The result can be passed to
// Retrieve through Bundle.Map.
func (c *Client) GenerateVectors(ctx context.Context, content string, opts ...StoreOption) (vectors.Bundle, error) {
	o := applyStoreOptions(opts)
	charge, err := c.charge(ctx, content)
	if err != nil {
		return vectors.Bundle{}, NewMemoryError("GenerateVectors", err)
	}

	genCtx, cancel := c.withTimeout(ctx)
	defer cancel()
	bundle, err := c.generator.Generate(genCtx, c.vectorInput(Entry{
		Content:         content,
		Tags:            o.Tags,
		Role:            o.Role,
		Timestamp:       o.Timestamp,
		Distinctiveness: o.Distinctiveness,
	}, charge))
	if err != nil {
		return vectors.Bundle{}, NewMemoryError("GenerateVectors", generationError(err))
	}
	return bundle, nil
}

// charge scores the emotional charge of text.
func (c *Client) charge(ctx context.Context, text string) (float64, error) {
	if strings.TrimSpace(text) == "" {
		return 0, nil
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	score, err := c.sentiment.Score(ctx, text)
	if err != nil {
		return 0, dependencyError("sentiment analyzer", err)
	}
	return sentiment.Charge(score), nil
}

func (c *Client) vectorInput(e Entry, charge float64) vectors.Input {
	return vectors.Input{
		Content:         e.Content,
		Timestamp:       e.Timestamp,
		Tags:            e.Tags,
		EmotionalCharge: charge,
		Distinctiveness: e.Distinctiveness,
		Role:            e.Role,
	}
}

// newPoint builds the index point of a fresh memory.
func (c *Client) newPoint(e Entry, bundle vectors.Bundle, charge float64, now time.Time) (*storage.Point, error) {
	if err := bundle.Validate(c.generator.Dimensions()); err != nil {
		return nil, validationError("%v", err)
	}

	m := &Memory{
		ID:              c.ids.NewID(),
		Content:         e.Content,
		Role:            e.Role,
		ContextTags:     vectors.UniqueTags(e.Tags),
		EmotionalCharge: charge,
		CreatedAt:       now,
		LastAccessed:    now,
		RetrievalCount:  0,
		ConversationID:  e.ConversationID,
		Metadata:        e.Metadata,
	}
	return &storage.Point{
		ID:      m.ID,
		Vectors: bundle.Map(),
		Payload: toPayload(m),
	}, nil
}

func (c *Client) upsert(ctx context.Context, points []*storage.Point) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if err := c.index.Upsert(ctx, points); err != nil {
		return storageError(err)
	}
	return nil
}

func (c *Client) autoCleanup(ctx context.Context) {
	if !c.cfg.Memory.AutoCleanup {
		return
	}
	res, err := c.Cleanup(ctx)
	if err != nil {
		c.obs.Log().Warn().Err(err).Msg("cleanup after store failed")
		return
	}
	if res.Deleted > 0 {
		c.obs.Log().Debug().Int("deleted", res.Deleted).Msg("cleanup after store")
	}
}

// withTimeout bounds one collaborator call by the operation timeout. A
// tighter caller deadline still wins.
func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.timeout)
}

// Flush waits until the access-statistics updates of every earlier
// retrieval have been applied, or ctx is done.
func (c *Client) Flush(ctx context.Context) error {
	return c.tracker.flush(ctx)
}

// Close drains pending access updates and closes the collaborators the
// client owns. If created by NewClient, the caller keeps ownership of the
// dependencies passed in.
//
// Example:
//
//	defer client.Close()
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.available.Store(false)
		c.tracker.close()

		var errs []error
		for _, closer := range c.owned {
			if err := closer.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		c.closeErr = NewMemoryError("Close", errors.Join(errs...))
	})
	return c.closeErr
}
