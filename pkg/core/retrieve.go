package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/oceanbase/decaymem-go/pkg/storage"
	"github.com/oceanbase/decaymem-go/pkg/vectors"
)

// Messages returned by FormatResults when there is nothing to list.
const (
	MessageUnavailable = "Memory search is not available at the moment."
	MessageNoResults   = "No relevant memories found from previous conversations."
)

// DefaultSearchLimit is the number of memories SearchText returns.
const DefaultSearchLimit = 15

// Retrieve queries the index with one vector of query and returns the hits
// ranked by descending similarity.
//
// The space is the first one of the configured query priority (default
// semantic, temporal, contextual, role) present in query. The filter is
// passed to the index untouched. Each result carries the strength of the
// memory before this retrieval, and its statistics are then updated in the
// background: last_accessed = now and retrieval_count + 1. Those updates
// outlive ctx and never fail the call.
//
// Errors match ErrValidation for an unknown space name, a vector of the
// wrong length or a non-positive limit. If the index fails, Retrieve logs
// the error and returns an empty slice together with an ErrDependency error.
//
// Example:
//
//	bundle, _ := client.GenerateVectors(ctx, "dentist appointment")
//	results, err := client.Retrieve(ctx, bundle.Map(), 5)
func (c *Client) Retrieve(ctx context.Context, query map[string][]float64, limit int, opts ...RetrieveOption) ([]*Result, error) {
	const op = "Retrieve"
	if !c.IsAvailable() {
		return []*Result{}, NewMemoryError(op, ErrNotAvailable)
	}
	if limit <= 0 {
		return nil, NewMemoryError(op, validationError("limit must be positive, got %d", limit))
	}
	space, vector, err := c.selectQuery(query)
	if err != nil {
		return nil, NewMemoryError(op, err)
	}
	o := applyRetrieveOptions(opts)

	ctx, span := c.obs.StartSpan(ctx, "decaymem.Retrieve")
	defer span.End()

	searchCtx, cancel := c.withTimeout(ctx)
	hits, err := c.index.Search(searchCtx, vector, &storage.SearchOptions{
		Space:  string(space),
		Limit:  limit,
		Filter: o.Filter,
	})
	cancel()
	if err != nil {
		err = dependencyError("vector index", err)
		c.obs.Log().Error().Err(err).Str("space", string(space)).Msg("memory retrieval failed")
		return []*Result{}, NewMemoryError(op, err)
	}

	now := c.now()
	results := make([]*Result, 0, len(hits))
	for _, hit := range hits {
		m := fromScoredPoint(hit)
		strength := c.scorer.Strength(m.signals(), now)

		c.tracker.enqueue(accessUpdate{id: hit.ID, payload: touched(hit.Payload, m, now)})
		m.LastAccessed = now
		m.RetrievalCount++

		results = append(results, &Result{
			ID:       hit.ID,
			Score:    hit.Score,
			Strength: strength,
			Memory:   m,
		})
	}

	c.obs.Log().Debug().Str("space", string(space)).Int("hits", len(results)).Msg("retrieved memories")
	return results, nil
}

// selectQuery picks the query vector by priority and checks its length.
func (c *Client) selectQuery(query map[string][]float64) (vectors.Space, []float64, error) {
	for name := range query {
		if _, err := vectors.ParseSpace(name); err != nil {
			return "", nil, validationError("%v", err)
		}
	}
	for _, space := range c.priority {
		vector, ok := query[string(space)]
		if !ok || len(vector) == 0 {
			continue
		}
		if want := c.generator.Dimensions().Of(space); len(vector) != want {
			return "", nil, validationError("%v: %s query has %d values, expected %d",
				vectors.ErrDimensionMismatch, space, len(vector), want)
		}
		return space, vector, nil
	}
	return "", nil, validationError("query has no vector for any of %v", c.priority)
}

// SearchText finds memories related to a text query, the way an agent looks
// through earlier conversations.
//
// The query is encoded as a user utterance tagged "search_query" and
// matched in the semantic space. WithExcludeConversation skips the current
// conversation. Failures are logged and yield no results; use
// FormatResults to render the outcome.
func (c *Client) SearchText(ctx context.Context, query string, opts ...SearchOption) ([]*Result, error) {
	o := &SearchOptions{Limit: DefaultSearchLimit}
	for _, opt := range opts {
		opt(o)
	}
	if !c.IsAvailable() {
		return nil, NewMemoryError("SearchText", ErrNotAvailable)
	}

	bundle, err := c.GenerateVectors(ctx, query,
		WithRole(vectors.RoleUser),
		WithTags("search_query"),
	)
	if err != nil {
		c.obs.Log().Error().Err(err).Msg("failed to encode search query")
		return []*Result{}, err
	}

	var retrieveOpts []RetrieveOption
	if o.ExcludeConversation != "" {
		retrieveOpts = append(retrieveOpts, WithFilter(storage.ExcludeField(PayloadConversationID, o.ExcludeConversation)))
	}
	return c.Retrieve(ctx, map[string][]float64{
		string(vectors.SpaceSemantic): bundle.Semantic,
	}, o.Limit, retrieveOpts...)
}

// FormatResults renders search results as markdown for a language model.
// Timestamps are shown in the configured time zone.
func (c *Client) FormatResults(query string, results []*Result) string {
	if !c.IsAvailable() {
		return MessageUnavailable
	}
	if len(results) == 0 {
		return MessageNoResults
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Memory Search Results for: \"%s\"\n\n", query)
	fmt.Fprintf(&b, "Found %d relevant memories from previous conversations:\n\n", len(results))
	for i, r := range results {
		m := r.Memory
		fmt.Fprintf(&b, "**%d.** `%s` **%s**: %s\n",
			i+1, m.CreatedAt.In(c.loc).Format("2006-01-02 15:04"), m.Role, m.Content)
	}
	return strings.TrimSpace(b.String())
}
