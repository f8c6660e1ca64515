package core

import (
	"time"

	"github.com/oceanbase/decaymem-go/pkg/observe"
	"github.com/oceanbase/decaymem-go/pkg/storage"
	"github.com/oceanbase/decaymem-go/pkg/vectors"
)

// DefaultDistinctiveness is used when a store call does not set one.
const DefaultDistinctiveness = 1.0

// ClientOption configures a Client at construction.
type ClientOption func(*Client)

// WithObserver sets the logger and tracer of the client. Default: observe.Nop()
func WithObserver(obs *observe.Observer) ClientOption {
	return func(c *Client) {
		if obs != nil {
			c.obs = obs
		}
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// StoreOption is a function type for configuring Store operations.
//
// Options are applied using the functional options pattern, allowing
// flexible configuration without requiring all parameters.
type StoreOption func(*StoreOptions)

// StoreOptions contains configuration options for Store operations.
type StoreOptions struct {
	// Tags are the context tags of the memory.
	Tags []string

	// Role is the speaker role. Default: vectors.RoleUser
	Role vectors.Role

	// ConversationID identifies the conversation the utterance belongs to.
	ConversationID string

	// Metadata contains additional payload fields about the memory.
	Metadata map[string]interface{}

	// Timestamp is when the utterance occurred. It only shapes the temporal
	// vector; created_at is always the store time. Zero means now.
	Timestamp time.Time

	// Distinctiveness in [0,1]. Default: DefaultDistinctiveness
	Distinctiveness float64
}

func applyStoreOptions(opts []StoreOption) *StoreOptions {
	options := &StoreOptions{
		Role:            vectors.RoleUser,
		Distinctiveness: DefaultDistinctiveness,
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// WithTags sets the context tags for Store operations.
//
// Example:
//
//	id, _ := client.Store(ctx, "content", core.WithTags("conversation", "work"))
func WithTags(tags ...string) StoreOption {
	return func(opts *StoreOptions) {
		opts.Tags = append(opts.Tags, tags...)
	}
}

// WithRole sets the speaker role for Store operations.
//
// Example:
//
//	id, _ := client.Store(ctx, "content", core.WithRole(vectors.RoleAssistant))
func WithRole(role vectors.Role) StoreOption {
	return func(opts *StoreOptions) {
		opts.Role = role
	}
}

// WithConversationID sets the conversation id for Store operations.
func WithConversationID(id string) StoreOption {
	return func(opts *StoreOptions) {
		opts.ConversationID = id
	}
}

// WithMetadata sets metadata for Store operations.
//
// Example:
//
//	id, _ := client.Store(ctx, "content", core.WithMetadata(map[string]interface{}{
//	    "source": "chat",
//	}))
func WithMetadata(metadata map[string]interface{}) StoreOption {
	return func(opts *StoreOptions) {
		opts.Metadata = metadata
	}
}

// WithTimestamp sets the utterance time used for the temporal vector.
func WithTimestamp(t time.Time) StoreOption {
	return func(opts *StoreOptions) {
		opts.Timestamp = t
	}
}

// WithDistinctiveness sets the distinctiveness feature of the contextual vector.
func WithDistinctiveness(d float64) StoreOption {
	return func(opts *StoreOptions) {
		opts.Distinctiveness = d
	}
}

// RetrieveOption is a function type for configuring Retrieve operations.
type RetrieveOption func(*RetrieveOptions)

// RetrieveOptions contains configuration options for Retrieve operations.
type RetrieveOptions struct {
	// Filter restricts candidates by payload field.
	Filter *storage.Filter
}

func applyRetrieveOptions(opts []RetrieveOption) *RetrieveOptions {
	options := &RetrieveOptions{}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// WithFilter restricts Retrieve to memories whose payload matches filter.
//
// Example:
//
//	results, _ := client.Retrieve(ctx, query, 5,
//	    core.WithFilter(storage.ExcludeField("conversation_id", "conv-42")))
func WithFilter(filter *storage.Filter) RetrieveOption {
	return func(opts *RetrieveOptions) {
		opts.Filter = filter
	}
}

// SearchOption configures SearchText.
type SearchOption func(*SearchOptions)

// SearchOptions contains configuration options for SearchText.
type SearchOptions struct {
	// Limit is the number of memories returned. Default: 15
	Limit int

	// ExcludeConversation skips memories of this conversation, typically the current one.
	ExcludeConversation string
}

// WithLimit sets the number of results for SearchText.
func WithLimit(limit int) SearchOption {
	return func(opts *SearchOptions) {
		opts.Limit = limit
	}
}

// WithExcludeConversation skips memories from the given conversation.
func WithExcludeConversation(id string) SearchOption {
	return func(opts *SearchOptions) {
		opts.ExcludeConversation = id
	}
}
