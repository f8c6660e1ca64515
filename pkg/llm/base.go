// Package llm defines the chat-completion interface used by model-backed
// collaborators such as the LLM sentiment analyzer.
package llm

import "context"

// Provider defines the interface for LLM providers.
type Provider interface {
	// Generate generates text from a single user prompt.
	Generate(ctx context.Context, prompt string, opts ...GenerateOption) (string, error)

	// GenerateWithMessages generates text from a conversation history.
	GenerateWithMessages(ctx context.Context, messages []Message, opts ...GenerateOption) (string, error)

	// Close closes the provider and releases resources.
	Close() error
}

// Message represents a single message in a conversation.
type Message struct {
	// Role is the message role: "system", "user", or "assistant".
	Role string `json:"role"`

	// Content is the message content text.
	Content string `json:"content"`
}

// GenerateOptions contains options for text generation.
type GenerateOptions struct {
	// Temperature controls randomness (0.0-2.0).
	Temperature float64

	// MaxTokens limits the maximum number of tokens in the response.
	MaxTokens int

	// JSON asks the provider to return a JSON object.
	JSON bool
}

// GenerateOption is a function type for configuring generation options.
type GenerateOption func(*GenerateOptions)

// WithTemperature sets the temperature for text generation.
func WithTemperature(temp float64) GenerateOption {
	return func(opts *GenerateOptions) {
		opts.Temperature = temp
	}
}

// WithMaxTokens sets the maximum number of tokens in the response.
func WithMaxTokens(max int) GenerateOption {
	return func(opts *GenerateOptions) {
		opts.MaxTokens = max
	}
}

// WithJSONResponse requests a JSON object response.
//
// Example:
//
//	text, _ := provider.Generate(ctx, prompt, llm.WithJSONResponse())
func WithJSONResponse() GenerateOption {
	return func(opts *GenerateOptions) {
		opts.JSON = true
	}
}

// ApplyGenerateOptions applies opts over the defaults Temperature=0, MaxTokens=256.
func ApplyGenerateOptions(opts []GenerateOption) *GenerateOptions {
	options := &GenerateOptions{
		Temperature: 0,
		MaxTokens:   256,
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}
