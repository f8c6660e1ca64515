//go:build !onnx

package onnx

import (
	"context"
)

// Client is unavailable in this build.
type Client struct{}

// NewClient always fails with ErrUnsupported.
func NewClient(cfg *Config) (*Client, error) {
	return nil, ErrUnsupported
}

// Embed always fails with ErrUnsupported.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	return nil, ErrUnsupported
}

// EmbedBatch always fails with ErrUnsupported.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	return nil, ErrUnsupported
}

// Dimensions returns 0.
func (c *Client) Dimensions() int {
	return 0
}

// Close is a no-op.
func (c *Client) Close() error {
	return nil
}
