//go:build onnx

package onnx

import (
	"context"
	"fmt"
	"math"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// Client runs a sentence-transformer ONNX export (all-MiniLM-L6-v2 by default)
// through ONNX Runtime and returns mean-pooled, unit-length embeddings.
type Client struct {
	session    *ort.DynamicAdvancedSession
	tokenizer  *tokenizer
	dimensions int
	maxLen     int

	// mu serializes inference on the shared session.
	mu sync.Mutex
}

// NewClient loads the runtime, tokenizer and model.
func NewClient(cfg *Config) (*Client, error) {
	if cfg.ModelPath == "" {
		return nil, fmt.Errorf("NewONNXClient: model path is required")
	}
	dimensions := cfg.Dimensions
	if dimensions == 0 {
		dimensions = 384
	}
	maxLen := cfg.MaxSequenceLength
	if maxLen == 0 {
		maxLen = 128
	}

	if cfg.SharedLibraryPath != "" {
		ort.SetSharedLibraryPath(cfg.SharedLibraryPath)
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("NewONNXClient: initialize runtime: %w", err)
		}
	}

	tok, err := loadTokenizer(cfg.TokenizerPath)
	if err != nil {
		return nil, fmt.Errorf("NewONNXClient: load tokenizer: %w", err)
	}

	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{"last_hidden_state"},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("NewONNXClient: create session: %w", err)
	}

	return &Client{
		session:    session,
		tokenizer:  tok,
		dimensions: dimensions,
		maxLen:     maxLen,
	}, nil
}

// Embed converts text to an embedding vector.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	inputIDs, attentionMask := c.tokenizer.encode(text, c.maxLen)
	tokenTypeIDs := make([]int64, c.maxLen)

	shape := ort.NewShape(1, int64(c.maxLen))
	idsTensor, err := ort.NewTensor(shape, inputIDs)
	if err != nil {
		return nil, fmt.Errorf("input_ids tensor: %w", err)
	}
	defer func() { _ = idsTensor.Destroy() }()

	maskTensor, err := ort.NewTensor(shape, attentionMask)
	if err != nil {
		return nil, fmt.Errorf("attention_mask tensor: %w", err)
	}
	defer func() { _ = maskTensor.Destroy() }()

	typeTensor, err := ort.NewTensor(shape, tokenTypeIDs)
	if err != nil {
		return nil, fmt.Errorf("token_type_ids tensor: %w", err)
	}
	defer func() { _ = typeTensor.Destroy() }()

	outputs := []ort.Value{nil}
	c.mu.Lock()
	err = c.session.Run([]ort.Value{idsTensor, maskTensor, typeTensor}, outputs)
	c.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("inference: %w", err)
	}
	defer func() {
		for _, out := range outputs {
			if out != nil {
				_ = out.Destroy()
			}
		}
	}()

	hidden, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected output tensor type")
	}
	return c.pool(hidden.GetData(), hidden.GetShape(), attentionMask)
}

// EmbedBatch embeds each text in turn.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, text := range texts {
		vec, err := c.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

// Dimensions returns the embedding vector size.
func (c *Client) Dimensions() int {
	return c.dimensions
}

// Close releases the ONNX session.
func (c *Client) Close() error {
	if c.session != nil {
		return c.session.Destroy()
	}
	return nil
}

// pool averages token states over attended positions, or passes through an
// already pooled [1, hidden] output.
func (c *Client) pool(data []float32, shape ort.Shape, mask []int64) ([]float64, error) {
	vec := make([]float64, c.dimensions)
	switch len(shape) {
	case 2:
		if len(data) < c.dimensions {
			return nil, fmt.Errorf("output dimension mismatch: got %d, expected %d", len(data), c.dimensions)
		}
		for i := range vec {
			vec[i] = float64(data[i])
		}
	case 3:
		seqLen, hidden := int(shape[1]), int(shape[2])
		if hidden != c.dimensions {
			return nil, fmt.Errorf("hidden size mismatch: got %d, expected %d", hidden, c.dimensions)
		}
		var attended float64
		for t := 0; t < seqLen && t < len(mask); t++ {
			if mask[t] == 0 {
				continue
			}
			attended++
			offset := t * hidden
			for j := 0; j < hidden; j++ {
				vec[j] += float64(data[offset+j])
			}
		}
		if attended > 0 {
			for j := range vec {
				vec[j] /= attended
			}
		}
	default:
		return nil, fmt.Errorf("unexpected output shape: %v", shape)
	}
	return normalize(vec), nil
}

func normalize(vec []float64) []float64 {
	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}
