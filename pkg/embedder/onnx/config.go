// Package onnx provides a local embedder.Provider running a sentence-transformer
// model through ONNX Runtime.
//
// The runtime binding is compiled only with the "onnx" build tag, because it
// needs the onnxruntime shared library at link and run time. Without the tag
// NewClient returns ErrUnsupported.
package onnx

import "errors"

// ErrUnsupported is returned by NewClient in builds without the "onnx" tag.
var ErrUnsupported = errors.New("onnx embedder not compiled in (build with -tags onnx)")

// Config configures the ONNX embedder.
type Config struct {
	// ModelPath is the path to the ONNX model file.
	ModelPath string

	// TokenizerPath is the path to the HuggingFace tokenizer.json file.
	TokenizerPath string

	// SharedLibraryPath is the path to libonnxruntime (optional).
	SharedLibraryPath string

	// Dimensions is the embedding vector size (default: 384).
	Dimensions int

	// MaxSequenceLength is the padded token length (default: 128).
	MaxSequenceLength int
}
