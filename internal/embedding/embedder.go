// Package embedding provides text embedding providers: local ONNX sentence
// transformers, the Gemini API, and a deterministic mock, plus a memoizing wrapper.
package embedding

import (
	"context"
	"errors"
)

// Embedder produces L2-normalized vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
	ModelName() string
	Close() error
}

// Factory loads the embedder for modelName. It is called once, when the
// cache engine initializes; loading a model may be slow.
type Factory func(ctx context.Context, modelName string) (Embedder, error)

var (
	// ErrUnknownModel is returned for a model name missing from the catalog.
	ErrUnknownModel = errors.New("embedding: unknown model")
	// ErrUnavailable is returned when a provider lacks what it needs to run
	// (shared library, API key).
	ErrUnavailable = errors.New("embedding: provider unavailable")
)

// Provider names accepted in configuration.
const (
	ProviderONNX   = "onnx"
	ProviderGemini = "gemini"
	ProviderMock   = "mock"
)
