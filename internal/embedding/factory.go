package embedding

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// ProviderOptions selects and configures the embedding provider.
type ProviderOptions struct {
	Provider  string
	ModelDir  string
	MaxTokens int
	// CacheSize bounds the embedding memo; negative disables it.
	CacheSize int
	// LibraryPath is the onnxruntime shared library; empty uses the default.
	LibraryPath      string
	GeminiAPIKey     string
	GeminiModel      string
	GeminiDimensions int
}

// NewFactory returns a Factory building the configured provider. The model
// name passed to the factory selects the ONNX catalog model; the Gemini
// provider uses GeminiModel and the mock sizes itself from the catalog.
func NewFactory(opts ProviderOptions, logger *zap.Logger) Factory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, modelName string) (Embedder, error) {
		var (
			inner Embedder
			err   error
		)
		switch opts.Provider {
		case ProviderONNX, "":
			inner, err = NewONNXEmbedder(opts.ModelDir, modelName, opts.MaxTokens, opts.LibraryPath)
		case ProviderGemini:
			inner, err = NewGeminiEmbedder(ctx, opts.GeminiAPIKey, opts.GeminiModel, opts.GeminiDimensions)
		case ProviderMock:
			dims := 384
			if info, lerr := LookupModel(modelName); lerr == nil {
				dims = info.Dimensions
			}
			inner = NewMockEmbedder(dims)
		default:
			return nil, fmt.Errorf("unknown embedding provider %q", opts.Provider)
		}
		if err != nil {
			return nil, err
		}
		logger.Info("Embedding model loaded",
			zap.String("provider", providerName(opts.Provider)),
			zap.String("model", inner.ModelName()),
			zap.Int("dimensions", inner.Dimensions()))

		if opts.CacheSize < 0 {
			return inner, nil
		}
		cached, err := NewCachingEmbedder(inner, opts.CacheSize)
		if err != nil {
			_ = inner.Close()
			return nil, err
		}
		return cached, nil
	}
}

func providerName(p string) string {
	if p == "" {
		return ProviderONNX
	}
	return p
}
