package embedding

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/hyperjump/semcache/pkg/utils"
)

// DefaultGeminiModel is the Gemini embedding model used when none is configured.
const DefaultGeminiModel = "text-embedding-004"

// DefaultGeminiDimensions is the native output size of DefaultGeminiModel.
const DefaultGeminiDimensions = 768

// GeminiEmbedder calls the Gemini API embedContent endpoint.
type GeminiEmbedder struct {
	client     *genai.Client
	model      string
	dimensions int
}

// NewGeminiEmbedder creates a client for the Gemini API. dimensions <= 0
// uses DefaultGeminiDimensions; other values are requested from the API as
// the output dimensionality.
func NewGeminiEmbedder(ctx context.Context, apiKey, model string, dimensions int) (*GeminiEmbedder, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("%w: gemini api key not set", ErrUnavailable)
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	if dimensions <= 0 {
		dimensions = DefaultGeminiDimensions
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiEmbedder{client: client, model: model, dimensions: dimensions}, nil
}

// Embed returns the normalized embedding of text.
func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	dims := int32(e.dimensions)
	resp, err := e.client.Models.EmbedContent(
		ctx,
		e.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: text}}}},
		&genai.EmbedContentConfig{
			TaskType:             "SEMANTIC_SIMILARITY",
			OutputDimensionality: &dims,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("gemini embed: %w", err)
	}
	if len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil {
		return nil, fmt.Errorf("gemini embed: no embedding values returned")
	}
	values := resp.Embeddings[0].Values
	if len(values) != e.dimensions {
		return nil, fmt.Errorf("gemini embed: got %d dimensions, want %d", len(values), e.dimensions)
	}
	embedding := make([]float32, len(values))
	copy(embedding, values)
	utils.NormalizeL2(embedding)
	return embedding, nil
}

// Dimensions returns the embedding dimension.
func (e *GeminiEmbedder) Dimensions() int {
	return e.dimensions
}

// ModelName returns the Gemini model name.
func (e *GeminiEmbedder) ModelName() string {
	return e.model
}

// Close is a no-op; the client holds no resources that need releasing.
func (e *GeminiEmbedder) Close() error {
	return nil
}
