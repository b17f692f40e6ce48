package embedding

import (
	"context"
	"math"

	"github.com/hyperjump/semcache/pkg/utils"
)

// mockModelName is what MockEmbedder reports as its model.
const mockModelName = "mock"

// MockEmbedder maps each text to a fixed unit vector derived from its hash.
// Equal texts score 1; distinct texts land near 0. It loads no model and is
// selected only by the "mock" provider or directly in tests.
type MockEmbedder struct {
	dimensions int
}

// NewMockEmbedder returns a MockEmbedder producing vectors of the given
// length, or 384 when dimensions is not positive.
func NewMockEmbedder(dimensions int) *MockEmbedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &MockEmbedder{dimensions: dimensions}
}

func (e *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return mockVector(HashString(text), e.dimensions), nil
}

func mockVector(seed, dims int) []float32 {
	phase := float64(seed % 1000003)
	v := make([]float32, dims)
	for i := range v {
		v[i] = float32(math.Sin(phase*float64(i+1))*0.1 + 0.01)
	}
	utils.NormalizeL2(v)
	return v
}

func (e *MockEmbedder) Dimensions() int   { return e.dimensions }
func (e *MockEmbedder) ModelName() string { return mockModelName }
func (e *MockEmbedder) Close() error      { return nil }
