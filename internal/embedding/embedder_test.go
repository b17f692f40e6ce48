package embedding

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestMockEmbedder(t *testing.T) {
	e := NewMockEmbedder(0)
	if e.Dimensions() != 384 {
		t.Errorf("default dimensions = %d, want 384", e.Dimensions())
	}
	ctx := context.Background()
	a, err := e.Embed(ctx, "hello")
	if err != nil {
		t.Fatal(err)
	}
	b, _ := e.Embed(ctx, "hello")
	var norm float64
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("embedding not deterministic")
		}
		norm += float64(a[i]) * float64(a[i])
	}
	if math.Abs(norm-1) > 1e-5 {
		t.Errorf("squared norm = %v, want 1", norm)
	}
}

func TestLookupModel(t *testing.T) {
	info, err := LookupModel(DefaultModel)
	if err != nil {
		t.Fatal(err)
	}
	if info.Dimensions != 384 {
		t.Errorf("dimensions = %d, want 384", info.Dimensions)
	}
	if _, err := LookupModel("nope/model"); !errors.Is(err, ErrUnknownModel) {
		t.Errorf("err = %v, want ErrUnknownModel", err)
	}
	if names := ModelNames(); len(names) != len(Models) {
		t.Errorf("ModelNames returned %d names", len(names))
	}
}

func TestModelFiles(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "Xenova", "all-MiniLM-L6-v2")
	if err := os.MkdirAll(filepath.Join(root, "onnx"), 0755); err != nil {
		t.Fatal(err)
	}

	if _, _, err := ModelFiles(dir, DefaultModel); !errors.Is(err, ErrUnavailable) {
		t.Errorf("missing model: err = %v, want ErrUnavailable", err)
	}

	write := func(path string) {
		if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	write(filepath.Join(root, "onnx", "model.onnx"))
	if _, _, err := ModelFiles(dir, DefaultModel); !errors.Is(err, ErrUnavailable) {
		t.Errorf("missing tokenizer: err = %v, want ErrUnavailable", err)
	}

	write(filepath.Join(root, "vocab.txt"))
	model, tok, err := ModelFiles(dir, DefaultModel)
	if err != nil {
		t.Fatal(err)
	}
	if model != filepath.Join(root, "onnx", "model.onnx") || tok != filepath.Join(root, "vocab.txt") {
		t.Errorf("got %s, %s", model, tok)
	}

	write(filepath.Join(root, "model.onnx"))
	write(filepath.Join(root, "tokenizer.json"))
	model, tok, err = ModelFiles(dir, DefaultModel)
	if err != nil {
		t.Fatal(err)
	}
	if model != filepath.Join(root, "model.onnx") || tok != filepath.Join(root, "tokenizer.json") {
		t.Errorf("flat layout not preferred: %s, %s", model, tok)
	}
}

func TestNewFactory(t *testing.T) {
	ctx := context.Background()

	e, err := NewFactory(ProviderOptions{Provider: ProviderMock}, nil)(ctx, DefaultModel)
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()
	if _, ok := e.(*CachingEmbedder); !ok {
		t.Errorf("expected caching wrapper, got %T", e)
	}
	if e.Dimensions() != 384 {
		t.Errorf("dimensions = %d, want 384", e.Dimensions())
	}

	e, err = NewFactory(ProviderOptions{Provider: ProviderMock, CacheSize: -1}, nil)(ctx, DefaultModel)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := e.(*MockEmbedder); !ok {
		t.Errorf("expected bare mock with cache disabled, got %T", e)
	}

	if _, err := NewFactory(ProviderOptions{Provider: ProviderGemini}, nil)(ctx, DefaultModel); !errors.Is(err, ErrUnavailable) {
		t.Errorf("gemini without key: err = %v, want ErrUnavailable", err)
	}
	if _, err := NewFactory(ProviderOptions{Provider: "bogus"}, nil)(ctx, DefaultModel); err == nil {
		t.Error("expected error for unknown provider")
	}
	if _, err := NewFactory(ProviderOptions{Provider: ProviderONNX, ModelDir: t.TempDir()}, nil)(ctx, "nope/model"); !errors.Is(err, ErrUnknownModel) {
		t.Errorf("onnx unknown model: err = %v, want ErrUnknownModel", err)
	}
}
