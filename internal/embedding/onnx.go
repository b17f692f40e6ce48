//go:build cgo
// +build cgo

package embedding

import (
	"context"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/hyperjump/semcache/pkg/utils"
)

var (
	ortOnce sync.Once
	ortErr  error
)

// initRuntime loads the onnxruntime shared library once per process.
// An empty libraryPath uses the library's platform default.
func initRuntime(libraryPath string) error {
	ortOnce.Do(func() {
		if libraryPath != "" {
			ort.SetSharedLibraryPath(libraryPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			ortErr = fmt.Errorf("%w: failed to initialize ONNX runtime: %v", ErrUnavailable, err)
		}
	})
	return ortErr
}

// ONNXEmbedder runs a sentence-transformer export with ONNX Runtime. It requires
// CGO and the onnxruntime shared library. Inference is serialized.
type ONNXEmbedder struct {
	info      ModelInfo
	session   *ort.AdvancedSession
	maxTokens int
	tokenizer Tokenizer
	// Pre-allocated tensors for Run(); we update input data and read output.
	inputTensors []*ort.Tensor[int64]
	outputTensor *ort.Tensor[float32]
	mu           sync.Mutex
}

// NewONNXEmbedder loads modelName from modelDir. libraryPath optionally points
// at the onnxruntime shared library.
func NewONNXEmbedder(modelDir, modelName string, maxTokens int, libraryPath string) (*ONNXEmbedder, error) {
	info, err := LookupModel(modelName)
	if err != nil {
		return nil, err
	}
	modelPath, tokenizerPath, err := ModelFiles(modelDir, modelName)
	if err != nil {
		return nil, err
	}
	tokenizer, err := LoadTokenizer(tokenizerPath)
	if err != nil {
		return nil, err
	}
	if maxTokens <= 0 {
		maxTokens = 256
	}
	if err := initRuntime(libraryPath); err != nil {
		return nil, err
	}

	e := &ONNXEmbedder{info: info, maxTokens: maxTokens, tokenizer: tokenizer}
	inputIDs, attentionMask, tokenTypeIDs := tokenizer.Tokenize("", maxTokens)
	initial := map[string][]int64{
		"input_ids":      inputIDs,
		"attention_mask": attentionMask,
		"token_type_ids": tokenTypeIDs,
	}
	inputs := make([]ort.ArbitraryTensor, 0, len(info.InputNames))
	for _, name := range info.InputNames {
		data, ok := initial[name]
		if !ok {
			e.destroyTensors()
			return nil, fmt.Errorf("unsupported model input %q", name)
		}
		t, err := ort.NewTensor(ort.NewShape(1, int64(maxTokens)), data)
		if err != nil {
			e.destroyTensors()
			return nil, fmt.Errorf("failed to create %s tensor: %w", name, err)
		}
		e.inputTensors = append(e.inputTensors, t)
		inputs = append(inputs, t)
	}

	outputData := make([]float32, maxTokens*info.Dimensions)
	e.outputTensor, err = ort.NewTensor(ort.NewShape(1, int64(maxTokens), int64(info.Dimensions)), outputData)
	if err != nil {
		e.destroyTensors()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	e.session, err = ort.NewAdvancedSession(
		modelPath,
		info.InputNames,
		[]string{"last_hidden_state"},
		inputs,
		[]ort.ArbitraryTensor{e.outputTensor},
		nil,
	)
	if err != nil {
		e.destroyTensors()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}
	return e, nil
}

// Embed returns the mean-pooled, L2-normalized sentence embedding of text.
func (e *ONNXEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	inputIDs, attentionMask, tokenTypeIDs := e.tokenizer.Tokenize(text, e.maxTokens)
	current := map[string][]int64{
		"input_ids":      inputIDs,
		"attention_mask": attentionMask,
		"token_type_ids": tokenTypeIDs,
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return nil, fmt.Errorf("%w: embedder closed", ErrUnavailable)
	}
	for i, name := range e.info.InputNames {
		copy(e.inputTensors[i].GetData(), current[name])
	}
	if err := e.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	embedding := MeanPool(e.outputTensor.GetData(), attentionMask, e.maxTokens, e.info.Dimensions)
	utils.NormalizeL2(embedding)
	return embedding, nil
}

// Dimensions returns the embedding dimension.
func (e *ONNXEmbedder) Dimensions() int {
	return e.info.Dimensions
}

// ModelName returns the catalog name of the loaded model.
func (e *ONNXEmbedder) ModelName() string {
	return e.info.Name
}

// Close destroys the session and tensors.
func (e *ONNXEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	var err error
	if e.session != nil {
		err = e.session.Destroy()
		e.session = nil
	}
	e.destroyTensors()
	return err
}

func (e *ONNXEmbedder) destroyTensors() {
	for _, t := range e.inputTensors {
		_ = t.Destroy()
	}
	e.inputTensors = nil
	if e.outputTensor != nil {
		_ = e.outputTensor.Destroy()
		e.outputTensor = nil
	}
}
