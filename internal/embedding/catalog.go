package embedding

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// DefaultModel is the model used when none is configured.
const DefaultModel = "Xenova/all-MiniLM-L6-v2"

// ModelInfo describes a sentence-transformer export usable by the ONNX embedder.
type ModelInfo struct {
	Name       string
	Dimensions int
	// InputNames are the ONNX session inputs, in order.
	InputNames []string
}

var bertInputs = []string{"input_ids", "attention_mask", "token_type_ids"}

// Models lists the supported local models by name.
var Models = map[string]ModelInfo{
	"Xenova/all-MiniLM-L6-v2": {
		Name:       "Xenova/all-MiniLM-L6-v2",
		Dimensions: 384,
		InputNames: bertInputs,
	},
	"Xenova/paraphrase-multilingual-MiniLM-L12-v2": {
		Name:       "Xenova/paraphrase-multilingual-MiniLM-L12-v2",
		Dimensions: 384,
		InputNames: bertInputs,
	},
	"Xenova/bge-small-en-v1.5": {
		Name:       "Xenova/bge-small-en-v1.5",
		Dimensions: 384,
		InputNames: bertInputs,
	},
}

// LookupModel returns catalog information for name.
func LookupModel(name string) (ModelInfo, error) {
	info, ok := Models[name]
	if !ok {
		return ModelInfo{}, fmt.Errorf("%w: %q (supported: %v)", ErrUnknownModel, name, ModelNames())
	}
	return info, nil
}

// ModelNames returns the catalog names, sorted.
func ModelNames() []string {
	names := make([]string, 0, len(Models))
	for name := range Models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ModelFiles locates the ONNX graph and tokenizer definition of name under
// modelDir. Both the flat layout (<dir>/<name>/model.onnx) and the Hugging Face
// export layout (<dir>/<name>/onnx/model.onnx) are accepted. The tokenizer is
// tokenizer.json when present, otherwise vocab.txt.
func ModelFiles(modelDir, name string) (modelPath, tokenizerPath string, err error) {
	root := filepath.Join(modelDir, filepath.FromSlash(name))
	candidates := []string{
		filepath.Join(root, "model.onnx"),
		filepath.Join(root, "onnx", "model.onnx"),
	}
	for _, c := range candidates {
		if fileExists(c) {
			modelPath = c
			break
		}
	}
	if modelPath == "" {
		return "", "", fmt.Errorf("%w: no model.onnx for %s under %s", ErrUnavailable, name, root)
	}
	for _, c := range []string{filepath.Join(root, "tokenizer.json"), filepath.Join(root, "vocab.txt")} {
		if fileExists(c) {
			return modelPath, c, nil
		}
	}
	return "", "", fmt.Errorf("%w: no tokenizer.json or vocab.txt for %s under %s", ErrUnavailable, name, root)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
