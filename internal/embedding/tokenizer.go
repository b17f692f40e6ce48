package embedding

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Tokenizer produces token IDs for BERT-style models (input_ids, attention_mask, token_type_ids).
// All three slices have length maxTokens; positions past the text are padding
// with attention mask 0.
type Tokenizer interface {
	Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64)
}

// LoadTokenizer reads a Hugging Face tokenizer.json (WordPiece or Unigram
// model) or a BERT vocab.txt.
func LoadTokenizer(path string) (Tokenizer, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return loadTokenizerJSON(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open vocab: %w", err)
	}
	defer f.Close()

	vocab := make(map[string]int64)
	scanner := bufio.NewScanner(f)
	var id int64
	for scanner.Scan() {
		token := strings.TrimRight(scanner.Text(), "\r")
		if _, dup := vocab[token]; !dup {
			vocab[token] = id
		}
		id++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read vocab: %w", err)
	}
	return NewWordPieceTokenizer(vocab, true)
}

type tokenizerFile struct {
	Normalizer *struct {
		Type      string `json:"type"`
		Lowercase *bool  `json:"lowercase"`
	} `json:"normalizer"`
	Model struct {
		Type  string          `json:"type"`
		UnkID *int64          `json:"unk_id"`
		Vocab json.RawMessage `json:"vocab"`
	} `json:"model"`
}

func loadTokenizerJSON(path string) (Tokenizer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tokenizer: %w", err)
	}
	var tf tokenizerFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("failed to parse tokenizer: %w", err)
	}
	switch tf.Model.Type {
	case "WordPiece":
		var vocab map[string]int64
		if err := json.Unmarshal(tf.Model.Vocab, &vocab); err != nil {
			return nil, fmt.Errorf("failed to parse wordpiece vocab: %w", err)
		}
		lowercase := true
		if tf.Normalizer != nil && tf.Normalizer.Lowercase != nil {
			lowercase = *tf.Normalizer.Lowercase
		}
		return NewWordPieceTokenizer(vocab, lowercase)
	case "Unigram":
		var pieces [][2]json.RawMessage
		if err := json.Unmarshal(tf.Model.Vocab, &pieces); err != nil {
			return nil, fmt.Errorf("failed to parse unigram vocab: %w", err)
		}
		entries := make([]UnigramPiece, len(pieces))
		for i, p := range pieces {
			if err := json.Unmarshal(p[0], &entries[i].Piece); err != nil {
				return nil, fmt.Errorf("unigram piece %d: %w", i, err)
			}
			if err := json.Unmarshal(p[1], &entries[i].Score); err != nil {
				return nil, fmt.Errorf("unigram score %d: %w", i, err)
			}
		}
		unkID := int64(-1)
		if tf.Model.UnkID != nil {
			unkID = *tf.Model.UnkID
		}
		return NewUnigramTokenizer(entries, unkID)
	default:
		return nil, fmt.Errorf("unsupported tokenizer model %q", tf.Model.Type)
	}
}

// frame wraps ids with the begin/end markers, truncating so the result fits
// maxTokens, and pads the rest.
func frame(ids []int64, begin, end, pad int64, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64) {
	if maxTokens <= 0 {
		maxTokens = 256
	}
	inputIDs = make([]int64, maxTokens)
	attentionMask = make([]int64, maxTokens)
	tokenTypeIDs = make([]int64, maxTokens)
	for i := range inputIDs {
		inputIDs[i] = pad
	}

	inputIDs[0] = begin
	attentionMask[0] = 1
	pos := 1
	for _, id := range ids {
		if pos >= maxTokens-1 {
			break
		}
		inputIDs[pos] = id
		attentionMask[pos] = 1
		pos++
	}
	if pos < maxTokens {
		inputIDs[pos] = end
		attentionMask[pos] = 1
	}
	return inputIDs, attentionMask, tokenTypeIDs
}

// HashString returns a deterministic non-negative hash of s.
func HashString(s string) int {
	h := 0
	for _, c := range s {
		h = 31*h + int(c)
	}
	if h < 0 {
		h = -h
	}
	return h
}
