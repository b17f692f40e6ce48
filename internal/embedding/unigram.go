package embedding

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const metaspace = "▁"

// UnigramPiece is one vocabulary entry of a Unigram model; its ID is its position.
type UnigramPiece struct {
	Piece string
	Score float64
}

// UnigramTokenizer implements SentencePiece-style Unigram tokenization as used
// by XLM-R derived models: NFKC normalization, metaspace word prefixes and a
// Viterbi search for the highest-scoring segmentation of each word.
type UnigramTokenizer struct {
	pieces      map[string]unigramEntry
	maxPieceLen int
	unkScore    float64
	bosID       int64
	eosID       int64
	padID       int64
	unkID       int64
}

type unigramEntry struct {
	id    int64
	score float64
}

// NewUnigramTokenizer builds a tokenizer from pieces. unkID < 0 means "<unk>"
// is looked up by name. The vocabulary must contain <s> and </s>.
func NewUnigramTokenizer(pieces []UnigramPiece, unkID int64) (*UnigramTokenizer, error) {
	t := &UnigramTokenizer{pieces: make(map[string]unigramEntry, len(pieces)), unkID: unkID}
	minScore := math.Inf(1)
	for i, p := range pieces {
		if _, dup := t.pieces[p.Piece]; !dup {
			t.pieces[p.Piece] = unigramEntry{id: int64(i), score: p.Score}
		}
		if n := len([]rune(p.Piece)); n > t.maxPieceLen {
			t.maxPieceLen = n
		}
		if p.Score < minScore {
			minScore = p.Score
		}
	}
	if len(pieces) == 0 {
		return nil, fmt.Errorf("empty unigram vocab")
	}
	t.unkScore = minScore - 10

	lookup := func(name string) (int64, bool) {
		e, ok := t.pieces[name]
		return e.id, ok
	}
	var ok bool
	if t.bosID, ok = lookup("<s>"); !ok {
		return nil, fmt.Errorf("vocab missing <s>")
	}
	if t.eosID, ok = lookup("</s>"); !ok {
		return nil, fmt.Errorf("vocab missing </s>")
	}
	t.padID, _ = lookup("<pad>")
	if t.unkID < 0 {
		if t.unkID, ok = lookup("<unk>"); !ok {
			return nil, fmt.Errorf("vocab missing <unk>")
		}
	}
	return t, nil
}

// Tokenize returns <s> tokens... </s> followed by padding.
func (t *UnigramTokenizer) Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64) {
	normalized := norm.NFKC.String(text)
	var ids []int64
	for _, word := range strings.Fields(normalized) {
		ids = append(ids, t.segment(metaspace+word)...)
		if maxTokens > 0 && len(ids) >= maxTokens {
			break
		}
	}
	return frame(ids, t.bosID, t.eosID, t.padID, maxTokens)
}

// segment finds the best-scoring split of word into vocabulary pieces.
// Characters no piece covers become a single unknown token per run.
func (t *UnigramTokenizer) segment(word string) []int64 {
	runes := []rune(word)
	n := len(runes)
	best := make([]float64, n+1)
	prev := make([]int, n+1)
	ids := make([]int64, n+1)
	for i := 1; i <= n; i++ {
		best[i] = math.Inf(-1)
	}

	for i := 0; i < n; i++ {
		if math.IsInf(best[i], -1) {
			continue
		}
		matched := false
		for j := i + 1; j <= n && j-i <= t.maxPieceLen; j++ {
			e, ok := t.pieces[string(runes[i:j])]
			if !ok {
				continue
			}
			matched = true
			if s := best[i] + e.score; s > best[j] {
				best[j], prev[j], ids[j] = s, i, e.id
			}
		}
		if !matched {
			if s := best[i] + t.unkScore; s > best[i+1] {
				best[i+1], prev[i+1], ids[i+1] = s, i, t.unkID
			}
		}
	}

	var out []int64
	for pos := n; pos > 0; pos = prev[pos] {
		out = append(out, ids[pos])
	}
	for l, r := 0, len(out)-1; l < r; l, r = l+1, r-1 {
		out[l], out[r] = out[r], out[l]
	}

	// Fuse consecutive unknowns.
	fused := out[:0]
	for _, id := range out {
		if id == t.unkID && len(fused) > 0 && fused[len(fused)-1] == t.unkID {
			continue
		}
		fused = append(fused, id)
	}
	return fused
}
