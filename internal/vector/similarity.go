// Package vector provides similarity scoring for embedding vectors.
package vector

import (
	"fmt"
	"math"
)

// Cosine returns the cosine similarity of a and b: their dot product divided by
// the product of their L2 norms. The result lies in [-1, 1]; for the
// near-unit-norm vectors produced by sentence embedders it clusters in [0, 1].
//
// a and b must have the same length; a mismatch means vectors from different
// models were mixed and Cosine panics. If either vector has zero norm the
// score is 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		panic(fmt.Sprintf("vector: cosine of vectors with different lengths (%d != %d)", len(a), len(b)))
	}
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
