// Package embedding provides vector math for face embeddings.
package embedding

import (
	"fmt"
	"math"
)

// epsilon keeps the cosine denominator away from zero for degenerate
// zero vectors. A zero probe against a zero gallery vector yields the
// maximum distance instead of NaN.
const epsilon = 1e-10

// DimensionError reports an embedding whose length does not match the
// established gallery dimensionality. Vectors are never truncated or
// padded to fit.
type DimensionError struct {
	Want int
	Got  int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("embedding dimension mismatch: want %d, got %d", e.Want, e.Got)
}

// CheckDimension returns a DimensionError if got differs from want.
func CheckDimension(want, got int) error {
	if want != got {
		return &DimensionError{Want: want, Got: got}
	}
	return nil
}

// CosineDistance computes 1 - cosine similarity between two vectors.
// Result ranges from 0 (identical direction) to 2 (opposite).
// The vectors must have equal length; callers guard dimensions up front.
func CosineDistance(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB)+epsilon)
}
