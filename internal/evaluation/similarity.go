package evaluation

import "math"

// CosineSimilarity computes the normalized dot product of two embedding vectors.
// Mismatched lengths, empty input, or a zero-magnitude vector yield 0 so that a
// failed or missing embedding reads as "unrelated" instead of breaking the pass.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
