package evaluation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCosineSimilarityIdenticalVectors(t *testing.T) {
	v := []float64{0.3, 0.5, 0.8, 0.1}

	require.InDelta(t, 1.0, CosineSimilarity(v, v), 1e-9)
}

func TestCosineSimilarityOrthogonalVectors(t *testing.T) {
	a := []float64{1, 0}
	b := []float64{0, 1}

	require.InDelta(t, 0.0, CosineSimilarity(a, b), 1e-9)
}

func TestCosineSimilarityMismatchedLengths(t *testing.T) {
	a := []float64{1, 2, 3}
	b := []float64{1, 2}

	require.Equal(t, 0.0, CosineSimilarity(a, b))
}

func TestCosineSimilarityEmptyInput(t *testing.T) {
	require.Equal(t, 0.0, CosineSimilarity(nil, []float64{1}))
	require.Equal(t, 0.0, CosineSimilarity([]float64{1}, nil))
	require.Equal(t, 0.0, CosineSimilarity(nil, nil))
}

func TestCosineSimilarityZeroMagnitudeVector(t *testing.T) {
	a := []float64{0, 0, 0}
	b := []float64{1, 2, 3}

	require.Equal(t, 0.0, CosineSimilarity(a, b))
}
