package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestANNIndexFindsExactMatch(t *testing.T) {
	idx := NewANNIndex(8)
	target := []float32{0.9, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7}
	idx.Add(1, target, 10, 20, "function", true)
	idx.Add(2, []float32{-0.9, -0.1, -0.2, -0.3, -0.4, -0.5, -0.6, -0.7}, 30, 300, "other", false)

	results := idx.Search(target, 5)
	assert.NotEmpty(t, results)
	assert.Equal(t, 1, results[0].ID)
	assert.Greater(t, results[0].Score, 0.5)
}

func TestBoostScoreFavorsSymbolsAndPenalizesExtremeSpans(t *testing.T) {
	base := 0.5
	withSymbol := boostScore(base, bucketEntry{hasSymbol: true, chunkType: "other", startLine: 1, endLine: 20})
	withoutSymbol := boostScore(base, bucketEntry{hasSymbol: false, chunkType: "other", startLine: 1, endLine: 20})
	assert.Greater(t, withSymbol, withoutSymbol)

	tooShort := boostScore(base, bucketEntry{startLine: 1, endLine: 2})
	normal := boostScore(base, bucketEntry{startLine: 1, endLine: 20})
	assert.Less(t, tooShort, normal)

	tooLong := boostScore(base, bucketEntry{startLine: 1, endLine: 200})
	assert.Less(t, tooLong, normal)
}

func TestCosineSimilarityIdenticalVectorsIsOne(t *testing.T) {
	v := []float32{0.1, 0.2, 0.3}
	assert.InDelta(t, 1.0, cosineSimilarity(v, v), 1e-6)
}

func TestCosineSimilarityMismatchedLengthIsZero(t *testing.T) {
	assert.Equal(t, 0.0, cosineSimilarity([]float32{1, 2}, []float32{1, 2, 3}))
}
