package search

import (
	"math"
	"sort"
)

// bucketEntry is one vector registered with the ANN index.
type bucketEntry struct {
	id        int
	vector    []float32
	startLine int
	endLine   int
	chunkType string
	hasSymbol bool
}

// ANNIndex is a bucket-sampling approximate nearest-neighbor index: each
// vector is projected onto a handful of its dimensions, quantized into
// coarse buckets, and registered in an inverted index keyed by
// (dimension, bucket). A query is compared only against vectors sharing
// at least two such buckets, then reranked by exact cosine similarity
// and adjusted with a handful of heuristic boosts before the final cut.
type ANNIndex struct {
	dimension int
	entries   []bucketEntry
	inverted  map[int][]int // bucket key -> entry indices
}

// NewANNIndex creates an empty index over vectors of the given
// dimension.
func NewANNIndex(dimension int) *ANNIndex {
	return &ANNIndex{
		dimension: dimension,
		inverted:  make(map[int][]int),
	}
}

// Add registers a vector with its chunk metadata. id is the caller's own
// identifier (e.g. a chunk id), returned in Candidate results.
func (idx *ANNIndex) Add(id int, vector []float32, startLine, endLine int, chunkType string, hasSymbol bool) {
	entryIdx := len(idx.entries)
	idx.entries = append(idx.entries, bucketEntry{
		id:        id,
		vector:    vector,
		startLine: startLine,
		endLine:   endLine,
		chunkType: chunkType,
		hasSymbol: hasSymbol,
	})
	for _, key := range bucketKeys(vector) {
		idx.inverted[key] = append(idx.inverted[key], entryIdx)
	}
}

// Size reports how many vectors are registered.
func (idx *ANNIndex) Size() int {
	return len(idx.entries)
}

// Candidate is one reranked, boosted search result from the index.
type Candidate struct {
	ID        int
	Score     float64
	StartLine int
	EndLine   int
	ChunkType string
	HasSymbol bool
}

// bucketKeys samples min(10, dim) evenly-strided dimensions of vector
// and quantizes each into a bucket, returning one inverted-index key per
// sampled dimension.
func bucketKeys(vector []float32) []int {
	dim := len(vector)
	if dim == 0 {
		return nil
	}
	sampleSize := 10
	if dim < sampleSize {
		sampleSize = dim
	}
	step := dim / sampleSize
	if step == 0 {
		step = 1
	}

	keys := make([]int, 0, sampleSize)
	for i := 0; i < dim && len(keys) < sampleSize; i += step {
		bucket := int(math.Floor(float64(vector[i]) * 100))
		keys = append(keys, i*1000+bucket)
	}
	return keys
}

// Search returns up to topK candidates for query, reranked by exact
// cosine similarity and boosted, filtered to a score above 0.2.
func (idx *ANNIndex) Search(query []float32, topK int) []Candidate {
	counts := make(map[int]int)
	for _, key := range bucketKeys(query) {
		for _, entryIdx := range idx.inverted[key] {
			counts[entryIdx]++
		}
	}

	var shortlisted []int
	for entryIdx, count := range counts {
		if count >= 2 {
			shortlisted = append(shortlisted, entryIdx)
		}
	}
	sort.Slice(shortlisted, func(i, j int) bool {
		return counts[shortlisted[i]] > counts[shortlisted[j]]
	})

	maxCandidates := 100
	if len(shortlisted) < maxCandidates {
		maxCandidates = len(shortlisted)
	}
	shortlisted = shortlisted[:maxCandidates]

	candidates := make([]Candidate, 0, len(shortlisted))
	for _, entryIdx := range shortlisted {
		e := idx.entries[entryIdx]
		score := cosineSimilarity(query, e.vector)
		score = boostScore(score, e)
		if score <= 0.2 {
			continue
		}
		candidates = append(candidates, Candidate{
			ID:        e.id,
			Score:     score,
			StartLine: e.startLine,
			EndLine:   e.endLine,
			ChunkType: e.chunkType,
			HasSymbol: e.hasSymbol,
		})
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Score > candidates[j].Score })
	if topK > 0 && len(candidates) > topK {
		candidates = candidates[:topK]
	}
	return candidates
}

// boostScore applies the same heuristic adjustments regardless of
// backend: named symbols and structural chunk types are promoted,
// implausibly short or long spans are demoted.
func boostScore(score float64, e bucketEntry) float64 {
	if e.hasSymbol {
		score *= 1.2
	}
	switch e.chunkType {
	case "function", "class", "struct":
		score *= 1.1
	}

	span := e.endLine - e.startLine
	switch {
	case span < 5:
		score *= 0.9
	case span > 100:
		score *= 0.8
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
