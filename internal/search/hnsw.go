package search

import (
	"github.com/coder/hnsw"
)

// HNSWIndex is the opt-in ANN backend selected via
// search.ann_backend: hnsw. It trades the bucket index's cheap build
// time for logarithmic query time on large projects.
type HNSWIndex struct {
	graph   *hnsw.Graph[int]
	byID    map[int]bucketEntry
	nextID  int
}

// NewHNSWIndex creates an empty graph-backed index.
func NewHNSWIndex() *HNSWIndex {
	return &HNSWIndex{
		graph: hnsw.NewGraph[int](),
		byID:  make(map[int]bucketEntry),
	}
}

// Add registers a vector with its chunk metadata, mirroring ANNIndex.Add.
func (idx *HNSWIndex) Add(id int, vector []float32, startLine, endLine int, chunkType string, hasSymbol bool) {
	idx.graph.Add(hnsw.MakeNode(id, hnsw.Vector(vector)))
	idx.byID[id] = bucketEntry{
		id:        id,
		vector:    vector,
		startLine: startLine,
		endLine:   endLine,
		chunkType: chunkType,
		hasSymbol: hasSymbol,
	}
}

// Size reports how many vectors are registered.
func (idx *HNSWIndex) Size() int {
	return len(idx.byID)
}

// Search returns up to topK candidates, boosted the same way the bucket
// index's candidates are so hybrid scoring is backend-agnostic.
func (idx *HNSWIndex) Search(query []float32, topK int) []Candidate {
	k := topK * 3
	if k < topK {
		k = topK
	}
	neighbors := idx.graph.Search(hnsw.Vector(query), k)

	candidates := make([]Candidate, 0, len(neighbors))
	for _, n := range neighbors {
		e, ok := idx.byID[n.Key]
		if !ok {
			continue
		}
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
	if topK > 0 && len(candidates) > topK {
		candidates = candidates[:topK]
	}
	return candidates
}
