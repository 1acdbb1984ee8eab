// Package search implements semantic, symbol, and hybrid lookup over an
// indexed project: an approximate nearest-neighbor pass over the vector
// store, fuzzy symbol matching against the metadata store, and a hybrid
// mode that runs both and rescales their scores onto a common scale.
package search

import "github.com/codesearch-dev/codesearch/internal/metadata"

// QueryType selects which retrieval strategy a Query uses.
type QueryType int

const (
	QuerySemantic QueryType = iota
	QuerySymbol
	QueryHybrid
	// QueryKeyword runs a full-text prefilter over chunk text instead of
	// an embedding comparison, additive to the vector-based types above.
	QueryKeyword
)

// Query describes one search request.
type Query struct {
	Text        string
	Type        QueryType
	Limit       int
	MinScore    float64
	ExactSymbol bool // when set with QuerySymbol, only exact name matches are returned
}

// MatchType records how a Result was produced, so callers can tell a
// vector hit from a name match even after hybrid rescoring.
type MatchType string

const (
	// SemanticMatch, ExactSymbolMatch, FuzzySymbolMatch, and HybridMatch
	// are the stable result_type strings the JSON contract commits to.
	SemanticMatch    MatchType = "SemanticMatch"
	ExactSymbolMatch MatchType = "ExactSymbolMatch"
	FuzzySymbolMatch MatchType = "FuzzySymbolMatch"
	HybridMatch      MatchType = "HybridMatch"
	// KeywordMatch tags results from the additive full-text query type;
	// it carries no stability guarantee of its own.
	KeywordMatch MatchType = "KeywordMatch"
)

// Result is one scored hit returned from the engine.
type Result struct {
	FilePath   string
	StartLine  int
	EndLine    int
	Score      float64
	MatchType  MatchType
	ChunkType  metadata.ChunkType
	SymbolName string
	Snippet    string
	Context    string
}

// DefaultLimit mirrors the CLI's default result count when a caller
// doesn't specify one.
const DefaultLimit = 20
