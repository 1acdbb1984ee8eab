package search

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"

	"github.com/codesearch-dev/codesearch/internal/config"
	"github.com/codesearch-dev/codesearch/internal/embedding"
	"github.com/codesearch-dev/codesearch/internal/indexerr"
	"github.com/codesearch-dev/codesearch/internal/metadata"
	"github.com/codesearch-dev/codesearch/internal/vectorstore"
)

// annBackend is satisfied by both the default bucket-sampling index and
// the opt-in hnsw graph, so Engine doesn't care which is active.
type annBackend interface {
	Add(id int, vector []float32, startLine, endLine int, chunkType string, hasSymbol bool)
	Size() int
	Search(query []float32, topK int) []Candidate
}

// Engine answers search queries against one project's index.
type Engine struct {
	root     string
	cfg      config.SearchConfig
	meta     *metadata.Store
	vectors  *vectorstore.Store
	embedder embedding.Client

	projectID  int64
	backend    annBackend
	byChunkID  map[int64]metadata.SearchCandidate
	fulltext   bleve.Index
}

// NewEngine builds an engine for the project rooted at root, loading its
// existing index into memory for the ANN and (optionally) fulltext
// backends. Call Refresh after new files are indexed.
func NewEngine(root string, cfg config.SearchConfig, meta *metadata.Store, vectors *vectorstore.Store, embedder embedding.Client) (*Engine, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, indexerr.IO("SEARCH_ABS_ROOT", "failed to resolve project root", err)
	}
	project, err := meta.GetProjectByPath(absRoot)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, indexerr.Search("SEARCH_NOT_INDEXED", "project has not been indexed", nil)
	}

	e := &Engine{
		root:      absRoot,
		cfg:       cfg,
		meta:      meta,
		vectors:   vectors,
		embedder:  embedder,
		projectID: project.ID,
	}
	if err := e.Refresh(); err != nil {
		return nil, err
	}
	return e, nil
}

// Refresh rebuilds the in-memory ANN (and fulltext, if enabled) indexes
// from the current metadata and vector stores. It should be called after
// any indexing pass changes the project's contents.
func (e *Engine) Refresh() error {
	candidates, err := e.meta.EnumerateChunks(e.projectID)
	if err != nil {
		return err
	}

	var backend annBackend
	if e.cfg.ANNBackend == "hnsw" {
		backend = NewHNSWIndex()
	} else {
		backend = NewANNIndex(e.vectors.Dimension())
	}

	byChunkID := make(map[int64]metadata.SearchCandidate, len(candidates))
	for _, c := range candidates {
		byChunkID[c.ChunkID] = c

		vec, err := e.vectors.Get(c.VectorOffset)
		if err != nil {
			continue
		}
		backend.Add(int(c.ChunkID), vec, c.StartLine, c.EndLine, string(c.ChunkType), c.SymbolName != "")
	}

	e.backend = backend
	e.byChunkID = byChunkID

	if e.cfg.UseFulltextPrefilter {
		idx, err := e.buildFulltextIndex(candidates)
		if err != nil {
			return err
		}
		e.fulltext = idx
	}
	return nil
}

type fulltextDoc struct {
	Text string `json:"text"`
}

func (e *Engine) buildFulltextIndex(candidates []metadata.SearchCandidate) (bleve.Index, error) {
	mapping := bleve.NewIndexMapping()
	idx, err := bleve.NewMemOnly(mapping)
	if err != nil {
		return nil, indexerr.Search("SEARCH_FULLTEXT_BUILD", "failed to build fulltext prefilter index", err)
	}

	contentByPath := make(map[string][]byte)
	for _, c := range candidates {
		content, ok := contentByPath[c.FilePath]
		if !ok {
			read, err := os.ReadFile(filepath.Join(e.root, c.FilePath))
			if err != nil {
				continue
			}
			content = read
			contentByPath[c.FilePath] = content
		}
		lines := strings.Split(string(content), "\n")
		start := c.StartLine - 1
		if start < 0 {
			start = 0
		}
		end := c.EndLine
		if end > len(lines) {
			end = len(lines)
		}
		if start >= end {
			continue
		}
		text := strings.Join(lines[start:end], "\n")
		docID := chunkDocID(c.ChunkID)
		if err := idx.Index(docID, fulltextDoc{Text: text}); err != nil {
			continue
		}
	}
	return idx, nil
}

func chunkDocID(chunkID int64) string {
	return "chunk-" + strconv.FormatInt(chunkID, 10)
}

// Search dispatches to the retrieval strategy matching query.Type.
func (e *Engine) Search(ctx context.Context, q Query) ([]Result, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	switch q.Type {
	case QuerySemantic:
		return e.semanticSearch(ctx, q.Text, limit, q.MinScore)
	case QuerySymbol:
		return e.symbolSearch(q.Text, q.ExactSymbol, limit, q.MinScore)
	case QueryKeyword:
		return e.keywordSearch(q.Text, limit)
	case QueryHybrid:
		return e.hybridSearch(ctx, q, limit)
	default:
		return nil, indexerr.Search("SEARCH_UNKNOWN_QUERY_TYPE", "unrecognized query type", nil)
	}
}

func (e *Engine) semanticSearch(ctx context.Context, text string, limit int, minScore float64) ([]Result, error) {
	queryVec, err := e.embedder.Embed(ctx, text)
	if err != nil {
		return nil, indexerr.Model("SEARCH_EMBED_QUERY", "failed to embed query", err)
	}

	candidates := e.backend.Search(queryVec, limit*3)
	results := make([]Result, 0, len(candidates))
	for _, c := range candidates {
		if c.Score < minScore {
			continue
		}
		sc, ok := e.byChunkID[int64(c.ID)]
		if !ok {
			continue
		}
		results = append(results, e.toResult(sc, c.Score, SemanticMatch))
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (e *Engine) symbolSearch(text string, exactOnly bool, limit int, minScore float64) ([]Result, error) {
	matches, err := e.meta.FindSymbolsBySubstring(e.projectID, text)
	if err != nil {
		return nil, err
	}

	var results []Result
	for _, m := range matches {
		isExact := strings.EqualFold(m.SymbolName, text)
		if exactOnly && !isExact {
			continue
		}

		score := 1.0
		matchType := ExactSymbolMatch
		if !isExact {
			score = fuzzySymbolScore(m.SymbolName, text)
			matchType = FuzzySymbolMatch
		}
		if score < minScore {
			continue
		}

		snippet, context := snippetAndContext(filepath.Join(e.root, m.FilePath), m.StartLine, m.EndLine)
		results = append(results, Result{
			FilePath:   m.FilePath,
			StartLine:  m.StartLine,
			EndLine:    m.EndLine,
			Score:      score,
			MatchType:  matchType,
			SymbolName: m.SymbolName,
			Snippet:    snippet,
			Context:    context,
		})
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (e *Engine) keywordSearch(text string, limit int) ([]Result, error) {
	if e.fulltext == nil {
		return nil, indexerr.Config("SEARCH_FULLTEXT_DISABLED", "keyword search requires search.use_fulltext_prefilter to be enabled", nil)
	}

	req := bleve.NewSearchRequest(bleve.NewMatchQuery(text))
	req.Size = limit
	res, err := e.fulltext.Search(req)
	if err != nil {
		return nil, indexerr.Search("SEARCH_FULLTEXT_QUERY", "fulltext query failed", err)
	}

	results := make([]Result, 0, len(res.Hits))
	for _, hit := range res.Hits {
		chunkID, ok := parseChunkDocID(hit.ID)
		if !ok {
			continue
		}
		sc, ok := e.byChunkID[chunkID]
		if !ok {
			continue
		}
		results = append(results, e.toResult(sc, hit.Score, KeywordMatch))
	}
	return results, nil
}

func parseChunkDocID(id string) (int64, bool) {
	const prefix = "chunk-"
	if !strings.HasPrefix(id, prefix) {
		return 0, false
	}
	n, err := strconv.ParseInt(id[len(prefix):], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// hybridSearch runs semantic and symbol search independently (each
// filtered by min_score before combination), concatenates them,
// deduplicates by (file, start, end) keeping the first occurrence, then
// rescales every score onto the hybrid scale before a final sort and
// truncate.
func (e *Engine) hybridSearch(ctx context.Context, q Query, limit int) ([]Result, error) {
	semantic, err := e.semanticSearch(ctx, q.Text, limit, q.MinScore)
	if err != nil {
		return nil, err
	}
	symbolic, err := e.symbolSearch(q.Text, false, limit, q.MinScore)
	if err != nil {
		return nil, err
	}

	combined := make([]Result, 0, len(semantic)+len(symbolic))
	combined = append(combined, semantic...)
	combined = append(combined, symbolic...)

	sort.SliceStable(combined, func(i, j int) bool {
		if combined[i].FilePath != combined[j].FilePath {
			return combined[i].FilePath < combined[j].FilePath
		}
		return combined[i].StartLine < combined[j].StartLine
	})

	deduped := make([]Result, 0, len(combined))
	seen := make(map[[3]any]bool)
	for _, r := range combined {
		key := [3]any{r.FilePath, r.StartLine, r.EndLine}
		if seen[key] {
			continue
		}
		seen[key] = true
		deduped = append(deduped, r)
	}

	for i := range deduped {
		deduped[i].Score = hybridRescale(deduped[i])
		deduped[i].MatchType = HybridMatch
	}

	sort.Slice(deduped, func(i, j int) bool { return deduped[i].Score > deduped[j].Score })
	if len(deduped) > limit {
		deduped = deduped[:limit]
	}
	return deduped, nil
}

// hybridRescale maps a result's original match score onto the hybrid
// scale: semantic matches are weighted down relative to exact symbol
// hits, which always win ties.
func hybridRescale(r Result) float64 {
	switch r.MatchType {
	case SemanticMatch:
		return r.Score * 0.7
	case ExactSymbolMatch:
		return 1.0
	case FuzzySymbolMatch:
		return r.Score * 0.8
	default:
		return r.Score
	}
}

func (e *Engine) toResult(sc metadata.SearchCandidate, score float64, matchType MatchType) Result {
	snippet, context := snippetAndContext(filepath.Join(e.root, sc.FilePath), sc.StartLine, sc.EndLine)
	return Result{
		FilePath:   sc.FilePath,
		StartLine:  sc.StartLine,
		EndLine:    sc.EndLine,
		Score:      score,
		MatchType:  matchType,
		ChunkType:  sc.ChunkType,
		SymbolName: sc.SymbolName,
		Snippet:    snippet,
		Context:    context,
	}
}

// contextBefore and contextAfter are the line-window margins added
// around a result's own lines to produce Result.Context.
const (
	contextBefore = 3
	contextAfter  = 2
)

// snippetAndContext reads the requested line range from disk for
// display purposes, plus a wider ±(contextBefore, contextAfter) window
// clamped to file bounds. A read failure (file moved or deleted since
// indexing) yields empty strings rather than an error, since callers
// treat both as cosmetic.
func snippetAndContext(path string, startLine, endLine int) (snippet, context string) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", ""
	}
	lines := strings.Split(string(content), "\n")

	start := clampLine(startLine-1, len(lines))
	end := clampLine(endLine, len(lines))
	if start < end {
		snippet = strings.Join(lines[start:end], "\n")
	}

	ctxStart := clampLine(startLine-1-contextBefore, len(lines))
	ctxEnd := clampLine(endLine+contextAfter, len(lines))
	if ctxStart < ctxEnd {
		context = strings.Join(lines[ctxStart:ctxEnd], "\n")
	}
	return snippet, context
}

func clampLine(n, max int) int {
	if n < 0 {
		return 0
	}
	if n > max {
		return max
	}
	return n
}
