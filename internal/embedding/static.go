package embedding

import (
	"context"
	"hash/fnv"
	"regexp"
	"strings"
	"sync"

	"github.com/codesearch-dev/codesearch/internal/indexerr"
)

// StaticClient produces deterministic, hash-based embeddings with no
// network dependency and no model download. Semantic quality is far
// below a trained model, but it is reproducible and fast enough to use
// as the zero-configuration default and in tests.
type StaticClient struct {
	mu        sync.RWMutex
	dimension int
	closed    bool
}

const (
	tokenWeight = 0.7
	ngramWeight = 0.3
	ngramSize   = 3
)

var tokenRegex = regexp.MustCompile(`[a-zA-Z0-9]+`)

var stopWords = map[string]bool{
	"func": true, "function": true, "def": true, "class": true,
	"return": true, "import": true, "const": true, "var": true,
	"let": true, "int": true, "string": true, "bool": true,
	"void": true, "true": true, "false": true, "nil": true,
	"null": true, "this": true, "self": true, "new": true,
}

// NewStaticClient builds a static client producing vectors of the
// given dimension.
func NewStaticClient(dimension int) *StaticClient {
	if dimension <= 0 {
		dimension = 768
	}
	return &StaticClient{dimension: dimension}
}

func (c *StaticClient) Dimension() int    { return c.dimension }
func (c *StaticClient) ModelName() string { return "static" }

func (c *StaticClient) Available(ctx context.Context) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.closed
}

func (c *StaticClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *StaticClient) Embed(ctx context.Context, text string) ([]float32, error) {
	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return nil, indexerr.Model("EMBED_CLOSED", "static embedding client is closed", nil)
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return make([]float32, c.dimension), nil
	}
	return normalize(c.vectorFor(trimmed)), nil
}

func (c *StaticClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := c.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (c *StaticClient) vectorFor(text string) []float32 {
	vec := make([]float32, c.dimension)

	for _, tok := range filterStopWords(tokenRegex.FindAllString(text, -1)) {
		vec[hashToIndex(tok, c.dimension)] += tokenWeight
	}
	for _, gram := range ngrams(strings.ToLower(text), ngramSize) {
		vec[hashToIndex(gram, c.dimension)] += ngramWeight
	}
	return vec
}

func filterStopWords(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if !stopWords[strings.ToLower(t)] {
			out = append(out, t)
		}
	}
	return out
}

func ngrams(text string, n int) []string {
	if len(text) < n {
		return nil
	}
	out := make([]string, 0, len(text)-n+1)
	for i := 0; i+n <= len(text); i++ {
		out = append(out, text[i:i+n])
	}
	return out
}

func hashToIndex(s string, dimension int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return int(h.Sum32()) % dimension
}
