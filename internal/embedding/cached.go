package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds how many distinct (text, model) embeddings
// are kept in memory.
const DefaultCacheSize = 2000

// CachedClient wraps a Client with an LRU cache keyed by a hash of the
// text and model name, so repeated queries and re-embedding unchanged
// chunks during an incremental pass skip the underlying computation.
type CachedClient struct {
	inner Client
	cache *lru.Cache[string, []float32]
}

// NewCachedClient wraps inner with an LRU cache of the given size.
func NewCachedClient(inner Client, size int) *CachedClient {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, _ := lru.New[string, []float32](size)
	return &CachedClient{inner: inner, cache: cache}
}

func (c *CachedClient) key(text string) string {
	sum := sha256.Sum256([]byte(text + "\x00" + c.inner.ModelName()))
	return hex.EncodeToString(sum[:])
}

func (c *CachedClient) Embed(ctx context.Context, text string) ([]float32, error) {
	key := c.key(text)
	if v, ok := c.cache.Get(key); ok {
		return v, nil
	}
	v, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, v)
	return v, nil
}

func (c *CachedClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missIdx []int
	var missTexts []string

	for i, t := range texts {
		if v, ok := c.cache.Get(c.key(t)); ok {
			out[i] = v
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, t)
	}

	if len(missTexts) == 0 {
		return out, nil
	}

	embedded, err := c.inner.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	for j, idx := range missIdx {
		out[idx] = embedded[j]
		c.cache.Add(c.key(texts[idx]), embedded[j])
	}
	return out, nil
}

func (c *CachedClient) Dimension() int    { return c.inner.Dimension() }
func (c *CachedClient) ModelName() string { return c.inner.ModelName() }

func (c *CachedClient) Available(ctx context.Context) bool { return c.inner.Available(ctx) }

func (c *CachedClient) Close() error { return c.inner.Close() }
