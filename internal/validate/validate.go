// Package validate runs synthetic platform and performance checks
// against the current host and a scratch index, independent of any
// real project, so a user can tell whether a failure is environmental
// before filing a bug.
package validate

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/codesearch-dev/codesearch/internal/config"
	"github.com/codesearch-dev/codesearch/internal/embedding"
	"github.com/codesearch-dev/codesearch/internal/lock"
	"github.com/codesearch-dev/codesearch/internal/search"
	"github.com/codesearch-dev/codesearch/internal/vectorstore"
)

// Result is the outcome of a single named check.
type Result struct {
	Name       string `json:"name"`
	Success    bool   `json:"success"`
	DurationMS int64  `json:"duration_ms"`
	Details    string `json:"details,omitempty"`
	Error      string `json:"error,omitempty"`
}

func timed(name string, fn func() (string, error)) Result {
	start := time.Now()
	details, err := fn()
	r := Result{Name: name, DurationMS: time.Since(start).Milliseconds(), Details: details, Success: err == nil}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

// Platform runs checks that the host can do what the indexer and
// search engine need: create and lock an index directory, and reach
// the configured embedding provider.
func Platform(cfg config.Config) []Result {
	return []Result{
		timed("file operations", testFileOperations),
		timed("write lock", testWriteLock),
		timed("embedding provider", func() (string, error) { return testEmbeddingProvider(cfg) }),
	}
}

func testFileOperations() (string, error) {
	dir := os.TempDir()
	path := filepath.Join(dir, "codesearch-validate-file")
	content := []byte("codesearch platform check")

	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("write: %w", err)
	}
	defer os.Remove(path)

	read, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read: %w", err)
	}
	if string(read) != string(content) {
		return "", fmt.Errorf("content mismatch after round-trip")
	}
	return fmt.Sprintf("wrote and read %d bytes at %s", len(content), path), nil
}

func testWriteLock() (string, error) {
	dir, err := os.MkdirTemp("", "codesearch-validate-lock")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(dir)

	w := lock.New(dir)
	acquired, err := w.TryLock()
	if err != nil {
		return "", err
	}
	if !acquired {
		return "", fmt.Errorf("failed to acquire lock in a fresh directory")
	}
	defer func() { _ = w.Unlock() }()

	second := lock.New(dir)
	acquiredSecond, err := second.TryLock()
	if err != nil {
		return "", err
	}
	if acquiredSecond {
		return "", fmt.Errorf("a second lock should not have been acquired while the first is held")
	}
	return "acquired and correctly excluded a second writer", nil
}

func testEmbeddingProvider(cfg config.Config) (string, error) {
	client, err := embedding.New(cfg.Embeddings)
	if err != nil {
		return "", err
	}
	defer func() { _ = client.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if !client.Available(ctx) {
		return "", fmt.Errorf("embedding provider %q is not reachable", cfg.Embeddings.Provider)
	}
	return fmt.Sprintf("provider %q reachable, dimension %d", cfg.Embeddings.Provider, client.Dimension()), nil
}

// PerformanceConfig controls the synthetic workload a performance
// check runs.
type PerformanceConfig struct {
	Dimension   int
	VectorCount int
	QueryCount  int
}

// DefaultPerformanceConfig mirrors the sizes used to judge whether the
// bucket-sampling ANN backend is still adequate for a project.
func DefaultPerformanceConfig() PerformanceConfig {
	return PerformanceConfig{Dimension: 768, VectorCount: 1000, QueryCount: 50}
}

// Performance builds a scratch vector store, appends VectorCount random
// vectors, and times QueryCount ANN searches against it, reporting
// latency percentiles.
func Performance(cfg PerformanceConfig) ([]Result, error) {
	dir, err := os.MkdirTemp("", "codesearch-validate-perf")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	store, err := vectorstore.Create(filepath.Join(dir, "vectors.dat"), cfg.Dimension)
	if err != nil {
		return nil, err
	}
	defer func() { _ = store.Close() }()

	appendResult := timed("append vectors", func() (string, error) {
		return appendRandomVectors(store, cfg.VectorCount, cfg.Dimension)
	})

	index := search.NewANNIndex(cfg.Dimension)
	for i := 0; i < cfg.VectorCount; i++ {
		vec, err := store.Get(uint32(i))
		if err != nil {
			return nil, err
		}
		index.Add(i, vec, 1, 1, "function", false)
	}

	queryResult, latencies := runQueries(index, cfg)

	return []Result{appendResult, queryResult, percentileResult(latencies)}, nil
}

func appendRandomVectors(store *vectorstore.Store, count, dimension int) (string, error) {
	rng := rand.New(rand.NewSource(1))
	vectors := make([][]float32, count)
	for i := range vectors {
		v := make([]float32, dimension)
		for j := range v {
			v[j] = rng.Float32()*2 - 1
		}
		vectors[i] = v
	}
	if _, err := store.AppendBatch(vectors); err != nil {
		return "", err
	}
	return fmt.Sprintf("appended %d vectors of dimension %d", count, dimension), nil
}

func runQueries(index *search.ANNIndex, cfg PerformanceConfig) (Result, []time.Duration) {
	rng := rand.New(rand.NewSource(2))
	latencies := make([]time.Duration, cfg.QueryCount)

	start := time.Now()
	for i := 0; i < cfg.QueryCount; i++ {
		query := make([]float32, cfg.Dimension)
		for j := range query {
			query[j] = rng.Float32()*2 - 1
		}
		qStart := time.Now()
		index.Search(query, 10)
		latencies[i] = time.Since(qStart)
	}
	total := time.Since(start)

	return Result{
		Name:       "query latency",
		Success:    true,
		DurationMS: total.Milliseconds(),
		Details:    fmt.Sprintf("%d queries against %d vectors", cfg.QueryCount, index.Size()),
	}, latencies
}

func percentileResult(latencies []time.Duration) Result {
	sorted := append([]time.Duration(nil), latencies...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	p50 := percentile(sorted, 0.50)
	p95 := percentile(sorted, 0.95)
	p99 := percentile(sorted, 0.99)

	return Result{
		Name:    "query latency percentiles",
		Success: true,
		Details: fmt.Sprintf("p50=%s p95=%s p99=%s", p50, p95, p99),
	}
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(p * float64(len(sorted)-1))
	return sorted[idx]
}

// All runs platform checks and a default-sized performance check.
func All(cfg config.Config) ([]Result, error) {
	results := append([]Result{}, Platform(cfg)...)

	perf, err := Performance(DefaultPerformanceConfig())
	if err != nil {
		return results, err
	}
	return append(results, perf...), nil
}
