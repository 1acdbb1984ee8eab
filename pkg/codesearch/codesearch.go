// Package codesearch is the library entry point for embedding project
// indexing and search in another Go program, wrapping the same
// indexmgr and search internals the CLI and MCP server use.
package codesearch

import (
	"context"
	"log/slog"

	"github.com/codesearch-dev/codesearch/internal/config"
	"github.com/codesearch-dev/codesearch/internal/embedding"
	"github.com/codesearch-dev/codesearch/internal/indexmgr"
	"github.com/codesearch-dev/codesearch/internal/metadata"
	"github.com/codesearch-dev/codesearch/internal/search"
)

// Query, Result, and Statistics are re-exported so callers never need
// to import the internal search and metadata packages directly.
type Query = search.Query
type Result = search.Result
type Progress = indexmgr.Progress
type Statistics = metadata.Statistics

// Project wraps an opened index for a single project directory.
type Project struct {
	root     string
	cfg      config.Config
	embedder embedding.Client
	mgr      *indexmgr.Manager
	engine   *search.Engine
}

// Open loads (creating if absent) the index for the project rooted at root.
func Open(root string, logger *slog.Logger) (*Project, error) {
	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}
	embedder, err := embedding.New(cfg.Embeddings)
	if err != nil {
		return nil, err
	}
	mgr, err := indexmgr.Open(root, cfg, embedder, logger)
	if err != nil {
		embedder.Close()
		return nil, err
	}
	engine, err := search.NewEngine(root, cfg.Search, mgr.MetadataStore(), mgr.VectorStore(), embedder)
	if err != nil {
		mgr.Close()
		embedder.Close()
		return nil, err
	}
	return &Project{root: root, cfg: cfg, embedder: embedder, mgr: mgr, engine: engine}, nil
}

// Close releases the project's index handles and embedding client.
func (p *Project) Close() error {
	if err := p.mgr.Close(); err != nil {
		p.embedder.Close()
		return err
	}
	return p.embedder.Close()
}

// Index processes new or modified files since the last run.
func (p *Project) Index(ctx context.Context, onProgress func(Progress)) error {
	return p.mgr.Incremental(ctx, indexmgr.ProgressFunc(onProgress))
}

// Reindex discards the existing index and rebuilds it from scratch.
func (p *Project) Reindex(ctx context.Context, onProgress func(Progress)) error {
	return p.mgr.Rebuild(ctx, indexmgr.ProgressFunc(onProgress))
}

// Search answers a semantic, symbol, hybrid, or keyword query. The
// search engine must be refreshed after an Index/Reindex call so it
// sees newly written rows.
func (p *Project) Search(ctx context.Context, q Query) ([]Result, error) {
	if err := p.engine.Refresh(); err != nil {
		return nil, err
	}
	return p.engine.Search(ctx, q)
}

// Statistics reports how many files, symbols, and chunks are indexed.
func (p *Project) Statistics() (Statistics, error) {
	return p.mgr.Statistics()
}
