// Package indexmgr drives full and incremental indexing passes: scanning
// a project, extracting symbols and chunks, embedding them, and
// persisting the result across the vector store and metadata store in
// the order that keeps a crash mid-pass recoverable.
package indexmgr

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/codesearch-dev/codesearch/internal/chunk"
	"github.com/codesearch-dev/codesearch/internal/config"
	"github.com/codesearch-dev/codesearch/internal/embedding"
	"github.com/codesearch-dev/codesearch/internal/indexerr"
	"github.com/codesearch-dev/codesearch/internal/metadata"
	"github.com/codesearch-dev/codesearch/internal/scanner"
	"github.com/codesearch-dev/codesearch/internal/symbol"
	"github.com/codesearch-dev/codesearch/internal/vectorstore"
)

const (
	vectorsFileName  = "vectors.dat"
	metadataFileName = "metadata.db"
)

// Manager owns a project's on-disk index and runs indexing passes
// against it.
type Manager struct {
	root     string
	indexDir string
	cfg      config.Config
	embedder embedding.Client
	extract  *symbol.Extractor
	scan     *scanner.Scanner
	logger   *slog.Logger

	vectors *vectorstore.Store
	meta    *metadata.Store
}

// Open opens (creating if necessary) the index for a project rooted at
// root.
func Open(root string, cfg config.Config, embedder embedding.Client, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}
	indexDir := filepath.Join(root, config.IndexDirName)
	if err := os.MkdirAll(indexDir, 0o755); err != nil {
		return nil, indexerr.IO("INDEXMGR_MKDIR", "failed to create index directory", err)
	}

	vectors, err := vectorstore.OpenOrCreate(filepath.Join(indexDir, vectorsFileName), cfg.Embeddings.Dimension)
	if err != nil {
		return nil, err
	}
	meta, err := metadata.Open(filepath.Join(indexDir, metadataFileName))
	if err != nil {
		vectors.Close()
		return nil, err
	}

	return &Manager{
		root:     root,
		indexDir: indexDir,
		cfg:      cfg,
		embedder: embedder,
		extract:  symbol.NewExtractor(),
		scan:     scanner.New(),
		logger:   logger,
		vectors:  vectors,
		meta:     meta,
	}, nil
}

// MetadataStore exposes the underlying metadata store for callers that
// need direct read access, such as the search engine.
func (m *Manager) MetadataStore() *metadata.Store {
	return m.meta
}

// VectorStore exposes the underlying vector store for callers that need
// direct read access, such as the search engine.
func (m *Manager) VectorStore() *vectorstore.Store {
	return m.vectors
}

// Statistics returns the current project's indexed file/symbol/chunk
// counts.
func (m *Manager) Statistics() (metadata.Statistics, error) {
	absRoot, err := filepath.Abs(m.root)
	if err != nil {
		return metadata.Statistics{}, indexerr.IO("INDEXMGR_ABS_ROOT", "failed to resolve project root", err)
	}
	project, err := m.meta.GetProjectByPath(absRoot)
	if err != nil {
		return metadata.Statistics{}, err
	}
	if project == nil {
		return metadata.Statistics{}, nil
	}
	return m.meta.GetStatistics(project.ID)
}

// Close releases the underlying store handles.
func (m *Manager) Close() error {
	m.extract.Close()
	verr := m.vectors.Close()
	merr := m.meta.Close()
	if verr != nil {
		return verr
	}
	return merr
}

// Rebuild discards the existing index and reindexes every file from
// scratch.
func (m *Manager) Rebuild(ctx context.Context, onProgress ProgressFunc) error {
	m.extract.Close()
	if err := m.vectors.Close(); err != nil {
		return err
	}
	if err := m.meta.Close(); err != nil {
		return err
	}

	if err := os.Remove(filepath.Join(m.indexDir, vectorsFileName)); err != nil && !os.IsNotExist(err) {
		return indexerr.IO("INDEXMGR_REMOVE_VECTORS", "failed to remove existing vector store", err)
	}
	if err := os.Remove(filepath.Join(m.indexDir, metadataFileName)); err != nil && !os.IsNotExist(err) {
		return indexerr.IO("INDEXMGR_REMOVE_METADATA", "failed to remove existing metadata store", err)
	}

	vectors, err := vectorstore.Create(filepath.Join(m.indexDir, vectorsFileName), m.cfg.Embeddings.Dimension)
	if err != nil {
		return err
	}
	meta, err := metadata.Open(filepath.Join(m.indexDir, metadataFileName))
	if err != nil {
		vectors.Close()
		return err
	}
	m.vectors = vectors
	m.meta = meta
	m.extract = symbol.NewExtractor()

	return m.run(ctx, true, onProgress)
}

// Incremental compares on-disk state against the metadata store,
// reindexing new and modified files and deleting files that vanished.
func (m *Manager) Incremental(ctx context.Context, onProgress ProgressFunc) error {
	return m.run(ctx, false, onProgress)
}

func (m *Manager) run(ctx context.Context, force bool, onProgress ProgressFunc) error {
	absRoot, err := filepath.Abs(m.root)
	if err != nil {
		return indexerr.IO("INDEXMGR_ABS_ROOT", "failed to resolve project root", err)
	}

	projectID, err := m.meta.UpsertProject(absRoot, "")
	if err != nil {
		return err
	}

	existing, err := m.meta.ListFiles(projectID)
	if err != nil {
		return err
	}
	existingByPath := make(map[string]metadata.File, len(existing))
	for _, f := range existing {
		existingByPath[f.Path] = f
	}

	results, err := m.scan.Scan(ctx, scanner.Options{
		RootDir:          absRoot,
		ExcludeGlobs:     m.cfg.Paths.ExcludeGlobs,
		RespectGitignore: m.cfg.Paths.RespectGitignore,
		MaxFileSize:      m.cfg.Paths.MaxFileSizeBytes,
	})
	if err != nil {
		return err
	}

	var scanned []*scanner.FileInfo
	for r := range results {
		if r.Err != nil {
			m.logger.Warn("scan error", slog.String("error", r.Err.Error()))
			continue
		}
		scanned = append(scanned, r.File)
	}

	seen := make(map[string]bool, len(scanned))
	var toProcess []*scanner.FileInfo
	hashes := make(map[string]string, len(scanned))

	for _, fi := range scanned {
		seen[fi.Path] = true
		prior, ok := existingByPath[fi.Path]
		if !force && ok && prior.LastModified.Equal(fi.ModTime) && prior.Size == fi.Size {
			hashes[fi.Path] = prior.Hash
			continue
		}
		toProcess = append(toProcess, fi)
	}

	for path, prior := range existingByPath {
		if seen[path] {
			continue
		}
		if err := m.meta.DeleteFile(prior.ID); err != nil {
			return err
		}
	}

	progress := Progress{TotalFiles: len(toProcess)}
	var progressMu sync.Mutex
	report := func(path string, fileErr error) {
		progressMu.Lock()
		progress.ProcessedFiles++
		if fileErr != nil {
			progress.Errors = append(progress.Errors, FileError{Path: path, Err: fileErr})
		}
		snapshot := progress
		progressMu.Unlock()
		if onProgress != nil {
			onProgress(snapshot)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFiles)

	var hashMu sync.Mutex
	for _, fi := range toProcess {
		fi := fi
		g.Go(func() error {
			contentHash, err := m.indexFile(gctx, projectID, fi)
			report(fi.Path, err)
			if err != nil {
				if indexerr.IsFatal(err) {
					return err
				}
				return nil
			}
			hashMu.Lock()
			hashes[fi.Path] = contentHash
			hashMu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	projectHash := hashProject(hashes)
	if _, err := m.meta.UpsertProject(absRoot, projectHash); err != nil {
		return err
	}
	return nil
}

// indexFile parses, chunks, embeds, and persists a single file, returning
// its content hash for the project-level digest.
func (m *Manager) indexFile(ctx context.Context, projectID int64, fi *scanner.FileInfo) (string, error) {
	content, err := os.ReadFile(fi.AbsPath)
	if err != nil {
		return "", indexerr.IO("INDEXMGR_READ_FILE", "failed to read "+fi.Path, err)
	}
	contentHash := sha256Hex(content)

	var symbols []symbol.Symbol
	if fi.Language != "" {
		symbols, err = m.extract.Extract(ctx, content, fi.Language)
		if err != nil {
			m.logger.Warn("symbol extraction failed", slog.String("path", fi.Path), slog.String("error", err.Error()))
			symbols = nil
		}
	}

	var chunks []chunk.Chunk
	if fi.Language == "" {
		chunks = chunk.ByLines(content, m.cfg.Chunking.LineWindowSize)
	} else {
		chunks = chunk.FromSymbols(content, symbols)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text(content)
	}

	var offsets uint32
	if len(texts) > 0 {
		vectors, err := m.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return "", indexerr.Model("INDEXMGR_EMBED", "failed to embed chunks for "+fi.Path, err)
		}
		offsets, err = m.vectors.AppendBatch(vectors)
		if err != nil {
			return "", err
		}
	}

	metaFile := metadata.File{
		ProjectID:    projectID,
		Path:         fi.Path,
		Hash:         contentHash,
		Size:         fi.Size,
		Language:     fi.Language,
		IndexedAt:    time.Now().UTC(),
		LastModified: fi.ModTime,
	}
	metaSymbols := make([]metadata.Symbol, len(symbols))
	for i, s := range symbols {
		metaSymbols[i] = metadata.Symbol{
			Name:      s.Name,
			Kind:      s.Kind,
			StartLine: s.StartLine,
			EndLine:   s.EndLine,
			StartByte: s.StartByte,
			EndByte:   s.EndByte,
		}
	}
	metaChunks := make([]metadata.Chunk, len(chunks))
	for i, c := range chunks {
		metaChunks[i] = metadata.Chunk{
			StartLine:  c.StartLine,
			EndLine:    c.EndLine,
			ChunkType:  c.Type,
			SymbolName: c.SymbolName,
		}
	}

	if _, err := m.meta.ReplaceFileContents(metaFile, metaSymbols, metaChunks, offsets); err != nil {
		return "", err
	}
	return contentHash, nil
}

// maxConcurrentFiles bounds how many files are parsed, chunked, and
// embedded at once during an indexing pass.
const maxConcurrentFiles = 8

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// hashProject combines every file's content hash into a single digest,
// stored as the project row's content hash. Sorting by path first makes
// the result independent of scan order.
func hashProject(hashes map[string]string) string {
	paths := make([]string, 0, len(hashes))
	for p := range hashes {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	h := sha256.New()
	for _, p := range paths {
		fmt.Fprintf(h, "%s\x00%s\n", p, hashes[p])
	}
	return hex.EncodeToString(h.Sum(nil))
}
