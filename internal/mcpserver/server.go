// Package mcpserver exposes indexing and search over the Model Context
// Protocol so editor agents can drive them as tools instead of shelling
// out to the CLI.
package mcpserver

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/codesearch-dev/codesearch/internal/config"
	"github.com/codesearch-dev/codesearch/internal/embedding"
	"github.com/codesearch-dev/codesearch/internal/indexmgr"
	"github.com/codesearch-dev/codesearch/internal/lock"
	"github.com/codesearch-dev/codesearch/internal/search"
	"github.com/codesearch-dev/codesearch/pkg/version"
)

// Server bridges an indexed project to MCP clients over stdio.
type Server struct {
	mcp    *mcp.Server
	root   string
	cfg    config.Config
	embed  embedding.Client
	logger *slog.Logger
	mgr    *indexmgr.Manager
}

// New creates a Server for the project rooted at root, opening its index.
func New(root string, cfg config.Config, embedder embedding.Client, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	mgr, err := indexmgr.Open(root, cfg, embedder, logger)
	if err != nil {
		return nil, err
	}

	s := &Server{root: root, cfg: cfg, embed: embedder, logger: logger, mgr: mgr}
	s.mcp = mcp.NewServer(&mcp.Implementation{Name: "codesearch", Version: version.Version}, nil)
	s.registerTools()
	return s, nil
}

// Close releases the underlying index handles.
func (s *Server) Close() error {
	return s.mgr.Close()
}

// Serve runs the server over stdio until ctx is canceled.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("starting MCP server", slog.String("transport", "stdio"))
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "index",
		Description: "Index or re-index the project so search and find can answer queries against current source.",
	}, s.handleIndex)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "search",
		Description: "Search the project by meaning (semantic), by symbol name, or both (hybrid).",
	}, s.handleSearch)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "find",
		Description: "Find symbols by name, exact or fuzzy.",
	}, s.handleFind)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "status",
		Description: "Report how many files, symbols, and chunks are currently indexed.",
	}, s.handleStatus)
}

// IndexInput is the index tool's argument schema.
type IndexInput struct {
	Force bool `json:"force,omitempty" jsonschema:"discard the existing index and rebuild from scratch"`
}

// IndexOutput reports the outcome of an index pass.
type IndexOutput struct {
	FilesProcessed int      `json:"files_processed"`
	Errors         []string `json:"errors,omitempty"`
}

func (s *Server) handleIndex(ctx context.Context, _ *mcp.CallToolRequest, input IndexInput) (*mcp.CallToolResult, IndexOutput, error) {
	writeLock := lock.New(filepath.Join(s.root, config.IndexDirName))
	acquired, err := writeLock.TryLock()
	if err != nil {
		return nil, IndexOutput{}, err
	}
	if !acquired {
		return nil, IndexOutput{}, fmt.Errorf("another process is already writing to this project's index")
	}
	defer func() { _ = writeLock.Unlock() }()

	var last indexmgr.Progress
	report := func(p indexmgr.Progress) { last = p }

	if input.Force {
		err = s.mgr.Rebuild(ctx, report)
	} else {
		err = s.mgr.Incremental(ctx, report)
	}
	if err != nil {
		return nil, IndexOutput{}, err
	}

	out := IndexOutput{FilesProcessed: last.ProcessedFiles}
	for _, e := range last.Errors {
		out.Errors = append(out.Errors, fmt.Sprintf("%s: %s", e.Path, e.Err))
	}
	return nil, out, nil
}

// SearchInput is the search tool's argument schema.
type SearchInput struct {
	Query    string  `json:"query" jsonschema:"text to search for"`
	Type     string  `json:"type,omitempty" jsonschema:"semantic, symbol, hybrid, or keyword (default hybrid)"`
	Limit    int     `json:"limit,omitempty" jsonschema:"maximum number of results, default 20"`
	MinScore float64 `json:"min_score,omitempty" jsonschema:"minimum relevance score"`
}

// SearchOutput wraps a list of search results.
type SearchOutput struct {
	Results []ResultOutput `json:"results"`
}

// ResultOutput is a single search hit rendered for an MCP client.
type ResultOutput struct {
	FilePath   string  `json:"file_path"`
	StartLine  int     `json:"start_line"`
	EndLine    int     `json:"end_line"`
	Score      float64 `json:"score"`
	MatchType  string  `json:"match_type"`
	SymbolName string  `json:"symbol_name,omitempty"`
}

func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	if input.Query == "" {
		return nil, SearchOutput{}, fmt.Errorf("query is required")
	}

	engine, err := s.openEngine()
	if err != nil {
		return nil, SearchOutput{}, err
	}

	q := search.Query{
		Text:     input.Query,
		Type:     parseQueryType(input.Type),
		Limit:    input.Limit,
		MinScore: input.MinScore,
	}
	results, err := engine.Search(ctx, q)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	out := SearchOutput{Results: make([]ResultOutput, len(results))}
	for i, r := range results {
		out.Results[i] = ResultOutput{
			FilePath:   r.FilePath,
			StartLine:  r.StartLine,
			EndLine:    r.EndLine,
			Score:      r.Score,
			MatchType:  string(r.MatchType),
			SymbolName: r.SymbolName,
		}
	}
	return nil, out, nil
}

// FindInput is the find tool's argument schema.
type FindInput struct {
	Symbol string `json:"symbol" jsonschema:"symbol name to find"`
	Exact  bool   `json:"exact,omitempty" jsonschema:"require an exact case-insensitive name match"`
}

func (s *Server) handleFind(ctx context.Context, _ *mcp.CallToolRequest, input FindInput) (*mcp.CallToolResult, SearchOutput, error) {
	if input.Symbol == "" {
		return nil, SearchOutput{}, fmt.Errorf("symbol is required")
	}

	engine, err := s.openEngine()
	if err != nil {
		return nil, SearchOutput{}, err
	}

	results, err := engine.Search(ctx, search.Query{Text: input.Symbol, Type: search.QuerySymbol, ExactSymbol: input.Exact, Limit: 50})
	if err != nil {
		return nil, SearchOutput{}, err
	}

	out := SearchOutput{Results: make([]ResultOutput, len(results))}
	for i, r := range results {
		out.Results[i] = ResultOutput{
			FilePath:   r.FilePath,
			StartLine:  r.StartLine,
			EndLine:    r.EndLine,
			Score:      r.Score,
			MatchType:  string(r.MatchType),
			SymbolName: r.SymbolName,
		}
	}
	return nil, out, nil
}

// StatusInput is the status tool's (empty) argument schema.
type StatusInput struct{}

// StatusOutput reports index statistics.
type StatusOutput struct {
	TotalFiles   int    `json:"total_files"`
	TotalSymbols int    `json:"total_symbols"`
	TotalChunks  int    `json:"total_chunks"`
	LastIndexed  string `json:"last_indexed,omitempty"`
}

func (s *Server) handleStatus(ctx context.Context, _ *mcp.CallToolRequest, _ StatusInput) (*mcp.CallToolResult, StatusOutput, error) {
	stats, err := s.mgr.Statistics()
	if err != nil {
		return nil, StatusOutput{}, err
	}

	out := StatusOutput{
		TotalFiles:   stats.TotalFiles,
		TotalSymbols: stats.TotalSymbols,
		TotalChunks:  stats.TotalChunks,
	}
	if !stats.LastIndexed.IsZero() {
		out.LastIndexed = stats.LastIndexed.Format("2006-01-02T15:04:05Z07:00")
	}
	return nil, out, nil
}

func (s *Server) openEngine() (*search.Engine, error) {
	return search.NewEngine(s.root, s.cfg.Search, s.mgr.MetadataStore(), s.mgr.VectorStore(), s.embed)
}

func parseQueryType(t string) search.QueryType {
	switch t {
	case "semantic":
		return search.QuerySemantic
	case "symbol":
		return search.QuerySymbol
	case "keyword":
		return search.QueryKeyword
	default:
		return search.QueryHybrid
	}
}
