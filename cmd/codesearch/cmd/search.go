package cmd

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codesearch-dev/codesearch/internal/config"
	"github.com/codesearch-dev/codesearch/internal/embedding"
	"github.com/codesearch-dev/codesearch/internal/metadata"
	"github.com/codesearch-dev/codesearch/internal/output"
	"github.com/codesearch-dev/codesearch/internal/search"
	"github.com/codesearch-dev/codesearch/internal/vectorstore"
)

func newSearchCmd() *cobra.Command {
	var (
		queryType string
		minScore  float64
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the indexed project by meaning, symbol, or both",
		Long: `Search runs a semantic, symbol, hybrid, or keyword query against the
project's index.

Examples:
  codesearch search "fibonacci function"
  codesearch search "SearchEngine" --type symbol
  codesearch search "error handling" --type keyword --limit 5`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return runSearch(cmd, query, queryType, minScore)
		},
	}

	cmd.Flags().StringVarP(&queryType, "type", "t", "hybrid", "query type: semantic, symbol, hybrid, or keyword")
	cmd.Flags().Float64Var(&minScore, "min-score", 0, "minimum relevance score")
	return cmd
}

func runSearch(cmd *cobra.Command, query, queryType string, minScore float64) error {
	root, err := config.FindProjectRoot(".")
	if err != nil {
		return err
	}
	cfg, err := config.Load(root)
	if err != nil {
		return err
	}

	meta, vectors, embedder, err := openStores(root, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = meta.Close() }()
	defer func() { _ = vectors.Close() }()
	defer func() { _ = embedder.Close() }()

	engine, err := search.NewEngine(root, cfg.Search, meta, vectors, embedder)
	if err != nil {
		return err
	}

	results, err := engine.Search(cmd.Context(), search.Query{
		Text:     query,
		Type:     parseQueryType(queryType),
		Limit:    flagLimit,
		MinScore: minScore,
	})
	if err != nil {
		return err
	}

	return output.New(cmd.OutOrStdout(), flagJSON).WriteSearch(query, results)
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

func openStores(root string, cfg config.Config) (*metadata.Store, *vectorstore.Store, embedding.Client, error) {
	indexDir := filepath.Join(root, config.IndexDirName)

	meta, err := metadata.Open(filepath.Join(indexDir, "metadata.db"))
	if err != nil {
		return nil, nil, nil, err
	}
	vectors, err := vectorstore.Open(filepath.Join(indexDir, "vectors.dat"))
	if err != nil {
		meta.Close()
		return nil, nil, nil, err
	}
	embedder, err := embedding.New(cfg.Embeddings)
	if err != nil {
		meta.Close()
		vectors.Close()
		return nil, nil, nil, err
	}
	return meta, vectors, embedder, nil
}
