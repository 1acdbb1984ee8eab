package cmd

import (
	"github.com/spf13/cobra"

	"github.com/codesearch-dev/codesearch/internal/config"
	"github.com/codesearch-dev/codesearch/internal/output"
	"github.com/codesearch-dev/codesearch/internal/search"
)

func newFindCmd() *cobra.Command {
	var exact bool

	cmd := &cobra.Command{
		Use:   "find <symbol>",
		Short: "Find symbols by name, exact or fuzzy",
		Long: `Find looks up symbols by name across the indexed project.

Without --exact, every symbol whose name contains the query is
returned: an exact case-insensitive match scores 1.0 and other names
score lower. Names that do not contain the query, such as misspellings,
are not matched. With --exact, only a case-insensitive exact match is
returned, scored 1.0.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFind(cmd, args[0], exact)
		},
	}

	cmd.Flags().BoolVar(&exact, "exact", false, "require an exact case-insensitive name match")
	return cmd
}

func runFind(cmd *cobra.Command, symbol string, exact bool) error {
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
		Text:        symbol,
		Type:        search.QuerySymbol,
		ExactSymbol: exact,
		Limit:       flagLimit,
	})
	if err != nil {
		return err
	}

	return output.New(cmd.OutOrStdout(), flagJSON).WriteFind(symbol, results)
}
