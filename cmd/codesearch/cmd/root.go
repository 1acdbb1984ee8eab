// Package cmd provides the CLI commands for codesearch.
package cmd

import (
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/codesearch-dev/codesearch/internal/config"
	"github.com/codesearch-dev/codesearch/internal/logging"
	"github.com/codesearch-dev/codesearch/pkg/version"
)

// Global flags shared by every subcommand.
var (
	flagJSON    bool
	flagQuiet   bool
	flagLimit   int
	flagVerbose int

	loggingCleanup func()
)

// NewRootCmd creates the root command for the codesearch CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "codesearch",
		Short: "Local, agent-facing code search over a project's symbols and meaning",
		Long: `codesearch builds a per-symbol chunked index of a project directory,
backed by a flat-file vector store and a relational metadata store, and
answers semantic, symbol, and hybrid queries against it.

Run 'codesearch index' once, then 'codesearch search' or
'codesearch find' to query. 'codesearch serve' exposes the same
operations to MCP-speaking coding agents over stdio.`,
		Version:            version.Version,
		SilenceUsage:       true,
		PersistentPreRunE:  setupLogging,
		PersistentPostRunE: teardownLogging,
	}
	cmd.SetVersionTemplate("codesearch version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "emit machine-readable JSON output")
	cmd.PersistentFlags().BoolVar(&flagQuiet, "quiet", false, "suppress progress output")
	cmd.PersistentFlags().IntVar(&flagLimit, "limit", 20, "maximum number of results")
	cmd.PersistentFlags().CountVarP(&flagVerbose, "verbose", "v", "increase logging verbosity (-v, -vv)")

	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newFindCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func setupLogging(_ *cobra.Command, _ []string) error {
	root, err := config.FindProjectRoot(".")
	if err != nil {
		return err
	}
	indexDir := filepath.Join(root, config.IndexDirName)

	logCfg := logging.DefaultConfig(indexDir)
	if flagVerbose > 0 {
		logCfg = logging.DebugConfig(indexDir)
	}
	if flagVerbose >= 2 {
		logCfg.Level = logging.ParseLevel(2)
	}

	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		return err
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	return nil
}

func teardownLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}
