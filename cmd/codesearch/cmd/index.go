package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/codesearch-dev/codesearch/internal/config"
	"github.com/codesearch-dev/codesearch/internal/embedding"
	"github.com/codesearch-dev/codesearch/internal/indexmgr"
	"github.com/codesearch-dev/codesearch/internal/lock"
	"github.com/codesearch-dev/codesearch/internal/ui"
)

func newIndexCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "index [path]",
		Short: "Build or refresh the index for a project",
		Long: `Index scans a project directory, chunks and embeds its source
files, and persists the result to the vector store and metadata store
under <path>/.codesearch.

By default only new or modified files are reprocessed. Pass --force
to discard the existing index and rebuild from scratch.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}
			return runIndex(cmd, path, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "discard the existing index and rebuild from scratch")
	return cmd
}

func runIndex(cmd *cobra.Command, path string, force bool) error {
	root, err := config.FindProjectRoot(path)
	if err != nil {
		return err
	}

	cfg, err := config.Load(root)
	if err != nil {
		return err
	}

	writeLock := lock.New(filepath.Join(root, config.IndexDirName))
	acquired, err := writeLock.TryLock()
	if err != nil {
		return err
	}
	if !acquired {
		return fmt.Errorf("another process is already writing to this project's index")
	}
	defer func() { _ = writeLock.Unlock() }()

	embedder, err := embedding.New(cfg.Embeddings)
	if err != nil {
		return err
	}
	defer func() { _ = embedder.Close() }()

	mgr, err := indexmgr.Open(root, cfg, embedder, slog.Default())
	if err != nil {
		return err
	}
	defer func() { _ = mgr.Close() }()

	renderer := ui.NewRenderer(cmd.OutOrStdout(), flagQuiet || flagJSON)
	var last indexmgr.Progress
	onProgress := func(p indexmgr.Progress) {
		last = p
		renderer.Update(p)
	}

	if err := renderer.Start(); err != nil {
		slog.Warn("failed to start progress renderer", slog.String("error", err.Error()))
	}

	var runErr error
	if force {
		runErr = mgr.Rebuild(cmd.Context(), onProgress)
	} else {
		runErr = mgr.Incremental(cmd.Context(), onProgress)
	}

	_ = renderer.Stop(last)
	if runErr != nil {
		return runErr
	}

	if flagJSON {
		return writeIndexJSON(cmd, last)
	}
	return nil
}

type indexResultJSON struct {
	FilesProcessed int      `json:"files_processed"`
	Errors         []string `json:"errors,omitempty"`
}

func writeIndexJSON(cmd *cobra.Command, p indexmgr.Progress) error {
	out := indexResultJSON{FilesProcessed: p.ProcessedFiles}
	for _, e := range p.Errors {
		out.Errors = append(out.Errors, fmt.Sprintf("%s: %s", e.Path, e.Err))
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
