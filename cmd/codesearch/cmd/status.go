package cmd

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/codesearch-dev/codesearch/internal/config"
	"github.com/codesearch-dev/codesearch/internal/metadata"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status [path]",
		Short: "Show index statistics for a project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}
			return runStatus(cmd, path)
		},
	}
	return cmd
}

type statusJSON struct {
	ProjectRoot  string `json:"project_root"`
	Indexed      bool   `json:"indexed"`
	TotalFiles   int    `json:"total_files"`
	TotalSymbols int    `json:"total_symbols"`
	TotalChunks  int    `json:"total_chunks"`
	TotalSize    int64  `json:"total_size_bytes"`
	LastIndexed  string `json:"last_indexed,omitempty"`
}

func runStatus(cmd *cobra.Command, path string) error {
	root, err := config.FindProjectRoot(path)
	if err != nil {
		return err
	}

	metadataPath := filepath.Join(root, config.IndexDirName, "metadata.db")
	meta, err := metadata.Open(metadataPath)
	if err != nil {
		return err
	}
	defer func() { _ = meta.Close() }()

	status := statusJSON{ProjectRoot: root}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	project, err := meta.GetProjectByPath(absRoot)
	if err != nil {
		return err
	}
	if project != nil {
		status.Indexed = true
		stats, err := meta.GetStatistics(project.ID)
		if err != nil {
			return err
		}
		status.TotalFiles = stats.TotalFiles
		status.TotalSymbols = stats.TotalSymbols
		status.TotalChunks = stats.TotalChunks
		status.TotalSize = stats.TotalSize
		if !stats.LastIndexed.IsZero() {
			status.LastIndexed = stats.LastIndexed.Format("2006-01-02T15:04:05Z07:00")
		}
	}

	if flagJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	}

	if !status.Indexed {
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s: not indexed\n", root)
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\n  files:   %d\n  symbols: %d\n  chunks:  %d\n  size:    %d bytes\n  indexed: %s\n",
		root, status.TotalFiles, status.TotalSymbols, status.TotalChunks, status.TotalSize, status.LastIndexed)
	return err
}
