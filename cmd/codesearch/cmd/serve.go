package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/codesearch-dev/codesearch/internal/config"
	"github.com/codesearch-dev/codesearch/internal/embedding"
	"github.com/codesearch-dev/codesearch/internal/mcpserver"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [path]",
		Short: "Serve index and search operations to MCP clients over stdio",
		Long: `Serve exposes index, search, find, and status as MCP tools so a
coding agent can drive them directly instead of shelling out to this
CLI. The server runs until its stdin is closed or the context is
canceled.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}
			return runServe(cmd, path)
		},
	}
	return cmd
}

func runServe(cmd *cobra.Command, path string) error {
	root, err := config.FindProjectRoot(path)
	if err != nil {
		return err
	}
	cfg, err := config.Load(root)
	if err != nil {
		return err
	}
	if !cfg.Server.MCPEnabled {
		return fmt.Errorf("serve is disabled by server.mcp_enabled in the project configuration")
	}

	embedder, err := embedding.New(cfg.Embeddings)
	if err != nil {
		return err
	}
	defer func() { _ = embedder.Close() }()

	srv, err := mcpserver.New(root, cfg, embedder, slog.Default())
	if err != nil {
		return err
	}
	defer func() { _ = srv.Close() }()

	return srv.Serve(cmd.Context())
}
