package mcpserver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codesearch-dev/codesearch/internal/config"
	"github.com/codesearch-dev/codesearch/internal/embedding"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.go"), []byte(`package main

func Greet() string { return "hi" }
`), 0o644))

	cfg := config.Default()
	cfg.Embeddings.Dimension = 16

	s, err := New(root, cfg, embedding.NewStaticClient(16), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestHandleIndexReportsProcessedFiles(t *testing.T) {
	s := newTestServer(t)
	_, out, err := s.handleIndex(context.Background(), nil, IndexInput{Force: true})
	require.NoError(t, err)
	assert.Equal(t, 1, out.FilesProcessed)
	assert.Empty(t, out.Errors)
}

func TestHandleSearchRequiresQuery(t *testing.T) {
	s := newTestServer(t)
	_, _, err := s.handleSearch(context.Background(), nil, SearchInput{})
	assert.Error(t, err)
}

func TestHandleFindLocatesSymbol(t *testing.T) {
	s := newTestServer(t)
	_, _, err := s.handleIndex(context.Background(), nil, IndexInput{Force: true})
	require.NoError(t, err)

	_, out, err := s.handleFind(context.Background(), nil, FindInput{Symbol: "Greet", Exact: true})
	require.NoError(t, err)
	require.NotEmpty(t, out.Results)
	assert.Equal(t, "Greet", out.Results[0].SymbolName)
}

func TestHandleStatusReflectsIndexedState(t *testing.T) {
	s := newTestServer(t)
	_, _, err := s.handleIndex(context.Background(), nil, IndexInput{Force: true})
	require.NoError(t, err)

	_, out, err := s.handleStatus(context.Background(), nil, StatusInput{})
	require.NoError(t, err)
	assert.Equal(t, 1, out.TotalFiles)
	assert.Equal(t, 1, out.TotalSymbols)
}
