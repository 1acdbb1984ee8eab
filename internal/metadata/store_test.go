package metadata

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "metadata.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestUpsertProjectIsIdempotent(t *testing.T) {
	s := openTestStore(t)

	id1, err := s.UpsertProject("/repo", "hash1")
	require.NoError(t, err)

	id2, err := s.UpsertProject("/repo", "hash2")
	require.NoError(t, err)
	require.Equal(t, id1, id2)

	p, err := s.GetProjectByPath("/repo")
	require.NoError(t, err)
	require.Equal(t, "hash2", p.Hash)
}

func TestReplaceFileContentsAssignsSequentialOffsets(t *testing.T) {
	s := openTestStore(t)
	projectID, err := s.UpsertProject("/repo", "h")
	require.NoError(t, err)

	now := time.Now().UTC()
	f := File{ProjectID: projectID, Path: "a.go", Hash: "h1", Size: 10, Language: "go", IndexedAt: now, LastModified: now}
	symbols := []Symbol{{Name: "Foo", Kind: SymbolFunction, StartLine: 1, EndLine: 3}}
	chunks := []Chunk{
		{StartLine: 1, EndLine: 3, ChunkType: ChunkFunction, SymbolName: "Foo"},
		{StartLine: 4, EndLine: 6, ChunkType: ChunkFunction, SymbolName: "Bar"},
	}

	fileID, err := s.ReplaceFileContents(f, symbols, chunks, 5)
	require.NoError(t, err)
	require.NotZero(t, fileID)

	candidates, err := s.EnumerateChunks(projectID)
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	require.Equal(t, uint32(5), candidates[0].VectorOffset)
	require.Equal(t, uint32(6), candidates[1].VectorOffset)
}

func TestDeleteFileCascades(t *testing.T) {
	s := openTestStore(t)
	projectID, err := s.UpsertProject("/repo", "h")
	require.NoError(t, err)

	now := time.Now().UTC()
	f := File{ProjectID: projectID, Path: "a.go", Hash: "h1", Size: 1, Language: "go", IndexedAt: now, LastModified: now}
	fileID, err := s.ReplaceFileContents(f, []Symbol{{Name: "Foo", Kind: SymbolFunction}}, []Chunk{{ChunkType: ChunkFunction}}, 0)
	require.NoError(t, err)

	require.NoError(t, s.DeleteFile(fileID))

	candidates, err := s.EnumerateChunks(projectID)
	require.NoError(t, err)
	require.Empty(t, candidates)

	matches, err := s.FindSymbolsBySubstring(projectID, "Foo")
	require.NoError(t, err)
	require.Empty(t, matches)
}

func TestFindSymbolsBySubstringCaseInsensitive(t *testing.T) {
	s := openTestStore(t)
	projectID, err := s.UpsertProject("/repo", "h")
	require.NoError(t, err)

	now := time.Now().UTC()
	f := File{ProjectID: projectID, Path: "a.go", Hash: "h1", Size: 1, Language: "go", IndexedAt: now, LastModified: now}
	_, err = s.ReplaceFileContents(f, []Symbol{{Name: "HandleRequest", Kind: SymbolFunction}}, nil, 0)
	require.NoError(t, err)

	matches, err := s.FindSymbolsBySubstring(projectID, "handle")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, "HandleRequest", matches[0].SymbolName)
}

func TestGetStatistics(t *testing.T) {
	s := openTestStore(t)
	projectID, err := s.UpsertProject("/repo", "h")
	require.NoError(t, err)

	now := time.Now().UTC()
	f := File{ProjectID: projectID, Path: "a.go", Hash: "h1", Size: 100, Language: "go", IndexedAt: now, LastModified: now}
	_, err = s.ReplaceFileContents(f, []Symbol{{Name: "Foo", Kind: SymbolFunction}}, []Chunk{{ChunkType: ChunkFunction}}, 0)
	require.NoError(t, err)

	stats, err := s.GetStatistics(projectID)
	require.NoError(t, err)
	require.Equal(t, 1, stats.TotalFiles)
	require.Equal(t, 1, stats.TotalSymbols)
	require.Equal(t, 1, stats.TotalChunks)
	require.Equal(t, int64(100), stats.TotalSize)
}

func TestMetaKeyValue(t *testing.T) {
	s := openTestStore(t)

	_, ok, err := s.GetMeta("missing")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.SetMeta("schema_version", "1"))
	require.NoError(t, s.SetMeta("schema_version", "2"))

	value, ok, err := s.GetMeta("schema_version")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "2", value)
}
