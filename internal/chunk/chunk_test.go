package chunk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codesearch-dev/codesearch/internal/metadata"
	"github.com/codesearch-dev/codesearch/internal/symbol"
)

func TestFromSymbolsNoSymbolsFallsBackToWholeFile(t *testing.T) {
	content := []byte("line one\nline two\nline three")
	chunks := FromSymbols(content, nil)

	require.Len(t, chunks, 1)
	assert.Equal(t, 1, chunks[0].StartLine)
	assert.Equal(t, 3, chunks[0].EndLine)
	assert.Equal(t, 0, chunks[0].StartByte)
	assert.Equal(t, len(content), chunks[0].EndByte)
	assert.Equal(t, metadata.ChunkCodeBlock, chunks[0].Type)
	assert.Empty(t, chunks[0].SymbolName)
}

func TestFromSymbolsOnePerSymbol(t *testing.T) {
	content := []byte("func A() {}\nfunc B() {}\n")
	symbols := []symbol.Symbol{
		{Name: "A", Kind: metadata.SymbolFunction, StartLine: 1, EndLine: 1, StartByte: 0, EndByte: 11},
		{Name: "B", Kind: metadata.SymbolFunction, StartLine: 2, EndLine: 2, StartByte: 12, EndByte: 23},
	}

	chunks := FromSymbols(content, symbols)
	require.Len(t, chunks, 2)
	assert.Equal(t, "A", chunks[0].SymbolName)
	assert.Equal(t, metadata.ChunkFunction, chunks[0].Type)
	assert.Equal(t, "func A() {}", chunks[0].Text(content))
}

func TestByLinesWindowing(t *testing.T) {
	content := []byte("l1\nl2\nl3\nl4\nl5\n")
	chunks := ByLines(content, 2)

	require.Len(t, chunks, 3)
	assert.Equal(t, 1, chunks[0].StartLine)
	assert.Equal(t, 2, chunks[0].EndLine)
	assert.Equal(t, "l1\nl2\n", chunks[0].Text(content))
}

func TestTextExtractedByByteRangeNotLineRange(t *testing.T) {
	// Multi-byte content: "é" is two bytes in UTF-8 but one rune.
	content := []byte("func  é() {}\n")
	c := Chunk{StartByte: 0, EndByte: len(content)}
	assert.Equal(t, string(content), c.Text(content))
}
