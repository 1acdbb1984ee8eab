// Package chunk splits a parsed file's symbols (or, failing that, its
// raw text) into the units the embedding client and search engine
// operate on.
package chunk

import (
	"strings"

	"github.com/codesearch-dev/codesearch/internal/metadata"
	"github.com/codesearch-dev/codesearch/internal/symbol"
)

// Chunk is one unit of text to embed, carrying enough position
// information to slice it back out of the source and to persist it as
// a metadata.Chunk once its vector has been stored.
type Chunk struct {
	StartLine  int
	EndLine    int
	StartByte  int
	EndByte    int
	Type       metadata.ChunkType
	SymbolName string // empty when not tied to a symbol
}

// Text extracts this chunk's source text. Extraction is always done by
// byte range, never by joining line slices, so multi-byte content
// (UTF-8 identifiers, embedded non-ASCII strings) round-trips exactly.
func (c Chunk) Text(content []byte) string {
	if c.StartByte >= c.EndByte || c.EndByte > len(content) {
		return ""
	}
	return string(content[c.StartByte:c.EndByte])
}

var symbolKindToChunkType = map[metadata.SymbolKind]metadata.ChunkType{
	metadata.SymbolFunction:  metadata.ChunkFunction,
	metadata.SymbolClass:     metadata.ChunkClass,
	metadata.SymbolStruct:    metadata.ChunkStruct,
	metadata.SymbolModule:    metadata.ChunkModule,
	metadata.SymbolImport:    metadata.ChunkImport,
	metadata.SymbolVariable:  metadata.ChunkVariable,
}

func chunkTypeFor(kind metadata.SymbolKind) metadata.ChunkType {
	if t, ok := symbolKindToChunkType[kind]; ok {
		return t
	}
	return metadata.ChunkOther
}

// FromSymbols builds one chunk per extracted symbol. If symbols is
// empty, it falls back to a single whole-file chunk spanning every
// line and byte, tagged CodeBlock with no symbol name.
func FromSymbols(content []byte, symbols []symbol.Symbol) []Chunk {
	if len(symbols) == 0 {
		return []Chunk{{
			StartLine: 1,
			EndLine:   countLines(content),
			StartByte: 0,
			EndByte:   len(content),
			Type:      metadata.ChunkCodeBlock,
		}}
	}

	chunks := make([]Chunk, 0, len(symbols))
	for _, s := range symbols {
		chunks = append(chunks, Chunk{
			StartLine:  s.StartLine,
			EndLine:    s.EndLine,
			StartByte:  s.StartByte,
			EndByte:    s.EndByte,
			Type:       chunkTypeFor(s.Kind),
			SymbolName: s.Name,
		})
	}
	return chunks
}

// ByLines splits content into fixed-size line windows, converting line
// offsets to byte offsets via cumulative line length. Used for files
// with no language support (prose, config, markdown) where per-symbol
// chunking doesn't apply.
func ByLines(content []byte, windowSize int) []Chunk {
	if windowSize <= 0 {
		windowSize = 50
	}

	lines := strings.Split(string(content), "\n")
	var chunks []Chunk

	lineStartByte := make([]int, len(lines)+1)
	offset := 0
	for i, line := range lines {
		lineStartByte[i] = offset
		offset += len(line) + 1 // account for the '\n' split away
	}
	lineStartByte[len(lines)] = len(content)

	for start := 0; start < len(lines); start += windowSize {
		end := start + windowSize
		if end > len(lines) {
			end = len(lines)
		}

		startByte := lineStartByte[start]
		if startByte >= len(content) {
			break
		}
		endByte := lineStartByte[end]
		if endByte > len(content) {
			endByte = len(content)
		}

		chunks = append(chunks, Chunk{
			StartLine: start + 1,
			EndLine:   end,
			StartByte: startByte,
			EndByte:   endByte,
			Type:      metadata.ChunkCodeBlock,
		})
	}
	return chunks
}

func countLines(content []byte) int {
	if len(content) == 0 {
		return 0
	}
	n := strings.Count(string(content), "\n") + 1
	return n
}
