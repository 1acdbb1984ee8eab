// Package metadata implements the relational store backing project,
// file, symbol, and chunk records: five tables in a single SQLite
// database per project, addressed alongside the vector store under
// <project>/.codesearch/.
package metadata

import "time"

// Project is a single indexed repository root.
type Project struct {
	ID        int64
	Path      string
	Hash      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// File is one source file within a project.
type File struct {
	ID           int64
	ProjectID    int64
	Path         string
	Hash         string
	Size         int64
	Language     string
	IndexedAt    time.Time
	LastModified time.Time
}

// SymbolKind enumerates the kinds of symbols the parser layer extracts.
type SymbolKind string

const (
	SymbolFunction   SymbolKind = "function"
	SymbolClass      SymbolKind = "class"
	SymbolStruct     SymbolKind = "struct"
	SymbolEnum       SymbolKind = "enum"
	SymbolTrait      SymbolKind = "trait"
	SymbolImpl       SymbolKind = "impl"
	SymbolModule     SymbolKind = "module"
	SymbolImport     SymbolKind = "import"
	SymbolVariable   SymbolKind = "variable"
	SymbolConstant   SymbolKind = "constant"
	SymbolStatic     SymbolKind = "static"
	SymbolTypeAlias  SymbolKind = "type_alias"
	SymbolMacro      SymbolKind = "macro"
)

// Symbol is a named code entity extracted from a file.
type Symbol struct {
	ID              int64
	FileID          int64
	Name            string
	Kind            SymbolKind
	StartLine       int
	EndLine         int
	StartByte       int
	EndByte         int
	ParentSymbolID  *int64
}

// ChunkType enumerates the kinds of chunks the chunker produces.
type ChunkType string

const (
	ChunkFunction  ChunkType = "function"
	ChunkClass     ChunkType = "class"
	ChunkStruct    ChunkType = "struct"
	ChunkModule    ChunkType = "module"
	ChunkImport    ChunkType = "import"
	ChunkVariable  ChunkType = "variable"
	ChunkCodeBlock ChunkType = "code_block"
	ChunkOther     ChunkType = "other"
)

// Chunk is one embedded unit of a file, with VectorOffset pointing
// into the vector store.
type Chunk struct {
	ID           int64
	FileID       int64
	StartLine    int
	EndLine      int
	ChunkType    ChunkType
	SymbolName   string // empty when the chunk has no associated symbol
	VectorOffset uint32
	CreatedAt    time.Time
}

// SearchCandidate is the denormalized row shape returned by
// EnumerateChunks, carrying just what the search engine needs to
// score and render a result without a second round trip per chunk.
type SearchCandidate struct {
	ChunkID      int64
	FilePath     string
	StartLine    int
	EndLine      int
	ChunkType    ChunkType
	SymbolName   string
	VectorOffset uint32
}

// SymbolMatch is the row shape returned by FindSymbolsBySubstring.
type SymbolMatch struct {
	SymbolName string
	FilePath   string
	StartLine  int
	EndLine    int
}

// Statistics summarizes a project's indexed state for the status
// subcommand.
type Statistics struct {
	TotalFiles   int
	TotalSymbols int
	TotalChunks  int
	TotalSize    int64
	LastIndexed  time.Time
}
