// Package symbol extracts named code entities (functions, types,
// imports, and so on) from source files using tree-sitter grammars.
package symbol

import "github.com/codesearch-dev/codesearch/internal/metadata"

// Symbol is a named entity found in a parsed file.
type Symbol struct {
	Name      string
	Kind      metadata.SymbolKind
	StartLine int
	EndLine   int
	StartByte int
	EndByte   int
	Parent    string // empty when the symbol has no enclosing symbol
}

// LanguageConfig maps a language's tree-sitter grammar onto the
// symbol kinds this project understands: a node type such as
// "function_declaration" is associated with the SymbolKind it
// represents, and NameField names the tree-sitter field holding the
// symbol's identifier (almost always "name").
type LanguageConfig struct {
	Name       string
	Extensions []string
	NodeKinds  map[string]metadata.SymbolKind
	NameField  string
}
