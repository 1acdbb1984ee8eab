package symbol

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/codesearch-dev/codesearch/internal/indexerr"
)

// Extractor parses source files and extracts their symbols using a
// shared tree-sitter parser instance and language registry.
type Extractor struct {
	parser   *sitter.Parser
	registry *Registry
}

// NewExtractor builds an extractor against the default language
// registry.
func NewExtractor() *Extractor {
	return NewExtractorWithRegistry(DefaultRegistry())
}

// NewExtractorWithRegistry builds an extractor against a custom
// registry, useful for tests that only need one language configured.
func NewExtractorWithRegistry(registry *Registry) *Extractor {
	return &Extractor{parser: sitter.NewParser(), registry: registry}
}

// Close releases the underlying tree-sitter parser.
func (e *Extractor) Close() {
	if e.parser != nil {
		e.parser.Close()
	}
}

// Extract parses source as the named language and returns every symbol
// found. An unsupported language is not an error: it simply yields no
// symbols, letting the chunker fall back to whole-file chunking.
func (e *Extractor) Extract(ctx context.Context, source []byte, language string) ([]Symbol, error) {
	tsLang, ok := e.registry.GetTreeSitterLanguage(language)
	if !ok {
		return nil, nil
	}
	config, ok := e.registry.configs[language]
	if !ok {
		return nil, nil
	}

	e.parser.SetLanguage(tsLang)
	tree, err := e.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, indexerr.Parse("PARSE_TREE_SITTER", "failed to parse source", err)
	}
	if tree == nil {
		return nil, indexerr.Parse("PARSE_TREE_SITTER", "parser returned a nil tree", nil)
	}
	defer tree.Close()

	var symbols []Symbol
	walk(tree.RootNode(), "", config, source, &symbols)
	return symbols, nil
}

// walk recursively visits nodes, recording a Symbol whenever a node's
// type is one of the language's configured kinds, then recurses into
// children with that symbol (if any) as the new parent.
func walk(node *sitter.Node, parent string, config *LanguageConfig, source []byte, out *[]Symbol) {
	if node == nil {
		return
	}

	currentParent := parent
	if kind, ok := config.NodeKinds[node.Type()]; ok {
		name := nodeName(node, config.NameField, source)
		if name != "" {
			sym := Symbol{
				Name:      name,
				Kind:      kind,
				StartLine: int(node.StartPoint().Row) + 1,
				EndLine:   int(node.EndPoint().Row) + 1,
				StartByte: int(node.StartByte()),
				EndByte:   int(node.EndByte()),
				Parent:    parent,
			}
			*out = append(*out, sym)
			currentParent = name
		}
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		walk(node.Child(i), currentParent, config, source, out)
	}
}

// nodeName resolves a node's identifier via its named field, falling
// back to the first direct "identifier"-like child, or to the name of
// the first direct spec/declarator child, when the grammar doesn't
// expose a field (some grammars vary in this regard across node kinds,
// e.g. Go's var/const declarations keep their names in *_spec nodes).
func nodeName(node *sitter.Node, field string, source []byte) string {
	if field != "" {
		if named := node.ChildByFieldName(field); named != nil {
			return contentOf(named, source)
		}
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "identifier", "type_identifier", "field_identifier", "property_identifier":
			return contentOf(child, source)
		case "type_spec", "const_spec", "var_spec", "variable_declarator":
			if named := child.ChildByFieldName("name"); named != nil {
				return contentOf(named, source)
			}
		}
	}
	return ""
}

func contentOf(node *sitter.Node, source []byte) string {
	start, end := node.StartByte(), node.EndByte()
	if start >= end || int(end) > len(source) {
		return ""
	}
	return string(source[start:end])
}
