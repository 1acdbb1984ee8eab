package symbol

import (
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/codesearch-dev/codesearch/internal/metadata"
)

// Registry maps file extensions and language names to tree-sitter
// grammars and their symbol-kind configuration.
type Registry struct {
	mu          sync.RWMutex
	configs     map[string]*LanguageConfig
	extToLang   map[string]string
	tsLanguages map[string]*sitter.Language
}

// NewRegistry builds a registry with Go, TypeScript, TSX, JavaScript,
// Python, and Rust registered.
func NewRegistry() *Registry {
	r := &Registry{
		configs:     make(map[string]*LanguageConfig),
		extToLang:   make(map[string]string),
		tsLanguages: make(map[string]*sitter.Language),
	}
	r.registerGo()
	r.registerTypeScript()
	r.registerJavaScript()
	r.registerPython()
	r.registerRust()
	return r
}

func (r *Registry) register(config *LanguageConfig, tsLang *sitter.Language) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.configs[config.Name] = config
	r.tsLanguages[config.Name] = tsLang
	for _, ext := range config.Extensions {
		r.extToLang[ext] = config.Name
	}
}

// GetByExtension returns the language config registered for ext (with
// or without a leading dot).
func (r *Registry) GetByExtension(ext string) (*LanguageConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	name, ok := r.extToLang[ext]
	if !ok {
		return nil, false
	}
	config, ok := r.configs[name]
	return config, ok
}

// GetTreeSitterLanguage returns the grammar registered for a language
// name.
func (r *Registry) GetTreeSitterLanguage(name string) (*sitter.Language, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	lang, ok := r.tsLanguages[name]
	return lang, ok
}

// SupportedExtensions lists every registered file extension.
func (r *Registry) SupportedExtensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exts := make([]string, 0, len(r.extToLang))
	for ext := range r.extToLang {
		exts = append(exts, ext)
	}
	return exts
}

func (r *Registry) registerGo() {
	r.register(&LanguageConfig{
		Name:       "go",
		Extensions: []string{".go"},
		NodeKinds: map[string]metadata.SymbolKind{
			"function_declaration": metadata.SymbolFunction,
			"method_declaration":   metadata.SymbolFunction,
			"type_declaration":     metadata.SymbolTypeAlias,
			"const_declaration":    metadata.SymbolConstant,
			"var_declaration":      metadata.SymbolVariable,
			"import_declaration":   metadata.SymbolImport,
		},
		NameField: "name",
	}, golang.GetLanguage())
}

func (r *Registry) registerTypeScript() {
	base := map[string]metadata.SymbolKind{
		"function_declaration":   metadata.SymbolFunction,
		"method_definition":      metadata.SymbolFunction,
		"class_declaration":      metadata.SymbolClass,
		"interface_declaration":  metadata.SymbolTrait,
		"type_alias_declaration": metadata.SymbolTypeAlias,
		"lexical_declaration":    metadata.SymbolConstant,
		"variable_declaration":   metadata.SymbolVariable,
		"import_statement":       metadata.SymbolImport,
		"enum_declaration":       metadata.SymbolEnum,
	}
	r.register(&LanguageConfig{Name: "typescript", Extensions: []string{".ts"}, NodeKinds: base, NameField: "name"}, typescript.GetLanguage())
	r.register(&LanguageConfig{Name: "tsx", Extensions: []string{".tsx"}, NodeKinds: base, NameField: "name"}, tsx.GetLanguage())
}

func (r *Registry) registerJavaScript() {
	base := map[string]metadata.SymbolKind{
		"function_declaration": metadata.SymbolFunction,
		"function":             metadata.SymbolFunction,
		"method_definition":    metadata.SymbolFunction,
		"class_declaration":    metadata.SymbolClass,
		"lexical_declaration":  metadata.SymbolConstant,
		"variable_declaration": metadata.SymbolVariable,
		"import_statement":     metadata.SymbolImport,
	}
	r.register(&LanguageConfig{Name: "javascript", Extensions: []string{".js", ".mjs"}, NodeKinds: base, NameField: "name"}, javascript.GetLanguage())
	r.register(&LanguageConfig{Name: "jsx", Extensions: []string{".jsx"}, NodeKinds: base, NameField: "name"}, javascript.GetLanguage())
}

func (r *Registry) registerPython() {
	r.register(&LanguageConfig{
		Name:       "python",
		Extensions: []string{".py"},
		NodeKinds: map[string]metadata.SymbolKind{
			"function_definition": metadata.SymbolFunction,
			"class_definition":    metadata.SymbolClass,
			"import_statement":    metadata.SymbolImport,
			"import_from_statement": metadata.SymbolImport,
		},
		NameField: "name",
	}, python.GetLanguage())
}

func (r *Registry) registerRust() {
	r.register(&LanguageConfig{
		Name:       "rust",
		Extensions: []string{".rs"},
		NodeKinds: map[string]metadata.SymbolKind{
			"function_item":    metadata.SymbolFunction,
			"struct_item":      metadata.SymbolStruct,
			"enum_item":        metadata.SymbolEnum,
			"trait_item":       metadata.SymbolTrait,
			"impl_item":        metadata.SymbolImpl,
			"mod_item":         metadata.SymbolModule,
			"use_declaration":  metadata.SymbolImport,
			"const_item":       metadata.SymbolConstant,
			"static_item":      metadata.SymbolStatic,
			"type_item":        metadata.SymbolTypeAlias,
			"macro_definition": metadata.SymbolMacro,
		},
		NameField: "name",
	}, rust.GetLanguage())
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the package-wide shared registry.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// LanguageForPath returns the registered language name for a file
// path's extension, or ("", false) if unsupported.
func LanguageForPath(registry *Registry, path string) (string, bool) {
	idx := strings.LastIndex(path, ".")
	if idx < 0 {
		return "", false
	}
	cfg, ok := registry.GetByExtension(path[idx:])
	if !ok {
		return "", false
	}
	return cfg.Name, true
}
