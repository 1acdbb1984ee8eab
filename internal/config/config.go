// Package config loads and validates project configuration for the
// indexer, search engine, and CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/codesearch-dev/codesearch/internal/indexerr"
)

// IndexDirName is the per-project directory holding the metadata
// store, vector store, and configuration file.
const IndexDirName = ".codesearch"

// Config is the root configuration document, loaded from
// <project>/.codesearch/config.yaml.
type Config struct {
	Version    int              `yaml:"version"`
	Paths      PathsConfig      `yaml:"paths"`
	Chunking   ChunkingConfig   `yaml:"chunking"`
	Embeddings EmbeddingsConfig `yaml:"embeddings"`
	Search     SearchConfig     `yaml:"search"`
	Watch      WatchConfig      `yaml:"watch"`
	Server     ServerConfig     `yaml:"server"`
}

type PathsConfig struct {
	// ExcludeGlobs are additional patterns excluded beyond the built-in
	// defaults (.git, node_modules, vendor, build output, and the
	// index directory itself).
	ExcludeGlobs []string `yaml:"exclude_globs"`
	// RespectGitignore honors .gitignore files found while scanning.
	RespectGitignore bool `yaml:"respect_gitignore"`
	// MaxFileSizeBytes skips files larger than this during scanning.
	// Zero or a negative value uses the scanner's 10 MiB default.
	MaxFileSizeBytes int64 `yaml:"max_file_size_bytes"`
}

type ChunkingConfig struct {
	// LineWindowSize is the number of lines per chunk for files with no
	// detected language (e.g. markdown and other prose files), which are
	// split into line windows instead of symbol chunks.
	LineWindowSize int `yaml:"line_window_size"`
}

type EmbeddingsConfig struct {
	// Provider selects the embedding backend: "static" (deterministic,
	// offline, default) or "ollama" (local model server).
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	// Dimension is the embedding vector width. Must match what the
	// provider actually returns.
	Dimension int `yaml:"dimension"`
	BatchSize int `yaml:"batch_size"`
	CacheSize int `yaml:"cache_size"`
	// OllamaHost is used only when Provider is "ollama".
	OllamaHost string `yaml:"ollama_host"`
}

type SearchConfig struct {
	DefaultLimit    int     `yaml:"default_limit"`
	DefaultMinScore float32 `yaml:"default_min_score"`
	// ANNBackend selects the candidate-generation layer for semantic
	// search: "bucket" (default) or "hnsw".
	ANNBackend string `yaml:"ann_backend"`
	// UseFulltextPrefilter builds the in-memory bleve full-text index
	// that backs the keyword query type. Symbol search does not consult
	// it.
	UseFulltextPrefilter bool `yaml:"use_fulltext_prefilter"`
}

type WatchConfig struct {
	DebounceMillis int `yaml:"debounce_millis"`
}

type ServerConfig struct {
	// MCPEnabled controls whether `codesearch serve` is available.
	MCPEnabled bool `yaml:"mcp_enabled"`
}

// Default returns a fully populated configuration with sensible
// defaults for every field.
func Default() Config {
	return Config{
		Version: 1,
		Paths: PathsConfig{
			ExcludeGlobs:     []string{},
			RespectGitignore: true,
			MaxFileSizeBytes: 5 * 1024 * 1024,
		},
		Chunking: ChunkingConfig{
			LineWindowSize: 50,
		},
		Embeddings: EmbeddingsConfig{
			Provider:  "static",
			Model:     "static-768",
			Dimension: 768,
			BatchSize: 32,
			CacheSize: 2000,
		},
		Search: SearchConfig{
			DefaultLimit:         20,
			DefaultMinScore:      0.5,
			ANNBackend:           "bucket",
			UseFulltextPrefilter: false,
		},
		Watch: WatchConfig{
			DebounceMillis: 100,
		},
		Server: ServerConfig{
			MCPEnabled: true,
		},
	}
}

// Path returns the configuration file path for a project root.
func Path(projectRoot string) string {
	return filepath.Join(projectRoot, IndexDirName, "config.yaml")
}

// Load reads configuration from <projectRoot>/.codesearch/config.yaml,
// applying defaults for any field the file omits. A missing file is
// not an error: Default() is returned as-is.
func Load(projectRoot string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(Path(projectRoot))
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, indexerr.Config("CONFIG_READ", "failed to read config file", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, indexerr.Config("CONFIG_PARSE", "failed to parse config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Save writes cfg to <projectRoot>/.codesearch/config.yaml, creating
// the index directory if necessary.
func Save(projectRoot string, cfg Config) error {
	path := Path(projectRoot)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return indexerr.IO("CONFIG_MKDIR", "failed to create index directory", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return indexerr.Config("CONFIG_MARSHAL", "failed to serialize config", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return indexerr.IO("CONFIG_WRITE", "failed to write config file", err)
	}
	return nil
}

// Validate rejects configuration combinations that would break the
// indexing or search pipeline.
func (c Config) Validate() error {
	if c.Embeddings.Dimension <= 0 {
		return indexerr.Config("CONFIG_INVALID_DIMENSION", fmt.Sprintf("embeddings.dimension must be positive, got %d", c.Embeddings.Dimension), nil)
	}
	if c.Search.DefaultLimit <= 0 {
		return indexerr.Config("CONFIG_INVALID_LIMIT", "search.default_limit must be positive", nil)
	}
	if c.Search.DefaultMinScore < 0 || c.Search.DefaultMinScore > 1 {
		return indexerr.Config("CONFIG_INVALID_MIN_SCORE", "search.default_min_score must be between 0 and 1", nil)
	}
	switch c.Search.ANNBackend {
	case "bucket", "hnsw":
	default:
		return indexerr.Config("CONFIG_INVALID_ANN_BACKEND", fmt.Sprintf("unknown search.ann_backend %q", c.Search.ANNBackend), nil)
	}
	switch c.Embeddings.Provider {
	case "static", "ollama":
	default:
		return indexerr.Config("CONFIG_INVALID_PROVIDER", fmt.Sprintf("unknown embeddings.provider %q", c.Embeddings.Provider), nil)
	}
	return nil
}

// DefaultExcludeDirs are always excluded from scanning, regardless of
// configuration, in addition to .gitignore rules and Paths.ExcludeGlobs.
var DefaultExcludeDirs = []string{
	".git", "node_modules", "__pycache__", "target", "build", "dist",
	"vendor", ".venv", ".idea", ".vscode", IndexDirName,
}

// FindProjectRoot walks up from startDir looking for a `.git` directory
// or an existing `.codesearch` index directory, returning the first
// directory that has one. If neither is found by the time the
// filesystem root is reached, the absolute form of startDir is returned
// as-is so callers can still index a bare directory.
func FindProjectRoot(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", indexerr.IO("CONFIG_ABS_START_DIR", "failed to resolve start directory", err)
	}

	dir := absDir
	for {
		if dirExists(filepath.Join(dir, ".git")) || dirExists(filepath.Join(dir, IndexDirName)) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return absDir, nil
		}
		dir = parent
	}
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
