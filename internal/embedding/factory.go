package embedding

import (
	"fmt"

	"github.com/codesearch-dev/codesearch/internal/config"
	"github.com/codesearch-dev/codesearch/internal/indexerr"
)

// New constructs a cached Client from configuration.
func New(cfg config.EmbeddingsConfig) (Client, error) {
	var inner Client

	switch cfg.Provider {
	case "", "static":
		inner = NewStaticClient(cfg.Dimension)
	case "ollama":
		if cfg.OllamaHost == "" {
			return nil, indexerr.Config("EMBED_MISSING_HOST", "embeddings.ollama_host is required for the ollama provider", nil)
		}
		inner = NewOllamaClient(cfg.OllamaHost, cfg.Model, cfg.Dimension)
	default:
		return nil, indexerr.Config("EMBED_UNKNOWN_PROVIDER", fmt.Sprintf("unknown embeddings provider %q", cfg.Provider), nil)
	}

	return NewCachedClient(inner, cfg.CacheSize), nil
}
