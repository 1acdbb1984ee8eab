package embedding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codesearch-dev/codesearch/internal/config"
	"github.com/codesearch-dev/codesearch/internal/indexerr"
)

func TestNewDefaultsToStaticProvider(t *testing.T) {
	c, err := New(config.EmbeddingsConfig{Dimension: 64})
	require.NoError(t, err)
	assert.Equal(t, 64, c.Dimension())
	assert.Equal(t, "static", c.ModelName())
}

func TestNewOllamaRequiresHost(t *testing.T) {
	_, err := New(config.EmbeddingsConfig{Provider: "ollama", Dimension: 64})
	require.Error(t, err)
	assert.Equal(t, indexerr.KindConfig, indexerr.KindOf(err))
}

func TestNewOllamaBuildsClient(t *testing.T) {
	c, err := New(config.EmbeddingsConfig{Provider: "ollama", OllamaHost: "http://localhost:11434", Model: "nomic-embed-text", Dimension: 768})
	require.NoError(t, err)
	assert.Equal(t, 768, c.Dimension())
	assert.Equal(t, "nomic-embed-text", c.ModelName())
}

func TestNewUnknownProviderErrors(t *testing.T) {
	_, err := New(config.EmbeddingsConfig{Provider: "bogus"})
	require.Error(t, err)
	assert.Equal(t, indexerr.KindConfig, indexerr.KindOf(err))
}
