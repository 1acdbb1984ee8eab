// Package embedding defines the pluggable embedding client contract
// and its concrete implementations: a deterministic, offline "static"
// embedder and a network-backed Ollama embedder.
package embedding

import (
	"context"
	"math"
)

// Client turns text into unit-length embedding vectors; the static
// client returns an all-zero vector for blank text. A Client is a
// pure function of its input text: the same text produces the same
// vector every run, deterministic per model, regardless of whether
// texts are embedded one at a time or in a batch.
type Client interface {
	// Embed embeds a single text.
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch embeds multiple texts, optionally more efficiently
	// than repeated Embed calls.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	// Dimension returns the fixed vector width this client produces.
	Dimension() int
	// ModelName identifies the model/version, used to key caches.
	ModelName() string
	// Available reports whether the client is ready to serve requests
	// (e.g. a remote model server is reachable).
	Available(ctx context.Context) bool
	// Close releases any held resources.
	Close() error
}

func normalize(v []float32) []float32 {
	var sumSquares float64
	for _, x := range v {
		sumSquares += float64(x) * float64(x)
	}
	magnitude := math.Sqrt(sumSquares)
	if magnitude == 0 {
		return v
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / magnitude)
	}
	return out
}
